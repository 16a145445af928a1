// Package types defines the workspace record model, the Backend interface that
// every on-disk store implements, and the standard errors shared by the
// registry, its readers, and the CLI.
package types
