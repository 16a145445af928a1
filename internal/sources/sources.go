// Package sources implements the backends that read and write workspace
// entries in editor-owned stores: per-workspace JSON manifests, the
// state.vscdb database and Zed's db.sqlite.
package sources

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mesh-intelligence/wsedit/pkg/types"
)

var (
	uriSchemeRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://`)
	driveRe     = regexp.MustCompile(`^[A-Za-z]:`)
)

// Collected is the drained result of one backend scan.
type Collected struct {
	Entries  []types.RawEntry
	Skipped  []*types.SourceError // malformed entries
	Failures []*types.SourceError // unreadable store locations
}

// Collect drains b.Scan for profile. Errors that are not a *SourceError are
// attributed to the backend as a whole.
func Collect(ctx context.Context, b types.Backend, profile types.Profile) Collected {
	var c Collected
	for entry, err := range b.Scan(ctx, profile) {
		if err == nil {
			c.Entries = append(c.Entries, entry)
			continue
		}
		var se *types.SourceError
		if !errors.As(err, &se) {
			se = &types.SourceError{Source: types.Source{Kind: b.Kind(), Location: profile.Root}, Err: err}
		}
		if errors.Is(se, types.ErrMalformedEntry) {
			c.Skipped = append(c.Skipped, se)
		} else {
			c.Failures = append(c.Failures, se)
		}
	}
	return c
}

// ToURI converts a filesystem path to the file URI form the editors store.
// Strings that already carry a scheme are returned unchanged.
func ToURI(p string) string {
	if uriSchemeRe.MatchString(p) {
		return p
	}
	slashed := filepath.ToSlash(p)
	if driveRe.MatchString(slashed) {
		slashed = "/" + slashed
	}
	return (&url.URL{Scheme: "file", Path: slashed}).String()
}

func malformed(src types.Source, format string, args ...any) *types.SourceError {
	return &types.SourceError{Source: src, Err: fmt.Errorf("%w: %s", types.ErrMalformedEntry, fmt.Sprintf(format, args...))}
}

func unreadable(src types.Source, err error) *types.SourceError {
	return &types.SourceError{Source: src, Err: err}
}

// ioErr wraps a filesystem failure with ErrIO unless it is already
// classified.
func ioErr(op string, err error) error {
	if errors.Is(err, types.ErrStoreBusy) || errors.Is(err, types.ErrStoreCorrupt) || errors.Is(err, types.ErrIO) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", types.ErrIO, op, err)
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}

// writeFileAtomic writes data to path using the temp-file, fsync, rename
// pattern so a reader never observes a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func isWorkspaceFile(uri string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimRight(uri, "/")), ".code-workspace")
}
