// Command wsedit inspects and edits the recent workspaces of VS Code family
// editors and Zed.
package main

import "github.com/mesh-intelligence/wsedit/internal/cli"

func main() {
	cli.Execute()
}
