package types

// ZedProfileName is the reserved identifier of the pseudo-profile that exposes
// Zed workspaces. It has no backing directory.
const ZedProfileName = "::zed"

// Editor families with known install locations.
const (
	EditorVSCode         = "vscode"
	EditorVSCodeInsiders = "vscode-insiders"
	EditorVSCodium       = "vscodium"
	EditorCodeOSS        = "code-oss"
	EditorCursor         = "cursor"
	EditorZed            = "zed"
)

// Profile is one root under which an editor stores workspace state.
type Profile struct {
	Name   string `json:"name"`
	Editor string `json:"editor"`
	Root   string `json:"root,omitempty"`
	Pseudo bool   `json:"pseudo,omitempty"`
}

// Identifier returns the string callers pass back to the registry to select
// this profile.
func (p Profile) Identifier() string {
	if p.Pseudo {
		return p.Name
	}
	return p.Root
}
