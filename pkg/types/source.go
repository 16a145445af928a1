package types

import "fmt"

// SourceKind names a backend format.
type SourceKind string

// Known backend kinds. The order of declaration is the order in which the
// registry scans and reports them.
const (
	SourceManifest SourceKind = "manifest" // workspaceStorage/<id>/workspace.json
	SourceStateDB  SourceKind = "statedb"  // state.vscdb recently-opened list
	SourceZed      SourceKind = "zed"      // Zed db.sqlite workspaces table
)

// Source identifies one native entry inside one backend location. Writes are
// only ever applied to the exact Source recorded on a WorkspaceRecord.
type Source struct {
	Kind     SourceKind `json:"kind"`
	Location string     `json:"location"`
	NativeID string     `json:"native_id,omitempty"`
}

// String renders the source as kind(location).
func (s Source) String() string {
	return fmt.Sprintf("%s(%s)", s.Kind, s.Location)
}

// RawEntry is an unmerged, unclassified entry as extracted from one backend.
type RawEntry struct {
	NativeID string
	RawPath  string
	Label    string
	LastUsed int64 // seconds since epoch; zero when unknown
	Source   Source
}
