package types

import (
	"fmt"
	"strconv"
)

// WorkspaceType is the structural kind of a workspace path.
type WorkspaceType string

// Workspace types derived from the trailing path segment.
const (
	TypeFolder    WorkspaceType = "folder"
	TypeFile      WorkspaceType = "file"
	TypeWorkspace WorkspaceType = "workspace" // multi-root .code-workspace file
)

// WorkspacePathInfo is the classification of a raw workspace path. It is
// derived on every read and never persisted.
type WorkspacePathInfo struct {
	OriginalPath  string        `json:"original_path"`
	Type          WorkspaceType `json:"type"`
	Scheme        string        `json:"scheme,omitempty"`
	Authority     string        `json:"remote_authority,omitempty"`
	Host          string        `json:"remote_host,omitempty"`
	User          string        `json:"remote_user,omitempty"`
	Port          int           `json:"remote_port,omitempty"`
	Path          string        `json:"path"`
	ContainerPath string        `json:"container_path,omitempty"`
	Label         string        `json:"label,omitempty"`
	Tags          []string      `json:"tags"`
	Canonical     string        `json:"canonical"`
	Warnings      []string      `json:"warnings,omitempty"`
}

// IsRemote reports whether the path points at another machine or container.
func (i WorkspacePathInfo) IsRemote() bool {
	return i.Host != "" || i.Authority != ""
}

// HasTag reports whether tag was detected on the path.
func (i WorkspacePathInfo) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// WorkspaceRecord is the merged, classified unit returned to callers.
type WorkspaceRecord struct {
	ID           string            `json:"id"`
	DisplayName  string            `json:"display_name,omitempty"`
	Path         string            `json:"path"`
	OriginalPath string            `json:"original_path"`
	LastUsed     int64             `json:"last_used"`
	Sources      []Source          `json:"sources"`
	Info         WorkspacePathInfo `json:"parsed_info"`
}

// Label returns the human label for the record: the stored display name,
// then the classifier label, then a host-qualified path for remotes.
func (r WorkspaceRecord) Label() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	if r.Info.Label != "" {
		return r.Info.Label
	}
	if r.Info.Host != "" {
		remote := r.Info.Host
		if r.Info.User != "" {
			remote = r.Info.User + "@" + remote
		}
		if r.Info.Port != 0 {
			remote += ":" + strconv.Itoa(r.Info.Port)
		}
		return fmt.Sprintf("%s: %s", remote, r.Info.Path)
	}
	return r.Path
}

// HasSourceKind reports whether any contributing source is of kind k.
func (r WorkspaceRecord) HasSourceKind(k SourceKind) bool {
	for _, s := range r.Sources {
		if s.Kind == k {
			return true
		}
	}
	return false
}
