package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkspaceRecordLabel(t *testing.T) {
	tests := []struct {
		name   string
		record WorkspaceRecord
		want   string
	}{
		{
			name:   "display name wins",
			record: WorkspaceRecord{DisplayName: "api", Path: "/src/api", Info: WorkspacePathInfo{Label: "api-dir"}},
			want:   "api",
		},
		{
			name:   "falls back to classifier label",
			record: WorkspaceRecord{Path: "/src/api", Info: WorkspacePathInfo{Label: "api-dir"}},
			want:   "api-dir",
		},
		{
			name: "remote without label shows host and path",
			record: WorkspaceRecord{
				Path: "ssh://me@box:2222/",
				Info: WorkspacePathInfo{Host: "box", User: "me", Port: 2222, Path: "/"},
			},
			want: "me@box:2222: /",
		},
		{
			name:   "bare path as last resort",
			record: WorkspaceRecord{Path: "/"},
			want:   "/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.record.Label())
		})
	}
}

func TestWorkspacePathInfo(t *testing.T) {
	info := WorkspacePathInfo{Host: "box", Tags: []string{"remote", "ssh"}}
	assert.True(t, info.IsRemote())
	assert.True(t, info.HasTag("ssh"))
	assert.False(t, info.HasTag("wsl"))

	assert.False(t, WorkspacePathInfo{Path: "/tmp"}.IsRemote())
}

func TestWorkspaceRecordHasSourceKind(t *testing.T) {
	r := WorkspaceRecord{Sources: []Source{{Kind: SourceManifest, Location: "/p/User/workspaceStorage/abc"}}}
	assert.True(t, r.HasSourceKind(SourceManifest))
	assert.False(t, r.HasSourceKind(SourceStateDB))
}

func TestProfileIdentifier(t *testing.T) {
	assert.Equal(t, "/home/me/.config/Code", Profile{Name: "Code", Root: "/home/me/.config/Code"}.Identifier())
	assert.Equal(t, ZedProfileName, Profile{Name: ZedProfileName, Pseudo: true}.Identifier())
}
