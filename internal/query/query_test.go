package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/wsedit/internal/classify"
	"github.com/mesh-intelligence/wsedit/pkg/types"
)

func record(t *testing.T, raw, name string) types.WorkspaceRecord {
	t.Helper()
	info, err := classify.Classify(raw)
	require.NoError(t, err)
	return types.WorkspaceRecord{ID: raw, DisplayName: name, Path: info.Canonical, OriginalPath: raw, Info: info}
}

func TestParse(t *testing.T) {
	q, err := Parse("  API :remote:yes :type:workspace :tag:SSH :path:/srv :existing:no  server ")
	require.NoError(t, err)

	require.NotNil(t, q.Remote)
	assert.True(t, *q.Remote)
	require.NotNil(t, q.Existing)
	assert.False(t, *q.Existing)
	assert.Equal(t, types.TypeWorkspace, q.Type)
	assert.Equal(t, "ssh", q.Tag)
	assert.Equal(t, "/srv", q.Path)
	assert.Equal(t, []string{"api", "server"}, q.Keywords)
	assert.False(t, q.Empty())

	empty, err := Parse("   ")
	require.NoError(t, err)
	assert.True(t, empty.Empty())
}

func TestParse_InvalidValues(t *testing.T) {
	for _, s := range []string{":remote:maybe", ":existing:", ":type:directory"} {
		_, err := Parse(s)
		assert.ErrorIs(t, err, ErrInvalidQuery, s)
	}
}

func TestMatch(t *testing.T) {
	local := record(t, "/home/u/api-server", "")
	remote := record(t, "vscode-remote://ssh-remote+box/srv/app", "Prod App")
	ws := record(t, "/home/u/team.code-workspace", "")
	all := []types.WorkspaceRecord{local, remote, ws}

	exists := func(r types.WorkspaceRecord) bool { return r.ID == local.ID }

	tests := []struct {
		query string
		want  []types.WorkspaceRecord
	}{
		{"", all},
		{":remote:yes", []types.WorkspaceRecord{remote}},
		{":remote:no", []types.WorkspaceRecord{local, ws}},
		{":type:workspace", []types.WorkspaceRecord{ws}},
		{":tag:ss", []types.WorkspaceRecord{remote}},
		{":path:/home/u", []types.WorkspaceRecord{local, ws}},
		{":existing:yes", []types.WorkspaceRecord{local}},
		{"prod", []types.WorkspaceRecord{remote}},
		{"api server", []types.WorkspaceRecord{local}},
		{"api missing", []types.WorkspaceRecord{}},
		{"HOME :type:folder", []types.WorkspaceRecord{local}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, err := Parse(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.Filter(all, exists))
		})
	}
}
