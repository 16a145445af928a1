package sources

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/wsedit/pkg/types"
)

func writeManifest(t *testing.T, root, id, body string, mtime time.Time) string {
	t.Helper()
	dir := filepath.Join(StorageDir(root), id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, manifestFile)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return dir
}

func TestManifest_Scan(t *testing.T) {
	root := t.TempDir()
	used := time.Unix(1_700_000_000, 0)

	folderDir := writeManifest(t, root, "aaa", `{"folder":"file:///home/u/proj","extra":true}`, used)
	writeManifest(t, root, "bbb", `{"workspace":"file:///home/u/team.code-workspace"}`, used.Add(time.Hour))
	writeManifest(t, root, "ccc", `{not json`, used)
	writeManifest(t, root, "ddd", `{"other":"value"}`, used)
	require.NoError(t, os.MkdirAll(filepath.Join(StorageDir(root), "eee"), 0o755))

	c := Collect(context.Background(), NewManifest(nil), profileAt(root))
	require.Len(t, c.Entries, 2)
	assert.Len(t, c.Skipped, 2)
	assert.Empty(t, c.Failures)

	first := c.Entries[0]
	assert.Equal(t, "file:///home/u/proj", first.RawPath)
	assert.Equal(t, "aaa", first.NativeID)
	assert.Equal(t, used.Unix(), first.LastUsed)
	assert.Equal(t, types.Source{Kind: types.SourceManifest, Location: folderDir, NativeID: "aaa"}, first.Source)

	assert.Equal(t, "file:///home/u/team.code-workspace", c.Entries[1].RawPath)
	assert.Equal(t, used.Add(time.Hour).Unix(), c.Entries[1].LastUsed)
}

func TestManifest_ScanMissingStorage(t *testing.T) {
	c := Collect(context.Background(), NewManifest(nil), profileAt(t.TempDir()))
	assert.Empty(t, c.Entries)
	assert.Empty(t, c.Skipped)
	assert.Empty(t, c.Failures)
}

func TestManifest_ScanSkipsPseudoProfile(t *testing.T) {
	c := Collect(context.Background(), NewManifest(nil), types.Profile{Name: types.ZedProfileName, Pseudo: true})
	assert.Empty(t, c.Entries)
}

func TestManifestURI(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"folder", `{"folder":"file:///a"}`, "file:///a"},
		{"workspace string", `{"workspace":"file:///a.code-workspace"}`, "file:///a.code-workspace"},
		{"workspace object", `{"workspace":{"id":"x","configPath":"file:///b.code-workspace"}}`, "file:///b.code-workspace"},
		{"legacy configuration", `{"configuration":"file:///c.code-workspace"}`, "file:///c.code-workspace"},
		{"empty folder", `{"folder":""}`, ""},
		{"non-string folder", `{"folder":42}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, manifestURI([]byte(tt.doc)))
		})
	}
}

func TestManifest_InsertAndRemove(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(StorageDir(root), 0o755))
	m := NewManifest(nil)
	p := profileAt(root)

	require.True(t, m.Writable(p))
	src, err := m.Insert(ctx, p, "/home/u/new proj")
	require.NoError(t, err)
	assert.Equal(t, types.SourceManifest, src.Kind)
	assert.Equal(t, StorageDir(root), filepath.Dir(src.Location))

	again, err := m.Insert(ctx, p, "/home/u/new proj")
	require.NoError(t, err)
	assert.Equal(t, src, again, "same path maps to the same storage directory")

	c := Collect(ctx, m, p)
	require.Len(t, c.Entries, 1)
	assert.Equal(t, "file:///home/u/new%20proj", c.Entries[0].RawPath)

	require.NoError(t, m.Remove(ctx, src))
	assert.NoDirExists(t, src.Location)
	assert.NoError(t, m.Remove(ctx, src), "removing twice is not an error")
	assert.Empty(t, Collect(ctx, m, p).Entries)
}

func TestManifest_InsertWorkspaceFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(StorageDir(root), 0o755))

	src, err := NewManifest(nil).Insert(context.Background(), profileAt(root), "/home/u/team.code-workspace")
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(src.Location, manifestFile))
	require.NoError(t, err)
	assert.JSONEq(t, `{"workspace":"file:///home/u/team.code-workspace"}`, string(data))
}

func TestManifest_InsertNotWritable(t *testing.T) {
	_, err := NewManifest(nil).Insert(context.Background(), profileAt(t.TempDir()), "/x")
	assert.ErrorIs(t, err, types.ErrNotWritable)
}

func TestManifest_RemoveGuards(t *testing.T) {
	ctx := context.Background()
	m := NewManifest(nil)

	outside := t.TempDir()
	err := m.Remove(ctx, types.Source{Kind: types.SourceManifest, Location: outside})
	assert.ErrorIs(t, err, types.ErrInvalidPath)
	assert.DirExists(t, outside)

	root := t.TempDir()
	noManifest := filepath.Join(StorageDir(root), "zzz")
	require.NoError(t, os.MkdirAll(noManifest, 0o755))
	err = m.Remove(ctx, types.Source{Kind: types.SourceManifest, Location: noManifest})
	assert.ErrorIs(t, err, types.ErrInvalidPath)
	assert.DirExists(t, noManifest)
}

func TestManifest_RelabelUnsupported(t *testing.T) {
	ok, err := NewManifest(nil).Relabel(context.Background(), types.Source{}, "name")
	assert.NoError(t, err)
	assert.False(t, ok)
}
