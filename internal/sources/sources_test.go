package sources

import (
	"context"
	"database/sql"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/wsedit/pkg/types"
)

// createDB creates a SQLite file at path and runs the given statements.
func createDB(t *testing.T, path string, stmts ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err, s)
	}
}

func profileAt(root string) types.Profile {
	return types.Profile{Name: filepath.Base(root), Editor: types.EditorVSCode, Root: root}
}

func TestToURI(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/home/u/proj", "file:///home/u/proj"},
		{"/home/u/my proj", "file:///home/u/my%20proj"},
		{"C:/Users/x", "file:///C:/Users/x"},
		{"vscode-remote://ssh-remote+box/srv", "vscode-remote://ssh-remote+box/srv"},
		{"file:///already", "file:///already"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ToURI(tt.in))
		})
	}
}

type scriptedBackend struct {
	results []error
}

func (s scriptedBackend) Kind() types.SourceKind { return types.SourceManifest }
func (s scriptedBackend) Scan(context.Context, types.Profile) iter.Seq2[types.RawEntry, error] {
	return func(yield func(types.RawEntry, error) bool) {
		for i, err := range s.results {
			if !yield(types.RawEntry{NativeID: string(rune('a' + i))}, err) {
				return
			}
		}
	}
}
func (s scriptedBackend) Writable(types.Profile) bool { return false }
func (s scriptedBackend) Insert(context.Context, types.Profile, string) (types.Source, error) {
	return types.Source{}, types.ErrUnsupported
}
func (s scriptedBackend) Relabel(context.Context, types.Source, string) (bool, error) {
	return false, nil
}
func (s scriptedBackend) Remove(context.Context, types.Source) error { return nil }

func TestCollect(t *testing.T) {
	src := types.Source{Kind: types.SourceManifest, Location: "/x"}
	b := scriptedBackend{results: []error{
		nil,
		malformed(src, "bad entry"),
		unreadable(src, types.ErrStoreCorrupt),
		errors.New("bare failure"),
		nil,
	}}

	c := Collect(context.Background(), b, profileAt("/root"))
	assert.Len(t, c.Entries, 2)
	require.Len(t, c.Skipped, 1)
	assert.ErrorIs(t, c.Skipped[0], types.ErrMalformedEntry)
	require.Len(t, c.Failures, 2)
	assert.ErrorIs(t, c.Failures[0], types.ErrStoreCorrupt)
	assert.Equal(t, "/root", c.Failures[1].Source.Location)
}
