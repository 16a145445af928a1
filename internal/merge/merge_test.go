package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/wsedit/internal/classify"
	"github.com/mesh-intelligence/wsedit/pkg/types"
)

func manifestEntry(id, raw string, lastUsed int64) types.RawEntry {
	return types.RawEntry{
		NativeID: id,
		RawPath:  raw,
		LastUsed: lastUsed,
		Source:   types.Source{Kind: types.SourceManifest, Location: "/p/User/workspaceStorage/" + id, NativeID: id},
	}
}

func stateEntry(raw, label string, lastUsed int64) types.RawEntry {
	return types.RawEntry{
		NativeID: raw,
		RawPath:  raw,
		Label:    label,
		LastUsed: lastUsed,
		Source:   types.Source{Kind: types.SourceStateDB, Location: "/p/User/globalStorage/state.vscdb", NativeID: raw},
	}
}

func TestMerge_CollapsesEqualPaths(t *testing.T) {
	entries := []types.RawEntry{
		manifestEntry("aaa", "file:///home/u/proj", 100),
		stateEntry("file:///home/u/proj/", "Project", 200),
		stateEntry("file:///home/u/other", "", 50),
	}

	records, skipped := Merge(entries, false)
	assert.Empty(t, skipped)
	require.Len(t, records, 2)

	proj := records[0]
	assert.Equal(t, classify.ID("/home/u/proj"), proj.ID)
	assert.Equal(t, "/home/u/proj", proj.Path)
	assert.Equal(t, "file:///home/u/proj/", proj.OriginalPath, "most recent entry supplies the original path")
	assert.Equal(t, "Project", proj.DisplayName)
	assert.Equal(t, "Project", proj.Label())
	assert.Equal(t, int64(200), proj.LastUsed)
	assert.Equal(t, []types.Source{entries[0].Source, entries[1].Source}, proj.Sources)

	other := records[1]
	assert.Equal(t, "/home/u/other", other.Path)
	assert.Equal(t, "other", other.Label())
	assert.Len(t, other.Sources, 1)
}

func TestMerge_LastUsedIsMaximum(t *testing.T) {
	entries := []types.RawEntry{
		manifestEntry("a", "/x", 300),
		stateEntry("/x", "", 100),
		manifestEntry("b", "file:///x", 200),
	}
	records, _ := Merge(entries, false)
	require.Len(t, records, 1)
	assert.Equal(t, int64(300), records[0].LastUsed)
	assert.Len(t, records[0].Sources, 3)
}

func TestMerge_LabelFromOlderEntry(t *testing.T) {
	entries := []types.RawEntry{
		manifestEntry("a", "file:///home/u/proj", 500),
		stateEntry("file:///home/u/proj", "Named", 10),
	}
	records, _ := Merge(entries, false)
	require.Len(t, records, 1)
	assert.Equal(t, "Named", records[0].DisplayName)
	assert.Equal(t, "file:///home/u/proj", records[0].OriginalPath)
	assert.Equal(t, types.SourceManifest, records[0].Sources[0].Kind)
}

func TestMerge_DeterministicUnderReordering(t *testing.T) {
	a := manifestEntry("aaa", "file:///home/u/proj", 100)
	b := stateEntry("file:///home/u/proj", "Project", 100)
	c := stateEntry("vscode-remote://ssh-remote+box/srv", "", 100)
	d := manifestEntry("ddd", "vscode-remote://ssh-remote+box/srv/", 100)

	want, _ := Merge([]types.RawEntry{a, b, c, d}, false)
	orders := [][]types.RawEntry{
		{d, c, b, a},
		{b, d, a, c},
		{c, a, d, b},
	}
	for _, order := range orders {
		got, _ := Merge(order, false)
		assert.Equal(t, want, got)
	}
}

func TestMerge_CaseFolding(t *testing.T) {
	entries := []types.RawEntry{
		manifestEntry("a", "/Users/X/Proj", 1),
		stateEntry("/users/x/proj", "", 2),
	}

	folded, _ := Merge(entries, true)
	assert.Len(t, folded, 1)

	exact, _ := Merge(entries, false)
	assert.Len(t, exact, 2)
}

func TestMerge_SkipsUnclassifiable(t *testing.T) {
	entries := []types.RawEntry{
		manifestEntry("a", "/home/u/ok", 1),
		manifestEntry("b", "   ", 2),
	}
	records, skipped := Merge(entries, false)
	assert.Len(t, records, 1)
	require.Len(t, skipped, 1)
	assert.ErrorIs(t, skipped[0], types.ErrInvalidPath)
	assert.Equal(t, "b", skipped[0].Source.NativeID)
}

func TestMerge_DeduplicatesSources(t *testing.T) {
	e := stateEntry("/x", "", 1)
	records, _ := Merge([]types.RawEntry{e, e}, false)
	require.Len(t, records, 1)
	assert.Len(t, records[0].Sources, 1)
}

func TestMerge_Empty(t *testing.T) {
	records, skipped := Merge(nil, false)
	assert.NotNil(t, records)
	assert.Empty(t, records)
	assert.Empty(t, skipped)
}

func TestSort(t *testing.T) {
	records := []types.WorkspaceRecord{
		{ID: "3", Path: "/b", LastUsed: 1},
		{ID: "1", Path: "/a", LastUsed: 5},
		{ID: "2", Path: "/a", LastUsed: 1},
	}
	Sort(records)
	assert.Equal(t, []string{"1", "2", "3"}, []string{records[0].ID, records[1].ID, records[2].ID})
}

func TestPassthrough(t *testing.T) {
	zed := func(id, raw string, lastUsed int64) types.RawEntry {
		return types.RawEntry{
			NativeID: id,
			RawPath:  raw,
			LastUsed: lastUsed,
			Source:   types.Source{Kind: types.SourceZed, Location: "/zed/0-stable/db.sqlite", NativeID: id},
		}
	}
	entries := []types.RawEntry{
		zed("1", "/home/u/a", 10),
		zed("2", "ssh://me@box:22/srv", 30),
		zed("3", "/home/u/a/", 20),
		zed("4", "", 5),
	}

	records, skipped := Passthrough(entries, false)
	require.Len(t, skipped, 1)
	require.Len(t, records, 2)

	assert.Equal(t, "ssh://me@box:22/srv", records[0].Path)
	assert.True(t, records[0].Info.IsRemote())

	a := records[1]
	assert.Equal(t, "/home/u/a", a.Path)
	assert.Equal(t, "/home/u/a", a.OriginalPath, "first entry keeps its data")
	assert.Equal(t, int64(20), a.LastUsed)
	require.Len(t, a.Sources, 2)
	assert.Equal(t, "1", a.Sources[0].NativeID)
	assert.Equal(t, "3", a.Sources[1].NativeID)
}
