// Package merge collapses raw backend entries into workspace records.
package merge

import (
	"cmp"
	"slices"

	"github.com/mesh-intelligence/wsedit/internal/classify"
	"github.com/mesh-intelligence/wsedit/pkg/types"
)

// kindRank is the canonical order of source kinds within a record. It matches
// the order in which the registry scans backends.
var kindRank = map[types.SourceKind]int{
	types.SourceManifest: 0,
	types.SourceStateDB:  1,
	types.SourceZed:      2,
}

type classified struct {
	entry types.RawEntry
	info  types.WorkspacePathInfo
}

// Merge groups entries by their grouping key and returns one record per
// group, ordered by last use (most recent first) then path. Entries that
// cannot be classified are returned as skipped instead.
//
// Within a group the most recently used entry supplies the path and
// original path, the most recently used entry carrying a label supplies the
// display name, last_used is the maximum, and sources are the union.
// The result does not depend on the order of entries.
func Merge(entries []types.RawEntry, fold bool) ([]types.WorkspaceRecord, []*types.SourceError) {
	groups := make(map[string][]classified)
	var keys []string
	var skipped []*types.SourceError

	for _, e := range entries {
		info, err := classify.ClassifyEntry(e)
		if err != nil {
			skipped = append(skipped, &types.SourceError{Source: e.Source, Err: err})
			continue
		}
		k := classify.Key(info, fold)
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], classified{entry: e, info: info})
	}

	records := make([]types.WorkspaceRecord, 0, len(keys))
	for _, k := range keys {
		records = append(records, build(k, groups[k]))
	}
	Sort(records)
	return records, skipped
}

func build(key string, members []classified) types.WorkspaceRecord {
	slices.SortFunc(members, compareMembers)
	primary := members[0]

	rec := types.WorkspaceRecord{
		ID:           classify.ID(key),
		Path:         primary.info.Canonical,
		OriginalPath: primary.entry.RawPath,
		LastUsed:     primary.entry.LastUsed,
		Info:         primary.info,
	}
	for _, m := range members {
		if m.entry.Label != "" {
			rec.DisplayName = m.entry.Label
			rec.Info.Label = m.entry.Label
			break
		}
	}

	sources := make([]types.Source, 0, len(members))
	for _, m := range members {
		sources = append(sources, m.entry.Source)
	}
	rec.Sources = normalizeSources(sources)
	return rec
}

// compareMembers orders the best candidate first: most recent, then
// labelled, then by source identity.
func compareMembers(a, b classified) int {
	if c := cmp.Compare(b.entry.LastUsed, a.entry.LastUsed); c != 0 {
		return c
	}
	if al, bl := a.entry.Label != "", b.entry.Label != ""; al != bl {
		if al {
			return -1
		}
		return 1
	}
	if c := compareSources(a.entry.Source, b.entry.Source); c != 0 {
		return c
	}
	return cmp.Compare(a.entry.RawPath, b.entry.RawPath)
}

func compareSources(a, b types.Source) int {
	if c := cmp.Compare(rank(a.Kind), rank(b.Kind)); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Location, b.Location); c != 0 {
		return c
	}
	return cmp.Compare(a.NativeID, b.NativeID)
}

func rank(k types.SourceKind) int {
	if r, ok := kindRank[k]; ok {
		return r
	}
	return len(kindRank)
}

// normalizeSources sorts sources by kind then location and drops duplicates.
func normalizeSources(in []types.Source) []types.Source {
	out := slices.Clone(in)
	slices.SortFunc(out, compareSources)
	return slices.Compact(out)
}

// Sort orders records by last use, most recent first, then by path and id.
func Sort(records []types.WorkspaceRecord) {
	slices.SortStableFunc(records, func(a, b types.WorkspaceRecord) int {
		if c := cmp.Compare(b.LastUsed, a.LastUsed); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
