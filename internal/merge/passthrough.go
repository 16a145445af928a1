package merge

import (
	"github.com/mesh-intelligence/wsedit/internal/classify"
	"github.com/mesh-intelligence/wsedit/pkg/types"
)

// Passthrough converts the entries of a single-source pseudo-profile to
// records one for one, without the label and path election Merge performs.
// Entries that share a key still share a record so ids stay unique: the
// later entry only contributes its source and last-used time.
func Passthrough(entries []types.RawEntry, fold bool) ([]types.WorkspaceRecord, []*types.SourceError) {
	index := make(map[string]int)
	var records []types.WorkspaceRecord
	var skipped []*types.SourceError

	for _, e := range entries {
		info, err := classify.ClassifyEntry(e)
		if err != nil {
			skipped = append(skipped, &types.SourceError{Source: e.Source, Err: err})
			continue
		}
		k := classify.Key(info, fold)
		if i, ok := index[k]; ok {
			r := &records[i]
			r.Sources = normalizeSources(append(r.Sources, e.Source))
			r.LastUsed = max(r.LastUsed, e.LastUsed)
			continue
		}
		index[k] = len(records)
		records = append(records, types.WorkspaceRecord{
			ID:           classify.ID(k),
			DisplayName:  e.Label,
			Path:         info.Canonical,
			OriginalPath: e.RawPath,
			LastUsed:     e.LastUsed,
			Sources:      []types.Source{e.Source},
			Info:         info,
		})
	}
	Sort(records)
	return records, skipped
}
