// Package query parses and evaluates the search filter language used to
// narrow a workspace list:
//
//	:remote:yes|no  :type:folder|file|workspace  :tag:<text>
//	:path:<text>    :existing:yes|no             <free text>
//
// Matching is case-insensitive. Free-text words must all occur in the
// record's label, path or tags.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/wsedit/pkg/types"
)

// Filter prefixes.
const (
	PrefixRemote   = ":remote:"
	PrefixType     = ":type:"
	PrefixTag      = ":tag:"
	PrefixPath     = ":path:"
	PrefixExisting = ":existing:"
)

// ErrInvalidQuery is returned for a filter with an unrecognized value.
var ErrInvalidQuery = errors.New("invalid query")

// Query is a parsed search expression. The zero value matches everything.
type Query struct {
	Remote   *bool
	Type     types.WorkspaceType
	Tag      string
	Path     string
	Existing *bool
	Keywords []string
}

// Parse splits s on whitespace into filters and keywords.
func Parse(s string) (Query, error) {
	var q Query
	for _, word := range strings.Fields(strings.ToLower(s)) {
		switch {
		case strings.HasPrefix(word, PrefixRemote):
			b, err := parseBool(PrefixRemote, strings.TrimPrefix(word, PrefixRemote))
			if err != nil {
				return Query{}, err
			}
			q.Remote = &b
		case strings.HasPrefix(word, PrefixExisting):
			b, err := parseBool(PrefixExisting, strings.TrimPrefix(word, PrefixExisting))
			if err != nil {
				return Query{}, err
			}
			q.Existing = &b
		case strings.HasPrefix(word, PrefixType):
			t := types.WorkspaceType(strings.TrimPrefix(word, PrefixType))
			switch t {
			case types.TypeFolder, types.TypeFile, types.TypeWorkspace:
				q.Type = t
			default:
				return Query{}, fmt.Errorf("%w: %s%s", ErrInvalidQuery, PrefixType, t)
			}
		case strings.HasPrefix(word, PrefixTag):
			q.Tag = strings.TrimPrefix(word, PrefixTag)
		case strings.HasPrefix(word, PrefixPath):
			q.Path = strings.TrimPrefix(word, PrefixPath)
		default:
			q.Keywords = append(q.Keywords, word)
		}
	}
	return q, nil
}

func parseBool(prefix, v string) (bool, error) {
	switch v {
	case "yes", "true":
		return true, nil
	case "no", "false":
		return false, nil
	}
	return false, fmt.Errorf("%w: %s%s (want yes or no)", ErrInvalidQuery, prefix, v)
}

// Empty reports whether q filters nothing.
func (q Query) Empty() bool {
	return q.Remote == nil && q.Existing == nil && q.Type == "" && q.Tag == "" && q.Path == "" && len(q.Keywords) == 0
}

// Match reports whether rec satisfies every filter in q. exists is only
// called when q has an :existing: filter.
func (q Query) Match(rec types.WorkspaceRecord, exists func(types.WorkspaceRecord) bool) bool {
	if q.Remote != nil && rec.Info.IsRemote() != *q.Remote {
		return false
	}
	if q.Type != "" && rec.Info.Type != q.Type {
		return false
	}
	if q.Tag != "" && !hasTagLike(rec.Info.Tags, q.Tag) {
		return false
	}
	if q.Path != "" && !strings.Contains(strings.ToLower(rec.Path), q.Path) {
		return false
	}
	if q.Existing != nil && exists != nil && exists(rec) != *q.Existing {
		return false
	}
	if len(q.Keywords) > 0 {
		haystack := strings.ToLower(rec.Label() + " " + rec.Path + " " + strings.Join(rec.Info.Tags, " "))
		for _, k := range q.Keywords {
			if !strings.Contains(haystack, k) {
				return false
			}
		}
	}
	return true
}

func hasTagLike(tags []string, sub string) bool {
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), sub) {
			return true
		}
	}
	return false
}

// Filter returns the records of in that match q, preserving order.
func (q Query) Filter(in []types.WorkspaceRecord, exists func(types.WorkspaceRecord) bool) []types.WorkspaceRecord {
	out := make([]types.WorkspaceRecord, 0, len(in))
	for _, r := range in {
		if q.Match(r, exists) {
			out = append(out, r)
		}
	}
	return out
}
