package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/wsedit/internal/classify"
	"github.com/mesh-intelligence/wsedit/internal/paths"
	"github.com/mesh-intelligence/wsedit/internal/query"
	"github.com/mesh-intelligence/wsedit/pkg/types"
)

// minIDPrefix is the shortest id prefix Find accepts.
const minIDPrefix = 6

// Search lists the profile and keeps the records matching q. A query
// without filters returns the full list.
func (r *Registry) Search(ctx context.Context, identifier, q string) ([]types.WorkspaceRecord, error) {
	parsed, err := query.Parse(q)
	if err != nil {
		return nil, err
	}
	records, err := r.List(ctx, identifier)
	if records == nil || parsed.Empty() {
		return records, err
	}
	return parsed.Filter(records, r.Exists), err
}

// Find resolves ref to a record of the profile. ref may be a full id, an
// unambiguous id prefix or a path that normalizes to the record's path.
func (r *Registry) Find(ctx context.Context, identifier, ref string) (types.WorkspaceRecord, error) {
	res, err := r.Scan(ctx, identifier)
	if err != nil {
		return types.WorkspaceRecord{}, err
	}
	return r.find(res, ref)
}

func (r *Registry) find(res *ScanResult, ref string) (types.WorkspaceRecord, error) {
	for _, rec := range res.Records {
		if rec.ID == ref {
			return rec, nil
		}
	}

	if len(ref) >= minIDPrefix {
		var hits []types.WorkspaceRecord
		for _, rec := range res.Records {
			if strings.HasPrefix(rec.ID, ref) {
				hits = append(hits, rec)
			}
		}
		if len(hits) == 1 {
			return hits[0], nil
		}
		if len(hits) > 1 {
			return types.WorkspaceRecord{}, fmt.Errorf("%w: id prefix %s is ambiguous", types.ErrNotFound, ref)
		}
	}

	if _, info, err := r.normalizeInput(ref); err == nil {
		id := classify.ID(classify.Key(info, r.fold))
		for _, rec := range res.Records {
			if rec.ID == id {
				return rec, nil
			}
		}
	}
	return types.WorkspaceRecord{}, r.notFound(res, ref)
}

// notFound reports a missing record, mentioning unreadable stores since
// the record may live in one of them.
func (r *Registry) notFound(res *ScanResult, ref string) error {
	err := fmt.Errorf("%w: workspace %s in profile %s", types.ErrNotFound, ref, res.Profile.Identifier())
	if scanErr := res.Err(); scanErr != nil {
		return errors.Join(err, scanErr)
	}
	return err
}

// Add registers path with the profile's most authoritative writable
// backend and returns the merged record. Adding a path that is already
// registered writes nothing and returns the existing record together with
// an error wrapping types.ErrDuplicateWorkspace.
func (r *Registry) Add(ctx context.Context, identifier, path string) (types.WorkspaceRecord, error) {
	normalized, info, err := r.normalizeInput(path)
	if err != nil {
		return types.WorkspaceRecord{}, err
	}
	profile, err := r.ResolveProfile(identifier)
	if err != nil {
		return types.WorkspaceRecord{}, err
	}

	res := r.scanProfile(ctx, profile)
	if err := res.Err(); err != nil {
		return types.WorkspaceRecord{}, fmt.Errorf("refusing to add while stores are unreadable: %w", err)
	}
	id := classify.ID(classify.Key(info, r.fold))
	for _, rec := range res.Records {
		if rec.ID == id {
			return rec, fmt.Errorf("%w: %s", types.ErrDuplicateWorkspace, rec.Path)
		}
	}

	var target types.Backend
	for _, b := range r.backendsFor(profile) {
		if b.Writable(profile) {
			target = b
			break
		}
	}
	if target == nil {
		return types.WorkspaceRecord{}, fmt.Errorf("%w: %s", types.ErrNotWritable, profile.Identifier())
	}

	src, err := target.Insert(ctx, profile, normalized)
	if err != nil {
		return types.WorkspaceRecord{}, &types.SourceError{Source: types.Source{Kind: target.Kind(), Location: profile.Root}, Err: err}
	}
	r.logger.Info("workspace added", zap.String("path", normalized), zap.Stringer("source", src))

	after := r.scanProfile(ctx, profile)
	for _, rec := range after.Records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return types.WorkspaceRecord{}, fmt.Errorf("%w: added workspace %s not visible after write", types.ErrIO, normalized)
}

// normalizeInput classifies a user supplied path, making local paths
// absolute first.
func (r *Registry) normalizeInput(path string) (string, types.WorkspacePathInfo, error) {
	info, err := classify.Classify(path)
	if err != nil {
		return "", info, err
	}
	if info.IsRemote() || strings.Contains(path, "://") {
		return path, info, nil
	}
	expanded, err := paths.ExpandHome(strings.TrimSpace(path))
	if err != nil {
		return "", info, fmt.Errorf("%w: %v", types.ErrInvalidPath, err)
	}
	abs := expanded
	if !filepath.IsAbs(abs) && !isWindowsAbs(abs) {
		if abs, err = filepath.Abs(expanded); err != nil {
			return "", info, fmt.Errorf("%w: %v", types.ErrInvalidPath, err)
		}
	}
	info, err = classify.Classify(abs)
	return abs, info, err
}

func isWindowsAbs(p string) bool {
	return strings.HasPrefix(p, `\\`) || (len(p) >= 3 && p[1] == ':' && (p[2] == '\\' || p[2] == '/'))
}

// Rename sets the display name on every source of the record that has a
// label field. When none has one, nothing is written and the record is
// returned with an error wrapping types.ErrLabelUnsupported.
func (r *Registry) Rename(ctx context.Context, identifier, id, name string) (types.WorkspaceRecord, error) {
	res, err := r.Scan(ctx, identifier)
	if err != nil {
		return types.WorkspaceRecord{}, err
	}
	rec, err := r.findByID(res, id)
	if err != nil {
		return types.WorkspaceRecord{}, err
	}

	labelled := false
	var failed []error
	for _, src := range rec.Sources {
		b, ok := r.backendOf(src.Kind)
		if !ok {
			failed = append(failed, &types.SourceError{Source: src, Err: types.ErrUnsupported})
			continue
		}
		supported, err := b.Relabel(ctx, src, name)
		if err != nil {
			failed = append(failed, &types.SourceError{Source: src, Err: err})
			continue
		}
		labelled = labelled || supported
	}

	refreshed, ferr := r.findByID(r.scanProfile(ctx, res.Profile), id)
	if ferr != nil {
		refreshed = rec
	}
	if len(failed) > 0 {
		return refreshed, errors.Join(failed...)
	}
	if !labelled {
		return refreshed, fmt.Errorf("%w: %s", types.ErrLabelUnsupported, rec.Path)
	}
	r.logger.Info("workspace renamed", zap.String("id", id), zap.String("name", name))
	return refreshed, nil
}

func (r *Registry) findByID(res *ScanResult, id string) (types.WorkspaceRecord, error) {
	for _, rec := range res.Records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return types.WorkspaceRecord{}, r.notFound(res, id)
}

// Delete removes the record's native entry from every source it was found
// in. Sources are independent stores, so the delete is applied to each one
// separately; if any fails the result is a *types.PartialDeleteFailure
// naming the sources on each side.
func (r *Registry) Delete(ctx context.Context, identifier, id string) error {
	res, err := r.Scan(ctx, identifier)
	if err != nil {
		return err
	}
	rec, err := r.findByID(res, id)
	if err != nil {
		return err
	}

	var pdf types.PartialDeleteFailure
	for _, src := range rec.Sources {
		b, ok := r.backendOf(src.Kind)
		if !ok {
			pdf.Failed = append(pdf.Failed, &types.SourceError{Source: src, Err: types.ErrUnsupported})
			continue
		}
		if err := b.Remove(ctx, src); err != nil {
			r.logger.Warn("delete failed", zap.Stringer("source", src), zap.Error(err))
			pdf.Failed = append(pdf.Failed, &types.SourceError{Source: src, Err: err})
			continue
		}
		pdf.Succeeded = append(pdf.Succeeded, src)
	}
	if len(pdf.Failed) > 0 {
		return &pdf
	}
	r.logger.Info("workspace deleted", zap.String("id", id), zap.Int("sources", len(pdf.Succeeded)))
	return nil
}

// Exists reports whether the record's path is present. Remote records are
// assumed to exist; no network access is attempted.
func (r *Registry) Exists(rec types.WorkspaceRecord) bool {
	if rec.Info.IsRemote() {
		return true
	}
	p := rec.Info.Path
	if p == "" {
		p = rec.Path
	}
	if p == "" {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}
