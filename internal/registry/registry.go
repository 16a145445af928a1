// Package registry is the public face of the workspace registry: it
// discovers profiles, reads every backend of a profile, merges the entries
// into workspace records and applies mutations back to the stores they came
// from. It holds no state between calls.
package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/wsedit/internal/classify"
	"github.com/mesh-intelligence/wsedit/internal/merge"
	"github.com/mesh-intelligence/wsedit/internal/paths"
	"github.com/mesh-intelligence/wsedit/internal/sources"
	"github.com/mesh-intelligence/wsedit/pkg/types"
)

// Registry lists and mutates workspace records.
type Registry struct {
	backends   []types.Backend // per-profile backends, in precedence order
	zed        types.Backend   // serves the ::zed pseudo-profile; nil when disabled
	zedSet     bool
	logger     *zap.Logger
	fold       bool
	candidates []paths.Candidate
	extraRoots []string
}

// Option configures a Registry.
type Option func(*Registry)

// WithBackends replaces the per-profile backends. Order is precedence for
// Add: the first writable backend receives new entries.
func WithBackends(b ...types.Backend) Option {
	return func(r *Registry) { r.backends = b }
}

// WithZed sets the backend behind the ::zed pseudo-profile. nil disables it.
func WithZed(b types.Backend) Option {
	return func(r *Registry) {
		r.zed = b
		r.zedSet = true
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithFoldCase overrides the platform convention for case-insensitive
// path comparison.
func WithFoldCase(fold bool) Option {
	return func(r *Registry) { r.fold = fold }
}

// WithCandidates replaces the profile root candidates used by Discover.
func WithCandidates(c []paths.Candidate) Option {
	return func(r *Registry) { r.candidates = c }
}

// WithExtraRoots adds profile roots that Discover reports when they exist.
func WithExtraRoots(roots ...string) Option {
	return func(r *Registry) { r.extraRoots = append(r.extraRoots, roots...) }
}

// New returns a registry with the manifest and state database backends, the
// Zed pseudo-profile and the running platform's candidate roots, as
// modified by opts.
func New(opts ...Option) *Registry {
	r := &Registry{
		logger:     zap.NewNop(),
		fold:       classify.DefaultFoldCase(),
		candidates: paths.CandidatesFor(runtime.GOOS),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.backends == nil {
		r.backends = []types.Backend{sources.NewManifest(r.logger), sources.NewStateDB(r.logger)}
	}
	if !r.zedSet {
		r.zed = sources.NewZed(paths.ZedDBDir(), r.logger)
	}
	return r
}

// FoldCase reports whether paths are compared case-insensitively.
func (r *Registry) FoldCase() bool { return r.fold }

// ZedProfile is the pseudo-profile exposing Zed workspaces.
func ZedProfile() types.Profile {
	return types.Profile{Name: types.ZedProfileName, Editor: types.EditorZed, Pseudo: true}
}

// Discover returns the existing profile roots followed by the enabled
// pseudo-profiles. It never fails.
func (r *Registry) Discover() []types.Profile {
	var pseudo []types.Profile
	if r.zed != nil {
		pseudo = append(pseudo, ZedProfile())
	}
	return paths.Discover(r.candidates, r.extraRoots, pseudo)
}

// ResolveProfile maps a profile identifier to a profile. The empty
// identifier selects the first discovered real profile; ::zed selects the
// Zed pseudo-profile; otherwise a discovered profile's name or root
// matches, and finally any existing directory is accepted as a root.
func (r *Registry) ResolveProfile(identifier string) (types.Profile, error) {
	if identifier == types.ZedProfileName {
		if r.zed == nil {
			return types.Profile{}, fmt.Errorf("%w: profile %s is disabled", types.ErrNotFound, identifier)
		}
		return ZedProfile(), nil
	}

	discovered := r.Discover()
	if identifier == "" {
		for _, p := range discovered {
			if !p.Pseudo {
				return p, nil
			}
		}
		return types.Profile{}, fmt.Errorf("%w: no editor profile found", types.ErrNotFound)
	}
	for _, p := range discovered {
		if !p.Pseudo && (p.Name == identifier || p.Root == identifier) {
			return p, nil
		}
	}

	expanded, err := paths.ExpandHome(identifier)
	if err != nil {
		return types.Profile{}, fmt.Errorf("%w: profile %s: %v", types.ErrNotFound, identifier, err)
	}
	root, err := filepath.Abs(expanded)
	if err != nil {
		return types.Profile{}, fmt.Errorf("%w: profile %s: %v", types.ErrNotFound, identifier, err)
	}
	for _, p := range discovered {
		if !p.Pseudo && p.Root == root {
			return p, nil
		}
	}
	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		return types.Profile{}, fmt.Errorf("%w: profile %s", types.ErrNotFound, identifier)
	}
	return types.Profile{Name: filepath.Base(root), Editor: types.EditorVSCode, Root: root}, nil
}

// ScanResult is the full outcome of reading one profile.
type ScanResult struct {
	Profile  types.Profile
	Records  []types.WorkspaceRecord
	Skipped  []*types.SourceError // malformed entries, logged and left out
	Failures []*types.SourceError // store locations that could not be read
}

// Err returns a *types.ScanError when some store could not be read.
func (s *ScanResult) Err() error {
	if len(s.Failures) == 0 {
		return nil
	}
	return &types.ScanError{Failures: s.Failures}
}

func (r *Registry) backendsFor(p types.Profile) []types.Backend {
	if p.Pseudo {
		if p.Name == types.ZedProfileName && r.zed != nil {
			return []types.Backend{r.zed}
		}
		return nil
	}
	return r.backends
}

func (r *Registry) backendOf(kind types.SourceKind) (types.Backend, bool) {
	for _, b := range r.backends {
		if b.Kind() == kind {
			return b, true
		}
	}
	if r.zed != nil && r.zed.Kind() == kind {
		return r.zed, true
	}
	return nil, false
}

// Scan reads every backend of the profile concurrently, then merges. Only
// profile resolution errors are returned; per-store failures and skipped
// entries are reported in the result.
func (r *Registry) Scan(ctx context.Context, identifier string) (*ScanResult, error) {
	profile, err := r.ResolveProfile(identifier)
	if err != nil {
		return nil, err
	}
	return r.scanProfile(ctx, profile), nil
}

func (r *Registry) scanProfile(ctx context.Context, profile types.Profile) *ScanResult {
	backends := r.backendsFor(profile)
	collected := make([]sources.Collected, len(backends))

	g, gctx := errgroup.WithContext(ctx)
	for i, b := range backends {
		g.Go(func() error {
			collected[i] = sources.Collect(gctx, b, profile)
			return nil
		})
	}
	_ = g.Wait()

	res := &ScanResult{Profile: profile}
	var entries []types.RawEntry
	for _, c := range collected {
		entries = append(entries, c.Entries...)
		res.Skipped = append(res.Skipped, c.Skipped...)
		res.Failures = append(res.Failures, c.Failures...)
	}

	var skipped []*types.SourceError
	if profile.Pseudo {
		res.Records, skipped = merge.Passthrough(entries, r.fold)
	} else {
		res.Records, skipped = merge.Merge(entries, r.fold)
	}
	res.Skipped = append(res.Skipped, skipped...)

	for _, s := range res.Skipped {
		r.logger.Warn("skipped entry", zap.Stringer("source", s.Source), zap.String("native_id", s.Source.NativeID), zap.Error(s.Err))
	}
	for _, f := range res.Failures {
		r.logger.Warn("source unreadable", zap.Stringer("source", f.Source), zap.Error(f.Err))
	}
	r.logger.Debug("profile scanned",
		zap.String("profile", profile.Identifier()),
		zap.Int("entries", len(entries)),
		zap.Int("records", len(res.Records)))
	return res
}

// List returns the merged records of a profile, most recently used first.
// When some store could not be read the records of the others are returned
// together with a *types.ScanError.
func (r *Registry) List(ctx context.Context, identifier string) ([]types.WorkspaceRecord, error) {
	res, err := r.Scan(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return res.Records, res.Err()
}
