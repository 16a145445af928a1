// This file implements the per-workspace JSON manifest backend:
// <root>/User/workspaceStorage/<storage-id>/workspace.json.
package sources

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/wsedit/pkg/types"
)

const (
	manifestFile    = "workspace.json"
	manifestPattern = "*/" + manifestFile
)

// Manifest reads and writes workspaceStorage manifests.
type Manifest struct {
	logger *zap.Logger
}

// NewManifest returns a manifest backend. A nil logger discards output.
func NewManifest(logger *zap.Logger) *Manifest {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manifest{logger: logger.Named("manifest")}
}

// StorageDir returns the workspaceStorage directory of a profile root.
func StorageDir(root string) string {
	return filepath.Join(root, "User", "workspaceStorage")
}

// Kind implements types.Backend.
func (m *Manifest) Kind() types.SourceKind { return types.SourceManifest }

// Scan implements types.Backend. Each storage directory holding a
// workspace.json yields one entry whose last-used time is the manifest's
// modification time.
func (m *Manifest) Scan(ctx context.Context, profile types.Profile) iter.Seq2[types.RawEntry, error] {
	return func(yield func(types.RawEntry, error) bool) {
		if profile.Pseudo {
			return
		}
		storage := StorageDir(profile.Root)
		if _, err := os.Stat(storage); errors.Is(err, fs.ErrNotExist) {
			return
		}
		matches, err := doublestar.Glob(os.DirFS(storage), manifestPattern, doublestar.WithFailOnIOErrors(), doublestar.WithFilesOnly())
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				yield(types.RawEntry{}, unreadable(types.Source{Kind: types.SourceManifest, Location: storage}, ioErr("listing manifests", err)))
			}
			return
		}

		for _, rel := range matches {
			if ctx.Err() != nil {
				return
			}
			dir := filepath.Join(storage, filepath.Dir(filepath.FromSlash(rel)))
			src := types.Source{Kind: types.SourceManifest, Location: dir, NativeID: filepath.Base(dir)}

			entry, err := m.readManifest(src)
			if err != nil {
				m.logger.Warn("skipping manifest", zap.String("location", dir), zap.Error(err))
				if !yield(types.RawEntry{}, err) {
					return
				}
				continue
			}
			if !yield(entry, nil) {
				return
			}
		}
	}
}

func (m *Manifest) readManifest(src types.Source) (types.RawEntry, error) {
	path := filepath.Join(src.Location, manifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return types.RawEntry{}, malformed(src, "reading %s: %v", manifestFile, err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return types.RawEntry{}, malformed(src, "stat %s: %v", manifestFile, err)
	}
	if !gjson.ValidBytes(data) {
		return types.RawEntry{}, malformed(src, "%s is not valid JSON", manifestFile)
	}

	raw := manifestURI(data)
	if raw == "" {
		return types.RawEntry{}, malformed(src, "%s names no folder or workspace", manifestFile)
	}
	return types.RawEntry{
		NativeID: src.NativeID,
		RawPath:  raw,
		LastUsed: fi.ModTime().Unix(),
		Source:   src,
	}, nil
}

// manifestURI extracts the workspace URI from a manifest document. Older
// editors stored the workspace as an object carrying configPath.
func manifestURI(data []byte) string {
	doc := gjson.ParseBytes(data)
	if f := doc.Get("folder"); f.Type == gjson.String && f.Str != "" {
		return f.Str
	}
	w := doc.Get("workspace")
	switch {
	case w.Type == gjson.String:
		return w.Str
	case w.IsObject():
		if p := w.Get("configPath"); p.Type == gjson.String {
			return p.Str
		}
		if p := w.Get("uri"); p.Type == gjson.String {
			return p.Str
		}
	}
	if c := doc.Get("configuration"); c.Type == gjson.String {
		return c.Str
	}
	return ""
}

// Writable implements types.Backend. A profile is writable once the editor
// has created its workspaceStorage directory.
func (m *Manifest) Writable(profile types.Profile) bool {
	if profile.Pseudo {
		return false
	}
	fi, err := os.Stat(StorageDir(profile.Root))
	return err == nil && fi.IsDir()
}

// Insert implements types.Backend. The storage id is derived from the URI so
// inserting the same path twice targets the same directory.
func (m *Manifest) Insert(ctx context.Context, profile types.Profile, path string) (types.Source, error) {
	if !m.Writable(profile) {
		return types.Source{}, types.ErrNotWritable
	}
	uri := ToURI(path)
	id := hexID(uuid.NewMD5(uuid.NameSpaceURL, []byte(uri)))
	dir := filepath.Join(StorageDir(profile.Root), id)
	src := types.Source{Kind: types.SourceManifest, Location: dir, NativeID: id}

	key := "folder"
	if isWorkspaceFile(uri) {
		key = "workspace"
	}
	doc, err := sjson.Set("{}", key, uri)
	if err != nil {
		return types.Source{}, fmt.Errorf("building manifest: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return types.Source{}, ioErr("creating storage directory", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, manifestFile), []byte(doc)); err != nil {
		return types.Source{}, ioErr("writing manifest", err)
	}
	m.logger.Info("manifest written", zap.String("location", dir), zap.String("uri", uri))
	return src, nil
}

// Relabel implements types.Backend. Manifests have no label field.
func (m *Manifest) Relabel(context.Context, types.Source, string) (bool, error) {
	return false, nil
}

// Remove implements types.Backend. It deletes the storage directory, which
// also drops the editor's per-workspace state. The directory must sit
// directly inside a workspaceStorage directory and hold a manifest.
func (m *Manifest) Remove(_ context.Context, src types.Source) error {
	dir := filepath.Clean(src.Location)
	if filepath.Base(filepath.Dir(dir)) != "workspaceStorage" {
		return fmt.Errorf("%w: %s is not a workspace storage directory", types.ErrInvalidPath, dir)
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if !fileExists(filepath.Join(dir, manifestFile)) {
		return fmt.Errorf("%w: %s holds no %s", types.ErrInvalidPath, dir, manifestFile)
	}
	if err := os.RemoveAll(dir); err != nil {
		return ioErr("removing storage directory", err)
	}
	m.logger.Info("manifest removed", zap.String("location", dir))
	return nil
}

func hexID(u uuid.UUID) string {
	return fmt.Sprintf("%x", u[:])
}
