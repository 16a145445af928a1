// This file implements the state.vscdb backend: the recently opened list the
// editor keeps under history.recentlyOpenedPathsList in ItemTable.
package sources

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/wsedit/pkg/types"
)

// HistoryKey is the ItemTable key holding the recently opened list.
const HistoryKey = "history.recentlyOpenedPathsList"

const emptyHistory = `{"entries":[]}`

// StateDB reads and writes the recently opened list in state.vscdb.
type StateDB struct {
	logger *zap.Logger
}

// NewStateDB returns a state database backend. A nil logger discards output.
func NewStateDB(logger *zap.Logger) *StateDB {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StateDB{logger: logger.Named("statedb")}
}

// StateDBPaths returns the candidate database files of a profile root in
// lookup order.
func StateDBPaths(root string) []string {
	return []string{
		filepath.Join(root, "User", "globalStorage", "state.vscdb"),
		filepath.Join(root, "User", "state.vscdb"),
	}
}

// Kind implements types.Backend.
func (s *StateDB) Kind() types.SourceKind { return types.SourceStateDB }

// Scan implements types.Backend.
func (s *StateDB) Scan(ctx context.Context, profile types.Profile) iter.Seq2[types.RawEntry, error] {
	return func(yield func(types.RawEntry, error) bool) {
		if profile.Pseudo {
			return
		}
		for _, dbPath := range StateDBPaths(profile.Root) {
			if !fileExists(dbPath) {
				continue
			}
			store := types.Source{Kind: types.SourceStateDB, Location: dbPath}

			doc, err := readHistory(ctx, dbPath)
			if err != nil {
				s.logger.Warn("state database unreadable", zap.String("location", dbPath), zap.Error(err))
				if !yield(types.RawEntry{}, unreadable(store, err)) {
					return
				}
				continue
			}
			for entry, err := range s.entries(doc, store) {
				if err != nil {
					s.logger.Warn("skipping history entry", zap.String("location", dbPath), zap.Error(err))
				}
				if !yield(entry, err) {
					return
				}
			}
		}
	}
}

// entries yields one RawEntry per workspace in the history document.
// Recently opened files are not workspaces and are passed over silently.
func (s *StateDB) entries(doc string, store types.Source) iter.Seq2[types.RawEntry, error] {
	return func(yield func(types.RawEntry, error) bool) {
		list := gjson.Get(doc, "entries")
		if !list.IsArray() {
			return
		}
		i := 0
		list.ForEach(func(_, e gjson.Result) bool {
			idx := i
			i++
			if !e.IsObject() {
				return yield(types.RawEntry{}, malformed(store, "entry %d is not an object", idx))
			}
			if e.Get("fileUri").Exists() && !e.Get("folderUri").Exists() && !e.Get("workspace").Exists() {
				return true
			}
			uri := entryURI(e)
			if uri == "" {
				return yield(types.RawEntry{}, malformed(store, "entry %d names no folder or workspace", idx))
			}
			src := store
			src.NativeID = uri
			return yield(types.RawEntry{
				NativeID: uri,
				RawPath:  uri,
				Label:    e.Get("label").String(),
				LastUsed: seconds(e.Get("lastUsed").Int()),
				Source:   src,
			}, nil)
		})
	}
}

func entryURI(e gjson.Result) string {
	if f := e.Get("folderUri"); f.Type == gjson.String {
		return f.Str
	}
	if p := e.Get("workspace.uri"); p.Type == gjson.String {
		return p.Str
	}
	if p := e.Get("workspace.configPath"); p.Type == gjson.String {
		return p.Str
	}
	return ""
}

// seconds normalizes a timestamp that may be in milliseconds.
func seconds(v int64) int64 {
	if v > 1e11 {
		return v / 1000
	}
	if v < 0 {
		return 0
	}
	return v
}

// readHistory returns the history document, or an empty one when the
// database lacks the table or the key.
func readHistory(ctx context.Context, dbPath string) (string, error) {
	db, err := openDB(dbPath, true)
	if err != nil {
		return "", ioErr("opening state database", err)
	}
	defer db.Close()

	var value []byte
	err = withRetry(ctx, func() error {
		return db.QueryRowContext(ctx, "SELECT value FROM ItemTable WHERE key = ?", HistoryKey).Scan(&value)
	})
	switch {
	case errors.Is(err, sql.ErrNoRows), isNoSuchTable(err):
		return emptyHistory, nil
	case err != nil:
		return "", err
	}
	if len(value) == 0 {
		return emptyHistory, nil
	}
	if !gjson.ValidBytes(value) {
		return "", fmt.Errorf("%w: %s is not valid JSON", types.ErrStoreCorrupt, HistoryKey)
	}
	return string(value), nil
}

// Writable implements types.Backend.
func (s *StateDB) Writable(profile types.Profile) bool {
	_, ok := s.target(profile)
	return ok
}

func (s *StateDB) target(profile types.Profile) (string, bool) {
	if profile.Pseudo {
		return "", false
	}
	for _, p := range StateDBPaths(profile.Root) {
		if fileExists(p) {
			return p, true
		}
	}
	return "", false
}

// Insert implements types.Backend. The new entry goes to the front of the
// list, where the editor keeps its most recent workspace.
func (s *StateDB) Insert(ctx context.Context, profile types.Profile, path string) (types.Source, error) {
	dbPath, ok := s.target(profile)
	if !ok {
		return types.Source{}, types.ErrNotWritable
	}
	uri := ToURI(path)

	entry := `{}`
	var err error
	if isWorkspaceFile(uri) {
		id := hexID(uuid.NewMD5(uuid.NameSpaceURL, []byte(uri)))
		entry, err = sjson.Set(entry, "workspace.id", id)
		if err == nil {
			entry, err = sjson.Set(entry, "workspace.configPath", uri)
		}
	} else {
		entry, err = sjson.Set(entry, "folderUri", uri)
	}
	if err != nil {
		return types.Source{}, fmt.Errorf("building history entry: %w", err)
	}

	err = s.mutate(ctx, dbPath, func(doc string) (string, bool, error) {
		if len(matching(doc, uri)) > 0 {
			return doc, false, nil
		}
		list := gjson.Get(doc, "entries")
		arr := "[" + entry + "]"
		if list.IsArray() && len(list.Array()) > 0 {
			arr = "[" + entry + "," + list.Raw[1:]
		}
		out, err := sjson.SetRaw(doc, "entries", arr)
		return out, true, err
	})
	if err != nil {
		return types.Source{}, err
	}
	s.logger.Info("history entry added", zap.String("location", dbPath), zap.String("uri", uri))
	return types.Source{Kind: types.SourceStateDB, Location: dbPath, NativeID: uri}, nil
}

// Relabel implements types.Backend. An empty label removes the field.
func (s *StateDB) Relabel(ctx context.Context, src types.Source, label string) (bool, error) {
	found := false
	err := s.mutate(ctx, src.Location, func(doc string) (string, bool, error) {
		idxs := matching(doc, src.NativeID)
		found = len(idxs) > 0
		var err error
		for _, idx := range idxs {
			path := "entries." + strconv.Itoa(idx) + ".label"
			if label == "" {
				doc, err = sjson.Delete(doc, path)
			} else {
				doc, err = sjson.Set(doc, path, label)
			}
			if err != nil {
				return "", false, err
			}
		}
		return doc, found, nil
	})
	if err != nil {
		return true, err
	}
	if !found {
		return true, fmt.Errorf("%w: %s has no entry for %s", types.ErrNotFound, src.Location, src.NativeID)
	}
	s.logger.Info("history entry relabelled", zap.String("location", src.Location), zap.String("uri", src.NativeID))
	return true, nil
}

// Remove implements types.Backend. Every entry with the source's URI is
// removed; other entries and unknown fields are left byte-for-byte intact.
func (s *StateDB) Remove(ctx context.Context, src types.Source) error {
	if !fileExists(src.Location) {
		return nil
	}
	err := s.mutate(ctx, src.Location, func(doc string) (string, bool, error) {
		idxs := matching(doc, src.NativeID)
		var err error
		// Delete from the back so earlier indexes stay valid.
		for i := len(idxs) - 1; i >= 0; i-- {
			doc, err = sjson.Delete(doc, "entries."+strconv.Itoa(idxs[i]))
			if err != nil {
				return "", false, err
			}
		}
		return doc, len(idxs) > 0, nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("history entry removed", zap.String("location", src.Location), zap.String("uri", src.NativeID))
	return nil
}

// matching returns the indexes of entries whose URI equals uri.
func matching(doc, uri string) []int {
	var idxs []int
	i := 0
	gjson.Get(doc, "entries").ForEach(func(_, e gjson.Result) bool {
		if e.IsObject() && entryURI(e) == uri {
			idxs = append(idxs, i)
		}
		i++
		return true
	})
	return idxs
}

// mutate applies fn to the history document inside a write transaction.
// fn reports whether it changed the document; unchanged documents are not
// written back.
func (s *StateDB) mutate(ctx context.Context, dbPath string, fn func(doc string) (string, bool, error)) error {
	if !fileExists(dbPath) {
		return fmt.Errorf("%w: state database %s", types.ErrNotFound, dbPath)
	}
	db, err := openDB(dbPath, false)
	if err != nil {
		return ioErr("opening state database", err)
	}
	defer db.Close()

	return withRetry(ctx, func() error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		var value []byte
		err = tx.QueryRowContext(ctx, "SELECT value FROM ItemTable WHERE key = ?", HistoryKey).Scan(&value)
		switch {
		case errors.Is(err, sql.ErrNoRows), err == nil && len(value) == 0:
			value = []byte(emptyHistory)
		case isNoSuchTable(err):
			return fmt.Errorf("%w: %s has no ItemTable", types.ErrStoreCorrupt, dbPath)
		case err != nil:
			return err
		}
		if !gjson.ValidBytes(value) {
			return fmt.Errorf("%w: %s is not valid JSON", types.ErrStoreCorrupt, HistoryKey)
		}
		if err := checkHistoryShape(value); err != nil {
			return err
		}

		doc, changed, err := fn(string(value))
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		if _, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO ItemTable (key, value) VALUES (?, ?)", HistoryKey, doc); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// checkHistoryShape rejects documents a mutation could only rewrite by
// discarding data: a non-object value, or entries that is not an array.
func checkHistoryShape(value []byte) error {
	doc := gjson.ParseBytes(value)
	if !doc.IsObject() {
		return fmt.Errorf("%w: %s is not an object", types.ErrStoreCorrupt, HistoryKey)
	}
	if entries := doc.Get("entries"); entries.Exists() && !entries.IsArray() {
		return fmt.Errorf("%w: entries is not an array", types.ErrStoreCorrupt)
	}
	return nil
}
