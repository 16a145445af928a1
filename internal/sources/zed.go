// This file implements the Zed backend, which serves the ::zed
// pseudo-profile from Zed's per-channel db.sqlite files.
package sources

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/wsedit/pkg/types"
)

// ZedChannels lists Zed release channels in scan order.
var ZedChannels = []string{"0-stable", "0-preview", "0-nightly", "0-dev"}

// ZedTimeLayout is the format of the workspaces.timestamp column (UTC).
const ZedTimeLayout = "2006-01-02 15:04:05"

// Zed reads and deletes workspaces recorded by the Zed editor.
type Zed struct {
	dbDir  string
	logger *zap.Logger
}

// NewZed returns a Zed backend reading databases under dbDir.
func NewZed(dbDir string, logger *zap.Logger) *Zed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Zed{dbDir: dbDir, logger: logger.Named("zed")}
}

// DBPaths returns the database file of every channel in scan order.
func (z *Zed) DBPaths() []string {
	out := make([]string, len(ZedChannels))
	for i, ch := range ZedChannels {
		out[i] = filepath.Join(z.dbDir, ch, "db.sqlite")
	}
	return out
}

// Kind implements types.Backend.
func (z *Zed) Kind() types.SourceKind { return types.SourceZed }

// Scan implements types.Backend. Only the Zed pseudo-profile has entries.
func (z *Zed) Scan(ctx context.Context, profile types.Profile) iter.Seq2[types.RawEntry, error] {
	return func(yield func(types.RawEntry, error) bool) {
		if !profile.Pseudo || profile.Name != types.ZedProfileName {
			return
		}
		for _, dbPath := range z.DBPaths() {
			if !fileExists(dbPath) {
				continue
			}
			store := types.Source{Kind: types.SourceZed, Location: dbPath}
			entries, skipped, err := z.readDB(ctx, store)
			if err != nil {
				z.logger.Warn("zed database unreadable", zap.String("location", dbPath), zap.Error(err))
				if !yield(types.RawEntry{}, unreadable(store, err)) {
					return
				}
				continue
			}
			for _, se := range skipped {
				z.logger.Warn("skipping zed workspace", zap.String("location", dbPath), zap.Error(se))
				if !yield(types.RawEntry{}, se) {
					return
				}
			}
			for _, e := range entries {
				if !yield(e, nil) {
					return
				}
			}
		}
	}
}

type zedRow struct {
	id        int64
	paths     sql.NullString
	timestamp any
	kind      sql.NullString
	host      sql.NullString
	port      sql.NullInt64
	user      sql.NullString
}

func (z *Zed) readDB(ctx context.Context, store types.Source) ([]types.RawEntry, []*types.SourceError, error) {
	db, err := openDB(store.Location, true)
	if err != nil {
		return nil, nil, ioErr("opening zed database", err)
	}
	defer db.Close()

	var rows []zedRow
	err = withRetry(ctx, func() error {
		rows = rows[:0]
		tables, err := tableNames(ctx, db)
		if err != nil {
			return err
		}
		if !tables["workspaces"] {
			return nil
		}
		query := `SELECT w.workspace_id, w.paths, w.timestamp, NULL, NULL, NULL, NULL FROM workspaces w`
		if tables["remote_connections"] {
			query = `SELECT w.workspace_id, w.paths, w.timestamp, r.kind, r.host, r.port, r.user
				FROM workspaces w
				LEFT JOIN remote_connections r ON w.remote_connection_id = r.id`
		}
		rs, err := db.QueryContext(ctx, query+` ORDER BY w.workspace_id`)
		if err != nil {
			return err
		}
		defer rs.Close()
		for rs.Next() {
			var r zedRow
			if err := rs.Scan(&r.id, &r.paths, &r.timestamp, &r.kind, &r.host, &r.port, &r.user); err != nil {
				return err
			}
			rows = append(rows, r)
		}
		return rs.Err()
	})
	if err != nil {
		if strings.Contains(err.Error(), "no such column") {
			err = fmt.Errorf("%w: unrecognized workspaces schema: %v", types.ErrStoreCorrupt, err)
		}
		return nil, nil, err
	}

	var entries []types.RawEntry
	var skipped []*types.SourceError
	for _, r := range rows {
		src := store
		src.NativeID = strconv.FormatInt(r.id, 10)
		raw, ok := r.rawPath()
		if !ok {
			skipped = append(skipped, malformed(src, "workspace %d has no path", r.id))
			continue
		}
		entries = append(entries, types.RawEntry{
			NativeID: src.NativeID,
			RawPath:  raw,
			LastUsed: parseZedTime(r.timestamp),
			Source:   src,
		})
	}
	return entries, skipped, nil
}

// rawPath renders the row as a local path or a remote URI.
func (r zedRow) rawPath() (string, bool) {
	primary := firstPath(r.paths.String)
	remote := r.host.Valid && r.host.String != ""

	if !remote {
		return primary, primary != ""
	}
	if primary == "" {
		primary = "/"
	}
	if !strings.HasPrefix(primary, "/") {
		primary = "/" + primary
	}
	kind := strings.ToLower(r.kind.String)
	if kind == "" {
		kind = "ssh"
	}
	authority := r.host.String
	if r.user.Valid && r.user.String != "" {
		authority = r.user.String + "@" + authority
	}
	if r.port.Valid && r.port.Int64 > 0 {
		authority += ":" + strconv.FormatInt(r.port.Int64, 10)
	}
	return kind + "://" + authority + primary, true
}

// firstPath returns the primary path of a paths column, which holds either
// a JSON array or newline-separated paths.
func firstPath(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") && gjson.Valid(s) {
		for _, p := range gjson.Parse(s).Array() {
			if v := strings.TrimSpace(p.String()); v != "" {
				return v
			}
		}
		return ""
	}
	for _, line := range strings.Split(s, "\n") {
		if v := strings.TrimSpace(line); v != "" {
			return v
		}
	}
	return ""
}

func parseZedTime(v any) int64 {
	var s string
	switch t := v.(type) {
	case time.Time:
		return t.Unix()
	case string:
		s = t
	case []byte:
		s = string(t)
	case int64:
		return seconds(t)
	default:
		return 0
	}
	ts, err := time.ParseInLocation(ZedTimeLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return 0
	}
	return ts.Unix()
}

func tableNames(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rs, err := db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return nil, err
	}
	defer rs.Close()
	out := make(map[string]bool)
	for rs.Next() {
		var name string
		if err := rs.Scan(&name); err != nil {
			return nil, err
		}
		out[name] = true
	}
	return out, rs.Err()
}

// Writable implements types.Backend. Zed's schema is private to Zed, so
// entries are never created.
func (z *Zed) Writable(types.Profile) bool { return false }

// Insert implements types.Backend.
func (z *Zed) Insert(context.Context, types.Profile, string) (types.Source, error) {
	return types.Source{}, fmt.Errorf("%w: zed workspaces cannot be added", types.ErrUnsupported)
}

// Relabel implements types.Backend. Zed workspaces carry no label.
func (z *Zed) Relabel(context.Context, types.Source, string) (bool, error) {
	return false, nil
}

// Remove implements types.Backend.
func (z *Zed) Remove(ctx context.Context, src types.Source) error {
	if !fileExists(src.Location) {
		return nil
	}
	id, err := strconv.ParseInt(src.NativeID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: zed workspace id %q", types.ErrInvalidPath, src.NativeID)
	}
	db, err := openDB(src.Location, false)
	if err != nil {
		return ioErr("opening zed database", err)
	}
	defer db.Close()

	err = withRetry(ctx, func() error {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			return err
		}
		_, err := db.ExecContext(ctx, "DELETE FROM workspaces WHERE workspace_id = ?", id)
		return err
	})
	if err != nil {
		return err
	}
	z.logger.Info("zed workspace removed", zap.String("location", src.Location), zap.Int64("workspace_id", id))
	return nil
}
