// This file provides the shared SQLite plumbing: read-only and read-write
// opens and bounded retry on lock contention.
package sources

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/wsedit/pkg/types"
)

// Lock-contention tuning. Each statement waits up to busyTimeout inside
// SQLite; the whole operation is retried at most maxAttempts times within
// maxElapsed.
var (
	busyTimeout = 200 * time.Millisecond
	maxAttempts = 5
	maxElapsed  = 2 * time.Second
)

var dsnEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// openDB opens the database at path without ever creating it.
func openDB(path string, readOnly bool) (*sql.DB, error) {
	mode := "rw"
	if readOnly {
		mode = "ro"
	}
	dsn := fmt.Sprintf("file:%s?mode=%s&_pragma=busy_timeout(%d)",
		dsnEscaper.Replace(path), mode, busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// The stores belong to a running editor: hold one short-lived connection.
	db.SetMaxOpenConns(1)
	return db, nil
}

// isBusy reports whether err is SQLite lock contention.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code() & 0xff
		return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
	}
	return strings.Contains(err.Error(), "database is locked")
}

// isCorrupt reports whether err means the file is not a usable database.
func isCorrupt(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code() & 0xff
		return code == sqlite3.SQLITE_CORRUPT || code == sqlite3.SQLITE_NOTADB
	}
	return false
}

func isNoSuchTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}

// withRetry runs op, retrying lock contention with exponential backoff.
// Contention that outlasts the retry budget becomes ErrStoreBusy; other
// errors are returned immediately.
func withRetry(ctx context.Context, op func() error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 50 * time.Millisecond
	eb.MaxInterval = 400 * time.Millisecond
	eb.MaxElapsedTime = maxElapsed
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(maxAttempts-1)), ctx)

	err := backoff.Retry(func() error {
		err := op()
		if err != nil && !isBusy(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)

	switch {
	case err == nil:
		return nil
	case isBusy(err):
		return fmt.Errorf("%w: %v", types.ErrStoreBusy, err)
	case isCorrupt(err):
		return fmt.Errorf("%w: %v", types.ErrStoreCorrupt, err)
	default:
		return err
	}
}
