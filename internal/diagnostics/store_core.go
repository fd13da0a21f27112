package diagnostics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"videoqa/internal/config"
	"videoqa/internal/logging"
)

// ErrDisabled is returned by Open when diagnostics are turned off.
var ErrDisabled = errors.New("diagnostics journal disabled")

// Journal records video service failures that are not shown to the user.
type Journal struct {
	db        *sql.DB
	path      string
	lock      *flock.Flock
	retention time.Duration
	logger    *slog.Logger
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
	lockRetryDelay          = 25 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (j *Journal) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = j.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// withFileLock serializes schema setup and pruning across CLI processes
// sharing one journal file.
func (j *Journal) withFileLock(ctx context.Context, fn func() error) error {
	ctx = ensureContext(ctx)
	ok, err := j.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire journal lock: %w", err)
	}
	if !ok {
		return errors.New("acquire journal lock: not acquired")
	}
	defer func() {
		if unlockErr := j.lock.Unlock(); unlockErr != nil {
			j.logger.Warn("failed to release journal lock", logging.Error(unlockErr))
		}
	}()
	return fn()
}

// Open initializes or connects to the diagnostics journal.
func Open(cfg *config.Config, logger *slog.Logger) (*Journal, error) {
	if cfg == nil || !cfg.Diagnostics.Enabled {
		return nil, ErrDisabled
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.Paths.DiagnosticsDB
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	journal := &Journal{
		db:        db,
		path:      dbPath,
		lock:      flock.New(dbPath + ".lock"),
		retention: time.Duration(cfg.Diagnostics.RetentionDays) * 24 * time.Hour,
		logger:    logging.NewComponentLogger(logger, "diagnostics"),
	}
	ctx := context.Background()
	if err := journal.withFileLock(ctx, func() error { return journal.initSchema(ctx) }); err != nil {
		_ = db.Close()
		return nil, err
	}

	return journal, nil
}

// Path returns the journal database location.
func (j *Journal) Path() string {
	if j == nil {
		return ""
	}
	return j.path
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}
