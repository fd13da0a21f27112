package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"videoqa/internal/logging"
	"videoqa/internal/services"
)

// Fixed-width UTC timestamps sort lexically in recorded order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is one recorded failure.
type Entry struct {
	ID            int64
	RecordedAt    time.Time
	Operation     string
	VideoID       string
	Kind          string
	StatusCode    int
	Message       string
	Detail        string
	CorrelationID string
}

// FromError builds an entry from a failed service call.
func FromError(ctx context.Context, operation, videoID string, err error) Entry {
	entry := Entry{
		RecordedAt: time.Now().UTC(),
		Operation:  strings.TrimSpace(operation),
		VideoID:    strings.TrimSpace(videoID),
	}
	if ctx != nil {
		if rid, ok := services.RequestIDFromContext(ctx); ok {
			entry.CorrelationID = rid
		}
	}
	if err == nil {
		return entry
	}
	entry.Detail = err.Error()
	entry.Message = services.Message(err, "")
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		entry.Kind = string(svcErr.Kind)
		entry.StatusCode = svcErr.StatusCode
		if entry.Operation == "" {
			entry.Operation = svcErr.Op
		}
	}
	return entry
}

// Record stores an entry. A zero RecordedAt is stamped with the current time.
func (j *Journal) Record(ctx context.Context, entry Entry) (int64, error) {
	if j == nil {
		return 0, ErrDisabled
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}
	if strings.TrimSpace(entry.Operation) == "" {
		return 0, errors.New("diagnostics entry requires an operation")
	}
	res, err := j.execWithRetry(ctx,
		`INSERT INTO failures (recorded_at, operation, video_id, kind, status_code, message, detail, correlation_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RecordedAt.UTC().Format(timeLayout),
		entry.Operation,
		entry.VideoID,
		entry.Kind,
		entry.StatusCode,
		entry.Message,
		entry.Detail,
		entry.CorrelationID,
	)
	if err != nil {
		return 0, fmt.Errorf("record failure: %w", err)
	}
	return res.LastInsertId()
}

// RecordFailure stores a failed service call. Journal errors are logged, never
// returned, so recording cannot disturb the caller.
func (j *Journal) RecordFailure(ctx context.Context, operation, videoID string, err error) {
	if j == nil {
		return
	}
	if _, recErr := j.Record(ctx, FromError(ctx, operation, videoID, err)); recErr != nil {
		logging.WithContext(ctx, j.logger).Warn("failed to record diagnostics entry", logging.Error(recErr))
	}
}

// Recent returns up to limit entries, newest first. A limit <= 0 returns all.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if j == nil {
		return nil, ErrDisabled
	}
	ctx = ensureContext(ctx)
	query := `SELECT id, recorded_at, operation, video_id, kind, status_code, message, detail, correlation_id
		FROM failures ORDER BY recorded_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry      Entry
			recordedAt string
		)
		if err := rows.Scan(&entry.ID, &recordedAt, &entry.Operation, &entry.VideoID, &entry.Kind,
			&entry.StatusCode, &entry.Message, &entry.Detail, &entry.CorrelationID); err != nil {
			return nil, err
		}
		if ts, parseErr := time.Parse(timeLayout, recordedAt); parseErr == nil {
			entry.RecordedAt = ts
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Counts returns the number of recorded failures per operation.
func (j *Journal) Counts(ctx context.Context) (map[string]int, error) {
	if j == nil {
		return nil, ErrDisabled
	}
	rows, err := j.db.QueryContext(ensureContext(ctx), `SELECT operation, COUNT(1) FROM failures GROUP BY operation`)
	if err != nil {
		return nil, fmt.Errorf("failure counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			operation string
			count     int
		)
		if err := rows.Scan(&operation, &count); err != nil {
			return nil, err
		}
		counts[operation] = count
	}
	return counts, rows.Err()
}

// Prune deletes entries older than the configured retention and reports how
// many were removed. A zero retention keeps everything.
func (j *Journal) Prune(ctx context.Context) (int64, error) {
	if j == nil {
		return 0, ErrDisabled
	}
	if j.retention <= 0 {
		return 0, nil
	}
	return j.PruneBefore(ctx, time.Now().Add(-j.retention))
}

// PruneBefore deletes entries recorded before cutoff.
func (j *Journal) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if j == nil {
		return 0, ErrDisabled
	}
	var removed int64
	err := j.withFileLock(ctx, func() error {
		res, err := j.execWithRetry(ctx, `DELETE FROM failures WHERE recorded_at < ?`, cutoff.UTC().Format(timeLayout))
		if err != nil {
			return fmt.Errorf("prune failures: %w", err)
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		j.logger.Debug("pruned diagnostics entries", logging.Int64("removed", removed))
	}
	return removed, nil
}

// Clear removes every entry.
func (j *Journal) Clear(ctx context.Context) (int64, error) {
	if j == nil {
		return 0, ErrDisabled
	}
	res, err := j.execWithRetry(ctx, `DELETE FROM failures`)
	if err != nil {
		return 0, fmt.Errorf("clear failures: %w", err)
	}
	return res.RowsAffected()
}
