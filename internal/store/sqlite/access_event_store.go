package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "doorlatch/internal/db"
	"doorlatch/internal/store"
)

// AccessEventStore persists access decisions in the audit database. Reads
// go straight to the connection; writes are serialized through the shared
// Writer.
type AccessEventStore struct {
	db     *sql.DB
	writer *dbpkg.Writer
}

func NewAccessEventStore(db *sql.DB, writer *dbpkg.Writer) *AccessEventStore {
	return &AccessEventStore{db: db, writer: writer}
}

func (s *AccessEventStore) RecordEvent(ctx context.Context, rec store.AccessEventRecord) error {
	if rec.DecidedAt.IsZero() {
		rec.DecidedAt = time.Now().UTC()
	}
	decidedMs := rec.DecidedAt.UTC().UnixMilli()

	var granted int
	if rec.Granted {
		granted = 1
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO access_events(uid, holder_name, granted, reason, decided_at_ms)
VALUES (?, ?, ?, ?, ?);
`, rec.UID, rec.HolderName, granted, rec.Reason, decidedMs); err != nil {
			return fmt.Errorf("RecordEvent insert: %w", err)
		}
		return nil
	})
}

// RecentEvents returns up to limit events, newest first.
func (s *AccessEventStore) RecentEvents(ctx context.Context, limit int) ([]store.AccessEventRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT uid, holder_name, granted, reason, decided_at_ms
FROM access_events
ORDER BY decided_at_ms DESC, id DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("RecentEvents query: %w", err)
	}
	defer rows.Close()

	var out []store.AccessEventRecord
	for rows.Next() {
		var (
			rec       store.AccessEventRecord
			granted   int
			decidedMs int64
		)
		if err := rows.Scan(&rec.UID, &rec.HolderName, &granted, &rec.Reason, &decidedMs); err != nil {
			return nil, fmt.Errorf("RecentEvents scan: %w", err)
		}
		rec.Granted = granted == 1
		rec.DecidedAt = time.UnixMilli(decidedMs).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("RecentEvents rows: %w", err)
	}
	return out, nil
}

// PruneOlderThan deletes events decided before the cutoff and returns the
// number of rows deleted. Uses the idx_access_events_time index for the
// range scan.
func (s *AccessEventStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cutoffMs := cutoff.UTC().UnixMilli()

	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM access_events
WHERE decided_at_ms < ?;
`, cutoffMs)
		if err != nil {
			return fmt.Errorf("PruneOlderThan: %w", err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return deleted, err
}
