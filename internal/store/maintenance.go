package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Checkpoint folds the WAL back into the main database file and lets SQLite
// refresh its query planner statistics.
func (db *DB) Checkpoint(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return fmt.Errorf("wal checkpoint: %w", err)
	}
	if _, err := db.conn.ExecContext(ctx, `PRAGMA optimize`); err != nil {
		return fmt.Errorf("optimize: %w", err)
	}
	return nil
}

// ScheduleMaintenance runs Checkpoint on the given cron schedule (standard
// five-field syntax or descriptors such as "@every 30m"). An empty schedule
// disables it and returns a nil scheduler. The caller starts and stops the
// returned cron.
func ScheduleMaintenance(db *DB, schedule string, log *slog.Logger) (*cron.Cron, error) {
	if schedule == "" {
		return nil, nil
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		start := time.Now()
		if err := db.Checkpoint(ctx); err != nil {
			log.Error("database maintenance failed", "error", err)
			return
		}
		log.Debug("database maintenance done", "elapsed", time.Since(start).Round(time.Millisecond))
	})
	if err != nil {
		return nil, fmt.Errorf("invalid maintenance schedule %q: %w", schedule, err)
	}
	return c, nil
}
