package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CleanResult counts the rows removed by one cleaning pass.
type CleanResult struct {
	Words    int64
	Sessions int64
}

// Clean purges words soft-deleted before now-retention and sessions that
// have expired.
func Clean(ctx context.Context, db *sql.DB, now time.Time, retention time.Duration) (CleanResult, error) {
	var res CleanResult
	r, err := db.ExecContext(ctx, `
		DELETE FROM words
		 WHERE deleted = true
		   AND deleted_at < $1
	`, now.Add(-retention))
	if err != nil {
		return res, fmt.Errorf("clean words: %w", err)
	}
	res.Words, _ = r.RowsAffected()

	r, err = db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)
	if err != nil {
		return res, fmt.Errorf("clean sessions: %w", err)
	}
	res.Sessions, _ = r.RowsAffected()
	return res, nil
}

// StartSoftDeleteCleaner runs Clean every interval until ctx is done.
func StartSoftDeleteCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				res, err := Clean(ctx, db, time.Now(), retention)
				if err != nil {
					log.Error("failed to clean stale rows", zap.Error(err))
					continue
				}
				if res.Words > 0 || res.Sessions > 0 {
					log.Info("cleaned stale rows",
						zap.Int64("words", res.Words),
						zap.Int64("sessions", res.Sessions))
				}
			}
		}
	}()
}
