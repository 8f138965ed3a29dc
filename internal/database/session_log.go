package database

import (
	"context"
	"fmt"
	"time"
)

// RecordSessionEvent appends a login/logout entry to the audit trail.
func (db *DB) RecordSessionEvent(ctx context.Context, telegramID int64, userID, kind string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO session_log (telegram_id, user_id, kind, created_at) VALUES (?, ?, ?, ?)`,
		telegramID, userID, kind, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to record session event: %w", err)
	}
	return nil
}
