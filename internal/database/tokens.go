package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// TokenKey is the fixed storage key of the auth token.
const TokenKey = "token"

func (db *DB) getValue(ctx context.Context, telegramID int64, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx,
		`SELECT value FROM client_storage WHERE telegram_id = ? AND key = ?`,
		telegramID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

func (db *DB) setValue(ctx context.Context, telegramID int64, key, value string) error {
	query := `INSERT INTO client_storage (telegram_id, key, value, updated_at)
              VALUES (?, ?, ?, ?)
              ON CONFLICT(telegram_id, key) DO UPDATE SET
                value = excluded.value,
                updated_at = excluded.updated_at`
	if _, err := db.ExecContext(ctx, query, telegramID, key, value, time.Now()); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (db *DB) deleteValue(ctx context.Context, telegramID int64, key string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM client_storage WHERE telegram_id = ? AND key = ?`, telegramID, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// GetToken returns the stored token or "" when the user never logged in.
func (db *DB) GetToken(ctx context.Context, telegramID int64) (string, error) {
	return db.getValue(ctx, telegramID, TokenKey)
}

func (db *DB) SetToken(ctx context.Context, telegramID int64, token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	return db.setValue(ctx, telegramID, TokenKey, token)
}

func (db *DB) ClearToken(ctx context.Context, telegramID int64) error {
	return db.deleteValue(ctx, telegramID, TokenKey)
}

// TelegramIDs lists users with a stored token, used to restore sessions on startup.
func (db *DB) TelegramIDs(ctx context.Context) ([]int64, error) {
	rows, err := db.QueryContext(ctx, `SELECT telegram_id FROM client_storage WHERE key = ? ORDER BY telegram_id`, TokenKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
