package postgres

import (
	"context"
	"database/sql"

	"docuvault/internal/repository"
)

// SettingsPostgres is a PostgreSQL implementation of
// repository.SettingsRepository.
type SettingsPostgres struct {
	db *sql.DB
}

// NewSettingsPostgres creates a new SettingsPostgres repository.
func NewSettingsPostgres(db *sql.DB) *SettingsPostgres {
	return &SettingsPostgres{db: db}
}

var _ repository.SettingsRepository = (*SettingsPostgres)(nil)

func (r *SettingsPostgres) Get(ctx context.Context, key string) (string, error) {
	const q = `SELECT value FROM settings WHERE key = $1`
	var value string
	if err := r.db.QueryRowContext(ctx, q, key).Scan(&value); err != nil {
		return "", err
	}
	return value, nil
}

func (r *SettingsPostgres) Put(ctx context.Context, key, value string) error {
	const q = `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = now()
	`
	_, err := r.db.ExecContext(ctx, q, key, value)
	return err
}
