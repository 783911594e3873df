package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"
)

// credentialsDDL works on both Postgres and SQLite.
const credentialsDDL = `CREATE TABLE IF NOT EXISTS credentials (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

type CredentialRepository interface {
	EnsureSchema(ctx context.Context) error
	Get(ctx context.Context, key string) (string, bool, error)
	Upsert(ctx context.Context, key, value string, now time.Time) error
	Delete(ctx context.Context, key string) error
}

type credentialRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewCredentialRepository(db *sql.DB, logger *slog.Logger) CredentialRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &credentialRepository{db: db, logger: logger}
}

func (r *credentialRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, credentialsDDL); err != nil {
		r.logger.Error("failed to create credentials table", "error", err)
		return err
	}
	return nil
}

func (r *credentialRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM credentials WHERE key = $1`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		r.logger.Error("failed to read credential", "key", key, "error", err)
		return "", false, err
	}
	return v, true, nil
}

func (r *credentialRepository) Upsert(ctx context.Context, key, value string, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO credentials (key, value, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now.UTC())
	if err != nil {
		r.logger.Error("failed to store credential", "key", key, "error", err)
		return err
	}
	return nil
}

func (r *credentialRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE key = $1`, key); err != nil {
		r.logger.Error("failed to delete credential", "key", key, "error", err)
		return err
	}
	return nil
}
