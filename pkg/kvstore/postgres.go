package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const createDocumentsTable = `CREATE TABLE IF NOT EXISTS kv_documents (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Postgres keeps documents in a single kv_documents table.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps db. Call EnsureSchema before first use.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the documents table when missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, createDocumentsTable); err != nil {
		return fmt.Errorf("create kv_documents: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	const query = `SELECT value FROM kv_documents WHERE key = $1`
	var value string
	if err := p.db.GetContext(ctx, &value, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get document %s: %w", key, err)
	}
	return value, true, nil
}

func (p *Postgres) Set(ctx context.Context, key, value string) error {
	const query = `INSERT INTO kv_documents (key, value, updated_at) VALUES ($1, $2, NOW())
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	if _, err := p.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("set document %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM kv_documents WHERE key = $1`
	if _, err := p.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete document %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
