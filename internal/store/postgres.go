package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgBackend keeps collections as jsonb documents in the collections table.
type PgBackend struct {
	pool *pgxpool.Pool
}

// NewPgBackend creates a new PostgreSQL collection backend.
func NewPgBackend(pool *pgxpool.Pool) *PgBackend {
	return &PgBackend{pool: pool}
}

func (b *PgBackend) Read(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := b.pool.QueryRow(ctx,
		`SELECT data FROM collections WHERE name = $1`, name).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading collection %s: %w", name, err)
	}
	return data, nil
}

func (b *PgBackend) Write(ctx context.Context, name string, data []byte) error {
	_, err := b.pool.Exec(ctx,
		`INSERT INTO collections (name, data, updated_at)
		 VALUES ($1, $2::jsonb, NOW())
		 ON CONFLICT (name)
		 DO UPDATE SET data = $2::jsonb, updated_at = NOW()`,
		name, string(data))
	if err != nil {
		return fmt.Errorf("saving collection %s: %w", name, err)
	}
	return nil
}

func (b *PgBackend) Delete(ctx context.Context, name string) error {
	if _, err := b.pool.Exec(ctx, `DELETE FROM collections WHERE name = $1`, name); err != nil {
		return fmt.Errorf("deleting collection %s: %w", name, err)
	}
	return nil
}
