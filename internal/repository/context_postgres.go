package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/futig/urlchat-backend/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ContextRepository persists the single attached local context. Get returns
// (nil, nil) when nothing is attached.
type ContextRepository interface {
	Set(ctx context.Context, lc entity.LocalContext) (*entity.LocalContext, error)
	Get(ctx context.Context) (*entity.LocalContext, error)
	Clear(ctx context.Context) error
}

var _ ContextRepository = &ContextPostgres{}

// ContextPostgres implements ContextRepository using PostgreSQL
type ContextPostgres struct {
	db *pgxpool.Pool
}

func NewContextPostgres(db *pgxpool.Pool) *ContextPostgres {
	return &ContextPostgres{db: db}
}

const contextColumns = "type, name, content, file_count, truncated, created_at"

func scanContext(row pgx.Row) (*entity.LocalContext, error) {
	var lc entity.LocalContext
	if err := row.Scan(&lc.Type, &lc.Name, &lc.Content, &lc.FileCount, &lc.Truncated, &lc.CreatedAt); err != nil {
		return nil, err
	}
	return &lc, nil
}

func (r *ContextPostgres) Set(ctx context.Context, lc entity.LocalContext) (*entity.LocalContext, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO local_context (singleton, type, name, content, file_count, truncated)
		VALUES (TRUE, $1, $2, $3, $4, $5)
		ON CONFLICT (singleton) DO UPDATE
		SET type = $1, name = $2, content = $3, file_count = $4, truncated = $5, created_at = now()
		RETURNING `+contextColumns,
		lc.Type, lc.Name, lc.Content, lc.FileCount, lc.Truncated,
	)

	saved, err := scanContext(row)
	if err != nil {
		return nil, fmt.Errorf("set local context: %w", err)
	}

	return saved, nil
}

func (r *ContextPostgres) Get(ctx context.Context) (*entity.LocalContext, error) {
	row := r.db.QueryRow(ctx, `SELECT `+contextColumns+` FROM local_context`)

	lc, err := scanContext(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get local context: %w", err)
	}

	return lc, nil
}

func (r *ContextPostgres) Clear(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM local_context`); err != nil {
		return fmt.Errorf("clear local context: %w", err)
	}

	return nil
}
