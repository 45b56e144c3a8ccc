package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/futig/urlchat-backend/internal/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GroupRepository defines the interface for URL group persistence
type GroupRepository interface {
	Create(ctx context.Context, group entity.URLGroup) (*entity.URLGroup, error)
	Get(ctx context.Context, id string) (*entity.URLGroup, error)
	GetByName(ctx context.Context, name string) (*entity.URLGroup, error)
	GetActive(ctx context.Context) (*entity.URLGroup, error)
	List(ctx context.Context) ([]*entity.URLGroup, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string) (*entity.URLGroup, error)
	UpdateURLs(ctx context.Context, id string, urls []string) (*entity.URLGroup, error)
}

var _ GroupRepository = &GroupPostgres{}

// GroupPostgres implements GroupRepository using PostgreSQL
type GroupPostgres struct {
	db *pgxpool.Pool
}

func NewGroupPostgres(db *pgxpool.Pool) *GroupPostgres {
	return &GroupPostgres{db: db}
}

const groupColumns = "id, name, urls, active, position, created_at"

func scanGroup(row pgx.Row) (*entity.URLGroup, error) {
	var g entity.URLGroup
	if err := row.Scan(&g.ID, &g.Name, &g.URLs, &g.Active, &g.Position, &g.CreatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GroupPostgres) Create(ctx context.Context, group entity.URLGroup) (*entity.URLGroup, error) {
	if _, err := uuid.Parse(group.ID); err != nil {
		return nil, fmt.Errorf("parse group ID: %w", err)
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO url_groups (id, name, urls, active, position)
		VALUES ($1, $2, $3, $4, (SELECT COALESCE(MAX(position)+1, 0) FROM url_groups))
		RETURNING `+groupColumns,
		group.ID, group.Name, group.URLs, group.Active,
	)

	created, err := scanGroup(row)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505: unique_violation on the name constraint
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, entity.ErrDuplicateGroupName
		}
		return nil, fmt.Errorf("create group: %w", err)
	}

	return created, nil
}

func (r *GroupPostgres) Get(ctx context.Context, id string) (*entity.URLGroup, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse group ID: %w", err)
	}

	row := r.db.QueryRow(ctx, `SELECT `+groupColumns+` FROM url_groups WHERE id = $1`, id)

	group, err := scanGroup(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrGroupNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}

	return group, nil
}

func (r *GroupPostgres) GetByName(ctx context.Context, name string) (*entity.URLGroup, error) {
	row := r.db.QueryRow(ctx, `SELECT `+groupColumns+` FROM url_groups WHERE name = $1`, name)

	group, err := scanGroup(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrGroupNotFound
		}
		return nil, fmt.Errorf("get group by name: %w", err)
	}

	return group, nil
}

func (r *GroupPostgres) GetActive(ctx context.Context) (*entity.URLGroup, error) {
	row := r.db.QueryRow(ctx, `SELECT `+groupColumns+` FROM url_groups WHERE active`)

	group, err := scanGroup(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrGroupNotFound
		}
		return nil, fmt.Errorf("get active group: %w", err)
	}

	return group, nil
}

func (r *GroupPostgres) List(ctx context.Context) ([]*entity.URLGroup, error) {
	rows, err := r.db.Query(ctx, `SELECT `+groupColumns+` FROM url_groups ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	groups := make([]*entity.URLGroup, 0)
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, group)
	}

	return groups, rows.Err()
}

func (r *GroupPostgres) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM url_groups`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count groups: %w", err)
	}
	return count, nil
}

func (r *GroupPostgres) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("parse group ID: %w", err)
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM url_groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrGroupNotFound
	}

	return nil
}

// SetActive flips the active flag to the given group inside one transaction,
// keeping the single-active invariant intact.
func (r *GroupPostgres) SetActive(ctx context.Context, id string) (*entity.URLGroup, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse group ID: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE url_groups SET active = FALSE WHERE active`); err != nil {
		return nil, fmt.Errorf("clear active group: %w", err)
	}

	row := tx.QueryRow(ctx, `
		UPDATE url_groups SET active = TRUE WHERE id = $1
		RETURNING `+groupColumns,
		id,
	)

	group, err := scanGroup(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrGroupNotFound
		}
		return nil, fmt.Errorf("set active group: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return group, nil
}

func (r *GroupPostgres) UpdateURLs(ctx context.Context, id string, urls []string) (*entity.URLGroup, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse group ID: %w", err)
	}

	row := r.db.QueryRow(ctx, `
		UPDATE url_groups SET urls = $2 WHERE id = $1
		RETURNING `+groupColumns,
		id, urls,
	)

	group, err := scanGroup(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrGroupNotFound
		}
		return nil, fmt.Errorf("update group urls: %w", err)
	}

	return group, nil
}
