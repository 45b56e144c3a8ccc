package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/futig/urlchat-backend/internal/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MessageRepository defines the interface for the append-only message log.
// Resolve is the only mutation of an existing message.
type MessageRepository interface {
	Append(ctx context.Context, msg entity.ChatMessage) (*entity.ChatMessage, error)
	Resolve(ctx context.Context, id, text string, sender entity.Sender, metadata []entity.URLMetadata) (*entity.ChatMessage, error)
	List(ctx context.Context) ([]*entity.ChatMessage, error)
	Reset(ctx context.Context, welcome entity.ChatMessage) (*entity.ChatMessage, error)
}

var _ MessageRepository = &MessagePostgres{}

// MessagePostgres implements MessageRepository using PostgreSQL
type MessagePostgres struct {
	db *pgxpool.Pool
}

func NewMessagePostgres(db *pgxpool.Pool) *MessagePostgres {
	return &MessagePostgres{db: db}
}

const messageColumns = "id, text, sender, is_loading, url_metadata, created_at"

func scanMessage(row pgx.Row) (*entity.ChatMessage, error) {
	var (
		m       entity.ChatMessage
		rawMeta []byte
	)
	if err := row.Scan(&m.ID, &m.Text, &m.Sender, &m.IsLoading, &rawMeta, &m.CreatedAt); err != nil {
		return nil, err
	}
	if len(rawMeta) > 0 {
		if err := json.Unmarshal(rawMeta, &m.URLMetadata); err != nil {
			return nil, fmt.Errorf("decode url metadata: %w", err)
		}
	}
	return &m, nil
}

func marshalMetadata(metadata []entity.URLMetadata) ([]byte, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	return json.Marshal(metadata)
}

func (r *MessagePostgres) Append(ctx context.Context, msg entity.ChatMessage) (*entity.ChatMessage, error) {
	if _, err := uuid.Parse(msg.ID); err != nil {
		return nil, fmt.Errorf("parse message ID: %w", err)
	}

	rawMeta, err := marshalMetadata(msg.URLMetadata)
	if err != nil {
		return nil, fmt.Errorf("encode url metadata: %w", err)
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO chat_messages (id, text, sender, is_loading, url_metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+messageColumns,
		msg.ID, msg.Text, msg.Sender, msg.IsLoading, rawMeta,
	)

	created, err := scanMessage(row)
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	return created, nil
}

// Resolve replaces the mutable fields of a pending message in place and
// clears its loading flag.
func (r *MessagePostgres) Resolve(ctx context.Context, id, text string, sender entity.Sender, metadata []entity.URLMetadata) (*entity.ChatMessage, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse message ID: %w", err)
	}

	rawMeta, err := marshalMetadata(metadata)
	if err != nil {
		return nil, fmt.Errorf("encode url metadata: %w", err)
	}

	row := r.db.QueryRow(ctx, `
		UPDATE chat_messages
		SET text = $2, sender = $3, is_loading = FALSE, url_metadata = $4
		WHERE id = $1
		RETURNING `+messageColumns,
		id, text, sender, rawMeta,
	)

	resolved, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrMessageNotFound
		}
		return nil, fmt.Errorf("resolve message: %w", err)
	}

	return resolved, nil
}

func (r *MessagePostgres) List(ctx context.Context) ([]*entity.ChatMessage, error) {
	rows, err := r.db.Query(ctx, `SELECT `+messageColumns+` FROM chat_messages ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*entity.ChatMessage, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// Reset clears the log and seeds it with a single welcome message inside one
// transaction.
func (r *MessagePostgres) Reset(ctx context.Context, welcome entity.ChatMessage) (*entity.ChatMessage, error) {
	if _, err := uuid.Parse(welcome.ID); err != nil {
		return nil, fmt.Errorf("parse message ID: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM chat_messages`); err != nil {
		return nil, fmt.Errorf("clear messages: %w", err)
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO chat_messages (id, text, sender, is_loading, url_metadata)
		VALUES ($1, $2, $3, FALSE, NULL)
		RETURNING `+messageColumns,
		welcome.ID, welcome.Text, welcome.Sender,
	)

	seeded, err := scanMessage(row)
	if err != nil {
		return nil, fmt.Errorf("seed welcome message: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return seeded, nil
}
