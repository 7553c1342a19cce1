package notification

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carebridge/carebridge/internal/platform/db"
)

const notificationCols = `id, recipient, message, category, link, is_read, created_at`

// PGStore is the Postgres-backed notification store.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// conn returns the context-carried transaction when present, otherwise the pool.
func (s *PGStore) conn(ctx context.Context) db.Queryable {
	if q := db.ConnFromContext(ctx); q != nil {
		return q
	}
	return s.pool
}

func (s *PGStore) Create(ctx context.Context, n *Notification) error {
	_, err := s.conn(ctx).Exec(ctx, `
		INSERT INTO notification (id, recipient, message, category, link, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.Recipient, n.Message, n.Category, n.Link, n.IsRead, n.CreatedAt,
	)
	return err
}

func (s *PGStore) ListByRecipient(ctx context.Context, recipient string, limit int) ([]Notification, error) {
	rows, err := s.conn(ctx).Query(ctx, `
		SELECT `+notificationCols+`
		FROM notification
		WHERE recipient = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		recipient, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Recipient, &n.Message, &n.Category, &n.Link, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (s *PGStore) UnreadCount(ctx context.Context, recipient string) (int, error) {
	var count int
	err := s.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM notification
		WHERE recipient = $1 AND is_read = FALSE`,
		recipient,
	).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return count, err
}

func (s *PGStore) MarkRead(ctx context.Context, recipient string, id uuid.UUID) error {
	tag, err := s.conn(ctx).Exec(ctx, `
		UPDATE notification SET is_read = TRUE
		WHERE id = $1 AND recipient = $2`,
		id, recipient,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) MarkAllRead(ctx context.Context, recipient string) error {
	_, err := s.conn(ctx).Exec(ctx, `
		UPDATE notification SET is_read = TRUE
		WHERE recipient = $1 AND is_read = FALSE`,
		recipient,
	)
	return err
}

func (s *PGStore) Delete(ctx context.Context, recipient string, id uuid.UUID) error {
	tag, err := s.conn(ctx).Exec(ctx, `
		DELETE FROM notification
		WHERE id = $1 AND recipient = $2`,
		id, recipient,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) Clear(ctx context.Context, recipient string) error {
	_, err := s.conn(ctx).Exec(ctx, `
		DELETE FROM notification WHERE recipient = $1`,
		recipient,
	)
	return err
}
