package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/punchamoorthee/ledgerbook/internal/domain"
)

// NotificationRepository implements domain.NotificationRepository.
type NotificationRepository struct {
	s *Store
}

func NewNotificationRepository(s *Store) *NotificationRepository {
	return &NotificationRepository{s: s}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	err := r.s.conn(ctx).QueryRow(ctx,
		"INSERT INTO notifications (user_id, message) VALUES ($1, $2) RETURNING id, is_read, created_at",
		n.UserID, n.Message,
	).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	return domain.NewStorageError("create notification", err)
}

func (r *NotificationRepository) ListUnread(ctx context.Context, userID int64) ([]domain.Notification, error) {
	rows, err := r.s.conn(ctx).Query(ctx,
		`SELECT id, user_id, message, is_read, created_at FROM notifications
		 WHERE user_id = $1 AND NOT is_read ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, domain.NewStorageError("list notifications", err)
	}
	defer rows.Close()

	out := []domain.Notification{}
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, domain.NewStorageError("scan notification", err)
		}
		out = append(out, n)
	}
	return out, domain.NewStorageError("list notifications", rows.Err())
}

func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id int64) (*domain.Notification, error) {
	var n domain.Notification
	err := r.s.conn(ctx).QueryRow(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, message, is_read, created_at`, id, userID,
	).Scan(&n.ID, &n.UserID, &n.Message, &n.IsRead, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: notification %d", domain.ErrNotFound, id)
		}
		return nil, domain.NewStorageError("mark notification read", err)
	}
	return &n, nil
}
