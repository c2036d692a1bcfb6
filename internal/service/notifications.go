package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/punchamoorthee/ledgerbook/internal/domain"
)

type NotificationService struct {
	notifications domain.NotificationRepository
	log           *zap.Logger
}

func NewNotificationService(notifications domain.NotificationRepository, log *zap.Logger) *NotificationService {
	return &NotificationService{notifications: notifications, log: log}
}

// Notify stores a new unread message for the user.
func (s *NotificationService) Notify(ctx context.Context, userID int64, message string) (*domain.Notification, error) {
	n := &domain.Notification{UserID: userID, Message: message}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, err
	}
	s.log.Debug("notification created", zap.Int64("notification_id", n.ID), zap.Int64("user_id", userID))
	return n, nil
}

func (s *NotificationService) ListUnread(ctx context.Context, userID int64) ([]domain.Notification, error) {
	return s.notifications.ListUnread(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id int64) (*domain.Notification, error) {
	return s.notifications.MarkRead(ctx, userID, id)
}
