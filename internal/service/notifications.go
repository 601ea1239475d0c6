package service

import (
	"context"
	"log/slog"

	"taskboard/internal/models"
	"taskboard/internal/storage/sqlite"
)

// NotificationService is the client-facing read path over the durable
// notification records the lifecycle engine writes.
type NotificationService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewNotificationService constructs the notification read path.
func NewNotificationService(store *sqlite.Store, logger *slog.Logger) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{store: store, logger: logger}
}

// List returns a user's notifications, optionally unread ones only.
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	return s.store.ListNotifications(ctx, userID, unreadOnly)
}

// UnreadCount returns how many unread notifications a user has.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.store.CountUnreadNotifications(ctx, userID)
}

// MarkRead flips the read flag on one notification. The lookup is
// scoped to the recipient, so another user's notification reports not
// found.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if _, err := s.store.FindNotificationByIDAndUser(ctx, id, userID); err != nil {
		return err
	}
	if err := s.store.MarkNotificationRead(ctx, id); err != nil {
		return err
	}
	s.logger.Info("notification marked read", slog.String("notification_id", id), slog.String("user_id", userID))
	return nil
}

// MarkAllRead flips the read flag on every unread notification of a user.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.store.MarkAllNotificationsRead(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("all notifications marked read", slog.String("user_id", userID))
	return nil
}
