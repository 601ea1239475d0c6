package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
)

// CreateNotification records a new notification for a user.
func (s *Store) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO notifications(id, user_id, task_id, type, message) VALUES(?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.TaskID, n.Type, n.Message)
	if err != nil {
		return models.Notification{}, fmt.Errorf("insert notification: %w", err)
	}

	var stored models.Notification
	err = s.db.GetContext(ctx, &stored, `SELECT id, user_id, task_id, type, message, is_read, created_at FROM notifications WHERE id = ?`, n.ID)
	if err != nil {
		return models.Notification{}, fmt.Errorf("get notification: %w", err)
	}
	return stored, nil
}

// ListNotifications returns a user's notifications, newest first,
// optionally restricted to unread ones.
func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	query := `SELECT id, user_id, task_id, type, message, is_read, created_at FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC, id`

	var notifications []models.Notification
	if err := s.db.SelectContext(ctx, &notifications, query, userID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// CountUnreadNotifications returns the number of unread notifications
// for a user.
func (s *Store) CountUnreadNotifications(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

// FindNotificationByIDAndUser retrieves a notification only when it
// belongs to the given recipient.
func (s *Store) FindNotificationByIDAndUser(ctx context.Context, id, userID string) (models.Notification, error) {
	var n models.Notification
	err := s.db.GetContext(ctx, &n, `SELECT id, user_id, task_id, type, message, is_read, created_at FROM notifications WHERE id = ? AND user_id = ?`, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Notification{}, apperr.NotFound("notification")
	}
	if err != nil {
		return models.Notification{}, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

// MarkNotificationRead flips the read flag on one notification.
func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.NotFound("notification")
	}
	return nil
}

// MarkAllNotificationsRead flips the read flag on every unread
// notification for a user.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`, userID); err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}
	return nil
}

// DeleteNotificationsByTask removes every notification referencing a
// task, as part of task deletion.
func (s *Store) DeleteNotificationsByTask(ctx context.Context, taskID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	return nil
}
