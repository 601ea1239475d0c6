package service

import (
	"context"
	"testing"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
)

func TestMarkReadIsRecipientScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	notifications := NewNotificationService(f.store, nil)

	f.createTask(t, "Audit Q1") // produces a TASK_ASSIGNED notification for the solver

	list, err := notifications.List(ctx, f.solver.ID, true)
	if err != nil || len(list) != 1 {
		t.Fatalf("solver notifications = %v, %v", list, err)
	}

	// The author is not the recipient; the record must look absent.
	if err := notifications.MarkRead(ctx, list[0].ID, f.author.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("foreign mark read error = %v, want not found", err)
	}

	if err := notifications.MarkRead(ctx, list[0].ID, f.solver.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	count, err := notifications.UnreadCount(ctx, f.solver.ID)
	if err != nil || count != 0 {
		t.Fatalf("unread count = %d, %v; want 0", count, err)
	}
}

func TestMarkAllRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	notifications := NewNotificationService(f.store, nil)

	f.createTask(t, "one")
	f.createTask(t, "two")

	if err := notifications.MarkAllRead(ctx, f.solver.ID); err != nil {
		t.Fatalf("mark all read: %v", err)
	}

	count, err := notifications.UnreadCount(ctx, f.solver.ID)
	if err != nil || count != 0 {
		t.Fatalf("unread count = %d, %v; want 0", count, err)
	}

	// Records stay listed, only the read flag changed.
	list, err := notifications.List(ctx, f.solver.ID, false)
	if err != nil || len(list) != 2 {
		t.Fatalf("list after mark all = %v, %v", list, err)
	}
	for _, n := range list {
		if !n.IsRead {
			t.Errorf("notification %s still unread", n.ID)
		}
		if n.Type != models.NotificationTaskAssigned {
			t.Errorf("notification type = %s", n.Type)
		}
	}
}
