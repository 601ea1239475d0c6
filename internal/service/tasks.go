// Package service holds the task lifecycle engine and the notification
// read path. Every lifecycle transition persists first, then records a
// notification, then broadcasts to the counter-party's open streams.
// Broadcast is best-effort and never affects the reported outcome.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"taskboard/internal/apperr"
	"taskboard/internal/events"
	"taskboard/internal/models"
	"taskboard/internal/storage/sqlite"
)

// TaskService owns the task state machine.
type TaskService struct {
	store    *sqlite.Store
	registry *events.Registry
	logger   *slog.Logger
}

// NewTaskService wires the engine to its storage and fanout collaborators.
func NewTaskService(store *sqlite.Store, registry *events.Registry, logger *slog.Logger) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{store: store, registry: registry, logger: logger}
}

// CreateTaskInput carries the fields for a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	Priority    models.Priority
	SolverIDs   []string
	DueDate     *time.Time
}

// UpdateTaskInput carries optional field edits. A status change must
// pass the transition table or the whole update is rejected.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Priority    *models.Priority
	Status      *models.Status
	SolverID    *string
	DueDate     *time.Time
}

// ListTasks returns tasks visible to the actor: authors see authored
// tasks, solvers see assigned ones.
func (s *TaskService) ListTasks(ctx context.Context, userID string, role models.Role) ([]models.Task, error) {
	return s.store.ListTasksForUser(ctx, userID, role)
}

// GetTask returns a single task by id.
func (s *TaskService) GetTask(ctx context.Context, id string) (models.Task, error) {
	return s.store.FindTaskByID(ctx, id)
}

// CreateTask creates a PENDING task assigned to exactly one solver and
// notifies that solver.
func (s *TaskService) CreateTask(ctx context.Context, in CreateTaskInput, authorID string) (models.Task, error) {
	if len(in.SolverIDs) != 1 {
		return models.Task{}, apperr.BadRequest("exactly one solver is required")
	}
	solverID := in.SolverIDs[0]

	solver, err := s.store.FindUserByID(ctx, solverID)
	if err != nil || solver.Role != models.RoleSolver {
		return models.Task{}, apperr.BadRequest("invalid solver id")
	}

	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return models.Task{}, apperr.BadRequest("unknown priority %q", priority)
	}

	task, err := s.store.CreateTask(ctx, models.Task{
		Title:       in.Title,
		Description: in.Description,
		Priority:    priority,
		Status:      models.StatusPending,
		AuthorID:    authorID,
		SolverID:    solverID,
		DueDate:     in.DueDate,
	})
	if err != nil {
		return models.Task{}, err
	}

	if err := s.notify(ctx, solverID, task.ID, models.NotificationTaskAssigned,
		fmt.Sprintf("You have been assigned a new task: %s", task.Title)); err != nil {
		return models.Task{}, err
	}

	s.logger.Info("task created",
		slog.String("task_id", task.ID),
		slog.String("author_id", authorID),
		slog.String("solver_id", solverID))

	s.registry.Broadcast(solverID, events.EventTaskUpdate, events.TaskUpdatePayload{TaskID: task.ID, Action: events.ActionCreated})
	s.registry.Broadcast(solverID, events.EventNotification, events.NotificationPayload{TaskID: task.ID})

	return task, nil
}

// UpdateTask applies free-field edits. This path carries no workflow
// semantics and therefore does not broadcast; the explicit action
// methods below own the push events.
func (s *TaskService) UpdateTask(ctx context.Context, id string, in UpdateTaskInput, actorID string) (models.Task, error) {
	task, err := s.store.FindTaskByID(ctx, id)
	if err != nil {
		return models.Task{}, err
	}

	if in.Status != nil && *in.Status != task.Status {
		if !models.ValidTransition(task.Status, *in.Status) {
			return models.Task{}, apperr.BadRequest("invalid status transition from %q to %q", task.Status, *in.Status)
		}
	}

	changes := map[string]any{}
	if in.Title != nil {
		changes["title"] = *in.Title
	}
	if in.Description != nil {
		changes["description"] = *in.Description
	}
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return models.Task{}, apperr.BadRequest("unknown priority %q", *in.Priority)
		}
		changes["priority"] = *in.Priority
	}
	if in.Status != nil {
		changes["status"] = *in.Status
	}
	if in.SolverID != nil {
		solver, err := s.store.FindUserByID(ctx, *in.SolverID)
		if err != nil || solver.Role != models.RoleSolver {
			return models.Task{}, apperr.BadRequest("invalid solver id")
		}
		changes["solver_id"] = *in.SolverID
	}
	if in.DueDate != nil {
		changes["due_date"] = in.DueDate
	}

	updated, err := s.store.UpdateTask(ctx, id, changes)
	if err != nil {
		return models.Task{}, err
	}

	s.logger.Info("task updated", slog.String("task_id", id), slog.String("actor_id", actorID))
	return updated, nil
}

// StartTask moves PENDING work to STARTED. Only the assigned solver
// may start a task.
func (s *TaskService) StartTask(ctx context.Context, id, solverID string) (models.Task, error) {
	task, err := s.store.FindTaskByID(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	if task.SolverID != solverID {
		return models.Task{}, apperr.Authorization("you are not assigned to this task")
	}
	if task.Status != models.StatusPending {
		return models.Task{}, apperr.BadRequest("cannot start task with status %q", task.Status)
	}

	updated, err := s.store.UpdateTask(ctx, id, map[string]any{"status": models.StatusStarted})
	if err != nil {
		return models.Task{}, err
	}

	s.logger.Info("task started", slog.String("task_id", id), slog.String("solver_id", solverID))
	s.registry.Broadcast(task.AuthorID, events.EventTaskUpdate, events.TaskUpdatePayload{TaskID: id, Action: events.ActionStarted})
	return updated, nil
}

// CompleteTask moves STARTED work to COMPLETED and notifies the author
// that the task awaits approval.
func (s *TaskService) CompleteTask(ctx context.Context, id, solverID string) (models.Task, error) {
	task, err := s.store.FindTaskByID(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	if task.SolverID != solverID {
		return models.Task{}, apperr.Authorization("you are not assigned to this task")
	}
	if task.Status != models.StatusStarted {
		return models.Task{}, apperr.BadRequest("cannot complete task with status %q", task.Status)
	}

	updated, err := s.store.UpdateTask(ctx, id, map[string]any{"status": models.StatusCompleted})
	if err != nil {
		return models.Task{}, err
	}

	if err := s.notify(ctx, task.AuthorID, task.ID, models.NotificationTaskCompleted,
		fmt.Sprintf("Task %q has been completed and awaits your approval", task.Title)); err != nil {
		return models.Task{}, err
	}

	s.logger.Info("task completed", slog.String("task_id", id), slog.String("solver_id", solverID))
	s.registry.Broadcast(task.AuthorID, events.EventTaskUpdate, events.TaskUpdatePayload{TaskID: id, Action: events.ActionCompleted})
	s.registry.Broadcast(task.AuthorID, events.EventNotification, events.NotificationPayload{TaskID: id})
	return updated, nil
}

// ApproveTask moves COMPLETED work to its terminal APPROVED state and
// notifies the solver. The task is looked up scoped to the author, so
// someone else's task reports not found rather than forbidden.
func (s *TaskService) ApproveTask(ctx context.Context, id, authorID string) (models.Task, error) {
	task, err := s.store.FindTaskByIDAndAuthor(ctx, id, authorID)
	if err != nil {
		return models.Task{}, err
	}
	if task.Status != models.StatusCompleted {
		return models.Task{}, apperr.BadRequest("cannot approve task with status %q", task.Status)
	}

	updated, err := s.store.UpdateTask(ctx, id, map[string]any{"status": models.StatusApproved})
	if err != nil {
		return models.Task{}, err
	}

	if err := s.notify(ctx, task.SolverID, task.ID, models.NotificationTaskApproved,
		fmt.Sprintf("Your task %q has been approved!", task.Title)); err != nil {
		return models.Task{}, err
	}

	s.logger.Info("task approved", slog.String("task_id", id), slog.String("author_id", authorID))
	s.registry.Broadcast(task.SolverID, events.EventTaskUpdate, events.TaskUpdatePayload{TaskID: id, Action: events.ActionApproved})
	s.registry.Broadcast(task.SolverID, events.EventNotification, events.NotificationPayload{TaskID: id})
	return updated, nil
}

// RejectTask sends COMPLETED work back to STARTED for revision. The
// optional reason is recorded on the task and interpolated into the
// solver's notification.
func (s *TaskService) RejectTask(ctx context.Context, id, authorID, reason string) (models.Task, error) {
	task, err := s.store.FindTaskByIDAndAuthor(ctx, id, authorID)
	if err != nil {
		return models.Task{}, err
	}
	if task.Status != models.StatusCompleted {
		return models.Task{}, apperr.BadRequest("cannot reject task with status %q", task.Status)
	}

	changes := map[string]any{"status": models.StatusStarted}
	if reason != "" {
		changes["rejection_reason"] = reason
	}
	updated, err := s.store.UpdateTask(ctx, id, changes)
	if err != nil {
		return models.Task{}, err
	}

	message := fmt.Sprintf("Your task %q was rejected. Please revise and resubmit.", task.Title)
	if reason != "" {
		message = fmt.Sprintf("Your task %q was rejected. Reason: %s. Please revise and resubmit.", task.Title, reason)
	}
	if err := s.notify(ctx, task.SolverID, task.ID, models.NotificationTaskRejected, message); err != nil {
		return models.Task{}, err
	}

	s.logger.Info("task rejected", slog.String("task_id", id), slog.String("author_id", authorID), slog.String("reason", reason))
	s.registry.Broadcast(task.SolverID, events.EventTaskUpdate, events.TaskUpdatePayload{TaskID: id, Action: events.ActionRejected})
	s.registry.Broadcast(task.SolverID, events.EventNotification, events.NotificationPayload{TaskID: id})
	return updated, nil
}

// DeleteTask removes a task and every notification referencing it,
// then tells the solver the task is gone.
func (s *TaskService) DeleteTask(ctx context.Context, id, authorID string) error {
	task, err := s.store.FindTaskByIDAndAuthor(ctx, id, authorID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteNotificationsByTask(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return err
	}

	s.logger.Info("task deleted", slog.String("task_id", id), slog.String("author_id", authorID))

	if task.SolverID != "" {
		s.registry.Broadcast(task.SolverID, events.EventTaskUpdate, events.TaskUpdatePayload{TaskID: id, Action: events.ActionDeleted})
	}
	return nil
}

// notify records a notification for one recipient.
func (s *TaskService) notify(ctx context.Context, userID, taskID string, kind models.NotificationType, message string) error {
	_, err := s.store.CreateNotification(ctx, models.Notification{
		UserID:  userID,
		TaskID:  taskID,
		Type:    kind,
		Message: message,
	})
	if err != nil {
		s.logger.Error("notification write failed",
			slog.String("task_id", taskID),
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
	}
	return err
}
