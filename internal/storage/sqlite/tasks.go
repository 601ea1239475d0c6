package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
)

// CreateTask inserts a new task and returns the stored record.
func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	if strings.TrimSpace(t.Title) == "" {
		return models.Task{}, apperr.BadRequest("task title must not be empty")
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if !t.Priority.Valid() {
		t.Priority = models.PriorityMedium
	}
	if t.Status == "" {
		t.Status = models.StatusPending
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO tasks(id, title, description, priority, status, author_id, solver_id, due_date)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, strings.TrimSpace(t.Title), strings.TrimSpace(t.Description), t.Priority, t.Status, t.AuthorID, t.SolverID, t.DueDate)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return s.FindTaskByID(ctx, t.ID)
}

// FindTaskByID retrieves a task by id.
func (s *Store) FindTaskByID(ctx context.Context, id string) (models.Task, error) {
	var t models.Task
	err := s.db.GetContext(ctx, &t, `SELECT id, title, description, priority, status, author_id, solver_id, due_date, rejection_reason, created_at, updated_at
        FROM tasks WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, apperr.NotFound("task")
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// FindTaskByIDAndAuthor retrieves a task only when it belongs to the
// given author. A task owned by someone else reports not found so
// callers cannot probe for existence.
func (s *Store) FindTaskByIDAndAuthor(ctx context.Context, id, authorID string) (models.Task, error) {
	var t models.Task
	err := s.db.GetContext(ctx, &t, `SELECT id, title, description, priority, status, author_id, solver_id, due_date, rejection_reason, created_at, updated_at
        FROM tasks WHERE id = ? AND author_id = ?`, id, authorID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, apperr.NotFound("task")
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// ListTasksForUser returns tasks visible to a user: authors see the
// tasks they created, solvers the tasks assigned to them.
func (s *Store) ListTasksForUser(ctx context.Context, userID string, role models.Role) ([]models.Task, error) {
	column := "solver_id"
	if role == models.RoleAuthor {
		column = "author_id"
	}

	var tasks []models.Task
	err := s.db.SelectContext(ctx, &tasks, fmt.Sprintf(`SELECT id, title, description, priority, status, author_id, solver_id, due_date, rejection_reason, created_at, updated_at
        FROM tasks WHERE %s = ? ORDER BY created_at DESC, id`, column), userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask applies the given field changes and returns the updated record.
func (s *Store) UpdateTask(ctx context.Context, id string, changes map[string]any) (models.Task, error) {
	current, err := s.FindTaskByID(ctx, id)
	if err != nil {
		return models.Task{}, err
	}

	title := current.Title
	description := current.Description
	priority := current.Priority
	status := current.Status
	solverID := current.SolverID
	dueDate := current.DueDate
	rejectionReason := current.RejectionReason

	if v, ok := changes["title"].(string); ok && strings.TrimSpace(v) != "" {
		title = strings.TrimSpace(v)
	}
	if v, ok := changes["description"].(string); ok {
		description = strings.TrimSpace(v)
	}
	if v, ok := changes["priority"].(models.Priority); ok && v.Valid() {
		priority = v
	}
	if v, ok := changes["status"].(models.Status); ok {
		status = v
	}
	if v, ok := changes["solver_id"].(string); ok && v != "" {
		solverID = v
	}
	if v, ok := changes["due_date"].(*time.Time); ok {
		dueDate = v
	}
	if v, ok := changes["rejection_reason"].(string); ok {
		rejectionReason = v
	}

	_, err = s.db.ExecContext(ctx, `UPDATE tasks SET title = ?, description = ?, priority = ?, status = ?, solver_id = ?, due_date = ?, rejection_reason = ?, updated_at = CURRENT_TIMESTAMP
        WHERE id = ?`, title, description, priority, status, solverID, dueDate, rejectionReason, id)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	return s.FindTaskByID(ctx, id)
}

// DeleteTask removes a task by id.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.NotFound("task")
	}
	return nil
}
