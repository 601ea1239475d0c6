package models

import "time"

// Role determines what a user may do with a task: authors create,
// approve and reject work, solvers execute it.
type Role string

const (
	RoleAuthor Role = "AUTHOR"
	RoleSolver Role = "SOLVER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAuthor || r == RoleSolver
}

// Status is the workflow state of a task.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusStarted   Status = "STARTED"
	StatusCompleted Status = "COMPLETED"
	StatusApproved  Status = "APPROVED"
	// StatusRejected is kept for compatibility with existing clients.
	// A reject moves the task straight back to STARTED, so no code
	// path ever persists this value.
	StatusRejected Status = "REJECTED"
)

// Priority orders tasks in the dashboards.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// StatusTransitions is the authoritative set of legal status moves.
// Any requested transition not listed here is rejected.
var StatusTransitions = map[Status][]Status{
	StatusPending:   {StatusStarted},
	StatusStarted:   {StatusCompleted},
	StatusCompleted: {StatusApproved, StatusRejected},
	StatusApproved:  {},
	StatusRejected:  {StatusStarted},
}

// ValidTransition reports whether moving from one status to another is
// allowed by the transition table.
func ValidTransition(from, to Status) bool {
	for _, next := range StatusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NotificationType classifies a notification for client rendering.
type NotificationType string

const (
	NotificationTaskAssigned  NotificationType = "TASK_ASSIGNED"
	NotificationTaskApproved  NotificationType = "TASK_APPROVED"
	NotificationTaskRejected  NotificationType = "TASK_REJECTED"
	NotificationTaskStarted   NotificationType = "TASK_STARTED"
	NotificationTaskCompleted NotificationType = "TASK_COMPLETED"
)

// User is an account with exactly one role.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// PublicUser is the view of a user safe to return to clients.
type PublicUser struct {
	ID    string `json:"id" db:"id"`
	Email string `json:"email" db:"email"`
	Name  string `json:"name" db:"name"`
	Role  Role   `json:"role" db:"role"`
}

// Public strips credential material from a user record.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// Task is the unit of work shared between one author and one solver.
type Task struct {
	ID              string     `json:"id" db:"id"`
	Title           string     `json:"title" db:"title"`
	Description     string     `json:"description" db:"description"`
	Priority        Priority   `json:"priority" db:"priority"`
	Status          Status     `json:"status" db:"status"`
	AuthorID        string     `json:"author_id" db:"author_id"`
	SolverID        string     `json:"solver_id" db:"solver_id"`
	DueDate         *time.Time `json:"due_date,omitempty" db:"due_date"`
	RejectionReason string     `json:"rejection_reason,omitempty" db:"rejection_reason"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// Notification is a user-scoped message produced by a task transition.
// Immutable once written except for the read flag.
type Notification struct {
	ID        string           `json:"id" db:"id"`
	UserID    string           `json:"user_id" db:"user_id"`
	TaskID    string           `json:"task_id" db:"task_id"`
	Type      NotificationType `json:"type" db:"type"`
	Message   string           `json:"message" db:"message"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
