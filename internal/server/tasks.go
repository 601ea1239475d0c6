package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
	"taskboard/internal/service"
)

type createTaskRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	Solvers     []string `json:"solvers"`
	DueDate     *string  `json:"due_date"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
	SolverID    *string `json:"solver_id"`
	DueDate     *string `json:"due_date"`
}

type rejectTaskRequest struct {
	Reason string `json:"reason"`
}

// handleListTasks returns the tasks visible to the caller's role.
func (s *Server) handleListTasks(c *gin.Context) {
	claims := currentClaims(c)

	tasks, err := s.tasks.ListTasks(c.Request.Context(), claims.UserID, claims.Role)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"tasks": tasks})
}

// handleGetTask fetches a single task.
func (s *Server) handleGetTask(c *gin.Context) {
	task, err := s.tasks.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleCreateTask creates a new task assigned to one solver.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if req.Title == "" {
		s.respondError(c, apperr.BadRequest("title is required"))
		return
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		s.respondError(c, err)
		return
	}

	claims := currentClaims(c)
	task, err := s.tasks.CreateTask(c.Request.Context(), service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    models.Priority(req.Priority),
		SolverIDs:   req.Solvers,
		DueDate:     dueDate,
	}, claims.UserID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": task})
}

// handleUpdateTask applies free-field edits to a task.
func (s *Server) handleUpdateTask(c *gin.Context) {
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperr.BadRequest("invalid request body"))
		return
	}

	in := service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		SolverID:    req.SolverID,
	}
	if req.Priority != nil {
		p := models.Priority(*req.Priority)
		in.Priority = &p
	}
	if req.Status != nil {
		st := models.Status(*req.Status)
		in.Status = &st
	}
	if req.DueDate != nil {
		dueDate, err := parseDueDate(req.DueDate)
		if err != nil {
			s.respondError(c, err)
			return
		}
		in.DueDate = dueDate
	}

	claims := currentClaims(c)
	task, err := s.tasks.UpdateTask(c.Request.Context(), c.Param("id"), in, claims.UserID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleStartTask moves a pending task to started.
func (s *Server) handleStartTask(c *gin.Context) {
	claims := currentClaims(c)
	task, err := s.tasks.StartTask(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleCompleteTask moves a started task to completed.
func (s *Server) handleCompleteTask(c *gin.Context) {
	claims := currentClaims(c)
	task, err := s.tasks.CompleteTask(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleApproveTask moves a completed task to its terminal state.
func (s *Server) handleApproveTask(c *gin.Context) {
	claims := currentClaims(c)
	task, err := s.tasks.ApproveTask(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleRejectTask sends a completed task back for revision.
func (s *Server) handleRejectTask(c *gin.Context) {
	var req rejectTaskRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.respondError(c, apperr.BadRequest("invalid request body"))
			return
		}
	}

	claims := currentClaims(c)
	task, err := s.tasks.RejectTask(c.Request.Context(), c.Param("id"), claims.UserID, req.Reason)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleDeleteTask removes a task and its notifications.
func (s *Server) handleDeleteTask(c *gin.Context) {
	claims := currentClaims(c)
	if err := s.tasks.DeleteTask(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// parseDueDate accepts RFC 3339 timestamps or bare dates.
func parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, *raw); err == nil {
			return &t, nil
		}
	}
	return nil, apperr.BadRequest("invalid due date %q", *raw)
}
