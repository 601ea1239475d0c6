package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/apperr"
	"taskboard/internal/auth"
	"taskboard/internal/events"
	"taskboard/internal/service"
	"taskboard/internal/storage/sqlite"
)

// Server provides HTTP handlers for the taskboard backend.
type Server struct {
	engine        *gin.Engine
	store         *sqlite.Store
	tasks         *service.TaskService
	notifications *service.NotificationService
	auth          *auth.Service
	events        *events.Registry
	logger        *slog.Logger
	staticDir     string
}

// New constructs the HTTP server with routes and middleware configured.
func New(store *sqlite.Store, authService *auth.Service, registry *events.Registry, logger *slog.Logger, staticDir string) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api"))

	srv := &Server{
		engine:        router,
		store:         store,
		tasks:         service.NewTaskService(store, registry, logger),
		notifications: service.NewNotificationService(store, logger),
		auth:          authService,
		events:        registry,
		logger:        logger,
		staticDir:     staticDir,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", s.handleRegister)
			authGroup.POST("/login", s.handleLogin)
		}

		// The stream authenticates via query parameter inside the
		// handler; EventSource cannot set request headers.
		api.GET("/events/stream", s.handleEventStream)

		protected := api.Group("")
		protected.Use(s.requireAuth())
		{
			tasks := protected.Group("/tasks")
			{
				tasks.GET("", s.handleListTasks)
				tasks.GET(":id", s.handleGetTask)
				tasks.POST("", s.requireRole(roleAuthor), s.handleCreateTask)
				tasks.PUT(":id", s.handleUpdateTask)
				tasks.DELETE(":id", s.requireRole(roleAuthor), s.handleDeleteTask)
				tasks.POST(":id/start", s.requireRole(roleSolver), s.handleStartTask)
				tasks.POST(":id/complete", s.requireRole(roleSolver), s.handleCompleteTask)
				tasks.POST(":id/approve", s.requireRole(roleAuthor), s.handleApproveTask)
				tasks.POST(":id/reject", s.requireRole(roleAuthor), s.handleRejectTask)
			}

			notifications := protected.Group("/notifications")
			{
				notifications.GET("", s.handleListNotifications)
				notifications.GET("/unread-count", s.handleUnreadCount)
				notifications.PUT(":id/read", s.handleMarkRead)
				notifications.POST("/read-all", s.handleMarkAllRead)
			}

			protected.GET("/users/solvers", s.requireRole(roleAuthor), s.handleListSolvers)
		}
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError logs the error and returns a JSON payload with the
// status derived from the error kind.
func (s *Server) respondError(c *gin.Context, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusForError(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindBadRequest:
		return http.StatusBadRequest
	case apperr.KindAuthentication:
		return http.StatusUnauthorized
	case apperr.KindAuthorization:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
