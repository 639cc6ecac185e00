package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/auth"
	"taskboard/internal/storage/sqlite"
)

// Server provides the HTTP handlers for the task board backend.
type Server struct {
	engine    *gin.Engine
	store     *sqlite.Store
	sessions  *auth.Service
	logger    *slog.Logger
	staticDir string
}

// New constructs the HTTP server with routes and middleware configured.
func New(store *sqlite.Store, sessions *auth.Service, logger *slog.Logger, staticDir string) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api"))

	srv := &Server{
		engine:    router,
		store:     store,
		sessions:  sessions,
		logger:    logger,
		staticDir: staticDir,
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
	requireAuth := s.sessions.Middleware()

	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		api.POST("/auth/register", s.handleRegister)
		api.POST("/auth/login", s.handleLogin)

		// Reading tasks is public; every mutation requires a session.
		api.GET("/tasks", s.handleListTasks)
		api.POST("/tasks", requireAuth, s.handleCreateTask)
		api.GET("/tasks/:id", s.handleGetTask)
		// gin's router cannot hold /tasks/bulk next to /tasks/:id, so
		// the bulk endpoints dispatch on the path parameter.
		api.PUT("/tasks/:id", requireAuth, s.putTask)
		api.DELETE("/tasks/:id", requireAuth, s.deleteTask)

		tags := api.Group("/tags", requireAuth)
		{
			tags.GET("", s.handleListTags)
			tags.POST("", s.handleCreateTag)
			tags.PUT(":id", s.handleUpdateTag)
			tags.DELETE(":id", s.handleDeleteTag)
		}

		profile := api.Group("/profile", requireAuth)
		{
			profile.GET("", s.handleGetProfile)
			profile.PUT("", s.handleUpdateProfile)
		}
	}

	s.mountStatic()
}

func (s *Server) putTask(c *gin.Context) {
	if c.Param("id") == "bulk" {
		s.handleBulkUpdateTasks(c)
		return
	}
	s.handleUpdateTask(c)
}

func (s *Server) deleteTask(c *gin.Context) {
	if c.Param("id") == "bulk" {
		s.handleBulkDeleteTasks(c)
		return
	}
	s.handleDeleteTask(c)
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondValidation rejects malformed input before any business logic runs.
func respondValidation(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// respondInternal logs the failure with detail and returns only a generic
// message. Earlier revisions leaked internals to clients; the body stays
// opaque on purpose.
func (s *Server) respondInternal(c *gin.Context, err error) {
	s.logger.Error("request failed",
		slog.String("method", c.Request.Method),
		slog.String("path", c.FullPath()),
		slog.String("error", err.Error()))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// respondStoreError maps the store's sentinel errors onto HTTP statuses.
// resource names the record kind for the client-facing message.
func (s *Server) respondStoreError(c *gin.Context, err error, resource string) {
	switch {
	case errors.Is(err, sqlite.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": resource + " not found"})
	case errors.Is(err, sqlite.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": resource + " already exists"})
	default:
		s.respondInternal(c, err)
	}
}
