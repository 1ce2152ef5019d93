// Package http exposes every dashboard screen as JSON endpoints. Each caller
// opens a session and drives its own set of screen controllers.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/garyjia/expense-admin/internal/config"
	"github.com/garyjia/expense-admin/internal/container"
	"github.com/garyjia/expense-admin/internal/domain/workflow"
	"github.com/garyjia/expense-admin/internal/export"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Backend is what the handlers need from the composition root
type Backend interface {
	NewSession(token string, actor workflow.Actor) (*container.Session, error)
	Session(id string) (*container.Session, bool)
	CloseSession(id string)
	Exporter() *export.ExcelWriter
	Health() *container.HealthStatus
}

// Server is the HTTP server adapter
type Server struct {
	config     config.ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	backend    Backend
	logger     Logger
}

// NewServer creates a new HTTP server over the backend's sessions
func NewServer(cfg config.ServerConfig, backend Backend, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	// form values keep their literal number text
	binding.EnableDecoderUseNumber = true

	server := &Server{
		config:  cfg,
		router:  gin.New(),
		backend: backend,
		logger:  logger,
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup routes
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.router.Use(gin.Recovery())

	// Logging middleware
	s.router.Use(s.loggingMiddleware())

	// CORS for the browser dashboard
	s.router.Use(corsMiddleware())
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+SessionHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		// Process request
		c.Next()

		// Log request details
		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
			"session_id", c.GetString(sessionKey),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := NewHandlers(s.backend, s.logger)

	// Health check
	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api")
	api.POST("/sessions", h.OpenSession)

	scoped := api.Group("", h.requireSession)
	{
		scoped.DELETE("/sessions/current", h.CloseSession)
		scoped.GET("/notices", h.Notices)

		// List-of-values admin
		lov := scoped.Group("/lov")
		lov.GET("/menu", h.LOVMenu)
		lov.POST("/select", h.LOVSelect)
		lov.GET("/state", h.LOVState)
		lov.GET("/table", h.LOVTable)
		lov.POST("/refresh", h.LOVRefresh)
		lov.POST("/records", h.LOVCreate)
		lov.PUT("/records/:id", h.LOVUpdate)
		lov.DELETE("/records/:id", h.LOVRemove)
		lov.POST("/modal", h.LOVOpenModal)
		lov.DELETE("/modal", h.LOVCloseModal)
		lov.POST("/modal/submit", h.LOVSubmit)
		lov.GET("/export", h.LOVExport)

		// Expense approval
		exp := scoped.Group("/expenses")
		exp.POST("/:id/load", h.ExpenseLoad)
		exp.GET("/current", h.ExpenseState)
		exp.PUT("/current/note", h.ExpenseNote)
		exp.POST("/current/send", h.ExpenseSend)
		exp.POST("/current/complete", h.ExpenseComplete)
		exp.GET("/current/export", h.ExpenseExport)

		// Expense history
		hist := scoped.Group("/history")
		hist.POST("/dropdowns", h.HistoryDropdowns)
		hist.GET("/state", h.HistoryState)
		hist.PUT("/filter", h.HistoryFilter)
		hist.DELETE("/filter", h.HistoryResetFilter)
		hist.GET("", h.HistorySearch)
		hist.GET("/export", h.HistoryExport)

		// User management
		usr := scoped.Group("/users")
		usr.POST("/reference", h.UsersReference)
		usr.GET("/state", h.UsersState)
		usr.GET("/offices/:governorateId", h.UsersOffices)
		usr.POST("/search", h.UsersSearch)
		usr.DELETE("/search", h.UsersResetSearch)
		usr.POST("", h.UsersRegister)
		usr.PUT("/:userId", h.UsersUpdate)

		// Attendance report
		att := scoped.Group("/attendance")
		att.GET("/governorates", h.AttendanceGovernorates)
		att.POST("/unavailable", h.AttendanceUnavailable)
		att.POST("/unavailable/export", h.AttendanceExport)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := s.config.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return s.config.Address()
}
