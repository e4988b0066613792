// Package http serves the reviewer inbox, request forms, template editor and
// HR roster over gin. Handlers translate requests into application service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/signage-ops/internal/application/port"
	"github.com/garyjia/signage-ops/internal/application/service"
	"github.com/garyjia/signage-ops/internal/i18n"
	"github.com/garyjia/signage-ops/internal/infrastructure/metrics"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Mode         string // gin mode: debug, release or test
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Mode:         gin.ReleaseMode,
	}
}

// Dependencies are the application components the routes call into.
// Metrics and Health may be nil.
type Dependencies struct {
	Approvals  service.ApprovalService
	Forms      service.FormService
	HR         service.HRService
	Templates  TemplateCatalog
	Editor     NodeEditor
	Contracts  port.ContractLedger
	Payouts    port.PayoutQueue
	Exporter   WorkbookExporter
	Translator *i18n.Translator
	Metrics    metrics.Metrics
	Health     HealthReporter
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	deps       Dependencies
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, deps Dependencies, logger Logger) *Server {
	if config.Mode == "" {
		config.Mode = gin.ReleaseMode
	}
	gin.SetMode(config.Mode)

	server := &Server{
		config: config,
		router: gin.New(),
		deps:   deps,
		logger: logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	if s.deps.Metrics != nil {
		s.router.Use(metricsMiddleware(s.deps.Metrics))
	}
	s.router.Use(localeMiddleware(s.deps.Translator))
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

func (s *Server) setupRoutes() {
	h := NewHandlers(s.deps, s.logger)

	s.router.GET("/health", h.HealthCheck)
	if s.deps.Metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.deps.Metrics.ServePrometheus()))
	}

	api := s.router.Group("/api")
	{
		approvals := api.Group("/approvals")
		approvals.GET("", h.ListApprovals)
		approvals.POST("", h.SubmitApproval)
		approvals.GET("/pending", h.ListPending)
		approvals.GET("/stats", h.Stats)
		approvals.GET("/export", h.ExportWorkbook)
		approvals.GET("/:id", h.GetApproval)
		approvals.GET("/:id/history", h.GetHistory)
		approvals.POST("/:id/decision", h.Decide)

		forms := api.Group("/forms")
		forms.POST("/advance", h.SubmitAdvance)
		forms.GET("/advance/totals", h.AdvanceTotals)
		forms.POST("/leave", h.SubmitLeave)
		forms.POST("/expense", h.SubmitExpense)
		forms.POST("/remittance", h.SubmitRemittance)
		forms.POST("/payout", h.SubmitPayout)

		templates := api.Group("/templates")
		templates.GET("", h.ListTemplates)
		templates.GET("/:id", h.GetTemplate)
		templates.POST("/:id/nodes", h.InsertNode)
		templates.PATCH("/:id/nodes/:nodeId", h.UpdateNode)
		templates.DELETE("/:id/nodes/:nodeId", h.RemoveNode)
		templates.GET("/:id/editing", h.EditingNode)
		templates.PUT("/:id/editing", h.OpenNode)
		templates.DELETE("/:id/editing", h.CloseNode)

		api.GET("/contracts", h.ListContracts)
		api.GET("/contracts/:id", h.GetContract)

		api.GET("/payouts/pending", h.ListPendingPayouts)
		api.GET("/payouts/history", h.ListPayoutHistory)

		staff := api.Group("/staff")
		staff.GET("", h.ListStaff)
		staff.POST("", h.Onboard)
		staff.GET("/:id", h.GetEmployee)
		staff.POST("/:id/offboard", h.Offboard)
		staff.POST("/:id/reinstate", h.Reinstate)
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

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
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
