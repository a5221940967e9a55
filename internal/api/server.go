// Package api exposes the chat sessions, health score, payslips and ledger over JSON HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Veraticus/cashmind/internal/chat"
	"github.com/Veraticus/cashmind/internal/common"
	"github.com/Veraticus/cashmind/internal/health"
	"github.com/Veraticus/cashmind/internal/model"
	"github.com/Veraticus/cashmind/internal/payslip"
	"github.com/Veraticus/cashmind/internal/service"
)

// Config holds HTTP server settings.
type Config struct {
	Addr            string        `mapstructure:"addr"`
	AllowOrigins    []string      `mapstructure:"allow_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadSize   int64         `mapstructure:"max_upload_size"`
}

// DefaultConfig listens on localhost:8080 and accepts a local frontend.
func DefaultConfig() Config {
	return Config{
		Addr:            "127.0.0.1:8080",
		AllowOrigins:    []string{"http://localhost:3000"},
		ShutdownTimeout: 10 * time.Second,
		MaxUploadSize:   10 << 20,
	}
}

// HealthService is the part of health.Service the API serves.
type HealthService interface {
	Evaluate(ctx context.Context) (health.Result, error)
	History(ctx context.Context, months int) ([]model.HealthSnapshot, error)
	Advice(ctx context.Context, refresh bool) (string, error)
}

// PayslipService is the part of payslip.Service the API serves.
type PayslipService interface {
	Import(ctx context.Context, doc payslip.Document, recordIncome bool) (*model.Payslip, error)
	List(ctx context.Context) ([]model.Payslip, error)
	Get(ctx context.Context, id int64) (*model.Payslip, error)
	Delete(ctx context.Context, id int64) error
}

// Server routes HTTP requests to the chat registry, health service and storage.
type Server struct {
	storage  service.Storage
	sessions *chat.Registry
	health   HealthService
	payslips PayslipService
	logger   *slog.Logger
	engine   *gin.Engine
	now      func() time.Time
	cfg      Config
}

// NewServer builds the router. Call Run to serve it.
// A nil payslips service makes the payslip routes answer 503.
func NewServer(cfg Config, storage service.Storage, sessions *chat.Registry, healthSvc HealthService, payslips PayslipService, logger *slog.Logger) *Server {
	defaults := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = defaults.Addr
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = defaults.MaxUploadSize
	}

	s := &Server{
		storage:  storage,
		sessions: sessions,
		health:   healthSvc,
		payslips: payslips,
		logger:   common.ComponentLogger(logger, "api"),
		now:      time.Now,
		cfg:      cfg,
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.MaxMultipartMemory = s.cfg.MaxUploadSize

	if len(s.cfg.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  s.cfg.AllowOrigins,
			AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length", "Accept"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	sessions := api.Group("/chat/sessions")
	sessions.POST("", s.createSession)
	sessions.GET("/:id", s.getSession)
	sessions.DELETE("/:id", s.deleteSession)
	sessions.POST("/:id/messages", s.sendMessage)
	sessions.POST("/:id/receipt", s.uploadReceipt)
	sessions.POST("/:id/flow", s.startFlow)
	sessions.POST("/:id/confirm", s.confirm)
	sessions.POST("/:id/cancel", s.cancel)
	sessions.POST("/:id/reset", s.reset)

	api.GET("/health-score", s.getHealthScore)
	api.GET("/health-score/history", s.getHealthHistory)
	api.GET("/health-score/advice", s.getAdvice)
	api.POST("/health-score/advice", s.refreshAdvice)

	api.GET("/transactions", s.listTransactions)
	api.POST("/transactions", s.createTransaction)
	api.DELETE("/transactions/:id", s.deleteTransaction)

	api.GET("/budgets", s.listBudgets)
	api.POST("/budgets", s.createBudget)
	api.DELETE("/budgets/:id", s.deleteBudget)

	api.GET("/goals", s.listGoals)
	api.POST("/goals", s.createGoal)
	api.POST("/goals/:id/contribute", s.contributeGoal)

	api.GET("/categories", s.listCategories)

	api.GET("/payslips", s.listPayslips)
	api.POST("/payslips", s.uploadPayslip)
	api.GET("/payslips/:id", s.getPayslip)
	api.DELETE("/payslips/:id", s.deletePayslip)

	return r
}

// Handler returns the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelDebug
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		s.logger.Log(c.Request.Context(), level, "Request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// statusFor maps sentinel errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrBusy), errors.Is(err, common.ErrNoPendingAction), errors.Is(err, common.ErrDuplicateEntry):
		return http.StatusConflict
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrMissingConfig):
		return http.StatusServiceUnavailable
	case errors.Is(err, common.ErrDataSource):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the error. Server errors are logged and their detail hidden.
func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()

	var userErr *common.UserError
	if errors.As(err, &userErr) {
		message = userErr.UserMessage
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "path", c.FullPath(), "error", err)
		if userErr == nil {
			message = http.StatusText(status)
		}
	}
	c.JSON(status, gin.H{"error": message})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}
