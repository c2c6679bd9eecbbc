package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/empirica-legal/expediente-tracker/internal/api"
	"github.com/empirica-legal/expediente-tracker/internal/cache"
	"github.com/empirica-legal/expediente-tracker/internal/calendar"
	"github.com/empirica-legal/expediente-tracker/internal/checker"
	"github.com/empirica-legal/expediente-tracker/internal/config"
	"github.com/empirica-legal/expediente-tracker/internal/courts"
	"github.com/empirica-legal/expediente-tracker/internal/database"
	"github.com/empirica-legal/expediente-tracker/internal/scheduler"
	"github.com/empirica-legal/expediente-tracker/pkg/logger"
)

type Server struct {
	cfg       *config.Config
	router    *gin.Engine
	logger    *logger.Logger
	scheduler *scheduler.Scheduler
	shutdown  []func() error
}

// New wires the HTTP surface. scheduler and shutdown hooks may be nil.
func New(cfg *config.Config, store *database.Store, cacheService cache.Cache, chk *checker.Checker,
	catalog *courts.Catalog, classifier func() (*calendar.Classifier, error),
	sched *scheduler.Scheduler, log *logger.Logger, shutdown ...func() error) *Server {

	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(log))

	api.SetupRoutes(router, store, cacheService, chk, catalog, classifier, log, cfg)

	return &Server{
		cfg:       cfg,
		router:    router,
		logger:    log,
		scheduler: sched,
		shutdown:  shutdown,
	}
}

func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("Failed to start server", "error", err)
		}
	}()

	s.logger.Info("Server started", "address", srv.Addr)

	if s.scheduler != nil {
		if err := s.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	s.logger.Info("Shutting down server...")

	if s.scheduler != nil {
		s.scheduler.Stop()
	}

	for _, fn := range s.shutdown {
		if err := fn(); err != nil {
			s.logger.Error("Shutdown hook failed", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error("Server forced to shutdown", "error", err)
		return err
	}

	s.logger.Info("Server exited gracefully")
	return nil
}

func loggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			"client_ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", latency.String(),
		)
	}
}
