// Package api exposes crawl status, stored records and run triggers over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/jonesrussell/newsroom-crawler/internal/domain"
	"github.com/jonesrussell/newsroom-crawler/internal/logger"
	"github.com/jonesrussell/newsroom-crawler/internal/metrics"
	"github.com/jonesrussell/newsroom-crawler/internal/orchestrator"
)

const serviceName = "newsroom-crawler"

// Config configures the HTTP server. Zero durations and an empty address
// take the defaults below.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Debug           bool
	Version         string
	// JWTSecret, when set, requires a bearer token on run triggers.
	JWTSecret string
}

func (c Config) withDefaults() Config {
	if c.Address == "" {
		c.Address = ":8060"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
	if c.Version == "" {
		c.Version = "dev"
	}
	return c
}

// RecordSource lists stored records.
type RecordSource interface {
	Records() []domain.ArticleRecord
}

// RunTrigger starts runs in the background.
type RunTrigger interface {
	Trigger(ctx context.Context) error
	Busy() bool
}

// SummarySource reports the most recent run.
type SummarySource interface {
	LastSummary() (orchestrator.Summary, bool)
}

// Deps holds the server's collaborators. Metrics is optional.
type Deps struct {
	Records   RecordSource
	Runs      RunTrigger
	Summaries SummarySource
	Metrics   *metrics.Metrics
}

// Server is the status API.
type Server struct {
	cfg     Config
	log     logger.Logger
	deps    Deps
	router  *gin.Engine
	server  *http.Server
	started time.Time
	baseCtx context.Context
}

// NewServer builds the router and the underlying http.Server. A nil log
// discards request logs.
func NewServer(cfg Config, log logger.Logger, deps Deps) *Server {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logger.NewNop()
	}

	mode := gin.ReleaseMode
	if cfg.Debug {
		mode = gin.DebugMode
	}
	gin.SetMode(mode)

	s := &Server{
		cfg:     cfg,
		log:     log,
		deps:    deps,
		started: time.Now(),
		baseCtx: context.Background(),
	}

	s.router = gin.New()
	s.router.Use(requestScope(log), accessLog(), recovery())
	s.setupRoutes(s.router)

	s.server = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled and then drains in-flight requests for
// at most ShutdownTimeout. Runs triggered over HTTP inherit ctx.
func (s *Server) Run(ctx context.Context) error {
	s.baseCtx = ctx

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("HTTP server listening", logger.String("address", s.cfg.Address))
		if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", s.cfg.Address, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		s.log.Info("HTTP server stopped")
		return nil
	})
	return g.Wait()
}
