// Package httpapi exposes the planning pipeline and the stored plan over HTTP.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/felixgeelhaar/learnroad/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/learnroad/pkg/application"
)

const (
	serviceName        = "learnroad"
	maxBatchSize       = 20
	defaultConcurrency = 4
)

type Server struct {
	pipeline *application.PipelineService
	plans    *application.PlanService
	enforcer *application.QualityEnforcer
	hub      *Hub
	logger   *slog.Logger
	engine   *gin.Engine
}

func NewServer(services *wiring.AppServices, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		pipeline: services.Pipeline,
		plans:    services.Plan,
		enforcer: application.NewQualityEnforcer(services.Doctrine),
		hub:      NewHub(),
		logger:   logger,
	}
	s.engine = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), otelgin.Middleware(serviceName), s.requestLog())

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	v1 := r.Group("/v1")
	{
		v1.POST("/plans", s.createPlan)
		v1.POST("/plans/batch", s.createPlans)
		v1.POST("/score", s.score)

		v1.GET("/plan", s.getPlan)
		v1.GET("/plan/status", s.status)
		v1.POST("/plan/progress", s.progress)
		v1.POST("/plan/skip", s.skip)
		v1.GET("/plan/mission", s.mission)
		v1.POST("/plan/hint", s.hint)
		v1.GET("/plan/events", s.events)
	}
	return r
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}
