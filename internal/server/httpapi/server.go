// Package httpapi exposes the babypal REST API over gin.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/babypal/internal/logging"
	"github.com/dmitrijs2005/babypal/internal/server/access"
	"github.com/dmitrijs2005/babypal/internal/server/metrics"
	"github.com/dmitrijs2005/babypal/internal/server/oauth"
	"github.com/dmitrijs2005/babypal/internal/server/services"
	"github.com/gin-gonic/gin"
)

// Services are the business operations behind the routes.
type Services struct {
	Users        *services.UserService
	Admin        *services.AdminService
	Babies       *services.BabyService
	Measurements *services.MeasurementService
	Records      *services.RecordService
	GrowthGuides *services.GrowthGuideService
}

// Options configures the router. Metrics, OAuth and Health may be nil.
type Options struct {
	GinMode     string
	FrontendURL string
	Access      *access.Evaluator
	Metrics     *metrics.Metrics
	OAuth       *oauth.Manager
	Health      func(ctx context.Context) error
}

type Server struct {
	address string
	engine  *gin.Engine
	logger  logging.Logger
}

func NewServer(address string, l logging.Logger, svc Services, opts Options) *Server {
	if opts.GinMode != "" {
		gin.SetMode(opts.GinMode)
	}
	if opts.Access == nil {
		opts.Access = access.NewEvaluator()
	}

	logger := l.With("module", "http_server")
	h := &handler{svc: svc, opts: opts, logger: logger}

	return &Server{
		address: address,
		engine:  h.routes(),
		logger:  logger,
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
