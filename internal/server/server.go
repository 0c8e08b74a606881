package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aiplsaur/APIMongoDB/internal/config"
	"github.com/aiplsaur/APIMongoDB/internal/database"
	"github.com/aiplsaur/APIMongoDB/internal/handler"
	"github.com/aiplsaur/APIMongoDB/internal/jobs"
	"github.com/aiplsaur/APIMongoDB/internal/middleware"
	"github.com/aiplsaur/APIMongoDB/internal/model"
	"github.com/aiplsaur/APIMongoDB/internal/repository"
	"github.com/aiplsaur/APIMongoDB/internal/service"
)

// Server owns the connection manager, the background jobs and the HTTP
// handler built from one Config.
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	manager *database.Manager
	handler http.Handler

	monitor     *jobs.HealthMonitor
	events      *service.EventHub
	limiter     *middleware.RateLimiter
	idempotency *middleware.IdempotencyStore

	closeOnce sync.Once
	closeErr  error
}

// New wires every layer from cfg. It neither connects nor listens.
func New(cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{cfg: cfg, logger: logger}

	s.manager = database.NewManager(database.ManagerConfig{
		ConnectTimeout: cfg.Database.ConnectTimeout,
		Logger:         logger,
	})

	s.events = service.NewEventHub(service.EventHubConfig{})

	// Health monitor reports lastPing on the status endpoint
	var pings service.PingReporter
	if cfg.Health.Interval > 0 {
		s.monitor = jobs.NewHealthMonitor(jobs.HealthMonitorConfig{
			Handles:  s.manager,
			Interval: cfg.Health.Interval,
			Logger:   logger,
			OnTransition: func(p model.PingResult) {
				s.events.Publish(&service.Event{Type: service.EventHealth, Data: p})
			},
		})
		pings = s.monitor
	}

	savedRepo := repository.NewSavedQueryRepository(s.manager, cfg.Database.SavedQueriesCollection)

	routes := handler.RouterConfig{
		Connections: service.NewConnectionService(service.ConnectionServiceConfig{
			Manager: s.manager,
			Pings:   pings,
			Events:  s.events,
		}),
		Collections: service.NewCollectionService(service.CollectionServiceConfig{Handles: s.manager}),
		Documents: service.NewDocumentService(service.DocumentServiceConfig{
			Handles:      s.manager,
			DefaultLimit: cfg.Documents.DefaultLimit,
			MaxLimit:     cfg.Documents.MaxLimit,
		}),
		Queries: service.NewQueryService(service.QueryServiceConfig{
			Handles:    s.manager,
			SavedRepo:  savedRepo,
			MaxResults: cfg.Query.MaxResults,
		}),
		Checker:        s.manager,
		Events:         s.events,
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}

	if cfg.RateLimit.Enabled {
		s.limiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			RPS:   cfg.RateLimit.RPS,
			Burst: cfg.RateLimit.Burst,
		})
		routes.RateLimiter = s.limiter
	}
	if cfg.AuthEnabled() {
		routes.Auth = &middleware.BasicAuthConfig{
			Username:     cfg.Auth.Username,
			PasswordHash: cfg.Auth.PasswordHash,
		}
	}
	if cfg.Idempotency.TTL > 0 {
		s.idempotency = middleware.NewIdempotencyStore(middleware.IdempotencyConfig{TTL: cfg.Idempotency.TTL})
		routes.Idempotency = s.idempotency
	}

	s.handler = handler.NewRouter(routes)
	return s
}

// Handler returns the HTTP handler serving the API
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Manager returns the connection manager
func (s *Server) Manager() *database.Manager {
	return s.manager
}

// Monitor returns the health monitor, or nil when health.interval is 0
func (s *Server) Monitor() *jobs.HealthMonitor {
	return s.monitor
}

// Serve listens on the configured address and blocks until ctx is
// cancelled or the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener is Serve on an existing listener. The connection manager and
// background jobs are shut down before it returns.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	defer func() {
		if err := s.Close(context.Background()); err != nil {
			s.logger.Warn("closing database connection failed", slog.String("error", err.Error()))
		}
	}()

	if uri := s.cfg.Database.URI; uri != "" {
		// A failed startup connect leaves the API up and disconnected.
		if err := s.manager.Connect(ctx, uri); err != nil {
			s.logger.Warn("startup connect failed, continuing disconnected",
				slog.String("target", database.Redact(uri)),
				slog.String("error", err.Error()),
			)
		}
	}
	if s.monitor != nil {
		s.monitor.Start()
	}

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
	}

	eg.Go(func() error {
		s.logger.Info("starting server",
			slog.String("addr", ln.Addr().String()),
			slog.String("env", s.cfg.Server.Env),
		)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		s.logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	err := eg.Wait()
	s.logger.Info("server exited")
	return err
}

// Close stops the background jobs and closes the live handle. Only the
// first call does any work.
func (s *Server) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		if s.monitor != nil {
			s.monitor.Stop()
		}
		if s.limiter != nil {
			s.limiter.Stop()
		}
		if s.idempotency != nil {
			s.idempotency.Stop()
		}
		s.events.Close()
		s.closeErr = s.manager.Close(ctx)
	})
	return s.closeErr
}
