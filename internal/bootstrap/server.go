package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	httpSwagger "github.com/swaggo/http-swagger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/Domenick1991/flightbot/api"
	"github.com/Domenick1991/flightbot/config"
	"github.com/Domenick1991/flightbot/internal/service/flights"
)

const trackerService = "flightbot.Tracker"

// Tracker is the registry as seen by the servers.
type Tracker interface {
	api.Tracker
	Running() bool
}

type Deps struct {
	Tracker  Tracker
	Flights  flights.FlightUseCase
	Gatherer prometheus.Gatherer
	Location *time.Location
}

type Servers struct {
	grpcServer *grpc.Server
	httpServer *http.Server
	health     *health.Server
	tracker    Tracker
}

// Run starts gRPC (health) and HTTP (API, metrics, swagger) servers and
// blocks until context is canceled or a server fails.
func Run(ctx context.Context, cfg *config.Config, deps Deps) error {
	s := newServers(cfg, deps)
	logger := log.With().Str("section", "server").Logger()

	errCh := make(chan error, 2)

	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
	}
	go func() { errCh <- s.grpcServer.Serve(lis) }()
	logger.Info().Str("address", cfg.GRPC.Address).Msg("gRPC health server listening")

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Info().Str("address", cfg.HTTP.Address).Msg("HTTP server listening")

	go s.watchHealth(ctx, time.Second)

	select {
	case err := <-errCh:
		s.grpcServer.Stop()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		logger.Info().Msg("servers stopped")
		return nil
	}
}

func newServers(cfg *config.Config, deps Deps) *Servers {
	grpcSrv := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: newRouter(cfg, deps),
	}

	s := &Servers{
		grpcServer: grpcSrv,
		httpServer: httpSrv,
		health:     healthSrv,
		tracker:    deps.Tracker,
	}
	s.updateHealth()
	return s
}

func newRouter(cfg *config.Config, deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log.With().Str("section", "http").Logger()))

	api.NewTrackerHandler(deps.Tracker).Register(&router.RouterGroup)
	if deps.Flights != nil {
		api.NewFlightHandler(deps.Flights, deps.Location).Register(router.Group("/flights"))
	}

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	router.GET("/healthz", func(c *gin.Context) {
		if !deps.Tracker.Running() {
			c.String(http.StatusServiceUnavailable, "tracker stopped")
			return
		}
		c.String(http.StatusOK, "Healthy")
	})

	if cfg.HTTP.SwaggerDir != "" {
		router.Static("/swagger", cfg.HTTP.SwaggerDir)
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/tracker.swagger.json"))))
	}

	return router
}

func (s *Servers) updateHealth() {
	status := healthpb.HealthCheckResponse_SERVING
	if !s.tracker.Running() {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(trackerService, status)
}

// watchHealth mirrors the tracker loop state into the gRPC health service.
func (s *Servers) watchHealth(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.updateHealth()
		}
	}
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}
