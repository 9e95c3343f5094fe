package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/wolfman30/ayurdiet-portal/internal/api/router"
	"github.com/wolfman30/ayurdiet-portal/internal/app/bootstrap"
	appconfig "github.com/wolfman30/ayurdiet-portal/internal/config"
	"github.com/wolfman30/ayurdiet-portal/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/ayurdiet-portal/internal/http/middleware"
	"github.com/wolfman30/ayurdiet-portal/internal/observability/metrics"
	"github.com/wolfman30/ayurdiet-portal/internal/wizard"
	"github.com/wolfman30/ayurdiet-portal/pkg/logging"
)

func main() {
	// Local development reads .env; deployed environments set variables directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.NewWithWriter(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	logger.Info("starting ayurdiet portal",
		"env", cfg.Env,
		"port", cfg.Port,
		"api_base_url", cfg.APIBaseURL,
	)

	if cfg.SessionSecret == "" {
		logger.Warn("SESSION_SECRET not set; sessions will not survive a restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsHandler, upstream, portalMetrics := setupMetrics(cfg.MetricsEnabled)

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}

	portal, err := bootstrap.BuildPortal(cfg, redisClient, upstream, portalMetrics, logger)
	if err != nil {
		logger.Error("failed to build portal services", "error", err)
		os.Exit(1)
	}

	limiter := httpmiddleware.NewRateLimiter(cfg.LoginRatePerSec, cfg.LoginBurst)
	go limiter.RunEviction(5*time.Minute, ctx.Done())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           buildHandler(cfg, portal, redisClient, limiter, metricsHandler, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Generation through the wizard can outlast the usual write budget.
		WriteTimeout: cfg.APITimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics builds a dedicated registry so /metrics only exposes portal
// series plus the runtime collectors. It returns a nil handler when disabled;
// the metric sets are still usable since their methods are nil-safe.
func setupMetrics(enabled bool) (http.Handler, *metrics.UpstreamMetrics, *metrics.PortalMetrics) {
	if !enabled {
		return nil, nil, nil
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		metrics.NewUpstreamMetrics(reg),
		metrics.NewPortalMetrics(reg)
}

func buildHandler(cfg *appconfig.Config, portal *bootstrap.Portal, redisClient *redis.Client, limiter *httpmiddleware.RateLimiter, metricsHandler http.Handler, logger *logging.Logger) http.Handler {
	checks := map[string]handlers.Pinger{"api": portal.API.Ping}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	r := router.New(&router.Config{
		Logger:             logger,
		Sessions:           portal.Sessions,
		Auth:               handlers.NewAuthHandler(portal.API, portal.Sessions, logger),
		Appointments:       handlers.NewAppointmentsHandler(portal.Appointments, portal.Calendar, portal.API, logger),
		Wizard:             handlers.NewWizardHandler(portal.Wizard, logger),
		WizardSocket:       wizard.NewSocket(portal.Wizard, logger),
		Catalog:            handlers.NewCatalogHandler(portal.Catalog, portal.Board, logger),
		Dashboard:          handlers.NewDashboardHandler(portal.Appointments, portal.Catalog, portal.Board, logger),
		Health:             handlers.NewHealthHandler(checks),
		LoginLimiter:       limiter,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})
	return otelhttp.NewHandler(r, "ayurdiet-portal")
}
