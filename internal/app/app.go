// Package app wires configuration, storage, gateways and the HTTP server
// into a running admin service.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/pasteleriaruby/catalog-admin/internal/api"
	"github.com/pasteleriaruby/catalog-admin/internal/domain/auth"
	"github.com/pasteleriaruby/catalog-admin/internal/domain/catalog"
	"github.com/pasteleriaruby/catalog-admin/internal/gateway/cloudinary"
	"github.com/pasteleriaruby/catalog-admin/internal/gateway/identity"
	"github.com/pasteleriaruby/catalog-admin/internal/storage/postgres"
	"github.com/pasteleriaruby/catalog-admin/pkg/health"
	"github.com/pasteleriaruby/catalog-admin/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health probes.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.DatabaseCheck(pool))
	healthSvc.AddReadinessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.SetReady(true)

	// Catalog core over its two gateways.
	store := postgres.NewCatalogStore(pool, cfg.StoreTimeout)
	uploader := cloudinary.New(cloudinary.Config{
		CloudName:    cfg.Cloudinary.CloudName,
		UploadPreset: cfg.Cloudinary.UploadPreset,
		BaseURL:      cfg.Cloudinary.BaseURL,
		Timeout:      cfg.Cloudinary.Timeout,
		DemoMode:     cfg.Cloudinary.DemoMode,
	})
	synchronizer := catalog.NewSynchronizer(store, uploader)
	view := catalog.NewView()

	// Access control. A disabled identity boundary leaves every route open,
	// for local development and the integration harness only.
	var authSvc *auth.Service
	if cfg.Identity.Disabled {
		lg.Warn("Authentication is disabled")
	} else {
		ident := identity.New(identity.Config{
			APIKey:  cfg.Identity.APIKey,
			BaseURL: cfg.Identity.BaseURL,
			Timeout: cfg.Identity.Timeout,
		})
		authSvc = auth.NewService(ident, cfg.AdminEmail)
	}

	// Router: probes outside the API group.
	router := chi.NewRouter()
	router.Get("/livez", healthSvc.LiveEndpoint)
	router.Get("/readyz", healthSvc.ReadyEndpoint)
	api.NewHandler(synchronizer, view, authSvc).RegisterRoutes(router)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(router,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins: cfg.CORS.Origins,
				AllowHeaders: []string{"Content-Type", "Authorization"},
				MaxAge:       86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("catalog-admin",
				otelhttp.WithTracerProvider(m.TracerProvider()),
				otelhttp.WithMeterProvider(m.MeterProvider()),
			),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: fail readiness, wait for load balancers to drain,
	// then stop the listener.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
