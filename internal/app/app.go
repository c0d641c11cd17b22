// Package app wires the storefront service together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/tile-storefront/internal/catalog"
	"github.com/xenking/tile-storefront/internal/handler"
	"github.com/xenking/tile-storefront/internal/session"
	"github.com/xenking/tile-storefront/internal/storage/postgres"
	"github.com/xenking/tile-storefront/pkg/health"
	"github.com/xenking/tile-storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		var err error
		if pool, err = postgres.NewPool(ctx, cfg.DatabaseURL); err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}
	}

	products, err := loadCatalog(ctx, cfg, pool)
	if err != nil {
		return errors.Wrap(err, "load catalog")
	}
	lg.Info("Catalog loaded", zap.Int("products", products.Len()))

	healthSvc := health.New(health.Thresholds{})
	healthSvc.Register(health.Liveness, "goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Register(health.Readiness, "catalog", time.Second, func(context.Context) error {
		if products.Len() == 0 {
			return errors.New("catalog is empty")
		}
		return nil
	})
	if pool != nil {
		healthSvc.Register(health.Readiness, "postgres", 5*time.Second, health.PingCheck(pool))
	}

	sessions := session.NewStore(products, session.StoreConfig{
		IdleTimeout: cfg.Sessions.IdleTimeout,
		MaxSessions: cfg.Sessions.MaxSessions,
	})
	limiter := httpmiddleware.NewLimiter(httpmiddleware.RateLimitConfig{
		Max:    cfg.RateLimit.Max,
		Window: cfg.RateLimit.Window,
	})

	h, err := handler.New(products, sessions, m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "create handler")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", h.Routes(limiter.Middleware()))

	api := httpmiddleware.Wrap(mux,
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.RequestID(),
		httpmiddleware.LogRequests(),
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:  cfg.CORS.Origins,
			AllowHeaders:  []string{"Content-Type", httpmiddleware.RequestIDHeader},
			ExposeHeaders: []string{httpmiddleware.RequestIDHeader, "Location", "Retry-After"},
			MaxAge:        86400,
		}),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: otelhttp.NewHandler(api, "storefront",
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return healthSvc.Run(gCtx, 10*time.Second)
	})
	g.Go(func() error {
		return sessions.Run(gCtx, cfg.Sessions.SweepInterval)
	})
	g.Go(func() error {
		return limiter.Run(gCtx)
	})
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	healthSvc.SetReady(true)

	return g.Wait()
}

// loadCatalog pins the catalog for the lifetime of the process: a snapshot of
// the Postgres catalog, a catalog file, or the embedded default.
func loadCatalog(ctx context.Context, cfg *Config, pool *pgxpool.Pool) (*catalog.Catalog, error) {
	switch {
	case pool != nil:
		return catalog.Snapshot(ctx, postgres.NewProductRepository(pool))
	case cfg.CatalogFile != "":
		return catalog.Load(cfg.CatalogFile)
	default:
		return catalog.Default()
	}
}
