package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/lanebid/drayage-portal/internal/handler"
	"github.com/lanebid/drayage-portal/internal/infra/cache"
	"github.com/lanebid/drayage-portal/internal/infra/notify"
	"github.com/lanebid/drayage-portal/internal/infra/objectstore"
	"github.com/lanebid/drayage-portal/internal/infra/observability"
	"github.com/lanebid/drayage-portal/internal/infra/ratelimit"
	"github.com/lanebid/drayage-portal/internal/port"
	"github.com/lanebid/drayage-portal/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	shutdownTimeout    = 15 * time.Second
	limiterSweepPeriod = time.Minute
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var listenPort int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts, listenPort)
		},
	}

	cmd.Flags().IntVarP(&listenPort, "port", "p", 0, "listen port (overrides config)")
	return cmd
}

func runServe(ctx context.Context, opts *RootOptions, portOverride int) error {
	rt, err := openRuntime(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.close()

	cfg, logger := rt.cfg, rt.logger
	if portOverride > 0 {
		cfg.Port = portOverride
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("store_backend", cfg.StoreBackend),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.Duration("confirmation_ttl", cfg.ConfirmationTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Bool("exports_enabled", cfg.ExportsEnabled()),
	)

	// --- Tracing ---
	shutdownTracer, err := observability.InitTracer(ctx, cfg.OTLPEndpoint, "drayage-portal")
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	if seeded, err := rt.store.SeedIfEmpty(ctx); err != nil {
		return fmt.Errorf("seed store: %w", err)
	} else if seeded {
		logger.Info("store seeded with demo data")
	}

	// --- Live updates ---
	hub := notify.NewHub(0, cfg.CORSAllowedOrigins, rt.metrics, logger)
	defer hub.Close()

	// --- Services ---
	codes := cache.New[string](cfg.ConfirmationTTL)
	defer codes.Close()

	authSvc := service.NewAuthService(rt.store, codes, service.AuthOptions{
		JWTSecret:  cfg.JWTSecret,
		AccessTTL:  cfg.JWTAccessTTL,
		BcryptCost: cfg.BcryptCost,
	}, rt.metrics, logger)
	laneSvc := service.NewLaneService(rt.store, rt.catalog, hub, rt.metrics, logger)
	querySvc := service.NewQueryService(rt.store, rt.catalog, logger)

	var objects port.ObjectStore
	if cfg.ExportsEnabled() {
		s3Store, err := objectstore.NewS3(ctx, objectstore.S3Options{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Endpoint:        cfg.S3Endpoint,
		}, resilienceConfig(cfg), logger)
		if err != nil {
			return fmt.Errorf("init s3: %w", err)
		}
		objects = s3Store
		logger.Info("export uploads enabled", zap.String("bucket", cfg.S3Bucket))
	} else {
		logger.Warn("export uploads disabled: s3_bucket not configured")
	}
	exportSvc := service.NewExportService(rt.store, objects, cfg.ExportPrefix, rt.metrics, logger)

	// --- Rate limiting ---
	limiter := ratelimit.New(cfg.AuthRateLimit, cfg.AuthRateBurst, logger)
	go sweepLimiter(ctx, limiter)

	// --- Router ---
	router := handler.NewRouter(handler.Deps{
		Lane:        laneSvc,
		Query:       querySvc,
		Auth:        authSvc,
		Export:      exportSvc,
		Catalog:     rt.catalog,
		Store:       rt.store,
		Hub:         hub,
		Limiter:     limiter,
		Metrics:     rt.metrics,
		CORSOrigins: cfg.CORSAllowedOrigins,
		Logger:      logger,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// --- Graceful shutdown ---
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func sweepLimiter(ctx context.Context, limiter *ratelimit.Limiter) {
	ticker := time.NewTicker(limiterSweepPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Sweep()
		}
	}
}
