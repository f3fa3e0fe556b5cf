// Package cli wires the portal's commands: the HTTP server and store
// maintenance.
package cli

import (
	"context"
	"fmt"

	"github.com/lanebid/drayage-portal/internal/config"
	"github.com/lanebid/drayage-portal/internal/infra/catalog"
	"github.com/lanebid/drayage-portal/internal/infra/docstore"
	"github.com/lanebid/drayage-portal/internal/infra/kv"
	"github.com/lanebid/drayage-portal/internal/infra/observability"
	"github.com/lanebid/drayage-portal/internal/infra/resilience"
	"github.com/lanebid/drayage-portal/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
}

// NewRootCommand creates the root command for the portal binary.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "portal",
		Short: "Drayage bid portal",
		Long: `Drayage bid portal: vendors quote rates on origin to destination lanes
and administrators manage lanes, vendors and bids.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "path to a YAML config file (default ./portal.yaml if present)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))

	return cmd
}

// runtime is what every command needs: config, logger, metrics and an open
// store.
type runtime struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *observability.Metrics
	catalog *catalog.Catalog
	store   *docstore.Store
}

func (rt *runtime) close() {
	if err := rt.store.Close(); err != nil {
		rt.logger.Warn("close store", zap.Error(err))
	}
	_ = rt.logger.Sync()
}

func openRuntime(ctx context.Context, opts *RootOptions) (*runtime, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger(cfg.LogLevel)
	metrics := observability.NewMetrics()

	cat, err := catalog.Default()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	backend, err := kv.Open(ctx, kv.Options{
		Backend:    cfg.StoreBackend,
		SQLitePath: cfg.SQLitePath,
		Redis: kv.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		Mongo: kv.MongoOptions{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDatabase,
		},
		Resilience: resilienceConfig(cfg),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.StoreBackend, err)
	}

	store, err := docstore.Open(ctx, backend, docstore.Options{
		Key:     cfg.StoreKey,
		Seed:    docstore.DemoSeed(cat, service.HashPassword(cfg.BcryptCost)),
		Metrics: metrics,
		Logger:  logger,
	})
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &runtime{cfg: cfg, logger: logger, metrics: metrics, catalog: cat, store: store}, nil
}

func resilienceConfig(cfg *config.Config) resilience.Config {
	return resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
}
