package kv

import (
	"context"
	"fmt"

	"github.com/lanebid/drayage-portal/internal/infra/resilience"
	"github.com/lanebid/drayage-portal/internal/port"

	"go.uber.org/zap"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Options selects and configures a backend.
type Options struct {
	Backend    string
	SQLitePath string
	Redis      RedisOptions
	Mongo      MongoOptions
	Resilience resilience.Config
}

// Open connects the configured backend.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (port.KV, error) {
	switch opts.Backend {
	case "", BackendMemory:
		logger.Warn("using in-memory store: data is lost on restart")
		return NewMemory(), nil
	case BackendSQLite:
		logger.Info("using sqlite store", zap.String("path", opts.SQLitePath))
		return OpenSQLite(opts.SQLitePath)
	case BackendRedis:
		return NewRedis(ctx, opts.Redis, opts.Resilience, logger)
	case BackendMongo:
		return NewMongo(ctx, opts.Mongo, opts.Resilience, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
