// Package docstore keeps every portal collection in one JSON document stored
// under a single key of a KV backend. Each exposed method is one
// read-modify-persist cycle and is atomic with respect to the other methods
// of the same Store.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lanebid/drayage-portal/internal/domain"
	"github.com/lanebid/drayage-portal/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("infra/docstore")

// DefaultKey is the KV key holding the portal document.
const DefaultKey = "drayage-db"

// Document is the persisted schema.
type Document struct {
	Vendors              []domain.Vendor              `json:"vendors"`
	Routes               []domain.Route               `json:"routes"`
	Bids                 []domain.Bid                 `json:"bids"`
	Statistics           domain.Statistics            `json:"statistics"`
	Accounts             []domain.Account             `json:"accounts"`
	PendingRegistrations []domain.PendingRegistration `json:"pendingRegistrations"`
	Templates            []domain.AccessorialTemplate `json:"templates"`
	Favorites            []domain.Favorite            `json:"favorites"`
}

// SeedFunc builds the initial document.
type SeedFunc func() (*Document, error)

// OpRecorder observes store operation latency.
type OpRecorder interface {
	RecordStoreOp(op string, d time.Duration, err error)
}

// Options configures a Store.
type Options struct {
	Key     string
	Seed    SeedFunc
	Metrics OpRecorder
	Logger  *zap.Logger
}

// Store implements port.Store over a port.KV backend.
type Store struct {
	mu      sync.Mutex
	kv      port.KV
	key     string
	seed    SeedFunc
	metrics OpRecorder
	logger  *zap.Logger
}

var _ port.Store = (*Store)(nil)

// Open verifies the backend and returns a ready Store. Nothing is seeded
// until the first read or an explicit SeedIfEmpty.
func Open(ctx context.Context, backend port.KV, opts Options) (*Store, error) {
	if err := backend.Ping(ctx); err != nil {
		return nil, fmt.Errorf("store backend unavailable: %w", err)
	}
	key := opts.Key
	if key == "" {
		key = DefaultKey
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		kv:      backend,
		key:     key,
		seed:    opts.Seed,
		metrics: opts.Metrics,
		logger:  logger,
	}, nil
}

// ============================================================
// Lifecycle
// ============================================================

// SeedIfEmpty writes the seed document when no valid document exists.
// It reports whether seeding happened.
func (s *Store) SeedIfEmpty(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, seeded, err := s.load(ctx)
	return seeded, err
}

// Reset replaces the document with a fresh seed.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.seedDocument()
	if err != nil {
		return err
	}
	s.logger.Warn("store reset to seed data", zap.String("key", s.key))
	return s.persist(ctx, doc)
}

// Ping checks the backend.
func (s *Store) Ping(ctx context.Context) error {
	return s.kv.Ping(ctx)
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.kv.Close()
}

// ============================================================
// Read-modify-persist helpers
// ============================================================

// view runs fn against a freshly loaded document.
func (s *Store) view(ctx context.Context, op string, fn func(doc *Document) error) (err error) {
	ctx, span := tracer.Start(ctx, "Store."+op)
	defer span.End()
	start := time.Now()
	defer func() { s.record(op, start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, _, err := s.load(ctx)
	if err != nil {
		return err
	}
	return fn(doc)
}

// mutate runs fn and persists the document when fn succeeds.
func (s *Store) mutate(ctx context.Context, op string, fn func(doc *Document) error) (err error) {
	ctx, span := tracer.Start(ctx, "Store."+op)
	defer span.End()
	start := time.Now()
	defer func() { s.record(op, start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, _, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.persist(ctx, doc)
}

func (s *Store) record(op string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.RecordStoreOp(op, time.Since(start), err)
	}
}

// load reads the document, seeding it when missing or unreadable.
// Callers hold s.mu.
func (s *Store) load(ctx context.Context) (*Document, bool, error) {
	raw, err := s.kv.Get(ctx, s.key)
	switch {
	case errors.Is(err, port.ErrKeyNotFound):
		s.logger.Info("store empty, seeding", zap.String("key", s.key))
	case err != nil:
		return nil, false, &domain.ErrExternalService{Service: "store", Err: err}
	default:
		var doc Document
		jsonErr := json.Unmarshal(raw, &doc)
		if jsonErr == nil {
			return &doc, false, nil
		}
		s.logger.Warn("store document corrupt, reseeding",
			zap.String("key", s.key),
			zap.Error(jsonErr),
		)
	}

	doc, err := s.seedDocument()
	if err != nil {
		return nil, false, err
	}
	if err := s.persist(ctx, doc); err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

func (s *Store) seedDocument() (*Document, error) {
	if s.seed == nil {
		return &Document{}, nil
	}
	doc, err := s.seed()
	if err != nil {
		return nil, fmt.Errorf("build seed document: %w", err)
	}
	return doc, nil
}

func (s *Store) persist(ctx context.Context, doc *Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := s.kv.Put(ctx, s.key, raw); err != nil {
		return &domain.ErrExternalService{Service: "store", Err: err}
	}
	return nil
}

func checkVersion(resource, id string, current, expected int) error {
	if expected != 0 && expected != current {
		return &domain.ErrConflict{
			Message: fmt.Sprintf("%s %s was modified concurrently (version %d, expected %d)", resource, id, current, expected),
		}
	}
	return nil
}
