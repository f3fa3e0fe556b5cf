package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/lanebid/drayage-portal/internal/domain"
	"github.com/lanebid/drayage-portal/internal/infra/catalog"
	"github.com/lanebid/drayage-portal/internal/infra/docstore"
	"github.com/lanebid/drayage-portal/internal/infra/kv"
	"github.com/lanebid/drayage-portal/internal/infra/observability"
	"github.com/lanebid/drayage-portal/internal/service"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// --- Mocks ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// --- Fixtures ---

var (
	admin      = domain.Identity{AccountID: "acct-admin", Email: "admin@gmail.com", Role: domain.RoleAdmin}
	privileged = domain.Identity{AccountID: "acct-v1", Email: "vendor@gmail.com", Role: domain.RoleVendor, VendorID: "v1", CanWhitelistVendors: true}
	plainV2    = domain.Identity{AccountID: "acct-v2", Email: "sarah.j@logistics.com", Role: domain.RoleVendor, VendorID: "v2"}
)

type env struct {
	store   *docstore.Store
	catalog *catalog.Catalog
	events  *recordingPublisher
	metrics *observability.Metrics
	lane    *service.LaneService
	query   *service.QueryService
}

func newEnv(t *testing.T, opts ...service.LaneOption) *env {
	t.Helper()

	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	st, err := docstore.Open(context.Background(), kv.NewMemory(), docstore.Options{
		Seed: docstore.DemoSeed(cat, service.HashPassword(bcrypt.MinCost)),
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	events := &recordingPublisher{}
	metrics := observability.NewMetrics()
	return &env{
		store:   st,
		catalog: cat,
		events:  events,
		metrics: metrics,
		lane:    service.NewLaneService(st, cat, events, metrics, zap.NewNop(), opts...),
		query:   service.NewQueryService(st, cat, zap.NewNop()),
	}
}

func assertErrAs[T error](t *testing.T, err error) T {
	t.Helper()
	var target T
	if !errors.As(err, &target) {
		t.Fatalf("expected %T, got %v", target, err)
	}
	return target
}
