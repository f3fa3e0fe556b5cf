package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lanebid/drayage-portal/internal/domain"
	"github.com/lanebid/drayage-portal/internal/infra/observability"
	"go.uber.org/zap"
)

func TestSnapshot(t *testing.T) {
	m := observability.NewMetrics()

	m.IncrBid(domain.BidSubmitted)
	m.IncrBid(domain.BidSubmitted)
	m.IncrBid(domain.BidPending)
	m.IncrRouteCreated()
	m.IncrVendorCreated("admin")
	m.IncrVendorCreated("bulk")
	m.IncrAuth("success")
	m.IncrAuth("success")
	m.IncrAuth("success")
	m.IncrAuth("failure")
	m.IncrEvent(domain.EventBidSubmitted)
	m.SetLiveSubscribers(2)
	m.RecordStoreOp("ListBids", time.Millisecond, nil)
	m.RecordStoreOp("UpsertBid", time.Millisecond, errors.New("boom"))

	s := m.Snapshot()
	if s.BidsSubmitted != 2 || s.BidsPending != 1 {
		t.Errorf("bids = %d/%d, want 2/1", s.BidsSubmitted, s.BidsPending)
	}
	if s.RoutesCreated != 1 {
		t.Errorf("routes = %d, want 1", s.RoutesCreated)
	}
	if s.VendorsCreated != 2 {
		t.Errorf("vendors = %d, want 2", s.VendorsCreated)
	}
	if s.LoginErrorRate != 0.25 {
		t.Errorf("login error rate = %v, want 0.25", s.LoginErrorRate)
	}
	if s.EventsPublished != 1 || s.LiveSubscribers != 2 {
		t.Errorf("events/subscribers = %d/%d, want 1/2", s.EventsPublished, s.LiveSubscribers)
	}
}

func TestNewMetricsTwice(t *testing.T) {
	observability.NewMetrics()
	observability.NewMetrics()
}

func TestInitTracerWithoutEndpoint(t *testing.T) {
	shutdown, err := observability.InitTracer(context.Background(), "", "drayage-portal")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestLoggerFromFallsBack(t *testing.T) {
	fallback := zap.NewNop()
	if got := observability.LoggerFrom(context.Background(), fallback); got != fallback {
		t.Error("expected fallback logger")
	}
	scoped := zap.NewNop().With(zap.String("request_id", "abc"))
	ctx := observability.WithLogger(context.Background(), scoped)
	if got := observability.LoggerFrom(ctx, fallback); got != scoped {
		t.Error("expected scoped logger")
	}
}
