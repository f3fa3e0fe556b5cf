// Package service provides the business logic layer (use cases).
// LaneService prices and records bids and manages lanes, vendors,
// accessorial templates and favourite regions.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/lanebid/drayage-portal/internal/domain"
	"github.com/lanebid/drayage-portal/internal/infra/observability"
	"github.com/lanebid/drayage-portal/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var laneTracer = otel.Tracer("service/lane")

// mcidAttempts bounds the search for an unused MCID.
const mcidAttempts = 10

// LaneService orchestrates all write paths of the portal.
type LaneService struct {
	store   port.Store
	catalog port.Catalog
	events  port.EventPublisher
	metrics *observability.Metrics
	logger  *zap.Logger
	newMCID func() (string, error)
}

// LaneOption customizes a LaneService.
type LaneOption func(*LaneService)

// WithMCIDGenerator replaces the random MCID source.
func WithMCIDGenerator(gen func() (string, error)) LaneOption {
	return func(s *LaneService) { s.newMCID = gen }
}

// NewLaneService creates a new lane service. events may be nil.
func NewLaneService(
	store port.Store,
	catalog port.Catalog,
	events port.EventPublisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
	opts ...LaneOption,
) *LaneService {
	if events == nil {
		events = noopPublisher{}
	}
	s := &LaneService{
		store:   store,
		catalog: catalog,
		events:  events,
		metrics: metrics,
		logger:  logger,
		newMCID: randomMCID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, domain.Event) {}

// randomMCID returns "MC-" followed by six random digits.
func randomMCID() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("MC-%06d", n.Int64()), nil
}

// ============================================================
// Authorization helpers
// ============================================================

func requireAdmin(id domain.Identity, action string) error {
	if !id.IsAdmin() {
		return &domain.ErrForbidden{Action: action}
	}
	return nil
}

// requireWhitelister admits admins and vendors whose stored record currently
// carries the whitelisting privilege. The token flag alone is not trusted.
func (s *LaneService) requireWhitelister(ctx context.Context, id domain.Identity, action string) error {
	if id.IsAdmin() {
		return nil
	}
	if !id.IsVendor() {
		return &domain.ErrForbidden{Action: action}
	}
	self, err := s.store.GetVendor(ctx, id.VendorID)
	if err != nil {
		var nf *domain.ErrNotFound
		if errors.As(err, &nf) {
			return &domain.ErrForbidden{Action: action}
		}
		return fmt.Errorf("load caller vendor: %w", err)
	}
	if !self.CanWhitelistVendors || self.Status != domain.VendorActive {
		return &domain.ErrForbidden{Action: action}
	}
	return nil
}

// requireManager admits admins and the privileged vendor that created target.
func (s *LaneService) requireManager(ctx context.Context, id domain.Identity, target *domain.Vendor, action string) error {
	if id.IsAdmin() {
		return nil
	}
	if err := s.requireWhitelister(ctx, id, action); err != nil {
		return err
	}
	if target.CreatedByVendorID != id.VendorID {
		return &domain.ErrForbidden{Action: action}
	}
	return nil
}
