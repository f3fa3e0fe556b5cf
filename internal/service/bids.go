package service

import (
	"context"
	"fmt"
	"time"

	"github.com/lanebid/drayage-portal/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// SubmitBid — POST /v1/vendor/bids
// ============================================================

// SubmitBid prices and records the caller's bid on a lane. Vendors bid for
// themselves; admins may bid on behalf of the vendor named in the submission.
// A second submission for the same (route, vendor) replaces the first.
func (s *LaneService) SubmitBid(ctx context.Context, id domain.Identity, sub domain.BidSubmission) (*domain.Bid, error) {
	ctx, span := laneTracer.Start(ctx, "LaneService.SubmitBid")
	defer span.End()
	span.SetAttributes(attribute.String("route.id", sub.RouteID))

	vendorID, err := bidderFor(id, sub)
	if err != nil {
		return nil, err
	}
	if sub.RouteID == "" {
		return nil, &domain.ErrValidation{Field: "routeId", Message: "Route ID is required"}
	}

	status := sub.Status
	if status == "" {
		status = domain.BidSubmitted
	}
	if !domain.ValidBidStatus(status) {
		return nil, &domain.ErrValidation{Field: "status", Message: fmt.Sprintf("invalid bid status %q", status)}
	}

	vendor, err := s.store.GetVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if vendor.Status != domain.VendorActive {
		return nil, &domain.ErrAccountBlocked{Status: vendor.Status}
	}

	route, err := s.store.GetRoute(ctx, sub.RouteID)
	if err != nil {
		return nil, err
	}

	fees, err := domain.NormalizeAccessorials(sub.Accessorials)
	if err != nil {
		return nil, err
	}
	base := domain.ClampAmount(sub.BaseRate)
	fsc := domain.ClampAmount(sub.FSC)
	total, err := domain.BidTotal(base, fsc, fees)
	if err != nil {
		return nil, fmt.Errorf("price bid: %w", err)
	}

	bidID := domain.BidID(route.ID, vendor.ID)
	existing, err := s.store.ListBidsByRoute(ctx, route.ID)
	if err != nil {
		return nil, fmt.Errorf("list route bids: %w", err)
	}
	for _, b := range existing {
		if b.VendorID == vendor.ID {
			bidID = b.ID
			break
		}
	}

	saved, err := s.store.UpsertBid(ctx, domain.Bid{
		ID:            bidID,
		VendorID:      vendor.ID,
		VendorEmail:   vendor.Email,
		RouteID:       route.ID,
		OriginID:      route.OriginID,
		DestinationID: route.DestinationID,
		BaseRate:      base,
		FSC:           fsc,
		Accessorials:  fees,
		Total:         total,
		SubmittedAt:   time.Now().UTC(),
		Status:        status,
	}, sub.ExpectedVersion)
	if err != nil {
		return nil, err
	}

	s.metrics.IncrBid(saved.Status)
	s.events.Publish(ctx, domain.NewEvent(domain.EventBidSubmitted, saved))
	s.logger.Info("bid submitted",
		zap.String("bid_id", saved.ID),
		zap.String("vendor_id", saved.VendorID),
		zap.String("route_id", saved.RouteID),
		zap.Float64("total", saved.Total),
		zap.Int("version", saved.Version),
	)
	return saved, nil
}

func bidderFor(id domain.Identity, sub domain.BidSubmission) (string, error) {
	switch {
	case id.IsAdmin():
		if sub.VendorID == "" {
			return "", &domain.ErrValidation{Field: "vendorId", Message: "Vendor ID is required"}
		}
		return sub.VendorID, nil
	case id.IsVendor():
		if sub.VendorID != "" && sub.VendorID != id.VendorID {
			return "", &domain.ErrForbidden{Action: "submit bid for another vendor"}
		}
		return id.VendorID, nil
	default:
		return "", &domain.ErrForbidden{Action: "submit bid"}
	}
}

// ============================================================
// CreateRoute — POST /v1/admin/routes
// ============================================================

// CreateRoute registers the lane origin → destination. Both ids must exist in
// the catalog; the call is idempotent and reports whether a lane was created.
func (s *LaneService) CreateRoute(ctx context.Context, id domain.Identity, req domain.CreateRouteRequest) (*domain.Route, bool, error) {
	ctx, span := laneTracer.Start(ctx, "LaneService.CreateRoute")
	defer span.End()
	span.SetAttributes(
		attribute.String("origin.id", req.OriginID),
		attribute.String("destination.id", req.DestinationID),
	)

	if err := requireAdmin(id, "create route"); err != nil {
		return nil, false, err
	}

	origin, ok := s.catalog.LookupByID(req.OriginID)
	if !ok {
		return nil, false, &domain.ErrNotFound{Resource: "region", ID: req.OriginID}
	}
	dest, ok := s.catalog.LookupByID(req.DestinationID)
	if !ok {
		return nil, false, &domain.ErrNotFound{Resource: "location", ID: req.DestinationID}
	}
	if !origin.IsPort {
		return nil, false, &domain.ErrValidation{Field: "originId", Message: origin.ID + " is not a port/ramp region"}
	}
	if !dest.IsInland {
		return nil, false, &domain.ErrValidation{Field: "destinationId", Message: dest.ID + " is not an inland location"}
	}

	route, created, err := s.store.AddRoute(ctx, origin.ID, dest.ID, func() (domain.Route, error) {
		return domain.Route{
			ID:            domain.RouteID(origin.ID, dest.ID),
			OriginID:      origin.ID,
			DestinationID: dest.ID,
			Origin:        origin,
			Destination:   dest,
			CreatedAt:     time.Now().UTC(),
		}, nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.metrics.IncrRouteCreated()
		s.events.Publish(ctx, domain.NewEvent(domain.EventRouteCreated, route))
		s.logger.Info("route created",
			zap.String("route_id", route.ID),
			zap.String("origin_id", route.OriginID),
			zap.String("destination_id", route.DestinationID),
			zap.String("lane", route.Origin.Label()+" -> "+route.Destination.Label()),
		)
	}
	return route, created, nil
}
