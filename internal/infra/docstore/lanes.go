package docstore

import (
	"context"

	"github.com/lanebid/drayage-portal/internal/domain"
	"github.com/lanebid/drayage-portal/internal/port"
)

// ============================================================
// Routes
// ============================================================

func (s *Store) ListRoutes(ctx context.Context) ([]domain.Route, error) {
	var out []domain.Route
	err := s.view(ctx, "ListRoutes", func(doc *Document) error {
		out = append([]domain.Route{}, doc.Routes...)
		return nil
	})
	return out, err
}

func (s *Store) ListRoutesByOrigin(ctx context.Context, originID string) ([]domain.Route, error) {
	out := []domain.Route{}
	err := s.view(ctx, "ListRoutesByOrigin", func(doc *Document) error {
		for _, r := range doc.Routes {
			if r.OriginID == originID {
				out = append(out, r)
			}
		}
		return nil
	})
	return out, err
}

func (s *Store) GetRoute(ctx context.Context, routeID string) (*domain.Route, error) {
	var out *domain.Route
	err := s.view(ctx, "GetRoute", func(doc *Document) error {
		for _, r := range doc.Routes {
			if r.ID == routeID {
				route := r
				out = &route
				return nil
			}
		}
		return &domain.ErrNotFound{Resource: "route", ID: routeID}
	})
	return out, err
}

// AddRoute returns the existing route for the pair, or persists the route
// produced by build. build runs only when the pair is absent; its error
// leaves the document untouched. The bool reports whether a route was created.
func (s *Store) AddRoute(ctx context.Context, originID, destinationID string, build port.RouteBuilder) (*domain.Route, bool, error) {
	var out domain.Route
	created := false
	err := s.mutate(ctx, "AddRoute", func(doc *Document) error {
		for _, r := range doc.Routes {
			if r.OriginID == originID && r.DestinationID == destinationID {
				out = r
				return nil
			}
		}
		route, err := build()
		if err != nil {
			return err
		}
		doc.Routes = append(doc.Routes, route)
		out = route
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &out, created, nil
}

// ============================================================
// Bids
// ============================================================

func (s *Store) ListBids(ctx context.Context) ([]domain.Bid, error) {
	var out []domain.Bid
	err := s.view(ctx, "ListBids", func(doc *Document) error {
		out = append([]domain.Bid{}, doc.Bids...)
		return nil
	})
	return out, err
}

func (s *Store) ListBidsByRoute(ctx context.Context, routeID string) ([]domain.Bid, error) {
	return s.filterBids(ctx, "ListBidsByRoute", func(b domain.Bid) bool { return b.RouteID == routeID })
}

func (s *Store) ListBidsByOrigin(ctx context.Context, originID string) ([]domain.Bid, error) {
	return s.filterBids(ctx, "ListBidsByOrigin", func(b domain.Bid) bool { return b.OriginID == originID })
}

func (s *Store) ListBidsForVendor(ctx context.Context, vendorID string) ([]domain.Bid, error) {
	return s.filterBids(ctx, "ListBidsForVendor", func(b domain.Bid) bool { return b.VendorID == vendorID })
}

func (s *Store) filterBids(ctx context.Context, op string, keep func(domain.Bid) bool) ([]domain.Bid, error) {
	out := []domain.Bid{}
	err := s.view(ctx, op, func(doc *Document) error {
		for _, b := range doc.Bids {
			if keep(b) {
				out = append(out, b)
			}
		}
		return nil
	})
	return out, err
}

// UpsertBid inserts or replaces the bid by id, bumps its version and
// recounts the vendor's TotalBids.
func (s *Store) UpsertBid(ctx context.Context, bid domain.Bid, expectedVersion int) (*domain.Bid, error) {
	err := s.mutate(ctx, "UpsertBid", func(doc *Document) error {
		replaced := false
		for i := range doc.Bids {
			if doc.Bids[i].ID != bid.ID {
				continue
			}
			if err := checkVersion("bid", bid.ID, doc.Bids[i].Version, expectedVersion); err != nil {
				return err
			}
			bid.Version = doc.Bids[i].Version + 1
			doc.Bids[i] = bid
			replaced = true
			break
		}
		if !replaced {
			if err := checkVersion("bid", bid.ID, 0, expectedVersion); err != nil {
				return err
			}
			bid.Version = 1
			doc.Bids = append(doc.Bids, bid)
		}
		doc.recountVendorBids(bid.VendorID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

func (d *Document) recountVendorBids(vendorID string) {
	i := d.vendorIndex(vendorID)
	if i < 0 {
		return
	}
	count := 0
	for _, b := range d.Bids {
		if b.VendorID == vendorID {
			count++
		}
	}
	d.Vendors[i].TotalBids = count
}

// GetStatistics returns the seeded dashboard counters.
func (s *Store) GetStatistics(ctx context.Context) (domain.Statistics, error) {
	var out domain.Statistics
	err := s.view(ctx, "GetStatistics", func(doc *Document) error {
		out = doc.Statistics
		return nil
	})
	return out, err
}
