package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/lanebid/drayage-portal/internal/domain"
	"github.com/lanebid/drayage-portal/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var queryTracer = otel.Tracer("service/query")

// QueryService answers read-only questions over the store. Every answer is
// recomputed from current store contents.
type QueryService struct {
	store   port.Store
	catalog port.Catalog
	logger  *zap.Logger
}

// NewQueryService creates a new query service.
func NewQueryService(store port.Store, catalog port.Catalog, logger *zap.Logger) *QueryService {
	return &QueryService{store: store, catalog: catalog, logger: logger}
}

// RegionBidCounts counts all bids per origin region.
func (q *QueryService) RegionBidCounts(ctx context.Context) (map[string]int, error) {
	ctx, span := queryTracer.Start(ctx, "QueryService.RegionBidCounts")
	defer span.End()

	bids, err := q.store.ListBids(ctx)
	if err != nil {
		return nil, err
	}
	return domain.RegionBidCounts(bids), nil
}

// VendorBidCounts splits one vendor's bids per origin region by status.
func (q *QueryService) VendorBidCounts(ctx context.Context, vendorID string) (map[string]domain.BidCounts, error) {
	ctx, span := queryTracer.Start(ctx, "QueryService.VendorBidCounts")
	defer span.End()

	bids, err := q.store.ListBidsForVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	return domain.VendorBidCounts(bids, vendorID), nil
}

// RouteBids lists the bids of one lane, filtered and ordered by opts.
func (q *QueryService) RouteBids(ctx context.Context, routeID string, opts domain.BidListOptions) ([]domain.Bid, error) {
	ctx, span := queryTracer.Start(ctx, "QueryService.RouteBids")
	defer span.End()
	span.SetAttributes(attribute.String("route.id", routeID))

	if _, err := q.store.GetRoute(ctx, routeID); err != nil {
		return nil, err
	}
	bids, err := q.store.ListBidsByRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if opts.Order == "" {
		opts.Order = domain.SortDesc
	}
	return domain.SortBids(domain.FilterBids(bids, opts.Search), opts.Order), nil
}

// VendorBids lists one vendor's bids, newest first.
func (q *QueryService) VendorBids(ctx context.Context, vendorID string) ([]domain.Bid, error) {
	ctx, span := queryTracer.Start(ctx, "QueryService.VendorBids")
	defer span.End()

	bids, err := q.store.ListBidsForVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	return domain.SortBids(bids, domain.SortDesc), nil
}

// ParseEmailList previews a bulk whitelist input against the known vendors.
func (q *QueryService) ParseEmailList(ctx context.Context, input string) (*domain.EmailBatch, error) {
	ctx, span := queryTracer.Start(ctx, "QueryService.ParseEmailList")
	defer span.End()

	vendors, err := q.store.ListVendors(ctx)
	if err != nil {
		return nil, err
	}
	known := make([]string, len(vendors))
	for i, v := range vendors {
		known[i] = v.Email
	}
	batch := domain.ParseEmailList(input, known)
	return &batch, nil
}

// ListRoutes lists lanes, optionally only those leaving originID.
func (q *QueryService) ListRoutes(ctx context.Context, originID string) ([]domain.Route, error) {
	ctx, span := queryTracer.Start(ctx, "QueryService.ListRoutes")
	defer span.End()

	if originID == "" {
		return q.store.ListRoutes(ctx)
	}
	return q.store.ListRoutesByOrigin(ctx, originID)
}

// Statistics returns the dashboard counters.
func (q *QueryService) Statistics(ctx context.Context) (domain.Statistics, error) {
	ctx, span := queryTracer.Start(ctx, "QueryService.Statistics")
	defer span.End()

	return q.store.GetStatistics(ctx)
}

// ============================================================
// Dashboard — GET /v1/admin/dashboard
// ============================================================

// Dashboard gathers statistics, region bid counts, vendor status totals and
// the lane count concurrently.
func (q *QueryService) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	ctx, span := queryTracer.Start(ctx, "QueryService.Dashboard")
	defer span.End()

	var dash domain.Dashboard
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats, err := q.store.GetStatistics(gCtx)
		if err != nil {
			return fmt.Errorf("statistics: %w", err)
		}
		dash.Statistics = stats
		return nil
	})

	g.Go(func() error {
		bids, err := q.store.ListBids(gCtx)
		if err != nil {
			return fmt.Errorf("bids: %w", err)
		}
		dash.RegionBidCounts = domain.RegionBidCounts(bids)
		return nil
	})

	g.Go(func() error {
		vendors, err := q.store.ListVendors(gCtx)
		if err != nil {
			return fmt.Errorf("vendors: %w", err)
		}
		for _, v := range vendors {
			switch v.Status {
			case domain.VendorActive:
				dash.Vendors.Active++
			case domain.VendorInactive:
				dash.Vendors.Inactive++
			case domain.VendorBlocked:
				dash.Vendors.Blocked++
			}
		}
		return nil
	})

	g.Go(func() error {
		routes, err := q.store.ListRoutes(gCtx)
		if err != nil {
			return fmt.Errorf("routes: %w", err)
		}
		dash.Routes = len(routes)
		return nil
	})

	if err := g.Wait(); err != nil {
		q.logger.Error("dashboard query failed", zap.Error(err))
		return nil, err
	}
	return &dash, nil
}

// ============================================================
// VendorOrigins — GET /v1/vendor/origins
// ============================================================

// VendorOrigins lists every origin region annotated for the vendor:
// favourite flag, the vendor's bid counts and the number of lanes.
// Favourites come first, then regions by name.
func (q *QueryService) VendorOrigins(ctx context.Context, vendorID string) ([]domain.OriginOverview, error) {
	ctx, span := queryTracer.Start(ctx, "QueryService.VendorOrigins")
	defer span.End()

	var (
		favorites []string
		bids      []domain.Bid
		routes    []domain.Route
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		favorites, err = q.store.ListFavorites(gCtx, vendorID)
		return err
	})
	g.Go(func() (err error) {
		bids, err = q.store.ListBidsForVendor(gCtx, vendorID)
		return err
	})
	g.Go(func() (err error) {
		routes, err = q.store.ListRoutes(gCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fav := make(map[string]bool, len(favorites))
	for _, id := range favorites {
		fav[id] = true
	}
	laneCounts := make(map[string]int)
	for _, r := range routes {
		laneCounts[r.OriginID]++
	}
	counts := domain.VendorBidCounts(bids, vendorID)

	origins := q.catalog.ListOrigins()
	out := make([]domain.OriginOverview, len(origins))
	for i, c := range origins {
		out[i] = domain.OriginOverview{
			City:     c,
			Favorite: fav[c.ID],
			Counts:   counts[c.ID],
			Routes:   laneCounts[c.ID],
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Favorite != out[j].Favorite {
			return out[i].Favorite
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
