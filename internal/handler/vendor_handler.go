package handler

import (
	"net/http"

	"github.com/lanebid/drayage-portal/internal/domain"
	"github.com/lanebid/drayage-portal/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Vendor workspace — /v1/vendor
// ============================================================

func vendorOriginsHandler(query *service.QueryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/vendor/origins")
		defer span.End()

		id := IdentityFromContext(ctx)
		origins, err := query.VendorOrigins(ctx, id.VendorID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.OriginOverview]{Data: origins, Total: len(origins)})
	}
}

// listRoutesHandler serves both workspaces; ?origin= narrows to one region.
func listRoutesHandler(query *service.QueryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET routes")
		defer span.End()

		origin := r.URL.Query().Get("origin")
		span.SetAttributes(attribute.String("origin.id", origin))

		routes, err := query.ListRoutes(ctx, origin)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Route]{Data: routes, Total: len(routes)})
	}
}

// submitBidHandler prices and stores a bid. Vendors bid for themselves;
// on the admin route the body names the vendor.
func submitBidHandler(lane *service.LaneService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST bids")
		defer span.End()

		var sub domain.BidSubmission
		if !decodeJSON(w, r, &sub) {
			return
		}

		bid, err := lane.SubmitBid(ctx, IdentityFromContext(ctx), sub)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, bid)
	}
}

func myBidsHandler(query *service.QueryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/vendor/bids")
		defer span.End()

		bids, err := query.VendorBids(ctx, IdentityFromContext(ctx).VendorID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Bid]{Data: bids, Total: len(bids)})
	}
}

func myBidCountsHandler(query *service.QueryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/vendor/bid-counts")
		defer span.End()

		counts, err := query.VendorBidCounts(ctx, IdentityFromContext(ctx).VendorID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, counts)
	}
}

// --- Templates ---

func listTemplatesHandler(lane *service.LaneService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/vendor/templates")
		defer span.End()

		templates, err := lane.ListTemplates(ctx, IdentityFromContext(ctx).VendorID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.AccessorialTemplate]{Data: templates, Total: len(templates)})
	}
}

func saveTemplateHandler(lane *service.LaneService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/vendor/templates")
		defer span.End()

		var req domain.SaveTemplateRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		tmpl, err := lane.SaveTemplate(ctx, IdentityFromContext(ctx).VendorID, req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, tmpl)
	}
}

func deleteTemplateHandler(lane *service.LaneService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/vendor/templates/{templateId}")
		defer span.End()

		if err := lane.DeleteTemplate(ctx, IdentityFromContext(ctx).VendorID, chi.URLParam(r, "templateId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// --- Favorites ---

func listFavoritesHandler(lane *service.LaneService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/vendor/favorites")
		defer span.End()

		favs, err := lane.ListFavorites(ctx, IdentityFromContext(ctx).VendorID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[string]{Data: favs, Total: len(favs)})
	}
}

func toggleFavoriteHandler(lane *service.LaneService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/vendor/favorites/{regionId}/toggle")
		defer span.End()

		resp, err := lane.ToggleFavorite(ctx, IdentityFromContext(ctx).VendorID, chi.URLParam(r, "regionId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
