package handler

import (
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/lanebid/drayage-portal/internal/domain"
	"github.com/lanebid/drayage-portal/internal/infra/observability"
	"github.com/lanebid/drayage-portal/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Admin console — /v1/admin
// ============================================================

func dashboardHandler(query *service.QueryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/dashboard")
		defer span.End()

		dash, err := query.Dashboard(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, dash)
	}
}

func regionBidCountsHandler(query *service.QueryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/region-bid-counts")
		defer span.End()

		counts, err := query.RegionBidCounts(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, counts)
	}
}

// createRouteHandler answers 201 for a new lane and 200 when it existed.
func createRouteHandler(lane *service.LaneService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/routes")
		defer span.End()

		var req domain.CreateRouteRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		route, created, err := lane.CreateRoute(ctx, IdentityFromContext(ctx), req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		writeJSON(w, status, route)
	}
}

func routeBidsHandler(query *service.QueryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/routes/{routeId}/bids")
		defer span.End()

		routeID := chi.URLParam(r, "routeId")
		span.SetAttributes(attribute.String("route.id", routeID))

		opts := domain.BidListOptions{
			Order:  domain.ParseSortOrder(r.URL.Query().Get("order")),
			Search: r.URL.Query().Get("search"),
		}
		bids, err := query.RouteBids(ctx, routeID, opts)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Bid]{Data: bids, Total: len(bids)})
	}
}

func vendorBidsHandler(query *service.QueryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/vendors/{vendorId}/bids")
		defer span.End()

		bids, err := query.VendorBids(ctx, chi.URLParam(r, "vendorId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Bid]{Data: bids, Total: len(bids)})
	}
}

func vendorBidCountsHandler(query *service.QueryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/vendors/{vendorId}/bid-counts")
		defer span.End()

		counts, err := query.VendorBidCounts(ctx, chi.URLParam(r, "vendorId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, counts)
	}
}

// ============================================================
// Vendor management — shared by /v1/admin/vendors and
// /v1/vendor/sub-vendors; the service scopes by caller.
// ============================================================

func listVendorsHandler(lane *service.LaneService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET vendors")
		defer span.End()

		vendors, err := lane.ListVendors(ctx, IdentityFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Vendor]{Data: vendors, Total: len(vendors)})
	}
}

func addVendorHandler(lane *service.LaneService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST vendors")
		defer span.End()

		var req domain.AddVendorRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		v, err := lane.AddVendor(ctx, IdentityFromContext(ctx), req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, v)
	}
}

func bulkVendorsHandler(lane *service.LaneService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST vendors/bulk")
		defer span.End()

		var req domain.BulkVendorsRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		res, err := lane.BulkAddVendors(ctx, IdentityFromContext(ctx), req.Emails)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func previewVendorsHandler(query *service.QueryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/vendors/bulk/preview")
		defer span.End()

		var req domain.BulkVendorsRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		batch, err := query.ParseEmailList(ctx, req.Emails)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, batch)
	}
}

// importVendorsHandler accepts either a multipart upload with a `file`
// field or a raw text/csv body.
func importVendorsHandler(lane *service.LaneService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/vendors/import")
		defer span.End()

		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var src io.Reader = r.Body
		if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
			file, _, err := r.FormFile("file")
			if err != nil {
				writeError(w, http.StatusBadRequest, "missing CSV file field \"file\"")
				return
			}
			defer file.Close()
			src = file
		}

		res, err := lane.ImportVendorsCSV(ctx, IdentityFromContext(ctx), src)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func updateVendorStatusHandler(lane *service.LaneService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT vendors/{vendorId}/status")
		defer span.End()

		var req domain.UpdateVendorStatusRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		v, err := lane.UpdateVendorStatus(ctx, IdentityFromContext(ctx), chi.URLParam(r, "vendorId"), req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func updateVendorWhitelistHandler(lane *service.LaneService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/admin/vendors/{vendorId}/whitelist")
		defer span.End()

		var req domain.UpdateWhitelistRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		v, err := lane.UpdateVendorWhitelistPermission(ctx, IdentityFromContext(ctx), chi.URLParam(r, "vendorId"), req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func deleteVendorHandler(lane *service.LaneService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE vendors/{vendorId}")
		defer span.End()

		if err := lane.DeleteVendor(ctx, IdentityFromContext(ctx), chi.URLParam(r, "vendorId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func whitelistGrantsHandler(lane *service.LaneService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/whitelist-grants")
		defer span.End()

		var req domain.BulkVendorsRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		res, err := lane.GrantWhitelistPermission(ctx, IdentityFromContext(ctx), req.Emails)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// ============================================================
// Exports & metrics
// ============================================================

func exportCSVHandler(exports *service.ExportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/bids/export.csv")
		defer span.End()

		name := "bids-" + time.Now().UTC().Format("20060102") + ".csv"
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
		// Bids are loaded before the first row is written, so store failures
		// still get a JSON error.
		if err := exports.WriteBids(ctx, w, r.URL.Query().Get("origin")); err != nil {
			handleServiceError(w, err, logger)
		}
	}
}

func uploadExportHandler(exports *service.ExportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/exports")
		defer span.End()

		res, err := exports.ExportBids(ctx, r.URL.Query().Get("origin"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

func metricsSummaryHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}
