package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/lanebid/drayage-portal/internal/domain"
	"github.com/lanebid/drayage-portal/internal/infra/notify"
	"github.com/lanebid/drayage-portal/internal/infra/observability"
	"github.com/lanebid/drayage-portal/internal/infra/ratelimit"
	"github.com/lanebid/drayage-portal/internal/port"
	"github.com/lanebid/drayage-portal/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the HTTP surface is wired to. Hub, Limiter and
// Export are optional.
type Deps struct {
	Lane        *service.LaneService
	Query       *service.QueryService
	Auth        *service.AuthService
	Export      *service.ExportService
	Catalog     port.Catalog
	Store       Pinger
	Hub         *notify.Hub
	Limiter     *ratelimit.Limiter
	Metrics     *observability.Metrics
	CORSOrigins []string
	Logger      *zap.Logger
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(d.Store))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Auth (public, throttled per IP)
		// =============================================
		r.Route("/auth", func(r chi.Router) {
			if d.Limiter != nil {
				r.Use(d.Limiter.Middleware)
			}
			r.Post("/register", authRegisterHandler(d.Auth, logger))
			r.Post("/confirm", authConfirmHandler(d.Auth, logger))
			r.Post("/login", authLoginHandler(d.Auth, logger))
			r.With(JWTAuthMiddleware(d.Auth, logger)).Get("/me", meHandler())
		})

		// =============================================
		// Catalog (public reference data)
		// =============================================
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/origins", listOriginsHandler(d.Catalog))
			r.Get("/destinations", listDestinationsHandler(d.Catalog))
			r.Get("/cities/{cityId}", getCityHandler(d.Catalog))
		})

		// =============================================
		// Authenticated
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(d.Auth, logger))

			// Vendor workspace
			r.Route("/vendor", func(r chi.Router) {
				r.Use(RequireRole(domain.RoleVendor))

				r.Get("/origins", vendorOriginsHandler(d.Query, logger))
				r.Get("/routes", listRoutesHandler(d.Query, logger))
				r.Get("/bids", myBidsHandler(d.Query, logger))
				r.Post("/bids", submitBidHandler(d.Lane, logger))
				r.Get("/bid-counts", myBidCountsHandler(d.Query, logger))

				r.Get("/templates", listTemplatesHandler(d.Lane, logger))
				r.Post("/templates", saveTemplateHandler(d.Lane, logger))
				r.Delete("/templates/{templateId}", deleteTemplateHandler(d.Lane, logger))

				r.Get("/favorites", listFavoritesHandler(d.Lane, logger))
				r.Post("/favorites/{regionId}/toggle", toggleFavoriteHandler(d.Lane, logger))

				// Sub-vendors: privileged vendors only, enforced by the service.
				r.Get("/sub-vendors", listVendorsHandler(d.Lane, logger))
				r.Post("/sub-vendors", addVendorHandler(d.Lane, logger))
				r.Post("/sub-vendors/bulk", bulkVendorsHandler(d.Lane, logger))
				r.Put("/sub-vendors/{vendorId}/status", updateVendorStatusHandler(d.Lane, logger))
				r.Delete("/sub-vendors/{vendorId}", deleteVendorHandler(d.Lane, logger))
			})

			// Admin console
			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireRole(domain.RoleAdmin))

				r.Get("/dashboard", dashboardHandler(d.Query, logger))
				r.Get("/region-bid-counts", regionBidCountsHandler(d.Query, logger))

				r.Get("/routes", listRoutesHandler(d.Query, logger))
				r.Post("/routes", createRouteHandler(d.Lane, logger))
				r.Get("/routes/{routeId}/bids", routeBidsHandler(d.Query, logger))
				r.Post("/bids", submitBidHandler(d.Lane, logger))

				r.Get("/vendors", listVendorsHandler(d.Lane, logger))
				r.Post("/vendors", addVendorHandler(d.Lane, logger))
				r.Post("/vendors/bulk", bulkVendorsHandler(d.Lane, logger))
				r.Post("/vendors/bulk/preview", previewVendorsHandler(d.Query, logger))
				r.Post("/vendors/import", importVendorsHandler(d.Lane, logger))
				r.Put("/vendors/{vendorId}/status", updateVendorStatusHandler(d.Lane, logger))
				r.Put("/vendors/{vendorId}/whitelist", updateVendorWhitelistHandler(d.Lane, logger))
				r.Delete("/vendors/{vendorId}", deleteVendorHandler(d.Lane, logger))
				r.Get("/vendors/{vendorId}/bids", vendorBidsHandler(d.Query, logger))
				r.Get("/vendors/{vendorId}/bid-counts", vendorBidCountsHandler(d.Query, logger))
				r.Post("/whitelist-grants", whitelistGrantsHandler(d.Lane, logger))

				if d.Export != nil {
					r.Get("/bids/export.csv", exportCSVHandler(d.Export, logger))
					r.Post("/exports", uploadExportHandler(d.Export, logger))
				}
				r.Get("/metrics/summary", metricsSummaryHandler(d.Metrics))

				if d.Hub != nil {
					r.Get("/live", d.Hub.ServeWS)
				}
			})
		})
	})

	return r
}

// ============================================================
// Operational handlers
// ============================================================

func healthzHandler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC().Format(time.RFC3339)
		services := []domain.ServiceHealth{
			{Name: "portal-api", Status: "healthy", LastChecked: now},
		}

		overall, code := "healthy", http.StatusOK
		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			start := time.Now()
			err := store.Ping(ctx)
			h := domain.ServiceHealth{
				Name:        "store",
				Status:      "healthy",
				LatencyMs:   time.Since(start).Milliseconds(),
				LastChecked: now,
			}
			if err != nil {
				h.Status, h.Error = "unhealthy", err.Error()
				overall, code = "unhealthy", http.StatusServiceUnavailable
			}
			services = append(services, h)
		}

		writeJSON(w, code, domain.HealthStatus{Status: overall, Services: services})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
