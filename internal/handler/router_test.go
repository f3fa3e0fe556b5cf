package handler_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lanebid/drayage-portal/internal/domain"
	"github.com/lanebid/drayage-portal/internal/handler"
	"github.com/lanebid/drayage-portal/internal/infra/cache"
	"github.com/lanebid/drayage-portal/internal/infra/catalog"
	"github.com/lanebid/drayage-portal/internal/infra/docstore"
	"github.com/lanebid/drayage-portal/internal/infra/kv"
	"github.com/lanebid/drayage-portal/internal/infra/observability"
	"github.com/lanebid/drayage-portal/internal/infra/ratelimit"
	"github.com/lanebid/drayage-portal/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testOrigin = "http://portal.test"

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("backend down") }

func newTestRouter(t *testing.T, mutate ...func(*handler.Deps)) http.Handler {
	t.Helper()

	cat, err := catalog.Default()
	require.NoError(t, err)
	st, err := docstore.Open(context.Background(), kv.NewMemory(), docstore.Options{
		Seed: docstore.DemoSeed(cat, service.HashPassword(bcrypt.MinCost)),
	})
	require.NoError(t, err)

	codes := cache.New[string](time.Minute)
	t.Cleanup(codes.Close)

	metrics := observability.NewMetrics()
	logger := zap.NewNop()
	deps := handler.Deps{
		Lane:  service.NewLaneService(st, cat, nil, metrics, logger),
		Query: service.NewQueryService(st, cat, logger),
		Auth: service.NewAuthService(st, codes, service.AuthOptions{
			JWTSecret:  "router-test-secret",
			AccessTTL:  time.Hour,
			BcryptCost: bcrypt.MinCost,
		}, metrics, logger),
		Export:      service.NewExportService(st, nil, "exports", metrics, logger),
		Catalog:     cat,
		Store:       st,
		Metrics:     metrics,
		CORSOrigins: []string{testOrigin},
		Logger:      logger,
	}
	for _, m := range mutate {
		m(&deps)
	}
	return handler.NewRouter(deps)
}

func do(t *testing.T, router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, router http.Handler, email, password string) string {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/v1/auth/login", "",
		`{"email":"`+email+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp domain.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func TestOperationalEndpoints(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/ping"} {
		rec := do(t, router, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestHealthz_StoreDown(t *testing.T) {
	router := newTestRouter(t, func(d *handler.Deps) { d.Store = failingPinger{} })

	rec := do(t, router, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var health domain.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "unhealthy", health.Status)
	require.Len(t, health.Services, 2)
	assert.Equal(t, "backend down", health.Services[1].Error)
}

func TestLoginAndMe(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "vendor@gmail.com", "qwerty")

	rec := do(t, router, http.MethodGet, "/v1/auth/me", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var id domain.Identity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &id))
	assert.Equal(t, domain.RoleVendor, id.Role)
	assert.Equal(t, "v1", id.VendorID)
	assert.True(t, id.CanWhitelistVendors)

	bad := do(t, router, http.MethodPost, "/v1/auth/login", "", `{"email":"vendor@gmail.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, bad.Code)
}

func TestAuthGuards(t *testing.T) {
	router := newTestRouter(t)
	vendor := login(t, router, "vendor@gmail.com", "qwerty")
	admin := login(t, router, "admin@gmail.com", "123456")

	tests := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"missing token", "/v1/vendor/bids", "", http.StatusUnauthorized},
		{"garbage token", "/v1/vendor/bids", "not-a-jwt", http.StatusUnauthorized},
		{"vendor on admin surface", "/v1/admin/dashboard", vendor, http.StatusForbidden},
		{"admin on vendor surface", "/v1/vendor/bids", admin, http.StatusForbidden},
		{"vendor on vendor surface", "/v1/vendor/bids", vendor, http.StatusOK},
		{"admin on admin surface", "/v1/admin/dashboard", admin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, tt.path, tt.token, "")
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestSubmitBid(t *testing.T) {
	router := newTestRouter(t)
	vendor := login(t, router, "vendor@gmail.com", "qwerty")

	rec := do(t, router, http.MethodPost, "/v1/vendor/bids", vendor,
		`{"routeId":"route-atl-pooler-ga","baseRate":275,"fsc":10.34,"accessorials":{"chassis":45.5}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var bid domain.Bid
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bid))
	assert.Equal(t, "v1", bid.VendorID)
	assert.InDelta(t, 348.94, bid.Total, 0.001)

	unknown := do(t, router, http.MethodPost, "/v1/vendor/bids", vendor, `{"routeId":"route-nowhere","baseRate":1}`)
	assert.Equal(t, http.StatusNotFound, unknown.Code)

	malformed := do(t, router, http.MethodPost, "/v1/vendor/bids", vendor, `{"routeId":`)
	assert.Equal(t, http.StatusBadRequest, malformed.Code)
}

func TestCreateRouteAndRouteBids(t *testing.T) {
	router := newTestRouter(t)
	admin := login(t, router, "admin@gmail.com", "123456")

	body := `{"originId":"sav","destinationId":"pooler-ga"}`
	first := do(t, router, http.MethodPost, "/v1/admin/routes", admin, body)
	assert.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	again := do(t, router, http.MethodPost, "/v1/admin/routes", admin, body)
	assert.Equal(t, http.StatusOK, again.Code)

	rec := do(t, router, http.MethodGet, "/v1/admin/routes/route-atl-abbeville-sc/bids?order=asc", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list domain.ListResponse[domain.Bid]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 3, list.Total)
	assert.Equal(t, "v3", list.Data[0].VendorID)
	assert.Equal(t, "v1", list.Data[2].VendorID)

	missing := do(t, router, http.MethodGet, "/v1/admin/routes/route-nowhere/bids", admin, "")
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestExportCSV(t *testing.T) {
	router := newTestRouter(t)
	admin := login(t, router, "admin@gmail.com", "123456")

	rec := do(t, router, http.MethodGet, "/v1/admin/bids/export.csv?origin=atl", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 13)

	upload := do(t, router, http.MethodPost, "/v1/admin/exports", admin, "")
	assert.Equal(t, http.StatusBadRequest, upload.Code, "no object store configured")
}

func TestAuthRateLimit(t *testing.T) {
	router := newTestRouter(t, func(d *handler.Deps) {
		d.Limiter = ratelimit.New(0.001, 2, zap.NewNop())
	})

	body := `{"email":"vendor@gmail.com","password":"nope"}`
	for i := 0; i < 2; i++ {
		rec := do(t, router, http.MethodPost, "/v1/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := do(t, router, http.MethodPost, "/v1/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Catalog is not throttled.
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/v1/catalog/origins", "", "").Code)
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/vendor/bids", nil)
	req.Header.Set("Origin", testOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Less(t, rec.Code, 300)
	assert.Equal(t, testOrigin, rec.Header().Get("Access-Control-Allow-Origin"))

	foreign := httptest.NewRequest(http.MethodOptions, "/v1/vendor/bids", nil)
	foreign.Header.Set("Origin", "http://evil.test")
	foreign.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, foreign)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCatalog(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/v1/catalog/cities/sav", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var city domain.City
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &city))
	assert.Equal(t, "Savannah", city.Name)

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/v1/catalog/cities/atlantis", "", "").Code)
}
