package ratelimit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lanebid/drayage-portal/internal/infra/ratelimit"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestAllowPerKey(t *testing.T) {
	l := ratelimit.New(0.001, 2, zap.NewNop())

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"), "burst exhausted")
	assert.True(t, l.Allow("10.0.0.2"), "other clients unaffected")
	assert.Equal(t, 2, l.Len())
}

func TestSweepKeepsActiveClients(t *testing.T) {
	l := ratelimit.New(1, 1, zap.NewNop())
	l.Allow("10.0.0.1")

	assert.Equal(t, 0, l.Sweep())
	assert.Equal(t, 1, l.Len())
}

func TestMiddleware(t *testing.T) {
	l := ratelimit.New(0.001, 1, zap.NewNop())
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, do("192.0.2.1:1234").Code)
	// Same host, different source port.
	rec := do("192.0.2.1:5678")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Too many requests")
	assert.Equal(t, http.StatusNoContent, do("192.0.2.9:1234").Code)
}
