package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual backing service.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
	Error       string `json:"error,omitempty"`
}

// PortalMetrics is returned by GET /v1/admin/metrics/summary.
type PortalMetrics struct {
	BidsSubmitted   int64   `json:"bidsSubmitted"`
	BidsPending     int64   `json:"bidsPending"`
	RoutesCreated   int64   `json:"routesCreated"`
	VendorsCreated  int64   `json:"vendorsCreated"`
	LoginSuccesses  int64   `json:"loginSuccesses"`
	LoginFailures   int64   `json:"loginFailures"`
	LoginErrorRate  float64 `json:"loginErrorRate"`
	EventsPublished int64   `json:"eventsPublished"`
	LiveSubscribers int64   `json:"liveSubscribers"`
	Period          string  `json:"period"`
}

// ============================================================
// Generic API Response wrappers
// ============================================================

// ListResponse wraps list results.
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
