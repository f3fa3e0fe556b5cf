package observability

import (
	"time"

	"github.com/lanebid/drayage-portal/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the portal.
type Metrics struct {
	// Registry owns these metrics and backs the /metrics endpoint.
	Registry *prometheus.Registry

	storeOps        *prometheus.HistogramVec
	bidsSubmitted   *prometheus.CounterVec
	routesCreated   prometheus.Counter
	vendorsCreated  *prometheus.CounterVec
	authAttempts    *prometheus.CounterVec
	eventsPublished *prometheus.CounterVec
	liveSubscribers prometheus.Gauge
	exports         *prometheus.CounterVec
}

// NewMetrics registers all portal metrics in a private registry, so it is
// safe to call more than once (tests do).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		storeOps: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portal_store_operation_seconds",
				Help:    "Duration of document store operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op", "result"},
		),
		bidsSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_bids_submitted_total",
				Help: "Bids written, by resulting status.",
			},
			[]string{"status"},
		),
		routesCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "portal_routes_created_total",
				Help: "Lanes created.",
			},
		),
		vendorsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_vendors_created_total",
				Help: "Vendors created, by source.",
			},
			[]string{"source"},
		),
		authAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_auth_attempts_total",
				Help: "Login attempts, by result.",
			},
			[]string{"result"},
		),
		eventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_events_published_total",
				Help: "Live events published, by type.",
			},
			[]string{"type"},
		),
		liveSubscribers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "portal_live_subscribers",
				Help: "Connected live feed subscribers.",
			},
		),
		exports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_exports_total",
				Help: "CSV exports, by result.",
			},
			[]string{"result"},
		),
	}
}

// RecordStoreOp observes one store operation.
func (m *Metrics) RecordStoreOp(op string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.storeOps.WithLabelValues(op, result).Observe(d.Seconds())
}

// IncrBid counts a bid write.
func (m *Metrics) IncrBid(status domain.BidStatus) {
	m.bidsSubmitted.WithLabelValues(string(status)).Inc()
}

// IncrRouteCreated counts a newly created lane.
func (m *Metrics) IncrRouteCreated() {
	m.routesCreated.Inc()
}

// IncrVendorCreated counts a vendor created from source
// (admin, sub_vendor, bulk, csv, registration).
func (m *Metrics) IncrVendorCreated(source string) {
	m.vendorsCreated.WithLabelValues(source).Inc()
}

// IncrAuth counts a login attempt: success, failure or blocked.
func (m *Metrics) IncrAuth(result string) {
	m.authAttempts.WithLabelValues(result).Inc()
}

// IncrEvent counts a published live event.
func (m *Metrics) IncrEvent(eventType string) {
	m.eventsPublished.WithLabelValues(eventType).Inc()
}

// SetLiveSubscribers records the current subscriber count.
func (m *Metrics) SetLiveSubscribers(n int) {
	m.liveSubscribers.Set(float64(n))
}

// IncrExport counts a CSV export attempt.
func (m *Metrics) IncrExport(result string) {
	m.exports.WithLabelValues(result).Inc()
}

// Snapshot summarizes the counters for GET /v1/admin/metrics/summary.
func (m *Metrics) Snapshot() *domain.PortalMetrics {
	successes := counterValue(m.authAttempts, "success")
	failures := counterValue(m.authAttempts, "failure") + counterValue(m.authAttempts, "blocked")

	errorRate := float64(0)
	if successes+failures > 0 {
		errorRate = failures / (successes + failures)
	}

	var events float64
	for _, t := range []string{
		domain.EventBidSubmitted,
		domain.EventRouteCreated,
		domain.EventVendorCreated,
		domain.EventVendorStatusChanged,
		domain.EventVendorDeleted,
	} {
		events += counterValue(m.eventsPublished, t)
	}

	var vendors float64
	for _, src := range []string{"admin", "sub_vendor", "bulk", "csv", "registration"} {
		vendors += counterValue(m.vendorsCreated, src)
	}

	return &domain.PortalMetrics{
		BidsSubmitted:   int64(counterValue(m.bidsSubmitted, string(domain.BidSubmitted))),
		BidsPending:     int64(counterValue(m.bidsSubmitted, string(domain.BidPending))),
		RoutesCreated:   int64(metricValue(m.routesCreated)),
		VendorsCreated:  int64(vendors),
		LoginSuccesses:  int64(successes),
		LoginFailures:   int64(failures),
		LoginErrorRate:  errorRate,
		EventsPublished: int64(events),
		LiveSubscribers: int64(metricValue(m.liveSubscribers)),
		Period:          "since_start",
	}
}

// counterValue reads the current value of one labelled counter.
func counterValue(cv *prometheus.CounterVec, label string) float64 {
	return metricValue(cv.WithLabelValues(label))
}

func metricValue(c prometheus.Metric) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	switch {
	case m.Counter != nil && m.Counter.Value != nil:
		return *m.Counter.Value
	case m.Gauge != nil && m.Gauge.Value != nil:
		return *m.Gauge.Value
	}
	return 0
}
