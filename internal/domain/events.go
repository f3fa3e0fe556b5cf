package domain

import "time"

// Statistics are aggregate counters shown on the admin dashboard. They are
// seeded, not recomputed from live data.
type Statistics struct {
	TotalBids    int `json:"totalBids"`
	BidsLast24h  int `json:"bidsLast24h"`
	BidsLast7d   int `json:"bidsLast7d"`
	ActiveRoutes int `json:"activeRoutes"`
}

// Event types published to live subscribers.
const (
	EventBidSubmitted        = "bid.submitted"
	EventRouteCreated        = "route.created"
	EventVendorCreated       = "vendor.created"
	EventVendorStatusChanged = "vendor.status_changed"
	EventVendorDeleted       = "vendor.deleted"
)

// Event is a change notification fanned out to admin subscribers.
type Event struct {
	Type    string    `json:"type"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload"`
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType string, payload any) Event {
	return Event{Type: eventType, At: time.Now().UTC(), Payload: payload}
}

// ExportResult describes an uploaded CSV export.
type ExportResult struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Rows int    `json:"rows"`
}
