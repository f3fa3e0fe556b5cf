package domain

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// BidStatus is the review state of a bid.
type BidStatus string

const (
	BidPending   BidStatus = "pending"
	BidSubmitted BidStatus = "submitted"
)

// ValidBidStatus reports whether s is a known bid status.
func ValidBidStatus(s BidStatus) bool {
	switch s {
	case BidPending, BidSubmitted:
		return true
	default:
		return false
	}
}

// AccessorialKeys is the fixed set of supplemental fees a bid may carry.
var AccessorialKeys = []string{
	"chassis",
	"yardStorage",
	"hazmat",
	"bond",
	"split",
	"flip",
	"overweight",
	"prepull",
}

// AccessorialFees maps accessorial names to flat fee amounts.
type AccessorialFees map[string]float64

// NormalizeAccessorials returns a full fee map: every known key present,
// negative and non-finite amounts floored to zero. Unknown keys are rejected.
func NormalizeAccessorials(in AccessorialFees) (AccessorialFees, error) {
	out := make(AccessorialFees, len(AccessorialKeys))
	for _, k := range AccessorialKeys {
		out[k] = 0
	}
	for k, v := range in {
		if _, ok := out[k]; !ok {
			return nil, &ErrValidation{Field: "accessorials." + k, Message: fmt.Sprintf("unknown accessorial %q", k)}
		}
		out[k] = ClampAmount(v)
	}
	return out, nil
}

// Sum adds the fees in key order, skipping non-finite values.
func (f AccessorialFees) Sum() float64 {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var total float64
	for _, k := range keys {
		if v := f[k]; !math.IsNaN(v) && !math.IsInf(v, 0) {
			total += v
		}
	}
	return total
}

// ClampAmount floors negative and non-finite amounts to zero.
func ClampAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Bid is one vendor's priced offer for one lane. There is at most one bid
// per (vendor, route); Total is always derived at write time.
type Bid struct {
	ID            string          `json:"id"`
	VendorID      string          `json:"vendorId"`
	VendorEmail   string          `json:"vendorEmail"`
	RouteID       string          `json:"routeId"`
	OriginID      string          `json:"originId"`
	DestinationID string          `json:"destinationId"`
	BaseRate      float64         `json:"baseRate"`
	FSC           float64         `json:"fsc"`
	Accessorials  AccessorialFees `json:"accessorials"`
	Total         float64         `json:"total"`
	SubmittedAt   time.Time       `json:"submittedAt"`
	Status        BidStatus       `json:"status"`
	Version       int             `json:"version"`
}

// BidID derives the bid id for a (route, vendor) pair.
func BidID(routeID, vendorID string) string {
	return fmt.Sprintf("bid-%s-%s", routeID, vendorID)
}

// BidSubmission is the body for POST /v1/vendor/bids.
type BidSubmission struct {
	RouteID         string          `json:"routeId"`
	VendorID        string          `json:"vendorId,omitempty"` // admins only
	BaseRate        float64         `json:"baseRate"`
	FSC             float64         `json:"fsc"`
	Accessorials    AccessorialFees `json:"accessorials"`
	Status          BidStatus       `json:"status,omitempty"`
	ExpectedVersion int             `json:"expectedVersion,omitempty"`
}

// BidCounts splits a vendor's bids in one region by status.
type BidCounts struct {
	Submitted int `json:"submitted"`
	Pending   int `json:"pending"`
}
