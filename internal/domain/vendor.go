package domain

import (
	"regexp"
	"time"
)

// VendorStatus is the lifecycle state of a vendor.
type VendorStatus string

const (
	VendorActive   VendorStatus = "active"
	VendorInactive VendorStatus = "inactive"
	VendorBlocked  VendorStatus = "blocked"
)

// ValidVendorStatus reports whether s is a known vendor status.
func ValidVendorStatus(s VendorStatus) bool {
	switch s {
	case VendorActive, VendorInactive, VendorBlocked:
		return true
	default:
		return false
	}
}

var mcidPattern = regexp.MustCompile(`^MC-\d{6}$`)

// ValidMCID reports whether mcid has the carrier identifier shape MC-######.
func ValidMCID(mcid string) bool {
	return mcidPattern.MatchString(mcid)
}

// Vendor is a freight carrier allowed to bid on lanes.
//
// TotalBids is derived: the store recounts it on every bid upsert.
// Version increments on every write and backs optimistic concurrency.
type Vendor struct {
	ID                  string       `json:"id"`
	MCID                string       `json:"mcid"`
	Email               string       `json:"email"`
	Status              VendorStatus `json:"status"`
	TotalBids           int          `json:"totalBids"`
	JoinedDate          time.Time    `json:"joinedDate"`
	CreatedByVendorID   string       `json:"createdByVendorId,omitempty"`
	CanWhitelistVendors bool         `json:"canWhitelistVendors"`
	Version             int          `json:"version"`
}

// ============================================================
// Vendor management — request / response types
// ============================================================

// AddVendorRequest is the body for POST /v1/admin/vendors and
// POST /v1/vendor/sub-vendors.
type AddVendorRequest struct {
	Email               string `json:"email"`
	CanWhitelistVendors bool   `json:"canWhitelistVendors"`
}

// BulkVendorsRequest carries a comma-delimited list of emails.
type BulkVendorsRequest struct {
	Emails string `json:"emails"`
}

// BulkVendorsResult reports the outcome of a bulk whitelist action.
type BulkVendorsResult struct {
	Batch   EmailBatch `json:"batch"`
	Created []Vendor   `json:"created"`
}

// WhitelistGrantResult reports a bulk permission grant.
type WhitelistGrantResult struct {
	Batch     EmailBatch `json:"batch"`
	Granted   []string   `json:"granted"`
	Unchanged []string   `json:"unchanged"`
	Unknown   []string   `json:"unknown"`
}

// UpdateVendorStatusRequest is the body for PUT /v1/admin/vendors/{vendorId}/status.
type UpdateVendorStatusRequest struct {
	Status          VendorStatus `json:"status"`
	ExpectedVersion int          `json:"expectedVersion,omitempty"`
}

// UpdateWhitelistRequest is the body for PUT /v1/admin/vendors/{vendorId}/whitelist.
type UpdateWhitelistRequest struct {
	CanWhitelistVendors bool `json:"canWhitelistVendors"`
	ExpectedVersion     int  `json:"expectedVersion,omitempty"`
}

// VendorStatusTotals counts vendors per status for the admin dashboard.
type VendorStatusTotals struct {
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	Blocked  int `json:"blocked"`
}
