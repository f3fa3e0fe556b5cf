package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// AccessorialTemplate is a vendor's saved set of accessorial fees.
type AccessorialTemplate struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	VendorID     string          `json:"vendorId"`
	Accessorials AccessorialFees `json:"accessorials"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// SaveTemplateRequest is the body for POST /v1/vendor/templates.
type SaveTemplateRequest struct {
	Name         string          `json:"name"`
	Accessorials AccessorialFees `json:"accessorials"`
}

// TemplateNameKey is the comparison key for template names: trimmed and
// case-folded.
func TemplateNameKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// Favorite marks an origin region a vendor follows.
type Favorite struct {
	VendorID string `json:"vendorId"`
	RegionID string `json:"regionId"`
}

// ToggleFavoriteResponse reports the membership after a toggle.
type ToggleFavoriteResponse struct {
	RegionID  string `json:"regionId"`
	Favorited bool   `json:"favorited"`
}
