package domain

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// SortOrder orders bid listings by submission time.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder maps a query value to a SortOrder; anything but "asc"
// means newest first.
func ParseSortOrder(v string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(v), string(SortAsc)) {
		return SortAsc
	}
	return SortDesc
}

// BidListOptions controls a route bid listing.
type BidListOptions struct {
	Order  SortOrder
	Search string
}

// SortBids returns a copy of bids ordered by SubmittedAt. Bids with equal
// timestamps keep their original relative order.
func SortBids(bids []Bid, order SortOrder) []Bid {
	out := make([]Bid, len(bids))
	copy(out, bids)
	sort.SliceStable(out, func(i, j int) bool {
		if order == SortAsc {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out
}

// FilterBids keeps bids whose vendor id or vendor email contains search,
// ignoring case. An empty search keeps everything.
func FilterBids(bids []Bid, search string) []Bid {
	needle := cases.Fold().String(strings.TrimSpace(search))
	if needle == "" {
		return bids
	}
	fold := cases.Fold()
	out := make([]Bid, 0, len(bids))
	for _, b := range bids {
		if strings.Contains(fold.String(b.VendorID), needle) || strings.Contains(fold.String(b.VendorEmail), needle) {
			out = append(out, b)
		}
	}
	return out
}

// RegionBidCounts counts bids per origin region.
func RegionBidCounts(bids []Bid) map[string]int {
	counts := make(map[string]int)
	for _, b := range bids {
		counts[b.OriginID]++
	}
	return counts
}

// VendorBidCounts splits one vendor's bids per origin region by status.
// Any status other than submitted counts as pending.
func VendorBidCounts(bids []Bid, vendorID string) map[string]BidCounts {
	counts := make(map[string]BidCounts)
	for _, b := range bids {
		if b.VendorID != vendorID {
			continue
		}
		c := counts[b.OriginID]
		if b.Status == BidSubmitted {
			c.Submitted++
		} else {
			c.Pending++
		}
		counts[b.OriginID] = c
	}
	return counts
}

// OriginOverview is an origin region annotated for one vendor.
type OriginOverview struct {
	City
	Favorite bool      `json:"favorite"`
	Counts   BidCounts `json:"counts"`
	Routes   int       `json:"routes"`
}

// Dashboard is the admin landing summary.
type Dashboard struct {
	Statistics      Statistics         `json:"statistics"`
	RegionBidCounts map[string]int     `json:"regionBidCounts"`
	Vendors         VendorStatusTotals `json:"vendors"`
	Routes          int                `json:"routes"`
}
