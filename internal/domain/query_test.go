package domain_test

import (
	"testing"
	"time"

	"github.com/lanebid/drayage-portal/internal/domain"
)

func bidIDs(bids []domain.Bid) string {
	var s string
	for _, b := range bids {
		s += b.ID
	}
	return s
}

func TestSortBids_EqualTimestampsKeepOrder(t *testing.T) {
	at := time.Date(2025, 1, 14, 14, 20, 0, 0, time.UTC)
	bids := []domain.Bid{
		{ID: "a", SubmittedAt: at},
		{ID: "b", SubmittedAt: at},
		{ID: "c", SubmittedAt: at.Add(time.Hour)},
		{ID: "d", SubmittedAt: at},
	}

	if got := bidIDs(domain.SortBids(bids, domain.SortAsc)); got != "abdc" {
		t.Errorf("asc = %s, want abdc", got)
	}
	if got := bidIDs(domain.SortBids(bids, domain.SortDesc)); got != "cabd" {
		t.Errorf("desc = %s, want cabd", got)
	}
	if got := bidIDs(bids); got != "abcd" {
		t.Errorf("input reordered: %s", got)
	}
}
