package domain_test

import (
	"testing"

	"github.com/lanebid/drayage-portal/internal/domain"
)

func TestCityLabel(t *testing.T) {
	if got := (domain.City{Name: "Pooler", State: "GA"}).Label(); got != "Pooler, GA" {
		t.Errorf("label = %q", got)
	}
	if got := (domain.City{Name: "Savannah"}).Label(); got != "Savannah" {
		t.Errorf("label = %q", got)
	}
}
