package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lanebid/drayage-portal/internal/domain"
	"github.com/lanebid/drayage-portal/internal/service"
)

// ============================================================
// SubmitBid
// ============================================================

func TestSubmitBid_ComputesTotal(t *testing.T) {
	e := newEnv(t)
	v6 := domain.Identity{Role: domain.RoleVendor, VendorID: "v6"}

	bid, err := e.lane.SubmitBid(context.Background(), v6, domain.BidSubmission{
		RouteID:  "route-atl-abbeville-sc",
		BaseRate: 275,
		FSC:      10.34,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bid.Total != 303.44 {
		t.Errorf("total = %v, want 303.44", bid.Total)
	}
	if bid.ID != "bid-route-atl-abbeville-sc-v6" {
		t.Errorf("id = %q", bid.ID)
	}
	if bid.Status != domain.BidSubmitted {
		t.Errorf("status = %q, want submitted", bid.Status)
	}
	if bid.OriginID != "atl" || bid.DestinationID != "abbeville-sc" {
		t.Errorf("lane = %s → %s", bid.OriginID, bid.DestinationID)
	}
	if bid.VendorEmail != "vendor3@example.com" {
		t.Errorf("vendor email = %q", bid.VendorEmail)
	}
	if len(bid.Accessorials) != len(domain.AccessorialKeys) {
		t.Errorf("accessorials not normalized: %v", bid.Accessorials)
	}

	got := e.events.types()
	if len(got) != 1 || got[0] != domain.EventBidSubmitted {
		t.Errorf("events = %v", got)
	}
	if s := e.metrics.Snapshot(); s.BidsSubmitted != 1 {
		t.Errorf("bids metric = %d, want 1", s.BidsSubmitted)
	}
}

func TestSubmitBid_AccessorialsAndClamping(t *testing.T) {
	e := newEnv(t)
	v6 := domain.Identity{Role: domain.RoleVendor, VendorID: "v6"}

	bid, err := e.lane.SubmitBid(context.Background(), v6, domain.BidSubmission{
		RouteID:      "route-atl-augusta-ga",
		BaseRate:     275,
		FSC:          10.34,
		Accessorials: domain.AccessorialFees{"chassis": 45.5, "hazmat": -10},
		Status:       domain.BidPending,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bid.Total != 348.94 {
		t.Errorf("total = %v, want 348.94", bid.Total)
	}
	if bid.Accessorials["hazmat"] != 0 {
		t.Errorf("negative fee not clamped: %v", bid.Accessorials["hazmat"])
	}

	neg, err := e.lane.SubmitBid(context.Background(), v6, domain.BidSubmission{
		RouteID:  "route-atl-pooler-ga",
		BaseRate: -100,
		FSC:      -5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if neg.BaseRate != 0 || neg.FSC != 0 || neg.Total != 0 {
		t.Errorf("negatives not clamped: %+v", neg)
	}
}

func TestSubmitBid_RejectsOversizedAmounts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	v6 := domain.Identity{Role: domain.RoleVendor, VendorID: "v6"}

	subs := []domain.BidSubmission{
		{RouteID: "route-atl-abbeville-sc", BaseRate: 1e40, FSC: 5},
		{RouteID: "route-atl-abbeville-sc", BaseRate: 275, FSC: 1e40},
		{RouteID: "route-atl-abbeville-sc", BaseRate: 275, Accessorials: domain.AccessorialFees{"chassis": 1e40}},
	}
	for _, sub := range subs {
		_, err := e.lane.SubmitBid(ctx, v6, sub)
		assertErrAs[*domain.ErrValidation](t, err)
	}

	bids, _ := e.store.ListBidsForVendor(ctx, "v6")
	if len(bids) != 0 {
		t.Errorf("bids stored on rejection: %d", len(bids))
	}
}

func TestSubmitBid_ResubmitReplaces(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	v6 := domain.Identity{Role: domain.RoleVendor, VendorID: "v6"}
	sub := domain.BidSubmission{RouteID: "route-atl-pooler-ga", BaseRate: 300, FSC: 11.11}

	first, err := e.lane.SubmitBid(ctx, v6, sub)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	sub.BaseRate = 310
	second, err := e.lane.SubmitBid(ctx, v6, sub)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("bid id changed: %s → %s", first.ID, second.ID)
	}
	if second.Version != first.Version+1 {
		t.Errorf("version = %d, want %d", second.Version, first.Version+1)
	}

	vendor, err := e.store.GetVendor(ctx, "v6")
	if err != nil {
		t.Fatalf("get vendor: %v", err)
	}
	if vendor.TotalBids != 1 {
		t.Errorf("totalBids = %d, want 1", vendor.TotalBids)
	}

	bids, _ := e.store.ListBidsByRoute(ctx, "route-atl-pooler-ga")
	count := 0
	for _, b := range bids {
		if b.VendorID == "v6" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("bids for v6 on route = %d, want 1", count)
	}
}

func TestSubmitBid_ReusesSeededBidID(t *testing.T) {
	e := newEnv(t)
	v1 := domain.Identity{Role: domain.RoleVendor, VendorID: "v1"}

	bid, err := e.lane.SubmitBid(context.Background(), v1, domain.BidSubmission{
		RouteID: "route-atl-abbeville-sc", BaseRate: 280, FSC: 10.53, ExpectedVersion: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bid.ID != "bid-route-atl-abbeville-sc-v1" || bid.Version != 2 {
		t.Errorf("bid = %s v%d", bid.ID, bid.Version)
	}

	_, err = e.lane.SubmitBid(context.Background(), v1, domain.BidSubmission{
		RouteID: "route-atl-abbeville-sc", BaseRate: 280, FSC: 10.53, ExpectedVersion: 1,
	})
	assertErrAs[*domain.ErrConflict](t, err)
}

func TestSubmitBid_Rejections(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.lane.SubmitBid(ctx, domain.Identity{Role: domain.RoleVendor, VendorID: "v5"},
		domain.BidSubmission{RouteID: "route-atl-pooler-ga"})
	blocked := assertErrAs[*domain.ErrAccountBlocked](t, err)
	if blocked.Error() != "Your account has been blocked. Please contact support." {
		t.Errorf("message = %q", blocked.Error())
	}

	_, err = e.lane.SubmitBid(ctx, domain.Identity{Role: domain.RoleVendor, VendorID: "v3"},
		domain.BidSubmission{RouteID: "route-atl-pooler-ga"})
	inactive := assertErrAs[*domain.ErrAccountBlocked](t, err)
	if inactive.Status != domain.VendorInactive {
		t.Errorf("status = %q", inactive.Status)
	}

	_, err = e.lane.SubmitBid(ctx, plainV2, domain.BidSubmission{RouteID: "route-nowhere"})
	assertErrAs[*domain.ErrNotFound](t, err)

	_, err = e.lane.SubmitBid(ctx, plainV2, domain.BidSubmission{
		RouteID: "route-atl-pooler-ga", Accessorials: domain.AccessorialFees{"tolls": 5},
	})
	assertErrAs[*domain.ErrValidation](t, err)

	_, err = e.lane.SubmitBid(ctx, admin, domain.BidSubmission{RouteID: "route-atl-pooler-ga"})
	assertErrAs[*domain.ErrValidation](t, err)

	_, err = e.lane.SubmitBid(ctx, plainV2, domain.BidSubmission{RouteID: "route-atl-pooler-ga", VendorID: "v4"})
	assertErrAs[*domain.ErrForbidden](t, err)

	if _, err := e.lane.SubmitBid(ctx, admin, domain.BidSubmission{RouteID: "route-atl-pooler-ga", VendorID: "v7"}); err != nil {
		t.Errorf("admin on behalf of vendor: %v", err)
	}
}

// ============================================================
// CreateRoute
// ============================================================

func TestCreateRoute_Idempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	req := domain.CreateRouteRequest{OriginID: "sav", DestinationID: "pooler-ga"}

	route, created, err := e.lane.CreateRoute(ctx, admin, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created || route.ID != "route-sav-pooler-ga" {
		t.Errorf("route = %s created=%v", route.ID, created)
	}
	if route.Origin.Name != "Savannah" || !route.Destination.IsInland {
		t.Errorf("city snapshots not filled: %+v", route)
	}

	again, created, err := e.lane.CreateRoute(ctx, admin, req)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if created || again.ID != route.ID {
		t.Errorf("second create = %s created=%v", again.ID, created)
	}

	routes, _ := e.store.ListRoutes(ctx)
	if len(routes) != 4 {
		t.Errorf("routes = %d, want 4", len(routes))
	}
	if got := e.events.types(); len(got) != 1 || got[0] != domain.EventRouteCreated {
		t.Errorf("events = %v", got)
	}
}

func TestCreateRoute_Rejections(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, _, err := e.lane.CreateRoute(ctx, admin, domain.CreateRouteRequest{OriginID: "atl", DestinationID: "atlantis"})
	nf := assertErrAs[*domain.ErrNotFound](t, err)
	if nf.ID != "atlantis" {
		t.Errorf("not found id = %q", nf.ID)
	}

	_, _, err = e.lane.CreateRoute(ctx, admin, domain.CreateRouteRequest{OriginID: "atlantis", DestinationID: "pooler-ga"})
	nf = assertErrAs[*domain.ErrNotFound](t, err)
	if nf.ID != "atlantis" {
		t.Errorf("not found id = %q", nf.ID)
	}

	_, _, err = e.lane.CreateRoute(ctx, admin, domain.CreateRouteRequest{OriginID: "pooler-ga", DestinationID: "augusta-ga"})
	assertErrAs[*domain.ErrValidation](t, err)

	_, _, err = e.lane.CreateRoute(ctx, plainV2, domain.CreateRouteRequest{OriginID: "sav", DestinationID: "pooler-ga"})
	assertErrAs[*domain.ErrForbidden](t, err)

	routes, _ := e.store.ListRoutes(ctx)
	if len(routes) != 3 {
		t.Errorf("routes mutated on failure: %d", len(routes))
	}
}

// ============================================================
// Vendors
// ============================================================

func TestAddVendor_DuplicateEmailIgnoresCase(t *testing.T) {
	e := newEnv(t)

	_, err := e.lane.AddVendor(context.Background(), admin, domain.AddVendorRequest{Email: "  JOHN.SMITH@Transport.com "})
	conflict := assertErrAs[*domain.ErrConflict](t, err)
	if conflict.Message != "Vendor with this email already exists" {
		t.Errorf("message = %q", conflict.Message)
	}

	_, err = e.lane.AddVendor(context.Background(), admin, domain.AddVendorRequest{Email: "not-an-email"})
	assertErrAs[*domain.ErrValidation](t, err)
}

func TestAddVendor_RetriesMCIDCollision(t *testing.T) {
	calls := 0
	gen := func() (string, error) {
		calls++
		if calls == 1 {
			return "MC-123456", nil // v1's
		}
		return "MC-555555", nil
	}
	e := newEnv(t, service.WithMCIDGenerator(gen))

	v, err := e.lane.AddVendor(context.Background(), admin, domain.AddVendorRequest{Email: "new@carrier.com", CanWhitelistVendors: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.MCID != "MC-555555" || calls != 2 {
		t.Errorf("mcid = %s after %d calls", v.MCID, calls)
	}
	if v.Status != domain.VendorActive || !v.CanWhitelistVendors || v.Email != "new@carrier.com" {
		t.Errorf("vendor = %+v", v)
	}
}

func TestAddVendor_GivesUpAfterBoundedAttempts(t *testing.T) {
	calls := 0
	e := newEnv(t, service.WithMCIDGenerator(func() (string, error) {
		calls++
		return "MC-123456", nil
	}))

	_, err := e.lane.AddVendor(context.Background(), admin, domain.AddVendorRequest{Email: "new@carrier.com"})
	assertErrAs[*domain.ErrConflict](t, err)
	if calls != 10 {
		t.Errorf("attempts = %d, want 10", calls)
	}
}

func TestAddVendor_SubVendor(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	v, err := e.lane.AddVendor(ctx, privileged, domain.AddVendorRequest{Email: "sub@carrier.com", CanWhitelistVendors: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.CreatedByVendorID != "v1" || v.CanWhitelistVendors {
		t.Errorf("sub-vendor = %+v", v)
	}

	own, err := e.lane.ListVendors(ctx, privileged)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(own) != 1 || own[0].ID != v.ID {
		t.Errorf("own vendors = %+v", own)
	}

	all, err := e.lane.ListVendors(ctx, admin)
	if err != nil {
		t.Fatalf("list admin: %v", err)
	}
	if len(all) != 10 {
		t.Errorf("all vendors = %d, want 10", len(all))
	}

	_, err = e.lane.AddVendor(ctx, plainV2, domain.AddVendorRequest{Email: "x@carrier.com"})
	assertErrAs[*domain.ErrForbidden](t, err)
}

func TestAddVendor_RevokedPrivilegeIsEnforced(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	if _, err := e.lane.UpdateVendorWhitelistPermission(ctx, admin, "v1", domain.UpdateWhitelistRequest{CanWhitelistVendors: false}); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	// The token still claims the privilege.
	_, err := e.lane.AddVendor(ctx, privileged, domain.AddVendorRequest{Email: "sub@carrier.com"})
	assertErrAs[*domain.ErrForbidden](t, err)
}

func TestBulkAddVendors(t *testing.T) {
	e := newEnv(t)

	res, err := e.lane.BulkAddVendors(context.Background(), admin,
		"a@b.com, a@b.com, bad, c@d.com, John.Smith@transport.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(res.Batch.Valid, ",") != "a@b.com,c@d.com" {
		t.Errorf("valid = %v", res.Batch.Valid)
	}
	if strings.Join(res.Batch.Invalid, ",") != "bad" {
		t.Errorf("invalid = %v", res.Batch.Invalid)
	}
	if strings.Join(res.Batch.Duplicates, ",") != "a@b.com,john.smith@transport.com" {
		t.Errorf("duplicates = %v", res.Batch.Duplicates)
	}
	if len(res.Created) != 2 {
		t.Errorf("created = %d, want 2", len(res.Created))
	}
}

func TestImportVendorsCSV(t *testing.T) {
	e := newEnv(t)

	csv := "email,company\nnew1@carrier.com,Acme\n\"new2@carrier.com\",Beta\nbroken\nvendor1@example.com,Dup\n"
	res, err := e.lane.ImportVendorsCSV(context.Background(), admin, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Created) != 2 {
		t.Errorf("created = %d, want 2", len(res.Created))
	}
	if len(res.Batch.Invalid) != 1 || len(res.Batch.Duplicates) != 1 {
		t.Errorf("batch = %+v", res.Batch)
	}
}

func TestGrantWhitelistPermission(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	res, err := e.lane.GrantWhitelistPermission(ctx, admin, "sarah.j@logistics.com, john.smith@transport.com, nobody@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Granted) != 1 || res.Granted[0] != "sarah.j@logistics.com" {
		t.Errorf("granted = %v", res.Granted)
	}
	if len(res.Unchanged) != 1 || len(res.Unknown) != 1 {
		t.Errorf("unchanged = %v unknown = %v", res.Unchanged, res.Unknown)
	}

	v2, _ := e.store.GetVendor(ctx, "v2")
	if !v2.CanWhitelistVendors {
		t.Error("v2 not granted")
	}

	_, err = e.lane.GrantWhitelistPermission(ctx, privileged, "sarah.j@logistics.com")
	assertErrAs[*domain.ErrForbidden](t, err)
}

func TestUpdateVendorStatus(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	v, err := e.lane.UpdateVendorStatus(ctx, admin, "v2", domain.UpdateVendorStatusRequest{Status: domain.VendorBlocked})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Status != domain.VendorBlocked {
		t.Errorf("status = %q", v.Status)
	}

	_, err = e.lane.UpdateVendorStatus(ctx, admin, "ghost", domain.UpdateVendorStatusRequest{Status: domain.VendorActive})
	assertErrAs[*domain.ErrNotFound](t, err)

	_, err = e.lane.UpdateVendorStatus(ctx, privileged, "v4", domain.UpdateVendorStatusRequest{Status: domain.VendorBlocked})
	assertErrAs[*domain.ErrForbidden](t, err)

	_, err = e.lane.UpdateVendorStatus(ctx, admin, "v4", domain.UpdateVendorStatusRequest{Status: "paused"})
	assertErrAs[*domain.ErrValidation](t, err)
}

func TestDeleteVendor_Cascades(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	if _, err := e.lane.SaveTemplate(ctx, "v2", domain.SaveTemplateRequest{Name: "Std"}); err != nil {
		t.Fatalf("save template: %v", err)
	}
	if _, err := e.lane.ToggleFavorite(ctx, "v2", "atl"); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	if err := e.lane.DeleteVendor(ctx, admin, "v2"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := e.store.GetVendor(ctx, "v2"); err == nil {
		t.Error("vendor still present")
	}
	bids, _ := e.store.ListBidsForVendor(ctx, "v2")
	templates, _ := e.store.ListTemplates(ctx, "v2")
	favs, _ := e.store.ListFavorites(ctx, "v2")
	if len(bids)+len(templates)+len(favs) != 0 {
		t.Errorf("leftovers: bids=%d templates=%d favorites=%d", len(bids), len(templates), len(favs))
	}

	err := e.lane.DeleteVendor(ctx, admin, "v2")
	assertErrAs[*domain.ErrNotFound](t, err)
}

// ============================================================
// Templates & favorites
// ============================================================

func TestSaveTemplate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.lane.SaveTemplate(ctx, "", domain.SaveTemplateRequest{Name: "x"})
	if v := assertErrAs[*domain.ErrValidation](t, err); v.Message != "Vendor ID is required" {
		t.Errorf("message = %q", v.Message)
	}

	_, err = e.lane.SaveTemplate(ctx, "v2", domain.SaveTemplateRequest{Name: "   "})
	if v := assertErrAs[*domain.ErrValidation](t, err); v.Message != "Template name is required" {
		t.Errorf("message = %q", v.Message)
	}

	tmpl, err := e.lane.SaveTemplate(ctx, "v2", domain.SaveTemplateRequest{
		Name:         " Hazmat Run ",
		Accessorials: domain.AccessorialFees{"hazmat": 150},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if tmpl.Name != "Hazmat Run" || tmpl.Accessorials["hazmat"] != 150 {
		t.Errorf("template = %+v", tmpl)
	}

	_, err = e.lane.SaveTemplate(ctx, "v2", domain.SaveTemplateRequest{Name: "hazmat run"})
	if c := assertErrAs[*domain.ErrConflict](t, err); c.Message != "Template with this name already exists" {
		t.Errorf("message = %q", c.Message)
	}

	list, err := e.lane.ListTemplates(ctx, "v2")
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %v, %v", list, err)
	}
	if err := e.lane.DeleteTemplate(ctx, "v2", tmpl.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	err = e.lane.DeleteTemplate(ctx, "v2", tmpl.ID)
	assertErrAs[*domain.ErrNotFound](t, err)
}

func TestToggleFavorite(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	res, err := e.lane.ToggleFavorite(ctx, "v2", "sav")
	if err != nil || !res.Favorited {
		t.Fatalf("first toggle = %+v, %v", res, err)
	}
	res, err = e.lane.ToggleFavorite(ctx, "v2", "sav")
	if err != nil || res.Favorited {
		t.Fatalf("second toggle = %+v, %v", res, err)
	}

	_, err = e.lane.ToggleFavorite(ctx, "v2", "mars")
	assertErrAs[*domain.ErrNotFound](t, err)

	_, err = e.lane.ToggleFavorite(ctx, "v2", "")
	assertErrAs[*domain.ErrValidation](t, err)

	favs, err := e.lane.ListFavorites(ctx, "v2")
	if err != nil || len(favs) != 0 {
		t.Errorf("favorites = %v, %v", favs, err)
	}
}

func TestSubmitBid_AnonymousCallerForbidden(t *testing.T) {
	e := newEnv(t)
	_, err := e.lane.SubmitBid(context.Background(), domain.Identity{}, domain.BidSubmission{})
	if !errors.As(err, new(*domain.ErrForbidden)) {
		t.Errorf("anonymous bid: %v", err)
	}
}
