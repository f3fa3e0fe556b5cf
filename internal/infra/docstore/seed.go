package docstore

import (
	"fmt"
	"time"

	"github.com/lanebid/drayage-portal/internal/domain"
	"github.com/lanebid/drayage-portal/internal/port"
)

// PasswordHasher hashes a plaintext password for storage.
type PasswordHasher func(password string) (string, error)

// Demo credentials created by DemoSeed.
const (
	DemoAdminEmail     = "admin@gmail.com"
	DemoAdminPassword  = "123456"
	DemoVendorEmail    = "vendor@gmail.com"
	DemoVendorPassword = "qwerty"
)

type seedVendor struct {
	id, mcid, email string
	status          domain.VendorStatus
	joined          string
	canWhitelist    bool
}

var demoVendors = []seedVendor{
	{"v1", "MC-123456", "john.smith@transport.com", domain.VendorActive, "2024-01-15", true},
	{"v2", "MC-789012", "sarah.j@logistics.com", domain.VendorActive, "2024-02-20", false},
	{"v3", "MC-345678", "mike@davisfreight.com", domain.VendorInactive, "2023-11-10", false},
	{"v4", "MC-901234", "vendor1@example.com", domain.VendorActive, "2024-03-05", false},
	{"v5", "MC-567890", "vendor2@example.com", domain.VendorBlocked, "2024-04-12", false},
	{"v6", "MC-234567", "vendor3@example.com", domain.VendorActive, "2024-05-18", false},
	{"v7", "MC-890123", "vendor4@example.com", domain.VendorActive, "2024-06-22", false},
	{"v8", "MC-456789", "vendor5@example.com", domain.VendorActive, "2024-07-08", false},
	{"v9", "MC-012345", "vendor6@example.com", domain.VendorActive, "2024-08-15", false},
}

var (
	demoOrigin       = "atl"
	demoDestinations = []string{"abbeville-sc", "augusta-ga", "pooler-ga"}
	demoBaseRates    = []float64{275, 280, 285, 290, 295, 300}
	demoFSC          = []float64{10.34, 10.53, 10.71, 10.91, 11.11}
)

// DemoSeed builds the demonstration dataset: nine vendors, three Atlanta
// lanes with bids, dashboard statistics, and one admin and one vendor login.
func DemoSeed(cat port.Catalog, hash PasswordHasher) SeedFunc {
	return func() (*Document, error) {
		doc := &Document{
			Vendors:              []domain.Vendor{},
			Routes:               []domain.Route{},
			Bids:                 []domain.Bid{},
			Accounts:             []domain.Account{},
			PendingRegistrations: []domain.PendingRegistration{},
			Templates:            []domain.AccessorialTemplate{},
			Favorites:            []domain.Favorite{},
			Statistics: domain.Statistics{
				TotalBids:    1117,
				BidsLast24h:  23,
				BidsLast7d:   147,
				ActiveRoutes: 439,
			},
		}

		for _, sv := range demoVendors {
			joined, err := time.Parse("2006-01-02", sv.joined)
			if err != nil {
				return nil, fmt.Errorf("seed vendor %s: %w", sv.id, err)
			}
			doc.Vendors = append(doc.Vendors, domain.Vendor{
				ID:                  sv.id,
				MCID:                sv.mcid,
				Email:               sv.email,
				Status:              sv.status,
				JoinedDate:          joined,
				CanWhitelistVendors: sv.canWhitelist,
				Version:             1,
			})
		}

		origin, ok := cat.LookupByID(demoOrigin)
		if !ok {
			return nil, fmt.Errorf("seed: origin %q missing from catalog", demoOrigin)
		}
		created := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
		for routeIdx, destID := range demoDestinations {
			dest, ok := cat.LookupByID(destID)
			if !ok {
				return nil, fmt.Errorf("seed: destination %q missing from catalog", destID)
			}
			route := domain.Route{
				ID:            domain.RouteID(origin.ID, dest.ID),
				OriginID:      origin.ID,
				DestinationID: dest.ID,
				Origin:        origin,
				Destination:   dest,
				CreatedAt:     created,
			}
			doc.Routes = append(doc.Routes, route)

			bids, err := demoBids(route, routeIdx, doc.Vendors[:3+routeIdx%3])
			if err != nil {
				return nil, err
			}
			doc.Bids = append(doc.Bids, bids...)
		}

		for _, v := range doc.Vendors {
			doc.recountVendorBids(v.ID)
		}

		adminHash, err := hash(DemoAdminPassword)
		if err != nil {
			return nil, fmt.Errorf("seed: hash admin password: %w", err)
		}
		doc.Accounts = append(doc.Accounts, domain.NewAdminAccount("acct-admin", DemoAdminEmail, adminHash))

		vendorHash, err := hash(DemoVendorPassword)
		if err != nil {
			return nil, fmt.Errorf("seed: hash vendor password: %w", err)
		}
		// The demo vendor login uses its own email but acts for v1.
		linked := doc.Vendors[0]
		vendorAcct := domain.NewVendorAccount(linked, vendorHash)
		vendorAcct.Email = DemoVendorEmail
		doc.Accounts = append(doc.Accounts, vendorAcct)

		return doc, nil
	}
}

func demoBids(route domain.Route, routeIdx int, vendors []domain.Vendor) ([]domain.Bid, error) {
	bids := make([]domain.Bid, 0, len(vendors))
	for vendorIdx, v := range vendors {
		base := demoBaseRates[vendorIdx%len(demoBaseRates)]
		fsc := demoFSC[vendorIdx%len(demoFSC)]
		fees, err := domain.NormalizeAccessorials(nil)
		if err != nil {
			return nil, err
		}
		total, err := domain.BidTotal(base, fsc, fees)
		if err != nil {
			return nil, fmt.Errorf("seed bid %s/%s: %w", route.ID, v.ID, err)
		}
		status := domain.BidSubmitted
		if vendorIdx%4 == 0 {
			status = domain.BidPending
		}
		bids = append(bids, domain.Bid{
			ID:            domain.BidID(route.ID, v.ID),
			VendorID:      v.ID,
			VendorEmail:   v.Email,
			RouteID:       route.ID,
			OriginID:      route.OriginID,
			DestinationID: route.DestinationID,
			BaseRate:      base,
			FSC:           fsc,
			Accessorials:  fees,
			Total:         total,
			SubmittedAt:   time.Date(2025, time.January, 14-vendorIdx-routeIdx, 14+vendorIdx, 20, 0, 0, time.UTC),
			Status:        status,
			Version:       1,
		})
	}
	return bids, nil
}
