// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"errors"
	"io"

	"github.com/lanebid/drayage-portal/internal/domain"
)

// ErrKeyNotFound is returned by KV backends when a key has no value.
var ErrKeyNotFound = errors.New("kv: key not found")

// KV is a byte-oriented key-value backend holding whole documents.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Catalog is the static reference list of regions and locations.
type Catalog interface {
	LookupByID(id string) (domain.City, bool)
	ListOrigins() []domain.City
	ListDestinations() []domain.City
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// EventPublisher fans change notifications out to live subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event)
}

// ObjectStore uploads export artifacts and returns a retrievable URL.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// RouteBuilder constructs a new route; it runs only when the pair is absent.
type RouteBuilder func() (domain.Route, error)

// Store defines all data operations of the portal.
// Implemented by the document store (or any other persistence layer).
// Missing vendors, templates and registrations are reported as
// *domain.ErrNotFound. An expectedVersion of 0 skips the optimistic
// concurrency check.
type Store interface {
	// Lifecycle
	SeedIfEmpty(ctx context.Context) (bool, error)
	Reset(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error

	// Vendors
	ListVendors(ctx context.Context) ([]domain.Vendor, error)
	GetVendor(ctx context.Context, vendorID string) (*domain.Vendor, error)
	UpsertVendor(ctx context.Context, vendor domain.Vendor) (*domain.Vendor, error)
	CreateVendor(ctx context.Context, vendor domain.Vendor, account *domain.Account) (*domain.Vendor, error)
	UpdateVendorStatus(ctx context.Context, vendorID string, status domain.VendorStatus, expectedVersion int) (*domain.Vendor, error)
	UpdateVendorWhitelistPermission(ctx context.Context, vendorID string, allowed bool, expectedVersion int) (*domain.Vendor, error)
	DeleteVendor(ctx context.Context, vendorID string) error

	// Routes
	ListRoutes(ctx context.Context) ([]domain.Route, error)
	ListRoutesByOrigin(ctx context.Context, originID string) ([]domain.Route, error)
	GetRoute(ctx context.Context, routeID string) (*domain.Route, error)
	AddRoute(ctx context.Context, originID, destinationID string, build RouteBuilder) (*domain.Route, bool, error)

	// Bids
	ListBids(ctx context.Context) ([]domain.Bid, error)
	ListBidsByRoute(ctx context.Context, routeID string) ([]domain.Bid, error)
	ListBidsByOrigin(ctx context.Context, originID string) ([]domain.Bid, error)
	ListBidsForVendor(ctx context.Context, vendorID string) ([]domain.Bid, error)
	UpsertBid(ctx context.Context, bid domain.Bid, expectedVersion int) (*domain.Bid, error)

	// Accounts & registrations
	FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
	UpsertAccount(ctx context.Context, account domain.Account) error
	AddPendingRegistration(ctx context.Context, reg domain.PendingRegistration) error
	ConsumePendingRegistration(ctx context.Context, email string) (*domain.PendingRegistration, error)

	// Templates
	ListTemplates(ctx context.Context, vendorID string) ([]domain.AccessorialTemplate, error)
	GetTemplate(ctx context.Context, vendorID, templateID string) (*domain.AccessorialTemplate, error)
	SaveTemplate(ctx context.Context, tmpl domain.AccessorialTemplate) (*domain.AccessorialTemplate, error)
	DeleteTemplate(ctx context.Context, vendorID, templateID string) error

	// Favorites
	ListFavorites(ctx context.Context, vendorID string) ([]string, error)
	IsFavorite(ctx context.Context, vendorID, regionID string) (bool, error)
	ToggleFavorite(ctx context.Context, vendorID, regionID string) (bool, error)

	// Statistics
	GetStatistics(ctx context.Context) (domain.Statistics, error)
}
