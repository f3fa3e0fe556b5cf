package docstore

import (
	"context"
	"fmt"

	"github.com/lanebid/drayage-portal/internal/domain"
)

func (d *Document) vendorIndex(vendorID string) int {
	for i := range d.Vendors {
		if d.Vendors[i].ID == vendorID {
			return i
		}
	}
	return -1
}

// mirrorVendor copies vendor status and permissions onto its linked account.
func (d *Document) mirrorVendor(v domain.Vendor) {
	for i := range d.Accounts {
		link := d.Accounts[i].Vendor
		if link != nil && link.VendorID == v.ID {
			link.MCID = v.MCID
			link.Status = v.Status
			link.CanWhitelistVendors = v.CanWhitelistVendors
		}
	}
}

func notFoundVendor(id string) error {
	return &domain.ErrNotFound{Resource: "vendor", ID: id}
}

func (s *Store) ListVendors(ctx context.Context) ([]domain.Vendor, error) {
	var out []domain.Vendor
	err := s.view(ctx, "ListVendors", func(doc *Document) error {
		out = append([]domain.Vendor{}, doc.Vendors...)
		return nil
	})
	return out, err
}

func (s *Store) GetVendor(ctx context.Context, vendorID string) (*domain.Vendor, error) {
	var out *domain.Vendor
	err := s.view(ctx, "GetVendor", func(doc *Document) error {
		i := doc.vendorIndex(vendorID)
		if i < 0 {
			return notFoundVendor(vendorID)
		}
		v := doc.Vendors[i]
		out = &v
		return nil
	})
	return out, err
}

// UpsertVendor inserts or replaces the vendor by id and bumps its version.
func (s *Store) UpsertVendor(ctx context.Context, vendor domain.Vendor) (*domain.Vendor, error) {
	var out domain.Vendor
	err := s.mutate(ctx, "UpsertVendor", func(doc *Document) error {
		if i := doc.vendorIndex(vendor.ID); i >= 0 {
			vendor.Version = doc.Vendors[i].Version + 1
			doc.Vendors[i] = vendor
		} else {
			vendor.Version = 1
			doc.Vendors = append(doc.Vendors, vendor)
		}
		doc.mirrorVendor(vendor)
		out = vendor
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateVendor inserts a new vendor, rejecting a duplicate email or MCID,
// and optionally links an account in the same write.
func (s *Store) CreateVendor(ctx context.Context, vendor domain.Vendor, account *domain.Account) (*domain.Vendor, error) {
	if account != nil {
		if err := account.Validate(); err != nil {
			return nil, err
		}
	}

	err := s.mutate(ctx, "CreateVendor", func(doc *Document) error {
		email := domain.NormalizeEmail(vendor.Email)
		for _, existing := range doc.Vendors {
			if existing.ID == vendor.ID {
				return &domain.ErrDuplicate{Key: "vendor:" + vendor.ID}
			}
			if domain.NormalizeEmail(existing.Email) == email {
				return &domain.ErrConflict{Message: "Vendor with this email already exists"}
			}
			if existing.MCID == vendor.MCID {
				return &domain.ErrDuplicate{Key: "mcid:" + vendor.MCID}
			}
		}

		vendor.Version = 1
		doc.Vendors = append(doc.Vendors, vendor)
		if account != nil {
			doc.upsertAccount(*account)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

// UpdateVendorStatus sets the vendor status and mirrors it onto the account.
func (s *Store) UpdateVendorStatus(ctx context.Context, vendorID string, status domain.VendorStatus, expectedVersion int) (*domain.Vendor, error) {
	if !domain.ValidVendorStatus(status) {
		return nil, &domain.ErrValidation{Field: "status", Message: fmt.Sprintf("invalid vendor status %q", status)}
	}
	return s.updateVendor(ctx, "UpdateVendorStatus", vendorID, expectedVersion, func(v *domain.Vendor) {
		v.Status = status
	})
}

// UpdateVendorWhitelistPermission grants or revokes the whitelisting privilege.
func (s *Store) UpdateVendorWhitelistPermission(ctx context.Context, vendorID string, allowed bool, expectedVersion int) (*domain.Vendor, error) {
	return s.updateVendor(ctx, "UpdateVendorWhitelistPermission", vendorID, expectedVersion, func(v *domain.Vendor) {
		v.CanWhitelistVendors = allowed
	})
}

func (s *Store) updateVendor(ctx context.Context, op, vendorID string, expectedVersion int, apply func(v *domain.Vendor)) (*domain.Vendor, error) {
	var out domain.Vendor
	err := s.mutate(ctx, op, func(doc *Document) error {
		i := doc.vendorIndex(vendorID)
		if i < 0 {
			return notFoundVendor(vendorID)
		}
		v := &doc.Vendors[i]
		if err := checkVersion("vendor", vendorID, v.Version, expectedVersion); err != nil {
			return err
		}
		apply(v)
		v.Version++
		doc.mirrorVendor(*v)
		out = *v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteVendor removes the vendor with its account, bids, templates and
// favorites.
func (s *Store) DeleteVendor(ctx context.Context, vendorID string) error {
	return s.mutate(ctx, "DeleteVendor", func(doc *Document) error {
		i := doc.vendorIndex(vendorID)
		if i < 0 {
			return notFoundVendor(vendorID)
		}
		doc.Vendors = append(doc.Vendors[:i], doc.Vendors[i+1:]...)

		accounts := doc.Accounts[:0]
		for _, a := range doc.Accounts {
			if a.Vendor == nil || a.Vendor.VendorID != vendorID {
				accounts = append(accounts, a)
			}
		}
		doc.Accounts = accounts

		bids := doc.Bids[:0]
		for _, b := range doc.Bids {
			if b.VendorID != vendorID {
				bids = append(bids, b)
			}
		}
		doc.Bids = bids

		templates := doc.Templates[:0]
		for _, t := range doc.Templates {
			if t.VendorID != vendorID {
				templates = append(templates, t)
			}
		}
		doc.Templates = templates

		favorites := doc.Favorites[:0]
		for _, f := range doc.Favorites {
			if f.VendorID != vendorID {
				favorites = append(favorites, f)
			}
		}
		doc.Favorites = favorites
		return nil
	})
}
