package domain

import "fmt"

// Role distinguishes administrators from vendors.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleVendor Role = "vendor"
)

// Account is a credential record. It is a tagged union on Role: Vendor is
// set exactly when Role is RoleVendor, and admin accounts carry no vendor link.
type Account struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	PasswordHash string         `json:"passwordHash"`
	Role         Role           `json:"role"`
	Vendor       *VendorAccount `json:"vendor,omitempty"`
}

// VendorAccount mirrors the linked vendor's identity and permissions.
type VendorAccount struct {
	VendorID            string       `json:"vendorId"`
	MCID                string       `json:"mcid"`
	Status              VendorStatus `json:"status"`
	CanWhitelistVendors bool         `json:"canWhitelistVendors"`
}

// NewAdminAccount builds an admin account.
func NewAdminAccount(id, email, passwordHash string) Account {
	return Account{ID: id, Email: email, PasswordHash: passwordHash, Role: RoleAdmin}
}

// NewVendorAccount builds the account linked to v, keyed by the vendor id.
func NewVendorAccount(v Vendor, passwordHash string) Account {
	return Account{
		ID:           VendorAccountID(v.ID),
		Email:        v.Email,
		PasswordHash: passwordHash,
		Role:         RoleVendor,
		Vendor: &VendorAccount{
			VendorID:            v.ID,
			MCID:                v.MCID,
			Status:              v.Status,
			CanWhitelistVendors: v.CanWhitelistVendors,
		},
	}
}

// VendorAccountID is the account id shared 1:1 with a vendor.
func VendorAccountID(vendorID string) string {
	return fmt.Sprintf("acct-%s", vendorID)
}

// Validate checks the union invariant.
func (a Account) Validate() error {
	switch a.Role {
	case RoleAdmin:
		if a.Vendor != nil {
			return &ErrValidation{Field: "vendor", Message: "admin accounts cannot link a vendor"}
		}
	case RoleVendor:
		if a.Vendor == nil || a.Vendor.VendorID == "" {
			return &ErrValidation{Field: "vendor", Message: "vendor accounts require a vendor link"}
		}
	default:
		return &ErrValidation{Field: "role", Message: fmt.Sprintf("unknown role %q", a.Role)}
	}
	return nil
}

// Profile is the public view of an account.
func (a Account) Profile() AccountProfile {
	p := AccountProfile{ID: a.ID, Email: a.Email, Role: a.Role}
	if a.Vendor != nil {
		v := *a.Vendor
		p.Vendor = &v
	}
	return p
}

// AccountProfile is an Account without credentials.
type AccountProfile struct {
	ID     string         `json:"id"`
	Email  string         `json:"email"`
	Role   Role           `json:"role"`
	Vendor *VendorAccount `json:"vendor,omitempty"`
}
