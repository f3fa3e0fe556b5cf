package domain

import "time"

// ============================================================
// Auth — Request / Response types
// ============================================================

// RegisterRequest is the body for POST /v1/auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	MCID     string `json:"mcid"`
	Password string `json:"password"`
}

// RegisterResponse is the body for 202 from POST /v1/auth/register.
type RegisterResponse struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

// ConfirmEmailRequest is the body for POST /v1/auth/confirm.
type ConfirmEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// LoginRequest is the body for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the body for 200 from POST /v1/auth/login and
// POST /v1/auth/confirm.
type LoginResponse struct {
	AccessToken string         `json:"accessToken"`
	TokenType   string         `json:"tokenType"`
	ExpiresIn   int            `json:"expiresIn"`
	Account     AccountProfile `json:"account"`
}

// PendingRegistration awaits its email confirmation code. There is at most
// one per email; it is consumed exactly once.
type PendingRegistration struct {
	Email        string    `json:"email"`
	MCID         string    `json:"mcid"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity is the resolved session of the caller.
type Identity struct {
	AccountID           string `json:"accountId"`
	Email               string `json:"email"`
	Role                Role   `json:"role"`
	VendorID            string `json:"vendorId,omitempty"`
	CanWhitelistVendors bool   `json:"canWhitelistVendors"`
}

// IsAdmin reports whether the caller is an administrator.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// IsVendor reports whether the caller acts for a vendor.
func (i Identity) IsVendor() bool { return i.Role == RoleVendor && i.VendorID != "" }
