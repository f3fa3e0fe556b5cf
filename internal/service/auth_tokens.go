package service

import (
	"fmt"
	"time"

	"github.com/lanebid/drayage-portal/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "drayage-portal"

// JWTClaims represents the custom claims in access tokens.
type JWTClaims struct {
	Sub                 string      `json:"sub"`
	Email               string      `json:"email"`
	Role                domain.Role `json:"role"`
	VendorID            string      `json:"vendorId,omitempty"`
	CanWhitelistVendors bool        `json:"canWhitelistVendors,omitempty"`
	Type                string      `json:"type"`
	jwt.RegisteredClaims
}

// ============================================================
// ValidateAccessToken — used by middleware
// ============================================================

func (s *AuthService) ValidateAccessToken(tokenString string) (*domain.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "Invalid or expired token"}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "Invalid token"}
	}
	if claims.Type != "access" {
		return nil, &domain.ErrUnauthorized{Message: "Invalid token type"}
	}

	return &domain.Identity{
		AccountID:           claims.Sub,
		Email:               claims.Email,
		Role:                claims.Role,
		VendorID:            claims.VendorID,
		CanWhitelistVendors: claims.CanWhitelistVendors,
	}, nil
}

// ============================================================
// Internal JWT helpers
// ============================================================

func (s *AuthService) issue(account *domain.Account) (*domain.LoginResponse, error) {
	token, err := s.signAccessToken(account)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	return &domain.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.accessTTL.Seconds()),
		Account:     account.Profile(),
	}, nil
}

func (s *AuthService) signAccessToken(account *domain.Account) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Sub:   account.ID,
		Email: account.Email,
		Role:  account.Role,
		Type:  "access",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			Issuer:    tokenIssuer,
		},
	}
	if account.Vendor != nil {
		claims.VendorID = account.Vendor.VendorID
		claims.CanWhitelistVendors = account.Vendor.CanWhitelistVendors
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
