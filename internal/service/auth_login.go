package service

import (
	"context"
	"fmt"

	"github.com/lanebid/drayage-portal/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ============================================================
// Login — POST /v1/auth/login
// ============================================================

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	email := domain.NormalizeEmail(req.Email)
	invalid := &domain.ErrUnauthorized{Message: "Invalid credentials"}

	account, err := s.store.FindAccountByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			s.metrics.IncrAuth("failure")
			s.logger.Warn("login: unknown email", zap.String("email", email))
			return nil, invalid
		}
		return nil, fmt.Errorf("find account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		s.metrics.IncrAuth("failure")
		s.logger.Warn("login: wrong password", zap.String("account_id", account.ID))
		return nil, invalid
	}

	if account.Role == domain.RoleVendor {
		if err := s.checkVendorAccess(ctx, account); err != nil {
			return nil, err
		}
	}

	s.metrics.IncrAuth("success")
	s.logger.Info("account logged in",
		zap.String("account_id", account.ID),
		zap.String("role", string(account.Role)),
	)
	return s.issue(account)
}

// checkVendorAccess rejects vendors that are blocked on either the account
// mirror or the vendor record, and vendors whose profile is inactive.
// It refreshes the account's vendor mirror from the vendor record.
func (s *AuthService) checkVendorAccess(ctx context.Context, account *domain.Account) error {
	vendor, err := s.store.GetVendor(ctx, account.Vendor.VendorID)
	if err != nil {
		if isNotFound(err) {
			s.metrics.IncrAuth("failure")
			s.logger.Warn("login: account without vendor", zap.String("account_id", account.ID))
			return &domain.ErrUnauthorized{Message: "Invalid credentials"}
		}
		return fmt.Errorf("load vendor: %w", err)
	}

	status := vendor.Status
	if account.Vendor.Status == domain.VendorBlocked {
		status = domain.VendorBlocked
	}
	if status != domain.VendorActive {
		s.metrics.IncrAuth("blocked")
		s.logger.Warn("login: vendor not active",
			zap.String("vendor_id", vendor.ID),
			zap.String("status", string(status)),
		)
		return &domain.ErrAccountBlocked{Status: status}
	}

	account.Vendor.MCID = vendor.MCID
	account.Vendor.Status = vendor.Status
	account.Vendor.CanWhitelistVendors = vendor.CanWhitelistVendors
	return nil
}
