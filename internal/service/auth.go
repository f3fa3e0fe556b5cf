// Package service holds the portal use cases. AuthService handles vendor
// self-registration, email confirmation, login and access token validation.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/lanebid/drayage-portal/internal/domain"
	"github.com/lanebid/drayage-portal/internal/infra/observability"
	"github.com/lanebid/drayage-portal/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var authTracer = otel.Tracer("service/auth")

const minPasswordLength = 6

// AuthOptions configures token signing and password hashing.
type AuthOptions struct {
	JWTSecret  string
	AccessTTL  time.Duration
	BcryptCost int
}

// AuthService orchestrates authentication flows.
type AuthService struct {
	store      port.Store
	codes      port.Cache[string]
	jwtSecret  []byte
	accessTTL  time.Duration
	bcryptCost int
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewAuthService creates a new auth service. codes holds confirmation codes
// keyed by normalized email and should expire them.
func NewAuthService(store port.Store, codes port.Cache[string], opts AuthOptions, metrics *observability.Metrics, logger *zap.Logger) *AuthService {
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{
		store:      store,
		codes:      codes,
		jwtSecret:  []byte(opts.JWTSecret),
		accessTTL:  opts.AccessTTL,
		bcryptCost: cost,
		metrics:    metrics,
		logger:     logger,
	}
}

// HashPassword returns a bcrypt hasher at the given cost.
func HashPassword(cost int) func(string) (string, error) {
	return func(password string) (string, error) {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
		if err != nil {
			return "", fmt.Errorf("hash password: %w", err)
		}
		return string(hash), nil
	}
}

// ============================================================
// Register — POST /v1/auth/register
// ============================================================

func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.RegisterResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Register")
	defer span.End()

	email := domain.NormalizeEmail(req.Email)
	mcid := strings.ToUpper(strings.TrimSpace(req.MCID))
	span.SetAttributes(attribute.String("email", email))

	if !domain.IsValidEmail(email) {
		return nil, &domain.ErrValidation{Field: "email", Message: "Invalid email address"}
	}
	if !domain.ValidMCID(mcid) {
		return nil, &domain.ErrValidation{Field: "mcid", Message: "MCID must look like MC-123456"}
	}
	if len(req.Password) < minPasswordLength {
		return nil, &domain.ErrValidation{
			Field:   "password",
			Message: fmt.Sprintf("Password must be at least %d characters", minPasswordLength),
		}
	}

	if _, err := s.store.FindAccountByEmail(ctx, email); err == nil {
		return nil, &domain.ErrConflict{Message: "An account with this email already exists."}
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("check existing account: %w", err)
	}

	hash, err := HashPassword(s.bcryptCost)(req.Password)
	if err != nil {
		return nil, err
	}

	if err := s.store.AddPendingRegistration(ctx, domain.PendingRegistration{
		Email:        email,
		MCID:         mcid,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("store pending registration: %w", err)
	}

	code, err := confirmationCode()
	if err != nil {
		return nil, fmt.Errorf("generate confirmation code: %w", err)
	}
	s.codes.Set(email, code)

	// No mail gateway: the code only reaches the operator log.
	s.logger.Debug("confirmation code issued",
		zap.String("email", email),
		zap.String("code", code),
	)
	s.logger.Info("vendor registration pending", zap.String("email", email), zap.String("mcid", mcid))

	return &domain.RegisterResponse{
		Email:   email,
		Message: "Registration successful. Please enter the 6-digit confirmation code.",
	}, nil
}

// ============================================================
// ConfirmEmail — POST /v1/auth/confirm
// ============================================================

// ConfirmEmail consumes the pending registration for the email and creates
// its vendor account. A vendor already whitelisted under the same email is
// linked instead of creating a new one.
func (s *AuthService) ConfirmEmail(ctx context.Context, req *domain.ConfirmEmailRequest) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.ConfirmEmail")
	defer span.End()

	email := domain.NormalizeEmail(req.Email)
	code := strings.TrimSpace(req.Code)
	if !isSixDigits(code) {
		return nil, &domain.ErrInvalidCode{}
	}
	expected, ok := s.codes.Get(email)
	if !ok || expected != code {
		s.logger.Warn("confirm: invalid code", zap.String("email", email))
		return nil, &domain.ErrInvalidCode{}
	}

	reg, err := s.store.ConsumePendingRegistration(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, &domain.ErrValidation{Field: "email", Message: "No pending registration found for this email."}
		}
		return nil, fmt.Errorf("consume pending registration: %w", err)
	}

	account, err := s.activateVendor(ctx, reg)
	if err != nil {
		// Put the registration back so the same code can be retried.
		if rerr := s.store.AddPendingRegistration(ctx, *reg); rerr != nil {
			s.logger.Error("restore pending registration", zap.String("email", email), zap.Error(rerr))
		}
		return nil, err
	}
	s.codes.Delete(email)

	s.logger.Info("vendor registration confirmed",
		zap.String("account_id", account.ID),
		zap.String("vendor_id", account.Vendor.VendorID),
	)
	return s.issue(account)
}

func (s *AuthService) activateVendor(ctx context.Context, reg *domain.PendingRegistration) (*domain.Account, error) {
	vendors, err := s.store.ListVendors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}

	var whitelisted *domain.Vendor
	for i := range vendors {
		v := &vendors[i]
		switch {
		case domain.NormalizeEmail(v.Email) == reg.Email:
			whitelisted = v
		case v.MCID == reg.MCID:
			return nil, &domain.ErrConflict{Message: "MCID is already registered to another vendor."}
		}
	}

	if whitelisted != nil {
		whitelisted.MCID = reg.MCID
		linked, err := s.store.UpsertVendor(ctx, *whitelisted)
		if err != nil {
			return nil, fmt.Errorf("link vendor: %w", err)
		}
		account := domain.NewVendorAccount(*linked, reg.PasswordHash)
		account.Email = reg.Email
		if err := s.store.UpsertAccount(ctx, account); err != nil {
			return nil, fmt.Errorf("create account: %w", err)
		}
		return &account, nil
	}

	vendor := domain.Vendor{
		ID:         uuid.New().String(),
		MCID:       reg.MCID,
		Email:      reg.Email,
		Status:     domain.VendorActive,
		JoinedDate: time.Now().UTC(),
	}
	account := domain.NewVendorAccount(vendor, reg.PasswordHash)
	if _, err := s.store.CreateVendor(ctx, vendor, &account); err != nil {
		var dup *domain.ErrDuplicate
		if errors.As(err, &dup) {
			return nil, &domain.ErrConflict{Message: "MCID is already registered to another vendor."}
		}
		return nil, err
	}
	s.metrics.IncrVendorCreated("registration")
	return &account, nil
}

func confirmationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func isSixDigits(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isNotFound(err error) bool {
	var nf *domain.ErrNotFound
	return errors.As(err, &nf)
}
