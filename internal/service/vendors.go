package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lanebid/drayage-portal/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Vendor creation sources, used as the metric label.
const (
	sourceAdmin     = "admin"
	sourceSubVendor = "sub_vendor"
	sourceBulk      = "bulk"
	sourceCSV       = "csv"
)

// ============================================================
// AddVendor — POST /v1/admin/vendors, POST /v1/vendor/sub-vendors
// ============================================================

// AddVendor whitelists a new vendor by email. Admin-created vendors may be
// granted the whitelisting privilege; vendors created by a privileged vendor
// never are, and record their creator.
func (s *LaneService) AddVendor(ctx context.Context, id domain.Identity, req domain.AddVendorRequest) (*domain.Vendor, error) {
	ctx, span := laneTracer.Start(ctx, "LaneService.AddVendor")
	defer span.End()

	if err := s.requireWhitelister(ctx, id, "add vendor"); err != nil {
		return nil, err
	}

	createdBy, canWhitelist, source := "", req.CanWhitelistVendors, sourceAdmin
	if !id.IsAdmin() {
		createdBy, canWhitelist, source = id.VendorID, false, sourceSubVendor
	}
	return s.addVendor(ctx, req.Email, createdBy, canWhitelist, source)
}

// addVendor validates the email and inserts an active vendor, retrying on
// MCID collisions.
func (s *LaneService) addVendor(ctx context.Context, email, createdBy string, canWhitelist bool, source string) (*domain.Vendor, error) {
	email = domain.NormalizeEmail(email)
	if !domain.IsValidEmail(email) {
		return nil, &domain.ErrValidation{Field: "email", Message: "Invalid email address"}
	}

	for attempt := 1; attempt <= mcidAttempts; attempt++ {
		mcid, err := s.newMCID()
		if err != nil {
			return nil, fmt.Errorf("generate mcid: %w", err)
		}

		created, err := s.store.CreateVendor(ctx, domain.Vendor{
			ID:                  uuid.New().String(),
			MCID:                mcid,
			Email:               email,
			Status:              domain.VendorActive,
			JoinedDate:          time.Now().UTC(),
			CreatedByVendorID:   createdBy,
			CanWhitelistVendors: canWhitelist,
		}, nil)

		var dup *domain.ErrDuplicate
		if errors.As(err, &dup) {
			s.logger.Debug("mcid collision, retrying",
				zap.String("mcid", mcid),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			return nil, err
		}

		s.metrics.IncrVendorCreated(source)
		s.events.Publish(ctx, domain.NewEvent(domain.EventVendorCreated, created))
		s.logger.Info("vendor created",
			zap.String("vendor_id", created.ID),
			zap.String("mcid", created.MCID),
			zap.String("source", source),
			zap.String("created_by", createdBy),
		)
		return created, nil
	}
	return nil, &domain.ErrConflict{Message: fmt.Sprintf("No unused MCID found after %d attempts.", mcidAttempts)}
}

// ============================================================
// Bulk whitelisting — POST /v1/admin/vendors/bulk, /vendors/import
// ============================================================

// BulkAddVendors whitelists every valid, not yet known email of a
// comma-delimited list.
func (s *LaneService) BulkAddVendors(ctx context.Context, id domain.Identity, input string) (*domain.BulkVendorsResult, error) {
	ctx, span := laneTracer.Start(ctx, "LaneService.BulkAddVendors")
	defer span.End()

	return s.bulkAdd(ctx, id, input, sourceBulk)
}

// ImportVendorsCSV whitelists the emails found in the first column of a CSV
// document. A leading "email" header row is skipped.
func (s *LaneService) ImportVendorsCSV(ctx context.Context, id domain.Identity, r io.Reader) (*domain.BulkVendorsResult, error) {
	ctx, span := laneTracer.Start(ctx, "LaneService.ImportVendorsCSV")
	defer span.End()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var emails []string
	for line := 0; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &domain.ErrValidation{Field: "file", Message: fmt.Sprintf("invalid CSV: %v", err)}
		}
		if len(record) == 0 {
			continue
		}
		first := strings.TrimSpace(record[0])
		if line == 0 && strings.EqualFold(first, "email") {
			continue
		}
		emails = append(emails, first)
	}
	span.SetAttributes(attribute.Int("csv.rows", len(emails)))

	return s.bulkAdd(ctx, id, strings.Join(emails, ","), sourceCSV)
}

func (s *LaneService) bulkAdd(ctx context.Context, id domain.Identity, input, source string) (*domain.BulkVendorsResult, error) {
	if err := s.requireWhitelister(ctx, id, "add vendors"); err != nil {
		return nil, err
	}

	known, err := s.vendorEmails(ctx)
	if err != nil {
		return nil, err
	}
	batch := domain.ParseEmailList(input, known)

	createdBy := ""
	if !id.IsAdmin() {
		createdBy = id.VendorID
		source = sourceSubVendor
	}

	result := &domain.BulkVendorsResult{Created: []domain.Vendor{}}
	accepted := make([]string, 0, len(batch.Valid))
	for _, email := range batch.Valid {
		v, err := s.addVendor(ctx, email, createdBy, false, source)
		var conflict *domain.ErrConflict
		if errors.As(err, &conflict) {
			// Created concurrently since the known list was read.
			batch.Duplicates = append(batch.Duplicates, email)
			continue
		}
		if err != nil {
			return nil, err
		}
		accepted = append(accepted, email)
		result.Created = append(result.Created, *v)
	}
	batch.Valid = accepted
	result.Batch = batch
	return result, nil
}

func (s *LaneService) vendorEmails(ctx context.Context) ([]string, error) {
	vendors, err := s.store.ListVendors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	emails := make([]string, len(vendors))
	for i, v := range vendors {
		emails[i] = v.Email
	}
	return emails, nil
}

// ============================================================
// GrantWhitelistPermission — POST /v1/admin/whitelist-grants
// ============================================================

// GrantWhitelistPermission gives the whitelisting privilege to every vendor
// named in a comma-delimited email list.
func (s *LaneService) GrantWhitelistPermission(ctx context.Context, id domain.Identity, input string) (*domain.WhitelistGrantResult, error) {
	ctx, span := laneTracer.Start(ctx, "LaneService.GrantWhitelistPermission")
	defer span.End()

	if err := requireAdmin(id, "grant whitelist permission"); err != nil {
		return nil, err
	}

	vendors, err := s.store.ListVendors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	byEmail := make(map[string]domain.Vendor, len(vendors))
	for _, v := range vendors {
		byEmail[domain.NormalizeEmail(v.Email)] = v
	}

	result := &domain.WhitelistGrantResult{
		Batch:     domain.ParseEmailList(input, nil),
		Granted:   []string{},
		Unchanged: []string{},
		Unknown:   []string{},
	}
	for _, email := range result.Batch.Valid {
		v, ok := byEmail[email]
		switch {
		case !ok:
			result.Unknown = append(result.Unknown, email)
		case v.CanWhitelistVendors:
			result.Unchanged = append(result.Unchanged, email)
		default:
			if _, err := s.store.UpdateVendorWhitelistPermission(ctx, v.ID, true, 0); err != nil {
				return nil, err
			}
			result.Granted = append(result.Granted, email)
		}
	}

	s.logger.Info("whitelist permission granted",
		zap.Int("granted", len(result.Granted)),
		zap.Int("unchanged", len(result.Unchanged)),
		zap.Int("unknown", len(result.Unknown)),
	)
	return result, nil
}

// ============================================================
// ListVendors — GET /v1/admin/vendors, GET /v1/vendor/sub-vendors
// ============================================================

// ListVendors returns every vendor to admins and, to a privileged vendor,
// the vendors it created.
func (s *LaneService) ListVendors(ctx context.Context, id domain.Identity) ([]domain.Vendor, error) {
	ctx, span := laneTracer.Start(ctx, "LaneService.ListVendors")
	defer span.End()

	if err := s.requireWhitelister(ctx, id, "list vendors"); err != nil {
		return nil, err
	}

	vendors, err := s.store.ListVendors(ctx)
	if err != nil {
		return nil, err
	}
	if id.IsAdmin() {
		return vendors, nil
	}

	own := []domain.Vendor{}
	for _, v := range vendors {
		if v.CreatedByVendorID == id.VendorID {
			own = append(own, v)
		}
	}
	return own, nil
}

// ============================================================
// Vendor administration — PUT/DELETE /v1/admin/vendors/{vendorId}
// ============================================================

// UpdateVendorStatus activates, deactivates or blocks a vendor.
func (s *LaneService) UpdateVendorStatus(ctx context.Context, id domain.Identity, vendorID string, req domain.UpdateVendorStatusRequest) (*domain.Vendor, error) {
	ctx, span := laneTracer.Start(ctx, "LaneService.UpdateVendorStatus")
	defer span.End()
	span.SetAttributes(attribute.String("vendor.id", vendorID))

	target, err := s.store.GetVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManager(ctx, id, target, "update vendor status"); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateVendorStatus(ctx, vendorID, req.Status, req.ExpectedVersion)
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, domain.NewEvent(domain.EventVendorStatusChanged, updated))
	s.logger.Info("vendor status updated",
		zap.String("vendor_id", vendorID),
		zap.String("status", string(updated.Status)),
		zap.String("by", id.AccountID),
	)
	return updated, nil
}

// UpdateVendorWhitelistPermission grants or revokes the privilege of one
// vendor. Admin only.
func (s *LaneService) UpdateVendorWhitelistPermission(ctx context.Context, id domain.Identity, vendorID string, req domain.UpdateWhitelistRequest) (*domain.Vendor, error) {
	ctx, span := laneTracer.Start(ctx, "LaneService.UpdateVendorWhitelistPermission")
	defer span.End()

	if err := requireAdmin(id, "update whitelist permission"); err != nil {
		return nil, err
	}
	return s.store.UpdateVendorWhitelistPermission(ctx, vendorID, req.CanWhitelistVendors, req.ExpectedVersion)
}

// DeleteVendor removes a vendor together with its account, bids, templates
// and favourites.
func (s *LaneService) DeleteVendor(ctx context.Context, id domain.Identity, vendorID string) error {
	ctx, span := laneTracer.Start(ctx, "LaneService.DeleteVendor")
	defer span.End()

	target, err := s.store.GetVendor(ctx, vendorID)
	if err != nil {
		return err
	}
	if err := s.requireManager(ctx, id, target, "delete vendor"); err != nil {
		return err
	}
	if err := s.store.DeleteVendor(ctx, vendorID); err != nil {
		return err
	}

	s.events.Publish(ctx, domain.NewEvent(domain.EventVendorDeleted, map[string]string{"vendorId": vendorID}))
	s.logger.Warn("vendor deleted",
		zap.String("vendor_id", vendorID),
		zap.String("by", id.AccountID),
	)
	return nil
}
