package service

import (
	"context"
	"strings"
	"time"

	"github.com/lanebid/drayage-portal/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ============================================================
// Accessorial templates — /v1/vendor/templates
// ============================================================

func (s *LaneService) SaveTemplate(ctx context.Context, vendorID string, req domain.SaveTemplateRequest) (*domain.AccessorialTemplate, error) {
	ctx, span := laneTracer.Start(ctx, "LaneService.SaveTemplate")
	defer span.End()

	if vendorID == "" {
		return nil, &domain.ErrValidation{Field: "vendorId", Message: "Vendor ID is required"}
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "Template name is required"}
	}
	fees, err := domain.NormalizeAccessorials(req.Accessorials)
	if err != nil {
		return nil, err
	}

	saved, err := s.store.SaveTemplate(ctx, domain.AccessorialTemplate{
		ID:           uuid.New().String(),
		Name:         name,
		VendorID:     vendorID,
		Accessorials: fees,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("template saved",
		zap.String("vendor_id", vendorID),
		zap.String("template_id", saved.ID),
	)
	return saved, nil
}

func (s *LaneService) ListTemplates(ctx context.Context, vendorID string) ([]domain.AccessorialTemplate, error) {
	ctx, span := laneTracer.Start(ctx, "LaneService.ListTemplates")
	defer span.End()

	if vendorID == "" {
		return nil, &domain.ErrValidation{Field: "vendorId", Message: "Vendor ID is required"}
	}
	return s.store.ListTemplates(ctx, vendorID)
}

func (s *LaneService) DeleteTemplate(ctx context.Context, vendorID, templateID string) error {
	ctx, span := laneTracer.Start(ctx, "LaneService.DeleteTemplate")
	defer span.End()

	if vendorID == "" {
		return &domain.ErrValidation{Field: "vendorId", Message: "Vendor ID is required"}
	}
	return s.store.DeleteTemplate(ctx, vendorID, templateID)
}

// ============================================================
// Favorites — /v1/vendor/favorites
// ============================================================

// ToggleFavorite flips whether the vendor follows an origin region.
func (s *LaneService) ToggleFavorite(ctx context.Context, vendorID, regionID string) (*domain.ToggleFavoriteResponse, error) {
	ctx, span := laneTracer.Start(ctx, "LaneService.ToggleFavorite")
	defer span.End()

	if vendorID == "" {
		return nil, &domain.ErrValidation{Field: "vendorId", Message: "Vendor ID is required"}
	}
	if regionID == "" {
		return nil, &domain.ErrValidation{Field: "regionId", Message: "Region ID is required"}
	}
	if _, ok := s.catalog.LookupByID(regionID); !ok {
		return nil, &domain.ErrNotFound{Resource: "region", ID: regionID}
	}

	on, err := s.store.ToggleFavorite(ctx, vendorID, regionID)
	if err != nil {
		return nil, err
	}
	return &domain.ToggleFavoriteResponse{RegionID: regionID, Favorited: on}, nil
}

func (s *LaneService) ListFavorites(ctx context.Context, vendorID string) ([]string, error) {
	ctx, span := laneTracer.Start(ctx, "LaneService.ListFavorites")
	defer span.End()

	if vendorID == "" {
		return nil, &domain.ErrValidation{Field: "vendorId", Message: "Vendor ID is required"}
	}
	return s.store.ListFavorites(ctx, vendorID)
}
