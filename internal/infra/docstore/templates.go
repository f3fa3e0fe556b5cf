package docstore

import (
	"context"

	"github.com/lanebid/drayage-portal/internal/domain"
)

// ============================================================
// Accessorial templates
// ============================================================

func (s *Store) ListTemplates(ctx context.Context, vendorID string) ([]domain.AccessorialTemplate, error) {
	out := []domain.AccessorialTemplate{}
	err := s.view(ctx, "ListTemplates", func(doc *Document) error {
		for _, t := range doc.Templates {
			if t.VendorID == vendorID {
				out = append(out, t)
			}
		}
		return nil
	})
	return out, err
}

func (s *Store) GetTemplate(ctx context.Context, vendorID, templateID string) (*domain.AccessorialTemplate, error) {
	var out *domain.AccessorialTemplate
	err := s.view(ctx, "GetTemplate", func(doc *Document) error {
		for _, t := range doc.Templates {
			if t.VendorID == vendorID && t.ID == templateID {
				tmpl := t
				out = &tmpl
				return nil
			}
		}
		return &domain.ErrNotFound{Resource: "template", ID: templateID}
	})
	return out, err
}

// SaveTemplate inserts or replaces the template by id. A different template
// of the same vendor with an equal name key is a conflict.
func (s *Store) SaveTemplate(ctx context.Context, tmpl domain.AccessorialTemplate) (*domain.AccessorialTemplate, error) {
	key := domain.TemplateNameKey(tmpl.Name)
	err := s.mutate(ctx, "SaveTemplate", func(doc *Document) error {
		idx := -1
		for i, t := range doc.Templates {
			if t.VendorID != tmpl.VendorID {
				continue
			}
			if t.ID == tmpl.ID {
				idx = i
				continue
			}
			if domain.TemplateNameKey(t.Name) == key {
				return &domain.ErrConflict{Message: "Template with this name already exists"}
			}
		}
		if idx >= 0 {
			doc.Templates[idx] = tmpl
		} else {
			doc.Templates = append(doc.Templates, tmpl)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func (s *Store) DeleteTemplate(ctx context.Context, vendorID, templateID string) error {
	return s.mutate(ctx, "DeleteTemplate", func(doc *Document) error {
		for i, t := range doc.Templates {
			if t.VendorID == vendorID && t.ID == templateID {
				doc.Templates = append(doc.Templates[:i], doc.Templates[i+1:]...)
				return nil
			}
		}
		return &domain.ErrNotFound{Resource: "template", ID: templateID}
	})
}

// ============================================================
// Favorites
// ============================================================

func (s *Store) ListFavorites(ctx context.Context, vendorID string) ([]string, error) {
	out := []string{}
	err := s.view(ctx, "ListFavorites", func(doc *Document) error {
		for _, f := range doc.Favorites {
			if f.VendorID == vendorID {
				out = append(out, f.RegionID)
			}
		}
		return nil
	})
	return out, err
}

func (s *Store) IsFavorite(ctx context.Context, vendorID, regionID string) (bool, error) {
	found := false
	err := s.view(ctx, "IsFavorite", func(doc *Document) error {
		for _, f := range doc.Favorites {
			if f.VendorID == vendorID && f.RegionID == regionID {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

// ToggleFavorite flips membership and reports whether the region is now a
// favorite.
func (s *Store) ToggleFavorite(ctx context.Context, vendorID, regionID string) (bool, error) {
	favorited := false
	err := s.mutate(ctx, "ToggleFavorite", func(doc *Document) error {
		for i, f := range doc.Favorites {
			if f.VendorID == vendorID && f.RegionID == regionID {
				doc.Favorites = append(doc.Favorites[:i], doc.Favorites[i+1:]...)
				return nil
			}
		}
		doc.Favorites = append(doc.Favorites, domain.Favorite{VendorID: vendorID, RegionID: regionID})
		favorited = true
		return nil
	})
	return favorited, err
}
