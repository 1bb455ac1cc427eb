package comments

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/joescharf/pinpoint/internal/models"
)

// SaveFilter persists a named snapshot of criteria.
func (s *Service) SaveFilter(ctx context.Context, name string, criteria models.Criteria) (*models.SavedFilter, error) {
	f := &models.SavedFilter{Name: strings.TrimSpace(name), Criteria: criteria}
	if err := models.Validate(f); err != nil {
		return nil, err
	}
	if err := s.store.CreateSavedFilter(ctx, f); err != nil {
		return nil, err
	}
	s.log.Debug("saved filter", zap.String("id", f.ID), zap.String("name", f.Name))
	return f, nil
}

// ListFilters returns saved filters, most recently used first.
func (s *Service) ListFilters(ctx context.Context) ([]*models.SavedFilter, error) {
	return s.store.ListSavedFilters(ctx)
}

// LoadFilter returns the snapshot's criteria to replace the active criteria
// wholesale, and records the use.
func (s *Service) LoadFilter(ctx context.Context, id string) (models.Criteria, *models.SavedFilter, error) {
	f, err := s.store.MarkSavedFilterUsed(ctx, id)
	if err != nil {
		return models.Criteria{}, nil, err
	}
	return f.Criteria, f, nil
}

// DeleteFilter removes a saved filter by id.
func (s *Service) DeleteFilter(ctx context.Context, id string) error {
	return s.store.DeleteSavedFilter(ctx, id)
}
