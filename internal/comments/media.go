package comments

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/joescharf/pinpoint/internal/models"
)

// AddMedia registers a media file that comments can be anchored to.
func (s *Service) AddMedia(ctx context.Context, m *models.MediaFile) error {
	m.Name = strings.TrimSpace(m.Name)
	if err := models.Validate(m); err != nil {
		return err
	}
	if !m.Type.Valid() {
		return &models.ValidationError{Fields: []string{"type"}, Msg: fmt.Sprintf("unknown media type %q", m.Type)}
	}
	if err := s.store.CreateMedia(ctx, m); err != nil {
		return err
	}
	s.log.Debug("media added", zap.String("media_id", m.ID), zap.String("type", string(m.Type)))
	return nil
}

// GetMedia returns one media file.
func (s *Service) GetMedia(ctx context.Context, id string) (*models.MediaFile, error) {
	return s.store.GetMedia(ctx, id)
}

// ListMedia returns every media file.
func (s *Service) ListMedia(ctx context.Context) ([]*models.MediaFile, error) {
	return s.store.ListMedia(ctx)
}

// DeleteMedia removes a media file and, with it, its comments.
func (s *Service) DeleteMedia(ctx context.Context, id string) error {
	if err := s.store.DeleteMedia(ctx, id); err != nil {
		return err
	}
	s.log.Info("media deleted", zap.String("media_id", id))
	return nil
}
