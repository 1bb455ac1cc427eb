package store

import (
	"context"
	"errors"

	"github.com/joescharf/pinpoint/internal/models"
)

// ErrNotFound is wrapped by every lookup that misses.
var ErrNotFound = errors.New("not found")

// NotFoundError names the missing record kind and id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return e.Kind + " not found: " + e.ID
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// CommentListFilter narrows the rows read from the store. Richer predicates
// belong to the filter engine, which runs over the returned slice.
type CommentListFilter struct {
	MediaID  string
	Status   models.CommentStatus
	Priority models.CommentPriority
	AuthorID string
	IDs      []string
}

// Store defines the persistence interface for pinpoint.
type Store interface {
	// Media
	CreateMedia(ctx context.Context, m *models.MediaFile) error
	GetMedia(ctx context.Context, id string) (*models.MediaFile, error)
	ListMedia(ctx context.Context) ([]*models.MediaFile, error)
	DeleteMedia(ctx context.Context, id string) error

	// Comments
	CreateComment(ctx context.Context, c *models.Comment) error
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	ListComments(ctx context.Context, filter CommentListFilter) ([]*models.Comment, error)
	UpdateComment(ctx context.Context, c *models.Comment) error
	DeleteComment(ctx context.Context, id string) error
	BulkUpdateCommentStatus(ctx context.Context, ids []string, status models.CommentStatus) (int64, error)
	AddReply(ctx context.Context, r *models.Reply) error

	// Saved filters
	CreateSavedFilter(ctx context.Context, f *models.SavedFilter) error
	GetSavedFilter(ctx context.Context, id string) (*models.SavedFilter, error)
	ListSavedFilters(ctx context.Context) ([]*models.SavedFilter, error)
	MarkSavedFilterUsed(ctx context.Context, id string) (*models.SavedFilter, error)
	DeleteSavedFilter(ctx context.Context, id string) error

	// Analyses
	SaveAnalysis(ctx context.Context, a *models.Analysis) error
	ListAnalyses(ctx context.Context, commentIDs []string) ([]*models.Analysis, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
