// Package comments routes every mutation of the comment store through a
// small set of named operations: add, update, delete, resolve and reply.
package comments

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/joescharf/pinpoint/internal/filter"
	"github.com/joescharf/pinpoint/internal/logging"
	"github.com/joescharf/pinpoint/internal/models"
	"github.com/joescharf/pinpoint/internal/store"
)

// Event describes a completed mutation, for activity feeds.
type Event struct {
	Op        string
	CommentID string
	MediaID   string
	Actor     models.User
}

// Service orchestrates validation and persistence of comments and saved filters.
type Service struct {
	store    store.Store
	log      *zap.Logger
	onChange func(Event)
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithChangeHook registers a callback run after each successful mutation.
func WithChangeHook(fn func(Event)) Option {
	return func(s *Service) { s.onChange = fn }
}

// NewService creates a comment service over the given store.
func NewService(s store.Store, opts ...Option) *Service {
	svc := &Service{store: s}
	for _, opt := range opts {
		opt(svc)
	}
	svc.log = logging.OrNop(svc.log)
	return svc
}

func (s *Service) emit(op string, c *models.Comment, actor models.User) {
	s.log.Debug("comment mutation", zap.String("op", op), zap.String("comment_id", c.ID))
	if s.onChange != nil {
		s.onChange(Event{Op: op, CommentID: c.ID, MediaID: c.MediaID, Actor: actor})
	}
}

// Add validates and stores a new comment. Missing status, priority and type
// default to open, medium and text. The anchor must fit the host media type.
func (s *Service) Add(ctx context.Context, c *models.Comment) error {
	if c.Status == "" {
		c.Status = models.CommentStatusOpen
	}
	if c.Priority == "" {
		c.Priority = models.CommentPriorityMedium
	}
	if c.Type == "" {
		c.Type = models.CommentTypeText
	}
	c.Content = strings.TrimSpace(c.Content)
	if err := models.ValidateComment(c); err != nil {
		return err
	}

	media, err := s.store.GetMedia(ctx, c.MediaID)
	if err != nil {
		return fmt.Errorf("get media: %w", err)
	}
	if err := c.Anchor.ValidateFor(media.Type); err != nil {
		return &models.ValidationError{Fields: []string{"anchor"}, Msg: err.Error()}
	}

	c.AIConfidence = nil
	if err := s.store.CreateComment(ctx, c); err != nil {
		return err
	}
	s.emit("add", c, c.Author)
	return nil
}

// Get returns one comment with its replies.
func (s *Service) Get(ctx context.Context, id string) (*models.Comment, error) {
	return s.store.GetComment(ctx, id)
}

// List loads the comments of a media file (or all when mediaID is empty),
// applies the criteria and sorts the result.
func (s *Service) List(ctx context.Context, mediaID string, criteria models.Criteria, order filter.Order) ([]*models.Comment, error) {
	all, err := s.store.ListComments(ctx, store.CommentListFilter{MediaID: mediaID})
	if err != nil {
		return nil, err
	}
	return filter.Sort(filter.Apply(all, criteria), order, criteria.Query), nil
}

// Patch holds the user-editable fields of a comment. Nil fields are left alone.
type Patch struct {
	Content  *string                 `json:"content,omitempty"`
	Status   *models.CommentStatus   `json:"status,omitempty"`
	Priority *models.CommentPriority `json:"priority,omitempty"`
	Assignee *models.User            `json:"assignee,omitempty"`
	Labels   []string                `json:"labels,omitempty"`
	Private  *bool                   `json:"private,omitempty"`
}

// Update applies a patch. Status changes are unconstrained: any status may follow any other.
func (s *Service) Update(ctx context.Context, id string, p Patch, actor models.User) (*models.Comment, error) {
	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Content != nil {
		c.Content = strings.TrimSpace(*p.Content)
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.Priority != nil {
		c.Priority = *p.Priority
	}
	if p.Assignee != nil {
		if p.Assignee.ID == "" {
			c.Assignee = nil
		} else {
			a := *p.Assignee
			c.Assignee = &a
		}
	}
	if p.Labels != nil {
		c.Labels = p.Labels
	}
	if p.Private != nil {
		c.Private = *p.Private
	}
	if err := models.ValidateComment(c); err != nil {
		return nil, err
	}
	if err := s.store.UpdateComment(ctx, c); err != nil {
		return nil, err
	}
	s.emit("update", c, actor)
	return c, nil
}

// SetStatus changes only the status.
func (s *Service) SetStatus(ctx context.Context, id string, status models.CommentStatus, actor models.User) (*models.Comment, error) {
	return s.Update(ctx, id, Patch{Status: &status}, actor)
}

// SetPriority changes only the priority.
func (s *Service) SetPriority(ctx context.Context, id string, priority models.CommentPriority, actor models.User) (*models.Comment, error) {
	return s.Update(ctx, id, Patch{Priority: &priority}, actor)
}

// Resolve marks a comment resolved.
func (s *Service) Resolve(ctx context.Context, id string, actor models.User) (*models.Comment, error) {
	return s.SetStatus(ctx, id, models.CommentStatusResolved, actor)
}

// BulkSetStatus sets the status of many comments at once and returns how many changed.
// One "update" event is emitted per changed comment.
func (s *Service) BulkSetStatus(ctx context.Context, ids []string, status models.CommentStatus, actor models.User) (int64, error) {
	if !status.Valid() {
		return 0, &models.ValidationError{Fields: []string{"status"}, Msg: fmt.Sprintf("unknown status %q", status)}
	}
	n, err := s.store.BulkUpdateCommentStatus(ctx, ids, status)
	if err != nil {
		return 0, err
	}
	s.log.Info("bulk status update", zap.Int64("updated", n), zap.String("status", string(status)))

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		c, err := s.store.GetComment(ctx, id)
		if err != nil {
			// Unknown ids were simply not updated.
			continue
		}
		s.emit("update", c, actor)
	}
	return n, nil
}

// Reply appends a reply to a comment's thread.
func (s *Service) Reply(ctx context.Context, commentID string, r *models.Reply) (*models.Comment, error) {
	r.Content = strings.TrimSpace(r.Content)
	if r.Content == "" {
		return nil, &models.ValidationError{Fields: []string{"content"}, Msg: "content is required"}
	}
	if r.Author.ID == "" || r.Author.Name == "" {
		return nil, &models.ValidationError{Fields: []string{"author"}, Msg: "author id and name are required"}
	}
	if r.Type != "" && !r.Type.Valid() {
		return nil, &models.ValidationError{Fields: []string{"type"}, Msg: fmt.Sprintf("unknown type %q", r.Type)}
	}
	r.CommentID = commentID
	if err := s.store.AddReply(ctx, r); err != nil {
		return nil, err
	}
	c, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	s.emit("reply", c, r.Author)
	return c, nil
}

// Delete removes a comment and its replies permanently.
func (s *Service) Delete(ctx context.Context, id string, actor models.User) error {
	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteComment(ctx, id); err != nil {
		return err
	}
	s.emit("delete", c, actor)
	return nil
}
