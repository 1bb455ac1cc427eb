package comments

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/joescharf/pinpoint/internal/filter"
	"github.com/joescharf/pinpoint/internal/models"
	"github.com/joescharf/pinpoint/internal/store"
)

var ada = models.User{ID: "u1", Name: "Ada"}

func setupService(t *testing.T, opts ...Option) (*Service, *store.SQLiteStore, *models.MediaFile) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })

	m := &models.MediaFile{Name: "intro.mp4", Type: models.MediaTypeVideo}
	require.NoError(t, s.CreateMedia(context.Background(), m))
	return NewService(s, opts...), s, m
}

func videoComment(mediaID, content string) *models.Comment {
	return &models.Comment{
		MediaID: mediaID,
		Anchor:  models.Anchor{Shape: models.AnchorTime, Timestamp: 65},
		Content: content,
		Author:  ada,
	}
}

func TestAdd_Defaults(t *testing.T) {
	var events []Event
	svc, _, m := setupService(t, WithChangeHook(func(e Event) { events = append(events, e) }))
	ctx := context.Background()

	c := videoComment(m.ID, "  Audio drifts here  ")
	require.NoError(t, svc.Add(ctx, c))
	assert.Equal(t, models.CommentStatusOpen, c.Status)
	assert.Equal(t, models.CommentPriorityMedium, c.Priority)
	assert.Equal(t, models.CommentTypeText, c.Type)
	assert.Equal(t, "Audio drifts here", c.Content)

	require.Len(t, events, 1)
	assert.Equal(t, "add", events[0].Op)
	assert.Equal(t, m.ID, events[0].MediaID)
}

func TestAdd_Validation(t *testing.T) {
	svc, _, m := setupService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*models.Comment)
		field  string
	}{
		{"blank content", func(c *models.Comment) { c.Content = "   " }, "content"},
		{"missing author", func(c *models.Comment) { c.Author = models.User{} }, "id"},
		{"bad priority", func(c *models.Comment) { c.Priority = "urgent" }, "priority"},
		{"anchor shape mismatch", func(c *models.Comment) { c.Anchor = models.Anchor{Shape: models.AnchorPoint, X: 1, Y: 1} }, "anchor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := videoComment(m.ID, "note")
			tt.mutate(c)
			err := svc.Add(ctx, c)
			var ve *models.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Contains(t, ve.Fields, tt.field)
		})
	}
}

func TestAdd_UnknownMedia(t *testing.T) {
	svc, _, _ := setupService(t)
	err := svc.Add(context.Background(), videoComment("ghost", "note"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateResolveReplyDelete(t *testing.T) {
	svc, _, m := setupService(t)
	ctx := context.Background()

	c := videoComment(m.ID, "Cut earlier")
	require.NoError(t, svc.Add(ctx, c))

	high := models.CommentPriorityHigh
	updated, err := svc.Update(ctx, c.ID, Patch{Priority: &high, Labels: []string{"edit"}, Assignee: &models.User{ID: "u2", Name: "Grace"}}, ada)
	require.NoError(t, err)
	assert.Equal(t, models.CommentPriorityHigh, updated.Priority)
	assert.Equal(t, []string{"edit"}, updated.Labels)
	require.NotNil(t, updated.Assignee)

	resolved, err := svc.Resolve(ctx, c.ID, ada)
	require.NoError(t, err)
	assert.Equal(t, models.CommentStatusResolved, resolved.Status)
	assert.NotNil(t, resolved.ResolvedAt)

	// Any status may follow any other.
	reopened, err := svc.SetStatus(ctx, c.ID, models.CommentStatusWontFix, ada)
	require.NoError(t, err)
	assert.Equal(t, models.CommentStatusWontFix, reopened.Status)
	assert.Nil(t, reopened.ResolvedAt)

	withReply, err := svc.Reply(ctx, c.ID, &models.Reply{Author: models.User{ID: "u2", Name: "Grace"}, Content: "Done in v2"})
	require.NoError(t, err)
	require.Len(t, withReply.Replies, 1)
	assert.Equal(t, "Done in v2", withReply.Replies[0].Content)

	_, err = svc.Reply(ctx, c.ID, &models.Reply{Author: ada, Content: " "})
	assert.Error(t, err)

	require.NoError(t, svc.Delete(ctx, c.ID, ada))
	_, err = svc.Get(ctx, c.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, c.ID, ada), store.ErrNotFound)
}

func TestUpdate_RejectsBadStatus(t *testing.T) {
	svc, _, m := setupService(t)
	ctx := context.Background()
	c := videoComment(m.ID, "x")
	require.NoError(t, svc.Add(ctx, c))

	_, err := svc.SetStatus(ctx, c.ID, "archived", ada)
	var ve *models.ValidationError
	assert.True(t, errors.As(err, &ve))

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommentStatusOpen, got.Status, "store untouched")
}

func TestList_FiltersAndSorts(t *testing.T) {
	svc, _, m := setupService(t)
	ctx := context.Background()

	for _, p := range []models.CommentPriority{models.CommentPriorityLow, models.CommentPriorityCritical, models.CommentPriorityHigh} {
		c := videoComment(m.ID, "note "+string(p))
		c.Priority = p
		require.NoError(t, svc.Add(ctx, c))
	}

	got, err := svc.List(ctx, m.ID,
		models.Criteria{Priorities: []models.CommentPriority{models.CommentPriorityHigh, models.CommentPriorityCritical}},
		filter.Order{Key: filter.SortPriority, Descending: true})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.CommentPriorityCritical, got[0].Priority)
	assert.Equal(t, models.CommentPriorityHigh, got[1].Priority)
}

func TestBulkSetStatus_LogsCount(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc, _, m := setupService(t, WithLogger(zap.New(core)))
	ctx := context.Background()

	var ids []string
	for _, body := range []string{"a", "b"} {
		c := videoComment(m.ID, body)
		require.NoError(t, svc.Add(ctx, c))
		ids = append(ids, c.ID)
	}

	n, err := svc.BulkSetStatus(ctx, ids, models.CommentStatusResolved, ada)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	entries := logs.FilterMessage("bulk status update").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(2), entries[0].ContextMap()["updated"])

	_, err = svc.BulkSetStatus(ctx, ids, "nope", ada)
	assert.Error(t, err)
}

func TestBulkSetStatus_EmitsPerComment(t *testing.T) {
	var events []Event
	svc, _, m := setupService(t, WithChangeHook(func(e Event) { events = append(events, e) }))
	ctx := context.Background()

	var ids []string
	for _, body := range []string{"a", "b"} {
		c := videoComment(m.ID, body)
		require.NoError(t, svc.Add(ctx, c))
		ids = append(ids, c.ID)
	}
	events = nil

	bo := models.User{ID: "u2", Name: "Bo"}
	n, err := svc.BulkSetStatus(ctx, append(ids, ids[0], "ghost"), models.CommentStatusInProgress, bo)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.Len(t, events, 2)
	for i, e := range events {
		assert.Equal(t, "update", e.Op)
		assert.Equal(t, ids[i], e.CommentID)
		assert.Equal(t, m.ID, e.MediaID)
		assert.Equal(t, bo, e.Actor)
	}
}

func TestSavedFilters(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.SaveFilter(ctx, "  ", models.Criteria{})
	var ve *models.ValidationError
	require.True(t, errors.As(err, &ve))

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'x'
	}
	_, err = svc.SaveFilter(ctx, string(long), models.Criteria{})
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Msg, "at most 100")

	criteria := models.Criteria{Query: "audio", Statuses: []models.CommentStatus{models.CommentStatusOpen}}
	f, err := svc.SaveFilter(ctx, "Open audio", criteria)
	require.NoError(t, err)

	loaded, rec, err := svc.LoadFilter(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, criteria.Query, loaded.Query)
	assert.Equal(t, criteria.Statuses, loaded.Statuses)
	assert.Equal(t, 1, rec.UseCount)

	list, err := svc.ListFilters(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeleteFilter(ctx, f.ID))
	_, _, err = svc.LoadFilter(ctx, f.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMedia_Lifecycle(t *testing.T) {
	svc, _, m := setupService(t)
	ctx := context.Background()

	var ve *models.ValidationError
	err := svc.AddMedia(ctx, &models.MediaFile{Name: "  ", Type: models.MediaTypeImage})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "name")

	err = svc.AddMedia(ctx, &models.MediaFile{Name: "deck", Type: "slideshow"})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"type"}, ve.Fields)

	img := &models.MediaFile{Name: " hero.png ", Type: models.MediaTypeImage}
	require.NoError(t, svc.AddMedia(ctx, img))
	assert.NotEmpty(t, img.ID)
	assert.Equal(t, "hero.png", img.Name)

	all, err := svc.ListMedia(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, svc.Add(ctx, videoComment(m.ID, "gone with the media")))
	require.NoError(t, svc.DeleteMedia(ctx, m.ID))
	_, err = svc.GetMedia(ctx, m.ID)
	assert.True(t, errors.Is(err, store.ErrNotFound))

	left, err := svc.List(ctx, m.ID, models.Criteria{}, filter.DefaultOrder)
	require.NoError(t, err)
	assert.Empty(t, left)

	assert.True(t, errors.Is(svc.DeleteMedia(ctx, m.ID), store.ErrNotFound))
}
