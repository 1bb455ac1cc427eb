package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/pinpoint/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	err = s.Migrate(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })
	return s
}

func createTestMedia(t *testing.T, s *SQLiteStore, mediaType models.MediaType) *models.MediaFile {
	t.Helper()
	m := &models.MediaFile{Name: "homepage.png", Type: mediaType, URL: "https://cdn.example.com/homepage.png", Version: "v1"}
	require.NoError(t, s.CreateMedia(context.Background(), m))
	return m
}

func newComment(mediaID, content string) *models.Comment {
	return &models.Comment{
		MediaID:  mediaID,
		Anchor:   models.Anchor{Shape: models.AnchorPoint, X: 10, Y: 20, Zoom: 100},
		Content:  content,
		Author:   models.User{ID: "u1", Name: "Ada Lovelace", Email: "ada@example.com"},
		Status:   models.CommentStatusOpen,
		Priority: models.CommentPriorityMedium,
		Type:     models.CommentTypeText,
	}
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "subdir", "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, "subdir"))
	assert.NoError(t, err, "should create parent directory")
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Running migrate again should be a no-op
	err := s.Migrate(ctx)
	assert.NoError(t, err)
}

// --- Media ---

func TestMediaCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m := createTestMedia(t, s, models.MediaTypeImage)
	assert.NotEmpty(t, m.ID)
	assert.False(t, m.CreatedAt.IsZero())

	got, err := s.GetMedia(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "homepage.png", got.Name)
	assert.Equal(t, models.MediaTypeImage, got.Type)

	list, err := s.ListMedia(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteMedia(ctx, m.ID))
	_, err = s.GetMedia(ctx, m.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.EqualError(t, err, "media not found: "+m.ID)
}

// --- Comments ---

func TestCommentCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	m := createTestMedia(t, s, models.MediaTypeImage)

	conf := 0.8
	c := newComment(m.ID, "Logo is too small")
	c.Labels = []string{"branding", "ui"}
	c.Assignee = &models.User{ID: "u2", Name: "Grace Hopper"}
	c.Attachments = []models.Attachment{{ID: "a1", Filename: "mock.png", MimeType: "image/png", Size: 2048}}
	c.Reactions = []models.Reaction{{Emoji: "+1", UserIDs: []string{"u2"}}}
	c.AIConfidence = &conf
	require.NoError(t, s.CreateComment(ctx, c))
	assert.NotEmpty(t, c.ID)

	got, err := s.GetComment(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Logo is too small", got.Content)
	assert.Equal(t, models.AnchorPoint, got.Anchor.Shape)
	assert.Equal(t, 10.0, got.Anchor.X)
	assert.Equal(t, []string{"branding", "ui"}, got.Labels)
	require.NotNil(t, got.Assignee)
	assert.Equal(t, "Grace Hopper", got.Assignee.Name)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, int64(2048), got.Attachments[0].Size)
	require.NotNil(t, got.AIConfidence)
	assert.InDelta(t, 0.8, *got.AIConfidence, 1e-9)
	assert.Empty(t, got.Replies)
	assert.Nil(t, got.ResolvedAt)

	got.Status = models.CommentStatusResolved
	got.Priority = models.CommentPriorityHigh
	require.NoError(t, s.UpdateComment(ctx, got))

	updated, err := s.GetComment(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommentStatusResolved, updated.Status)
	assert.Equal(t, models.CommentPriorityHigh, updated.Priority)
	assert.NotNil(t, updated.UpdatedAt)
	assert.NotNil(t, updated.ResolvedAt)

	// Reopening clears the resolution time.
	updated.Status = models.CommentStatusOpen
	require.NoError(t, s.UpdateComment(ctx, updated))
	reopened, err := s.GetComment(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, reopened.ResolvedAt)

	require.NoError(t, s.DeleteComment(ctx, c.ID))
	_, err = s.GetComment(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateComment_NotFound(t *testing.T) {
	s := newTestStore(t)
	c := newComment("missing", "x")
	c.ID = "nope"
	err := s.UpdateComment(context.Background(), c)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "comment not found: nope")
}

func TestCreateComment_KeepsSuppliedCreatedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	m := createTestMedia(t, s, models.MediaTypeImage)

	at := time.Date(2024, 1, 9, 10, 0, 0, 0, time.UTC)
	c := newComment(m.ID, "dated")
	c.CreatedAt = at
	require.NoError(t, s.CreateComment(ctx, c))

	got, err := s.GetComment(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, at.Equal(got.CreatedAt))
}

func TestListComments_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	m1 := createTestMedia(t, s, models.MediaTypeImage)
	m2 := createTestMedia(t, s, models.MediaTypeImage)

	a := newComment(m1.ID, "first")
	b := newComment(m1.ID, "second")
	b.Status = models.CommentStatusResolved
	b.Author = models.User{ID: "u9", Name: "Linus"}
	c := newComment(m2.ID, "third")
	c.Priority = models.CommentPriorityCritical
	for _, cm := range []*models.Comment{a, b, c} {
		require.NoError(t, s.CreateComment(ctx, cm))
	}

	all, err := s.ListComments(ctx, CommentListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byMedia, err := s.ListComments(ctx, CommentListFilter{MediaID: m1.ID})
	require.NoError(t, err)
	assert.Len(t, byMedia, 2)

	resolved, err := s.ListComments(ctx, CommentListFilter{Status: models.CommentStatusResolved})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, "second", resolved[0].Content)

	critical, err := s.ListComments(ctx, CommentListFilter{Priority: models.CommentPriorityCritical})
	require.NoError(t, err)
	require.Len(t, critical, 1)
	assert.Equal(t, "third", critical[0].Content)

	byAuthor, err := s.ListComments(ctx, CommentListFilter{AuthorID: "u9"})
	require.NoError(t, err)
	assert.Len(t, byAuthor, 1)

	byIDs, err := s.ListComments(ctx, CommentListFilter{IDs: []string{a.ID, c.ID}})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)
}

func TestDeleteMedia_CascadesComments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	m := createTestMedia(t, s, models.MediaTypeImage)
	c := newComment(m.ID, "gone soon")
	require.NoError(t, s.CreateComment(ctx, c))

	require.NoError(t, s.DeleteMedia(ctx, m.ID))
	_, err := s.GetComment(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddReply_AppendOnlyOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	m := createTestMedia(t, s, models.MediaTypeImage)
	c := newComment(m.ID, "thread")
	require.NoError(t, s.CreateComment(ctx, c))

	for _, body := range []string{"one", "two", "three"} {
		r := &models.Reply{CommentID: c.ID, Author: models.User{ID: "u2", Name: "Grace"}, Content: body}
		require.NoError(t, s.AddReply(ctx, r))
		assert.NotEmpty(t, r.ID)
		assert.Equal(t, models.CommentTypeText, r.Type)
	}

	got, err := s.GetComment(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Replies, 3)
	assert.Equal(t, "one", got.Replies[0].Content)
	assert.Equal(t, "two", got.Replies[1].Content)
	assert.Equal(t, "three", got.Replies[2].Content)
	assert.NotNil(t, got.UpdatedAt)
}

func TestAddReply_UnknownComment(t *testing.T) {
	s := newTestStore(t)
	err := s.AddReply(context.Background(), &models.Reply{CommentID: "ghost", Content: "hi", Author: models.User{ID: "u", Name: "U"}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBulkUpdateCommentStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	m := createTestMedia(t, s, models.MediaTypeImage)

	var ids []string
	for _, body := range []string{"a", "b", "c"} {
		c := newComment(m.ID, body)
		require.NoError(t, s.CreateComment(ctx, c))
		ids = append(ids, c.ID)
	}

	n, err := s.BulkUpdateCommentStatus(ctx, ids[:2], models.CommentStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	resolved, err := s.ListComments(ctx, CommentListFilter{Status: models.CommentStatusResolved})
	require.NoError(t, err)
	assert.Len(t, resolved, 2)
	for _, c := range resolved {
		assert.NotNil(t, c.ResolvedAt)
	}

	n, err = s.BulkUpdateCommentStatus(ctx, nil, models.CommentStatusOpen)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBulkUpdateCommentStatus_KeepsResolvedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	m := createTestMedia(t, s, models.MediaTypeImage)

	earlier := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Second)
	done := newComment(m.ID, "done")
	done.Status = models.CommentStatusResolved
	done.ResolvedAt = &earlier
	require.NoError(t, s.CreateComment(ctx, done))

	open := newComment(m.ID, "open")
	require.NoError(t, s.CreateComment(ctx, open))

	n, err := s.BulkUpdateCommentStatus(ctx, []string{done.ID, open.ID}, models.CommentStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := s.GetComment(ctx, done.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ResolvedAt)
	assert.WithinDuration(t, earlier, *got.ResolvedAt, time.Second, "already resolved keeps its time")

	got, err = s.GetComment(ctx, open.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ResolvedAt)
	assert.WithinDuration(t, time.Now(), *got.ResolvedAt, time.Minute)

	_, err = s.BulkUpdateCommentStatus(ctx, []string{done.ID}, models.CommentStatusOpen)
	require.NoError(t, err)
	got, err = s.GetComment(ctx, done.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ResolvedAt, "reopening clears the resolution time")
}

// --- Saved filters ---

func TestSavedFilterLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	yes := true
	older := &models.SavedFilter{
		Name:      "Open critical",
		Criteria:  models.Criteria{Statuses: []models.CommentStatus{models.CommentStatusOpen}, Priorities: []models.CommentPriority{models.CommentPriorityCritical}},
		CreatedAt: time.Now().UTC().Add(-2 * time.Hour),
	}
	newer := &models.SavedFilter{
		Name:      "With attachments",
		Criteria:  models.Criteria{HasAttachments: &yes, Query: "logo"},
		CreatedAt: time.Now().UTC().Add(-1 * time.Hour),
	}
	require.NoError(t, s.CreateSavedFilter(ctx, older))
	require.NoError(t, s.CreateSavedFilter(ctx, newer))

	list, err := s.ListSavedFilters(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "With attachments", list[0].Name)

	used, err := s.MarkSavedFilterUsed(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, used.UseCount)
	require.NotNil(t, used.LastUsedAt)
	assert.Equal(t, []models.CommentStatus{models.CommentStatusOpen}, used.Criteria.Statuses)

	list, err = s.ListSavedFilters(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Open critical", list[0].Name, "most recently used first")

	got, err := s.GetSavedFilter(ctx, newer.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Criteria.HasAttachments)
	assert.True(t, *got.Criteria.HasAttachments)
	assert.Equal(t, "logo", got.Criteria.Query)

	require.NoError(t, s.DeleteSavedFilter(ctx, newer.ID))
	assert.ErrorIs(t, s.DeleteSavedFilter(ctx, newer.ID), ErrNotFound)
	_, err = s.MarkSavedFilterUsed(ctx, newer.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// --- Analyses ---

func TestSaveAnalysis_ReplacesAndMirrorsConfidence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	m := createTestMedia(t, s, models.MediaTypeImage)
	c := newComment(m.ID, "Great work on the header")
	require.NoError(t, s.CreateComment(ctx, c))

	first := &models.Analysis{CommentID: c.ID, Sentiment: models.SentimentPositive, Confidence: 0.6, Themes: []string{"design"}, Source: "lexicon"}
	require.NoError(t, s.SaveAnalysis(ctx, first))

	second := &models.Analysis{
		CommentID:   c.ID,
		Sentiment:   models.SentimentConstructive,
		Confidence:  0.9,
		Themes:      []string{"layout"},
		ActionItems: []models.ActionItem{{Text: "Tighten spacing", Priority: models.CommentPriorityLow}},
		Source:      "llm",
	}
	require.NoError(t, s.SaveAnalysis(ctx, second))

	analyses, err := s.ListAnalyses(ctx, []string{c.ID})
	require.NoError(t, err)
	require.Len(t, analyses, 1)
	assert.Equal(t, models.SentimentConstructive, analyses[0].Sentiment)
	assert.Equal(t, []string{"layout"}, analyses[0].Themes)
	require.Len(t, analyses[0].ActionItems, 1)

	got, err := s.GetComment(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AIConfidence)
	assert.InDelta(t, 0.9, *got.AIConfidence, 1e-9)
	assert.Equal(t, "Great work on the header", got.Content, "base content untouched")

	all, err := s.ListAnalyses(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSaveAnalysis_UnknownComment(t *testing.T) {
	s := newTestStore(t)
	err := s.SaveAnalysis(context.Background(), &models.Analysis{CommentID: "ghost", Sentiment: models.SentimentNeutral})
	assert.Error(t, err)
}
