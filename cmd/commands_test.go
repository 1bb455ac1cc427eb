package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joescharf/pinpoint/internal/accessibility"
	"github.com/joescharf/pinpoint/internal/comments"
	"github.com/joescharf/pinpoint/internal/export"
	"github.com/joescharf/pinpoint/internal/models"
	"github.com/joescharf/pinpoint/internal/presence"
	"github.com/joescharf/pinpoint/internal/shortcuts"
	"github.com/joescharf/pinpoint/internal/store"
)

// setupTestStore creates a temp SQLite store behind getStore and captures ui output.
func setupTestStore(t *testing.T) (string, *bytes.Buffer) {
	t.Helper()
	dir := testEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "")

	s, err := store.NewSQLiteStore(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))

	dataStore = s
	logger = zap.NewNop()
	t.Cleanup(func() {
		_ = s.Close()
		dataStore = nil
		logger = nil
	})

	var out bytes.Buffer
	ui.Out = &out
	ui.ErrOut = &out
	return dir, &out
}

func seedImage(t *testing.T, svc *comments.Service) *models.MediaFile {
	t.Helper()
	m := &models.MediaFile{Name: "hero.png", Type: models.MediaTypeImage}
	require.NoError(t, svc.AddMedia(context.Background(), m))
	return m
}

func seedNote(t *testing.T, svc *comments.Service, mediaID, content string, status models.CommentStatus) *models.Comment {
	t.Helper()
	c := &models.Comment{
		MediaID: mediaID,
		Anchor:  models.Anchor{Shape: models.AnchorPoint, X: 10, Y: 20},
		Content: content,
		Author:  models.User{ID: "ana", Name: "Ana"},
		Status:  status,
	}
	require.NoError(t, svc.Add(context.Background(), c))
	return c
}

func TestFindComment(t *testing.T) {
	setupTestStore(t)
	svc, _, err := getService()
	require.NoError(t, err)
	ctx := context.Background()

	m := seedImage(t, svc)
	c1 := seedNote(t, svc, m.ID, "Logo too small", models.CommentStatusOpen)
	seedNote(t, svc, m.ID, "Wrong brand colour", models.CommentStatusOpen)

	t.Run("exact id", func(t *testing.T) {
		got, err := findComment(ctx, svc, c1.ID)
		require.NoError(t, err)
		assert.Equal(t, c1.ID, got.ID)
	})

	t.Run("lowercase prefix", func(t *testing.T) {
		got, err := findComment(ctx, svc, strings.ToLower(c1.ID))
		require.NoError(t, err)
		assert.Equal(t, c1.ID, got.ID)
	})

	t.Run("ambiguous prefix", func(t *testing.T) {
		_, err := findComment(ctx, svc, c1.ID[:1])
		assert.ErrorContains(t, err, "matches 2 comments")
	})

	t.Run("not found", func(t *testing.T) {
		_, err := findComment(ctx, svc, "zzz")
		assert.EqualError(t, err, "comment not found: zzz")
	})
}

func TestCommentListRun(t *testing.T) {
	_, out := setupTestStore(t)
	svc, _, err := getService()
	require.NoError(t, err)

	m := seedImage(t, svc)
	seedNote(t, svc, m.ID, "Logo too small", models.CommentStatusOpen)
	seedNote(t, svc, m.ID, "Old footer text", models.CommentStatusResolved)

	commentSort, commentLimit = "", 0
	err = commentListRun(m.ID, models.Criteria{Statuses: []models.CommentStatus{models.CommentStatusOpen}})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Logo too small")
	assert.NotContains(t, out.String(), "Old footer text")
}

func TestCommentSearchRun_FinishesBeforeReturn(t *testing.T) {
	_, out := setupTestStore(t)
	svc, _, err := getService()
	require.NoError(t, err)

	m := seedImage(t, svc)
	seedNote(t, svc, m.ID, "Logo too small", models.CommentStatusOpen)
	seedNote(t, svc, m.ID, "Old footer text", models.CommentStatusOpen)
	viper.Set("search.debounce_ms", 1)

	require.NoError(t, commentSearchRun(strings.NewReader("logo\n"), m.ID, models.Criteria{}))

	got := out.String()
	assert.Equal(t, 1, strings.Count(got, `"logo": 1 matches`), "the query runs exactly once")
	assert.Contains(t, got, "Logo too small")
	assert.NotContains(t, got, "Old footer text")
}

func TestFilterSaveAndLoad(t *testing.T) {
	_, out := setupTestStore(t)
	svc, _, err := getService()
	require.NoError(t, err)

	m := seedImage(t, svc)
	seedNote(t, svc, m.ID, "Logo too small", models.CommentStatusOpen)
	seedNote(t, svc, m.ID, "Old footer text", models.CommentStatusResolved)

	criteria := models.Criteria{Statuses: []models.CommentStatus{models.CommentStatusResolved}}
	require.NoError(t, filterSaveRun("Done items", criteria))

	f, err := findSavedFilter(context.Background(), svc, "done ITEMS")
	require.NoError(t, err)
	assert.Equal(t, "Done items", f.Name)

	byPrefix, err := findSavedFilter(context.Background(), svc, strings.ToLower(f.ID[:12]))
	require.NoError(t, err)
	assert.Equal(t, f.ID, byPrefix.ID)

	out.Reset()
	filterMedia, commentSort, commentLimit = "", "", 0
	require.NoError(t, filterLoadRun("Done items"))
	assert.Contains(t, out.String(), "Loaded Done items (status=resolved)")
	assert.Contains(t, out.String(), "Old footer text")
	assert.NotContains(t, out.String(), "Logo too small")

	list, err := svc.ListFilters(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].UseCount)

	_, err = findSavedFilter(context.Background(), svc, "missing")
	assert.EqualError(t, err, "saved filter not found: missing")
}

func TestExportRun_SavesFile(t *testing.T) {
	dir, out := setupTestStore(t)
	svc, _, err := getService()
	require.NoError(t, err)

	m := seedImage(t, svc)
	seedNote(t, svc, m.ID, "Logo too small", models.CommentStatusOpen)

	outDir := filepath.Join(dir, "reports")
	exportOutDir, exportEstimate, exportStdout = outDir, false, false
	t.Cleanup(func() { exportOutDir = "" })

	opts := export.DefaultOptions()
	opts.Format = export.FormatCSV
	require.NoError(t, exportRun(context.Background(), m.ID, models.Criteria{}, opts))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".csv"))

	data, err := os.ReadFile(filepath.Join(outDir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Logo too small")
	assert.Contains(t, out.String(), "Exported 1 comments")
}

func TestExportRun_Estimate(t *testing.T) {
	dir, out := setupTestStore(t)
	svc, _, err := getService()
	require.NoError(t, err)

	m := seedImage(t, svc)
	seedNote(t, svc, m.ID, "Logo too small", models.CommentStatusOpen)

	outDir := filepath.Join(dir, "reports")
	exportOutDir, exportEstimate, exportStdout = outDir, true, false
	t.Cleanup(func() { exportOutDir, exportEstimate = "", false })

	opts := export.DefaultOptions()
	require.NoError(t, exportRun(context.Background(), m.ID, models.Criteria{}, opts))

	// 2048 + 512 for one comment
	assert.Contains(t, out.String(), "pdf export of 1 comments")
	assert.Contains(t, out.String(), export.HumanSize(2560))
	assert.NoDirExists(t, outDir)
}

func TestAnalyzeRun_Lexicon(t *testing.T) {
	_, out := setupTestStore(t)
	svc, _, err := getService()
	require.NoError(t, err)

	m := seedImage(t, svc)
	seedNote(t, svc, m.ID, "Great layout, love the spacing", models.CommentStatusOpen)
	seedNote(t, svc, m.ID, "The button is broken and confusing", models.CommentStatusOpen)

	analyzeInsightsOnly, analyzeShowAll = false, false
	require.NoError(t, analyzeRun(m.ID, models.Criteria{}))

	assert.Contains(t, out.String(), "with lexicon")
	assert.Contains(t, out.String(), "Stored 2 analyses")
	assert.Contains(t, out.String(), "Comments:   2 (2 analyzed)")
}

func TestAccessibilitySetRun_KeepsOtherFileValues(t *testing.T) {
	dir, _ := setupTestStore(t)

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("accessibility:\n  high_contrast: true\n"), 0o644))
	viper.SetConfigFile(cfgPath)
	require.NoError(t, viper.ReadInConfig())

	require.NoError(t, accessibilitySetRun("font_size", "18"))

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "font_size: 18")
	assert.Contains(t, string(data), "high_contrast: true")
}

func TestAccessibilitySetRun_RejectsOutOfRange(t *testing.T) {
	dir, _ := setupTestStore(t)

	err := accessibilitySetRun("font_size", "40")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update accessibility failed for font_size")
	assert.NoFileExists(t, filepath.Join(dir, "config.yaml"))
}

func TestShortcutRebindRun_Persists(t *testing.T) {
	dir, _ := setupTestStore(t)

	require.NoError(t, shortcutRebindRun("next-comment", []string{"N", "ctrl+down"}))

	cfgPath := filepath.Join(dir, "config.yaml")
	viper.SetConfigFile(cfgPath)
	require.NoError(t, viper.ReadInConfig())

	env, err := newShortcutEnv(nil)
	require.NoError(t, err)
	s, err := env.registry.Get("next-comment")
	require.NoError(t, err)
	assert.Equal(t, []string{"n", "ctrl+down"}, s.Keys)
}

func TestShortcutRebindRun_Fixed(t *testing.T) {
	setupTestStore(t)

	err := shortcutRebindRun("close-modal", []string{"q"})
	assert.ErrorIs(t, err, shortcuts.ErrNotCustomizable)
}

func TestShortcutTriggerRun_ChangesSettings(t *testing.T) {
	dir, out := setupTestStore(t)

	require.NoError(t, shortcutTriggerRun("increase-font-size", ""))

	want := accessibility.DefaultFontSize + accessibility.FontStep
	assert.Contains(t, out.String(), fmt.Sprintf("Font size increased to %d", want))

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), fmt.Sprintf("font_size: %d", want))
}

func TestShortcutTriggerRun_NeedsOneTarget(t *testing.T) {
	setupTestStore(t)

	assert.Error(t, shortcutTriggerRun("", ""))
	assert.Error(t, shortcutTriggerRun("show-help", "?"))
}

func TestPublishEdits(t *testing.T) {
	hub := presence.NewHub(presence.DefaultConfig(), zap.NewNop())
	t.Cleanup(hub.Close)

	hook := publishEdits(hub, zap.NewNop())
	hook(comments.Event{Op: "add", CommentID: "c1", MediaID: "m1", Actor: models.User{ID: "ana", Name: "Ana"}})
	hook(comments.Event{Op: "add", CommentID: "c2", MediaID: "m1"})

	recent := hub.Recent()
	require.Len(t, recent, 1)
	assert.Equal(t, presence.ActionEditing, recent[0].Action)
	assert.Equal(t, "ana", recent[0].UserID)
	assert.Equal(t, "c1", recent[0].CommentID)
}
