package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/pinpoint/internal/export"
	"github.com/joescharf/pinpoint/internal/models"
)

func TestParseOffset(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"90", 90, false},
		{"12.5", 12.5, false},
		{"1:30", 90, false},
		{"01:02:03", 3723, false},
		{" 0:05 ", 5, false},
		{"", 0, true},
		{"abc", 0, true},
		{"1:2:3:4", 0, true},
		{"1:-5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseOffset(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"ui", "copy"}, splitList(" ui, ,copy,"))
	assert.Nil(t, splitList(""))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "one two", truncate("one\n  two", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "01J9Z3K4M5N6", shortID("01J9Z3K4M5N6P7Q8R9S0T1V2W3"))
	assert.Equal(t, "c1", shortID("c1"))
}

func TestCriteriaFromFlags(t *testing.T) {
	testEnv(t)
	viper.Set("user.id", "ana")

	cmd := &cobra.Command{Use: "test"}
	addCriteriaFlags(cmd)
	require.NoError(t, cmd.Flags().Set("status", "open,in_progress"))
	require.NoError(t, cmd.Flags().Set("q", "logo"))
	require.NoError(t, cmd.Flags().Set("has_replies", "true"))
	require.NoError(t, cmd.Flags().Set("view", "created"))

	c, err := criteriaFromFlags(cmd.Flags())
	require.NoError(t, err)

	assert.Equal(t, "logo", c.Query)
	assert.Equal(t, []models.CommentStatus{models.CommentStatusOpen, models.CommentStatusInProgress}, c.Statuses)
	require.NotNil(t, c.HasReplies)
	assert.True(t, *c.HasReplies)
	assert.Nil(t, c.HasAttachments, "unset flags stay off")
	assert.Equal(t, models.ViewCreated, c.ViewMode)
	assert.Equal(t, "ana", c.ViewerID)
}

func TestCriteriaFromFlags_Invalid(t *testing.T) {
	testEnv(t)

	cmd := &cobra.Command{Use: "test"}
	addCriteriaFlags(cmd)
	require.NoError(t, cmd.Flags().Set("priority", "urgent"))

	_, err := criteriaFromFlags(cmd.Flags())
	assert.ErrorContains(t, err, `unknown priority "urgent"`)
}

func TestCurrentUser(t *testing.T) {
	testEnv(t)

	viper.Set("user.id", "")
	viper.Set("user.name", "")
	assert.Equal(t, models.User{ID: "cli", Name: "cli"}, currentUser())

	viper.Set("user.id", "ana")
	viper.Set("user.name", "Ana Reyes")
	assert.Equal(t, models.User{ID: "ana", Name: "Ana Reyes"}, currentUser())
}

func TestDescribeCriteria(t *testing.T) {
	on := true
	c := models.Criteria{
		Query:      "logo",
		Statuses:   []models.CommentStatus{models.CommentStatusOpen},
		Priorities: []models.CommentPriority{models.CommentPriorityHigh, models.CommentPriorityCritical},
		HasReplies: &on,
		ViewMode:   models.ViewUnresolved,
	}
	assert.Equal(t, `q="logo" status=open priority=high,critical has_replies view=unresolved`, describeCriteria(c))

	assert.Equal(t, "no filters", describeCriteria(models.Criteria{}))
	assert.Equal(t, "no filters", describeCriteria(models.Criteria{ViewMode: models.ViewAll}))
}

func TestFailure_CarriesNotice(t *testing.T) {
	err := failure("delete media", "hero.png", assert.AnError)

	var ne *noticeError
	require.ErrorAs(t, err, &ne)
	assert.False(t, ne.notice.OK())
	assert.Equal(t, "delete media failed for hero.png: "+assert.AnError.Error(), err.Error())
	assert.ErrorIs(t, err, assert.AnError)
}

func newExportFlagsCmd(t *testing.T) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "export"}
	addExportFlags(cmd)
	return cmd
}

func TestExportOptionsFromFlags_Defaults(t *testing.T) {
	cmd := newExportFlagsCmd(t)

	opts, err := exportOptionsFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, export.FormatPDF, opts.Format)
	assert.Equal(t, export.TemplateStandard, opts.Template)
	assert.Equal(t, export.GroupNone, opts.GroupBy)
	assert.True(t, opts.Include.Statistics)
	assert.False(t, opts.Include.AIAnalysis)
	assert.False(t, opts.Privacy.AnonymizeUsers)
}

func TestExportOptionsFromFlags_TemplateThenOverrides(t *testing.T) {
	cmd := newExportFlagsCmd(t)
	require.NoError(t, cmd.Flags().Set("format", "md"))
	require.NoError(t, cmd.Flags().Set("template", "client"))
	require.NoError(t, cmd.Flags().Set("anonymize", "false"))
	require.NoError(t, cmd.Flags().Set("group-by", "priority"))
	require.NoError(t, cmd.Flags().Set("sort", "priority:asc"))
	require.NoError(t, cmd.Flags().Set("title", "Sprint 12 review"))

	opts, err := exportOptionsFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, export.FormatMarkdown, opts.Format)
	assert.Equal(t, export.TemplateClient, opts.Template)
	assert.False(t, opts.Privacy.AnonymizeUsers, "explicit flag wins over the template")
	assert.True(t, opts.Privacy.ExcludePrivate, "template value kept")
	assert.Equal(t, export.GroupPriority, opts.GroupBy)
	assert.False(t, opts.Sort.Descending)
	assert.Equal(t, "Sprint 12 review", opts.Branding.Title)
}

func TestExportOptionsFromFlags_Errors(t *testing.T) {
	tests := []struct {
		flag, value, want string
	}{
		{"format", "docz", "unknown export format"},
		{"template", "fancy", `unknown template "fancy"`},
		{"group-by", "colour", "unknown grouping"},
		{"sort", "size", "unknown sort key"},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			cmd := newExportFlagsCmd(t)
			require.NoError(t, cmd.Flags().Set(tt.flag, tt.value))
			_, err := exportOptionsFromFlags(cmd)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestActionPayload(t *testing.T) {
	testEnv(t)
	viper.Set("user.id", "ana")
	viper.Set("user.name", "Ana")

	p, err := actionPayload("resolve-comment", `{"id":"c1"}`)
	require.NoError(t, err)
	assert.Equal(t, "c1", p["id"])
	assert.Equal(t, map[string]string{"id": "ana", "name": "Ana"}, p["actor"])

	p, err = actionPayload("set-status", `{"id":"c1","actor":{"id":"bo"}}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "bo"}, p["actor"], "explicit actor kept")

	p, err = actionPayload("export", "")
	require.NoError(t, err)
	assert.NotContains(t, p, "actor")

	_, err = actionPayload("export", "{not json")
	assert.ErrorContains(t, err, "invalid --params")
}

func TestParseSettingValue(t *testing.T) {
	testEnv(t)

	v, err := parseSettingValue("font_size", "18")
	require.NoError(t, err)
	assert.Equal(t, 18, v)

	v, err = parseSettingValue("high_contrast", "true")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = parseSettingValue("theme.primary", "#1d4ed8")
	require.NoError(t, err)
	assert.Equal(t, "#1d4ed8", v)

	_, err = parseSettingValue("high_contrast", "sometimes")
	assert.ErrorContains(t, err, "expects true or false")

	_, err = parseSettingValue("font_size", "big")
	assert.ErrorContains(t, err, "expects a number")

	_, err = parseSettingValue("sparkles", "on")
	assert.ErrorContains(t, err, `unknown accessibility setting "sparkles"`)
}
