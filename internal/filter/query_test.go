package filter

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/pinpoint/internal/models"
)

func TestParseQuery(t *testing.T) {
	now := utc(2024, 1, 17, 15)
	v := url.Values{
		"q":               {"  contrast "},
		"status":          {"open,in_progress"},
		"priority":        {"high", "critical"},
		"author":          {"ada"},
		"tag":             {"ui, a11y"},
		"has_attachments": {"true"},
		"has_replies":     {"false"},
		"min_replies":     {"1"},
		"max_confidence":  {"0.8"},
		"view":            {"assigned"},
		"viewer":          {"u1"},
	}
	c, err := ParseQuery(v, now)
	require.NoError(t, err)

	assert.Equal(t, "contrast", c.Query)
	assert.Equal(t, []models.CommentStatus{models.CommentStatusOpen, models.CommentStatusInProgress}, c.Statuses)
	assert.Equal(t, []models.CommentPriority{models.CommentPriorityHigh, models.CommentPriorityCritical}, c.Priorities)
	assert.Equal(t, []string{"ada"}, c.Authors)
	assert.Equal(t, []string{"ui", "a11y"}, c.Tags)
	require.NotNil(t, c.HasAttachments)
	assert.True(t, *c.HasAttachments)
	assert.Nil(t, c.HasReplies, "false leaves the flag off")
	require.NotNil(t, c.ReplyCount.Min)
	assert.Equal(t, 1.0, *c.ReplyCount.Min)
	assert.Nil(t, c.ReplyCount.Max)
	require.NotNil(t, c.AIConfidence.Max)
	assert.Equal(t, 0.8, *c.AIConfidence.Max)
	assert.Equal(t, models.ViewAssigned, c.ViewMode)
	assert.Equal(t, "u1", c.ViewerID)
}

func TestParseQuery_Dates(t *testing.T) {
	now := utc(2024, 1, 17, 15)

	c, err := ParseQuery(url.Values{"from": {"2024-01-01"}, "to": {"2024-01-02"}}, now)
	require.NoError(t, err)
	assert.Equal(t, utc(2024, 1, 1, 0), *c.DateRange.From)
	assert.Equal(t, utc(2024, 1, 3, 0).Add(-time.Nanosecond), *c.DateRange.To)

	c, err = ParseQuery(url.Values{"preset": {"today"}, "from": {"2020-01-01"}}, now)
	require.NoError(t, err)
	assert.Equal(t, models.PresetToday, c.DateRange.Preset)
	assert.Equal(t, utc(2024, 1, 17, 0), *c.DateRange.From)
	assert.Equal(t, now, *c.DateRange.To)
}

func TestParseQuery_Errors(t *testing.T) {
	now := utc(2024, 1, 17, 15)
	for _, v := range []url.Values{
		{"status": {"closed"}},
		{"priority": {"urgent"}},
		{"type": {"video"}},
		{"view": {"mine"}},
		{"preset": {"fortnight"}},
		{"from": {"yesterday"}},
		{"has_voice_note": {"maybe"}},
		{"min_confidence": {"high"}},
	} {
		_, err := ParseQuery(v, now)
		assert.Error(t, err, "%v", v)
	}
}

func TestParseQuery_Empty(t *testing.T) {
	c, err := ParseQuery(url.Values{}, time.Now())
	require.NoError(t, err)
	assert.Zero(t, ActiveCount(c))
}
