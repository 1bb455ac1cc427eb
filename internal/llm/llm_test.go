package llm

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/pinpoint/internal/models"
)

func sampleComments() []*models.Comment {
	return []*models.Comment{
		{
			ID: "c1", Content: "Header contrast is too low", Status: models.CommentStatusOpen, Priority: models.CommentPriorityHigh,
			Replies: []models.Reply{{Content: "Bumping to AA"}},
		},
		{ID: "c2", Content: "Love the new icons", Status: models.CommentStatusResolved, Priority: models.CommentPriorityLow},
	}
}

func TestBuildAnalyzePrompt(t *testing.T) {
	system, user := buildAnalyzePrompt(sampleComments())

	assert.Contains(t, system, "JSON array")
	for _, s := range []string{`"positive"`, `"constructive"`, `"neutral"`, `"negative"`, `"comment_id"`, `"action_items"`} {
		assert.Contains(t, system, s)
	}

	assert.Contains(t, user, "[c1] (open, high) Header contrast is too low")
	assert.Contains(t, user, "reply: Bumping to AA")
	assert.Contains(t, user, "[c2] (resolved, low) Love the new icons")
}

func TestStripFencing(t *testing.T) {
	assert.Equal(t, `[{"a":1}]`, stripFencing("```json\n[{\"a\":1}]\n```"))
	assert.Equal(t, `[]`, stripFencing("  []  "))
}

func TestParseAnalyses(t *testing.T) {
	at := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	text := `[
		{"comment_id":"c1","sentiment":"Constructive","confidence":1.4,"themes":["accessibility"],"keywords":["contrast"],
		 "action_items":[{"text":"Raise contrast","priority":"urgent"}],"suggestions":[{"text":"Use #222","confidence":-2}]},
		{"comment_id":"c2","sentiment":"ecstatic","confidence":0.7},
		{"comment_id":"c2","sentiment":"negative","confidence":0.1},
		{"comment_id":"ghost","sentiment":"negative","confidence":0.9}
	]`

	got, err := parseAnalyses(text, sampleComments(), "llm:test", at)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "c1", got[0].CommentID)
	assert.Equal(t, models.SentimentConstructive, got[0].Sentiment)
	assert.Equal(t, 1.0, got[0].Confidence)
	require.Len(t, got[0].ActionItems, 1)
	assert.Equal(t, models.CommentPriorityMedium, got[0].ActionItems[0].Priority)
	assert.Equal(t, 0.0, got[0].Suggestions[0].Confidence)
	assert.Equal(t, "llm:test", got[0].Source)
	assert.Equal(t, at, got[0].AnalyzedAt)

	assert.Equal(t, models.SentimentNeutral, got[1].Sentiment, "unknown sentiment falls back")
	assert.Equal(t, 0.7, got[1].Confidence, "first result for an id wins")
}

func TestParseAnalyses_InvalidJSON(t *testing.T) {
	_, err := parseAnalyses("not json", nil, "llm", time.Now())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "raw response: not json"))
}

func TestClientName(t *testing.T) {
	c := NewClient("", "claude-sonnet-4-5")
	assert.Equal(t, "llm:claude-sonnet-4-5", c.Name())
}
