package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/joescharf/pinpoint/internal/insights"
	"github.com/joescharf/pinpoint/internal/models"
)

const timeLayout = "2006-01-02 15:04 MST"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

// metaLine is the one-line status/priority/type summary shown under a comment.
func metaLine(c *models.Comment) string {
	parts := []string{
		"Status: " + titleLabel(string(c.Status)),
		"Priority: " + titleLabel(string(c.Priority)),
		"Type: " + titleLabel(string(c.Type)),
	}
	if c.Assignee != nil {
		parts = append(parts, "Assignee: "+c.Assignee.Name)
	}
	if len(c.Labels) > 0 {
		parts = append(parts, "Labels: "+strings.Join(c.Labels, ", "))
	}
	return strings.Join(parts, " | ")
}

func attachmentNames(as []models.Attachment) []string {
	names := make([]string, len(as))
	for i, a := range as {
		names[i] = a.Filename
	}
	return names
}

func analysisLine(a *models.Analysis) string {
	s := fmt.Sprintf("Sentiment: %s (%.0f%% confidence)", a.Sentiment, a.Confidence*100)
	if len(a.Themes) > 0 {
		s += " | Themes: " + strings.Join(a.Themes, ", ")
	}
	return s
}

func statsLines(s *Stats) []string {
	lines := []string{
		fmt.Sprintf("Total comments: %d", s.Total),
		fmt.Sprintf("Replies: %d", s.Replies),
		fmt.Sprintf("Attachments: %d", s.Attachments),
		fmt.Sprintf("Resolved: %.1f%%", s.ResolvedPct),
	}
	lines = append(lines, "By status: "+countsLine(s.Statuses))
	lines = append(lines, "By priority: "+countsLine(s.Priorities))
	return lines
}

func countsLine(cs []insights.Count) string {
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		parts = append(parts, fmt.Sprintf("%s %d", titleLabel(c.Label), c.N))
	}
	return strings.Join(parts, ", ")
}
