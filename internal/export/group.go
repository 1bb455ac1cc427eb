package export

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/joescharf/pinpoint/internal/models"
)

var titleCaser = cases.Title(language.English)

// titleLabel turns an enum value like "in_progress" into "In Progress".
func titleLabel(s string) string {
	return titleCaser.String(strings.ReplaceAll(s, "_", " "))
}

// GroupComments partitions comments into ordered buckets. Status and priority
// buckets follow workflow and urgency order, date buckets run newest day
// first, and other keys appear in the order first seen. Order inside a bucket is preserved. Each comment lands in exactly one bucket.
func GroupComments(comments []*models.Comment, by GroupBy) []Group {
	if len(comments) == 0 {
		return nil
	}
	if by == "" || by == GroupNone {
		return []Group{{Key: "all", Label: "All comments", Comments: append([]*models.Comment(nil), comments...)}}
	}

	var order []string
	buckets := map[string]*Group{}
	for _, c := range comments {
		key, label := groupKey(c, by)
		g, ok := buckets[key]
		if !ok {
			g = &Group{Key: key, Label: label}
			buckets[key] = g
			order = append(order, key)
		}
		g.Comments = append(g.Comments, c)
	}

	var canonical []string
	switch by {
	case GroupStatus:
		for _, s := range models.Statuses {
			canonical = append(canonical, string(s))
		}
	case GroupPriority:
		for _, p := range models.Priorities {
			canonical = append(canonical, string(p))
		}
	case GroupDate:
		// Day keys are ISO dates, so a reverse string sort is newest first.
		canonical = slices.Clone(order)
		slices.Sort(canonical)
		slices.Reverse(canonical)
	}

	out := make([]Group, 0, len(buckets))
	used := map[string]bool{}
	for _, key := range canonical {
		if g, ok := buckets[key]; ok {
			out = append(out, *g)
			used[key] = true
		}
	}
	for _, key := range order {
		if !used[key] {
			out = append(out, *buckets[key])
		}
	}
	return out
}

func groupKey(c *models.Comment, by GroupBy) (key, label string) {
	switch by {
	case GroupStatus:
		return string(c.Status), titleLabel(string(c.Status))
	case GroupPriority:
		return string(c.Priority), titleLabel(string(c.Priority))
	case GroupAuthor:
		key = c.Author.ID
		if key == "" {
			key = c.Author.Name
		}
		return key, c.Author.Name
	case GroupDate:
		day := c.CreatedAt.UTC()
		return day.Format("2006-01-02"), day.Format("Monday, January 2, 2006")
	case GroupCategory:
		return string(c.Type), titleLabel(string(c.Type))
	}
	return "all", "All comments"
}
