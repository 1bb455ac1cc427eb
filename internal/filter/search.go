package filter

import (
	"strings"

	"github.com/joescharf/pinpoint/internal/models"
)

// SearchText returns the lowercased text a query is matched against: body,
// author name and email, labels, mentions, and every reply body and author.
func SearchText(c *models.Comment) string {
	parts := []string{c.Content, c.Author.Name, c.Author.Email}
	parts = append(parts, c.Labels...)
	parts = append(parts, c.MentionedUsers...)
	for _, r := range c.Replies {
		parts = append(parts, r.Content, r.Author.Name)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// QueryWords splits a query on whitespace and lowercases each word.
func QueryWords(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// MatchesQuery reports whether any query word occurs in the comment's search text.
// An empty query matches everything.
func MatchesQuery(c *models.Comment, query string) bool {
	words := QueryWords(query)
	if len(words) == 0 {
		return true
	}
	text := SearchText(c)
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// Relevance counts how many distinct query words occur in the comment.
func Relevance(c *models.Comment, query string) int {
	words := QueryWords(query)
	if len(words) == 0 {
		return 0
	}
	text := SearchText(c)
	seen := make(map[string]bool, len(words))
	n := 0
	for _, w := range words {
		if seen[w] {
			continue
		}
		seen[w] = true
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}
