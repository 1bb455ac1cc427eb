// Package insights decorates comments with sentiment and theme analysis and
// derives project-level statistics from the analysis set.
package insights

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/joescharf/pinpoint/internal/models"
)

// Analyzer produces one analysis per comment it understands. Implementations
// must not mutate the comments they are given.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, comments []*models.Comment) ([]*models.Analysis, error)
}

// Lexicon is a deterministic word-list analyzer used when no model is configured.
type Lexicon struct {
	now func() time.Time
}

// NewLexicon returns the word-list analyzer.
func NewLexicon() *Lexicon {
	return &Lexicon{now: func() time.Time { return time.Now().UTC() }}
}

// Name identifies the analyzer in stored analyses.
func (l *Lexicon) Name() string { return "lexicon" }

var (
	positiveWords = []string{"great", "love", "nice", "good", "excellent", "perfect", "clean", "awesome", "clear", "thanks", "beautiful"}
	negativeWords = []string{"broken", "bug", "crash", "crashes", "fails", "wrong", "ugly", "bad", "error", "confusing", "unusable", "missing"}
	// Proposals soften criticism into constructive feedback.
	constructiveWords = []string{"should", "could", "consider", "suggest", "maybe", "try", "improve", "increase", "reduce", "move", "tighten", "instead"}

	themeWords = map[string][]string{
		"design":        {"color", "colour", "font", "layout", "spacing", "logo", "alignment", "icon", "icons", "padding", "margin"},
		"accessibility": {"contrast", "wcag", "screen reader", "keyboard", "alt text", "caption", "captions", "focus"},
		"performance":   {"slow", "lag", "load", "loading", "speed", "fast", "freeze"},
		"bug":           {"crash", "crashes", "broken", "error", "fails", "bug", "glitch"},
		"content":       {"copy", "typo", "wording", "text", "headline", "translation"},
		"audio":         {"audio", "sound", "volume", "voice", "music"},
		"timing":        {"cut", "timing", "sync", "transition", "pacing"},
	}

	themeSuggestions = map[string]string{
		"design":        "Review against the design system tokens",
		"accessibility": "Check the screen against WCAG AA",
		"performance":   "Profile the affected view",
		"bug":           "Reproduce and attach steps to the ticket",
		"content":       "Route to the copy owner for review",
		"audio":         "Re-check the audio mix levels",
		"timing":        "Scrub the timeline around this marker",
	}

	stopWords = map[string]bool{
		"the": true, "a": true, "an": true, "and": true, "or": true, "is": true, "are": true, "to": true, "of": true,
		"in": true, "on": true, "it": true, "this": true, "that": true, "for": true, "with": true, "be": true, "too": true,
		"we": true, "i": true, "you": true, "at": true, "as": true, "but": true, "so": true, "here": true, "there": true,
		"was": true, "can": true, "not": true, "very": true, "our": true, "its": true,
	}
)

// Analyze scores each comment's content and replies against fixed word lists.
func (l *Lexicon) Analyze(ctx context.Context, comments []*models.Comment) ([]*models.Analysis, error) {
	out := make([]*models.Analysis, 0, len(comments))
	at := l.now()
	for _, c := range comments {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("lexicon analysis: %w", err)
		}
		out = append(out, l.analyzeOne(c, at))
	}
	return out, nil
}

func (l *Lexicon) analyzeOne(c *models.Comment, at time.Time) *models.Analysis {
	text := strings.ToLower(c.Content)
	for _, r := range c.Replies {
		text += " " + strings.ToLower(r.Content)
	}
	words := tokenize(text)

	pos := countMatches(words, positiveWords)
	neg := countMatches(words, negativeWords)
	con := countMatches(words, constructiveWords)

	a := &models.Analysis{
		CommentID:  c.ID,
		Sentiment:  models.SentimentNeutral,
		Confidence: 0.5,
		Source:     l.Name(),
		AnalyzedAt: at,
	}
	switch {
	case con > 0 && con >= neg:
		a.Sentiment = models.SentimentConstructive
		a.Confidence = confidence(con + neg)
	case neg > pos:
		a.Sentiment = models.SentimentNegative
		a.Confidence = confidence(neg - pos)
	case pos > 0:
		a.Sentiment = models.SentimentPositive
		a.Confidence = confidence(pos - neg)
	}

	a.Themes = themesOf(text, words)
	a.Keywords = keywords(words, 5)

	summary := models.Truncate(c.Content, 60)
	switch a.Sentiment {
	case models.SentimentNegative:
		prio := models.CommentPriorityMedium
		if c.Priority.Rank() >= models.CommentPriorityHigh.Rank() {
			prio = models.CommentPriorityHigh
		}
		a.ActionItems = append(a.ActionItems, models.ActionItem{Text: "Investigate: " + summary, Priority: prio})
	case models.SentimentConstructive:
		a.ActionItems = append(a.ActionItems, models.ActionItem{Text: "Consider: " + summary, Priority: models.CommentPriorityLow})
	}
	for _, theme := range a.Themes {
		if s, ok := themeSuggestions[theme]; ok {
			a.Suggestions = append(a.Suggestions, models.Suggestion{Text: s, Confidence: 0.6})
		}
	}
	return a
}

func confidence(strength int) float64 {
	v := 0.5 + 0.1*float64(strength)
	if v > 0.95 {
		v = 0.95
	}
	return v
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func countMatches(words, list []string) int {
	n := 0
	for _, w := range words {
		for _, l := range list {
			if w == l {
				n++
				break
			}
		}
	}
	return n
}

// themesOf returns matching themes in alphabetical order.
func themesOf(text string, words []string) []string {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	var themes []string
	for theme, terms := range themeWords {
		for _, term := range terms {
			hit := set[term]
			if strings.Contains(term, " ") {
				hit = strings.Contains(text, term)
			}
			if hit {
				themes = append(themes, theme)
				break
			}
		}
	}
	sort.Strings(themes)
	return themes
}

// keywords returns up to n non-stopwords by frequency, ties broken alphabetically.
func keywords(words []string, n int) []string {
	counts := make(map[string]int)
	for _, w := range words {
		if len(w) < 3 || stopWords[w] {
			continue
		}
		counts[w]++
	}
	out := make([]string, 0, len(counts))
	for w := range counts {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		if counts[out[i]] != counts[out[j]] {
			return counts[out[i]] > counts[out[j]]
		}
		return out[i] < out[j]
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
