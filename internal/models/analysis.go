package models

import "time"

// Sentiment is the tone assigned to a comment by analysis.
type Sentiment string

const (
	SentimentPositive     Sentiment = "positive"
	SentimentConstructive Sentiment = "constructive"
	SentimentNeutral      Sentiment = "neutral"
	SentimentNegative     Sentiment = "negative"
)

// Valid reports whether s is a known sentiment.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentConstructive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// Score maps a sentiment onto [-1, 1] for averaging.
func (s Sentiment) Score() float64 {
	switch s {
	case SentimentPositive:
		return 1
	case SentimentConstructive:
		return 0.5
	case SentimentNegative:
		return -1
	}
	return 0
}

// ActionItem is a follow-up suggested by analysis.
type ActionItem struct {
	Text     string          `json:"text"`
	Priority CommentPriority `json:"priority"`
}

// Suggestion is a free-text recommendation with its own confidence.
type Suggestion struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Analysis decorates one comment. It is derived data and always safe to discard.
type Analysis struct {
	CommentID   string       `json:"comment_id"`
	Sentiment   Sentiment    `json:"sentiment"`
	Confidence  float64      `json:"confidence"`
	Themes      []string     `json:"themes"`
	Keywords    []string     `json:"keywords"`
	ActionItems []ActionItem `json:"action_items,omitempty"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
	Source      string       `json:"source"`
	AnalyzedAt  time.Time    `json:"analyzed_at"`
}
