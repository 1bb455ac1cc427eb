package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/joescharf/pinpoint/internal/models"
)

// batchSize caps the comments sent in one request.
const batchSize = 20

// Client wraps the Anthropic API for comment analysis.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewClient creates an LLM client with the given API key and model.
func NewClient(apiKey, model string) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

// Name identifies the analyzer in stored analyses.
func (c *Client) Name() string {
	return "llm:" + string(c.model)
}

// analysisResult is the shape the model is asked to return per comment.
type analysisResult struct {
	CommentID   string              `json:"comment_id"`
	Sentiment   string              `json:"sentiment"`
	Confidence  float64             `json:"confidence"`
	Themes      []string            `json:"themes"`
	Keywords    []string            `json:"keywords"`
	ActionItems []models.ActionItem `json:"action_items"`
	Suggestions []models.Suggestion `json:"suggestions"`
}

// buildAnalyzePrompt constructs the system and user prompts for comment analysis.
func buildAnalyzePrompt(comments []*models.Comment) (system string, user string) {
	system = `You analyze design and media review feedback. For every comment return one object in a JSON array with these fields:
- "comment_id": the id given in the input
- "sentiment": one of "positive", "constructive", "neutral", "negative"
- "confidence": a number between 0 and 1 for the sentiment label
- "themes": 1-3 short lowercase theme labels (e.g. "layout", "accessibility", "performance", "copy")
- "keywords": up to 5 significant words from the comment
- "action_items": zero or more objects {"text", "priority"} where priority is one of "low", "medium", "high", "critical"
- "suggestions": zero or more objects {"text", "confidence"} with confidence between 0 and 1

Rules:
- Consider the replies when judging sentiment, but analyze the comment as a whole
- Feedback that criticizes while proposing a fix is "constructive", not "negative"
- Do not invent comments that are not in the input
- Return valid JSON only, no markdown fencing or explanation`

	var sb strings.Builder
	sb.WriteString("Analyze these comments:\n")
	for _, c := range comments {
		fmt.Fprintf(&sb, "\n[%s] (%s, %s) %s\n", c.ID, c.Status, c.Priority, c.Content)
		for _, r := range c.Replies {
			fmt.Fprintf(&sb, "  reply: %s\n", r.Content)
		}
	}
	user = sb.String()
	return
}

// Analyze sends comments to the LLM in batches and returns one analysis per comment it recognized.
func (c *Client) Analyze(ctx context.Context, comments []*models.Comment) ([]*models.Analysis, error) {
	var out []*models.Analysis
	for start := 0; start < len(comments); start += batchSize {
		end := min(start+batchSize, len(comments))
		batch := comments[start:end]

		systemPrompt, userPrompt := buildAnalyzePrompt(batch)
		text, err := c.complete(ctx, systemPrompt, userPrompt, 4096)
		if err != nil {
			return nil, err
		}
		analyses, err := parseAnalyses(text, batch, c.Name(), time.Now().UTC())
		if err != nil {
			return nil, err
		}
		out = append(out, analyses...)
	}
	return out, nil
}

func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int64) (string, error) {
	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call: %w", err)
	}

	// Extract text from response
	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	if text == "" {
		return "", fmt.Errorf("no text content in API response")
	}
	return stripFencing(text), nil
}

// stripFencing removes a surrounding markdown code fence, if present.
func stripFencing(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.SplitN(text, "\n", 2)
		if len(lines) > 1 {
			text = lines[1]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	return text
}

// parseAnalyses decodes the model output and normalizes it: unknown comment ids
// are dropped, unknown sentiments become neutral and confidences are clamped to [0,1].
func parseAnalyses(text string, comments []*models.Comment, source string, at time.Time) ([]*models.Analysis, error) {
	var results []analysisResult
	if err := json.Unmarshal([]byte(text), &results); err != nil {
		return nil, fmt.Errorf("parse LLM response as JSON: %w\nraw response: %s", err, text)
	}

	known := make(map[string]bool, len(comments))
	for _, c := range comments {
		known[c.ID] = true
	}

	var out []*models.Analysis
	seen := make(map[string]bool)
	for _, r := range results {
		if !known[r.CommentID] || seen[r.CommentID] {
			continue
		}
		seen[r.CommentID] = true

		sentiment := models.Sentiment(strings.ToLower(r.Sentiment))
		if !sentiment.Valid() {
			sentiment = models.SentimentNeutral
		}
		items := make([]models.ActionItem, 0, len(r.ActionItems))
		for _, it := range r.ActionItems {
			if !it.Priority.Valid() {
				it.Priority = models.CommentPriorityMedium
			}
			items = append(items, it)
		}
		suggestions := make([]models.Suggestion, 0, len(r.Suggestions))
		for _, s := range r.Suggestions {
			s.Confidence = clamp01(s.Confidence)
			suggestions = append(suggestions, s)
		}

		out = append(out, &models.Analysis{
			CommentID:   r.CommentID,
			Sentiment:   sentiment,
			Confidence:  clamp01(r.Confidence),
			Themes:      r.Themes,
			Keywords:    r.Keywords,
			ActionItems: items,
			Suggestions: suggestions,
			Source:      source,
			AnalyzedAt:  at,
		})
	}
	return out, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
