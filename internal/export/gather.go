package export

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/joescharf/pinpoint/internal/filter"
	"github.com/joescharf/pinpoint/internal/insights"
	"github.com/joescharf/pinpoint/internal/models"
)

// CommentSource lists comments matching criteria. *comments.Service satisfies it.
type CommentSource interface {
	List(ctx context.Context, mediaID string, criteria models.Criteria, order filter.Order) ([]*models.Comment, error)
}

// AnalysisSource looks up stored analyses. *insights.Overlay satisfies it.
type AnalysisSource interface {
	Lookup(ctx context.Context, comments []*models.Comment) (map[string]*models.Analysis, error)
}

// Gather loads the comments of mediaID (all media when empty) that match
// criteria. With ai set and a non-nil analyses source it also attaches stored
// analyses and the insights derived from them.
func Gather(ctx context.Context, src CommentSource, analyses AnalysisSource, mediaID string, criteria models.Criteria, ai bool) (Input, error) {
	comments, err := src.List(ctx, mediaID, criteria, filter.DefaultOrder)
	if err != nil {
		return Input{}, fmt.Errorf("load comments: %w", err)
	}
	in := Input{Comments: comments}
	if !ai || analyses == nil {
		return in, nil
	}

	byID, err := analyses.Lookup(ctx, comments)
	if err != nil {
		return Input{}, fmt.Errorf("load analyses: %w", err)
	}
	for _, c := range comments {
		if a, ok := byID[c.ID]; ok {
			in.Analyses = append(in.Analyses, a)
		}
	}
	in.Insights = insights.Compute(comments, in.Analyses, 0)
	return in, nil
}

// DecodeOptions reads JSON options on top of the defaults. A template named in
// the payload is applied first, so explicit include toggles still win.
func DecodeOptions(raw []byte) (Options, error) {
	opts := DefaultOptions()
	if len(raw) == 0 {
		return opts, nil
	}
	var peek struct {
		Template Template `json:"template"`
	}
	if err := json.Unmarshal(raw, &peek); err != nil {
		return Options{}, &models.ValidationError{Fields: []string{"options"}, Msg: "invalid export options: " + err.Error()}
	}
	if peek.Template != "" {
		opts = opts.WithTemplate(peek.Template)
	}
	if err := json.Unmarshal(raw, &opts); err != nil {
		return Options{}, &models.ValidationError{Fields: []string{"options"}, Msg: "invalid export options: " + err.Error()}
	}
	return opts, opts.Validate()
}
