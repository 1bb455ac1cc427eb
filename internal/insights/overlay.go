package insights

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/joescharf/pinpoint/internal/logging"
	"github.com/joescharf/pinpoint/internal/models"
)

// AnalysisStore persists analyses in a side table keyed by comment id.
type AnalysisStore interface {
	SaveAnalysis(ctx context.Context, a *models.Analysis) error
	ListAnalyses(ctx context.Context, commentIDs []string) ([]*models.Analysis, error)
}

// Overlay runs an Analyzer over comments and stores the results.
// Re-running replaces earlier analyses for the same comments.
type Overlay struct {
	store    AnalysisStore
	analyzer Analyzer
	log      *zap.Logger
}

// NewOverlay creates an overlay. A nil logger discards output.
func NewOverlay(s AnalysisStore, a Analyzer, log *zap.Logger) *Overlay {
	return &Overlay{store: s, analyzer: a, log: logging.OrNop(log)}
}

// Analyzer returns the configured analyzer.
func (o *Overlay) Analyzer() Analyzer { return o.analyzer }

// Run analyzes the comments and saves each result. The analyzer only ever
// sees copies, so base comments stay untouched.
func (o *Overlay) Run(ctx context.Context, comments []*models.Comment) ([]*models.Analysis, error) {
	if len(comments) == 0 {
		return nil, nil
	}
	copies := make([]*models.Comment, len(comments))
	for i, c := range comments {
		copies[i] = c.Clone()
	}

	analyses, err := o.analyzer.Analyze(ctx, copies)
	if err != nil {
		o.log.Error("analysis failed", zap.String("analyzer", o.analyzer.Name()), zap.Error(err))
		return nil, fmt.Errorf("analyze comments: %w", err)
	}
	for _, a := range analyses {
		if err := o.store.SaveAnalysis(ctx, a); err != nil {
			return nil, fmt.Errorf("save analysis for %s: %w", a.CommentID, err)
		}
	}
	o.log.Info("analysis complete",
		zap.String("analyzer", o.analyzer.Name()),
		zap.Int("comments", len(comments)),
		zap.Int("analyses", len(analyses)),
	)
	return analyses, nil
}

// Lookup returns stored analyses for the given comments keyed by comment id.
func (o *Overlay) Lookup(ctx context.Context, comments []*models.Comment) (map[string]*models.Analysis, error) {
	ids := make([]string, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	var list []*models.Analysis
	if len(ids) > 0 {
		var err error
		list, err = o.store.ListAnalyses(ctx, ids)
		if err != nil {
			return nil, err
		}
	}
	return Index(list), nil
}

// Index keys analyses by comment id.
func Index(list []*models.Analysis) map[string]*models.Analysis {
	m := make(map[string]*models.Analysis, len(list))
	for _, a := range list {
		m[a.CommentID] = a
	}
	return m
}
