// Package export turns a comment list and export options into a single
// document in one of several formats.
package export

import (
	"time"

	"github.com/google/uuid"

	"github.com/joescharf/pinpoint/internal/filter"
	"github.com/joescharf/pinpoint/internal/insights"
	"github.com/joescharf/pinpoint/internal/models"
)

// Input is everything an export may draw on. Analyses and Insights are optional.
type Input struct {
	Comments []*models.Comment
	Analyses []*models.Analysis
	Insights *insights.Insights
}

// Group is an ordered bucket of comments sharing a grouping key.
type Group struct {
	Key      string            `json:"key"`
	Label    string            `json:"label"`
	Comments []*models.Comment `json:"comments"`
}

// Stats summarizes the exported comments.
type Stats struct {
	Total       int              `json:"total"`
	Replies     int              `json:"replies"`
	Attachments int              `json:"attachments"`
	ResolvedPct float64          `json:"resolved_pct"`
	Statuses    []insights.Count `json:"statuses"`
	Priorities  []insights.Count `json:"priorities"`
	Types       []insights.Count `json:"types"`
}

// Document is the format-independent result of the export pipeline.
type Document struct {
	ID          string
	Title       string
	GeneratedAt time.Time
	Options     Options
	Groups      []Group
	// Comments holds every exported comment in group order.
	Comments []*models.Comment
	Stats    *Stats
	Analyses map[string]*models.Analysis
	Insights *insights.Insights
}

// Prepare runs the export pipeline: export filters, private exclusion, sort,
// anonymization (analyses included), then grouping. Inputs are never modified.
func Prepare(in Input, opts Options, now time.Time) (*Document, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	comments := filter.Apply(in.Comments, opts.Filters.Criteria())
	if opts.Privacy.ExcludePrivate {
		kept := comments[:0:0]
		for _, c := range comments {
			if !c.Private {
				kept = append(kept, c)
			}
		}
		comments = kept
	}
	comments = filter.Sort(comments, opts.Sort, "")

	analyses := in.Analyses
	var anon *Anonymizer
	if opts.Privacy.AnonymizeUsers {
		comments, analyses, anon = anonymizeWithAnalyses(comments, analyses)
	}

	doc := &Document{
		ID:          uuid.NewString(),
		Title:       opts.Branding.Title,
		GeneratedAt: now,
		Options:     opts,
		Groups:      GroupComments(comments, opts.GroupBy),
	}
	if doc.Title == "" {
		doc.Title = "Comment Export"
	}
	for _, g := range doc.Groups {
		doc.Comments = append(doc.Comments, g.Comments...)
	}
	if opts.Include.Statistics {
		doc.Stats = computeStats(doc.Comments)
	}
	if opts.Include.AIAnalysis {
		doc.Analyses = insights.Index(analyses)
		doc.Insights = in.Insights
		if anon != nil {
			doc.Insights = anon.scrubInsights(in.Insights)
		}
	}
	return doc, nil
}

// Analysis returns the analysis for a comment when AI analysis is included.
func (d *Document) Analysis(commentID string) *models.Analysis {
	if d.Analyses == nil {
		return nil
	}
	return d.Analyses[commentID]
}

// EstimatedSize is the advisory size of the rendered document.
func (d *Document) EstimatedSize() int64 {
	return EstimateSize(d.Comments, d.Options.Include.AIAnalysis)
}

func computeStats(comments []*models.Comment) *Stats {
	s := &Stats{Total: len(comments)}
	statuses := map[models.CommentStatus]int{}
	priorities := map[models.CommentPriority]int{}
	types := map[models.CommentType]int{}
	for _, c := range comments {
		s.Replies += len(c.Replies)
		s.Attachments += c.AttachmentCount()
		statuses[c.Status]++
		priorities[c.Priority]++
		types[c.Type]++
	}
	for _, st := range models.Statuses {
		s.Statuses = append(s.Statuses, insights.Count{Label: string(st), N: statuses[st]})
	}
	for _, p := range models.Priorities {
		s.Priorities = append(s.Priorities, insights.Count{Label: string(p), N: priorities[p]})
	}
	for _, t := range []models.CommentType{models.CommentTypeText, models.CommentTypeVoice, models.CommentTypeScreen, models.CommentTypeDrawing} {
		s.Types = append(s.Types, insights.Count{Label: string(t), N: types[t]})
	}
	if s.Total > 0 {
		s.ResolvedPct = 100 * float64(statuses[models.CommentStatusResolved]) / float64(s.Total)
	}
	return s
}
