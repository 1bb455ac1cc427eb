package export

import (
	"fmt"
	"strings"

	"github.com/joescharf/pinpoint/internal/filter"
	"github.com/joescharf/pinpoint/internal/models"
)

// Format is an output document type.
type Format string

const (
	FormatPDF      Format = "pdf"
	FormatCSV      Format = "csv"
	FormatExcel    Format = "excel"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatWord     Format = "word"
	FormatSlides   Format = "slides"
	FormatEmail    Format = "email"
)

// Formats lists every supported format.
var Formats = []Format{FormatPDF, FormatCSV, FormatExcel, FormatJSON, FormatHTML, FormatMarkdown, FormatWord, FormatSlides, FormatEmail}

var formatMeta = map[Format]struct{ ext, mime string }{
	FormatPDF:      {"pdf", "application/pdf"},
	FormatCSV:      {"csv", "text/csv"},
	FormatExcel:    {"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	FormatJSON:     {"json", "application/json"},
	FormatHTML:     {"html", "text/html; charset=utf-8"},
	FormatMarkdown: {"md", "text/markdown; charset=utf-8"},
	FormatWord:     {"doc", "application/msword"},
	FormatSlides:   {"pdf", "application/pdf"},
	FormatEmail:    {"eml", "message/rfc822"},
}

// Valid reports whether f is a supported format.
func (f Format) Valid() bool {
	_, ok := formatMeta[f]
	return ok
}

// Extension returns the file extension without a dot.
func (f Format) Extension() string { return formatMeta[f].ext }

// MimeType returns the content type of the rendered artifact.
func (f Format) MimeType() string { return formatMeta[f].mime }

// GroupBy selects how comments are bucketed.
type GroupBy string

const (
	GroupNone     GroupBy = "none"
	GroupStatus   GroupBy = "status"
	GroupPriority GroupBy = "priority"
	GroupAuthor   GroupBy = "author"
	GroupDate     GroupBy = "date"
	GroupCategory GroupBy = "category"
)

// Template is a preset bundle of include toggles.
type Template string

const (
	TemplateStandard  Template = "standard"
	TemplateExecutive Template = "executive"
	TemplateDetailed  Template = "detailed"
	TemplateClient    Template = "client"
)

// Include toggles optional content.
type Include struct {
	Replies     bool `json:"replies"`
	Attachments bool `json:"attachments"`
	Timestamps  bool `json:"timestamps"`
	Metadata    bool `json:"metadata"`
	AIAnalysis  bool `json:"ai_analysis"`
	Statistics  bool `json:"statistics"`
}

// Branding decorates the document.
type Branding struct {
	Title     string `json:"title,omitempty"`
	LogoURL   string `json:"logo_url,omitempty"`
	Watermark string `json:"watermark,omitempty"`
	Company   string `json:"company,omitempty"`
}

// Privacy controls what identifying data leaves the system.
type Privacy struct {
	AnonymizeUsers bool `json:"anonymize_users"`
	ExcludePrivate bool `json:"exclude_private"`
}

// Filters are export-time predicates, independent of the live screen filters.
type Filters struct {
	Statuses   []models.CommentStatus   `json:"statuses,omitempty"`
	Priorities []models.CommentPriority `json:"priorities,omitempty"`
	Authors    []string                 `json:"authors,omitempty"`
	DateRange  models.DateRange         `json:"date_range"`
}

// Criteria expresses the export filters as filter-engine criteria, so both paths share predicates.
func (f Filters) Criteria() models.Criteria {
	return models.Criteria{
		Statuses:   f.Statuses,
		Priorities: f.Priorities,
		Authors:    f.Authors,
		DateRange:  f.DateRange,
	}
}

// Options configures one export run.
type Options struct {
	Format   Format       `json:"format"`
	Include  Include      `json:"include"`
	GroupBy  GroupBy      `json:"group_by"`
	Sort     filter.Order `json:"sort"`
	Template Template     `json:"template"`
	Branding Branding     `json:"branding"`
	Privacy  Privacy      `json:"privacy"`
	Filters  Filters      `json:"filters"`
	// Recipient is used by the email format only.
	Recipient string `json:"recipient,omitempty"`
}

// DefaultOptions is a standard-template PDF, newest first, ungrouped.
func DefaultOptions() Options {
	o := Options{
		Format:  FormatPDF,
		GroupBy: GroupNone,
		Sort:    filter.DefaultOrder,
	}
	return o.WithTemplate(TemplateStandard)
}

// WithTemplate returns o with the template's include toggles (and, for client
// exports, privacy options) applied.
func (o Options) WithTemplate(t Template) Options {
	o.Template = t
	switch t {
	case TemplateExecutive:
		o.Include = Include{AIAnalysis: true, Statistics: true}
	case TemplateDetailed:
		o.Include = Include{Replies: true, Attachments: true, Timestamps: true, Metadata: true, AIAnalysis: true, Statistics: true}
	case TemplateClient:
		o.Include = Include{Replies: true, Attachments: true, Timestamps: true}
		o.Privacy = Privacy{AnonymizeUsers: true, ExcludePrivate: true}
	default:
		o.Template = TemplateStandard
		o.Include = Include{Replies: true, Attachments: true, Timestamps: true, Metadata: true, Statistics: true}
	}
	return o
}

// Validate checks enum fields.
func (o Options) Validate() error {
	if !o.Format.Valid() {
		return &models.ValidationError{Fields: []string{"format"}, Msg: fmt.Sprintf("unknown export format %q", o.Format)}
	}
	switch o.GroupBy {
	case "", GroupNone, GroupStatus, GroupPriority, GroupAuthor, GroupDate, GroupCategory:
	default:
		return &models.ValidationError{Fields: []string{"group_by"}, Msg: fmt.Sprintf("unknown grouping %q", o.GroupBy)}
	}
	switch o.Template {
	case "", TemplateStandard, TemplateExecutive, TemplateDetailed, TemplateClient:
	default:
		return &models.ValidationError{Fields: []string{"template"}, Msg: fmt.Sprintf("unknown template %q", o.Template)}
	}
	if o.Format == FormatEmail && o.Recipient != "" && !models.ValidEmail(o.Recipient) {
		return &models.ValidationError{Fields: []string{"recipient"}, Msg: "recipient must be an email address"}
	}
	return nil
}

// ParseFormat accepts a format name or common file extension.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "xlsx", "xls":
		return FormatExcel, nil
	case "md":
		return FormatMarkdown, nil
	case "doc", "docx":
		return FormatWord, nil
	case "pptx", "deck":
		return FormatSlides, nil
	case "eml", "mail":
		return FormatEmail, nil
	}
	f := Format(s)
	if !f.Valid() {
		return "", fmt.Errorf("unknown export format %q", s)
	}
	return f, nil
}
