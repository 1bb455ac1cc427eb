package models

import "time"

// DatePreset names a relative date range resolved at selection time.
type DatePreset string

const (
	PresetToday      DatePreset = "today"
	PresetYesterday  DatePreset = "yesterday"
	PresetThisWeek   DatePreset = "this_week"
	PresetLastWeek   DatePreset = "last_week"
	PresetThisMonth  DatePreset = "this_month"
	PresetLastMonth  DatePreset = "last_month"
	PresetLast7Days  DatePreset = "last_7_days"
	PresetLast30Days DatePreset = "last_30_days"
	PresetLast90Days DatePreset = "last_90_days"
	PresetThisYear   DatePreset = "this_year"
)

// DateRange is an inclusive creation-time window. Preset is kept alongside the
// resolved bounds so a UI can show its label.
type DateRange struct {
	From   *time.Time `json:"from,omitempty"`
	To     *time.Time `json:"to,omitempty"`
	Preset DatePreset `json:"preset,omitempty"`
}

// IsSet reports whether either bound is present.
func (r DateRange) IsSet() bool {
	return r.From != nil || r.To != nil
}

// NumberRange is an inclusive numeric window; either bound may be absent.
type NumberRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// IsSet reports whether either bound is present.
func (r NumberRange) IsSet() bool {
	return r.Min != nil || r.Max != nil
}

// Contains reports whether v lies within the range.
func (r NumberRange) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// ViewMode narrows comments relative to the viewing user.
type ViewMode string

const (
	ViewAll        ViewMode = "all"
	ViewUnresolved ViewMode = "unresolved"
	ViewAssigned   ViewMode = "assigned"
	ViewCreated    ViewMode = "created"
)

// Criteria is the single record driving the filter engine.
// Multi-select sets are ORed internally; dimensions are ANDed together.
// Boolean flags are nil when off and true when on; false is never offered.
type Criteria struct {
	Query          string            `json:"query,omitempty"`
	Statuses       []CommentStatus   `json:"statuses,omitempty"`
	Priorities     []CommentPriority `json:"priorities,omitempty"`
	Types          []CommentType     `json:"types,omitempty"`
	Authors        []string          `json:"authors,omitempty"`
	Assignees      []string          `json:"assignees,omitempty"`
	Tags           []string          `json:"tags,omitempty"`
	DateRange      DateRange         `json:"date_range"`
	HasAttachments *bool             `json:"has_attachments,omitempty"`
	HasVoiceNote   *bool             `json:"has_voice_note,omitempty"`
	HasReplies     *bool             `json:"has_replies,omitempty"`
	ReplyCount     NumberRange       `json:"reply_count"`
	AIConfidence   NumberRange       `json:"ai_confidence"`
	ViewMode       ViewMode          `json:"view_mode,omitempty"`
	ViewerID       string            `json:"viewer_id,omitempty"`
}

// SavedFilter is a named, persisted snapshot of Criteria.
type SavedFilter struct {
	ID         string     `json:"id"`
	Name       string     `json:"name" validate:"required,max=100"`
	Criteria   Criteria   `json:"criteria"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	UseCount   int        `json:"use_count"`
}
