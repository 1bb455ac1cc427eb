package models

import (
	"fmt"
	"time"
)

// CommentStatus represents the review state of a comment.
type CommentStatus string

const (
	CommentStatusOpen       CommentStatus = "open"
	CommentStatusInProgress CommentStatus = "in_progress"
	CommentStatusResolved   CommentStatus = "resolved"
	CommentStatusWontFix    CommentStatus = "wont_fix"
)

// CommentPriority represents the urgency of a comment.
type CommentPriority string

const (
	CommentPriorityLow      CommentPriority = "low"
	CommentPriorityMedium   CommentPriority = "medium"
	CommentPriorityHigh     CommentPriority = "high"
	CommentPriorityCritical CommentPriority = "critical"
)

// CommentType is the medium the feedback was captured in.
type CommentType string

const (
	CommentTypeText    CommentType = "text"
	CommentTypeVoice   CommentType = "voice"
	CommentTypeScreen  CommentType = "screen"
	CommentTypeDrawing CommentType = "drawing"
)

// Statuses lists every comment status in workflow order.
var Statuses = []CommentStatus{CommentStatusOpen, CommentStatusInProgress, CommentStatusResolved, CommentStatusWontFix}

// Priorities lists every priority from most to least urgent.
var Priorities = []CommentPriority{CommentPriorityCritical, CommentPriorityHigh, CommentPriorityMedium, CommentPriorityLow}

// Valid reports whether s is a known status.
func (s CommentStatus) Valid() bool {
	switch s {
	case CommentStatusOpen, CommentStatusInProgress, CommentStatusResolved, CommentStatusWontFix:
		return true
	}
	return false
}

// Rank orders statuses open < in_progress < resolved < wont_fix.
func (s CommentStatus) Rank() int {
	for i, st := range Statuses {
		if st == s {
			return i
		}
	}
	return len(Statuses)
}

// Valid reports whether p is a known priority.
func (p CommentPriority) Valid() bool {
	switch p {
	case CommentPriorityLow, CommentPriorityMedium, CommentPriorityHigh, CommentPriorityCritical:
		return true
	}
	return false
}

// Rank returns 3 for critical down to 0 for low; unknown priorities rank below low.
func (p CommentPriority) Rank() int {
	switch p {
	case CommentPriorityCritical:
		return 3
	case CommentPriorityHigh:
		return 2
	case CommentPriorityMedium:
		return 1
	case CommentPriorityLow:
		return 0
	}
	return -1
}

// Valid reports whether t is a known comment type.
func (t CommentType) Valid() bool {
	switch t {
	case CommentTypeText, CommentTypeVoice, CommentTypeScreen, CommentTypeDrawing:
		return true
	}
	return false
}

// User identifies the author, assignee or mentioned party of a comment.
type User struct {
	ID     string `json:"id" validate:"required"`
	Name   string `json:"name" validate:"required"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// Attachment is a file referenced by a comment or reply.
type Attachment struct {
	ID       string `json:"id"`
	Filename string `json:"filename" validate:"required"`
	MimeType string `json:"mime_type"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
}

// Reaction records the users that reacted with one emoji.
type Reaction struct {
	Emoji   string   `json:"emoji"`
	UserIDs []string `json:"user_ids"`
}

// Reply is a single-level response owned by a parent comment.
type Reply struct {
	ID             string       `json:"id"`
	CommentID      string       `json:"comment_id"`
	Author         User         `json:"author"`
	Content        string       `json:"content" validate:"required"`
	Type           CommentType  `json:"type"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	MentionedUsers []string     `json:"mentioned_users,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      *time.Time   `json:"updated_at,omitempty"`
}

// Comment is a user annotation anchored to a position within a media file.
type Comment struct {
	ID             string          `json:"id"`
	MediaID        string          `json:"media_id" validate:"required"`
	Anchor         Anchor          `json:"anchor"`
	Content        string          `json:"content" validate:"required"`
	Author         User            `json:"author"`
	Status         CommentStatus   `json:"status"`
	Priority       CommentPriority `json:"priority"`
	Type           CommentType     `json:"type"`
	Attachments    []Attachment    `json:"attachments,omitempty"`
	Replies        []Reply         `json:"replies"`
	Assignee       *User           `json:"assignee,omitempty"`
	Labels         []string        `json:"labels,omitempty"`
	MentionedUsers []string        `json:"mentioned_users,omitempty"`
	Reactions      []Reaction      `json:"reactions,omitempty"`
	VoiceURL       string          `json:"voice_url,omitempty"`
	Private        bool            `json:"private"`
	// AIConfidence mirrors the latest analysis confidence; nil until analyzed.
	AIConfidence *float64   `json:"ai_confidence,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

// HasVoiceNote reports whether the comment or any of its replies carries a voice note.
func (c *Comment) HasVoiceNote() bool {
	if c.Type == CommentTypeVoice || c.VoiceURL != "" {
		return true
	}
	for _, r := range c.Replies {
		if r.Type == CommentTypeVoice {
			return true
		}
	}
	return false
}

// AttachmentCount counts attachments on the comment and its replies.
func (c *Comment) AttachmentCount() int {
	n := len(c.Attachments)
	for _, r := range c.Replies {
		n += len(r.Attachments)
	}
	return n
}

// LastActivity returns the update time, falling back to creation time.
func (c *Comment) LastActivity() time.Time {
	if c.UpdatedAt != nil {
		return *c.UpdatedAt
	}
	return c.CreatedAt
}

// Clone returns a deep copy so callers can rewrite a comment without touching the original.
func (c *Comment) Clone() *Comment {
	cp := *c
	cp.Attachments = append([]Attachment(nil), c.Attachments...)
	cp.Labels = append([]string(nil), c.Labels...)
	cp.MentionedUsers = append([]string(nil), c.MentionedUsers...)
	cp.Reactions = append([]Reaction(nil), c.Reactions...)
	cp.Replies = make([]Reply, len(c.Replies))
	for i, r := range c.Replies {
		r.Attachments = append([]Attachment(nil), r.Attachments...)
		r.MentionedUsers = append([]string(nil), r.MentionedUsers...)
		cp.Replies[i] = r
	}
	if c.Assignee != nil {
		a := *c.Assignee
		cp.Assignee = &a
	}
	if c.Anchor.Highlight != nil {
		h := *c.Anchor.Highlight
		cp.Anchor.Highlight = &h
	}
	return &cp
}

// String renders a short human label, used in notices.
func (c *Comment) String() string {
	return fmt.Sprintf("%q by %s", Truncate(c.Content, 40), c.Author.Name)
}

// Truncate shortens s to at most n runes, ending in "..." when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
