// Package filter narrows and orders comment lists. Every function here is pure:
// the same inputs always produce the same output and nothing is mutated.
package filter

import (
	"strings"

	"github.com/joescharf/pinpoint/internal/models"
)

// Apply returns the comments satisfying every active dimension of c, in input order.
func Apply(comments []*models.Comment, c models.Criteria) []*models.Comment {
	out := make([]*models.Comment, 0, len(comments))
	for _, cm := range comments {
		if Matches(cm, c) {
			out = append(out, cm)
		}
	}
	return out
}

// Matches reports whether a single comment passes the criteria.
// Dimensions are ANDed; values inside a multi-select set are ORed.
func Matches(cm *models.Comment, c models.Criteria) bool {
	if !MatchesQuery(cm, c.Query) {
		return false
	}
	if len(c.Statuses) > 0 && !contains(c.Statuses, cm.Status) {
		return false
	}
	if len(c.Priorities) > 0 && !contains(c.Priorities, cm.Priority) {
		return false
	}
	if len(c.Types) > 0 && !contains(c.Types, cm.Type) {
		return false
	}
	if len(c.Authors) > 0 && !matchesUser(c.Authors, &cm.Author) {
		return false
	}
	if len(c.Assignees) > 0 && (cm.Assignee == nil || !matchesUser(c.Assignees, cm.Assignee)) {
		return false
	}
	if len(c.Tags) > 0 && !anyTag(c.Tags, cm.Labels) {
		return false
	}
	if !InDateRange(cm, c.DateRange) {
		return false
	}
	if flagOn(c.HasAttachments) && len(cm.Attachments) == 0 {
		return false
	}
	if flagOn(c.HasVoiceNote) && !cm.HasVoiceNote() {
		return false
	}
	if flagOn(c.HasReplies) && len(cm.Replies) == 0 {
		return false
	}
	if c.ReplyCount.IsSet() && !c.ReplyCount.Contains(float64(len(cm.Replies))) {
		return false
	}
	if c.AIConfidence.IsSet() && (cm.AIConfidence == nil || !c.AIConfidence.Contains(*cm.AIConfidence)) {
		return false
	}
	return matchesView(cm, c.ViewMode, c.ViewerID)
}

// InDateRange checks the comment's creation time against inclusive bounds.
func InDateRange(cm *models.Comment, r models.DateRange) bool {
	if r.From != nil && cm.CreatedAt.Before(*r.From) {
		return false
	}
	if r.To != nil && cm.CreatedAt.After(*r.To) {
		return false
	}
	return true
}

func matchesView(cm *models.Comment, mode models.ViewMode, viewer string) bool {
	switch mode {
	case models.ViewUnresolved:
		return cm.Status != models.CommentStatusResolved
	case models.ViewAssigned:
		return cm.Assignee != nil && cm.Assignee.ID == viewer
	case models.ViewCreated:
		return cm.Author.ID == viewer
	}
	return true
}

// matchesUser accepts either the user id or the display name.
func matchesUser(wanted []string, u *models.User) bool {
	for _, w := range wanted {
		if w == u.ID || strings.EqualFold(w, u.Name) {
			return true
		}
	}
	return false
}

func anyTag(wanted, labels []string) bool {
	for _, w := range wanted {
		for _, l := range labels {
			if strings.EqualFold(w, l) {
				return true
			}
		}
	}
	return false
}

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func flagOn(b *bool) bool {
	return b != nil && *b
}

// ToggleFlag cycles a boolean filter between off (nil) and on (true).
// False is never produced.
func ToggleFlag(b *bool) *bool {
	if flagOn(b) {
		return nil
	}
	on := true
	return &on
}

// ActiveCount returns the number of non-default dimensions shown on the filter badge:
// a non-empty query, each non-empty multi-select set, a date range with either bound,
// and each set boolean flag.
func ActiveCount(c models.Criteria) int {
	n := 0
	if strings.TrimSpace(c.Query) != "" {
		n++
	}
	for _, size := range []int{len(c.Statuses), len(c.Priorities), len(c.Types), len(c.Authors), len(c.Assignees), len(c.Tags)} {
		if size > 0 {
			n++
		}
	}
	if c.DateRange.IsSet() {
		n++
	}
	for _, f := range []*bool{c.HasAttachments, c.HasVoiceNote, c.HasReplies} {
		if f != nil {
			n++
		}
	}
	return n
}

// ExtendedActiveCount adds the numeric ranges and a non-default view mode to ActiveCount.
func ExtendedActiveCount(c models.Criteria) int {
	n := ActiveCount(c)
	if c.ReplyCount.IsSet() {
		n++
	}
	if c.AIConfidence.IsSet() {
		n++
	}
	if c.ViewMode != "" && c.ViewMode != models.ViewAll {
		n++
	}
	return n
}
