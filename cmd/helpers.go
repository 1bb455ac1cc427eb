package cmd

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/joescharf/pinpoint/internal/comments"
	"github.com/joescharf/pinpoint/internal/filter"
	"github.com/joescharf/pinpoint/internal/models"
	"github.com/joescharf/pinpoint/internal/notice"
)

// criteriaFlags mirror the API's filter query parameters.
var criteriaFlags = []struct{ name, usage string }{
	{filter.ParamQuery, "Search text (content, author, replies, tags)"},
	{filter.ParamStatus, "Statuses: open, in_progress, resolved, wont_fix"},
	{filter.ParamPriority, "Priorities: critical, high, medium, low"},
	{filter.ParamType, "Types: text, voice, screen, drawing"},
	{filter.ParamAuthor, "Author ids or names"},
	{filter.ParamAssignee, "Assignee ids or names"},
	{filter.ParamTag, "Labels"},
	{filter.ParamPreset, "Date preset: today, yesterday, this_week, last_week, this_month, last_month, last_7_days, last_30_days, last_90_days, this_year"},
	{filter.ParamFrom, "Created on or after (YYYY-MM-DD or RFC 3339)"},
	{filter.ParamTo, "Created on or before (YYYY-MM-DD or RFC 3339)"},
	{filter.ParamMinReplies, "Minimum reply count"},
	{filter.ParamMaxReplies, "Maximum reply count"},
	{filter.ParamMinConfidence, "Minimum AI confidence (0-1)"},
	{filter.ParamMaxConfidence, "Maximum AI confidence (0-1)"},
	{filter.ParamView, "View mode: all, unresolved, assigned, created"},
}

var criteriaBoolFlags = []struct{ name, usage string }{
	{filter.ParamHasAttachments, "Only comments with attachments"},
	{filter.ParamHasVoiceNote, "Only comments with a voice note"},
	{filter.ParamHasReplies, "Only comments with replies"},
}

// addCriteriaFlags registers the filter flags on cmd. Multi-valued flags take
// comma-separated lists.
func addCriteriaFlags(cmd *cobra.Command) {
	for _, f := range criteriaFlags {
		cmd.Flags().String(f.name, "", f.usage)
	}
	for _, f := range criteriaBoolFlags {
		cmd.Flags().Bool(f.name, false, f.usage)
	}
}

// criteriaFromFlags turns the changed filter flags into criteria. The viewer
// for assigned/created views is the configured user.
func criteriaFromFlags(flags *pflag.FlagSet) (models.Criteria, error) {
	v := url.Values{}
	flags.Visit(func(f *pflag.Flag) {
		if isCriteriaFlag(f.Name) {
			v.Set(f.Name, f.Value.String())
		}
	})
	if v.Has(filter.ParamView) {
		v.Set(filter.ParamViewer, currentUser().ID)
	}
	return filter.ParseQuery(v, time.Now())
}

func isCriteriaFlag(name string) bool {
	for _, f := range criteriaFlags {
		if f.name == name {
			return true
		}
	}
	for _, f := range criteriaBoolFlags {
		if f.name == name {
			return true
		}
	}
	return false
}

// currentUser is the identity recorded on CLI mutations.
func currentUser() models.User {
	id := viper.GetString("user.id")
	if id == "" {
		id = "cli"
	}
	name := viper.GetString("user.name")
	if name == "" {
		name = id
	}
	return models.User{ID: id, Name: name}
}

// findComment resolves a full comment id or a unique prefix of one.
func findComment(ctx context.Context, svc *comments.Service, id string) (*models.Comment, error) {
	// Try exact match first
	if c, err := svc.Get(ctx, id); err == nil {
		return c, nil
	}

	upper := strings.ToUpper(id)
	all, err := svc.List(ctx, "", models.Criteria{}, filter.DefaultOrder)
	if err != nil {
		return nil, err
	}

	var matches []*models.Comment
	for _, c := range all {
		if strings.HasPrefix(c.ID, upper) {
			matches = append(matches, c)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("comment not found: %s", id)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous comment ID %s: matches %d comments", id, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

func timeAgo(t time.Time) string {
	return humanize.Time(t)
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// noticeError carries the failure notice of a CLI operation up to Execute.
type noticeError struct {
	notice notice.Notice
	err    error
}

func (e *noticeError) Error() string { return e.notice.Message }
func (e *noticeError) Unwrap() error { return e.err }

// failure names the operation and entity that failed.
func failure(op, entity string, err error) error {
	return &noticeError{notice: notice.Failure(op, entity, err), err: err}
}
