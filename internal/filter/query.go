package filter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joescharf/pinpoint/internal/models"
)

// Query parameter names understood by ParseQuery.
const (
	ParamQuery          = "q"
	ParamStatus         = "status"
	ParamPriority       = "priority"
	ParamType           = "type"
	ParamAuthor         = "author"
	ParamAssignee       = "assignee"
	ParamTag            = "tag"
	ParamPreset         = "preset"
	ParamFrom           = "from"
	ParamTo             = "to"
	ParamHasAttachments = "has_attachments"
	ParamHasVoiceNote   = "has_voice_note"
	ParamHasReplies     = "has_replies"
	ParamMinReplies     = "min_replies"
	ParamMaxReplies     = "max_replies"
	ParamMinConfidence  = "min_confidence"
	ParamMaxConfidence  = "max_confidence"
	ParamView           = "view"
	ParamViewer         = "viewer"
)

// ParseQuery builds criteria from URL-style parameters. Multi-valued
// parameters may repeat or be comma separated. A preset wins over from/to and
// is resolved against now. A date-only "to" covers the whole day.
func ParseQuery(v url.Values, now time.Time) (models.Criteria, error) {
	c := models.Criteria{
		Query:     strings.TrimSpace(v.Get(ParamQuery)),
		Authors:   list(v, ParamAuthor),
		Assignees: list(v, ParamAssignee),
		Tags:      list(v, ParamTag),
		ViewMode:  models.ViewMode(v.Get(ParamView)),
		ViewerID:  v.Get(ParamViewer),
	}

	for _, s := range list(v, ParamStatus) {
		st := models.CommentStatus(s)
		if !st.Valid() {
			return models.Criteria{}, fmt.Errorf("unknown status %q", s)
		}
		c.Statuses = append(c.Statuses, st)
	}
	for _, s := range list(v, ParamPriority) {
		p := models.CommentPriority(s)
		if !p.Valid() {
			return models.Criteria{}, fmt.Errorf("unknown priority %q", s)
		}
		c.Priorities = append(c.Priorities, p)
	}
	for _, s := range list(v, ParamType) {
		t := models.CommentType(s)
		if !t.Valid() {
			return models.Criteria{}, fmt.Errorf("unknown type %q", s)
		}
		c.Types = append(c.Types, t)
	}

	switch c.ViewMode {
	case "", models.ViewAll, models.ViewUnresolved, models.ViewAssigned, models.ViewCreated:
	default:
		return models.Criteria{}, fmt.Errorf("unknown view mode %q", c.ViewMode)
	}

	if p := v.Get(ParamPreset); p != "" {
		r, err := ResolvePreset(models.DatePreset(p), now)
		if err != nil {
			return models.Criteria{}, err
		}
		c.DateRange = r
	} else {
		from, err := parseDate(v.Get(ParamFrom), false)
		if err != nil {
			return models.Criteria{}, fmt.Errorf("from: %w", err)
		}
		to, err := parseDate(v.Get(ParamTo), true)
		if err != nil {
			return models.Criteria{}, fmt.Errorf("to: %w", err)
		}
		c.DateRange = models.DateRange{From: from, To: to}
	}

	var err error
	if c.HasAttachments, err = flag(v, ParamHasAttachments); err != nil {
		return models.Criteria{}, err
	}
	if c.HasVoiceNote, err = flag(v, ParamHasVoiceNote); err != nil {
		return models.Criteria{}, err
	}
	if c.HasReplies, err = flag(v, ParamHasReplies); err != nil {
		return models.Criteria{}, err
	}
	if c.ReplyCount, err = numberRange(v, ParamMinReplies, ParamMaxReplies); err != nil {
		return models.Criteria{}, err
	}
	if c.AIConfidence, err = numberRange(v, ParamMinConfidence, ParamMaxConfidence); err != nil {
		return models.Criteria{}, err
	}
	return c, nil
}

func list(v url.Values, key string) []string {
	var out []string
	for _, raw := range v[key] {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func parseDate(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD or RFC 3339)", s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// flag accepts true-ish values only; false or empty leaves the flag off.
func flag(v url.Values, key string) (*bool, error) {
	s := v.Get(key)
	if s == "" {
		return nil, nil
	}
	on, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid boolean %q", key, s)
	}
	if !on {
		return nil, nil
	}
	return &on, nil
}

func numberRange(v url.Values, minKey, maxKey string) (models.NumberRange, error) {
	var r models.NumberRange
	for _, p := range []struct {
		key string
		dst **float64
	}{{minKey, &r.Min}, {maxKey, &r.Max}} {
		s := v.Get(p.key)
		if s == "" {
			continue
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return models.NumberRange{}, fmt.Errorf("%s: invalid number %q", p.key, s)
		}
		*p.dst = &f
	}
	return r, nil
}
