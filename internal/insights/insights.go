package insights

import (
	"sort"
	"time"

	"github.com/joescharf/pinpoint/internal/models"
)

// Count is a labelled tally.
type Count struct {
	Label string `json:"label"`
	N     int    `json:"count"`
}

// WeekBucket tallies comments created and resolved in the week starting Monday at Start.
type WeekBucket struct {
	Start    time.Time `json:"start"`
	Created  int       `json:"created"`
	Resolved int       `json:"resolved"`
}

// Insights are aggregates derived from comments and their analyses. They are
// recomputed on demand and never stored.
type Insights struct {
	TotalComments         int          `json:"total_comments"`
	Analyzed              int          `json:"analyzed"`
	AverageSentiment      float64      `json:"average_sentiment"`
	Sentiments            []Count      `json:"sentiments"`
	TopThemes             []Count      `json:"top_themes"`
	ResolvedCount         int          `json:"resolved_count"`
	MeanResolutionHours   float64      `json:"mean_resolution_hours"`
	MedianResolutionHours float64      `json:"median_resolution_hours"`
	Priorities            []Count      `json:"priorities"`
	Statuses              []Count      `json:"statuses"`
	Weekly                []WeekBucket `json:"weekly"`
}

// Compute derives insights. Analyses for comments not in the list are ignored.
// topThemes caps the theme list; zero means five.
func Compute(comments []*models.Comment, analyses []*models.Analysis, topThemes int) *Insights {
	if topThemes <= 0 {
		topThemes = 5
	}
	in := &Insights{TotalComments: len(comments)}

	byID := Index(analyses)
	sentiments := map[models.Sentiment]int{}
	themes := map[string]int{}
	var scoreSum float64
	for _, c := range comments {
		a, ok := byID[c.ID]
		if !ok {
			continue
		}
		in.Analyzed++
		sentiments[a.Sentiment]++
		scoreSum += a.Sentiment.Score()
		for _, t := range a.Themes {
			themes[t]++
		}
	}
	if in.Analyzed > 0 {
		in.AverageSentiment = scoreSum / float64(in.Analyzed)
	}
	for _, s := range []models.Sentiment{models.SentimentPositive, models.SentimentConstructive, models.SentimentNeutral, models.SentimentNegative} {
		in.Sentiments = append(in.Sentiments, Count{Label: string(s), N: sentiments[s]})
	}
	in.TopThemes = topCounts(themes, topThemes)

	priorities := map[models.CommentPriority]int{}
	statuses := map[models.CommentStatus]int{}
	var durations []time.Duration
	for _, c := range comments {
		priorities[c.Priority]++
		statuses[c.Status]++
		if c.Status == models.CommentStatusResolved && c.ResolvedAt != nil && !c.ResolvedAt.Before(c.CreatedAt) {
			durations = append(durations, c.ResolvedAt.Sub(c.CreatedAt))
		}
	}
	for _, p := range models.Priorities {
		in.Priorities = append(in.Priorities, Count{Label: string(p), N: priorities[p]})
	}
	for _, s := range models.Statuses {
		in.Statuses = append(in.Statuses, Count{Label: string(s), N: statuses[s]})
	}

	in.ResolvedCount = len(durations)
	if len(durations) > 0 {
		sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
		var sum time.Duration
		for _, d := range durations {
			sum += d
		}
		in.MeanResolutionHours = (sum / time.Duration(len(durations))).Hours()
		mid := len(durations) / 2
		median := durations[mid]
		if len(durations)%2 == 0 {
			median = (durations[mid-1] + durations[mid]) / 2
		}
		in.MedianResolutionHours = median.Hours()
	}

	in.Weekly = weekly(comments)
	return in
}

func topCounts(m map[string]int, n int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Label: k, N: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Label < out[j].Label
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// WeekStart returns Monday 00:00 UTC of the week containing t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, time.UTC)
}

// weekly returns contiguous buckets from the earliest to the latest active week.
func weekly(comments []*models.Comment) []WeekBucket {
	created := map[time.Time]int{}
	resolved := map[time.Time]int{}
	var first, last time.Time
	mark := func(w time.Time) {
		if first.IsZero() || w.Before(first) {
			first = w
		}
		if w.After(last) {
			last = w
		}
	}
	for _, c := range comments {
		w := WeekStart(c.CreatedAt)
		created[w]++
		mark(w)
		if c.ResolvedAt != nil {
			rw := WeekStart(*c.ResolvedAt)
			resolved[rw]++
			mark(rw)
		}
	}
	if first.IsZero() {
		return nil
	}
	var out []WeekBucket
	for w := first; !w.After(last); w = w.AddDate(0, 0, 7) {
		out = append(out, WeekBucket{Start: w, Created: created[w], Resolved: resolved[w]})
	}
	return out
}
