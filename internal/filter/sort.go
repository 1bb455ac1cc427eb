package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joescharf/pinpoint/internal/models"
)

// SortKey selects the field comments are ordered by.
type SortKey string

const (
	SortCreated   SortKey = "created"
	SortUpdated   SortKey = "updated"
	SortPriority  SortKey = "priority"
	SortStatus    SortKey = "status"
	SortAuthor    SortKey = "author"
	SortReplies   SortKey = "replies"
	SortRelevance SortKey = "relevance"
)

// SortKeys lists the accepted sort keys.
var SortKeys = []SortKey{SortCreated, SortUpdated, SortPriority, SortStatus, SortAuthor, SortReplies, SortRelevance}

// Order is an explicit sort option: a key plus direction.
type Order struct {
	Key        SortKey `json:"key"`
	Descending bool    `json:"descending"`
}

// DefaultOrder is newest first.
var DefaultOrder = Order{Key: SortCreated, Descending: true}

// ParseOrder reads "key" or "key:asc"/"key:desc". A bare key sorts ascending,
// except created/updated/priority/replies/relevance which default to descending.
func ParseOrder(s string) (Order, error) {
	if s == "" {
		return DefaultOrder, nil
	}
	key, dir, hasDir := strings.Cut(s, ":")
	o := Order{Key: SortKey(strings.ToLower(key))}
	if !validKey(o.Key) {
		return Order{}, fmt.Errorf("unknown sort key %q", key)
	}
	switch {
	case !hasDir:
		o.Descending = o.Key != SortStatus && o.Key != SortAuthor
	case strings.EqualFold(dir, "asc"):
	case strings.EqualFold(dir, "desc"):
		o.Descending = true
	default:
		return Order{}, fmt.Errorf("unknown sort direction %q", dir)
	}
	return o, nil
}

func (o Order) String() string {
	if o.Descending {
		return string(o.Key) + ":desc"
	}
	return string(o.Key) + ":asc"
}

func validKey(k SortKey) bool {
	for _, v := range SortKeys {
		if v == k {
			return true
		}
	}
	return false
}

// Sort returns a stably sorted copy of comments. query feeds relevance ordering.
func Sort(comments []*models.Comment, o Order, query string) []*models.Comment {
	out := append([]*models.Comment(nil), comments...)

	var less func(a, b *models.Comment) bool
	switch o.Key {
	case SortUpdated:
		less = func(a, b *models.Comment) bool { return a.LastActivity().Before(b.LastActivity()) }
	case SortPriority:
		less = func(a, b *models.Comment) bool { return a.Priority.Rank() < b.Priority.Rank() }
	case SortStatus:
		less = func(a, b *models.Comment) bool { return a.Status.Rank() < b.Status.Rank() }
	case SortAuthor:
		less = func(a, b *models.Comment) bool {
			return strings.ToLower(a.Author.Name) < strings.ToLower(b.Author.Name)
		}
	case SortReplies:
		less = func(a, b *models.Comment) bool { return len(a.Replies) < len(b.Replies) }
	case SortRelevance:
		scores := make(map[*models.Comment]int, len(out))
		for _, c := range out {
			scores[c] = Relevance(c, query)
		}
		less = func(a, b *models.Comment) bool { return scores[a] < scores[b] }
	default:
		less = func(a, b *models.Comment) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}

	sort.SliceStable(out, func(i, j int) bool {
		if o.Descending {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}
