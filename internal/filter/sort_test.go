package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/pinpoint/internal/models"
)

func TestSort(t *testing.T) {
	tests := []struct {
		name  string
		order Order
		query string
		want  []string
	}{
		{"newest first", Order{Key: SortCreated, Descending: true}, "", []string{"c5", "c4", "c3", "c2", "c1"}},
		{"oldest first", Order{Key: SortCreated}, "", []string{"c1", "c2", "c3", "c4", "c5"}},
		{"priority", Order{Key: SortPriority, Descending: true}, "", []string{"c3", "c1", "c5", "c4", "c2"}},
		{"status", Order{Key: SortStatus}, "", []string{"c1", "c2", "c4", "c3", "c5"}},
		{"author", Order{Key: SortAuthor}, "", []string{"c1", "c4", "c5", "c2", "c3"}},
		{"replies", Order{Key: SortReplies, Descending: true}, "", []string{"c3", "c2", "c1", "c4", "c5"}},
		{"relevance", Order{Key: SortRelevance, Descending: true}, "checkout crashes footer", []string{"c3", "c5", "c1", "c2", "c4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Sort(fixture(), tt.order, tt.query)))
		})
	}
}

func TestSort_UpdatedFallsBackToCreated(t *testing.T) {
	cs := fixture()
	touched := base.Add(10 * time.Hour)
	cs[0].UpdatedAt = &touched

	got := Sort(cs, Order{Key: SortUpdated, Descending: true}, "")
	assert.Equal(t, "c1", got[0].ID)
	assert.Equal(t, "c5", got[1].ID)
}

func TestSort_DoesNotMutateInput(t *testing.T) {
	cs := fixture()
	_ = Sort(cs, Order{Key: SortCreated, Descending: true}, "")
	assert.Equal(t, []string{"c1", "c2", "c3", "c4", "c5"}, ids(cs))
}

func TestParseOrder(t *testing.T) {
	o, err := ParseOrder("")
	require.NoError(t, err)
	assert.Equal(t, DefaultOrder, o)

	o, err = ParseOrder("priority")
	require.NoError(t, err)
	assert.Equal(t, Order{Key: SortPriority, Descending: true}, o)

	o, err = ParseOrder("author")
	require.NoError(t, err)
	assert.False(t, o.Descending)

	o, err = ParseOrder("created:ASC")
	require.NoError(t, err)
	assert.Equal(t, "created:asc", o.String())

	_, err = ParseOrder("color")
	assert.Error(t, err)
	_, err = ParseOrder("created:sideways")
	assert.Error(t, err)
}

func TestSort_EmptyAndStable(t *testing.T) {
	assert.Empty(t, Sort(nil, DefaultOrder, ""))

	a := &models.Comment{ID: "a", Priority: models.CommentPriorityHigh}
	b := &models.Comment{ID: "b", Priority: models.CommentPriorityHigh}
	got := Sort([]*models.Comment{a, b}, Order{Key: SortPriority, Descending: true}, "")
	assert.Equal(t, []string{"a", "b"}, ids(got))
}
