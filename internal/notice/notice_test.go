package notice

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joescharf/pinpoint/internal/models"
	"github.com/joescharf/pinpoint/internal/store"
)

type remoteErr struct{}

func (remoteErr) Error() string      { return "endpoint returned 502" }
func (remoteErr) Category() Category { return CategoryRemote }

func TestSuccess(t *testing.T) {
	n := Success("resolve comment", "01HXYZ")
	assert.True(t, n.OK())
	assert.Equal(t, "resolve comment: 01HXYZ", n.String())
}

func TestFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"validation", &models.ValidationError{Fields: []string{"name"}, Msg: "name is required"}, CategoryValidation},
		{"not found", fmt.Errorf("load: %w", &store.NotFoundError{Kind: "comment", ID: "c1"}), CategoryNotFound},
		{"categorized", fmt.Errorf("action: %w", remoteErr{}), CategoryRemote},
		{"plain", errors.New("disk full"), CategoryStore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Failure("save filter", "Open bugs", tt.err)
			assert.False(t, n.OK())
			assert.Equal(t, tt.want, n.Category)
			assert.Contains(t, n.Message, "save filter failed for Open bugs: ")
		})
	}
}

func TestFailure_NilIsSuccess(t *testing.T) {
	assert.True(t, Failure("delete comment", "c1", nil).OK())
}
