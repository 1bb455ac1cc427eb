package models

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"ascii", "hello world", 8, "hello..."},
		{"multibyte", strings.Repeat("é", 10), 6, "ééé..."},
		{"tiny limit", "héllo", 2, "hé"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestComment_String(t *testing.T) {
	c := &Comment{Content: strings.Repeat("ü", 45), Author: User{Name: "Ada"}}
	got := c.String()
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, `"`+strings.Repeat("ü", 37)+`..." by Ada`, got)

	c.Content = "Logo too small"
	assert.Equal(t, `"Logo too small" by Ada`, c.String())
}
