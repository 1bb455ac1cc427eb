package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/pinpoint/internal/filter"
	"github.com/joescharf/pinpoint/internal/models"
)

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()
	assert.Equal(t, FormatPDF, o.Format)
	assert.Equal(t, TemplateStandard, o.Template)
	assert.Equal(t, filter.DefaultOrder, o.Sort)
	assert.False(t, o.Include.AIAnalysis)
	assert.True(t, o.Include.Replies)
	assert.NoError(t, o.Validate())
}

func TestWithTemplate(t *testing.T) {
	tests := []struct {
		template Template
		want     Include
		privacy  Privacy
	}{
		{TemplateExecutive, Include{AIAnalysis: true, Statistics: true}, Privacy{}},
		{TemplateDetailed, Include{Replies: true, Attachments: true, Timestamps: true, Metadata: true, AIAnalysis: true, Statistics: true}, Privacy{}},
		{TemplateClient, Include{Replies: true, Attachments: true, Timestamps: true}, Privacy{AnonymizeUsers: true, ExcludePrivate: true}},
		{TemplateStandard, Include{Replies: true, Attachments: true, Timestamps: true, Metadata: true, Statistics: true}, Privacy{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.template), func(t *testing.T) {
			o := Options{Format: FormatCSV}.WithTemplate(tt.template)
			assert.Equal(t, tt.template, o.Template)
			assert.Equal(t, tt.want, o.Include)
			assert.Equal(t, tt.privacy, o.Privacy)
		})
	}
}

func TestValidate(t *testing.T) {
	o := DefaultOptions()
	o.GroupBy = "team"
	assert.Error(t, o.Validate())

	o = DefaultOptions()
	o.Template = "fancy"
	assert.Error(t, o.Validate())

	o = DefaultOptions()
	o.Format = FormatEmail
	o.Recipient = "not-an-address"
	assert.Error(t, o.Validate())

	o.Recipient = "team@example.com\r\nCc: leak@evil.example"
	err := o.Validate()
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"recipient"}, verr.Fields)

	o.Recipient = "team@example.com"
	assert.NoError(t, o.Validate())
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"pdf":   FormatPDF,
		"XLSX":  FormatExcel,
		"md":    FormatMarkdown,
		"docx":  FormatWord,
		"deck":  FormatSlides,
		"eml":   FormatEmail,
		"json":  FormatJSON,
		" csv ": FormatCSV,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("ods")
	assert.Error(t, err)
}

func TestFormatMetadata(t *testing.T) {
	for _, f := range Formats {
		assert.True(t, f.Valid())
		assert.NotEmpty(t, f.Extension(), f)
		assert.NotEmpty(t, f.MimeType(), f)
	}
	assert.False(t, Format("ods").Valid())
}
