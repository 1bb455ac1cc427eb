package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/joescharf/pinpoint/internal/models"
)

// tableHeader and tableRow define the flat layout shared by CSV and Excel.
func tableHeader(d *Document) []string {
	inc := d.Options.Include
	cols := []string{"ID", "Group", "Author", "Anchor", "Content"}
	if inc.Metadata {
		cols = append(cols, "Status", "Priority", "Type", "Assignee", "Labels")
	}
	if inc.Replies {
		cols = append(cols, "Replies")
	}
	if inc.Attachments {
		cols = append(cols, "Attachments")
	}
	if inc.Timestamps {
		cols = append(cols, "Created", "Resolved")
	}
	if inc.AIAnalysis {
		cols = append(cols, "Sentiment", "Confidence", "Themes")
	}
	return cols
}

func tableRow(d *Document, group string, c *models.Comment) []string {
	inc := d.Options.Include
	row := []string{c.ID, group, c.Author.Name, c.Anchor.String(), c.Content}
	if inc.Metadata {
		assignee := ""
		if c.Assignee != nil {
			assignee = c.Assignee.Name
		}
		row = append(row, string(c.Status), string(c.Priority), string(c.Type), assignee, strings.Join(c.Labels, ";"))
	}
	if inc.Replies {
		replies := make([]string, len(c.Replies))
		for i, r := range c.Replies {
			replies[i] = r.Author.Name + ": " + r.Content
		}
		row = append(row, strings.Join(replies, "\n"))
	}
	if inc.Attachments {
		var names []string
		names = append(names, attachmentNames(c.Attachments)...)
		for _, r := range c.Replies {
			names = append(names, attachmentNames(r.Attachments)...)
		}
		row = append(row, strings.Join(names, ";"))
	}
	if inc.Timestamps {
		resolved := ""
		if c.ResolvedAt != nil {
			resolved = formatTime(*c.ResolvedAt)
		}
		row = append(row, formatTime(c.CreatedAt), resolved)
	}
	if inc.AIAnalysis {
		if a := d.Analysis(c.ID); a != nil {
			row = append(row, string(a.Sentiment), fmt.Sprintf("%.2f", a.Confidence), strings.Join(a.Themes, ";"))
		} else {
			row = append(row, "", "", "")
		}
	}
	return row
}

func renderCSV(w io.Writer, d *Document) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tableHeader(d)); err != nil {
		return err
	}
	for _, g := range d.Groups {
		for _, c := range g.Comments {
			if err := cw.Write(tableRow(d, g.Label, c)); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
