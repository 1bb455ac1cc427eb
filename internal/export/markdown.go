package export

import (
	"fmt"
	"io"
	"strings"
)

func renderMarkdown(w io.Writer, d *Document) error {
	var b strings.Builder
	inc := d.Options.Include

	fmt.Fprintf(&b, "# %s\n\n", d.Title)
	if d.Options.Branding.Company != "" {
		fmt.Fprintf(&b, "_%s_\n\n", d.Options.Branding.Company)
	}
	fmt.Fprintf(&b, "Generated %s. %d comments.\n\n", formatTime(d.GeneratedAt), len(d.Comments))
	if wm := d.Options.Branding.Watermark; wm != "" {
		fmt.Fprintf(&b, "> %s\n\n", wm)
	}

	if d.Stats != nil {
		b.WriteString("## Statistics\n\n")
		for _, l := range statsLines(d.Stats) {
			fmt.Fprintf(&b, "- %s\n", l)
		}
		b.WriteString("\n")
	}
	if d.Insights != nil && len(d.Insights.TopThemes) > 0 {
		b.WriteString("## Top themes\n\n")
		for _, t := range d.Insights.TopThemes {
			fmt.Fprintf(&b, "- %s (%d)\n", t.Label, t.N)
		}
		b.WriteString("\n")
	}

	for _, g := range d.Groups {
		fmt.Fprintf(&b, "## %s (%d)\n\n", g.Label, len(g.Comments))
		for _, c := range g.Comments {
			fmt.Fprintf(&b, "### %s at %s\n\n", c.Author.Name, c.Anchor.String())
			fmt.Fprintf(&b, "%s\n\n", c.Content)
			if inc.Metadata {
				fmt.Fprintf(&b, "*%s*\n\n", metaLine(c))
			}
			if inc.Timestamps {
				fmt.Fprintf(&b, "Created %s", formatTime(c.CreatedAt))
				if c.ResolvedAt != nil {
					fmt.Fprintf(&b, ", resolved %s", formatTime(*c.ResolvedAt))
				}
				b.WriteString("\n\n")
			}
			if inc.Attachments && len(c.Attachments) > 0 {
				fmt.Fprintf(&b, "Attachments: %s\n\n", joinOrDash(attachmentNames(c.Attachments)))
			}
			if a := d.Analysis(c.ID); a != nil {
				fmt.Fprintf(&b, "AI: %s\n\n", analysisLine(a))
			}
			if inc.Replies && len(c.Replies) > 0 {
				for _, r := range c.Replies {
					fmt.Fprintf(&b, "> **%s**: %s\n", r.Author.Name, r.Content)
				}
				b.WriteString("\n")
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
