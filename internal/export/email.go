package export

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/mail.v2"
)

// renderEmail produces a plain-text RFC 822 message suitable for a mail client to send.
func renderEmail(w io.Writer, d *Document) error {
	m := mail.NewMessage()
	if d.Options.Recipient != "" {
		m.SetHeader("To", d.Options.Recipient)
	}
	m.SetHeader("Subject", fmt.Sprintf("%s (%d comments)", headerText(d.Title), len(d.Comments)))
	m.SetHeader("Message-ID", "<"+d.ID+"@pinpoint>")
	m.SetDateHeader("Date", d.GeneratedAt.UTC())
	m.SetBody("text/plain", emailBody(d))

	_, err := m.WriteTo(w)
	return err
}

// headerText folds any line breaks or runs of whitespace into single spaces.
func headerText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func emailBody(d *Document) string {
	var b strings.Builder
	if d.Stats != nil {
		for _, l := range statsLines(d.Stats) {
			b.WriteString(l + "\r\n")
		}
		b.WriteString("\r\n")
	}
	for _, g := range d.Groups {
		fmt.Fprintf(&b, "%s\r\n%s\r\n", g.Label, strings.Repeat("-", len([]rune(g.Label))))
		for i, c := range g.Comments {
			fmt.Fprintf(&b, "%d. %s (%s): %s\r\n", i+1, c.Author.Name, c.Anchor.String(), c.Content)
			if d.Options.Include.Metadata {
				fmt.Fprintf(&b, "   %s\r\n", metaLine(c))
			}
			if a := d.Analysis(c.ID); a != nil {
				fmt.Fprintf(&b, "   AI: %s\r\n", analysisLine(a))
			}
			if d.Options.Include.Replies {
				for _, r := range c.Replies {
					fmt.Fprintf(&b, "   > %s: %s\r\n", r.Author.Name, r.Content)
				}
			}
		}
		b.WriteString("\r\n")
	}
	if wm := d.Options.Branding.Watermark; wm != "" {
		fmt.Fprintf(&b, "-- \r\n%s\r\n", wm)
	}
	return b.String()
}
