package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

const slideCommentsPerPage = 8

type pdfWriter struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func newPDF(orientation string, d *Document) *pdfWriter {
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pw := &pdfWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.SetTitle(d.Title, true)
	pdf.SetCreator("pinpoint", true)
	if wm := d.Options.Branding.Watermark; wm != "" {
		pdf.SetHeaderFunc(func() {
			w, h := pdf.GetPageSize()
			pdf.SetFont("Arial", "B", 48)
			pdf.SetTextColor(225, 225, 225)
			pdf.TransformBegin()
			pdf.TransformRotate(30, w/2, h/2)
			pdf.Text(w/2-pdf.GetStringWidth(pw.tr(wm))/2, h/2, pw.tr(wm))
			pdf.TransformEnd()
			pdf.SetTextColor(0, 0, 0)
			pdf.SetXY(pdf.GetX(), 10)
		})
	}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	return pw
}

func (pw *pdfWriter) heading(size float64, text string) {
	pw.pdf.SetFont("Arial", "B", size)
	pw.pdf.MultiCell(0, size/2, pw.tr(text), "", "L", false)
	pw.pdf.Ln(2)
}

func (pw *pdfWriter) text(style string, size float64, text string) {
	pw.pdf.SetFont("Arial", style, size)
	pw.pdf.MultiCell(0, 5, pw.tr(text), "", "L", false)
}

func (pw *pdfWriter) output(w io.Writer) error {
	if err := pw.pdf.Error(); err != nil {
		return err
	}
	return pw.pdf.Output(w)
}

func renderPDF(w io.Writer, d *Document) error {
	pw := newPDF("P", d)
	pw.pdf.AddPage()
	inc := d.Options.Include

	pw.heading(18, d.Title)
	if c := d.Options.Branding.Company; c != "" {
		pw.text("I", 11, c)
	}
	pw.text("", 9, fmt.Sprintf("Generated %s. %d comments.", formatTime(d.GeneratedAt), len(d.Comments)))
	pw.pdf.Ln(4)

	if d.Stats != nil {
		pw.heading(14, "Statistics")
		for _, l := range statsLines(d.Stats) {
			pw.text("", 10, l)
		}
		pw.pdf.Ln(4)
	}

	for _, g := range d.Groups {
		pw.heading(14, fmt.Sprintf("%s (%d)", g.Label, len(g.Comments)))
		for _, c := range g.Comments {
			pw.text("B", 10, fmt.Sprintf("%s at %s", c.Author.Name, c.Anchor.String()))
			pw.text("", 10, c.Content)
			if inc.Metadata {
				pw.text("I", 8, metaLine(c))
			}
			if inc.Timestamps {
				pw.text("I", 8, "Created "+formatTime(c.CreatedAt))
			}
			if inc.Attachments && len(c.Attachments) > 0 {
				pw.text("I", 8, "Attachments: "+joinOrDash(attachmentNames(c.Attachments)))
			}
			if a := d.Analysis(c.ID); a != nil {
				pw.text("I", 8, "AI: "+analysisLine(a))
			}
			if inc.Replies {
				for _, r := range c.Replies {
					pw.pdf.SetX(20)
					pw.text("", 9, fmt.Sprintf("%s: %s", r.Author.Name, r.Content))
				}
			}
			pw.pdf.Ln(3)
		}
	}
	return pw.output(w)
}

// renderSlides lays the document out as a landscape deck: a title slide, an
// optional statistics slide, then slides per group.
func renderSlides(w io.Writer, d *Document) error {
	pw := newPDF("L", d)

	pw.pdf.AddPage()
	pw.pdf.SetY(70)
	pw.heading(32, d.Title)
	if c := d.Options.Branding.Company; c != "" {
		pw.text("", 16, c)
	}
	pw.text("", 12, fmt.Sprintf("%d comments, %s", len(d.Comments), formatTime(d.GeneratedAt)))

	if d.Stats != nil {
		pw.pdf.AddPage()
		pw.heading(24, "Statistics")
		for _, l := range statsLines(d.Stats) {
			pw.text("", 14, l)
			pw.pdf.Ln(2)
		}
	}

	for _, g := range d.Groups {
		for start := 0; start < len(g.Comments); start += slideCommentsPerPage {
			end := min(start+slideCommentsPerPage, len(g.Comments))
			pw.pdf.AddPage()
			title := g.Label
			if start > 0 {
				title += " (cont.)"
			}
			pw.heading(24, title)
			for _, c := range g.Comments[start:end] {
				line := fmt.Sprintf("- %s: %s", c.Author.Name, c.Content)
				if a := d.Analysis(c.ID); a != nil {
					line += fmt.Sprintf(" [%s]", a.Sentiment)
				}
				pw.text("", 13, line)
				pw.pdf.Ln(1)
			}
		}
	}
	return pw.output(w)
}
