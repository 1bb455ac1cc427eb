package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/joescharf/pinpoint/internal/notice"
)

// Error wraps a failure while rendering or writing an export.
type Error struct {
	Format Format
	Op     string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("export %s: %s: %v", e.Format, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Category classifies export failures for user notices.
func (e *Error) Category() notice.Category { return notice.CategoryExport }

type renderFunc func(w io.Writer, d *Document) error

var renderers = map[Format]renderFunc{
	FormatPDF:      renderPDF,
	FormatCSV:      renderCSV,
	FormatExcel:    renderExcel,
	FormatJSON:     renderJSON,
	FormatHTML:     renderHTML,
	FormatMarkdown: renderMarkdown,
	FormatWord:     renderWord,
	FormatSlides:   renderSlides,
	FormatEmail:    renderEmail,
}

// Result is a rendered export artifact.
type Result struct {
	ID        string
	Filename  string
	MimeType  string
	Format    Format
	Comments  int
	Estimated int64
	Data      []byte
}

// Exporter renders documents.
type Exporter struct {
	log *zap.Logger
	now func() time.Time
}

// NewExporter creates an exporter. A nil logger is replaced by a no-op logger.
func NewExporter(log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{log: log, now: time.Now}
}

// Preview runs the pipeline without rendering, for size estimates and counts.
func (e *Exporter) Preview(in Input, opts Options) (*Document, error) {
	return Prepare(in, opts, e.now())
}

// Export runs the pipeline and renders the document into memory.
func (e *Exporter) Export(ctx context.Context, in Input, opts Options) (*Result, error) {
	doc, err := Prepare(in, opts, e.now())
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &Error{Format: opts.Format, Op: "render", Err: err}
	}

	log := e.log.With(zap.String("export_id", doc.ID), zap.String("format", string(opts.Format)))
	var buf bytes.Buffer
	if err := renderers[opts.Format](&buf, doc); err != nil {
		log.Error("export failed", zap.Error(err))
		return nil, &Error{Format: opts.Format, Op: "render", Err: err}
	}
	log.Info("export rendered",
		zap.Int("comments", len(doc.Comments)),
		zap.Int("groups", len(doc.Groups)),
		zap.Int("bytes", buf.Len()),
	)
	return &Result{
		ID:        doc.ID,
		Filename:  Filename(doc.Title, opts.Format, doc.GeneratedAt),
		MimeType:  opts.Format.MimeType(),
		Format:    opts.Format,
		Comments:  len(doc.Comments),
		Estimated: doc.EstimatedSize(),
		Data:      buf.Bytes(),
	}, nil
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Filename builds "<slug>-YYYYMMDD-HHMMSS.<ext>" from a title.
func Filename(title string, f Format, at time.Time) string {
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if slug == "" || slug == "comment-export" {
		slug = "pinpoint-export"
	}
	return fmt.Sprintf("%s-%s.%s", slug, at.UTC().Format("20060102-150405"), f.Extension())
}

// Downloader delivers results as files in a directory.
type Downloader struct {
	Dir string
}

// Save writes the result atomically: the file either appears complete or not at all.
func (d Downloader) Save(r *Result) (string, error) {
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &Error{Format: r.Format, Op: "save", Err: err}
	}
	final := filepath.Join(dir, r.Filename)

	tmp, err := os.CreateTemp(dir, ".pinpoint-export-*")
	if err != nil {
		return "", &Error{Format: r.Format, Op: "save", Err: err}
	}
	cleanup := func(err error) (string, error) {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", &Error{Format: r.Format, Op: "save", Err: err}
	}
	if _, err := tmp.Write(r.Data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		return cleanup(err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		return "", &Error{Format: r.Format, Op: "save", Err: err}
	}
	return final, nil
}
