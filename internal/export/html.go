package export

import (
	"html/template"
	"io"

	"github.com/joescharf/pinpoint/internal/models"
)

var htmlTmpl = template.Must(template.New("export").Funcs(template.FuncMap{
	"time":        formatTime,
	"meta":        metaLine,
	"attachments": func(as []models.Attachment) string { return joinOrDash(attachmentNames(as)) },
	"analysis":    analysisLine,
	"label":       titleLabel,
}).Parse(`<!DOCTYPE html>
{{if .Word}}<html xmlns:o="urn:schemas-microsoft-com:office:office" xmlns:w="urn:schemas-microsoft-com:office:word" xmlns="http://www.w3.org/TR/REC-html40">{{else}}<html lang="en">{{end}}
<head>
<meta charset="utf-8">
<title>{{.Doc.Title}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 2em; color: #222; }
.comment { border-left: 3px solid #888; padding: 0.5em 1em; margin: 1em 0; }
.meta, .ts { color: #666; font-size: 0.9em; }
.reply { margin-left: 1.5em; border-left: 2px solid #ccc; padding-left: 0.75em; }
.ai { background: #f3f6ff; padding: 0.25em 0.5em; }
{{- if .Doc.Options.Branding.Watermark}}
.watermark { position: fixed; top: 40%; left: 10%; font-size: 6em; color: rgba(0,0,0,0.06); transform: rotate(-30deg); pointer-events: none; }
{{- end}}
</style>
</head>
<body>
{{- with .Doc.Options.Branding.Watermark}}<div class="watermark">{{.}}</div>{{end}}
{{- with .Doc.Options.Branding.LogoURL}}<img src="{{.}}" alt="logo" height="40">{{end}}
<h1>{{.Doc.Title}}</h1>
{{- with .Doc.Options.Branding.Company}}<p><em>{{.}}</em></p>{{end}}
<p class="ts">Generated {{time .Doc.GeneratedAt}}. {{len .Doc.Comments}} comments.</p>
{{- with .Doc.Stats}}
<h2>Statistics</h2>
<ul>
<li>Total comments: {{.Total}}</li>
<li>Replies: {{.Replies}}</li>
<li>Attachments: {{.Attachments}}</li>
<li>Resolved: {{printf "%.1f" .ResolvedPct}}%</li>
{{- range .Statuses}}<li>{{label .Label}}: {{.N}}</li>{{end}}
</ul>
{{- end}}
{{- $doc := .Doc}}
{{- range .Doc.Groups}}
<h2>{{.Label}} ({{len .Comments}})</h2>
{{- range .Comments}}
<div class="comment">
<p><strong>{{.Author.Name}}</strong> at {{.Anchor.String}}</p>
<p>{{.Content}}</p>
{{- if $doc.Options.Include.Metadata}}<p class="meta">{{meta .}}</p>{{end}}
{{- if $doc.Options.Include.Timestamps}}<p class="ts">Created {{time .CreatedAt}}{{with .ResolvedAt}}, resolved {{time .}}{{end}}</p>{{end}}
{{- if and $doc.Options.Include.Attachments .Attachments}}<p class="meta">Attachments: {{attachments .Attachments}}</p>{{end}}
{{- with $doc.Analysis .ID}}<p class="ai">AI: {{analysis .}}</p>{{end}}
{{- if $doc.Options.Include.Replies}}{{range .Replies}}
<div class="reply"><strong>{{.Author.Name}}</strong>: {{.Content}}</div>
{{- end}}{{end}}
</div>
{{- end}}
{{- end}}
</body>
</html>
`))

type htmlData struct {
	Doc  *Document
	Word bool
}

func renderHTML(w io.Writer, d *Document) error {
	return htmlTmpl.Execute(w, htmlData{Doc: d})
}

// renderWord emits HTML with Office namespaces, which Word opens as a .doc.
func renderWord(w io.Writer, d *Document) error {
	return htmlTmpl.Execute(w, htmlData{Doc: d, Word: true})
}
