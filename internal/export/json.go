package export

import (
	"encoding/json"
	"io"
	"time"

	"github.com/joescharf/pinpoint/internal/insights"
	"github.com/joescharf/pinpoint/internal/models"
)

type jsonDoc struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Company     string             `json:"company,omitempty"`
	GeneratedAt time.Time          `json:"generated_at"`
	Template    Template           `json:"template"`
	GroupBy     GroupBy            `json:"group_by"`
	Groups      []jsonGroup        `json:"groups"`
	Stats       *Stats             `json:"statistics,omitempty"`
	Insights    *insights.Insights `json:"insights,omitempty"`
}

type jsonGroup struct {
	Key      string        `json:"key"`
	Label    string        `json:"label"`
	Comments []jsonComment `json:"comments"`
}

type jsonComment struct {
	ID          string                 `json:"id"`
	MediaID     string                 `json:"media_id"`
	Anchor      string                 `json:"anchor"`
	Content     string                 `json:"content"`
	Author      string                 `json:"author"`
	Status      models.CommentStatus   `json:"status,omitempty"`
	Priority    models.CommentPriority `json:"priority,omitempty"`
	Type        models.CommentType     `json:"type,omitempty"`
	Assignee    string                 `json:"assignee,omitempty"`
	Labels      []string               `json:"labels,omitempty"`
	Attachments []string               `json:"attachments,omitempty"`
	Replies     []jsonReply            `json:"replies,omitempty"`
	CreatedAt   *time.Time             `json:"created_at,omitempty"`
	UpdatedAt   *time.Time             `json:"updated_at,omitempty"`
	ResolvedAt  *time.Time             `json:"resolved_at,omitempty"`
	Analysis    *models.Analysis       `json:"analysis,omitempty"`
}

type jsonReply struct {
	Author      string     `json:"author"`
	Content     string     `json:"content"`
	Attachments []string   `json:"attachments,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// projectComment keeps only the fields the include toggles allow.
func projectComment(c *models.Comment, d *Document) jsonComment {
	inc := d.Options.Include
	jc := jsonComment{
		ID:      c.ID,
		MediaID: c.MediaID,
		Anchor:  c.Anchor.String(),
		Content: c.Content,
		Author:  c.Author.Name,
	}
	if inc.Metadata {
		jc.Status, jc.Priority, jc.Type = c.Status, c.Priority, c.Type
		jc.Labels = c.Labels
		if c.Assignee != nil {
			jc.Assignee = c.Assignee.Name
		}
	}
	if inc.Attachments && len(c.Attachments) > 0 {
		jc.Attachments = attachmentNames(c.Attachments)
	}
	if inc.Timestamps {
		created := c.CreatedAt
		jc.CreatedAt, jc.UpdatedAt, jc.ResolvedAt = &created, c.UpdatedAt, c.ResolvedAt
	}
	if inc.Replies {
		for _, r := range c.Replies {
			jr := jsonReply{Author: r.Author.Name, Content: r.Content}
			if inc.Attachments && len(r.Attachments) > 0 {
				jr.Attachments = attachmentNames(r.Attachments)
			}
			if inc.Timestamps {
				created := r.CreatedAt
				jr.CreatedAt = &created
			}
			jc.Replies = append(jc.Replies, jr)
		}
	}
	jc.Analysis = d.Analysis(c.ID)
	return jc
}

func renderJSON(w io.Writer, d *Document) error {
	out := jsonDoc{
		ID:          d.ID,
		Title:       d.Title,
		Company:     d.Options.Branding.Company,
		GeneratedAt: d.GeneratedAt.UTC(),
		Template:    d.Options.Template,
		GroupBy:     d.Options.GroupBy,
		Groups:      []jsonGroup{},
		Stats:       d.Stats,
		Insights:    d.Insights,
	}
	for _, g := range d.Groups {
		jg := jsonGroup{Key: g.Key, Label: g.Label, Comments: make([]jsonComment, 0, len(g.Comments))}
		for _, c := range g.Comments {
			jg.Comments = append(jg.Comments, projectComment(c, d))
		}
		out.Groups = append(out.Groups, jg)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
