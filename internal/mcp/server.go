package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/joescharf/pinpoint/internal/comments"
	"github.com/joescharf/pinpoint/internal/export"
	"github.com/joescharf/pinpoint/internal/filter"
	"github.com/joescharf/pinpoint/internal/insights"
	"github.com/joescharf/pinpoint/internal/logging"
	"github.com/joescharf/pinpoint/internal/models"
	"github.com/joescharf/pinpoint/internal/notice"
)

// Server exposes the comment store, exporter and AI overlay as MCP tools.
type Server struct {
	comments   *comments.Service
	overlay    *insights.Overlay
	exporter   *export.Exporter
	downloader export.Downloader
	log        *zap.Logger
	now        func() time.Time
}

// NewServer creates the MCP server wrapper. Exports are written to exportDir.
func NewServer(svc *comments.Service, ov *insights.Overlay, exportDir string, log *zap.Logger) *Server {
	log = logging.OrNop(log).With(zap.String("component", "mcp"))
	return &Server{
		comments:   svc,
		overlay:    ov,
		exporter:   export.NewExporter(log),
		downloader: export.Downloader{Dir: exportDir},
		log:        log,
		now:        time.Now,
	}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("pinpoint", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.listCommentsTool())
	srv.AddTool(s.addCommentTool())
	srv.AddTool(s.resolveCommentTool())
	srv.AddTool(s.exportTool())
	srv.AddTool(s.insightsTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// criteriaParams are passed through to filter.ParseQuery unchanged.
var criteriaParams = []struct{ name, desc string }{
	{filter.ParamQuery, "Full-text search over content, author, replies and tags"},
	{filter.ParamStatus, "Comma-separated statuses: open, in_progress, resolved, wont_fix"},
	{filter.ParamPriority, "Comma-separated priorities: critical, high, medium, low"},
	{filter.ParamType, "Comma-separated types: text, voice, screen, drawing"},
	{filter.ParamAuthor, "Comma-separated author ids or names"},
	{filter.ParamAssignee, "Comma-separated assignee ids or names"},
	{filter.ParamTag, "Comma-separated labels"},
	{filter.ParamPreset, "Date preset, e.g. today, last_7_days, this_month"},
	{filter.ParamFrom, "Created on or after (YYYY-MM-DD or RFC 3339)"},
	{filter.ParamTo, "Created on or before (YYYY-MM-DD or RFC 3339)"},
	{filter.ParamHasAttachments, "\"true\" to keep only comments with attachments"},
	{filter.ParamHasVoiceNote, "\"true\" to keep only comments with voice notes"},
	{filter.ParamHasReplies, "\"true\" to keep only comments with replies"},
	{filter.ParamMinConfidence, "Minimum AI confidence (0-1)"},
	{filter.ParamMaxConfidence, "Maximum AI confidence (0-1)"},
}

func criteriaOptions() []mcp.ToolOption {
	opts := make([]mcp.ToolOption, 0, len(criteriaParams))
	for _, p := range criteriaParams {
		opts = append(opts, mcp.WithString(p.name, mcp.Description(p.desc)))
	}
	return opts
}

func (s *Server) criteria(request mcp.CallToolRequest) (models.Criteria, error) {
	v := url.Values{}
	for _, p := range criteriaParams {
		if val := request.GetString(p.name, ""); val != "" {
			v.Set(p.name, val)
		}
	}
	return filter.ParseQuery(v, s.now())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func failure(op, entity string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(notice.Failure(op, entity, err).Message)
}

type commentOut struct {
	ID        string   `json:"id"`
	MediaID   string   `json:"media_id"`
	Anchor    string   `json:"anchor"`
	Author    string   `json:"author"`
	Content   string   `json:"content"`
	Status    string   `json:"status"`
	Priority  string   `json:"priority"`
	Type      string   `json:"type"`
	Labels    []string `json:"labels,omitempty"`
	Replies   int      `json:"replies"`
	CreatedAt string   `json:"created_at"`
}

func toCommentOut(c *models.Comment) commentOut {
	return commentOut{
		ID:        c.ID,
		MediaID:   c.MediaID,
		Anchor:    c.Anchor.String(),
		Author:    c.Author.Name,
		Content:   c.Content,
		Status:    string(c.Status),
		Priority:  string(c.Priority),
		Type:      string(c.Type),
		Labels:    c.Labels,
		Replies:   len(c.Replies),
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

// pinpoint_list_comments
func (s *Server) listCommentsTool() (mcp.Tool, server.ToolHandlerFunc) {
	opts := []mcp.ToolOption{
		mcp.WithDescription("List comments, optionally for one media file, filtered and sorted. Returns a JSON array."),
		mcp.WithString("media_id", mcp.Description("Media file id; omit for all media")),
		mcp.WithString("sort", mcp.Description("Sort key with optional direction, e.g. priority:desc, created:asc, relevance")),
	}
	tool := mcp.NewTool("pinpoint_list_comments", append(opts, criteriaOptions()...)...)
	return tool, s.handleListComments
}

func (s *Server) handleListComments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	criteria, err := s.criteria(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	order, err := filter.ParseOrder(request.GetString("sort", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mediaID := request.GetString("media_id", "")
	list, err := s.comments.List(ctx, mediaID, criteria, order)
	if err != nil {
		return failure("list comments", mediaID, err), nil
	}

	out := make([]commentOut, len(list))
	for i, c := range list {
		out[i] = toCommentOut(c)
	}
	return jsonResult(out)
}

// pinpoint_add_comment
func (s *Server) addCommentTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("pinpoint_add_comment",
		mcp.WithDescription("Add a comment to a media file. The anchor fields used depend on the media type: x/y for images and designs, timestamp for video and audio, page for documents, line for code."),
		mcp.WithString("media_id", mcp.Required(), mcp.Description("Media file id")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Comment text")),
		mcp.WithString("author_id", mcp.Description("Author user id (default: mcp)")),
		mcp.WithString("author_name", mcp.Description("Author display name (default: author_id)")),
		mcp.WithString("priority", mcp.Description("critical, high, medium (default) or low")),
		mcp.WithString("labels", mcp.Description("Comma-separated labels")),
		mcp.WithNumber("x", mcp.Description("Horizontal position for image/design media")),
		mcp.WithNumber("y", mcp.Description("Vertical position for image/design media")),
		mcp.WithNumber("timestamp", mcp.Description("Offset in seconds for video/audio media")),
		mcp.WithNumber("page", mcp.Description("Page number for documents (default 1)")),
		mcp.WithNumber("line", mcp.Description("Line number for code (default 1)")),
	)
	return tool, s.handleAddComment
}

func (s *Server) handleAddComment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mediaID, err := request.RequireString("media_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: media_id"), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: content"), nil
	}

	media, err := s.comments.GetMedia(ctx, mediaID)
	if err != nil {
		return failure("add comment", mediaID, err), nil
	}
	shape, err := models.ShapeFor(media.Type)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	anchor := models.Anchor{Shape: shape}
	switch shape {
	case models.AnchorPoint:
		anchor.X = request.GetFloat("x", 0)
		anchor.Y = request.GetFloat("y", 0)
	case models.AnchorTime:
		anchor.Timestamp = request.GetFloat("timestamp", 0)
	case models.AnchorPage:
		anchor.Page = int(request.GetFloat("page", 1))
	case models.AnchorLine:
		anchor.Line = int(request.GetFloat("line", 1))
	}

	authorID := request.GetString("author_id", "mcp")
	c := &models.Comment{
		MediaID:  mediaID,
		Anchor:   anchor,
		Content:  content,
		Author:   models.User{ID: authorID, Name: request.GetString("author_name", authorID)},
		Priority: models.CommentPriority(request.GetString("priority", "")),
	}
	for _, l := range strings.Split(request.GetString("labels", ""), ",") {
		if l = strings.TrimSpace(l); l != "" {
			c.Labels = append(c.Labels, l)
		}
	}
	if err := s.comments.Add(ctx, c); err != nil {
		return failure("add comment", mediaID, err), nil
	}
	return jsonResult(toCommentOut(c))
}

// pinpoint_resolve_comment
func (s *Server) resolveCommentTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("pinpoint_resolve_comment",
		mcp.WithDescription("Mark a comment resolved."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Comment id")),
		mcp.WithString("actor", mcp.Description("Id of the user resolving the comment")),
	)
	return tool, s.handleResolveComment
}

func (s *Server) handleResolveComment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}
	actorID := request.GetString("actor", "mcp")
	c, err := s.comments.Resolve(ctx, id, models.User{ID: actorID, Name: actorID})
	if err != nil {
		return failure("resolve comment", id, err), nil
	}
	return jsonResult(map[string]any{
		"comment": toCommentOut(c),
		"notice":  notice.Success("resolve comment", id),
	})
}

// pinpoint_export
func (s *Server) exportTool() (mcp.Tool, server.ToolHandlerFunc) {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Export comments to a file in the export directory. Returns the saved path. Text formats can be returned inline instead."),
		mcp.WithString("format", mcp.Required(), mcp.Description("pdf, csv, excel, json, html, markdown, word, slides or email")),
		mcp.WithString("media_id", mcp.Description("Media file id; omit for all media")),
		mcp.WithString("template", mcp.Description("standard, executive, detailed or client")),
		mcp.WithString("group_by", mcp.Description("none, status, priority, author, date or category")),
		mcp.WithString("sort", mcp.Description("Sort key with optional direction")),
		mcp.WithString("title", mcp.Description("Document title")),
		mcp.WithBoolean("anonymize", mcp.Description("Replace user names with pseudonyms")),
		mcp.WithBoolean("exclude_private", mcp.Description("Drop private comments")),
		mcp.WithBoolean("inline", mcp.Description("Return csv/json/markdown/html/email content instead of saving a file")),
	}
	tool := mcp.NewTool("pinpoint_export", append(opts, criteriaOptions()...)...)
	return tool, s.handleExport
}

var inlineFormats = map[export.Format]bool{
	export.FormatCSV:      true,
	export.FormatJSON:     true,
	export.FormatMarkdown: true,
	export.FormatHTML:     true,
	export.FormatEmail:    true,
}

func (s *Server) handleExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("format")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: format"), nil
	}
	format, err := export.ParseFormat(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := export.DefaultOptions()
	if t := request.GetString("template", ""); t != "" {
		opts = opts.WithTemplate(export.Template(t))
		if opts.Template != export.Template(t) {
			return mcp.NewToolResultError(fmt.Sprintf("unknown template %q", t)), nil
		}
	}
	opts.Format = format
	if g := request.GetString("group_by", ""); g != "" {
		opts.GroupBy = export.GroupBy(g)
	}
	if o := request.GetString("sort", ""); o != "" {
		if opts.Sort, err = filter.ParseOrder(o); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	opts.Branding.Title = request.GetString("title", "")
	opts.Privacy.AnonymizeUsers = request.GetBool("anonymize", opts.Privacy.AnonymizeUsers)
	opts.Privacy.ExcludePrivate = request.GetBool("exclude_private", opts.Privacy.ExcludePrivate)

	inline := request.GetBool("inline", false)
	if inline && !inlineFormats[format] {
		return mcp.NewToolResultError(fmt.Sprintf("format %s cannot be returned inline", format)), nil
	}

	criteria, err := s.criteria(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mediaID := request.GetString("media_id", "")
	in, err := export.Gather(ctx, s.comments, s.overlay, mediaID, criteria, opts.Include.AIAnalysis)
	if err != nil {
		return failure("export", mediaID, err), nil
	}
	res, err := s.exporter.Export(ctx, in, opts)
	if err != nil {
		return failure("export", string(format), err), nil
	}
	if inline {
		return mcp.NewToolResultText(string(res.Data)), nil
	}

	path, err := s.downloader.Save(res)
	if err != nil {
		return failure("export", res.Filename, err), nil
	}
	s.log.Info("export saved", zap.String("path", path), zap.String("export_id", res.ID))
	return jsonResult(map[string]any{
		"id":       res.ID,
		"path":     path,
		"format":   res.Format,
		"comments": res.Comments,
		"bytes":    len(res.Data),
		"size":     export.HumanSize(int64(len(res.Data))),
	})
}

// pinpoint_insights
func (s *Server) insightsTool() (mcp.Tool, server.ToolHandlerFunc) {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Summarize comments: sentiment mix, top themes, resolution times, status and priority counts, weekly trend."),
		mcp.WithString("media_id", mcp.Description("Media file id; omit for all media")),
		mcp.WithBoolean("analyze", mcp.Description("Run the analyzer over the comments first")),
	}
	tool := mcp.NewTool("pinpoint_insights", append(opts, criteriaOptions()...)...)
	return tool, s.handleInsights
}

func (s *Server) handleInsights(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	criteria, err := s.criteria(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mediaID := request.GetString("media_id", "")

	if request.GetBool("analyze", false) {
		list, err := s.comments.List(ctx, mediaID, criteria, filter.DefaultOrder)
		if err != nil {
			return failure("analyze", mediaID, err), nil
		}
		if _, err := s.overlay.Run(ctx, list); err != nil {
			return failure("analyze", mediaID, err), nil
		}
	}

	in, err := export.Gather(ctx, s.comments, s.overlay, mediaID, criteria, true)
	if err != nil {
		return failure("insights", mediaID, err), nil
	}
	return jsonResult(in.Insights)
}
