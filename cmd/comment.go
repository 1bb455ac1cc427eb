package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/joescharf/pinpoint/internal/comments"
	"github.com/joescharf/pinpoint/internal/filter"
	"github.com/joescharf/pinpoint/internal/models"
	"github.com/joescharf/pinpoint/internal/notice"
	"github.com/joescharf/pinpoint/internal/output"
)

var (
	commentX         float64
	commentY         float64
	commentZoom      float64
	commentAt        string
	commentPage      int
	commentHighlight string
	commentLine      int
	commentChar      int
	commentPriority  string
	commentType      string
	commentLabels    string
	commentAssignee  string
	commentPrivate   bool
	commentVoiceURL  string
	commentAttach    []string
	commentContent   string
	commentStatus    string
	commentSort      string
	commentLimit     int
)

var commentCmd = &cobra.Command{
	Use:     "comment",
	Aliases: []string{"c"},
	Short:   "Manage pinpoint comments",
	Long:    "Add, list, filter, reply to and resolve comments anchored to media files.",
}

var commentAddCmd = &cobra.Command{
	Use:   "add <media-id> <content>",
	Short: "Add a comment to a media file",
	Long: `Add a comment anchored to a position in a media file.

The anchor flags used depend on the media type:
  image, design     --x --y [--zoom]
  video, audio      --at (seconds, mm:ss or hh:mm:ss)
  document          --page [--highlight start-end]
  code              --line [--char]`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commentAddRun(args[0], strings.Join(args[1:], " "))
	},
}

var commentListCmd = &cobra.Command{
	Use:     "list [media-id]",
	Aliases: []string{"ls"},
	Short:   "List comments, filtered and sorted",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var mediaID string
		if len(args) > 0 {
			mediaID = args[0]
		}
		criteria, err := criteriaFromFlags(cmd.Flags())
		if err != nil {
			return err
		}
		return commentListRun(mediaID, criteria)
	},
}

var commentShowCmd = &cobra.Command{
	Use:   "show <comment-id>",
	Short: "Show a comment with its replies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commentShowRun(args[0])
	},
}

var commentUpdateCmd = &cobra.Command{
	Use:   "update <comment-id>",
	Short: "Update a comment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commentUpdateRun(cmd, args[0])
	},
}

var commentReplyCmd = &cobra.Command{
	Use:   "reply <comment-id> <content>",
	Short: "Reply to a comment",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commentReplyRun(args[0], strings.Join(args[1:], " "))
	},
}

var commentResolveCmd = &cobra.Command{
	Use:   "resolve <comment-id>",
	Short: "Mark a comment resolved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commentResolveRun(args[0])
	},
}

var commentDeleteCmd = &cobra.Command{
	Use:   "delete <comment-id>",
	Short: "Delete a comment and its replies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commentDeleteRun(args[0])
	},
}

var commentBulkCmd = &cobra.Command{
	Use:   "bulk-status <status> <comment-id>...",
	Short: "Set the status of several comments at once",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commentBulkRun(models.CommentStatus(args[0]), args[1:])
	},
}

var commentSearchCmd = &cobra.Command{
	Use:   "search [media-id]",
	Short: "Search interactively, one query per line on stdin",
	Long: `Read search queries from stdin, one per line. Results are printed once
typing pauses for search.debounce_ms; earlier queries still pending are
dropped. The filter flags apply to every query.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var mediaID string
		if len(args) > 0 {
			mediaID = args[0]
		}
		criteria, err := criteriaFromFlags(cmd.Flags())
		if err != nil {
			return err
		}
		return commentSearchRun(os.Stdin, mediaID, criteria)
	},
}

func init() {
	f := commentAddCmd.Flags()
	f.Float64Var(&commentX, "x", 0, "Horizontal position (image, design)")
	f.Float64Var(&commentY, "y", 0, "Vertical position (image, design)")
	f.Float64Var(&commentZoom, "zoom", 0, "Zoom level in percent (image, design)")
	f.StringVar(&commentAt, "at", "0", "Offset (video, audio)")
	f.IntVar(&commentPage, "page", 1, "Page number (document)")
	f.StringVar(&commentHighlight, "highlight", "", "Highlighted character range start-end (document)")
	f.IntVar(&commentLine, "line", 1, "Line number (code)")
	f.IntVar(&commentChar, "char", 0, "Character position (code)")
	f.StringVar(&commentPriority, "priority", "medium", "Priority: critical, high, medium, low")
	f.StringVar(&commentType, "type", "text", "Type: text, voice, screen, drawing")
	f.StringVar(&commentLabels, "label", "", "Comma-separated labels")
	f.StringVar(&commentAssignee, "assignee", "", "Assignee user id")
	f.BoolVar(&commentPrivate, "private", false, "Hide from client exports")
	f.StringVar(&commentVoiceURL, "voice-url", "", "Voice note location")
	f.StringSliceVar(&commentAttach, "attach", nil, "Attachment file name (repeatable)")

	addCriteriaFlags(commentListCmd)
	commentListCmd.Flags().StringVar(&commentSort, "sort", "", "Sort key[:asc|desc]: created, updated, priority, status, author, replies, relevance")
	commentListCmd.Flags().IntVar(&commentLimit, "limit", 0, "Show at most this many comments")

	addCriteriaFlags(commentSearchCmd)

	u := commentUpdateCmd.Flags()
	u.StringVar(&commentContent, "content", "", "New content")
	u.StringVar(&commentStatus, "status", "", "New status")
	u.StringVar(&commentPriority, "priority", "", "New priority")
	u.StringVar(&commentAssignee, "assignee", "", "New assignee id (empty string to unassign)")
	u.StringVar(&commentLabels, "label", "", "Replace labels (comma-separated)")
	u.BoolVar(&commentPrivate, "private", false, "Set private")

	commentCmd.AddCommand(commentAddCmd)
	commentCmd.AddCommand(commentListCmd)
	commentCmd.AddCommand(commentShowCmd)
	commentCmd.AddCommand(commentUpdateCmd)
	commentCmd.AddCommand(commentReplyCmd)
	commentCmd.AddCommand(commentResolveCmd)
	commentCmd.AddCommand(commentDeleteCmd)
	commentCmd.AddCommand(commentBulkCmd)
	commentCmd.AddCommand(commentSearchCmd)
	rootCmd.AddCommand(commentCmd)
}

// buildAnchor fills the anchor fields that apply to the media type.
func buildAnchor(t models.MediaType) (models.Anchor, error) {
	shape, err := models.ShapeFor(t)
	if err != nil {
		return models.Anchor{}, err
	}
	a := models.Anchor{Shape: shape}
	switch shape {
	case models.AnchorPoint:
		a.X, a.Y, a.Zoom = commentX, commentY, commentZoom
	case models.AnchorTime:
		if a.Timestamp, err = parseOffset(commentAt); err != nil {
			return models.Anchor{}, err
		}
	case models.AnchorPage:
		a.Page = commentPage
		if commentHighlight != "" {
			start, end, ok := strings.Cut(commentHighlight, "-")
			s, err1 := strconv.Atoi(strings.TrimSpace(start))
			e, err2 := strconv.Atoi(strings.TrimSpace(end))
			if !ok || err1 != nil || err2 != nil {
				return models.Anchor{}, fmt.Errorf("invalid highlight %q (want start-end)", commentHighlight)
			}
			a.Highlight = &models.TextRange{Start: s, End: e}
		}
	case models.AnchorLine:
		a.Line, a.Character = commentLine, commentChar
	}
	return a, nil
}

func changed(flags *pflag.FlagSet, names ...string) bool {
	for _, n := range names {
		if flags.Changed(n) {
			return true
		}
	}
	return false
}

// parseOffset accepts seconds ("90", "90.5") or clock notation ("1:30", "1:02:03").
func parseOffset(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, ":") {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid offset %q", s)
		}
		return v, nil
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid offset %q", s)
	}
	var total float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid offset %q", s)
		}
		total = total*60 + v
	}
	return total, nil
}

func commentAddRun(mediaID, content string) error {
	svc, _, err := getService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	media, err := svc.GetMedia(ctx, mediaID)
	if err != nil {
		return failure("add comment", mediaID, err)
	}
	anchor, err := buildAnchor(media.Type)
	if err != nil {
		return err
	}

	c := &models.Comment{
		MediaID:  media.ID,
		Anchor:   anchor,
		Content:  content,
		Author:   currentUser(),
		Priority: models.CommentPriority(commentPriority),
		Type:     models.CommentType(commentType),
		Labels:   splitList(commentLabels),
		Private:  commentPrivate,
		VoiceURL: commentVoiceURL,
	}
	if commentAssignee != "" {
		c.Assignee = &models.User{ID: commentAssignee, Name: commentAssignee}
	}
	for _, name := range commentAttach {
		c.Attachments = append(c.Attachments, models.Attachment{Filename: name})
	}

	if dryRun {
		ui.DryRunMsg("Would add %s comment at %s on %s: %s", c.Priority, anchor, media.Name, truncate(content, 60))
		return nil
	}

	if err := svc.Add(ctx, c); err != nil {
		return failure("add comment", media.Name, err)
	}
	ui.Success("Added comment %s at %s on %s", output.Cyan(shortID(c.ID)), anchor, media.Name)
	return nil
}

func commentListRun(mediaID string, criteria models.Criteria) error {
	svc, _, err := getService()
	if err != nil {
		return err
	}
	order, err := filter.ParseOrder(commentSort)
	if err != nil {
		return err
	}

	list, err := svc.List(context.Background(), mediaID, criteria, order)
	if err != nil {
		return failure("list comments", mediaID, err)
	}
	if n := filter.ExtendedActiveCount(criteria); n > 0 {
		ui.VerboseLog("%d active filters, sorted by %s", n, order)
	}
	if len(list) == 0 {
		ui.Info("No comments found.")
		return nil
	}

	total := len(list)
	if commentLimit > 0 && len(list) > commentLimit {
		list = list[:commentLimit]
	}
	renderCommentTable(list)
	if len(list) < total {
		ui.Info("Showing %d of %d comments", len(list), total)
	}
	return nil
}

func renderCommentTable(list []*models.Comment) {
	table := ui.Table([]string{"ID", "Anchor", "Author", "Status", "Priority", "Content", "Replies", "AI", "Created"})
	for _, c := range list {
		_ = table.Append([]string{
			shortID(c.ID),
			c.Anchor.String(),
			c.Author.Name,
			output.StatusColor(string(c.Status)),
			output.PriorityColor(string(c.Priority)),
			truncate(c.Content, 48),
			strconv.Itoa(len(c.Replies)),
			output.ConfidenceColor(c.AIConfidence),
			timeAgo(c.CreatedAt),
		})
	}
	_ = table.Render()
}

func commentShowRun(id string) error {
	svc, _, err := getService()
	if err != nil {
		return err
	}
	c, err := findComment(context.Background(), svc, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(ui.Out, "%s  %s\n", output.Cyan(shortID(c.ID)), c.Content)
	fmt.Fprintf(ui.Out, "  Anchor:     %s\n", c.Anchor)
	fmt.Fprintf(ui.Out, "  Author:     %s\n", c.Author.Name)
	fmt.Fprintf(ui.Out, "  Status:     %s\n", output.StatusColor(string(c.Status)))
	fmt.Fprintf(ui.Out, "  Priority:   %s\n", output.PriorityColor(string(c.Priority)))
	fmt.Fprintf(ui.Out, "  Type:       %s\n", c.Type)
	if c.Assignee != nil {
		fmt.Fprintf(ui.Out, "  Assignee:   %s\n", c.Assignee.Name)
	}
	if len(c.Labels) > 0 {
		fmt.Fprintf(ui.Out, "  Labels:     %s\n", strings.Join(c.Labels, ", "))
	}
	if c.Private {
		fmt.Fprintf(ui.Out, "  Private:    yes\n")
	}
	if n := c.AttachmentCount(); n > 0 {
		fmt.Fprintf(ui.Out, "  Files:      %d\n", n)
	}
	if c.AIConfidence != nil {
		fmt.Fprintf(ui.Out, "  AI:         %s confidence\n", output.ConfidenceColor(c.AIConfidence))
	}
	fmt.Fprintf(ui.Out, "  Created:    %s\n", c.CreatedAt.Format(time.RFC3339))
	if c.ResolvedAt != nil {
		fmt.Fprintf(ui.Out, "  Resolved:   %s\n", c.ResolvedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(ui.Out, "  Full ID:    %s\n", c.ID)

	if len(c.Replies) > 0 {
		fmt.Fprintln(ui.Out)
		for _, r := range c.Replies {
			fmt.Fprintf(ui.Out, "  %s %s (%s)\n", output.Cyan("↳"), r.Content, r.Author.Name+", "+timeAgo(r.CreatedAt))
		}
	}
	return nil
}

func commentUpdateRun(cmd *cobra.Command, id string) error {
	svc, _, err := getService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	c, err := findComment(ctx, svc, id)
	if err != nil {
		return err
	}

	var p comments.Patch
	flags := cmd.Flags()
	if flags.Changed("content") {
		p.Content = &commentContent
	}
	if flags.Changed("status") {
		st := models.CommentStatus(commentStatus)
		if !st.Valid() {
			return fmt.Errorf("unknown status %q", commentStatus)
		}
		p.Status = &st
	}
	if flags.Changed("priority") {
		pr := models.CommentPriority(commentPriority)
		if !pr.Valid() {
			return fmt.Errorf("unknown priority %q", commentPriority)
		}
		p.Priority = &pr
	}
	if flags.Changed("assignee") {
		p.Assignee = &models.User{ID: commentAssignee, Name: commentAssignee}
	}
	if flags.Changed("label") {
		p.Labels = splitList(commentLabels)
		if p.Labels == nil {
			p.Labels = []string{}
		}
	}
	if flags.Changed("private") {
		p.Private = &commentPrivate
	}

	if !changed(flags, "content", "status", "priority", "assignee", "label", "private") {
		return fmt.Errorf("no updates specified (use --content, --status, --priority, --assignee, --label or --private)")
	}

	if dryRun {
		ui.DryRunMsg("Would update comment %s", shortID(c.ID))
		return nil
	}

	if _, err := svc.Update(ctx, c.ID, p, currentUser()); err != nil {
		return failure("update comment", shortID(c.ID), err)
	}
	ui.Notice(notice.Success("update comment", shortID(c.ID)))
	return nil
}

func commentReplyRun(id, content string) error {
	svc, _, err := getService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	c, err := findComment(ctx, svc, id)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would reply to %s: %s", shortID(c.ID), truncate(content, 60))
		return nil
	}

	updated, err := svc.Reply(ctx, c.ID, &models.Reply{Content: content, Author: currentUser()})
	if err != nil {
		return failure("reply", shortID(c.ID), err)
	}
	ui.Success("Replied to %s (%d replies)", output.Cyan(shortID(c.ID)), len(updated.Replies))
	return nil
}

func commentResolveRun(id string) error {
	svc, _, err := getService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	c, err := findComment(ctx, svc, id)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would resolve comment %s: %s", shortID(c.ID), truncate(c.Content, 60))
		return nil
	}

	if _, err := svc.Resolve(ctx, c.ID, currentUser()); err != nil {
		return failure("resolve comment", shortID(c.ID), err)
	}
	ui.Notice(notice.Success("resolve comment", shortID(c.ID)))
	return nil
}

func commentDeleteRun(id string) error {
	svc, _, err := getService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	c, err := findComment(ctx, svc, id)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would delete comment %s and %d replies", shortID(c.ID), len(c.Replies))
		return nil
	}

	if err := svc.Delete(ctx, c.ID, currentUser()); err != nil {
		return failure("delete comment", shortID(c.ID), err)
	}
	ui.Notice(notice.Success("delete comment", shortID(c.ID)))
	return nil
}

func commentBulkRun(status models.CommentStatus, refs []string) error {
	svc, _, err := getService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		c, err := findComment(ctx, svc, ref)
		if err != nil {
			return err
		}
		ids = append(ids, c.ID)
	}

	if dryRun {
		ui.DryRunMsg("Would set %d comments to %s", len(ids), status)
		return nil
	}

	n, err := svc.BulkSetStatus(ctx, ids, status, currentUser())
	if err != nil {
		return failure("bulk status", string(status), err)
	}
	ui.Success("Set %d comments to %s", n, output.StatusColor(string(status)))
	return nil
}

// commentSearchRun runs the last query typed once input pauses, and the
// final pending query at end of input.
func commentSearchRun(in io.Reader, mediaID string, base models.Criteria) error {
	svc, _, err := getService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	var (
		mu      sync.Mutex
		pending *string
	)
	search := func(q string) {
		criteria := base
		criteria.Query = q
		list, err := svc.List(ctx, mediaID, criteria, filter.Order{Key: filter.SortRelevance, Descending: true})

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			ui.Error("%s", notice.Failure("search", q, err).Message)
			return
		}
		ui.Info("%q: %d matches", q, len(list))
		if len(list) > 0 {
			renderCommentTable(list)
		}
	}

	deb := filter.NewDebouncer(time.Duration(viper.GetInt("search.debounce_ms")) * time.Millisecond)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		q := strings.TrimSpace(scanner.Text())
		mu.Lock()
		pending = &q
		mu.Unlock()
		deb.Call(func() {
			mu.Lock()
			if pending != nil && *pending == q {
				pending = nil
			}
			mu.Unlock()
			search(q)
		})
	}
	deb.Stop()
	deb.Wait()

	mu.Lock()
	last := pending
	mu.Unlock()
	if last != nil {
		search(*last)
	}
	return scanner.Err()
}
