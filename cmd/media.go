package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joescharf/pinpoint/internal/filter"
	"github.com/joescharf/pinpoint/internal/models"
	"github.com/joescharf/pinpoint/internal/notice"
	"github.com/joescharf/pinpoint/internal/output"
)

var (
	mediaType    string
	mediaURL     string
	mediaVersion string
)

var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Manage media files under review",
	Long:  "Register images, designs, video, audio, documents and code that comments are anchored to.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return mediaListRun()
	},
}

var mediaAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a media file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mediaAddRun(args[0])
	},
}

var mediaListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List media files",
	RunE: func(cmd *cobra.Command, args []string) error {
		return mediaListRun()
	},
}

var mediaShowCmd = &cobra.Command{
	Use:   "show <media-id>",
	Short: "Show a media file and its comment counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mediaShowRun(args[0])
	},
}

var mediaDeleteCmd = &cobra.Command{
	Use:   "delete <media-id>",
	Short: "Delete a media file and all of its comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mediaDeleteRun(args[0])
	},
}

func init() {
	mediaAddCmd.Flags().StringVar(&mediaType, "type", "", "Media type: image, design, video, audio, document, code (required)")
	mediaAddCmd.Flags().StringVar(&mediaURL, "url", "", "Location of the asset")
	mediaAddCmd.Flags().StringVar(&mediaVersion, "version", "", "Asset version label")
	_ = mediaAddCmd.MarkFlagRequired("type")

	mediaCmd.AddCommand(mediaAddCmd)
	mediaCmd.AddCommand(mediaListCmd)
	mediaCmd.AddCommand(mediaShowCmd)
	mediaCmd.AddCommand(mediaDeleteCmd)
	rootCmd.AddCommand(mediaCmd)
}

func mediaAddRun(name string) error {
	svc, _, err := getService()
	if err != nil {
		return err
	}

	m := &models.MediaFile{
		Name:    name,
		Type:    models.MediaType(mediaType),
		URL:     mediaURL,
		Version: mediaVersion,
	}

	if dryRun {
		ui.DryRunMsg("Would register %s media: %s", mediaType, name)
		return nil
	}

	if err := svc.AddMedia(context.Background(), m); err != nil {
		return failure("add media", name, err)
	}
	ui.Success("Registered %s %s: %s", m.Type, output.Cyan(shortID(m.ID)), m.Name)
	return nil
}

func mediaListRun() error {
	svc, _, err := getService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	media, err := svc.ListMedia(ctx)
	if err != nil {
		return err
	}
	if len(media) == 0 {
		ui.Info("No media files found.")
		return nil
	}

	table := ui.Table([]string{"ID", "Name", "Type", "Version", "Open", "Total", "Added"})
	for _, m := range media {
		list, err := svc.List(ctx, m.ID, models.Criteria{}, filter.DefaultOrder)
		if err != nil {
			return err
		}
		open := 0
		for _, c := range list {
			if c.Status == models.CommentStatusOpen || c.Status == models.CommentStatusInProgress {
				open++
			}
		}
		_ = table.Append([]string{
			shortID(m.ID),
			m.Name,
			string(m.Type),
			m.Version,
			fmt.Sprintf("%d", open),
			fmt.Sprintf("%d", len(list)),
			timeAgo(m.CreatedAt),
		})
	}
	_ = table.Render()
	return nil
}

func mediaShowRun(id string) error {
	svc, _, err := getService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	m, err := svc.GetMedia(ctx, id)
	if err != nil {
		return err
	}
	list, err := svc.List(ctx, m.ID, models.Criteria{}, filter.DefaultOrder)
	if err != nil {
		return err
	}

	byStatus := make(map[models.CommentStatus]int)
	for _, c := range list {
		byStatus[c.Status]++
	}

	fmt.Fprintf(ui.Out, "%s  %s\n", output.Cyan(shortID(m.ID)), m.Name)
	fmt.Fprintf(ui.Out, "  Type:       %s\n", m.Type)
	if m.URL != "" {
		fmt.Fprintf(ui.Out, "  URL:        %s\n", m.URL)
	}
	if m.Version != "" {
		fmt.Fprintf(ui.Out, "  Version:    %s\n", m.Version)
	}
	fmt.Fprintf(ui.Out, "  Comments:   %d\n", len(list))
	for _, st := range models.Statuses {
		if byStatus[st] > 0 {
			fmt.Fprintf(ui.Out, "    %-12s %d\n", output.StatusColor(string(st)), byStatus[st])
		}
	}
	fmt.Fprintf(ui.Out, "  Added:      %s\n", m.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(ui.Out, "  Full ID:    %s\n", m.ID)
	return nil
}

func mediaDeleteRun(id string) error {
	svc, _, err := getService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	m, err := svc.GetMedia(ctx, id)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would delete media %s (%s) and its comments", shortID(m.ID), m.Name)
		return nil
	}

	if err := svc.DeleteMedia(ctx, m.ID); err != nil {
		return failure("delete media", m.ID, err)
	}
	ui.Notice(notice.Success("delete media", m.Name))
	return nil
}
