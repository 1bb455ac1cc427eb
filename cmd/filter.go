package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joescharf/pinpoint/internal/comments"
	"github.com/joescharf/pinpoint/internal/filter"
	"github.com/joescharf/pinpoint/internal/models"
	"github.com/joescharf/pinpoint/internal/notice"
	"github.com/joescharf/pinpoint/internal/output"
)

var filterMedia string

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Manage saved filters",
	Long:  "Save the current filter flags under a name and re-apply them later.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return filterListRun()
	},
}

var filterSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save filter flags under a name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		criteria, err := criteriaFromFlags(cmd.Flags())
		if err != nil {
			return err
		}
		return filterSaveRun(args[0], criteria)
	},
}

var filterListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List saved filters, most recently used first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return filterListRun()
	},
}

var filterLoadCmd = &cobra.Command{
	Use:   "load <filter-id|name>",
	Short: "Apply a saved filter and list the matching comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return filterLoadRun(args[0])
	},
}

var filterDeleteCmd = &cobra.Command{
	Use:   "delete <filter-id|name>",
	Short: "Delete a saved filter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return filterDeleteRun(args[0])
	},
}

func init() {
	addCriteriaFlags(filterSaveCmd)

	filterLoadCmd.Flags().StringVar(&filterMedia, "media", "", "Limit to one media file")
	filterLoadCmd.Flags().StringVar(&commentSort, "sort", "", "Sort key[:asc|desc]")

	filterCmd.AddCommand(filterSaveCmd)
	filterCmd.AddCommand(filterListCmd)
	filterCmd.AddCommand(filterLoadCmd)
	filterCmd.AddCommand(filterDeleteCmd)
	rootCmd.AddCommand(filterCmd)
}

func filterSaveRun(name string, criteria models.Criteria) error {
	svc, _, err := getService()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would save filter %q (%d active filters)", name, filter.ExtendedActiveCount(criteria))
		return nil
	}

	f, err := svc.SaveFilter(context.Background(), name, criteria)
	if err != nil {
		return failure("save filter", name, err)
	}
	ui.Success("Saved filter %s: %s", output.Cyan(shortID(f.ID)), f.Name)
	return nil
}

func filterListRun() error {
	svc, _, err := getService()
	if err != nil {
		return err
	}

	list, err := svc.ListFilters(context.Background())
	if err != nil {
		return err
	}
	if len(list) == 0 {
		ui.Info("No saved filters.")
		return nil
	}

	table := ui.Table([]string{"ID", "Name", "Filters", "Summary", "Uses", "Last Used"})
	for _, f := range list {
		last := "never"
		if f.LastUsedAt != nil {
			last = timeAgo(*f.LastUsedAt)
		}
		_ = table.Append([]string{
			shortID(f.ID),
			f.Name,
			strconv.Itoa(filter.ExtendedActiveCount(f.Criteria)),
			truncate(describeCriteria(f.Criteria), 50),
			strconv.Itoa(f.UseCount),
			last,
		})
	}
	_ = table.Render()
	return nil
}

func filterLoadRun(ref string) error {
	svc, _, err := getService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	saved, err := findSavedFilter(ctx, svc, ref)
	if err != nil {
		return err
	}
	criteria, f, err := svc.LoadFilter(ctx, saved.ID)
	if err != nil {
		return failure("load filter", saved.Name, err)
	}

	// Presets are relative: re-resolve against today.
	if p := criteria.DateRange.Preset; p != "" {
		r, err := filter.ResolvePreset(p, time.Now())
		if err != nil {
			return err
		}
		criteria.DateRange = r
	}

	ui.Info("Loaded %s (%s)", output.Cyan(f.Name), describeCriteria(criteria))
	return commentListRun(filterMedia, criteria)
}

func filterDeleteRun(ref string) error {
	svc, _, err := getService()
	if err != nil {
		return err
	}
	ctx := context.Background()

	f, err := findSavedFilter(ctx, svc, ref)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would delete saved filter %s: %s", shortID(f.ID), f.Name)
		return nil
	}

	if err := svc.DeleteFilter(ctx, f.ID); err != nil {
		return failure("delete filter", f.Name, err)
	}
	ui.Notice(notice.Success("delete filter", f.Name))
	return nil
}

// findSavedFilter matches an id, an id prefix or a case-insensitive name.
func findSavedFilter(ctx context.Context, svc *comments.Service, ref string) (*models.SavedFilter, error) {
	list, err := svc.ListFilters(ctx)
	if err != nil {
		return nil, err
	}
	var matches []*models.SavedFilter
	for _, f := range list {
		if f.ID == ref || strings.EqualFold(f.Name, ref) {
			return f, nil
		}
		if strings.HasPrefix(f.ID, strings.ToUpper(ref)) {
			matches = append(matches, f)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("saved filter not found: %s", ref)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous filter ID %s: matches %d filters", ref, len(matches))
	}
}

// describeCriteria renders the active dimensions of c on one line.
func describeCriteria(c models.Criteria) string {
	var parts []string
	if c.Query != "" {
		parts = append(parts, fmt.Sprintf("q=%q", c.Query))
	}
	join := func(name string, vals []string) {
		if len(vals) > 0 {
			parts = append(parts, name+"="+strings.Join(vals, ","))
		}
	}
	join("status", stringsOf(c.Statuses))
	join("priority", stringsOf(c.Priorities))
	join("type", stringsOf(c.Types))
	join("author", c.Authors)
	join("assignee", c.Assignees)
	join("tag", c.Tags)
	if c.DateRange.Preset != "" {
		parts = append(parts, "date="+filter.PresetLabel(c.DateRange.Preset))
	} else if c.DateRange.IsSet() {
		parts = append(parts, "date=custom")
	}
	for _, f := range []struct {
		name string
		on   *bool
	}{{"attachments", c.HasAttachments}, {"voice_note", c.HasVoiceNote}, {"replies", c.HasReplies}} {
		if f.on != nil {
			parts = append(parts, "has_"+f.name)
		}
	}
	if c.ViewMode != "" && c.ViewMode != models.ViewAll {
		parts = append(parts, "view="+string(c.ViewMode))
	}
	if len(parts) == 0 {
		return "no filters"
	}
	return strings.Join(parts, " ")
}

func stringsOf[T ~string](vals []T) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return out
}
