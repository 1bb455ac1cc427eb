package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/pinpoint/internal/export"
	"github.com/joescharf/pinpoint/internal/filter"
	"github.com/joescharf/pinpoint/internal/insights"
	"github.com/joescharf/pinpoint/internal/models"
	"github.com/joescharf/pinpoint/internal/output"
)

var (
	analyzeInsightsOnly bool
	analyzeShowAll      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [media-id]",
	Short: "Run AI analysis over comments and print insights",
	Long: `Classify the sentiment and themes of the matching comments, store the
results, and print aggregate insights.

Uses Claude when anthropic.api_key is configured and a local keyword
analyzer otherwise. With --insights-only the stored analyses are
summarized without re-running the analyzer.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mediaID := ""
		if len(args) == 1 {
			mediaID = args[0]
		}
		criteria, err := criteriaFromFlags(cmd.Flags())
		if err != nil {
			return err
		}
		return analyzeRun(mediaID, criteria)
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeInsightsOnly, "insights-only", false, "Summarize stored analyses without analyzing")
	analyzeCmd.Flags().BoolVar(&analyzeShowAll, "show", false, "Print each comment's analysis")
	addCriteriaFlags(analyzeCmd)

	rootCmd.AddCommand(analyzeCmd)
}

func analyzeRun(mediaID string, criteria models.Criteria) error {
	svc, s, err := getService()
	if err != nil {
		return err
	}
	ctx := context.Background()
	ov := newOverlay(s)

	if !analyzeInsightsOnly {
		list, err := svc.List(ctx, mediaID, criteria, filter.DefaultOrder)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			ui.Info("No comments to analyze.")
			return nil
		}
		if dryRun {
			ui.DryRunMsg("Would analyze %d comments with %s", len(list), ov.Analyzer().Name())
			return nil
		}
		ui.Info("Analyzing %d comments with %s...", len(list), ov.Analyzer().Name())
		analyses, err := ov.Run(ctx, list)
		if err != nil {
			return failure("analyze", ov.Analyzer().Name(), err)
		}
		ui.Success("Stored %d analyses", len(analyses))
	}

	in, err := export.Gather(ctx, svc, ov, mediaID, criteria, true)
	if err != nil {
		return err
	}
	if analyzeShowAll {
		printAnalyses(in.Comments, insights.Index(in.Analyses))
	}
	printInsights(in.Insights)
	return nil
}

func printAnalyses(list []*models.Comment, byID map[string]*models.Analysis) {
	table := ui.Table([]string{"ID", "Comment", "Sentiment", "Confidence", "Themes"})
	for _, c := range list {
		a, ok := byID[c.ID]
		if !ok {
			_ = table.Append([]string{shortID(c.ID), truncate(c.Content, 40), "-", "-", ""})
			continue
		}
		conf := a.Confidence
		_ = table.Append([]string{
			shortID(c.ID),
			truncate(c.Content, 40),
			sentimentColor(a.Sentiment),
			output.ConfidenceColor(&conf),
			strings.Join(a.Themes, ", "),
		})
	}
	_ = table.Render()
	fmt.Fprintln(ui.Out)
}

func sentimentColor(s models.Sentiment) string {
	switch s {
	case models.SentimentPositive:
		return output.Green(string(s))
	case models.SentimentNegative:
		return output.Red(string(s))
	default:
		return string(s)
	}
}

func printInsights(in *insights.Insights) {
	if in == nil {
		ui.Info("No insights available.")
		return
	}
	fmt.Fprintf(ui.Out, "Comments:   %d (%d analyzed)\n", in.TotalComments, in.Analyzed)
	if in.Analyzed > 0 {
		fmt.Fprintf(ui.Out, "Sentiment:  %s (average %+.2f)\n", formatCounts(in.Sentiments), in.AverageSentiment)
	}
	if len(in.TopThemes) > 0 {
		fmt.Fprintf(ui.Out, "Themes:     %s\n", formatCounts(in.TopThemes))
	}
	fmt.Fprintf(ui.Out, "Statuses:   %s\n", formatCounts(in.Statuses))
	fmt.Fprintf(ui.Out, "Priorities: %s\n", formatCounts(in.Priorities))
	if in.ResolvedCount > 0 {
		fmt.Fprintf(ui.Out, "Resolution: %d resolved, mean %.1fh, median %.1fh\n",
			in.ResolvedCount, in.MeanResolutionHours, in.MedianResolutionHours)
	}

	if len(in.Weekly) == 0 {
		return
	}
	fmt.Fprintln(ui.Out)
	table := ui.Table([]string{"Week", "Created", "Resolved"})
	for _, w := range in.Weekly {
		_ = table.Append([]string{
			w.Start.Format("2006-01-02"),
			strconv.Itoa(w.Created),
			strconv.Itoa(w.Resolved),
		})
	}
	_ = table.Render()
}

func formatCounts(counts []insights.Count) string {
	if len(counts) == 0 {
		return "-"
	}
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = fmt.Sprintf("%s %d", c.Label, c.N)
	}
	return strings.Join(parts, ", ")
}
