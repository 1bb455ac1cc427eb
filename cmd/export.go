package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/pinpoint/internal/export"
	"github.com/joescharf/pinpoint/internal/filter"
	"github.com/joescharf/pinpoint/internal/models"
	"github.com/joescharf/pinpoint/internal/output"
)

var (
	exportFormat         string
	exportTemplate       string
	exportGroupBy        string
	exportSort           string
	exportTitle          string
	exportCompany        string
	exportWatermark      string
	exportLogoURL        string
	exportRecipient      string
	exportAnonymize      bool
	exportExcludePrivate bool
	exportAI             bool
	exportStats          bool
	exportOutDir         string
	exportEstimate       bool
	exportStdout         bool
)

var exportCmd = &cobra.Command{
	Use:   "export [media-id]",
	Short: "Export comments as a report",
	Long: `Render the matching comments of one media file (or all media) as
pdf, csv, excel, json, html, markdown, word, slides or email.

Templates preset the included sections:
  standard   replies, attachments, timestamps, metadata, statistics
  executive  AI analysis and statistics only
  detailed   everything
  client     replies, attachments and timestamps; users anonymized, private comments dropped

Explicit flags override the template.`,
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
		opts, err := exportOptionsFromFlags(cmd)
		if err != nil {
			return err
		}
		return exportRun(cmd.Context(), mediaID, criteria, opts)
	},
}

func init() {
	addExportFlags(exportCmd)
	rootCmd.AddCommand(exportCmd)
}

func addExportFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&exportFormat, "format", "f", "pdf", "Format: pdf, csv, excel, json, html, markdown, word, slides, email")
	f.StringVarP(&exportTemplate, "template", "t", "standard", "Template: standard, executive, detailed, client")
	f.StringVar(&exportGroupBy, "group-by", "none", "Group by: none, status, priority, author, date, category")
	f.StringVar(&exportSort, "sort", "", "Sort key[:asc|desc] (default created:desc)")
	f.StringVar(&exportTitle, "title", "", "Document title")
	f.StringVar(&exportCompany, "company", "", "Company name for the header")
	f.StringVar(&exportWatermark, "watermark", "", "Watermark text")
	f.StringVar(&exportLogoURL, "logo-url", "", "Logo URL")
	f.StringVar(&exportRecipient, "recipient", "", "Recipient address (email format)")
	f.BoolVar(&exportAnonymize, "anonymize", false, "Replace user names with pseudonyms")
	f.BoolVar(&exportExcludePrivate, "exclude-private", false, "Drop private comments")
	f.BoolVar(&exportAI, "ai", false, "Include stored AI analysis")
	f.BoolVar(&exportStats, "stats", false, "Include summary statistics")
	f.StringVarP(&exportOutDir, "out-dir", "o", "", "Output directory (default export.dir)")
	f.BoolVar(&exportEstimate, "estimate", false, "Print the estimated size without rendering")
	f.BoolVar(&exportStdout, "stdout", false, "Write the document to stdout")
	addCriteriaFlags(cmd)
}

// exportOptionsFromFlags applies the template first, then any explicitly set toggles.
func exportOptionsFromFlags(cmd *cobra.Command) (export.Options, error) {
	flags := cmd.Flags()
	opts := export.DefaultOptions()

	f, err := export.ParseFormat(exportFormat)
	if err != nil {
		return export.Options{}, err
	}
	opts.Format = f

	opts = opts.WithTemplate(export.Template(exportTemplate))
	if opts.Template != export.Template(exportTemplate) {
		return export.Options{}, fmt.Errorf("unknown template %q", exportTemplate)
	}

	opts.GroupBy = export.GroupBy(exportGroupBy)
	if exportSort != "" {
		order, err := filter.ParseOrder(exportSort)
		if err != nil {
			return export.Options{}, err
		}
		opts.Sort = order
	}

	opts.Branding = export.Branding{
		Title:     exportTitle,
		Company:   exportCompany,
		Watermark: exportWatermark,
		LogoURL:   exportLogoURL,
	}
	opts.Recipient = exportRecipient

	if flags.Changed("anonymize") {
		opts.Privacy.AnonymizeUsers = exportAnonymize
	}
	if flags.Changed("exclude-private") {
		opts.Privacy.ExcludePrivate = exportExcludePrivate
	}
	if flags.Changed("ai") {
		opts.Include.AIAnalysis = exportAI
	}
	if flags.Changed("stats") {
		opts.Include.Statistics = exportStats
	}
	return opts, opts.Validate()
}

func exportRun(ctx context.Context, mediaID string, criteria models.Criteria, opts export.Options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	svc, s, err := getService()
	if err != nil {
		return err
	}

	in, err := export.Gather(ctx, svc, newOverlay(s), mediaID, criteria, opts.Include.AIAnalysis)
	if err != nil {
		return failure("export", string(opts.Format), err)
	}

	exporter := export.NewExporter(getLogger())
	if exportEstimate || dryRun {
		doc, err := exporter.Preview(in, opts)
		if err != nil {
			return failure("estimate export", string(opts.Format), err)
		}
		msg := fmt.Sprintf("%s export of %d comments in %d groups: about %s",
			opts.Format, len(doc.Comments), len(doc.Groups), export.HumanSize(doc.EstimatedSize()))
		if dryRun {
			ui.DryRunMsg("Would write %s", msg)
		} else {
			ui.Info("%s", msg)
		}
		return nil
	}

	res, err := exporter.Export(ctx, in, opts)
	if err != nil {
		return failure("export", string(opts.Format), err)
	}

	if exportStdout {
		_, err := os.Stdout.Write(res.Data)
		return err
	}

	dir := exportOutDir
	if dir == "" {
		dir = viper.GetString("export.dir")
	}
	path, err := export.Downloader{Dir: dir}.Save(res)
	if err != nil {
		return failure("export", res.Filename, err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	ui.Success("Exported %d comments to %s (%s)", res.Comments, output.Cyan(path), export.HumanSize(int64(len(res.Data))))
	ui.VerboseLog("Export %s, estimated %s", res.ID, export.HumanSize(res.Estimated))
	return nil
}
