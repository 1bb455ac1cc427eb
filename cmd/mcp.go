package cmd

import (
	"context"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/pinpoint/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for AI assistant integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets MCP clients list, add and resolve pinpoint comments, export
reports and read AI insights. Configure a client with:

  {
    "mcpServers": {
      "pinpoint": { "command": "pinpoint", "args": ["mcp"] }
    }
  }

Available tools: pinpoint_list_comments, pinpoint_add_comment,
pinpoint_resolve_comment, pinpoint_export, pinpoint_insights`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mcpRun()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func mcpRun() error {
	svc, s, err := getService()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals()...)
	defer stop()

	srv := mcp.NewServer(svc, newOverlay(s), viper.GetString("export.dir"), getLogger())
	return srv.ServeStdio(ctx)
}
