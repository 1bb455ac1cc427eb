package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/joescharf/pinpoint/internal/api"
	"github.com/joescharf/pinpoint/internal/comments"
	"github.com/joescharf/pinpoint/internal/presence"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API and presence server",
	Long: `Start an HTTP server exposing the REST API under /api/v1, the remote
action endpoint and the websocket presence feed.

By default it listens on port 8080. Use --port to change it. The server
runs in the foreground and shuts down gracefully on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveRun(viper.GetInt("port"))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	_ = viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
}

// presenceConfig reads hub tuning from config.
func presenceConfig() presence.Config {
	cfg := presence.DefaultConfig()
	if d, err := time.ParseDuration(viper.GetString("presence.idle_timeout")); err == nil && d > 0 {
		cfg.IdleTimeout = d
	} else if viper.GetString("presence.idle_timeout") != "" {
		ui.Warning("Invalid presence.idle_timeout %q, using %s", viper.GetString("presence.idle_timeout"), cfg.IdleTimeout)
	}
	return cfg
}

// publishEdits turns comment mutations into "editing" presence events.
func publishEdits(hub *presence.Hub, log *zap.Logger) func(comments.Event) {
	return func(e comments.Event) {
		if e.Actor.ID == "" {
			return
		}
		ev := presence.Event{
			UserID:    e.Actor.ID,
			UserName:  e.Actor.Name,
			Action:    presence.ActionEditing,
			MediaID:   e.MediaID,
			CommentID: e.CommentID,
		}
		if _, err := hub.Publish(ev); err != nil {
			log.Debug("presence publish skipped", zap.String("op", e.Op), zap.Error(err))
		}
	}
}

func serveRun(port int) error {
	log := getLogger()
	hub := presence.NewHub(presenceConfig(), log)
	defer hub.Close()

	svc, s, err := getService(comments.WithChangeHook(publishEdits(hub, log)))
	if err != nil {
		return err
	}
	env, err := newShortcutEnv(nil)
	if err != nil {
		return err
	}

	srv, err := api.NewServer(api.Deps{
		Store:     s,
		Comments:  svc,
		Overlay:   newOverlay(s),
		Presence:  hub,
		Settings:  env.settings,
		Overlays:  env.overlays,
		Shortcuts: env.registry,
		Announcer: env.announcer,
		ExportDir: viper.GetString("export.dir"),
		Logger:    log,
	})
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", port)
	if dryRun {
		ui.DryRunMsg("Would serve the API at http://localhost%s/api/v1", addr)
		return nil
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	// No write timeout: exports and the websocket feed manage their own deadlines.
	httpSrv := &http.Server{
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals()...)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.Serve(ln)
	}()

	ui.Success("Serving API at http://localhost%s/api/v1", addr)
	log.Info("server listening", zap.String("address", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	ui.Info("Shutting down...")
	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
