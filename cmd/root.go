package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/joescharf/pinpoint/internal/accessibility"
	"github.com/joescharf/pinpoint/internal/comments"
	"github.com/joescharf/pinpoint/internal/insights"
	"github.com/joescharf/pinpoint/internal/logging"
	"github.com/joescharf/pinpoint/internal/output"
	"github.com/joescharf/pinpoint/internal/store"
)

// Set from main via Execute.
var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	dataStore store.Store
	logger    *zap.Logger

	verbose bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "pinpoint",
	Short: "Pinpoint - anchored feedback on media files",
	Long: `pinpoint stores pinpoint comments anchored to images, video, audio,
documents and code. It filters and searches them, saves filters, exports
reports in nine formats, overlays AI analysis, and serves a REST API,
a websocket presence feed and an MCP server.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	err := rootCmd.Execute()
	if logger != nil {
		_ = logger.Sync()
	}
	if dataStore != nil {
		_ = dataStore.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/pinpoint/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		configDir, err := configDirFunc()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PINPOINT")
	viper.AutomaticEnv()

	defaultConfigDir, _ := configDirFunc()
	setDefaults(viper.GetViper(), defaultConfigDir)

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

// setDefaults registers every configuration default rooted at dir.
func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("state_dir", dir)
	v.SetDefault("db_path", filepath.Join(dir, "pinpoint.db"))
	v.SetDefault("port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("user.id", os.Getenv("USER"))
	v.SetDefault("user.name", os.Getenv("USER"))
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("search.debounce_ms", 300)
	v.SetDefault("export.dir", filepath.Join(dir, "exports"))
	v.SetDefault("shortcuts.announcements", 5)
	v.SetDefault("remote.endpoint", "http://localhost:8080/api/v1/actions")
	v.SetDefault("presence.idle_timeout", "5m")
	accessibility.SetDefaults(v)
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun

	// Initialize store lazily; only when commands actually need it.
	// This allows config/version commands to run without a db.
}

// getLogger returns the shared structured logger, building it on first call.
func getLogger() *zap.Logger {
	if logger != nil {
		return logger
	}
	level := viper.GetString("log.level")
	if verbose {
		level = "debug"
	}
	l, err := logging.New(logging.Options{Level: level, Format: viper.GetString("log.format")})
	if err != nil {
		ui.Warning("Logging disabled: %v", err)
		l = zap.NewNop()
	}
	logger = l
	return logger
}

// getStore returns the shared store, initializing it on first call.
func getStore() (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	dbPath := viper.GetString("db_path")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := s.Migrate(rootCmd.Context()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dataStore = s
	return dataStore, nil
}

// getService opens the store and wraps it in a comment service.
func getService(opts ...comments.Option) (*comments.Service, store.Store, error) {
	s, err := getStore()
	if err != nil {
		return nil, nil, err
	}
	opts = append([]comments.Option{comments.WithLogger(getLogger())}, opts...)
	return comments.NewService(s, opts...), s, nil
}

// newOverlay returns an AI overlay backed by Claude when an API key is
// configured, and by the local lexicon analyzer otherwise.
func newOverlay(s store.Store) *insights.Overlay {
	var analyzer insights.Analyzer = insights.NewLexicon()
	if c := newLLMClient(); c != nil {
		analyzer = c
	}
	return insights.NewOverlay(s, analyzer, getLogger())
}
