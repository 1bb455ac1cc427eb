package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "pinpoint"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage pinpoint configuration.

Running bare 'pinpoint config' is the same as 'pinpoint config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configEditRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

// configTemplate is the template for generating config.yaml with comments.
const configTemplate = `# pinpoint configuration
# See: pinpoint config show (for effective values and sources)

# State/data directory (default: ~/.config/pinpoint)
# state_dir: {{ .StateDir }}

# SQLite database path (default: ~/.config/pinpoint/pinpoint.db)
# db_path: {{ .DBPath }}

# API server port (default: 8080)
port: {{ .Port }}

# Identity recorded on comments created from the CLI
user:
  id: "{{ .UserID }}"
  name: "{{ .UserName }}"

# Structured logging for serve, mcp, export and analysis
log:
  # debug, info, warn or error
  level: "{{ .LogLevel }}"
  # console or json
  format: "{{ .LogFormat }}"

# AI analysis (falls back to the built-in lexicon analyzer without a key)
anthropic:
  # api_key: ""
  model: "{{ .AnthropicModel }}"

# Delay before an interactive search runs, in milliseconds
search:
  debounce_ms: {{ .DebounceMS }}

# Directory that saved exports are written to
export:
  dir: "{{ .ExportDir }}"

# Number of recent shortcut announcements kept
shortcuts:
  announcements: {{ .Announcements }}
  # Managed by 'pinpoint shortcut rebind' and 'pinpoint shortcut disable'
  # bindings:
  #   next-comment: ["n", "ctrl+down"]
  # disabled: ["record-voice"]

# Endpoint used by 'pinpoint action'
remote:
  endpoint: "{{ .RemoteEndpoint }}"

# Users with no presence activity for this long are expired
presence:
  idle_timeout: "{{ .IdleTimeout }}"

# Accessibility (see: pinpoint accessibility show)
accessibility:
  high_contrast: {{ .HighContrast }}
  reduced_motion: {{ .ReducedMotion }}
  font_size: {{ .FontSize }}
  voice_announcements: {{ .VoiceAnnouncements }}
`

type configTemplateData struct {
	StateDir           string
	DBPath             string
	Port               int
	UserID             string
	UserName           string
	LogLevel           string
	LogFormat          string
	AnthropicModel     string
	DebounceMS         int
	ExportDir          string
	Announcements      int
	RemoteEndpoint     string
	IdleTimeout        string
	HighContrast       bool
	ReducedMotion      bool
	FontSize           int
	VoiceAnnouncements bool
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if file already exists
	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	// Build template data from current viper values
	data := configTemplateData{
		StateDir:           viper.GetString("state_dir"),
		DBPath:             viper.GetString("db_path"),
		Port:               viper.GetInt("port"),
		UserID:             viper.GetString("user.id"),
		UserName:           viper.GetString("user.name"),
		LogLevel:           viper.GetString("log.level"),
		LogFormat:          viper.GetString("log.format"),
		AnthropicModel:     viper.GetString("anthropic.model"),
		DebounceMS:         viper.GetInt("search.debounce_ms"),
		ExportDir:          viper.GetString("export.dir"),
		Announcements:      viper.GetInt("shortcuts.announcements"),
		RemoteEndpoint:     viper.GetString("remote.endpoint"),
		IdleTimeout:        viper.GetDuration("presence.idle_timeout").String(),
		HighContrast:       viper.GetBool("accessibility.high_contrast"),
		ReducedMotion:      viper.GetBool("accessibility.reduced_motion"),
		FontSize:           viper.GetInt("accessibility.font_size"),
		VoiceAnnouncements: viper.GetBool("accessibility.voice_announcements"),
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execute error: %w", err)
	}

	if dryRun {
		ui.DryRunMsg("Would create config file: %s", cfgPath)
		fmt.Fprintln(ui.Out)
		fmt.Fprint(ui.Out, buf.String())
		return nil
	}

	// Create config directory
	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(cfgPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, buf.String())
	return nil
}

// configKeyInfo describes a config key for display purposes.
type configKeyInfo struct {
	Key    string
	EnvVar string
}

var configKeys = []configKeyInfo{
	{Key: "state_dir", EnvVar: "PINPOINT_STATE_DIR"},
	{Key: "db_path", EnvVar: "PINPOINT_DB_PATH"},
	{Key: "port", EnvVar: "PINPOINT_PORT"},
	{Key: "user.id", EnvVar: "PINPOINT_USER_ID"},
	{Key: "user.name", EnvVar: "PINPOINT_USER_NAME"},
	{Key: "log.level", EnvVar: "PINPOINT_LOG_LEVEL"},
	{Key: "log.format", EnvVar: "PINPOINT_LOG_FORMAT"},
	{Key: "anthropic.model", EnvVar: "PINPOINT_ANTHROPIC_MODEL"},
	{Key: "search.debounce_ms", EnvVar: "PINPOINT_SEARCH_DEBOUNCE_MS"},
	{Key: "export.dir", EnvVar: "PINPOINT_EXPORT_DIR"},
	{Key: "shortcuts.announcements", EnvVar: "PINPOINT_SHORTCUTS_ANNOUNCEMENTS"},
	{Key: "remote.endpoint", EnvVar: "PINPOINT_REMOTE_ENDPOINT"},
	{Key: "presence.idle_timeout", EnvVar: "PINPOINT_PRESENCE_IDLE_TIMEOUT"},
}

func configShowRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if config file exists
	if _, err := os.Stat(cfgPath); err == nil {
		ui.Info("Config file: %s", cfgPath)
	} else {
		ui.Info("Config file: (none)")
	}
	fmt.Fprintln(ui.Out)

	// Read config file values to determine file source
	fileValues := readConfigFileValues(cfgPath)

	for _, k := range configKeys {
		val := viper.Get(k.Key)
		source := detectSource(k.Key, k.EnvVar, fileValues)
		fmt.Fprintf(ui.Out, "  %-26s %v  %s\n", k.Key, val, source)
	}

	return nil
}

// readConfigFileValues reads the raw YAML file and returns a flat map of keys present in it.
func readConfigFileValues(path string) map[string]bool {
	result := make(map[string]bool)

	data, err := os.ReadFile(path)
	if err != nil {
		return result
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return result
	}

	// Flatten nested keys with dot notation
	flattenKeys("", parsed, result)
	return result
}

// flattenKeys recursively flattens a nested map to dot-notation keys.
func flattenKeys(prefix string, m map[string]any, result map[string]bool) {
	for key, val := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			flattenKeys(fullKey, nested, result)
		} else {
			result[fullKey] = true
		}
	}
}

// detectSource determines where a config value is coming from.
func detectSource(key, envVar string, fileValues map[string]bool) string {
	if _, ok := os.LookupEnv(envVar); ok {
		return fmt.Sprintf("(env: %s)", envVar)
	}
	if fileValues[key] {
		return "(file)"
	}
	return "(default)"
}

func configEditRun() error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		return fmt.Errorf("$EDITOR is not set; set it to your preferred editor (e.g. export EDITOR=vim)")
	}

	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s (run 'pinpoint config init' first)", cfgPath)
	}

	if dryRun {
		ui.DryRunMsg("Would open %s in %s", cfgPath, editor)
		return nil
	}

	editCmd := exec.Command(editor, cfgPath)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	return editCmd.Run()
}

// persistConfig merges dotted keys into the config file, creating it if
// needed, and leaves every other key in the file untouched.
func persistConfig(updates map[string]any) (string, error) {
	cfgPath := viper.ConfigFileUsed()
	if cfgPath == "" {
		var err error
		if cfgPath, err = configFilePath(); err != nil {
			return "", err
		}
	}

	doc := make(map[string]any)
	if data, err := os.ReadFile(cfgPath); err == nil {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return "", fmt.Errorf("parse %s: %w", cfgPath, err)
		}
		if doc == nil {
			doc = make(map[string]any)
		}
	} else if !os.IsNotExist(err) {
		return "", err
	}

	for key, val := range updates {
		setNested(doc, strings.Split(key, "."), val)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(cfgPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return cfgPath, nil
}

// setNested stores val at the dotted path, replacing non-map intermediates.
func setNested(m map[string]any, path []string, val any) {
	if len(path) == 1 {
		m[path[0]] = val
		return
	}
	child, ok := m[path[0]].(map[string]any)
	if !ok {
		child = make(map[string]any)
		m[path[0]] = child
	}
	setNested(child, path[1:], val)
}
