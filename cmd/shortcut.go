package cmd

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/pinpoint/internal/accessibility"
	"github.com/joescharf/pinpoint/internal/output"
	"github.com/joescharf/pinpoint/internal/overlay"
	"github.com/joescharf/pinpoint/internal/shortcuts"
)

var shortcutKey string

var shortcutCmd = &cobra.Command{
	Use:     "shortcut",
	Aliases: []string{"shortcuts", "keys"},
	Short:   "List, trigger and rebind keyboard shortcuts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return shortcutListRun()
	},
}

var shortcutListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List shortcuts by category",
	RunE: func(cmd *cobra.Command, args []string) error {
		return shortcutListRun()
	},
}

var shortcutTriggerCmd = &cobra.Command{
	Use:   "trigger [shortcut-id]",
	Short: "Run a shortcut by id or by key combination",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := ""
		if len(args) == 1 {
			id = args[0]
		}
		return shortcutTriggerRun(id, shortcutKey)
	},
}

var shortcutRebindCmd = &cobra.Command{
	Use:   "rebind <shortcut-id> <keys>...",
	Short: "Replace a shortcut's key combinations",
	Long: `Replace a shortcut's key combinations and save them to the config file.

  pinpoint shortcut rebind next-comment n ctrl+down`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return shortcutRebindRun(args[0], args[1:])
	},
}

var shortcutResetCmd = &cobra.Command{
	Use:   "reset <shortcut-id>",
	Short: "Restore a shortcut's default keys",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return shortcutResetRun(args[0])
	},
}

var shortcutEnableCmd = &cobra.Command{
	Use:   "enable <shortcut-id>",
	Short: "Enable a shortcut",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return shortcutSetEnabledRun(args[0], true)
	},
}

var shortcutDisableCmd = &cobra.Command{
	Use:   "disable <shortcut-id>",
	Short: "Disable a shortcut",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return shortcutSetEnabledRun(args[0], false)
	},
}

var shortcutConflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Show key combinations bound to more than one shortcut",
	RunE: func(cmd *cobra.Command, args []string) error {
		return shortcutConflictsRun()
	},
}

func init() {
	shortcutTriggerCmd.Flags().StringVarP(&shortcutKey, "key", "k", "", "Key combination, e.g. ctrl+f")

	shortcutCmd.AddCommand(shortcutListCmd)
	shortcutCmd.AddCommand(shortcutTriggerCmd)
	shortcutCmd.AddCommand(shortcutRebindCmd)
	shortcutCmd.AddCommand(shortcutResetCmd)
	shortcutCmd.AddCommand(shortcutEnableCmd)
	shortcutCmd.AddCommand(shortcutDisableCmd)
	shortcutCmd.AddCommand(shortcutConflictsCmd)
	rootCmd.AddCommand(shortcutCmd)
}

// shortcutEnv is the live state shortcuts act on.
type shortcutEnv struct {
	registry  *shortcuts.Registry
	announcer *shortcuts.Announcer
	settings  *accessibility.Controller
	overlays  *overlay.Manager
}

// newShortcutEnv builds the default registry with the configured bindings
// and disabled shortcuts applied.
func newShortcutEnv(onTrigger func(id string)) (*shortcutEnv, error) {
	ctrl, err := newSettingsController()
	if err != nil {
		return nil, err
	}
	overlays := overlay.NewManager()
	reg, ann, err := shortcuts.NewDefaultRegistry(shortcuts.Env{
		Settings:  ctrl,
		Overlays:  overlays,
		OnTrigger: onTrigger,
	}, viper.GetInt("shortcuts.announcements"), getLogger())
	if err != nil {
		return nil, err
	}

	if err := reg.ApplyBindings(configuredBindings()); err != nil {
		ui.Warning("Ignoring shortcut bindings: %v", err)
	}
	for _, id := range viper.GetStringSlice("shortcuts.disabled") {
		if err := reg.SetEnabled(id, false); err != nil {
			ui.Warning("Ignoring disabled shortcut: %v", err)
		}
	}
	return &shortcutEnv{registry: reg, announcer: ann, settings: ctrl, overlays: overlays}, nil
}

func configuredBindings() map[string][]string {
	return viper.GetStringMapStringSlice("shortcuts.bindings")
}

func shortcutListRun() error {
	env, err := newShortcutEnv(nil)
	if err != nil {
		return err
	}

	byCat := make(map[shortcuts.Category][]shortcuts.Shortcut)
	for _, s := range env.registry.List() {
		byCat[s.Category] = append(byCat[s.Category], s)
	}

	table := ui.Table([]string{"Category", "ID", "Keys", "Description", "State"})
	for _, cat := range shortcuts.Categories {
		for _, s := range byCat[cat] {
			state := output.Green("enabled")
			if !s.Enabled {
				state = output.Red("disabled")
			}
			if !s.Customizable {
				state += " (fixed)"
			}
			_ = table.Append([]string{string(cat), s.ID, strings.Join(s.Keys, ", "), s.Description, state})
		}
	}
	_ = table.Render()
	return nil
}

func shortcutTriggerRun(id, key string) error {
	if (id == "") == (key == "") {
		return fmt.Errorf("give either a shortcut id or --key")
	}
	env, err := newShortcutEnv(nil)
	if err != nil {
		return err
	}

	if dryRun {
		target := id
		if target == "" {
			target = key
		}
		ui.DryRunMsg("Would trigger shortcut %s", target)
		return nil
	}

	var msg string
	if key != "" {
		id, msg, err = env.registry.TriggerKey(key)
	} else {
		msg, err = env.registry.Trigger(id)
	}
	if err != nil {
		return err
	}

	ui.Success("%s: %s", output.Cyan(id), msg)
	if st := env.overlays.Current(); st.Open() {
		ui.Info("Overlay: %s", st)
	}
	if env.settings.VoiceAnnouncements() {
		ui.VerboseLog("Announced: %s", env.announcer.Latest())
	}
	return nil
}

func shortcutRebindRun(id string, keys []string) error {
	env, err := newShortcutEnv(nil)
	if err != nil {
		return err
	}
	if err := env.registry.Rebind(id, keys); err != nil {
		return err
	}
	s, _ := env.registry.Get(id)

	if dryRun {
		ui.DryRunMsg("Would bind %s to %s", id, strings.Join(s.Keys, ", "))
		return nil
	}

	path, err := persistConfig(map[string]any{"shortcuts.bindings." + id: s.Keys})
	if err != nil {
		return err
	}
	ui.Success("Bound %s to %s (saved to %s)", output.Cyan(id), strings.Join(s.Keys, ", "), path)
	for combo, ids := range env.registry.Conflicts() {
		if slices.Contains(ids, id) {
			ui.Warning("%s is also bound to %s", combo, strings.Join(ids, ", "))
		}
	}
	return nil
}

func shortcutResetRun(id string) error {
	bindings := configuredBindings()
	if _, ok := bindings[id]; !ok {
		ui.Info("%s already uses its default keys.", id)
		return nil
	}
	delete(bindings, id)

	if dryRun {
		ui.DryRunMsg("Would restore default keys for %s", id)
		return nil
	}

	stored := make(map[string]any, len(bindings))
	for k, v := range bindings {
		stored[k] = v
	}
	if _, err := persistConfig(map[string]any{"shortcuts.bindings": stored}); err != nil {
		return err
	}
	ui.Success("Restored default keys for %s", output.Cyan(id))
	return nil
}

func shortcutSetEnabledRun(id string, enabled bool) error {
	env, err := newShortcutEnv(nil)
	if err != nil {
		return err
	}
	if _, err := env.registry.Get(id); err != nil {
		return err
	}

	disabled := viper.GetStringSlice("shortcuts.disabled")
	disabled = slices.DeleteFunc(disabled, func(s string) bool { return s == id })
	if !enabled {
		disabled = append(disabled, id)
	}
	sort.Strings(disabled)

	verb := "enable"
	if !enabled {
		verb = "disable"
	}
	if dryRun {
		ui.DryRunMsg("Would %s shortcut %s", verb, id)
		return nil
	}

	if _, err := persistConfig(map[string]any{"shortcuts.disabled": disabled}); err != nil {
		return err
	}
	ui.Success("Shortcut %s %sd", output.Cyan(id), verb)
	return nil
}

func shortcutConflictsRun() error {
	env, err := newShortcutEnv(nil)
	if err != nil {
		return err
	}
	conflicts := env.registry.Conflicts()
	if len(conflicts) == 0 {
		ui.Success("No conflicting key combinations")
		return nil
	}

	combos := make([]string, 0, len(conflicts))
	for c := range conflicts {
		combos = append(combos, c)
	}
	sort.Strings(combos)

	table := ui.Table([]string{"Keys", "Shortcuts", "Fires"})
	for _, c := range combos {
		ids := conflicts[c]
		_ = table.Append([]string{c, strings.Join(ids, ", "), ids[0]})
	}
	_ = table.Render()
	return nil
}
