package cmd

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/pinpoint/internal/accessibility"
	"github.com/joescharf/pinpoint/internal/output"
)

var accessibilityCmd = &cobra.Command{
	Use:     "accessibility",
	Aliases: []string{"a11y"},
	Short:   "Show and change accessibility settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return accessibilityShowRun()
	},
}

var accessibilityShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return accessibilityShowRun()
	},
}

var accessibilitySetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting and save it to the config file",
	Long: `Change one setting, e.g.

  pinpoint accessibility set font_size 18
  pinpoint accessibility set color_blind_mode deuteranopia
  pinpoint accessibility set theme.primary "#1d4ed8"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return accessibilitySetRun(args[0], args[1])
	},
}

var accessibilityResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return accessibilityResetRun()
	},
}

var accessibilityCSSCmd = &cobra.Command{
	Use:   "css",
	Short: "Print the CSS custom properties for the current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return accessibilityCSSRun()
	},
}

func init() {
	accessibilityCmd.AddCommand(accessibilityShowCmd)
	accessibilityCmd.AddCommand(accessibilitySetCmd)
	accessibilityCmd.AddCommand(accessibilityResetCmd)
	accessibilityCmd.AddCommand(accessibilityCSSCmd)
	rootCmd.AddCommand(accessibilityCmd)
}

// newSettingsController loads the configured settings. Every change made
// through the controller is written back to the config file.
func newSettingsController() (*accessibility.Controller, error) {
	s, err := accessibility.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	return accessibility.NewController(s, func(next accessibility.Settings) {
		if _, err := saveSettings(next); err != nil {
			getLogger().Sugar().Warnw("persist accessibility settings", "error", err)
		}
	}), nil
}

// saveSettings stores s in viper and merges it into the config file.
func saveSettings(s accessibility.Settings) (string, error) {
	if dryRun {
		return "", nil
	}
	v := viper.GetViper()
	accessibility.Save(v, s)
	updates := make(map[string]any)
	for _, k := range accessibility.Keys() {
		updates["accessibility."+k] = v.Get("accessibility." + k)
	}
	return persistConfig(updates)
}

func accessibilityShowRun() error {
	if _, err := accessibility.Load(viper.GetViper()); err != nil {
		return err
	}
	for _, k := range accessibility.Keys() {
		fmt.Fprintf(ui.Out, "  %-24s %v\n", k, viper.Get("accessibility."+k))
	}
	return nil
}

// parseSettingValue converts raw to the type of key's current value.
func parseSettingValue(key, raw string) (any, error) {
	if !slices.Contains(accessibility.Keys(), key) {
		return nil, fmt.Errorf("unknown accessibility setting %q (valid: %s)", key, strings.Join(accessibility.Keys(), ", "))
	}
	switch viper.Get("accessibility." + key).(type) {
	case bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s expects true or false, got %q", key, raw)
		}
		return b, nil
	case int, int64, float64:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s expects a number, got %q", key, raw)
		}
		return n, nil
	default:
		return raw, nil
	}
}

func accessibilitySetRun(key, raw string) error {
	key = strings.TrimPrefix(key, "accessibility.")
	val, err := parseSettingValue(key, raw)
	if err != nil {
		return err
	}

	ctrl, err := newSettingsController()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would set accessibility.%s = %v", key, val)
		return nil
	}

	// Validate the candidate before anything reaches the config file. Leaf
	// values are copied because a parent key only resolves to one layer.
	candidate := viper.New()
	for _, k := range accessibility.Keys() {
		candidate.Set("accessibility."+k, viper.Get("accessibility."+k))
	}
	candidate.Set("accessibility."+key, val)
	next, err := accessibility.Load(candidate)
	if err != nil {
		return failure("update accessibility", key, err)
	}

	if _, err := ctrl.Update(func(accessibility.Settings) accessibility.Settings { return next }); err != nil {
		return failure("update accessibility", key, err)
	}
	ui.Success("Set accessibility.%s = %s", key, output.Cyan(fmt.Sprint(val)))
	return nil
}

func accessibilityResetRun() error {
	ctrl, err := newSettingsController()
	if err != nil {
		return err
	}
	if dryRun {
		ui.DryRunMsg("Would restore default accessibility settings")
		return nil
	}
	ctrl.Reset()
	ui.Success("Accessibility settings restored to defaults")
	return nil
}

func accessibilityCSSRun() error {
	s, err := accessibility.Load(viper.GetViper())
	if err != nil {
		return err
	}
	fmt.Fprint(ui.Out, accessibility.Apply(s).CSS())
	return nil
}
