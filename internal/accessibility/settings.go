// Package accessibility holds the explicit presentation settings and the pure
// function that turns them into CSS classes and custom properties.
package accessibility

import (
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/viper"

	"github.com/joescharf/pinpoint/internal/models"
)

const (
	MinFontSize     = 10
	MaxFontSize     = 24
	DefaultFontSize = 14
	FontStep        = 2
)

// FontFamily selects the body typeface.
type FontFamily string

const (
	FontDefault   FontFamily = "default"
	FontSerif     FontFamily = "serif"
	FontMonospace FontFamily = "monospace"
	FontDyslexic  FontFamily = "dyslexic"
)

var fontStacks = map[FontFamily]string{
	FontDefault:   "system-ui, -apple-system, sans-serif",
	FontSerif:     "Georgia, 'Times New Roman', serif",
	FontMonospace: "'Monaco', 'Menlo', monospace",
	FontDyslexic:  "'OpenDyslexic', sans-serif",
}

// ColorBlindMode selects a palette correction.
type ColorBlindMode string

const (
	ColorBlindNone         ColorBlindMode = "none"
	ColorBlindProtanopia   ColorBlindMode = "protanopia"
	ColorBlindDeuteranopia ColorBlindMode = "deuteranopia"
	ColorBlindTritanopia   ColorBlindMode = "tritanopia"
)

// Theme is a set of custom colours.
type Theme struct {
	Primary    string `json:"primary" mapstructure:"primary" validate:"omitempty,hexcolor"`
	Background string `json:"background" mapstructure:"background" validate:"omitempty,hexcolor"`
	Text       string `json:"text" mapstructure:"text" validate:"omitempty,hexcolor"`
	Accent     string `json:"accent" mapstructure:"accent" validate:"omitempty,hexcolor"`
}

// Settings is the complete accessibility configuration. It is passed by value
// and only turned into presentation state by Apply.
type Settings struct {
	HighContrast        bool           `json:"high_contrast" mapstructure:"high_contrast"`
	ReducedMotion       bool           `json:"reduced_motion" mapstructure:"reduced_motion"`
	FontSize            int            `json:"font_size" mapstructure:"font_size" validate:"min=10,max=24"`
	FontFamily          FontFamily     `json:"font_family" mapstructure:"font_family" validate:"oneof=default serif monospace dyslexic"`
	FocusVisible        bool           `json:"focus_visible" mapstructure:"focus_visible"`
	ScreenReaderSupport bool           `json:"screen_reader_support" mapstructure:"screen_reader_support"`
	KeyboardNavigation  bool           `json:"keyboard_navigation" mapstructure:"keyboard_navigation"`
	VoiceAnnouncements  bool           `json:"voice_announcements" mapstructure:"voice_announcements"`
	ColorBlindMode      ColorBlindMode `json:"color_blind_mode" mapstructure:"color_blind_mode" validate:"oneof=none protanopia deuteranopia tritanopia"`
	Theme               Theme          `json:"theme" mapstructure:"theme"`
	SoundEffects        bool           `json:"sound_effects" mapstructure:"sound_effects"`
	HapticFeedback      bool           `json:"haptic_feedback" mapstructure:"haptic_feedback"`
	AutoplayMedia       bool           `json:"autoplay_media" mapstructure:"autoplay_media"`
	Captions            bool           `json:"captions" mapstructure:"captions"`
	AudioDescriptions   bool           `json:"audio_descriptions" mapstructure:"audio_descriptions"`
}

// Defaults returns the out-of-the-box settings.
func Defaults() Settings {
	return Settings{
		FontSize:           DefaultFontSize,
		FontFamily:         FontDefault,
		FocusVisible:       true,
		KeyboardNavigation: true,
		ColorBlindMode:     ColorBlindNone,
		Theme: Theme{
			Primary:    "#6366f1",
			Background: "#ffffff",
			Text:       "#000000",
			Accent:     "#8b5cf6",
		},
		SoundEffects:   true,
		HapticFeedback: true,
	}
}

// SetDefaults registers every accessibility key on v under "accessibility.".
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("accessibility.high_contrast", d.HighContrast)
	v.SetDefault("accessibility.reduced_motion", d.ReducedMotion)
	v.SetDefault("accessibility.font_size", d.FontSize)
	v.SetDefault("accessibility.font_family", string(d.FontFamily))
	v.SetDefault("accessibility.focus_visible", d.FocusVisible)
	v.SetDefault("accessibility.screen_reader_support", d.ScreenReaderSupport)
	v.SetDefault("accessibility.keyboard_navigation", d.KeyboardNavigation)
	v.SetDefault("accessibility.voice_announcements", d.VoiceAnnouncements)
	v.SetDefault("accessibility.color_blind_mode", string(d.ColorBlindMode))
	v.SetDefault("accessibility.theme.primary", d.Theme.Primary)
	v.SetDefault("accessibility.theme.background", d.Theme.Background)
	v.SetDefault("accessibility.theme.text", d.Theme.Text)
	v.SetDefault("accessibility.theme.accent", d.Theme.Accent)
	v.SetDefault("accessibility.sound_effects", d.SoundEffects)
	v.SetDefault("accessibility.haptic_feedback", d.HapticFeedback)
	v.SetDefault("accessibility.autoplay_media", d.AutoplayMedia)
	v.SetDefault("accessibility.captions", d.Captions)
	v.SetDefault("accessibility.audio_descriptions", d.AudioDescriptions)
}

// Load reads settings from v, starting from Defaults for any key v lacks.
func Load(v *viper.Viper) (Settings, error) {
	s := Defaults()
	if err := v.UnmarshalKey("accessibility", &s); err != nil {
		return Settings{}, fmt.Errorf("load accessibility settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Save writes s into v under "accessibility.". Persisting v is the caller's job.
func Save(v *viper.Viper, s Settings) {
	for key, val := range s.keys() {
		v.Set("accessibility."+key, val)
	}
}

func (s Settings) keys() map[string]any {
	return map[string]any{
		"high_contrast":         s.HighContrast,
		"reduced_motion":        s.ReducedMotion,
		"font_size":             s.FontSize,
		"font_family":           string(s.FontFamily),
		"focus_visible":         s.FocusVisible,
		"screen_reader_support": s.ScreenReaderSupport,
		"keyboard_navigation":   s.KeyboardNavigation,
		"voice_announcements":   s.VoiceAnnouncements,
		"color_blind_mode":      string(s.ColorBlindMode),
		"theme.primary":         s.Theme.Primary,
		"theme.background":      s.Theme.Background,
		"theme.text":            s.Theme.Text,
		"theme.accent":          s.Theme.Accent,
		"sound_effects":         s.SoundEffects,
		"haptic_feedback":       s.HapticFeedback,
		"autoplay_media":        s.AutoplayMedia,
		"captions":              s.Captions,
		"audio_descriptions":    s.AudioDescriptions,
	}
}

// Keys lists the settable keys (without the "accessibility." prefix) in sorted order.
func Keys() []string {
	m := Defaults().keys()
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Validate checks ranges and enum values.
func (s Settings) Validate() error {
	return models.Validate(s)
}

// IncreaseFont returns s with the font one step larger, capped at MaxFontSize.
func (s Settings) IncreaseFont() Settings {
	s.FontSize = min(s.FontSize+FontStep, MaxFontSize)
	return s
}

// DecreaseFont returns s with the font one step smaller, floored at MinFontSize.
func (s Settings) DecreaseFont() Settings {
	s.FontSize = max(s.FontSize-FontStep, MinFontSize)
	return s
}

// ToggleHighContrast flips high contrast.
func (s Settings) ToggleHighContrast() Settings {
	s.HighContrast = !s.HighContrast
	return s
}

// Controller guards the live settings shared by shortcuts, the API and the announcer.
type Controller struct {
	mu       sync.RWMutex
	settings Settings
	onChange func(Settings)
}

// NewController starts from s. onChange, when set, runs after every change.
func NewController(s Settings, onChange func(Settings)) *Controller {
	return &Controller{settings: s, onChange: onChange}
}

// Get returns a copy of the current settings.
func (c *Controller) Get() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// Update applies fn and stores the result if it validates.
func (c *Controller) Update(fn func(Settings) Settings) (Settings, error) {
	c.mu.Lock()
	next := fn(c.settings)
	if err := next.Validate(); err != nil {
		c.mu.Unlock()
		return c.settings, err
	}
	c.settings = next
	c.mu.Unlock()

	if c.onChange != nil {
		c.onChange(next)
	}
	return next, nil
}

// Reset restores Defaults.
func (c *Controller) Reset() Settings {
	s, _ := c.Update(func(Settings) Settings { return Defaults() })
	return s
}

// VoiceAnnouncements reports whether announcements should be queued.
func (c *Controller) VoiceAnnouncements() bool {
	return c.Get().VoiceAnnouncements
}
