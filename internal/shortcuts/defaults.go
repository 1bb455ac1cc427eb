package shortcuts

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/joescharf/pinpoint/internal/accessibility"
	"github.com/joescharf/pinpoint/internal/overlay"
)

// Env is what the default shortcuts act on. Any field may be nil.
type Env struct {
	Settings *accessibility.Controller
	Overlays *overlay.Manager
	// OnTrigger is told the id of every default shortcut that fires.
	OnTrigger func(id string)
}

func (e Env) notify(id string) {
	if e.OnTrigger != nil {
		e.OnTrigger(id)
	}
}

func (e Env) say(id, msg string) Action {
	return func() string {
		e.notify(id)
		return msg
	}
}

func (e Env) open(id string, kind overlay.Kind, msg string) Action {
	return func() string {
		e.notify(id)
		if e.Overlays != nil {
			_ = e.Overlays.Open(kind, "")
		}
		return msg
	}
}

func (e Env) closeOverlay(id, msg string) Action {
	return func() string {
		e.notify(id)
		if e.Overlays != nil {
			e.Overlays.Close()
		}
		return msg
	}
}

func (e Env) settings(id string, fn func(accessibility.Settings) accessibility.Settings, msg func(accessibility.Settings) string) Action {
	return func() string {
		e.notify(id)
		if e.Settings == nil {
			return ""
		}
		s, err := e.Settings.Update(fn)
		if err != nil {
			return ""
		}
		return msg(s)
	}
}

// Defaults returns the built-in shortcuts bound to env.
func Defaults(env Env) []Shortcut {
	sc := func(id, name, desc string, cat Category, customizable bool, action Action, keys ...string) Shortcut {
		return Shortcut{ID: id, Name: name, Description: desc, Keys: keys, Category: cat, Enabled: true, Customizable: customizable, Action: action}
	}
	return []Shortcut{
		sc("focus-search", "Focus Search", "Focus on the search input field", CategoryNavigation, true,
			env.say("focus-search", "Search field focused"), "ctrl+f", "cmd+f"),
		sc("next-comment", "Next Comment", "Navigate to the next comment", CategoryNavigation, true,
			env.say("next-comment", "Next comment"), "j", "down"),
		sc("previous-comment", "Previous Comment", "Navigate to the previous comment", CategoryNavigation, true,
			env.say("previous-comment", "Previous comment"), "k", "up"),
		sc("close-modal", "Close Modal", "Close the open dialog", CategoryNavigation, false,
			env.closeOverlay("close-modal", "Modal closed"), "escape"),
		sc("show-help", "Show Help", "Show keyboard shortcuts help", CategoryGeneral, true,
			env.open("show-help", overlay.Help, "Help dialog opened"), "?", "ctrl+?", "cmd+?"),

		sc("new-comment", "New Comment", "Start a new comment at the current position", CategoryComments, true,
			env.say("new-comment", "New comment mode"), "c", "ctrl+enter", "cmd+enter"),
		sc("save-comment", "Save Comment", "Save the comment being edited", CategoryEditing, true,
			env.say("save-comment", "Comment saved"), "ctrl+s", "cmd+s"),
		sc("cancel-edit", "Cancel Edit", "Discard the comment being edited", CategoryEditing, false,
			env.say("cancel-edit", "Edit cancelled"), "escape"),

		sc("play-pause", "Play/Pause", "Toggle media playback", CategoryMedia, true,
			env.say("play-pause", "Media playback toggled"), "space"),
		sc("record-voice", "Record Voice", "Start or stop a voice note", CategoryMedia, true,
			env.say("record-voice", "Voice recording toggled"), "r", "ctrl+r", "cmd+r"),

		sc("reply-comment", "Reply to Comment", "Reply to the selected comment", CategoryComments, true,
			env.open("reply-comment", overlay.Reply, "Reply mode"), "r"),
		sc("resolve-comment", "Resolve Comment", "Mark the selected comment resolved", CategoryComments, true,
			env.say("resolve-comment", "Comment resolved"), "ctrl+d", "cmd+d"),
		sc("star-comment", "Star Comment", "Star the selected comment", CategoryComments, true,
			env.say("star-comment", "Comment starred"), "s"),

		sc("zoom-in", "Zoom In", "Zoom into the media", CategoryGeneral, true,
			env.say("zoom-in", "Zoom increased"), "ctrl+=", "cmd+="),
		sc("zoom-out", "Zoom Out", "Zoom out of the media", CategoryGeneral, true,
			env.say("zoom-out", "Zoom decreased"), "ctrl+-", "cmd+-"),
		sc("reset-zoom", "Reset Zoom", "Reset the media zoom level", CategoryGeneral, true,
			env.say("reset-zoom", "Zoom reset"), "ctrl+0", "cmd+0"),

		sc("toggle-high-contrast", "Toggle High Contrast", "Switch high contrast mode on or off", CategoryAccessibility, true,
			env.settings("toggle-high-contrast", accessibility.Settings.ToggleHighContrast, func(s accessibility.Settings) string {
				if s.HighContrast {
					return "High contrast enabled"
				}
				return "High contrast disabled"
			}), "ctrl+alt+h"),
		sc("increase-font-size", "Increase Font Size", "Make text larger", CategoryAccessibility, true,
			env.settings("increase-font-size", accessibility.Settings.IncreaseFont, func(s accessibility.Settings) string {
				return fmt.Sprintf("Font size increased to %d", s.FontSize)
			}), "ctrl+shift+=", "cmd+shift+="),
		sc("decrease-font-size", "Decrease Font Size", "Make text smaller", CategoryAccessibility, true,
			env.settings("decrease-font-size", accessibility.Settings.DecreaseFont, func(s accessibility.Settings) string {
				return fmt.Sprintf("Font size decreased to %d", s.FontSize)
			}), "ctrl+shift+-", "cmd+shift+-"),
	}
}

// NewDefaultRegistry builds a registry holding Defaults(env). Announcements
// follow env.Settings' voice announcement flag.
func NewDefaultRegistry(env Env, limit int, log *zap.Logger) (*Registry, *Announcer, error) {
	enabled := func() bool { return false }
	if env.Settings != nil {
		enabled = env.Settings.VoiceAnnouncements
	}
	a := NewAnnouncer(limit, enabled)
	r := NewRegistry(a, log)
	for _, s := range Defaults(env) {
		if err := r.Register(s); err != nil {
			return nil, nil, err
		}
	}
	return r, a, nil
}
