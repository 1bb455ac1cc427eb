package shortcuts

import (
	"fmt"
	"strings"
)

// KeyEvent is a raw keyboard event as delivered by a UI.
type KeyEvent struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrl"`
	Meta  bool   `json:"meta"`
	Alt   bool   `json:"alt"`
	Shift bool   `json:"shift"`
}

var modifierKeys = map[string]bool{"control": true, "alt": true, "shift": true, "meta": true}

var keyAliases = map[string]string{
	" ":          "space",
	"spacebar":   "space",
	"arrowup":    "up",
	"arrowdown":  "down",
	"arrowleft":  "left",
	"arrowright": "right",
	"esc":        "escape",
	"return":     "enter",
	"del":        "delete",
}

var modifierAliases = map[string]string{
	"control": "ctrl",
	"command": "cmd",
	"meta":    "cmd",
	"super":   "cmd",
	"option":  "alt",
}

// Combo turns an event into a combination string: ctrl or cmd, then alt, then
// shift, then the lowercased key. Modifier-only events yield ok=false.
func (e KeyEvent) Combo() (combo string, ok bool) {
	key := strings.ToLower(e.Key)
	if key == "" || modifierKeys[key] {
		return "", false
	}
	if alias, found := keyAliases[key]; found {
		key = alias
	}
	var parts []string
	switch {
	case e.Meta:
		parts = append(parts, "cmd")
	case e.Ctrl:
		parts = append(parts, "ctrl")
	}
	if e.Alt {
		parts = append(parts, "alt")
	}
	if e.Shift {
		parts = append(parts, "shift")
	}
	return strings.Join(append(parts, key), "+"), true
}

// NormalizeCombo canonicalizes a typed combination such as "Shift+Ctrl+F" to "ctrl+shift+f".
func NormalizeCombo(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", fmt.Errorf("empty key combination")
	}
	var raw []string
	if strings.HasSuffix(s, "++") {
		raw = append(strings.Split(strings.TrimSuffix(s, "++"), "+"), "+")
	} else if s == "+" {
		raw = []string{"+"}
	} else {
		raw = strings.Split(s, "+")
	}

	var ev KeyEvent
	for i, part := range raw {
		part = strings.TrimSpace(part)
		if alias, ok := modifierAliases[part]; ok {
			part = alias
		}
		last := i == len(raw)-1
		switch {
		case part == "ctrl" && !last:
			ev.Ctrl = true
		case part == "cmd" && !last:
			ev.Meta = true
		case part == "alt" && !last:
			ev.Alt = true
		case part == "shift" && !last:
			ev.Shift = true
		case last && part != "" && !isModifier(part):
			ev.Key = part
		default:
			return "", fmt.Errorf("invalid key combination %q", s)
		}
	}
	if ev.Ctrl && ev.Meta {
		return "", fmt.Errorf("invalid key combination %q: ctrl and cmd are alternatives", s)
	}
	combo, ok := ev.Combo()
	if !ok {
		return "", fmt.Errorf("key combination %q has no key", s)
	}
	return combo, nil
}

func isModifier(part string) bool {
	switch part {
	case "ctrl", "cmd", "alt", "shift":
		return true
	}
	return false
}

func normalizeAll(keys []string) ([]string, error) {
	out := make([]string, 0, len(keys))
	seen := map[string]bool{}
	for _, k := range keys {
		c, err := NormalizeCombo(k)
		if err != nil {
			return nil, err
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out, nil
}
