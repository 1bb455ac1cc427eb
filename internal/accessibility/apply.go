package accessibility

import (
	"fmt"
	"sort"
	"strings"
)

// Presentation is the rendering-boundary form of Settings: root CSS classes
// and custom properties.
type Presentation struct {
	Classes    []string          `json:"classes"`
	Properties map[string]string `json:"properties"`
}

// Apply derives presentation state from s. It has no side effects.
func Apply(s Settings) Presentation {
	p := Presentation{Properties: map[string]string{}}
	if s.HighContrast {
		p.Classes = append(p.Classes, "high-contrast")
	}
	if s.ReducedMotion {
		p.Classes = append(p.Classes, "reduce-motion")
	}
	if s.FocusVisible {
		p.Classes = append(p.Classes, "focus-visible")
	}
	if s.ColorBlindMode != "" && s.ColorBlindMode != ColorBlindNone {
		p.Classes = append(p.Classes, "colorblind-"+string(s.ColorBlindMode))
	}

	p.Properties["--ups-font-size"] = fmt.Sprintf("%dpx", s.FontSize)
	stack, ok := fontStacks[s.FontFamily]
	if !ok {
		stack = fontStacks[FontDefault]
	}
	p.Properties["--ups-font-family"] = stack
	setIf := func(name, v string) {
		if v != "" {
			p.Properties[name] = v
		}
	}
	setIf("--ups-primary", s.Theme.Primary)
	setIf("--ups-background", s.Theme.Background)
	setIf("--ups-text", s.Theme.Text)
	setIf("--ups-accent", s.Theme.Accent)
	return p
}

// CSS renders p as a :root rule plus the class list, e.g. for an HTML export or a preview.
func (p Presentation) CSS() string {
	names := make([]string, 0, len(p.Properties))
	for k := range p.Properties {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, k := range names {
		fmt.Fprintf(&b, "  %s: %s;\n", k, p.Properties[k])
	}
	b.WriteString("}\n")
	if len(p.Classes) > 0 {
		fmt.Fprintf(&b, "/* classes: %s */\n", strings.Join(p.Classes, " "))
	}
	return b.String()
}
