// Package overlay tracks which single modal overlay, if any, is open.
package overlay

import (
	"fmt"
	"sync"
)

// Kind names an overlay.
type Kind string

const (
	None              Kind = ""
	Help              Kind = "help"
	CustomizeShortcut Kind = "customize_shortcut"
	Export            Kind = "export"
	SavedFilters      Kind = "saved_filters"
	Analysis          Kind = "analysis"
	Reply             Kind = "reply"
	ConfirmDelete     Kind = "confirm_delete"
	Accessibility     Kind = "accessibility"
)

// Kinds lists the openable overlays.
var Kinds = []Kind{Help, CustomizeShortcut, Export, SavedFilters, Analysis, Reply, ConfirmDelete, Accessibility}

// Valid reports whether k is an openable overlay.
func (k Kind) Valid() bool {
	for _, v := range Kinds {
		if v == k {
			return true
		}
	}
	return false
}

// State is the single overlay value. Target carries the subject of the
// overlay (a shortcut id, a comment id) when it has one.
type State struct {
	Kind   Kind   `json:"kind"`
	Target string `json:"target,omitempty"`
}

// Open reports whether an overlay is showing.
func (s State) Open() bool { return s.Kind != None }

func (s State) String() string {
	switch {
	case !s.Open():
		return "none"
	case s.Target != "":
		return fmt.Sprintf("%s(%s)", s.Kind, s.Target)
	}
	return string(s.Kind)
}

// Manager owns the current State. Opening replaces the current overlay and
// closing clears it; close hooks see every overlay that goes away.
type Manager struct {
	mu      sync.Mutex
	current State
	onClose []func(State)
}

// NewManager returns a manager with nothing open.
func NewManager() *Manager {
	return &Manager{}
}

// Current returns the open overlay, or the zero State.
func (m *Manager) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// OnClose registers fn to run, outside the manager's lock, whenever an overlay is closed or replaced.
func (m *Manager) OnClose(fn func(State)) {
	m.mu.Lock()
	m.onClose = append(m.onClose, fn)
	m.mu.Unlock()
}

// Open shows kind, replacing whatever was open.
func (m *Manager) Open(kind Kind, target string) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown overlay %q", kind)
	}
	m.mu.Lock()
	prev := m.current
	m.current = State{Kind: kind, Target: target}
	hooks := m.hooks(prev)
	m.mu.Unlock()

	for _, fn := range hooks {
		fn(prev)
	}
	return nil
}

// Close clears the open overlay and returns what was closed.
func (m *Manager) Close() State {
	m.mu.Lock()
	prev := m.current
	m.current = State{}
	hooks := m.hooks(prev)
	m.mu.Unlock()

	for _, fn := range hooks {
		fn(prev)
	}
	return prev
}

func (m *Manager) hooks(prev State) []func(State) {
	if !prev.Open() {
		return nil
	}
	return append(([]func(State))(nil), m.onClose...)
}
