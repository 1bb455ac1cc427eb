// Package shortcuts is the keyboard shortcut registry: named key bindings,
// runtime rebinding, triggering, the key recorder and the announcement queue.
package shortcuts

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// Category groups shortcuts in help listings.
type Category string

const (
	CategoryNavigation    Category = "navigation"
	CategoryEditing       Category = "editing"
	CategoryMedia         Category = "media"
	CategoryComments      Category = "comments"
	CategoryGeneral       Category = "general"
	CategoryAccessibility Category = "accessibility"
)

// Categories lists categories in help order.
var Categories = []Category{CategoryNavigation, CategoryEditing, CategoryMedia, CategoryComments, CategoryGeneral, CategoryAccessibility}

var (
	ErrNotCustomizable = errors.New("shortcut is not customizable")
	ErrNotFound        = errors.New("shortcut not found")
	ErrDisabled        = errors.New("shortcut is disabled")
)

// Action performs a shortcut's side effect and returns the text to announce.
// An empty result announces the shortcut's name.
type Action func() string

// Shortcut is a named key binding.
type Shortcut struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Keys         []string `json:"keys"`
	Category     Category `json:"category"`
	Enabled      bool     `json:"enabled"`
	Customizable bool     `json:"customizable"`
	Action       Action   `json:"-"`
}

// Registry holds shortcuts in registration order.
type Registry struct {
	mu        sync.RWMutex
	order     []string
	byID      map[string]*Shortcut
	announcer *Announcer
	log       *zap.Logger
}

// NewRegistry creates an empty registry. Triggered shortcuts are announced
// through a, which may be nil.
func NewRegistry(a *Announcer, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{byID: map[string]*Shortcut{}, announcer: a, log: log}
}

// Register adds s after normalizing its keys.
func (r *Registry) Register(s Shortcut) error {
	if s.ID == "" {
		return fmt.Errorf("register shortcut: id is required")
	}
	keys, err := normalizeAll(s.Keys)
	if err != nil {
		return fmt.Errorf("register shortcut %s: %w", s.ID, err)
	}
	s.Keys = keys

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[s.ID]; exists {
		return fmt.Errorf("register shortcut %s: already registered", s.ID)
	}
	r.byID[s.ID] = &s
	r.order = append(r.order, s.ID)
	return nil
}

// List returns copies of every shortcut in registration order.
func (r *Registry) List() []Shortcut {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Shortcut, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id].copy())
	}
	return out
}

// Get returns a copy of one shortcut.
func (r *Registry) Get(id string) (Shortcut, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return Shortcut{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.copy(), nil
}

func (s *Shortcut) copy() Shortcut {
	c := *s
	c.Keys = slices.Clone(s.Keys)
	return c
}

// Rebind replaces a shortcut's key combinations. Non-customizable shortcuts
// return ErrNotCustomizable and keep their keys.
func (r *Registry) Rebind(id string, keys []string) error {
	normalized, err := normalizeAll(keys)
	if err != nil {
		return fmt.Errorf("rebind %s: %w", id, err)
	}
	if len(normalized) == 0 {
		return fmt.Errorf("rebind %s: at least one key combination is required", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("rebind: %w: %s", ErrNotFound, id)
	}
	if !s.Customizable {
		return fmt.Errorf("rebind %s: %w", id, ErrNotCustomizable)
	}
	r.log.Debug("shortcut rebound", zap.String("id", id), zap.Strings("from", s.Keys), zap.Strings("to", normalized))
	s.Keys = normalized
	return nil
}

// SetEnabled turns a shortcut on or off.
func (r *Registry) SetEnabled(id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.Enabled = enabled
	return nil
}

// ApplyBindings rebinds every customizable shortcut named in bindings, e.g.
// from persisted configuration. Unknown or fixed shortcuts are reported in the returned error.
func (r *Registry) ApplyBindings(bindings map[string][]string) error {
	var errs []error
	for _, id := range r.ids() {
		keys, ok := bindings[id]
		if !ok {
			continue
		}
		if err := r.Rebind(id, keys); err != nil {
			errs = append(errs, err)
		}
	}
	for id := range bindings {
		if _, err := r.Get(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) ids() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Trigger runs the shortcut with the given id and returns the announcement text.
func (r *Registry) Trigger(id string) (string, error) {
	r.mu.RLock()
	s, ok := r.byID[id]
	var snapshot Shortcut
	if ok {
		snapshot = s.copy()
	}
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("trigger: %w: %s", ErrNotFound, id)
	}
	if !snapshot.Enabled {
		return "", fmt.Errorf("trigger %s: %w", id, ErrDisabled)
	}
	return r.run(snapshot), nil
}

// TriggerKey runs the first enabled shortcut bound to combo, in registration
// order. It returns the shortcut id, or ErrNotFound when nothing matches.
func (r *Registry) TriggerKey(combo string) (string, string, error) {
	normalized, err := NormalizeCombo(combo)
	if err != nil {
		return "", "", err
	}
	s, ok := r.match(normalized)
	if !ok {
		return "", "", fmt.Errorf("%w: no enabled shortcut for %s", ErrNotFound, normalized)
	}
	return s.ID, r.run(s), nil
}

// HandleEvent triggers the shortcut matching a raw key event.
func (r *Registry) HandleEvent(ev KeyEvent) (string, string, error) {
	combo, ok := ev.Combo()
	if !ok {
		return "", "", fmt.Errorf("%w: modifier-only event", ErrNotFound)
	}
	return r.TriggerKey(combo)
}

func (r *Registry) match(combo string) (Shortcut, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		s := r.byID[id]
		if s.Enabled && slices.Contains(s.Keys, combo) {
			return s.copy(), true
		}
	}
	return Shortcut{}, false
}

// Conflicts maps each combination bound to more than one enabled shortcut to their ids.
func (r *Registry) Conflicts() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bound := map[string][]string{}
	for _, id := range r.order {
		s := r.byID[id]
		if !s.Enabled {
			continue
		}
		for _, k := range s.Keys {
			bound[k] = append(bound[k], id)
		}
	}
	for k, ids := range bound {
		if len(ids) < 2 {
			delete(bound, k)
		}
	}
	return bound
}

func (r *Registry) run(s Shortcut) string {
	msg := ""
	if s.Action != nil {
		msg = s.Action()
	}
	if msg == "" {
		msg = s.Name
	}
	r.log.Debug("shortcut triggered", zap.String("id", s.ID))
	if r.announcer != nil {
		r.announcer.Announce(msg)
	}
	return msg
}
