package shortcuts

import (
	"errors"
	"fmt"
	"sync"

	"github.com/joescharf/pinpoint/internal/overlay"
)

// RecorderState is the customization state machine.
type RecorderState int

const (
	Idle RecorderState = iota
	Recording
	Committed
)

func (s RecorderState) String() string {
	switch s {
	case Recording:
		return "recording"
	case Committed:
		return "committed"
	}
	return "idle"
}

// ErrNotRecording is returned when an event or commit arrives outside a recording.
var ErrNotRecording = errors.New("not recording")

// Recorder captures the next key combination for a shortcut.
type Recorder struct {
	mu       sync.Mutex
	registry *Registry
	overlays *overlay.Manager
	state    RecorderState
	target   string
	combo    string
}

// NewRecorder records into r. When overlays is non-nil, recording opens the
// customize-shortcut overlay, and closing that overlay mid-recording cancels it.
func NewRecorder(r *Registry, overlays *overlay.Manager) *Recorder {
	rec := &Recorder{registry: r, overlays: overlays}
	if overlays != nil {
		overlays.OnClose(func(s overlay.State) {
			if s.Kind == overlay.CustomizeShortcut {
				rec.cancelIfRecording()
			}
		})
	}
	return rec
}

// State returns the current state, target shortcut and captured combination.
func (rec *Recorder) State() (RecorderState, string, string) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.state, rec.target, rec.combo
}

// Start begins recording for a customizable shortcut.
func (rec *Recorder) Start(id string) error {
	s, err := rec.registry.Get(id)
	if err != nil {
		return err
	}
	if !s.Customizable {
		return fmt.Errorf("record %s: %w", id, ErrNotCustomizable)
	}
	if rec.overlays != nil {
		// Replacing an open customize overlay cancels its recording first.
		if err := rec.overlays.Open(overlay.CustomizeShortcut, id); err != nil {
			return err
		}
	}
	rec.mu.Lock()
	rec.state, rec.target, rec.combo = Recording, id, ""
	rec.mu.Unlock()
	return nil
}

// Capture records a raw key event. Modifier-only events are ignored and a
// later event replaces an earlier one. It reports whether the event was kept.
func (rec *Recorder) Capture(ev KeyEvent) (bool, error) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.state != Recording {
		return false, ErrNotRecording
	}
	combo, ok := ev.Combo()
	if !ok {
		return false, nil
	}
	rec.combo = combo
	return true, nil
}

// Commit replaces the target shortcut's keys with the captured combination.
func (rec *Recorder) Commit() error {
	rec.mu.Lock()
	if rec.state != Recording {
		rec.mu.Unlock()
		return ErrNotRecording
	}
	if rec.combo == "" {
		rec.mu.Unlock()
		return fmt.Errorf("commit %s: no key combination captured", rec.target)
	}
	target, combo := rec.target, rec.combo
	if err := rec.registry.Rebind(target, []string{combo}); err != nil {
		rec.mu.Unlock()
		return err
	}
	rec.state = Committed
	rec.mu.Unlock()

	if rec.overlays != nil && rec.overlays.Current().Kind == overlay.CustomizeShortcut {
		rec.overlays.Close()
	}
	return nil
}

// Cancel discards captured keys and returns to idle.
func (rec *Recorder) Cancel() {
	rec.mu.Lock()
	rec.state, rec.target, rec.combo = Idle, "", ""
	rec.mu.Unlock()
}

func (rec *Recorder) cancelIfRecording() {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.state == Recording {
		rec.state, rec.target, rec.combo = Idle, "", ""
	}
}
