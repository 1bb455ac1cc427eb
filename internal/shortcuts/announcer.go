package shortcuts

import (
	"slices"
	"sync"
)

// DefaultAnnouncementLimit is how many recent announcements are kept.
const DefaultAnnouncementLimit = 5

// Announcer keeps the most recent announcements for assistive technology.
// Messages are dropped while announcements are switched off.
type Announcer struct {
	mu      sync.Mutex
	limit   int
	enabled func() bool
	queue   []string
}

// NewAnnouncer keeps up to limit messages (DefaultAnnouncementLimit when
// limit < 1). enabled is consulted on every Announce; nil means always on.
func NewAnnouncer(limit int, enabled func() bool) *Announcer {
	if limit < 1 {
		limit = DefaultAnnouncementLimit
	}
	return &Announcer{limit: limit, enabled: enabled}
}

// Announce queues msg and reports whether it was kept.
func (a *Announcer) Announce(msg string) bool {
	if msg == "" || (a.enabled != nil && !a.enabled()) {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.queue = append(a.queue, msg)
	if over := len(a.queue) - a.limit; over > 0 {
		a.queue = slices.Delete(a.queue, 0, over)
	}
	return true
}

// Recent returns queued messages, oldest first.
func (a *Announcer) Recent() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.queue)
}

// Latest returns the newest message, the live-region text.
func (a *Announcer) Latest() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.queue) == 0 {
		return ""
	}
	return a.queue[len(a.queue)-1]
}

// Clear empties the queue.
func (a *Announcer) Clear() {
	a.mu.Lock()
	a.queue = nil
	a.mu.Unlock()
}
