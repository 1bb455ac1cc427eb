// Package presence fans out ephemeral "who is looking at what" events to
// subscribers and websocket clients.
package presence

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Action is what a user is doing.
type Action string

const (
	ActionViewing Action = "viewing"
	ActionEditing Action = "editing"
	ActionTyping  Action = "typing"
	ActionLeft    Action = "left"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionViewing, ActionEditing, ActionTyping, ActionLeft:
		return true
	}
	return false
}

// Event is one presence update. Events are never persisted.
type Event struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	Action    Action    `json:"action"`
	MediaID   string    `json:"media_id,omitempty"`
	CommentID string    `json:"comment_id,omitempty"`
	At        time.Time `json:"at"`
}

// Config holds hub tuning.
type Config struct {
	// RecentSize bounds the recent-event ring.
	RecentSize int
	// IdleTimeout expires users with no events for this long.
	IdleTimeout time.Duration
	// SweepInterval is how often idle users are expired.
	SweepInterval time.Duration
	// SendBufferSize is the per-subscriber buffer; a full buffer drops the subscriber.
	SendBufferSize int

	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64
}

// DefaultConfig returns a Config with the standard limits.
func DefaultConfig() Config {
	return Config{
		RecentSize:     50,
		IdleTimeout:    5 * time.Minute,
		SweepInterval:  30 * time.Second,
		SendBufferSize: 64,
		PingInterval:   30 * time.Second,
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		MaxMessageSize: 1024,
	}
}

// Hub records recent events, tracks active users and broadcasts to subscribers.
type Hub struct {
	cfg      Config
	log      *zap.Logger
	upgrader websocket.Upgrader
	now      func() time.Time

	mu          sync.Mutex
	recent      []Event
	next        int
	full        bool
	active      map[string]Event
	subscribers map[uuid.UUID]*Subscriber
	closed      bool

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewHub creates a hub and starts its idle sweeper. Call Close to stop it.
func NewHub(cfg Config, log *zap.Logger) *Hub {
	def := DefaultConfig()
	if cfg.RecentSize <= 0 {
		cfg.RecentSize = def.RecentSize
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}
	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = def.SendBufferSize
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	if log == nil {
		log = zap.NewNop()
	}

	h := &Hub{
		cfg:         cfg,
		log:         log.With(zap.String("component", "presence")),
		now:         time.Now,
		recent:      make([]Event, cfg.RecentSize),
		active:      map[string]Event{},
		subscribers: map[uuid.UUID]*Subscriber{},
		done:        make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	h.wg.Add(1)
	go h.sweepLoop()
	return h
}

// Publish stamps, records and broadcasts ev. A "left" event removes the user
// from the active set.
func (h *Hub) Publish(ev Event) (Event, error) {
	if ev.UserID == "" {
		return Event{}, fmt.Errorf("publish presence: user id is required")
	}
	if !ev.Action.Valid() {
		return Event{}, fmt.Errorf("publish presence: unknown action %q", ev.Action)
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.At.IsZero() {
		ev.At = h.now().UTC()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.record(ev)
	h.broadcast(ev)
	return ev, nil
}

func (h *Hub) record(ev Event) {
	h.recent[h.next] = ev
	h.next = (h.next + 1) % len(h.recent)
	if h.next == 0 {
		h.full = true
	}
	if ev.Action == ActionLeft {
		delete(h.active, ev.UserID)
	} else {
		h.active[ev.UserID] = ev
	}
}

// broadcast delivers without blocking; subscribers that cannot keep up are dropped.
func (h *Hub) broadcast(ev Event) {
	for id, s := range h.subscribers {
		select {
		case s.send <- ev:
		default:
			delete(h.subscribers, id)
			close(s.send)
			h.log.Warn("dropping slow presence subscriber", zap.String("subscriber_id", id.String()))
		}
	}
}

// Recent returns recorded events, oldest first.
func (h *Hub) Recent() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.full {
		return append([]Event(nil), h.recent[:h.next]...)
	}
	out := make([]Event, 0, len(h.recent))
	out = append(out, h.recent[h.next:]...)
	return append(out, h.recent[:h.next]...)
}

// Active returns each present user's latest event, ordered by user id.
func (h *Hub) Active() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Event, 0, len(h.active))
	for _, ev := range h.active {
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Sweep expires users idle since before now-IdleTimeout by publishing a
// "left" event for each. It returns the expired user ids.
func (h *Hub) Sweep(now time.Time) []string {
	cutoff := now.Add(-h.cfg.IdleTimeout)
	h.mu.Lock()
	var expired []Event
	for _, ev := range h.active {
		if ev.At.Before(cutoff) {
			expired = append(expired, ev)
		}
	}
	h.mu.Unlock()

	sort.Slice(expired, func(i, j int) bool { return expired[i].UserID < expired[j].UserID })
	ids := make([]string, 0, len(expired))
	for _, ev := range expired {
		if _, err := h.Publish(Event{UserID: ev.UserID, UserName: ev.UserName, Action: ActionLeft, MediaID: ev.MediaID, At: now.UTC()}); err == nil {
			ids = append(ids, ev.UserID)
		}
	}
	if len(ids) > 0 {
		h.log.Debug("expired idle users", zap.Strings("users", ids))
	}
	return ids
}

func (h *Hub) sweepLoop() {
	defer h.wg.Done()
	ticker := time.NewTicker(h.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.Sweep(h.now())
		}
	}
}

// Subscriber receives broadcast events on C until it is closed or dropped.
type Subscriber struct {
	ID   uuid.UUID
	C    <-chan Event
	send chan Event
	hub  *Hub
}

// Subscribe registers a new subscriber. On a closed hub the channel is already closed.
func (h *Hub) Subscribe() *Subscriber {
	send := make(chan Event, h.cfg.SendBufferSize)
	s := &Subscriber{ID: uuid.New(), C: send, send: send, hub: h}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(send)
		return s
	}
	h.subscribers[s.ID] = s
	return s
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscriber) Close() {
	h := s.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[s.ID]; ok {
		delete(h.subscribers, s.ID)
		close(s.send)
	}
}

// SubscriberCount returns the number of live subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Close stops the sweeper and closes every subscriber.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.wg.Wait()

		h.mu.Lock()
		h.closed = true
		for id, s := range h.subscribers {
			delete(h.subscribers, id)
			close(s.send)
		}
		h.mu.Unlock()
		h.log.Info("presence hub stopped")
	})
}
