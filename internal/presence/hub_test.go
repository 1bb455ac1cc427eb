package presence

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var t0 = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func newTestHub(t *testing.T, cfg Config) *Hub {
	t.Helper()
	h := NewHub(cfg, nil)
	t.Cleanup(h.Close)
	return h
}

func receive(t *testing.T, c <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-c:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestPublish_Validates(t *testing.T) {
	h := newTestHub(t, Config{})
	_, err := h.Publish(Event{Action: ActionViewing})
	assert.Error(t, err)
	_, err = h.Publish(Event{UserID: "u1", Action: "dancing"})
	assert.Error(t, err)

	ev, err := h.Publish(Event{UserID: "u1", Action: ActionViewing, MediaID: "m1"})
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.At.IsZero())
}

func TestRecent_IsBoundedRing(t *testing.T) {
	h := newTestHub(t, Config{RecentSize: 3})
	assert.Empty(t, h.Recent())

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		_, err := h.Publish(Event{UserID: id, Action: ActionViewing, At: t0})
		require.NoError(t, err)
	}
	var users []string
	for _, ev := range h.Recent() {
		users = append(users, ev.UserID)
	}
	assert.Equal(t, []string{"c", "d", "e"}, users)
}

func TestActive_LeftRemovesUser(t *testing.T) {
	h := newTestHub(t, Config{})
	_, _ = h.Publish(Event{UserID: "u2", Action: ActionViewing, At: t0})
	_, _ = h.Publish(Event{UserID: "u1", Action: ActionViewing, At: t0})
	_, _ = h.Publish(Event{UserID: "u1", Action: ActionTyping, CommentID: "c1", At: t0.Add(time.Second)})

	active := h.Active()
	require.Len(t, active, 2)
	assert.Equal(t, "u1", active[0].UserID)
	assert.Equal(t, ActionTyping, active[0].Action)

	_, _ = h.Publish(Event{UserID: "u1", Action: ActionLeft, At: t0.Add(2 * time.Second)})
	active = h.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "u2", active[0].UserID)
}

func TestSweep_ExpiresIdleUsers(t *testing.T) {
	h := newTestHub(t, Config{IdleTimeout: time.Minute})
	_, _ = h.Publish(Event{UserID: "idle", Action: ActionViewing, At: t0})
	_, _ = h.Publish(Event{UserID: "busy", Action: ActionEditing, At: t0.Add(90 * time.Second)})

	sub := h.Subscribe()
	defer sub.Close()

	expired := h.Sweep(t0.Add(2 * time.Minute))
	assert.Equal(t, []string{"idle"}, expired)

	ev := receive(t, sub.C)
	assert.Equal(t, ActionLeft, ev.Action)
	assert.Equal(t, "idle", ev.UserID)

	require.Len(t, h.Active(), 1)
	assert.Equal(t, "busy", h.Active()[0].UserID)
	assert.Empty(t, h.Sweep(t0.Add(2*time.Minute)))
}

func TestSubscribers_SlowOneIsDropped(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	h := NewHub(Config{SendBufferSize: 1}, zap.New(core))
	defer h.Close()

	slow := h.Subscribe()
	fast := h.Subscribe()

	_, err := h.Publish(Event{UserID: "u1", Action: ActionViewing})
	require.NoError(t, err)
	receive(t, fast.C)

	_, err = h.Publish(Event{UserID: "u1", Action: ActionTyping})
	require.NoError(t, err)
	assert.Equal(t, ActionTyping, receive(t, fast.C).Action)

	// slow never drained: first event buffered, then the channel is closed.
	assert.Equal(t, ActionViewing, receive(t, slow.C).Action)
	_, ok := <-slow.C
	assert.False(t, ok)
	assert.Equal(t, 1, h.SubscriberCount())
	assert.Equal(t, 1, logs.FilterMessage("dropping slow presence subscriber").Len())

	slow.Close()
	fast.Close()
	fast.Close()
	assert.Zero(t, h.SubscriberCount())
}

func TestClose_ClosesSubscribers(t *testing.T) {
	h := NewHub(Config{SweepInterval: time.Millisecond}, nil)
	sub := h.Subscribe()
	h.Close()
	h.Close()

	_, ok := <-sub.C
	assert.False(t, ok)

	late := h.Subscribe()
	_, ok = <-late.C
	assert.False(t, ok)
	late.Close()
}

func TestServeWS(t *testing.T) {
	h := newTestHub(t, Config{})
	_, _ = h.Publish(Event{UserID: "u9", Action: ActionViewing, At: t0})

	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err, "user is required")
	if resp != nil {
		assert.Equal(t, 400, resp.StatusCode)
	}

	watcher := h.Subscribe()
	defer watcher.Close()

	conn, _, err := websocket.DefaultDialer.Dial(url+"?user=u1&name=Ada", nil)
	require.NoError(t, err)

	var hello Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "hello", hello.Type)
	assert.NotEmpty(t, hello.ClientID)
	require.Len(t, hello.Recent, 1)
	assert.Equal(t, "u9", hello.Recent[0].UserID)

	_, err = h.Publish(Event{UserID: "u2", Action: ActionEditing, CommentID: "c7"})
	require.NoError(t, err)
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "event", msg.Type)
	require.NotNil(t, msg.Event)
	assert.Equal(t, "c7", msg.Event.CommentID)
	assert.Equal(t, "u2", receive(t, watcher.C).UserID)

	require.NoError(t, conn.WriteJSON(clientUpdate{Action: ActionTyping, CommentID: "c1"}))
	ev := receive(t, watcher.C)
	assert.Equal(t, "u1", ev.UserID)
	assert.Equal(t, "Ada", ev.UserName)
	assert.Equal(t, ActionTyping, ev.Action)

	require.NoError(t, conn.Close())
	ev = receive(t, watcher.C)
	assert.Equal(t, "u1", ev.UserID)
	assert.Equal(t, ActionLeft, ev.Action)
}
