package presence

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Message is the frame sent to websocket clients.
type Message struct {
	Type     string  `json:"type"` // "hello" or "event"
	ClientID string  `json:"client_id,omitempty"`
	Event    *Event  `json:"event,omitempty"`
	Recent   []Event `json:"recent,omitempty"`
}

// clientUpdate is what a websocket client sends to report its own activity.
type clientUpdate struct {
	Action    Action `json:"action"`
	MediaID   string `json:"media_id"`
	CommentID string `json:"comment_id"`
}

// ServeWS upgrades the request and streams events to the client. The query
// parameters "user" and "name" identify who is connecting; frames the client
// sends are published as that user's activity.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		http.Error(w, "user query parameter is required", http.StatusBadRequest)
		return
	}
	userName := r.URL.Query().Get("name")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("failed to upgrade websocket connection", zap.Error(err))
		return
	}

	sub := h.Subscribe()
	log := h.log.With(zap.String("client_id", sub.ID.String()), zap.String("user_id", userID))
	log.Debug("presence client connected")

	hello := Message{Type: "hello", ClientID: sub.ID.String(), Recent: h.Recent()}
	conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
	if err := conn.WriteJSON(hello); err != nil {
		sub.Close()
		conn.Close()
		return
	}

	go h.writePump(conn, sub)
	go h.readPump(conn, sub, userID, userName, log)
}

func (h *Hub) readPump(conn *websocket.Conn, sub *Subscriber, userID, userName string, log *zap.Logger) {
	defer func() {
		sub.Close()
		conn.Close()
		h.Publish(Event{UserID: userID, UserName: userName, Action: ActionLeft})
		log.Debug("presence client disconnected")
	}()

	conn.SetReadLimit(h.cfg.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("websocket read error", zap.Error(err))
			}
			return
		}
		var u clientUpdate
		if err := json.Unmarshal(data, &u); err != nil {
			log.Debug("ignoring malformed presence frame", zap.Error(err))
			continue
		}
		if _, err := h.Publish(Event{UserID: userID, UserName: userName, Action: u.Action, MediaID: u.MediaID, CommentID: u.CommentID}); err != nil {
			log.Debug("ignoring presence update", zap.Error(err))
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, sub *Subscriber) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case ev, ok := <-sub.C:
			conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(Message{Type: "event", Event: &ev}); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
