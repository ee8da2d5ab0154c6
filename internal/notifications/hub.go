package notifications

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/websocket"
)

// Event names pushed to websocket subscribers.
const (
	EventCreated = "notification.created"
	EventRead    = "notification.read"
	EventAllRead = "notification.all_read"
)

// Event represents a payload delivered to notification subscribers.
type Event struct {
	Event          string      `json:"event"`
	Notification   interface{} `json:"notification,omitempty"`
	NotificationID string      `json:"notification_id,omitempty"`
	UnreadCount    *int64      `json:"unread_count,omitempty"`
}

type subscriber struct {
	conn *websocket.Conn
	send chan Event
}

// Hub fans notification events out to connected subscribers, keyed by user ID.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*subscriber]struct{}
}

// NewHub constructs a notification hub instance.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[*subscriber]struct{}),
	}
}

// Serve upgrades the HTTP connection to a WebSocket and registers the user subscriber.
func (h *Hub) Serve(userID string, w http.ResponseWriter, r *http.Request) {
	server := websocket.Server{
		Handshake: func(config *websocket.Config, req *http.Request) error {
			config.Protocol = append(config.Protocol, "json")
			return nil
		},
		Handler: func(conn *websocket.Conn) {
			_ = conn.SetDeadline(time.Now().Add(5 * time.Minute))
			sub := &subscriber{
				conn: conn,
				send: make(chan Event, 16),
			}

			h.add(userID, sub)
			defer h.remove(userID, sub)

			go h.writeLoop(sub)
			h.readLoop(sub)
		},
	}

	server.ServeHTTP(w, r)
}

// Broadcast delivers an event to all subscribers for the provided user ID.
func (h *Hub) Broadcast(userID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers[userID] {
		select {
		case sub.send <- event:
		default:
			// Drop if buffer full to avoid blocking all clients.
		}
	}
}

// BroadcastMany delivers an event to each supplied user ID.
func (h *Hub) BroadcastMany(userIDs []string, event Event) {
	for _, userID := range userIDs {
		h.Broadcast(userID, event)
	}
}

func (h *Hub) add(userID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscribers[userID] == nil {
		h.subscribers[userID] = make(map[*subscriber]struct{})
	}
	h.subscribers[userID][sub] = struct{}{}
}

func (h *Hub) remove(userID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs := h.subscribers[userID]; subs != nil {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.subscribers, userID)
		}
	}
	close(sub.send)
	_ = sub.conn.Close()
}

func (h *Hub) writeLoop(sub *subscriber) {
	for event := range sub.send {
		if err := websocket.JSON.Send(sub.conn, event); err != nil {
			break
		}
	}
}

func (h *Hub) readLoop(sub *subscriber) {
	defer sub.conn.Close()

	for {
		var payload interface{}
		if err := websocket.JSON.Receive(sub.conn, &payload); err != nil {
			break
		}
	}
}
