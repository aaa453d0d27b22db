package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"jewelconnect/internal/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Notification kinds.
const (
	KindNewMessage       = "new_message"
	KindConnectionUpdate = "connection_update"
)

// Notification is the frame written to sockets.
type Notification struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Hub tracks the sockets connected to this instance, keyed by user.
type Hub struct {
	mu       sync.RWMutex
	clients  map[uuid.UUID]map[*Client]struct{}
	broker   Broker
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHub creates a hub. An empty origins list, or one containing "*",
// accepts any origin.
func NewHub(broker Broker, origins []string, log *zap.Logger) *Hub {
	h := &Hub{
		clients: make(map[uuid.UUID]map[*Client]struct{}),
		broker:  broker,
		log:     log,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(origins),
	}
	return h
}

func originChecker(origins []string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || len(allowed) == 0 || allowed[origin]
	}
}

// Run consumes the broker until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	return h.broker.Subscribe(ctx, h.deliver)
}

// Notify implements services.Notifier.
func (h *Hub) Notify(ctx context.Context, userID uuid.UUID, kind string, payload any) error {
	env := Envelope{UserID: userID, Type: kind}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		env.Payload = data
	}
	return h.broker.Publish(ctx, env)
}

// Serve upgrades the request and attaches the socket to userID.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := newClient(h, conn, userID)
	h.register(c)
	go c.writePump()
	go c.readPump()
	return nil
}

// Connected returns the number of sockets userID holds on this instance.
func (h *Hub) Connected(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Close drops every socket.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, set := range h.clients {
		for c := range set {
			c.close()
			metrics.SocketClosed()
		}
		delete(h.clients, userID)
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
	metrics.SocketOpened()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(c)
}

// remove expects h.mu to be held.
func (h *Hub) remove(c *Client) {
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	c.close()
	metrics.SocketClosed()
}

func (h *Hub) deliver(env Envelope) {
	frame, err := json.Marshal(Notification{Type: env.Type, Payload: env.Payload})
	if err != nil {
		h.log.Warn("failed to encode notification", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients[env.UserID] {
		select {
		case c.send <- frame:
		default:
			h.log.Debug("dropping slow websocket client", zap.String("user_id", env.UserID.String()))
			h.remove(c)
		}
	}
}
