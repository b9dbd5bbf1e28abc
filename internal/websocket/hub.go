package websocket

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/ijuchazara/bitworks-message/pkg/debug"
)

// Connection timing values
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 64 * 1024 // 64KB
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  maxMessageSize,
	WriteBufferSize: maxMessageSize,
	CheckOrigin: func(r *http.Request) bool {
		// The CORS policy is enforced at the router level.
		return true
	},
}

// conn is one registered user connection.
type conn struct {
	id uuid.UUID
	ws *websocket.Conn
	mu sync.Mutex // serializes writes
}

func (c *conn) write(messageType int, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(messageType, payload)
}

// Hub keeps one WebSocket connection per chat user and lets services push
// notifications to them. A user reconnecting replaces their previous
// connection; pushes to absent users are dropped, the chat view repolls on
// reconnect anyway.
type Hub struct {
	mu    sync.RWMutex
	conns map[int64]*conn
}

// NewHub creates an empty connection hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[int64]*conn)}
}

// ServeWS upgrades a request on /ws/{userID} and keeps the connection
// registered until the peer goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseInt(vars["userID"], 10, 64)
	if err != nil {
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		debug.Error("Failed to upgrade WebSocket connection for user %d: %v", userID, err)
		return
	}

	c := &conn{id: uuid.New(), ws: ws}
	h.register(userID, c)
	debug.Info("WebSocket connection %s established for user %d", c.id, userID)

	go h.readPump(userID, c)
}

func (h *Hub) register(userID int64, c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.conns[userID]; ok {
		debug.Debug("Replacing WebSocket connection %s for user %d", old.id, userID)
		old.ws.Close()
	}
	h.conns[userID] = c
}

// unregister removes the connection if it is still the user's current one.
func (h *Hub) unregister(userID int64, c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.conns[userID]; ok && cur.id == c.id {
		delete(h.conns, userID)
	}
}

// readPump drains incoming frames to keep pong handling alive. The chat
// channel is push-only from the server side; anything the client sends is
// discarded.
func (h *Hub) readPump(userID int64, c *conn) {
	defer func() {
		h.unregister(userID, c)
		c.ws.Close()
		debug.Info("WebSocket connection %s closed for user %d", c.id, userID)
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	ticker := time.NewTicker(pingPeriod)
	done := make(chan struct{})
	defer func() {
		ticker.Stop()
		close(done)
	}()

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := c.write(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				debug.Warning("WebSocket read error for user %d: %v", userID, err)
			}
			return
		}
	}
}

// Send pushes a text payload to the user's connection. Returns an error only
// when a connection exists but the write fails; an absent user is not an
// error.
func (h *Hub) Send(userID int64, payload []byte) error {
	h.mu.RLock()
	c, ok := h.conns[userID]
	h.mu.RUnlock()

	if !ok {
		debug.Debug("No WebSocket connection for user %d, dropping notification", userID)
		return nil
	}

	if err := c.write(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("failed to push to user %d: %w", userID, err)
	}
	return nil
}
