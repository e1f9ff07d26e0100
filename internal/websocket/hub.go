// Package websocket streams new interaction log rows to admin viewers.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"portfolio-backend/internal/auth"
	"portfolio-backend/internal/models"
)

// LogChannel is the Redis pub/sub channel carrying new log rows between
// server instances.
const LogChannel = "llm_logs:stream"

const (
	writeWait = 10 * time.Second
	// sendBuffer frames may queue per viewer before new ones are dropped.
	sendBuffer = 64
)

// Message is the frame sent to viewers.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// client owns one viewer connection. Only writePump writes to conn, so a
// slow viewer never blocks the publisher.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	return &client{conn: conn, send: make(chan []byte, sendBuffer)}
}

func (c *client) writePump(logger *slog.Logger) {
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			logger.Debug("log viewer write failed", "error", err)
			// Closing unblocks the read loop, which unregisters and closes send.
			c.conn.Close()
		}
	}
}

// Hub tracks admin viewers. With Redis, rows published on any instance reach
// viewers on every instance; without it, delivery is local only.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	redis    *redis.Client
	verifier auth.Verifier
	upgrader websocket.Upgrader
	logger   *slog.Logger
	cancel   context.CancelFunc
}

// NewHub builds a hub. redisClient may be nil. allowedOrigin restricts the
// upgrade to one browser origin; empty allows any.
func NewHub(redisClient *redis.Client, verifier auth.Verifier, allowedOrigin string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		clients:  make(map[*client]struct{}),
		redis:    redisClient,
		verifier: verifier,
		logger:   logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return allowedOrigin == "" || origin == "" || origin == allowedOrigin
		},
	}
	return h
}

// HandleWebSocket authenticates with the token query parameter, since
// browsers cannot set headers on a websocket upgrade.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = auth.BearerToken(r)
	}
	if h.verifier == nil || token == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, err := h.verifier.Verify(r.Context(), token)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := newClient(conn)
	h.register(c, userID)
	go c.writePump(h.logger)

	// Read until the viewer goes away; frames from viewers are ignored.
	go func() {
		defer h.unregister(c, userID)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) register(c *client, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = struct{}{}

	// First viewer starts the cross-instance subscription.
	if len(h.clients) == 1 && h.redis != nil {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancel = cancel
		go h.subscribe(ctx)
	}

	h.logger.Info("log viewer connected", "user_id", userID, "viewers", len(h.clients))
}

func (h *Hub) unregister(c *client, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	c.conn.Close()
	delete(h.clients, c)
	close(c.send)

	if len(h.clients) == 0 && h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}

	h.logger.Info("log viewer disconnected", "user_id", userID)
}

func (h *Hub) subscribe(ctx context.Context) {
	pubsub := h.redis.Subscribe(ctx, LogChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast([]byte(msg.Payload))
		}
	}
}

// broadcast queues data for every viewer without waiting on the network.
// A viewer whose queue is full misses the frame.
func (h *Hub) broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("log viewer lagging, frame dropped")
		}
	}
}

// PublishLog sends entry to every viewer. It is called after the row is
// stored and never fails the caller.
func (h *Hub) PublishLog(ctx context.Context, entry *models.InteractionLogEntry) {
	data, err := json.Marshal(Message{Type: "llm_log", Payload: entry})
	if err != nil {
		return
	}

	if h.redis != nil {
		if err := h.redis.Publish(ctx, LogChannel, data).Err(); err == nil {
			return
		}
		h.logger.Warn("log publish failed, delivering locally", "error", err)
	}
	h.broadcast(data)
}

// Viewers returns the number of connected viewers.
func (h *Hub) Viewers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
