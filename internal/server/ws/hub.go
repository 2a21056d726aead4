// Package ws pushes each new spread report to connected WebSocket clients.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/spreadscan/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// LatestFunc returns the snapshot new clients are greeted with.
type LatestFunc func(ctx context.Context) (domain.Snapshot, error)

// Message is one category of a snapshot as sent to clients.
type Message struct {
	Type        string               `json:"type"`
	RunID       string               `json:"runId"`
	GeneratedAt time.Time            `json:"generatedAt"`
	Category    domain.Category      `json:"category"`
	Data        []domain.ReportEntry `json:"data"`
}

// subscribeMsg adds or removes report categories for a client.
type subscribeMsg struct {
	Action     string   `json:"action"`
	Categories []string `json:"categories"`
}

type outbound struct {
	category domain.Category
	data     []byte
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	// greeting is queued by Run when the client registers.
	greeting [][]byte
	mu       sync.RWMutex
	subs map[domain.Category]bool
}

// Hub tracks connected clients and fans report updates out to them. It
// implements domain.ReportSink.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []outbound
	register   chan *client
	unregister chan *client
	done       chan struct{}
	latest     LatestFunc
	mu         sync.RWMutex
	logger     *slog.Logger
}

// NewHub creates a Hub. latest may be nil.
func NewHub(latest LatestFunc, logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []outbound, 8),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		latest:     latest,
		logger:     logger.With(slog.String("component", "ws_hub")),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return ctx.Err()

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			for _, data := range c.greeting {
				select {
				case c.send <- data:
				default:
				}
			}
			c.greeting = nil
			h.logger.Info("ws: client connected", slog.Int("total_clients", h.ClientCount()))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.logger.Info("ws: client disconnected", slog.Int("total_clients", h.ClientCount()))

		case msgs := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				for _, m := range msgs {
					if !c.isSubscribed(m.category) {
						continue
					}
					select {
					case c.send <- m.data:
					default:
						h.logger.Warn("ws: dropping message for slow client")
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Name() string { return "ws" }

// Store queues snap for broadcast. It never blocks on slow clients; when the
// queue is full the update is dropped and the next scan supersedes it.
func (h *Hub) Store(_ context.Context, snap domain.Snapshot) error {
	msgs, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- msgs:
	default:
		h.logger.Warn("ws: broadcast queue full, dropping snapshot", slog.String("run_id", snap.RunID))
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWS upgrades the request and registers the client.
// GET /ws
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws: upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		subs: make(map[domain.Category]bool, len(domain.Categories)),
	}
	for _, cat := range domain.Categories {
		c.subs[cat] = true
	}

	c.greeting = h.loadGreeting(r.Context())

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func encodeSnapshot(snap domain.Snapshot) ([]outbound, error) {
	out := make([]outbound, 0, len(domain.Categories))
	for _, cat := range domain.Categories {
		raw, err := json.Marshal(Message{
			Type:        "spreads",
			RunID:       snap.RunID,
			GeneratedAt: snap.GeneratedAt.UTC(),
			Category:    cat,
			Data:        domain.Entries(snap.Report.Section(cat)),
		})
		if err != nil {
			return nil, err
		}
		out = append(out, outbound{category: cat, data: raw})
	}
	return out, nil
}

// loadGreeting encodes the latest snapshot for a new client.
func (h *Hub) loadGreeting(ctx context.Context) [][]byte {
	if h.latest == nil {
		return nil
	}
	snap, err := h.latest(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			h.logger.Warn("ws: load latest snapshot failed", slog.String("error", err.Error()))
		}
		return nil
	}
	msgs, err := encodeSnapshot(snap)
	if err != nil {
		return nil
	}
	out := make([][]byte, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.data)
	}
	return out
}

func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("ws: unexpected close error", slog.String("error", err.Error()))
			}
			return
		}
		var sub subscribeMsg
		if json.Unmarshal(message, &sub) == nil {
			c.handleSubscription(sub)
		}
	}
}

func (c *client) handleSubscription(msg subscribeMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range msg.Categories {
		cat, ok := domain.ParseCategory(name)
		if !ok {
			continue
		}
		switch msg.Action {
		case "subscribe":
			c.subs[cat] = true
		case "unsubscribe":
			delete(c.subs, cat)
		}
	}
}

func (c *client) isSubscribed(cat domain.Category) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subs[cat]
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var _ domain.ReportSink = (*Hub)(nil)
