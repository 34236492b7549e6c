// Package ws serves ticker panels over websocket. Every feed update is
// pushed as one JSON message to each connected panel.
package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"ticker_go/internal/domain"
	"ticker_go/internal/event"
	"ticker_go/internal/infra"
)

const (
	writeTimeout = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	sendBuffer   = 16
)

// Message is the wire form of an update.
type Message struct {
	Type        event.Type            `json:"type"`
	Seq         uint64                `json:"seq"`
	Ts          int64                 `json:"ts"`
	Outcome     string                `json:"outcome,omitempty"`
	Headlines   []domain.Headline     `json:"headlines,omitempty"`
	Stocks      []domain.StockDisplay `json:"stocks,omitempty"`
	RefreshedAt *time.Time            `json:"refreshed_at,omitempty"`
	Message     string                `json:"message,omitempty"`
	Settings    any                   `json:"settings,omitempty"`
}

// NewMessage converts an event. Empty quote lists become the sample cells.
func NewMessage(ev event.Event) Message {
	msg := Message{Type: ev.GetType(), Seq: ev.GetSeq(), Ts: ev.GetTs()}
	switch e := ev.(type) {
	case *event.HeadlinesEvent:
		msg.Outcome = e.Outcome.String()
		msg.Headlines = e.Headlines
		msg.RefreshedAt = timePtr(e.RefreshedAt)
	case *event.QuotesEvent:
		msg.Outcome = e.Outcome.String()
		msg.Stocks = domain.StockDisplays(e.Quotes)
		if len(e.Quotes) > 0 {
			msg.RefreshedAt = timePtr(e.RefreshedAt)
		}
	case *event.NoticeEvent:
		msg.Message = e.Message
	case *event.SettingsEvent:
		msg.Settings = e.Settings
	}
	return msg
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Hub tracks connected panels and implements engine.Surface.
type Hub struct {
	upgrader websocket.Upgrader
	iconDir  string
	metrics  *infra.Metrics

	mu      sync.RWMutex
	clients map[string]*client
	latest  map[domain.Feed][]byte

	logger *slog.Logger
}

// NewHub creates a hub. Icons are served from iconDir when it is set.
func NewHub(iconDir string, metrics *infra.Metrics) *Hub {
	if metrics == nil {
		metrics = infra.GlobalMetrics
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Panels are served from local files and browser extensions.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		iconDir: iconDir,
		metrics: metrics,
		clients: make(map[string]*client),
		latest:  make(map[domain.Feed][]byte),
		logger:  slog.Default().With("module", "ws"),
	}
}

// Name implements engine.Surface.
func (h *Hub) Name() string { return "ws" }

// Apply implements engine.Surface. Slow panels miss updates rather than
// stalling the dispatcher.
func (h *Hub) Apply(ev event.Event) {
	data, err := json.Marshal(NewMessage(ev))
	if err != nil {
		h.logger.Error("Failed to encode update", slog.Any("error", err))
		return
	}

	h.mu.Lock()
	if feed := event.Feed(ev); feed != "" {
		h.latest[feed] = data
	}
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		select {
		case c.send <- data:
			h.metrics.RecordUpdate()
		default:
			h.logger.Warn("Panel send buffer full, dropping update", slog.String("client", c.id))
		}
	}
}

// ClientCount returns the number of connected panels.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Health is the /healthz body.
type Health struct {
	Panels  int                   `json:"panels"`
	Metrics infra.MetricsSnapshot `json:"metrics"`
}

// Handler routes /ws, /icons/ and /healthz.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.serveWS)
	if h.iconDir != "" {
		mux.Handle("/icons/", http.StripPrefix("/icons/", http.FileServer(http.Dir(h.iconDir))))
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Health{Panels: h.ClientCount(), Metrics: h.metrics.Snapshot()})
	})
	return mux
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", slog.Any("error", err))
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}

	// Register and queue the current snapshot under one lock so no update
	// can slip between them.
	h.mu.Lock()
	for _, feed := range []domain.Feed{domain.FeedHeadlines, domain.FeedQuotes} {
		if data, ok := h.latest[feed]; ok {
			c.send <- data
		}
	}
	h.clients[c.id] = c
	h.mu.Unlock()

	h.metrics.IncrementConnections()
	h.logger.Info("Panel connected", slog.String("client", c.id))

	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	h.mu.Unlock()

	c.close()
	if ok {
		h.metrics.DecrementConnections()
		h.logger.Info("Panel disconnected", slog.String("client", c.id))
	}
}

// readLoop only drains control frames; panels never send data.
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("Panel read error", slog.String("client", c.id), slog.Any("error", err))
			}
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	defer h.remove(c)

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects every panel.
func (h *Hub) Close() {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.remove(c)
	}
}
