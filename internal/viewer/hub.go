package viewer

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ziadkadry99/videomind/internal/metrics"
	"github.com/ziadkadry99/videomind/internal/session"
)

const (
	sendBuffer   = 64
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 50 * time.Second
	maxMessage   = 4096
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// playerMessage is the incoming WebSocket message format.
type playerMessage struct {
	Type  string   `json:"type"` // "time" or "activate"
	Time  *float64 `json:"time,omitempty"`
	Index *int     `json:"index,omitempty"`
}

// Hub fans session events out to every connected player. It implements
// session.Listener; Publish never blocks, and a client that falls behind
// is disconnected.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	logger  *zap.Logger
	metrics *metrics.Collector
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// NewHub creates an empty hub. m may be nil.
func NewHub(logger *zap.Logger, m *metrics.Collector) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger.Named("hub"),
		metrics: m,
	}
}

// Publish broadcasts e to every client.
func (h *Hub) Publish(e session.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		h.logger.Error("encoding event", zap.String("type", string(e.Type)), zap.Error(err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping slow player", zap.String("remote", c.conn.RemoteAddr().String()))
			h.removeLocked(c)
		}
	}
}

// Clients returns the number of connected players.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	if h.metrics != nil {
		h.metrics.ViewerClients.Inc()
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	c.close()
	if h.metrics != nil {
		h.metrics.ViewerClients.Dec()
	}
}

// handleWebSocket upgrades a player connection. The client first receives
// the current document, highlight and caption, then every later event.
func (v *Viewer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		v.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	v.session.Attach(func(snap session.Snapshot) {
		for _, e := range initialEvents(snap) {
			data, err := json.Marshal(e)
			if err != nil {
				continue
			}
			c.send <- data
		}
		v.hub.add(c)
	})

	go v.writePump(c)
	v.readPump(c)
}

func initialEvents(snap session.Snapshot) []session.Event {
	events := []session.Event{
		{Type: session.EventDocument, Index: -1, Version: snap.Version, State: string(snap.State), VideoURL: snap.VideoURL},
		{Type: session.EventHighlight, Index: snap.Highlight, Version: snap.Version},
		{Type: session.EventCaption, Index: snap.Caption, Version: snap.Version},
	}
	if doc := snap.Document; snap.Highlight >= 0 && snap.Highlight < len(doc.Nodes) {
		events[1].Text = doc.Nodes[snap.Highlight].Topic
	}
	if doc := snap.Document; snap.Caption >= 0 && snap.Caption < len(doc.Transcription) {
		events[2].Text = doc.Transcription[snap.Caption].Text
	}
	return events
}

func (v *Viewer) readPump(c *client) {
	defer func() {
		v.hub.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				v.logger.Warn("websocket read", zap.Error(err))
			}
			return
		}

		var m playerMessage
		if err := json.Unmarshal(msg, &m); err != nil {
			v.sendError(c, "invalid message format")
			continue
		}

		switch m.Type {
		case "time":
			if m.Time == nil {
				v.sendError(c, "time is required")
				continue
			}
			v.session.TimeUpdate(*m.Time)
		case "activate":
			if m.Index == nil {
				v.sendError(c, "index is required")
				continue
			}
			if _, err := v.session.Activate(*m.Index); err != nil {
				v.sendError(c, err.Error())
			}
		default:
			v.sendError(c, "unknown message type: "+m.Type)
		}
	}
}

func (v *Viewer) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				v.logger.Debug("websocket write", zap.Error(err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendError queues an error for one client only.
func (v *Viewer) sendError(c *client, message string) {
	data, err := json.Marshal(session.Event{Type: session.EventError, Index: -1, Message: message})
	if err != nil {
		return
	}
	v.hub.mu.Lock()
	defer v.hub.mu.Unlock()
	if _, ok := v.hub.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		v.hub.removeLocked(c)
	}
}
