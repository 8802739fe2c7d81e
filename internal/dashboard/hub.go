package dashboard

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/sharavanan171081/AI-Stock-App/internal/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 16
)

// Envelope is the frame pushed to dashboard WebSocket clients.
type Envelope struct {
	Type    string          `json:"type"`
	TS      time.Time       `json:"ts"`
	Data    json.RawMessage `json:"data"`
	Initial bool            `json:"initial,omitempty"`
}

// Hub fans prediction updates out to connected dashboard clients.
// The most recent frame is replayed to each new client.
type Hub struct {
	upgrader websocket.Upgrader
	prom     *metrics.Metrics

	mu      sync.RWMutex
	clients map[*client]bool
	last    *Envelope
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// NewHub creates a hub. prom may be nil.
func NewHub(prom *metrics.Metrics) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		prom:    prom,
		clients: make(map[*client]bool),
	}
}

// Broadcast marshals data into an Envelope and queues it for every client.
// Slow clients whose buffer is full miss the frame.
func (h *Hub) Broadcast(msgType string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	env := Envelope{Type: msgType, TS: time.Now().UTC(), Data: raw}
	frame, err := json.Marshal(env)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.last = &env
	dropped := 0
	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
			dropped++
		}
	}
	h.mu.Unlock()

	if dropped > 0 {
		log.Printf("[dashboard] ws: %d slow clients skipped %s", dropped, msgType)
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
func (h *Hub) HandleWS(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	cl := &client{conn: conn, send: make(chan []byte, sendBuffer), hub: h}

	h.mu.Lock()
	h.clients[cl] = true
	if h.last != nil {
		initial := *h.last
		initial.Initial = true
		if frame, err := json.Marshal(initial); err == nil {
			cl.send <- frame
		}
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.setGauge(n)

	log.Printf("[dashboard] ws client connected (%d total)", n)
	go cl.writePump()
	cl.readPump()
	return nil
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	if h.clients[cl] {
		delete(h.clients, cl)
		close(cl.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.setGauge(n)
}

func (h *Hub) setGauge(n int) {
	if h.prom != nil {
		h.prom.WSClients.Set(float64(n))
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// readPump only services control frames; clients do not send commands.
func (c *client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
		log.Println("[dashboard] ws client disconnected")
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
