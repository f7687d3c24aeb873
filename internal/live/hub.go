// Package live pushes order events to connected seller dashboards over
// websockets.
package live

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ariefcatur/go-seller-assistant/internal/orders"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 32
)

// Message is what a dashboard receives for every order event.
type Message struct {
	Type       string    `json:"type"`
	OrderID    int       `json:"order_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans events out to every connection of the seller they belong to.
type Hub struct {
	Upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

var _ orders.EventSink = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: map[string]map[*client]struct{}{},
	}
}

// Emit never blocks: a client whose buffer is full is disconnected.
func (h *Hub) Emit(_ context.Context, e orders.Event) {
	data, err := json.Marshal(Message{Type: e.Type, OrderID: e.OrderID, OccurredAt: e.OccurredAt, Payload: e.Payload})
	if err != nil {
		log.Printf("[live] marshal %s: %v", e.Type, err)
		return
	}

	h.mu.RLock()
	var slow []*client
	for c := range h.clients[e.SellerID] {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		log.Printf("[live] dropping slow client seller=%s", e.SellerID)
		h.remove(e.SellerID, c)
	}
}

// Connections reports how many dashboards a seller has open.
func (h *Hub) Connections(sellerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sellerID])
}

// Serve upgrades the request and streams the seller's events until the
// client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, sellerID string) {
	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[live] upgrade: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.add(sellerID, c)

	go h.writeLoop(c)
	h.readLoop(sellerID, c)
}

func (h *Hub) add(sellerID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[sellerID]
	if !ok {
		set = map[*client]struct{}{}
		h.clients[sellerID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) remove(sellerID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[sellerID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, sellerID)
	}
	close(c.send)
}

// readLoop only watches for close and pong frames; dashboards send nothing.
func (h *Hub) readLoop(sellerID string, c *client) {
	defer func() {
		h.remove(sellerID, c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
