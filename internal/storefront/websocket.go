package storefront

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"bistro/internal/checkout"
	"bistro/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// sessionUpdate is pushed to subscribers after every canonical re-fetch,
// so the UI always re-renders from server truth.
type sessionUpdate struct {
	Session models.CheckoutSession `json:"session"`
	Steps   checkout.StepState     `json:"steps"`
}

// wsHub fans session updates out to the websocket subscribers of one order.
type wsHub struct {
	mu    sync.Mutex
	conns map[*wsConn]struct{}
}

// wsConn maintains one WebSocket connection with a client.
type wsConn struct {
	conn *websocket.Conn
	send chan []byte
	hub  *wsHub
}

func newWSHub() *wsHub {
	return &wsHub{conns: make(map[*wsConn]struct{})}
}

func (h *wsHub) broadcast(update sessionUpdate) {
	data, err := json.Marshal(update)
	if err != nil {
		log.Printf("error marshaling session update: %v", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		select {
		case c.send <- data:
		default:
			log.Println("websocket buffer full, dropping update")
		}
	}
}

func (h *wsHub) add(c *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = struct{}{}
}

func (h *wsHub) remove(c *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c)
}

func (h *wsHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		c.conn.Close()
		delete(h.conns, c)
	}
}

// handleWebSocket subscribes a client to checkout-session updates.
func (s *Server) handleWebSocket(c *gin.Context) {
	b, ok := s.bundle(c.Param("orderID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "checkout not attached"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("failed to upgrade connection: %v", err)
		return
	}

	wc := &wsConn{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  b.hub,
	}
	b.hub.add(wc)

	go wc.writePump()
	go wc.readPump()
}

// readPump drains client messages; subscribers are read-only, so its only
// job is detecting disconnects.
func (c *wsConn) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(64 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket error: %v", err)
			}
			break
		}
	}
}

// writePump pumps updates from the hub to the WebSocket connection.
func (c *wsConn) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
