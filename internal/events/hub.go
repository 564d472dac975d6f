package events

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"equipmarket/internal/pkg/response"
	"equipmarket/internal/query"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
	sendBuffer = 64
)

// client is a single websocket subscriber with its own row filter.
type client struct {
	conn   *websocket.Conn
	send   chan []byte
	filter query.Predicate
}

// Hub pushes stock events to websocket subscribers. It implements Publisher.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
}

func NewHub(allowOrigin func(r *http.Request) bool) *Hub {
	if allowOrigin == nil {
		allowOrigin = func(r *http.Request) bool { return true }
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     allowOrigin,
		},
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish delivers e to every subscriber whose filter matches. Wipe events
// reach everyone.
func (h *Hub) Publish(_ context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	row := e.Row()
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if e.Type != TypeWiped && !c.filter.Match(row) {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Client too slow — skip
		}
	}
	return nil
}

// ServeWS upgrades the request. Filters come from the query string:
// name, manufacturer, min_price, max_price.
//
// Endpoint: GET /ws/stock?manufacturer=acme
func (h *Hub) ServeWS(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		response.FromError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws_upgrade_failed error=%q", err)
		return
	}

	cl := &client{conn: conn, send: make(chan []byte, sendBuffer), filter: filter}
	h.register(cl)

	go h.writePump(cl)
	h.readPump(cl)
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws_read_error error=%q", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
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

func filterFromQuery(c *gin.Context) (query.Predicate, error) {
	minPrice, maxPrice, err := query.PriceBounds(c.Query("min_price"), c.Query("max_price"))
	if err != nil {
		return query.Predicate{}, err
	}
	return query.EquipmentFilter{
		Name:         c.Query("name"),
		Manufacturer: c.Query("manufacturer"),
		MinPrice:     minPrice,
		MaxPrice:     maxPrice,
	}.Predicate()
}
