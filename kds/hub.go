package kds

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yeremiapane/table-service/models"
	"github.com/yeremiapane/table-service/utils"
)

// Event types
const (
	EventSpotUpdate  = "spot_update"
	EventItemStatus  = "item_status"
	EventOrderUpdate = "order_update"
	EventBillSettled = "bill_settled"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 32
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// audience lists the roles that receive each event.
var audience = map[string][]models.Role{
	EventSpotUpdate:  {models.RoleWaiter, models.RoleAdmin},
	EventItemStatus:  {models.RoleWaiter, models.RoleChef, models.RoleAdmin},
	EventOrderUpdate: {models.RoleWaiter, models.RoleChef, models.RoleAdmin},
	EventBillSettled: {models.RoleWaiter, models.RoleAdmin},
}

type client struct {
	conn *websocket.Conn
	role models.Role
	send chan []byte
}

// Hub fans kitchen display events out to connected staff. It only pushes
// notifications; nothing reads state back from it.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Serve registers conn and blocks until the peer disconnects.
func (h *Hub) Serve(conn *websocket.Conn, role models.Role) {
	c := &client{conn: conn, role: role, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	utils.InfoLogger.Infof("KDS client connected with role %s", role)

	go c.writeLoop()

	// Inbound frames are ignored; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.unregister(c)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	utils.InfoLogger.Infof("KDS client with role %s disconnected", c.role)
}

func (c *client) writeLoop() {
	defer c.conn.Close()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Errorf("Error sending KDS message: %v", err)
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// Clients reports the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Errorf("Error marshaling KDS message: %v", err)
		return
	}

	roles := audience[msg.Event]
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if !hasRole(roles, c.role) {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Buffer full: this client misses the frame.
			utils.InfoLogger.Warnf("KDS client with role %s is not keeping up, dropping %s", c.role, msg.Event)
		}
	}
}

func hasRole(roles []models.Role, r models.Role) bool {
	for _, x := range roles {
		if x == r {
			return true
		}
	}
	return false
}

func (h *Hub) SpotChanged(spot models.Spot) {
	h.broadcast(Message{Event: EventSpotUpdate, Data: spot})
}

func (h *Hub) ItemStatusChanged(item models.OrderLineItem) {
	h.broadcast(Message{Event: EventItemStatus, Data: item})
}

func (h *Hub) OrderUpdated(order models.Order) {
	h.broadcast(Message{Event: EventOrderUpdate, Data: order})
}

func (h *Hub) BillSettled(bill models.Bill) {
	h.broadcast(Message{Event: EventBillSettled, Data: bill})
}
