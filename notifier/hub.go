package notifier

import (
	"sync"

	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"github.com/qrdine/qrdine-server/models"
	"github.com/qrdine/qrdine-server/utils"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub persists notifications and fans them out to connected websocket
// clients (staff dashboards, guest pages).
type Hub struct {
	DB      *gorm.DB
	clients map[*websocket.Conn]string // conn -> role
	mutex   sync.Mutex
}

func NewHub(db *gorm.DB) *Hub {
	return &Hub{
		DB:      db,
		clients: make(map[*websocket.Conn]string),
	}
}

// RegisterClient adds a connection with its role.
func (h *Hub) RegisterClient(conn *websocket.Conn, role string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = role
}

// UnregisterClient drops a connection.
func (h *Hub) UnregisterClient(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.clients, conn)
	conn.Close()
}

// Notify stores the notification and broadcasts it. Both steps are
// best-effort; failures are logged and swallowed.
func (h *Hub) Notify(tableID uint, message, eventKind string, guestOriginated bool) {
	notif := models.Notification{
		TableID:           tableID,
		Message:           message,
		EventKind:         eventKind,
		IsGuestOriginated: guestOriginated,
	}
	if err := h.DB.Create(&notif).Error; err != nil {
		utils.ErrorLogger.Printf("failed to persist notification for table %d: %v", tableID, err)
	}

	h.broadcast(Message{
		Event: eventKind,
		Data: map[string]interface{}{
			"table_id":            tableID,
			"message":             message,
			"is_guest_originated": guestOriginated,
		},
	})
}

func (h *Hub) broadcast(msg Message) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn := range h.clients {
		if err := conn.WriteJSON(msg); err != nil {
			utils.ErrorLogger.Printf("websocket write failed, dropping client: %v", err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}
