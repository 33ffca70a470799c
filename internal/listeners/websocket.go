package listeners

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"ecobins-kiosk/internal/models"
)

// Rooms disponibles
const (
	RoomDisplay = "display"
	RoomStatus  = "status"
)

// WebSocketMessage representa un mensaje enviado a través del WebSocket
type WebSocketMessage struct {
	Type      string      `json:"type"`      // "display", "status"
	Timestamp string      `json:"timestamp"` // ISO 8601 timestamp
	BinID     int         `json:"bin_id"`
	Data      interface{} `json:"data"`
}

// DisplayData son las dos líneas que muestra la pantalla del kiosko
type DisplayData struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
}

// Client representa un cliente WebSocket conectado
type Client struct {
	ID       string
	Conn     *websocket.Conn
	RoomName string
	Send     chan []byte
	Hub      *WebSocketHub
}

// WebSocketHub maneja todas las conexiones WebSocket y las rooms
type WebSocketHub struct {
	binID int

	Rooms map[string]map[*Client]bool

	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan *BroadcastMessage

	mu sync.RWMutex
}

// BroadcastMessage contiene el mensaje y el nombre de la room objetivo
type BroadcastMessage struct {
	RoomName string
	Message  []byte
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Panel local del kiosko
	},
}

// NewWebSocketHub crea un nuevo hub con las rooms del kiosko ya creadas
func NewWebSocketHub(binID int) *WebSocketHub {
	h := &WebSocketHub{
		binID:      binID,
		Rooms:      make(map[string]map[*Client]bool),
		Register:   make(chan *Client, 10),
		Unregister: make(chan *Client, 10),
		Broadcast:  make(chan *BroadcastMessage, 100),
	}
	h.Rooms[RoomDisplay] = make(map[*Client]bool)
	h.Rooms[RoomStatus] = make(map[*Client]bool)
	return h
}

// Run atiende registros y broadcasts hasta que se cancele ctx
func (h *WebSocketHub) Run(ctx context.Context) {
	log.Println("🔌 WebSocket Hub iniciado")

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			log.Println("🔌 WebSocket Hub detenido")
			return

		case client := <-h.Register:
			h.mu.Lock()
			if h.Rooms[client.RoomName] == nil {
				h.Rooms[client.RoomName] = make(map[*Client]bool)
			}
			h.Rooms[client.RoomName][client] = true
			total := len(h.Rooms[client.RoomName])
			h.mu.Unlock()
			log.Printf("✅ Cliente %s conectado a room %s (Total: %d)", client.ID, client.RoomName, total)

		case client := <-h.Unregister:
			h.remove(client)

		case message := <-h.Broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.Rooms[message.RoomName]))
			for client := range h.Rooms[message.RoomName] {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			for _, client := range clients {
				select {
				case client.Send <- message.Message:
				default:
					log.Printf("⚠️  Canal lleno para cliente %s, desconectando", client.ID)
					h.remove(client)
				}
			}
		}
	}
}

func (h *WebSocketHub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.Rooms[client.RoomName]
	if !ok {
		return
	}
	if _, exists := clients[client]; exists {
		delete(clients, client)
		close(client.Send)
		log.Printf("❌ Cliente %s desconectado de room %s (Restantes: %d)", client.ID, client.RoomName, len(clients))
	}
}

func (h *WebSocketHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.Rooms {
		for client := range clients {
			delete(clients, client)
			close(client.Send)
		}
	}
}

// Show implementa la pantalla del kiosko: envía las líneas a la room "display"
func (h *WebSocketHub) Show(line1, line2 string) {
	h.sendMessageToRoom(RoomDisplay, "display", DisplayData{Line1: line1, Line2: line2})
}

// OnStatus envía la foto del estado a la room "status"
func (h *WebSocketHub) OnStatus(status models.KioskStatus) {
	h.sendMessageToRoom(RoomStatus, "status", status)
}

// sendMessageToRoom serializa y encola el mensaje sin bloquear al llamador
func (h *WebSocketHub) sendMessageToRoom(roomName, msgType string, data interface{}) {
	h.mu.RLock()
	clientCount := len(h.Rooms[roomName])
	h.mu.RUnlock()
	if clientCount == 0 {
		return
	}

	jsonData, err := json.Marshal(WebSocketMessage{
		Type:      msgType,
		Timestamp: time.Now().Format(time.RFC3339),
		BinID:     h.binID,
		Data:      data,
	})
	if err != nil {
		log.Printf("❌ Error al serializar mensaje WebSocket: %v", err)
		return
	}

	select {
	case h.Broadcast <- &BroadcastMessage{RoomName: roomName, Message: jsonData}:
	default:
		log.Printf("⚠️  Broadcast lleno, mensaje %s descartado para room %s", msgType, roomName)
	}
}

// GetRoomStats retorna la cantidad de clientes por room
func (h *WebSocketHub) GetRoomStats() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := make(map[string]int)
	for roomName, clients := range h.Rooms {
		stats[roomName] = len(clients)
	}
	return stats
}

func (h *WebSocketHub) validRoom(name string) bool {
	return name == RoomDisplay || name == RoomStatus
}

// readPump lee mensajes del cliente WebSocket (solo para detectar cierre y pongs)
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("⚠️  Error de lectura WebSocket: %v", err)
			}
			return
		}
	}
}

// writePump escribe mensajes al cliente WebSocket
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// HandleWebSocketConnection maneja una nueva conexión WebSocket
func HandleWebSocketConnection(hub *WebSocketHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomName := c.Param("room")
		if !hub.validRoom(roomName) {
			BadRequest(c, "Room inválida", gin.H{
				"room":     roomName,
				"expected": []string{RoomDisplay, RoomStatus},
			})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("❌ Error al hacer upgrade WebSocket: %v", err)
			return
		}

		client := &Client{
			ID:       fmt.Sprintf("%s_%d", c.ClientIP(), time.Now().UnixNano()),
			Conn:     conn,
			RoomName: roomName,
			Send:     make(chan []byte, 64),
			Hub:      hub,
		}
		hub.Register <- client

		go client.writePump()
		go client.readPump()
	}
}

// SetupWebSocketRoutes configura las rutas de WebSocket en el router
func SetupWebSocketRoutes(router *gin.Engine, hub *WebSocketHub) {
	router.GET("/ws/stats", func(c *gin.Context) {
		stats := hub.GetRoomStats()
		total := 0
		for _, count := range stats {
			total += count
		}
		Success(c, gin.H{
			"rooms":         stats,
			"total_rooms":   len(stats),
			"total_clients": total,
		}, "")
	})

	// ws://host/ws/display, ws://host/ws/status
	router.GET("/ws/:room", HandleWebSocketConnection(hub))
}
