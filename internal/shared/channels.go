package shared

import "ecobins-kiosk/internal/models"

// InboundMessage es un mensaje MQTT ya recibido, pendiente de despacho
type InboundMessage struct {
	Topic   string
	Payload []byte
}

// ChannelManager agrupa las colas que alimentan al controlador del kiosko.
// Las fuentes (lector, botón, MQTT) solo encolan; el controlador es el único consumidor.
type ChannelManager struct {
	tags    *Queue[models.PanelEvent]
	buttons *Queue[models.PanelEvent]
	inbox   *Queue[InboundMessage]
}

// Capacidades por defecto
const (
	DefaultTagQueueSize    = 8
	DefaultButtonQueueSize = 4
	DefaultInboxSize       = 64
)

// NewChannelManager crea las colas del kiosko
func NewChannelManager(tagSize, buttonSize, inboxSize int) *ChannelManager {
	if tagSize <= 0 {
		tagSize = DefaultTagQueueSize
	}
	if buttonSize <= 0 {
		buttonSize = DefaultButtonQueueSize
	}
	if inboxSize <= 0 {
		inboxSize = DefaultInboxSize
	}
	return &ChannelManager{
		tags:    NewQueue[models.PanelEvent]("tags", tagSize),
		buttons: NewQueue[models.PanelEvent]("boton", buttonSize),
		inbox:   NewQueue[InboundMessage]("mqtt-inbox", inboxSize),
	}
}

// Tags retorna la cola de lecturas RFID
func (cm *ChannelManager) Tags() *Queue[models.PanelEvent] { return cm.tags }

// Buttons retorna la cola de pulsaciones
func (cm *ChannelManager) Buttons() *Queue[models.PanelEvent] { return cm.buttons }

// Inbox retorna la cola de mensajes MQTT entrantes
func (cm *ChannelManager) Inbox() *Queue[InboundMessage] { return cm.inbox }

// Stats retorna los contadores de todas las colas
func (cm *ChannelManager) Stats() []QueueStats {
	return []QueueStats{cm.tags.Stats(), cm.buttons.Stats(), cm.inbox.Stats()}
}
