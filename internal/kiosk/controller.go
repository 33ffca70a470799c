package kiosk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"ecobins-kiosk/internal/communication/backend"
	"ecobins-kiosk/internal/models"
	"ecobins-kiosk/internal/shared"
)

// inboxWait es lo máximo que el callback MQTT espera por lugar en la cola
const inboxWait = 50 * time.Millisecond

// ErrInboxFull indica que un mensaje MQTT se descartó por cola llena
var ErrInboxFull = errors.New("cola de mensajes MQTT llena")

// Authorizer consulta si una tarjeta está autorizada
type Authorizer interface {
	CheckTag(ctx context.Context, uid string) (*backend.AuthResult, error)
}

// CapacityGate indica si el contenedor admite una apertura
type CapacityGate interface {
	OpenAllowed(ctx context.Context) bool
}

// Publisher publica mensajes en el broker
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Actuator mueve el motor del tacho según el color
type Actuator interface {
	Pulse(ctx context.Context, code models.ColorCode) error
	Idle(ctx context.Context) error
}

// Display muestra mensajes de dos líneas
type Display interface {
	Show(line1, line2 string)
}

// Journal recibe registros de auditoría (opcional)
type Journal interface {
	Record(entry models.JournalEntry)
}

// StatusObserver es notificado con cada nueva foto del estado (opcional)
type StatusObserver interface {
	OnStatus(status models.KioskStatus)
}

// Topics son los tópicos MQTT que usa el kiosko
type Topics struct {
	Motor    string
	Colors   string
	QR       string
	Sensors  string
	Access   string
	Recycled string
}

// Settings contiene los parámetros del controlador
type Settings struct {
	BinID          int
	Topics         Topics
	IdleDelay      time.Duration
	DisplayRefresh time.Duration
}

// Deps son los colaboradores del controlador
type Deps struct {
	Auth      Authorizer
	Capacity  CapacityGate
	Publisher Publisher
	Actuator  Actuator
	Display   Display
	Journal   Journal
	Observers []StatusObserver
	Channels  *shared.ChannelManager
}

// KioskState es todo el estado mutable del kiosko.
// Solo lo modifica la goroutine del controlador.
type KioskState struct {
	Session     models.Session
	Step        models.WorkflowStep
	Record      models.BagRecord
	LiveWeight  int
	LiveColor   models.ColorCode
	MotorActive bool

	line1, line2    string
	lastIdleRefresh time.Time
}

// Controller es el dueño único del estado del kiosko.
// Procesa tarjetas, mensajes MQTT y pulsaciones en un solo bucle.
type Controller struct {
	settings Settings
	deps     Deps
	channels *shared.ChannelManager
	router   *Router
	now      func() time.Time

	state  KioskState
	status atomic.Pointer[models.KioskStatus]
}

// NewController crea el controlador con el estado inicial de arranque
func NewController(settings Settings, deps Deps) *Controller {
	if settings.IdleDelay <= 0 {
		settings.IdleDelay = 10 * time.Millisecond
	}
	if settings.DisplayRefresh <= 0 {
		settings.DisplayRefresh = 2 * time.Second
	}
	if settings.BinID == 0 {
		settings.BinID = 1
	}
	if deps.Channels == nil {
		deps.Channels = shared.NewChannelManager(0, 0, 0)
	}

	c := &Controller{
		settings: settings,
		deps:     deps,
		channels: deps.Channels,
		now:      time.Now,
	}
	c.state.Record.Clear()
	c.state.LiveColor = models.DefaultColor
	c.router = NewRouter(settings.Topics, c)
	c.publishStatus()
	return c
}

// Channels retorna las colas de entrada del controlador
func (c *Controller) Channels() *shared.ChannelManager {
	return c.channels
}

// SubmitTag encola una lectura RFID. No bloquea.
func (c *Controller) SubmitTag(uid, dispositivo string) error {
	ev, err := models.NewTagEvent(uid, dispositivo)
	if err != nil {
		return err
	}
	if !c.channels.Tags().Offer(ev, 0) {
		return fmt.Errorf("cola de tarjetas llena")
	}
	return nil
}

// PressButton encola una pulsación sin bloquear nunca (equivalente a la interrupción).
// Si la cola está llena la pulsación se descarta.
func (c *Controller) PressButton(dispositivo string) bool {
	return c.channels.Buttons().Offer(models.NewButtonEvent(dispositivo), 0)
}

// EnqueueMessage encola un mensaje MQTT recibido esperando como máximo inboxWait.
// Si la cola sigue llena el mensaje se descarta y retorna ErrInboxFull.
func (c *Controller) EnqueueMessage(topic string, payload []byte) error {
	msg := shared.InboundMessage{Topic: topic, Payload: append([]byte(nil), payload...)}
	if !c.channels.Inbox().Offer(msg, inboxWait) {
		return fmt.Errorf("%w (%s)", ErrInboxFull, topic)
	}
	return nil
}

// Run ejecuta el bucle del controlador hasta que se cancele ctx
func (c *Controller) Run(ctx context.Context) {
	log.Printf("🔄 [Kiosk #%d] Controlador iniciado (idle: %v)", c.settings.BinID, c.settings.IdleDelay)
	c.show(models.MSG_IDLE, "")
	c.state.lastIdleRefresh = c.now()

	for {
		select {
		case <-ctx.Done():
			log.Printf("🛑 [Kiosk #%d] Controlador detenido", c.settings.BinID)
			return
		default:
		}

		c.Poll(ctx)

		select {
		case <-ctx.Done():
			log.Printf("🛑 [Kiosk #%d] Controlador detenido", c.settings.BinID)
			return
		case <-time.After(c.settings.IdleDelay):
		}
	}
}

// Poll ejecuta una iteración: una tarjeta, todos los mensajes MQTT,
// todas las pulsaciones y el refresco de pantalla en reposo.
func (c *Controller) Poll(ctx context.Context) {
	if ev, ok := c.channels.Tags().Poll(0); ok {
		c.TagScanned(ctx, ev.UID)
	}

	for {
		msg, ok := c.channels.Inbox().Poll(0)
		if !ok {
			break
		}
		c.router.Dispatch(ctx, msg.Topic, msg.Payload)
	}

	for {
		if _, ok := c.channels.Buttons().Poll(0); !ok {
			break
		}
		c.HandleButton(ctx)
	}

	c.refreshIdle()
}

// QueueStats retorna los contadores de las colas de entrada
func (c *Controller) QueueStats() []shared.QueueStats {
	return c.channels.Stats()
}

// Status retorna la última foto publicada del estado
func (c *Controller) Status() models.KioskStatus {
	return *c.status.Load()
}

func (c *Controller) refreshIdle() {
	if c.state.Session.Authorized {
		return
	}
	now := c.now()
	if now.Sub(c.state.lastIdleRefresh) < c.settings.DisplayRefresh {
		return
	}
	c.state.lastIdleRefresh = now
	c.show(models.MSG_IDLE, "")
}

func (c *Controller) show(line1, line2 string) {
	c.state.line1, c.state.line2 = line1, line2
	if c.deps.Display != nil {
		c.deps.Display.Show(line1, line2)
	}
	c.publishStatus()
}

func (c *Controller) publish(topic string, payload []byte) {
	if c.deps.Publisher == nil {
		return
	}
	if err := c.deps.Publisher.Publish(topic, payload); err != nil {
		log.Printf("❌ [Kiosk #%d] Error publicando en %s: %v", c.settings.BinID, topic, err)
		return
	}
	log.Printf("📤 [Kiosk #%d] %s ← %s", c.settings.BinID, topic, string(payload))
}

func (c *Controller) publishJSON(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("❌ [Kiosk #%d] Error serializando payload para %s: %v", c.settings.BinID, topic, err)
		return
	}
	c.publish(topic, payload)
}

func (c *Controller) record(entry models.JournalEntry) {
	if c.deps.Journal == nil {
		return
	}
	entry.BinID = c.settings.BinID
	entry.Timestamp = c.now()
	c.deps.Journal.Record(entry)
}

func (c *Controller) publishStatus() {
	s := &models.KioskStatus{
		BinID:        c.settings.BinID,
		Session:      c.state.Session,
		Step:         c.state.Step,
		Record:       c.state.Record,
		LiveWeight:   c.state.LiveWeight,
		LiveColor:    c.state.LiveColor,
		MotorActive:  c.state.MotorActive,
		DisplayLine1: c.state.line1,
		DisplayLine2: c.state.line2,
		UpdatedAt:    c.now(),
	}
	c.status.Store(s)
	for _, o := range c.deps.Observers {
		o.OnStatus(*s)
	}
}

// resetWorkflow vuelve a AwaitingQR y limpia QR y color del registro.
// El peso almacenado solo se borra con clearWeight (reciclado o CLOSE); sobrevive
// a login y logout, así un QR posterior puede saltar directo al color.
func (c *Controller) resetWorkflow(clearWeight bool) {
	peso := c.state.Record.Weight
	c.state.Step = models.StepAwaitingQR
	c.state.Record.Clear()
	if !clearWeight {
		c.state.Record.Weight = peso
	}
}

// forceIdle apaga el ciclo de motor y deja las líneas en reposo
func (c *Controller) forceIdle(ctx context.Context) {
	c.state.MotorActive = false
	if c.deps.Actuator == nil {
		return
	}
	if err := c.deps.Actuator.Idle(ctx); err != nil {
		log.Printf("❌ [Kiosk #%d] Error forzando reposo del motor: %v", c.settings.BinID, err)
	}
}
