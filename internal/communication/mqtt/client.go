package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// ErrNotConnected se retorna al publicar sin conexión con el broker
var ErrNotConnected = errors.New("mqtt no conectado")

// MessageHandler recibe cada mensaje de los tópicos suscritos
type MessageHandler func(topic string, payload []byte)

// Options configura el cliente MQTT
type Options struct {
	Broker            string
	ClientID          string
	Username          string
	Password          string
	QoS               byte
	ReconnectInterval time.Duration
	PublishTimeout    time.Duration
	Subscriptions     []string
	Handler           MessageHandler
	Name              string // prefijo para los logs (ej: "Kiosk #1")
}

// Client envuelve paho con reconexión de intervalo fijo y re-suscripción
type Client struct {
	opts   Options
	client paho.Client

	mu        sync.RWMutex
	connected bool
	published map[string]uint64
	received  uint64
	errors    uint64
}

// Stats contiene estadísticas del cliente
type Stats struct {
	Connected bool              `json:"connected"`
	Published map[string]uint64 `json:"published"`
	Received  uint64            `json:"received"`
	Errors    uint64            `json:"errors"`
}

// NewClient crea el cliente sin conectar
func NewClient(opts Options) *Client {
	if opts.ReconnectInterval <= 0 {
		opts.ReconnectInterval = time.Second
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 2 * time.Second
	}
	if opts.Name == "" {
		opts.Name = "MQTT"
	}

	c := &Client{
		opts:      opts,
		published: make(map[string]uint64),
	}
	c.client = paho.NewClient(c.clientOptions())
	return c
}

// RandomClientID genera un id de cliente con sufijo aleatorio en hex
func RandomClientID(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + id[:8]
}

func (c *Client) clientOptions() *paho.ClientOptions {
	opts := paho.NewClientOptions()
	opts.AddBroker(c.opts.Broker)
	opts.SetClientID(c.opts.ClientID)
	if c.opts.Username != "" {
		opts.SetUsername(c.opts.Username)
		opts.SetPassword(c.opts.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	opts.SetMaxReconnectInterval(c.opts.ReconnectInterval)
	opts.SetConnectTimeout(5 * time.Second)

	// Al reconectar la sesión es limpia: hay que volver a suscribirse
	opts.OnConnect = func(pc paho.Client) {
		c.setConnected(true)
		log.Printf("✅ [%s] Conectado al broker %s (client_id: %s)", c.opts.Name, c.opts.Broker, c.opts.ClientID)
		c.subscribeAll(pc)
	}

	opts.OnConnectionLost = func(pc paho.Client, err error) {
		c.setConnected(false)
		log.Printf("⚠️  [%s] Conexión MQTT perdida: %v (reintentando cada %v)", c.opts.Name, err, c.opts.ReconnectInterval)
	}

	return opts
}

func (c *Client) subscribeAll(pc paho.Client) {
	for _, topic := range c.opts.Subscriptions {
		token := pc.Subscribe(topic, c.opts.QoS, c.onMessage)
		if !token.WaitTimeout(5 * time.Second) {
			log.Printf("❌ [%s] Timeout suscribiendo a %s", c.opts.Name, topic)
			continue
		}
		if err := token.Error(); err != nil {
			log.Printf("❌ [%s] Error suscribiendo a %s: %v", c.opts.Name, topic, err)
			continue
		}
		log.Printf("📡 [%s] Suscrito a %s", c.opts.Name, topic)
	}
}

func (c *Client) onMessage(_ paho.Client, msg paho.Message) {
	c.mu.Lock()
	c.received++
	c.mu.Unlock()

	if c.opts.Handler != nil {
		c.opts.Handler(msg.Topic(), msg.Payload())
	}
}

// Connect intenta conectar indefinidamente con pausa fija entre intentos,
// hasta lograrlo o hasta que se cancele ctx.
func (c *Client) Connect(ctx context.Context) error {
	attempt := 0
	for {
		attempt++
		log.Printf("🔄 [%s] Conectando a %s (intento %d)...", c.opts.Name, c.opts.Broker, attempt)

		token := c.client.Connect()
		if token.WaitTimeout(10*time.Second) && token.Error() == nil {
			return nil
		}

		err := token.Error()
		if err == nil {
			err = errors.New("timeout de conexión")
		}
		log.Printf("❌ [%s] Falló conexión MQTT: %v (reintento en %v)", c.opts.Name, err, c.opts.ReconnectInterval)

		select {
		case <-ctx.Done():
			return fmt.Errorf("conexión MQTT cancelada: %w", ctx.Err())
		case <-time.After(c.opts.ReconnectInterval):
		}
	}
}

// Publish publica un payload y espera la confirmación del cliente
func (c *Client) Publish(topic string, payload []byte) error {
	if !c.IsConnected() {
		c.countError()
		return ErrNotConnected
	}

	token := c.client.Publish(topic, c.opts.QoS, false, payload)
	if !token.WaitTimeout(c.opts.PublishTimeout) {
		c.countError()
		return fmt.Errorf("timeout publicando en %s", topic)
	}
	if err := token.Error(); err != nil {
		c.countError()
		return fmt.Errorf("error publicando en %s: %w", topic, err)
	}

	c.mu.Lock()
	c.published[topic]++
	c.mu.Unlock()
	return nil
}

// PublishJSON serializa v y lo publica
func (c *Client) PublishJSON(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("error serializando payload: %w", err)
	}
	return c.Publish(topic, payload)
}

// Disconnect cierra la conexión con el broker
func (c *Client) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(250)
		log.Printf("🔌 [%s] Desconectado del broker", c.opts.Name)
	}
	c.setConnected(false)
}

// IsConnected retorna el estado de conexión
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Stats retorna estadísticas del cliente
func (c *Client) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	published := make(map[string]uint64, len(c.published))
	for k, v := range c.published {
		published[k] = v
	}
	return Stats{
		Connected: c.connected,
		Published: published,
		Received:  c.received,
		Errors:    c.errors,
	}
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

func (c *Client) countError() {
	c.mu.Lock()
	c.errors++
	c.mu.Unlock()
}
