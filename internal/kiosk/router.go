package kiosk

import (
	"context"
	"log"
)

type route func(ctx context.Context, payload []byte)

// Router demultiplexa los mensajes MQTT entrantes por tópico exacto.
// Cada mensaje va a un único handler; los tópicos desconocidos se descartan.
type Router struct {
	routes map[string]route
	binID  int
}

// NewRouter arma la tabla de rutas del kiosko
func NewRouter(topics Topics, c *Controller) *Router {
	r := &Router{routes: make(map[string]route), binID: c.settings.BinID}
	r.add(topics.Colors, func(_ context.Context, p []byte) { c.handleColor(p) })
	r.add(topics.Motor, c.handleMotor)
	r.add(topics.QR, func(_ context.Context, p []byte) { c.handleQR(p) })
	r.add(topics.Sensors, func(_ context.Context, p []byte) { c.handleWeight(p) })
	return r
}

func (r *Router) add(topic string, h route) {
	if topic == "" {
		return
	}
	r.routes[topic] = h
}

// Topics retorna los tópicos a los que hay que suscribirse
func (r *Router) Topics() []string {
	topics := make([]string, 0, len(r.routes))
	for t := range r.routes {
		topics = append(topics, t)
	}
	return topics
}

// Dispatch entrega el payload al handler del tópico. Retorna false si no hay ruta.
func (r *Router) Dispatch(ctx context.Context, topic string, payload []byte) bool {
	h, ok := r.routes[topic]
	if !ok {
		log.Printf("⚠️  [Kiosk #%d] Tópico desconocido %s, mensaje descartado", r.binID, topic)
		return false
	}
	h(ctx, payload)
	return true
}

// Subscriptions retorna los tópicos que consume el kiosko
func (c *Controller) Subscriptions() []string {
	return c.router.Topics()
}

// Dispatch procesa un mensaje MQTT en el contexto del controlador.
// Solo debe llamarse desde la goroutine que ejecuta Run/Poll.
func (c *Controller) Dispatch(ctx context.Context, topic string, payload []byte) bool {
	return c.router.Dispatch(ctx, topic, payload)
}
