package kiosk

import (
	"context"
	"fmt"
	"log"

	"ecobins-kiosk/internal/models"
)

// HandleButton aplica una pulsación del botón al flujo de reciclaje.
// Sin sesión, o esperando QR, la pulsación no hace nada.
func (c *Controller) HandleButton(ctx context.Context) {
	st := &c.state
	if !st.Session.Authorized {
		return
	}

	switch st.Step {
	case models.StepAwaitingWeight:
		st.Record.Weight = st.LiveWeight
		st.Step = models.StepAwaitingColor
		log.Printf("⚖️  [Kiosk #%d] Peso registrado: %d", c.settings.BinID, st.Record.Weight)
		c.show(models.MSG_WEIGHT_OK, fmt.Sprintf("%s %d", models.MSG_WEIGHT, st.Record.Weight))

	case models.StepAwaitingColor:
		st.Record.Color = st.LiveColor
		st.Step = models.StepAwaitingRecycle
		log.Printf("🎨 [Kiosk #%d] Color registrado: %s", c.settings.BinID, st.Record.Color)
		c.show(fmt.Sprintf("%s %s", models.MSG_COLOR, st.Record.Color), models.MSG_CONFIRM_RECYCLE)

	case models.StepAwaitingRecycle:
		c.recycle(ctx)
	}
}

// recycle acciona el motor con el color del registro, publica la bolsa y reinicia el ciclo
func (c *Controller) recycle(ctx context.Context) {
	st := &c.state
	rec := st.Record

	c.show(models.MSG_RECYCLING, "")
	if c.deps.Actuator != nil {
		if err := c.deps.Actuator.Pulse(ctx, rec.Color); err != nil {
			log.Printf("❌ [Kiosk #%d] Error accionando motor: %v", c.settings.BinID, err)
		}
	}

	payload := models.RecyclePayload{
		User:  st.Session.ActiveUID,
		QR:    rec.QR,
		Peso:  rec.Weight,
		Color: rec.Color.String(),
		ID:    c.settings.BinID,
	}
	c.publishJSON(c.settings.Topics.Recycled, payload)
	c.record(models.JournalEntry{
		Kind:     models.JournalRecycle,
		UID:      st.Session.ActiveUID,
		Username: st.Session.Username,
		QR:       rec.QR,
		Peso:     rec.Weight,
		Color:    rec.Color,
		Tipo:     rec.Color.WasteType(),
		Puntos:   rec.Color.Points(rec.Weight),
	})

	log.Printf("♻️  [Kiosk #%d] Bolsa %s reciclada (%d, %s)", c.settings.BinID, rec.QR, rec.Weight, rec.Color)
	c.resetWorkflow(true)
	c.show(fmt.Sprintf(models.MSG_RECYCLED, rec.Color.Points(rec.Weight)), models.MSG_SCAN_QR)
}

// handleQR registra el QR de la bolsa. Solo se acepta esperando QR.
func (c *Controller) handleQR(payload []byte) {
	st := &c.state
	if !st.Session.Authorized || st.Step != models.StepAwaitingQR {
		log.Printf("⏭️  [Kiosk #%d] QR ignorado (sesión: %v, paso: %s)", c.settings.BinID, st.Session.Authorized, st.Step)
		return
	}

	qr := parseQR(payload)
	if qr == "" || qr == models.INVALID_QR_CODE {
		c.show(models.MSG_INVALID_QR, models.MSG_READ_AGAIN)
		return
	}

	st.Record.QR = qr
	if st.Record.Weight > 0 {
		st.Step = models.StepAwaitingColor
	} else {
		st.Step = models.StepAwaitingWeight
	}
	log.Printf("📷 [Kiosk #%d] QR leído: %s → %s", c.settings.BinID, qr, st.Step)
	if st.Step == models.StepAwaitingColor {
		c.show(models.MSG_QR_OK+" "+qr, models.MSG_PRESS_FOR_COLOR)
		return
	}
	c.show(models.MSG_QR_OK+" "+qr, models.MSG_PLACE_BAG)
}

// handleWeight actualiza el peso cacheado; si no se entiende el payload queda el anterior
func (c *Controller) handleWeight(payload []byte) {
	peso, ok := parseWeight(payload)
	if !ok {
		log.Printf("⚠️  [Kiosk #%d] Peso ilegible, se mantiene %d: %q", c.settings.BinID, c.state.LiveWeight, string(payload))
		return
	}
	c.state.LiveWeight = peso
	c.publishStatus()
}

// handleColor actualiza el color cacheado; si no se entiende el payload queda el anterior
func (c *Controller) handleColor(payload []byte) {
	code, ok := parseColor(payload)
	if !ok {
		log.Printf("⚠️  [Kiosk #%d] Color ilegible, se mantiene %s: %q", c.settings.BinID, c.state.LiveColor, string(payload))
		return
	}
	c.state.LiveColor = code
	c.publishStatus()
}

// handleMotor atiende OPEN/CLOSE del tópico de acceso al motor.
// OPEN consulta la capacidad en cada intento; CLOSE siempre deja el motor en reposo.
func (c *Controller) handleMotor(ctx context.Context, payload []byte) {
	st := &c.state

	switch parseCommand(payload) {
	case models.MOTOR_CMD_OPEN:
		if st.MotorActive {
			log.Printf("⏭️  [Kiosk #%d] OPEN ignorado: ciclo de motor en curso", c.settings.BinID)
			return
		}
		if c.deps.Capacity == nil || !c.deps.Capacity.OpenAllowed(ctx) {
			log.Printf("🚫 [Kiosk #%d] Apertura denegada por capacidad", c.settings.BinID)
			c.show(models.MSG_CAPACITY_FULL, models.MSG_MOTOR_OFF)
			return
		}
		st.MotorActive = true
		c.show(models.MSG_MOTOR_ON, st.LiveColor.String())
		if c.deps.Actuator != nil {
			if err := c.deps.Actuator.Pulse(ctx, st.LiveColor); err != nil {
				log.Printf("❌ [Kiosk #%d] Error accionando motor: %v", c.settings.BinID, err)
			}
		}

	case models.MOTOR_CMD_CLOSE:
		wasActive := st.MotorActive
		c.forceIdle(ctx)
		if wasActive {
			log.Printf("🔒 [Kiosk #%d] CLOSE remoto: fin del ciclo de motor y de la sesión", c.settings.BinID)
			c.endSession(true)
			c.show(models.MSG_IDLE, "")
			return
		}
		c.publishStatus()

	default:
		log.Printf("⚠️  [Kiosk #%d] Comando de motor desconocido: %q", c.settings.BinID, string(payload))
	}
}
