package kiosk

import (
	"context"
	"log"
	"strings"

	"ecobins-kiosk/internal/models"
)

// TagScanned procesa una lectura RFID ya normalizada.
//
// Con sesión abierta, la misma tarjeta cierra la sesión y cualquier otra
// es rechazada sin tocar el estado. Sin sesión, se consulta al backend una
// sola vez; cualquier error de transporte o de parseo deja el kiosko sin sesión.
func (c *Controller) TagScanned(ctx context.Context, uid string) models.TagOutcome {
	st := &c.state

	if st.Session.Authorized {
		if uid == st.Session.ActiveUID {
			c.logout(ctx)
			return models.TagLogout
		}
		log.Printf("⚠️  [Kiosk #%d] Tarjeta %s rechazada: sesión abierta por %s", c.settings.BinID, uid, st.Session.ActiveUID)
		c.show(models.MSG_SESSION_BUSY, models.MSG_PRESS_BUTTON)
		return models.TagSessionConflict
	}

	if c.deps.Auth == nil {
		c.show(models.MSG_SERVER_ERROR, "")
		return models.TagAuthDenied
	}

	res, err := c.deps.Auth.CheckTag(ctx, uid)
	if err != nil {
		log.Printf("❌ [Kiosk #%d] Error consultando tarjeta %s: %v", c.settings.BinID, uid, err)
		c.show(models.MSG_SERVER_ERROR, "")
		return models.TagAuthDenied
	}
	if res == nil || !res.Authorized {
		log.Printf("🚫 [Kiosk #%d] Tarjeta %s no autorizada", c.settings.BinID, uid)
		c.show(models.MSG_AUTH_DENIED, "")
		return models.TagAuthDenied
	}

	c.login(uid, res.User.Nombre)
	return models.TagLogin
}

func (c *Controller) login(uid, username string) {
	st := &c.state
	st.Session = models.Session{Authorized: true, ActiveUID: uid, Username: username}
	c.resetWorkflow(false)

	log.Printf("✅ [Kiosk #%d] Sesión abierta: %s (%s)", c.settings.BinID, username, uid)
	c.publish(c.settings.Topics.Access, []byte(models.ACCESS_LOGIN))
	c.record(models.JournalEntry{Kind: models.JournalLogin, UID: uid, Username: username})
	c.show(strings.TrimSpace(models.MSG_WELCOME+" "+username), models.MSG_SCAN_QR)
}

func (c *Controller) logout(ctx context.Context) {
	st := &c.state
	prev := st.Session

	c.endSession(false)
	c.forceIdle(ctx)

	log.Printf("👋 [Kiosk #%d] Sesión cerrada: %s (%s)", c.settings.BinID, prev.Username, prev.ActiveUID)
	c.publish(c.settings.Topics.Access, []byte(models.ACCESS_LOGOUT))
	c.record(models.JournalEntry{Kind: models.JournalLogout, UID: prev.ActiveUID, Username: prev.Username})
	c.show(models.MSG_BYE, models.MSG_SESSION_CLOSED)
}

// endSession borra la sesión y reinicia el flujo sin publicar nada
func (c *Controller) endSession(clearWeight bool) {
	c.state.Session = models.Session{}
	c.resetWorkflow(clearWeight)
	c.state.lastIdleRefresh = c.now()
}
