package models

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// PanelEventType representa el origen de un evento del panel del kiosko
type PanelEventType string

const (
	PanelEventTag    PanelEventType = "TAG"
	PanelEventButton PanelEventType = "BTN"
)

// PanelEvent representa una lectura RFID o una pulsación del botón
type PanelEvent struct {
	Timestamp   time.Time      `json:"timestamp"`
	Type        PanelEventType `json:"type"`
	UID         string         `json:"uid,omitempty"` // Solo para TAG, hex en minúsculas
	Dispositivo string         `json:"dispositivo"`   // Identificador del origen (ej: "panel-tcp")
}

// String implementa fmt.Stringer
func (e PanelEvent) String() string {
	if e.Type == PanelEventTag {
		return fmt.Sprintf("[%s] 🪪 TAG %s (%s)", e.Timestamp.Format("15:04:05"), e.UID, e.Dispositivo)
	}
	return fmt.Sprintf("[%s] 🔘 BTN (%s)", e.Timestamp.Format("15:04:05"), e.Dispositivo)
}

// NewTagEvent crea un evento de tarjeta con el UID ya normalizado
func NewTagEvent(uid, dispositivo string) (PanelEvent, error) {
	norm, err := NormalizeUID(uid)
	if err != nil {
		return PanelEvent{}, err
	}
	return PanelEvent{Timestamp: time.Now(), Type: PanelEventTag, UID: norm, Dispositivo: dispositivo}, nil
}

// NewButtonEvent crea un evento de pulsación
func NewButtonEvent(dispositivo string) PanelEvent {
	return PanelEvent{Timestamp: time.Now(), Type: PanelEventButton, Dispositivo: dispositivo}
}

// NormalizeUID deja el UID como hex en minúsculas sin separadores.
// Acepta "DE:AD:BE:EF", "de-ad-be-ef", "DE AD BE EF" o "deadbeef".
func NormalizeUID(raw string) (string, error) {
	clean := strings.NewReplacer(":", "", "-", "", " ", "").Replace(strings.TrimSpace(raw))
	if clean == "" {
		return "", fmt.Errorf("uid vacío")
	}
	b, err := hex.DecodeString(clean)
	if err != nil {
		return "", fmt.Errorf("uid inválido '%s': %w", raw, err)
	}
	return UIDFromBytes(b), nil
}

// UIDFromBytes formatea los bytes del lector como %02x concatenado
func UIDFromBytes(b []byte) string {
	var sb strings.Builder
	for _, v := range b {
		fmt.Fprintf(&sb, "%02x", v)
	}
	return sb.String()
}
