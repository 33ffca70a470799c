package models

import (
	"fmt"
	"time"
)

// Session representa al usuario autenticado en el kiosko.
// ActiveUID y Username solo tienen sentido mientras Authorized == true.
type Session struct {
	Authorized bool   `json:"authorized"`
	ActiveUID  string `json:"active_uid,omitempty"`
	Username   string `json:"username,omitempty"`
}

// WorkflowStep es el paso actual del flujo de reciclaje (contador 0..3)
type WorkflowStep int

const (
	StepAwaitingQR WorkflowStep = iota
	StepAwaitingWeight
	StepAwaitingColor
	StepAwaitingRecycle
)

func (s WorkflowStep) String() string {
	switch s {
	case StepAwaitingQR:
		return "AWAITING_QR"
	case StepAwaitingWeight:
		return "AWAITING_WEIGHT"
	case StepAwaitingColor:
		return "AWAITING_COLOR"
	case StepAwaitingRecycle:
		return "AWAITING_RECYCLE"
	default:
		return fmt.Sprintf("STEP_%d", int(s))
	}
}

// MarshalText permite que el paso se serialice con su nombre en JSON
func (s WorkflowStep) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// BagRecord es el registro que se va armando para la bolsa en curso
type BagRecord struct {
	QR     string    `json:"qr"`
	Weight int       `json:"peso"`
	Color  ColorCode `json:"color"`
}

// Clear deja el registro en su estado inicial
func (b *BagRecord) Clear() {
	b.QR = ""
	b.Weight = 0
	b.Color = DefaultColor
}

// RecyclePayload es el mensaje publicado en proyecto/micro/puntos
type RecyclePayload struct {
	User  string `json:"user"`
	QR    string `json:"qr"`
	Peso  int    `json:"peso"`
	Color string `json:"color"`
	ID    int    `json:"id"`
}

// TagOutcome es el resultado de procesar una tarjeta RFID
type TagOutcome int

const (
	TagLogin TagOutcome = iota
	TagLogout
	TagSessionConflict
	TagAuthDenied
)

func (o TagOutcome) String() string {
	switch o {
	case TagLogin:
		return "LOGIN"
	case TagLogout:
		return "LOGOUT"
	case TagSessionConflict:
		return "SESSION_CONFLICT"
	case TagAuthDenied:
		return "AUTH_DENIED"
	default:
		return "UNKNOWN"
	}
}

// KioskStatus es una foto inmutable del estado del kiosko para lectores externos
type KioskStatus struct {
	BinID        int          `json:"bin_id"`
	Session      Session      `json:"session"`
	Step         WorkflowStep `json:"step"`
	Record       BagRecord    `json:"record"`
	LiveWeight   int          `json:"live_weight"`
	LiveColor    ColorCode    `json:"live_color"`
	MotorActive  bool         `json:"motor_active"`
	DisplayLine1 string       `json:"display_line1"`
	DisplayLine2 string       `json:"display_line2"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
