package models

import "time"

// JournalKind distingue los tipos de registro que se guardan en el diario
type JournalKind string

const (
	JournalLogin   JournalKind = "LOGIN"
	JournalLogout  JournalKind = "LOGOUT"
	JournalRecycle JournalKind = "RECYCLE"
)

// JournalEntry es un registro de auditoría del kiosko (solo escritura)
type JournalEntry struct {
	ID        string      `json:"id"`
	Kind      JournalKind `json:"kind"`
	BinID     int         `json:"bin_id"`
	UID       string      `json:"uid"`
	Username  string      `json:"username,omitempty"`
	QR        string      `json:"qr,omitempty"`
	Peso      int         `json:"peso,omitempty"`
	Color     ColorCode   `json:"color,omitempty"`
	Tipo      string      `json:"tipo,omitempty"`   // Tipo de residuo según color
	Puntos    int         `json:"puntos,omitempty"` // Puntos estimados
	Timestamp time.Time   `json:"timestamp"`
}
