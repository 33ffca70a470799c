package backend

import (
	"encoding/json"
	"time"
)

// AuthResult es la respuesta de GET /health/<uid>
type AuthResult struct {
	Authorized bool     `json:"authorized"`
	User       UserInfo `json:"user"`
}

// UserInfo contiene los datos del usuario dueño de la tarjeta
type UserInfo struct {
	Nombre string `json:"nombre"`
}

// CapacityStatus es el estado de capacidad del contenedor
type CapacityStatus struct {
	Bloqueado   bool    // true = no se permite abrir
	Lleno       bool    // >= 75% de la capacidad
	CargaActual float64 // kg acumulados
	Capacidad   float64 // kg máximos
}

// capacityResponse es el JSON crudo de /capacity/ (bloqueo puede venir como int o bool)
type capacityResponse struct {
	Bloqueo         json.RawMessage `json:"bloqueo"`
	Lleno           bool            `json:"lleno"`
	CargaActual     float64         `json:"carga_actual"`
	CapacidadMaxima float64         `json:"capacidad_maxima"`
}

// APIError representa un error devuelto por la API de EcoBins
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
	Timestamp  time.Time
}

func (e *APIError) Error() string {
	return e.Message
}

// Errores conocidos de la API
var (
	ErrNoEncontrado        = &APIError{StatusCode: 404, Message: "Recurso no encontrado"}
	ErrServidorInterno     = &APIError{StatusCode: 500, Message: "Error interno del servidor"}
	ErrRespuestaMalformada = &APIError{StatusCode: 200, Message: "Respuesta con formato inesperado"}
	ErrBloqueoAusente      = &APIError{StatusCode: 200, Message: "La respuesta de capacidad no incluye el campo bloqueo"}
)
