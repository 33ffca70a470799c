package listeners

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorResponse representa la estructura estándar de errores
type ErrorResponse struct {
	Success   bool        `json:"success"`
	Error     ErrorDetail `json:"error"`
	Timestamp string      `json:"timestamp"`
	Path      string      `json:"path"`
	Method    string      `json:"method"`
}

// ErrorDetail contiene los detalles del error
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Hint    string      `json:"hint,omitempty"`
}

// SuccessResponse representa la estructura estándar de respuestas exitosas
type SuccessResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data"`
	Message   string      `json:"message,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// Códigos de error estandarizados
const (
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeNotFound   = "NOT_FOUND"

	ErrCodeInvalidUID = "INVALID_UID"
	ErrCodeQueueFull  = "QUEUE_FULL"
)

// RespondWithError envía una respuesta de error estandarizada
func RespondWithError(c *gin.Context, statusCode int, errorCode, message string, details interface{}, hint string) {
	c.JSON(statusCode, ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Message: message,
			Code:    errorCode,
			Details: details,
			Hint:    hint,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      c.Request.URL.Path,
		Method:    c.Request.Method,
	})
}

// RespondWithSuccess envía una respuesta exitosa estandarizada
func RespondWithSuccess(c *gin.Context, statusCode int, data interface{}, message string) {
	c.JSON(statusCode, SuccessResponse{
		Success:   true,
		Data:      data,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// BadRequest - Error 400
func BadRequest(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, ErrCodeBadRequest, message, details,
		"Verifica que los parámetros de la solicitud sean correctos")
}

// InvalidUID - la tarjeta no es hex válido
func InvalidUID(c *gin.Context, uid string, err error) {
	RespondWithError(c, http.StatusBadRequest, ErrCodeInvalidUID,
		"UID de tarjeta inválido",
		gin.H{
			"uid":    uid,
			"reason": err.Error(),
		},
		"El UID debe ser hexadecimal, con o sin separadores (ej: DE:AD:BE:EF)")
}

// QueueFull - el evento fue descartado porque la cola del kiosko está llena
func QueueFull(c *gin.Context, queue string) {
	RespondWithError(c, http.StatusServiceUnavailable, ErrCodeQueueFull,
		"Evento descartado",
		gin.H{"queue": queue},
		"El kiosko está ocupado, reintenta en unos segundos")
}

// Success - Respuesta exitosa genérica
func Success(c *gin.Context, data interface{}, message string) {
	RespondWithSuccess(c, http.StatusOK, data, message)
}

// Accepted - evento encolado (202)
func Accepted(c *gin.Context, data interface{}, message string) {
	RespondWithSuccess(c, http.StatusAccepted, data, message)
}
