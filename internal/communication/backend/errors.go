package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// Error personalizado para categorizar errores de la API
type ErrorCategory int

const (
	ErrorCategoryConnection ErrorCategory = iota
	ErrorCategoryMalformed
	ErrorCategoryNotFound
	ErrorCategoryInternal
	ErrorCategoryUnknown
)

func (c ErrorCategory) String() string {
	switch c {
	case ErrorCategoryConnection:
		return "conexion"
	case ErrorCategoryMalformed:
		return "formato"
	case ErrorCategoryNotFound:
		return "no_encontrado"
	case ErrorCategoryInternal:
		return "interno"
	default:
		return "desconocido"
	}
}

// CategorizeError categoriza un error devuelto por el cliente
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryUnknown
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode >= 200 && apiErr.StatusCode < 300:
			// La API respondió pero el cuerpo no se pudo interpretar
			return ErrorCategoryMalformed
		case apiErr.StatusCode == http.StatusNotFound:
			return ErrorCategoryNotFound
		case apiErr.StatusCode >= http.StatusInternalServerError:
			return ErrorCategoryInternal
		default:
			return ErrorCategoryUnknown
		}
	}

	// Si no es un APIError, probablemente es un error de conexión
	return ErrorCategoryConnection
}

// IsRetryable determina si un error es reintentable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	switch CategorizeError(err) {
	case ErrorCategoryConnection, ErrorCategoryInternal:
		return true
	default:
		return false
	}
}

// FormatError formatea un error para logging
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && !apiErr.Timestamp.IsZero() {
		return fmt.Sprintf("[%d] %s (endpoint: %s, timestamp: %s)",
			apiErr.StatusCode,
			apiErr.Message,
			apiErr.Endpoint,
			apiErr.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}

	return err.Error()
}
