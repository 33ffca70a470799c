package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client es el cliente HTTP para la API de EcoBins (autorización y capacidad)
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient crea una nueva instancia del cliente de la API
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// BaseURL retorna la URL base configurada
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CheckTag consulta si la tarjeta está autorizada (GET /health/<uid>).
// Cualquier error de transporte, estado o formato se retorna como error;
// el llamador debe tratarlo como acceso denegado.
func (c *Client) CheckTag(ctx context.Context, uid string) (*AuthResult, error) {
	endpoint := EndpointHealth + "/" + url.PathEscape(uid)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var result AuthResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v (respuesta: %s)", ErrRespuestaMalformada, err, string(body))
	}

	return &result, nil
}

// GetCapacity consulta el estado de capacidad del tacho (GET /capacity/)
func (c *Client) GetCapacity(ctx context.Context) (*CapacityStatus, error) {
	body, err := c.get(ctx, EndpointCapacity)
	if err != nil {
		return nil, err
	}

	var raw capacityResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v (respuesta: %s)", ErrRespuestaMalformada, err, string(body))
	}

	if len(raw.Bloqueo) == 0 || string(raw.Bloqueo) == "null" {
		return nil, ErrBloqueoAusente
	}

	bloqueado, err := parseBloqueo(raw.Bloqueo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRespuestaMalformada, err)
	}

	return &CapacityStatus{
		Bloqueado:   bloqueado,
		Lleno:       raw.Lleno,
		CargaActual: raw.CargaActual,
		Capacidad:   raw.CapacidadMaxima,
	}, nil
}

// OpenAllowed indica si se puede abrir el tacho. Falla cerrado: cualquier
// error (red, estado HTTP, JSON, campo ausente) retorna false. Sin reintentos ni caché.
func (c *Client) OpenAllowed(ctx context.Context) bool {
	status, err := c.GetCapacity(ctx)
	if err != nil {
		return false
	}
	return !status.Bloqueado
}

// Ping verifica la conectividad con la API (GET /health)
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, EndpointHealth)
	return err
}

// Close cierra las conexiones del cliente
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("error creando request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error ejecutando request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error leyendo respuesta: %w", err)
	}

	// Manejar códigos de estado
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil

	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNoEncontrado

	case resp.StatusCode == http.StatusInternalServerError:
		return nil, ErrServidorInterno

	default:
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   endpoint,
			Timestamp:  time.Now(),
		}
	}
}

// parseBloqueo acepta 0/1 o false/true
func parseBloqueo(raw json.RawMessage) (bool, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return false, fmt.Errorf("bloqueo con tipo inesperado: %s", string(raw))
	}
	return n != 0, nil
}
