package backendsim

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecobins-kiosk/internal/communication/backend"
	"ecobins-kiosk/internal/db"
	"ecobins-kiosk/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(carga float64) (*Server, *MemoryStore) {
	store := NewMemoryStore(
		map[string]string{"ABC123": "Ana"},
		models.Contenedor{ID: 1, CapacidadMaxima: 100, CargaActual: carga},
	)
	return NewServer(store, 1), store
}

func get(t *testing.T, h http.Handler, path string) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHealthByUID(t *testing.T) {
	s, _ := newTestServer(0)
	r := s.Router()

	code, body := get(t, r, "/health/abc123")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["authorized"])
	assert.Equal(t, "Ana", body["user"].(map[string]any)["nombre"])

	_, body = get(t, r, "/health/ffff")
	assert.Equal(t, false, body["authorized"])

	code, body = get(t, r, "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestCapacityThresholds(t *testing.T) {
	tests := []struct {
		carga   float64
		lleno   bool
		bloqueo float64
	}{
		{10, false, 0},
		{75, true, 0},
		{89.9, true, 0},
		{90, true, 1},
	}

	for _, tt := range tests {
		s, _ := newTestServer(tt.carga)
		code, body := get(t, s.Router(), "/capacity/")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, tt.lleno, body["lleno"], "carga %.1f", tt.carga)
		assert.Equal(t, tt.bloqueo, body["bloqueo"], "carga %.1f", tt.carga)
	}
}

func TestCapacityUnknownContainer(t *testing.T) {
	store := NewMemoryStore(nil)
	code, _ := get(t, NewServer(store, 7).Router(), "/capacity/")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHandleRecycleAddsLoad(t *testing.T) {
	s, store := newTestServer(85)
	ctx := context.Background()

	payload := `{"user":"abc123","qr":"XYZ","peso":6,"color":"Azul","id":1}`
	require.NoError(t, s.HandleRecycle(ctx, []byte(payload)))

	c, err := store.GetContenedor(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 91.0, c.CargaActual)
	assert.True(t, c.Bloqueado())

	assert.Error(t, s.HandleRecycle(ctx, []byte(`no-json`)))
	assert.Error(t, s.HandleRecycle(ctx, []byte(`{"peso":-1,"id":1}`)))
	assert.ErrorIs(t, s.HandleRecycle(ctx, []byte(`{"peso":1,"id":9}`)), db.ErrNotFound)
}

func TestHandleSensorsTemperatureBlock(t *testing.T) {
	s, _ := newTestServer(0)
	r := s.Router()

	s.HandleSensors([]byte(`{"temperatura": 41.5}`))
	_, body := get(t, r, "/capacity/")
	assert.Equal(t, 1.0, body["bloqueo"])

	s.HandleSensors([]byte(`{"peso": 3}`))
	_, body = get(t, r, "/capacity/")
	assert.Equal(t, 1.0, body["bloqueo"], "sin temperatura no cambia el bloqueo")

	s.HandleSensors([]byte(`{"temperatura": 25}`))
	_, body = get(t, r, "/capacity/")
	assert.Equal(t, 0.0, body["bloqueo"])
}

// El cliente del kiosko contra el simulador real
func TestKioskClientAgainstSimulator(t *testing.T) {
	s, _ := newTestServer(0)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	client := backend.NewClient(srv.URL, time.Second)
	ctx := context.Background()

	res, err := client.CheckTag(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, res.Authorized)
	assert.Equal(t, "Ana", res.User.Nombre)

	assert.True(t, client.OpenAllowed(ctx))

	require.NoError(t, s.HandleRecycle(ctx, []byte(`{"user":"abc123","qr":"Q","peso":95,"color":"Gris","id":1}`)))
	assert.False(t, client.OpenAllowed(ctx))
}
