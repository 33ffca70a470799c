package listeners

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecobins-kiosk/internal/models"
)

func dialRoom(t *testing.T, srv *httptest.Server, room string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + room
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func waitClients(t *testing.T, hub *WebSocketHub, room string, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return hub.GetRoomStats()[room] == n
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHubBroadcastsDisplayAndStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewWebSocketHub(7)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	router := gin.New()
	SetupWebSocketRoutes(router, hub)
	srv := httptest.NewServer(router)
	defer srv.Close()

	display := dialRoom(t, srv, RoomDisplay)
	defer display.Close()
	status := dialRoom(t, srv, RoomStatus)
	defer status.Close()
	waitClients(t, hub, RoomDisplay, 1)
	waitClients(t, hub, RoomStatus, 1)

	hub.Show("Bienvenido", "Ana")
	hub.OnStatus(models.KioskStatus{BinID: 7, Step: models.StepAwaitingColor})

	display.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := display.ReadMessage()
	require.NoError(t, err)
	var msg struct {
		Type  string      `json:"type"`
		BinID int         `json:"bin_id"`
		Data  DisplayData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, "display", msg.Type)
	assert.Equal(t, 7, msg.BinID)
	assert.Equal(t, DisplayData{Line1: "Bienvenido", Line2: "Ana"}, msg.Data)

	status.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err = status.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"step":"AWAITING_COLOR"`)
}

func TestHubWithoutClientsDoesNotBlock(t *testing.T) {
	hub := NewWebSocketHub(1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			hub.Show("Esperando tarjeta", "")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Show bloqueó sin hub en ejecución")
	}
}

func TestMultiDisplayFansOut(t *testing.T) {
	a, b := &captureDisplay{}, &captureDisplay{}
	MultiDisplay{a, nil, b}.Show("Escanea QR", "")

	assert.Equal(t, []string{"Escanea QR|"}, a.lines)
	assert.Equal(t, []string{"Escanea QR|"}, b.lines)
}

type captureDisplay struct{ lines []string }

func (c *captureDisplay) Show(l1, l2 string) { c.lines = append(c.lines, l1+"|"+l2) }
