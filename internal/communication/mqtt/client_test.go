package mqtt

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func TestOnMessageForwardsToHandler(t *testing.T) {
	var gotTopic string
	var gotPayload []byte

	c := NewClient(Options{
		Broker:   "tcp://127.0.0.1:1",
		ClientID: "test",
		Handler: func(topic string, payload []byte) {
			gotTopic = topic
			gotPayload = payload
		},
	})

	c.onMessage(nil, fakeMessage{topic: "proyecto/micro/qr", payload: []byte("ABC123")})

	assert.Equal(t, "proyecto/micro/qr", gotTopic)
	assert.Equal(t, []byte("ABC123"), gotPayload)
	assert.Equal(t, uint64(1), c.Stats().Received)
}

func TestPublishWithoutConnection(t *testing.T) {
	c := NewClient(Options{Broker: "tcp://127.0.0.1:1", ClientID: "test"})

	err := c.Publish("acceso/usuario", []byte("LOGIN"))
	assert.ErrorIs(t, err, ErrNotConnected)

	err = c.PublishJSON("proyecto/micro/puntos", map[string]int{"id": 1})
	assert.ErrorIs(t, err, ErrNotConnected)

	stats := c.Stats()
	assert.False(t, stats.Connected)
	assert.Equal(t, uint64(2), stats.Errors)
}

func TestConnectHonorsContext(t *testing.T) {
	c := NewClient(Options{
		Broker:            "tcp://127.0.0.1:1",
		ClientID:          "test",
		ReconnectInterval: 20 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := c.Connect(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRandomClientID(t *testing.T) {
	id := RandomClientID("ESP32Client-")
	assert.Regexp(t, regexp.MustCompile(`^ESP32Client-[0-9a-f]{8}$`), id)
	assert.NotEqual(t, id, RandomClientID("ESP32Client-"))
}
