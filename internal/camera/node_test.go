package camera

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads []string
	fail     bool
}

func (p *fakePublisher) Publish(topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("mqtt no conectado")
	}
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, string(payload))
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}

type failingCapturer struct{}

func (failingCapturer) Capture(context.Context, *Frame) error {
	return errors.New("sensor sin respuesta")
}

func testOptions() NodeOptions {
	return NodeOptions{
		Mode:              ModeDetection,
		Topic:             "proyecto/micro/colores",
		QueueCapacity:     5,
		EnqueueTimeout:    5 * time.Millisecond,
		DequeueTimeout:    5 * time.Millisecond,
		InferenceInterval: 5 * time.Millisecond,
		RetryDelay:        5 * time.Millisecond,
		PublishIdle:       time.Millisecond,
		Width:             4,
		Height:            4,
		ColorFilter:       true,
	}
}

func TestNodeQueueDropsNewestWhenFull(t *testing.T) {
	pub := &fakePublisher{}
	opts := testOptions()
	opts.Width = 0 // sin inferencia: sólo la tarea de publicación
	n := NewNode(opts, NewPatternCapturer(), HueClassifier{}, pub)

	for i := 1; i <= 6; i++ {
		ok := n.Enqueue([]byte{byte('0' + i)})
		assert.Equal(t, i <= 5, ok, "payload %d", i)
	}
	assert.Equal(t, uint64(1), n.Stats().Queue.Dropped)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()

	require.Eventually(t, func() bool { return pub.count() == 5 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, ErrSnapshotBuffer)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, pub.payloads, "se descarta el más nuevo, no uno ya encolado")
}

func TestNodeSnapshotFailureKeepsPublishing(t *testing.T) {
	pub := &fakePublisher{}
	opts := testOptions()
	opts.Height = -1
	n := NewNode(opts, NewPatternCapturer(), HueClassifier{}, pub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	assert.False(t, n.Stats().InferenceAlive)
	assert.True(t, n.Enqueue([]byte(`{"color":"azul"}`)))
	require.Eventually(t, func() bool { return pub.count() == 1 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, ErrSnapshotBuffer)
	assert.Equal(t, uint64(0), n.Stats().Inferences)
}

func TestNodePublishesDetectedColors(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNode(testOptions(), NewPatternCapturer(), HueClassifier{}, pub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()

	require.Eventually(t, func() bool { return pub.count() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Equal(t, `{"color":"azul"}`, pub.payloads[0])
	assert.Equal(t, `{"color":"gris"}`, pub.payloads[1])
	assert.Equal(t, `{"color":"rosa"}`, pub.payloads[2])
	assert.Equal(t, "proyecto/micro/colores", pub.topics[0])
}

func TestNodeClassificationMode(t *testing.T) {
	pub := &fakePublisher{}
	opts := testOptions()
	opts.Mode = ModeClassification
	n := NewNode(opts, NewPatternCapturer([3]uint8{30, 60, 200}), HueClassifier{}, pub)

	f, err := NewFrameBuffer(opts.Width, opts.Height)
	require.NoError(t, err)
	require.NoError(t, n.inferOnce(context.Background(), f))

	payload, ok := n.queue.Poll(0)
	require.True(t, ok)
	assert.Equal(t, `{"azul":1.00000, "gris":0.00000, "rosa":0.00000}`, string(payload))
}

func TestNodeCaptureErrorsAreRetried(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNode(testOptions(), failingCapturer{}, HueClassifier{}, pub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()

	require.Eventually(t, func() bool { return n.Stats().CaptureErrors >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, n.Stats().InferenceAlive)
	cancel()
	require.NoError(t, <-done)
	assert.Zero(t, pub.count())
}

func TestNodePublishErrorsAreCounted(t *testing.T) {
	pub := &fakePublisher{fail: true}
	opts := testOptions()
	opts.Width = 0
	n := NewNode(opts, NewPatternCapturer(), HueClassifier{}, pub)
	n.Enqueue([]byte(`{"color":"gris"}`))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()

	require.Eventually(t, func() bool { return n.Stats().PublishErrors == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, uint64(0), n.Stats().Published)
}
