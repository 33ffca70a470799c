package camera

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"ecobins-kiosk/internal/shared"
)

// Publisher publica un payload en un tópico MQTT
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// NodeOptions configura el nodo de cámara
type NodeOptions struct {
	Mode              string
	Topic             string
	QueueCapacity     int
	EnqueueTimeout    time.Duration
	DequeueTimeout    time.Duration
	InferenceInterval time.Duration
	RetryDelay        time.Duration
	PublishIdle       time.Duration
	Width             int
	Height            int
	ColorFilter       bool
}

// NodeStats contiene contadores del nodo
type NodeStats struct {
	Queue          shared.QueueStats `json:"queue"`
	Inferences     uint64            `json:"inferences"`
	Empty          uint64            `json:"empty"`
	CaptureErrors  uint64            `json:"capture_errors"`
	ClassifyErrors uint64            `json:"classify_errors"`
	Published      uint64            `json:"published"`
	PublishErrors  uint64            `json:"publish_errors"`
	InferenceAlive bool              `json:"inference_alive"`
}

// Node une la tarea de inferencia y la de publicación con una cola acotada.
// Si la cola está llena el payload nuevo se descarta.
type Node struct {
	opts       NodeOptions
	capturer   Capturer
	classifier Classifier
	publisher  Publisher
	queue      *shared.Queue[[]byte]

	inferences     atomic.Uint64
	empty          atomic.Uint64
	captureErrors  atomic.Uint64
	classifyErrors atomic.Uint64
	published      atomic.Uint64
	publishErrors  atomic.Uint64
	inferenceAlive atomic.Bool
}

// NewNode crea el nodo completando los tiempos que falten
func NewNode(opts NodeOptions, capturer Capturer, classifier Classifier, publisher Publisher) *Node {
	if opts.Mode == "" {
		opts.Mode = ModeDetection
	}
	if opts.QueueCapacity < 1 {
		opts.QueueCapacity = 5
	}
	if opts.EnqueueTimeout <= 0 {
		opts.EnqueueTimeout = 100 * time.Millisecond
	}
	if opts.DequeueTimeout <= 0 {
		opts.DequeueTimeout = 100 * time.Millisecond
	}
	if opts.InferenceInterval <= 0 {
		opts.InferenceInterval = 200 * time.Millisecond
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 200 * time.Millisecond
	}
	if opts.PublishIdle <= 0 {
		opts.PublishIdle = 10 * time.Millisecond
	}

	return &Node{
		opts:       opts,
		capturer:   capturer,
		classifier: classifier,
		publisher:  publisher,
		queue:      shared.NewQueue[[]byte]("payloads", opts.QueueCapacity),
	}
}

// Enqueue ofrece un payload a la tarea de publicación
func (n *Node) Enqueue(payload []byte) bool {
	return n.queue.Offer(payload, n.opts.EnqueueTimeout)
}

// Stats retorna los contadores actuales
func (n *Node) Stats() NodeStats {
	return NodeStats{
		Queue:          n.queue.Stats(),
		Inferences:     n.inferences.Load(),
		Empty:          n.empty.Load(),
		CaptureErrors:  n.captureErrors.Load(),
		ClassifyErrors: n.classifyErrors.Load(),
		Published:      n.published.Load(),
		PublishErrors:  n.publishErrors.Load(),
		InferenceAlive: n.inferenceAlive.Load(),
	}
}

// Run ejecuta ambas tareas hasta que se cancele ctx.
// Si no se puede reservar el buffer del snapshot la inferencia no arranca,
// la publicación sigue y Run retorna ErrSnapshotBuffer al terminar.
func (n *Node) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		n.publishLoop(ctx)
	}()

	err := n.inferenceLoop(ctx)
	if err != nil {
		log.Printf("❌ [Camara] Tarea de inferencia detenida: %v", err)
		<-ctx.Done()
	}

	wg.Wait()
	return err
}

func (n *Node) inferenceLoop(ctx context.Context) error {
	frame, err := NewFrameBuffer(n.opts.Width, n.opts.Height)
	if err != nil {
		return err
	}

	n.inferenceAlive.Store(true)
	defer n.inferenceAlive.Store(false)
	log.Printf("🔄 [Camara] Tarea de inferencia iniciada (%dx%d, modo %s)", frame.Width, frame.Height, n.opts.Mode)

	for {
		wait := n.opts.InferenceInterval
		if err := n.inferOnce(ctx, frame); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			log.Printf("⚠️  [Camara] %v (reintento en %v)", err, n.opts.RetryDelay)
			wait = n.opts.RetryDelay
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

// inferOnce captura, clasifica y encola el resultado de un frame
func (n *Node) inferOnce(ctx context.Context, frame *Frame) error {
	if err := n.capturer.Capture(ctx, frame); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n.captureErrors.Add(1)
		return err
	}

	if n.opts.ColorFilter {
		ApplyColorFilter(frame)
	}

	res, err := n.classifier.Classify(ctx, frame)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n.classifyErrors.Add(1)
		return err
	}
	n.inferences.Add(1)

	payload, ok := BuildPayload(n.opts.Mode, res)
	if !ok {
		n.empty.Add(1)
		return nil
	}

	if n.Enqueue(payload) {
		log.Printf("📤 [Camara] Payload encolado (frame %d): %s", frame.Seq, payload)
	}
	return nil
}

func (n *Node) publishLoop(ctx context.Context) {
	log.Printf("🔄 [Camara] Tarea de publicación iniciada (tópico %s)", n.opts.Topic)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if payload, ok := n.queue.Poll(n.opts.DequeueTimeout); ok {
			if err := n.publisher.Publish(n.opts.Topic, payload); err != nil {
				n.publishErrors.Add(1)
				log.Printf("❌ [Camara] Error publicando en MQTT: %v", err)
			} else {
				n.published.Add(1)
				log.Printf("📡 [Camara] Publicado en %s: %s", n.opts.Topic, payload)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(n.opts.PublishIdle):
		}
	}
}
