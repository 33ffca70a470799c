package flow

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"ecobins-kiosk/internal/models"
	"ecobins-kiosk/internal/shared"
)

// JournalStore persiste registros del diario
type JournalStore interface {
	InsertJournalEntry(ctx context.Context, e models.JournalEntry) error
}

// JournalStats contiene estadísticas del worker
type JournalStats struct {
	Queue   shared.QueueStats `json:"queue"`
	Written uint64            `json:"written"`
	Failed  uint64            `json:"failed"`
}

// JournalWorker escribe el diario del kiosko en segundo plano.
// Record nunca bloquea al controlador: si la cola está llena el registro se descarta.
type JournalWorker struct {
	ctx          context.Context
	cancel       context.CancelFunc
	store        JournalStore
	queue        *shared.Queue[models.JournalEntry]
	writeTimeout time.Duration
	wg           sync.WaitGroup

	written atomic.Uint64
	failed  atomic.Uint64
}

// NewJournalWorker crea el worker con una cola de la capacidad indicada
func NewJournalWorker(ctx context.Context, store JournalStore, capacity int) *JournalWorker {
	workerCtx, cancel := context.WithCancel(ctx)
	return &JournalWorker{
		ctx:          workerCtx,
		cancel:       cancel,
		store:        store,
		queue:        shared.NewQueue[models.JournalEntry]("journal", capacity),
		writeTimeout: 5 * time.Second,
	}
}

// Record encola un registro. Asigna ID si no lo trae.
func (w *JournalWorker) Record(e models.JournalEntry) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	w.queue.Offer(e, 0)
}

// Start inicia la goroutine de escritura
func (w *JournalWorker) Start() {
	w.wg.Add(1)
	go w.run()
	log.Printf("🔄 Journal Worker iniciado (cola: %d)", w.queue.Cap())
}

// Stop detiene el worker y escribe lo que quede en la cola
func (w *JournalWorker) Stop() {
	w.cancel()
	w.wg.Wait()
	log.Printf("🛑 Journal Worker detenido (escritos: %d, fallidos: %d)", w.written.Load(), w.failed.Load())
}

// Stats retorna estadísticas del worker
func (w *JournalWorker) Stats() JournalStats {
	return JournalStats{
		Queue:   w.queue.Stats(),
		Written: w.written.Load(),
		Failed:  w.failed.Load(),
	}
}

func (w *JournalWorker) run() {
	defer w.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ PANIC en Journal Worker: %v", r)
		}
	}()

	for {
		select {
		case <-w.ctx.Done():
			w.drain()
			return
		default:
		}

		e, ok := w.queue.Poll(100 * time.Millisecond)
		if !ok {
			continue
		}
		w.write(context.Background(), e)
	}
}

func (w *JournalWorker) drain() {
	for {
		e, ok := w.queue.Poll(0)
		if !ok {
			return
		}
		w.write(context.Background(), e)
	}
}

func (w *JournalWorker) write(parent context.Context, e models.JournalEntry) {
	ctx, cancel := context.WithTimeout(parent, w.writeTimeout)
	defer cancel()

	if err := w.store.InsertJournalEntry(ctx, e); err != nil {
		w.failed.Add(1)
		log.Printf("❌ Error guardando registro %s (%s): %v", e.ID, e.Kind, err)
		return
	}
	w.written.Add(1)
}
