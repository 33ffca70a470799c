package shared

import (
	"log"
	"sync/atomic"
	"time"
)

// Queue es una cola FIFO acotada compartida entre goroutines.
// Cuando está llena, Offer descarta el elemento nuevo (nunca uno ya encolado).
type Queue[T any] struct {
	name    string
	ch      chan T
	offered atomic.Uint64
	dropped atomic.Uint64
	polled  atomic.Uint64
}

// QueueStats contiene contadores de una cola
type QueueStats struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	Length   int    `json:"length"`
	Offered  uint64 `json:"offered"`
	Dropped  uint64 `json:"dropped"`
	Polled   uint64 `json:"polled"`
}

// NewQueue crea una cola con la capacidad indicada (mínimo 1)
func NewQueue[T any](name string, capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue[T]{
		name: name,
		ch:   make(chan T, capacity),
	}
}

// Offer intenta encolar v esperando como máximo wait.
// Con wait <= 0 no bloquea. Retorna false si el elemento fue descartado.
func (q *Queue[T]) Offer(v T, wait time.Duration) bool {
	q.offered.Add(1)

	select {
	case q.ch <- v:
		return true
	default:
	}

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case q.ch <- v:
			return true
		case <-timer.C:
		}
	}

	q.dropped.Add(1)
	log.Printf("⚠️  Cola %s llena (%d/%d), elemento descartado", q.name, len(q.ch), cap(q.ch))
	return false
}

// Poll desencola esperando como máximo wait. Con wait <= 0 no bloquea.
func (q *Queue[T]) Poll(wait time.Duration) (T, bool) {
	select {
	case v := <-q.ch:
		q.polled.Add(1)
		return v, true
	default:
	}

	var zero T
	if wait <= 0 {
		return zero, false
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case v := <-q.ch:
		q.polled.Add(1)
		return v, true
	case <-timer.C:
		return zero, false
	}
}

// Len retorna la cantidad de elementos encolados
func (q *Queue[T]) Len() int { return len(q.ch) }

// Cap retorna la capacidad de la cola
func (q *Queue[T]) Cap() int { return cap(q.ch) }

// Stats retorna una copia de los contadores
func (q *Queue[T]) Stats() QueueStats {
	return QueueStats{
		Name:     q.name,
		Capacity: cap(q.ch),
		Length:   len(q.ch),
		Offered:  q.offered.Load(),
		Dropped:  q.dropped.Load(),
		Polled:   q.polled.Load(),
	}
}
