package actuator

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Level es el nivel lógico de una línea de control del motor
type Level bool

const (
	Low  Level = false // activa
	High Level = true  // reposo
)

func (l Level) String() string {
	if l == High {
		return "HIGH"
	}
	return "LOW"
}

// Lines abstrae las dos líneas digitales (activas en bajo) hacia el motor del tacho
type Lines interface {
	Set(ctx context.Context, a, b Level) error
}

// Transition registra un cambio de nivel aplicado a las líneas
type Transition struct {
	A  Level
	B  Level
	At time.Time
}

// MemoryLines guarda los niveles en memoria (simulación y pruebas)
type MemoryLines struct {
	mu          sync.Mutex
	a, b        Level
	transitions []Transition
}

// NewMemoryLines crea las líneas en reposo (ambas HIGH)
func NewMemoryLines() *MemoryLines {
	return &MemoryLines{a: High, b: High}
}

func (m *MemoryLines) Set(_ context.Context, a, b Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.a, m.b = a, b
	m.transitions = append(m.transitions, Transition{A: a, B: b, At: time.Now()})
	return nil
}

// Levels retorna los niveles actuales
func (m *MemoryLines) Levels() (Level, Level) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.a, m.b
}

// Transitions retorna una copia del historial de cambios
func (m *MemoryLines) Transitions() []Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Transition, len(m.transitions))
	copy(out, m.transitions)
	return out
}

// NodeWriter escribe valores en nodos OPC UA
type NodeWriter interface {
	WriteNode(ctx context.Context, nodeID string, value interface{}) error
}

// OPCUALines escribe el nivel de cada línea como bool en un nodo del PLC.
// true = HIGH (reposo), false = LOW (activa).
type OPCUALines struct {
	writer    NodeWriter
	lineANode string
	lineBNode string
}

// NewOPCUALines crea las líneas sobre un cliente OPC UA ya conectado
func NewOPCUALines(writer NodeWriter, lineANode, lineBNode string) *OPCUALines {
	return &OPCUALines{writer: writer, lineANode: lineANode, lineBNode: lineBNode}
}

func (o *OPCUALines) Set(ctx context.Context, a, b Level) error {
	if err := o.writer.WriteNode(ctx, o.lineANode, bool(a)); err != nil {
		return fmt.Errorf("línea A (%s): %w", o.lineANode, err)
	}
	if err := o.writer.WriteNode(ctx, o.lineBNode, bool(b)); err != nil {
		return fmt.Errorf("línea B (%s): %w", o.lineBNode, err)
	}
	return nil
}
