package listeners

import (
	"log"
	"sync"
)

// DisplaySink muestra mensajes de dos líneas
type DisplaySink interface {
	Show(line1, line2 string)
}

// LogDisplay escribe la pantalla en el log, sin repetir el mismo mensaje seguido
type LogDisplay struct {
	mu         sync.Mutex
	last1      string
	last2      string
	hasPrinted bool
}

// NewLogDisplay crea la pantalla de log
func NewLogDisplay() *LogDisplay {
	return &LogDisplay{}
}

// Show implementa DisplaySink
func (d *LogDisplay) Show(line1, line2 string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.hasPrinted && line1 == d.last1 && line2 == d.last2 {
		return
	}
	d.last1, d.last2, d.hasPrinted = line1, line2, true
	log.Printf("🖥️  [LCD] %-16s | %-16s", line1, line2)
}

// MultiDisplay reparte cada mensaje a varias pantallas
type MultiDisplay []DisplaySink

// Show implementa DisplaySink
func (m MultiDisplay) Show(line1, line2 string) {
	for _, d := range m {
		if d != nil {
			d.Show(line1, line2)
		}
	}
}
