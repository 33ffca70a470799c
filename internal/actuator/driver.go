package actuator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"ecobins-kiosk/internal/models"
)

// ErrInvalidColorCode se retorna para códigos fuera de {1,2,3}
var ErrInvalidColorCode = errors.New("código de color inválido")

// Driver codifica un color de 2 bits sobre las líneas del motor.
// Bit 1 (MSB) va a la línea A y bit 0 (LSB) a la línea B; un bit en 1 pone la línea en LOW.
type Driver struct {
	lines Lines
	hold  time.Duration
	sleep func(time.Duration)

	mu sync.Mutex
}

// NewDriver crea el driver. hold es el tiempo que se mantiene el código.
func NewDriver(lines Lines, hold time.Duration) *Driver {
	return &Driver{lines: lines, hold: hold, sleep: time.Sleep}
}

// SetSleep reemplaza la espera del pulso (pruebas)
func (d *Driver) SetSleep(sleep func(time.Duration)) {
	d.sleep = sleep
}

// Encode retorna los niveles de las líneas A y B para un código
func Encode(code models.ColorCode) (Level, Level, error) {
	if !code.Valid() {
		return High, High, fmt.Errorf("%w: %d", ErrInvalidColorCode, int(code))
	}
	msb := (int(code) >> 1) & 1
	lsb := int(code) & 1
	return bitLevel(msb), bitLevel(lsb), nil
}

func bitLevel(bit int) Level {
	if bit == 1 {
		return Low
	}
	return High
}

// Pulse pone el código en las líneas, lo mantiene y vuelve a reposo.
// Bloquea durante todo el pulso.
func (d *Driver) Pulse(ctx context.Context, code models.ColorCode) error {
	a, b, err := Encode(code)
	if err != nil {
		_ = d.Idle(ctx)
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	log.Printf("⚙️  Pulso de color %s (%d) → A=%s B=%s durante %v", code, int(code), a, b, d.hold)

	if err := d.lines.Set(ctx, a, b); err != nil {
		d.restore(ctx)
		return fmt.Errorf("error aplicando pulso: %w", err)
	}

	d.sleep(d.hold)

	if err := d.lines.Set(ctx, High, High); err != nil {
		return fmt.Errorf("error volviendo a reposo: %w", err)
	}
	return nil
}

// Idle fuerza ambas líneas a HIGH
func (d *Driver) Idle(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.lines.Set(ctx, High, High); err != nil {
		return fmt.Errorf("error forzando reposo: %w", err)
	}
	return nil
}

func (d *Driver) restore(ctx context.Context) {
	if err := d.lines.Set(ctx, High, High); err != nil {
		log.Printf("❌ No se pudo volver las líneas a reposo: %v", err)
	}
}
