package camera

import (
	"errors"
	"fmt"
	"time"
)

// Bytes por pixel de un frame RGB888
const BytesPerPixel = 3

// ErrSnapshotBuffer indica que no se pudo reservar el buffer del snapshot.
// Es el único error fatal del nodo: la tarea de inferencia se detiene.
var ErrSnapshotBuffer = errors.New("camara: no se pudo asignar el buffer del snapshot")

// Frame es una imagen RGB888 empaquetada (R, G, B por pixel, fila por fila)
type Frame struct {
	Data      []byte
	Width     int
	Height    int
	Seq       uint64
	Timestamp time.Time
}

// NewFrameBuffer reserva un frame de las dimensiones indicadas
func NewFrameBuffer(width, height int) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: dimensiones %dx%d", ErrSnapshotBuffer, width, height)
	}
	size := width * height * BytesPerPixel
	if size/BytesPerPixel/height != width {
		return nil, fmt.Errorf("%w: dimensiones %dx%d fuera de rango", ErrSnapshotBuffer, width, height)
	}
	return &Frame{
		Data:   make([]byte, size),
		Width:  width,
		Height: height,
	}, nil
}

// Pixels retorna la cantidad de pixeles del frame
func (f *Frame) Pixels() int {
	return f.Width * f.Height
}

// At retorna el pixel (x, y)
func (f *Frame) At(x, y int) (r, g, b uint8) {
	i := (y*f.Width + x) * BytesPerPixel
	return f.Data[i], f.Data[i+1], f.Data[i+2]
}

// Set escribe el pixel (x, y)
func (f *Frame) Set(x, y int, r, g, b uint8) {
	i := (y*f.Width + x) * BytesPerPixel
	f.Data[i], f.Data[i+1], f.Data[i+2] = r, g, b
}
