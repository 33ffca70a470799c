package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrNoFrames se retorna cuando el directorio de frames no tiene imágenes
var ErrNoFrames = errors.New("camara: no hay frames disponibles")

// Capturer llena el frame con la próxima imagen de la fuente
type Capturer interface {
	Capture(ctx context.Context, dst *Frame) error
}

// FileCapturer reproduce en bucle los JPEG de un directorio
type FileCapturer struct {
	dir string

	mu    sync.Mutex
	files []string
	next  int
	seq   uint64
}

// NewFileCapturer lista los .jpg/.jpeg del directorio en orden alfabético
func NewFileCapturer(dir string) (*FileCapturer, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("camara: error leyendo directorio de frames %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".jpg" || ext == ".jpeg" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w en %s", ErrNoFrames, dir)
	}
	sort.Strings(files)

	return &FileCapturer{dir: dir, files: files}, nil
}

// Len retorna cuántos frames hay en la secuencia
func (c *FileCapturer) Len() int {
	return len(c.files)
}

func (c *FileCapturer) Capture(ctx context.Context, dst *Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	path := c.files[c.next]
	c.next = (c.next + 1) % len(c.files)
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("camara: error abriendo %s: %w", path, err)
	}
	defer f.Close()

	img, err := jpeg.Decode(f)
	if err != nil {
		return fmt.Errorf("camara: error decodificando %s: %w", filepath.Base(path), err)
	}

	toRGB888(img, dst)
	dst.Seq = seq
	dst.Timestamp = time.Now()
	return nil
}

// toRGB888 copia img al frame con escalado por vecino más cercano
func toRGB888(img image.Image, dst *Frame) {
	bounds := img.Bounds()
	sw, sh := bounds.Dx(), bounds.Dy()
	if sw == 0 || sh == 0 {
		return
	}

	for y := 0; y < dst.Height; y++ {
		sy := bounds.Min.Y + y*sh/dst.Height
		for x := 0; x < dst.Width; x++ {
			sx := bounds.Min.X + x*sw/dst.Width
			r, g, b, _ := img.At(sx, sy).RGBA()
			dst.Set(x, y, uint8(r>>8), uint8(g>>8), uint8(b>>8))
		}
	}
}

// PatternCapturer genera frames de color sólido rotando entre los colores dados.
// Sirve para probar el nodo sin cámara ni imágenes.
type PatternCapturer struct {
	mu     sync.Mutex
	colors [][3]uint8
	next   int
	seq    uint64
}

// NewPatternCapturer crea la fuente; sin colores usa azul, gris y rosa
func NewPatternCapturer(colors ...[3]uint8) *PatternCapturer {
	if len(colors) == 0 {
		colors = [][3]uint8{
			{30, 60, 200},   // azul
			{128, 128, 128}, // gris
			{230, 90, 150},  // rosa
		}
	}
	return &PatternCapturer{colors: colors}
}

func (c *PatternCapturer) Capture(ctx context.Context, dst *Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	col := c.colors[c.next]
	c.next = (c.next + 1) % len(c.colors)
	c.seq++
	dst.Seq = c.seq
	c.mu.Unlock()

	for i := 0; i+2 < len(dst.Data); i += BytesPerPixel {
		dst.Data[i], dst.Data[i+1], dst.Data[i+2] = col[0], col[1], col[2]
	}
	dst.Timestamp = time.Now()
	return nil
}
