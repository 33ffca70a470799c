package camera

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Tamaño máximo aceptado para un mensaje del worker
const maxMessageSize = 16 << 20

var (
	ErrClassifierClosed  = errors.New("camara: clasificador cerrado")
	ErrClassifierTimeout = errors.New("camara: timeout esperando al clasificador")
)

// Classifier ejecuta el modelo sobre un frame RGB888
type Classifier interface {
	Classify(ctx context.Context, f *Frame) (InferenceResult, error)
	Close() error
}

type workerRequest struct {
	FrameData []byte      `msgpack:"frame_data"`
	Width     int         `msgpack:"width"`
	Height    int         `msgpack:"height"`
	Meta      requestMeta `msgpack:"meta"`
}

type requestMeta struct {
	Seq       uint64 `msgpack:"seq"`
	Timestamp string `msgpack:"timestamp"`
	Mode      string `msgpack:"mode"`
}

type workerResponse struct {
	Boxes          []Box              `msgpack:"boxes"`
	Classification map[string]float64 `msgpack:"classification"`
	Timing         map[string]float64 `msgpack:"timing"`
	Error          string             `msgpack:"error"`
}

// writeMessage escribe v como msgpack precedido por su largo (4 bytes big-endian)
func writeMessage(w io.Writer, v any) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("error serializando mensaje: %w", err)
	}

	prefix := make([]byte, 4)
	binary.BigEndian.PutUint32(prefix, uint32(len(data)))
	if _, err := w.Write(prefix); err != nil {
		return fmt.Errorf("error escribiendo largo: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("error escribiendo mensaje: %w", err)
	}
	return nil
}

// readMessage lee un mensaje con prefijo de largo y lo decodifica en v
func readMessage(r io.Reader, v any) error {
	prefix := make([]byte, 4)
	if _, err := io.ReadFull(r, prefix); err != nil {
		return err
	}

	size := binary.BigEndian.Uint32(prefix)
	if size > maxMessageSize {
		return fmt.Errorf("mensaje de %d bytes excede el máximo", size)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return fmt.Errorf("error leyendo mensaje de %d bytes: %w", size, err)
	}
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("error decodificando mensaje: %w", err)
	}
	return nil
}

// ProcessClassifier delega la inferencia a un proceso externo (ej: runner del
// modelo en Python). Cada frame se envía por stdin y la respuesta se lee de stdout,
// ambos como msgpack con prefijo de largo.
//
// Si una llamada falla o vence, el proceso se descarta y se relanza en la siguiente.
type ProcessClassifier struct {
	command string
	args    []string
	mode    string
	timeout time.Duration

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.Reader
	closed bool

	// spawn se reemplaza en tests por pipes en memoria
	spawn func() (io.WriteCloser, io.Reader, error)
}

// NewProcessClassifier crea el clasificador sin lanzar el proceso
func NewProcessClassifier(command string, args []string, mode string, timeout time.Duration) *ProcessClassifier {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	c := &ProcessClassifier{
		command: command,
		args:    args,
		mode:    mode,
		timeout: timeout,
	}
	c.spawn = c.spawnProcess
	return c
}

func (c *ProcessClassifier) spawnProcess() (io.WriteCloser, io.Reader, error) {
	cmd := exec.Command(c.command, c.args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("error creando stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("error creando stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("error creando stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("error lanzando %s: %w", c.command, err)
	}
	log.Printf("🧠 [Camara] Clasificador lanzado: %s (pid %d)", c.command, cmd.Process.Pid)

	go logStderr(stderr)
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Printf("⚠️  [Camara] Clasificador terminó: %v", err)
		}
	}()

	c.cmd = cmd
	return stdin, stdout, nil
}

func logStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		log.Printf("🧠 [Clasificador] %s", scanner.Text())
	}
}

// Classify envía el frame y espera la respuesta como máximo el timeout configurado
func (c *ProcessClassifier) Classify(ctx context.Context, f *Frame) (InferenceResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return InferenceResult{}, ErrClassifierClosed
	}
	if c.stdin == nil {
		stdin, stdout, err := c.spawn()
		if err != nil {
			return InferenceResult{}, err
		}
		c.stdin, c.stdout = stdin, stdout
	}

	req := workerRequest{
		FrameData: f.Data,
		Width:     f.Width,
		Height:    f.Height,
		Meta: requestMeta{
			Seq:       f.Seq,
			Timestamp: f.Timestamp.Format(time.RFC3339Nano),
			Mode:      c.mode,
		},
	}

	type reply struct {
		resp workerResponse
		err  error
	}
	done := make(chan reply, 1)
	stdin, stdout := c.stdin, c.stdout
	go func() {
		var r reply
		if r.err = writeMessage(stdin, req); r.err == nil {
			r.err = readMessage(stdout, &r.resp)
		}
		done <- r
	}()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		if r.err != nil {
			c.reset()
			return InferenceResult{}, fmt.Errorf("camara: error con el clasificador: %w", r.err)
		}
		if r.resp.Error != "" {
			return InferenceResult{}, fmt.Errorf("camara: el clasificador reportó: %s", r.resp.Error)
		}
		return InferenceResult{
			Boxes:           r.resp.Boxes,
			Classifications: classificationsFromMap(r.resp.Classification),
			Timing:          r.resp.Timing,
		}, nil
	case <-timer.C:
		c.reset()
		return InferenceResult{}, ErrClassifierTimeout
	case <-ctx.Done():
		c.reset()
		return InferenceResult{}, ctx.Err()
	}
}

// reset descarta el proceso actual: el stream quedó desincronizado
func (c *ProcessClassifier) reset() {
	if c.stdin != nil {
		c.stdin.Close()
	}
	if c.cmd != nil && c.cmd.Process != nil {
		c.cmd.Process.Kill()
	}
	c.cmd = nil
	c.stdin = nil
	c.stdout = nil
}

// Close termina el proceso del clasificador
func (c *ProcessClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.reset()
	return nil
}

// Etiquetas que produce HueClassifier
const (
	LabelAzul = "azul"
	LabelGris = "gris"
	LabelRosa = "rosa"
)

// HueClassifier clasifica por conteo de pixeles azules, grises y rosas.
// Se usa cuando no hay modelo configurado.
type HueClassifier struct{}

func (HueClassifier) Classify(ctx context.Context, f *Frame) (InferenceResult, error) {
	if err := ctx.Err(); err != nil {
		return InferenceResult{}, err
	}

	var azul, gris, rosa int
	data := f.Data
	for i := 0; i+2 < len(data); i += BytesPerPixel {
		r, g, b := int(data[i]), int(data[i+1]), int(data[i+2])
		switch {
		case b > r+40 && b > g+40:
			azul++
		case r > g+60 && b > g:
			rosa++
		case max(r, g, b)-min(r, g, b) < 30:
			gris++
		}
	}

	total := f.Pixels()
	res := InferenceResult{
		Classifications: []Classification{
			{Label: LabelAzul, Value: ratio(azul, total)},
			{Label: LabelGris, Value: ratio(gris, total)},
			{Label: LabelRosa, Value: ratio(rosa, total)},
		},
	}
	for _, c := range res.Classifications {
		res.Boxes = append(res.Boxes, Box{Label: c.Label, Value: c.Value, Width: f.Width, Height: f.Height})
	}
	return res, nil
}

func (HueClassifier) Close() error { return nil }

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}
