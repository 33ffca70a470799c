package listeners

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"time"
)

// PanelSink recibe los eventos del panel físico (lector RFID y botón)
type PanelSink interface {
	SubmitTag(uid, dispositivo string) error
	PressButton(dispositivo string) bool
}

// PanelListener es un servidor TCP de texto para el panel del kiosko.
// Cada línea es "UID:<hex>" o "BTN"; se responde ACK o NACK.
type PanelListener struct {
	host        string
	port        int
	sink        PanelSink
	listener    net.Listener
	readTimeout time.Duration
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewPanelListener crea el listener sin abrir el puerto
func NewPanelListener(host string, port int, sink PanelSink) *PanelListener {
	ctx, cancel := context.WithCancel(context.Background())
	return &PanelListener{
		host:        host,
		port:        port,
		sink:        sink,
		readTimeout: 30 * time.Second,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// String implementa la interfaz fmt.Stringer
func (p *PanelListener) String() string {
	return fmt.Sprintf("PanelListener{host: %s, port: %d}", p.host, p.port)
}

// Addr retorna la dirección real de escucha (útil con puerto 0)
func (p *PanelListener) Addr() string {
	if p.listener == nil {
		return ""
	}
	return p.listener.Addr().String()
}

// Start abre el puerto y acepta conexiones en segundo plano
func (p *PanelListener) Start() error {
	address := fmt.Sprintf("%s:%d", p.host, p.port)

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("error al crear listener: %w", err)
	}

	p.listener = listener
	log.Printf("✓ PanelListener escuchando en %s", listener.Addr().String())

	go p.acceptConnections()
	return nil
}

func (p *PanelListener) acceptConnections() {
	for {
		select {
		case <-p.ctx.Done():
			log.Println("PanelListener: deteniendo aceptación de conexiones")
			return
		default:
		}

		if tl, ok := p.listener.(*net.TCPListener); ok {
			tl.SetDeadline(time.Now().Add(1 * time.Second))
		}

		conn, err := p.listener.Accept()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if p.ctx.Err() != nil {
				return
			}
			log.Printf("Error al aceptar conexión del panel: %v", err)
			continue
		}

		log.Printf("✓ Panel conectado desde: %s", conn.RemoteAddr().String())
		go p.handleConnection(conn)
	}
}

func (p *PanelListener) handleConnection(conn net.Conn) {
	defer conn.Close()
	reader := bufio.NewReader(conn)
	source := "panel-tcp@" + conn.RemoteAddr().String()

	// Lo leído antes de un timeout se conserva hasta completar la línea
	var pending strings.Builder

	for {
		select {
		case <-p.ctx.Done():
			log.Printf("Cerrando conexión del panel %s", conn.RemoteAddr().String())
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(p.readTimeout))
		chunk, err := reader.ReadString('\n')
		pending.WriteString(chunk)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			log.Printf("Panel desconectado: %v", err)
			return
		}
		line := pending.String()
		pending.Reset()

		reply := "ACK\r\n"
		if err := p.processLine(line, source); err != nil {
			log.Printf("❌ Línea de panel rechazada %q: %v", strings.TrimSpace(line), err)
			reply = "NACK\r\n"
		}
		if _, err := conn.Write([]byte(reply)); err != nil {
			log.Printf("Error al enviar respuesta al panel: %v", err)
			return
		}
	}
}

// processLine interpreta una línea del panel
func (p *PanelListener) processLine(line, source string) error {
	line = strings.TrimSpace(line)

	switch {
	case strings.EqualFold(line, "BTN"):
		if !p.sink.PressButton(source) {
			return fmt.Errorf("pulsación descartada")
		}
		return nil

	case len(line) > 4 && strings.EqualFold(line[:4], "UID:"):
		return p.sink.SubmitTag(line[4:], source)

	case line == "":
		return fmt.Errorf("línea vacía")
	}
	return fmt.Errorf("comando desconocido")
}

// Stop detiene el listener
func (p *PanelListener) Stop() error {
	log.Println("Deteniendo PanelListener...")
	p.cancel()

	if p.listener != nil {
		return p.listener.Close()
	}
	return nil
}
