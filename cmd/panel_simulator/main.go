package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ecobins-kiosk/internal/communication/mqtt"
	"ecobins-kiosk/internal/config"
)

var (
	colores = []string{"Azul", "Gris", "Rosa"}
	pausa   = 1500 * time.Millisecond
)

// panel envía líneas al PanelListener del kiosko y lee el ACK/NACK
type panel struct {
	conn   net.Conn
	reader *bufio.Reader
}

func (p *panel) send(line string) {
	if _, err := p.conn.Write([]byte(line + "\r\n")); err != nil {
		log.Fatalf("❌ Error al enviar: %v", err)
	}
	p.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	resp, err := p.reader.ReadString('\n')
	if err != nil {
		log.Printf("      ⚠️  No se recibió respuesta (timeout o error): %v", err)
		return
	}
	resp = strings.TrimSpace(resp)
	if resp == "NACK" {
		log.Printf("📤 %-12s 📥 ❌ NACK", line)
	} else {
		log.Printf("📤 %-12s 📥 ✅ %s", line, resp)
	}
}

func main() {
	uid := "deadbeef"
	if len(os.Args) > 1 {
		uid = os.Args[1]
	}

	log.Println("")
	log.Println("╔═══════════════════════════════════════════════╗")
	log.Println("║   🎯 SIMULADOR PANEL KIOSKO - ECOBINS         ║")
	log.Println("╚═══════════════════════════════════════════════╝")
	log.Println("")

	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  Archivo .env no encontrado, usando valores por defecto")
	}
	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("❌ Error al cargar configuración: %v", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatalf("❌ Error en variables de entorno: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	host := cfg.Panel.Host
	if host == "0.0.0.0" || host == "" {
		host = "localhost"
	}
	addr := net.JoinHostPort(host, fmt.Sprint(cfg.Panel.Port))

	log.Printf("📡 Conectando a %s...", addr)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		log.Fatalf("❌ Error al conectar: %v", err)
	}
	defer conn.Close()
	p := &panel{conn: conn, reader: bufio.NewReader(conn)}
	log.Printf("✅ Conectado al PanelListener en %s", addr)

	client := mqtt.NewClient(mqtt.Options{
		Broker:            cfg.MQTT.Broker,
		ClientID:          mqtt.RandomClientID("panel-sim-"),
		Username:          cfg.MQTT.Username,
		Password:          cfg.MQTT.Password,
		ReconnectInterval: cfg.MQTT.GetReconnectInterval(),
		Name:              "Panel",
	})
	if err := client.Connect(ctx); err != nil {
		log.Printf("🛑 %v", err)
		return
	}
	defer client.Disconnect()

	t := cfg.MQTT.Topics
	publish := func(topic, payload string) {
		if err := client.Publish(topic, []byte(payload)); err != nil {
			log.Printf("❌ Error publicando en %s: %v", topic, err)
			return
		}
		log.Printf("📤 %s ← %s", topic, payload)
	}
	step := func() bool {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(pausa):
			return true
		}
	}

	// Sesión: login, una bolsa completa y ciclo de motor (CLOSE cierra la sesión)
	p.send("UID:" + uid)
	if !step() {
		return
	}

	qr := fmt.Sprintf("BOLSA-%04d", rand.Intn(10000))
	publish(t.QR, qr)
	publish(t.Sensors, fmt.Sprintf(`{"peso": %d}`, 1+rand.Intn(8)))
	publish(t.Colors, fmt.Sprintf(`{"color": "%s"}`, colores[rand.Intn(len(colores))]))
	if !step() {
		return
	}

	for i := 0; i < 3; i++ {
		p.send("BTN")
		if !step() {
			return
		}
	}

	publish(t.Motor, "OPEN")
	if !step() {
		return
	}
	publish(t.Motor, "CLOSE")
	log.Println("👋 Simulación completada")
}
