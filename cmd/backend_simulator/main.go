package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"ecobins-kiosk/internal/backendsim"
	"ecobins-kiosk/internal/communication/mqtt"
	"ecobins-kiosk/internal/config"
	"ecobins-kiosk/internal/db"
	"ecobins-kiosk/internal/models"
)

func main() {
	log.Println("")
	log.Println("╔═══════════════════════════════════════════════╗")
	log.Println("║   🎯 SIMULADOR BACKEND - ECOBINS              ║")
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
	sim := cfg.Simulator

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cards := make(map[string]string, len(sim.Cards))
	for _, c := range sim.Cards {
		cards[c.UID] = c.Nombre
	}
	contenedor := models.Contenedor{
		ID:              sim.ContenedorID,
		CapacidadMaxima: sim.CapacidadMaxima,
		CargaActual:     sim.CargaActual,
	}

	store, closeStore := buildStore(ctx, cfg, cards, contenedor)
	defer closeStore()

	server := backendsim.NewServer(store, sim.ContenedorID)

	// Consume las bolsas recicladas para que la capacidad evolucione
	client := mqtt.NewClient(mqtt.Options{
		Broker:            cfg.MQTT.Broker,
		ClientID:          mqtt.RandomClientID("backend-sim-"),
		Username:          cfg.MQTT.Username,
		Password:          cfg.MQTT.Password,
		QoS:               1,
		ReconnectInterval: cfg.MQTT.GetReconnectInterval(),
		Name:              "Backend",
		Subscriptions:     []string{cfg.MQTT.Topics.Recycled, cfg.MQTT.Topics.Sensors},
		Handler: func(topic string, payload []byte) {
			switch topic {
			case cfg.MQTT.Topics.Recycled:
				if err := server.HandleRecycle(ctx, payload); err != nil {
					log.Printf("❌ [Backend] %v", err)
				}
			case cfg.MQTT.Topics.Sensors:
				server.HandleSensors(payload)
			}
		},
	})
	go func() {
		if err := client.Connect(ctx); err != nil {
			log.Printf("⚠️  [Backend] Sin MQTT: %v", err)
		}
	}()
	defer client.Disconnect()

	gin.SetMode(gin.ReleaseMode)
	addr := fmt.Sprintf("%s:%d", sim.Host, sim.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("🌐 Backend simulado en %s (contenedor #%d, %d tarjetas)", addr, sim.ContenedorID, len(cards))
	log.Println("   GET /health  /health/:uid  /capacity/")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("❌ Error en servidor HTTP: %v", err)
	}
	log.Println("👋 Simulador detenido correctamente")
}

// buildStore usa PostgreSQL si hay URL configurada, si no memoria
func buildStore(ctx context.Context, cfg *config.Config, cards map[string]string, c models.Contenedor) (backendsim.Store, func()) {
	p := cfg.Database.Postgres
	if p.URL == "" {
		log.Println("✅ Store en memoria")
		return backendsim.NewMemoryStore(cards, c), func() {}
	}

	dbManager, err := db.GetPostgresManagerWithURL(ctx, p.URL, int32(p.MinConns), int32(p.MaxConns),
		p.GetConnectTimeoutDuration(), p.GetHealthcheckIntervalDuration())
	if err != nil {
		log.Fatalf("❌ Error al inicializar PostgreSQL: %v", err)
	}
	if err := dbManager.SeedSimulator(ctx, cards, c); err != nil {
		dbManager.Close()
		log.Fatalf("❌ Error cargando datos del simulador: %v", err)
	}
	log.Println("✅ Store PostgreSQL (tablas tarjeta y contenedor)")
	return dbManager, dbManager.Close
}
