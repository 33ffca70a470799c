package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ecobins-kiosk/internal/camera"
	"ecobins-kiosk/internal/communication/mqtt"
	"ecobins-kiosk/internal/config"
	"ecobins-kiosk/internal/monitoring"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(0)

	log.Println("")
	log.Println("╔═══════════════════════════════════════════════╗")
	log.Println("║   📷 CÁMARA CLASIFICADORA - ECOBINS           ║")
	log.Println("╚═══════════════════════════════════════════════╝")
	log.Println("")

	log.SetFlags(log.Ldate | log.Ltime)

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
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Configuración inválida: %v", err)
	}
	cam := cfg.Camera
	log.Printf("✅ Configuración cargada desde: %s (modo %s)", configPath, cam.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	monitoring.WaitForNetwork(ctx, []string{cfg.MQTT.Broker}, cfg.Kiosk.GetNetworkWait())

	capturer := buildCapturer(cam.FramesDir)
	classifier := buildClassifier(cam)
	defer classifier.Close()

	client := mqtt.NewClient(mqtt.Options{
		Broker:            cfg.MQTT.Broker,
		ClientID:          mqtt.RandomClientID(cam.ClientIDPrefix),
		Username:          cfg.MQTT.Username,
		Password:          cfg.MQTT.Password,
		QoS:               cfg.MQTT.QoS,
		ReconnectInterval: cam.GetReconnectInterval(),
		PublishTimeout:    cfg.MQTT.GetPublishTimeout(),
		Name:              "Camara",
	})
	if err := client.Connect(ctx); err != nil {
		log.Printf("🛑 %v", err)
		return
	}
	defer client.Disconnect()

	node := camera.NewNode(camera.NodeOptions{
		Mode:              cam.Mode,
		Topic:             cam.Topic,
		QueueCapacity:     cam.QueueCapacity,
		EnqueueTimeout:    cam.GetEnqueueTimeout(),
		DequeueTimeout:    cam.GetDequeueTimeout(),
		InferenceInterval: cam.GetInferenceInterval(),
		RetryDelay:        cam.GetRetryDelay(),
		PublishIdle:       cam.GetPublishIdle(),
		Width:             cam.Width,
		Height:            cam.Height,
		ColorFilter:       cam.ColorFilter,
	}, capturer, classifier, client)

	log.Printf("🚀 Cámara lista (%dx%d, cola %d, tópico %s)", cam.Width, cam.Height, cam.QueueCapacity, cam.Topic)
	if err := node.Run(ctx); errors.Is(err, camera.ErrSnapshotBuffer) {
		log.Printf("❌ Inferencia detenida durante toda la ejecución: %v", err)
	}

	s := node.Stats()
	log.Printf("📊 Inferencias: %d | Publicados: %d | Descartados: %d | Errores de publicación: %d",
		s.Inferences, s.Published, s.Queue.Dropped, s.PublishErrors)
	log.Println("👋 Cámara detenida correctamente")
}

// buildCapturer usa los JPEG de framesDir o, si no hay, un patrón de colores
func buildCapturer(framesDir string) camera.Capturer {
	if framesDir != "" {
		c, err := camera.NewFileCapturer(framesDir)
		if err == nil {
			log.Printf("✅ Fuente de frames: %s (%d imágenes)", framesDir, c.Len())
			return c
		}
		log.Printf("⚠️  %v", err)
	}
	log.Println("✅ Fuente de frames: patrón azul/gris/rosa")
	return camera.NewPatternCapturer()
}

func buildClassifier(cam config.CameraConfig) camera.Classifier {
	if cam.Classifier.Command == "" {
		log.Println("✅ Clasificador por tono (sin modelo externo)")
		return camera.HueClassifier{}
	}
	log.Printf("✅ Clasificador externo: %s %v", cam.Classifier.Command, cam.Classifier.Args)
	return camera.NewProcessClassifier(cam.Classifier.Command, cam.Classifier.Args, cam.Mode, cam.Classifier.GetTimeout())
}
