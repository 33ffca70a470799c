package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ecobins-kiosk/internal/actuator"
	"ecobins-kiosk/internal/communication/backend"
	"ecobins-kiosk/internal/communication/mqtt"
	"ecobins-kiosk/internal/communication/plc"
	"ecobins-kiosk/internal/config"
	"ecobins-kiosk/internal/db"
	"ecobins-kiosk/internal/flow"
	"ecobins-kiosk/internal/kiosk"
	"ecobins-kiosk/internal/listeners"
	"ecobins-kiosk/internal/models"
	"ecobins-kiosk/internal/monitoring"
	"ecobins-kiosk/internal/shared"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(0)

	log.Println("")
	log.Println("    ███████╗ ██████╗ ██████╗ ██████╗ ██╗███╗   ██╗███████╗")
	log.Println("    ██╔════╝██╔════╝██╔═══██╗██╔══██╗██║████╗  ██║██╔════╝")
	log.Println("    █████╗  ██║     ██║   ██║██████╔╝██║██╔██╗ ██║███████╗")
	log.Println("    ██╔══╝  ██║     ██║   ██║██╔══██╗██║██║╚██╗██║╚════██║")
	log.Println("    ███████╗╚██████╗╚██████╔╝██████╔╝██║██║ ╚████║███████║")
	log.Println("    ╚══════╝ ╚═════╝ ╚═════╝ ╚═════╝ ╚═╝╚═╝  ╚═══╝╚══════╝")
	log.Println("")
	log.Println("Iniciando kiosko EcoBins...")
	log.Println("")

	log.SetFlags(log.Ldate | log.Ltime)

	// 1. .env y configuración
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
	log.Printf("✅ Configuración cargada desde: %s (tacho #%d)", configPath, cfg.Kiosk.BinID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Red: espera acotada, se continúa aunque no haya respuesta
	monitoring.WaitForNetwork(ctx, []string{cfg.MQTT.Broker, cfg.API.BaseURL}, cfg.Kiosk.GetNetworkWait())

	channels := shared.NewChannelManager(cfg.Kiosk.TagQueueSize, cfg.Kiosk.ButtonQueue, cfg.Kiosk.InboxSize)
	log.Println("✅ Colas de eventos inicializadas")

	// 3. API remota (autorización y capacidad)
	api := backend.NewClient(cfg.API.BaseURL, cfg.API.GetTimeout())
	defer api.Close()
	log.Printf("✅ Cliente API: %s", api.BaseURL())

	// 4. Actuador del motor
	lines, closeLines := buildLines(ctx, cfg)
	defer closeLines()
	driver := actuator.NewDriver(lines, cfg.Actuator.GetPulseDuration())
	if err := driver.Idle(ctx); err != nil {
		log.Printf("⚠️  No se pudo dejar el motor en reposo: %v", err)
	}

	// 5. Pantalla: log + espejo por WebSocket
	hub := listeners.NewWebSocketHub(cfg.Kiosk.BinID)
	display := listeners.MultiDisplay{listeners.NewLogDisplay(), hub}

	// 6. Diario en PostgreSQL (opcional)
	var journal kiosk.Journal
	var journalWorker *flow.JournalWorker
	if cfg.Database.Postgres.URL != "" {
		var closeJournal func()
		journalWorker, closeJournal = startJournal(ctx, cfg)
		if journalWorker != nil {
			journal = journalWorker
			defer closeJournal()
		}
	} else {
		log.Println("ℹ️  Diario deshabilitado (database.postgres.url vacío)")
	}

	// 7. MQTT: el callback sólo encola, el controlador procesa
	var controller *kiosk.Controller
	mqttClient := mqtt.NewClient(mqtt.Options{
		Broker:            cfg.MQTT.Broker,
		ClientID:          cfg.MQTT.ClientID,
		Username:          cfg.MQTT.Username,
		Password:          cfg.MQTT.Password,
		QoS:               cfg.MQTT.QoS,
		ReconnectInterval: cfg.MQTT.GetReconnectInterval(),
		PublishTimeout:    cfg.MQTT.GetPublishTimeout(),
		Name:              fmt.Sprintf("Kiosk #%d", cfg.Kiosk.BinID),
		Handler: func(topic string, payload []byte) {
			if err := controller.EnqueueMessage(topic, payload); err != nil {
				log.Printf("⚠️  Mensaje de %s descartado: %v", topic, err)
			}
		},
		Subscriptions: []string{
			cfg.MQTT.Topics.Motor,
			cfg.MQTT.Topics.Colors,
			cfg.MQTT.Topics.QR,
			cfg.MQTT.Topics.Sensors,
		},
	})

	t := cfg.MQTT.Topics
	controller = kiosk.NewController(
		kiosk.Settings{
			BinID: cfg.Kiosk.BinID,
			Topics: kiosk.Topics{
				Motor:    t.Motor,
				Colors:   t.Colors,
				QR:       t.QR,
				Sensors:  t.Sensors,
				Access:   t.Access,
				Recycled: t.Recycled,
			},
			IdleDelay:      cfg.Kiosk.GetIdleDelay(),
			DisplayRefresh: cfg.Kiosk.GetDisplayRefresh(),
		},
		kiosk.Deps{
			Auth:      api,
			Capacity:  api,
			Publisher: mqttClient,
			Actuator:  driver,
			Display:   display,
			Journal:   journal,
			Observers: []kiosk.StatusObserver{hub},
			Channels:  channels,
		},
	)

	if err := mqttClient.Connect(ctx); err != nil {
		log.Printf("🛑 %v", err)
		return
	}
	defer mqttClient.Disconnect()

	var wg sync.WaitGroup

	// 8. Monitor de dispositivos
	monitor := monitoring.NewDeviceMonitor(cfg.Monitoring.GetHeartbeatInterval(), cfg.Monitoring.GetTimeout())
	registerDevices(monitor, cfg)
	wg.Add(1)
	go func() {
		defer wg.Done()
		monitor.Start()
	}()

	// 9. Puente lector/botón por TCP
	if cfg.Panel.Enabled {
		panel := listeners.NewPanelListener(cfg.Panel.Host, cfg.Panel.Port, controller)
		if err := panel.Start(); err != nil {
			log.Fatalf("❌ Error al iniciar %s: %v", panel, err)
		}
		defer panel.Stop()
	}

	// 10. API HTTP + WebSocket
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()

	if cfg.HTTP.Enabled {
		frontend := listeners.NewHTTPFrontend(fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port), controller, hub)
		frontend.SetDeviceMonitor(monitor)
		frontend.AddStats("mqtt", func() interface{} { return mqttClient.Stats() })
		if journalWorker != nil {
			frontend.AddStats("journal", func() interface{} { return journalWorker.Stats() })
		}

		log.Println("📊 Endpoints disponibles:")
		log.Println("   GET  /health  /status  /queues  /stats")
		log.Println("   GET  /devices  /devices/summary")
		log.Println("   POST /panel/button  /panel/tag/:uid")
		log.Println("   GET  /ws/:room (display, status)  /ws/stats")

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := frontend.Start(ctx); err != nil {
				log.Printf("❌ %v", err)
			}
		}()
	}

	// 11. Bucle del controlador
	log.Printf("🚀 Kiosko #%d listo", cfg.Kiosk.BinID)
	controller.Run(ctx)

	log.Println("🛑 Deteniendo kiosko...")
	if err := driver.Idle(context.Background()); err != nil {
		log.Printf("⚠️  No se pudo dejar el motor en reposo: %v", err)
	}
	monitor.Stop()
	wg.Wait()
	log.Println("👋 Kiosko detenido correctamente")
}

// buildLines crea las líneas del motor según el driver configurado
func buildLines(ctx context.Context, cfg *config.Config) (actuator.Lines, func()) {
	if cfg.Actuator.Driver != config.ActuatorDriverOPCUA {
		log.Println("✅ Actuador en memoria (sin PLC)")
		return actuator.NewMemoryLines(), func() {}
	}

	o := cfg.Actuator.OPCUA
	client := plc.NewClient(plc.PLCConfig{
		Endpoint:       o.Endpoint,
		ConnectTimeout: o.GetConnectTimeoutDuration(),
		WriteTimeout:   o.GetWriteTimeoutDuration(),
	})
	if err := client.Connect(ctx); err != nil {
		// Con autoreconnect el cliente seguirá intentando; las escrituras fallarán mientras tanto
		log.Printf("⚠️  PLC no disponible: %v", err)
	} else {
		for _, node := range []string{o.LineANode, o.LineBNode} {
			if high, err := client.ReadBool(ctx, node); err != nil {
				log.Printf("⚠️  No se pudo leer %s: %v", node, err)
			} else if !high {
				log.Printf("⚠️  Línea %s en LOW al arrancar, se forzará reposo", node)
			}
		}
	}
	log.Printf("✅ Actuador OPC UA: %s (A=%s, B=%s)", o.Endpoint, o.LineANode, o.LineBNode)

	return actuator.NewOPCUALines(client, o.LineANode, o.LineBNode), func() {
		if err := client.Close(context.Background()); err != nil {
			log.Printf("⚠️  Error cerrando PLC: %v", err)
		}
	}
}

func startJournal(ctx context.Context, cfg *config.Config) (*flow.JournalWorker, func()) {
	p := cfg.Database.Postgres

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	dbManager, err := db.GetPostgresManagerWithURL(
		connectCtx,
		p.URL,
		int32(p.MinConns),
		int32(p.MaxConns),
		p.GetConnectTimeoutDuration(),
		p.GetHealthcheckIntervalDuration(),
	)
	if err != nil {
		log.Printf("⚠️  Diario deshabilitado: %v", err)
		return nil, nil
	}
	if err := dbManager.EnsureSchema(connectCtx, db.CREATE_KIOSK_JOURNAL); err != nil {
		log.Printf("⚠️  Diario deshabilitado: %v", err)
		dbManager.Close()
		return nil, nil
	}

	worker := flow.NewJournalWorker(ctx, dbManager, cfg.Database.JournalQueue)
	worker.Start()

	// El pool se cierra después de que el worker vacíe su cola
	return worker, func() {
		worker.Stop()
		dbManager.Close()
	}
}

func registerDevices(monitor *monitoring.DeviceMonitor, cfg *config.Config) {
	type endpoint struct {
		name string
		kind models.DeviceType
		url  string
	}

	endpoints := []endpoint{
		{"Broker MQTT", models.DeviceTypeBroker, cfg.MQTT.Broker},
		{"API EcoBins", models.DeviceTypeBackend, cfg.API.BaseURL},
	}
	if cfg.Actuator.Driver == config.ActuatorDriverOPCUA {
		endpoints = append(endpoints, endpoint{"PLC motor", models.DeviceTypePLC, cfg.Actuator.OPCUA.Endpoint})
	}
	if cfg.Database.Postgres.URL != "" {
		endpoints = append(endpoints, endpoint{"PostgreSQL", models.DeviceTypeDB, cfg.Database.Postgres.URL})
	}

	for i, e := range endpoints {
		if err := monitor.RegisterEndpoint(i+1, e.name, e.kind, e.url); err != nil {
			log.Printf("⚠️  %v", err)
		}
	}
}
