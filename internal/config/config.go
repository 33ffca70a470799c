package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Kiosk      KioskConfig      `yaml:"kiosk"`
	API        APIConfig        `yaml:"api"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Actuator   ActuatorConfig   `yaml:"actuator"`
	Panel      PanelConfig      `yaml:"panel"`
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Camera     CameraConfig     `yaml:"camera"`
	Simulator  SimulatorConfig  `yaml:"simulator"`
}

type KioskConfig struct {
	BinID          int    `yaml:"bin_id"`          // id del contenedor que se publica en cada reciclaje
	IdleDelay      string `yaml:"idle_delay"`      // ej: "10ms"
	DisplayRefresh string `yaml:"display_refresh"` // ej: "2s"
	NetworkWait    string `yaml:"network_wait"`    // ej: "10s"
	TagQueueSize   int    `yaml:"tag_queue_size"`
	ButtonQueue    int    `yaml:"button_queue_size"`
	InboxSize      int    `yaml:"inbox_size"`
}

// GetIdleDelay retorna la pausa entre iteraciones del controlador
func (k *KioskConfig) GetIdleDelay() time.Duration {
	return parseDuration(k.IdleDelay, 10*time.Millisecond)
}

// GetDisplayRefresh retorna cada cuánto se repinta "Esperando tarjeta"
func (k *KioskConfig) GetDisplayRefresh() time.Duration {
	return parseDuration(k.DisplayRefresh, 2*time.Second)
}

// GetNetworkWait retorna el tiempo máximo de espera de red al arrancar
func (k *KioskConfig) GetNetworkWait() time.Duration {
	return parseDuration(k.NetworkWait, 10*time.Second)
}

type APIConfig struct {
	BaseURL string `yaml:"base_url"` // ej: "http://192.168.1.20:8888"
	Timeout string `yaml:"timeout"`  // ej: "5s"
}

// GetTimeout retorna el timeout de las llamadas HTTP
func (a *APIConfig) GetTimeout() time.Duration {
	return parseDuration(a.Timeout, 5*time.Second)
}

type MQTTConfig struct {
	Broker            string       `yaml:"broker"` // ej: "tcp://192.168.1.20:1883"
	ClientID          string       `yaml:"client_id"`
	Username          string       `yaml:"username"`
	Password          string       `yaml:"password"`
	QoS               byte         `yaml:"qos"`
	ReconnectInterval string       `yaml:"reconnect_interval"` // ej: "1s"
	PublishTimeout    string       `yaml:"publish_timeout"`    // ej: "2s"
	Topics            TopicsConfig `yaml:"topics"`
}

// GetReconnectInterval retorna la pausa fija entre intentos de conexión
func (m *MQTTConfig) GetReconnectInterval() time.Duration {
	return parseDuration(m.ReconnectInterval, time.Second)
}

// GetPublishTimeout retorna la espera máxima de confirmación de un publish
func (m *MQTTConfig) GetPublishTimeout() time.Duration {
	return parseDuration(m.PublishTimeout, 2*time.Second)
}

type TopicsConfig struct {
	Motor    string `yaml:"motor"`
	Colors   string `yaml:"colors"`
	QR       string `yaml:"qr"`
	Sensors  string `yaml:"sensors"`
	Access   string `yaml:"access"`
	Recycled string `yaml:"recycled"`
}

type ActuatorConfig struct {
	Driver        string           `yaml:"driver"`         // "memory" o "opcua"
	PulseDuration string           `yaml:"pulse_duration"` // ej: "1000ms"
	OPCUA         OPCUALinesConfig `yaml:"opcua"`
}

// GetPulseDuration retorna cuánto se mantiene el código en las líneas
func (a *ActuatorConfig) GetPulseDuration() time.Duration {
	return parseDuration(a.PulseDuration, time.Second)
}

type OPCUALinesConfig struct {
	Endpoint       string `yaml:"endpoint"`    // ej: "opc.tcp://192.168.1.50:4840"
	LineANode      string `yaml:"line_a_node"` // bit más significativo
	LineBNode      string `yaml:"line_b_node"` // bit menos significativo
	ConnectTimeout string `yaml:"connect_timeout"`
	WriteTimeout   string `yaml:"write_timeout"`
}

func (o OPCUALinesConfig) GetConnectTimeoutDuration() time.Duration {
	return parseDuration(o.ConnectTimeout, 10*time.Second)
}

func (o OPCUALinesConfig) GetWriteTimeoutDuration() time.Duration {
	return parseDuration(o.WriteTimeout, 2*time.Second)
}

type PanelConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"` // Host en el que escuchará el puente lector/botón
	Port    int    `yaml:"port"`
}

type HTTPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

type DatabaseConfig struct {
	Postgres     PostgresConfig `yaml:"postgres"`
	JournalQueue int            `yaml:"journal_queue"`
}

type PostgresConfig struct {
	URL                 string `yaml:"url"`
	MinConns            int    `yaml:"min_conns"`
	MaxConns            int    `yaml:"max_conns"`
	ConnectTimeout      string `yaml:"connect_timeout"`
	HealthcheckInterval string `yaml:"healthcheck_interval"`
}

// Métodos helper para conversión de tipos
func (p PostgresConfig) GetConnectTimeoutDuration() time.Duration {
	return parseDuration(p.ConnectTimeout, 10*time.Second)
}

func (p PostgresConfig) GetHealthcheckIntervalDuration() time.Duration {
	return parseDuration(p.HealthcheckInterval, 30*time.Second)
}

type MonitoringConfig struct {
	HeartbeatInterval string `yaml:"heartbeat_interval"` // ej: "5s"
	Timeout           string `yaml:"timeout"`            // ej: "2s"
}

func (m *MonitoringConfig) GetHeartbeatInterval() time.Duration {
	return parseDuration(m.HeartbeatInterval, 5*time.Second)
}

func (m *MonitoringConfig) GetTimeout() time.Duration {
	return parseDuration(m.Timeout, 2*time.Second)
}

type CameraConfig struct {
	Mode              string           `yaml:"mode"` // "detection" o "classification"
	QueueCapacity     int              `yaml:"queue_capacity"`
	EnqueueTimeout    string           `yaml:"enqueue_timeout"`
	DequeueTimeout    string           `yaml:"dequeue_timeout"`
	InferenceInterval string           `yaml:"inference_interval"`
	RetryDelay        string           `yaml:"retry_delay"`
	PublishIdle       string           `yaml:"publish_idle"`
	ReconnectInterval string           `yaml:"reconnect_interval"`
	Topic             string           `yaml:"topic"`
	ClientIDPrefix    string           `yaml:"client_id_prefix"`
	FramesDir         string           `yaml:"frames_dir"`
	Width             int              `yaml:"width"`
	Height            int              `yaml:"height"`
	ColorFilter       bool             `yaml:"color_filter"`
	Classifier        ClassifierConfig `yaml:"classifier"`
}

type ClassifierConfig struct {
	Command string   `yaml:"command"` // ej: "python3"
	Args    []string `yaml:"args"`    // ej: ["worker.py", "--model", "model.eim"]
	Timeout string   `yaml:"timeout"`
}

func (c *CameraConfig) GetEnqueueTimeout() time.Duration {
	return parseDuration(c.EnqueueTimeout, 100*time.Millisecond)
}

func (c *CameraConfig) GetDequeueTimeout() time.Duration {
	return parseDuration(c.DequeueTimeout, 100*time.Millisecond)
}

func (c *CameraConfig) GetInferenceInterval() time.Duration {
	return parseDuration(c.InferenceInterval, 200*time.Millisecond)
}

func (c *CameraConfig) GetRetryDelay() time.Duration {
	return parseDuration(c.RetryDelay, 200*time.Millisecond)
}

func (c *CameraConfig) GetPublishIdle() time.Duration {
	return parseDuration(c.PublishIdle, 10*time.Millisecond)
}

func (c *CameraConfig) GetReconnectInterval() time.Duration {
	return parseDuration(c.ReconnectInterval, 5*time.Second)
}

func (c *ClassifierConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 2*time.Second)
}

// SimulatorConfig configura el backend simulado (/health, /capacity)
type SimulatorConfig struct {
	Host            string    `yaml:"host"`
	Port            int       `yaml:"port"`
	ContenedorID    int       `yaml:"contenedor_id"`
	CapacidadMaxima float64   `yaml:"capacidad_maxima"`
	CargaActual     float64   `yaml:"carga_actual"`
	Cards           []SimCard `yaml:"cards"`
}

type SimCard struct {
	UID    string `yaml:"uid"`
	Nombre string `yaml:"nombre"`
}

// LoadConfig carga la configuración desde el archivo YAML y completa valores por defecto
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error leyendo archivo de configuración: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parseando YAML: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

// Default retorna una configuración con todos los valores por defecto
func Default() *Config {
	var config Config
	config.applyDefaults()
	return &config
}

func (c *Config) applyDefaults() {
	if c.Kiosk.BinID == 0 {
		c.Kiosk.BinID = 1
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://127.0.0.1:8888"
	}
	if c.MQTT.Broker == "" {
		c.MQTT.Broker = "tcp://127.0.0.1:1883"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "arduinoClient"
	}
	t := &c.MQTT.Topics
	setDefault(&t.Motor, "acceso/motor")
	setDefault(&t.Colors, "proyecto/micro/colores")
	setDefault(&t.QR, "proyecto/micro/qr")
	setDefault(&t.Sensors, "proyecto/micro/sensores")
	setDefault(&t.Access, "acceso/usuario")
	setDefault(&t.Recycled, "proyecto/micro/puntos")

	if c.Actuator.Driver == "" {
		c.Actuator.Driver = ActuatorDriverMemory
	}
	if c.Panel.Host == "" {
		c.Panel.Host = "0.0.0.0"
	}
	if c.Panel.Port == 0 {
		c.Panel.Port = 9100
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.Database.JournalQueue == 0 {
		c.Database.JournalQueue = 100
	}
	if c.Database.Postgres.MinConns == 0 {
		c.Database.Postgres.MinConns = 1
	}
	if c.Database.Postgres.MaxConns == 0 {
		c.Database.Postgres.MaxConns = 4
	}

	if c.Camera.Mode == "" {
		c.Camera.Mode = CameraModeDetection
	}
	if c.Camera.QueueCapacity == 0 {
		c.Camera.QueueCapacity = 5
	}
	if c.Camera.Width == 0 {
		c.Camera.Width = 320
	}
	if c.Camera.Height == 0 {
		c.Camera.Height = 240
	}
	setDefault(&c.Camera.Topic, "proyecto/micro/colores")
	setDefault(&c.Camera.ClientIDPrefix, "ESP32Client-")

	if c.Simulator.Port == 0 {
		c.Simulator.Port = 8888
	}
	if c.Simulator.ContenedorID == 0 {
		c.Simulator.ContenedorID = 1
	}
	if c.Simulator.CapacidadMaxima == 0 {
		c.Simulator.CapacidadMaxima = 100
	}
}

// Drivers de actuador y modos de cámara soportados
const (
	ActuatorDriverMemory = "memory"
	ActuatorDriverOPCUA  = "opcua"

	CameraModeDetection      = "detection"
	CameraModeClassification = "classification"
)

// Validate rechaza combinaciones imposibles de configuración
func (c *Config) Validate() error {
	if c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker es obligatorio")
	}
	switch c.Actuator.Driver {
	case ActuatorDriverMemory:
	case ActuatorDriverOPCUA:
		if c.Actuator.OPCUA.Endpoint == "" || c.Actuator.OPCUA.LineANode == "" || c.Actuator.OPCUA.LineBNode == "" {
			return fmt.Errorf("actuator.opcua requiere endpoint, line_a_node y line_b_node")
		}
	default:
		return fmt.Errorf("actuator.driver desconocido: %q", c.Actuator.Driver)
	}
	switch c.Camera.Mode {
	case CameraModeDetection, CameraModeClassification:
	default:
		return fmt.Errorf("camera.mode desconocido: %q", c.Camera.Mode)
	}
	if c.Camera.QueueCapacity < 1 {
		return fmt.Errorf("camera.queue_capacity debe ser >= 1 (actual: %d)", c.Camera.QueueCapacity)
	}
	if c.Kiosk.BinID < 1 {
		return fmt.Errorf("kiosk.bin_id debe ser >= 1 (actual: %d)", c.Kiosk.BinID)
	}
	return nil
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil || duration <= 0 {
		return fallback
	}
	return duration
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
