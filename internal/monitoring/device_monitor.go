package monitoring

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"ecobins-kiosk/internal/models"
)

// Puertos por defecto según el esquema de la URL
var defaultPorts = map[string]int{
	"tcp":        1883,
	"mqtt":       1883,
	"ssl":        8883,
	"tls":        8883,
	"http":       80,
	"https":      443,
	"opc.tcp":    4840,
	"postgres":   5432,
	"postgresql": 5432,
}

// DeviceMonitor gestiona el monitoreo de dispositivos con heartbeat
type DeviceMonitor struct {
	ctx               context.Context
	cancel            context.CancelFunc
	devices           map[int]*models.DeviceStatus // key: device ID
	devicesMu         sync.RWMutex
	heartbeatInterval time.Duration
	timeoutDuration   time.Duration
}

// NewDeviceMonitor crea una nueva instancia del monitor
func NewDeviceMonitor(heartbeatInterval, timeout time.Duration) *DeviceMonitor {
	ctx, cancel := context.WithCancel(context.Background())

	return &DeviceMonitor{
		ctx:               ctx,
		cancel:            cancel,
		devices:           make(map[int]*models.DeviceStatus),
		heartbeatInterval: heartbeatInterval,
		timeoutDuration:   timeout,
	}
}

// RegisterDevice registra un nuevo dispositivo para monitoreo
func (m *DeviceMonitor) RegisterDevice(device *models.DeviceStatus) {
	m.devicesMu.Lock()
	defer m.devicesMu.Unlock()

	device.LastCheck = time.Now()
	device.IsDisconnected = false
	m.devices[device.ID] = device

	log.Printf("📡 Dispositivo registrado para monitoreo: %s [%s] (%s:%d)",
		device.DeviceName, device.DeviceType, device.IP, device.Port)
}

// RegisterEndpoint registra un dispositivo a partir de su URL de conexión
// (tcp://broker:1883, http://api:8888, opc.tcp://plc:4840, postgres://...).
func (m *DeviceMonitor) RegisterEndpoint(id int, name string, deviceType models.DeviceType, rawURL string) error {
	host, port, err := HostPort(rawURL)
	if err != nil {
		return fmt.Errorf("dispositivo %s: %w", name, err)
	}
	m.RegisterDevice(&models.DeviceStatus{
		ID:         id,
		DeviceName: name,
		DeviceType: deviceType,
		IP:         host,
		Port:       port,
	})
	return nil
}

// HostPort extrae host y puerto de una URL, usando el puerto por defecto del esquema
func HostPort(rawURL string) (string, int, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", 0, fmt.Errorf("url inválida '%s': %w", rawURL, err)
	}
	host := u.Hostname()
	if host == "" {
		return "", 0, fmt.Errorf("url sin host: '%s'", rawURL)
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return "", 0, fmt.Errorf("puerto inválido '%s': %w", p, err)
		}
		return host, port, nil
	}
	port, ok := defaultPorts[u.Scheme]
	if !ok {
		return "", 0, fmt.Errorf("esquema '%s' sin puerto por defecto", u.Scheme)
	}
	return host, port, nil
}

// Start inicia el monitoreo continuo con heartbeat
func (m *DeviceMonitor) Start() {
	log.Printf("🔄 Iniciando monitoreo de dispositivos (intervalo: %v, timeout: %v)",
		m.heartbeatInterval, m.timeoutDuration)

	ticker := time.NewTicker(m.heartbeatInterval)
	defer ticker.Stop()

	m.CheckAll()

	for {
		select {
		case <-m.ctx.Done():
			log.Println("🛑 Monitoreo de dispositivos detenido")
			return
		case <-ticker.C:
			m.CheckAll()
		}
	}
}

// Stop detiene el monitoreo
func (m *DeviceMonitor) Stop() {
	m.cancel()
}

// CheckAll verifica en paralelo el estado de todos los dispositivos
func (m *DeviceMonitor) CheckAll() {
	m.devicesMu.RLock()
	devicesCopy := make([]*models.DeviceStatus, 0, len(m.devices))
	for _, device := range m.devices {
		devicesCopy = append(devicesCopy, device)
	}
	m.devicesMu.RUnlock()

	var wg sync.WaitGroup
	for _, device := range devicesCopy {
		wg.Add(1)
		go func(dev *models.DeviceStatus) {
			defer wg.Done()
			m.checkDevice(dev)
		}(device)
	}
	wg.Wait()
}

// checkDevice verifica el estado de un dispositivo usando TCP dial
func (m *DeviceMonitor) checkDevice(device *models.DeviceStatus) {
	m.devicesMu.RLock()
	address := net.JoinHostPort(device.IP, strconv.Itoa(device.Port))
	m.devicesMu.RUnlock()

	start := time.Now()
	conn, err := net.DialTimeout("tcp", address, m.timeoutDuration)
	elapsed := time.Since(start).Milliseconds()

	m.devicesMu.Lock()
	defer m.devicesMu.Unlock()

	device.LastCheck = time.Now()
	device.ResponseTimeMs = elapsed

	if err != nil {
		if !device.IsDisconnected {
			now := time.Now()
			device.LastDisconnection = &now
			device.IsDisconnected = true
			log.Printf("❌ Dispositivo desconectado: %s (%s) - Error: %v", device.DeviceName, address, err)
		}
		return
	}

	conn.Close()
	if device.IsDisconnected {
		log.Printf("✅ Dispositivo reconectado: %s (%s) - Tiempo: %dms", device.DeviceName, address, elapsed)
		device.IsDisconnected = false
	}
}

// Summary resume el estado de todos los dispositivos
func (m *DeviceMonitor) Summary() models.MonitorSummary {
	m.devicesMu.RLock()
	defer m.devicesMu.RUnlock()

	summary := models.MonitorSummary{HasConnection: true, DeviceCount: len(m.devices)}
	for _, device := range m.devices {
		if device.IsDisconnected {
			summary.HasConnection = false
			summary.DisconnectedCount++
		}
	}
	return summary
}

// GetAllDevices retorna todos los dispositivos monitoreados ordenados por ID
func (m *DeviceMonitor) GetAllDevices() []models.DeviceStatus {
	m.devicesMu.RLock()
	defer m.devicesMu.RUnlock()

	result := make([]models.DeviceStatus, 0, len(m.devices))
	for _, device := range m.devices {
		result = append(result, *device)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return result
}
