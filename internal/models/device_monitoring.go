package models

import "time"

// DeviceType representa el tipo de dispositivo
type DeviceType string

const (
	DeviceTypeBroker  DeviceType = "MQTT"
	DeviceTypeBackend DeviceType = "API"
	DeviceTypePLC     DeviceType = "PLC"
	DeviceTypeDB      DeviceType = "DB"
)

// DeviceStatus representa el estado de un dispositivo
type DeviceStatus struct {
	ID                int        `json:"id"`
	DeviceName        string     `json:"device_name"`
	DeviceType        DeviceType `json:"device_type"`
	IP                string     `json:"ip"`
	Port              int        `json:"port"`
	IsDisconnected    bool       `json:"is_disconnected"`
	LastDisconnection *time.Time `json:"last_disconnection"`
	LastCheck         time.Time  `json:"last_check"`
	ResponseTimeMs    int64      `json:"response_time_ms"`
}

// MonitorSummary resume el estado de todos los dispositivos del kiosko
type MonitorSummary struct {
	HasConnection     bool `json:"has_connection"` // false si algún dispositivo está desconectado
	DeviceCount       int  `json:"device_count"`
	DisconnectedCount int  `json:"disconnected_count"`
}
