package plc

import "time"

// NodeInfo representa la información de un nodo OPC UA y su valor leído
type NodeInfo struct {
	NodeID    string      // ID del nodo (ej: "ns=4;i=22")
	Value     interface{} // Valor leído del nodo
	ValueType string      // Tipo del valor (bool, int16, int32, string, etc.)
	ReadTime  time.Time   // Momento de la lectura
	Error     error       // Error si hubo problema al leer
}

// PLCConfig contiene la configuración necesaria para conectarse al PLC del tacho
type PLCConfig struct {
	Endpoint       string
	ConnectTimeout time.Duration
	WriteTimeout   time.Duration
}
