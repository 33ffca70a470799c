package plc

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/ua"
)

// ErrNotConnected se retorna al operar sin una sesión OPC UA activa
var ErrNotConnected = errors.New("cliente no conectado")

// Client encapsula la conexión al servidor OPC UA del PLC del tacho
type Client struct {
	endpoint string
	config   PLCConfig

	mu     sync.RWMutex
	client *opcua.Client
}

// NewClient crea un nuevo cliente OPC UA sin conectar
func NewClient(config PLCConfig) *Client {
	return &Client{
		endpoint: config.Endpoint,
		config:   config,
	}
}

// Endpoint retorna el endpoint configurado
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Connect establece la conexión con el servidor OPC UA
func (c *Client) Connect(ctx context.Context) error {
	opts := []opcua.Option{
		opcua.SecurityMode(ua.MessageSecurityModeNone),
		opcua.SecurityPolicy(ua.SecurityPolicyURINone),
		opcua.AutoReconnect(true),
	}

	client, err := opcua.NewClient(c.endpoint, opts...)
	if err != nil {
		return fmt.Errorf("error creando cliente para %s: %w", c.endpoint, err)
	}

	connectCtx := ctx
	if c.config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, c.config.ConnectTimeout)
		defer cancel()
	}

	if err := client.Connect(connectCtx); err != nil {
		return fmt.Errorf("error al conectar a %s: %w", c.endpoint, err)
	}

	c.mu.Lock()
	c.client = client
	c.mu.Unlock()

	log.Printf("✅ Conexión OPC UA establecida a %s", c.endpoint)
	return nil
}

// Close cierra la conexión con el servidor OPC UA
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.mu.Unlock()

	if client != nil {
		return client.Close(ctx)
	}
	return nil
}

func (c *Client) session() (*opcua.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.client == nil {
		return nil, ErrNotConnected
	}
	return c.client, nil
}

// ReadNode lee el valor de un nodo específico
func (c *Client) ReadNode(ctx context.Context, nodeID string) (*NodeInfo, error) {
	client, err := c.session()
	if err != nil {
		return nil, err
	}

	id, err := ua.ParseNodeID(nodeID)
	if err != nil {
		return nil, fmt.Errorf("nodeID inválido '%s': %w", nodeID, err)
	}

	req := &ua.ReadRequest{
		NodesToRead: []*ua.ReadValueID{
			{
				NodeID:      id,
				AttributeID: ua.AttributeIDValue,
			},
		},
	}

	resp, err := client.Read(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("error al leer nodo %s: %w", nodeID, err)
	}

	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("lectura de %s sin resultados", nodeID)
	}

	result := resp.Results[0]
	if result.Status != ua.StatusOK {
		return nil, fmt.Errorf("lectura de %s con status: %s", nodeID, result.Status)
	}

	value := result.Value.Value()
	return &NodeInfo{
		NodeID:    nodeID,
		Value:     value,
		ValueType: fmt.Sprintf("%T", value),
		ReadTime:  time.Now(),
	}, nil
}

// ReadBool lee un nodo booleano (líneas digitales del actuador)
func (c *Client) ReadBool(ctx context.Context, nodeID string) (bool, error) {
	info, err := c.ReadNode(ctx, nodeID)
	if err != nil {
		return false, err
	}
	v, ok := info.Value.(bool)
	if !ok {
		return false, fmt.Errorf("nodo %s no es bool (%s)", nodeID, info.ValueType)
	}
	return v, nil
}

// WriteNode escribe un valor a un nodo específico
func (c *Client) WriteNode(ctx context.Context, nodeID string, value interface{}) error {
	client, err := c.session()
	if err != nil {
		return err
	}

	id, err := ua.ParseNodeID(nodeID)
	if err != nil {
		return fmt.Errorf("nodeID inválido '%s': %w", nodeID, err)
	}

	variant, err := ua.NewVariant(value)
	if err != nil {
		return fmt.Errorf("error creando variante para %v: %w", value, err)
	}

	req := &ua.WriteRequest{
		NodesToWrite: []*ua.WriteValue{
			{
				NodeID:      id,
				AttributeID: ua.AttributeIDValue,
				Value: &ua.DataValue{
					EncodingMask: ua.DataValueValue,
					Value:        variant,
				},
			},
		},
	}

	writeCtx := ctx
	if c.config.WriteTimeout > 0 {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(ctx, c.config.WriteTimeout)
		defer cancel()
	}

	resp, err := client.Write(writeCtx, req)
	if err != nil {
		return fmt.Errorf("error al escribir nodo %s: %w", nodeID, err)
	}

	if len(resp.Results) == 0 {
		return fmt.Errorf("escritura de %s sin resultados", nodeID)
	}

	if resp.Results[0] != ua.StatusOK {
		return fmt.Errorf("escritura de %s con status: %s", nodeID, resp.Results[0])
	}

	return nil
}
