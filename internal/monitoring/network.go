package monitoring

import (
	"context"
	"log"
	"net"
	"strconv"
	"time"
)

// WaitForNetwork espera a que alguno de los endpoints acepte conexiones TCP,
// reintentando cada 500 ms, como máximo maxWait. Retorna true si hubo red.
// Nunca bloquea el arranque más allá de maxWait.
func WaitForNetwork(ctx context.Context, endpoints []string, maxWait time.Duration) bool {
	targets := make([]string, 0, len(endpoints))
	for _, e := range endpoints {
		host, port, err := HostPort(e)
		if err != nil {
			log.Printf("⚠️  Endpoint ignorado para la espera de red: %v", err)
			continue
		}
		targets = append(targets, net.JoinHostPort(host, strconv.Itoa(port)))
	}
	if len(targets) == 0 {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	log.Printf("🌐 Esperando red (máximo %v)...", maxWait)
	dialer := net.Dialer{Timeout: 500 * time.Millisecond}
	for {
		for _, addr := range targets {
			conn, err := dialer.DialContext(ctx, "tcp", addr)
			if err == nil {
				conn.Close()
				log.Printf("✅ Red disponible (%s responde)", addr)
				return true
			}
		}

		select {
		case <-ctx.Done():
			log.Printf("⚠️  Sin red después de %v, continuando de todas formas", maxWait)
			return false
		case <-time.After(500 * time.Millisecond):
		}
	}
}
