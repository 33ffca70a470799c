package backendsim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"ecobins-kiosk/internal/db"
	"ecobins-kiosk/internal/models"
)

// Temperatura a partir de la cual se bloquean las aperturas
const TEMPERATURA_BLOQUEO = 40.0

// Server imita la API remota que consulta el kiosko
type Server struct {
	store        Store
	contenedorID int

	recycled     atomic.Uint64
	bloqueoCalor atomic.Bool
}

// NewServer crea el simulador. contenedorID es el tacho que responde /capacity/.
func NewServer(store Store, contenedorID int) *Server {
	return &Server{store: store, contenedorID: contenedorID}
}

type healthResponse struct {
	Authorized bool     `json:"authorized"`
	User       userInfo `json:"user"`
}

type userInfo struct {
	Nombre string `json:"nombre"`
}

type capacityResponse struct {
	ID              int     `json:"id"`
	CapacidadMaxima float64 `json:"capacidad_maxima"`
	CargaActual     float64 `json:"carga_actual"`
	Porcentaje      float64 `json:"porcentaje"`
	Lleno           bool    `json:"lleno"`
	Bloqueo         int     `json:"bloqueo"`
}

// Router retorna el engine gin con /health, /health/:uid y /capacity/
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"recycled":  s.recycled.Load(),
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})
	router.GET("/health/:uid", s.handleHealth)
	router.GET("/capacity/", s.handleCapacity)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "ruta no encontrada", "path": c.Request.URL.Path})
	})
	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	uid := strings.ToLower(c.Param("uid"))

	nombre, ok, err := s.store.LookupCard(c.Request.Context(), uid)
	if err != nil {
		log.Printf("❌ [Backend] Error consultando tarjeta %s: %v", uid, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error interno"})
		return
	}

	if ok {
		log.Printf("✅ [Backend] Tarjeta %s autorizada (%s)", uid, nombre)
	} else {
		log.Printf("⚠️  [Backend] Tarjeta %s no registrada", uid)
	}
	c.JSON(http.StatusOK, healthResponse{Authorized: ok, User: userInfo{Nombre: nombre}})
}

func (s *Server) handleCapacity(c *gin.Context) {
	cont, err := s.store.GetContenedor(c.Request.Context(), s.contenedorID)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Printf("❌ [Backend] Error consultando contenedor %d: %v", s.contenedorID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error interno"})
		return
	}

	bloqueo := 0
	if cont.Bloqueado() || s.bloqueoCalor.Load() {
		bloqueo = 1
	}
	c.JSON(http.StatusOK, capacityResponse{
		ID:              cont.ID,
		CapacidadMaxima: cont.CapacidadMaxima,
		CargaActual:     cont.CargaActual,
		Porcentaje:      math.Round(cont.Porcentaje()*10) / 10,
		Lleno:           cont.Lleno(),
		Bloqueo:         bloqueo,
	})
}

// HandleRecycle procesa una bolsa publicada por el kiosko y suma su peso
// a la carga del contenedor indicado en el payload.
func (s *Server) HandleRecycle(ctx context.Context, payload []byte) error {
	var p models.RecyclePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("payload de reciclaje inválido: %w", err)
	}
	if p.Peso < 0 {
		return fmt.Errorf("peso negativo: %d", p.Peso)
	}

	color, _ := models.ColorFromLabel(p.Color)
	if err := s.store.AddCarga(ctx, p.ID, float64(p.Peso)); err != nil {
		return err
	}
	s.recycled.Add(1)

	cont, err := s.store.GetContenedor(ctx, p.ID)
	if err != nil {
		return err
	}
	log.Printf("♻️  [Backend] %s recicló %s (%s, %d kg, +%d pts) → contenedor %d al %.1f%%",
		p.User, p.QR, color.WasteType(), p.Peso, color.Points(p.Peso), p.ID, cont.Porcentaje())
	return nil
}

// HandleSensors bloquea las aperturas mientras la temperatura reportada sea alta
func (s *Server) HandleSensors(payload []byte) {
	var p struct {
		Temperatura *float64 `json:"temperatura"`
	}
	if err := json.Unmarshal(payload, &p); err != nil || p.Temperatura == nil {
		return
	}

	bloquear := *p.Temperatura >= TEMPERATURA_BLOQUEO
	if s.bloqueoCalor.Swap(bloquear) != bloquear {
		log.Printf("🌡️  [Backend] Temperatura %.1f°C: bloqueo %v", *p.Temperatura, bloquear)
	}
}
