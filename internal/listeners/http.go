package listeners

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"ecobins-kiosk/internal/models"
	"ecobins-kiosk/internal/shared"
	"ecobins-kiosk/internal/web"
)

// KioskAPI es la vista del controlador que expone el servidor HTTP
type KioskAPI interface {
	PanelSink
	Status() models.KioskStatus
	QueueStats() []shared.QueueStats
}

// DeviceLister expone el estado del monitor de dispositivos
type DeviceLister interface {
	GetAllDevices() []models.DeviceStatus
	Summary() models.MonitorSummary
}

// StatsFunc retorna estadísticas serializables (broker, journal)
type StatsFunc func() interface{}

// HTTPFrontend es el servidor HTTP de estado y control del kiosko
type HTTPFrontend struct {
	router  *gin.Engine
	addr    string
	server  *http.Server
	kiosk   KioskAPI
	wsHub   *WebSocketHub
	devices DeviceLister
	stats   map[string]StatsFunc

	routesOnce sync.Once
}

// NewHTTPFrontend crea el servidor con CORS y manejador de rutas inexistentes
func NewHTTPFrontend(addr string, kiosk KioskAPI, hub *WebSocketHub) *HTTPFrontend {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.NoRoute(func(c *gin.Context) {
		RespondWithError(c, http.StatusNotFound, ErrCodeNotFound,
			"🤔 La ruta que buscas no existe en este servidor",
			gin.H{
				"available_endpoints": gin.H{
					"kiosk": []string{
						"GET /health",
						"GET /status",
						"GET /queues",
						"GET /stats",
					},
					"panel": []string{
						"POST /panel/button",
						"POST /panel/tag/:uid",
					},
					"monitoring": []string{
						"GET /devices",
						"GET /devices/summary",
					},
					"websocket": []string{
						"GET /ws/display",
						"GET /ws/status",
						"GET /ws/stats",
					},
				},
			},
			"Usa GET /status para ver el estado del kiosko")
	})

	h := &HTTPFrontend{
		router: router,
		addr:   addr,
		kiosk:  kiosk,
		wsHub:  hub,
		stats:  make(map[string]StatsFunc),
	}
	return h
}

// SetDeviceMonitor vincula el monitor de dispositivos
func (h *HTTPFrontend) SetDeviceMonitor(monitor DeviceLister) {
	h.devices = monitor
}

// AddStats expone estadísticas adicionales bajo GET /stats
func (h *HTTPFrontend) AddStats(name string, fn StatsFunc) {
	h.stats[name] = fn
}

// GetRouter retorna el router con las rutas ya registradas
func (h *HTTPFrontend) GetRouter() *gin.Engine {
	h.routesOnce.Do(h.setupRoutes)
	return h.router
}

func (h *HTTPFrontend) setupRoutes() {
	h.router.GET("/health", func(c *gin.Context) {
		Success(c, gin.H{"status": "ok"}, "")
	})

	h.router.GET("/status", func(c *gin.Context) {
		Success(c, h.kiosk.Status(), "")
	})

	h.router.GET("/queues", func(c *gin.Context) {
		Success(c, h.kiosk.QueueStats(), "")
	})

	h.router.GET("/stats", func(c *gin.Context) {
		out := gin.H{}
		for name, fn := range h.stats {
			out[name] = fn()
		}
		Success(c, out, "")
	})

	h.router.POST("/panel/button", func(c *gin.Context) {
		if !h.kiosk.PressButton("http@" + c.ClientIP()) {
			QueueFull(c, "boton")
			return
		}
		Accepted(c, gin.H{"event": models.PanelEventButton}, "Pulsación encolada")
	})

	h.router.POST("/panel/tag/:uid", func(c *gin.Context) {
		uid := c.Param("uid")
		norm, err := models.NormalizeUID(uid)
		if err != nil {
			InvalidUID(c, uid, err)
			return
		}
		if err := h.kiosk.SubmitTag(norm, "http@"+c.ClientIP()); err != nil {
			QueueFull(c, "tags")
			return
		}
		Accepted(c, gin.H{"event": models.PanelEventTag, "uid": norm}, "Tarjeta encolada")
	})

	var devices func() []models.DeviceStatus
	if h.devices != nil {
		devices = h.devices.GetAllDevices
	}
	h.router.GET("/", gin.WrapF(web.StatusPageHandler(h.kiosk.Status, devices)))

	if h.devices != nil {
		h.router.GET("/devices", func(c *gin.Context) {
			c.JSON(http.StatusOK, h.devices.GetAllDevices())
		})
		h.router.GET("/devices/summary", func(c *gin.Context) {
			c.JSON(http.StatusOK, h.devices.Summary())
		})
	}

	if h.wsHub != nil {
		SetupWebSocketRoutes(h.router, h.wsHub)
	}
}

// Start registra las rutas y atiende peticiones hasta que se cancele ctx
func (h *HTTPFrontend) Start(ctx context.Context) error {
	h.server = &http.Server{
		Addr:              h.addr,
		Handler:           h.GetRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🌐 Servidor HTTP escuchando en %s", h.addr)
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("error en servidor HTTP: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error cerrando servidor HTTP: %w", err)
	}
	log.Println("🛑 Servidor HTTP detenido")
	return nil
}
