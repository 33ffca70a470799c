package models

// Umbrales de llenado del contenedor (porcentaje de la capacidad máxima)
const (
	UMBRAL_LLENO   = 75.0
	UMBRAL_BLOQUEO = 90.0
)

// Contenedor es el tacho físico tal como lo ve el backend
type Contenedor struct {
	ID              int     `json:"id"`
	CapacidadMaxima float64 `json:"capacidad_maxima"` // kg
	CargaActual     float64 `json:"carga_actual"`     // kg
}

// Porcentaje retorna el llenado en % (0 si no hay capacidad definida)
func (c Contenedor) Porcentaje() float64 {
	if c.CapacidadMaxima <= 0 {
		return 0
	}
	return c.CargaActual * 100 / c.CapacidadMaxima
}

// Lleno indica si el contenedor superó el umbral de aviso
func (c Contenedor) Lleno() bool {
	return c.Porcentaje() >= UMBRAL_LLENO
}

// Bloqueado indica si el contenedor ya no admite aperturas.
// Sin capacidad definida se considera bloqueado.
func (c Contenedor) Bloqueado() bool {
	if c.CapacidadMaxima <= 0 {
		return true
	}
	return c.Porcentaje() >= UMBRAL_BLOQUEO
}
