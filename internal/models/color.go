package models

import "strings"

// ColorCode es el código de 2 bits que se envía al actuador del tacho
type ColorCode int

const (
	ColorAzul ColorCode = 1 // "01"
	ColorGris ColorCode = 2 // "10"
	ColorRosa ColorCode = 3 // "11"
)

// DefaultColor es el color cacheado al arrancar
const DefaultColor = ColorRosa

var colorNames = map[ColorCode]string{
	ColorAzul: "Azul",
	ColorGris: "Gris",
	ColorRosa: "Rosa",
}

// Tipo de residuo y factor de puntos asociado a cada color
var colorWaste = map[ColorCode]struct {
	Tipo   string
	Factor int
}{
	ColorAzul: {"PLASTICO", 5},
	ColorRosa: {"PAPEL", 3},
	ColorGris: {"VIDRIO", 2},
}

// Valid indica si el código es uno de los tres colores reconocidos
func (c ColorCode) Valid() bool {
	_, ok := colorNames[c]
	return ok
}

// String implementa fmt.Stringer
func (c ColorCode) String() string {
	if name, ok := colorNames[c]; ok {
		return name
	}
	return "Desconocido"
}

// WasteType retorna el tipo de residuo que el backend asocia al color
func (c ColorCode) WasteType() string {
	if w, ok := colorWaste[c]; ok {
		return w.Tipo
	}
	return "OTRO"
}

// Points calcula los puntos que el backend acreditará por un peso dado
func (c ColorCode) Points(peso int) int {
	factor := 1
	if w, ok := colorWaste[c]; ok {
		factor = w.Factor
	}
	return factor * peso
}

// ColorFromLabel convierte una etiqueta del clasificador en código de color.
// La comparación ignora mayúsculas y espacios.
func ColorFromLabel(label string) (ColorCode, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "azul":
		return ColorAzul, true
	case "gris":
		return ColorGris, true
	case "rosa":
		return ColorRosa, true
	}
	return 0, false
}
