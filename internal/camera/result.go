package camera

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Modos de salida del nodo
const (
	ModeDetection      = "detection"
	ModeClassification = "classification"
)

// Box es una detección con su confianza y posición en el frame
type Box struct {
	Label  string  `msgpack:"label"`
	Value  float64 `msgpack:"value"`
	X      int     `msgpack:"x"`
	Y      int     `msgpack:"y"`
	Width  int     `msgpack:"width"`
	Height int     `msgpack:"height"`
}

// Classification es la confianza de una etiqueta
type Classification struct {
	Label string
	Value float64
}

// InferenceResult es la salida del clasificador para un frame
type InferenceResult struct {
	Boxes           []Box
	Classifications []Classification // en orden de etiquetas
	Timing          map[string]float64
}

// BestBox retorna la detección de mayor confianza ignorando las de valor 0.
// Ante empate gana la primera.
func (r InferenceResult) BestBox() (Box, bool) {
	var best Box
	found := false
	maxValue := 0.0
	for _, b := range r.Boxes {
		if b.Value <= 0 {
			continue
		}
		if b.Value > maxValue {
			maxValue = b.Value
			best = b
			found = true
		}
	}
	return best, found
}

// BuildPayload arma el JSON que se publica en el tópico de colores.
// En modo detección retorna false si no hubo ninguna caja con confianza.
func BuildPayload(mode string, r InferenceResult) ([]byte, bool) {
	if mode == ModeClassification {
		return classificationPayload(r.Classifications), true
	}

	best, ok := r.BestBox()
	if !ok {
		return nil, false
	}
	payload, err := json.Marshal(struct {
		Color string `json:"color"`
	}{best.Label})
	if err != nil {
		return nil, false
	}
	return payload, true
}

// {"azul":0.91234, "gris":0.05000, "rosa":0.03766}
func classificationPayload(cs []Classification) []byte {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, c := range cs {
		label, _ := json.Marshal(c.Label)
		sb.Write(label)
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatFloat(c.Value, 'f', 5, 64))
		if i < len(cs)-1 {
			sb.WriteString(", ")
		}
	}
	sb.WriteByte('}')
	return []byte(sb.String())
}

// classificationsFromMap ordena por etiqueta un mapa etiqueta → confianza
func classificationsFromMap(m map[string]float64) []Classification {
	out := make([]Classification, 0, len(m))
	for label, v := range m {
		out = append(out, Classification{Label: label, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}
