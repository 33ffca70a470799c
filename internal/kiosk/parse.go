package kiosk

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"ecobins-kiosk/internal/models"
)

const weightTextPrefix = "peso:"

func parseQR(payload []byte) string {
	return strings.TrimSpace(string(payload))
}

func parseCommand(payload []byte) string {
	return strings.TrimSpace(string(payload))
}

// parseWeight acepta {"peso": <número>} o un texto que contenga "peso:<entero>"
// (se usa la primera aparición, con signo opcional). Los decimales se truncan.
// Las lecturas negativas se descartan. Retorna false si ninguna forma aplica.
func parseWeight(payload []byte) (int, bool) {
	var msg struct {
		Peso *float64 `json:"peso"`
	}
	if err := json.Unmarshal(payload, &msg); err == nil && msg.Peso != nil {
		if math.IsNaN(*msg.Peso) || *msg.Peso < 0 || *msg.Peso > math.MaxInt32 {
			return 0, false
		}
		return int(*msg.Peso), true
	}

	text := string(payload)
	idx := indexFold(text, weightTextPrefix)
	if idx < 0 {
		return 0, false
	}
	n, ok := leadingInt(strings.TrimSpace(text[idx+len(weightTextPrefix):]))
	if !ok || n < 0 {
		return 0, false
	}
	return n, true
}

// indexFold es strings.Index sin distinguir mayúsculas, con índices sobre s
func indexFold(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}

// leadingInt lee un entero con signo opcional al inicio ("12g" → 12, "-3" → -3)
func leadingInt(s string) (int, bool) {
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseColor acepta {"color": "<etiqueta>"}, un mapa etiqueta→confianza
// (se toma la de mayor confianza) o el texto "color:<etiqueta>".
func parseColor(payload []byte) (models.ColorCode, bool) {
	var msg struct {
		Color *string `json:"color"`
	}
	if err := json.Unmarshal(payload, &msg); err == nil && msg.Color != nil {
		return models.ColorFromLabel(*msg.Color)
	}

	var scores map[string]float64
	if err := json.Unmarshal(payload, &scores); err == nil && len(scores) > 0 {
		return bestLabel(scores)
	}

	text := strings.TrimSpace(string(payload))
	if strings.HasPrefix(strings.ToLower(text), "color:") {
		text = text[len("color:"):]
	}
	return models.ColorFromLabel(text)
}

func bestLabel(scores map[string]float64) (models.ColorCode, bool) {
	var (
		best  models.ColorCode
		score = -1.0
	)
	for label, v := range scores {
		code, ok := models.ColorFromLabel(label)
		if !ok {
			continue
		}
		if v > score || (v == score && code < best) {
			best, score = code, v
		}
	}
	return best, score >= 0
}
