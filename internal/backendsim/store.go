package backendsim

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"ecobins-kiosk/internal/db"
	"ecobins-kiosk/internal/models"
)

// Store es el origen de tarjetas y contenedores del backend simulado.
// *db.PostgresManager lo implementa contra las tablas tarjeta/contenedor.
type Store interface {
	LookupCard(ctx context.Context, uid string) (string, bool, error)
	GetContenedor(ctx context.Context, id int) (models.Contenedor, error)
	AddCarga(ctx context.Context, id int, kg float64) error
}

// MemoryStore guarda tarjetas y contenedores en memoria
type MemoryStore struct {
	mu           sync.RWMutex
	cards        map[string]string
	contenedores map[int]models.Contenedor
}

// NewMemoryStore crea el store con las tarjetas (uid → nombre) y contenedores dados
func NewMemoryStore(cards map[string]string, contenedores ...models.Contenedor) *MemoryStore {
	s := &MemoryStore{
		cards:        make(map[string]string, len(cards)),
		contenedores: make(map[int]models.Contenedor, len(contenedores)),
	}
	for uid, nombre := range cards {
		s.cards[strings.ToLower(uid)] = nombre
	}
	for _, c := range contenedores {
		s.contenedores[c.ID] = c
	}
	return s
}

func (s *MemoryStore) LookupCard(_ context.Context, uid string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nombre, ok := s.cards[strings.ToLower(uid)]
	return nombre, ok, nil
}

func (s *MemoryStore) GetContenedor(_ context.Context, id int) (models.Contenedor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contenedores[id]
	if !ok {
		return models.Contenedor{ID: id}, fmt.Errorf("%w: contenedor %d", db.ErrNotFound, id)
	}
	return c, nil
}

func (s *MemoryStore) AddCarga(_ context.Context, id int, kg float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contenedores[id]
	if !ok {
		return fmt.Errorf("%w: contenedor %d", db.ErrNotFound, id)
	}
	c.CargaActual += kg
	s.contenedores[id] = c
	return nil
}
