package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"ecobins-kiosk/internal/models"
)

// ErrNotFound se retorna cuando la fila buscada no existe
var ErrNotFound = errors.New("db: registro no encontrado")

// InsertJournalEntry guarda un registro del diario del kiosko.
// Reintentar con el mismo ID no duplica la fila.
func (m *PostgresManager) InsertJournalEntry(ctx context.Context, e models.JournalEntry) error {
	_, err := m.pool.Exec(ctx, INSERT_KIOSK_JOURNAL,
		e.ID, string(e.Kind), e.BinID, e.UID, e.Username, e.QR,
		e.Peso, int(e.Color), e.Tipo, e.Puntos, e.Timestamp)
	if err != nil {
		return fmt.Errorf("db: error insertando registro %s (%s): %w", e.ID, e.Kind, err)
	}
	return nil
}

// LookupCard retorna el nombre del dueño de una tarjeta activa
func (m *PostgresManager) LookupCard(ctx context.Context, uid string) (string, bool, error) {
	var nombre string
	err := m.pool.QueryRow(ctx, SELECT_TARJETA_BY_UID, uid).Scan(&nombre)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("db: error consultando tarjeta %s: %w", uid, err)
	}
	return nombre, true, nil
}

// GetContenedor retorna capacidad y carga de un contenedor
func (m *PostgresManager) GetContenedor(ctx context.Context, id int) (models.Contenedor, error) {
	c := models.Contenedor{ID: id}
	err := m.pool.QueryRow(ctx, SELECT_CONTENEDOR_BY_ID, id).Scan(&c.CapacidadMaxima, &c.CargaActual)
	if errors.Is(err, pgx.ErrNoRows) {
		return c, fmt.Errorf("%w: contenedor %d", ErrNotFound, id)
	}
	if err != nil {
		return c, fmt.Errorf("db: error consultando contenedor %d: %w", id, err)
	}
	return c, nil
}

// AddCarga suma kg a la carga actual del contenedor
func (m *PostgresManager) AddCarga(ctx context.Context, id int, kg float64) error {
	tag, err := m.pool.Exec(ctx, ADD_CARGA_CONTENEDOR, id, kg)
	if err != nil {
		return fmt.Errorf("db: error actualizando carga del contenedor %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: contenedor %d", ErrNotFound, id)
	}
	return nil
}

// SeedSimulator crea las tablas del backend simulado y carga tarjetas y contenedor
func (m *PostgresManager) SeedSimulator(ctx context.Context, cards map[string]string, c models.Contenedor) error {
	if err := m.EnsureSchema(ctx, CREATE_TARJETA, CREATE_CONTENEDOR); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for uid, nombre := range cards {
		batch.Queue(UPSERT_TARJETA, uid, nombre)
	}
	batch.Queue(UPSERT_CONTENEDOR, c.ID, c.CapacidadMaxima, c.CargaActual)

	br := m.pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("db: error cargando datos del simulador: %w", err)
		}
	}
	return nil
}
