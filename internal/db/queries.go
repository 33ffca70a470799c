package db

// Diario del kiosko (solo escritura)
const CREATE_KIOSK_JOURNAL = `
	CREATE TABLE IF NOT EXISTS kiosk_journal (
		id          UUID PRIMARY KEY,
		kind        VARCHAR(16) NOT NULL,
		bin_id      INTEGER NOT NULL,
		uid         VARCHAR(32) NOT NULL,
		username    VARCHAR(128),
		qr          VARCHAR(128),
		peso        INTEGER,
		color       SMALLINT,
		tipo        VARCHAR(16),
		puntos      INTEGER,
		created_at  TIMESTAMPTZ NOT NULL
	);
`

const INSERT_KIOSK_JOURNAL = `
	INSERT INTO kiosk_journal (id, kind, bin_id, uid, username, qr, peso, color, tipo, puntos, created_at)
	VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, NULLIF($9, ''), $10, $11)
	ON CONFLICT (id) DO NOTHING
`

// Tablas del backend simulado
const CREATE_TARJETA = `
	CREATE TABLE IF NOT EXISTS tarjeta (
		uid     VARCHAR(32) PRIMARY KEY,
		nombre  VARCHAR(128) NOT NULL,
		activa  BOOLEAN NOT NULL DEFAULT true
	);
`

const CREATE_CONTENEDOR = `
	CREATE TABLE IF NOT EXISTS contenedor (
		id                INTEGER PRIMARY KEY,
		capacidad_maxima  DOUBLE PRECISION NOT NULL,
		carga_actual      DOUBLE PRECISION NOT NULL DEFAULT 0
	);
`

const UPSERT_TARJETA = `
	INSERT INTO tarjeta (uid, nombre, activa)
	VALUES ($1, $2, true)
	ON CONFLICT (uid) DO UPDATE SET nombre = EXCLUDED.nombre
`

const UPSERT_CONTENEDOR = `
	INSERT INTO contenedor (id, capacidad_maxima, carga_actual)
	VALUES ($1, $2, $3)
	ON CONFLICT (id) DO NOTHING
`

const SELECT_TARJETA_BY_UID = `
	SELECT nombre
	FROM tarjeta
	WHERE uid = $1 AND activa = true
`

const SELECT_CONTENEDOR_BY_ID = `
	SELECT capacidad_maxima, carga_actual
	FROM contenedor
	WHERE id = $1
`

const ADD_CARGA_CONTENEDOR = `
	UPDATE contenedor
	SET carga_actual = carga_actual + $2
	WHERE id = $1
`
