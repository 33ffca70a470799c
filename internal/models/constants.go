package models

// Comandos y códigos especiales recibidos por MQTT
const (
	MOTOR_CMD_OPEN  = "OPEN"
	MOTOR_CMD_CLOSE = "CLOSE"
	INVALID_QR_CODE = "INVALID QR"

	ACCESS_LOGIN  = "LOGIN"
	ACCESS_LOGOUT = "LOGOUT"
)

// Tópicos por defecto
const (
	DEFAULT_TOPIC_MOTOR    = "acceso/motor"
	DEFAULT_TOPIC_COLORS   = "proyecto/micro/colores"
	DEFAULT_TOPIC_QR       = "proyecto/micro/qr"
	DEFAULT_TOPIC_SENSORS  = "proyecto/micro/sensores"
	DEFAULT_TOPIC_ACCESS   = "acceso/usuario"
	DEFAULT_TOPIC_RECYCLED = "proyecto/micro/puntos"
)

// Mensajes de la pantalla (16x2)
const (
	MSG_IDLE            = "Esperando tarjeta"
	MSG_SESSION_BUSY    = "Ya hay sesion"
	MSG_SERVER_ERROR    = "Error servidor"
	MSG_AUTH_DENIED     = "Usuario no auth"
	MSG_WELCOME         = "Bienvenido"
	MSG_SCAN_QR         = "Escanea QR"
	MSG_BYE             = "Hasta luego"
	MSG_SESSION_CLOSED  = "Sesion cerrada"
	MSG_INVALID_QR      = "QR invalido"
	MSG_READ_AGAIN      = "lealo de nuevo"
	MSG_QR_OK           = "QR"
	MSG_WEIGHT_OK       = "Peso medido"
	MSG_RECYCLED        = "Reciclada +%d pts"
	MSG_PLACE_BAG       = "Bolsa y boton"
	MSG_PRESS_FOR_COLOR = "Boton p/color"
	MSG_PRESS_BUTTON    = "y pulsa boton"
	MSG_WEIGHT          = "Peso:"
	MSG_COLOR           = "Color:"
	MSG_RECYCLING       = "Reciclando..."
	MSG_CAPACITY_FULL   = "Capacidad llena"
	MSG_MOTOR_OFF       = "Motor OFF"
	MSG_MOTOR_ON        = "Motor ON"
	MSG_CONFIRM_RECYCLE = "Pulsa p/reciclar"
)
