package backend

const (
	// EndpointHealth consulta si una tarjeta RFID está autorizada
	// Path: /health/<uid> (uid en hex minúsculas, sin separadores)
	// Respuesta: {"authorized": bool, "user": {"nombre": string}}
	// Sin uid funciona como health check de la API
	EndpointHealth = "/health"

	// EndpointCapacity consulta si el contenedor admite más residuos
	// Respuesta: {"bloqueo": 0|1|bool, "lleno": bool, ...}
	EndpointCapacity = "/capacity/"
)
