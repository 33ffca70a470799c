// Package backend proporciona un cliente HTTP para la API REST de EcoBins
// que consulta el kiosko de reciclaje.
//
// La API permite:
//   - Verificar si una tarjeta RFID pertenece a un usuario autorizado
//   - Consultar si el contenedor admite más residuos (capacidad/bloqueo)
//
// Ejemplo de uso básico:
//
//	client := backend.NewClient("http://127.0.0.1:8888", 5*time.Second)
//	defer client.Close()
//
//	// Autorizar tarjeta
//	auth, err := client.CheckTag(context.Background(), "deadbeef")
//	if err != nil {
//	    log.Printf("Error servidor: %s", backend.FormatError(err))
//	}
//
//	// Consultar capacidad (falla cerrado)
//	if !client.OpenAllowed(context.Background()) {
//	    log.Println("Capacidad llena")
//	}
package backend
