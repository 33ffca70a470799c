package backend_test

import (
	"context"
	"fmt"
	"time"

	"ecobins-kiosk/internal/communication/backend"
)

// ExampleClient_CheckTag demuestra cómo autorizar una tarjeta
func ExampleClient_CheckTag() {
	client := backend.NewClient("http://127.0.0.1:8888", 5*time.Second)
	defer client.Close()

	auth, err := client.CheckTag(context.Background(), "deadbeef")
	if err != nil {
		fmt.Printf("Error servidor: %s\n", backend.FormatError(err))
		return
	}

	if auth.Authorized {
		fmt.Printf("Bienvenido %s\n", auth.User.Nombre)
		return
	}
	fmt.Println("Usuario no auth")
}

// ExampleClient_OpenAllowed demuestra la consulta de capacidad
func ExampleClient_OpenAllowed() {
	client := backend.NewClient("http://127.0.0.1:8888", 5*time.Second)
	defer client.Close()

	if client.OpenAllowed(context.Background()) {
		fmt.Println("Motor ON")
		return
	}
	fmt.Println("Capacidad llena")
}

// ExampleIsRetryable demuestra cómo manejar errores reintentables
func ExampleIsRetryable() {
	client := backend.NewClient("http://127.0.0.1:8888", time.Second)
	defer client.Close()

	ctx := context.Background()
	maxRetries := 3

	for i := 0; i < maxRetries; i++ {
		err := client.Ping(ctx)
		if err == nil {
			fmt.Println("API disponible")
			return
		}

		if backend.IsRetryable(err) {
			fmt.Printf("Intento %d/%d falló, reintentando...\n", i+1, maxRetries)
			time.Sleep(time.Second * time.Duration(i+1))
			continue
		}

		fmt.Printf("Error no reintentable: %s\n", backend.FormatError(err))
		return
	}

	fmt.Println("Máximo de reintentos alcanzado")
}
