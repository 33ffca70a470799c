package web

import (
	"fmt"
	"html"
	"net/http"

	"ecobins-kiosk/internal/models"
)

// StatusPageHandler sirve una página con el estado del kiosko y sus dispositivos.
// devices puede ser nil si no hay monitor.
func StatusPageHandler(status func() models.KioskStatus, devices func() []models.DeviceStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := status()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")

		fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="es">
<head>
	<meta charset="UTF-8">
	<meta http-equiv='refresh' content='2'>
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Kiosko #%d</title>
	<style>
		body {
			font-family: 'Segoe UI', Arial, sans-serif;
			background: linear-gradient(120deg, #e0f2e9 0%%, #cfe8dc 100%%);
			margin: 0;
			padding: 0;
		}
		.container {
			max-width: 900px;
			margin: 40px auto;
			background: #fff;
			border-radius: 16px;
			box-shadow: 0 4px 24px rgba(0,0,0,0.08);
			padding: 32px 24px;
		}
		h1, h2 {
			text-align: center;
			color: #2e7d32;
		}
		.lcd {
			font-family: monospace;
			font-size: 1.4em;
			background: #1b5e20;
			color: #c8e6c9;
			border-radius: 8px;
			padding: 12px 16px;
			margin: 0 auto 24px;
			width: 16em;
			white-space: pre;
		}
		table {
			width: 100%%;
			border-collapse: collapse;
			margin-bottom: 16px;
		}
		th, td {
			padding: 10px 8px;
			text-align: left;
		}
		th {
			background: #2e7d32;
			color: #fff;
			font-weight: 600;
		}
		tr:nth-child(even) {
			background: #f4fbf6;
		}
		.error {
			color: #d32f2f;
			font-weight: bold;
		}
		.ok {
			color: #388e3c;
			font-weight: bold;
		}
		.timestamp {
			font-size: 0.95em;
			color: #666;
		}
	</style>
</head>
<body>
	<div class="container">
		<h1>Kiosko EcoBins #%d</h1>
		<div class="lcd">%s
%s</div>
		<table>
			<tr><th>Campo</th><th>Valor</th></tr>
`, s.BinID, s.BinID, html.EscapeString(s.DisplayLine1), html.EscapeString(s.DisplayLine2))

		sesion := "<span class='error'>Sin sesión</span>"
		if s.Session.Authorized {
			sesion = fmt.Sprintf("<span class='ok'>%s</span> (%s)",
				html.EscapeString(s.Session.Username), html.EscapeString(s.Session.ActiveUID))
		}
		motor := "<span class='ok'>Reposo</span>"
		if s.MotorActive {
			motor = "<span class='error'>Activo</span>"
		}

		row(w, "Sesión", sesion)
		row(w, "Paso", s.Step.String())
		row(w, "Bolsa (QR)", html.EscapeString(s.Record.QR))
		row(w, "Bolsa (peso / color)", fmt.Sprintf("%d / %s", s.Record.Weight, s.Record.Color))
		row(w, "Lectura de peso", fmt.Sprintf("%d", s.LiveWeight))
		row(w, "Lectura de color", s.LiveColor.String())
		row(w, "Motor", motor)
		row(w, "Actualizado", fmt.Sprintf("<span class='timestamp'>%s</span>", s.UpdatedAt.Format("2006-01-02 15:04:05")))
		fmt.Fprint(w, "\t\t</table>\n")

		if devices != nil {
			fmt.Fprint(w, `		<h2>Dispositivos</h2>
		<table>
			<tr><th>Dispositivo</th><th>Tipo</th><th>Dirección</th><th>Estado</th><th>Último chequeo</th></tr>
`)
			for _, d := range devices() {
				estado := fmt.Sprintf("<span class='ok'>OK (%d ms)</span>", d.ResponseTimeMs)
				if d.IsDisconnected {
					estado = "<span class='error'>Desconectado</span>"
				}
				fmt.Fprintf(w, "\t\t\t<tr><td>%s</td><td>%s</td><td>%s:%d</td><td>%s</td><td class='timestamp'>%s</td></tr>\n",
					html.EscapeString(d.DeviceName), d.DeviceType, html.EscapeString(d.IP), d.Port, estado,
					d.LastCheck.Format("15:04:05"))
			}
			fmt.Fprint(w, "\t\t</table>\n")
		}

		fmt.Fprint(w, `		<div style='text-align:center;color:#888;font-size:0.95em;'>Actualización automática cada 2 segundos</div>
	</div>
</body>
</html>`)
	}
}

func row(w http.ResponseWriter, campo, valor string) {
	fmt.Fprintf(w, "\t\t\t<tr><td>%s</td><td>%s</td></tr>\n", campo, valor)
}
