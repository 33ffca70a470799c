package camera

// ApplyColorFilter realza rosa y azul antes de clasificar.
//
// Rosa (R>100, G<120, B<120): R+50, saturado en 255.
// Azul (B>70 y B supera a R y G por más de 40): B=255, R y G -30 con piso en 0.
// El resto de los pixeles no se modifica.
func ApplyColorFilter(f *Frame) {
	data := f.Data
	for i := 0; i+2 < len(data); i += BytesPerPixel {
		r, g, b := int(data[i]), int(data[i+1]), int(data[i+2])

		switch {
		case r > 100 && g < 120 && b < 120:
			data[i] = uint8(min(r+50, 255))
		case b > 70 && b > r+40 && b > g+40:
			data[i] = uint8(max(r-30, 0))
			data[i+1] = uint8(max(g-30, 0))
			data[i+2] = 255
		}
	}
}
