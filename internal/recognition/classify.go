package recognition

import (
	"image"

	"parking-service/internal/model"
)

// ClassifyVehicle infers the vehicle class from the plate background color.
// Thresholds use the OpenCV HSV scale (H in [0,180), S and V in [0,255]) that
// the heuristics were tuned against. Anything unclassifiable is treated as a
// private vehicle.
func ClassifyVehicle(crop image.Image) model.VehicleClass {
	h, s, v, ok := averageHSV(crop)
	if !ok {
		return model.VehicleClassPrivate
	}

	switch {
	case s < 40 && v > 150:
		// White plate.
		return model.VehicleClassPrivate
	case h > 20 && h < 40 && s > 100:
		// Yellow plate.
		return model.VehicleClassCommercial
	case h > 35 && h < 85 && s > 50:
		// Green plate.
		return model.VehicleClassElectric
	default:
		return model.VehicleClassPrivate
	}
}

func averageHSV(img image.Image) (h, s, v float64, ok bool) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return 0, 0, 0, false
	}

	var sumH, sumS, sumV float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			ph, ps, pv := rgbToHSV(uint8(r>>8), uint8(g>>8), uint8(b>>8))
			sumH += ph
			sumS += ps
			sumV += pv
		}
	}

	n := float64(bounds.Dx() * bounds.Dy())
	return sumH / n, sumS / n, sumV / n, true
}

// rgbToHSV converts to the OpenCV hue scale: H in [0,180), S and V in [0,255].
func rgbToHSV(r, g, b uint8) (h, s, v float64) {
	rf, gf, bf := float64(r), float64(g), float64(b)

	max := rf
	if gf > max {
		max = gf
	}
	if bf > max {
		max = bf
	}
	min := rf
	if gf < min {
		min = gf
	}
	if bf < min {
		min = bf
	}

	v = max
	delta := max - min

	if max > 0 {
		s = delta / max * 255
	}
	if delta == 0 {
		return 0, s, v
	}

	var deg float64
	switch max {
	case rf:
		deg = 60 * (gf - bf) / delta
	case gf:
		deg = 120 + 60*(bf-rf)/delta
	default:
		deg = 240 + 60*(rf-gf)/delta
	}
	if deg < 0 {
		deg += 360
	}
	return deg / 2, s, v
}
