package recognition

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"

	"parking-service/internal/model"
)

func uniformImage(c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func TestClassifyVehicle(t *testing.T) {
	cases := []struct {
		name  string
		color color.Color
		want  model.VehicleClass
	}{
		{"white plate is private", color.RGBA{R: 220, G: 220, B: 220, A: 255}, model.VehicleClassPrivate},
		{"yellow plate is commercial", color.RGBA{R: 255, G: 220, B: 0, A: 255}, model.VehicleClassCommercial},
		{"green plate is electric", color.RGBA{R: 0, G: 200, B: 0, A: 255}, model.VehicleClassElectric},
		{"blue plate falls back to private", color.RGBA{R: 0, G: 0, B: 200, A: 255}, model.VehicleClassPrivate},
		{"black plate falls back to private", color.RGBA{R: 10, G: 10, B: 10, A: 255}, model.VehicleClassPrivate},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyVehicle(uniformImage(tc.color)))
		})
	}
}

func TestClassifyVehicleEmptyCrop(t *testing.T) {
	empty := image.NewRGBA(image.Rect(0, 0, 0, 0))
	assert.Equal(t, model.VehicleClassPrivate, ClassifyVehicle(empty))
}
