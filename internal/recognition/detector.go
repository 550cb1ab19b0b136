package recognition

import (
	"context"
	"image"
)

// Box is a detection bounding box in frame pixel coordinates.
type Box struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Detection is one plate candidate region proposed by the detection model.
type Detection struct {
	Box        Box     `json:"box"`
	Confidence float64 `json:"confidence"`
}

// Detector runs the external plate-detection model on a frame.
type Detector interface {
	Detect(ctx context.Context, frame image.Image) ([]Detection, error)
}

// padBox expands a detection box by padding pixels on every side, clamped to
// the frame bounds.
func padBox(b Box, padding int, bounds image.Rectangle) image.Rectangle {
	r := image.Rect(b.X1-padding, b.Y1-padding, b.X2+padding, b.Y2+padding)
	return r.Intersect(bounds)
}
