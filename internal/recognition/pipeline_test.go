package recognition

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-service/internal/model"
)

type stubDetector struct {
	detections []Detection
	err        error
}

func (d stubDetector) Detect(context.Context, image.Image) ([]Detection, error) {
	return d.detections, d.err
}

type stubOCR struct {
	byMode map[Mode]string
}

func (o stubOCR) Recognize(_ context.Context, _ image.Image, mode Mode) (string, error) {
	return o.byMode[mode], nil
}

func whiteFrame() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 100, 60))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func TestPipelineRecognizesPlate(t *testing.T) {
	detector := stubDetector{detections: []Detection{
		{Box: Box{X1: 10, Y1: 10, X2: 70, Y2: 40}, Confidence: 0.82},
	}}
	ocr := stubOCR{byMode: map[Mode]string{ModeSingleWord: "MH19EQ0009"}}

	p := NewPipeline(detector, ocr, zerolog.Nop())
	res, ok := p.Process(context.Background(), whiteFrame(), LivePadding)

	require.True(t, ok)
	assert.Equal(t, "MH 19 EQ 0009", res.Plate)
	assert.Equal(t, "MH19EQ0009", res.RawText)
	assert.Equal(t, model.VehicleClassPrivate, res.Class)
	assert.InDelta(t, 0.82, res.Confidence, 1e-9)
}

func TestPipelineRejectsLowConfidence(t *testing.T) {
	detector := stubDetector{detections: []Detection{
		{Box: Box{X1: 10, Y1: 10, X2: 70, Y2: 40}, Confidence: 0.4},
	}}
	ocr := stubOCR{byMode: map[Mode]string{ModeSingleWord: "MH19EQ0009"}}

	p := NewPipeline(detector, ocr, zerolog.Nop())
	_, ok := p.Process(context.Background(), whiteFrame(), LivePadding)
	assert.False(t, ok)
}

func TestPipelineRejectsShortReadings(t *testing.T) {
	detector := stubDetector{detections: []Detection{
		{Box: Box{X1: 10, Y1: 10, X2: 70, Y2: 40}, Confidence: 0.9},
	}}
	ocr := stubOCR{byMode: map[Mode]string{ModeSingleWord: "MH19"}}

	p := NewPipeline(detector, ocr, zerolog.Nop())
	_, ok := p.Process(context.Background(), whiteFrame(), LivePadding)
	assert.False(t, ok)
}

func TestPipelineKeepsLongestCandidate(t *testing.T) {
	detector := stubDetector{detections: []Detection{
		{Box: Box{X1: 10, Y1: 10, X2: 70, Y2: 40}, Confidence: 0.9},
	}}
	ocr := stubOCR{byMode: map[Mode]string{
		ModeSingleWord: "MH19EQ",
		ModeSingleLine: "MH19EQ0009",
		ModeRawLine:    "MH19EQ00",
	}}

	p := NewPipeline(detector, ocr, zerolog.Nop())
	res, ok := p.Process(context.Background(), whiteFrame(), LivePadding)

	require.True(t, ok)
	assert.Equal(t, "MH 19 EQ 0009", res.Plate)
}

func TestPipelineEmptyFrameYieldsNothing(t *testing.T) {
	p := NewPipeline(stubDetector{}, stubOCR{}, zerolog.Nop())
	_, ok := p.Process(context.Background(), whiteFrame(), LivePadding)
	assert.False(t, ok)
}
