package recognition

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
)

// Mode selects the page segmentation strategy for one OCR attempt. The
// pipeline tries all three per crop; plates photographed at an angle often
// read under one mode and not the others.
type Mode int

const (
	ModeSingleWord Mode = iota
	ModeSingleLine
	ModeRawLine
)

// Engine recognizes text in a preprocessed plate crop.
type Engine interface {
	Recognize(ctx context.Context, img image.Image, mode Mode) (string, error)
}

const plateWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// TesseractEngine reads plates with a local Tesseract installation.
type TesseractEngine struct{}

func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{}
}

func pageSegMode(mode Mode) gosseract.PageSegMode {
	switch mode {
	case ModeSingleLine:
		return gosseract.PSM_SINGLE_LINE
	case ModeRawLine:
		return gosseract.PSM_RAW_LINE
	default:
		return gosseract.PSM_SINGLE_WORD
	}
}

// Recognize runs one OCR attempt. A fresh client per call keeps page
// segmentation state isolated and makes the engine safe for concurrent use.
func (e *TesseractEngine) Recognize(_ context.Context, img image.Image, mode Mode) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetWhitelist(plateWhitelist); err != nil {
		return "", fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := client.SetPageSegMode(pageSegMode(mode)); err != nil {
		return "", fmt.Errorf("failed to set page seg mode: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode crop: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to load crop: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr failed: %w", err)
	}
	return text, nil
}
