package recognition

import (
	"context"
	"image"
	"strings"

	"github.com/rs/zerolog"

	"parking-service/internal/model"
)

const (
	// MinConfidence is the detection score a box must clear to be read.
	MinConfidence = 0.5
	// MinCandidateLength drops OCR fragments too short to be a plate.
	MinCandidateLength = 6

	// LivePadding is the box expansion used on the continuous feed;
	// CapturePadding the wider one used for an on-demand capture.
	LivePadding    = 5
	CapturePadding = 10
)

// Result is one accepted plate reading.
type Result struct {
	Plate      string
	RawText    string
	Class      model.VehicleClass
	Confidence float64
}

// Pipeline turns a raw frame into a normalized plate, a vehicle class and a
// confidence score. It never fails upward: detection or OCR trouble is logged
// and degrades to "no result".
type Pipeline struct {
	detector Detector
	ocr      Engine
	log      zerolog.Logger
}

func NewPipeline(detector Detector, ocr Engine, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		detector: detector,
		ocr:      ocr,
		log:      log,
	}
}

// Process runs detection and OCR over one frame and returns the first
// accepted reading. ok is false when nothing cleared the thresholds.
func (p *Pipeline) Process(ctx context.Context, frame image.Image, padding int) (*Result, bool) {
	detections, err := p.detector.Detect(ctx, frame)
	if err != nil {
		p.log.Error().Err(err).Msg("plate detection failed")
		return nil, false
	}

	for _, det := range detections {
		if det.Confidence <= MinConfidence {
			continue
		}

		region := padBox(det.Box, padding, frame.Bounds())
		if region.Empty() {
			continue
		}
		crop := CropRegion(frame, region)

		raw, ok := p.readPlate(ctx, PrepareForOCR(crop))
		if !ok {
			continue
		}

		plate := FormatPlate(raw)
		if plate == "" {
			continue
		}
		class := ClassifyVehicle(crop)

		p.log.Info().
			Str("plate", plate).
			Str("raw_text", raw).
			Str("vehicle_class", string(class)).
			Float64("confidence", det.Confidence).
			Msg("plate recognized")

		return &Result{
			Plate:      plate,
			RawText:    raw,
			Class:      class,
			Confidence: det.Confidence,
		}, true
	}

	return nil, false
}

// readPlate collects candidates from all three OCR modes and keeps the
// longest one at least MinCandidateLength long; ties go to the mode tried
// first.
func (p *Pipeline) readPlate(ctx context.Context, prepared image.Image) (string, bool) {
	var best string
	for _, mode := range []Mode{ModeSingleWord, ModeSingleLine, ModeRawLine} {
		text, err := p.ocr.Recognize(ctx, prepared, mode)
		if err != nil {
			p.log.Debug().Err(err).Int("mode", int(mode)).Msg("ocr attempt failed")
			continue
		}
		text = strings.ReplaceAll(strings.TrimSpace(text), " ", "")
		if len(text) < MinCandidateLength {
			continue
		}
		if len(text) > len(best) {
			best = text
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}
