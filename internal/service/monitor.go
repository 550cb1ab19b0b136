package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"parking-service/internal/clock"
	"parking-service/internal/model"
	"parking-service/internal/recognition"
	"parking-service/internal/repository"
	"parking-service/internal/store"
	"parking-service/internal/utils"
)

// FrameSource yields camera frames for the live monitor and on-demand
// captures.
type FrameSource interface {
	Frame(ctx context.Context) (image.Image, error)
}

// Monitor drives the live recognition loop: it polls the camera, runs frames
// through the recognition pipeline under a cooldown, resolves sessions and
// issues payment links.
type Monitor struct {
	frames   FrameSource
	pipeline *recognition.Pipeline
	cooldown *recognition.Cooldown
	sessions *SessionService
	pricing  *PricingEngine
	payments *PaymentService
	store    store.Store
	events   *repository.RecognitionRepository
	clock    clock.Clock

	frameInterval time.Duration
	linkDelay     time.Duration

	// lifetime outlives any single caller. Delayed link issuance runs on it
	// so that a finished HTTP request does not cancel the pending link.
	lifetime context.Context

	log zerolog.Logger
}

// MonitorDeps bundles the monitor collaborators. Events may be nil when the
// relational audit log is disabled; Lifetime defaults to context.Background.
type MonitorDeps struct {
	Frames   FrameSource
	Pipeline *recognition.Pipeline
	Cooldown *recognition.Cooldown
	Sessions *SessionService
	Pricing  *PricingEngine
	Payments *PaymentService
	Store    store.Store
	Events   *repository.RecognitionRepository
	Clock    clock.Clock

	FrameInterval time.Duration
	LinkDelay     time.Duration
	Lifetime      context.Context
}

func NewMonitor(deps MonitorDeps, log zerolog.Logger) *Monitor {
	lifetime := deps.Lifetime
	if lifetime == nil {
		lifetime = context.Background()
	}
	return &Monitor{
		frames:        deps.Frames,
		pipeline:      deps.Pipeline,
		cooldown:      deps.Cooldown,
		sessions:      deps.Sessions,
		pricing:       deps.Pricing,
		payments:      deps.Payments,
		store:         deps.Store,
		events:        deps.Events,
		clock:         deps.Clock,
		frameInterval: deps.FrameInterval,
		linkDelay:     deps.LinkDelay,
		lifetime:      lifetime,
		log:           log,
	}
}

// Run polls the camera until the context is cancelled. Frame errors are
// logged and the loop keeps going.
func (m *Monitor) Run(ctx context.Context) {
	m.log.Info().
		Dur("frame_interval", m.frameInterval).
		Msg("frame monitor started")

	ticker := time.NewTicker(m.frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("frame monitor stopped")
			return
		case <-ticker.C:
			m.processFrame(ctx)
		}
	}
}

func (m *Monitor) processFrame(ctx context.Context) {
	frame, err := m.frames.Frame(ctx)
	if err != nil {
		m.log.Debug().Err(err).Msg("failed to fetch camera frame")
		return
	}

	// Каждый кадр уменьшает счётчик; распознавание только при нулевом.
	m.cooldown.Tick()
	if !m.cooldown.Ready() {
		return
	}

	res, ok := m.pipeline.Process(ctx, frame, recognition.LivePadding)
	if !ok {
		return
	}
	m.cooldown.Arm()
	m.handleRecognition(ctx, res, "live")
}

// CaptureResult is the outcome of an on-demand capture. Session and Quote are
// nil when the plate has no active booking.
type CaptureResult struct {
	Plate      string             `json:"plate"`
	Class      model.VehicleClass `json:"vehicleType"`
	Confidence float64            `json:"confidence"`
	Session    *model.Session     `json:"session,omitempty"`
	Quote      *Quote             `json:"quote,omitempty"`
}

// Capture grabs a single frame on demand and runs the full recognition flow,
// bypassing the cooldown. A frame with no usable plate returns ErrNoPlate.
func (m *Monitor) Capture(ctx context.Context) (*CaptureResult, error) {
	frame, err := m.frames.Frame(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch camera frame: %w", err)
	}

	res, ok := m.pipeline.Process(ctx, frame, recognition.CapturePadding)
	if !ok {
		return nil, ErrNoPlate
	}

	out := &CaptureResult{
		Plate:      res.Plate,
		Class:      res.Class,
		Confidence: res.Confidence,
	}
	m.recordDetection(ctx, res, "capture")

	session, err := m.sessions.FindActiveByPlate(ctx, res.Plate)
	switch {
	case errors.Is(err, ErrNoSession):
		return out, nil
	case err != nil:
		return nil, err
	}

	quote := m.pricing.Quote(res.Class, session)
	out.Session = session
	out.Quote = &quote
	m.scheduleLink(res, session, quote)
	return out, nil
}

func (m *Monitor) handleRecognition(ctx context.Context, res *recognition.Result, source string) {
	m.recordDetection(ctx, res, source)

	session, err := m.sessions.FindActiveByPlate(ctx, res.Plate)
	if errors.Is(err, ErrNoSession) {
		return
	}
	if err != nil {
		m.log.Error().Err(err).Str("plate", res.Plate).Msg("failed to resolve session")
		return
	}

	quote := m.pricing.Quote(res.Class, session)
	m.scheduleLink(res, session, quote)
}

// scheduleLink issues the payment link after a short delay so the customer
// notification lands once the vehicle has come to a stop. The goroutine runs
// on the monitor lifetime, not the caller's context: an HTTP capture request
// finishes long before the delay elapses.
func (m *Monitor) scheduleLink(res *recognition.Result, session *model.Session, quote Quote) {
	go func() {
		select {
		case <-m.lifetime.Done():
			return
		case <-m.clock.After(m.linkDelay):
		}

		_, err := m.payments.IssueLink(m.lifetime, IssueLinkInput{
			Plate:   res.Plate,
			Class:   res.Class,
			Quote:   quote,
			Phone:   session.Phone,
			Email:   session.Email,
			Session: session,
		})
		switch {
		case errors.Is(err, ErrInvalidInput):
			m.log.Warn().Err(err).Str("plate", res.Plate).Msg("payment link skipped")
		case err != nil:
			m.log.Error().Err(err).Str("plate", res.Plate).Msg("failed to issue payment link")
		}
	}()
}

// recordDetection writes the detection audit trail: a live entry in the store
// and, when configured, a row in the relational event log.
func (m *Monitor) recordDetection(ctx context.Context, res *recognition.Result, source string) {
	now := m.clock.Now()

	detection := model.DetectedPlate{
		PlateNumber: res.Plate,
		VehicleType: res.Class,
		Confidence:  res.Confidence,
		DetectedAt:  model.FormatTimestamp(now),
	}
	if err := m.store.Set(ctx, store.PathDetectedPlates+"/"+uuid.NewString(), detection); err != nil {
		m.log.Error().Err(err).Str("plate", res.Plate).Msg("failed to record detection")
	}

	if m.events == nil {
		return
	}

	normalized := utils.NormalizePlate(res.Plate)
	plateID, err := m.events.GetOrCreatePlate(ctx, normalized, res.Plate)
	if err != nil {
		m.log.Error().Err(err).Str("plate", res.Plate).Msg("failed to upsert plate")
		return
	}

	class := string(res.Class)
	confidence := res.Confidence
	event := &repository.RecognitionEvent{
		PlateID:         &plateID,
		RawText:         res.RawText,
		NormalizedPlate: normalized,
		FormattedPlate:  res.Plate,
		VehicleClass:    &class,
		Confidence:      &confidence,
		Source:          source,
		EventTime:       now.UTC(),
		RawPayload: datatypes.JSONMap{
			"plate":      res.Plate,
			"rawText":    res.RawText,
			"confidence": res.Confidence,
			"source":     source,
		},
	}
	if err := m.events.CreateEvent(ctx, event); err != nil {
		m.log.Error().Err(err).Str("plate", res.Plate).Msg("failed to record recognition event")
	}
}
