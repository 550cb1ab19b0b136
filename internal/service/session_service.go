package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"parking-service/internal/model"
	"parking-service/internal/store"
	"parking-service/internal/utils"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoSession is the normal no-match outcome of a plate lookup, not a
	// failure.
	ErrNoSession = errors.New("no active session")
	// ErrNoPlate means a capture found nothing that cleared the thresholds.
	ErrNoPlate = errors.New("no number plate detected")
)

// SessionService resolves recognized plates against active reservations in
// the ledger.
type SessionService struct {
	store store.Store
	log   zerolog.Logger
}

func NewSessionService(st store.Store, log zerolog.Logger) *SessionService {
	return &SessionService{
		store: st,
		log:   log,
	}
}

// FindActiveByPlate matches a plate against active bookings, ignoring
// internal whitespace. The first active match wins; the reservation flow
// guarantees at most one active booking per plate.
func (s *SessionService) FindActiveByPlate(ctx context.Context, plate string) (*model.Session, error) {
	if utils.NormalizePlate(plate) == "" {
		return nil, fmt.Errorf("%w: plate is required", ErrInvalidInput)
	}

	var bookings map[string]model.Session
	if err := s.store.Get(ctx, store.PathBookings, &bookings); err != nil {
		return nil, fmt.Errorf("failed to read bookings: %w", err)
	}

	for id, booking := range bookings {
		if !booking.IsActive() {
			continue
		}
		if utils.PlatesEqual(booking.CarNumber, plate) {
			booking.ID = id
			s.log.Info().
				Str("booking_id", id).
				Str("plate", plate).
				Str("phone", booking.Phone).
				Str("email", booking.Email).
				Msg("active session found for plate")
			return &booking, nil
		}
	}

	s.log.Info().Str("plate", plate).Msg("no active session for plate")
	return nil, ErrNoSession
}
