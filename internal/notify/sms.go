package notify

import (
	"context"

	"github.com/rs/zerolog"

	"parking-service/internal/clock"
	"parking-service/internal/model"
	"parking-service/internal/store"
)

// SMSSender delivers a short message to a phone number.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}

// LogSMS is the stub SMS gateway: it logs the message and records the
// best-effort system/lastSMS audit fields. No carrier is wired up yet.
type LogSMS struct {
	store store.Store
	clock clock.Clock
	log   zerolog.Logger
}

func NewLogSMS(st store.Store, clk clock.Clock, log zerolog.Logger) *LogSMS {
	return &LogSMS{
		store: st,
		clock: clk,
		log:   log,
	}
}

func (s *LogSMS) Send(ctx context.Context, phone, message string) error {
	if phone == "" {
		s.log.Debug().Msg("sms skipped, no phone number provided")
		return nil
	}

	s.log.Info().Str("phone", phone).Str("message", message).Msg("sms sent")

	err := s.store.Update(ctx, store.PathSystem, map[string]any{
		"lastSMS":     "SMS sent to " + phone,
		"lastSMSTime": model.FormatTimestamp(s.clock.Now()),
	})
	if err != nil {
		// Audit only, delivery already logged.
		s.log.Warn().Err(err).Msg("failed to record sms audit fields")
	}
	return nil
}
