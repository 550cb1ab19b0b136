package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"parking-service/internal/clock"
	"parking-service/internal/model"
	"parking-service/internal/notify"
	"parking-service/internal/store"
)

// Reminder periodically scans active bookings and notifies customers whose
// paid window has not yet expired. A reminder goes out on every cycle while
// time remains, not only near expiry.
type Reminder struct {
	store    store.Store
	mailer   notify.Mailer
	sms      notify.SMSSender
	clock    clock.Clock
	interval time.Duration
	backoff  time.Duration
	log      zerolog.Logger
}

func NewReminder(st store.Store, mailer notify.Mailer, sms notify.SMSSender, clk clock.Clock, interval, backoff time.Duration, log zerolog.Logger) *Reminder {
	return &Reminder{
		store:    st,
		mailer:   mailer,
		sms:      sms,
		clock:    clk,
		interval: interval,
		backoff:  backoff,
		log:      log,
	}
}

// Run loops until the context is cancelled. A failed cycle retries after the
// shorter backoff instead of the regular interval.
func (r *Reminder) Run(ctx context.Context) {
	r.log.Info().Dur("interval", r.interval).Msg("reminder scheduler started")

	for {
		delay := r.interval
		if err := r.runOnce(ctx); err != nil {
			r.log.Error().Err(err).Msg("reminder cycle failed")
			delay = r.backoff
		}

		select {
		case <-ctx.Done():
			r.log.Info().Msg("reminder scheduler stopped")
			return
		case <-r.clock.After(delay):
		}
	}
}

func (r *Reminder) runOnce(ctx context.Context) error {
	var bookings map[string]model.Session
	if err := r.store.Get(ctx, store.PathBookings, &bookings); err != nil {
		return fmt.Errorf("failed to read bookings: %w", err)
	}

	now := r.clock.Now().UTC()
	for id, booking := range bookings {
		if !booking.IsActive() {
			continue
		}
		until, ok := booking.BookedUntilTime()
		if !ok {
			continue
		}
		remaining := until.Sub(now)
		if remaining <= 0 {
			continue
		}
		r.remind(ctx, id, booking, remaining)
	}
	return nil
}

func (r *Reminder) remind(ctx context.Context, id string, booking model.Session, remaining time.Duration) {
	left := formatRemaining(remaining)
	message := fmt.Sprintf("Reminder: Your parking time for %s expires in %s. Please extend your booking if needed.",
		booking.CarNumber, left)

	if booking.Phone != "" {
		if err := r.sms.Send(ctx, booking.Phone, message); err != nil {
			r.log.Error().Err(err).Str("booking_id", id).Msg("failed to send reminder SMS")
		}
	}
	if booking.Email != "" {
		if err := r.mailer.Send(booking.Email, "Parking Time Reminder", message); err != nil {
			r.log.Error().Err(err).Str("booking_id", id).Msg("failed to send reminder email")
		}
	}

	r.log.Info().
		Str("booking_id", id).
		Str("plate", booking.CarNumber).
		Str("time_left", left).
		Msg("reminder sent")
}

func formatRemaining(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if hours > 0 {
		return fmt.Sprintf("%d hours and %d minutes", hours, minutes)
	}
	return fmt.Sprintf("%d minutes", minutes)
}
