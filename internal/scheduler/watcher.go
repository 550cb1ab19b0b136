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

// BookingWatcher watches for bookings created after the watcher started and
// sends a one-time confirmation for each. The watermark is reset to the
// current time after every successful scan, so a booking written during a
// slow scan can slip past it.
type BookingWatcher struct {
	store    store.Store
	mailer   notify.Mailer
	sms      notify.SMSSender
	clock    clock.Clock
	interval time.Duration
	backoff  time.Duration

	lastChecked time.Time

	log zerolog.Logger
}

func NewBookingWatcher(st store.Store, mailer notify.Mailer, sms notify.SMSSender, clk clock.Clock, interval, backoff time.Duration, log zerolog.Logger) *BookingWatcher {
	return &BookingWatcher{
		store:    st,
		mailer:   mailer,
		sms:      sms,
		clock:    clk,
		interval: interval,
		backoff:  backoff,
		log:      log,
	}
}

// Run loops until the context is cancelled. Bookings that already existed at
// startup never trigger a confirmation.
func (w *BookingWatcher) Run(ctx context.Context) {
	w.lastChecked = w.clock.Now().UTC()
	w.log.Info().Dur("interval", w.interval).Msg("booking watcher started")

	for {
		delay := w.interval
		if err := w.runOnce(ctx); err != nil {
			w.log.Error().Err(err).Msg("booking watcher cycle failed")
			delay = w.backoff
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("booking watcher stopped")
			return
		case <-w.clock.After(delay):
		}
	}
}

// runOnce advances the watermark only on success; a failed scan retries the
// same window.
func (w *BookingWatcher) runOnce(ctx context.Context) error {
	var bookings map[string]model.Session
	if err := w.store.Get(ctx, store.PathBookings, &bookings); err != nil {
		return fmt.Errorf("failed to read bookings: %w", err)
	}

	for id, booking := range bookings {
		created, ok := booking.CreatedTime()
		if !ok || !created.After(w.lastChecked) {
			continue
		}
		w.confirm(ctx, id, booking)
	}

	w.lastChecked = w.clock.Now().UTC()
	return nil
}

func (w *BookingWatcher) confirm(ctx context.Context, id string, booking model.Session) {
	message := fmt.Sprintf("Booking confirmed! Vehicle %s, Slot %s, Valid until %s. Thank you!",
		booking.CarNumber, booking.Slot, booking.BookedUntil)

	if booking.Phone != "" {
		if err := w.sms.Send(ctx, booking.Phone, message); err != nil {
			w.log.Error().Err(err).Str("booking_id", id).Msg("failed to send confirmation SMS")
		}
	}
	if booking.Email != "" {
		body := fmt.Sprintf("Dear customer,\n\nYour parking booking is confirmed.\n\nVehicle: %s\nSlot: %s\nValid until: %s\n\nThank you for using our parking service.\n",
			booking.CarNumber, booking.Slot, booking.BookedUntil)
		if err := w.mailer.Send(booking.Email, "Parking Booking Confirmation", body); err != nil {
			w.log.Error().Err(err).Str("booking_id", id).Msg("failed to send confirmation email")
		}
	}

	w.log.Info().
		Str("booking_id", id).
		Str("plate", booking.CarNumber).
		Msg("booking confirmation sent")
}
