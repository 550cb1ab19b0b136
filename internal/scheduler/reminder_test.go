package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-service/internal/model"
	"parking-service/internal/store"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- f.now
	return ch
}

type fakeMailer struct {
	sent []struct {
		To, Subject, Body string
	}
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.sent = append(m.sent, struct{ To, Subject, Body string }{to, subject, body})
	return nil
}

type fakeSMS struct {
	sent []struct {
		Phone, Message string
	}
}

func (s *fakeSMS) Send(_ context.Context, phone, message string) error {
	s.sent = append(s.sent, struct{ Phone, Message string }{phone, message})
	return nil
}

func TestReminderNotifiesActiveBookings(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	clk := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	require.NoError(t, st.Set(ctx, store.PathBookings+"/b1", model.Session{
		CarNumber:   "MH 19 EQ 0009",
		Status:      model.SessionStatusActive,
		Phone:       "+911234567890",
		Email:       "a@example.com",
		BookedUntil: "2026-03-01T13:30:00Z",
	}))

	mailer := &fakeMailer{}
	sms := &fakeSMS{}
	r := NewReminder(st, mailer, sms, clk, 5*time.Minute, time.Minute, zerolog.Nop())

	require.NoError(t, r.runOnce(ctx))

	require.Len(t, sms.sent, 1)
	assert.Contains(t, sms.sent[0].Message, "expires in 1 hours and 30 minutes")
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Parking Time Reminder", mailer.sent[0].Subject)
}

func TestReminderRepeatsEveryCycle(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	clk := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	require.NoError(t, st.Set(ctx, store.PathBookings+"/b1", model.Session{
		CarNumber:   "MH 19 EQ 0009",
		Status:      model.SessionStatusActive,
		Email:       "a@example.com",
		BookedUntil: "2026-03-01T12:45:00Z",
	}))

	mailer := &fakeMailer{}
	r := NewReminder(st, mailer, &fakeSMS{}, clk, 5*time.Minute, time.Minute, zerolog.Nop())

	require.NoError(t, r.runOnce(ctx))
	require.NoError(t, r.runOnce(ctx))

	assert.Len(t, mailer.sent, 2, "reminder repeats while time remains")
	assert.Contains(t, mailer.sent[0].Body, "expires in 45 minutes")
}

func TestReminderSkipsExpiredAndInactive(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	clk := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	require.NoError(t, st.Set(ctx, store.PathBookings+"/expired", model.Session{
		CarNumber:   "KA 01 AB 1234",
		Status:      model.SessionStatusActive,
		Email:       "a@example.com",
		BookedUntil: "2026-03-01T11:00:00Z",
	}))
	require.NoError(t, st.Set(ctx, store.PathBookings+"/done", model.Session{
		CarNumber:   "KA 01 AB 5678",
		Status:      model.SessionStatusCompleted,
		Email:       "b@example.com",
		BookedUntil: "2026-03-01T14:00:00Z",
	}))

	mailer := &fakeMailer{}
	sms := &fakeSMS{}
	r := NewReminder(st, mailer, sms, clk, 5*time.Minute, time.Minute, zerolog.Nop())

	require.NoError(t, r.runOnce(ctx))
	assert.Empty(t, mailer.sent)
	assert.Empty(t, sms.sent)
}

func TestReminderRunStopsOnCancel(t *testing.T) {
	st := store.NewMemoryStore()
	clk := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	r := NewReminder(st, &fakeMailer{}, &fakeSMS{}, clk, 5*time.Minute, time.Minute, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on context cancellation")
	}
}
