package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-service/internal/model"
	"parking-service/internal/store"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []struct {
		To, Subject, Body string
	}
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, struct{ To, Subject, Body string }{to, subject, body})
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fakeSMS struct {
	mu   sync.Mutex
	sent []struct {
		Phone, Message string
	}
}

func (s *fakeSMS) Send(_ context.Context, phone, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, struct{ Phone, Message string }{phone, message})
	return nil
}

func newPaymentFixture() (*PaymentService, *store.MemoryStore, *fakeMailer, *fakeSMS) {
	st := store.NewMemoryStore()
	mailer := &fakeMailer{}
	sms := &fakeSMS{}
	clk := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewPaymentService(st, mailer, sms, clk, "https://pay.example.com", zerolog.Nop())
	return svc, st, mailer, sms
}

func TestIssueLink(t *testing.T) {
	svc, st, mailer, sms := newPaymentFixture()

	session := &model.Session{ID: "b1", CarNumber: "MH 19 EQ 0009", Status: model.SessionStatusActive}
	pending, err := svc.IssueLink(context.Background(), IssueLinkInput{
		Plate:   "MH 19 EQ 0009",
		Class:   model.VehicleClassElectric,
		Quote:   Quote{Base: 50, Discount: 10, Total: 40},
		Phone:   "+911234567890",
		Email:   "a@example.com",
		Session: session,
	})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(pending.PaymentID, "PAY-"))
	assert.Equal(t, model.PaymentStatusPending, pending.Status)
	assert.Equal(t, 40.0, pending.Amount)
	assert.Equal(t, "b1", pending.BookingID)

	var stored model.PendingPayment
	require.NoError(t, st.Get(context.Background(), store.PathPendingPayments+"/"+pending.PaymentID, &stored))
	assert.Equal(t, pending.PaymentID, stored.PaymentID)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "a@example.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Body, "paymentId="+pending.PaymentID)
	assert.Contains(t, mailer.sent[0].Body, "Total due:    40.00")

	require.Len(t, sms.sent, 1)
	assert.Equal(t, "+911234567890", sms.sent[0].Phone)
	assert.Contains(t, sms.sent[0].Message, "https://pay.example.com")
}

func TestIssueLinkWithoutPhoneSkipsSMS(t *testing.T) {
	svc, _, mailer, sms := newPaymentFixture()

	_, err := svc.IssueLink(context.Background(), IssueLinkInput{
		Plate: "MH 19 EQ 0009",
		Class: model.VehicleClassPrivate,
		Quote: Quote{Base: 50, Total: 50},
		Email: "a@example.com",
	})

	require.NoError(t, err)
	assert.Len(t, mailer.sent, 1)
	assert.Empty(t, sms.sent)
}

func TestIssueLinkRequiresPlateAndEmail(t *testing.T) {
	svc, _, _, _ := newPaymentFixture()

	_, err := svc.IssueLink(context.Background(), IssueLinkInput{Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.IssueLink(context.Background(), IssueLinkInput{Plate: "MH 19 EQ 0009"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestProcessRecordsPaymentAndCleansUp(t *testing.T) {
	svc, st, mailer, sms := newPaymentFixture()
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, store.PathBookings+"/b1", model.Session{
		CarNumber: "MH 19 EQ 0009",
		Slot:      "A1",
		Status:    model.SessionStatusActive,
	}))
	require.NoError(t, st.Set(ctx, store.PathParkingSlots+"/A1", model.ParkingSlot{
		Status:    model.SlotStatusOccupied,
		CarNumber: "MH 19 EQ 0009",
	}))
	require.NoError(t, st.Set(ctx, store.PathPendingPayments+"/PAY-old", model.PendingPayment{
		PaymentID:     "PAY-old",
		VehicleNumber: "MH19EQ0009",
		Status:        model.PaymentStatusPending,
	}))
	require.NoError(t, st.Set(ctx, store.PathDetectedPlates+"/d1", model.DetectedPlate{
		PlateNumber: "MH 19 EQ 0009",
	}))

	session := &model.Session{ID: "b1", CarNumber: "MH 19 EQ 0009", Slot: "A1", Status: model.SessionStatusActive}
	result, err := svc.Process(ctx, ProcessInput{
		Plate:   "MH 19 EQ 0009",
		Class:   model.VehicleClassPrivate,
		Amount:  50,
		Session: session,
		Phone:   "+911234567890",
		Email:   "a@example.com",
	})

	require.NoError(t, err)
	assert.False(t, result.AlreadyPaid)
	assert.True(t, strings.HasPrefix(result.PaymentID, "PAY-"))

	var record model.PaymentRecord
	require.NoError(t, st.Get(ctx, store.PathPayments+"/"+result.PaymentID, &record))
	assert.Equal(t, model.PaymentStatusCompleted, record.Status)
	assert.Equal(t, model.PaymentMethodManual, record.PaymentMethod)
	assert.Equal(t, 50.0, record.Amount)
	assert.Equal(t, "b1", record.BookingID)
	assert.Equal(t, "A1", record.SlotID)

	// Booking, pending payment and detection trail are gone; slot released.
	var booking model.Session
	require.NoError(t, st.Get(ctx, store.PathBookings+"/b1", &booking))
	assert.Empty(t, booking.CarNumber)

	var slot model.ParkingSlot
	require.NoError(t, st.Get(ctx, store.PathParkingSlots+"/A1", &slot))
	assert.Equal(t, model.SlotStatusAvailable, slot.Status)
	assert.Empty(t, slot.CarNumber)

	var pending map[string]model.PendingPayment
	require.NoError(t, st.Get(ctx, store.PathPendingPayments, &pending))
	assert.Empty(t, pending)

	var detections map[string]model.DetectedPlate
	require.NoError(t, st.Get(ctx, store.PathDetectedPlates, &detections))
	assert.Empty(t, detections)

	require.Len(t, sms.sent, 1)
	assert.Contains(t, sms.sent[0].Message, result.PaymentID)
	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].Body, "can now exit")
}

func TestProcessSkipsChargeWhenAlreadyPaid(t *testing.T) {
	svc, st, mailer, sms := newPaymentFixture()
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, store.PathBookings+"/b1", model.Session{
		CarNumber:     "MH 19 EQ 0009",
		Slot:          "A1",
		Status:        model.SessionStatusActive,
		PaymentStatus: model.SessionPaymentPaid,
	}))

	session := &model.Session{ID: "b1", CarNumber: "MH 19 EQ 0009", Slot: "A1", Status: model.SessionStatusActive}
	result, err := svc.Process(ctx, ProcessInput{
		Plate:   "MH 19 EQ 0009",
		Class:   model.VehicleClassPrivate,
		Amount:  50,
		Session: session,
		Phone:   "+911234567890",
		Email:   "a@example.com",
	})

	require.NoError(t, err)
	assert.True(t, result.AlreadyPaid)
	assert.Nil(t, result.Record)

	// No manual charge, no confirmations, but cleanup ran.
	var payments map[string]model.PaymentRecord
	require.NoError(t, st.Get(ctx, store.PathPayments, &payments))
	assert.Empty(t, payments)

	var booking model.Session
	require.NoError(t, st.Get(ctx, store.PathBookings+"/b1", &booking))
	assert.Empty(t, booking.CarNumber)

	assert.Empty(t, mailer.sent)
	assert.Empty(t, sms.sent)
}

func TestProcessWithoutSessionStillRecords(t *testing.T) {
	svc, st, _, _ := newPaymentFixture()
	ctx := context.Background()

	result, err := svc.Process(ctx, ProcessInput{
		Plate:  "MH 19 EQ 0009",
		Class:  model.VehicleClassCommercial,
		Amount: 55,
	})

	require.NoError(t, err)

	var record model.PaymentRecord
	require.NoError(t, st.Get(ctx, store.PathPayments+"/"+result.PaymentID, &record))
	assert.Equal(t, 55.0, record.Amount)
	assert.Empty(t, record.BookingID)
}

func TestProcessRequiresPlate(t *testing.T) {
	svc, _, _, _ := newPaymentFixture()
	_, err := svc.Process(context.Background(), ProcessInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCleanupIsIdempotent(t *testing.T) {
	svc, st, _, _ := newPaymentFixture()
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, store.PathBookings+"/b1", model.Session{CarNumber: "MH 19 EQ 0009"}))

	svc.Cleanup(ctx, "b1", "A1", "MH 19 EQ 0009")
	// Second pass over already-deleted data must not blow up.
	svc.Cleanup(ctx, "b1", "A1", "MH 19 EQ 0009")

	var booking model.Session
	require.NoError(t, st.Get(ctx, store.PathBookings+"/b1", &booking))
	assert.Empty(t, booking.CarNumber)
}
