package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"parking-service/internal/clock"
	"parking-service/internal/model"
	"parking-service/internal/notify"
	"parking-service/internal/store"
	"parking-service/internal/utils"
)

// PaymentService manages the payment lifecycle: issuing pre-filled payment
// links, recording settled payments and cleaning up session state afterwards.
type PaymentService struct {
	store   store.Store
	mailer  notify.Mailer
	sms     notify.SMSSender
	clock   clock.Clock
	baseURL string
	log     zerolog.Logger
}

func NewPaymentService(st store.Store, mailer notify.Mailer, sms notify.SMSSender, clk clock.Clock, baseURL string, log zerolog.Logger) *PaymentService {
	return &PaymentService{
		store:   st,
		mailer:  mailer,
		sms:     sms,
		clock:   clk,
		baseURL: baseURL,
		log:     log,
	}
}

// IssueLinkInput carries everything a payment link needs. Session is optional:
// links can be issued for walk-in vehicles without a booking.
type IssueLinkInput struct {
	Plate   string
	Class   model.VehicleClass
	Quote   Quote
	Phone   string
	Email   string
	Session *model.Session
}

// IssueLink registers a pending payment and delivers the pre-filled payment
// URL by email, plus SMS when a phone number is present.
func (s *PaymentService) IssueLink(ctx context.Context, in IssueLinkInput) (*model.PendingPayment, error) {
	if utils.NormalizePlate(in.Plate) == "" {
		return nil, fmt.Errorf("%w: plate is required", ErrInvalidInput)
	}
	if in.Email == "" {
		return nil, fmt.Errorf("%w: customer email is required", ErrInvalidInput)
	}

	paymentID := "PAY-" + uuid.NewString()
	pending := &model.PendingPayment{
		PaymentID:     paymentID,
		VehicleNumber: in.Plate,
		VehicleType:   in.Class,
		Amount:        in.Quote.Total,
		Status:        model.PaymentStatusPending,
		Timestamp:     model.FormatTimestamp(s.clock.Now()),
		CustomerPhone: in.Phone,
		CustomerEmail: in.Email,
	}
	if in.Session != nil {
		pending.BookingID = in.Session.ID
	}

	if err := s.store.Set(ctx, store.PathPendingPayments+"/"+paymentID, pending); err != nil {
		return nil, fmt.Errorf("failed to persist pending payment: %w", err)
	}

	link := s.paymentLink(pending)
	s.log.Info().
		Str("payment_id", paymentID).
		Str("plate", in.Plate).
		Float64("amount", pending.Amount).
		Str("link", link).
		Msg("payment link issued")

	if in.Phone != "" {
		msg := fmt.Sprintf("Parking payment due for %s. Amount: %.2f. Pay here: %s", in.Plate, pending.Amount, link)
		if err := s.sms.Send(ctx, in.Phone, msg); err != nil {
			s.log.Error().Err(err).Str("payment_id", paymentID).Msg("failed to send payment SMS")
		}
	}

	body := s.paymentEmailBody(in, pending, link)
	if err := s.mailer.Send(in.Email, "Parking Payment Request", body); err != nil {
		// Доставка письма не должна ронять выдачу ссылки: запись уже создана.
		s.log.Error().Err(err).Str("payment_id", paymentID).Msg("failed to send payment email")
	}

	return pending, nil
}

func (s *PaymentService) paymentLink(p *model.PendingPayment) string {
	q := url.Values{}
	q.Set("paymentId", p.PaymentID)
	q.Set("vehicle", p.VehicleNumber)
	q.Set("amount", fmt.Sprintf("%.2f", p.Amount))
	q.Set("type", string(p.VehicleType))
	return strings.TrimRight(s.baseURL, "/") + "/?" + q.Encode()
}

func (s *PaymentService) paymentEmailBody(in IssueLinkInput, p *model.PendingPayment, link string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear customer,\n\n")
	fmt.Fprintf(&b, "A parking payment is due for vehicle %s.\n\n", p.VehicleNumber)
	fmt.Fprintf(&b, "Vehicle type: %s\n", in.Class.Label())
	fmt.Fprintf(&b, "Base fare:    %.2f\n", in.Quote.Base)
	fmt.Fprintf(&b, "Discount:     %.2f\n", in.Quote.Discount)
	fmt.Fprintf(&b, "Overtime:     %.2f\n", in.Quote.Overtime)
	fmt.Fprintf(&b, "Total due:    %.2f\n\n", in.Quote.Total)
	fmt.Fprintf(&b, "Pay online: %s\n\n", link)
	fmt.Fprintf(&b, "Thank you for using our parking service.\n")
	return b.String()
}

// ProcessInput describes a payment to settle. Amount is the final charged
// total, normally a Quote.Total.
type ProcessInput struct {
	Plate   string
	Class   model.VehicleClass
	Amount  float64
	Session *model.Session
	Phone   string
	Email   string
}

// ProcessResult reports the settlement outcome. AlreadyPaid means the web
// channel settled the booking first and only cleanup ran.
type ProcessResult struct {
	PaymentID   string
	Record      *model.PaymentRecord
	AlreadyPaid bool
}

// Process settles a payment at the exit gate. It re-reads the booking first:
// if the customer already paid through the web flow the charge is skipped and
// only cleanup runs.
func (s *PaymentService) Process(ctx context.Context, in ProcessInput) (*ProcessResult, error) {
	if utils.NormalizePlate(in.Plate) == "" {
		return nil, fmt.Errorf("%w: no number plate detected", ErrInvalidInput)
	}

	if in.Session != nil && s.paymentStatus(ctx, in.Session.ID) == model.SessionPaymentPaid {
		s.log.Info().
			Str("booking_id", in.Session.ID).
			Str("plate", in.Plate).
			Msg("booking already paid via web, skipping charge")
		s.Cleanup(ctx, in.Session.ID, in.Session.Slot, in.Plate)
		return &ProcessResult{AlreadyPaid: true}, nil
	}

	paymentID := "PAY-" + uuid.NewString()
	now := s.clock.Now()

	record := &model.PaymentRecord{
		VehicleNumber: in.Plate,
		VehicleType:   in.Class,
		Amount:        in.Amount,
		PaymentTime:   model.FormatTimestamp(now),
		Status:        model.PaymentStatusCompleted,
		PaymentMethod: model.PaymentMethodManual,
	}
	if in.Session != nil {
		record.BookingID = in.Session.ID
		record.SlotID = in.Session.Slot
	}
	if err := s.store.Set(ctx, store.PathPayments+"/"+paymentID, record); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	if in.Session != nil {
		fields := map[string]any{
			"status":        string(model.SessionStatusCompleted),
			"paymentStatus": string(model.SessionPaymentPaid),
			"paymentId":     paymentID,
			"paymentTime":   model.FormatTimestamp(now),
			"amount":        in.Amount,
			"vehicleType":   string(in.Class),
		}
		if err := s.store.Update(ctx, store.PathBookings+"/"+in.Session.ID, fields); err != nil {
			return nil, fmt.Errorf("failed to mark booking paid: %w", err)
		}
		s.Cleanup(ctx, in.Session.ID, in.Session.Slot, in.Plate)
	} else {
		s.Cleanup(ctx, "", "", in.Plate)
	}

	s.log.Info().
		Str("payment_id", paymentID).
		Str("plate", in.Plate).
		Float64("amount", in.Amount).
		Msg("payment recorded")

	confirmation := fmt.Sprintf("Payment successful! Vehicle %s (%s) can now exit. Payment ID: %s",
		in.Plate, in.Class.Label(), paymentID)
	if in.Phone != "" {
		if err := s.sms.Send(ctx, in.Phone, confirmation); err != nil {
			s.log.Error().Err(err).Str("payment_id", paymentID).Msg("failed to send confirmation SMS")
		}
	}
	if in.Email != "" {
		if err := s.mailer.Send(in.Email, "Parking Payment Confirmation", confirmation); err != nil {
			s.log.Error().Err(err).Str("payment_id", paymentID).Msg("failed to send confirmation email")
		}
	}

	return &ProcessResult{PaymentID: paymentID, Record: record}, nil
}

// paymentStatus re-reads the booking from the store. Read failures count as
// pending so the exit flow falls back to a manual charge.
func (s *PaymentService) paymentStatus(ctx context.Context, bookingID string) model.SessionPaymentStatus {
	if bookingID == "" {
		return model.SessionPaymentPending
	}
	var booking model.Session
	if err := s.store.Get(ctx, store.PathBookings+"/"+bookingID, &booking); err != nil {
		s.log.Warn().Err(err).Str("booking_id", bookingID).Msg("failed to re-read booking payment status")
		return model.SessionPaymentPending
	}
	return booking.PaymentStatus
}

// Cleanup removes every trace of a settled session: the booking record, the
// slot occupancy, matching pending payments, the active-vehicle entry and the
// detection audit rows. Each step is independently tolerant, so a retry after
// a partial failure is safe.
func (s *PaymentService) Cleanup(ctx context.Context, bookingID, slotID, plate string) {
	s.log.Info().
		Str("booking_id", bookingID).
		Str("slot_id", slotID).
		Str("plate", plate).
		Msg("cleaning up session data")

	if bookingID != "" {
		if err := s.store.Delete(ctx, store.PathBookings+"/"+bookingID); err != nil {
			s.log.Error().Err(err).Str("booking_id", bookingID).Msg("failed to delete booking")
		}
	}

	if slotID != "" {
		fields := map[string]any{
			"status":      string(model.SlotStatusAvailable),
			"carNumber":   nil,
			"carType":     nil,
			"bookedUntil": nil,
			"bookingId":   nil,
			"distance":    0,
		}
		if err := s.store.Update(ctx, store.PathParkingSlots+"/"+slotID, fields); err != nil {
			s.log.Error().Err(err).Str("slot_id", slotID).Msg("failed to reset parking slot")
		}
	}

	var pending map[string]model.PendingPayment
	if err := s.store.Get(ctx, store.PathPendingPayments, &pending); err != nil {
		s.log.Error().Err(err).Msg("failed to read pending payments")
	} else {
		for id, p := range pending {
			if p.Status != model.PaymentStatusPending || !utils.PlatesEqual(p.VehicleNumber, plate) {
				continue
			}
			if err := s.store.Delete(ctx, store.PathPendingPayments+"/"+id); err != nil {
				s.log.Error().Err(err).Str("payment_id", id).Msg("failed to delete pending payment")
			}
		}
	}

	var vehicles map[string]struct {
		CarNumber string `json:"carNumber"`
	}
	if err := s.store.Get(ctx, store.PathActiveVehicles, &vehicles); err != nil {
		s.log.Error().Err(err).Msg("failed to read active vehicles")
	} else {
		for id, v := range vehicles {
			if !utils.PlatesEqual(v.CarNumber, plate) {
				continue
			}
			if err := s.store.Delete(ctx, store.PathActiveVehicles+"/"+id); err != nil {
				s.log.Error().Err(err).Str("vehicle_id", id).Msg("failed to delete active vehicle")
			}
		}
	}

	var detections map[string]model.DetectedPlate
	if err := s.store.Get(ctx, store.PathDetectedPlates, &detections); err != nil {
		s.log.Error().Err(err).Msg("failed to read detected plates")
	} else {
		for id, d := range detections {
			if !utils.PlatesEqual(d.PlateNumber, plate) {
				continue
			}
			if err := s.store.Delete(ctx, store.PathDetectedPlates+"/"+id); err != nil {
				s.log.Error().Err(err).Str("detection_id", id).Msg("failed to delete detected plate")
			}
		}
	}
}
