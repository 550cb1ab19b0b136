package model

import "time"

type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
)

type SessionPaymentStatus string

const (
	SessionPaymentPending SessionPaymentStatus = "pending"
	SessionPaymentPaid    SessionPaymentStatus = "paid"
)

// Session is a reservation binding a plate, contact info, a slot and a time
// window. Records live at bookings/{id} in the realtime store; the ID is the
// store key, not a field of the record itself.
type Session struct {
	ID            string               `json:"-"`
	CarNumber     string               `json:"carNumber"`
	Slot          string               `json:"slot,omitempty"`
	Phone         string               `json:"phone,omitempty"`
	Email         string               `json:"email,omitempty"`
	Status        SessionStatus        `json:"status"`
	BookedUntil   string               `json:"bookedUntil,omitempty"`
	Duration      string               `json:"duration,omitempty"`
	CreatedAt     string               `json:"timestamp,omitempty"`
	PaymentStatus SessionPaymentStatus `json:"paymentStatus,omitempty"`
	PaymentID     string               `json:"paymentId,omitempty"`
	PaymentTime   string               `json:"paymentTime,omitempty"`
	Amount        float64              `json:"amount,omitempty"`
	VehicleType   VehicleClass         `json:"vehicleType,omitempty"`
}

func (s *Session) IsActive() bool {
	return s.Status == SessionStatusActive
}

// BookedUntilTime returns the UTC expiry of the reservation window.
func (s *Session) BookedUntilTime() (time.Time, bool) {
	return ParseTimestamp(s.BookedUntil)
}

// CreatedTime returns the UTC creation time of the booking.
func (s *Session) CreatedTime() (time.Time, bool) {
	return ParseTimestamp(s.CreatedAt)
}
