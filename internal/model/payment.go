package model

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
)

const (
	PaymentMethodManual = "manual"
	PaymentMethodWeb    = "web"
)

// PendingPayment is created when a payment link is issued and deleted on
// completion or cleanup. Lives at pendingPayments/{paymentId}.
type PendingPayment struct {
	PaymentID     string        `json:"paymentId"`
	VehicleNumber string        `json:"vehicleNumber"`
	VehicleType   VehicleClass  `json:"vehicleType"`
	Amount        float64       `json:"amount"`
	Status        PaymentStatus `json:"status"`
	Timestamp     string        `json:"timestamp"`
	BookingID     string        `json:"bookingId,omitempty"`
	CustomerPhone string        `json:"customerPhone,omitempty"`
	CustomerEmail string        `json:"customerEmail,omitempty"`
}

// PaymentRecord is the immutable completed-payment entry at payments/{id}.
type PaymentRecord struct {
	VehicleNumber string        `json:"vehicleNumber"`
	VehicleType   VehicleClass  `json:"vehicleType"`
	Amount        float64       `json:"amount"`
	PaymentTime   string        `json:"paymentTime"`
	Status        PaymentStatus `json:"status"`
	BookingID     string        `json:"bookingId,omitempty"`
	SlotID        string        `json:"slotId,omitempty"`
	PaymentMethod string        `json:"paymentMethod"`
}

// DetectedPlate is the audit record at detectedPlates/{id}, written when a
// recognition is accepted and purged on cleanup.
type DetectedPlate struct {
	PlateNumber string       `json:"plateNumber"`
	VehicleType VehicleClass `json:"vehicleType"`
	Confidence  float64      `json:"confidence"`
	DetectedAt  string       `json:"detectedAt"`
}
