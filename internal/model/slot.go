package model

type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusOccupied  SlotStatus = "occupied"
	SlotStatusReserved  SlotStatus = "reserved"
	SlotStatusUnknown   SlotStatus = "unknown"
)

// ParkingSlot lives at parkingSlots/{slotId}. Occupancy detection and slot
// creation are owned by the sensor gateway; this service only reads slots and
// resets them to available on cleanup.
type ParkingSlot struct {
	ID          string     `json:"-"`
	Status      SlotStatus `json:"status"`
	CarNumber   string     `json:"carNumber,omitempty"`
	CarType     string     `json:"carType,omitempty"`
	Distance    float64    `json:"distance"`
	BookedUntil string     `json:"bookedUntil,omitempty"`
	BookingID   string     `json:"bookingId,omitempty"`
}
