package model

type VehicleClass string

const (
	VehicleClassPrivate    VehicleClass = "private"
	VehicleClassCommercial VehicleClass = "commercial"
	VehicleClassElectric   VehicleClass = "electric"
)

// Label returns the customer-facing description used in notifications.
func (c VehicleClass) Label() string {
	switch c {
	case VehicleClassCommercial:
		return "Commercial (Yellow Plate)"
	case VehicleClassElectric:
		return "Electric (Green Plate)"
	default:
		return "Private (White Plate)"
	}
}

func (c VehicleClass) Valid() bool {
	switch c {
	case VehicleClassPrivate, VehicleClassCommercial, VehicleClassElectric:
		return true
	}
	return false
}
