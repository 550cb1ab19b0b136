package service

import (
	"github.com/rs/zerolog"

	"parking-service/internal/clock"
	"parking-service/internal/model"
)

const (
	// BaseFare is charged for every parking session.
	BaseFare = 50.0
	// OvertimeHourlyRate applies to fractional hours past the booked window.
	OvertimeHourlyRate = 25.0

	electricDiscountRate    = 0.20
	commercialSurchargeRate = 0.10
)

// Quote is the priced breakdown of a session. Discount carries sign: positive
// for electric vehicles, negative for the commercial surcharge.
type Quote struct {
	Base     float64 `json:"base"`
	Discount float64 `json:"discount"`
	Overtime float64 `json:"overtime"`
	Total    float64 `json:"total"`
}

// PricingEngine computes session amounts from the vehicle class and the
// booked window. It never mutates state.
type PricingEngine struct {
	clock clock.Clock
	log   zerolog.Logger
}

func NewPricingEngine(clk clock.Clock, log zerolog.Logger) *PricingEngine {
	return &PricingEngine{
		clock: clk,
		log:   log,
	}
}

// Quote prices a session. A nil session or an unparseable bookedUntil yields
// zero overtime; all timestamp comparisons happen in UTC.
func (e *PricingEngine) Quote(class model.VehicleClass, session *model.Session) Quote {
	var discount float64
	switch class {
	case model.VehicleClassElectric:
		discount = BaseFare * electricDiscountRate
	case model.VehicleClassCommercial:
		discount = -BaseFare * commercialSurchargeRate
	}

	var overtime float64
	if session != nil {
		if until, ok := session.BookedUntilTime(); ok {
			now := e.clock.Now().UTC()
			if now.After(until) {
				overtime = now.Sub(until).Hours() * OvertimeHourlyRate
				if overtime < 0 {
					overtime = 0
				}
			}
		}
	}

	q := Quote{
		Base:     BaseFare,
		Discount: discount,
		Overtime: overtime,
		Total:    BaseFare - discount + overtime,
	}
	e.log.Debug().
		Str("vehicle_class", string(class)).
		Float64("discount", q.Discount).
		Float64("overtime", q.Overtime).
		Float64("total", q.Total).
		Msg("session priced")
	return q
}
