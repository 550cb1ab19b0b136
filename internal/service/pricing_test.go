package service

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"parking-service/internal/model"
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

func TestQuoteByVehicleClass(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	engine := NewPricingEngine(clk, zerolog.Nop())

	cases := []struct {
		name     string
		class    model.VehicleClass
		discount float64
		total    float64
	}{
		{"private pays base fare", model.VehicleClassPrivate, 0, 50},
		{"electric gets 20 percent off", model.VehicleClassElectric, 10, 40},
		{"commercial pays 10 percent surcharge", model.VehicleClassCommercial, -5, 55},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := engine.Quote(tc.class, nil)
			assert.Equal(t, 50.0, q.Base)
			assert.Equal(t, tc.discount, q.Discount)
			assert.Equal(t, 0.0, q.Overtime)
			assert.Equal(t, tc.total, q.Total)
		})
	}
}

func TestQuoteOvertime(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)}
	engine := NewPricingEngine(clk, zerolog.Nop())

	session := &model.Session{
		CarNumber:   "MH 19 EQ 0009",
		Status:      model.SessionStatusActive,
		BookedUntil: "2026-03-01T12:00:00Z",
	}

	q := engine.Quote(model.VehicleClassPrivate, session)
	assert.Equal(t, 50.0, q.Overtime, "two hours past the window at 25 per hour")
	assert.Equal(t, 100.0, q.Total)
}

func TestQuoteFractionalOvertime(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)}
	engine := NewPricingEngine(clk, zerolog.Nop())

	session := &model.Session{
		Status:      model.SessionStatusActive,
		BookedUntil: "2026-03-01T12:00:00Z",
	}

	q := engine.Quote(model.VehicleClassPrivate, session)
	assert.InDelta(t, 12.5, q.Overtime, 1e-9)
}

func TestQuoteWithinWindowNoOvertime(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)}
	engine := NewPricingEngine(clk, zerolog.Nop())

	session := &model.Session{
		Status:      model.SessionStatusActive,
		BookedUntil: "2026-03-01T12:00:00Z",
	}

	q := engine.Quote(model.VehicleClassElectric, session)
	assert.Equal(t, 0.0, q.Overtime)
	assert.Equal(t, 40.0, q.Total)
}

func TestQuoteNaiveTimestampTreatedAsUTC(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)}
	engine := NewPricingEngine(clk, zerolog.Nop())

	session := &model.Session{
		Status:      model.SessionStatusActive,
		BookedUntil: "2026-03-01T12:00:00",
	}

	q := engine.Quote(model.VehicleClassPrivate, session)
	assert.Equal(t, 25.0, q.Overtime)
}

func TestQuoteUnparseableWindowNoOvertime(t *testing.T) {
	clk := &fakeClock{now: time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)}
	engine := NewPricingEngine(clk, zerolog.Nop())

	session := &model.Session{
		Status:      model.SessionStatusActive,
		BookedUntil: "not-a-timestamp",
	}

	q := engine.Quote(model.VehicleClassPrivate, session)
	assert.Equal(t, 0.0, q.Overtime)
	assert.Equal(t, 50.0, q.Total)
}
