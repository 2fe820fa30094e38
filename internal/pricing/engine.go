// Package pricing computes booking quotes from a facility rate card.
//
// General facilities use a flat card (hourly, half-day, full-day) and the
// engine picks the cheapest valid combination.  Sport facilities use a
// day/night card and are priced hour by hour.
package pricing

import (
	"errors"
	"fmt"

	"github.com/iliyamo/facility-reservation/internal/model"
)

var (
	ErrEmptyWindow         = errors.New("window has no duration")
	ErrEndBeforeStart      = errors.New("end date is before start date")
	ErrBelowMinimum        = errors.New("duration is below the minimum for this facility")
	ErrUnpricedHours       = errors.New("window includes hours without a rate")
	ErrUnknownEquipment    = errors.New("unknown equipment item")
	ErrUnknownConsumable   = errors.New("unknown consumable item")
	ErrUnsupportedRateKind = errors.New("unsupported rate card")
)

// Engine holds the tier thresholds and sport rate windows.  The zero value
// is not usable; use NewEngine.
type Engine struct {
	HalfDayHours int
	FullDayHours int

	DayStart          model.ClockTime
	DayEnd            model.ClockTime
	NightStart        model.ClockTime
	NightEnd          model.ClockTime
	SportMinimumHours int

	ConsumableRates map[string]model.Money
}

// NewEngine returns an engine with the standard thresholds: half-day up
// to 5 hours, full-day up to 8 hours, sport day rate 08-19 and night rate
// 20-24 with a 2 hour minimum.
func NewEngine(consumables map[string]model.Money) *Engine {
	if consumables == nil {
		consumables = map[string]model.Money{}
	}
	return &Engine{
		HalfDayHours:      5,
		FullDayHours:      8,
		DayStart:          model.Clock(8, 0),
		DayEnd:            model.Clock(19, 0),
		NightStart:        model.Clock(20, 0),
		NightEnd:          model.EndOfDay,
		SportMinimumHours: 2,
		ConsumableRates:   consumables,
	}
}

// Request is the input of Quote.
type Request struct {
	Facility  model.Facility
	Package   model.Package
	Equipment []string
}

// Quote computes the cheapest valid price for the request.  Identical
// inputs always produce identical quotes.
func (e *Engine) Quote(req Request) (Quote, error) {
	p := req.Package
	if p.EndDate.IsZero() {
		p.EndDate = p.StartDate
	}
	if p.EndDate.Before(p.StartDate) {
		return Quote{}, ErrEndBeforeStart
	}
	days := p.Days()

	var (
		q   Quote
		err error
	)
	switch req.Facility.Rates.Kind {
	case model.RateFlat, "":
		q, err = e.flat(req.Facility.Rates.Flat, p, days)
	case model.RateDayNight:
		q, err = e.dayNight(req.Facility.Rates.DayNight, p, days)
	default:
		return Quote{}, fmt.Errorf("%w: %s", ErrUnsupportedRateKind, req.Facility.Rates.Kind)
	}
	if err != nil {
		return Quote{}, err
	}

	for _, name := range req.Equipment {
		rate, ok := req.Facility.EquipmentRates[name]
		if !ok {
			return Quote{}, fmt.Errorf("%w: %s", ErrUnknownEquipment, name)
		}
		q.add(LineItem{
			Kind:        ItemEquipment,
			Description: name,
			Quantity:    days,
			Unit:        UnitDay,
			UnitPrice:   rate,
		})
	}
	return q, nil
}

// WithConsumables adds consumable line items priced at the configured
// unit rates.
func (e *Engine) WithConsumables(q Quote, items []model.Consumable) (Quote, error) {
	for _, c := range items {
		if c.Quantity <= 0 {
			continue
		}
		rate, ok := e.ConsumableRates[c.Name]
		if !ok {
			return Quote{}, fmt.Errorf("%w: %s", ErrUnknownConsumable, c.Name)
		}
		q = AddConsumable(q, c.Name, c.Quantity, rate)
	}
	return q, nil
}

// AddConsumable returns q with one more consumable line item.  Savings
// are left untouched.
func AddConsumable(q Quote, name string, qty int, unit model.Money) Quote {
	items := make([]LineItem, len(q.Items), len(q.Items)+1)
	copy(items, q.Items)
	q.Items = items
	q.add(LineItem{
		Kind:        ItemConsumable,
		Description: name,
		Quantity:    qty,
		Unit:        UnitItem,
		UnitPrice:   unit,
	})
	return q
}

// hoursIn returns the whole hours of a single-day window, rounding up.
func hoursIn(start, end model.ClockTime) int {
	if end.IsLastMinute() {
		end = model.EndOfDay
	}
	minutes := int(end - start)
	if minutes <= 0 {
		return 0
	}
	return (minutes + 59) / 60
}
