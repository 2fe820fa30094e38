package pricing

import (
	"fmt"

	"github.com/iliyamo/facility-reservation/internal/model"
)

// dayNight prices a sport window hour by hour.  Every started hour is
// billed at the rate of the band it starts in.  Hours starting in the gap
// between the day and night bands have no rate: they make an hourly
// quote fail and are left unbilled in full-day and multi-day packages.
// Multi-day windows repeat the per-day window on every day.
func (e *Engine) dayNight(r model.DayNightRates, p model.Package, days int) (Quote, error) {
	start, end := p.StartTime, p.EndTime
	if end.IsLastMinute() {
		end = model.EndOfDay
	}
	hours := hoursIn(start, end)
	if hours == 0 {
		return Quote{}, ErrEmptyWindow
	}
	if hours < e.SportMinimumHours {
		return Quote{}, fmt.Errorf("%w: %d hours, minimum %d", ErrBelowMinimum, hours, e.SportMinimumHours)
	}

	wholeDay := p.Type == model.PackageFullDay || p.Type == model.PackageMultiDay
	var dayHours, nightHours int
	for t := start; t < end; t += 60 {
		switch {
		case t >= e.DayStart && t < e.DayEnd:
			dayHours++
		case t >= e.NightStart && t < e.NightEnd:
			nightHours++
		case wholeDay && t >= e.DayEnd && t < e.NightStart:
		default:
			return Quote{}, fmt.Errorf("%w: %s", ErrUnpricedHours, t.Short())
		}
	}

	q := Quote{DurationHours: hours, Days: days}
	if dayHours > 0 {
		q.add(LineItem{Kind: ItemRental, Description: "Day rate", Quantity: dayHours * days, Unit: UnitDayHour, UnitPrice: r.Day})
	}
	if nightHours > 0 {
		q.add(LineItem{Kind: ItemRental, Description: "Night rate", Quantity: nightHours * days, Unit: UnitNightHour, UnitPrice: r.Night})
	}
	return q, nil
}
