package pricing

import "github.com/iliyamo/facility-reservation/internal/model"

// option is one candidate pricing strategy.
type option struct {
	items []LineItem
	total model.Money
}

func newOption(items ...LineItem) option {
	o := option{}
	for _, it := range items {
		it.Amount = it.UnitPrice.Mul(it.Quantity)
		o.items = append(o.items, it)
		o.total += it.Amount
	}
	return o
}

func hourlyItem(r model.FlatRates, hours int) LineItem {
	return LineItem{Kind: ItemRental, Description: "Hourly rate", Quantity: hours, Unit: UnitHour, UnitPrice: r.Hourly}
}

func halfDayItem(r model.FlatRates) LineItem {
	return LineItem{Kind: ItemRental, Description: "Half-day package", Quantity: 1, Unit: UnitHalfDay, UnitPrice: r.HalfDay}
}

func fullDayItem(r model.FlatRates, days int) LineItem {
	return LineItem{Kind: ItemRental, Description: "Full-day package", Quantity: days, Unit: UnitDay, UnitPrice: r.FullDay}
}

func (e *Engine) flat(r model.FlatRates, p model.Package, days int) (Quote, error) {
	hours := hoursIn(p.StartTime, p.EndTime)
	if hours == 0 {
		return Quote{}, ErrEmptyWindow
	}
	q := Quote{DurationHours: hours, Days: days}

	var chosen option
	if days > 1 {
		chosen = newOption(fullDayItem(r, days))
	} else {
		chosen = cheapest(e.singleDayOptions(r, hours))
	}
	for _, it := range chosen.items {
		q.add(it)
	}

	if baseline := r.Hourly.Mul(hours * days); baseline > chosen.total {
		q.Savings = baseline - chosen.total
	}
	return q, nil
}

// singleDayOptions lists the candidates in evaluation order.  Ties go to
// the first candidate, so flat packages win up to the half-day threshold
// and plain hourly wins between the thresholds.  A package with a zero
// rate is not offered.
func (e *Engine) singleDayOptions(r model.FlatRates, hours int) []option {
	var opts []option
	offer := func(rate model.Money, items ...LineItem) {
		if rate > 0 {
			opts = append(opts, newOption(items...))
		}
	}
	hourly := newOption(hourlyItem(r, hours))

	switch {
	case hours <= e.HalfDayHours:
		offer(r.HalfDay, halfDayItem(r))
		offer(r.FullDay, fullDayItem(r, 1))
		opts = append(opts, hourly)
	case hours <= e.FullDayHours:
		opts = append(opts, hourly)
		offer(r.HalfDay, halfDayItem(r), hourlyItem(r, hours-e.HalfDayHours))
		offer(r.FullDay, fullDayItem(r, 1))
	default:
		offer(r.FullDay, fullDayItem(r, 1), hourlyItem(r, hours-e.FullDayHours))
		opts = append(opts, hourly)
	}
	return opts
}

func cheapest(opts []option) option {
	best := opts[0]
	for _, o := range opts[1:] {
		if o.total < best.total {
			best = o
		}
	}
	return best
}
