package pricing

import "github.com/iliyamo/facility-reservation/internal/model"

// ItemKind groups line items on a quote.
type ItemKind string

const (
	ItemRental     ItemKind = "rental"
	ItemEquipment  ItemKind = "equipment"
	ItemConsumable ItemKind = "consumable"
)

// Unit is the billing unit of a line item.
type Unit string

const (
	UnitHour      Unit = "hour"
	UnitHalfDay   Unit = "half_day"
	UnitDay       Unit = "day"
	UnitItem      Unit = "item"
	UnitDayHour   Unit = "day_hour"
	UnitNightHour Unit = "night_hour"
)

// LineItem is one priced row of a quote.  Amount is always
// UnitPrice * Quantity.
type LineItem struct {
	Kind        ItemKind    `json:"kind"`
	Description string      `json:"description"`
	Quantity    int         `json:"quantity"`
	Unit        Unit        `json:"unit"`
	UnitPrice   model.Money `json:"unitPrice"`
	Amount      model.Money `json:"amount"`
}

// Quote is the priced breakdown of a request.
//
// Fields:
//
//	Items         - rental rows first, then equipment, then consumables.
//	Total         - sum of all item amounts.
//	Savings       - hourly-equivalent price minus the rental total, when
//	                positive.  Informational only.
//	DurationHours - billed hours per day, rounded up.
//	Days          - calendar days covered, inclusive.
type Quote struct {
	Items         []LineItem  `json:"items"`
	Total         model.Money `json:"total"`
	Savings       model.Money `json:"savings"`
	DurationHours int         `json:"durationHours"`
	Days          int         `json:"days"`
}

func (q *Quote) add(item LineItem) {
	item.Amount = item.UnitPrice.Mul(item.Quantity)
	q.Items = append(q.Items, item)
	q.Total += item.Amount
}

// Rental returns the sum of the rental rows.
func (q Quote) Rental() model.Money {
	var sum model.Money
	for _, it := range q.Items {
		if it.Kind == ItemRental {
			sum += it.Amount
		}
	}
	return sum
}
