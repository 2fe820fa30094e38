package model

// FacilityKind distinguishes general rooms and halls from sport venues,
// which use day/night pricing and their own opening windows.
type FacilityKind string

const (
	FacilityRoom  FacilityKind = "ROOM"
	FacilityHall  FacilityKind = "HALL"
	FacilitySport FacilityKind = "SPORT"
)

// RateKind tags which variant of RateCard is populated.
type RateKind string

const (
	RateFlat     RateKind = "FLAT"
	RateDayNight RateKind = "DAY_NIGHT"
)

// FlatRates is the rate card of general facilities.
type FlatRates struct {
	Hourly  Money `json:"hourlyRate"`
	HalfDay Money `json:"halfDayRate"`
	FullDay Money `json:"fullDayRate"`
}

// DayNightRates is the hourly rate card of sport facilities.
type DayNightRates struct {
	Day   Money `json:"dayRate"`
	Night Money `json:"nightRate"`
}

// RateCard is a tagged variant: exactly one of Flat or DayNight is
// meaningful, selected by Kind.
type RateCard struct {
	Kind     RateKind      `json:"kind"`
	Flat     FlatRates     `json:"flat"`
	DayNight DayNightRates `json:"dayNight"`
}

// NewFlatRateCard builds a Flat rate card.
func NewFlatRateCard(hourly, halfDay, fullDay Money) RateCard {
	return RateCard{Kind: RateFlat, Flat: FlatRates{Hourly: hourly, HalfDay: halfDay, FullDay: fullDay}}
}

// NewDayNightRateCard builds a DayNight rate card.
func NewDayNightRateCard(day, night Money) RateCard {
	return RateCard{Kind: RateDayNight, DayNight: DayNightRates{Day: day, Night: night}}
}

// Facility is the read-only view of a bookable room, hall or sport court
// as served by the CMS.
//
// Fields:
//
//	ID                - CMS identifier.
//	Name              - display name used in e-mails and quotes.
//	Kind              - ROOM, HALL or SPORT.
//	Capacity          - maximum attendance (inclusive).
//	Rates             - flat or day/night rate card.
//	EquipmentRates    - per-item daily rates keyed by item name.
//	RequireAdvanceDay - bookings must be made at least one day ahead.
type Facility struct {
	ID                int64            `json:"id"`
	Name              string           `json:"name"`
	Kind              FacilityKind     `json:"kind"`
	Capacity          int              `json:"capacity"`
	Rates             RateCard         `json:"rates"`
	EquipmentRates    map[string]Money `json:"equipmentRates,omitempty"`
	RequireAdvanceDay bool             `json:"requireAdvanceDay"`
}

// IsSport reports whether the facility uses the sport booking rules.
func (f Facility) IsSport() bool {
	return f.Kind == FacilitySport || f.Rates.Kind == RateDayNight
}
