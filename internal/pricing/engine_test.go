package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/facility-reservation/internal/model"
)

func money(v float64) model.Money { return model.FromFloat(v) }

var hall = model.Facility{
	ID:       1,
	Kind:     model.FacilityHall,
	Capacity: 100,
	Rates:    model.NewFlatRateCard(money(50), money(250), money(400)),
	EquipmentRates: map[string]model.Money{
		"projector": money(75),
		"sound":     money(120.5),
	},
}

var court = model.Facility{
	ID:       2,
	Kind:     model.FacilitySport,
	Capacity: 20,
	Rates:    model.NewDayNightRateCard(money(100), money(150)),
}

func window(start, end string) model.Package {
	d := model.MustParseDate("2024-03-01")
	return model.Package{Type: model.PackageHourly, StartDate: d, EndDate: d, StartTime: model.MustParseClock(start), EndTime: model.MustParseClock(end)}
}

func TestQuote_FiveHoursPrefersHalfDay(t *testing.T) {
	q, err := NewEngine(nil).Quote(Request{Facility: hall, Package: window("08:00", "13:00")})
	require.NoError(t, err)
	assert.Equal(t, money(250), q.Total)
	require.Len(t, q.Items, 1)
	assert.Equal(t, UnitHalfDay, q.Items[0].Unit)
	assert.Zero(t, q.Savings)
}

func TestQuote_SevenHoursTieGoesToHourly(t *testing.T) {
	q, err := NewEngine(nil).Quote(Request{Facility: hall, Package: window("08:00", "15:00")})
	require.NoError(t, err)
	assert.Equal(t, money(350), q.Total)
	require.Len(t, q.Items, 1)
	assert.Equal(t, UnitHour, q.Items[0].Unit)
	assert.Equal(t, 7, q.Items[0].Quantity)
}

func TestQuote_HalfDayPlusRemainder(t *testing.T) {
	f := hall
	f.Rates = model.NewFlatRateCard(money(60), money(200), money(500))
	q, err := NewEngine(nil).Quote(Request{Facility: f, Package: window("08:00", "14:00")})
	require.NoError(t, err)
	assert.Equal(t, money(260), q.Total)
	require.Len(t, q.Items, 2)
	assert.Equal(t, UnitHalfDay, q.Items[0].Unit)
	assert.Equal(t, 1, q.Items[1].Quantity)
	assert.Equal(t, money(100), q.Savings)
}

func TestQuote_OverFullDayAddsRemainder(t *testing.T) {
	q, err := NewEngine(nil).Quote(Request{Facility: hall, Package: window("08:00", "18:00")})
	require.NoError(t, err)
	assert.Equal(t, money(500), q.Total)
	require.Len(t, q.Items, 2)
	assert.Equal(t, UnitDay, q.Items[0].Unit)
	assert.Equal(t, 2, q.Items[1].Quantity)
	assert.Equal(t, money(0), q.Savings)
}

func TestQuote_PartialHourRoundsUp(t *testing.T) {
	q, err := NewEngine(nil).Quote(Request{Facility: hall, Package: window("09:00", "10:30")})
	require.NoError(t, err)
	assert.Equal(t, 2, q.DurationHours)
	assert.Equal(t, money(100), q.Total)
}

func TestQuote_MultiDay(t *testing.T) {
	p := model.Package{
		Type:      model.PackageMultiDay,
		StartDate: model.MustParseDate("2024-01-10"),
		EndDate:   model.MustParseDate("2024-01-12"),
		StartTime: model.Clock(8, 0),
		EndTime:   model.Clock(22, 0),
	}
	q, err := NewEngine(nil).Quote(Request{Facility: hall, Package: p, Equipment: []string{"projector"}})
	require.NoError(t, err)
	assert.Equal(t, 3, q.Days)
	assert.Equal(t, money(1200), q.Rental())
	require.Len(t, q.Items, 2)
	assert.Equal(t, 3, q.Items[1].Quantity)
	assert.Equal(t, money(225), q.Items[1].Amount)
	assert.Equal(t, money(1425), q.Total)
}

func TestQuote_Equipment(t *testing.T) {
	q, err := NewEngine(nil).Quote(Request{Facility: hall, Package: window("08:00", "10:00"), Equipment: []string{"sound"}})
	require.NoError(t, err)
	assert.Equal(t, money(220.5), q.Total)

	_, err = NewEngine(nil).Quote(Request{Facility: hall, Package: window("08:00", "10:00"), Equipment: []string{"laser"}})
	assert.ErrorIs(t, err, ErrUnknownEquipment)
}

func TestQuote_Errors(t *testing.T) {
	_, err := NewEngine(nil).Quote(Request{Facility: hall, Package: window("10:00", "10:00")})
	assert.ErrorIs(t, err, ErrEmptyWindow)

	p := window("08:00", "10:00")
	p.EndDate = p.StartDate.AddDays(-1)
	_, err = NewEngine(nil).Quote(Request{Facility: hall, Package: p})
	assert.ErrorIs(t, err, ErrEndBeforeStart)
}

func TestQuote_MonotonicAndCappedByHourly(t *testing.T) {
	cards := []model.RateCard{
		model.NewFlatRateCard(money(50), money(250), money(400)),
		model.NewFlatRateCard(money(50), money(180), money(300)),
		model.NewFlatRateCard(money(30), money(250), money(500)),
		model.NewFlatRateCard(money(80), money(0), money(450)),
	}
	e := NewEngine(nil)
	for _, card := range cards {
		f := hall
		f.Rates = card
		var prev model.Money
		for h := 1; h <= 14; h++ {
			q, err := e.Quote(Request{Facility: f, Package: window("08:00", model.Clock(8+h, 0).Short())})
			require.NoError(t, err)
			assert.GreaterOrEqual(t, q.Total, prev, "hours=%d", h)
			assert.LessOrEqual(t, q.Total, card.Flat.Hourly.Mul(h), "hours=%d", h)
			prev = q.Total
		}
	}
}

func TestQuote_Idempotent(t *testing.T) {
	e := NewEngine(nil)
	req := Request{Facility: hall, Package: window("08:00", "15:00"), Equipment: []string{"projector"}}
	a, err := e.Quote(req)
	require.NoError(t, err)
	b, err := e.Quote(req)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestQuote_DayNight(t *testing.T) {
	e := NewEngine(nil)

	q, err := e.Quote(Request{Facility: court, Package: window("17:00", "19:00")})
	require.NoError(t, err)
	assert.Equal(t, money(200), q.Total)

	q, err = e.Quote(Request{Facility: court, Package: window("20:00", "23:59")})
	require.NoError(t, err)
	assert.Equal(t, 4, q.DurationHours)
	assert.Equal(t, money(600), q.Total)

	_, err = e.Quote(Request{Facility: court, Package: window("18:00", "21:00")})
	assert.ErrorIs(t, err, ErrUnpricedHours)

	_, err = e.Quote(Request{Facility: court, Package: window("10:00", "11:00")})
	assert.ErrorIs(t, err, ErrBelowMinimum)
}

func TestQuote_DayNightWholeDaySkipsGap(t *testing.T) {
	e := NewEngine(nil)
	p := window("08:00", "23:59")
	p.Type = model.PackageFullDay
	q, err := e.Quote(Request{Facility: court, Package: p})
	require.NoError(t, err)
	require.Len(t, q.Items, 2)
	assert.Equal(t, 11, q.Items[0].Quantity)
	assert.Equal(t, 4, q.Items[1].Quantity)

	p.Type = model.PackageMultiDay
	p.EndDate = p.StartDate.AddDays(1)
	q2, err := e.Quote(Request{Facility: court, Package: p})
	require.NoError(t, err)
	assert.Equal(t, q.Total*2, q2.Total)
}

func TestWithConsumables(t *testing.T) {
	e := NewEngine(map[string]model.Money{"water": money(5)})
	q, err := e.Quote(Request{Facility: hall, Package: window("08:00", "10:00")})
	require.NoError(t, err)

	withWater, err := e.WithConsumables(q, []model.Consumable{{Name: "water", Quantity: 10}, {Name: "water", Quantity: 0}})
	require.NoError(t, err)
	assert.Equal(t, money(150), withWater.Total)
	assert.Len(t, withWater.Items, 2)
	assert.Len(t, q.Items, 1, "original quote is not modified")

	_, err = e.WithConsumables(q, []model.Consumable{{Name: "coffee", Quantity: 1}})
	assert.ErrorIs(t, err, ErrUnknownConsumable)
}
