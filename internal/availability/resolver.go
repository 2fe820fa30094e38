package availability

import (
	"fmt"

	"github.com/iliyamo/facility-reservation/internal/model"
)

// ConflictReason explains why a window is unavailable.
type ConflictReason string

const (
	ReasonNone            ConflictReason = ""
	ReasonExistingBooking ConflictReason = "existing_booking"
	ReasonTemporaryHold   ConflictReason = "temporary_hold"
)

// Slot is a suggested one-hour alternative on the requested start date.
type Slot struct {
	StartTime model.ClockTime `json:"startTime"`
	EndTime   model.ClockTime `json:"endTime"`
	Display   string          `json:"display"`
}

// Request carries everything a check needs.  Bookings may include
// rejected or cancelled records and records of other facilities; both are
// ignored.  Holds must already exclude the caller's own session.
type Request struct {
	FacilityID int64
	Package    model.Package
	Bookings   []model.Booking
	Holds      []model.TemporaryHold
}

// Result is the outcome of Resolver.Check.
type Result struct {
	Available      bool
	ConflictReason ConflictReason
	Alternatives   []Slot
}

// Resolver evaluates requests against the operating day used for
// alternative suggestions.
type Resolver struct {
	Open  model.ClockTime
	Close model.ClockTime
}

// NewResolver returns a Resolver suggesting alternatives between open and
// close.
func NewResolver(open, close model.ClockTime) *Resolver {
	return &Resolver{Open: open, Close: close}
}

// DefaultResolver suggests hourly slots between 08:00 and 22:00.
func DefaultResolver() *Resolver {
	return NewResolver(model.Clock(8, 0), model.Clock(22, 0))
}

// Check classifies the requested package.  Persisted bookings take
// precedence over holds when both conflict.
func (r *Resolver) Check(req Request) Result {
	want := WindowOf(req.Package)
	blocking := blockingWindows(req)

	res := Result{Available: true}
	switch {
	case anyConflict(want, blocking.bookings):
		res.Available = false
		res.ConflictReason = ReasonExistingBooking
	case anyConflict(want, blocking.holds):
		res.Available = false
		res.ConflictReason = ReasonTemporaryHold
	}
	if !res.Available && req.Package.Type != model.PackageHourly {
		res.Alternatives = r.alternatives(want.StartDate, blocking)
	}
	return res
}

type windowSet struct {
	bookings []Window
	holds    []Window
}

func blockingWindows(req Request) windowSet {
	var ws windowSet
	for _, b := range req.Bookings {
		if !b.Status.BlocksSlot() {
			continue
		}
		if req.FacilityID != 0 && b.FacilityID != 0 && b.FacilityID != req.FacilityID {
			continue
		}
		ws.bookings = append(ws.bookings, WindowOf(b.Package()))
	}
	for _, h := range req.Holds {
		if req.FacilityID != 0 && h.FacilityID != req.FacilityID {
			continue
		}
		ws.holds = append(ws.holds, WindowOf(h.Package))
	}
	return ws
}

func anyConflict(w Window, others []Window) bool {
	for _, o := range others {
		if Conflicts(w, o) {
			return true
		}
	}
	return false
}

func (r *Resolver) alternatives(day model.Date, ws windowSet) []Slot {
	slots := []Slot{}
	for start := r.Open; start+60 <= r.Close; start += 60 {
		w := Window{StartDate: day, EndDate: day, Start: start, End: start + 60}
		if anyConflict(w, ws.bookings) || anyConflict(w, ws.holds) {
			continue
		}
		slots = append(slots, Slot{
			StartTime: w.Start,
			EndTime:   w.End,
			Display:   fmt.Sprintf("%s - %s", w.Start.Short(), w.End.Short()),
		})
	}
	return slots
}
