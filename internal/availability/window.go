// Package availability decides whether a requested facility window is
// free given persisted bookings and temporary holds, and proposes
// alternative hourly slots when it is not.
package availability

import "github.com/iliyamo/facility-reservation/internal/model"

// Window is a reservation window on the date/time grid used for conflict
// checks.  Start and End are minutes since midnight with End exclusive.
type Window struct {
	StartDate model.Date
	EndDate   model.Date
	Start     model.ClockTime
	End       model.ClockTime
}

// sportOpen is where legacy sport records start their whole-day blocks.
var sportOpen = model.Clock(8, 0)

// WindowOf converts a package to a conflict window.  Records that end at
// 23:59 are stored that way because the CMS time field cannot express
// 24:00, so 23:59 is read as the end of the day.  00:00-23:59 and the
// sport variant 08:00-23:59 occupy the entire day.
func WindowOf(p model.Package) Window {
	w := Window{StartDate: p.StartDate, EndDate: p.EndDate, Start: p.StartTime, End: p.EndTime}
	if w.EndDate.IsZero() {
		w.EndDate = w.StartDate
	}
	if w.End.IsLastMinute() {
		w.End = model.EndOfDay
		if w.Start == model.Midnight || w.Start == sportOpen {
			w.Start = model.Midnight
		}
	}
	return w
}

// MultiDay reports whether the window spans more than one date.
func (w Window) MultiDay() bool {
	return !w.StartDate.Equal(w.EndDate)
}

// WholeDay reports whether a single-day window covers the full day.
func (w Window) WholeDay() bool {
	return w.Start == model.Midnight && w.End == model.EndOfDay
}

// DatesOverlap compares the date ranges inclusively.
func DatesOverlap(a, b Window) bool {
	return !a.StartDate.After(b.EndDate) && !a.EndDate.Before(b.StartDate)
}

// TimesOverlap compares time-of-day ranges as half-open intervals.
func TimesOverlap(a, b Window) bool {
	return a.Start < b.End && a.End > b.Start
}

// Conflicts reports whether two windows cannot both be booked.  Windows
// conflict when their date ranges intersect and either one spans several
// days, or both are on the same day with overlapping times.  Multi-day
// windows get no partial-day carve-out.
func Conflicts(a, b Window) bool {
	if !DatesOverlap(a, b) {
		return false
	}
	if a.MultiDay() || b.MultiDay() {
		return true
	}
	return TimesOverlap(a, b)
}
