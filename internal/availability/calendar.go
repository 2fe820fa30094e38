package availability

import (
	"fmt"
	"sort"
	"time"

	"github.com/iliyamo/facility-reservation/internal/model"
)

// DayAvailability is one calendar cell.  Available means nothing is
// booked on the date; PartiallyAvailable means something is booked but
// free hours remain inside the operating day.
type DayAvailability struct {
	Available          bool     `json:"available"`
	PartiallyAvailable bool     `json:"partiallyAvailable"`
	BookedTimeSlots    []string `json:"bookedTimeSlots"`
}

// MonthCalendar builds the per-date availability map of a month keyed by
// YYYY-MM-DD.  Only bookings whose status blocks a slot are considered.
func (r *Resolver) MonthCalendar(bookings []model.Booking, year int, month time.Month) map[string]DayAvailability {
	first := model.NewDate(year, month, 1)
	last := first.AddDays(daysIn(year, month) - 1)

	var windows []Window
	for _, b := range bookings {
		if !b.Status.BlocksSlot() {
			continue
		}
		w := WindowOf(b.Package())
		if w.EndDate.Before(first) || w.StartDate.After(last) {
			continue
		}
		windows = append(windows, w)
	}

	out := make(map[string]DayAvailability, daysIn(year, month))
	for d := first; !d.After(last); d = d.AddDays(1) {
		out[d.String()] = r.day(d, windows)
	}
	return out
}

func (r *Resolver) day(d model.Date, windows []Window) DayAvailability {
	var spans []span
	for _, w := range windows {
		if d.Before(w.StartDate) || d.After(w.EndDate) {
			continue
		}
		if w.MultiDay() {
			spans = append(spans, span{model.Midnight, model.EndOfDay})
			continue
		}
		spans = append(spans, span{w.Start, w.End})
	}
	if len(spans) == 0 {
		return DayAvailability{Available: true, BookedTimeSlots: []string{}}
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end < spans[j].end
	})
	slots := make([]string, 0, len(spans))
	for _, s := range spans {
		slots = append(slots, fmt.Sprintf("%s-%s", s.start.Short(), s.end.Short()))
	}
	return DayAvailability{
		PartiallyAvailable: r.hasFreeHour(spans),
		BookedTimeSlots:    slots,
	}
}

// hasFreeHour reports whether at least one whole operating hour is not
// covered by the sorted spans.
func (r *Resolver) hasFreeHour(spans []span) bool {
	for start := r.Open; start+60 <= r.Close; start += 60 {
		free := true
		for _, s := range spans {
			if start < s.end && start+60 > s.start {
				free = false
				break
			}
		}
		if free {
			return true
		}
	}
	return false
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
