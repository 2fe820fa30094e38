// Package booking enforces the business rules a booking must satisfy
// before it is persisted and the status transitions allowed afterwards.
package booking

import (
	"fmt"
	"time"

	"github.com/iliyamo/facility-reservation/internal/model"
)

// Error codes returned in ValidationError.Code.
const (
	CodeInvalidDateFormat      = "INVALID_DATE_FORMAT"
	CodePastDate               = "PAST_DATE"
	CodeEndBeforeStart         = "END_BEFORE_START"
	CodeInvalidTimeRange       = "INVALID_TIME_RANGE"
	CodeOutsideOperatingHours  = "OUTSIDE_OPERATING_HOURS"
	CodeSportGapHours          = "SPORT_GAP_HOURS"
	CodeDurationTooShort       = "DURATION_TOO_SHORT"
	CodeInsufficientLeadTime   = "INSUFFICIENT_LEAD_TIME"
	CodeAdvanceBookingRequired = "ADVANCE_BOOKING_REQUIRED"
	CodeInvalidAttendance      = "INVALID_ATTENDANCE"
)

// ValidationError is a business rule violation.  Field names the request
// field at fault.
type ValidationError struct {
	Code    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(code, field, format string, args ...any) error {
	return &ValidationError{Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}

// Profile is the set of time rules of a booking flow.
//
// Fields:
//
//	Bands         - bookable time bands in order.  A window must lie
//	                between the first start and the last end and may not
//	                touch the gap between two bands.
//	MinDuration   - shortest allowed window.
//	SameDayBuffer - minimum gap between now and a same-day start.
type Profile struct {
	Name          string
	Bands         []Band
	MinDuration   time.Duration
	SameDayBuffer time.Duration
}

// Band is a half-open [Start, End) opening window.
type Band struct {
	Start model.ClockTime
	End   model.ClockTime
}

// General is the profile of rooms and halls: 08:00-22:00, at least one
// hour, thirty minutes notice on the same day.
var General = Profile{
	Name:          "general",
	Bands:         []Band{{model.Clock(8, 0), model.Clock(22, 0)}},
	MinDuration:   time.Hour,
	SameDayBuffer: 30 * time.Minute,
}

// Sport is the profile of sport facilities: a day band 08:00-19:00 and a
// night band 20:00-24:00, at least two hours.
var Sport = Profile{
	Name:          "sport",
	Bands:         []Band{{model.Clock(8, 0), model.Clock(19, 0)}, {model.Clock(20, 0), model.EndOfDay}},
	MinDuration:   2 * time.Hour,
	SameDayBuffer: 30 * time.Minute,
}

// ProfileFor picks the profile matching the facility.
func ProfileFor(f model.Facility) Profile {
	if f.IsSport() {
		return Sport
	}
	return General
}

// Input is the raw booking window as submitted by the client.
// FULL_DAY and MULTI_DAY packages cover every band of the day, so the gap
// between bands does not apply to them.
type Input struct {
	PackageType model.PackageType
	StartDate   string
	EndDate     string
	StartTime   string
	EndTime     string
	Attendance  int
	Capacity    int
}

// Validator runs the booking rules in order and stops at the first
// violation.
type Validator struct {
	Profile        Profile
	RequireNextDay bool
	Location       *time.Location
	Now            func() time.Time
}

// NewValidator returns a validator for the given profile evaluated in loc.
func NewValidator(p Profile, loc *time.Location) *Validator {
	if loc == nil {
		loc = time.UTC
	}
	return &Validator{Profile: p, Location: loc, Now: time.Now}
}

// ForFacility returns a copy of v using the facility's profile and
// advance-booking requirement.
func (v *Validator) ForFacility(f model.Facility) *Validator {
	c := *v
	c.Profile = ProfileFor(f)
	c.RequireNextDay = v.RequireNextDay || f.RequireAdvanceDay
	return &c
}

// Validate checks in and returns the parsed window typed as
// in.PackageType.
func (v *Validator) Validate(in Input) (model.Package, error) {
	now := v.Now().In(v.Location)
	today := model.DateOf(now)

	// dates
	start, err := model.ParseDate(in.StartDate)
	if err != nil {
		return model.Package{}, invalid(CodeInvalidDateFormat, "startDate", "start date must be YYYY-MM-DD")
	}
	end := start
	if in.EndDate != "" {
		if end, err = model.ParseDate(in.EndDate); err != nil {
			return model.Package{}, invalid(CodeInvalidDateFormat, "endDate", "end date must be YYYY-MM-DD")
		}
	}
	if start.Before(today) {
		return model.Package{}, invalid(CodePastDate, "startDate", "start date %s is in the past", start)
	}

	// date order
	if end.Before(start) {
		return model.Package{}, invalid(CodeEndBeforeStart, "endDate", "end date %s is before start date %s", end, start)
	}

	// times
	from, err := model.ParseClockTime(in.StartTime)
	if err != nil {
		return model.Package{}, invalid(CodeInvalidTimeRange, "startTime", "start time must be HH:MM")
	}
	to, err := model.ParseClockTime(in.EndTime)
	if err != nil {
		return model.Package{}, invalid(CodeInvalidTimeRange, "endTime", "end time must be HH:MM")
	}
	if to.IsLastMinute() {
		to = model.EndOfDay
	}
	if from >= to {
		return model.Package{}, invalid(CodeInvalidTimeRange, "endTime", "start time must be before end time")
	}

	// opening hours
	wholeDay := in.PackageType == model.PackageFullDay || in.PackageType == model.PackageMultiDay
	if err := v.checkBands(from, to, wholeDay); err != nil {
		return model.Package{}, err
	}

	// duration
	if d := time.Duration(to-from) * time.Minute; d < v.Profile.MinDuration {
		return model.Package{}, invalid(CodeDurationTooShort, "endTime", "minimum duration is %s", formatDuration(v.Profile.MinDuration))
	}

	// lead time
	if v.RequireNextDay && !start.After(today) {
		return model.Package{}, invalid(CodeAdvanceBookingRequired, "startDate", "bookings must be made at least one day in advance")
	}
	if start.Equal(today) && start.At(from, v.Location).Before(now.Add(v.Profile.SameDayBuffer)) {
		return model.Package{}, invalid(CodeInsufficientLeadTime, "startTime", "same-day bookings must start at least %s from now", formatDuration(v.Profile.SameDayBuffer))
	}

	// attendance
	if in.Attendance < 1 || (in.Capacity > 0 && in.Attendance > in.Capacity) {
		return model.Package{}, invalid(CodeInvalidAttendance, "attendance", "attendance must be between 1 and %d", in.Capacity)
	}

	return model.Package{Type: in.PackageType, StartDate: start, EndDate: end, StartTime: from, EndTime: to}, nil
}

// checkBands requires [from, to) to lie inside the union of the bands.
// A window touching a gap between two bands is reported separately
// unless it is a whole-day package.
func (v *Validator) checkBands(from, to model.ClockTime, wholeDay bool) error {
	bands := v.Profile.Bands
	first, last := bands[0].Start, bands[len(bands)-1].End
	if from < first || to > last {
		return invalid(CodeOutsideOperatingHours, "startTime", "bookings must be between %s and %s", first.Short(), last.Short())
	}
	for i := 0; !wholeDay && i+1 < len(bands); i++ {
		gapStart, gapEnd := bands[i].End, bands[i+1].Start
		if from < gapEnd && to > gapStart {
			return invalid(CodeSportGapHours, "startTime", "%s-%s is not bookable", gapStart.Short(), gapEnd.Short())
		}
	}
	return nil
}

func formatDuration(d time.Duration) string {
	if d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	return fmt.Sprintf("%d minutes", int(d/time.Minute))
}
