package availability

import (
	"errors"
	"fmt"

	"github.com/iliyamo/facility-reservation/internal/model"
)

var (
	ErrMissingPackageType = errors.New("package type is required")
	ErrUnknownPackageType = errors.New("unknown package type")
	ErrMissingStartDate   = errors.New("start date is required")
	ErrMissingHourlyTimes = errors.New("start and end time are required for hourly packages")
	ErrUnknownPeriod      = errors.New("unknown half-day period")
)

// HalfDayPeriod names one of the fixed half-day blocks.
type HalfDayPeriod string

const (
	PeriodMorning   HalfDayPeriod = "morning"
	PeriodAfternoon HalfDayPeriod = "afternoon"
	PeriodEvening   HalfDayPeriod = "evening"
)

type span struct{ start, end model.ClockTime }

var halfDayPeriods = map[HalfDayPeriod]span{
	PeriodMorning:   {model.Clock(8, 0), model.Clock(13, 0)},
	PeriodAfternoon: {model.Clock(13, 0), model.Clock(18, 0)},
	PeriodEvening:   {model.Clock(17, 0), model.Clock(22, 0)},
}

var (
	fullDaySpan  = span{model.Clock(8, 0), model.Clock(16, 0)}
	multiDaySpan = span{model.Clock(8, 0), model.Clock(22, 0)}
	sportDaySpan = span{model.Clock(8, 0), model.Clock(23, 59)}
)

// PackageRequest is the client's selection before it is turned into a
// concrete window.  Times are only read for HOURLY packages.
type PackageRequest struct {
	Type          model.PackageType
	StartDate     model.Date
	EndDate       model.Date
	StartTime     *model.ClockTime
	EndTime       *model.ClockTime
	HalfDayPeriod HalfDayPeriod
}

// ResolvePackage turns a package selection into a concrete window.
// HALF_DAY defaults to the morning block when no period is given.
func ResolvePackage(f model.Facility, req PackageRequest) (model.Package, error) {
	if req.Type == "" {
		return model.Package{}, ErrMissingPackageType
	}
	if !req.Type.Valid() {
		return model.Package{}, fmt.Errorf("%w: %s", ErrUnknownPackageType, req.Type)
	}
	if req.StartDate.IsZero() {
		return model.Package{}, ErrMissingStartDate
	}

	p := model.Package{Type: req.Type, StartDate: req.StartDate, EndDate: req.StartDate}
	switch req.Type {
	case model.PackageHourly:
		if req.StartTime == nil || req.EndTime == nil {
			return model.Package{}, ErrMissingHourlyTimes
		}
		p.StartTime, p.EndTime = *req.StartTime, *req.EndTime
	case model.PackageHalfDay:
		period := req.HalfDayPeriod
		if period == "" {
			period = PeriodMorning
		}
		s, ok := halfDayPeriods[period]
		if !ok {
			return model.Package{}, fmt.Errorf("%w: %s", ErrUnknownPeriod, period)
		}
		p.StartTime, p.EndTime = s.start, s.end
	case model.PackageFullDay:
		s := fullDaySpan
		if f.IsSport() {
			s = sportDaySpan
		}
		p.StartTime, p.EndTime = s.start, s.end
	case model.PackageMultiDay:
		s := multiDaySpan
		if f.IsSport() {
			s = sportDaySpan
		}
		if !req.EndDate.IsZero() {
			p.EndDate = req.EndDate
		}
		p.StartTime, p.EndTime = s.start, s.end
	}
	return p, nil
}
