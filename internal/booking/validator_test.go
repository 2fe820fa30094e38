package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/facility-reservation/internal/model"
)

// fixed "now": 2024-03-01 10:00 UTC.
func fixedValidator(p Profile) *Validator {
	v := NewValidator(p, time.UTC)
	v.Now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }
	return v
}

func validInput() Input {
	return Input{
		StartDate:  "2024-03-05",
		EndDate:    "2024-03-05",
		StartTime:  "09:00",
		EndTime:    "11:00",
		Attendance: 10,
		Capacity:   50,
	}
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	return ve.Code
}

func TestValidate_OK(t *testing.T) {
	p, err := fixedValidator(General).Validate(validInput())
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", p.StartDate.String())
	assert.Equal(t, model.Clock(9, 0), p.StartTime)
	assert.Equal(t, model.Clock(11, 0), p.EndTime)
}

func TestValidate_Rules(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		mutate  func(*Input)
		code    string
	}{
		{"bad date", General, func(in *Input) { in.StartDate = "05/03/2024" }, CodeInvalidDateFormat},
		{"bad end date", General, func(in *Input) { in.EndDate = "2024-13-01" }, CodeInvalidDateFormat},
		{"past date", General, func(in *Input) { in.StartDate, in.EndDate = "2024-02-29", "2024-02-29" }, CodePastDate},
		{"end before start", General, func(in *Input) { in.EndDate = "2024-03-04" }, CodeEndBeforeStart},
		{"equal times", General, func(in *Input) { in.EndTime = "09:00" }, CodeInvalidTimeRange},
		{"reversed times", General, func(in *Input) { in.StartTime, in.EndTime = "12:00", "10:00" }, CodeInvalidTimeRange},
		{"bad time", General, func(in *Input) { in.StartTime = "9am" }, CodeInvalidTimeRange},
		{"too early", General, func(in *Input) { in.StartTime = "07:00" }, CodeOutsideOperatingHours},
		{"too late", General, func(in *Input) { in.EndTime = "22:30" }, CodeOutsideOperatingHours},
		{"short", General, func(in *Input) { in.EndTime = "09:30" }, CodeDurationTooShort},
		{"sport gap", Sport, func(in *Input) { in.StartTime, in.EndTime = "18:00", "21:00" }, CodeSportGapHours},
		{"sport short", Sport, func(in *Input) { in.StartTime, in.EndTime = "20:00", "21:00" }, CodeDurationTooShort},
		{"same day buffer", General, func(in *Input) { in.StartDate, in.EndDate, in.StartTime, in.EndTime = "2024-03-01", "2024-03-01", "10:15", "12:00" }, CodeInsufficientLeadTime},
		{"no attendance", General, func(in *Input) { in.Attendance = 0 }, CodeInvalidAttendance},
		{"over capacity", General, func(in *Input) { in.Attendance = 51 }, CodeInvalidAttendance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := fixedValidator(tt.profile).Validate(in)
			assert.Equal(t, tt.code, codeOf(t, err))
		})
	}
}

func TestValidate_RulesShortCircuitInOrder(t *testing.T) {
	in := validInput()
	in.StartDate = "2024-02-01"
	in.EndDate = "2024-01-01"
	in.Attendance = 0
	_, err := fixedValidator(General).Validate(in)
	assert.Equal(t, CodePastDate, codeOf(t, err))
}

func TestValidate_SameDayWithBuffer(t *testing.T) {
	in := validInput()
	in.StartDate, in.EndDate, in.StartTime, in.EndTime = "2024-03-01", "", "10:30", "12:00"
	_, err := fixedValidator(General).Validate(in)
	assert.NoError(t, err)
}

func TestValidate_RequireNextDay(t *testing.T) {
	v := fixedValidator(General)
	v.RequireNextDay = true
	in := validInput()
	in.StartDate, in.EndDate, in.StartTime, in.EndTime = "2024-03-01", "2024-03-01", "14:00", "16:00"
	_, err := v.Validate(in)
	assert.Equal(t, CodeAdvanceBookingRequired, codeOf(t, err))

	in.StartDate, in.EndDate = "2024-03-02", "2024-03-02"
	_, err = v.Validate(in)
	assert.NoError(t, err)
}

func TestValidate_SportNightUntilMidnight(t *testing.T) {
	in := validInput()
	in.StartTime, in.EndTime = "20:00", "23:59"
	p, err := fixedValidator(Sport).Validate(in)
	require.NoError(t, err)
	assert.Equal(t, model.EndOfDay, p.EndTime)
}

func TestValidate_SportWholeDayIgnoresGap(t *testing.T) {
	in := validInput()
	in.PackageType = model.PackageFullDay
	in.StartTime, in.EndTime = "08:00", "23:59"
	p, err := fixedValidator(Sport).Validate(in)
	require.NoError(t, err)
	assert.Equal(t, model.PackageFullDay, p.Type)

	in.PackageType = model.PackageHourly
	_, err = fixedValidator(Sport).Validate(in)
	assert.Equal(t, CodeSportGapHours, codeOf(t, err))
}

func TestForFacility(t *testing.T) {
	v := fixedValidator(General)
	sport := v.ForFacility(model.Facility{Kind: model.FacilitySport, RequireAdvanceDay: true})
	assert.Equal(t, "sport", sport.Profile.Name)
	assert.True(t, sport.RequireNextDay)
	assert.Equal(t, "general", v.Profile.Name, "receiver is not modified")
	assert.False(t, v.RequireNextDay)
}
