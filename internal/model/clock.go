package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ClockTime is a time of day expressed in minutes since midnight.  The
// valid range is [0, 1440]; 1440 represents the end of the day ("24:00")
// and is only meaningful as an exclusive upper bound.
type ClockTime int

const (
	Midnight ClockTime = 0
	EndOfDay ClockTime = 24 * 60

	lastMinute = 23*60 + 59
)

// Clock builds a ClockTime from hours and minutes.
func Clock(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ParseClockTime accepts "HH:MM", "HH:MM:SS" and the CMS format
// "HH:MM:SS.mmm".  Seconds and milliseconds are truncated to the minute.
func ParseClockTime(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty time")
	}
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) > 2 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("invalid second in %q", s)
		}
	}
	if h < 0 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("hour out of range in %q", s)
	}
	return Clock(h, m), nil
}

// MustParseClock is ParseClockTime for literals.
func MustParseClock(s string) ClockTime {
	c, err := ParseClockTime(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c ClockTime) Hour() int   { return int(c) / 60 }
func (c ClockTime) Minute() int { return int(c) % 60 }

// Short renders "HH:MM".
func (c ClockTime) Short() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// String renders the CMS wire format "HH:MM:SS.mmm".
func (c ClockTime) String() string {
	return c.Short() + ":00.000"
}

// IsLastMinute reports whether c is 23:59, which legacy records use to
// mean "until the end of the day".
func (c ClockTime) IsLastMinute() bool { return c == lastMinute }

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(c.String())), nil
}

func (c *ClockTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
