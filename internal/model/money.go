package model

import (
	"encoding/json"
	"fmt"
	"math"
)

// Money is a non-negative amount in minor units (cents).  There is a
// single implicit currency; no conversion is ever performed.
type Money int64

// FromFloat converts a major-unit amount (as returned by the CMS) to Money,
// rounding half away from zero.
func FromFloat(v float64) Money {
	return Money(math.Round(v * 100))
}

// Float returns the amount in major units.
func (m Money) Float() float64 { return float64(m) / 100 }

// Mul multiplies the amount by a whole quantity.
func (m Money) Mul(n int) Money { return m * Money(n) }

// String renders the amount with two decimals.
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON writes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	var f *float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	if f == nil {
		*m = 0
		return nil
	}
	*m = FromFloat(*f)
	return nil
}
