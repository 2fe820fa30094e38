package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// NumberPrefix starts every booking number.
const NumberPrefix = "UTC"

// maxNumberAttempts bounds the uniqueness re-check.
const maxNumberAttempts = 5

// ErrNumberExhausted is returned when every candidate number was taken.
var ErrNumberExhausted = errors.New("could not allocate a unique booking number")

// NumberSource is the store queried for existing booking numbers.
type NumberSource interface {
	// HighestNumberForYear returns the highest booking number issued in
	// the year, or "" when there is none.
	HighestNumberForYear(ctx context.Context, year int) (string, error)
	ExistsNumber(ctx context.Context, number string) (bool, error)
}

// NumberGenerator issues booking numbers of the form UTC-YYYY-NNNN.
type NumberGenerator struct {
	src NumberSource
	now func() time.Time
}

// NewNumberGenerator returns a generator backed by src.
func NewNumberGenerator(src NumberSource, now func() time.Time) *NumberGenerator {
	if src == nil {
		panic("booking: nil NumberSource")
	}
	if now == nil {
		now = time.Now
	}
	return &NumberGenerator{src: src, now: now}
}

// FormatNumber renders a booking number.
func FormatNumber(year, seq int) string {
	return fmt.Sprintf("%s-%04d-%04d", NumberPrefix, year, seq)
}

// ParseNumber splits a booking number into year and sequence.
func ParseNumber(s string) (year, seq int, ok bool) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 || parts[0] != NumberPrefix {
		return 0, 0, false
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 4 {
		return 0, 0, false
	}
	seq, err = strconv.Atoi(parts[2])
	if err != nil || seq < 0 {
		return 0, 0, false
	}
	return year, seq, true
}

// Next returns the next booking number for the current UTC year: the
// highest existing sequence plus one.  When the store cannot be queried a
// time-derived sequence is used instead.  Each candidate is checked for
// uniqueness up to five times; a failed existence check accepts the
// candidate.
func (g *NumberGenerator) Next(ctx context.Context) (string, error) {
	now := g.now().UTC()
	year := now.Year()

	seq := 1
	highest, err := g.src.HighestNumberForYear(ctx, year)
	switch {
	case err != nil:
		seq = fallbackSequence(now)
		log.Warn().Err(err).Int("sequence", seq).Msg("booking number lookup failed, using time-based sequence")
	case highest != "":
		if y, s, ok := ParseNumber(highest); ok && y == year {
			seq = s + 1
		}
	}

	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		candidate := FormatNumber(year, seq+attempt)
		exists, err := g.src.ExistsNumber(ctx, candidate)
		if err != nil {
			log.Warn().Err(err).Str("number", candidate).Msg("booking number uniqueness check failed")
			return candidate, nil
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrNumberExhausted
}

// fallbackSequence derives a sequence in [1000, 9999] from the clock.
func fallbackSequence(now time.Time) int {
	return 1000 + int(now.UnixMilli()%9000)
}
