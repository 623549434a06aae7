package timeutil

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the ISO calendar date format used across the API.
const DateLayout = "2006-01-02"

// ClockLayout is the 24-hour wall time format without timezone.
const ClockLayout = "15:04"

// ParseDate parses an ISO calendar date.
func ParseDate(raw string) (time.Time, error) {
	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return d, nil
}

// FormatDate renders a time as an ISO calendar date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseClock validates and normalises a 24-hour wall time. The returned
// value is always zero padded so normalised clocks compare correctly as
// strings.
func ParseClock(raw string) (string, error) {
	t, err := time.Parse(ClockLayout, raw)
	if err != nil {
		return "", fmt.Errorf("invalid time %q: %w", raw, err)
	}
	return t.Format(ClockLayout), nil
}

// ClockMinutes converts a normalised wall time into minutes since midnight.
func ClockMinutes(clock string) (int, error) {
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// DurationHours computes the decimal-hour span between two wall times on
// a single calendar day. A numeric wrap past midnight (end < start) adds
// 24 hours, matching how logged spans have always been interpreted.
func DurationHours(start, end string) (float64, error) {
	startMin, err := ClockMinutes(start)
	if err != nil {
		return 0, err
	}
	endMin, err := ClockMinutes(end)
	if err != nil {
		return 0, err
	}
	delta := endMin - startMin
	if delta < 0 {
		delta += 24 * 60
	}
	return Round2(float64(delta) / 60.0), nil
}

// Round2 rounds to two decimal places.
func Round2(hours float64) float64 {
	return math.Round(hours*100) / 100
}
