package timeutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClockNormalises(t *testing.T) {
	clock, err := ParseClock("9:05")
	require.NoError(t, err)
	assert.Equal(t, "09:05", clock)

	_, err = ParseClock("25:00")
	assert.Error(t, err)

	_, err = ParseClock("bogus")
	assert.Error(t, err)
}

func TestDurationHours(t *testing.T) {
	cases := []struct {
		start, end string
		want       float64
	}{
		{"01:00", "02:00", 1},
		{"01:45", "02:00", 0.25},
		{"01:00", "13:00", 12},
		{"01:00", "01:00", 0},
		{"22:00", "01:00", 3},
		{"13:00", "01:00", 12},
		{"09:00", "10:30", 1.5},
	}
	for _, tc := range cases {
		got, err := DurationHours(tc.start, tc.end)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s-%s", tc.start, tc.end)
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 3.0, Round2(1.0+2.0))
	assert.Equal(t, 0.33, Round2(1.0/3.0))
	assert.Equal(t, 1.67, Round2(5.0/3.0))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2050-06-05")
	require.NoError(t, err)
	assert.Equal(t, "2050-06-05", FormatDate(d))

	_, err = ParseDate("05/06/2050")
	assert.Error(t, err)
}
