package daterange_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirely/internal/domain/shared/daterange"
	"hirely/internal/domain/shared/fault"
)

func at(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDays(t *testing.T) {
	type testCase struct {
		name  string
		start string
		end   string
		days  int
	}

	tests := []testCase{
		{name: "whole days", start: "2025-03-01T00:00:00Z", end: "2025-03-06T00:00:00Z", days: 5},
		{name: "partial day rounds up", start: "2025-03-01T10:00:00Z", end: "2025-03-02T11:00:00Z", days: 2},
		{name: "under a day", start: "2025-03-01T10:00:00Z", end: "2025-03-01T12:00:00Z", days: 1},
		{name: "reversed", start: "2025-03-02T00:00:00Z", end: "2025-03-01T00:00:00Z", days: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dr := daterange.DateRange{Start: at(tt.start), End: at(tt.end)}
			assert.Equal(t, tt.days, dr.Days())
		})
	}
}

func TestNewRejectsEmptyOrReversed(t *testing.T) {
	_, err := daterange.New(at("2025-03-02T00:00:00Z"), at("2025-03-02T00:00:00Z"))
	assert.ErrorIs(t, err, fault.ErrInvalidDateRange)

	_, err = daterange.New(at("2025-03-03T00:00:00Z"), at("2025-03-02T00:00:00Z"))
	assert.ErrorIs(t, err, fault.ErrInvalidDateRange)

	_, err = daterange.New(time.Time{}, at("2025-03-02T00:00:00Z"))
	assert.ErrorIs(t, err, fault.ErrInvalidDateRange)
}

func TestEachDayIsInclusive(t *testing.T) {
	dr, err := daterange.New(at("2025-03-01T00:00:00Z"), at("2025-03-03T00:00:00Z"))
	require.NoError(t, err)

	assert.Equal(t, []string{"2025-03-01", "2025-03-02", "2025-03-03"}, dr.EachDay())
	assert.True(t, dr.ContainsDate(at("2025-03-03T18:00:00Z")))
	assert.False(t, dr.ContainsDate(at("2025-03-04T00:00:00Z")))
}

func TestOverlaps(t *testing.T) {
	base, err := daterange.New(at("2025-03-01T00:00:00Z"), at("2025-03-03T00:00:00Z"))
	require.NoError(t, err)

	touching, err := daterange.New(at("2025-03-03T00:00:00Z"), at("2025-03-05T00:00:00Z"))
	require.NoError(t, err)
	apart, err := daterange.New(at("2025-03-04T00:00:00Z"), at("2025-03-05T00:00:00Z"))
	require.NoError(t, err)

	assert.True(t, base.Overlaps(touching))
	assert.False(t, base.Overlaps(apart))
}

func TestParseDay(t *testing.T) {
	day, err := daterange.ParseDay("2025-12-31")
	require.NoError(t, err)
	assert.Equal(t, "2025-12-31", daterange.FormatDay(day))

	_, err = daterange.ParseDay("31/12/2025")
	assert.ErrorIs(t, err, fault.ErrValidation)
}
