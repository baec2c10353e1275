package daterange

import (
	"fmt"
	"math"
	"time"

	"hirely/internal/domain/shared/fault"
)

// Layout is the wire format for calendar days.
const Layout = time.DateOnly

const day = 24 * time.Hour

var (
	ErrInvalidRange = fmt.Errorf("daterange: end must be at least one day after start: %w", fault.ErrInvalidDateRange)
	ErrInvalidDate  = fmt.Errorf("daterange: date must be formatted as YYYY-MM-DD: %w", fault.ErrValidation)
)

// DateRange is a rental window. Days counts started 24h periods between Start
// and End, while the calendar projection covers every day from Start through
// End inclusive.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) (DateRange, error) {
	dr := DateRange{Start: start.UTC(), End: end.UTC()}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ErrInvalidRange
	}
	if dr.Days() < 1 {
		return ErrInvalidRange
	}
	return nil
}

// Days returns ceil((End - Start) / 24h).
func (dr DateRange) Days() int {
	diff := dr.End.Sub(dr.Start)
	if diff <= 0 {
		return 0
	}
	return int(math.Ceil(float64(diff) / float64(day)))
}

// EachDay returns every calendar day touched by the range, Start and End included.
func (dr DateRange) EachDay() []string {
	first := Truncate(dr.Start)
	last := Truncate(dr.End)
	if last.Before(first) {
		return nil
	}
	out := make([]string, 0, int(last.Sub(first)/day)+1)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(Layout))
	}
	return out
}

// Overlaps compares calendar days inclusively.
func (dr DateRange) Overlaps(other DateRange) bool {
	aStart, aEnd := Truncate(dr.Start), Truncate(dr.End)
	bStart, bEnd := Truncate(other.Start), Truncate(other.End)
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	d := Truncate(t)
	return !d.Before(Truncate(dr.Start)) && !d.After(Truncate(dr.End))
}

// Truncate drops the time of day in UTC.
func Truncate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(value string) (time.Time, error) {
	t, err := time.Parse(Layout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return t, nil
}

// FormatDay renders t as YYYY-MM-DD in UTC.
func FormatDay(t time.Time) string {
	return t.UTC().Format(Layout)
}
