package availability

import (
	"fmt"
	"sort"

	"hirely/internal/domain/booking"
	"hirely/internal/domain/products"
	"hirely/internal/domain/shared/daterange"
	"hirely/internal/domain/shared/fault"
)

var ErrOverlappingRange = fmt.Errorf("availability: range overlaps unavailable dates: %w", fault.ErrProductUnavailable)

// Calendar is the unavailable-day projection of one product: the owner's
// blocked dates plus every day of the product's active bookings.
type Calendar struct {
	ProductID products.ProductID
	days      map[string]struct{}
}

func Build(productID products.ProductID, ownerBlocked []string, bookings []*booking.Booking) *Calendar {
	c := &Calendar{ProductID: productID, days: make(map[string]struct{})}
	for _, d := range ownerBlocked {
		if d == "" {
			continue
		}
		c.days[d] = struct{}{}
	}
	for _, b := range bookings {
		if b == nil || b.ProductID != productID || !b.Status.Active() {
			continue
		}
		for _, d := range b.Range.EachDay() {
			c.days[d] = struct{}{}
		}
	}
	return c
}

// Dates returns the unavailable days sorted ascending as YYYY-MM-DD.
func (c *Calendar) Dates() []string {
	out := make([]string, 0, len(c.days))
	for d := range c.days {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func (c *Calendar) Contains(day string) bool {
	_, ok := c.days[day]
	return ok
}

// Conflicts lists the days of r that are already unavailable.
func (c *Calendar) Conflicts(r daterange.DateRange) []string {
	var out []string
	for _, d := range r.EachDay() {
		if c.Contains(d) {
			out = append(out, d)
		}
	}
	return out
}

func (c *Calendar) CanReserve(r daterange.DateRange) bool {
	return len(c.Conflicts(r)) == 0
}

// Reserve fails with ErrOverlappingRange when r touches an unavailable day.
func (c *Calendar) Reserve(r daterange.DateRange) error {
	if conflicts := c.Conflicts(r); len(conflicts) > 0 {
		return fmt.Errorf("%w: %v", ErrOverlappingRange, conflicts)
	}
	for _, d := range r.EachDay() {
		c.days[d] = struct{}{}
	}
	return nil
}
