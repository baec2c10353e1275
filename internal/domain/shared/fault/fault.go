// Package fault declares the error kinds shared across the domain. Package level
// errors wrap one of these kinds so callers can branch with errors.Is regardless
// of which component produced the failure.
package fault

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrInvalidDateRange    = errors.New("invalid date range")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrProductUnavailable  = errors.New("product unavailable")
	ErrSelfBooking         = errors.New("self booking forbidden")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrConflict            = errors.New("conflict")
	ErrValidation          = errors.New("validation failed")
	ErrReviewNotAllowed    = errors.New("review not allowed")
)

// kinds is ordered by precedence: an error wrapping several kinds reports the
// first one listed.
var kinds = []struct {
	code string
	err  error
}{
	{"NOT_FOUND", ErrNotFound},
	{"FORBIDDEN", ErrForbidden},
	{"CONCURRENCY_CONFLICT", ErrConcurrencyConflict},
	{"CONFLICT", ErrConflict},
	{"SELF_BOOKING", ErrSelfBooking},
	{"PRODUCT_UNAVAILABLE", ErrProductUnavailable},
	{"INVALID_TRANSITION", ErrInvalidTransition},
	{"INSUFFICIENT_BALANCE", ErrInsufficientBalance},
	{"INVALID_DATE_RANGE", ErrInvalidDateRange},
	{"INVALID_AMOUNT", ErrInvalidAmount},
	{"REVIEW_NOT_ALLOWED", ErrReviewNotAllowed},
	{"VALIDATION", ErrValidation},
}

// Kind returns the stable code of the highest precedence kind err wraps, or ""
// when err carries none.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.code
		}
	}
	return ""
}

// Restore rebuilds an error from a stored message and kind code so that
// errors.Is keeps working on replayed failures.
func Restore(code, message string) error {
	for _, k := range kinds {
		if k.code == code {
			return &restored{kind: k.err, message: message}
		}
	}
	return errors.New(message)
}

type restored struct {
	kind    error
	message string
}

func (r *restored) Error() string { return r.message }

func (r *restored) Unwrap() error { return r.kind }
