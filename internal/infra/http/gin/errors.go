package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"hirely/internal/domain/shared/fault"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// statusFor maps error kinds to HTTP status codes. Business rule violations
// the caller can correct are 400; only races and duplicates are 409.
func statusFor(err error) int {
	switch {
	case errors.Is(err, fault.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, fault.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, fault.ErrConcurrencyConflict), errors.Is(err, fault.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, fault.ErrValidation),
		errors.Is(err, fault.ErrInvalidTransition),
		errors.Is(err, fault.ErrInvalidDateRange),
		errors.Is(err, fault.ErrInvalidAmount),
		errors.Is(err, fault.ErrInsufficientBalance),
		errors.Is(err, fault.ErrProductUnavailable),
		errors.Is(err, fault.ErrSelfBooking),
		errors.Is(err, fault.ErrReviewNotAllowed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, logger *slog.Logger, op string, err error) {
	status := statusFor(err)
	if logger != nil {
		if status >= http.StatusInternalServerError {
			logger.Error(op+" failed", "error", err, "request_id", c.GetString("request_id"))
		} else {
			logger.Debug(op+" rejected", "status", status, "error", err)
		}
	}
	resp := errorResponse{Error: err.Error(), Kind: fault.Kind(err)}
	if status == http.StatusInternalServerError {
		resp = errorResponse{Error: "internal error"}
	}
	c.JSON(status, resp)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg, Kind: "VALIDATION"})
}

func parsePositiveInt(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
