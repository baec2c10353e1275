package ginserver

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"hirely/internal/app/commands"
	"hirely/internal/app/dto"
	bookingapp "hirely/internal/app/handlers/booking"
	"hirely/internal/app/queries"
	"hirely/internal/domain/shared/daterange"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createBookingRequest struct {
	ProductID string `json:"product_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Note      string `json:"note"`
}

type transitionRequest struct {
	Status string `json:"status"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Create(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	start, err := parseInstant(req.Start)
	if err != nil {
		badRequest(c, "start: "+err.Error())
		return
	}
	end, err := parseInstant(req.End)
	if err != nil {
		badRequest(c, "end: "+err.Error())
		return
	}
	cmd := bookingapp.CreateBookingCommand{
		HirerID:         user.UserID,
		ProductID:       req.ProductID,
		Start:           start,
		End:             end,
		Note:            req.Note,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.CreateBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "create booking", err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	q := bookingapp.GetBookingQuery{BookingID: c.Param("id"), ViewerID: user.UserID}
	result, err := queries.Ask[bookingapp.GetBookingQuery, dto.Booking](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, "get booking", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// List serves GET /bookings?role=hirer|lister&status=PAID.
func (h BookingHandler) List(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	q := bookingapp.ListBookingsQuery{
		UserID: user.UserID,
		Role:   strings.ToLower(strings.TrimSpace(c.Query("role"))),
		Status: c.Query("status"),
	}
	result, err := queries.Ask[bookingapp.ListBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, "list bookings", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Transition(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	cmd := bookingapp.TransitionBookingCommand{BookingID: c.Param("id"), ActorID: user.UserID, To: req.Status}
	result, err := commands.Dispatch[bookingapp.TransitionBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "transition booking", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Cancel(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req cancelRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	cmd := bookingapp.CancelBookingCommand{BookingID: c.Param("id"), ActorID: user.UserID, Reason: req.Reason}
	result, err := commands.Dispatch[bookingapp.CancelBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "cancel booking", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// parseInstant accepts RFC 3339 timestamps and plain YYYY-MM-DD days.
func parseInstant(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return daterange.ParseDay(raw)
}
