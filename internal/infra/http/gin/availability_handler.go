package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"hirely/internal/app/dto"
	availabilityapp "hirely/internal/app/handlers/availability"
	"hirely/internal/app/queries"
)

type AvailabilityHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h AvailabilityHandler) UnavailableDates(c *gin.Context) {
	query := availabilityapp.UnavailableDatesQuery{ProductID: c.Param("id")}
	result, err := queries.Ask[availabilityapp.UnavailableDatesQuery, dto.UnavailableDates](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, "unavailable dates", err)
		return
	}
	c.JSON(http.StatusOK, result)
}
