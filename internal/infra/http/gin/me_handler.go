package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"hirely/internal/app/commands"
	"hirely/internal/app/dto"
	usersapp "hirely/internal/app/handlers/users"
	"hirely/internal/app/queries"
)

type MeHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type datesRequest struct {
	Dates []string `json:"dates"`
}

func (h MeHandler) Profile(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	result, err := queries.Ask[usersapp.GetUserQuery, dto.User](c.Request.Context(), h.Queries, usersapp.GetUserQuery{UserID: user.UserID})
	if err != nil {
		respondError(c, h.Logger, "get profile", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h MeHandler) BlockDates(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req datesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	cmd := usersapp.BlockDatesCommand{UserID: user.UserID, Dates: req.Dates}
	result, err := commands.Dispatch[usersapp.BlockDatesCommand, *dto.User](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "block dates", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h MeHandler) UnblockDates(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req datesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	cmd := usersapp.UnblockDatesCommand{UserID: user.UserID, Dates: req.Dates}
	result, err := commands.Dispatch[usersapp.UnblockDatesCommand, *dto.User](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "unblock dates", err)
		return
	}
	c.JSON(http.StatusOK, result)
}
