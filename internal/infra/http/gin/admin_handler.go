package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"hirely/internal/app/authz"
	"hirely/internal/app/commands"
	"hirely/internal/app/dto"
	usersapp "hirely/internal/app/handlers/users"
)

type AdminHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

func (h AdminHandler) VerifyIdentity(c *gin.Context) {
	principal, ok := requireRole(c, authz.RoleAdmin)
	if !ok {
		return
	}
	cmd := usersapp.MarkIdentityVerifiedCommand{UserID: c.Param("id")}
	result, err := commands.Dispatch[usersapp.MarkIdentityVerifiedCommand, *dto.User](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "verify identity", err)
		return
	}
	if h.Logger != nil {
		h.Logger.Info("identity verified", "user_id", result.ID, "admin_id", principal.UserID)
	}
	c.JSON(http.StatusOK, result)
}
