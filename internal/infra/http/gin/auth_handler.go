package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hirely/internal/app/commands"
	"hirely/internal/app/dto"
	usersapp "hirely/internal/app/handlers/users"
	"hirely/internal/infra/security"
)

// AuthHandler registers users and hands back a bearer token for them.
type AuthHandler struct {
	Commands commands.Bus
	Tokens   *security.TokenService
	Logger   *slog.Logger
}

type registerRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type authResponse struct {
	User  dto.User `json:"user"`
	Token string   `json:"token"`
}

func (h AuthHandler) Register(c *gin.Context) {
	if h.Tokens == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "auth service unavailable"})
		return
	}
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	cmd := usersapp.RegisterUserCommand{UserID: uuid.NewString(), Email: req.Email, Name: req.Name}
	user, err := commands.Dispatch[usersapp.RegisterUserCommand, *dto.User](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "register user", err)
		return
	}
	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		respondError(c, h.Logger, "issue token", err)
		return
	}
	c.JSON(http.StatusCreated, authResponse{User: *user, Token: token})
}
