package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"hirely/internal/app/commands"
	"hirely/internal/app/dto"
	walletapp "hirely/internal/app/handlers/wallet"
	"hirely/internal/app/queries"
)

type WalletHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type payoutRequest struct {
	Amount int64 `json:"amount"`
}

func (h WalletHandler) Balance(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	result, err := queries.Ask[walletapp.GetBalanceQuery, dto.Balance](c.Request.Context(), h.Queries, walletapp.GetBalanceQuery{UserID: user.UserID})
	if err != nil {
		respondError(c, h.Logger, "get balance", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h WalletHandler) Transactions(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	q := walletapp.ListTransactionsQuery{UserID: user.UserID}
	result, err := queries.Ask[walletapp.ListTransactionsQuery, dto.TransactionCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, "list transactions", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Payout takes the amount in minor units.
func (h WalletHandler) Payout(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req payoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	cmd := walletapp.RequestPayoutCommand{
		UserID:          user.UserID,
		Amount:          req.Amount,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[walletapp.RequestPayoutCommand, *dto.Transaction](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "request payout", err)
		return
	}
	c.JSON(http.StatusCreated, result)
}
