package wallet

import (
	"context"
	"log/slog"
	"sort"

	"hirely/internal/app/commands"
	"hirely/internal/app/dto"
	"hirely/internal/app/handlers/support"
	"hirely/internal/app/middleware"
	"hirely/internal/app/outbox"
	"hirely/internal/app/queries"
	"hirely/internal/app/uow"
	"hirely/internal/domain/ledger"
	"hirely/internal/domain/shared/events"
	"hirely/internal/domain/shared/money"
)

const (
	requestPayoutKey    = "wallet.request_payout"
	getBalanceKey       = "wallet.balance"
	listTransactionsKey = "wallet.transactions"
)

// RequestPayoutCommand withdraws Amount minor units in the platform currency.
type RequestPayoutCommand struct {
	UserID          string `validate:"required"`
	Amount          int64
	IdempotencyKeyV string
}

func (c RequestPayoutCommand) Key() string { return requestPayoutKey }

func (c RequestPayoutCommand) Actor() string { return c.UserID }

func (c RequestPayoutCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestPayoutCommand) ResultPrototype() any { return &dto.Transaction{} }

type RequestPayoutHandler struct {
	UoWFactory uow.UoWFactory
	Currency   string
	Encoder    outbox.EventEncoder
	Clock      support.Clock
	Logger     *slog.Logger
}

// Handle locks the user's ledger before reading the balance so two payouts
// cannot both pass the check.
func (h *RequestPayoutHandler) Handle(ctx context.Context, cmd RequestPayoutCommand) (*dto.Transaction, error) {
	amount := money.Money{Amount: cmd.Amount, Currency: h.Currency}
	if !amount.IsPositive() {
		return nil, ledger.ErrInvalidAmount
	}
	now := h.Clock.Now()
	var result dto.Transaction
	err := support.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		if err := unit.Ledger().LockAccount(ctx, cmd.UserID); err != nil {
			return err
		}
		entries, err := unit.Ledger().ListByUser(ctx, cmd.UserID)
		if err != nil {
			return err
		}
		balance := ledger.Compute(h.Currency, entries)
		if err := balance.CanWithdraw(amount); err != nil {
			return err
		}
		payout, err := ledger.NewPayout(ledger.TransactionID(support.NewID()), cmd.UserID, amount, now)
		if err != nil {
			return err
		}
		if err := unit.Ledger().Append(ctx, payout); err != nil {
			return err
		}
		ev := ledger.PayoutRequested{
			TransactionID: payout.ID,
			UserID:        payout.UserID,
			Amount:        payout.Amount.Amount,
			Currency:      payout.Amount.Currency,
			At:            now,
		}
		if err := support.RecordEvents(ctx, unit, h.Encoder, []events.DomainEvent{ev}); err != nil {
			return err
		}
		result = dto.MapTransaction(payout)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("payout requested", "user_id", cmd.UserID, "transaction_id", result.ID, "amount", amount.String())
	}
	return &result, nil
}

type GetBalanceQuery struct {
	UserID string `validate:"required"`
}

func (q GetBalanceQuery) Key() string { return getBalanceKey }

func (q GetBalanceQuery) Actor() string { return q.UserID }

// GetBalanceHandler recomputes the balance from the full ledger on every call.
type GetBalanceHandler struct {
	UoWFactory uow.UoWFactory
	Currency   string
}

func (h *GetBalanceHandler) Handle(ctx context.Context, q GetBalanceQuery) (dto.Balance, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Balance{}, err
	}
	defer cleanup()

	entries, err := unit.Ledger().ListByUser(execCtx, q.UserID)
	if err != nil {
		return dto.Balance{}, err
	}
	return dto.MapBalance(q.UserID, ledger.Compute(h.Currency, entries)), nil
}

type ListTransactionsQuery struct {
	UserID string `validate:"required"`
}

func (q ListTransactionsQuery) Key() string { return listTransactionsKey }

func (q ListTransactionsQuery) Actor() string { return q.UserID }

type ListTransactionsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListTransactionsHandler) Handle(ctx context.Context, q ListTransactionsQuery) (dto.TransactionCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.TransactionCollection{}, err
	}
	defer cleanup()

	entries, err := unit.Ledger().ListByUser(execCtx, q.UserID)
	if err != nil {
		return dto.TransactionCollection{}, err
	}
	items := make([]dto.Transaction, 0, len(entries))
	for _, tx := range entries {
		items = append(items, dto.MapTransaction(tx))
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return dto.TransactionCollection{Items: items}, nil
}

var (
	_ commands.Handler[RequestPayoutCommand, *dto.Transaction]          = (*RequestPayoutHandler)(nil)
	_ queries.Handler[GetBalanceQuery, dto.Balance]                     = (*GetBalanceHandler)(nil)
	_ queries.Handler[ListTransactionsQuery, dto.TransactionCollection] = (*ListTransactionsHandler)(nil)
	_ middleware.IdempotentCommand                                      = RequestPayoutCommand{}
)
