package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chidiebere-dev/homefolio/internal/services"
	"github.com/chidiebere-dev/homefolio/pkg/response"
)

// TransactionHandler exposes the admin ledger endpoints.
type TransactionHandler struct {
	wallet  *services.WalletService
	effects *services.EffectRunner
}

// NewTransactionHandler constructs the admin transaction handler.
func NewTransactionHandler(wallet *services.WalletService, effects *services.EffectRunner) *TransactionHandler {
	return &TransactionHandler{wallet: wallet, effects: effects}
}

// List returns a page of the ledger, optionally scoped to one user.
func (h *TransactionHandler) List(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	limit := parseIntQuery(c, "limit", 0)

	entries, total, err := h.wallet.ListTransactions(c.Request.Context(), c.Query("user_id"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, entries, &response.Meta{
		Page:    page,
		PerPage: len(entries),
		Total:   total,
	})
}

type adjustWalletRequest struct {
	UserID      string  `json:"user_id" validate:"required,uuid"`
	Direction   string  `json:"direction" validate:"required,oneof=credit debit"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Description string  `json:"description" validate:"omitempty,max=500"`
	Reference   string  `json:"reference" validate:"required,max=64"`
}

// Adjust applies a manual credit or debit to a user's wallet.
func (h *TransactionHandler) Adjust(c *gin.Context) {
	req, err := bindAndValidate[adjustWalletRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, effects, err := h.wallet.Adjust(c.Request.Context(), services.AdjustInput{
		UserID:      req.UserID,
		Direction:   req.Direction,
		Amount:      req.Amount,
		Description: req.Description,
		Reference:   req.Reference,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.effects.Run(c.Request.Context(), effects); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"transaction": result.Transaction,
		"balance":     result.Balance,
	})
}
