package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chidiebere-dev/homefolio/internal/services"
	"github.com/chidiebere-dev/homefolio/pkg/response"
)

// WalletHandler exposes the user-facing wallet endpoints.
type WalletHandler struct {
	wallet  *services.WalletService
	effects *services.EffectRunner
}

// NewWalletHandler constructs the wallet handler.
func NewWalletHandler(wallet *services.WalletService, effects *services.EffectRunner) *WalletHandler {
	return &WalletHandler{wallet: wallet, effects: effects}
}

// Balance returns the caller's wallet balance.
func (h *WalletHandler) Balance(c *gin.Context) {
	balance, err := h.wallet.Balance(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"balance": balance})
}

// Transactions returns a page of the caller's ledger.
func (h *WalletHandler) Transactions(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	limit := parseIntQuery(c, "limit", 0)

	entries, total, err := h.wallet.ListTransactions(c.Request.Context(), currentUserID(c), page, limit)
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

type verifyDepositRequest struct {
	TransactionID string `json:"transaction_id" validate:"required,max=64"`
}

// VerifyDeposit confirms a payment with the provider and credits the wallet.
// A redelivered callback for an already credited payment returns 200 with
// already_processed set instead of crediting twice.
func (h *WalletHandler) VerifyDeposit(c *gin.Context) {
	req, err := bindAndValidate[verifyDepositRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, effects, err := h.wallet.VerifyDeposit(c.Request.Context(), currentUserID(c), req.TransactionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.effects.Run(c.Request.Context(), effects); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"transaction":       result.Transaction,
		"balance":           result.Balance,
		"already_processed": result.AlreadyProcessed,
	})
}
