package handler

import (
	"context"
	"net/http"

	"github.com/iho/pocketledger/internal/adapter/http/dto"
	"github.com/iho/pocketledger/internal/domain"
	"github.com/iho/pocketledger/internal/usecase"
)

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	TrialBalance(ctx context.Context, userID domain.ID) (*usecase.TrialBalance, error)
	AccountBalances(ctx context.Context, userID domain.ID) ([]usecase.AccountBalance, error)
}

// LedgerHandler handles ledger-wide checks.
type LedgerHandler struct {
	ledgerUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// TrialBalance reports per-currency totals. An unbalanced ledger answers 409.
func (h *LedgerHandler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	tb, err := h.ledgerUC.TrialBalance(r.Context(), userID)
	if err != nil {
		respondError(w, r, "failed to compute trial balance", err)
		return
	}

	status := http.StatusOK
	if !tb.Balanced {
		status = http.StatusConflict
	}
	writeJSON(w, status, dto.TrialBalanceFromUseCase(tb))
}

// Balances reports the computed balance of every account.
func (h *LedgerHandler) Balances(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	balances, err := h.ledgerUC.AccountBalances(r.Context(), userID)
	if err != nil {
		respondError(w, r, "failed to compute balances", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"balances": dto.AccountBalancesFromUseCase(balances),
	})
}
