package handler

import (
	"context"
	"net/http"

	"github.com/iho/pocketledger/internal/adapter/http/dto"
	"github.com/iho/pocketledger/internal/domain"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, params domain.CreateAccountParams) (*domain.Account, error)
	GetAccount(ctx context.Context, userID, id domain.ID) (*domain.Account, error)
	ListAccounts(ctx context.Context, userID domain.ID) ([]*domain.Account, error)
	UpdateAccount(ctx context.Context, userID, id domain.ID, patch domain.AccountPatch) (*domain.Account, error)
	ArchiveAccount(ctx context.Context, userID, id domain.ID) error
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Create creates a new account.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.CreateAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	params, err := req.ToParams(userID)
	if err != nil {
		respondError(w, r, "invalid account", err)
		return
	}

	account, err := h.accountUC.CreateAccount(r.Context(), params)
	if err != nil {
		respondError(w, r, "failed to create account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists the caller's accounts, system and archived ones included.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	accounts, err := h.accountUC.ListAccounts(r.Context(), userID)
	if err != nil {
		respondError(w, r, "failed to list accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accounts": dto.AccountsFromDomain(accounts),
	})
}

// Update applies a partial update.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req dto.UpdateAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	patch, err := req.ToPatch()
	if err != nil {
		respondError(w, r, "invalid account update", err)
		return
	}

	account, err := h.accountUC.UpdateAccount(r.Context(), userID, id, patch)
	if err != nil {
		respondError(w, r, "failed to update account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Archive soft-deletes an account.
func (h *AccountHandler) Archive(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.accountUC.ArchiveAccount(r.Context(), userID, id); err != nil {
		respondError(w, r, "failed to archive account", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
