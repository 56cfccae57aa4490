package handler

import (
	"context"
	"net/http"

	"github.com/iho/pocketledger/internal/adapter/http/dto"
	"github.com/iho/pocketledger/internal/domain"
	"github.com/iho/pocketledger/internal/usecase"
)

// TransactionService defines the behavior needed by TransactionHandler.
type TransactionService interface {
	CreateTransaction(ctx context.Context, input usecase.CreateTransactionInput) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, userID, id domain.ID) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, userID domain.ID, limit, offset int) ([]*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, input usecase.UpdateTransactionInput) (*domain.Transaction, *usecase.EntriesUpdateResult, error)
	DeleteTransaction(ctx context.Context, userID, id domain.ID) error
}

// TransactionHandler handles transaction-related HTTP requests.
type TransactionHandler struct {
	transactionUC TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionUC TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionUC: transactionUC}
}

// Create records a transaction with its entries.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.CreateTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	input, err := req.ToUseCaseInput(userID)
	if err != nil {
		respondError(w, r, "invalid transaction", err)
		return
	}

	tx, err := h.transactionUC.CreateTransaction(r.Context(), input)
	if err != nil {
		respondError(w, r, "failed to create transaction", err)
		return
	}

	h.writeTransaction(w, r, http.StatusCreated, tx)
}

// Get retrieves a transaction with its active entries.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	tx, err := h.transactionUC.GetTransaction(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, "failed to get transaction", err)
		return
	}

	h.writeTransaction(w, r, http.StatusOK, tx)
}

// List returns one page of the caller's live transactions.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	limit, offset := domain.ValidatePagination(
		parseIntQuery(r, "limit", 0),
		parseIntQuery(r, "offset", 0),
	)

	txs, err := h.transactionUC.ListTransactions(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, r, "failed to list transactions", err)
		return
	}

	items, err := dto.TransactionsFromDomain(txs)
	if err != nil {
		respondError(w, r, "failed to render transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionListResponse{
		Transactions: items,
		Limit:        limit,
		Offset:       offset,
	})
}

// Update changes header fields and reconciles entries.
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req dto.UpdateTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	input, err := req.ToUseCaseInput(userID, id)
	if err != nil {
		respondError(w, r, "invalid transaction update", err)
		return
	}

	tx, result, err := h.transactionUC.UpdateTransaction(r.Context(), input)
	if err != nil {
		respondError(w, r, "failed to update transaction", err)
		return
	}

	resp, err := dto.TransactionFromDomain(tx)
	if err != nil {
		respondError(w, r, "failed to render transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UpdateTransactionResponse{
		Transaction: resp,
		Changes:     dto.EntryChangesFromResult(result),
	})
}

// Delete tombstones a transaction and voids its entries.
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.transactionUC.DeleteTransaction(r.Context(), userID, id); err != nil {
		respondError(w, r, "failed to delete transaction", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TransactionHandler) writeTransaction(w http.ResponseWriter, r *http.Request, status int, tx *domain.Transaction) {
	resp, err := dto.TransactionFromDomain(tx)
	if err != nil {
		respondError(w, r, "failed to render transaction", err)
		return
	}
	writeJSON(w, status, resp)
}
