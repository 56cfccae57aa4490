package dto

import (
	"time"

	"github.com/iho/pocketledger/internal/domain"
	"github.com/iho/pocketledger/internal/usecase"
)

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// UserFromDomain converts domain user to response.
func UserFromDomain(u *domain.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID().String(),
		Email:     u.Email().String(),
		Name:      u.Name(),
		CreatedAt: u.CreatedAt().Time(),
	}
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	Description           string    `json:"description,omitempty"`
	InitialBalance        string    `json:"initial_balance"`
	CurrentClearedBalance string    `json:"current_cleared_balance"`
	Currency              string    `json:"currency"`
	Type                  string    `json:"type"`
	IsSystem              bool      `json:"is_system"`
	IsArchived            bool      `json:"is_archived"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:                    a.ID().String(),
		Name:                  a.Name(),
		Description:           a.Description(),
		InitialBalance:        a.InitialBalance().String(),
		CurrentClearedBalance: a.CurrentClearedBalanceLocal().String(),
		Currency:              a.Currency().Code(),
		Type:                  string(a.Type()),
		IsSystem:              a.IsSystem(),
		IsArchived:            a.IsDeleted(),
		CreatedAt:             a.CreatedAt().Time(),
		UpdatedAt:             a.UpdatedAt().Time(),
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// OperationResponse is one leg of an entry. Amount is a magnitude.
type OperationResponse struct {
	ID          string `json:"id"`
	AccountID   string `json:"account_id"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description,omitempty"`
}

func operationFromDomain(op *domain.Operation) OperationResponse {
	return OperationResponse{
		ID:          op.ID().String(),
		AccountID:   op.AccountID().String(),
		Amount:      op.Amount().Abs().String(),
		Currency:    op.Currency().Code(),
		Description: op.Description(),
	}
}

// EntryResponse renders an entry as its from/to pair. System legs are not shown.
type EntryResponse struct {
	ID          string            `json:"id"`
	Description string            `json:"description"`
	From        OperationResponse `json:"from"`
	To          OperationResponse `json:"to"`
}

// EntryFromDomain fails with domain.ErrUnexpectedOperationCount unless the
// entry has exactly two user operations.
func EntryFromDomain(e *domain.Entry) (*EntryResponse, error) {
	from, to, err := e.BalancedPair()
	if err != nil {
		return nil, err
	}
	return &EntryResponse{
		ID:          e.ID().String(),
		Description: e.Description(),
		From:        operationFromDomain(from),
		To:          operationFromDomain(to),
	}, nil
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID              string           `json:"id"`
	Description     string           `json:"description"`
	PostingDate     string           `json:"posting_date"`
	TransactionDate string           `json:"transaction_date"`
	IsDeleted       bool             `json:"is_deleted"`
	Entries         []*EntryResponse `json:"entries"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// TransactionFromDomain converts a transaction and its active entries.
func TransactionFromDomain(t *domain.Transaction) (*TransactionResponse, error) {
	entries := t.Entries()
	resp := &TransactionResponse{
		ID:              t.ID().String(),
		Description:     t.Description(),
		PostingDate:     t.PostingDate().String(),
		TransactionDate: t.TransactionDate().String(),
		IsDeleted:       t.IsDeleted(),
		Entries:         make([]*EntryResponse, 0, len(entries)),
		CreatedAt:       t.CreatedAt().Time(),
		UpdatedAt:       t.UpdatedAt().Time(),
	}
	for _, e := range entries {
		er, err := EntryFromDomain(e)
		if err != nil {
			return nil, err
		}
		resp.Entries = append(resp.Entries, er)
	}
	return resp, nil
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(transactions []*domain.Transaction) ([]*TransactionResponse, error) {
	result := make([]*TransactionResponse, len(transactions))
	for i, t := range transactions {
		tr, err := TransactionFromDomain(t)
		if err != nil {
			return nil, err
		}
		result[i] = tr
	}
	return result, nil
}

// TransactionListResponse is one page of transactions.
type TransactionListResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Limit        int                    `json:"limit"`
	Offset       int                    `json:"offset"`
}

// EntryChangesResponse summarizes what an update did to the entries.
type EntryChangesResponse struct {
	Created []string `json:"created"`
	Updated []string `json:"updated"`
	Deleted []string `json:"deleted"`
	Skipped []string `json:"skipped,omitempty"`
}

// UpdateTransactionResponse is the updated transaction plus its entry changes.
type UpdateTransactionResponse struct {
	Transaction *TransactionResponse  `json:"transaction"`
	Changes     *EntryChangesResponse `json:"changes,omitempty"`
}

// EntryChangesFromResult converts a reconciliation result. A nil result yields nil.
func EntryChangesFromResult(r *usecase.EntriesUpdateResult) *EntryChangesResponse {
	if r == nil {
		return nil
	}
	resp := &EntryChangesResponse{
		Created: make([]string, 0, len(r.Created)),
		Updated: make([]string, 0, len(r.Updated)),
		Deleted: domain.IDStrings(r.Deleted),
		Skipped: domain.IDStrings(r.Skipped),
	}
	for _, e := range r.Created {
		resp.Created = append(resp.Created, e.ID().String())
	}
	for _, c := range r.Updated {
		resp.Updated = append(resp.Updated, c.Entry.ID().String())
	}
	return resp
}

// CurrencyTotalResponse is the net of one currency.
type CurrencyTotalResponse struct {
	Currency string `json:"currency"`
	Total    string `json:"total"`
}

// TrialBalanceResponse reports per-currency totals.
type TrialBalanceResponse struct {
	Balanced bool                    `json:"balanced"`
	Totals   []CurrencyTotalResponse `json:"totals"`
}

// TrialBalanceFromUseCase converts a trial balance.
func TrialBalanceFromUseCase(tb *usecase.TrialBalance) *TrialBalanceResponse {
	resp := &TrialBalanceResponse{
		Balanced: tb.Balanced,
		Totals:   make([]CurrencyTotalResponse, len(tb.Totals)),
	}
	for i, t := range tb.Totals {
		resp.Totals[i] = CurrencyTotalResponse{Currency: t.Currency.Code(), Total: t.Total.String()}
	}
	return resp
}

// AccountBalanceResponse is the computed balance of one account.
type AccountBalanceResponse struct {
	AccountID      string `json:"account_id"`
	Name           string `json:"name"`
	Currency       string `json:"currency"`
	Type           string `json:"type"`
	InitialBalance string `json:"initial_balance"`
	Movement       string `json:"movement"`
	Balance        string `json:"balance"`
}

// AccountBalancesFromUseCase converts account balances.
func AccountBalancesFromUseCase(balances []usecase.AccountBalance) []AccountBalanceResponse {
	result := make([]AccountBalanceResponse, len(balances))
	for i, b := range balances {
		result[i] = AccountBalanceResponse{
			AccountID:      b.Account.ID().String(),
			Name:           b.Account.Name(),
			Currency:       b.Account.Currency().Code(),
			Type:           string(b.Account.Type()),
			InitialBalance: b.Account.InitialBalance().String(),
			Movement:       b.Movement.String(),
			Balance:        b.Balance.String(),
		}
	}
	return result
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
