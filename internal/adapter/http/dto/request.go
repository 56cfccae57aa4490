package dto

import (
	"fmt"

	"github.com/iho/pocketledger/internal/domain"
	"github.com/iho/pocketledger/internal/usecase"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, fmt.Sprintf(format, args...))
}

// RegisterRequest represents a request to create a user.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// ToUseCaseInput converts to use case input.
func (r *RegisterRequest) ToUseCaseInput() usecase.RegisterInput {
	return usecase.RegisterInput{Email: r.Email, Name: r.Name, Password: r.Password}
}

// LoginRequest represents a login attempt.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ToUseCaseInput converts to use case input.
func (r *LoginRequest) ToUseCaseInput() usecase.AuthenticateInput {
	return usecase.AuthenticateInput{Email: r.Email, Password: r.Password}
}

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	InitialBalance string `json:"initial_balance"`
	Currency       string `json:"currency"`
	Type           string `json:"type"`
}

// ToParams validates the request and builds domain parameters for userID.
func (r *CreateAccountRequest) ToParams(userID domain.ID) (domain.CreateAccountParams, error) {
	currency, err := domain.ParseCurrency(r.Currency)
	if err != nil {
		return domain.CreateAccountParams{}, err
	}
	accountType, err := domain.ParseAccountType(r.Type)
	if err != nil {
		return domain.CreateAccountParams{}, err
	}

	initial := domain.NewAmountFromInt(0)
	if r.InitialBalance != "" {
		if initial, err = domain.ParseAmount(r.InitialBalance); err != nil {
			return domain.CreateAccountParams{}, err
		}
	}

	return domain.CreateAccountParams{
		UserID:         userID,
		Name:           r.Name,
		Description:    r.Description,
		InitialBalance: initial,
		Currency:       currency,
		Type:           accountType,
	}, nil
}

// UpdateAccountRequest is a partial update; omitted fields are unchanged.
type UpdateAccountRequest struct {
	Name           *string `json:"name,omitempty"`
	Description    *string `json:"description,omitempty"`
	InitialBalance *string `json:"initial_balance,omitempty"`
	Currency       *string `json:"currency,omitempty"`
	Type           *string `json:"type,omitempty"`
}

// ToPatch validates the request and builds a domain patch.
func (r *UpdateAccountRequest) ToPatch() (domain.AccountPatch, error) {
	patch := domain.AccountPatch{Name: r.Name, Description: r.Description}

	if r.InitialBalance != nil {
		amount, err := domain.ParseAmount(*r.InitialBalance)
		if err != nil {
			return domain.AccountPatch{}, err
		}
		patch.InitialBalance = &amount
	}
	if r.Currency != nil {
		currency, err := domain.ParseCurrency(*r.Currency)
		if err != nil {
			return domain.AccountPatch{}, err
		}
		patch.Currency = &currency
	}
	if r.Type != nil {
		accountType, err := domain.ParseAccountType(*r.Type)
		if err != nil {
			return domain.AccountPatch{}, err
		}
		patch.Type = &accountType
	}

	return patch, nil
}

// OperationRequest is one leg of an entry. Amount is a positive magnitude;
// the direction comes from whether the leg is "from" or "to".
type OperationRequest struct {
	ID          string `json:"id,omitempty"`
	AccountID   string `json:"account_id"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

func (r *OperationRequest) toInput(leg string, negate bool) (usecase.OperationInput, error) {
	var in usecase.OperationInput
	if r == nil {
		return in, invalid("entry requires a %q operation", leg)
	}

	if r.ID != "" {
		id, err := domain.ParseID(r.ID)
		if err != nil {
			return in, fmt.Errorf("%s.id: %w", leg, err)
		}
		in.ID = id
	}

	accountID, err := domain.ParseID(r.AccountID)
	if err != nil {
		return in, fmt.Errorf("%s.account_id: %w", leg, err)
	}

	amount, err := domain.ParseAmount(r.Amount)
	if err != nil {
		return in, fmt.Errorf("%s.amount: %w", leg, err)
	}
	if amount.IsZero() || amount.IsNegative() {
		return in, invalid("%s.amount must be positive", leg)
	}
	if negate {
		amount = amount.Neg()
	}

	in.AccountID = accountID
	in.Amount = amount
	in.Description = r.Description
	return in, nil
}

// EntryRequest is a balanced pair of operations: money leaves From and arrives at To.
type EntryRequest struct {
	ID          string            `json:"id,omitempty"`
	Description string            `json:"description"`
	From        *OperationRequest `json:"from"`
	To          *OperationRequest `json:"to"`
}

func (r *EntryRequest) operations() ([]usecase.OperationInput, error) {
	from, err := r.From.toInput("from", true)
	if err != nil {
		return nil, err
	}
	to, err := r.To.toInput("to", false)
	if err != nil {
		return nil, err
	}
	if from.AccountID.Equals(to.AccountID) {
		return nil, invalid("from and to must use different accounts")
	}
	return []usecase.OperationInput{from, to}, nil
}

// ToCreateInput converts a new entry.
func (r *EntryRequest) ToCreateInput() (usecase.CreateEntryInput, error) {
	ops, err := r.operations()
	if err != nil {
		return usecase.CreateEntryInput{}, err
	}
	return usecase.CreateEntryInput{Description: r.Description, Operations: ops}, nil
}

// ToUpdateInput converts the desired state of an existing entry.
func (r *EntryRequest) ToUpdateInput() (usecase.UpdateEntryInput, error) {
	id, err := domain.ParseID(r.ID)
	if err != nil {
		return usecase.UpdateEntryInput{}, fmt.Errorf("entry id: %w", err)
	}
	ops, err := r.operations()
	if err != nil {
		return usecase.UpdateEntryInput{}, err
	}
	return usecase.UpdateEntryInput{ID: id, Description: r.Description, Operations: ops}, nil
}

// CreateTransactionRequest represents a request to create a transaction.
type CreateTransactionRequest struct {
	Description     string         `json:"description"`
	PostingDate     string         `json:"posting_date"`
	TransactionDate string         `json:"transaction_date,omitempty"`
	Entries         []EntryRequest `json:"entries"`
}

// ToUseCaseInput converts to use case input. TransactionDate defaults to PostingDate.
func (r *CreateTransactionRequest) ToUseCaseInput(userID domain.ID) (usecase.CreateTransactionInput, error) {
	posting, err := domain.ParseDate(r.PostingDate)
	if err != nil {
		return usecase.CreateTransactionInput{}, err
	}
	txDate := posting
	if r.TransactionDate != "" {
		if txDate, err = domain.ParseDate(r.TransactionDate); err != nil {
			return usecase.CreateTransactionInput{}, err
		}
	}

	entries := make([]usecase.CreateEntryInput, len(r.Entries))
	for i := range r.Entries {
		if entries[i], err = r.Entries[i].ToCreateInput(); err != nil {
			return usecase.CreateTransactionInput{}, fmt.Errorf("entries[%d]: %w", i, err)
		}
	}

	return usecase.CreateTransactionInput{
		UserID:          userID,
		Description:     r.Description,
		PostingDate:     posting,
		TransactionDate: txDate,
		Entries:         entries,
	}, nil
}

// EntriesChangeRequest lists entries to create, rewrite and delete.
type EntriesChangeRequest struct {
	Create []EntryRequest `json:"create,omitempty"`
	Update []EntryRequest `json:"update,omitempty"`
	Delete []string       `json:"delete,omitempty"`
}

// UpdateTransactionRequest is a partial update of header fields plus an entry change set.
type UpdateTransactionRequest struct {
	Description     *string               `json:"description,omitempty"`
	PostingDate     *string               `json:"posting_date,omitempty"`
	TransactionDate *string               `json:"transaction_date,omitempty"`
	Entries         *EntriesChangeRequest `json:"entries,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateTransactionRequest) ToUseCaseInput(userID, id domain.ID) (usecase.UpdateTransactionInput, error) {
	input := usecase.UpdateTransactionInput{UserID: userID, ID: id, Description: r.Description}

	if r.PostingDate != nil {
		d, err := domain.ParseDate(*r.PostingDate)
		if err != nil {
			return usecase.UpdateTransactionInput{}, err
		}
		input.PostingDate = &d
	}
	if r.TransactionDate != nil {
		d, err := domain.ParseDate(*r.TransactionDate)
		if err != nil {
			return usecase.UpdateTransactionInput{}, err
		}
		input.TransactionDate = &d
	}

	if r.Entries == nil {
		return input, nil
	}

	for i := range r.Entries.Create {
		in, err := r.Entries.Create[i].ToCreateInput()
		if err != nil {
			return usecase.UpdateTransactionInput{}, fmt.Errorf("entries.create[%d]: %w", i, err)
		}
		input.Entries.Create = append(input.Entries.Create, in)
	}
	for i := range r.Entries.Update {
		in, err := r.Entries.Update[i].ToUpdateInput()
		if err != nil {
			return usecase.UpdateTransactionInput{}, fmt.Errorf("entries.update[%d]: %w", i, err)
		}
		input.Entries.Update = append(input.Entries.Update, in)
	}
	if len(r.Entries.Delete) > 0 {
		ids, err := domain.ParseIDs(r.Entries.Delete)
		if err != nil {
			return usecase.UpdateTransactionInput{}, fmt.Errorf("entries.delete: %w", err)
		}
		input.Entries.Delete = ids
	}
	if err := input.Entries.Validate(); err != nil {
		return usecase.UpdateTransactionInput{}, fmt.Errorf("entries.update: %w", err)
	}

	return input, nil
}
