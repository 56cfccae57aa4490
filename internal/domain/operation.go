package domain

import (
	"fmt"
	"time"
)

// Operation is one signed leg of an entry against a single account.
type Operation struct {
	EntityIdentity
	EntityTimestamps
	SoftDelete
	ParentChildRelation
	UserOwnership

	accountID   ID
	amount      Amount
	description string
	currency    Currency
	isSystem    bool
}

// OperationRow is the persisted shape of an operation.
type OperationRow struct {
	ID          ID
	EntryID     ID
	AccountID   ID
	UserID      ID
	Amount      Amount
	Description string
	Currency    string
	IsSystem    bool
	IsTombstone bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CreateOperationParams struct {
	UserID      ID
	EntryID     ID
	Account     *Account
	Amount      Amount
	Description string
}

// CreateOperation binds a user operation to account, capturing its currency.
func CreateOperation(p CreateOperationParams) (*Operation, error) {
	if p.Account == nil {
		return nil, fmt.Errorf("%w: account is required", ErrValidation)
	}
	if p.Account.IsSystem() {
		return nil, newDomainError(ErrSystemAccount, "operation", "account %s is a system account", p.Account.ID())
	}
	if p.Account.IsDeleted() {
		return nil, newDomainError(ErrDeletedEntity, "operation", "account %s is deleted", p.Account.ID())
	}
	if !p.Account.BelongsToUser(p.UserID) {
		return nil, newDomainError(ErrOperationOwnership, "operation", "account %s belongs to another user", p.Account.ID())
	}
	if err := ValidateDescription(p.Description); err != nil {
		return nil, err
	}
	return newOperation(p, false), nil
}

// CreateSystemOperation builds a currency trading leg.
func CreateSystemOperation(userID, entryID ID, systemAccount *Account, amount Amount) (*Operation, error) {
	if systemAccount == nil || !systemAccount.IsSystem() {
		return nil, fmt.Errorf("%w: system operation requires a system account", ErrValidation)
	}
	if !systemAccount.BelongsToUser(userID) {
		return nil, newDomainError(ErrOperationOwnership, "operation", "account %s belongs to another user", systemAccount.ID())
	}
	return newOperation(CreateOperationParams{
		UserID:  userID,
		EntryID: entryID,
		Account: systemAccount,
		Amount:  amount,
	}, true), nil
}

func newOperation(p CreateOperationParams, system bool) *Operation {
	return &Operation{
		EntityIdentity:      newIdentity(),
		EntityTimestamps:    newTimestamps(),
		SoftDelete:          newSoftDelete("operation", false),
		ParentChildRelation: ParentChildRelation{parentID: p.EntryID},
		UserOwnership:       UserOwnership{userID: p.UserID},
		accountID:           p.Account.ID(),
		amount:              p.Amount,
		description:         p.Description,
		currency:            p.Account.Currency(),
		isSystem:            system,
	}
}

// RestoreOperation rehydrates an operation, tombstoned or not.
func RestoreOperation(row OperationRow) (*Operation, error) {
	c, err := ParseCurrency(row.Currency)
	if err != nil {
		return nil, err
	}
	return &Operation{
		EntityIdentity:      EntityIdentity{id: row.ID},
		EntityTimestamps:    restoreTimestamps(row.CreatedAt, row.UpdatedAt),
		SoftDelete:          newSoftDelete("operation", row.IsTombstone),
		ParentChildRelation: ParentChildRelation{parentID: row.EntryID},
		UserOwnership:       UserOwnership{userID: row.UserID},
		accountID:           row.AccountID,
		amount:              row.Amount,
		description:         row.Description,
		currency:            c,
		isSystem:            row.IsSystem,
	}, nil
}

func (o *Operation) EntryID() ID         { return o.ParentID() }
func (o *Operation) AccountID() ID       { return o.accountID }
func (o *Operation) Amount() Amount      { return o.amount }
func (o *Operation) Description() string { return o.description }
func (o *Operation) Currency() Currency  { return o.currency }
func (o *Operation) IsSystem() bool      { return o.isSystem }

// CanBeUpdated is true for active user operations.
func (o *Operation) CanBeUpdated() bool {
	return !o.isSystem && !o.IsDeleted()
}

func (o *Operation) validateUpdate() error {
	if err := o.ValidateUpdateIsAllowed(); err != nil {
		return err
	}
	if o.isSystem {
		return newDomainError(ErrSystemOperation, "operation", "operation %s", o.ID())
	}
	return nil
}

func (o *Operation) UpdateAmount(amount Amount) error {
	if err := o.validateUpdate(); err != nil {
		return err
	}
	o.amount = amount
	o.Touch()
	return nil
}

func (o *Operation) UpdateDescription(description string) error {
	if err := o.validateUpdate(); err != nil {
		return err
	}
	if err := ValidateDescription(description); err != nil {
		return err
	}
	o.description = description
	o.Touch()
	return nil
}

// IsCurrencyDifferent compares the captured currencies.
func (o *Operation) IsCurrencyDifferent(other *Operation) bool {
	return !o.currency.Equals(other.currency)
}

func (o *Operation) ToPersistence() OperationRow {
	return OperationRow{
		ID:          o.ID(),
		EntryID:     o.EntryID(),
		AccountID:   o.accountID,
		UserID:      o.UserID(),
		Amount:      o.amount,
		Description: o.description,
		Currency:    o.currency.Code(),
		IsSystem:    o.isSystem,
		IsTombstone: o.IsDeleted(),
		CreatedAt:   o.CreatedAt().Time(),
		UpdatedAt:   o.UpdatedAt().Time(),
	}
}
