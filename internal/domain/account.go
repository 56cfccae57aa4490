package domain

import (
	"fmt"
	"strings"
	"time"
)

// AccountType classifies an account.
type AccountType string

const (
	AccountTypeAsset           AccountType = "asset"
	AccountTypeLiability       AccountType = "liability"
	AccountTypeEquity          AccountType = "equity"
	AccountTypeIncome          AccountType = "income"
	AccountTypeExpense         AccountType = "expense"
	AccountTypeCurrencyTrading AccountType = "currencyTrading"
)

var userAccountTypes = map[AccountType]bool{
	AccountTypeAsset:     true,
	AccountTypeLiability: true,
	AccountTypeEquity:    true,
	AccountTypeIncome:    true,
	AccountTypeExpense:   true,
}

// ParseAccountType accepts the user-creatable types only.
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(strings.TrimSpace(s))
	if !userAccountTypes[t] {
		return "", fmt.Errorf("%w: %q", ErrInvalidAccountType, s)
	}
	return t, nil
}

func (t AccountType) IsSystem() bool {
	return t == AccountTypeCurrencyTrading
}

func (t AccountType) isKnown() bool {
	return userAccountTypes[t] || t.IsSystem()
}

// Account is a user-owned, currency-denominated ledger account.
type Account struct {
	EntityIdentity
	EntityTimestamps
	SoftDelete
	UserOwnership

	name                       string
	description                string
	initialBalance             Amount
	currentClearedBalanceLocal Amount
	currency                   Currency
	accountType                AccountType
}

// AccountRow is the persisted shape of an account.
type AccountRow struct {
	ID                         ID
	UserID                     ID
	Name                       string
	Description                string
	InitialBalance             Amount
	CurrentClearedBalanceLocal Amount
	Currency                   string
	Type                       string
	IsTombstone                bool
	CreatedAt                  time.Time
	UpdatedAt                  time.Time
}

type CreateAccountParams struct {
	UserID         ID
	Name           string
	Description    string
	InitialBalance Amount
	Currency       Currency
	Type           AccountType
}

// AccountPatch replaces every non-nil field.
type AccountPatch struct {
	Name           *string
	Description    *string
	InitialBalance *Amount
	Currency       *Currency
	Type           *AccountType
}

func CreateAccount(p CreateAccountParams) (*Account, error) {
	if err := ValidateAccountName(p.Name); err != nil {
		return nil, err
	}
	if err := ValidateDescription(p.Description); err != nil {
		return nil, err
	}
	if !userAccountTypes[p.Type] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAccountType, p.Type)
	}
	if p.Currency.IsZero() {
		return nil, fmt.Errorf("%w: currency is required", ErrValidation)
	}
	if p.UserID.IsZero() {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}

	return &Account{
		EntityIdentity:             newIdentity(),
		EntityTimestamps:           newTimestamps(),
		SoftDelete:                 newSoftDelete("account", false),
		UserOwnership:              UserOwnership{userID: p.UserID},
		name:                       strings.TrimSpace(p.Name),
		description:                p.Description,
		initialBalance:             p.InitialBalance,
		currentClearedBalanceLocal: ZeroAmount,
		currency:                   p.Currency,
		accountType:                p.Type,
	}, nil
}

// SystemAccountName is the name given to the per-currency trading account.
func SystemAccountName(c Currency) string {
	return "Currency trading " + c.Code()
}

// CreateSystemAccount builds the per-user currency trading account for c.
func CreateSystemAccount(userID ID, c Currency) *Account {
	return &Account{
		EntityIdentity:             newIdentity(),
		EntityTimestamps:           newTimestamps(),
		SoftDelete:                 newSoftDelete("account", false),
		UserOwnership:              UserOwnership{userID: userID},
		name:                       SystemAccountName(c),
		initialBalance:             ZeroAmount,
		currentClearedBalanceLocal: ZeroAmount,
		currency:                   c,
		accountType:                AccountTypeCurrencyTrading,
	}
}

func RestoreAccount(row AccountRow) (*Account, error) {
	c, err := ParseCurrency(row.Currency)
	if err != nil {
		return nil, err
	}
	t := AccountType(row.Type)
	if !t.isKnown() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAccountType, row.Type)
	}
	return &Account{
		EntityIdentity:             EntityIdentity{id: row.ID},
		EntityTimestamps:           restoreTimestamps(row.CreatedAt, row.UpdatedAt),
		SoftDelete:                 newSoftDelete("account", row.IsTombstone),
		UserOwnership:              UserOwnership{userID: row.UserID},
		name:                       row.Name,
		description:                row.Description,
		initialBalance:             row.InitialBalance,
		currentClearedBalanceLocal: row.CurrentClearedBalanceLocal,
		currency:                   c,
		accountType:                t,
	}, nil
}

func (a *Account) Name() string                       { return a.name }
func (a *Account) Description() string                { return a.description }
func (a *Account) InitialBalance() Amount             { return a.initialBalance }
func (a *Account) CurrentClearedBalanceLocal() Amount { return a.currentClearedBalanceLocal }
func (a *Account) Currency() Currency                 { return a.currency }
func (a *Account) Type() AccountType                  { return a.accountType }
func (a *Account) IsSystem() bool                     { return a.accountType.IsSystem() }

// UpdateAccount applies patch. Deleted and system accounts are immutable.
func (a *Account) UpdateAccount(patch AccountPatch) error {
	if err := a.ValidateUpdateIsAllowed(); err != nil {
		return err
	}
	if a.IsSystem() {
		return newDomainError(ErrSystemAccount, "account", "account %s", a.ID())
	}

	if patch.Name != nil {
		if err := ValidateAccountName(*patch.Name); err != nil {
			return err
		}
	}
	if patch.Description != nil {
		if err := ValidateDescription(*patch.Description); err != nil {
			return err
		}
	}
	if patch.Type != nil && !userAccountTypes[*patch.Type] {
		return fmt.Errorf("%w: %q", ErrInvalidAccountType, *patch.Type)
	}
	if patch.Currency != nil && patch.Currency.IsZero() {
		return fmt.Errorf("%w: currency is required", ErrValidation)
	}

	if patch.Name != nil {
		a.name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		a.description = *patch.Description
	}
	if patch.InitialBalance != nil {
		a.initialBalance = *patch.InitialBalance
	}
	if patch.Currency != nil {
		a.currency = *patch.Currency
	}
	if patch.Type != nil {
		a.accountType = *patch.Type
	}
	a.Touch()
	return nil
}

// MarkAsArchived tombstones the account. Nothing else changes.
func (a *Account) MarkAsArchived() {
	a.MarkAsDeleted()
}

func (a *Account) ToPersistence() AccountRow {
	return AccountRow{
		ID:                         a.ID(),
		UserID:                     a.UserID(),
		Name:                       a.name,
		Description:                a.description,
		InitialBalance:             a.initialBalance,
		CurrentClearedBalanceLocal: a.currentClearedBalanceLocal,
		Currency:                   a.currency.Code(),
		Type:                       string(a.accountType),
		IsTombstone:                a.IsDeleted(),
		CreatedAt:                  a.CreatedAt().Time(),
		UpdatedAt:                  a.UpdatedAt().Time(),
	}
}
