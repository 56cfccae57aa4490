package usecase

import (
	"context"
	"sort"

	"github.com/iho/pocketledger/internal/domain"
)

// LedgerUseCase handles ledger-wide checks for one user.
type LedgerUseCase struct {
	ledgerRepo  LedgerRepository
	accountRepo AccountRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository, accountRepo AccountRepository) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
	}
}

// CurrencyTotal is the net of all active operations in one currency.
type CurrencyTotal struct {
	Currency domain.Currency
	Total    domain.Amount
}

// TrialBalance is the per-currency sum of a user's operations.
type TrialBalance struct {
	Totals   []CurrencyTotal
	Balanced bool
}

// AccountBalance reports the computed balance of one account.
type AccountBalance struct {
	Account  *domain.Account
	Movement domain.Amount
	Balance  domain.Amount
}

// TrialBalance sums the user's active operations per currency.
// Double entry with trading legs keeps every currency at zero.
func (uc *LedgerUseCase) TrialBalance(ctx context.Context, userID domain.ID) (*TrialBalance, error) {
	sums, err := uc.ledgerRepo.TrialBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	tb := &TrialBalance{Balanced: true}
	for currency, total := range sums {
		tb.Totals = append(tb.Totals, CurrencyTotal{Currency: currency, Total: total})
		if !total.IsZero() {
			tb.Balanced = false
		}
	}
	sort.Slice(tb.Totals, func(i, j int) bool {
		return tb.Totals[i].Currency.Code() < tb.Totals[j].Currency.Code()
	})
	return tb, nil
}

// CheckConsistency fails with domain.ErrInconsistentLedger when any currency does not net to zero.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context, userID domain.ID) (bool, error) {
	tb, err := uc.TrialBalance(ctx, userID)
	if err != nil {
		return false, err
	}
	if !tb.Balanced {
		return false, domain.ErrInconsistentLedger
	}
	return true, nil
}

// AccountBalances computes initial balance plus operation movement for every account.
func (uc *LedgerUseCase) AccountBalances(ctx context.Context, userID domain.ID) ([]AccountBalance, error) {
	accounts, err := uc.accountRepo.GetAll(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	movements, err := uc.ledgerRepo.AccountBalances(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]AccountBalance, 0, len(accounts))
	for _, acc := range accounts {
		movement := movements[acc.ID()]
		out = append(out, AccountBalance{
			Account:  acc,
			Movement: movement,
			Balance:  acc.InitialBalance().Add(movement),
		})
	}
	return out, nil
}
