package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/iho/pocketledger/internal/domain"
)

// EntriesContext holds the accounts referenced by one batch of entry changes.
type EntriesContext struct {
	Accounts       map[domain.ID]*domain.Account
	SystemAccounts map[domain.Currency]*domain.Account
}

// Account returns a preloaded user account.
func (c *EntriesContext) Account(id domain.ID) (*domain.Account, error) {
	acc, ok := c.Accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
	}
	return acc, nil
}

// SystemAccount returns the preloaded trading account for currency.
func (c *EntriesContext) SystemAccount(currency domain.Currency) (*domain.Account, error) {
	acc, ok := c.SystemAccounts[currency]
	if !ok {
		return nil, fmt.Errorf("%w: system account for %s", domain.ErrAccountNotFound, currency)
	}
	return acc, nil
}

// EntriesContextLoader preloads accounts and per-currency system accounts.
type EntriesContextLoader struct {
	accountRepo AccountRepository
	idRetry     IDRetryPolicy
}

func NewEntriesContextLoader(accountRepo AccountRepository, idRetry IDRetryPolicy) *EntriesContextLoader {
	idRetry.Entity = "account"
	return &EntriesContextLoader{accountRepo: accountRepo, idRetry: idRetry}
}

// Load resolves every account referenced by creates and updates. Accounts
// are fetched in one call in id order. Archived accounts are loaded too;
// new operations against them are rejected by domain.CreateOperation.
// System accounts are found or created only for the currencies of entries
// that span more than one currency.
func (l *EntriesContextLoader) Load(
	ctx context.Context,
	tx Transaction,
	userID domain.ID,
	creates []CreateEntryInput,
	updates []UpdateEntryInput,
) (*EntriesContext, error) {
	groups := make([][]domain.ID, 0, len(creates)+len(updates))
	for _, in := range creates {
		groups = append(groups, operationAccountIDs(in.Operations))
	}
	for _, in := range updates {
		groups = append(groups, operationAccountIDs(in.Operations))
	}

	ids := uniqueSortedIDs(groups)
	ectx := &EntriesContext{
		Accounts:       make(map[domain.ID]*domain.Account, len(ids)),
		SystemAccounts: make(map[domain.Currency]*domain.Account),
	}
	if len(ids) == 0 {
		return ectx, nil
	}

	accounts, err := l.accountRepo.GetByIDs(ctx, tx, ids)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	for _, acc := range accounts {
		ectx.Accounts[acc.ID()] = acc
	}

	for _, id := range ids {
		acc, ok := ectx.Accounts[id]
		switch {
		case !ok || !acc.BelongsToUser(userID):
			return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
		case acc.IsSystem():
			return nil, &domain.DomainError{Kind: domain.ErrSystemAccount, Entity: "account", Detail: "account " + id.String()}
		}
	}

	for _, currency := range tradedCurrencies(groups, ectx.Accounts) {
		acc, err := l.findOrCreateSystemAccount(ctx, tx, userID, currency)
		if err != nil {
			return nil, err
		}
		ectx.SystemAccounts[currency] = acc
	}

	return ectx, nil
}

func (l *EntriesContextLoader) findOrCreateSystemAccount(ctx context.Context, tx Transaction, userID domain.ID, currency domain.Currency) (*domain.Account, error) {
	acc, err := l.accountRepo.FindSystemAccount(ctx, tx, userID, currency)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find system account %s: %w", currency, err)
	}

	acc = domain.CreateSystemAccount(userID, currency)
	err = SaveWithIDRetry(ctx, l.idRetry, acc, func(ctx context.Context, a *domain.Account) error {
		return l.accountRepo.Create(ctx, tx, a)
	})
	if err == nil {
		return acc, nil
	}

	// A concurrent request may have created it first.
	if errors.Is(err, domain.ErrRecordAlreadyExists) {
		if existing, findErr := l.accountRepo.FindSystemAccount(ctx, tx, userID, currency); findErr == nil {
			return existing, nil
		}
	}
	return nil, err
}

func uniqueSortedIDs(groups [][]domain.ID) []domain.ID {
	seen := make(map[domain.ID]bool)
	var ids []domain.ID
	for _, group := range groups {
		for _, id := range group {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// tradedCurrencies returns, sorted, the currencies of every group whose
// accounts span more than one currency.
func tradedCurrencies(groups [][]domain.ID, accounts map[domain.ID]*domain.Account) []domain.Currency {
	needed := make(map[domain.Currency]bool)
	for _, group := range groups {
		currencies := make(map[domain.Currency]bool)
		for _, id := range group {
			currencies[accounts[id].Currency()] = true
		}
		if len(currencies) > 1 {
			for c := range currencies {
				needed[c] = true
			}
		}
	}

	out := make([]domain.Currency, 0, len(needed))
	for c := range needed {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code() < out[j].Code() })
	return out
}
