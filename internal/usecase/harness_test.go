package usecase_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iho/pocketledger/internal/domain"
	"github.com/iho/pocketledger/internal/usecase"
	"github.com/iho/pocketledger/internal/usecase/fakes"
)

type harness struct {
	store        *fakes.Store
	accounts     *fakes.AccountRepository
	entries      *fakes.EntryRepository
	operations   *fakes.OperationRepository
	transactions *fakes.TransactionRepository
	outbox       *fakes.OutboxRepository
	txManager    *fakes.TxManager
	metrics      *fakes.Metrics

	service *usecase.EntriesService
	uc      *usecase.TransactionUseCase
	userID  domain.ID
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := fakes.NewStore()
	h := &harness{
		store:        store,
		accounts:     fakes.NewAccountRepository(store),
		entries:      fakes.NewEntryRepository(store),
		operations:   fakes.NewOperationRepository(store),
		transactions: fakes.NewTransactionRepository(store),
		outbox:       fakes.NewOutboxRepository(store),
		txManager:    fakes.NewTxManager(),
		metrics:      fakes.NewMetrics(),
		userID:       domain.NewID(),
	}

	policy := usecase.IDRetryPolicy{Retries: usecase.DefaultIDRetries, OnCollision: h.metrics.RecordIDCollision}
	creator := usecase.NewEntryCreator(h.entries, h.operations, policy)
	h.service = usecase.NewEntriesService(
		usecase.NewEntriesContextLoader(h.accounts, policy),
		creator,
		usecase.NewEntryUpdater(h.entries, h.operations, creator, h.metrics),
	)
	h.uc = usecase.NewTransactionUseCase(h.txManager, h.transactions, h.entries, h.operations, h.outbox, h.service, policy, h.metrics)
	return h
}

func (h *harness) account(t *testing.T, currency string) *domain.Account {
	t.Helper()
	acc, err := domain.CreateAccount(domain.CreateAccountParams{
		UserID:   h.userID,
		Name:     "Account " + currency,
		Currency: domain.MustParseCurrency(currency),
		Type:     domain.AccountTypeAsset,
	})
	require.NoError(t, err)
	require.NoError(t, h.accounts.Create(t.Context(), nil, acc))
	return acc
}

func (h *harness) createTransaction(t *testing.T, entries ...usecase.CreateEntryInput) *domain.Transaction {
	t.Helper()
	tx, err := h.uc.CreateTransaction(t.Context(), usecase.CreateTransactionInput{
		UserID:          h.userID,
		Description:     "test",
		PostingDate:     domain.NewDateValue(time.Now()),
		TransactionDate: domain.NewDateValue(time.Now()),
		Entries:         entries,
	})
	require.NoError(t, err)
	return tx
}

func leg(acc *domain.Account, amount int64) usecase.OperationInput {
	return usecase.OperationInput{AccountID: acc.ID(), Amount: domain.NewAmountFromInt(amount)}
}

func entryInput(description string, ops ...usecase.OperationInput) usecase.CreateEntryInput {
	return usecase.CreateEntryInput{Description: description, Operations: ops}
}

// updateFrom mirrors entry as an update input; mutate edits the operation inputs.
func updateFrom(entry *domain.Entry, mutate func(ops []usecase.OperationInput)) usecase.UpdateEntryInput {
	var ops []usecase.OperationInput
	for _, op := range entry.NonSystemOperations() {
		ops = append(ops, usecase.OperationInput{
			ID:          op.ID(),
			AccountID:   op.AccountID(),
			Amount:      op.Amount(),
			Description: op.Description(),
		})
	}
	if mutate != nil {
		mutate(ops)
	}
	return usecase.UpdateEntryInput{ID: entry.ID(), Description: entry.Description(), Operations: ops}
}

func activeRows(rows []domain.OperationRow) []domain.OperationRow {
	var out []domain.OperationRow
	for _, r := range rows {
		if !r.IsTombstone {
			out = append(out, r)
		}
	}
	return out
}
