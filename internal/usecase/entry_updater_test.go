package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/pocketledger/internal/domain"
	"github.com/iho/pocketledger/internal/usecase"
	"github.com/iho/pocketledger/internal/usecase/mocks"
)

type updaterFixture struct {
	entryRepo *mocks.MockEntryRepository
	opRepo    *mocks.MockOperationRepository
	updater   *usecase.EntryUpdater
	tx        *domain.Transaction
	entry     *domain.Entry
	ectx      *usecase.EntriesContext
}

func newUpdaterFixture(t *testing.T) updaterFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	userID := domain.NewID()
	usd := domain.MustParseCurrency("USD")
	a, err := domain.CreateAccount(domain.CreateAccountParams{UserID: userID, Name: "A", Currency: usd, Type: domain.AccountTypeAsset})
	require.NoError(t, err)
	b, err := domain.CreateAccount(domain.CreateAccountParams{UserID: userID, Name: "B", Currency: usd, Type: domain.AccountTypeExpense})
	require.NoError(t, err)

	tx, err := domain.CreateTransaction(domain.CreateTransactionParams{
		UserID:          userID,
		PostingDate:     domain.NewDateValue(domain.Now().Time()),
		TransactionDate: domain.NewDateValue(domain.Now().Time()),
	})
	require.NoError(t, err)

	entry, err := domain.CreateEntry(userID, tx.ID(), "coffee")
	require.NoError(t, err)
	var ops []*domain.Operation
	for acc, amount := range map[*domain.Account]int64{a: -4, b: 4} {
		op, err := domain.CreateOperation(domain.CreateOperationParams{UserID: userID, EntryID: entry.ID(), Account: acc, Amount: domain.NewAmountFromInt(amount)})
		require.NoError(t, err)
		ops = append(ops, op)
	}
	require.NoError(t, entry.AddOperations(ops...))
	require.NoError(t, tx.AddEntries(entry))

	entryRepo := mocks.NewMockEntryRepository(ctrl)
	opRepo := mocks.NewMockOperationRepository(ctrl)
	creator := usecase.NewEntryCreator(entryRepo, opRepo, usecase.DefaultIDRetryPolicy(""))

	return updaterFixture{
		entryRepo: entryRepo,
		opRepo:    opRepo,
		updater:   usecase.NewEntryUpdater(entryRepo, opRepo, creator, nil),
		tx:        tx,
		entry:     entry,
		ectx: &usecase.EntriesContext{
			Accounts:       map[domain.ID]*domain.Account{a.ID(): a, b.ID(): b},
			SystemAccounts: map[domain.Currency]*domain.Account{},
		},
	}
}

func (f updaterFixture) run(t *testing.T, changes usecase.EntriesChangeSet) (*usecase.EntriesUpdateResult, error) {
	t.Helper()
	return f.updater.Execute(context.Background(), nil, usecase.UpdateEntriesParams{
		Transaction: f.tx,
		Changes:     changes,
		Context:     f.ectx,
	})
}

func TestEntryUpdater_MetadataOnlyNeverVoids(t *testing.T) {
	t.Parallel()
	f := newUpdaterFixture(t)

	in := updateFrom(f.entry, nil)
	in.Description = "tea"

	f.entryRepo.EXPECT().Update(gomock.Any(), gomock.Nil(), f.entry).Return(nil).Times(1)

	result, err := f.run(t, usecase.EntriesChangeSet{Update: []usecase.UpdateEntryInput{in}})
	require.NoError(t, err)
	assert.Equal(t, "tea", f.entry.Description())
	assert.Equal(t, usecase.EntryUpdatedMetadata, result.Updated[0].Change)
}

func TestEntryUpdater_FinancialVoidsOnceAndRecreates(t *testing.T) {
	t.Parallel()
	f := newUpdaterFixture(t)

	in := updateFrom(f.entry, func(ops []usecase.OperationInput) {
		ops[0].Amount = ops[0].Amount.Add(ops[0].Amount)
		ops[1].Amount = ops[1].Amount.Add(ops[1].Amount)
	})

	gomock.InOrder(
		f.opRepo.EXPECT().VoidByEntryIDs(gomock.Any(), gomock.Nil(), []domain.ID{f.entry.ID()}).Return(nil),
		f.opRepo.EXPECT().Create(gomock.Any(), gomock.Nil(), gomock.Any()).Return(nil).Times(2),
	)

	_, err := f.run(t, usecase.EntriesChangeSet{Update: []usecase.UpdateEntryInput{in}})
	require.NoError(t, err)

	ops := f.entry.Operations()
	require.Len(t, ops, 2)
	assert.True(t, ops[0].Amount().Abs().Equals(domain.NewAmountFromInt(8)))
}

func TestEntryUpdater_UnchangedMakesNoCalls(t *testing.T) {
	t.Parallel()
	f := newUpdaterFixture(t)

	result, err := f.run(t, usecase.EntriesChangeSet{Update: []usecase.UpdateEntryInput{updateFrom(f.entry, nil)}})
	require.NoError(t, err)
	assert.Empty(t, result.Updated)
}

func TestEntryUpdater_DeleteVoidsEntryAndOperations(t *testing.T) {
	t.Parallel()
	f := newUpdaterFixture(t)

	gomock.InOrder(
		f.entryRepo.EXPECT().VoidByIDs(gomock.Any(), gomock.Nil(), []domain.ID{f.entry.ID()}).Return(nil),
		f.opRepo.EXPECT().VoidByEntryIDs(gomock.Any(), gomock.Nil(), []domain.ID{f.entry.ID()}).Return(nil),
	)

	result, err := f.run(t, usecase.EntriesChangeSet{Delete: []domain.ID{f.entry.ID()}})
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{f.entry.ID()}, result.Deleted)
	assert.Empty(t, f.tx.Entries())
	assert.True(t, f.entry.IsDeleted())
}

func TestEntryUpdater_RepositoryErrorPropagates(t *testing.T) {
	t.Parallel()
	f := newUpdaterFixture(t)
	boom := errors.New("connection reset")

	in := updateFrom(f.entry, nil)
	in.Description = "tea"
	f.entryRepo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(boom)

	_, err := f.run(t, usecase.EntriesChangeSet{Update: []usecase.UpdateEntryInput{in}})
	require.ErrorIs(t, err, boom)
}

func TestEntryUpdater_RejectsDeletedTransaction(t *testing.T) {
	t.Parallel()
	f := newUpdaterFixture(t)
	require.NoError(t, f.tx.Delete())

	_, err := f.run(t, usecase.EntriesChangeSet{})
	require.ErrorIs(t, err, domain.ErrDeletedEntity)
}

func TestEntryUpdater_RejectsDuplicateUpdateIDs(t *testing.T) {
	t.Parallel()
	f := newUpdaterFixture(t)

	in := usecase.UpdateEntryInput{ID: f.entry.ID(), Description: "coffee"}
	for _, op := range f.entry.NonSystemOperations() {
		in.Operations = append(in.Operations, usecase.OperationInput{
			AccountID: op.AccountID(),
			Amount:    op.Amount().Neg(),
		})
	}

	// No repository expectations: any write fails the test.
	_, err := f.run(t, usecase.EntriesChangeSet{Update: []usecase.UpdateEntryInput{in, in}})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Len(t, f.entry.Operations(), 2)
}
