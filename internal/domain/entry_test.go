package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entryFixture struct {
	userID ID
	tx     *Transaction
	usdA   *Account
	usdB   *Account
	eur    *Account
}

func newEntryFixture(t *testing.T) entryFixture {
	t.Helper()
	userID := NewID()
	tx, err := CreateTransaction(CreateTransactionParams{
		UserID:          userID,
		Description:     "groceries",
		PostingDate:     NewDateValue(Now().Time()),
		TransactionDate: NewDateValue(Now().Time()),
	})
	require.NoError(t, err)
	return entryFixture{
		userID: userID,
		tx:     tx,
		usdA:   newTestAccount(t, userID, "USD"),
		usdB:   newTestAccount(t, userID, "USD"),
		eur:    newTestAccount(t, userID, "EUR"),
	}
}

func (f entryFixture) entry(t *testing.T, legs map[*Account]int64) *Entry {
	t.Helper()
	e, err := CreateEntry(f.userID, f.tx.ID(), "")
	require.NoError(t, err)
	var ops []*Operation
	for acc, amount := range legs {
		ops = append(ops, f.op(t, e, acc, amount))
	}
	require.NoError(t, e.AddOperations(ops...))
	return e
}

func (f entryFixture) op(t *testing.T, e *Entry, acc *Account, amount int64) *Operation {
	t.Helper()
	op, err := CreateOperation(CreateOperationParams{
		UserID:  f.userID,
		EntryID: e.ID(),
		Account: acc,
		Amount:  NewAmountFromInt(amount),
	})
	require.NoError(t, err)
	return op
}

func TestEntry_ValidateBalance(t *testing.T) {
	t.Parallel()
	f := newEntryFixture(t)

	t.Run("balanced single currency", func(t *testing.T) {
		e := f.entry(t, map[*Account]int64{f.usdA: 100, f.usdB: -100})
		assert.NoError(t, e.ValidateBalance())
	})

	t.Run("unbalanced single currency", func(t *testing.T) {
		e := f.entry(t, map[*Account]int64{f.usdA: 100, f.usdB: -90})
		assert.ErrorIs(t, e.ValidateBalance(), ErrUnbalancedEntry)
	})

	t.Run("no operations", func(t *testing.T) {
		e, err := CreateEntry(f.userID, f.tx.ID(), "")
		require.NoError(t, err)
		assert.ErrorIs(t, e.ValidateBalance(), ErrMissingOperations)
	})

	t.Run("all operations voided", func(t *testing.T) {
		e := f.entry(t, map[*Account]int64{f.usdA: 100, f.usdB: -100})
		voided := e.VoidOperations()
		assert.Len(t, voided, 2)
		assert.ErrorIs(t, e.ValidateBalance(), ErrMissingOperations)
	})

	t.Run("multi currency requires trading legs", func(t *testing.T) {
		e := f.entry(t, map[*Account]int64{f.usdA: -100, f.eur: 90})
		require.True(t, e.IsMultiCurrency())
		assert.ErrorIs(t, e.ValidateBalance(), ErrUnbalancedEntry)

		usdTrading := CreateSystemAccount(f.userID, MustParseCurrency("USD"))
		eurTrading := CreateSystemAccount(f.userID, MustParseCurrency("EUR"))
		usdLeg, err := CreateSystemOperation(f.userID, e.ID(), usdTrading, NewAmountFromInt(100))
		require.NoError(t, err)
		eurLeg, err := CreateSystemOperation(f.userID, e.ID(), eurTrading, NewAmountFromInt(-90))
		require.NoError(t, err)
		require.NoError(t, e.AddOperations(usdLeg, eurLeg))

		assert.NoError(t, e.ValidateBalance())
		assert.Len(t, e.Operations(), 4)
		assert.Len(t, e.NonSystemOperations(), 2)
	})
}

func TestEntry_AddOperations(t *testing.T) {
	t.Parallel()
	f := newEntryFixture(t)

	e, err := CreateEntry(f.userID, f.tx.ID(), "")
	require.NoError(t, err)

	assert.ErrorIs(t, e.AddOperations(), ErrEmptyOperations)

	other, err := CreateEntry(f.userID, f.tx.ID(), "")
	require.NoError(t, err)
	foreign := f.op(t, other, f.usdA, 10)
	assert.ErrorIs(t, e.AddOperations(foreign), ErrOperationOwnership)

	e.MarkAsDeleted()
	assert.ErrorIs(t, e.AddOperations(f.op(t, e, f.usdA, 1)), ErrDeletedEntity)
}

func TestCreateOperation(t *testing.T) {
	t.Parallel()
	f := newEntryFixture(t)
	e, err := CreateEntry(f.userID, f.tx.ID(), "")
	require.NoError(t, err)

	op := f.op(t, e, f.eur, 5)
	assert.Equal(t, "EUR", op.Currency().Code())
	assert.True(t, op.AccountID().Equals(f.eur.ID()))
	assert.True(t, op.EntryID().Equals(e.ID()))
	assert.True(t, op.CanBeUpdated())
	assert.True(t, op.IsCurrencyDifferent(f.op(t, e, f.usdA, 5)))

	strangers := newTestAccount(t, NewID(), "USD")
	_, err = CreateOperation(CreateOperationParams{UserID: f.userID, EntryID: e.ID(), Account: strangers, Amount: NewAmountFromInt(1)})
	assert.ErrorIs(t, err, ErrOperationOwnership)

	_, err = CreateOperation(CreateOperationParams{UserID: f.userID, EntryID: e.ID(), Account: CreateSystemAccount(f.userID, MustParseCurrency("USD"))})
	assert.ErrorIs(t, err, ErrSystemAccount)

	archived := newTestAccount(t, f.userID, "USD")
	archived.MarkAsArchived()
	_, err = CreateOperation(CreateOperationParams{UserID: f.userID, EntryID: e.ID(), Account: archived})
	assert.ErrorIs(t, err, ErrDeletedEntity)
}

func TestOperation_Updates(t *testing.T) {
	t.Parallel()
	f := newEntryFixture(t)
	e, err := CreateEntry(f.userID, f.tx.ID(), "")
	require.NoError(t, err)

	op := f.op(t, e, f.usdA, 5)
	require.NoError(t, op.UpdateAmount(NewAmountFromInt(7)))
	require.NoError(t, op.UpdateDescription("coffee"))
	assert.True(t, op.Amount().Equals(NewAmountFromInt(7)))
	assert.Equal(t, "coffee", op.Description())

	sys, err := CreateSystemOperation(f.userID, e.ID(), CreateSystemAccount(f.userID, MustParseCurrency("USD")), NewAmountFromInt(1))
	require.NoError(t, err)
	assert.False(t, sys.CanBeUpdated())
	assert.ErrorIs(t, sys.UpdateAmount(NewAmountFromInt(2)), ErrSystemOperation)

	op.MarkAsDeleted()
	assert.False(t, op.CanBeUpdated())
	assert.ErrorIs(t, op.UpdateDescription("x"), ErrDeletedEntity)
}

func TestEntry_BalancedPair(t *testing.T) {
	t.Parallel()
	f := newEntryFixture(t)

	e, err := CreateEntry(f.userID, f.tx.ID(), "")
	require.NoError(t, err)
	in := f.op(t, e, f.usdA, 100)
	out := f.op(t, e, f.usdB, -100)
	require.NoError(t, e.AddOperations(in, out))

	from, to, err := e.BalancedPair()
	require.NoError(t, err)
	assert.Same(t, out, from)
	assert.Same(t, in, to)

	require.NoError(t, e.AddOperations(f.op(t, e, f.usdA, 0)))
	_, _, err = e.BalancedPair()
	assert.ErrorIs(t, err, ErrUnexpectedOperationCount)
}

func TestRestoreEntry_RejectsForeignOperations(t *testing.T) {
	t.Parallel()
	f := newEntryFixture(t)

	e := f.entry(t, map[*Account]int64{f.usdA: 1, f.usdB: -1})
	other, err := CreateEntry(f.userID, f.tx.ID(), "")
	require.NoError(t, err)

	_, err = RestoreEntry(other.ToPersistence(), e.Operations())
	assert.ErrorIs(t, err, ErrOperationOwnership)

	restored, err := RestoreEntry(e.ToPersistence(), e.Operations())
	require.NoError(t, err)
	assert.Len(t, restored.Operations(), 2)
}
