package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_ValidateEntriesBalance(t *testing.T) {
	t.Parallel()
	f := newEntryFixture(t)

	balanced := f.entry(t, map[*Account]int64{f.usdA: 100, f.usdB: -100})
	require.NoError(t, f.tx.AddEntries(balanced))
	require.NoError(t, f.tx.ValidateEntriesBalance())

	unbalanced := f.entry(t, map[*Account]int64{f.usdA: 100, f.usdB: -1})
	require.NoError(t, f.tx.AddEntries(unbalanced))
	assert.ErrorIs(t, f.tx.ValidateEntriesBalance(), ErrUnbalancedEntry)

	f.tx.RemoveEntries(unbalanced.ID())
	assert.NoError(t, f.tx.ValidateEntriesBalance())
	assert.Len(t, f.tx.Entries(), 1)
}

func TestTransaction_Entries(t *testing.T) {
	t.Parallel()
	f := newEntryFixture(t)

	e1 := f.entry(t, map[*Account]int64{f.usdA: 1, f.usdB: -1})
	e2 := f.entry(t, map[*Account]int64{f.usdA: 2, f.usdB: -2})
	require.NoError(t, f.tx.AddEntries(e1, e2))

	got, ok := f.tx.GetEntryByID(e2.ID())
	require.True(t, ok)
	assert.Same(t, e2, got)

	_, ok = f.tx.GetEntryByID(NewID())
	assert.False(t, ok)

	e1.Void()
	assert.Equal(t, []ID{e2.ID()}, f.tx.EntryIDs())
	_, ok = f.tx.GetEntryByID(e1.ID())
	assert.False(t, ok)

	foreign, err := CreateEntry(f.userID, NewID(), "")
	require.NoError(t, err)
	assert.ErrorIs(t, f.tx.AddEntries(foreign), ErrOperationOwnership)
}

func TestTransaction_HeaderUpdates(t *testing.T) {
	t.Parallel()
	f := newEntryFixture(t)

	d := NewDateValue(time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC))
	require.NoError(t, f.tx.UpdateDescription("rent"))
	require.NoError(t, f.tx.UpdatePostingDate(d))
	require.NoError(t, f.tx.UpdateTransactionDate(d))
	assert.Equal(t, "rent", f.tx.Description())
	assert.Equal(t, "2024-01-02", f.tx.PostingDate().String())

	assert.ErrorIs(t, f.tx.UpdatePostingDate(DateValue{}), ErrValidation)
}

func TestTransaction_Delete(t *testing.T) {
	t.Parallel()
	f := newEntryFixture(t)

	e := f.entry(t, map[*Account]int64{f.usdA: 5, f.usdB: -5})
	require.NoError(t, f.tx.AddEntries(e))
	require.NoError(t, f.tx.Delete())

	assert.True(t, f.tx.IsDeleted())
	assert.True(t, e.IsDeleted())
	assert.Empty(t, e.Operations())
	assert.ErrorIs(t, f.tx.UpdateDescription("x"), ErrDeletedEntity)
	assert.ErrorIs(t, f.tx.Delete(), ErrDeletedEntity)
}

func TestCreateUser(t *testing.T) {
	BcryptCost = 4
	t.Cleanup(func() { BcryptCost = 10 })

	u, err := CreateUser(" Alice@Example.com ", "Alice", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email().String())
	assert.True(t, u.CheckPassword("Secret123"))
	assert.False(t, u.CheckPassword("secret123"))

	restored, err := RestoreUser(u.ToPersistence())
	require.NoError(t, err)
	assert.True(t, restored.CheckPassword("Secret123"))

	_, err = CreateUser("nope", "Alice", "Secret123")
	assert.ErrorIs(t, err, ErrInvalidEmail)
	_, err = CreateUser("a@b.co", "Alice", "weak")
	assert.ErrorIs(t, err, ErrPasswordTooWeak)
}
