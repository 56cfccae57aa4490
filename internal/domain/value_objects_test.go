package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	t.Parallel()

	id := NewID()
	parsed, err := ParseID(id.String())
	require.NoError(t, err)
	assert.True(t, parsed.Equals(id))
	assert.False(t, parsed.IsZero())

	_, err = ParseID("not-a-uuid")
	require.ErrorIs(t, err, ErrValidation)

	assert.True(t, ID{}.IsZero())
}

func TestParseIDs(t *testing.T) {
	t.Parallel()

	a, b := NewID(), NewID()
	ids, err := ParseIDs([]string{a.String(), b.String()})
	require.NoError(t, err)
	assert.Equal(t, []ID{a, b}, ids)

	_, err = ParseIDs([]string{a.String(), "bad"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestAmount(t *testing.T) {
	t.Parallel()

	a, err := ParseAmount("100.50")
	require.NoError(t, err)
	b, err := ParseAmount("-100.5")
	require.NoError(t, err)

	assert.True(t, a.Add(b).IsZero())
	assert.True(t, a.Neg().Equals(b))
	assert.True(t, a.Sub(a).IsZero())
	assert.True(t, b.IsNegative())
	assert.True(t, b.Abs().Equals(a))
	assert.True(t, NewAmountFromInt(1).Equals(mustAmount(t, "1.000")))
	assert.True(t, SumAmounts(a, b, NewAmountFromInt(3)).Equals(NewAmountFromInt(3)))

	for _, bad := range []string{"", "  ", "12,5", "1e", "abc"} {
		_, err := ParseAmount(bad)
		assert.ErrorIs(t, err, ErrValidation, "input %q", bad)
	}
}

func TestParseCurrency(t *testing.T) {
	t.Parallel()

	c, err := ParseCurrency(" usd ")
	require.NoError(t, err)
	assert.Equal(t, "USD", c.Code())
	assert.Equal(t, 2, c.Fraction())
	assert.True(t, c.Equals(MustParseCurrency("USD")))
	assert.Equal(t, 0, MustParseCurrency("JPY").Fraction())

	_, err = ParseCurrency("QQQ")
	require.ErrorIs(t, err, ErrValidation)
	_, err = ParseCurrency("")
	require.ErrorIs(t, err, ErrValidation)
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	ts, err := ParseTimestamp("2024-03-01T10:15:30.123+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, ts.Time().Location())
	assert.Equal(t, 8, ts.Time().Hour())

	_, err = ParseTimestamp("2024-03-01")
	require.ErrorIs(t, err, ErrValidation)
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	d, err := ParseDate("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", d.String())

	fromTimestamp, err := ParseDate("2024-03-01T23:59:00Z")
	require.NoError(t, err)
	assert.True(t, d.Equals(fromTimestamp))

	_, err = ParseDate("03/01/2024")
	require.ErrorIs(t, err, ErrValidation)
}

func TestEntityTimestamps_TouchNeverMovesBackwards(t *testing.T) {
	t.Parallel()

	ts := newTimestamps()
	created := ts.CreatedAt()

	later := created.Time().Add(time.Hour)
	ts.TouchAt(later)
	assert.True(t, ts.UpdatedAt().Time().Equal(later))

	ts.TouchAt(created.Time().Add(-time.Hour))
	assert.True(t, ts.UpdatedAt().Time().Equal(later))
	assert.True(t, ts.CreatedAt().Equals(created))
}

func TestSoftDelete(t *testing.T) {
	t.Parallel()

	sd := newSoftDelete("account", false)
	require.NoError(t, sd.ValidateUpdateIsAllowed())
	assert.Equal(t, StateActive, sd.State())

	sd.MarkAsDeleted()
	assert.True(t, sd.IsDeleted())
	assert.ErrorIs(t, sd.ValidateUpdateIsAllowed(), ErrDeletedEntity)

	var de *DomainError
	require.ErrorAs(t, sd.ValidateUpdateIsAllowed(), &de)
	assert.Equal(t, "account", de.Entity)
}

func TestEntityIdentity_RegenerateID(t *testing.T) {
	t.Parallel()

	ident := newIdentity()
	before := ident.ID()
	ident.RegenerateID()
	assert.False(t, before.Equals(ident.ID()))
}

func TestEntityIdentity_SetID(t *testing.T) {
	t.Parallel()

	acc, err := CreateAccount(CreateAccountParams{
		UserID:   NewID(),
		Name:     "Wallet",
		Currency: MustParseCurrency("USD"),
		Type:     AccountTypeAsset,
	})
	require.NoError(t, err)

	id := MustParseID("7b0c4c47-5a41-4f3e-9d6f-0f3f3c2a9b11")
	acc.SetID(id)
	assert.True(t, acc.ID().Equals(id))
	assert.True(t, acc.ToPersistence().ID.Equals(id))
}

func mustAmount(t *testing.T, s string) Amount {
	t.Helper()
	a, err := ParseAmount(s)
	require.NoError(t, err)
	return a
}
