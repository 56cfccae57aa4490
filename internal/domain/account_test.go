package domain

import (
	"errors"
	"testing"
)

func newTestAccount(t *testing.T, userID ID, currency string) *Account {
	t.Helper()
	acc, err := CreateAccount(CreateAccountParams{
		UserID:         userID,
		Name:           "Wallet " + currency,
		InitialBalance: NewAmountFromInt(10),
		Currency:       MustParseCurrency(currency),
		Type:           AccountTypeAsset,
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return acc
}

func TestCreateAccount(t *testing.T) {
	t.Parallel()

	userID := NewID()
	usd := MustParseCurrency("USD")

	tests := []struct {
		name    string
		params  CreateAccountParams
		wantErr error
	}{
		{
			name:   "valid",
			params: CreateAccountParams{UserID: userID, Name: "Cash", Currency: usd, Type: AccountTypeAsset},
		},
		{
			name:    "empty name",
			params:  CreateAccountParams{UserID: userID, Name: " ", Currency: usd, Type: AccountTypeAsset},
			wantErr: ErrInvalidAccountName,
		},
		{
			name:    "system type not creatable",
			params:  CreateAccountParams{UserID: userID, Name: "Trading", Currency: usd, Type: AccountTypeCurrencyTrading},
			wantErr: ErrInvalidAccountType,
		},
		{
			name:    "missing currency",
			params:  CreateAccountParams{UserID: userID, Name: "Cash", Type: AccountTypeAsset},
			wantErr: ErrValidation,
		},
		{
			name:    "missing user",
			params:  CreateAccountParams{Name: "Cash", Currency: usd, Type: AccountTypeAsset},
			wantErr: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, err := CreateAccount(tt.params)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !acc.CurrentClearedBalanceLocal().IsZero() {
				t.Fatalf("expected zero cleared balance, got %s", acc.CurrentClearedBalanceLocal())
			}
			if acc.IsSystem() || acc.IsDeleted() {
				t.Fatalf("expected active user account")
			}
		})
	}
}

func TestAccount_MarkAsArchivedOnlyFlipsTombstone(t *testing.T) {
	t.Parallel()

	acc := newTestAccount(t, NewID(), "EUR")
	before := acc.ToPersistence()

	acc.MarkAsArchived()
	after := acc.ToPersistence()

	if !after.IsTombstone {
		t.Fatal("expected tombstone to be set")
	}
	after.IsTombstone = before.IsTombstone
	if after != before {
		t.Fatalf("expected only IsTombstone to change:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestAccount_UpdateAccount(t *testing.T) {
	t.Parallel()

	t.Run("applies present fields", func(t *testing.T) {
		acc := newTestAccount(t, NewID(), "USD")
		name := "Savings"
		eur := MustParseCurrency("EUR")
		typ := AccountTypeLiability

		if err := acc.UpdateAccount(AccountPatch{Name: &name, Currency: &eur, Type: &typ}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if acc.Name() != name || !acc.Currency().Equals(eur) || acc.Type() != typ {
			t.Fatalf("patch not applied: %+v", acc.ToPersistence())
		}
		if !acc.InitialBalance().Equals(NewAmountFromInt(10)) {
			t.Fatalf("expected initial balance untouched, got %s", acc.InitialBalance())
		}
	})

	t.Run("rejects invalid name without mutating", func(t *testing.T) {
		acc := newTestAccount(t, NewID(), "USD")
		bad := ""
		desc := "changed"
		err := acc.UpdateAccount(AccountPatch{Name: &bad, Description: &desc})
		if !errors.Is(err, ErrInvalidAccountName) {
			t.Fatalf("expected ErrInvalidAccountName, got %v", err)
		}
		if acc.Description() != "" {
			t.Fatalf("expected description unchanged, got %q", acc.Description())
		}
	})

	t.Run("rejects tombstoned account", func(t *testing.T) {
		acc := newTestAccount(t, NewID(), "USD")
		acc.MarkAsDeleted()
		name := "x"
		if err := acc.UpdateAccount(AccountPatch{Name: &name}); !errors.Is(err, ErrDeletedEntity) {
			t.Fatalf("expected ErrDeletedEntity, got %v", err)
		}
	})

	t.Run("rejects system account", func(t *testing.T) {
		acc := CreateSystemAccount(NewID(), MustParseCurrency("USD"))
		name := "x"
		if err := acc.UpdateAccount(AccountPatch{Name: &name}); !errors.Is(err, ErrSystemAccount) {
			t.Fatalf("expected ErrSystemAccount, got %v", err)
		}
	})
}

func TestRestoreAccount(t *testing.T) {
	t.Parallel()

	acc := newTestAccount(t, NewID(), "GBP")
	acc.MarkAsArchived()

	restored, err := RestoreAccount(acc.ToPersistence())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if restored.ToPersistence() != acc.ToPersistence() {
		t.Fatalf("round trip mismatch")
	}

	row := acc.ToPersistence()
	row.Type = "bogus"
	if _, err := RestoreAccount(row); !errors.Is(err, ErrInvalidAccountType) {
		t.Fatalf("expected ErrInvalidAccountType, got %v", err)
	}
}
