package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/pocketledger/internal/domain"
	"github.com/iho/pocketledger/internal/usecase"
	"github.com/iho/pocketledger/internal/usecase/fakes"
)

func TestLedgerUseCase_CheckConsistency(t *testing.T) {
	usd := domain.MustParseCurrency("USD")
	eur := domain.MustParseCurrency("EUR")

	tests := []struct {
		name        string
		sums        map[domain.Currency]domain.Amount
		repoErr     error
		want        bool
		expectedErr error
	}{
		{
			name: "happy path balanced ledger",
			sums: map[domain.Currency]domain.Amount{usd: domain.ZeroAmount, eur: domain.ZeroAmount},
			want: true,
		},
		{
			name: "empty ledger",
			sums: map[domain.Currency]domain.Amount{},
			want: true,
		},
		{
			name:        "repo error surfaces",
			repoErr:     errors.New("db down"),
			expectedErr: errors.New("db down"),
		},
		{
			name:        "one currency off",
			sums:        map[domain.Currency]domain.Amount{usd: domain.ZeroAmount, eur: domain.NewAmountFromInt(3)},
			expectedErr: domain.ErrInconsistentLedger,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakes.LedgerRepository{
				TrialBalanceFunc: func(context.Context, domain.ID) (map[domain.Currency]domain.Amount, error) {
					return tt.sums, tt.repoErr
				},
			}
			uc := usecase.NewLedgerUseCase(repo, fakes.NewAccountRepository(fakes.NewStore()))

			ok, err := uc.CheckConsistency(context.Background(), domain.NewID())
			assert.Equal(t, tt.want, ok)
			if tt.expectedErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.expectedErr.Error(), err.Error())
		})
	}
}

func TestLedgerUseCase_TrialBalanceSorted(t *testing.T) {
	t.Parallel()
	repo := &fakes.LedgerRepository{
		TrialBalanceFunc: func(context.Context, domain.ID) (map[domain.Currency]domain.Amount, error) {
			return map[domain.Currency]domain.Amount{
				domain.MustParseCurrency("USD"): domain.ZeroAmount,
				domain.MustParseCurrency("EUR"): domain.ZeroAmount,
				domain.MustParseCurrency("GBP"): domain.ZeroAmount,
			}, nil
		},
	}
	tb, err := usecase.NewLedgerUseCase(repo, nil).TrialBalance(context.Background(), domain.NewID())
	require.NoError(t, err)
	require.Len(t, tb.Totals, 3)
	assert.Equal(t, "EUR", tb.Totals[0].Currency.Code())
	assert.Equal(t, "USD", tb.Totals[2].Currency.Code())
	assert.True(t, tb.Balanced)
}

func TestLedgerUseCase_AccountBalances(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := fakes.NewStore()
	accounts := fakes.NewAccountRepository(store)
	userID := domain.NewID()

	acc, err := domain.CreateAccount(domain.CreateAccountParams{
		UserID: userID, Name: "Cash", InitialBalance: domain.NewAmountFromInt(50),
		Currency: domain.MustParseCurrency("USD"), Type: domain.AccountTypeAsset,
	})
	require.NoError(t, err)
	require.NoError(t, accounts.Create(ctx, nil, acc))
	idle, err := domain.CreateAccount(domain.CreateAccountParams{
		UserID: userID, Name: "Idle", Currency: domain.MustParseCurrency("USD"), Type: domain.AccountTypeAsset,
	})
	require.NoError(t, err)
	require.NoError(t, accounts.Create(ctx, nil, idle))

	repo := &fakes.LedgerRepository{
		AccountBalancesFunc: func(context.Context, domain.ID) (map[domain.ID]domain.Amount, error) {
			return map[domain.ID]domain.Amount{acc.ID(): domain.NewAmountFromInt(-20)}, nil
		},
	}

	balances, err := usecase.NewLedgerUseCase(repo, accounts).AccountBalances(ctx, userID)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	byName := map[string]usecase.AccountBalance{}
	for _, b := range balances {
		byName[b.Account.Name()] = b
	}
	assert.True(t, byName["Cash"].Balance.Equals(domain.NewAmountFromInt(30)))
	assert.True(t, byName["Idle"].Balance.IsZero())
}
