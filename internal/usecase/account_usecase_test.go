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

func newAccountUseCase(store *fakes.Store) (*usecase.AccountUseCase, *fakes.AccountRepository) {
	repo := fakes.NewAccountRepository(store)
	uc := usecase.NewAccountUseCase(fakes.NewTxManager(), repo, fakes.NewOutboxRepository(store), usecase.DefaultIDRetryPolicy(""))
	return uc, repo
}

func TestAccountUseCase_CreateAccount(t *testing.T) {
	tests := []struct {
		name        string
		params      domain.CreateAccountParams
		setup       func(*fakes.AccountRepository)
		expectError error
	}{
		{
			name: "successful account creation",
			params: domain.CreateAccountParams{
				Name:     "Checking",
				Currency: domain.MustParseCurrency("USD"),
				Type:     domain.AccountTypeAsset,
			},
		},
		{
			name: "invalid name",
			params: domain.CreateAccountParams{
				Name:     "",
				Currency: domain.MustParseCurrency("USD"),
				Type:     domain.AccountTypeAsset,
			},
			expectError: domain.ErrValidation,
		},
		{
			name: "create with repository error",
			params: domain.CreateAccountParams{
				Name:     "Checking",
				Currency: domain.MustParseCurrency("USD"),
				Type:     domain.AccountTypeAsset,
			},
			setup: func(repo *fakes.AccountRepository) {
				repo.CreateFunc = func(context.Context, usecase.Transaction, *domain.Account) error {
					return domain.ErrForeignKeyConstraint
				}
			},
			expectError: domain.ErrForeignKeyConstraint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := fakes.NewStore()
			uc, repo := newAccountUseCase(store)
			if tt.setup != nil {
				tt.setup(repo)
			}
			tt.params.UserID = domain.NewID()

			account, err := uc.CreateAccount(context.Background(), tt.params)
			if tt.expectError != nil {
				require.ErrorIs(t, err, tt.expectError)
				assert.Nil(t, account)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Checking", account.Name())

			events := store.Events()
			require.Len(t, events, 1)
			assert.Equal(t, domain.EventTypeAccountCreated, events[0].EventType)
			assert.Equal(t, "USD", events[0].Payload["currency"])
		})
	}
}

func TestAccountUseCase_OwnershipAndUpdates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := fakes.NewStore()
	uc, repo := newAccountUseCase(store)

	owner := domain.NewID()
	acc, err := uc.CreateAccount(ctx, domain.CreateAccountParams{
		UserID: owner, Name: "Card", Currency: domain.MustParseCurrency("EUR"), Type: domain.AccountTypeLiability,
	})
	require.NoError(t, err)

	_, err = uc.GetAccount(ctx, domain.NewID(), acc.ID())
	require.ErrorIs(t, err, domain.ErrNotFound)

	name := "Credit card"
	updated, err := uc.UpdateAccount(ctx, owner, acc.ID(), domain.AccountPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name())

	stored, err := uc.GetAccount(ctx, owner, acc.ID())
	require.NoError(t, err)
	assert.Equal(t, name, stored.Name())

	require.NoError(t, uc.ArchiveAccount(ctx, owner, acc.ID()))
	archived, err := repo.GetByID(ctx, nil, acc.ID())
	require.NoError(t, err)
	assert.True(t, archived.IsDeleted())

	_, err = uc.UpdateAccount(ctx, owner, acc.ID(), domain.AccountPatch{Name: &name})
	require.ErrorIs(t, err, domain.ErrDeletedEntity)
	require.ErrorIs(t, uc.ArchiveAccount(ctx, owner, acc.ID()), domain.ErrDeletedEntity)

	list, err := uc.ListAccounts(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAccountUseCase_SystemAccountsAreReadOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := fakes.NewStore()
	uc, repo := newAccountUseCase(store)

	owner := domain.NewID()
	sys := domain.CreateSystemAccount(owner, domain.MustParseCurrency("USD"))
	require.NoError(t, repo.Create(ctx, nil, sys))

	name := "mine"
	_, err := uc.UpdateAccount(ctx, owner, sys.ID(), domain.AccountPatch{Name: &name})
	require.ErrorIs(t, err, domain.ErrSystemAccount)

	err = uc.ArchiveAccount(ctx, owner, sys.ID())
	require.ErrorIs(t, err, domain.ErrSystemAccount)
	var de *domain.DomainError
	require.True(t, errors.As(err, &de))
}
