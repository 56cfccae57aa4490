package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iho/pocketledger/internal/domain"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	outboxRepo  OutboxRepository
	idRetry     IDRetryPolicy
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(txManager TransactionManager, accountRepo AccountRepository, outboxRepo OutboxRepository, idRetry IDRetryPolicy) *AccountUseCase {
	idRetry.Entity = "account"
	return &AccountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		idRetry:     idRetry,
	}
}

// CreateAccount creates a new user account.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, params domain.CreateAccountParams) (*domain.Account, error) {
	account, err := domain.CreateAccount(params)
	if err != nil {
		return nil, err
	}

	err = uc.txManager.Run(ctx, func(tx Transaction) error {
		err := SaveWithIDRetry(ctx, uc.idRetry, account, func(ctx context.Context, a *domain.Account) error {
			return uc.accountRepo.Create(ctx, tx, a)
		})
		if err != nil {
			return err
		}

		if uc.outboxRepo == nil {
			return nil
		}
		payload := domain.AccountCreatedEvent{
			AccountID: account.ID().String(),
			Name:      account.Name(),
			Currency:  account.Currency().Code(),
			Type:      string(account.Type()),
		}.ToPayload()
		ev := domain.NewOutboxEvent(account.UserID(), account.ID(), domain.AggregateTypeAccount, domain.EventTypeAccountCreated, payload)
		return uc.outboxRepo.Create(ctx, tx, ev)
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Str("account_id", account.ID().String()).Msg("account created")
	return account, nil
}

// GetAccount retrieves an account owned by userID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, userID, id domain.ID) (*domain.Account, error) {
	return uc.loadOwned(ctx, nil, userID, id)
}

// ListAccounts lists the user's accounts, system accounts included.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, userID domain.ID) ([]*domain.Account, error) {
	return uc.accountRepo.GetAll(ctx, nil, userID)
}

// UpdateAccount applies patch to a user account.
func (uc *AccountUseCase) UpdateAccount(ctx context.Context, userID, id domain.ID, patch domain.AccountPatch) (*domain.Account, error) {
	var account *domain.Account
	err := uc.txManager.Run(ctx, func(tx Transaction) error {
		acc, err := uc.loadOwned(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if err := acc.UpdateAccount(patch); err != nil {
			return err
		}
		if err := uc.accountRepo.Update(ctx, tx, acc); err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		account = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// ArchiveAccount tombstones a user account.
func (uc *AccountUseCase) ArchiveAccount(ctx context.Context, userID, id domain.ID) error {
	return uc.txManager.Run(ctx, func(tx Transaction) error {
		acc, err := uc.loadOwned(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if acc.IsSystem() {
			return &domain.DomainError{Kind: domain.ErrSystemAccount, Entity: "account", Detail: "account " + id.String()}
		}
		if err := acc.ValidateUpdateIsAllowed(); err != nil {
			return err
		}
		acc.MarkAsArchived()
		if err := uc.accountRepo.Delete(ctx, tx, acc.ID()); err != nil {
			return fmt.Errorf("archive account: %w", err)
		}

		if uc.outboxRepo == nil {
			return nil
		}
		ev := domain.NewOutboxEvent(acc.UserID(), acc.ID(), domain.AggregateTypeAccount, domain.EventTypeAccountArchived,
			map[string]any{"account_id": acc.ID().String()})
		return uc.outboxRepo.Create(ctx, tx, ev)
	})
}

func (uc *AccountUseCase) loadOwned(ctx context.Context, tx Transaction, userID, id domain.ID) (*domain.Account, error) {
	acc, err := uc.accountRepo.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !acc.BelongsToUser(userID) {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
	}
	return acc, nil
}
