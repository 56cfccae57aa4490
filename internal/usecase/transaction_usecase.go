package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iho/pocketledger/internal/domain"
)

// TransactionUseCase handles ledger transaction business logic.
type TransactionUseCase struct {
	txManager       TransactionManager
	transactionRepo TransactionRepository
	entryRepo       EntryRepository
	operationRepo   OperationRepository
	outboxRepo      OutboxRepository
	entries         *EntriesService
	idRetry         IDRetryPolicy
	metrics         MetricsRecorder
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(
	txManager TransactionManager,
	transactionRepo TransactionRepository,
	entryRepo EntryRepository,
	operationRepo OperationRepository,
	outboxRepo OutboxRepository,
	entries *EntriesService,
	idRetry IDRetryPolicy,
	metrics MetricsRecorder,
) *TransactionUseCase {
	idRetry.Entity = "transaction"
	return &TransactionUseCase{
		txManager:       txManager,
		transactionRepo: transactionRepo,
		entryRepo:       entryRepo,
		operationRepo:   operationRepo,
		outboxRepo:      outboxRepo,
		entries:         entries,
		idRetry:         idRetry,
		metrics:         metricsOrNop(metrics),
	}
}

// CreateTransactionInput represents input for creating a transaction.
// A zero TransactionDate defaults to PostingDate.
type CreateTransactionInput struct {
	UserID          domain.ID
	Description     string
	PostingDate     domain.DateValue
	TransactionDate domain.DateValue
	Entries         []CreateEntryInput
}

// UpdateTransactionInput represents input for updating a transaction.
// Nil header fields are left unchanged.
type UpdateTransactionInput struct {
	UserID          domain.ID
	ID              domain.ID
	Description     *string
	PostingDate     *domain.DateValue
	TransactionDate *domain.DateValue
	Entries         EntriesChangeSet
}

// CreateTransaction persists a transaction with its entries atomically.
func (uc *TransactionUseCase) CreateTransaction(ctx context.Context, input CreateTransactionInput) (*domain.Transaction, error) {
	var created *domain.Transaction

	txDate := input.TransactionDate
	if txDate.IsZero() {
		txDate = input.PostingDate
	}

	err := uc.txManager.Run(ctx, func(tx Transaction) error {
		transaction, err := domain.CreateTransaction(domain.CreateTransactionParams{
			UserID:          input.UserID,
			Description:     input.Description,
			PostingDate:     input.PostingDate,
			TransactionDate: txDate,
		})
		if err != nil {
			return err
		}

		err = SaveWithIDRetry(ctx, uc.idRetry, transaction, func(ctx context.Context, t *domain.Transaction) error {
			return uc.transactionRepo.Create(ctx, tx, t)
		})
		if err != nil {
			return err
		}

		entries, err := uc.entries.CreateEntries(ctx, tx, transaction, input.Entries)
		if err != nil {
			return err
		}

		event := domain.TransactionChangedEvent{
			TransactionID:  transaction.ID().String(),
			EntriesCreated: len(entries),
		}
		if err := uc.publish(ctx, tx, transaction, domain.EventTypeTransactionCreated, event); err != nil {
			return err
		}

		created = transaction
		return nil
	})
	uc.metrics.RecordTransactionOperation("create", err)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("transaction_id", created.ID().String()).
		Int("entries", len(created.Entries())).
		Msg("transaction created")
	return created, nil
}

// GetTransaction returns a transaction owned by userID.
func (uc *TransactionUseCase) GetTransaction(ctx context.Context, userID, id domain.ID) (*domain.Transaction, error) {
	return uc.loadOwned(ctx, nil, userID, id)
}

// ListTransactions lists a user's transactions with pagination.
func (uc *TransactionUseCase) ListTransactions(ctx context.Context, userID domain.ID, limit, offset int) ([]*domain.Transaction, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.transactionRepo.List(ctx, nil, userID, limit, offset)
}

// UpdateTransaction applies header changes and an entry change set atomically.
func (uc *TransactionUseCase) UpdateTransaction(ctx context.Context, input UpdateTransactionInput) (*domain.Transaction, *EntriesUpdateResult, error) {
	var (
		updated *domain.Transaction
		result  *EntriesUpdateResult
	)

	err := uc.txManager.Run(ctx, func(tx Transaction) error {
		transaction, err := uc.loadOwned(ctx, tx, input.UserID, input.ID)
		if err != nil {
			return err
		}
		if err := transaction.ValidateUpdateIsAllowed(); err != nil {
			return err
		}

		headerChanged, err := applyHeader(transaction, input)
		if err != nil {
			return err
		}
		if headerChanged {
			if err := uc.transactionRepo.Update(ctx, tx, transaction); err != nil {
				return fmt.Errorf("update transaction: %w", err)
			}
		}

		res, err := uc.entries.UpdateEntries(ctx, tx, transaction, input.Entries)
		if err != nil {
			return err
		}

		event := domain.TransactionChangedEvent{
			TransactionID:  transaction.ID().String(),
			EntriesCreated: len(res.Created),
			EntriesUpdated: len(res.Updated),
			EntriesDeleted: len(res.Deleted),
		}
		if err := uc.publish(ctx, tx, transaction, domain.EventTypeTransactionUpdated, event); err != nil {
			return err
		}

		updated, result = transaction, res
		return nil
	})
	uc.metrics.RecordTransactionOperation("update", err)
	if err != nil {
		return nil, nil, err
	}
	return updated, result, nil
}

// DeleteTransaction tombstones a transaction with its entries and operations.
func (uc *TransactionUseCase) DeleteTransaction(ctx context.Context, userID, id domain.ID) error {
	err := uc.txManager.Run(ctx, func(tx Transaction) error {
		transaction, err := uc.loadOwned(ctx, tx, userID, id)
		if err != nil {
			return err
		}

		entryIDs := transaction.EntryIDs()
		if err := transaction.Delete(); err != nil {
			return err
		}

		if len(entryIDs) > 0 {
			if err := uc.operationRepo.VoidByEntryIDs(ctx, tx, entryIDs); err != nil {
				return fmt.Errorf("void operations: %w", err)
			}
		}
		if err := uc.entryRepo.VoidByTransactionID(ctx, tx, transaction.ID()); err != nil {
			return fmt.Errorf("void entries: %w", err)
		}
		if err := uc.transactionRepo.Delete(ctx, tx, transaction.ID()); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}

		event := domain.TransactionChangedEvent{
			TransactionID:  transaction.ID().String(),
			EntriesDeleted: len(entryIDs),
		}
		return uc.publish(ctx, tx, transaction, domain.EventTypeTransactionDeleted, event)
	})
	uc.metrics.RecordTransactionOperation("delete", err)
	return err
}

func (uc *TransactionUseCase) loadOwned(ctx context.Context, tx Transaction, userID, id domain.ID) (*domain.Transaction, error) {
	transaction, err := uc.transactionRepo.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !transaction.BelongsToUser(userID) {
		return nil, fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, id)
	}
	return transaction, nil
}

func (uc *TransactionUseCase) publish(ctx context.Context, tx Transaction, t *domain.Transaction, eventType string, event domain.TransactionChangedEvent) error {
	if uc.outboxRepo == nil {
		return nil
	}
	ev := domain.NewOutboxEvent(t.UserID(), t.ID(), domain.AggregateTypeTransaction, eventType, event.ToPayload())
	if err := uc.outboxRepo.Create(ctx, tx, ev); err != nil {
		return fmt.Errorf("create outbox event: %w", err)
	}
	return nil
}

func applyHeader(t *domain.Transaction, input UpdateTransactionInput) (bool, error) {
	changed := false
	if input.Description != nil && *input.Description != t.Description() {
		if err := t.UpdateDescription(*input.Description); err != nil {
			return false, err
		}
		changed = true
	}
	if input.PostingDate != nil && !input.PostingDate.Equals(t.PostingDate()) {
		if err := t.UpdatePostingDate(*input.PostingDate); err != nil {
			return false, err
		}
		changed = true
	}
	if input.TransactionDate != nil && !input.TransactionDate.Equals(t.TransactionDate()) {
		if err := t.UpdateTransactionDate(*input.TransactionDate); err != nil {
			return false, err
		}
		changed = true
	}
	return changed, nil
}
