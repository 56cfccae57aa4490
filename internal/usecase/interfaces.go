package usecase

import (
	"context"
	"time"

	"github.com/iho/pocketledger/internal/domain"
)

// Every repository method takes the active database transaction explicitly.
// A nil Transaction runs the statement outside of any transaction.

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	GetAll(ctx context.Context, tx Transaction, userID domain.ID) ([]*domain.Account, error)
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, tx Transaction, id domain.ID) (*domain.Account, error)
	Update(ctx context.Context, tx Transaction, account *domain.Account) error
	Delete(ctx context.Context, tx Transaction, id domain.ID) error
	FindSystemAccount(ctx context.Context, tx Transaction, userID domain.ID, currency domain.Currency) (*domain.Account, error)
	GetByIDs(ctx context.Context, tx Transaction, ids []domain.ID) ([]*domain.Account, error)
}

// EntryRepository defines data access for entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.Entry) error
	Update(ctx context.Context, tx Transaction, entry *domain.Entry) error
	GetByTransactionID(ctx context.Context, tx Transaction, transactionID domain.ID) ([]*domain.Entry, error)
	VoidByTransactionID(ctx context.Context, tx Transaction, transactionID domain.ID) error
	VoidByIDs(ctx context.Context, tx Transaction, ids []domain.ID) error
}

// OperationRepository defines data access for operations.
type OperationRepository interface {
	Create(ctx context.Context, tx Transaction, operation *domain.Operation) error
	GetByEntryID(ctx context.Context, tx Transaction, entryID domain.ID) ([]*domain.Operation, error)
	VoidByEntryIDs(ctx context.Context, tx Transaction, entryIDs []domain.ID) error
}

// TransactionRepository defines data access for ledger transactions.
// GetByID hydrates entries and their operations.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, transaction *domain.Transaction) error
	GetByID(ctx context.Context, tx Transaction, id domain.ID) (*domain.Transaction, error)
	Update(ctx context.Context, tx Transaction, transaction *domain.Transaction) error
	Delete(ctx context.Context, tx Transaction, id domain.ID) error
	List(ctx context.Context, tx Transaction, userID domain.ID, limit, offset int) ([]*domain.Transaction, error)
}

// UserRepository defines data access for users.
type UserRepository interface {
	Create(ctx context.Context, tx Transaction, user *domain.User) error
	GetByID(ctx context.Context, tx Transaction, id domain.ID) (*domain.User, error)
	GetByEmail(ctx context.Context, tx Transaction, email domain.Email) (*domain.User, error)
}

// LedgerRepository defines ledger-wide aggregate queries.
type LedgerRepository interface {
	// TrialBalance sums active operations per currency for a user.
	TrialBalance(ctx context.Context, userID domain.ID) (map[domain.Currency]domain.Amount, error)
	// AccountBalances sums active operations per account for a user.
	AccountBalances(ctx context.Context, userID domain.ID) (map[domain.ID]domain.Amount, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id domain.ID, publishedAt time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager runs fn inside one database transaction.
// fn's error rolls the transaction back; a nil return commits it.
type TransactionManager interface {
	Run(ctx context.Context, fn func(tx Transaction) error) error
}

// IdempotencyPending is the stored value of a key whose request is still running.
const IdempotencyPending = "processing"

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a reservation so the request can be retried.
	Release(ctx context.Context, key string) error
}

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Generate(user *domain.User) (string, error)
}
