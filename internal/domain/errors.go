package domain

import (
	"errors"
	"fmt"
)

var (
	// Ledger invariant errors
	ErrUnbalancedEntry          = errors.New("entry operations do not balance")
	ErrEmptyOperations          = errors.New("entry requires at least one operation")
	ErrMissingOperations        = errors.New("entry has no active operations")
	ErrDeletedEntity            = errors.New("entity is deleted")
	ErrOperationOwnership       = errors.New("operation does not belong to entry")
	ErrUnexpectedOperationCount = errors.New("entry must have exactly two non-system operations")
	ErrSystemAccount            = errors.New("system accounts cannot be modified by users")
	ErrSystemOperation          = errors.New("system operations cannot be modified")
	ErrInconsistentLedger       = errors.New("ledger is inconsistent")

	// Input errors
	ErrValidation = errors.New("validation failed")

	// Persistence errors
	ErrRecordAlreadyExists  = errors.New("record already exists")
	ErrForeignKeyConstraint = errors.New("foreign key constraint violated")
	ErrNotFound             = errors.New("not found")
	ErrCreationFailed       = errors.New("failed to create record")

	ErrAccountNotFound     = fmt.Errorf("account %w", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	ErrUserNotFound        = fmt.Errorf("user %w", ErrNotFound)
)

// DomainError carries the entity and detail of an invariant violation.
// errors.Is matches it against Kind.
type DomainError struct {
	Kind   error
	Entity string
	Detail string
}

func (e *DomainError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Entity, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Entity, e.Kind, e.Detail)
}

func (e *DomainError) Unwrap() error {
	return e.Kind
}

func newDomainError(kind error, entity, format string, args ...any) *DomainError {
	return &DomainError{
		Kind:   kind,
		Entity: entity,
		Detail: fmt.Sprintf(format, args...),
	}
}
