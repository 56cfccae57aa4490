package usecase

import (
	"fmt"

	"github.com/iho/pocketledger/internal/domain"
)

// OperationInput describes one requested operation. A zero ID means new.
type OperationInput struct {
	ID          domain.ID
	AccountID   domain.ID
	Amount      domain.Amount
	Description string
}

// CreateEntryInput describes a new entry.
type CreateEntryInput struct {
	Description string
	Operations  []OperationInput
}

// UpdateEntryInput describes the desired state of an existing entry.
type UpdateEntryInput struct {
	ID          domain.ID
	Description string
	Operations  []OperationInput
}

// EntriesChangeSet groups entry changes applied to one transaction.
type EntriesChangeSet struct {
	Create []CreateEntryInput
	Update []UpdateEntryInput
	Delete []domain.ID
}

func (c EntriesChangeSet) IsEmpty() bool {
	return len(c.Create) == 0 && len(c.Update) == 0 && len(c.Delete) == 0
}

// Validate rejects change sets that update the same entry more than once.
func (c EntriesChangeSet) Validate() error {
	seen := make(map[domain.ID]struct{}, len(c.Update))
	for _, in := range c.Update {
		if _, dup := seen[in.ID]; dup {
			return fmt.Errorf("%w: entry %s is updated more than once", domain.ErrValidation, in.ID)
		}
		seen[in.ID] = struct{}{}
	}
	return nil
}

func operationAccountIDs(ops []OperationInput) []domain.ID {
	ids := make([]domain.ID, len(ops))
	for i, op := range ops {
		ids[i] = op.AccountID
	}
	return ids
}
