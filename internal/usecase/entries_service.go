package usecase

import (
	"context"

	"github.com/iho/pocketledger/internal/domain"
)

// EntriesService loads the account context for a batch of entry changes
// and routes them to the creator or the updater.
type EntriesService struct {
	loader  *EntriesContextLoader
	creator *EntryCreator
	updater *EntryUpdater
}

func NewEntriesService(loader *EntriesContextLoader, creator *EntryCreator, updater *EntryUpdater) *EntriesService {
	return &EntriesService{loader: loader, creator: creator, updater: updater}
}

// CreateEntries adds new entries to transaction and validates its balance.
func (s *EntriesService) CreateEntries(ctx context.Context, tx Transaction, transaction *domain.Transaction, inputs []CreateEntryInput) ([]*domain.Entry, error) {
	ectx, err := s.loader.Load(ctx, tx, transaction.UserID(), inputs, nil)
	if err != nil {
		return nil, err
	}

	entries := make([]*domain.Entry, 0, len(inputs))
	for _, in := range inputs {
		entry, err := s.creator.CreateEntryWithOperations(ctx, tx, transaction, in, ectx)
		if err != nil {
			return nil, err
		}
		if err := transaction.AddEntries(entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := transaction.ValidateEntriesBalance(); err != nil {
		return nil, err
	}
	return entries, nil
}

// UpdateEntries applies changes to transaction.
func (s *EntriesService) UpdateEntries(ctx context.Context, tx Transaction, transaction *domain.Transaction, changes EntriesChangeSet) (*EntriesUpdateResult, error) {
	ectx, err := s.loader.Load(ctx, tx, transaction.UserID(), changes.Create, changes.Update)
	if err != nil {
		return nil, err
	}
	return s.updater.Execute(ctx, tx, UpdateEntriesParams{
		Transaction: transaction,
		Changes:     changes,
		Context:     ectx,
	})
}
