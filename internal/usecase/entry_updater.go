package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iho/pocketledger/internal/domain"
)

// UpdateEntriesParams is the input of EntryUpdater.Execute.
type UpdateEntriesParams struct {
	Transaction *domain.Transaction
	Changes     EntriesChangeSet
	Context     *EntriesContext
}

// EntryChange records how one existing entry was reconciled.
type EntryChange struct {
	Entry  *domain.Entry
	Change EntryComparison
}

// EntriesUpdateResult summarizes the changes applied to a transaction.
type EntriesUpdateResult struct {
	Created []*domain.Entry
	Updated []EntryChange
	Deleted []domain.ID
	Skipped []domain.ID
}

// EntryUpdater applies an EntriesChangeSet to a loaded transaction using the
// smallest set of writes: metadata rewrites in place, financial changes void
// and recreate the operations of the entry.
type EntryUpdater struct {
	entryRepo     EntryRepository
	operationRepo OperationRepository
	creator       *EntryCreator
	metrics       MetricsRecorder
}

func NewEntryUpdater(entryRepo EntryRepository, operationRepo OperationRepository, creator *EntryCreator, metrics MetricsRecorder) *EntryUpdater {
	return &EntryUpdater{
		entryRepo:     entryRepo,
		operationRepo: operationRepo,
		creator:       creator,
		metrics:       metricsOrNop(metrics),
	}
}

// Execute runs deletes, then creates, then updates, and finally checks that
// every entry of the transaction balances. Update inputs naming an entry
// that is not part of the transaction are skipped and reported in Skipped.
// An entry may appear at most once in Update.
func (u *EntryUpdater) Execute(ctx context.Context, tx Transaction, params UpdateEntriesParams) (*EntriesUpdateResult, error) {
	if err := params.Changes.Validate(); err != nil {
		return nil, err
	}
	transaction := params.Transaction
	if err := transaction.ValidateUpdateIsAllowed(); err != nil {
		return nil, err
	}

	result := &EntriesUpdateResult{}

	deleted, err := u.deleteEntries(ctx, tx, transaction, params.Changes.Delete)
	if err != nil {
		return nil, err
	}
	result.Deleted = deleted

	for _, in := range params.Changes.Create {
		entry, err := u.creator.CreateEntryWithOperations(ctx, tx, transaction, in, params.Context)
		if err != nil {
			return nil, err
		}
		if err := transaction.AddEntries(entry); err != nil {
			return nil, err
		}
		result.Created = append(result.Created, entry)
	}

	if err := u.updateEntries(ctx, tx, transaction, params, result); err != nil {
		return nil, err
	}

	if err := transaction.ValidateEntriesBalance(); err != nil {
		return nil, err
	}
	return result, nil
}

func (u *EntryUpdater) deleteEntries(ctx context.Context, tx Transaction, transaction *domain.Transaction, ids []domain.ID) ([]domain.ID, error) {
	var present []*domain.Entry
	for _, id := range ids {
		if entry, ok := transaction.GetEntryByID(id); ok {
			present = append(present, entry)
		}
	}
	if len(present) == 0 {
		return nil, nil
	}

	presentIDs := make([]domain.ID, len(present))
	for i, e := range present {
		presentIDs[i] = e.ID()
	}

	if err := u.entryRepo.VoidByIDs(ctx, tx, presentIDs); err != nil {
		return nil, fmt.Errorf("void entries: %w", err)
	}
	if err := u.operationRepo.VoidByEntryIDs(ctx, tx, presentIDs); err != nil {
		return nil, fmt.Errorf("void operations: %w", err)
	}

	for _, e := range present {
		e.Void()
	}
	transaction.RemoveEntries(presentIDs...)
	u.metrics.RecordEntryChange("deleted")
	return presentIDs, nil
}

func (u *EntryUpdater) updateEntries(
	ctx context.Context,
	tx Transaction,
	transaction *domain.Transaction,
	params UpdateEntriesParams,
	result *EntriesUpdateResult,
) error {
	log := zerolog.Ctx(ctx)

	type financialUpdate struct {
		entry *domain.Entry
		input UpdateEntryInput
	}
	var financial []financialUpdate

	for _, in := range params.Changes.Update {
		entry, ok := transaction.GetEntryByID(in.ID)
		if !ok {
			log.Warn().
				Str("transaction_id", transaction.ID().String()).
				Str("entry_id", in.ID.String()).
				Msg("update references unknown entry, skipping")
			result.Skipped = append(result.Skipped, in.ID)
			continue
		}

		change := CompareEntry(entry, in)
		u.metrics.RecordEntryChange(change.String())
		log.Debug().
			Str("entry_id", entry.ID().String()).
			Stringer("change", change).
			Msg("reconciling entry")

		if change == EntryUnchanged {
			continue
		}

		if change.HasMetadata() {
			if err := entry.UpdateDescription(in.Description); err != nil {
				return err
			}
			if err := u.entryRepo.Update(ctx, tx, entry); err != nil {
				return fmt.Errorf("update entry %s: %w", entry.ID(), err)
			}
		}
		if change.HasFinancial() {
			financial = append(financial, financialUpdate{entry: entry, input: in})
		}
		result.Updated = append(result.Updated, EntryChange{Entry: entry, Change: change})
	}

	if len(financial) == 0 {
		return nil
	}

	ids := make([]domain.ID, len(financial))
	for i, f := range financial {
		ids[i] = f.entry.ID()
	}
	if err := u.operationRepo.VoidByEntryIDs(ctx, tx, ids); err != nil {
		return fmt.Errorf("void operations: %w", err)
	}

	for _, f := range financial {
		f.entry.VoidOperations()
		if _, err := u.creator.AttachOperations(ctx, tx, f.entry, f.input.Operations, params.Context); err != nil {
			return err
		}
	}
	return nil
}
