package domain

import (
	"fmt"
	"time"
)

// Transaction is the aggregate root owning a set of entries.
type Transaction struct {
	EntityIdentity
	EntityTimestamps
	SoftDelete
	UserOwnership

	description     string
	postingDate     DateValue
	transactionDate DateValue
	entries         []*Entry
}

// TransactionRow is the persisted shape of a transaction.
type TransactionRow struct {
	ID              ID
	UserID          ID
	Description     string
	PostingDate     time.Time
	TransactionDate time.Time
	IsTombstone     bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type CreateTransactionParams struct {
	UserID          ID
	Description     string
	PostingDate     DateValue
	TransactionDate DateValue
}

func CreateTransaction(p CreateTransactionParams) (*Transaction, error) {
	if p.UserID.IsZero() {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if err := ValidateDescription(p.Description); err != nil {
		return nil, err
	}
	if p.PostingDate.IsZero() || p.TransactionDate.IsZero() {
		return nil, fmt.Errorf("%w: posting and transaction dates are required", ErrValidation)
	}
	return &Transaction{
		EntityIdentity:   newIdentity(),
		EntityTimestamps: newTimestamps(),
		SoftDelete:       newSoftDelete("transaction", false),
		UserOwnership:    UserOwnership{userID: p.UserID},
		description:      p.Description,
		postingDate:      p.PostingDate,
		transactionDate:  p.TransactionDate,
	}, nil
}

// RestoreTransaction rehydrates a transaction with its stored entries.
func RestoreTransaction(row TransactionRow, entries []*Entry) (*Transaction, error) {
	t := &Transaction{
		EntityIdentity:   EntityIdentity{id: row.ID},
		EntityTimestamps: restoreTimestamps(row.CreatedAt, row.UpdatedAt),
		SoftDelete:       newSoftDelete("transaction", row.IsTombstone),
		UserOwnership:    UserOwnership{userID: row.UserID},
		description:      row.Description,
		postingDate:      NewDateValue(row.PostingDate),
		transactionDate:  NewDateValue(row.TransactionDate),
	}
	for _, e := range entries {
		if err := t.checkOwnership(e); err != nil {
			return nil, err
		}
	}
	t.entries = append(t.entries, entries...)
	return t, nil
}

func (t *Transaction) Description() string        { return t.description }
func (t *Transaction) PostingDate() DateValue     { return t.postingDate }
func (t *Transaction) TransactionDate() DateValue { return t.transactionDate }

func (t *Transaction) checkOwnership(e *Entry) error {
	if !e.BelongsToParent(t.ID()) || !e.BelongsToUser(t.UserID()) {
		return newDomainError(ErrOperationOwnership, "transaction", "entry %s does not belong to transaction %s", e.ID(), t.ID())
	}
	return nil
}

func (t *Transaction) AddEntries(entries ...*Entry) error {
	if err := t.ValidateUpdateIsAllowed(); err != nil {
		return err
	}
	for _, e := range entries {
		if err := t.checkOwnership(e); err != nil {
			return err
		}
	}
	t.entries = append(t.entries, entries...)
	if len(entries) > 0 {
		t.Touch()
	}
	return nil
}

// RemoveEntries drops the given entries from the aggregate. Unknown ids are ignored.
func (t *Transaction) RemoveEntries(ids ...ID) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[ID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := t.entries[:0]
	for _, e := range t.entries {
		if !drop[e.ID()] {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(t.entries); i++ {
		t.entries[i] = nil
	}
	t.entries = kept
	t.Touch()
}

// GetEntryByID finds an active entry.
func (t *Transaction) GetEntryByID(id ID) (*Entry, bool) {
	for _, e := range t.entries {
		if e.ID().Equals(id) && !e.IsDeleted() {
			return e, true
		}
	}
	return nil, false
}

// Entries returns the active entries.
func (t *Transaction) Entries() []*Entry {
	out := make([]*Entry, 0, len(t.entries))
	for _, e := range t.entries {
		if !e.IsDeleted() {
			out = append(out, e)
		}
	}
	return out
}

// EntryIDs returns the ids of the active entries.
func (t *Transaction) EntryIDs() []ID {
	entries := t.Entries()
	ids := make([]ID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID()
	}
	return ids
}

// ValidateEntriesBalance validates every active entry.
func (t *Transaction) ValidateEntriesBalance() error {
	for _, e := range t.Entries() {
		if err := e.ValidateBalance(); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transaction) UpdateDescription(description string) error {
	if err := t.ValidateUpdateIsAllowed(); err != nil {
		return err
	}
	if err := ValidateDescription(description); err != nil {
		return err
	}
	t.description = description
	t.Touch()
	return nil
}

func (t *Transaction) UpdatePostingDate(d DateValue) error {
	if err := t.ValidateUpdateIsAllowed(); err != nil {
		return err
	}
	if d.IsZero() {
		return fmt.Errorf("%w: posting date is required", ErrValidation)
	}
	t.postingDate = d
	t.Touch()
	return nil
}

func (t *Transaction) UpdateTransactionDate(d DateValue) error {
	if err := t.ValidateUpdateIsAllowed(); err != nil {
		return err
	}
	if d.IsZero() {
		return fmt.Errorf("%w: transaction date is required", ErrValidation)
	}
	t.transactionDate = d
	t.Touch()
	return nil
}

// Delete tombstones the transaction together with its entries and operations.
func (t *Transaction) Delete() error {
	if err := t.ValidateUpdateIsAllowed(); err != nil {
		return err
	}
	for _, e := range t.Entries() {
		e.Void()
	}
	t.MarkAsDeleted()
	t.Touch()
	return nil
}

func (t *Transaction) ToPersistence() TransactionRow {
	return TransactionRow{
		ID:              t.ID(),
		UserID:          t.UserID(),
		Description:     t.description,
		PostingDate:     t.postingDate.Time(),
		TransactionDate: t.transactionDate.Time(),
		IsTombstone:     t.IsDeleted(),
		CreatedAt:       t.CreatedAt().Time(),
		UpdatedAt:       t.UpdatedAt().Time(),
	}
}
