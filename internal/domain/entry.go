package domain

import (
	"fmt"
	"sort"
	"time"
)

// Entry is a balanced group of operations inside a transaction.
type Entry struct {
	EntityIdentity
	EntityTimestamps
	SoftDelete
	ParentChildRelation
	UserOwnership

	description string
	operations  []*Operation
}

// EntryRow is the persisted shape of an entry.
type EntryRow struct {
	ID            ID
	TransactionID ID
	UserID        ID
	Description   string
	IsTombstone   bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func CreateEntry(userID, transactionID ID, description string) (*Entry, error) {
	if err := ValidateDescription(description); err != nil {
		return nil, err
	}
	if userID.IsZero() || transactionID.IsZero() {
		return nil, fmt.Errorf("%w: entry requires user and transaction", ErrValidation)
	}
	return &Entry{
		EntityIdentity:      newIdentity(),
		EntityTimestamps:    newTimestamps(),
		SoftDelete:          newSoftDelete("entry", false),
		ParentChildRelation: ParentChildRelation{parentID: transactionID},
		UserOwnership:       UserOwnership{userID: userID},
		description:         description,
	}, nil
}

// RestoreEntry rehydrates an entry together with its stored operations.
func RestoreEntry(row EntryRow, operations []*Operation) (*Entry, error) {
	e := &Entry{
		EntityIdentity:      EntityIdentity{id: row.ID},
		EntityTimestamps:    restoreTimestamps(row.CreatedAt, row.UpdatedAt),
		SoftDelete:          newSoftDelete("entry", row.IsTombstone),
		ParentChildRelation: ParentChildRelation{parentID: row.TransactionID},
		UserOwnership:       UserOwnership{userID: row.UserID},
		description:         row.Description,
	}
	for _, op := range operations {
		if err := e.checkOwnership(op); err != nil {
			return nil, err
		}
	}
	e.operations = append(e.operations, operations...)
	return e, nil
}

func (e *Entry) TransactionID() ID   { return e.ParentID() }
func (e *Entry) Description() string { return e.description }

func (e *Entry) checkOwnership(op *Operation) error {
	if !op.BelongsToParent(e.ID()) {
		return newDomainError(ErrOperationOwnership, "entry", "operation %s belongs to entry %s", op.ID(), op.EntryID())
	}
	if !op.BelongsToUser(e.UserID()) {
		return newDomainError(ErrOperationOwnership, "entry", "operation %s belongs to another user", op.ID())
	}
	return nil
}

// AddOperations attaches operations that were created for this entry.
func (e *Entry) AddOperations(ops ...*Operation) error {
	if err := e.ValidateUpdateIsAllowed(); err != nil {
		return err
	}
	if len(ops) == 0 {
		return newDomainError(ErrEmptyOperations, "entry", "entry %s", e.ID())
	}
	for _, op := range ops {
		if err := e.checkOwnership(op); err != nil {
			return err
		}
	}
	e.operations = append(e.operations, ops...)
	e.Touch()
	return nil
}

// Operations returns the active operations in insertion order.
func (e *Entry) Operations() []*Operation {
	out := make([]*Operation, 0, len(e.operations))
	for _, op := range e.operations {
		if !op.IsDeleted() {
			out = append(out, op)
		}
	}
	return out
}

// NonSystemOperations returns the active user operations.
func (e *Entry) NonSystemOperations() []*Operation {
	out := make([]*Operation, 0, len(e.operations))
	for _, op := range e.operations {
		if !op.IsDeleted() && !op.IsSystem() {
			out = append(out, op)
		}
	}
	return out
}

// VoidOperations tombstones every active operation and returns them.
func (e *Entry) VoidOperations() []*Operation {
	voided := e.Operations()
	for _, op := range voided {
		op.MarkAsDeleted()
	}
	if len(voided) > 0 {
		e.Touch()
	}
	return voided
}

// Void tombstones the entry and its operations.
func (e *Entry) Void() {
	e.VoidOperations()
	e.MarkAsDeleted()
}

func (e *Entry) UpdateDescription(description string) error {
	if err := e.ValidateUpdateIsAllowed(); err != nil {
		return err
	}
	if err := ValidateDescription(description); err != nil {
		return err
	}
	e.description = description
	e.Touch()
	return nil
}

// Currencies lists the distinct currencies of the user operations, sorted.
func (e *Entry) Currencies() []Currency {
	return distinctCurrencies(e.NonSystemOperations())
}

func (e *Entry) IsMultiCurrency() bool {
	return len(e.Currencies()) > 1
}

// ValidateBalance checks that the active operations net to zero.
// A single-currency entry sums its user operations; a multi-currency entry
// must net to zero per currency once the trading legs are included.
func (e *Entry) ValidateBalance() error {
	active := e.Operations()
	if len(active) == 0 {
		return newDomainError(ErrMissingOperations, "entry", "entry %s", e.ID())
	}

	if !e.IsMultiCurrency() {
		sum := ZeroAmount
		for _, op := range e.NonSystemOperations() {
			sum = sum.Add(op.Amount())
		}
		if !sum.IsZero() {
			return newDomainError(ErrUnbalancedEntry, "entry", "entry %s sums to %s", e.ID(), sum)
		}
		return nil
	}

	sums := SumByCurrency(active)
	for _, c := range distinctCurrencies(active) {
		if s := sums[c]; !s.IsZero() {
			return newDomainError(ErrUnbalancedEntry, "entry", "entry %s sums to %s %s", e.ID(), s, c)
		}
	}
	return nil
}

// BalancedPair returns the two user operations ordered as (from, to):
// the outgoing (negative) leg first.
func (e *Entry) BalancedPair() (from, to *Operation, err error) {
	ops := e.NonSystemOperations()
	if len(ops) != 2 {
		return nil, nil, newDomainError(ErrUnexpectedOperationCount, "entry", "entry %s has %d", e.ID(), len(ops))
	}
	if ops[1].Amount().IsNegative() && !ops[0].Amount().IsNegative() {
		return ops[1], ops[0], nil
	}
	return ops[0], ops[1], nil
}

func (e *Entry) ToPersistence() EntryRow {
	return EntryRow{
		ID:            e.ID(),
		TransactionID: e.TransactionID(),
		UserID:        e.UserID(),
		Description:   e.description,
		IsTombstone:   e.IsDeleted(),
		CreatedAt:     e.CreatedAt().Time(),
		UpdatedAt:     e.UpdatedAt().Time(),
	}
}

// SumByCurrency totals operation amounts per currency.
func SumByCurrency(ops []*Operation) map[Currency]Amount {
	sums := make(map[Currency]Amount)
	for _, op := range ops {
		sums[op.Currency()] = sums[op.Currency()].Add(op.Amount())
	}
	return sums
}

func distinctCurrencies(ops []*Operation) []Currency {
	seen := make(map[Currency]bool)
	var out []Currency
	for _, op := range ops {
		if !seen[op.Currency()] {
			seen[op.Currency()] = true
			out = append(out, op.Currency())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code() < out[j].Code() })
	return out
}
