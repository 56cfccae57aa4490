package usecase

import "github.com/iho/pocketledger/internal/domain"

// OperationComparison is the result of CompareOperation.
type OperationComparison int

const (
	OperationIdentical OperationComparison = iota
	OperationDifferent
)

func (c OperationComparison) String() string {
	if c == OperationDifferent {
		return "different"
	}
	return "identical"
}

// EntryComparison is the result of CompareEntry.
type EntryComparison int

const (
	EntryUnchanged EntryComparison = iota
	EntryUpdatedMetadata
	EntryUpdatedFinancial
	EntryUpdatedBoth
)

func (c EntryComparison) String() string {
	switch c {
	case EntryUpdatedMetadata:
		return "metadata"
	case EntryUpdatedFinancial:
		return "financial"
	case EntryUpdatedBoth:
		return "both"
	default:
		return "unchanged"
	}
}

func (c EntryComparison) HasMetadata() bool {
	return c == EntryUpdatedMetadata || c == EntryUpdatedBoth
}

func (c EntryComparison) HasFinancial() bool {
	return c == EntryUpdatedFinancial || c == EntryUpdatedBoth
}

// CompareOperation compares amount, description and account.
func CompareOperation(existing *domain.Operation, incoming OperationInput) OperationComparison {
	if !existing.Amount().Equals(incoming.Amount) ||
		existing.Description() != incoming.Description ||
		!existing.AccountID().Equals(incoming.AccountID) {
		return OperationDifferent
	}
	return OperationIdentical
}

// CompareEntry classifies the change between the stored entry and incoming.
// Operations are matched by id against the active user operations; an
// unknown id, a different operation or a count mismatch is financial.
func CompareEntry(existing *domain.Entry, incoming UpdateEntryInput) EntryComparison {
	metadata := existing.Description() != incoming.Description
	financial := operationsChanged(existing.NonSystemOperations(), incoming.Operations)

	switch {
	case metadata && financial:
		return EntryUpdatedBoth
	case financial:
		return EntryUpdatedFinancial
	case metadata:
		return EntryUpdatedMetadata
	default:
		return EntryUnchanged
	}
}

func operationsChanged(existing []*domain.Operation, incoming []OperationInput) bool {
	if len(existing) != len(incoming) {
		return true
	}

	byID := make(map[domain.ID]*domain.Operation, len(existing))
	for _, op := range existing {
		byID[op.ID()] = op
	}

	for _, in := range incoming {
		op, ok := byID[in.ID]
		if !ok || CompareOperation(op, in) == OperationDifferent {
			return true
		}
		delete(byID, in.ID)
	}
	return false
}
