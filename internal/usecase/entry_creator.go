package usecase

import (
	"context"
	"fmt"

	"github.com/iho/pocketledger/internal/domain"
)

// EntryCreator builds and persists entries and their operations.
type EntryCreator struct {
	entryRepo     EntryRepository
	operationRepo OperationRepository
	idRetry       IDRetryPolicy
}

func NewEntryCreator(entryRepo EntryRepository, operationRepo OperationRepository, idRetry IDRetryPolicy) *EntryCreator {
	return &EntryCreator{
		entryRepo:     entryRepo,
		operationRepo: operationRepo,
		idRetry:       idRetry,
	}
}

func (c *EntryCreator) policy(entity string) IDRetryPolicy {
	p := c.idRetry
	p.Entity = entity
	return p
}

// CreateEntryWithOperations persists a new entry of transaction and attaches
// its operations.
func (c *EntryCreator) CreateEntryWithOperations(
	ctx context.Context,
	tx Transaction,
	transaction *domain.Transaction,
	input CreateEntryInput,
	ectx *EntriesContext,
) (*domain.Entry, error) {
	if len(input.Operations) == 0 {
		return nil, &domain.DomainError{Kind: domain.ErrEmptyOperations, Entity: "entry"}
	}

	entry, err := domain.CreateEntry(transaction.UserID(), transaction.ID(), input.Description)
	if err != nil {
		return nil, err
	}

	err = SaveWithIDRetry(ctx, c.policy("entry"), entry, func(ctx context.Context, e *domain.Entry) error {
		return c.entryRepo.Create(ctx, tx, e)
	})
	if err != nil {
		return nil, err
	}

	if _, err := c.AttachOperations(ctx, tx, entry, input.Operations, ectx); err != nil {
		return nil, err
	}
	return entry, nil
}

// AttachOperations creates operations for entry from inputs. When the
// accounts span more than one currency a trading leg per currency is added
// carrying the negated subtotal of that currency.
func (c *EntryCreator) AttachOperations(
	ctx context.Context,
	tx Transaction,
	entry *domain.Entry,
	inputs []OperationInput,
	ectx *EntriesContext,
) ([]*domain.Operation, error) {
	if len(inputs) == 0 {
		return nil, &domain.DomainError{Kind: domain.ErrEmptyOperations, Entity: "entry", Detail: "entry " + entry.ID().String()}
	}

	ops := make([]*domain.Operation, 0, len(inputs)+2)
	for _, in := range inputs {
		acc, err := ectx.Account(in.AccountID)
		if err != nil {
			return nil, err
		}
		op, err := domain.CreateOperation(domain.CreateOperationParams{
			UserID:      entry.UserID(),
			EntryID:     entry.ID(),
			Account:     acc,
			Amount:      in.Amount,
			Description: in.Description,
		})
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}

	systemOps, err := c.tradingLegs(entry, ops, ectx)
	if err != nil {
		return nil, err
	}
	ops = append(ops, systemOps...)

	for _, op := range ops {
		err := SaveWithIDRetry(ctx, c.policy("operation"), op, func(ctx context.Context, o *domain.Operation) error {
			return c.operationRepo.Create(ctx, tx, o)
		})
		if err != nil {
			return nil, err
		}
	}

	if err := entry.AddOperations(ops...); err != nil {
		return nil, err
	}
	return ops, nil
}

func (c *EntryCreator) tradingLegs(entry *domain.Entry, ops []*domain.Operation, ectx *EntriesContext) ([]*domain.Operation, error) {
	sums := domain.SumByCurrency(ops)
	if len(sums) < 2 {
		return nil, nil
	}

	currencies := make([]domain.Currency, 0, len(sums))
	for _, op := range ops {
		if _, ok := sums[op.Currency()]; ok && !containsCurrency(currencies, op.Currency()) {
			currencies = append(currencies, op.Currency())
		}
	}

	legs := make([]*domain.Operation, 0, len(currencies))
	for _, currency := range currencies {
		sysAcc, err := ectx.SystemAccount(currency)
		if err != nil {
			return nil, err
		}
		leg, err := domain.CreateSystemOperation(entry.UserID(), entry.ID(), sysAcc, sums[currency].Neg())
		if err != nil {
			return nil, fmt.Errorf("trading leg %s: %w", currency, err)
		}
		legs = append(legs, leg)
	}
	return legs, nil
}

func containsCurrency(list []domain.Currency, c domain.Currency) bool {
	for _, x := range list {
		if x.Equals(c) {
			return true
		}
	}
	return false
}
