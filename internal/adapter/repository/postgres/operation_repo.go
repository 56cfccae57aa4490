package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/pocketledger/internal/domain"
	"github.com/iho/pocketledger/internal/usecase"
)

const operationColumns = `id, entry_id, account_id, user_id, amount, description, currency,
	is_system, is_tombstone, created_at, updated_at`

// OperationRepository implements usecase.OperationRepository.
type OperationRepository struct {
	db querier
}

// NewOperationRepository creates a new OperationRepository.
func NewOperationRepository(pool *pgxpool.Pool) *OperationRepository {
	return newOperationRepository(pool)
}

func newOperationRepository(db querier) *OperationRepository {
	return &OperationRepository{db: db}
}

// Create inserts an operation.
func (r *OperationRepository) Create(ctx context.Context, tx usecase.Transaction, operation *domain.Operation) error {
	row := operation.ToPersistence()
	query := `
		INSERT INTO operations (` + operationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT DO NOTHING
	`

	return insertResult(conn(r.db, tx).Exec(ctx, query,
		row.ID.String(),
		row.EntryID.String(),
		row.AccountID.String(),
		row.UserID.String(),
		row.Amount.String(),
		row.Description,
		row.Currency,
		row.IsSystem,
		row.IsTombstone,
		row.CreatedAt,
		row.UpdatedAt,
	))
}

// GetByEntryID loads the active operations of an entry.
func (r *OperationRepository) GetByEntryID(ctx context.Context, tx usecase.Transaction, entryID domain.ID) ([]*domain.Operation, error) {
	byEntry, err := r.getByEntryIDs(ctx, tx, []domain.ID{entryID})
	if err != nil {
		return nil, err
	}
	return byEntry[entryID], nil
}

// VoidByEntryIDs tombstones every operation of the given entries at once.
func (r *OperationRepository) VoidByEntryIDs(ctx context.Context, tx usecase.Transaction, entryIDs []domain.ID) error {
	if len(entryIDs) == 0 {
		return nil
	}
	_, err := conn(r.db, tx).Exec(ctx,
		`UPDATE operations SET is_tombstone = TRUE, updated_at = NOW() WHERE entry_id = ANY($1::uuid[]) AND NOT is_tombstone`,
		domain.IDStrings(entryIDs),
	)
	return mapError(err, domain.ErrNotFound)
}

func (r *OperationRepository) getByEntryIDs(ctx context.Context, tx usecase.Transaction, entryIDs []domain.ID) (map[domain.ID][]*domain.Operation, error) {
	query := `
		SELECT ` + operationColumns + `
		FROM operations
		WHERE entry_id = ANY($1::uuid[]) AND NOT is_tombstone
		ORDER BY created_at, id
	`

	rows, err := conn(r.db, tx).Query(ctx, query, domain.IDStrings(entryIDs))
	if err != nil {
		return nil, mapError(err, domain.ErrNotFound)
	}
	defer rows.Close()

	byEntry := make(map[domain.ID][]*domain.Operation, len(entryIDs))
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		byEntry[op.EntryID()] = append(byEntry[op.EntryID()], op)
	}

	return byEntry, rows.Err()
}

func scanOperation(s rowScanner) (*domain.Operation, error) {
	var (
		row                                    domain.OperationRow
		id, entryID, accountID, userID, amount string
	)
	err := s.Scan(
		&id,
		&entryID,
		&accountID,
		&userID,
		&amount,
		&row.Description,
		&row.Currency,
		&row.IsSystem,
		&row.IsTombstone,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	ids, err := parseIDs(id, entryID, accountID, userID)
	if err != nil {
		return nil, fmt.Errorf("scan operation: %w", err)
	}
	row.ID, row.EntryID, row.AccountID, row.UserID = ids[0], ids[1], ids[2], ids[3]
	if row.Amount, err = domain.ParseAmount(amount); err != nil {
		return nil, fmt.Errorf("scan operation: %w", err)
	}

	return domain.RestoreOperation(row)
}
