package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/pocketledger/internal/domain"
	"github.com/iho/pocketledger/internal/usecase"
)

const entryColumns = `id, transaction_id, user_id, description, is_tombstone, created_at, updated_at`

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	db         querier
	operations *OperationRepository
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return newEntryRepository(pool)
}

func newEntryRepository(db querier) *EntryRepository {
	return &EntryRepository{db: db, operations: newOperationRepository(db)}
}

// Create inserts an entry row. Operations are stored separately.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	row := entry.ToPersistence()
	query := `
		INSERT INTO entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING
	`

	return insertResult(conn(r.db, tx).Exec(ctx, query,
		row.ID.String(),
		row.TransactionID.String(),
		row.UserID.String(),
		row.Description,
		row.IsTombstone,
		row.CreatedAt,
		row.UpdatedAt,
	))
}

// Update persists the entry description and tombstone.
func (r *EntryRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	row := entry.ToPersistence()
	tag, err := conn(r.db, tx).Exec(ctx,
		`UPDATE entries SET description = $2, is_tombstone = $3, updated_at = $4 WHERE id = $1`,
		row.ID.String(), row.Description, row.IsTombstone, row.UpdatedAt,
	)
	if err != nil {
		return mapError(err, domain.ErrNotFound)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("entry %w: %s", domain.ErrNotFound, row.ID)
	}
	return nil
}

// GetByTransactionID loads the active entries of a transaction with their
// active operations, oldest first.
func (r *EntryRepository) GetByTransactionID(ctx context.Context, tx usecase.Transaction, transactionID domain.ID) ([]*domain.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM entries
		WHERE transaction_id = $1 AND NOT is_tombstone
		ORDER BY created_at, id
	`

	rows, err := conn(r.db, tx).Query(ctx, query, transactionID.String())
	if err != nil {
		return nil, mapError(err, domain.ErrNotFound)
	}

	var entryRows []domain.EntryRow
	for rows.Next() {
		row, err := scanEntryRow(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		entryRows = append(entryRows, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(entryRows) == 0 {
		return nil, nil
	}

	ids := make([]domain.ID, len(entryRows))
	for i, row := range entryRows {
		ids[i] = row.ID
	}
	byEntry, err := r.operations.getByEntryIDs(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]*domain.Entry, 0, len(entryRows))
	for _, row := range entryRows {
		entry, err := domain.RestoreEntry(row, byEntry[row.ID])
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// VoidByTransactionID tombstones every entry of a transaction.
func (r *EntryRepository) VoidByTransactionID(ctx context.Context, tx usecase.Transaction, transactionID domain.ID) error {
	_, err := conn(r.db, tx).Exec(ctx,
		`UPDATE entries SET is_tombstone = TRUE, updated_at = NOW() WHERE transaction_id = $1 AND NOT is_tombstone`,
		transactionID.String(),
	)
	return mapError(err, domain.ErrNotFound)
}

// VoidByIDs tombstones the given entries in one statement.
func (r *EntryRepository) VoidByIDs(ctx context.Context, tx usecase.Transaction, ids []domain.ID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := conn(r.db, tx).Exec(ctx,
		`UPDATE entries SET is_tombstone = TRUE, updated_at = NOW() WHERE id = ANY($1::uuid[])`,
		domain.IDStrings(ids),
	)
	return mapError(err, domain.ErrNotFound)
}

func scanEntryRow(s rowScanner) (domain.EntryRow, error) {
	var (
		row                       domain.EntryRow
		id, transactionID, userID string
	)
	if err := s.Scan(&id, &transactionID, &userID, &row.Description, &row.IsTombstone, &row.CreatedAt, &row.UpdatedAt); err != nil {
		return row, err
	}

	ids, err := parseIDs(id, transactionID, userID)
	if err != nil {
		return row, fmt.Errorf("scan entry: %w", err)
	}
	row.ID, row.TransactionID, row.UserID = ids[0], ids[1], ids[2]
	return row, nil
}
