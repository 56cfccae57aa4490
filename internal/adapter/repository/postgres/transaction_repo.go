package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/pocketledger/internal/domain"
	"github.com/iho/pocketledger/internal/usecase"
)

const transactionColumns = `id, user_id, description, posting_date, transaction_date, is_tombstone, created_at, updated_at`

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	db      querier
	entries *EntryRepository
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return newTransactionRepository(pool)
}

func newTransactionRepository(db querier) *TransactionRepository {
	return &TransactionRepository{db: db, entries: newEntryRepository(db)}
}

// Create inserts the transaction header. Entries are stored separately.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error {
	row := transaction.ToPersistence()
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT DO NOTHING
	`

	return insertResult(conn(r.db, tx).Exec(ctx, query,
		row.ID.String(),
		row.UserID.String(),
		row.Description,
		row.PostingDate,
		row.TransactionDate,
		row.IsTombstone,
		row.CreatedAt,
		row.UpdatedAt,
	))
}

// GetByID loads a transaction with its active entries and operations.
// Deleted transactions are returned with no entries.
func (r *TransactionRepository) GetByID(ctx context.Context, tx usecase.Transaction, id domain.ID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	row, err := scanTransactionRow(conn(r.db, tx).QueryRow(ctx, query, id.String()))
	if err != nil {
		return nil, mapError(err, domain.ErrTransactionNotFound)
	}
	return r.hydrate(ctx, tx, row)
}

// Update persists the transaction header.
func (r *TransactionRepository) Update(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error {
	row := transaction.ToPersistence()
	query := `
		UPDATE transactions
		SET description = $2, posting_date = $3, transaction_date = $4, is_tombstone = $5, updated_at = $6
		WHERE id = $1
	`

	tag, err := conn(r.db, tx).Exec(ctx, query,
		row.ID.String(),
		row.Description,
		row.PostingDate,
		row.TransactionDate,
		row.IsTombstone,
		row.UpdatedAt,
	)
	if err != nil {
		return mapError(err, domain.ErrTransactionNotFound)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// Delete tombstones a transaction.
func (r *TransactionRepository) Delete(ctx context.Context, tx usecase.Transaction, id domain.ID) error {
	tag, err := conn(r.db, tx).Exec(ctx,
		`UPDATE transactions SET is_tombstone = TRUE, updated_at = NOW() WHERE id = $1`,
		id.String(),
	)
	if err != nil {
		return mapError(err, domain.ErrTransactionNotFound)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// List returns a page of a user's active transactions, newest first.
func (r *TransactionRepository) List(ctx context.Context, tx usecase.Transaction, userID domain.ID, limit, offset int) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND NOT is_tombstone
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`

	rows, err := conn(r.db, tx).Query(ctx, query, userID.String(), limit, offset)
	if err != nil {
		return nil, mapError(err, domain.ErrTransactionNotFound)
	}

	var headers []domain.TransactionRow
	for rows.Next() {
		row, err := scanTransactionRow(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		headers = append(headers, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	transactions := make([]*domain.Transaction, 0, len(headers))
	for _, row := range headers {
		t, err := r.hydrate(ctx, tx, row)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, nil
}

func (r *TransactionRepository) hydrate(ctx context.Context, tx usecase.Transaction, row domain.TransactionRow) (*domain.Transaction, error) {
	var entries []*domain.Entry
	if !row.IsTombstone {
		var err error
		entries, err = r.entries.GetByTransactionID(ctx, tx, row.ID)
		if err != nil {
			return nil, fmt.Errorf("load entries: %w", err)
		}
	}
	return domain.RestoreTransaction(row, entries)
}

func scanTransactionRow(s rowScanner) (domain.TransactionRow, error) {
	var (
		row        domain.TransactionRow
		id, userID string
	)
	err := s.Scan(
		&id,
		&userID,
		&row.Description,
		&row.PostingDate,
		&row.TransactionDate,
		&row.IsTombstone,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if err != nil {
		return row, err
	}

	ids, err := parseIDs(id, userID)
	if err != nil {
		return row, fmt.Errorf("scan transaction: %w", err)
	}
	row.ID, row.UserID = ids[0], ids[1]
	return row, nil
}
