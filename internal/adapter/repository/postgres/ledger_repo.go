package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/pocketledger/internal/domain"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	db querier
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return newLedgerRepository(pool)
}

func newLedgerRepository(db querier) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// TrialBalance sums a user's active operations per currency. Every sum is
// zero on a consistent ledger.
func (r *LedgerRepository) TrialBalance(ctx context.Context, userID domain.ID) (map[domain.Currency]domain.Amount, error) {
	query := `
		SELECT o.currency, COALESCE(SUM(o.amount), 0)
		FROM operations o
		JOIN entries e ON e.id = o.entry_id AND NOT e.is_tombstone
		WHERE o.user_id = $1 AND NOT o.is_tombstone
		GROUP BY o.currency
	`

	rows, err := r.db.Query(ctx, query, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := make(map[domain.Currency]domain.Amount)
	for rows.Next() {
		var code, sum string
		if err := rows.Scan(&code, &sum); err != nil {
			return nil, err
		}
		currency, err := domain.ParseCurrency(code)
		if err != nil {
			return nil, fmt.Errorf("trial balance: %w", err)
		}
		amount, err := domain.ParseAmount(sum)
		if err != nil {
			return nil, fmt.Errorf("trial balance: %w", err)
		}
		sums[currency] = amount
	}

	return sums, rows.Err()
}

// AccountBalances sums a user's active operations per account.
func (r *LedgerRepository) AccountBalances(ctx context.Context, userID domain.ID) (map[domain.ID]domain.Amount, error) {
	query := `
		SELECT o.account_id, COALESCE(SUM(o.amount), 0)
		FROM operations o
		JOIN entries e ON e.id = o.entry_id AND NOT e.is_tombstone
		WHERE o.user_id = $1 AND NOT o.is_tombstone
		GROUP BY o.account_id
	`

	rows, err := r.db.Query(ctx, query, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := make(map[domain.ID]domain.Amount)
	for rows.Next() {
		var accountID, sum string
		if err := rows.Scan(&accountID, &sum); err != nil {
			return nil, err
		}
		id, err := domain.ParseID(accountID)
		if err != nil {
			return nil, fmt.Errorf("account balances: %w", err)
		}
		amount, err := domain.ParseAmount(sum)
		if err != nil {
			return nil, fmt.Errorf("account balances: %w", err)
		}
		sums[id] = amount
	}

	return sums, rows.Err()
}
