package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/pocketledger/internal/domain"
	"github.com/iho/pocketledger/internal/usecase"
)

const accountColumns = `id, user_id, name, description, initial_balance, current_cleared_balance_local,
	currency, type, is_tombstone, created_at, updated_at`

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	db querier
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return newAccountRepository(pool)
}

func newAccountRepository(db querier) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts an account. An id collision yields ErrRecordAlreadyExists.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	row := account.ToPersistence()
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT DO NOTHING
	`

	return insertResult(conn(r.db, tx).Exec(ctx, query,
		row.ID.String(),
		row.UserID.String(),
		row.Name,
		row.Description,
		row.InitialBalance.String(),
		row.CurrentClearedBalanceLocal.String(),
		row.Currency,
		row.Type,
		row.IsTombstone,
		row.CreatedAt,
		row.UpdatedAt,
	))
}

// GetByID retrieves an account by ID, archived accounts included.
func (r *AccountRepository) GetByID(ctx context.Context, tx usecase.Transaction, id domain.ID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(conn(r.db, tx).QueryRow(ctx, query, id.String()))
	if err != nil {
		return nil, mapError(err, domain.ErrAccountNotFound)
	}
	return account, nil
}

// GetByIDs retrieves the accounts that exist among ids.
func (r *AccountRepository) GetByIDs(ctx context.Context, tx usecase.Transaction, ids []domain.ID) ([]*domain.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ANY($1::uuid[]) ORDER BY id`

	return r.queryAccounts(ctx, tx, query, domain.IDStrings(ids))
}

// GetAll lists every account of a user, system and archived ones included.
func (r *AccountRepository) GetAll(ctx context.Context, tx usecase.Transaction, userID domain.ID) ([]*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY name, id`

	return r.queryAccounts(ctx, tx, query, userID.String())
}

// FindSystemAccount finds the user's currency trading account for currency.
func (r *AccountRepository) FindSystemAccount(ctx context.Context, tx usecase.Transaction, userID domain.ID, currency domain.Currency) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 AND currency = $2 AND type = $3`

	account, err := scanAccount(conn(r.db, tx).QueryRow(ctx, query,
		userID.String(),
		currency.Code(),
		string(domain.AccountTypeCurrencyTrading),
	))
	if err != nil {
		return nil, mapError(err, domain.ErrAccountNotFound)
	}
	return account, nil
}

// Update persists the mutable account fields.
func (r *AccountRepository) Update(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	row := account.ToPersistence()
	query := `
		UPDATE accounts
		SET name = $2, description = $3, initial_balance = $4, current_cleared_balance_local = $5,
			currency = $6, type = $7, is_tombstone = $8, updated_at = $9
		WHERE id = $1
	`

	tag, err := conn(r.db, tx).Exec(ctx, query,
		row.ID.String(),
		row.Name,
		row.Description,
		row.InitialBalance.String(),
		row.CurrentClearedBalanceLocal.String(),
		row.Currency,
		row.Type,
		row.IsTombstone,
		row.UpdatedAt,
	)
	if err != nil {
		return mapError(err, domain.ErrAccountNotFound)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// Delete archives an account. Rows are never removed.
func (r *AccountRepository) Delete(ctx context.Context, tx usecase.Transaction, id domain.ID) error {
	tag, err := conn(r.db, tx).Exec(ctx, `UPDATE accounts SET is_tombstone = TRUE WHERE id = $1`, id.String())
	if err != nil {
		return mapError(err, domain.ErrAccountNotFound)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) queryAccounts(ctx context.Context, tx usecase.Transaction, query string, args ...any) ([]*domain.Account, error) {
	rows, err := conn(r.db, tx).Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, domain.ErrAccountNotFound)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(s rowScanner) (*domain.Account, error) {
	var (
		row                          domain.AccountRow
		id, userID, initial, cleared string
	)
	err := s.Scan(
		&id,
		&userID,
		&row.Name,
		&row.Description,
		&initial,
		&cleared,
		&row.Currency,
		&row.Type,
		&row.IsTombstone,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	ids, err := parseIDs(id, userID)
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	row.ID, row.UserID = ids[0], ids[1]
	if row.InitialBalance, err = domain.ParseAmount(initial); err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	if row.CurrentClearedBalanceLocal, err = domain.ParseAmount(cleared); err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}

	return domain.RestoreAccount(row)
}
