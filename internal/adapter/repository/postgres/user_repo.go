package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/pocketledger/internal/domain"
	"github.com/iho/pocketledger/internal/usecase"
)

const userColumns = `id, email, name, password_hash, created_at, updated_at`

// UserRepository implements user persistence
type UserRepository struct {
	db querier
}

// NewUserRepository creates a new user repository
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return newUserRepository(pool)
}

func newUserRepository(db querier) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user. A taken email yields usecase.ErrEmailTaken,
// an id collision ErrRecordAlreadyExists.
func (r *UserRepository) Create(ctx context.Context, tx usecase.Transaction, user *domain.User) error {
	row := user.ToPersistence()
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING
	`

	db := conn(r.db, tx)
	err := insertResult(db.Exec(ctx, query,
		row.ID.String(),
		row.Email,
		row.Name,
		row.PasswordHash,
		row.CreatedAt,
		row.UpdatedAt,
	))
	if err == nil || !errors.Is(err, domain.ErrRecordAlreadyExists) {
		return err
	}

	var taken bool
	if err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, row.Email).Scan(&taken); err != nil {
		return mapError(err, domain.ErrUserNotFound)
	}
	if taken {
		return usecase.ErrEmailTaken
	}
	return err
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, tx usecase.Transaction, id domain.ID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(conn(r.db, tx).QueryRow(ctx, query, id.String()))
	if err != nil {
		return nil, mapError(err, domain.ErrUserNotFound)
	}
	return user, nil
}

// GetByEmail retrieves a user by normalized email
func (r *UserRepository) GetByEmail(ctx context.Context, tx usecase.Transaction, email domain.Email) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(conn(r.db, tx).QueryRow(ctx, query, email.String()))
	if err != nil {
		return nil, mapError(err, domain.ErrUserNotFound)
	}
	return user, nil
}

func scanUser(s rowScanner) (*domain.User, error) {
	var (
		row domain.UserRow
		id  string
	)
	if err := s.Scan(&id, &row.Email, &row.Name, &row.PasswordHash, &row.CreatedAt, &row.UpdatedAt); err != nil {
		return nil, err
	}

	parsed, err := domain.ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	row.ID = parsed
	return domain.RestoreUser(row)
}
