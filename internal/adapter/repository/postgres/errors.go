package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/pocketledger/internal/domain"
)

// PostgreSQL error codes.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
	pgErrUniqueViolation      = "23505"
	pgErrForeignKeyViolation  = "23503"
)

// mapError translates driver errors into domain errors. notFound is
// returned for pgx.ErrNoRows.
func mapError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			return fmt.Errorf("%w: %s", domain.ErrRecordAlreadyExists, pgErr.ConstraintName)
		case pgErrForeignKeyViolation:
			return fmt.Errorf("%w: %s", domain.ErrForeignKeyConstraint, pgErr.ConstraintName)
		}
	}
	return err
}

// insertResult reports a skipped ON CONFLICT DO NOTHING insert as a collision.
func insertResult(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapError(err, domain.ErrNotFound)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecordAlreadyExists
	}
	return nil
}
