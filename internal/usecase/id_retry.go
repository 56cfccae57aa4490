package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iho/pocketledger/internal/domain"
)

// IDRegenerator is implemented by every entity through domain.EntityIdentity.
type IDRegenerator interface {
	ID() domain.ID
	RegenerateID()
}

// IDRetryPolicy bounds SaveWithIDRetry.
type IDRetryPolicy struct {
	Retries     int
	Entity      string
	OnCollision func(entity string)
}

// DefaultIDRetryPolicy allows DefaultIDRetries retries.
func DefaultIDRetryPolicy(entity string) IDRetryPolicy {
	return IDRetryPolicy{Retries: DefaultIDRetries, Entity: entity}
}

// SaveWithIDRetry persists entity, regenerating its id after each
// ErrRecordAlreadyExists. At most Retries+1 attempts are made. Any failure
// is reported as ErrCreationFailed wrapping the last cause.
func SaveWithIDRetry[T IDRegenerator](ctx context.Context, policy IDRetryPolicy, entity T, save func(context.Context, T) error) error {
	retries := policy.Retries
	if retries < 0 {
		retries = 0
	}

	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrCreationFailed, policy.Entity, ctxErr)
		}

		err = save(ctx, entity)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrRecordAlreadyExists) {
			break
		}

		if policy.OnCollision != nil {
			policy.OnCollision(policy.Entity)
		}
		zerolog.Ctx(ctx).Warn().
			Str("entity", policy.Entity).
			Str("id", entity.ID().String()).
			Int("attempt", attempt+1).
			Msg("id collision, regenerating")

		if attempt < retries {
			entity.RegenerateID()
		}
	}

	return fmt.Errorf("%w: %s: %w", domain.ErrCreationFailed, policy.Entity, err)
}
