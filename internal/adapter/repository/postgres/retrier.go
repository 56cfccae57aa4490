package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// RetryConfig controls how TxManager.Run reruns a transaction that lost a
// deadlock or serialization conflict.
type RetryConfig struct {
	// MaxRetries is the number of reruns after the first attempt. Zero disables retrying.
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// OnRetry receives the SQLSTATE of every conflict that is retried.
	OnRetry func(code string)
}

// DefaultRetryConfig allows three reruns starting at 50ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     time.Second,
	}
}

// Retrier reruns database work with exponential backoff on transaction conflicts.
type Retrier struct {
	cfg RetryConfig
}

// NewRetrier fills unset intervals from DefaultRetryConfig.
func NewRetrier(cfg RetryConfig) *Retrier {
	def := DefaultRetryConfig()
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = def.InitialInterval
	}
	if cfg.MaxInterval < cfg.InitialInterval {
		cfg.MaxInterval = max(def.MaxInterval, cfg.InitialInterval)
	}
	return &Retrier{cfg: cfg}
}

func (r *Retrier) policy(ctx context.Context) backoff.BackOffContext {
	if r.cfg.MaxRetries == 0 {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.InitialInterval
	b.MaxInterval = r.cfg.MaxInterval
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.cfg.MaxRetries)), ctx)
}

// Retry runs operation until it succeeds, fails with a non-conflict error,
// or MaxRetries reruns are spent. The last error is returned unwrapped.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	retry := 0
	return backoff.RetryNotify(func() error {
		err := operation()
		if err != nil && conflictCode(err) == "" {
			return backoff.Permanent(err)
		}
		return err
	}, r.policy(ctx), func(err error, wait time.Duration) {
		retry++
		code := conflictCode(err)
		if r.cfg.OnRetry != nil {
			r.cfg.OnRetry(code)
		}
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("pg_code", code).
			Int("retry", retry).
			Dur("backoff", wait).
			Msg("transaction conflict, retrying")
	})
}

// conflictCode returns the SQLSTATE of a deadlock or serialization failure
// and "" for any other error.
func conflictCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrDeadlock, pgErrSerializationFailure:
			return pgErr.Code
		}
	}
	return ""
}
