package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// SQLSTATE codes a settlement may hit when two payments race for the same
// bank row.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
	pgErrLockNotAvailable     = "55P03"
)

// Retrier implements usecase.Retrier. Only lock conflicts are retried; every
// other error is returned on the first attempt.
type Retrier struct {
	maxRetries int
	newBackOff func() backoff.BackOff
}

// RetrierOption configures a Retrier.
type RetrierOption func(*Retrier)

// WithMaxRetries caps the number of retries after the first attempt.
func WithMaxRetries(n int) RetrierOption {
	return func(r *Retrier) {
		if n >= 0 {
			r.maxRetries = n
		}
	}
}

// WithBackOff replaces the exponential schedule between attempts.
func WithBackOff(newBackOff func() backoff.BackOff) RetrierOption {
	return func(r *Retrier) {
		r.newBackOff = newBackOff
	}
}

// NewRetrier returns a Retrier allowing three retries with exponential
// backoff from 50ms up to 1s.
func NewRetrier(opts ...RetrierOption) *Retrier {
	r := &Retrier{
		maxRetries: 3,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 50 * time.Millisecond
			b.MaxInterval = time.Second
			b.MaxElapsedTime = 10 * time.Second
			return b
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retry runs operation until it succeeds, fails with a non-retryable error,
// runs out of retries or ctx is done.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	attempt := 0
	policy := backoff.WithContext(backoff.WithMaxRetries(r.newBackOff(), uint64(r.maxRetries)), ctx)

	return backoff.RetryNotify(func() error {
		attempt++
		err := operation()
		if err == nil || !isRetryableError(err) {
			if err != nil {
				return backoff.Permanent(err)
			}
			return nil
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("lock conflict, retrying transaction")
	})
}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgErrDeadlock, pgErrSerializationFailure, pgErrLockNotAvailable:
		return true
	}
	return false
}
