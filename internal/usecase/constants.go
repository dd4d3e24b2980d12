package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds a single mutator transaction.
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultUser is recorded on entries when no acting user is known.
	DefaultUser = "system"

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	defaultPageLimit = 20
	maxPageLimit     = 100
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageLimit
	}
	if limit > maxPageLimit {
		return maxPageLimit
	}
	return limit
}
