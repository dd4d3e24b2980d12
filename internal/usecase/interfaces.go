package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ariondjunior/tapajos/internal/domain"
)

// EntityRepository defines data access for entities.
type EntityRepository interface {
	Create(ctx context.Context, entity *domain.Entity) error
	GetByID(ctx context.Context, id string) (*domain.Entity, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.Entity, error)
	// List returns entities in insertion order. A non-positive limit returns all.
	List(ctx context.Context, filter domain.EntityFilter) ([]*domain.Entity, error)
}

// BankRepository defines data access for banks.
type BankRepository interface {
	Create(ctx context.Context, bank *domain.Bank) error
	GetByID(ctx context.Context, id string) (*domain.Bank, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Bank, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.Bank, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	UpdateRemote(ctx context.Context, id, name string, remoteBalance decimal.Decimal, syncedAt time.Time) error
	// List returns banks in insertion order. A non-positive limit returns all.
	List(ctx context.Context, limit, offset int) ([]*domain.Bank, error)
}

// EntryRepository defines data access for ledger entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.Entry) error
	GetByID(ctx context.Context, id string) (*domain.Entry, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Entry, error)
	MarkPaid(ctx context.Context, tx Transaction, id, paidBy string, paidAt time.Time) error
	// List returns matching entries newest first (date, then id). A
	// non-positive filter limit returns all.
	List(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, error)
}

// Transaction represents a storage transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// EventPublisher delivers domain events after commit.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// LedgerMetrics records mutator activity.
type LedgerMetrics interface {
	EntryCreated(entryType domain.EntryType)
	EntrySettled(entryType domain.EntryType)
	BankMovement(bankID string, balance decimal.Decimal)
}

// RemoteSource reads bank accounts and counterparties from the remote backend.
type RemoteSource interface {
	FetchBanks(ctx context.Context) ([]RemoteBank, FetchStats, error)
	FetchEntities(ctx context.Context) ([]RemoteEntity, FetchStats, error)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key so a failed request can be retried.
	Release(ctx context.Context, key string) error
}
