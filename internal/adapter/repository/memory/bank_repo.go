package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ariondjunior/tapajos/internal/domain"
	"github.com/ariondjunior/tapajos/internal/usecase"
)

// BankRepository implements usecase.BankRepository.
type BankRepository struct {
	store *Store
}

// NewBankRepository creates a new BankRepository.
func NewBankRepository(store *Store) *BankRepository {
	return &BankRepository{store: store}
}

// Create appends a bank.
func (r *BankRepository) Create(ctx context.Context, bank *domain.Bank) error {
	s := r.store
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()

	if _, ok := s.bankByID[bank.ID]; ok {
		return fmt.Errorf("bank %s already exists", bank.ID)
	}

	s.bankByID[bank.ID] = len(s.banks)
	s.banks = append(s.banks, cloneBank(bank))

	return nil
}

// GetByID retrieves a bank by ID.
func (r *BankRepository) GetByID(ctx context.Context, id string) (*domain.Bank, error) {
	s := r.store
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.unlock()

	return s.bank(id)
}

// GetByIDForUpdate retrieves a bank inside a transaction. The transaction
// already holds the store.
func (r *BankRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Bank, error) {
	if _, err := r.store.txFrom(tx); err != nil {
		return nil, err
	}
	return r.store.bank(id)
}

func (s *Store) bank(id string) (*domain.Bank, error) {
	i, ok := s.bankByID[id]
	if !ok {
		return nil, domain.ErrBankNotFound
	}
	return cloneBank(s.banks[i]), nil
}

// GetByExternalID retrieves a bank imported from the remote backend.
func (r *BankRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Bank, error) {
	s := r.store
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.unlock()

	if externalID != "" {
		for _, b := range s.banks {
			if b.ExternalID == externalID {
				return cloneBank(b), nil
			}
		}
	}

	return nil, domain.ErrBankNotFound
}

// UpdateBalance sets the running balance of a bank.
func (r *BankRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	mtx, err := r.store.txFrom(tx)
	if err != nil {
		return err
	}

	i, ok := r.store.bankByID[id]
	if !ok {
		return domain.ErrBankNotFound
	}

	b := r.store.banks[i]
	prevBalance, prevUpdated := b.Balance, b.UpdatedAt
	b.Balance = balance
	b.UpdatedAt = updatedAt

	mtx.onRollback(func() {
		b.Balance = prevBalance
		b.UpdatedAt = prevUpdated
	})

	return nil
}

// UpdateRemote refreshes the values reported by the remote backend.
func (r *BankRepository) UpdateRemote(ctx context.Context, id, name string, remoteBalance decimal.Decimal, syncedAt time.Time) error {
	s := r.store
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()

	i, ok := s.bankByID[id]
	if !ok {
		return domain.ErrBankNotFound
	}

	b := s.banks[i]
	b.Name = name
	b.RemoteBalance = &remoteBalance
	b.SyncedAt = &syncedAt
	b.UpdatedAt = syncedAt

	return nil
}

// List lists banks in insertion order.
func (r *BankRepository) List(ctx context.Context, limit, offset int) ([]*domain.Bank, error) {
	s := r.store
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.unlock()

	from, to := window(len(s.banks), limit, offset)
	out := make([]*domain.Bank, 0, to-from)
	for _, b := range s.banks[from:to] {
		out = append(out, cloneBank(b))
	}

	return out, nil
}
