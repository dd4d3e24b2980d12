package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/ariondjunior/tapajos/internal/domain"
	"github.com/ariondjunior/tapajos/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	store *Store
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(store *Store) *EntryRepository {
	return &EntryRepository{store: store}
}

// Create appends an entry inside a transaction.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	mtx, err := r.store.txFrom(tx)
	if err != nil {
		return err
	}

	s := r.store
	if _, ok := s.entryByID[entry.ID]; ok {
		return fmt.Errorf("entry %s already exists", entry.ID)
	}

	s.entryByID[entry.ID] = len(s.entries)
	s.entries = append(s.entries, cloneEntry(entry))

	mtx.onRollback(func() {
		delete(s.entryByID, entry.ID)
		s.entries = s.entries[:len(s.entries)-1]
	})

	return nil
}

// GetByID retrieves an entry by ID.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	s := r.store
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.unlock()

	return s.entry(id)
}

// GetByIDForUpdate retrieves an entry inside a transaction.
func (r *EntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Entry, error) {
	if _, err := r.store.txFrom(tx); err != nil {
		return nil, err
	}
	return r.store.entry(id)
}

func (s *Store) entry(id string) (*domain.Entry, error) {
	i, ok := s.entryByID[id]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	return cloneEntry(s.entries[i]), nil
}

// MarkPaid records the settlement of an entry.
func (r *EntryRepository) MarkPaid(ctx context.Context, tx usecase.Transaction, id, paidBy string, paidAt time.Time) error {
	mtx, err := r.store.txFrom(tx)
	if err != nil {
		return err
	}

	i, ok := r.store.entryByID[id]
	if !ok {
		return domain.ErrEntryNotFound
	}

	e := r.store.entries[i]
	if e.Paid {
		return domain.ErrEntryAlreadyPaid
	}

	e.Paid = true
	e.PaidBy = paidBy
	e.PaidAt = &paidAt

	mtx.onRollback(func() {
		e.Paid = false
		e.PaidBy = ""
		e.PaidAt = nil
	})

	return nil
}

// List lists matching entries newest first.
func (r *EntryRepository) List(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, error) {
	s := r.store
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.unlock()

	matched := make([]*domain.Entry, 0)
	for _, e := range s.entries {
		if filter.Matches(e) {
			matched = append(matched, cloneEntry(e))
		}
	}

	domain.SortEntries(matched)

	from, to := window(len(matched), filter.Limit, filter.Offset)

	return matched[from:to], nil
}
