// Package memory implements the repositories over a single in-process store.
package memory

import (
	"context"
	"errors"

	"github.com/ariondjunior/tapajos/internal/domain"
	"github.com/ariondjunior/tapajos/internal/usecase"
)

var (
	// ErrTxDone is returned when a finished transaction is used.
	ErrTxDone = errors.New("transaction already finished")
	// ErrForeignTx is returned when a transaction from another store is passed in.
	ErrForeignTx = errors.New("transaction does not belong to this store")
)

// Store holds all ledger state. One transaction at a time holds the store;
// reads outside a transaction wait for it to finish.
type Store struct {
	sem chan struct{}

	entities   []*domain.Entity
	entityByID map[string]int

	banks    []*domain.Bank
	bankByID map[string]int

	entries   []*domain.Entry
	entryByID map[string]int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		sem:        make(chan struct{}, 1),
		entityByID: make(map[string]int),
		bankByID:   make(map[string]int),
		entryByID:  make(map[string]int),
	}
}

func (s *Store) lock(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) unlock() {
	<-s.sem
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin waits for the store and starts a transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := m.store.lock(ctx); err != nil {
		return nil, err
	}
	return &Tx{store: m.store}, nil
}

// Tx is an exclusive transaction over a Store. Writes apply immediately and
// are undone on rollback.
type Tx struct {
	store *Store
	undo  []func()
	done  bool
}

// Commit keeps the writes and releases the store.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	t.undo = nil
	t.store.unlock()
	return nil
}

// Rollback reverts the writes and releases the store. It is a no-op after
// Commit.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.done = true
	t.undo = nil
	t.store.unlock()
	return nil
}

func (t *Tx) onRollback(fn func()) {
	t.undo = append(t.undo, fn)
}

func (s *Store) txFrom(tx usecase.Transaction) (*Tx, error) {
	mtx, ok := tx.(*Tx)
	if !ok || mtx.store != s {
		return nil, ErrForeignTx
	}
	if mtx.done {
		return nil, ErrTxDone
	}
	return mtx, nil
}

// Ping reports whether the store can be acquired.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	s.unlock()
	return nil
}

func window(n, limit, offset int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	end := n
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return offset, end
}
