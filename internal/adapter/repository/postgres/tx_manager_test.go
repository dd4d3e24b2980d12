package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	pool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgxmock pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func assertExpectations(t *testing.T, pool pgxmock.PgxPoolIface) {
	t.Helper()
	if err := pool.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations were not met: %v", err)
	}
}

// A settlement is Begin, work, Commit, then a deferred Rollback.
func TestTxManager_SettlementLifecycle(t *testing.T) {
	tests := []struct {
		name   string
		expect func(pgxmock.PgxPoolIface)
		commit bool
	}{
		{
			name: "commit then deferred rollback",
			expect: func(m pgxmock.PgxPoolIface) {
				m.ExpectBegin()
				m.ExpectCommit()
				m.ExpectRollback().WillReturnError(pgx.ErrTxClosed)
			},
			commit: true,
		},
		{
			name: "rollback on failure",
			expect: func(m pgxmock.PgxPoolIface) {
				m.ExpectBegin()
				m.ExpectRollback()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			pool := newMockPool(t)
			tt.expect(pool)

			tx, err := newTxManagerWithPool(pool).Begin(ctx)
			if err != nil {
				t.Fatalf("Begin: %v", err)
			}
			if _, err := pgxTx(tx); err != nil {
				t.Fatalf("expected a pgx transaction, got %v", err)
			}

			if tt.commit {
				if err := tx.Commit(ctx); err != nil {
					t.Fatalf("Commit: %v", err)
				}
			}
			if err := tx.Rollback(ctx); err != nil {
				t.Fatalf("Rollback: %v", err)
			}

			assertExpectations(t, pool)
		})
	}
}

func TestTxManager_BeginError(t *testing.T) {
	pool := newMockPool(t)
	beginErr := errors.New("too many connections")
	pool.ExpectBegin().WillReturnError(beginErr)

	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	if !errors.Is(err, beginErr) || tx != nil {
		t.Fatalf("expected begin error, got err=%v tx=%v", err, tx)
	}
}

func TestTxManager_RollbackErrorIsReturned(t *testing.T) {
	pool := newMockPool(t)
	connErr := errors.New("connection reset")
	pool.ExpectBegin()
	pool.ExpectRollback().WillReturnError(connErr)

	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := tx.Rollback(context.Background()); !errors.Is(err, connErr) {
		t.Fatalf("expected rollback error, got %v", err)
	}
}

func TestPgxTx_RejectsForeignTransaction(t *testing.T) {
	if _, err := pgxTx(fakeTx{}); !errors.Is(err, errForeignTx) {
		t.Fatalf("expected errForeignTx, got %v", err)
	}
	if _, err := pgxTx((*Tx)(nil)); !errors.Is(err, errForeignTx) {
		t.Fatalf("expected errForeignTx for nil Tx, got %v", err)
	}
}
