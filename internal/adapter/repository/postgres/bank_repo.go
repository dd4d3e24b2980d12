package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ariondjunior/tapajos/internal/domain"
	"github.com/ariondjunior/tapajos/internal/usecase"
)

const bankColumns = `id, name, balance, initial_balance, source, external_id, remote_balance, synced_at, created_at, updated_at`

// BankRepository implements usecase.BankRepository.
type BankRepository struct {
	db querier
}

// NewBankRepository creates a new BankRepository.
func NewBankRepository(pool *pgxpool.Pool) *BankRepository {
	return &BankRepository{db: pool}
}

// Create inserts a new bank.
func (r *BankRepository) Create(ctx context.Context, bank *domain.Bank) error {
	query := `
		INSERT INTO banks (id, name, balance, initial_balance, source, external_id, remote_balance, synced_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		bank.ID,
		bank.Name,
		bank.Balance,
		bank.InitialBalance,
		string(bank.Source),
		nullString(bank.ExternalID),
		bank.RemoteBalance,
		bank.SyncedAt,
		bank.CreatedAt,
		bank.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert bank %s: %w", bank.ID, err)
	}

	return nil
}

// GetByID retrieves a bank by ID.
func (r *BankRepository) GetByID(ctx context.Context, id string) (*domain.Bank, error) {
	query := `SELECT ` + bankColumns + ` FROM banks WHERE id = $1`
	return r.get(r.db.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves a bank and locks its row until tx ends.
func (r *BankRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Bank, error) {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + bankColumns + ` FROM banks WHERE id = $1 FOR UPDATE`
	return r.get(pgxTx.QueryRow(ctx, query, id))
}

// GetByExternalID retrieves a bank imported from the remote backend.
func (r *BankRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Bank, error) {
	if externalID == "" {
		return nil, domain.ErrBankNotFound
	}

	query := `SELECT ` + bankColumns + ` FROM banks WHERE external_id = $1`
	return r.get(r.db.QueryRow(ctx, query, externalID))
}

func (r *BankRepository) get(row pgx.Row) (*domain.Bank, error) {
	bank, err := scanBank(row)
	if isNoRows(err) {
		return nil, domain.ErrBankNotFound
	}
	return bank, err
}

// UpdateBalance sets the running balance of a bank.
func (r *BankRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := pgxTx.Exec(ctx,
		`UPDATE banks SET balance = $2, updated_at = $3 WHERE id = $1`,
		id, balance, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("update balance of bank %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBankNotFound
	}

	return nil
}

// UpdateRemote refreshes the values reported by the remote backend. The
// running balance is left alone.
func (r *BankRepository) UpdateRemote(ctx context.Context, id, name string, remoteBalance decimal.Decimal, syncedAt time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE banks SET name = $2, remote_balance = $3, synced_at = $4, updated_at = $4 WHERE id = $1`,
		id, name, remoteBalance, syncedAt,
	)
	if err != nil {
		return fmt.Errorf("update remote values of bank %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBankNotFound
	}

	return nil
}

// List lists banks in insertion order.
func (r *BankRepository) List(ctx context.Context, limit, offset int) ([]*domain.Bank, error) {
	query, args := paginate(`SELECT `+bankColumns+` FROM banks ORDER BY seq`, nil, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	banks := []*domain.Bank{}
	for rows.Next() {
		bank, err := scanBank(rows)
		if err != nil {
			return nil, err
		}
		banks = append(banks, bank)
	}

	return banks, rows.Err()
}

func scanBank(row pgx.Row) (*domain.Bank, error) {
	var (
		bank       domain.Bank
		source     string
		externalID *string
	)

	err := row.Scan(
		&bank.ID,
		&bank.Name,
		&bank.Balance,
		&bank.InitialBalance,
		&source,
		&externalID,
		&bank.RemoteBalance,
		&bank.SyncedAt,
		&bank.CreatedAt,
		&bank.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	bank.Source = domain.BankSource(source)
	bank.ExternalID = derefString(externalID)
	return &bank, nil
}
