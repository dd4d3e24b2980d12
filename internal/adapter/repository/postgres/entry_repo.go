package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariondjunior/tapajos/internal/domain"
	"github.com/ariondjunior/tapajos/internal/usecase"
)

const entryColumns = `id, date, "user", entity_id, bank_id, type, description, amount, paid, due_date, paid_by, paid_at, source_entry_id`

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	db querier
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{db: pool}
}

// Create inserts a new entry inside tx.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = pgxTx.Exec(ctx, query,
		entry.ID,
		entry.Date,
		entry.User,
		entry.EntityID,
		entry.BankID,
		string(entry.Type),
		entry.Description,
		entry.Amount,
		entry.Paid,
		entry.DueDate,
		entry.PaidBy,
		entry.PaidAt,
		entry.SourceEntryID,
	)
	if err != nil {
		return fmt.Errorf("insert entry %s: %w", entry.ID, err)
	}

	return nil
}

// GetByID retrieves an entry by ID.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = $1`
	return getEntry(r.db.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves an entry and locks its row until tx ends.
func (r *EntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Entry, error) {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = $1 FOR UPDATE`
	return getEntry(pgxTx.QueryRow(ctx, query, id))
}

func getEntry(row pgx.Row) (*domain.Entry, error) {
	entry, err := scanEntry(row)
	if isNoRows(err) {
		return nil, domain.ErrEntryNotFound
	}
	return entry, err
}

// MarkPaid flips an unpaid entry to paid. It fails with
// domain.ErrEntryAlreadyPaid when the entry was settled before.
func (r *EntryRepository) MarkPaid(ctx context.Context, tx usecase.Transaction, id, paidBy string, paidAt time.Time) error {
	pgxTx, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := pgxTx.Exec(ctx,
		`UPDATE entries SET paid = TRUE, paid_by = $2, paid_at = $3 WHERE id = $1 AND paid = FALSE`,
		id, paidBy, paidAt,
	)
	if err != nil {
		return fmt.Errorf("mark entry %s paid: %w", id, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := pgxTx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM entries WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrEntryNotFound
	}

	return domain.ErrEntryAlreadyPaid
}

// List returns matching entries newest first.
func (r *EntryRepository) List(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, error) {
	query, args := buildEntryQuery(filter)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*domain.Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func buildEntryQuery(filter domain.EntryFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Type != "" {
		add("type = $%d", string(filter.Type))
	}
	if filter.ObligationsOnly {
		conds = append(conds, "type IN ('payable', 'receivable')")
	}
	if filter.Paid != nil {
		add("paid = $%d", *filter.Paid)
	}
	if filter.BankID != "" {
		add("bank_id = $%d", filter.BankID)
	}
	if filter.EntityID != "" {
		add("entity_id = $%d", filter.EntityID)
	}

	query := `SELECT ` + entryColumns + ` FROM entries`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date DESC, id DESC"

	return paginate(query, args, filter.Limit, filter.Offset)
}

func scanEntry(row pgx.Row) (*domain.Entry, error) {
	var (
		entry     domain.Entry
		entryType string
	)

	err := row.Scan(
		&entry.ID,
		&entry.Date,
		&entry.User,
		&entry.EntityID,
		&entry.BankID,
		&entryType,
		&entry.Description,
		&entry.Amount,
		&entry.Paid,
		&entry.DueDate,
		&entry.PaidBy,
		&entry.PaidAt,
		&entry.SourceEntryID,
	)
	if err != nil {
		return nil, err
	}

	entry.Type = domain.EntryType(entryType)
	return &entry, nil
}
