package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariondjunior/tapajos/internal/domain"
)

const entityColumns = `id, name, is_client, external_id, created_at`

// EntityRepository implements usecase.EntityRepository.
type EntityRepository struct {
	db querier
}

// NewEntityRepository creates a new EntityRepository.
func NewEntityRepository(pool *pgxpool.Pool) *EntityRepository {
	return &EntityRepository{db: pool}
}

// Create inserts a new entity.
func (r *EntityRepository) Create(ctx context.Context, entity *domain.Entity) error {
	query := `
		INSERT INTO entities (id, name, is_client, external_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(ctx, query,
		entity.ID,
		entity.Name,
		entity.IsClient,
		nullString(entity.ExternalID),
		entity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert entity %s: %w", entity.ID, err)
	}

	return nil
}

// GetByID retrieves an entity by ID.
func (r *EntityRepository) GetByID(ctx context.Context, id string) (*domain.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities WHERE id = $1`

	entity, err := scanEntity(r.db.QueryRow(ctx, query, id))
	if isNoRows(err) {
		return nil, domain.ErrEntityNotFound
	}

	return entity, err
}

// GetByExternalID retrieves an entity imported from the remote backend.
func (r *EntityRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Entity, error) {
	if externalID == "" {
		return nil, domain.ErrEntityNotFound
	}

	query := `SELECT ` + entityColumns + ` FROM entities WHERE external_id = $1`

	entity, err := scanEntity(r.db.QueryRow(ctx, query, externalID))
	if isNoRows(err) {
		return nil, domain.ErrEntityNotFound
	}

	return entity, err
}

// List lists entities in insertion order.
func (r *EntityRepository) List(ctx context.Context, filter domain.EntityFilter) ([]*domain.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities`
	args := []any{}

	if filter.IsClient != nil {
		args = append(args, *filter.IsClient)
		query += fmt.Sprintf(" WHERE is_client = $%d", len(args))
	}
	query += " ORDER BY seq"
	query, args = paginate(query, args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entities := []*domain.Entity{}
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}

	return entities, rows.Err()
}

func scanEntity(row pgx.Row) (*domain.Entity, error) {
	var (
		entity     domain.Entity
		externalID *string
	)

	err := row.Scan(
		&entity.ID,
		&entity.Name,
		&entity.IsClient,
		&externalID,
		&entity.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	entity.ExternalID = derefString(externalID)
	return &entity, nil
}

// paginate appends LIMIT/OFFSET. A non-positive limit returns all rows.
func paginate(query string, args []any, limit, offset int) (string, []any) {
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return query, args
}
