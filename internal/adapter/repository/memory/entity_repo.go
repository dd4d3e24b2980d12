package memory

import (
	"context"
	"fmt"

	"github.com/ariondjunior/tapajos/internal/domain"
)

// EntityRepository implements usecase.EntityRepository.
type EntityRepository struct {
	store *Store
}

// NewEntityRepository creates a new EntityRepository.
func NewEntityRepository(store *Store) *EntityRepository {
	return &EntityRepository{store: store}
}

// Create appends an entity.
func (r *EntityRepository) Create(ctx context.Context, entity *domain.Entity) error {
	s := r.store
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()

	if _, ok := s.entityByID[entity.ID]; ok {
		return fmt.Errorf("entity %s already exists", entity.ID)
	}

	s.entityByID[entity.ID] = len(s.entities)
	s.entities = append(s.entities, cloneEntity(entity))

	return nil
}

// GetByID retrieves an entity by ID.
func (r *EntityRepository) GetByID(ctx context.Context, id string) (*domain.Entity, error) {
	s := r.store
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.unlock()

	i, ok := s.entityByID[id]
	if !ok {
		return nil, domain.ErrEntityNotFound
	}

	return cloneEntity(s.entities[i]), nil
}

// GetByExternalID retrieves an entity imported from the remote backend.
func (r *EntityRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Entity, error) {
	s := r.store
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.unlock()

	if externalID != "" {
		for _, e := range s.entities {
			if e.ExternalID == externalID {
				return cloneEntity(e), nil
			}
		}
	}

	return nil, domain.ErrEntityNotFound
}

// List lists entities in insertion order.
func (r *EntityRepository) List(ctx context.Context, filter domain.EntityFilter) ([]*domain.Entity, error) {
	s := r.store
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.unlock()

	matched := make([]*domain.Entity, 0, len(s.entities))
	for _, e := range s.entities {
		if filter.Matches(e) {
			matched = append(matched, e)
		}
	}

	from, to := window(len(matched), filter.Limit, filter.Offset)
	out := make([]*domain.Entity, 0, to-from)
	for _, e := range matched[from:to] {
		out = append(out, cloneEntity(e))
	}

	return out, nil
}
