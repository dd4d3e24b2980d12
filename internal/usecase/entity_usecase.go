package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/ariondjunior/tapajos/internal/domain"
)

// EntityUseCase handles the client/supplier registry.
type EntityUseCase struct {
	entityRepo EntityRepository
	idGen      IDGenerator
}

// NewEntityUseCase creates a new EntityUseCase.
func NewEntityUseCase(entityRepo EntityRepository, idGen IDGenerator) *EntityUseCase {
	return &EntityUseCase{
		entityRepo: entityRepo,
		idGen:      idGen,
	}
}

// CreateEntityInput represents input for creating an entity.
type CreateEntityInput struct {
	Name     string
	IsClient bool
}

// CreateEntity registers a new client or supplier.
func (uc *EntityUseCase) CreateEntity(ctx context.Context, input CreateEntityInput) (*domain.Entity, error) {
	if err := domain.ValidateName(input.Name); err != nil {
		return nil, err
	}

	entity := &domain.Entity{
		ID:        uc.idGen.Generate(),
		Name:      strings.TrimSpace(input.Name),
		IsClient:  input.IsClient,
		CreatedAt: time.Now().UTC(),
	}

	if err := uc.entityRepo.Create(ctx, entity); err != nil {
		return nil, err
	}

	return entity, nil
}

// GetEntity retrieves an entity by ID.
func (uc *EntityUseCase) GetEntity(ctx context.Context, id string) (*domain.Entity, error) {
	return uc.entityRepo.GetByID(ctx, id)
}

// ListEntitiesInput represents input for listing entities.
type ListEntitiesInput struct {
	IsClient *bool
	Limit    int
	Offset   int
}

// ListEntities lists entities in registration order.
func (uc *EntityUseCase) ListEntities(ctx context.Context, input ListEntitiesInput) ([]*domain.Entity, error) {
	return uc.entityRepo.List(ctx, domain.EntityFilter{
		IsClient: input.IsClient,
		Limit:    clampLimit(input.Limit),
		Offset:   max(input.Offset, 0),
	})
}
