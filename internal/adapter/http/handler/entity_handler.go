package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ariondjunior/tapajos/internal/adapter/http/dto"
	"github.com/ariondjunior/tapajos/internal/domain"
	"github.com/ariondjunior/tapajos/internal/usecase"
)

// EntityService defines the behavior needed by EntityHandler.
type EntityService interface {
	CreateEntity(ctx context.Context, input usecase.CreateEntityInput) (*domain.Entity, error)
	GetEntity(ctx context.Context, id string) (*domain.Entity, error)
	ListEntities(ctx context.Context, input usecase.ListEntitiesInput) ([]*domain.Entity, error)
}

// EntityHandler handles client and supplier registry requests.
type EntityHandler struct {
	entityUC EntityService
}

// NewEntityHandler creates a new EntityHandler.
func NewEntityHandler(entityUC EntityService) *EntityHandler {
	return &EntityHandler{entityUC: entityUC}
}

// Create registers a new entity.
func (h *EntityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEntityRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entity, err := h.entityUC.CreateEntity(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to create entity", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntityFromDomain(entity))
}

// Get retrieves an entity by ID.
func (h *EntityHandler) Get(w http.ResponseWriter, r *http.Request) {
	entity, err := h.entityUC.GetEntity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get entity", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntityFromDomain(entity))
}

// List lists entities, optionally only clients (?client=true) or suppliers.
func (h *EntityHandler) List(w http.ResponseWriter, r *http.Request) {
	isClient, err := parseBoolQuery(r, "client")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid client filter", err.Error())
		return
	}

	entities, err := h.entityUC.ListEntities(r.Context(), usecase.ListEntitiesInput{
		IsClient: isClient,
		Limit:    parseIntQuery(r, "limit", 20),
		Offset:   parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, "failed to list entities", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntitiesFromDomain(entities))
}
