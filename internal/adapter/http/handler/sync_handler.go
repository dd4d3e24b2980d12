package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ariondjunior/tapajos/internal/adapter/http/dto"
	"github.com/ariondjunior/tapajos/internal/usecase"
)

// SyncService starts remote sync runs.
type SyncService interface {
	Trigger(ctx context.Context, resource usecase.SyncResource) error
	Status() (map[usecase.SyncResource]usecase.SyncResult, map[usecase.SyncResource]bool)
}

// SyncHandler handles remote sync requests.
type SyncHandler struct {
	syncUC SyncService
	// runs outlive the request, so they are bound to the server's context
	baseCtx context.Context
}

// NewSyncHandler creates a new SyncHandler. Runs started over HTTP are
// cancelled when baseCtx is.
func NewSyncHandler(baseCtx context.Context, syncUC SyncService) *SyncHandler {
	return &SyncHandler{syncUC: syncUC, baseCtx: baseCtx}
}

// Trigger starts a run in the background and answers 202.
func (h *SyncHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	resource, err := usecase.ParseSyncResource(chi.URLParam(r, "resource"))
	if err != nil {
		writeDomainError(w, "failed to start sync", err)
		return
	}

	if err := h.syncUC.Trigger(h.baseCtx, resource); err != nil {
		writeDomainError(w, "failed to start sync", err)
		return
	}

	writeJSON(w, http.StatusAccepted, dto.SyncAcceptedResponse{
		Resource: string(resource),
		Status:   "started",
	})
}

// Status reports the last result and running flag per resource.
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.SyncStatusFromUseCase(h.syncUC.Status()))
}
