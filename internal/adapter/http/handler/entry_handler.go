package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ariondjunior/tapajos/internal/adapter/http/dto"
	"github.com/ariondjunior/tapajos/internal/domain"
	"github.com/ariondjunior/tapajos/internal/usecase"
)

// LedgerService defines the mutations needed by EntryHandler.
type LedgerService interface {
	AddEntry(ctx context.Context, input usecase.AddEntryInput) (*usecase.AddEntryResult, error)
	PayEntry(ctx context.Context, input usecase.PayEntryInput) (*usecase.PayEntryResult, error)
}

// EntryService defines the reads needed by EntryHandler.
type EntryService interface {
	GetEntry(ctx context.Context, id string) (*domain.Entry, error)
	ListEntries(ctx context.Context, input usecase.ListEntriesInput) ([]*domain.Entry, error)
}

// EntryHandler handles ledger entry requests.
type EntryHandler struct {
	ledgerUC LedgerService
	entryUC  EntryService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(ledgerUC LedgerService, entryUC EntryService) *EntryHandler {
	return &EntryHandler{ledgerUC: ledgerUC, entryUC: entryUC}
}

// Add records a payable or receivable.
func (h *EntryHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req dto.AddEntryRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input := req.ToUseCaseInput()
	input.User = actor(r, req.User)

	result, err := h.ledgerUC.AddEntry(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to add entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AddEntryResultFromUseCase(result, now()))
}

// Pay settles an entry. Unknown and already-paid entries answer 200 with
// the outcome and change nothing.
func (h *EntryHandler) Pay(w http.ResponseWriter, r *http.Request) {
	var req dto.PayEntryRequest
	if err := decodeBody(r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input := req.ToUseCaseInput(chi.URLParam(r, "id"))
	input.User = actor(r, req.User)

	result, err := h.ledgerUC.PayEntry(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to pay entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PayEntryResultFromUseCase(result, now()))
}

// Get retrieves an entry by ID.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.entryUC.GetEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry, now()))
}

// List lists entries newest first.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	paid, err := parseBoolQuery(r, "paid")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid paid filter", err.Error())
		return
	}
	obligations, err := parseBoolQuery(r, "obligations")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid obligations filter", err.Error())
		return
	}

	q := r.URL.Query()
	entries, err := h.entryUC.ListEntries(r.Context(), usecase.ListEntriesInput{
		Type:            domain.EntryType(q.Get("type")),
		ObligationsOnly: obligations != nil && *obligations,
		Paid:            paid,
		BankID:          q.Get("bank_id"),
		EntityID:        q.Get("entity_id"),
		Limit:           parseIntQuery(r, "limit", 20),
		Offset:          parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, "failed to list entries", err)
		return
	}

	list := dto.EntriesFromDomain(entries, now())
	writeJSON(w, http.StatusOK, dto.ListEntriesResponse{
		Entries: list,
		Total:   int64(len(list)),
	})
}
