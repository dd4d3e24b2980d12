package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ariondjunior/tapajos/internal/adapter/http/dto"
	"github.com/ariondjunior/tapajos/internal/domain"
	"github.com/ariondjunior/tapajos/internal/usecase"
)

// BankService defines the behavior needed by BankHandler.
type BankService interface {
	CreateBank(ctx context.Context, input usecase.CreateBankInput) (*domain.Bank, error)
	GetBank(ctx context.Context, id string) (*domain.Bank, error)
	ListBanks(ctx context.Context, input usecase.ListBanksInput) ([]*domain.Bank, error)
	GetStatement(ctx context.Context, input usecase.StatementInput) (*usecase.Statement, error)
}

// BankReconciler reconciles a single bank.
type BankReconciler interface {
	ReconcileBank(ctx context.Context, bankID string) (*usecase.ReconciliationResult, error)
}

// BankHandler handles bank registry requests.
type BankHandler struct {
	bankUC     BankService
	reconciler BankReconciler
}

// NewBankHandler creates a new BankHandler.
func NewBankHandler(bankUC BankService, reconciler BankReconciler) *BankHandler {
	return &BankHandler{bankUC: bankUC, reconciler: reconciler}
}

// Create registers a new bank.
func (h *BankHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBankRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	bank, err := h.bankUC.CreateBank(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to create bank", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.BankFromDomain(bank))
}

// Get retrieves a bank by ID.
func (h *BankHandler) Get(w http.ResponseWriter, r *http.Request) {
	bank, err := h.bankUC.GetBank(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get bank", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BankFromDomain(bank))
}

// List lists banks.
func (h *BankHandler) List(w http.ResponseWriter, r *http.Request) {
	banks, err := h.bankUC.ListBanks(r.Context(), usecase.ListBanksInput{
		Limit:  parseIntQuery(r, "limit", 20),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, "failed to list banks", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BanksFromDomain(banks))
}

// Statement lists a bank's movements, newest first.
func (h *BankHandler) Statement(w http.ResponseWriter, r *http.Request) {
	statement, err := h.bankUC.GetStatement(r.Context(), usecase.StatementInput{
		BankID: chi.URLParam(r, "id"),
		Limit:  parseIntQuery(r, "limit", 20),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, "failed to get statement", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.StatementFromUseCase(statement, now()))
}

// Reconcile compares a bank's balance with its movements.
func (h *BankHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	result, err := h.reconciler.ReconcileBank(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to reconcile bank", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromUseCase(result))
}
