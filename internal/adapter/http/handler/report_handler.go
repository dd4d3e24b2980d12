package handler

import (
	"context"
	"net/http"

	"github.com/ariondjunior/tapajos/internal/adapter/http/dto"
	"github.com/ariondjunior/tapajos/internal/usecase"
)

// SummaryService builds the management summary.
type SummaryService interface {
	Summary(ctx context.Context) (*usecase.Summary, error)
}

// ReconciliationService builds the reconciliation report.
type ReconciliationService interface {
	GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// ReportHandler handles report requests.
type ReportHandler struct {
	summary        SummaryService
	reconciliation ReconciliationService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(summary SummaryService, reconciliation ReconciliationService) *ReportHandler {
	return &ReportHandler{summary: summary, reconciliation: reconciliation}
}

// Summary returns totals, cash and projected position.
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.summary.Summary(r.Context())
	if err != nil {
		writeDomainError(w, "failed to build summary", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SummaryFromUseCase(summary))
}

// Reconciliation checks every bank and bank-linked obligation.
func (h *ReportHandler) Reconciliation(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciliation.GenerateReconciliationReport(r.Context())
	if err != nil {
		writeDomainError(w, "failed to reconcile", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationReportFromUseCase(report))
}
