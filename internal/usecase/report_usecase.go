package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ariondjunior/tapajos/internal/domain"
)

// ReportUseCase builds management reports from the ledger.
type ReportUseCase struct {
	bankRepo  BankRepository
	entryRepo EntryRepository
	now       func() time.Time
}

// NewReportUseCase creates a new ReportUseCase.
func NewReportUseCase(bankRepo BankRepository, entryRepo EntryRepository) *ReportUseCase {
	return &ReportUseCase{
		bankRepo:  bankRepo,
		entryRepo: entryRepo,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ObligationTotals aggregates one side of the book. Pending includes overdue.
type ObligationTotals struct {
	PendingCount int
	Pending      decimal.Decimal
	OverdueCount int
	Overdue      decimal.Decimal
	SettledCount int
	Settled      decimal.Decimal
}

func (t *ObligationTotals) add(e *domain.Entry, now time.Time) {
	switch e.Status(now) {
	case domain.EntryStatusPaid:
		t.SettledCount++
		t.Settled = t.Settled.Add(e.Amount)
	case domain.EntryStatusOverdue:
		t.OverdueCount++
		t.Overdue = t.Overdue.Add(e.Amount)
		fallthrough
	default:
		t.PendingCount++
		t.Pending = t.Pending.Add(e.Amount)
	}
}

// BankPosition is one bank's line in the summary.
type BankPosition struct {
	BankID  string
	Name    string
	Balance decimal.Decimal
}

// Summary is the management overview.
type Summary struct {
	Payables          ObligationTotals
	Receivables       ObligationTotals
	Banks             []BankPosition
	CashPosition      decimal.Decimal
	ProjectedPosition decimal.Decimal
	GeneratedAt       time.Time
}

// Summary computes totals over all obligations and banks.
func (uc *ReportUseCase) Summary(ctx context.Context) (*Summary, error) {
	banks, err := uc.bankRepo.List(ctx, 0, 0)
	if err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.List(ctx, domain.EntryFilter{ObligationsOnly: true})
	if err != nil {
		return nil, err
	}

	now := uc.now()
	s := &Summary{
		Banks:       make([]BankPosition, 0, len(banks)),
		GeneratedAt: now,
	}

	for _, b := range banks {
		s.CashPosition = s.CashPosition.Add(b.Balance)
		s.Banks = append(s.Banks, BankPosition{BankID: b.ID, Name: b.Name, Balance: b.Balance})
	}

	for _, e := range entries {
		switch e.Type {
		case domain.EntryTypePayable:
			s.Payables.add(e, now)
		case domain.EntryTypeReceivable:
			s.Receivables.add(e, now)
		}
	}

	s.CashPosition = domain.Round2(s.CashPosition)
	s.ProjectedPosition = domain.Round2(s.CashPosition.Add(s.Receivables.Pending).Sub(s.Payables.Pending))

	return s, nil
}
