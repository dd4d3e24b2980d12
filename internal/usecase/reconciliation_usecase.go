package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ariondjunior/tapajos/internal/domain"
)

// ReconciliationUseCase checks that recorded balances agree with the ledger.
type ReconciliationUseCase struct {
	bankRepo  BankRepository
	entryRepo EntryRepository
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(bankRepo BankRepository, entryRepo EntryRepository) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		bankRepo:  bankRepo,
		entryRepo: entryRepo,
	}
}

// ReconciliationResult compares a bank's recorded balance with the balance
// rebuilt from its opening balance and bank movements.
type ReconciliationResult struct {
	BankID            string
	BankName          string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	MovementCount     int
	IsReconciled      bool
	LastChecked       time.Time
}

// SettlementIssue flags a bank-linked obligation whose synthetic movements do
// not match its state.
type SettlementIssue struct {
	EntryID        string
	Paid           bool
	ExpectedAmount decimal.Decimal
	MovementCount  int
	MovementTotal  decimal.Decimal
}

// ReconcileBank rebuilds one bank's balance from its movements.
func (uc *ReconciliationUseCase) ReconcileBank(ctx context.Context, bankID string) (*ReconciliationResult, error) {
	bank, err := uc.bankRepo.GetByID(ctx, bankID)
	if err != nil {
		return nil, err
	}

	movements, err := uc.entryRepo.List(ctx, domain.EntryFilter{
		Type:   domain.EntryTypeBank,
		BankID: bankID,
	})
	if err != nil {
		return nil, err
	}

	return reconcile(bank, movements, time.Now().UTC()), nil
}

func reconcile(bank *domain.Bank, movements []*domain.Entry, now time.Time) *ReconciliationResult {
	sum := bank.InitialBalance
	for _, m := range movements {
		sum = sum.Add(m.Amount)
	}
	calculated := domain.Round2(sum)
	diff := bank.Balance.Sub(calculated)

	return &ReconciliationResult{
		BankID:            bank.ID,
		BankName:          bank.Name,
		RecordedBalance:   bank.Balance,
		CalculatedBalance: calculated,
		Difference:        diff,
		MovementCount:     len(movements),
		IsReconciled:      diff.IsZero(),
		LastChecked:       now,
	}
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalBanks       int
	ReconciledBanks  int
	Discrepancies    []*ReconciliationResult
	SettlementIssues []*SettlementIssue
	Consistent       bool
	CheckedAt        time.Time
}

// GenerateReconciliationReport reconciles every bank and checks that each
// bank-linked obligation has exactly one movement when paid and none when
// pending.
func (uc *ReconciliationUseCase) GenerateReconciliationReport(ctx context.Context) (*ReconciliationReport, error) {
	banks, err := uc.bankRepo.List(ctx, 0, 0)
	if err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.List(ctx, domain.EntryFilter{})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	movementsByBank := make(map[string][]*domain.Entry)
	movementsBySource := make(map[string][]*domain.Entry)
	for _, e := range entries {
		if e.Type != domain.EntryTypeBank || e.BankID == nil {
			continue
		}
		movementsByBank[*e.BankID] = append(movementsByBank[*e.BankID], e)
		if e.SourceEntryID != nil {
			movementsBySource[*e.SourceEntryID] = append(movementsBySource[*e.SourceEntryID], e)
		}
	}

	report := &ReconciliationReport{
		TotalBanks:       len(banks),
		Discrepancies:    make([]*ReconciliationResult, 0),
		SettlementIssues: make([]*SettlementIssue, 0),
		CheckedAt:        now,
	}

	for _, bank := range banks {
		result := reconcile(bank, movementsByBank[bank.ID], now)
		if result.IsReconciled {
			report.ReconciledBanks++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	for _, e := range entries {
		if !e.Type.IsObligation() || e.BankID == nil {
			continue
		}
		if issue := checkSettlement(e, movementsBySource[e.ID]); issue != nil {
			report.SettlementIssues = append(report.SettlementIssues, issue)
		}
	}

	report.Consistent = len(report.Discrepancies) == 0 && len(report.SettlementIssues) == 0

	return report, nil
}

func checkSettlement(e *domain.Entry, movements []*domain.Entry) *SettlementIssue {
	total := decimal.Zero
	for _, m := range movements {
		total = total.Add(m.Amount)
	}

	expectedCount := 0
	expected := decimal.Zero
	if e.Paid {
		expectedCount = 1
		expected = e.SignedAmount()
	}

	if len(movements) == expectedCount && total.Equal(expected) {
		return nil
	}

	return &SettlementIssue{
		EntryID:        e.ID,
		Paid:           e.Paid,
		ExpectedAmount: expected,
		MovementCount:  len(movements),
		MovementTotal:  total,
	}
}
