package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ariondjunior/tapajos/internal/domain"
	"github.com/ariondjunior/tapajos/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// EntityResponse represents an entity in API responses.
type EntityResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	IsClient   bool      `json:"is_client"`
	Kind       string    `json:"kind"`
	ExternalID string    `json:"external_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// EntityFromDomain converts a domain entity to response.
func EntityFromDomain(e *domain.Entity) *EntityResponse {
	return &EntityResponse{
		ID:         e.ID,
		Name:       e.Name,
		IsClient:   e.IsClient,
		Kind:       e.Kind(),
		ExternalID: e.ExternalID,
		CreatedAt:  e.CreatedAt,
	}
}

// ListEntitiesResponse represents a page of entities.
type ListEntitiesResponse struct {
	Entities []*EntityResponse `json:"entities"`
	Total    int64             `json:"total"`
}

// EntitiesFromDomain converts domain entities to a list response.
func EntitiesFromDomain(entities []*domain.Entity) *ListEntitiesResponse {
	result := make([]*EntityResponse, len(entities))
	for i, e := range entities {
		result[i] = EntityFromDomain(e)
	}
	return &ListEntitiesResponse{Entities: result, Total: int64(len(result))}
}

// BankResponse represents a bank in API responses.
type BankResponse struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Balance        string     `json:"balance"`
	InitialBalance string     `json:"initial_balance"`
	Source         string     `json:"source"`
	ExternalID     string     `json:"external_id,omitempty"`
	RemoteBalance  *string    `json:"remote_balance,omitempty"`
	SyncedAt       *time.Time `json:"synced_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// BankFromDomain converts a domain bank to response. A nil bank gives nil.
func BankFromDomain(b *domain.Bank) *BankResponse {
	if b == nil {
		return nil
	}

	resp := &BankResponse{
		ID:             b.ID,
		Name:           b.Name,
		Balance:        money(b.Balance),
		InitialBalance: money(b.InitialBalance),
		Source:         string(b.Source),
		ExternalID:     b.ExternalID,
		SyncedAt:       b.SyncedAt,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
	if b.RemoteBalance != nil {
		rb := money(*b.RemoteBalance)
		resp.RemoteBalance = &rb
	}
	return resp
}

// ListBanksResponse represents a page of banks.
type ListBanksResponse struct {
	Banks []*BankResponse `json:"banks"`
	Total int64           `json:"total"`
}

// BanksFromDomain converts domain banks to a list response.
func BanksFromDomain(banks []*domain.Bank) *ListBanksResponse {
	result := make([]*BankResponse, len(banks))
	for i, b := range banks {
		result[i] = BankFromDomain(b)
	}
	return &ListBanksResponse{Banks: result, Total: int64(len(result))}
}

// EntryResponse represents an entry in API responses. Status is computed at
// response time.
type EntryResponse struct {
	ID            string     `json:"id"`
	Date          time.Time  `json:"date"`
	User          string     `json:"user"`
	EntityID      *string    `json:"entity_id,omitempty"`
	BankID        *string    `json:"bank_id,omitempty"`
	Type          string     `json:"type"`
	Description   string     `json:"description,omitempty"`
	Amount        string     `json:"amount"`
	SignedAmount  string     `json:"signed_amount"`
	Paid          bool       `json:"paid"`
	Status        string     `json:"status"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	PaidBy        string     `json:"paid_by,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	SourceEntryID *string    `json:"source_entry_id,omitempty"`
}

// EntryFromDomain converts a domain entry to response. A nil entry gives nil.
func EntryFromDomain(e *domain.Entry, now time.Time) *EntryResponse {
	if e == nil {
		return nil
	}

	return &EntryResponse{
		ID:            e.ID,
		Date:          e.Date,
		User:          e.User,
		EntityID:      e.EntityID,
		BankID:        e.BankID,
		Type:          string(e.Type),
		Description:   e.Description,
		Amount:        money(e.Amount),
		SignedAmount:  money(e.SignedAmount()),
		Paid:          e.Paid,
		Status:        string(e.Status(now)),
		DueDate:       e.DueDate,
		PaidBy:        e.PaidBy,
		PaidAt:        e.PaidAt,
		SourceEntryID: e.SourceEntryID,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry, now time.Time) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e, now)
	}
	return result
}

// ListEntriesResponse represents a page of entries.
type ListEntriesResponse struct {
	Entries []*EntryResponse `json:"entries"`
	Total   int64            `json:"total"`
}

// MutationResponse is returned by add and pay. Movement and Bank are set when
// the call settled a bank-linked entry.
type MutationResponse struct {
	Outcome  string         `json:"outcome,omitempty"`
	Entry    *EntryResponse `json:"entry,omitempty"`
	Movement *EntryResponse `json:"movement,omitempty"`
	Bank     *BankResponse  `json:"bank,omitempty"`
}

// AddEntryResultFromUseCase converts an AddEntry result.
func AddEntryResultFromUseCase(r *usecase.AddEntryResult, now time.Time) *MutationResponse {
	return &MutationResponse{
		Entry:    EntryFromDomain(r.Entry, now),
		Movement: EntryFromDomain(r.Movement, now),
		Bank:     BankFromDomain(r.Bank),
	}
}

// PayEntryResultFromUseCase converts a PayEntry result.
func PayEntryResultFromUseCase(r *usecase.PayEntryResult, now time.Time) *MutationResponse {
	return &MutationResponse{
		Outcome:  string(r.Outcome),
		Entry:    EntryFromDomain(r.Entry, now),
		Movement: EntryFromDomain(r.Movement, now),
		Bank:     BankFromDomain(r.Bank),
	}
}

// StatementResponse represents the movement history of one bank.
type StatementResponse struct {
	Bank    *BankResponse    `json:"bank"`
	Entries []*EntryResponse `json:"entries"`
}

// StatementFromUseCase converts a statement.
func StatementFromUseCase(s *usecase.Statement, now time.Time) *StatementResponse {
	return &StatementResponse{
		Bank:    BankFromDomain(s.Bank),
		Entries: EntriesFromDomain(s.Entries, now),
	}
}

// ReconciliationResponse represents one bank's reconciliation.
type ReconciliationResponse struct {
	BankID            string    `json:"bank_id"`
	BankName          string    `json:"bank_name"`
	RecordedBalance   string    `json:"recorded_balance"`
	CalculatedBalance string    `json:"calculated_balance"`
	Difference        string    `json:"difference"`
	MovementCount     int       `json:"movement_count"`
	IsReconciled      bool      `json:"is_reconciled"`
	LastChecked       time.Time `json:"last_checked"`
}

// ReconciliationFromUseCase converts a reconciliation result.
func ReconciliationFromUseCase(r *usecase.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		BankID:            r.BankID,
		BankName:          r.BankName,
		RecordedBalance:   money(r.RecordedBalance),
		CalculatedBalance: money(r.CalculatedBalance),
		Difference:        money(r.Difference),
		MovementCount:     r.MovementCount,
		IsReconciled:      r.IsReconciled,
		LastChecked:       r.LastChecked,
	}
}

// SettlementIssueResponse represents an obligation whose movements do not
// match its state.
type SettlementIssueResponse struct {
	EntryID        string `json:"entry_id"`
	Paid           bool   `json:"paid"`
	ExpectedAmount string `json:"expected_amount"`
	MovementCount  int    `json:"movement_count"`
	MovementTotal  string `json:"movement_total"`
}

// ReconciliationReportResponse represents the full reconciliation report.
type ReconciliationReportResponse struct {
	TotalBanks       int                        `json:"total_banks"`
	ReconciledBanks  int                        `json:"reconciled_banks"`
	Discrepancies    []*ReconciliationResponse  `json:"discrepancies"`
	SettlementIssues []*SettlementIssueResponse `json:"settlement_issues"`
	Consistent       bool                       `json:"consistent"`
	CheckedAt        time.Time                  `json:"checked_at"`
}

// ReconciliationReportFromUseCase converts a reconciliation report.
func ReconciliationReportFromUseCase(r *usecase.ReconciliationReport) *ReconciliationReportResponse {
	resp := &ReconciliationReportResponse{
		TotalBanks:       r.TotalBanks,
		ReconciledBanks:  r.ReconciledBanks,
		Discrepancies:    make([]*ReconciliationResponse, len(r.Discrepancies)),
		SettlementIssues: make([]*SettlementIssueResponse, len(r.SettlementIssues)),
		Consistent:       r.Consistent,
		CheckedAt:        r.CheckedAt,
	}
	for i, d := range r.Discrepancies {
		resp.Discrepancies[i] = ReconciliationFromUseCase(d)
	}
	for i, s := range r.SettlementIssues {
		resp.SettlementIssues[i] = &SettlementIssueResponse{
			EntryID:        s.EntryID,
			Paid:           s.Paid,
			ExpectedAmount: money(s.ExpectedAmount),
			MovementCount:  s.MovementCount,
			MovementTotal:  money(s.MovementTotal),
		}
	}
	return resp
}

// ObligationTotalsResponse represents one side of the book.
type ObligationTotalsResponse struct {
	PendingCount int    `json:"pending_count"`
	Pending      string `json:"pending"`
	OverdueCount int    `json:"overdue_count"`
	Overdue      string `json:"overdue"`
	SettledCount int    `json:"settled_count"`
	Settled      string `json:"settled"`
}

func totalsFromUseCase(t usecase.ObligationTotals) ObligationTotalsResponse {
	return ObligationTotalsResponse{
		PendingCount: t.PendingCount,
		Pending:      money(t.Pending),
		OverdueCount: t.OverdueCount,
		Overdue:      money(t.Overdue),
		SettledCount: t.SettledCount,
		Settled:      money(t.Settled),
	}
}

// BankPositionResponse is one bank's line in the summary.
type BankPositionResponse struct {
	BankID  string `json:"bank_id"`
	Name    string `json:"name"`
	Balance string `json:"balance"`
}

// SummaryResponse represents the management summary.
type SummaryResponse struct {
	Payables          ObligationTotalsResponse `json:"payables"`
	Receivables       ObligationTotalsResponse `json:"receivables"`
	Banks             []BankPositionResponse   `json:"banks"`
	CashPosition      string                   `json:"cash_position"`
	ProjectedPosition string                   `json:"projected_position"`
	GeneratedAt       time.Time                `json:"generated_at"`
}

// SummaryFromUseCase converts a summary.
func SummaryFromUseCase(s *usecase.Summary) *SummaryResponse {
	resp := &SummaryResponse{
		Payables:          totalsFromUseCase(s.Payables),
		Receivables:       totalsFromUseCase(s.Receivables),
		Banks:             make([]BankPositionResponse, len(s.Banks)),
		CashPosition:      money(s.CashPosition),
		ProjectedPosition: money(s.ProjectedPosition),
		GeneratedAt:       s.GeneratedAt,
	}
	for i, b := range s.Banks {
		resp.Banks[i] = BankPositionResponse{BankID: b.BankID, Name: b.Name, Balance: money(b.Balance)}
	}
	return resp
}

// SyncAcceptedResponse is returned when a sync run starts.
type SyncAcceptedResponse struct {
	Resource string `json:"resource"`
	Status   string `json:"status"`
}

// SyncResultResponse represents a finished sync run.
type SyncResultResponse struct {
	Resource   string    `json:"resource"`
	Pages      int       `json:"pages"`
	Fetched    int       `json:"fetched"`
	Rejected   int       `json:"rejected"`
	Created    int       `json:"created"`
	Updated    int       `json:"updated"`
	Unchanged  int       `json:"unchanged"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Error      string    `json:"error,omitempty"`
}

// SyncStatusResponse reports the last run and whether a run is active, per
// resource.
type SyncStatusResponse struct {
	Running map[string]bool               `json:"running"`
	Last    map[string]SyncResultResponse `json:"last"`
}

// SyncStatusFromUseCase converts sync status.
func SyncStatusFromUseCase(last map[usecase.SyncResource]usecase.SyncResult, running map[usecase.SyncResource]bool) *SyncStatusResponse {
	resp := &SyncStatusResponse{
		Running: make(map[string]bool, len(running)),
		Last:    make(map[string]SyncResultResponse, len(last)),
	}
	for r, busy := range running {
		resp.Running[string(r)] = busy
	}
	for r, res := range last {
		resp.Last[string(r)] = SyncResultResponse{
			Resource:   string(res.Resource),
			Pages:      res.Pages,
			Fetched:    res.Fetched,
			Rejected:   res.Rejected,
			Created:    res.Created,
			Updated:    res.Updated,
			Unchanged:  res.Unchanged,
			StartedAt:  res.StartedAt,
			FinishedAt: res.FinishedAt,
			Error:      res.Error,
		}
	}
	return resp
}
