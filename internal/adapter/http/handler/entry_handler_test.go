package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ariondjunior/tapajos/internal/adapter/http/dto"
	"github.com/ariondjunior/tapajos/internal/domain"
	"github.com/ariondjunior/tapajos/internal/usecase"
)

type ledgerServiceStub struct {
	addFn  func(ctx context.Context, input usecase.AddEntryInput) (*usecase.AddEntryResult, error)
	payFn  func(ctx context.Context, input usecase.PayEntryInput) (*usecase.PayEntryResult, error)
	getFn  func(ctx context.Context, id string) (*domain.Entry, error)
	listFn func(ctx context.Context, input usecase.ListEntriesInput) ([]*domain.Entry, error)
}

func (s *ledgerServiceStub) AddEntry(ctx context.Context, input usecase.AddEntryInput) (*usecase.AddEntryResult, error) {
	return s.addFn(ctx, input)
}

func (s *ledgerServiceStub) PayEntry(ctx context.Context, input usecase.PayEntryInput) (*usecase.PayEntryResult, error) {
	return s.payFn(ctx, input)
}

func (s *ledgerServiceStub) GetEntry(ctx context.Context, id string) (*domain.Entry, error) {
	return s.getFn(ctx, id)
}

func (s *ledgerServiceStub) ListEntries(ctx context.Context, input usecase.ListEntriesInput) ([]*domain.Entry, error) {
	return s.listFn(ctx, input)
}

func TestEntryHandler_Add_PaidBankLinked(t *testing.T) {
	bankID := "bank-1"
	var captured usecase.AddEntryInput
	stub := &ledgerServiceStub{
		addFn: func(ctx context.Context, input usecase.AddEntryInput) (*usecase.AddEntryResult, error) {
			captured = input
			entry := &domain.Entry{
				ID: "e-1", BankID: &bankID, Type: input.Type, Description: input.Description,
				Amount: input.Amount, Paid: true, User: input.User, PaidBy: input.User,
			}
			return &usecase.AddEntryResult{
				Entry:    entry,
				Movement: &domain.Entry{ID: "m-1", BankID: &bankID, Type: domain.EntryTypeBank, Amount: input.Amount.Neg(), Paid: true},
				Bank:     &domain.Bank{ID: bankID, Balance: decimal.RequireFromString("70")},
			}, nil
		},
	}
	h := NewEntryHandler(stub, stub)

	body := `{"bank_id":"bank-1","type":" Payable ","description":"Rent","amount":"30","paid":true,"user":"ana"}`
	req := httptest.NewRequest(http.MethodPost, "/entries", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	h.Add(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Type != domain.EntryTypePayable || captured.User != "ana" || !captured.Paid {
		t.Fatalf("unexpected add input %+v", captured)
	}

	var resp dto.MutationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Movement == nil || resp.Movement.Amount != "-30.00" || resp.Bank.Balance != "70.00" {
		t.Fatalf("unexpected mutation %+v", resp)
	}
	if resp.Entry.SignedAmount != "-30.00" || resp.Entry.Status != "paid" {
		t.Fatalf("unexpected entry %+v", resp.Entry)
	}
}

func TestEntryHandler_Add_TokenUserWins(t *testing.T) {
	var captured usecase.AddEntryInput
	stub := &ledgerServiceStub{
		addFn: func(ctx context.Context, input usecase.AddEntryInput) (*usecase.AddEntryResult, error) {
			captured = input
			return &usecase.AddEntryResult{Entry: &domain.Entry{ID: "e-1", Type: input.Type, Amount: input.Amount}}, nil
		},
	}
	h := NewEntryHandler(stub, stub)

	req := httptest.NewRequest(http.MethodPost, "/entries", bytes.NewBufferString(`{"type":"receivable","amount":"10","user":"spoofed"}`))
	req = req.WithContext(domain.ContextWithUser(req.Context(), &domain.User{ID: "u-1", Email: "op@tapajos.local"}))
	rec := httptest.NewRecorder()

	h.Add(rec, req)

	if captured.User != "op@tapajos.local" {
		t.Fatalf("expected authenticated user, got %q", captured.User)
	}
}

func TestEntryHandler_Add_SyntheticType(t *testing.T) {
	stub := &ledgerServiceStub{
		addFn: func(ctx context.Context, input usecase.AddEntryInput) (*usecase.AddEntryResult, error) {
			return nil, domain.ErrSyntheticEntryType
		},
	}
	h := NewEntryHandler(stub, stub)

	req := httptest.NewRequest(http.MethodPost, "/entries", bytes.NewBufferString(`{"type":"bank","amount":"10"}`))
	rec := httptest.NewRecorder()

	h.Add(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestEntryHandler_Pay_Outcomes(t *testing.T) {
	tests := []struct {
		name    string
		outcome usecase.PayOutcome
	}{
		{"paid", usecase.PayOutcomePaid},
		{"unknown id", usecase.PayOutcomeNotFound},
		{"already paid", usecase.PayOutcomeAlreadyPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured usecase.PayEntryInput
			stub := &ledgerServiceStub{
				payFn: func(ctx context.Context, input usecase.PayEntryInput) (*usecase.PayEntryResult, error) {
					captured = input
					return &usecase.PayEntryResult{Outcome: tt.outcome}, nil
				},
			}
			h := NewEntryHandler(stub, stub)

			req := withURLParam(httptest.NewRequest(http.MethodPost, "/entries/e-1/pay", nil), "id", "e-1")
			rec := httptest.NewRecorder()

			h.Pay(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if captured.EntryID != "e-1" {
				t.Fatalf("expected entry id from URL, got %q", captured.EntryID)
			}

			var resp dto.MutationResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Outcome != string(tt.outcome) {
				t.Fatalf("expected outcome %s, got %s", tt.outcome, resp.Outcome)
			}
		})
	}
}

func TestEntryHandler_Pay_WithDate(t *testing.T) {
	var captured usecase.PayEntryInput
	stub := &ledgerServiceStub{
		payFn: func(ctx context.Context, input usecase.PayEntryInput) (*usecase.PayEntryResult, error) {
			captured = input
			return &usecase.PayEntryResult{Outcome: usecase.PayOutcomePaid}, nil
		},
	}
	h := NewEntryHandler(stub, stub)

	body := `{"user":"ana","date":"2024-03-01T10:00:00Z"}`
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/entries/e-1/pay", bytes.NewBufferString(body)), "id", "e-1")
	rec := httptest.NewRecorder()

	h.Pay(rec, req)

	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if captured.Date == nil || !captured.Date.Equal(want) || captured.User != "ana" {
		t.Fatalf("unexpected pay input %+v", captured)
	}
}

func TestEntryHandler_Get_NotFound(t *testing.T) {
	stub := &ledgerServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.Entry, error) {
			return nil, domain.ErrEntryNotFound
		},
	}
	h := NewEntryHandler(stub, stub)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/entries/x", nil), "id", "x")
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestEntryHandler_List_Filters(t *testing.T) {
	var captured usecase.ListEntriesInput
	stub := &ledgerServiceStub{
		listFn: func(ctx context.Context, input usecase.ListEntriesInput) ([]*domain.Entry, error) {
			captured = input
			return []*domain.Entry{{ID: "e-1", Type: domain.EntryTypeReceivable, Amount: decimal.RequireFromString("5")}}, nil
		},
	}
	h := NewEntryHandler(stub, stub)

	req := httptest.NewRequest(http.MethodGet, "/entries?type=receivable&paid=false&obligations=true&bank_id=b&entity_id=c", nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.Type != domain.EntryTypeReceivable || !captured.ObligationsOnly ||
		captured.Paid == nil || *captured.Paid || captured.BankID != "b" || captured.EntityID != "c" {
		t.Fatalf("unexpected list input %+v", captured)
	}

	var resp dto.ListEntriesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 1 || resp.Entries[0].Status != "pending" {
		t.Fatalf("unexpected list %+v", resp)
	}
}

func TestEntryHandler_List_BadPaid(t *testing.T) {
	h := NewEntryHandler(&ledgerServiceStub{}, &ledgerServiceStub{})

	req := httptest.NewRequest(http.MethodGet, "/entries?paid=sometimes", nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
