package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func strPtr(s string) *string { return &s }

func TestEntry_SignedAmount(t *testing.T) {
	tests := []struct {
		name     string
		typ      EntryType
		amount   string
		expected string
	}{
		{name: "receivable credits", typ: EntryTypeReceivable, amount: "100.25", expected: "100.25"},
		{name: "payable debits", typ: EntryTypePayable, amount: "100.25", expected: "-100.25"},
		{name: "bank keeps sign", typ: EntryTypeBank, amount: "-30", expected: "-30"},
		{name: "zero payable", typ: EntryTypePayable, amount: "0", expected: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Entry{Type: tt.typ, Amount: decimal.RequireFromString(tt.amount)}
			if got := e.SignedAmount(); !got.Equal(decimal.RequireFromString(tt.expected)) {
				t.Errorf("SignedAmount() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestEntry_Status(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name     string
		entry    Entry
		expected EntryStatus
	}{
		{name: "paid", entry: Entry{Paid: true, DueDate: &past}, expected: EntryStatusPaid},
		{name: "pending without due date", entry: Entry{}, expected: EntryStatusPending},
		{name: "pending before due date", entry: Entry{DueDate: &future}, expected: EntryStatusPending},
		{name: "overdue", entry: Entry{DueDate: &past}, expected: EntryStatusOverdue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.Status(now); got != tt.expected {
				t.Errorf("Status() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestEntry_MarkPaid(t *testing.T) {
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	e := &Entry{ID: "e1", Type: EntryTypePayable}

	if err := e.MarkPaid("ana", at); err != nil {
		t.Fatalf("MarkPaid() error = %v", err)
	}
	if !e.Paid || e.PaidBy != "ana" || e.PaidAt == nil || !e.PaidAt.Equal(at) {
		t.Fatalf("unexpected entry after MarkPaid: %+v", e)
	}

	if err := e.MarkPaid("bruno", at.Add(time.Hour)); !errors.Is(err, ErrEntryAlreadyPaid) {
		t.Fatalf("second MarkPaid() error = %v, want ErrEntryAlreadyPaid", err)
	}
	if e.PaidBy != "ana" {
		t.Errorf("PaidBy changed to %q", e.PaidBy)
	}
}

func TestEntry_Settlement(t *testing.T) {
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("no bank", func(t *testing.T) {
		e := &Entry{ID: "e1", Type: EntryTypePayable, Amount: decimal.NewFromInt(10)}
		_ = e.MarkPaid("ana", at)
		if got := e.Settlement("m1"); got != nil {
			t.Fatalf("expected no settlement, got %+v", got)
		}
	})

	t.Run("unpaid", func(t *testing.T) {
		e := &Entry{ID: "e1", Type: EntryTypePayable, BankID: strPtr("b1")}
		if got := e.Settlement("m1"); got != nil {
			t.Fatalf("expected no settlement, got %+v", got)
		}
	})

	t.Run("payable produces negative movement", func(t *testing.T) {
		e := &Entry{
			ID:          "e1",
			Type:        EntryTypePayable,
			BankID:      strPtr("b1"),
			EntityID:    strPtr("s1"),
			Description: "Rent",
			Amount:      decimal.RequireFromString("1200.50"),
		}
		_ = e.MarkPaid("ana", at)

		m := e.Settlement("m1")
		if m == nil {
			t.Fatal("expected settlement")
		}
		if m.ID != "m1" || m.Type != EntryTypeBank || !m.Paid {
			t.Errorf("unexpected movement header: %+v", m)
		}
		if m.Description != "Automatic movement: Rent" {
			t.Errorf("Description = %q", m.Description)
		}
		if !m.Amount.Equal(decimal.RequireFromString("-1200.50")) {
			t.Errorf("Amount = %s", m.Amount)
		}
		if m.EntityID != nil {
			t.Errorf("movement should not reference an entity")
		}
		if m.BankID == nil || *m.BankID != "b1" {
			t.Errorf("BankID = %v", m.BankID)
		}
		if m.SourceEntryID == nil || *m.SourceEntryID != "e1" {
			t.Errorf("SourceEntryID = %v", m.SourceEntryID)
		}
		if m.User != "ana" || !m.Date.Equal(at) {
			t.Errorf("User/Date = %s/%s", m.User, m.Date)
		}

		*e.BankID = "changed"
		if *m.BankID != "b1" {
			t.Errorf("movement shares bank id pointer with source")
		}
	})
}

func TestEntryFilter_Matches(t *testing.T) {
	paid := true
	unpaid := false
	e := &Entry{Type: EntryTypeReceivable, BankID: strPtr("b1"), EntityID: strPtr("c1"), Paid: true}

	tests := []struct {
		name   string
		filter EntryFilter
		want   bool
	}{
		{name: "empty", filter: EntryFilter{}, want: true},
		{name: "type match", filter: EntryFilter{Type: EntryTypeReceivable}, want: true},
		{name: "type mismatch", filter: EntryFilter{Type: EntryTypeBank}, want: false},
		{name: "obligations", filter: EntryFilter{ObligationsOnly: true}, want: true},
		{name: "paid", filter: EntryFilter{Paid: &paid}, want: true},
		{name: "unpaid", filter: EntryFilter{Paid: &unpaid}, want: false},
		{name: "bank", filter: EntryFilter{BankID: "b1"}, want: true},
		{name: "other bank", filter: EntryFilter{BankID: "b2"}, want: false},
		{name: "entity", filter: EntryFilter{EntityID: "c1"}, want: true},
		{name: "other entity", filter: EntryFilter{EntityID: "c2"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(e); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}

	movement := &Entry{Type: EntryTypeBank}
	if (EntryFilter{ObligationsOnly: true}).Matches(movement) {
		t.Error("bank entry matched obligations filter")
	}
}

func TestSortEntries(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []*Entry{
		{ID: "01A", Date: t0},
		{ID: "01C", Date: t0.Add(time.Hour)},
		{ID: "01B", Date: t0},
	}

	SortEntries(entries)

	want := []string{"01C", "01B", "01A"}
	for i, id := range want {
		if entries[i].ID != id {
			t.Fatalf("position %d = %s, want %s", i, entries[i].ID, id)
		}
	}
}
