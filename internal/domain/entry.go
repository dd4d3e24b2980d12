package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// AutomaticMovementPrefix starts the description of every synthetic bank entry.
const AutomaticMovementPrefix = "Automatic movement: "

// EntryType classifies a ledger entry.
type EntryType string

const (
	EntryTypePayable    EntryType = "payable"
	EntryTypeReceivable EntryType = "receivable"
	EntryTypeBank       EntryType = "bank"
)

// IsValid checks if the type is known.
func (t EntryType) IsValid() bool {
	switch t {
	case EntryTypePayable, EntryTypeReceivable, EntryTypeBank:
		return true
	}
	return false
}

// IsObligation reports whether entries of this type are user-created obligations.
func (t EntryType) IsObligation() bool {
	return t == EntryTypePayable || t == EntryTypeReceivable
}

// EntryStatus is computed when an entry is read; only Paid is stored.
type EntryStatus string

const (
	EntryStatusPending EntryStatus = "pending"
	EntryStatusOverdue EntryStatus = "overdue"
	EntryStatusPaid    EntryStatus = "paid"
)

// Entry is a single ledger record.
type Entry struct {
	ID            string
	Date          time.Time
	User          string
	EntityID      *string
	BankID        *string
	Type          EntryType
	Description   string
	Amount        decimal.Decimal
	Paid          bool
	DueDate       *time.Time
	PaidBy        string
	PaidAt        *time.Time
	SourceEntryID *string
}

// SignedAmount returns the delta that settling the entry applies to its bank.
// Bank entries already carry their sign.
func (e *Entry) SignedAmount() decimal.Decimal {
	if e.Type == EntryTypePayable {
		return e.Amount.Neg()
	}
	return e.Amount
}

// Status derives the view-time label. Overdue is never persisted.
func (e *Entry) Status(now time.Time) EntryStatus {
	if e.Paid {
		return EntryStatusPaid
	}
	if e.DueDate != nil && e.DueDate.Before(now) {
		return EntryStatusOverdue
	}
	return EntryStatusPending
}

// MarkPaid moves a pending entry to paid and records who settled it and when.
func (e *Entry) MarkPaid(user string, at time.Time) error {
	if e.Paid {
		return ErrEntryAlreadyPaid
	}

	e.Paid = true
	e.PaidBy = user
	e.PaidAt = &at

	return nil
}

// Settlement builds the synthetic bank movement for a paid entry.
// It returns nil when the entry is not linked to a bank.
func (e *Entry) Settlement(id string) *Entry {
	if e.BankID == nil || !e.Paid || e.PaidAt == nil {
		return nil
	}

	bankID := *e.BankID
	sourceID := e.ID
	paidAt := *e.PaidAt

	return &Entry{
		ID:            id,
		Date:          paidAt,
		User:          e.PaidBy,
		BankID:        &bankID,
		Type:          EntryTypeBank,
		Description:   AutomaticMovementPrefix + e.Description,
		Amount:        e.SignedAmount(),
		Paid:          true,
		PaidBy:        e.PaidBy,
		PaidAt:        &paidAt,
		SourceEntryID: &sourceID,
	}
}

// EntryFilter narrows entry listings. Zero value matches everything.
type EntryFilter struct {
	Type            EntryType
	ObligationsOnly bool
	Paid            *bool
	BankID          string
	EntityID        string
	Limit           int
	Offset          int
}

// Matches reports whether e passes the filter.
func (f EntryFilter) Matches(e *Entry) bool {
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.ObligationsOnly && !e.Type.IsObligation() {
		return false
	}
	if f.Paid != nil && e.Paid != *f.Paid {
		return false
	}
	if f.BankID != "" && (e.BankID == nil || *e.BankID != f.BankID) {
		return false
	}
	if f.EntityID != "" && (e.EntityID == nil || *e.EntityID != f.EntityID) {
		return false
	}
	return true
}

// SortEntries orders entries newest first. Ties fall back to id, which is
// time-ordered for generated ULIDs.
func SortEntries(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.After(entries[j].Date)
		}
		return entries[i].ID > entries[j].ID
	})
}
