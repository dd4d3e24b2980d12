package domain

import "time"

// Event types
const (
	EventTypeEntryCreated = "entry.created"
	EventTypeEntryPaid    = "entry.paid"
	EventTypeBankMovement = "bank.movement"
)

// Event is published after a ledger mutation commits.
type Event struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	AggregateID string    `json:"aggregate_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Payload     any       `json:"payload"`
}

// EntryCreatedPayload is the payload of entry.created.
type EntryCreatedPayload struct {
	EntryID     string  `json:"entry_id"`
	Type        string  `json:"type"`
	Amount      string  `json:"amount"`
	EntityID    *string `json:"entity_id,omitempty"`
	BankID      *string `json:"bank_id,omitempty"`
	Description string  `json:"description"`
	Paid        bool    `json:"paid"`
	User        string  `json:"user"`
}

// EntryPaidPayload is the payload of entry.paid.
type EntryPaidPayload struct {
	EntryID string    `json:"entry_id"`
	PaidBy  string    `json:"paid_by"`
	PaidAt  time.Time `json:"paid_at"`
}

// BankMovementPayload is the payload of bank.movement.
type BankMovementPayload struct {
	EntryID       string `json:"entry_id"`
	SourceEntryID string `json:"source_entry_id"`
	BankID        string `json:"bank_id"`
	Amount        string `json:"amount"`
	Balance       string `json:"balance"`
}

// NewEntryCreatedEvent builds entry.created for e.
func NewEntryCreatedEvent(id string, e *Entry, at time.Time) Event {
	return Event{
		ID:          id,
		Type:        EventTypeEntryCreated,
		AggregateID: e.ID,
		OccurredAt:  at,
		Payload: EntryCreatedPayload{
			EntryID:     e.ID,
			Type:        string(e.Type),
			Amount:      e.Amount.StringFixed(2),
			EntityID:    e.EntityID,
			BankID:      e.BankID,
			Description: e.Description,
			Paid:        e.Paid,
			User:        e.User,
		},
	}
}

// NewEntryPaidEvent builds entry.paid for a settled entry.
func NewEntryPaidEvent(id string, e *Entry) Event {
	ev := Event{
		ID:          id,
		Type:        EventTypeEntryPaid,
		AggregateID: e.ID,
		Payload:     EntryPaidPayload{EntryID: e.ID, PaidBy: e.PaidBy},
	}
	if e.PaidAt != nil {
		ev.OccurredAt = *e.PaidAt
		ev.Payload = EntryPaidPayload{EntryID: e.ID, PaidBy: e.PaidBy, PaidAt: *e.PaidAt}
	}
	return ev
}

// NewBankMovementEvent builds bank.movement for a synthetic entry and the
// resulting bank balance.
func NewBankMovementEvent(id string, movement *Entry, bank *Bank) Event {
	payload := BankMovementPayload{
		EntryID: movement.ID,
		BankID:  bank.ID,
		Amount:  movement.Amount.StringFixed(2),
		Balance: bank.Balance.StringFixed(2),
	}
	if movement.SourceEntryID != nil {
		payload.SourceEntryID = *movement.SourceEntryID
	}

	return Event{
		ID:          id,
		Type:        EventTypeBankMovement,
		AggregateID: bank.ID,
		OccurredAt:  movement.Date,
		Payload:     payload,
	}
}
