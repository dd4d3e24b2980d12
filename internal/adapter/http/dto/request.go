package dto

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ariondjunior/tapajos/internal/domain"
	"github.com/ariondjunior/tapajos/internal/usecase"
)

// CreateEntityRequest represents a request to register a client or supplier.
type CreateEntityRequest struct {
	Name     string `json:"name"`
	IsClient bool   `json:"is_client"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateEntityRequest) ToUseCaseInput() usecase.CreateEntityInput {
	return usecase.CreateEntityInput{
		Name:     r.Name,
		IsClient: r.IsClient,
	}
}

// CreateBankRequest represents a request to register a bank account.
type CreateBankRequest struct {
	Name           string          `json:"name"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateBankRequest) ToUseCaseInput() usecase.CreateBankInput {
	return usecase.CreateBankInput{
		Name:           r.Name,
		InitialBalance: r.InitialBalance,
	}
}

// AddEntryRequest represents a request to record a payable or receivable.
type AddEntryRequest struct {
	EntityID    *string         `json:"entity_id,omitempty"`
	BankID      *string         `json:"bank_id,omitempty"`
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Paid        bool            `json:"paid,omitempty"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	User        string          `json:"user,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *AddEntryRequest) ToUseCaseInput() usecase.AddEntryInput {
	return usecase.AddEntryInput{
		EntityID:    r.EntityID,
		BankID:      r.BankID,
		Type:        domain.EntryType(strings.ToLower(strings.TrimSpace(r.Type))),
		Description: r.Description,
		Amount:      r.Amount,
		Paid:        r.Paid,
		DueDate:     r.DueDate,
		User:        r.User,
	}
}

// PayEntryRequest represents a request to settle an entry. The body is
// optional.
type PayEntryRequest struct {
	User string     `json:"user,omitempty"`
	Date *time.Time `json:"date,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *PayEntryRequest) ToUseCaseInput(entryID string) usecase.PayEntryInput {
	return usecase.PayEntryInput{
		EntryID: entryID,
		User:    r.User,
		Date:    r.Date,
	}
}
