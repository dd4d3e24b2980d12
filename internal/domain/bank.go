package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankSource tells where a bank record came from.
type BankSource string

const (
	BankSourceLocal  BankSource = "local"
	BankSourceRemote BankSource = "remote"
)

// Bank is a bank account with a running balance.
//
// Balance is written only by the ledger mutator. RemoteBalance and SyncedAt
// hold what the remote backend last reported and are display data.
type Bank struct {
	ID             string
	Name           string
	Balance        decimal.Decimal
	InitialBalance decimal.Decimal
	ExternalID     string
	Source         BankSource
	RemoteBalance  *decimal.Decimal
	SyncedAt       *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ApplyDelta returns the balance after adding delta, rounded to cents.
func (b *Bank) ApplyDelta(delta decimal.Decimal) decimal.Decimal {
	return Round2(b.Balance.Add(delta))
}

// IsRemote reports whether the bank was imported by remote sync.
func (b *Bank) IsRemote() bool {
	return b.Source == BankSourceRemote
}
