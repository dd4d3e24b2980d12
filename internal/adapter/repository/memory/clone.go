package memory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ariondjunior/tapajos/internal/domain"
)

func cloneEntity(e *domain.Entity) *domain.Entity {
	c := *e
	return &c
}

func cloneBank(b *domain.Bank) *domain.Bank {
	c := *b
	c.RemoteBalance = cloneDecimal(b.RemoteBalance)
	c.SyncedAt = cloneTime(b.SyncedAt)
	return &c
}

func cloneEntry(e *domain.Entry) *domain.Entry {
	c := *e
	c.EntityID = cloneString(e.EntityID)
	c.BankID = cloneString(e.BankID)
	c.DueDate = cloneTime(e.DueDate)
	c.PaidAt = cloneTime(e.PaidAt)
	c.SourceEntryID = cloneString(e.SourceEntryID)
	return &c
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneDecimal(p *decimal.Decimal) *decimal.Decimal {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
