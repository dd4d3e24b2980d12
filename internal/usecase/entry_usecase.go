package usecase

import (
	"context"

	"github.com/ariondjunior/tapajos/internal/domain"
)

// EntryUseCase handles read access to the ledger.
type EntryUseCase struct {
	entryRepo EntryRepository
}

// NewEntryUseCase creates a new EntryUseCase.
func NewEntryUseCase(entryRepo EntryRepository) *EntryUseCase {
	return &EntryUseCase{
		entryRepo: entryRepo,
	}
}

// GetEntry retrieves an entry by ID.
func (uc *EntryUseCase) GetEntry(ctx context.Context, id string) (*domain.Entry, error) {
	return uc.entryRepo.GetByID(ctx, id)
}

// ListEntriesInput represents input for listing entries.
type ListEntriesInput struct {
	Type            domain.EntryType
	ObligationsOnly bool
	Paid            *bool
	BankID          string
	EntityID        string
	Limit           int
	Offset          int
}

// ListEntries lists entries newest first.
func (uc *EntryUseCase) ListEntries(ctx context.Context, input ListEntriesInput) ([]*domain.Entry, error) {
	if input.Type != "" && !input.Type.IsValid() {
		return nil, domain.ErrInvalidEntryType
	}

	return uc.entryRepo.List(ctx, domain.EntryFilter{
		Type:            input.Type,
		ObligationsOnly: input.ObligationsOnly,
		Paid:            input.Paid,
		BankID:          input.BankID,
		EntityID:        input.EntityID,
		Limit:           clampLimit(input.Limit),
		Offset:          max(input.Offset, 0),
	})
}
