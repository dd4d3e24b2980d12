package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ariondjunior/tapajos/internal/domain"
)

// BankUseCase handles the bank registry.
type BankUseCase struct {
	bankRepo  BankRepository
	entryRepo EntryRepository
	idGen     IDGenerator
}

// NewBankUseCase creates a new BankUseCase.
func NewBankUseCase(bankRepo BankRepository, entryRepo EntryRepository, idGen IDGenerator) *BankUseCase {
	return &BankUseCase{
		bankRepo:  bankRepo,
		entryRepo: entryRepo,
		idGen:     idGen,
	}
}

// CreateBankInput represents input for creating a bank.
type CreateBankInput struct {
	Name           string
	InitialBalance decimal.Decimal
}

// CreateBank registers a bank account with its opening balance.
func (uc *BankUseCase) CreateBank(ctx context.Context, input CreateBankInput) (*domain.Bank, error) {
	if err := domain.ValidateName(input.Name); err != nil {
		return nil, err
	}
	if err := domain.ValidateBalance(input.InitialBalance); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	opening := domain.Round2(input.InitialBalance)

	bank := &domain.Bank{
		ID:             uc.idGen.Generate(),
		Name:           strings.TrimSpace(input.Name),
		Balance:        opening,
		InitialBalance: opening,
		Source:         domain.BankSourceLocal,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.bankRepo.Create(ctx, bank); err != nil {
		return nil, err
	}

	return bank, nil
}

// GetBank retrieves a bank by ID.
func (uc *BankUseCase) GetBank(ctx context.Context, id string) (*domain.Bank, error) {
	return uc.bankRepo.GetByID(ctx, id)
}

// ListBanksInput represents input for listing banks.
type ListBanksInput struct {
	Limit  int
	Offset int
}

// ListBanks lists banks in registration order.
func (uc *BankUseCase) ListBanks(ctx context.Context, input ListBanksInput) ([]*domain.Bank, error) {
	return uc.bankRepo.List(ctx, clampLimit(input.Limit), max(input.Offset, 0))
}

// StatementInput represents input for a bank statement.
type StatementInput struct {
	BankID string
	Limit  int
	Offset int
}

// Statement is the bank-movement history of one bank.
type Statement struct {
	Bank    *domain.Bank
	Entries []*domain.Entry
}

// GetStatement lists the bank movements of one bank, newest first.
func (uc *BankUseCase) GetStatement(ctx context.Context, input StatementInput) (*Statement, error) {
	bank, err := uc.bankRepo.GetByID(ctx, input.BankID)
	if err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.List(ctx, domain.EntryFilter{
		Type:   domain.EntryTypeBank,
		BankID: bank.ID,
		Limit:  clampLimit(input.Limit),
		Offset: max(input.Offset, 0),
	})
	if err != nil {
		return nil, err
	}

	return &Statement{Bank: bank, Entries: entries}, nil
}
