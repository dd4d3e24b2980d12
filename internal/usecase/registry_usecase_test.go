package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/ariondjunior/tapajos/internal/domain"
	"github.com/ariondjunior/tapajos/internal/usecase"
	"github.com/ariondjunior/tapajos/internal/usecase/mocks"
)

func TestEntityUseCase_CreateEntity(t *testing.T) {
	tests := []struct {
		name        string
		input       usecase.CreateEntityInput
		setupMocks  func(*mocks.MockEntityRepository, *mocks.MockIDGenerator)
		expectError error
	}{
		{
			name:  "client created",
			input: usecase.CreateEntityInput{Name: "  Acme Ltda ", IsClient: true},
			setupMocks: func(repo *mocks.MockEntityRepository, idGen *mocks.MockIDGenerator) {
				idGen.EXPECT().Generate().Return("ent-1")
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e *domain.Entity) error {
					if e.Name != "Acme Ltda" || !e.IsClient || e.ID != "ent-1" {
						t.Errorf("unexpected entity: %+v", e)
					}
					return nil
				})
			},
		},
		{
			name:        "empty name",
			input:       usecase.CreateEntityInput{Name: "   "},
			setupMocks:  func(*mocks.MockEntityRepository, *mocks.MockIDGenerator) {},
			expectError: domain.ErrInvalidName,
		},
		{
			name:  "repository error",
			input: usecase.CreateEntityInput{Name: "Parts Co"},
			setupMocks: func(repo *mocks.MockEntityRepository, idGen *mocks.MockIDGenerator) {
				idGen.EXPECT().Generate().Return("ent-2")
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
			},
			expectError: errors.New("disk full"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockEntityRepository(ctrl)
			idGen := mocks.NewMockIDGenerator(ctrl)
			tt.setupMocks(repo, idGen)

			uc := usecase.NewEntityUseCase(repo, idGen)
			entity, err := uc.CreateEntity(context.Background(), tt.input)

			if tt.expectError != nil {
				if err == nil {
					t.Fatalf("expected error %v, got nil", tt.expectError)
				}
				if !errors.Is(err, tt.expectError) && err.Error() != tt.expectError.Error() {
					t.Fatalf("expected error %v, got %v", tt.expectError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if entity == nil || entity.Kind() != "client" {
				t.Fatalf("unexpected entity: %+v", entity)
			}
		})
	}
}

func TestEntityUseCase_ListEntitiesPreservesOrder(t *testing.T) {
	f := newFixture(t)
	f.addEntity(t, "First", true)
	f.addEntity(t, "Second", false)
	f.addEntity(t, "Third", true)

	uc := usecase.NewEntityUseCase(f.entities, f.ids)

	all, err := uc.ListEntities(context.Background(), usecase.ListEntitiesInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 || all[0].Name != "First" || all[2].Name != "Third" {
		t.Fatalf("unexpected order: %v", all)
	}

	clients := true
	onlyClients, err := uc.ListEntities(context.Background(), usecase.ListEntitiesInput{IsClient: &clients})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(onlyClients) != 2 {
		t.Fatalf("expected 2 clients, got %d", len(onlyClients))
	}
}

func TestBankUseCase_CreateBankRoundsOpeningBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockBankRepository(ctrl)
	idGen := mocks.NewMockIDGenerator(ctrl)

	idGen.EXPECT().Generate().Return("bank-1")
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	uc := usecase.NewBankUseCase(repo, mocks.NewMockEntryRepository(ctrl), idGen)
	bank, err := uc.CreateBank(context.Background(), usecase.CreateBankInput{
		Name:           "Main",
		InitialBalance: decimal.RequireFromString("10.005"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bank.Balance.Equal(decimal.RequireFromString("10.01")) {
		t.Errorf("Balance = %s, want 10.01", bank.Balance)
	}
	if !bank.InitialBalance.Equal(bank.Balance) {
		t.Errorf("InitialBalance = %s, want %s", bank.InitialBalance, bank.Balance)
	}
	if bank.Source != domain.BankSourceLocal {
		t.Errorf("Source = %s", bank.Source)
	}
}

func TestBankUseCase_GetStatement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	bank := f.addBank(t, "0")
	other := f.addBank(t, "0")

	for _, bankID := range []string{bank.ID, bank.ID, other.ID} {
		_, err := f.ledger.AddEntry(ctx, usecase.AddEntryInput{
			BankID: &bankID,
			Type:   domain.EntryTypeReceivable,
			Amount: decimal.NewFromInt(1),
			Paid:   true,
		})
		if err != nil {
			t.Fatalf("AddEntry: %v", err)
		}
	}

	uc := usecase.NewBankUseCase(f.banks, f.entries, f.ids)
	stmt, err := uc.GetStatement(ctx, usecase.StatementInput{BankID: bank.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(stmt.Entries) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(stmt.Entries))
	}
	if !stmt.Entries[0].Date.After(stmt.Entries[1].Date) {
		t.Errorf("statement not newest first")
	}
	if !stmt.Bank.Balance.Equal(decimal.NewFromInt(2)) {
		t.Errorf("Balance = %s", stmt.Bank.Balance)
	}

	if _, err := uc.GetStatement(ctx, usecase.StatementInput{BankID: "missing"}); !errors.Is(err, domain.ErrBankNotFound) {
		t.Fatalf("expected ErrBankNotFound, got %v", err)
	}
}
