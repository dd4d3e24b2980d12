package usecase_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ariondjunior/tapajos/internal/adapter/repository/memory"
	"github.com/ariondjunior/tapajos/internal/domain"
	"github.com/ariondjunior/tapajos/internal/usecase"
)

type seqIDs struct {
	n atomic.Int64
}

func (g *seqIDs) Generate() string {
	return fmt.Sprintf("id-%06d", g.n.Add(1))
}

type recordingPublisher struct {
	events []domain.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.Event) error {
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	store     *memory.Store
	txManager *memory.TxManager
	entities  *memory.EntityRepository
	banks     *memory.BankRepository
	entries   *memory.EntryRepository
	ids       *seqIDs
	clock     time.Time
	publisher *recordingPublisher
	ledger    *usecase.LedgerUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	f := &fixture{
		store:     store,
		txManager: memory.NewTxManager(store),
		entities:  memory.NewEntityRepository(store),
		banks:     memory.NewBankRepository(store),
		entries:   memory.NewEntryRepository(store),
		ids:       &seqIDs{},
		clock:     time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		publisher: &recordingPublisher{},
	}

	f.ledger = usecase.NewLedgerUseCase(
		f.txManager,
		f.entities,
		f.banks,
		f.entries,
		f.ids,
		usecase.WithEventPublisher(f.publisher),
		usecase.WithClock(func() time.Time {
			f.clock = f.clock.Add(time.Second)
			return f.clock
		}),
	)

	return f
}

func (f *fixture) addBank(t *testing.T, balance string) *domain.Bank {
	t.Helper()
	uc := usecase.NewBankUseCase(f.banks, f.entries, f.ids)
	bank, err := uc.CreateBank(context.Background(), usecase.CreateBankInput{
		Name:           "Bank",
		InitialBalance: decimal.RequireFromString(balance),
	})
	require.NoError(t, err)
	return bank
}

func (f *fixture) addEntity(t *testing.T, name string, client bool) *domain.Entity {
	t.Helper()
	uc := usecase.NewEntityUseCase(f.entities, f.ids)
	entity, err := uc.CreateEntity(context.Background(), usecase.CreateEntityInput{Name: name, IsClient: client})
	require.NoError(t, err)
	return entity
}

func (f *fixture) balance(t *testing.T, bankID string) decimal.Decimal {
	t.Helper()
	bank, err := f.banks.GetByID(context.Background(), bankID)
	require.NoError(t, err)
	return bank.Balance
}

func (f *fixture) movements(t *testing.T, bankID string) []*domain.Entry {
	t.Helper()
	list, err := f.entries.List(context.Background(), domain.EntryFilter{Type: domain.EntryTypeBank, BankID: bankID})
	require.NoError(t, err)
	return list
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

type decimalMatcher struct {
	want decimal.Decimal
}

// decEq matches decimals by value, ignoring their internal scale.
func decEq(s string) decimalMatcher {
	return decimalMatcher{want: dec(s)}
}

func (m decimalMatcher) Matches(x any) bool {
	d, ok := x.(decimal.Decimal)
	return ok && d.Equal(m.want)
}

func (m decimalMatcher) String() string {
	return "is decimal " + m.want.String()
}
