package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ariondjunior/tapajos/internal/domain"
)

// PayOutcome reports what PayEntry did.
type PayOutcome string

const (
	PayOutcomePaid        PayOutcome = "paid"
	PayOutcomeNotFound    PayOutcome = "not_found"
	PayOutcomeAlreadyPaid PayOutcome = "already_paid"
)

// LedgerUseCase is the only writer of entries and bank balances.
//
// Every transition into paid goes through settle: the entry is marked paid
// and, when it is linked to a bank, the signed amount is applied to the bank
// balance and a synthetic bank entry is appended, all in one transaction.
type LedgerUseCase struct {
	txManager  TransactionManager
	entityRepo EntityRepository
	bankRepo   BankRepository
	entryRepo  EntryRepository
	idGen      IDGenerator
	retrier    Retrier
	publisher  EventPublisher
	metrics    LedgerMetrics
	now        func() time.Time
}

// LedgerOption configures optional LedgerUseCase collaborators.
type LedgerOption func(*LedgerUseCase)

// WithRetrier retries whole mutations on transient storage errors.
func WithRetrier(r Retrier) LedgerOption {
	return func(uc *LedgerUseCase) { uc.retrier = r }
}

// WithEventPublisher publishes domain events after each commit.
func WithEventPublisher(p EventPublisher) LedgerOption {
	return func(uc *LedgerUseCase) { uc.publisher = p }
}

// WithLedgerMetrics records mutator activity.
func WithLedgerMetrics(m LedgerMetrics) LedgerOption {
	return func(uc *LedgerUseCase) { uc.metrics = m }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) LedgerOption {
	return func(uc *LedgerUseCase) { uc.now = now }
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	entityRepo EntityRepository,
	bankRepo BankRepository,
	entryRepo EntryRepository,
	idGen IDGenerator,
	opts ...LedgerOption,
) *LedgerUseCase {
	uc := &LedgerUseCase{
		txManager:  txManager,
		entityRepo: entityRepo,
		bankRepo:   bankRepo,
		entryRepo:  entryRepo,
		idGen:      idGen,
		now:        func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// AddEntryInput represents input for recording an obligation.
type AddEntryInput struct {
	EntityID    *string
	BankID      *string
	Type        domain.EntryType
	Description string
	Amount      decimal.Decimal
	Paid        bool
	DueDate     *time.Time
	User        string
}

// AddEntryResult is the created entry plus the bank movement its settlement
// produced, if any.
type AddEntryResult struct {
	Entry    *domain.Entry
	Movement *domain.Entry
	Bank     *domain.Bank
}

// AddEntry records a payable or receivable. When input.Paid is set the entry
// is settled in the same transaction exactly as PayEntry would settle it.
func (uc *LedgerUseCase) AddEntry(ctx context.Context, input AddEntryInput) (*AddEntryResult, error) {
	if !input.Type.IsValid() {
		return nil, domain.ErrInvalidEntryType
	}
	if !input.Type.IsObligation() {
		return nil, domain.ErrSyntheticEntryType
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}
	if err := domain.ValidateDescription(input.Description); err != nil {
		return nil, err
	}
	if err := domain.ValidateUser(input.User); err != nil {
		return nil, err
	}

	input.User = actorOrDefault(input.User)
	input.EntityID = normalizeRef(input.EntityID)
	input.BankID = normalizeRef(input.BankID)

	// Entities are immutable and never deleted, so checking outside the
	// transaction is enough.
	if input.EntityID != nil {
		if _, err := uc.entityRepo.GetByID(ctx, *input.EntityID); err != nil {
			return nil, err
		}
	}

	var (
		result *AddEntryResult
		events []domain.Event
	)

	err := uc.withRetry(ctx, func() error {
		var err error
		result, events, err = uc.addEntryTx(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.EntryCreated(result.Entry.Type)
		if result.Entry.Paid {
			uc.metrics.EntrySettled(result.Entry.Type)
		}
		if result.Bank != nil && result.Movement != nil {
			uc.metrics.BankMovement(result.Bank.ID, result.Bank.Balance)
		}
	}
	uc.publish(ctx, events)

	return result, nil
}

func (uc *LedgerUseCase) addEntryTx(ctx context.Context, input AddEntryInput) (*AddEntryResult, []domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	var bank *domain.Bank
	if input.BankID != nil {
		bank, err = uc.bankRepo.GetByIDForUpdate(ctx, tx, *input.BankID)
		if err != nil {
			return nil, nil, err
		}
	}

	now := uc.now()
	entry := &domain.Entry{
		ID:          uc.idGen.Generate(),
		Date:        now,
		User:        input.User,
		EntityID:    input.EntityID,
		BankID:      input.BankID,
		Type:        input.Type,
		Description: input.Description,
		Amount:      input.Amount,
		DueDate:     input.DueDate,
	}

	if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, nil, err
	}

	events := []domain.Event{domain.NewEntryCreatedEvent(uc.idGen.Generate(), entry, now)}
	result := &AddEntryResult{Entry: entry}

	if input.Paid {
		movement, settleEvents, err := uc.settle(ctx, tx, entry, bank, input.User, now)
		if err != nil {
			return nil, nil, err
		}
		events = append(events, settleEvents...)
		result.Movement = movement
		result.Bank = bank
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	return result, events, nil
}

// PayEntryInput represents input for settling an entry.
type PayEntryInput struct {
	EntryID string
	User    string
	Date    *time.Time
}

// PayEntryResult describes a PayEntry call. Entry, Movement and Bank are set
// only when Outcome is PayOutcomePaid; Movement and Bank only when the entry
// is linked to a bank.
type PayEntryResult struct {
	Outcome  PayOutcome
	Entry    *domain.Entry
	Movement *domain.Entry
	Bank     *domain.Bank
}

// PayEntry settles a pending entry. Unknown and already-paid entries are a
// no-op reported through the outcome, not as an error.
func (uc *LedgerUseCase) PayEntry(ctx context.Context, input PayEntryInput) (*PayEntryResult, error) {
	if err := domain.ValidateUser(input.User); err != nil {
		return nil, err
	}
	input.User = actorOrDefault(input.User)

	var (
		result *PayEntryResult
		events []domain.Event
	)

	err := uc.withRetry(ctx, func() error {
		var err error
		result, events, err = uc.payEntryTx(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	if result.Outcome == PayOutcomePaid {
		if uc.metrics != nil {
			uc.metrics.EntrySettled(result.Entry.Type)
			if result.Bank != nil {
				uc.metrics.BankMovement(result.Bank.ID, result.Bank.Balance)
			}
		}
		uc.publish(ctx, events)
	}

	return result, nil
}

func (uc *LedgerUseCase) payEntryTx(ctx context.Context, input PayEntryInput) (*PayEntryResult, []domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	entry, err := uc.entryRepo.GetByIDForUpdate(ctx, tx, input.EntryID)
	if errors.Is(err, domain.ErrEntryNotFound) {
		return &PayEntryResult{Outcome: PayOutcomeNotFound}, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	if entry.Paid {
		return &PayEntryResult{Outcome: PayOutcomeAlreadyPaid}, nil, nil
	}

	var bank *domain.Bank
	if entry.BankID != nil {
		bank, err = uc.bankRepo.GetByIDForUpdate(ctx, tx, *entry.BankID)
		if err != nil {
			return nil, nil, err
		}
	}

	at := uc.now()
	if input.Date != nil {
		at = input.Date.UTC()
	}

	movement, events, err := uc.settle(ctx, tx, entry, bank, input.User, at)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	return &PayEntryResult{
		Outcome:  PayOutcomePaid,
		Entry:    entry,
		Movement: movement,
		Bank:     bank,
	}, events, nil
}

// settle moves entry to paid and applies its bank movement. bank must be the
// locked bank row when entry.BankID is set.
func (uc *LedgerUseCase) settle(
	ctx context.Context,
	tx Transaction,
	entry *domain.Entry,
	bank *domain.Bank,
	user string,
	at time.Time,
) (*domain.Entry, []domain.Event, error) {
	if err := entry.MarkPaid(user, at); err != nil {
		return nil, nil, err
	}

	if err := uc.entryRepo.MarkPaid(ctx, tx, entry.ID, user, at); err != nil {
		return nil, nil, err
	}

	events := []domain.Event{domain.NewEntryPaidEvent(uc.idGen.Generate(), entry)}

	if entry.BankID == nil {
		return nil, events, nil
	}
	if bank == nil {
		return nil, nil, domain.ErrBankNotFound
	}

	movement := entry.Settlement(uc.idGen.Generate())

	if err := uc.entryRepo.Create(ctx, tx, movement); err != nil {
		return nil, nil, err
	}

	newBalance := bank.ApplyDelta(movement.Amount)
	if err := uc.bankRepo.UpdateBalance(ctx, tx, bank.ID, newBalance, uc.now()); err != nil {
		return nil, nil, err
	}
	bank.Balance = newBalance

	events = append(events, domain.NewBankMovementEvent(uc.idGen.Generate(), movement, bank))

	return movement, events, nil
}

func (uc *LedgerUseCase) withRetry(ctx context.Context, op func() error) error {
	if uc.retrier == nil {
		return op()
	}
	return uc.retrier.Retry(ctx, op)
}

func (uc *LedgerUseCase) publish(ctx context.Context, events []domain.Event) {
	if uc.publisher == nil {
		return
	}

	for _, ev := range events {
		if err := uc.publisher.Publish(ctx, ev); err != nil {
			zerolog.Ctx(ctx).Warn().
				Err(err).
				Str("event_id", ev.ID).
				Str("event_type", ev.Type).
				Msg("failed to publish event")
		}
	}
}

func actorOrDefault(user string) string {
	if user == "" {
		return DefaultUser
	}
	return user
}

func normalizeRef(ref *string) *string {
	if ref == nil || *ref == "" {
		return nil
	}
	v := *ref
	return &v
}
