package usecase

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ariondjunior/tapajos/internal/domain"
)

var (
	// ErrSyncInProgress is returned when a run for the same resource is active.
	ErrSyncInProgress = errors.New("sync already in progress")
	// ErrUnknownSyncResource is returned for resources other than banks and entities.
	ErrUnknownSyncResource = errors.New("unknown sync resource")
	// ErrSyncDisabled is returned when no remote backend is configured.
	ErrSyncDisabled = errors.New("remote sync is not configured")
	// ErrSyncPanicked is recorded when a run panics.
	ErrSyncPanicked = errors.New("sync panicked")
)

// RemoteBank is a validated bank account record from the remote backend.
type RemoteBank struct {
	ExternalID string
	Name       string
	Balance    decimal.Decimal
}

// RemoteEntity is a validated counterparty record from the remote backend.
type RemoteEntity struct {
	ExternalID string
	Name       string
	IsClient   bool
}

// FetchStats describes one paginated read.
type FetchStats struct {
	Pages    int
	Records  int
	Rejected int
}

// SyncResource names what a sync run imports.
type SyncResource string

const (
	SyncResourceBanks    SyncResource = "banks"
	SyncResourceEntities SyncResource = "entities"
)

// ParseSyncResource validates a resource name.
func ParseSyncResource(s string) (SyncResource, error) {
	switch r := SyncResource(strings.ToLower(s)); r {
	case SyncResourceBanks, SyncResourceEntities:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSyncResource, s)
}

// SyncResult summarizes a finished run.
type SyncResult struct {
	Resource   SyncResource
	Pages      int
	Fetched    int
	Rejected   int
	Created    int
	Updated    int
	Unchanged  int
	StartedAt  time.Time
	FinishedAt time.Time
	Error      string
}

// SyncUseCase projects remote records into the local registries.
//
// New records are registered with source remote. Known banks only get their
// name, remote balance and sync time refreshed; the ledger balance is never
// touched. Entities are immutable, so known entities are left alone.
type SyncUseCase struct {
	source     RemoteSource
	entityRepo EntityRepository
	bankRepo   BankRepository
	idGen      IDGenerator
	now        func() time.Time

	mu      sync.Mutex
	running map[SyncResource]bool
	last    map[SyncResource]SyncResult
	wg      sync.WaitGroup
}

// NewSyncUseCase creates a new SyncUseCase. source may be nil when no remote
// backend is configured.
func NewSyncUseCase(source RemoteSource, entityRepo EntityRepository, bankRepo BankRepository, idGen IDGenerator) *SyncUseCase {
	return &SyncUseCase{
		source:     source,
		entityRepo: entityRepo,
		bankRepo:   bankRepo,
		idGen:      idGen,
		now:        func() time.Time { return time.Now().UTC() },
		running:    make(map[SyncResource]bool),
		last:       make(map[SyncResource]SyncResult),
	}
}

// Run performs a sync and waits for it to finish.
func (uc *SyncUseCase) Run(ctx context.Context, resource SyncResource) (*SyncResult, error) {
	if err := uc.acquire(resource); err != nil {
		return nil, err
	}
	defer uc.release(resource)

	return uc.run(ctx, resource)
}

// Trigger starts a sync in the background and returns immediately. The run
// stops when ctx is cancelled.
func (uc *SyncUseCase) Trigger(ctx context.Context, resource SyncResource) error {
	if err := uc.acquire(resource); err != nil {
		return err
	}

	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()
		defer uc.release(resource)

		logger := zerolog.Ctx(ctx).With().Str("resource", string(resource)).Logger()

		result, err := uc.run(ctx, resource)
		if err != nil {
			logger.Error().Err(err).Msg("remote sync failed")
			return
		}

		logger.Info().
			Int("pages", result.Pages).
			Int("created", result.Created).
			Int("updated", result.Updated).
			Int("rejected", result.Rejected).
			Msg("remote sync finished")
	}()

	return nil
}

// Wait blocks until background runs started by Trigger have returned.
func (uc *SyncUseCase) Wait() {
	uc.wg.Wait()
}

// Status returns the last result per resource and which resources are running.
func (uc *SyncUseCase) Status() (map[SyncResource]SyncResult, map[SyncResource]bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	last := make(map[SyncResource]SyncResult, len(uc.last))
	for k, v := range uc.last {
		last[k] = v
	}
	running := make(map[SyncResource]bool, len(uc.running))
	for k, v := range uc.running {
		if v {
			running[k] = true
		}
	}

	return last, running
}

func (uc *SyncUseCase) acquire(resource SyncResource) error {
	if uc.source == nil {
		return ErrSyncDisabled
	}
	if resource != SyncResourceBanks && resource != SyncResourceEntities {
		return fmt.Errorf("%w: %q", ErrUnknownSyncResource, resource)
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.running[resource] {
		return ErrSyncInProgress
	}
	uc.running[resource] = true

	return nil
}

func (uc *SyncUseCase) release(resource SyncResource) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	delete(uc.running, resource)
}

func (uc *SyncUseCase) run(ctx context.Context, resource SyncResource) (*SyncResult, error) {
	result := &SyncResult{Resource: resource, StartedAt: uc.now()}

	err := uc.syncResource(ctx, resource, result)

	result.FinishedAt = uc.now()
	if err != nil {
		result.Error = err.Error()
	}

	uc.mu.Lock()
	uc.last[resource] = *result
	uc.mu.Unlock()

	if err != nil {
		return nil, err
	}

	return result, nil
}

// syncResource turns a panic in the remote adapter or the repositories into
// an error so a background run cannot take the process down.
func (uc *SyncUseCase) syncResource(ctx context.Context, resource SyncResource, result *SyncResult) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			zerolog.Ctx(ctx).Error().
				Interface("panic", rec).
				Str("resource", string(resource)).
				Bytes("stack", debug.Stack()).
				Msg("remote sync panicked")
			err = fmt.Errorf("%w: %v", ErrSyncPanicked, rec)
		}
	}()

	switch resource {
	case SyncResourceBanks:
		return uc.syncBanks(ctx, result)
	case SyncResourceEntities:
		return uc.syncEntities(ctx, result)
	}
	return nil
}

func (uc *SyncUseCase) syncBanks(ctx context.Context, result *SyncResult) error {
	records, stats, err := uc.source.FetchBanks(ctx)
	result.Pages, result.Fetched, result.Rejected = stats.Pages, stats.Records, stats.Rejected
	if err != nil {
		return fmt.Errorf("fetch banks: %w", err)
	}

	for _, rb := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := uc.now()

		existing, err := uc.bankRepo.GetByExternalID(ctx, rb.ExternalID)
		switch {
		case errors.Is(err, domain.ErrBankNotFound):
			balance := domain.Round2(rb.Balance)
			remote := balance
			bank := &domain.Bank{
				ID:             uc.idGen.Generate(),
				Name:           rb.Name,
				Balance:        balance,
				InitialBalance: balance,
				ExternalID:     rb.ExternalID,
				Source:         domain.BankSourceRemote,
				RemoteBalance:  &remote,
				SyncedAt:       &now,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := uc.bankRepo.Create(ctx, bank); err != nil {
				return fmt.Errorf("create bank %s: %w", rb.ExternalID, err)
			}
			result.Created++
		case err != nil:
			return fmt.Errorf("lookup bank %s: %w", rb.ExternalID, err)
		default:
			if err := uc.bankRepo.UpdateRemote(ctx, existing.ID, rb.Name, domain.Round2(rb.Balance), now); err != nil {
				return fmt.Errorf("refresh bank %s: %w", rb.ExternalID, err)
			}
			result.Updated++
		}
	}

	return nil
}

func (uc *SyncUseCase) syncEntities(ctx context.Context, result *SyncResult) error {
	records, stats, err := uc.source.FetchEntities(ctx)
	result.Pages, result.Fetched, result.Rejected = stats.Pages, stats.Records, stats.Rejected
	if err != nil {
		return fmt.Errorf("fetch entities: %w", err)
	}

	for _, re := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := uc.entityRepo.GetByExternalID(ctx, re.ExternalID)
		switch {
		case errors.Is(err, domain.ErrEntityNotFound):
			entity := &domain.Entity{
				ID:         uc.idGen.Generate(),
				Name:       re.Name,
				IsClient:   re.IsClient,
				ExternalID: re.ExternalID,
				CreatedAt:  uc.now(),
			}
			if err := uc.entityRepo.Create(ctx, entity); err != nil {
				return fmt.Errorf("create entity %s: %w", re.ExternalID, err)
			}
			result.Created++
		case err != nil:
			return fmt.Errorf("lookup entity %s: %w", re.ExternalID, err)
		default:
			result.Unchanged++
		}
	}

	return nil
}
