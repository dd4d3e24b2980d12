package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariondjunior/tapajos/internal/adapter/http/dto"
	"github.com/ariondjunior/tapajos/internal/adapter/http/handler"
	apimiddleware "github.com/ariondjunior/tapajos/internal/adapter/http/middleware"
	"github.com/ariondjunior/tapajos/internal/adapter/repository/memory"
	"github.com/ariondjunior/tapajos/internal/domain"
	"github.com/ariondjunior/tapajos/internal/infrastructure/auth"
	"github.com/ariondjunior/tapajos/internal/infrastructure/idgen"
	"github.com/ariondjunior/tapajos/internal/infrastructure/metrics"
	"github.com/ariondjunior/tapajos/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = apimiddleware.NewRateLimiter(1, 1, nil)
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	assert.Equal(t, http.StatusOK, rec1.Code)

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	assert.Equal(t, http.StatusTooManyRequests, rec2.Code)
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/entities/", strings.NewReader(`{"name":"Acme"}`))
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.True(t, store.checkCalled)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	require.True(t, ok, "router does not implement chi.Routes")

	seen := map[string]bool{}
	err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	})
	require.NoError(t, err)

	expected := []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"POST /api/v1/entities/",
		"GET /api/v1/entities/{id}",
		"POST /api/v1/banks/",
		"GET /api/v1/banks/{id}/statement",
		"GET /api/v1/banks/{id}/reconciliation",
		"POST /api/v1/entries/",
		"GET /api/v1/entries/",
		"POST /api/v1/entries/{id}/pay",
		"GET /api/v1/reports/summary",
		"GET /api/v1/reports/reconciliation",
		"POST /api/v1/sync/{resource}",
		"GET /api/v1/sync/status",
	}

	for _, route := range expected {
		assert.True(t, seen[route], "expected route %s to be registered", route)
	}
}

func TestNewRouter_PayablePaidOnCreationMovesBank(t *testing.T) {
	router := NewRouter(newRouterConfig())

	var bank dto.BankResponse
	doJSON(t, router, http.MethodPost, "/api/v1/banks/", `{"name":"Caixa","initial_balance":"100"}`, "", http.StatusCreated, &bank)

	var added dto.MutationResponse
	body := `{"bank_id":"` + bank.ID + `","type":"payable","description":"Rent","amount":"30","paid":true,"user":"ana"}`
	doJSON(t, router, http.MethodPost, "/api/v1/entries/", body, "", http.StatusCreated, &added)

	require.NotNil(t, added.Movement)
	assert.Equal(t, "-30.00", added.Movement.Amount)
	assert.Equal(t, "Automatic movement: Rent", added.Movement.Description)
	assert.Equal(t, "70.00", added.Bank.Balance)

	var again dto.MutationResponse
	doJSON(t, router, http.MethodPost, "/api/v1/entries/"+added.Entry.ID+"/pay", "", "", http.StatusOK, &again)
	assert.Equal(t, string(usecase.PayOutcomeAlreadyPaid), again.Outcome)

	var missing dto.MutationResponse
	doJSON(t, router, http.MethodPost, "/api/v1/entries/nope/pay", "", "", http.StatusOK, &missing)
	assert.Equal(t, string(usecase.PayOutcomeNotFound), missing.Outcome)

	var recon dto.ReconciliationReportResponse
	doJSON(t, router, http.MethodGet, "/api/v1/reports/reconciliation", "", "", http.StatusOK, &recon)
	assert.True(t, recon.Consistent)
}

func TestNewRouter_ReceivablePaidLater(t *testing.T) {
	router := NewRouter(newRouterConfig())

	var bank dto.BankResponse
	doJSON(t, router, http.MethodPost, "/api/v1/banks/", `{"name":"Caixa","initial_balance":"0"}`, "", http.StatusCreated, &bank)

	var added dto.MutationResponse
	body := `{"bank_id":"` + bank.ID + `","type":"receivable","description":"Invoice 7","amount":"10.555"}`
	doJSON(t, router, http.MethodPost, "/api/v1/entries/", body, "", http.StatusBadRequest, nil)

	body = `{"bank_id":"` + bank.ID + `","type":"receivable","description":"Invoice 7","amount":"10.55"}`
	doJSON(t, router, http.MethodPost, "/api/v1/entries/", body, "", http.StatusCreated, &added)
	assert.Nil(t, added.Movement)
	assert.Equal(t, "pending", added.Entry.Status)

	var paid dto.MutationResponse
	doJSON(t, router, http.MethodPost, "/api/v1/entries/"+added.Entry.ID+"/pay", `{"user":"bia"}`, "", http.StatusOK, &paid)
	assert.Equal(t, string(usecase.PayOutcomePaid), paid.Outcome)
	assert.Equal(t, "10.55", paid.Bank.Balance)
	assert.Equal(t, "bia", paid.Entry.PaidBy)

	var statement dto.StatementResponse
	doJSON(t, router, http.MethodGet, "/api/v1/banks/"+bank.ID+"/statement", "", "", http.StatusOK, &statement)
	require.Len(t, statement.Entries, 1)
	assert.Equal(t, "10.55", statement.Entries[0].Amount)
}

func TestNewRouter_AuthAndRoles(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Hour)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.Auth = apimiddleware.NewAuth(manager, nil)
	}))

	operator, err := manager.Generate(&domain.User{ID: "u-1", Email: "op@tapajos.local", Role: domain.RoleOperator})
	require.NoError(t, err)
	admin, err := manager.Generate(&domain.User{ID: "u-2", Email: "admin@tapajos.local", Role: domain.RoleAdmin})
	require.NoError(t, err)

	doJSON(t, router, http.MethodGet, "/api/v1/banks/", "", "", http.StatusUnauthorized, nil)
	doJSON(t, router, http.MethodPost, "/api/v1/banks/", `{"name":"Caixa"}`, operator, http.StatusForbidden, nil)

	var bank dto.BankResponse
	doJSON(t, router, http.MethodPost, "/api/v1/banks/", `{"name":"Caixa"}`, admin, http.StatusCreated, &bank)

	var added dto.MutationResponse
	body := `{"bank_id":"` + bank.ID + `","type":"payable","amount":"5","paid":true,"user":"spoofed"}`
	doJSON(t, router, http.MethodPost, "/api/v1/entries/", body, operator, http.StatusCreated, &added)
	assert.Equal(t, "op@tapajos.local", added.Entry.User)
	assert.Equal(t, "op@tapajos.local", added.Movement.User)
}

func TestNewRouter_SyncDisabled(t *testing.T) {
	router := NewRouter(newRouterConfig())

	doJSON(t, router, http.MethodPost, "/api/v1/sync/banks", "", "", http.StatusServiceUnavailable, nil)
	doJSON(t, router, http.MethodGet, "/api/v1/sync/status", "", "", http.StatusOK, nil)
}

func doJSON(t *testing.T, h http.Handler, method, path, body, token string, wantStatus int, out any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	require.Equal(t, wantStatus, rec.Code, "%s %s: %s", method, path, rec.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	store := memory.NewStore()
	txManager := memory.NewTxManager(store)
	entityRepo := memory.NewEntityRepository(store)
	bankRepo := memory.NewBankRepository(store)
	entryRepo := memory.NewEntryRepository(store)
	idGen := idgen.NewULIDGenerator()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	ledgerUC := usecase.NewLedgerUseCase(txManager, entityRepo, bankRepo, entryRepo, idGen, usecase.WithLedgerMetrics(m))
	bankUC := usecase.NewBankUseCase(bankRepo, entryRepo, idGen)
	reconUC := usecase.NewReconciliationUseCase(bankRepo, entryRepo)
	syncUC := usecase.NewSyncUseCase(nil, entityRepo, bankRepo, idGen)

	cfg := RouterConfig{
		EntityHandler: handler.NewEntityHandler(usecase.NewEntityUseCase(entityRepo, idGen)),
		BankHandler:   handler.NewBankHandler(bankUC, reconUC),
		EntryHandler:  handler.NewEntryHandler(ledgerUC, usecase.NewEntryUseCase(entryRepo)),
		ReportHandler: handler.NewReportHandler(usecase.NewReportUseCase(bankRepo, entryRepo), reconUC),
		SyncHandler:   handler.NewSyncHandler(context.Background(), syncUC),
		HealthHandler: handler.NewHealthHandler(handler.Check{Name: "storage", Ping: store.Ping}),
		Logger:        zerolog.Nop(),
		Metrics:       m,
		Gatherer:      reg,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubIdempotencyStore struct {
	checkCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return nil
}

func (s *stubIdempotencyStore) Release(ctx context.Context, key string) error {
	return nil
}
