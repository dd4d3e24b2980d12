package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariondjunior/tapajos/internal/adapter/http/middleware"
	"github.com/ariondjunior/tapajos/internal/infrastructure/config"
	"github.com/ariondjunior/tapajos/internal/infrastructure/eventpublisher"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		StorageDriver:  config.StorageMemory,
		SnapshotPath:   filepath.Join(t.TempDir(), "ledger.json"),
		EventsSink:     config.EventsNone,
		RemotePageSize: 50,
		RemoteWorkers:  2,
	}
}

func testContext() context.Context {
	return zerolog.Nop().WithContext(context.Background())
}

func TestOpenEvents(t *testing.T) {
	cfg := testConfig(t)

	ev, err := openEvents(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, eventpublisher.NopPublisher{}, ev.publisher)

	cfg.EventsSink = config.EventsLog
	ev, err = openEvents(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &eventpublisher.AsyncPublisher{}, ev.publisher)

	cfg.EventsSink = config.EventsKafka
	cfg.KafkaBrokers = nil
	_, err = openEvents(cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestOpenRemote(t *testing.T) {
	cfg := testConfig(t)
	assert.Nil(t, openRemote(cfg))

	cfg.RemoteAPIURL = "http://remote.local"
	assert.NotNil(t, openRemote(cfg))
}

func TestNewApp_SnapshotSurvivesRestart(t *testing.T) {
	cfg := testConfig(t)
	ctx := testContext()

	a, err := newApp(ctx, cfg)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/banks/", strings.NewReader(`{"name":"Caixa","initial_balance":"12.5"}`)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.NoError(t, a.shutdown(ctx))
	_, err = os.Stat(cfg.SnapshotPath)
	require.NoError(t, err)

	restarted, err := newApp(ctx, cfg)
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	restarted.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/banks/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"balance":"12.50"`)
}

func TestNewApp_HealthAndMetrics(t *testing.T) {
	cfg := testConfig(t)
	cfg.SnapshotPath = ""
	a, err := newApp(testContext(), cfg)
	require.NoError(t, err)

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		rec := httptest.NewRecorder()
		a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestNewApp_AuthEnabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.AuthEnabled = true
	cfg.JWTSecret = "secret"

	a, err := newApp(testContext(), cfg)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/entries/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNewApp_RedisIdempotency(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.SnapshotPath = ""
	cfg.RedisURL = "redis://" + mr.Addr()
	cfg.RedisKeyPrefix = "it:"

	ctx := testContext()
	a, err := newApp(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.shutdown(ctx) })

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/banks/", strings.NewReader(`{"name":"Caixa","initial_balance":"10"}`))
		req.Header.Set(middleware.IdempotencyKeyHeader, "bank-1")
		rec := httptest.NewRecorder()
		a.handler.ServeHTTP(rec, req)
		return rec
	}

	first := post()
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	assert.True(t, mr.Exists("it:idempotency:anonymous:POST:/api/v1/banks/:bank-1"))

	replay := post()
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get(middleware.IdempotencyReplayHeader))
	assert.JSONEq(t, first.Body.String(), replay.Body.String())

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	mr.Close()
	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis")
}

func TestNewApp_RedisFailureClosesEvents(t *testing.T) {
	var closed bool
	orig := openEventsFunc
	openEventsFunc = func(cfg *config.Config, logger zerolog.Logger) (*events, error) {
		ev, err := orig(cfg, logger)
		if err != nil {
			return nil, err
		}
		release := ev.close
		ev.close = func() error {
			closed = true
			return release()
		}
		return ev, nil
	}
	t.Cleanup(func() { openEventsFunc = orig })

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(t)
	cfg.EventsSink = config.EventsKafka
	cfg.KafkaBrokers = []string{"127.0.0.1:9"}
	cfg.KafkaTopic = "tapajos.test"
	cfg.RedisURL = "redis://" + addr

	_, err := newApp(testContext(), cfg)
	require.Error(t, err)
	assert.True(t, closed, "event sink must be closed when redis is unreachable")
}

func TestMigrateDB_UnknownDirection(t *testing.T) {
	err := migrateDB(testContext(), testConfig(t), []string{"sideways"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sideways")
}
