package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/ariondjunior/tapajos/internal/domain"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := New(registry)

	if m.EntriesCreated == nil || m.HTTPRequests == nil || m.BankBalance == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.HTTPRequests.WithLabelValues("GET", "/health", "200").Inc()
	m.RateLimitHits.Inc()

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestNewTwiceOnSeparateRegistries(t *testing.T) {
	New(prometheus.NewRegistry())
	New(prometheus.NewRegistry())
}

func TestLedgerMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.EntryCreated(domain.EntryTypePayable)
	m.EntryCreated(domain.EntryTypePayable)
	m.EntrySettled(domain.EntryTypeReceivable)
	m.BankMovement("b1", decimal.RequireFromString("1234.56"))

	if got := testutil.ToFloat64(m.EntriesCreated.WithLabelValues("payable")); got != 2 {
		t.Fatalf("entries created = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.EntriesSettled.WithLabelValues("receivable")); got != 1 {
		t.Fatalf("entries settled = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.BankMovements.WithLabelValues("b1")); got != 1 {
		t.Fatalf("bank movements = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.BankBalance.WithLabelValues("b1")); got != 1234.56 {
		t.Fatalf("bank balance = %v, want 1234.56", got)
	}
}
