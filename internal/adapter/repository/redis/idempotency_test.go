package redis

import (
	"context"
	"testing"
	"time"
)

func TestIdempotencyStore_KeyLayout(t *testing.T) {
	store, mr := newTestStore(t)

	if _, _, err := store.CheckAndSet(context.Background(), "abc", nil, time.Minute); err != nil {
		t.Fatalf("CheckAndSet: %v", err)
	}
	if !mr.Exists("test:idempotency:abc") {
		t.Fatalf("expected namespaced key, have %v", mr.Keys())
	}

	if got := NewIdempotencyStore(nil, "").prefix; got != "tapajos:idempotency:" {
		t.Fatalf("unexpected default prefix %q", got)
	}
}

func TestIdempotencyStore_ClaimThenSeeMarker(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	exists, resp, err := store.CheckAndSet(ctx, "pay-1", nil, time.Minute)
	if err != nil || exists || resp != nil {
		t.Fatalf("first claim: exists=%v resp=%v err=%v", exists, resp, err)
	}

	if v, _ := mr.Get("test:idempotency:pay-1"); v != ProcessingMarker {
		t.Fatalf("expected processing marker, got %q", v)
	}

	exists, resp, err = store.CheckAndSet(ctx, "pay-1", nil, time.Minute)
	if err != nil || !exists || string(resp) != ProcessingMarker {
		t.Fatalf("second claim: exists=%v resp=%s err=%v", exists, resp, err)
	}
}

func TestIdempotencyStore_ReplaysStoredResponse(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, "add-1", nil, time.Minute); err != nil {
		t.Fatalf("CheckAndSet: %v", err)
	}
	body := []byte(`{"status":201,"body":{"entry":{"id":"e-1"}}}`)
	if err := store.Update(ctx, "add-1", body, time.Minute); err != nil {
		t.Fatalf("Update: %v", err)
	}

	exists, resp, err := store.CheckAndSet(ctx, "add-1", nil, time.Minute)
	if err != nil || !exists || string(resp) != string(body) {
		t.Fatalf("expected stored response, got exists=%v resp=%s err=%v", exists, resp, err)
	}
}

func TestIdempotencyStore_KeyExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, "ttl", nil, time.Minute); err != nil {
		t.Fatalf("CheckAndSet: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	exists, _, err := store.CheckAndSet(ctx, "ttl", nil, time.Minute)
	if err != nil || exists {
		t.Fatalf("expected expired key to be claimable, got exists=%v err=%v", exists, err)
	}
}

func TestIdempotencyStore_Release(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, "retry", nil, time.Minute); err != nil {
		t.Fatalf("CheckAndSet: %v", err)
	}
	if err := store.Release(ctx, "retry"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if mr.Exists("test:idempotency:retry") {
		t.Fatal("expected key to be removed")
	}

	exists, _, err := store.CheckAndSet(ctx, "retry", nil, time.Minute)
	if err != nil || exists {
		t.Fatalf("expected released key to be claimable again, got exists=%v err=%v", exists, err)
	}
}
