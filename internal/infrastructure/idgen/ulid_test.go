package idgen

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestGenerateIsParseable(t *testing.T) {
	id := NewULIDGenerator().Generate()

	if _, err := ulid.ParseStrict(id); err != nil {
		t.Fatalf("expected valid ULID, got %q: %v", id, err)
	}
}

func TestGenerateIsMonotonicWithinMillisecond(t *testing.T) {
	g := NewULIDGenerator()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	g.now = func() time.Time { return fixed }

	prev := g.Generate()
	for i := 0; i < 100; i++ {
		next := g.Generate()
		if next <= prev {
			t.Fatalf("expected %s > %s", next, prev)
		}
		prev = next
	}
}

func TestGenerateIsUnique(t *testing.T) {
	g := NewULIDGenerator()
	seen := make(map[string]struct{}, 1000)

	for i := 0; i < 1000; i++ {
		id := g.Generate()
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = struct{}{}
	}
}
