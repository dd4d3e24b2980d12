package eventpublisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ariondjunior/tapajos/internal/domain"
)

type stubPublisher struct {
	mu         sync.Mutex
	published  []domain.Event
	errorsByID map[string]error
}

func (s *stubPublisher) Publish(_ context.Context, ev domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errorsByID[ev.ID]; err != nil {
		return err
	}
	s.published = append(s.published, ev)
	return nil
}

func (s *stubPublisher) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.published)
}

func TestAsyncPublisherDeliversQueuedEvents(t *testing.T) {
	sink := &stubPublisher{}
	p := NewAsyncPublisher(Config{Sink: sink, Logger: zerolog.Nop(), Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Start(ctx) }()

	for _, id := range []string{"evt-1", "evt-2", "evt-3"} {
		if err := p.Publish(context.Background(), domain.Event{ID: id, Type: domain.EventTypeEntryCreated}); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if sink.count() != 3 {
		t.Fatalf("expected 3 published events, got %d", sink.count())
	}
	if sink.published[0].ID != "evt-1" {
		t.Fatalf("expected FIFO delivery, got %s first", sink.published[0].ID)
	}
}

func TestAsyncPublisherContinuesOnPublishError(t *testing.T) {
	sink := &stubPublisher{errorsByID: map[string]error{"evt-1": errors.New("fail")}}
	p := NewAsyncPublisher(Config{Sink: sink, Logger: zerolog.Nop()})

	_ = p.Publish(context.Background(), domain.Event{ID: "evt-1"})
	_ = p.Publish(context.Background(), domain.Event{ID: "evt-2"})

	p.processBatch(context.Background())

	if sink.count() != 1 || sink.published[0].ID != "evt-2" {
		t.Fatalf("expected only evt-2 to be published, got %#v", sink.published)
	}
}

func TestAsyncPublisherQueueFull(t *testing.T) {
	p := NewAsyncPublisher(Config{Sink: &stubPublisher{}, Logger: zerolog.Nop(), QueueSize: 1})

	if err := p.Publish(context.Background(), domain.Event{ID: "a"}); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if err := p.Publish(context.Background(), domain.Event{ID: "b"}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestAsyncPublisherDrainsOnShutdown(t *testing.T) {
	sink := &stubPublisher{}
	p := NewAsyncPublisher(Config{Sink: sink, Logger: zerolog.Nop(), Interval: time.Hour})

	_ = p.Publish(context.Background(), domain.Event{ID: "a"})
	_ = p.Publish(context.Background(), domain.Event{ID: "b"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = p.Start(ctx)

	if sink.count() != 2 {
		t.Fatalf("expected queued events to be drained, got %d", sink.count())
	}
}

func TestLogPublisherWritesPayload(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(zerolog.New(&buf))

	err := p.Publish(context.Background(), domain.Event{
		ID:          "evt-1",
		Type:        domain.EventTypeEntryPaid,
		AggregateID: "entry-1",
		Payload:     domain.EntryPaidPayload{EntryID: "entry-1", PaidBy: "ana"},
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected json log line, got %q", buf.String())
	}
	payload, ok := line["payload"].(map[string]any)
	if !ok || payload["paid_by"] != "ana" {
		t.Fatalf("unexpected payload: %v", line["payload"])
	}
	if !strings.Contains(buf.String(), `"event_type":"entry.paid"`) {
		t.Fatalf("missing event type: %s", buf.String())
	}
}
