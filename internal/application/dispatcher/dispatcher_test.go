package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/garyjia/signage-ops/internal/domain/entity"
	"github.com/garyjia/signage-ops/internal/domain/event"
)

// mockLogger implements Logger for testing
type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) HasError(msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.errors {
		if e == msg {
			return true
		}
	}
	return false
}

func submitted(id string) *event.Event {
	return event.NewEvent(event.TypeRequestSubmitted, entity.ApprovalRequest{ID: id}, nil)
}

func TestBus_SubscribeAndList(t *testing.T) {
	bus := NewBus(WithLogger(&mockLogger{}))
	noop := func(ctx context.Context, evt *event.Event) error { return nil }

	bus.Subscribe(event.TypeRequestSubmitted, "journal", noop)
	bus.SubscribeAsync(event.TypeRequestSubmitted, "metrics", noop)
	bus.Subscribe(event.TypeRequestSubmitted, "", noop)

	handlers := bus.Handlers(event.TypeRequestSubmitted)
	if len(handlers) != 3 {
		t.Fatalf("expected 3 handlers, got %d", len(handlers))
	}
	if handlers[0].Name != "journal" || handlers[0].Async {
		t.Errorf("unexpected first handler %+v", handlers[0])
	}
	if !handlers[1].Async {
		t.Error("expected second handler to be async")
	}
	if handlers[2].Name != "handler-2" {
		t.Errorf("expected generated name handler-2, got %s", handlers[2].Name)
	}
	if handlers[0].Handler != nil {
		t.Error("Handlers must not expose handler functions")
	}
	if len(bus.Handlers(event.TypeEffectFailed)) != 0 {
		t.Error("expected no handlers for unsubscribed type")
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	var calls []string
	record := func(name string) Handler {
		return func(ctx context.Context, evt *event.Event) error {
			calls = append(calls, name)
			return nil
		}
	}

	bus.Subscribe(event.TypeRequestApproved, "a", record("a"))
	bus.Subscribe(event.TypeRequestApproved, "b", record("b"))
	bus.Unsubscribe(event.TypeRequestApproved, "a")

	if err := bus.Publish(context.Background(), event.NewEvent(event.TypeRequestApproved, entity.ApprovalRequest{ID: "x"}, nil)); err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}
	if len(calls) != 1 || calls[0] != "b" {
		t.Errorf("expected only b to run, got %v", calls)
	}
}

func TestBus_PublishRunsEveryHandlerAndJoinsErrors(t *testing.T) {
	logger := &mockLogger{}
	bus := NewBus(WithLogger(logger))
	errA := errors.New("journal down")
	errC := errors.New("feed down")
	var order []string

	bus.Subscribe(event.TypeRequestSubmitted, "a", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "a")
		return errA
	})
	bus.Subscribe(event.TypeRequestSubmitted, "b", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "b")
		return nil
	})
	bus.Subscribe(event.TypeRequestSubmitted, "c", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "c")
		return errC
	})

	err := bus.Publish(context.Background(), submitted("ADV-1"))

	if fmt.Sprint(order) != "[a b c]" {
		t.Errorf("expected handlers in order, got %v", order)
	}
	if !errors.Is(err, errA) || !errors.Is(err, errC) {
		t.Errorf("expected joined error with both causes, got %v", err)
	}
	if !logger.HasError("Handler error") {
		t.Error("expected handler errors to be logged")
	}
}

func TestBus_RecoversFromPanic(t *testing.T) {
	logger := &mockLogger{}
	bus := NewBus(WithLogger(logger))
	ran := false

	bus.Subscribe(event.TypeRequestSubmitted, "panicky", func(ctx context.Context, evt *event.Event) error {
		panic("boom")
	})
	bus.Subscribe(event.TypeRequestSubmitted, "after", func(ctx context.Context, evt *event.Event) error {
		ran = true
		return nil
	})

	err := bus.Publish(context.Background(), submitted("ADV-1"))

	if err == nil {
		t.Fatal("expected error from panicking handler")
	}
	if !ran {
		t.Error("handler after the panic must still run")
	}
	if !logger.HasError("Handler panic recovered") {
		t.Error("expected panic to be logged")
	}
}

func TestBus_AsyncHandlersDoNotFailPublish(t *testing.T) {
	bus := NewBus(WithLogger(&mockLogger{}))
	var count atomic.Int32
	release := make(chan struct{})

	for i := 0; i < 3; i++ {
		bus.SubscribeAsync(event.TypeRequestRejected, fmt.Sprintf("h%d", i), func(ctx context.Context, evt *event.Event) error {
			<-release
			count.Add(1)
			return errors.New("ignored")
		})
	}

	err := bus.Publish(context.Background(), event.NewEvent(event.TypeRequestRejected, entity.ApprovalRequest{ID: "LV-1"}, nil))
	if err != nil {
		t.Fatalf("async handler errors must not surface, got %v", err)
	}
	close(release)

	if err := bus.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if count.Load() != 3 {
		t.Errorf("expected Close to wait for 3 async handlers, got %d", count.Load())
	}
}

func TestBus_Close(t *testing.T) {
	t.Run("waits for slow async handler", func(t *testing.T) {
		bus := NewBus()
		done := atomic.Bool{}
		bus.SubscribeAsync(event.TypeRequestSubmitted, "slow", func(ctx context.Context, evt *event.Event) error {
			time.Sleep(20 * time.Millisecond)
			done.Store(true)
			return nil
		})

		if err := bus.Publish(context.Background(), submitted("ADV-1")); err != nil {
			t.Fatalf("Publish() failed: %v", err)
		}
		if err := bus.Close(); err != nil {
			t.Fatalf("Close() failed: %v", err)
		}
		if !done.Load() {
			t.Error("Close returned before async handler finished")
		}
	})

	t.Run("rejects publish and double close", func(t *testing.T) {
		logger := &mockLogger{}
		bus := NewBus(WithLogger(logger))
		called := false
		bus.Subscribe(event.TypeRequestSubmitted, "h", func(ctx context.Context, evt *event.Event) error {
			called = true
			return nil
		})

		if err := bus.Close(); err != nil {
			t.Fatalf("Close() failed: %v", err)
		}
		if err := bus.Publish(context.Background(), submitted("ADV-1")); !errors.Is(err, ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
		if called {
			t.Error("handler ran after Close")
		}
		if err := bus.Close(); !errors.Is(err, ErrClosed) {
			t.Errorf("expected ErrClosed on double close, got %v", err)
		}
	})
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := NewBus()
	var count atomic.Int32
	bus.Subscribe(event.TypeRequestSubmitted, "counter", func(ctx context.Context, evt *event.Event) error {
		count.Add(1)
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = bus.Publish(context.Background(), submitted(fmt.Sprintf("ADV-%d", i)))
		}(i)
	}
	wg.Wait()

	if count.Load() != 50 {
		t.Errorf("expected 50 deliveries, got %d", count.Load())
	}
}
