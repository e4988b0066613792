// Package dispatcher fans approval events out to observers (journal, metrics,
// feed broadcaster) and applies decision side effects to collaborators.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/garyjia/signage-ops/internal/domain/event"
)

// ErrClosed is returned when publishing on a closed bus
var ErrClosed = errors.New("event bus is closed")

// Bus routes approval events to subscribed handlers
type Bus interface {
	// Subscribe registers a handler that runs inline with Publish
	Subscribe(eventType event.Type, name string, handler Handler)

	// SubscribeAsync registers a handler that runs on its own goroutine
	SubscribeAsync(eventType event.Type, name string, handler Handler)

	// Unsubscribe removes a handler by name
	Unsubscribe(eventType event.Type, name string)

	// Publish delivers evt to every handler of its type. Inline handlers all
	// run even when one fails; their errors are joined.
	Publish(ctx context.Context, evt *event.Event) error

	// Handlers lists the subscriptions for an event type
	Handlers(eventType event.Type) []HandlerInfo

	// Close rejects further events and waits for running async handlers
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type eventBus struct {
	mu       sync.RWMutex
	handlers map[event.Type][]HandlerInfo
	logger   Logger

	wg     sync.WaitGroup
	closed atomic.Bool
}

// Option configures the bus
type Option func(*eventBus)

// WithLogger sets a logger for the bus
func WithLogger(logger Logger) Option {
	return func(b *eventBus) {
		b.logger = logger
	}
}

// NewBus creates an event bus
func NewBus(opts ...Option) Bus {
	b := &eventBus{
		handlers: make(map[event.Type][]HandlerInfo),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *eventBus) Subscribe(eventType event.Type, name string, handler Handler) {
	b.add(HandlerInfo{Name: name, EventType: eventType, Handler: handler})
}

func (b *eventBus) SubscribeAsync(eventType event.Type, name string, handler Handler) {
	b.add(HandlerInfo{Name: name, EventType: eventType, Async: true, Handler: handler})
}

func (b *eventBus) add(info HandlerInfo) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if info.Name == "" {
		info.Name = fmt.Sprintf("handler-%d", len(b.handlers[info.EventType]))
	}
	b.handlers[info.EventType] = append(b.handlers[info.EventType], info)

	b.info("Handler registered",
		"event_type", info.EventType,
		"handler_name", info.Name,
		"async", info.Async,
	)
}

func (b *eventBus) Unsubscribe(eventType event.Type, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	handlers := b.handlers[eventType]
	filtered := make([]HandlerInfo, 0, len(handlers))
	for _, h := range handlers {
		if h.Name != name {
			filtered = append(filtered, h)
		}
	}
	b.handlers[eventType] = filtered

	b.info("Handler unregistered",
		"event_type", eventType,
		"handler_name", name,
	)
}

func (b *eventBus) Publish(ctx context.Context, evt *event.Event) error {
	if b.closed.Load() {
		b.error("Event dropped, bus is closed",
			"event_type", evt.Type,
			"request_id", evt.Request.ID,
		)
		return ErrClosed
	}

	b.mu.RLock()
	handlers := append([]HandlerInfo(nil), b.handlers[evt.Type]...)
	b.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if h.Async {
			b.wg.Add(1)
			go func(h HandlerInfo) {
				defer b.wg.Done()
				if err := b.safeExecute(ctx, evt, h); err != nil {
					b.error("Async handler error",
						"event_type", evt.Type,
						"request_id", evt.Request.ID,
						"handler_name", h.Name,
						"error", err,
					)
				}
			}(h)
			continue
		}

		if err := b.safeExecute(ctx, evt, h); err != nil {
			b.error("Handler error",
				"event_type", evt.Type,
				"request_id", evt.Request.ID,
				"handler_name", h.Name,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("handler %s: %w", h.Name, err))
		}
	}

	return errors.Join(errs...)
}

func (b *eventBus) Handlers(eventType event.Type) []HandlerInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]HandlerInfo, len(b.handlers[eventType]))
	for i, h := range b.handlers[eventType] {
		result[i] = HandlerInfo{Name: h.Name, EventType: h.EventType, Async: h.Async}
	}
	return result
}

func (b *eventBus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	b.info("Closing event bus, waiting for async handlers")
	b.wg.Wait()
	b.info("Event bus closed")
	return nil
}

// safeExecute runs a handler with panic recovery
func (b *eventBus) safeExecute(ctx context.Context, evt *event.Event, h HandlerInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
			b.error("Handler panic recovered",
				"event_type", evt.Type,
				"request_id", evt.Request.ID,
				"handler_name", h.Name,
				"panic", r,
			)
		}
	}()

	return h.Handler(ctx, evt)
}

func (b *eventBus) info(msg string, kv ...interface{}) {
	if b.logger != nil {
		b.logger.Info(msg, kv...)
	}
}

func (b *eventBus) error(msg string, kv ...interface{}) {
	if b.logger != nil {
		b.logger.Error(msg, kv...)
	}
}
