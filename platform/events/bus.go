package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"timebank_backend/platform/logger"
)

// handlerTimeout bounds a single handler invocation on the async path so a
// stuck subscriber cannot leak goroutines indefinitely.
const handlerTimeout = 30 * time.Second

// InMemoryBus is a process-local Bus implementation. Subscribers of an event
// are invoked in registration order; on the async path each event is
// dispatched on its own goroutine and handler errors are logged, never
// propagated back to the publisher.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *logger.Logger
}

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe registers a handler for a specific event type.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish dispatches the event asynchronously. Handler failures are logged
// and swallowed: subscribers are best-effort by contract.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	handlers := b.handlersFor(event.EventName())
	if len(handlers) == 0 {
		return
	}

	go func() {
		// Detach from the request context: the publisher's request may
		// complete before the handlers run.
		hctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()

		for _, h := range handlers {
			if err := h.Handle(hctx, event); err != nil {
				b.log.Error("event handler failed",
					"event", event.EventName(),
					"error", err.Error(),
				)
			}
		}
	}()
}

// PublishSync dispatches the event and waits for all handlers, returning the
// first handler error encountered.
func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	var firstErr error
	for _, h := range b.handlersFor(event.EventName()) {
		if err := h.Handle(ctx, event); err != nil {
			b.log.Error("event handler failed",
				"event", event.EventName(),
				"error", err.Error(),
			)
			if firstErr == nil {
				firstErr = fmt.Errorf("handle %s: %w", event.EventName(), err)
			}
		}
	}
	return firstErr
}

func (b *InMemoryBus) handlersFor(eventName string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	registered := b.handlers[eventName]
	handlers := make([]Handler, len(registered))
	copy(handlers, registered)
	return handlers
}

var _ Bus = (*InMemoryBus)(nil)
