// Package eventbus is a synchronous, typed publish/subscribe hub.
package eventbus

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/vaudio/internal/logging"
	"github.com/aretw0/vaudio/pkg/domain"
)

// Handler receives an event. A returned error is reported and never propagated to the publisher.
type Handler func(domain.Event) error

// Subscription identifies a registered handler.
type Subscription struct {
	kind domain.EventKind
	id   uint64
	all  bool
}

// Kind returns the event kind the subscription listens to. Wildcard subscriptions return "".
func (s Subscription) Kind() domain.EventKind { return s.kind }

type entry struct {
	id uint64
	fn Handler
}

// Bus delivers events to subscribers in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[domain.EventKind][]entry
	wildcard []entry
	nextID   uint64
	logger   *slog.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger configures the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = l
	}
}

// New creates an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		handlers: make(map[domain.EventKind][]entry),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers h for one event kind.
func (b *Bus) Subscribe(kind domain.EventKind, h Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.handlers[kind] = append(b.handlers[kind], entry{id: b.nextID, fn: h})
	return Subscription{kind: kind, id: b.nextID}
}

// SubscribeAll registers h for every event kind. Wildcard handlers run after the
// handlers of the specific kind.
func (b *Bus) SubscribeAll(h Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.wildcard = append(b.wildcard, entry{id: b.nextID, fn: h})
	return Subscription{id: b.nextID, all: true}
}

// Unsubscribe removes a handler. Unknown subscriptions are ignored.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub.all {
		b.wildcard = remove(b.wildcard, sub.id)
		return
	}
	b.handlers[sub.kind] = remove(b.handlers[sub.kind], sub.id)
	if len(b.handlers[sub.kind]) == 0 {
		delete(b.handlers, sub.kind)
	}
}

func remove(list []entry, id uint64) []entry {
	for i, e := range list {
		if e.id == id {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

// Clear drops every handler of a kind.
func (b *Bus) Clear(kind domain.EventKind) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, kind)
}

// ListenerCount returns the number of handlers registered for a kind, wildcards excluded.
func (b *Bus) ListenerCount(kind domain.EventKind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[kind])
}

// Publish delivers ev synchronously to the handlers registered at call time.
// A zero timestamp is filled in.
func (b *Bus) Publish(ev domain.Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = domain.NewEvent(ev.Kind).Timestamp
	}

	b.mu.RLock()
	targets := make([]entry, 0, len(b.handlers[ev.Kind])+len(b.wildcard))
	targets = append(targets, b.handlers[ev.Kind]...)
	targets = append(targets, b.wildcard...)
	b.mu.RUnlock()

	for _, t := range targets {
		if err := b.call(t.fn, ev); err != nil {
			b.report(ev, err)
		}
	}
}

func (b *Bus) call(h Handler, ev domain.Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return h(ev)
}

// report logs a handler failure and publishes it once as handler_error.
// Failures while handling handler_error itself are only logged.
func (b *Bus) report(ev domain.Event, err error) {
	b.logger.Error("event handler failed", "kind", ev.Kind, "error", err)
	if ev.Kind == domain.EventHandlerError {
		return
	}
	failure := domain.NewEvent(domain.EventHandlerError).With("source_kind", string(ev.Kind))
	failure.Err = err
	failure.Message = err.Error()
	b.Publish(failure)
}
