package resolver

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/vaudio/internal/logging"
	"github.com/aretw0/vaudio/pkg/domain"
)

// DefaultWindow is how long a lone signal waits for a partner.
const DefaultWindow = 500 * time.Millisecond

// Handler receives resolved commands.
type Handler func(domain.Command)

type subscriber struct {
	id uint64
	fn Handler
}

// Resolver turns a stream of signals into resolved commands using a timing window.
//
// Subscribers are invoked outside the internal lock, one command at a time and in
// resolution order. A subscriber may call Accept, Force or Cancel re-entrantly; the
// commands produced are queued and delivered after the current one.
type Resolver struct {
	window       time.Duration
	combinations bool
	sched        Scheduler
	logger       *slog.Logger

	mu            sync.Mutex
	pending       []domain.Signal
	pendingSource string
	timer         Timer
	generation    uint64
	stopped       bool

	subs   []subscriber
	nextID uint64

	queue      []domain.Command
	delivering bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithWindow sets the combination window. Non-positive values keep the default.
func WithWindow(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.window = d
		}
	}
}

// WithCombinations toggles pair detection. When disabled every signal is emitted at once.
func WithCombinations(enabled bool) Option {
	return func(r *Resolver) {
		r.combinations = enabled
	}
}

// WithScheduler replaces the clock and timer source.
func WithScheduler(s Scheduler) Option {
	return func(r *Resolver) {
		r.sched = s
	}
}

// WithLogger configures the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// New creates a resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		window:       DefaultWindow,
		combinations: true,
		sched:        SystemScheduler{},
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Window returns the configured combination window.
func (r *Resolver) Window() time.Duration { return r.window }

// Subscribe registers a handler and returns a function that removes it.
func (r *Resolver) Subscribe(h Handler) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.subs = append(r.subs, subscriber{id: id, fn: h})
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, s := range r.subs {
			if s.id == id {
				r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
				return
			}
		}
	}
}

// Accept feeds one signal. A zero timestamp means now.
func (r *Resolver) Accept(s domain.Signal, source string, at time.Time) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %d", domain.ErrInvalidSignal, int(s))
	}
	if at.IsZero() {
		at = r.sched.Now()
	}

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return domain.ErrResolverStopped
	}

	if !r.combinations {
		cmd, _ := domain.NewSingle(s, source, at)
		r.enqueueLocked(cmd)
		r.mu.Unlock()
		r.drain()
		return nil
	}

	if len(r.pending) == 0 {
		r.pending = append(r.pending[:0], s)
		r.pendingSource = source
		r.armLocked()
		r.mu.Unlock()
		r.logger.Debug("combination opened", "signal", s, "source", source)
		return nil
	}

	for _, p := range r.pending {
		if p == s {
			r.mu.Unlock()
			return nil
		}
	}

	first := r.pending[0]
	firstSource := r.pendingSource
	r.resetLocked()

	if cmd, err := domain.NewPair(first, s, firstSource, at); err == nil {
		r.enqueueLocked(cmd)
	} else {
		pair := []domain.Signal{first, s}
		sort.Slice(pair, func(i, j int) bool { return pair[i] < pair[j] })
		sources := map[domain.Signal]string{first: firstSource, s: source}
		for _, sig := range pair {
			single, _ := domain.NewSingle(sig, sources[sig], at)
			r.enqueueLocked(single)
		}
		r.logger.Debug("illegal combination split", "first", first, "second", s)
	}
	r.mu.Unlock()
	r.drain()
	return nil
}

// Force cancels any pending combination and emits key immediately.
// An empty source is tagged as manual.
func (r *Resolver) Force(key domain.CommandKey, source string) error {
	key, err := domain.ParseCommandKey(string(key))
	if err != nil {
		return err
	}
	if source == "" {
		source = domain.SourceManual
	}

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return domain.ErrResolverStopped
	}
	r.resetLocked()
	r.enqueueLocked(domain.Command{Key: key, Source: source, Timestamp: r.sched.Now()})
	r.mu.Unlock()
	r.drain()
	return nil
}

// Cancel discards a pending combination without emitting anything.
func (r *Resolver) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked()
}

// Stop cancels pending work, drops undelivered commands and rejects further input.
func (r *Resolver) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked()
	r.queue = nil
	r.stopped = true
}

// Pending returns the signals waiting for a partner.
func (r *Resolver) Pending() []domain.Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Signal(nil), r.pending...)
}

func (r *Resolver) armLocked() {
	r.generation++
	gen := r.generation
	r.timer = r.sched.AfterFunc(r.window, func() { r.expire(gen) })
}

// resetLocked clears the pending set and invalidates any armed timer.
func (r *Resolver) resetLocked() {
	r.generation++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.pending = r.pending[:0]
	r.pendingSource = ""
}

func (r *Resolver) expire(gen uint64) {
	r.mu.Lock()
	if gen != r.generation || len(r.pending) != 1 || r.stopped {
		r.mu.Unlock()
		return
	}
	cmd, _ := domain.NewSingle(r.pending[0], r.pendingSource, r.sched.Now())
	r.timer = nil
	r.resetLocked()
	r.enqueueLocked(cmd)
	r.mu.Unlock()
	r.drain()
}

func (r *Resolver) enqueueLocked(cmd domain.Command) {
	r.queue = append(r.queue, cmd)
}

// drain delivers queued commands. Only one goroutine delivers at a time; re-entrant
// and concurrent callers leave their commands to the active deliverer.
func (r *Resolver) drain() {
	r.mu.Lock()
	if r.delivering {
		r.mu.Unlock()
		return
	}
	r.delivering = true
	for len(r.queue) > 0 {
		cmd := r.queue[0]
		r.queue = r.queue[1:]
		subs := append([]subscriber(nil), r.subs...)
		r.mu.Unlock()

		r.logger.Debug("command resolved", "command", cmd.Key, "source", cmd.Source)
		for _, s := range subs {
			r.deliver(s, cmd)
		}

		r.mu.Lock()
	}
	r.delivering = false
	r.mu.Unlock()
}

func (r *Resolver) deliver(s subscriber, cmd domain.Command) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("resolver subscriber panicked", "command", cmd.Key, "panic", rec)
		}
	}()
	s.fn(cmd)
}
