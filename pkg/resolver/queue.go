package resolver

import (
	"context"
	"io"
	"sync"

	"github.com/aretw0/vaudio/pkg/domain"
	"github.com/aretw0/vaudio/pkg/ports"
)

// Queue buffers resolved commands for a single consumer in resolution order.
//
// The consumer takes commands with Next. Calling Next again acknowledges the
// command it returned before, so a producer using Deliver resumes only once its
// command has been applied.
type Queue struct {
	mu      sync.Mutex
	items   []domain.Command
	pushed  uint64
	applied uint64
	busy    bool
	closed  bool
	changed chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{changed: make(chan struct{})}
}

// broadcastLocked wakes every goroutine waiting on the queue.
func (q *Queue) broadcastLocked() {
	close(q.changed)
	q.changed = make(chan struct{})
}

// ackLocked marks the command handed out by the last Next as applied.
func (q *Queue) ackLocked() {
	if q.busy {
		q.busy = false
		q.applied++
		q.broadcastLocked()
	}
}

// Push appends cmd without waiting for it to be applied.
func (q *Queue) Push(cmd domain.Command) error {
	_, _, err := q.push(cmd)
	return err
}

func (q *Queue) push(cmd domain.Command) (seq uint64, reentrant bool, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return 0, false, domain.ErrResolverStopped
	}
	q.items = append(q.items, cmd)
	q.pushed++
	q.broadcastLocked()
	return q.pushed, q.busy, nil
}

// Deliver appends cmd and waits until the consumer has applied it, the queue is
// closed or ctx is done. A command pushed while the consumer is mid-command
// (typically from inside that command) does not wait.
func (q *Queue) Deliver(ctx context.Context, cmd domain.Command) error {
	seq, reentrant, err := q.push(cmd)
	if err != nil || reentrant {
		return err
	}
	for {
		q.mu.Lock()
		if q.applied >= seq || q.closed {
			q.mu.Unlock()
			return nil
		}
		changed := q.changed
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

// Next acknowledges the previous command and suspends until another one is
// available. It returns io.EOF once the queue is closed.
func (q *Queue) Next(ctx context.Context) (domain.Command, error) {
	q.mu.Lock()
	q.ackLocked()
	for {
		if q.closed {
			q.mu.Unlock()
			return domain.Command{}, io.EOF
		}
		if len(q.items) > 0 {
			cmd := q.items[0]
			q.items = q.items[1:]
			q.busy = true
			q.mu.Unlock()
			return cmd, nil
		}
		changed := q.changed
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return domain.Command{}, ctx.Err()
		case <-changed:
		}
		q.mu.Lock()
	}
}

// Len returns the number of commands not yet handed out.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close drops undelivered commands and releases every waiter.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.items = nil
	q.broadcastLocked()
}

// Sink is the run loop side of a Resolver: what the resolver emits is queued and
// handed out one command at a time.
type Sink struct {
	resolver *Resolver
	queue    *Queue

	mu          sync.Mutex
	unsubscribe func()
}

// NewSink creates a sink reading from r.
func NewSink(r *Resolver) *Sink {
	return &Sink{resolver: r, queue: NewQueue()}
}

// Initialize subscribes to the resolver. Calling it twice is a no-op.
func (s *Sink) Initialize(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe == nil {
		s.unsubscribe = s.resolver.Subscribe(s.deliver)
	}
	return nil
}

func (s *Sink) deliver(cmd domain.Command) {
	if err := s.queue.Deliver(context.Background(), cmd); err != nil {
		s.resolver.logger.Debug("command dropped", "command", cmd.Key, "error", err)
	}
}

// Next suspends until the next resolved command.
func (s *Sink) Next(ctx context.Context) (domain.Command, error) {
	return s.queue.Next(ctx)
}

// Cleanup unsubscribes and closes the queue. Next then returns io.EOF.
func (s *Sink) Cleanup() {
	s.mu.Lock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.mu.Unlock()
	s.queue.Close()
}

var _ ports.CommandSource = (*Sink)(nil)
