package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// raceWindow is how long an input error waits for a signal that may explain it.
// Some consoles deliver EOF for Ctrl+C slightly before SIGINT.
const raceWindow = 100 * time.Millisecond

// SignalManager cancels a run on an OS signal and tells interrupts apart from
// the parent context ending.
type SignalManager struct {
	parent context.Context
	ctx    context.Context
	stop   context.CancelFunc
}

// NewSignalManager listens for sigs on top of parent. No sigs means SIGINT and SIGTERM.
func NewSignalManager(parent context.Context, sigs ...os.Signal) *SignalManager {
	if parent == nil {
		parent = context.Background()
	}
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	ctx, stop := signal.NotifyContext(parent, sigs...)
	return &SignalManager{parent: parent, ctx: ctx, stop: stop}
}

// Context is done once a signal arrives or the parent ends.
func (sm *SignalManager) Context() context.Context {
	return sm.ctx
}

// Interrupted reports whether a signal, not the parent, ended the context.
func (sm *SignalManager) Interrupted() bool {
	return sm.ctx.Err() != nil && sm.parent.Err() == nil
}

// AwaitInterrupt waits up to d for the context to end and reports whether it did.
func (sm *SignalManager) AwaitInterrupt(d time.Duration) bool {
	if sm.ctx.Err() != nil {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-sm.ctx.Done():
		return true
	case <-t.C:
		return false
	}
}

// Stop releases the signal listener.
func (sm *SignalManager) Stop() {
	sm.stop()
}
