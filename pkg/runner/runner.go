package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/vaudio/internal/logging"
	"github.com/aretw0/vaudio/pkg/eventbus"
	"github.com/aretw0/vaudio/pkg/ports"
)

// Host is the engine surface the runner needs. *vaudio.Engine implements it.
type Host interface {
	ports.Controller
	Start(ctx context.Context) error
	Stop()
	Bus() *eventbus.Bus
	Done() <-chan struct{}
	Window() time.Duration
}

// Runner drives a Host with a set of input sources and a renderer.
type Runner struct {
	Sources  []ports.InputSource
	Renderer ports.Renderer
	Logger   *slog.Logger
	Settle   time.Duration
}

// NewRunner creates a runner with the given options.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{Logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run blocks until the host is done, every source is exhausted or ctx is cancelled
// (SIGINT and SIGTERM cancel it too). Interruptions are not errors.
func (r *Runner) Run(ctx context.Context, host Host) error {
	signals := NewSignalManager(ctx)
	defer signals.Stop()

	runCtx, cancel := context.WithCancel(signals.Context())
	defer cancel()

	if r.Renderer != nil {
		detach := Attach(host.Bus(), r.Renderer)
		defer detach()
	}

	if err := host.Start(runCtx); err != nil {
		return err
	}
	defer host.Stop()

	errs := make(chan error, len(r.Sources))
	for _, src := range r.Sources {
		go func(src ports.InputSource) {
			errs <- src.Run(runCtx, host)
		}(src)
	}

	remaining := len(r.Sources)
	for {
		select {
		case <-host.Done():
			r.Logger.Debug("engine finished")
			return nil
		case <-runCtx.Done():
			if signals.Interrupted() {
				r.Logger.Info("interrupted")
			}
			return nil
		case err := <-errs:
			remaining--
			if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
				// An interrupt may surface as a read error just before the signal lands.
				if signals.AwaitInterrupt(raceWindow) {
					return nil
				}
				return fmt.Errorf("input source failed: %w", err)
			}
			if remaining == 0 {
				r.settle(host)
				return nil
			}
		}
	}
}

// settle gives a signal still waiting for its partner the chance to resolve.
func (r *Runner) settle(host Host) {
	d := r.Settle
	if d == 0 {
		d = host.Window() + 50*time.Millisecond
	}
	select {
	case <-host.Done():
	case <-time.After(d):
	}
}
