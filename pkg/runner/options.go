package runner

import (
	"log/slog"
	"time"

	"github.com/aretw0/vaudio/pkg/ports"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithSource adds an input source. Sources run concurrently.
func WithSource(src ports.InputSource) Option {
	return func(r *Runner) {
		r.Sources = append(r.Sources, src)
	}
}

// WithRenderer configures the surface the engine draws on.
func WithRenderer(renderer ports.Renderer) Option {
	return func(r *Runner) {
		r.Renderer = renderer
	}
}

// WithSettle sets how long the runner waits for pending signals once every source is exhausted.
// Zero uses the engine's combination window.
func WithSettle(d time.Duration) Option {
	return func(r *Runner) {
		r.Settle = d
	}
}
