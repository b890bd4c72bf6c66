package vaudio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/vaudio/internal/logging"
	"github.com/aretw0/vaudio/internal/runtime"
	"github.com/aretw0/vaudio/pkg/adapters/file"
	"github.com/aretw0/vaudio/pkg/domain"
	"github.com/aretw0/vaudio/pkg/eventbus"
	"github.com/aretw0/vaudio/pkg/input"
	"github.com/aretw0/vaudio/pkg/ports"
	"github.com/aretw0/vaudio/pkg/registry"
	"github.com/aretw0/vaudio/pkg/resolver"
)

// Engine is the high-level entry point of the library.
// It wires the device adapters, the combination resolver, the event bus and the
// navigation state machine, and implements ports.Controller.
type Engine struct {
	runtime  *runtime.Engine
	resolver *resolver.Resolver
	bus      *eventbus.Bus
	inputs   *input.Set
	loader   ports.ContentLoader
	logger   *slog.Logger

	runtimeOpts  []runtime.EngineOption
	resolverOpts []resolver.Option
	overrides    input.Overrides

	Name  string
	RunID string

	mu       sync.Mutex
	ctx      context.Context
	commands ports.CommandSource
	done     chan struct{}
	doneOnce    sync.Once
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLoader injects a content loader, bypassing the default directory loader.
func WithLoader(l ports.ContentLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithBus shares an existing event bus.
func WithBus(b *eventbus.Bus) Option {
	return func(e *Engine) {
		e.bus = b
	}
}

// WithWindow sets the combination window.
func WithWindow(d time.Duration) Option {
	return func(e *Engine) {
		e.resolverOpts = append(e.resolverOpts, resolver.WithWindow(d))
	}
}

// WithCombinations toggles pair detection. Disabled, every signal dispatches as a single.
func WithCombinations(enabled bool) Option {
	return func(e *Engine) {
		e.resolverOpts = append(e.resolverOpts, resolver.WithCombinations(enabled))
	}
}

// WithScheduler replaces the resolver clock, mostly for tests.
func WithScheduler(s resolver.Scheduler) Option {
	return func(e *Engine) {
		e.resolverOpts = append(e.resolverOpts, resolver.WithScheduler(s))
	}
}

// WithOverrides remaps device triggers.
func WithOverrides(o input.Overrides) Option {
	return func(e *Engine) {
		e.overrides = o
	}
}

// WithActions replaces the action registry.
func WithActions(a *registry.Actions) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithActions(a))
	}
}

// WithMessages sets the built-in user-facing strings.
func WithMessages(m domain.Messages) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithMessages(m))
	}
}

// WithInitialMenu overrides the program loaded at start.
func WithInitialMenu(path string) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithInitialMenu(path))
	}
}

// WithRunID sets the identifier attached to logs. A random one is generated otherwise.
func WithRunID(id string) Option {
	return func(e *Engine) {
		e.RunID = id
	}
}

// New initializes an engine reading content from basePath.
// If WithLoader is provided, basePath only labels the run.
func New(basePath string, opts ...Option) (*Engine, error) {
	eng := &Engine{done: make(chan struct{})}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.loader == nil {
		if basePath == "" {
			return nil, fmt.Errorf("basePath is required when no custom loader is provided")
		}
		absPath, err := filepath.Abs(basePath)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		eng.loader = file.New(absPath)
		eng.Name = filepath.Base(absPath)
	} else if basePath != "" {
		eng.Name = filepath.Base(basePath)
	}

	if eng.RunID == "" {
		eng.RunID = uuid.NewString()
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	eng.logger = eng.logger.With("run_id", eng.RunID)
	if eng.Name != "" {
		eng.logger = eng.logger.With("content", eng.Name)
	}
	if eng.bus == nil {
		eng.bus = eventbus.New(eventbus.WithLogger(eng.logger))
	}

	eng.inputs = input.NewSet(eng.overrides)
	eng.resolver = resolver.New(append([]resolver.Option{resolver.WithLogger(eng.logger)}, eng.resolverOpts...)...)

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLogger(eng.logger),
		runtime.WithPublisher(eng.bus),
	}
	eng.runtime = runtime.NewEngine(eng.loader, append(runtimeOpts, eng.runtimeOpts...)...)
	return eng, nil
}

// Start loads the initial menu and begins accepting input.
//
// Resolved commands are applied by a single run loop goroutine. Press, Input and
// Force return once the command they resolved has been applied, unless they are
// called from an event handler running inside that loop.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	e.ctx = context.WithoutCancel(ctx)
	if e.commands == nil {
		sink := resolver.NewSink(e.resolver)
		if err := sink.Initialize(ctx); err != nil {
			e.mu.Unlock()
			return fmt.Errorf("failed to start: %w", err)
		}
		e.commands = sink
		go e.run(sink)
	}
	e.mu.Unlock()

	if err := e.runtime.Start(ctx); err != nil {
		e.closeCommands()
		return fmt.Errorf("failed to start: %w", err)
	}
	e.logger.Info("engine started", "window", e.resolver.Window())
	return nil
}

// Stop discards pending signals and stops the state machine. Further input is rejected.
func (e *Engine) Stop() {
	e.resolver.Stop()
	e.closeCommands()
	e.runtime.Stop()
	e.finish()
}

func (e *Engine) closeCommands() {
	e.mu.Lock()
	commands := e.commands
	e.commands = nil
	e.mu.Unlock()
	if commands != nil {
		commands.Cleanup()
	}
}

// run is the engine's run loop. It ends when the command source is cleaned up.
func (e *Engine) run(commands ports.CommandSource) {
	for {
		cmd, err := commands.Next(context.Background())
		if err != nil {
			return
		}
		e.dispatch(cmd)
	}
}

// dispatch applies one resolved command: it is announced, then handed to the state machine.
func (e *Engine) dispatch(cmd domain.Command) {
	resolved := domain.NewEvent(domain.EventCommandResolved).With("source", cmd.Source)
	resolved.Command = &cmd
	e.bus.Publish(resolved)

	e.mu.Lock()
	ctx := e.ctx
	e.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	err := e.runtime.Dispatch(ctx, cmd)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrExitRequested):
		e.logger.Info("exit requested", "command", cmd.Key)
		e.resolver.Stop()
		e.finish()
	default:
		e.logger.Warn("dispatch failed", "command", cmd.Key, "error", err)
	}
}

func (e *Engine) finish() {
	e.doneOnce.Do(func() { close(e.done) })
}

// Done is closed once the exit target is reached or the engine is stopped.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Press feeds one signal into the resolver.
func (e *Engine) Press(s domain.Signal, source string) error {
	return e.resolver.Accept(s, source, time.Time{})
}

// Input normalizes a device payload and presses the resulting signal.
func (e *Engine) Input(_ context.Context, device string, payload []byte) (domain.Signal, error) {
	s, source, err := e.inputs.NormalizeJSON(device, payload)
	if err != nil {
		return domain.SignalNone, err
	}
	if s == domain.SignalNone {
		e.logger.Debug("unmapped input", "device", device)
		return s, nil
	}
	return s, e.Press(s, source)
}

// Force dispatches a command without waiting for the combination window.
func (e *Engine) Force(key domain.CommandKey) error {
	return e.resolver.Force(key, domain.SourceManual)
}

// Snapshot returns a copy of the application state.
func (e *Engine) Snapshot() *domain.AppState {
	return e.runtime.Snapshot()
}

// Bus returns the event bus render sinks and metrics subscribe to.
func (e *Engine) Bus() *eventbus.Bus {
	return e.bus
}

// Inputs returns the device adapter set in use.
func (e *Engine) Inputs() *input.Set {
	return e.inputs
}

// Actions exposes the action registry for registering content behavior.
func (e *Engine) Actions() *registry.Actions {
	return e.runtime.Actions()
}

// RunAction executes a registered action by id.
func (e *Engine) RunAction(ctx context.Context, id string) error {
	return e.runtime.RunAction(ctx, id)
}

// Loader returns the content loader used by the engine.
func (e *Engine) Loader() ports.ContentLoader {
	return e.loader
}

// Window returns the combination window in effect.
func (e *Engine) Window() time.Duration {
	return e.resolver.Window()
}

var _ ports.Controller = (*Engine)(nil)
