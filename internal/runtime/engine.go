package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/vaudio/internal/compiler"
	"github.com/aretw0/vaudio/internal/logging"
	"github.com/aretw0/vaudio/pkg/domain"
	"github.com/aretw0/vaudio/pkg/ports"
	"github.com/aretw0/vaudio/pkg/registry"
	"github.com/aretw0/vaudio/pkg/state"
)

// Content layout.
const (
	InitialMenuPath = "program/initial/menu.json"
	ProgramMenuPath = "program/program-menu.json"
	GameMenuPath    = "games/game-menu.json"
	ConfigPath      = "program/config.json"
	ProgramRoot     = "program/"
	GamesPrefix     = "games/"
	GameMainFile    = "main.json"
)

// Navigation targets.
const (
	TargetExit       = "*"
	TargetBack       = "-"
	TargetProgramRef = "@/"
)

// Engine is the narrative navigation state machine.
//
// All mutation of the application state happens inside Dispatch under a single
// lock. Events produced during a dispatch are buffered and published after the
// lock is released, so bus subscribers may dispatch again.
type Engine struct {
	loader   ports.ContentLoader
	parser   *compiler.Parser
	bus      ports.Publisher
	actions  *registry.Actions
	scenes   *registry.Scenes
	logger   *slog.Logger
	messages domain.Messages
	initial  string

	mu      sync.Mutex
	state   *domain.AppState
	store   *state.Store
	outbox  []domain.Event
	started bool
	repeat  bool
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithPublisher sets the event bus.
func WithPublisher(p ports.Publisher) EngineOption {
	return func(e *Engine) {
		e.bus = p
	}
}

// WithActions replaces the action registry.
func WithActions(a *registry.Actions) EngineOption {
	return func(e *Engine) {
		e.actions = a
	}
}

// WithMessages sets the user-facing strings. Empty fields fall back to the defaults.
// Strings found in program/config take precedence.
func WithMessages(m domain.Messages) EngineOption {
	return func(e *Engine) {
		e.messages = m.Merge(domain.DefaultMessages())
	}
}

// WithInitialMenu overrides the program loaded at start and by the game "menu" action.
func WithInitialMenu(path string) EngineOption {
	return func(e *Engine) {
		e.initial = path
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(domain.Event) {}

// NewEngine creates an engine reading content from loader.
func NewEngine(loader ports.ContentLoader, opts ...EngineOption) *Engine {
	e := &Engine{
		loader:   loader,
		parser:   compiler.NewParser(),
		bus:      nopPublisher{},
		scenes:   registry.NewScenes(),
		logger:   logging.NewNop(),
		messages: domain.DefaultMessages(),
		initial:  InitialMenuPath,
		state:    domain.NewAppState(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.actions == nil {
		e.actions = registry.NewActions().WithDefaultActions()
	}
	e.store = state.NewStore(&e.state.Game, state.WithPublisher(outbox{e}), state.WithLogger(e.logger))
	return e
}

// outbox routes store notifications into the current dispatch buffer.
// It is only used while e.mu is held.
type outbox struct{ e *Engine }

func (o outbox) Publish(ev domain.Event) { o.e.emit(ev) }

func (e *Engine) emit(ev domain.Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = domain.NewEvent(ev.Kind).Timestamp
	}
	e.outbox = append(e.outbox, ev)
}

// flush hands the buffered events to the bus. Must be called without e.mu held.
func (e *Engine) flush(events []domain.Event) {
	for _, ev := range events {
		e.bus.Publish(ev)
	}
}

func (e *Engine) takeOutbox() []domain.Event {
	events := e.outbox
	e.outbox = nil
	return events
}

// Actions exposes the action registry so content scripts can register behavior.
func (e *Engine) Actions() *registry.Actions { return e.actions }

// Scenes exposes the scenes loaded for the current game. Game choices resolve through it.
func (e *Engine) Scenes() *registry.Scenes { return e.scenes }

// Messages returns the effective user-facing strings.
func (e *Engine) Messages() domain.Messages {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.messages
}

// Start loads the messages configuration and the initial menu.
// A missing configuration keeps the built-in messages; a missing initial menu is fatal.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return nil
	}

	e.loadMessages(ctx)

	node, err := e.fetchProgram(ctx, e.initial)
	if err != nil {
		e.fail(e.messages.ProgramLoadError, map[string]string{"path": e.initial}, err)
		events := e.takeOutbox()
		e.mu.Unlock()
		e.flush(events)
		return err
	}
	e.started = true
	e.emit(domain.NewEvent(domain.EventEngineStarted))
	e.setProgram(node, e.initial)
	e.render()
	events := e.takeOutbox()
	e.mu.Unlock()

	e.flush(events)
	return nil
}

func (e *Engine) loadMessages(ctx context.Context) {
	data, err := e.loader.Load(ctx, ConfigPath)
	if err != nil {
		if !errors.Is(err, domain.ErrContentNotFound) {
			e.logger.Warn("config not loaded", "path", ConfigPath, "error", err)
		}
		return
	}
	m, err := e.parser.ParseMessages(ConfigPath, data)
	if err != nil {
		e.logger.Warn("config not parsed", "path", ConfigPath, "error", err)
		return
	}
	e.messages = m.Merge(e.messages)
}

// Stop publishes the engine_stopped event.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.started = false
	e.emit(domain.NewEvent(domain.EventEngineStopped))
	events := e.takeOutbox()
	e.mu.Unlock()
	e.flush(events)
}

// Snapshot returns a copy of the application state.
func (e *Engine) Snapshot() *domain.AppState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Dispatch applies one resolved command. Recoverable failures are published as
// message and error events and never returned; domain.ErrExitRequested is
// returned when the exit target is reached.
func (e *Engine) Dispatch(ctx context.Context, cmd domain.Command) error {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return domain.ErrNotRunning
	}

	err := e.apply(ctx, cmd)
	if err == nil {
		executed := domain.NewEvent(domain.EventCommandExecuted).With("mode", string(e.state.Mode))
		executed.Command = &cmd
		e.emit(executed)
		e.render()
	}
	events := e.takeOutbox()
	e.mu.Unlock()

	e.flush(events)
	return err
}

func (e *Engine) apply(ctx context.Context, cmd domain.Command) error {
	key, err := domain.ParseCommandKey(string(cmd.Key))
	if err != nil {
		// The resolver never produces these; seeing one is a bug upstream.
		e.logger.Error("invalid command reached the state machine", "command", cmd.Key, "error", err)
		e.fail("", nil, fmt.Errorf("invalid command %q: %w", cmd.Key, err))
		return fmt.Errorf("dispatch %q: %w", cmd.Key, err)
	}
	cmd.Key = key
	e.logger.Debug("dispatch", "command", key, "mode", e.state.Mode, "source", cmd.Source)

	switch e.state.Mode {
	case domain.ModeGame:
		return e.applyGame(ctx, cmd)
	default:
		return e.applyProgram(ctx, cmd)
	}
}

// RunAction executes a registered action by id against the current state.
func (e *Engine) RunAction(ctx context.Context, id string) error {
	e.mu.Lock()
	err := e.actions.Run(ctx, id, e.actionContext(domain.Command{Source: domain.SourceManual}))
	events := e.takeOutbox()
	e.mu.Unlock()
	e.flush(events)
	return err
}

func (e *Engine) actionContext(cmd domain.Command) *domain.ActionContext {
	return &domain.ActionContext{
		State:   e.state,
		Command: cmd,
		Store:   e.store,
		Emit:    e.emit,
	}
}

// message publishes a formatted user-facing string.
func (e *Engine) message(template string, args map[string]string) {
	ev := domain.NewEvent(domain.EventMessage)
	ev.Message = domain.Format(template, args)
	e.emit(ev)
}

// fail reports a recoverable failure: a message (when template is set) and an error event.
func (e *Engine) fail(template string, args map[string]string, err error) {
	if template != "" {
		e.message(template, args)
	}
	ev := domain.NewEvent(domain.EventError)
	ev.Err = err
	ev.Message = err.Error()
	e.emit(ev)
	e.logger.Warn("recoverable failure", "error", err)
}

func (e *Engine) setMode(m domain.Mode) {
	if e.state.Mode == m {
		return
	}
	from := e.state.Mode
	e.state.Mode = m
	e.emit(domain.NewEvent(domain.EventModeChanged).With("from", string(from)).With("to", string(m)))
}
