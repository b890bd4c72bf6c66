package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/vaudio/pkg/domain"
)

func (e *Engine) applyGame(ctx context.Context, cmd domain.Command) error {
	s := e.state
	action, ok := s.CurrentGame.ActionFor(cmd.Key)
	if !ok {
		e.message(e.messages.CommandNotRecognized, nil)
		return nil
	}

	switch action {
	case domain.ActionChoice:
		e.gameChoice(ctx, cmd.Key)
	case domain.ActionMenu:
		e.loadProgram(ctx, e.initial)
	case domain.ActionInfo:
		e.delegate(ctx, cmd, action)
	case domain.ActionRepeat:
		e.repeat = true
		e.delegate(ctx, cmd, action)
	default:
		e.message(e.messages.CommandNotRecognized, nil)
	}
	return nil
}

// gameChoice follows the first branch of the current scene bound to key.
func (e *Engine) gameChoice(ctx context.Context, key domain.CommandKey) {
	s := e.state
	target, ok := e.scenes.Target(s.CurrentScene.ID, key)
	if !ok {
		e.message(e.messages.ChoiceNotAvailable, nil)
		return
	}

	next, err := e.fetchScene(ctx, s.GamePath, target)
	if err != nil {
		e.fail(e.messages.SceneLoadError, map[string]string{"path": target}, err)
		return
	}
	e.scenes.Add(next)

	previous := s.CurrentScene
	if previous != nil {
		e.runHooks(ctx, previous.OnExit)
	}
	from := s.Game.CurrentScene
	s.CurrentScene = next
	e.store.Visit(next.ID)
	e.emit(domain.NewEvent(domain.EventSceneChanged).
		With("game", s.CurrentGame.ID).
		With("from", from).
		With("scene", next.ID))
	e.runHooks(ctx, next.OnEnter)
}

// delegate hands info and repeat to the action registry. Without a matching action,
// repeat re-renders (done for every dispatch) and info does nothing.
func (e *Engine) delegate(ctx context.Context, cmd domain.Command, action domain.SemanticAction) {
	e.logger.Debug("delegating game action", "action", action, "scene", e.state.Game.CurrentScene)
	a, ok := e.actions.FindForCommand(cmd.Key, e.state)
	if !ok || a.Run == nil {
		return
	}
	if err := a.Run(ctx, e.actionContext(cmd)); err != nil {
		e.fail("", nil, fmt.Errorf("action %s: %w", a.ID, err))
	}
}

// runHooks executes scene lifecycle actions. Unknown or failing actions are reported.
func (e *Engine) runHooks(ctx context.Context, ids []string) {
	for _, id := range ids {
		if err := e.actions.Run(ctx, id, e.actionContext(domain.Command{Source: "hook"})); err != nil {
			e.fail("", nil, fmt.Errorf("scene hook: %w", err))
		}
	}
}

// render publishes what a sink needs to draw the current state.
// A pending repeat marks the event so sinks redraw an unchanged view.
func (e *Engine) render() {
	s := e.state
	ev := domain.NewEvent(domain.EventRender).
		With("state", s.Clone()).
		With("mode", string(s.Mode))
	if e.repeat {
		ev = ev.With("repeat", true)
		e.repeat = false
	}
	switch {
	case s.Mode == domain.ModeGame && s.CurrentScene != nil:
		ev = ev.With("scene", s.CurrentScene).With("game", s.Clone().Game)
	case s.CurrentProgram != nil:
		ev = ev.With("program", s.CurrentProgram)
	}
	e.emit(ev)
}
