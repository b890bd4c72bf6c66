package runtime

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aretw0/vaudio/pkg/domain"
)

// navigate resolves a choice target.
func (e *Engine) navigate(ctx context.Context, target string) error {
	switch {
	case target == TargetExit:
		e.emit(domain.NewEvent(domain.EventExit))
		return domain.ErrExitRequested
	case target == TargetBack:
		e.back(ctx)
	case strings.HasPrefix(target, TargetProgramRef):
		p := ProgramRoot + strings.TrimPrefix(target, TargetProgramRef)
		if e.loadProgram(ctx, p) {
			e.state.PushProgram(InitialMenuPath)
		}
	case strings.HasPrefix(target, GamesPrefix):
		e.loadGame(ctx, target)
	default:
		e.message(e.messages.NavigationNotImplemented, map[string]string{"goto": target})
	}
	return nil
}

// back reloads the last program of the stack. The entry is only popped once the
// program loaded, so a failure leaves the stack intact.
func (e *Engine) back(ctx context.Context) {
	s := e.state
	if len(s.ProgramStack) == 0 {
		return
	}
	previous := s.ProgramStack[len(s.ProgramStack)-1]
	if e.loadProgram(ctx, previous) {
		s.PopProgram()
	}
}

func (e *Engine) fetchProgram(ctx context.Context, p string) (*domain.ProgramNode, error) {
	data, err := e.loader.Load(ctx, p)
	if err != nil {
		return nil, &domain.LoadError{Kind: domain.ContentProgram, Path: p, Err: err}
	}
	node, err := e.parser.ParseProgram(p, data)
	if err != nil {
		return nil, &domain.LoadError{Kind: domain.ContentProgram, Path: p, Err: err}
	}
	return node, nil
}

// loadProgram replaces the current program. On failure the state is untouched.
func (e *Engine) loadProgram(ctx context.Context, p string) bool {
	node, err := e.fetchProgram(ctx, p)
	if err != nil {
		e.fail(e.messages.ProgramLoadError, map[string]string{"path": p}, err)
		return false
	}
	e.setProgram(node, p)
	return true
}

func (e *Engine) setProgram(node *domain.ProgramNode, p string) {
	s := e.state
	s.CurrentProgram = node
	s.ProgramPath = p
	s.ClearSelection()
	s.CurrentList = domain.ListMain
	s.ExtraFrameNumber = ""
	e.setMode(domain.ModeProgram)
	e.emit(domain.NewEvent(domain.EventProgramLoaded).With("id", node.ID).With("path", p))
}

// gameDir turns a navigation target ("games/demo", "games/demo/main.json") into
// the game content directory.
func gameDir(target string) string {
	dir := strings.TrimSuffix(strings.TrimSpace(target), "/")
	if strings.HasPrefix(path.Base(dir), "main.") {
		dir = path.Dir(dir)
	}
	return dir
}

// scenePath places a scene id inside a game directory. Ids without extension get ".json".
func scenePath(dir, id string) string {
	p := path.Join(dir, id)
	if path.Ext(id) == "" {
		p += ".json"
	}
	return p
}

func (e *Engine) fetchGame(ctx context.Context, dir string) (*domain.GameGraph, error) {
	p := path.Join(dir, GameMainFile)
	data, err := e.loader.Load(ctx, p)
	if err != nil {
		return nil, &domain.LoadError{Kind: domain.ContentGame, Path: p, Err: err}
	}
	g, err := e.parser.ParseGame(p, data)
	if err != nil {
		return nil, &domain.LoadError{Kind: domain.ContentGame, Path: p, Err: err}
	}
	return g, nil
}

func (e *Engine) fetchScene(ctx context.Context, dir, id string) (*domain.Scene, error) {
	p := scenePath(dir, id)
	data, err := e.loader.Load(ctx, p)
	if err != nil {
		return nil, &domain.LoadError{Kind: domain.ContentScene, Path: p, Err: err}
	}
	scene, err := e.parser.ParseScene(p, data)
	if err != nil {
		return nil, &domain.LoadError{Kind: domain.ContentScene, Path: p, Err: err}
	}
	return scene, nil
}

// fetchExtra resolves an extra frame key through the current game's extra table.
func (e *Engine) fetchExtra(ctx context.Context, key string) (*domain.ExtraFrame, error) {
	g := e.state.CurrentGame
	rel, ok := g.Extra[key]
	if !ok {
		return nil, &domain.LoadError{Kind: domain.ContentExtra, Path: key, Err: fmt.Errorf("game %s has no extra %q: %w", g.ID, key, domain.ErrContentNotFound)}
	}
	p := path.Join(e.state.GamePath, rel)
	data, err := e.loader.Load(ctx, p)
	if err != nil {
		return nil, &domain.LoadError{Kind: domain.ContentExtra, Path: p, Err: err}
	}
	frame, err := e.parser.ParseExtra(p, data)
	if err != nil {
		return nil, &domain.LoadError{Kind: domain.ContentExtra, Path: p, Err: err}
	}
	return frame, nil
}

// loadGame switches to game mode. The game graph and its entry scene must both load
// before any state changes.
func (e *Engine) loadGame(ctx context.Context, target string) {
	dir := gameDir(target)
	g, err := e.fetchGame(ctx, dir)
	if err != nil {
		e.fail(e.messages.GameLoadError, map[string]string{"path": target}, err)
		return
	}
	entry, err := e.fetchScene(ctx, dir, g.Entry)
	if err != nil {
		e.fail(e.messages.GameLoadError, map[string]string{"path": target}, err)
		return
	}

	s := e.state
	s.ClearSelection()
	s.CurrentGame = g
	s.GamePath = dir
	s.CurrentScene = entry
	e.scenes.Clear()
	e.scenes.Add(entry)
	e.store.ClearHistory()
	e.store.SetScene(entry.ID)
	e.setMode(domain.ModeGame)
	e.emit(domain.NewEvent(domain.EventSceneChanged).With("game", g.ID).With("scene", entry.ID))
	e.runHooks(ctx, entry.OnEnter)
}
