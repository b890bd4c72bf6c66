package runtime_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/vaudio/internal/runtime"
	"github.com/aretw0/vaudio/pkg/adapters/memory"
	"github.com/aretw0/vaudio/pkg/domain"
	"github.com/aretw0/vaudio/pkg/eventbus"
	"github.com/aretw0/vaudio/pkg/registry"
)

var fixtures = map[string]string{
	"program/initial/menu.json": `{
		"id": "menu",
		"description": "Main menu",
		"extra": "1",
		"choice": {
			"1": {"label": "Explore", "choice": {
				"1": {"label": "Woods", "goto": "games/woods"},
				"3+2": {"label": "Back", "goto": "-"}
			}},
			"2": [{"label": "North", "goto": "@/north.json"}, {"label": "South", "goto": "@/south.json"}],
			"3": {"label": "Hub", "goto": "@/games-list.json"},
			"4": {"label": "Quit", "goto": "*"}
		}
	}`,
	"program/north.json": `{
		"id": "north",
		"description": "North wing",
		"choice": {
			"1": {"label": "Dead end"},
			"2": {"label": "Broken game", "goto": "games/missing"},
			"3": {"label": "Elsewhere", "goto": "elsewhere"},
			"3+2": {"label": "Back", "goto": "-"}
		}
	}`,
	"program/games-list.json": `{"id": "games-list", "description": "Games", "choice": {}}`,
	"program/program-menu.json": `{"id": "program-menu", "description": "Program menu", "choice": {}}`,
	"games/game-menu.json":      `{"id": "game-menu", "description": "Game menu", "choice": {}}`,
	"games/woods/main.json": `{
		"id": "woods",
		"title": "The Woods",
		"entry": "forest",
		"extra": {"1": "extras/map.json"},
		"config": {"command_map": {
			"1": "choice", "2": "choice", "3": "choice", "4": "choice",
			"1+2": "menu", "3+4": "info", "1+4": "repeat"
		}}
	}`,
	"games/woods/forest.json": `{
		"id": "forest",
		"title": "Forest",
		"description": "Tall trees.",
		"choices": {
			"1": [{"text": "To the river", "goto": "river"}, {"text": "Ignored", "goto": "cave"}],
			"2": [{"text": "Into the cave", "goto": "cave"}]
		},
		"on_enter": ["mark"]
	}`,
	"games/woods/river.json": `{
		"id": "river",
		"title": "River",
		"description": "Cold water.",
		"choices": {"3": [{"text": "Back to the forest", "goto": "forest"}]}
	}`,
	"games/woods/extras/map.json": `{"id": "map", "description": "A hand-drawn map"}`,
}

type harness struct {
	t      *testing.T
	engine *runtime.Engine
	bus    *eventbus.Bus

	mu     sync.Mutex
	events []domain.Event
}

func newHarness(t *testing.T, extra map[string]string, opts ...runtime.EngineOption) *harness {
	t.Helper()
	data := make(map[string]string, len(fixtures)+len(extra))
	for k, v := range fixtures {
		data[k] = v
	}
	for k, v := range extra {
		data[k] = v
	}

	h := &harness{t: t, bus: eventbus.New()}
	h.bus.SubscribeAll(func(ev domain.Event) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.events = append(h.events, ev)
		return nil
	})

	actions := registry.NewActions().WithDefaultActions()
	require.NoError(t, actions.Add(&domain.Action{
		ID: "mark",
		Run: func(_ context.Context, ac *domain.ActionContext) error {
			n, _ := ac.Store.Variable("visits")
			count, _ := n.(int)
			ac.Store.SetVariable("visits", count+1)
			return nil
		},
	}))

	opts = append([]runtime.EngineOption{runtime.WithPublisher(h.bus), runtime.WithActions(actions)}, opts...)
	h.engine = runtime.NewEngine(memory.NewLoader(data), opts...)
	return h
}

func (h *harness) start() *harness {
	h.t.Helper()
	require.NoError(h.t, h.engine.Start(context.Background()))
	h.reset()
	return h
}

func (h *harness) send(key domain.CommandKey) error {
	return h.engine.Dispatch(context.Background(), domain.Command{Key: key, Source: "test", Timestamp: time.Now()})
}

func (h *harness) press(keys ...domain.CommandKey) {
	h.t.Helper()
	for _, k := range keys {
		require.NoError(h.t, h.send(k), "command %s", k)
	}
}

func (h *harness) reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = nil
}

func (h *harness) messages() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, ev := range h.events {
		if ev.Kind == domain.EventMessage {
			out = append(out, ev.Message)
		}
	}
	return out
}

func (h *harness) count(kind domain.EventKind) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, ev := range h.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func (h *harness) last(kind domain.EventKind) (domain.Event, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.events) - 1; i >= 0; i-- {
		if h.events[i].Kind == kind {
			return h.events[i], true
		}
	}
	return domain.Event{}, false
}

func (h *harness) state() *domain.AppState {
	return h.engine.Snapshot()
}

func TestEngine_Start(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.engine.Start(context.Background()))

	s := h.state()
	assert.Equal(t, domain.ModeProgram, s.Mode)
	assert.Equal(t, "menu", s.CurrentProgram.ID)
	assert.Equal(t, runtime.InitialMenuPath, s.ProgramPath)
	assert.Empty(t, s.ProgramStack)
	assert.False(t, s.AwaitingConfirmation)
	assert.Equal(t, 1, h.count(domain.EventEngineStarted))
	assert.Equal(t, 1, h.count(domain.EventRender))
}

func TestEngine_StartWithoutMenu(t *testing.T) {
	h := newHarness(t, nil, runtime.WithInitialMenu("program/none.json"))
	err := h.engine.Start(context.Background())

	var loadErr *domain.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, domain.ContentProgram, loadErr.Kind)
	assert.ErrorIs(t, err, domain.ErrContentNotFound)
	assert.Equal(t, []string{"Failed to load program: program/none.json"}, h.messages())

	assert.ErrorIs(t, h.send(domain.KeyOne), domain.ErrNotRunning)
}

func TestEngine_SubmenuMaterialization(t *testing.T) {
	h := newHarness(t, nil).start()

	h.press(domain.KeyOne)
	s := h.state()
	assert.True(t, s.AwaitingConfirmation)
	require.NotNil(t, s.Selected)
	assert.Equal(t, domain.KeyOne, s.Selected.Key)
	assert.Equal(t, 1, h.count(domain.EventSelection))

	h.press(domain.KeyThreeFour)
	s = h.state()
	assert.False(t, s.AwaitingConfirmation)
	assert.Nil(t, s.Selected)
	assert.Equal(t, "menu_submenu", s.CurrentProgram.ID)
	assert.Equal(t, "Explore", s.CurrentProgram.Description)
	assert.Equal(t, []domain.CommandKey{domain.KeyOne, domain.KeyThreeTwo}, s.CurrentProgram.Keys())
	woods, ok := s.CurrentProgram.Slot(domain.KeyOne)
	require.True(t, ok)
	c, _ := woods.Current()
	assert.Equal(t, "games/woods", c.Goto)
}

func TestEngine_SelectionBindsToNode(t *testing.T) {
	h := newHarness(t, nil).start()
	h.press(domain.KeyOne)

	// Rewire the live node after selecting; confirmation must still use the captured choice.
	live := h.state().CurrentProgram
	live.Choices[domain.KeyOne] = domain.NewSingleChoice(domain.Choice{Label: "Swapped", Goto: "*"})

	require.NoError(t, h.send(domain.KeyThreeFour))
	assert.Equal(t, "menu_submenu", h.state().CurrentProgram.ID)
}

func TestEngine_ConfirmWithoutSelectionIsNoop(t *testing.T) {
	h := newHarness(t, nil).start()
	h.press(domain.KeyThreeFour)

	s := h.state()
	assert.Equal(t, "menu", s.CurrentProgram.ID)
	assert.Empty(t, h.messages())
}

func TestEngine_OptionNotAvailable(t *testing.T) {
	h := newHarness(t, nil).start()
	h.press(domain.KeyTwo, domain.KeyThreeFour)
	require.Equal(t, "north", h.state().CurrentProgram.ID)

	h.press(domain.KeyOne)
	h.reset()
	h.press(domain.KeyFour)

	assert.Equal(t, []string{"Option not available."}, h.messages())
	s := h.state()
	assert.True(t, s.AwaitingConfirmation, "the earlier selection is kept")
	assert.Equal(t, domain.KeyOne, s.Selected.Key)
}

func TestEngine_ChangingPendingSelection(t *testing.T) {
	h := newHarness(t, nil).start()
	h.press(domain.KeyOne, domain.KeyThree)

	s := h.state()
	assert.Equal(t, domain.KeyThree, s.Selected.Key)
	assert.Equal(t, "Hub", s.Selected.Choice.Label)
}

func TestEngine_ProgramReferenceAndBack(t *testing.T) {
	h := newHarness(t, nil).start()

	h.press(domain.KeyTwo, domain.KeyThreeFour)
	s := h.state()
	assert.Equal(t, "north", s.CurrentProgram.ID)
	assert.Equal(t, "program/north.json", s.ProgramPath)
	assert.Equal(t, []string{runtime.InitialMenuPath}, s.ProgramStack)

	h.press(domain.KeyThreeTwo)
	s = h.state()
	assert.Equal(t, "menu", s.CurrentProgram.ID)
	assert.Empty(t, s.ProgramStack)
}

func TestEngine_BackWithEmptyStack(t *testing.T) {
	h := newHarness(t, nil).start()
	h.press(domain.KeyOne, domain.KeyThreeFour)
	require.Equal(t, "menu_submenu", h.state().CurrentProgram.ID)

	h.press(domain.KeyThreeTwo)

	s := h.state()
	assert.Equal(t, "menu_submenu", s.CurrentProgram.ID)
	assert.Empty(t, h.messages())
}

func TestEngine_ReturnNotAvailable(t *testing.T) {
	h := newHarness(t, nil).start()
	h.press(domain.KeyThreeTwo)
	assert.Equal(t, []string{"Return not available in this context."}, h.messages())
}

func TestEngine_ListSlotCycles(t *testing.T) {
	h := newHarness(t, nil).start()

	h.press(domain.KeyTwo)
	assert.Equal(t, "North", h.state().Selected.Choice.Label)

	h.press(domain.KeyTwo)
	assert.Equal(t, "South", h.state().Selected.Choice.Label)

	h.press(domain.KeyTwo)
	assert.Equal(t, "North", h.state().Selected.Choice.Label)
}

func TestEngine_FailedProgramLoadKeepsState(t *testing.T) {
	h := newHarness(t, nil).start()
	h.press(domain.KeyTwo, domain.KeyTwo) // South, whose file is missing
	h.reset()

	h.press(domain.KeyThreeFour)

	s := h.state()
	assert.Equal(t, "menu", s.CurrentProgram.ID)
	assert.Empty(t, s.ProgramStack, "the root marker is only pushed on success")
	assert.Equal(t, []string{"Failed to load program: program/south.json"}, h.messages())
	assert.Equal(t, 1, h.count(domain.EventError))
}

func TestEngine_NavigationNotImplemented(t *testing.T) {
	h := newHarness(t, nil).start()
	h.press(domain.KeyTwo, domain.KeyThreeFour, domain.KeyThree)
	h.reset()
	h.press(domain.KeyThreeFour)

	assert.Equal(t, []string{"Navigation not implemented: elsewhere"}, h.messages())
	assert.Equal(t, "north", h.state().CurrentProgram.ID)
}

func TestEngine_MissingGameKeepsMode(t *testing.T) {
	h := newHarness(t, nil).start()
	h.press(domain.KeyTwo, domain.KeyThreeFour, domain.KeyTwo)
	h.reset()
	h.press(domain.KeyThreeFour)

	s := h.state()
	assert.Equal(t, domain.ModeProgram, s.Mode)
	assert.Equal(t, "north", s.CurrentProgram.ID)
	assert.Nil(t, s.CurrentGame)
	assert.Equal(t, []string{"Failed to load game: games/missing"}, h.messages())
	assert.Equal(t, 1, h.count(domain.EventError))
}

func TestEngine_Exit(t *testing.T) {
	h := newHarness(t, nil).start()
	h.press(domain.KeyFour)

	err := h.send(domain.KeyThreeFour)
	assert.ErrorIs(t, err, domain.ErrExitRequested)
	assert.Equal(t, 1, h.count(domain.EventExit))
}

func TestEngine_MenuToggle(t *testing.T) {
	h := newHarness(t, nil).start()
	h.press(domain.KeyTwo) // pending selection is dropped by the toggle
	h.press(domain.KeyOneTwo)

	s := h.state()
	assert.Equal(t, "program-menu", s.CurrentProgram.ID)
	assert.False(t, s.AwaitingConfirmation)

	h = newHarness(t, nil).start()
	h.press(domain.KeyThree, domain.KeyThreeFour)
	require.Equal(t, "games-list", h.state().CurrentProgram.ID)
	h.press(domain.KeyOneTwo)
	assert.Equal(t, "game-menu", h.state().CurrentProgram.ID)
}

func TestEngine_ExtraListToggle(t *testing.T) {
	h := newHarness(t, nil).start()

	h.press(domain.KeyOneFour)
	s := h.state()
	assert.Equal(t, domain.ListExtra, s.CurrentList)
	assert.Equal(t, "1", s.ExtraFrameNumber)
	assert.Empty(t, h.messages(), "no game loaded, nothing to resolve")

	h.press(domain.KeyOneFour)
	s = h.state()
	assert.Equal(t, domain.ListMain, s.CurrentList)
	assert.Empty(t, s.ExtraFrameNumber)
}

func enterWoods(h *harness) {
	h.t.Helper()
	h.press(domain.KeyOne, domain.KeyThreeFour, domain.KeyOne, domain.KeyThreeFour)
	require.Equal(h.t, domain.ModeGame, h.state().Mode)
	h.reset()
}

func TestEngine_GameEntry(t *testing.T) {
	h := newHarness(t, nil).start()
	enterWoods(h)

	s := h.state()
	assert.Equal(t, "woods", s.CurrentGame.ID)
	assert.Equal(t, "games/woods", s.GamePath)
	assert.Equal(t, "forest", s.Game.CurrentScene)
	assert.Equal(t, "forest", s.CurrentScene.ID)
	assert.Empty(t, s.Game.History)
	assert.Equal(t, 1, s.Game.Variables["visits"], "on_enter hook ran")
	assert.True(t, h.engine.Scenes().Has("forest"))
}

func TestEngine_GameChoice(t *testing.T) {
	h := newHarness(t, nil).start()
	enterWoods(h)

	h.press(domain.KeyOne)
	s := h.state()
	assert.Equal(t, "river", s.Game.CurrentScene)
	assert.Equal(t, []string{"forest"}, s.Game.History)

	h.press(domain.KeyThree)
	s = h.state()
	assert.Equal(t, "forest", s.Game.CurrentScene)
	assert.Equal(t, []string{"forest", "river"}, s.Game.History)
	assert.Equal(t, 2, s.Game.Variables["visits"])
	assert.Equal(t, 2, h.count(domain.EventSceneChanged))
}

func TestEngine_GameChoiceNotAvailable(t *testing.T) {
	h := newHarness(t, nil).start()
	enterWoods(h)

	h.press(domain.KeyFour)

	assert.Equal(t, []string{"Choice not available."}, h.messages())
	s := h.state()
	assert.Equal(t, "forest", s.Game.CurrentScene)
	assert.Empty(t, s.Game.History)
}

func TestEngine_GameSceneLoadFailure(t *testing.T) {
	h := newHarness(t, nil).start()
	enterWoods(h)

	h.press(domain.KeyTwo)

	assert.Equal(t, []string{"Failed to load scene: cave"}, h.messages())
	assert.Equal(t, 1, h.count(domain.EventError))
	s := h.state()
	assert.Equal(t, "forest", s.Game.CurrentScene)
	assert.Empty(t, s.Game.History)
}

func TestEngine_GameMenuReturnsToProgram(t *testing.T) {
	h := newHarness(t, nil).start()
	enterWoods(h)
	h.press(domain.KeyOne)

	h.press(domain.KeyOneTwo)

	s := h.state()
	assert.Equal(t, domain.ModeProgram, s.Mode)
	assert.Equal(t, "menu", s.CurrentProgram.ID)
	assert.Equal(t, 1, h.count(domain.EventModeChanged))
}

func TestEngine_GameUnmappedCommand(t *testing.T) {
	h := newHarness(t, nil).start()
	enterWoods(h)

	h.press(domain.KeyThreeTwo)
	assert.Equal(t, []string{"Command not recognized."}, h.messages())
}

func TestEngine_GameInfoDelegatesToActions(t *testing.T) {
	h := newHarness(t, nil).start()
	require.NoError(t, h.engine.Actions().Add(&domain.Action{
		ID:        "describe",
		Commands:  []domain.CommandKey{domain.KeyThreeFour},
		Condition: func(s *domain.AppState) bool { return s.Mode == domain.ModeGame },
		Run: func(_ context.Context, ac *domain.ActionContext) error {
			ac.Message("You are in " + ac.State.CurrentScene.Title)
			return nil
		},
	}))
	enterWoods(h)

	h.press(domain.KeyThreeFour)
	assert.Equal(t, []string{"You are in Forest"}, h.messages())

	h.reset()
	h.press(domain.KeyOneFour) // repeat: no action bound, only a fresh render
	assert.Empty(t, h.messages())
	assert.Equal(t, 1, h.count(domain.EventRender))
	render, ok := h.last(domain.EventRender)
	require.True(t, ok)
	assert.Equal(t, true, render.Data["repeat"])
	assert.Equal(t, "forest", render.Data["scene"].(*domain.Scene).ID)
}

func TestEngine_ExtraFrameFromGame(t *testing.T) {
	h := newHarness(t, nil).start()
	enterWoods(h)
	h.press(domain.KeyOneTwo) // back to the menu, the game stays loaded
	h.reset()

	h.press(domain.KeyOneFour)
	assert.Equal(t, []string{"Extra frame 1: A hand-drawn map"}, h.messages())
	assert.Equal(t, domain.ListExtra, h.state().CurrentList)
}

func TestEngine_ExtraFrameFailure(t *testing.T) {
	h := newHarness(t, map[string]string{
		"games/woods/main.json": `{"id": "woods", "entry": "forest", "extra": {}, "config": {"command_map": {"1+2": "menu"}}}`,
	}).start()
	enterWoods(h)
	h.press(domain.KeyOneTwo)
	h.reset()

	h.press(domain.KeyOneFour)
	assert.Equal(t, []string{"Failed to load extra frame."}, h.messages())
	assert.Equal(t, domain.ListMain, h.state().CurrentList)
}

func TestEngine_IllegalCommand(t *testing.T) {
	h := newHarness(t, nil).start()

	err := h.send("1+3")
	assert.ErrorIs(t, err, domain.ErrIllegalCommand)
	assert.Equal(t, 1, h.count(domain.EventError))
	assert.Equal(t, "menu", h.state().CurrentProgram.ID)
}

func TestEngine_ConfiguredMessages(t *testing.T) {
	h := newHarness(t, map[string]string{
		"program/config.json": `{"messages": {"optionNotAvailable": "Opção não disponível.", "navigationNotImplemented": "Navegação não implementada: {goto}"}}`,
	}).start()

	h.press(domain.KeyTwo, domain.KeyThreeFour, domain.KeyThree, domain.KeyThreeFour)
	h.press(domain.KeyFour)

	assert.Equal(t, []string{"Navegação não implementada: elsewhere", "Opção não disponível."}, h.messages())
	assert.Equal(t, "Return not available in this context.", h.engine.Messages().ReturnNotAvailable)
}

func TestEngine_ReentrantDispatchFromSubscriber(t *testing.T) {
	h := newHarness(t, nil).start()

	// Confirm automatically as soon as something is selected.
	h.bus.Subscribe(domain.EventSelection, func(domain.Event) error {
		return h.engine.Dispatch(context.Background(), domain.Command{Key: domain.KeyThreeFour})
	})

	h.press(domain.KeyTwo)
	assert.Equal(t, "north", h.state().CurrentProgram.ID)
}

func TestEngine_RunAction(t *testing.T) {
	h := newHarness(t, nil).start()

	require.NoError(t, h.engine.RunAction(context.Background(), "status"))
	assert.Equal(t, []string{"Mode: program | Program: menu"}, h.messages())

	err := h.engine.RunAction(context.Background(), "nope")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrExitRequested))
}

func TestEngine_ReturnFollowsGotoOnly(t *testing.T) {
	h := newHarness(t, map[string]string{
		"program/nested.json": `{"id": "nested", "description": "Nested", "choice": {
			"3+2": {"label": "Deeper", "choice": {"1": {"label": "Out", "goto": "*"}}}
		}}`,
	}, runtime.WithInitialMenu("program/nested.json")).start()

	h.press(domain.KeyThreeTwo)

	assert.Equal(t, []string{"Return not available in this context."}, h.messages())
	assert.Equal(t, "nested", h.state().CurrentProgram.ID)
	assert.Zero(t, h.count(domain.EventProgramLoaded))
}

func TestEngine_GameChoiceReadsSceneRegistry(t *testing.T) {
	h := newHarness(t, nil).start()
	enterWoods(h)
	require.True(t, h.engine.Scenes().Unregister("forest"))

	h.press(domain.KeyOne)

	assert.Equal(t, []string{"Choice not available."}, h.messages())
	assert.Equal(t, "forest", h.state().Game.CurrentScene)
}

func TestEngine_SceneRegistryIsPerGame(t *testing.T) {
	h := newHarness(t, map[string]string{
		"program/hub.json": `{"id": "hub", "description": "Hub", "choice": {
			"1": {"label": "Woods", "goto": "games/woods"},
			"2": {"label": "Lake", "goto": "games/lake"}
		}}`,
		"games/lake/main.json":   `{"id": "lake", "title": "The Lake", "entry": "forest", "config": {"command_map": {"1": "choice"}}}`,
		"games/lake/forest.json": `{"id": "forest", "title": "Lakeside forest", "choices": {"1": [{"text": "Swim", "goto": "shore"}]}}`,
		"games/lake/shore.json":  `{"id": "shore", "title": "Shore"}`,
	}, runtime.WithInitialMenu("program/hub.json")).start()

	h.press(domain.KeyOne, domain.KeyThreeFour, domain.KeyOne)
	require.Equal(t, "river", h.state().Game.CurrentScene)
	assert.Equal(t, []string{"forest", "river"}, h.engine.Scenes().IDs())

	h.press(domain.KeyOneTwo, domain.KeyTwo, domain.KeyThreeFour)
	require.Equal(t, "lake", h.state().CurrentGame.ID)
	assert.Equal(t, []string{"forest"}, h.engine.Scenes().IDs())

	h.press(domain.KeyOne)
	assert.Equal(t, "shore", h.state().Game.CurrentScene)
}
