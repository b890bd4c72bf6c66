package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/vaudio"
	"github.com/aretw0/vaudio/internal/testutils"
	"github.com/aretw0/vaudio/pkg/adapters/memory"
	"github.com/aretw0/vaudio/pkg/domain"
)

var content = map[string]string{
	"program/initial/menu.json": `{
		"id": "menu",
		"description": "Main menu",
		"choice": {
			"1": {"label": "Play", "goto": "games/demo"},
			"2": {"label": "Settings", "goto": "@/settings.json"},
			"4": {"label": "Quit", "goto": "*"}
		}
	}`,
	"program/settings.json":     `{"id": "settings", "description": "Settings", "choice": {"3+2": {"label": "Back", "goto": "-"}}}`,
	"program/program-menu.json": `{"id": "program-menu", "description": "Program menu", "choice": {}}`,
	"games/demo/main.json":      `{"id": "demo", "entry": "start", "command_map": {"1": "choice", "1+2": "menu"}}`,
	"games/demo/start.json":     `{"id": "start", "title": "Start", "choices": {"1": [{"text": "On", "goto": "end"}]}}`,
	"games/demo/end.json":       `{"id": "end", "title": "End"}`,
}

func newServer(t *testing.T) (*Server, *vaudio.Engine, *testutils.ManualClock) {
	t.Helper()
	clock := testutils.NewManualClock(time.Unix(0, 0))
	eng, err := vaudio.New("", vaudio.WithLoader(memory.NewLoader(content)), vaudio.WithScheduler(clock))
	require.NoError(t, err)
	require.NoError(t, eng.Start(context.Background()))
	t.Cleanup(eng.Stop)
	return NewServer(eng), eng, clock
}

func command(t *testing.T, s *Server, key string) View {
	t.Helper()
	v, err := s.handleCommand(context.Background(), mcp.CallToolRequest{}, map[string]any{"key": key})
	require.NoError(t, err)
	return v
}

func TestServer_CommandFlow(t *testing.T) {
	s, eng, _ := newServer(t)

	v := command(t, s, "2")
	assert.Equal(t, "menu", v.Program)
	assert.Equal(t, "2: Settings", v.Selected)
	assert.Equal(t, []string{"1: Play", "2: Settings", "4: Quit"}, v.Choices)

	v = command(t, s, "3+4")
	assert.Equal(t, "settings", v.Program)
	assert.Empty(t, v.Selected)

	v = command(t, s, "2 + 3")
	assert.Equal(t, "menu", v.Program)

	v = command(t, s, "3")
	assert.Equal(t, []string{"Option not available."}, v.Messages)

	command(t, s, "4")
	v = command(t, s, "3+4")
	assert.True(t, v.Exited)

	select {
	case <-eng.Done():
	default:
		t.Fatal("exit should close the engine")
	}
	_, err := s.handleCommand(context.Background(), mcp.CallToolRequest{}, map[string]any{"key": "1"})
	assert.ErrorIs(t, err, domain.ErrResolverStopped)
}

func TestServer_CommandRejectsIllegalKeys(t *testing.T) {
	s, _, _ := newServer(t)

	_, err := s.handleCommand(context.Background(), mcp.CallToolRequest{}, map[string]any{"key": "1+3"})
	assert.ErrorIs(t, err, domain.ErrIllegalCommand)
	_, err = s.handleCommand(context.Background(), mcp.CallToolRequest{}, map[string]any{"key": "up"})
	assert.ErrorIs(t, err, domain.ErrInvalidSignal)
}

func TestServer_PressWaitsForWindow(t *testing.T) {
	s, eng, clock := newServer(t)

	_, err := s.handlePress(context.Background(), mcp.CallToolRequest{}, map[string]any{"signal": float64(9)})
	assert.ErrorIs(t, err, domain.ErrInvalidSignal)

	v, err := s.handlePress(context.Background(), mcp.CallToolRequest{}, map[string]any{"signal": float64(2)})
	require.NoError(t, err)
	assert.Empty(t, v.Selected, "a lone signal waits for a possible partner")

	clock.Advance(eng.Window())
	assert.Equal(t, "2: Settings", Describe(eng.Snapshot()).Selected)
}

func TestServer_Input(t *testing.T) {
	s, _, _ := newServer(t)

	_, err := s.handleInput(context.Background(), mcp.CallToolRequest{}, map[string]any{"device": "keyboard", "event": "w"})
	assert.Error(t, err)

	_, err = s.handleInput(context.Background(), mcp.CallToolRequest{}, map[string]any{"device": "fridge", "event": `{}`})
	assert.Error(t, err)

	_, err = s.handleInput(context.Background(), mcp.CallToolRequest{}, map[string]any{"device": "voice", "event": `{"transcript":"banana","confidence":1}`})
	assert.NoError(t, err)
}

func TestServer_RunActionCapturesMessages(t *testing.T) {
	s, eng, _ := newServer(t)

	v, err := s.capture(func() error { return eng.RunAction(context.Background(), "status") })
	require.NoError(t, err)
	assert.Equal(t, []string{"Mode: program | Program: menu"}, v.Messages)
}

func TestDescribe_Game(t *testing.T) {
	s, _, _ := newServer(t)

	command(t, s, "1")
	v := command(t, s, "3+4")
	assert.Equal(t, domain.ModeGame, v.Mode)
	assert.Equal(t, "start", v.Scene)
	assert.Equal(t, "Start", v.Title)
	assert.Equal(t, []string{"1: On"}, v.Choices)
}
