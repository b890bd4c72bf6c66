package tui

import (
	"context"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/aretw0/vaudio/pkg/domain"
	"github.com/aretw0/vaudio/pkg/runner"
)

// Screen renders onto a full-screen tcell terminal.
// The view is the output of a TextRenderer; status lines stay at the bottom.
type Screen struct {
	screen tcell.Screen
	text   *runner.TextRenderer

	mu     sync.Mutex
	view   []string
	status string
}

// NewScreen draws on s, which must already be initialized.
func NewScreen(s tcell.Screen, opts ...runner.TextRendererOption) *Screen {
	sc := &Screen{screen: s}
	sc.text = runner.NewTextRenderer(viewWriter{sc}, opts...)
	return sc
}

type viewWriter struct{ s *Screen }

func (w viewWriter) Write(p []byte) (int, error) {
	w.s.mu.Lock()
	w.s.view = strings.Split(strings.Trim(string(p), "\n"), "\n")
	w.s.status = ""
	w.s.mu.Unlock()
	w.s.draw()
	return len(p), nil
}

func (s *Screen) RenderProgram(ctx context.Context, node *domain.ProgramNode, state *domain.AppState) error {
	return s.text.RenderProgram(ctx, node, state)
}

func (s *Screen) RenderGame(ctx context.Context, scene *domain.Scene, game domain.GameState) error {
	return s.text.RenderGame(ctx, scene, game)
}

func (s *Screen) ShowMessage(_ context.Context, text string) error {
	s.setStatus("! " + text)
	return nil
}

func (s *Screen) ShowSelection(_ context.Context, key domain.CommandKey, label string) error {
	s.setStatus("> [" + string(key) + "] " + label + " (3+4 to confirm)")
	return nil
}

func (s *Screen) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.view = nil
	s.status = ""
	s.mu.Unlock()
	return s.text.Clear(ctx)
}

// Lines returns the current view followed by the status line, if any.
func (s *Screen) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]string(nil), s.view...)
	if s.status != "" {
		out = append(out, "", s.status)
	}
	return out
}

func (s *Screen) setStatus(line string) {
	s.mu.Lock()
	s.status = line
	s.mu.Unlock()
	s.draw()
}

func (s *Screen) draw() {
	lines := s.Lines()
	s.screen.Clear()
	_, height := s.screen.Size()
	titleStyle := tcell.StyleDefault.Bold(true)
	for y, line := range lines {
		if y >= height {
			break
		}
		style := tcell.StyleDefault
		switch {
		case strings.HasPrefix(line, "=="), strings.HasPrefix(line, "##"):
			style = titleStyle
		case strings.HasPrefix(line, "!"):
			style = style.Foreground(tcell.ColorYellow)
		case strings.HasPrefix(line, ">"):
			style = style.Foreground(tcell.ColorAqua)
		}
		x := 0
		for _, r := range line {
			s.screen.SetContent(x, y, r, nil, style)
			x++
		}
	}
	s.screen.Show()
}
