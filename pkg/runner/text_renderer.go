package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/vaudio/pkg/domain"
)

// ContentRenderer transforms descriptions before output (e.g. Markdown to ANSI).
type ContentRenderer func(string) (string, error)

// TextRenderer writes menus and scenes as plain text.
// Consecutive renders of the same view are printed once; Clear forgets the last view.
type TextRenderer struct {
	Writer  io.Writer
	Content ContentRenderer

	mu   sync.Mutex
	last string
}

// TextRendererOption configures a TextRenderer.
type TextRendererOption func(*TextRenderer)

// WithContentRenderer sets the description transform.
func WithContentRenderer(c ContentRenderer) TextRendererOption {
	return func(t *TextRenderer) {
		t.Content = c
	}
}

// NewTextRenderer creates a renderer writing to w (stdout when nil).
func NewTextRenderer(w io.Writer, opts ...TextRendererOption) *TextRenderer {
	if w == nil {
		w = os.Stdout
	}
	t := &TextRenderer{Writer: w}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// seen records the view and reports whether it was already on screen.
func (t *TextRenderer) seen(view string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last == view {
		return true
	}
	t.last = view
	return false
}

func (t *TextRenderer) content(text string) string {
	if t.Content == nil || text == "" {
		return text
	}
	out, err := t.Content(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(out)
}

// RenderProgram prints the node title and its bound choices.
func (t *TextRenderer) RenderProgram(_ context.Context, node *domain.ProgramNode, state *domain.AppState) error {
	list := domain.ListMain
	extra := ""
	if state != nil {
		list = state.CurrentList
		extra = state.ExtraFrameNumber
	}
	if t.seen(fmt.Sprintf("program:%s:%s:%s", node.ID, list, extra)) {
		return nil
	}

	var b strings.Builder
	title := node.Description
	if title == "" {
		title = node.ID
	}
	fmt.Fprintf(&b, "\n== %s ==\n", t.content(title))
	if list == domain.ListExtra {
		fmt.Fprintf(&b, "(extra frame %s)\n", extra)
	}
	for _, key := range node.Keys() {
		slot, _ := node.Slot(key)
		c, _ := slot.Current()
		if slot.IsList() {
			fmt.Fprintf(&b, "[%s] %s (%d/%d)\n", key, c.Label, slot.Cursor()+1, slot.Len())
			continue
		}
		fmt.Fprintf(&b, "[%s] %s\n", key, c.Label)
	}
	_, err := io.WriteString(t.Writer, b.String())
	return err
}

// RenderGame prints the scene title, description and branches.
func (t *TextRenderer) RenderGame(_ context.Context, scene *domain.Scene, game domain.GameState) error {
	if t.seen(fmt.Sprintf("scene:%s:%d", scene.ID, len(game.History))) {
		return nil
	}

	var b strings.Builder
	title := scene.Title
	if title == "" {
		title = scene.ID
	}
	fmt.Fprintf(&b, "\n## %s\n", title)
	if scene.Description != "" {
		fmt.Fprintf(&b, "%s\n", t.content(scene.Description))
	}
	for _, key := range domain.CommandKeys {
		for _, c := range scene.Choices[key] {
			fmt.Fprintf(&b, "[%s] %s\n", key, c.Text)
		}
	}
	_, err := io.WriteString(t.Writer, b.String())
	return err
}

// ShowMessage prints a status line.
func (t *TextRenderer) ShowMessage(_ context.Context, text string) error {
	_, err := fmt.Fprintf(t.Writer, "! %s\n", text)
	return err
}

// ShowSelection echoes the pending choice.
func (t *TextRenderer) ShowSelection(_ context.Context, key domain.CommandKey, label string) error {
	_, err := fmt.Fprintf(t.Writer, "> [%s] %s (3+4 to confirm)\n", key, label)
	return err
}

// Clear forgets the last view so the next render prints in full.
func (t *TextRenderer) Clear(context.Context) error {
	t.mu.Lock()
	t.last = ""
	t.mu.Unlock()
	return nil
}
