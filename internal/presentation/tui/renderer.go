package tui

import (
	"github.com/charmbracelet/glamour"

	"github.com/aretw0/vaudio/pkg/runner"
)

// NewRenderer returns a content renderer turning Markdown descriptions into styled terminal text.
// Without a usable style it returns nil and descriptions are printed verbatim.
func NewRenderer() runner.ContentRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return nil
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
