package tui

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/aretw0/vaudio/pkg/domain"
	"github.com/aretw0/vaudio/pkg/runner"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Console is a text renderer with colored status lines.
type Console struct {
	*runner.TextRenderer
	out *termenv.Output
}

// NewConsole creates a console renderer on w. Markdown descriptions are rendered
// with glamour when markdown is set.
func NewConsole(w io.Writer, markdown bool) *Console {
	var opts []runner.TextRendererOption
	if markdown {
		if r := NewRenderer(); r != nil {
			opts = append(opts, runner.WithContentRenderer(r))
		}
	}
	return &Console{
		TextRenderer: runner.NewTextRenderer(w, opts...),
		out:          termenv.NewOutput(w),
	}
}

// ShowMessage prints a status line in amber.
func (c *Console) ShowMessage(_ context.Context, text string) error {
	_, err := fmt.Fprintln(c.Writer, c.out.String("! "+text).Foreground(c.out.Color("#fbbf24")))
	return err
}

// ShowSelection echoes the pending choice in bold.
func (c *Console) ShowSelection(_ context.Context, key domain.CommandKey, label string) error {
	line := c.out.String(fmt.Sprintf("> [%s] %s", key, label)).Bold()
	hint := c.out.String("(3+4 to confirm)").Faint()
	_, err := fmt.Fprintf(c.Writer, "%s %s\n", line, hint)
	return err
}
