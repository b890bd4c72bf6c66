package ports

import (
	"context"

	"github.com/aretw0/vaudio/pkg/domain"
)

// Renderer presents state to a surface (terminal text, JSON lines, a test recorder).
type Renderer interface {
	RenderProgram(ctx context.Context, node *domain.ProgramNode, state *domain.AppState) error
	RenderGame(ctx context.Context, scene *domain.Scene, game domain.GameState) error
	ShowMessage(ctx context.Context, text string) error
	ShowSelection(ctx context.Context, key domain.CommandKey, label string) error
	Clear(ctx context.Context) error
}

// CommandSource hands resolved commands to the run loop in resolution order.
// Next is the loop's only suspension point; it returns io.EOF after Cleanup.
type CommandSource interface {
	Initialize(ctx context.Context) error
	Next(ctx context.Context) (domain.Command, error)
	Cleanup()
}

// InputSource reads a device and feeds it into a Controller.
// Run blocks until ctx is done or the device is exhausted; exhaustion returns io.EOF.
type InputSource interface {
	Run(ctx context.Context, c Controller) error
}
