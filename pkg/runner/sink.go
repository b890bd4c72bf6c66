package runner

import (
	"context"

	"github.com/aretw0/vaudio/pkg/domain"
	"github.com/aretw0/vaudio/pkg/eventbus"
	"github.com/aretw0/vaudio/pkg/ports"
)

// Attach subscribes a renderer to the render, message and selection events of bus.
// The returned function detaches it. Renderer errors are reported back on the bus.
func Attach(bus *eventbus.Bus, r ports.Renderer) (detach func()) {
	ctx := context.Background()
	subs := []eventbus.Subscription{
		bus.Subscribe(domain.EventRender, func(ev domain.Event) error {
			return render(ctx, r, ev)
		}),
		bus.Subscribe(domain.EventMessage, func(ev domain.Event) error {
			return r.ShowMessage(ctx, ev.Message)
		}),
		bus.Subscribe(domain.EventSelection, func(ev domain.Event) error {
			key, _ := ev.Data["key"].(string)
			label, _ := ev.Data["label"].(string)
			return r.ShowSelection(ctx, domain.CommandKey(key), label)
		}),
	}
	return func() {
		for _, s := range subs {
			bus.Unsubscribe(s)
		}
	}
}

func render(ctx context.Context, r ports.Renderer, ev domain.Event) error {
	if repeat, _ := ev.Data["repeat"].(bool); repeat {
		if err := r.Clear(ctx); err != nil {
			return err
		}
	}

	state, _ := ev.Data["state"].(*domain.AppState)
	if scene, ok := ev.Data["scene"].(*domain.Scene); ok && scene != nil {
		game, _ := ev.Data["game"].(domain.GameState)
		return r.RenderGame(ctx, scene, game)
	}
	if node, ok := ev.Data["program"].(*domain.ProgramNode); ok && node != nil {
		return r.RenderProgram(ctx, node, state)
	}
	return nil
}
