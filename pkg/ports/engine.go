package ports

import (
	"context"

	"github.com/aretw0/vaudio/pkg/domain"
)

// Controller is the surface input sources and transports (terminal, HTTP, MCP, MQTT)
// use to drive a running engine.
type Controller interface {
	// Press feeds one signal into the combination resolver.
	Press(signal domain.Signal, source string) error

	// Input normalizes a raw device payload (JSON) and presses the resulting signal.
	// Unmapped input yields domain.SignalNone and no error.
	Input(ctx context.Context, device string, payload []byte) (domain.Signal, error)

	// Force bypasses the resolver and dispatches a command immediately.
	Force(key domain.CommandKey) error

	// Snapshot returns a copy of the application state.
	Snapshot() *domain.AppState
}

// Dispatcher applies resolved commands to the navigation state machine.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd domain.Command) error
}

// Publisher is the producer side of the event bus.
type Publisher interface {
	Publish(ev domain.Event)
}
