package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"

	"github.com/aretw0/vaudio/internal/presentation/tui"
	"github.com/aretw0/vaudio/pkg/adapters/mqtt"
	"github.com/aretw0/vaudio/pkg/ports"
	"github.com/aretw0/vaudio/pkg/runner"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	Options

	// Headless disables the prompt and terminal styling.
	Headless bool
	// JSON writes one frame per line on Stdout instead of text.
	JSON bool
	// TUI takes over the terminal and reads keys and mouse directly.
	TUI bool

	Stdin  io.Reader
	Stdout io.Writer
}

// Execute handles the 'run' command: it drives the engine until exit, EOF or interrupt.
func Execute(ctx context.Context, opts RunOptions) error {
	if opts.TUI && (opts.Headless || opts.JSON) {
		return fmt.Errorf("--tui cannot be combined with --headless or --json")
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	p, err := OpenProject(ctx, opts.Options)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runnerOpts := []runner.Option{runner.WithLogger(p.Logger)}

	switch {
	case opts.TUI:
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to open terminal: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("failed to initialize terminal: %w", err)
		}
		defer screen.Fini()

		keys := tui.NewKeySource(screen)
		keys.Logger = p.Logger
		runnerOpts = append(runnerOpts,
			runner.WithRenderer(tui.NewScreen(screen)),
			// Ctrl+C ends the whole run, not just the key source.
			runner.WithSource(finalSource{InputSource: keys, cancel: cancel}),
		)
	case opts.JSON:
		runnerOpts = append(runnerOpts,
			runner.WithRenderer(runner.NewJSONRenderer(opts.Stdout)),
			runner.WithSource(runner.NewLineSource(opts.Stdin, nil)),
		)
	default:
		interactive := !opts.Headless && isTerminal(opts.Stdin) && isTerminal(opts.Stdout)
		if interactive {
			tui.PrintBanner(opts.Stdout)
		}
		lines := runner.NewLineSource(opts.Stdin, nil)
		if interactive {
			lines.Writer = opts.Stdout
			lines.Prompt = "> "
		}
		var renderer ports.Renderer = tui.NewConsole(opts.Stdout, interactive)
		if opts.Headless {
			renderer = runner.NewTextRenderer(opts.Stdout)
		}
		runnerOpts = append(runnerOpts,
			runner.WithRenderer(renderer),
			runner.WithSource(lines),
		)
	}

	bridge, err := connectMQTT(p, opts.Options)
	if err != nil {
		return err
	}
	if bridge != nil {
		defer bridge.Close()
		runnerOpts = append(runnerOpts, runner.WithSource(bridge.Source))
	}

	return runner.NewRunner(runnerOpts...).Run(ctx, p.Engine)
}

// finalSource cancels the run when the wrapped source ends.
type finalSource struct {
	ports.InputSource
	cancel context.CancelFunc
}

func (f finalSource) Run(ctx context.Context, c ports.Controller) error {
	defer f.cancel()
	return f.InputSource.Run(ctx, c)
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && tui.IsTerminal(f)
}

// Bridge is a connected MQTT input source that also announces engine output.
type Bridge struct {
	Source *mqtt.Source

	detach     func()
	disconnect func()
}

// Close detaches the announcer and disconnects from the broker.
func (b *Bridge) Close() {
	b.detach()
	b.disconnect()
}

// connectMQTT dials the broker named by --mqtt-broker or the project file.
// It returns nil when neither names one.
func connectMQTT(p *Project, opts Options) (*Bridge, error) {
	cfg := p.Config.MQTT
	broker := cfg.Broker
	if opts.MQTTBroker != "" {
		broker = opts.MQTTBroker
	}
	if broker == "" {
		return nil, nil
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "vaudio-" + uuid.NewString()[:8]
	}
	topic := cfg.Topic
	if topic == "" {
		topic = mqtt.DefaultTopic
	}

	client, err := mqtt.Dial(broker, clientID)
	if err != nil {
		return nil, fmt.Errorf("mqtt %s: %w", broker, err)
	}
	p.Logger.Info("mqtt connected", "broker", broker, "client_id", clientID)

	return &Bridge{
		Source:     mqtt.NewSource(client, mqtt.WithTopic(topic), mqtt.WithLogger(p.Logger)),
		detach:     mqtt.Announce(p.Engine.Bus(), client, topic),
		disconnect: func() { client.Disconnect(250) },
	}, nil
}
