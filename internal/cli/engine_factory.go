package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/vaudio"
	"github.com/aretw0/vaudio/internal/logging"
	"github.com/aretw0/vaudio/internal/runtime"
	"github.com/aretw0/vaudio/pkg/adapters/file"
	"github.com/aretw0/vaudio/pkg/adapters/loam"
	"github.com/aretw0/vaudio/pkg/adapters/process"
	"github.com/aretw0/vaudio/pkg/adapters/redis"
	"github.com/aretw0/vaudio/pkg/ports"
	"github.com/aretw0/vaudio/pkg/registry"
)

// Content sources selectable with --source.
const (
	SourceAuto  = ""
	SourceFile  = "file"
	SourceLoam  = "loam"
	SourceRedis = "redis"
)

// Options are the flags shared by every command that builds an engine.
type Options struct {
	Dir            string
	LogLevel       string
	LogFormat      string
	Window         time.Duration
	NoCombinations bool
	Source         string
	Redis          string
	Seed           bool
	MQTTBroker     string
	Initial        string
}

// Project is everything a command needs to drive one content directory.
type Project struct {
	Engine *vaudio.Engine
	Config *Config
	Logger *slog.Logger

	closers []func() error
}

// Close releases the content source.
func (p *Project) Close() error {
	var first error
	for _, c := range p.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ParseLevel maps a --log-level value onto slog levels. "off" and "" disable logging.
func ParseLevel(s string) (slog.Level, bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off", "none":
		return 0, false, nil
	case "debug":
		return slog.LevelDebug, true, nil
	case "info":
		return slog.LevelInfo, true, nil
	case "warn", "warning":
		return slog.LevelWarn, true, nil
	case "error":
		return slog.LevelError, true, nil
	}
	return 0, false, fmt.Errorf("unknown log level %q", s)
}

// createLogger configures the application logger.
// It writes to Stderr so Stdout stays free for the rendered flow.
func createLogger(level, format string) (*slog.Logger, error) {
	l, enabled, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return logging.NewNop(), nil
	}
	return logging.Open(os.Stderr, format, l)
}

// OpenProject loads the configuration, opens the content source and builds the engine.
func OpenProject(ctx context.Context, opts Options, extra ...vaudio.Option) (*Project, error) {
	logger, err := createLogger(opts.LogLevel, opts.LogFormat)
	if err != nil {
		return nil, err
	}
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	cfg, err := LoadConfig(dir)
	if err != nil {
		return nil, err
	}

	p := &Project{Config: cfg, Logger: logger}
	loader, err := p.openLoader(ctx, dir, opts)
	if err != nil {
		_ = p.Close()
		return nil, err
	}

	engineOpts := engineOptions(opts, cfg, loader, logger)
	if len(cfg.Actions) > 0 {
		actions, err := scriptActions(dir, cfg.Actions, logger)
		if err != nil {
			_ = p.Close()
			return nil, err
		}
		engineOpts = append(engineOpts, vaudio.WithActions(actions))
	}

	engine, err := vaudio.New(dir, append(engineOpts, extra...)...)
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	p.Engine = engine
	return p, nil
}

func engineOptions(opts Options, cfg *Config, loader ports.ContentLoader, logger *slog.Logger) []vaudio.Option {
	out := []vaudio.Option{
		vaudio.WithLoader(loader),
		vaudio.WithLogger(logger),
		vaudio.WithOverrides(cfg.Inputs),
	}

	// Flags win over the project file.
	window, _ := cfg.WindowDuration()
	if opts.Window > 0 {
		window = opts.Window
	}
	if window > 0 {
		out = append(out, vaudio.WithWindow(window))
	}

	combinations := cfg.Combinations == nil || *cfg.Combinations
	if opts.NoCombinations {
		combinations = false
	}
	out = append(out, vaudio.WithCombinations(combinations))

	initial := cfg.Initial
	if opts.Initial != "" {
		initial = opts.Initial
	}
	if initial != "" {
		out = append(out, vaudio.WithInitialMenu(initial))
	}
	return out
}

// scriptActions registers the project scripts after the built-in actions.
func scriptActions(dir string, scripts []process.Script, logger *slog.Logger) (*registry.Actions, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	runner := process.NewRunner(process.WithBaseDir(abs), process.WithLogger(logger))
	actions := registry.NewActions().WithDefaultActions()
	for _, s := range scripts {
		action, err := runner.Action(s)
		if err != nil {
			return nil, err
		}
		if err := actions.Add(action); err != nil {
			return nil, err
		}
	}
	return actions, nil
}

func (p *Project) openLoader(ctx context.Context, dir string, opts Options) (ports.ContentLoader, error) {
	source := opts.Source
	if source == SourceAuto {
		source = detectSource(dir)
	}
	p.Logger.Debug("opening content", "source", source, "dir", dir)

	switch source {
	case SourceFile:
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		return file.New(abs), nil
	case SourceLoam:
		return loam.Open(dir)
	case SourceRedis:
		return p.openRedis(ctx, dir, opts)
	}
	return nil, fmt.Errorf("unknown content source %q (want file, loam or redis)", opts.Source)
}

func (p *Project) openRedis(ctx context.Context, dir string, opts Options) (ports.ContentLoader, error) {
	rc := p.Config.Redis
	addr := rc.Addr
	if opts.Redis != "" {
		addr = opts.Redis
	}
	if addr == "" {
		addr = "localhost:6379"
	}
	var ropts []redis.Option
	if rc.Prefix != "" {
		ropts = append(ropts, redis.WithPrefix(rc.Prefix))
	}
	loader := redis.New(addr, rc.Password, rc.DB, ropts...)
	p.closers = append(p.closers, loader.Close)

	if err := loader.Ping(ctx); err != nil {
		return nil, fmt.Errorf("redis %s unreachable: %w", addr, err)
	}
	if opts.Seed {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		n, err := loader.Seed(ctx, file.New(abs))
		if err != nil {
			return nil, fmt.Errorf("failed to seed redis: %w", err)
		}
		p.Logger.Info("redis seeded", "documents", n, "addr", addr)
	}
	return loader, nil
}

// detectSource picks loam when the initial menu is authored as Markdown, the file loader otherwise.
func detectSource(dir string) string {
	if hasNode(dir, strings.TrimSuffix(runtime.InitialMenuPath, ".json"), ".md") {
		return SourceLoam
	}
	return SourceFile
}

// hasNode checks if a node exists as a file in the directory with one of the extensions.
func hasNode(dir, id string, extensions ...string) bool {
	for _, ext := range extensions {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(id)+ext)); err == nil {
			return true
		}
	}
	return false
}
