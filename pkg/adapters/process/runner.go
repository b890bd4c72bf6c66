// Package process runs allow-listed local commands as engine actions.
//
// A script sees the current position in its environment (VAUDIO_MODE, VAUDIO_PROGRAM,
// VAUDIO_GAME, VAUDIO_SCENE, VAUDIO_COMMAND) and answers on stdout, either with plain
// text, spoken as a message, or with a JSON object:
//
//	{"message": "It is raining", "variables": {"weather": "rain"}}
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/vaudio/internal/logging"
	"github.com/aretw0/vaudio/pkg/domain"
)

// DefaultTimeout bounds a script run when the script does not set one.
const DefaultTimeout = 10 * time.Second

// Script declares an action backed by a local command.
type Script struct {
	ID          string            `yaml:"id" json:"id"`
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description" json:"description"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Env         map[string]string `yaml:"env" json:"env"`
	// Commands bind the action to command keys such as "1+2".
	Commands []string `yaml:"commands" json:"commands"`
	// Mode restricts eligibility to "program" or "game". Empty means always.
	Mode    string        `yaml:"mode" json:"mode"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// Output is the structured form of a script answer.
type Output struct {
	Message   string         `json:"message"`
	Variables map[string]any `json:"variables"`
}

// Runner executes scripts from a base directory.
type Runner struct {
	baseDir string
	logger  *slog.Logger
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithLogger sets the logger used for script failures.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Action turns a script into a registrable action.
func (r *Runner) Action(s Script) (*domain.Action, error) {
	if s.ID == "" {
		return nil, fmt.Errorf("script requires an id")
	}
	if s.Command == "" {
		return nil, fmt.Errorf("script %s requires a command", s.ID)
	}
	keys := make([]domain.CommandKey, 0, len(s.Commands))
	for _, raw := range s.Commands {
		key, err := domain.ParseCommandKey(raw)
		if err != nil {
			return nil, fmt.Errorf("script %s: %w", s.ID, err)
		}
		keys = append(keys, key)
	}

	var condition func(*domain.AppState) bool
	switch s.Mode {
	case "":
	case string(domain.ModeProgram), string(domain.ModeGame):
		mode := domain.Mode(s.Mode)
		condition = func(state *domain.AppState) bool { return state != nil && state.Mode == mode }
	default:
		return nil, fmt.Errorf("script %s: unknown mode %q", s.ID, s.Mode)
	}

	name := s.Name
	if name == "" {
		name = s.ID
	}
	return &domain.Action{
		ID:          s.ID,
		Name:        name,
		Description: s.Description,
		Commands:    keys,
		Condition:   condition,
		Run: func(ctx context.Context, actx *domain.ActionContext) error {
			return r.Run(ctx, s, actx)
		},
	}, nil
}

// Run executes the script and applies its answer to actx.
func (r *Runner) Run(ctx context.Context, s Script, actx *domain.ActionContext) error {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Arguments never reach the command line; the position travels as environment.
	cmd := exec.CommandContext(ctx, s.Command, s.Args...)
	cmd.Dir = r.baseDir
	cmd.Env = append(cmd.Environ(), environment(s, actx)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		r.logger.Warn("script failed", "script", s.ID, "error", err, "stderr", strings.TrimSpace(stderr.String()))
		return fmt.Errorf("script %s failed: %w", s.ID, err)
	}

	out := parseOutput(stdout.String())
	if actx == nil {
		return nil
	}
	if actx.Store != nil {
		names := make([]string, 0, len(out.Variables))
		for name := range out.Variables {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			actx.Store.SetVariable(name, out.Variables[name])
		}
	}
	if out.Message != "" {
		actx.Message(out.Message)
	}
	return nil
}

func environment(s Script, actx *domain.ActionContext) []string {
	env := make([]string, 0, len(s.Env)+5)
	for k, v := range s.Env {
		env = append(env, k+"="+v)
	}
	if actx == nil {
		return env
	}
	env = append(env, "VAUDIO_COMMAND="+string(actx.Command.Key))
	if st := actx.State; st != nil {
		env = append(env, "VAUDIO_MODE="+string(st.Mode))
		if st.CurrentProgram != nil {
			env = append(env, "VAUDIO_PROGRAM="+st.CurrentProgram.ID)
		}
		if st.Mode == domain.ModeGame && st.CurrentGame != nil {
			env = append(env, "VAUDIO_GAME="+st.CurrentGame.ID, "VAUDIO_SCENE="+st.Game.CurrentScene)
		}
	}
	return env
}

// parseOutput reads a JSON answer when stdout holds one, plain text otherwise.
func parseOutput(raw string) Output {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		var out Output
		if err := json.Unmarshal([]byte(trimmed), &out); err == nil {
			return out
		}
	}
	return Output{Message: trimmed}
}
