package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/vaudio"
	"github.com/aretw0/vaudio/internal/logging"
	"github.com/aretw0/vaudio/pkg/domain"
	"github.com/aretw0/vaudio/pkg/eventbus"
	"github.com/aretw0/vaudio/pkg/ports"
	"github.com/aretw0/vaudio/pkg/runner"
)

// StateURI is the resource exposing the current application state.
const StateURI = "vaudio://state"

// View is the structured answer of every tool: where the user is and what was said.
type View struct {
	Mode     domain.Mode `json:"mode" jsonschema_description:"program or game"`
	Program  string      `json:"program,omitempty" jsonschema_description:"Current program node id"`
	Title    string      `json:"title,omitempty" jsonschema_description:"Description of the current node or scene"`
	Scene    string      `json:"scene,omitempty" jsonschema_description:"Current scene id in game mode"`
	Choices  []string    `json:"choices" jsonschema_description:"Available options as 'key: label'"`
	Selected string      `json:"selected,omitempty" jsonschema_description:"Selection awaiting 3+4"`
	List     string      `json:"list" jsonschema_description:"main or extra"`
	Messages []string    `json:"messages,omitempty" jsonschema_description:"Messages produced by the call"`
	Exited   bool        `json:"exited,omitempty" jsonschema_description:"The exit target was reached"`
}

// Engine is what the MCP server drives.
type Engine interface {
	ports.Controller
	RunAction(ctx context.Context, id string) error
	Bus() *eventbus.Bus
}

// Server wraps an Engine and exposes it as an MCP server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger

	// calls are serialized so captured messages belong to one tool call.
	mu sync.Mutex
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a new MCP server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("vaudio-mcp", strings.TrimSpace(vaudio.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("force_command",
		mcp.WithDescription("Dispatch one of the eight commands (1, 2, 3, 4, 1+2, 1+4, 3+2, 3+4) immediately."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Command key, e.g. '3+4' to confirm a selection")),
		mcp.WithOutputSchema[View](),
	), mcp.NewStructuredToolHandler(s.handleCommand))

	s.mcpServer.AddTool(mcp.NewTool("press",
		mcp.WithDescription("Feed a raw signal (1-4) into the combination resolver. Two signals inside the window form a pair."),
		mcp.WithNumber("signal", mcp.Required(), mcp.Description("Signal value 1..4")),
		mcp.WithString("source", mcp.Description("Source tag (default mcp)")),
		mcp.WithOutputSchema[View](),
	), mcp.NewStructuredToolHandler(s.handlePress))

	s.mcpServer.AddTool(mcp.NewTool("send_input",
		mcp.WithDescription("Send a device event (keyboard, pointer, controller, touch, voice) as JSON."),
		mcp.WithString("device", mcp.Required(), mcp.Description("Device name")),
		mcp.WithString("event", mcp.Required(), mcp.Description(`Device event JSON, e.g. {"key":"w"}`)),
		mcp.WithOutputSchema[View](),
	), mcp.NewStructuredToolHandler(s.handleInput))

	s.mcpServer.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Describe the current menu or scene and its options."),
		mcp.WithOutputSchema[View](),
	), mcp.NewStructuredToolHandler(func(context.Context, mcp.CallToolRequest, map[string]any) (View, error) {
		return Describe(s.engine.Snapshot()), nil
	}))

	s.mcpServer.AddTool(mcp.NewTool("run_action",
		mcp.WithDescription("Run a registered action by id against the current state."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Action id")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		view, err := s.capture(func() error { return s.engine.RunAction(ctx, id) })
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("action failed: %v", err)), nil
		}
		return mcp.NewToolResultText(strings.Join(view.Messages, "\n")), nil
	})
}

func (s *Server) handleCommand(_ context.Context, _ mcp.CallToolRequest, args map[string]any) (View, error) {
	raw, _ := args["key"].(string)
	clean, err := runner.SanitizeLine(raw)
	if err != nil {
		return View{}, fmt.Errorf("input rejected: %w", err)
	}
	key, err := domain.ParseCommandKey(clean)
	if err != nil {
		return View{}, err
	}
	return s.capture(func() error { return s.engine.Force(key) })
}

func (s *Server) handlePress(_ context.Context, _ mcp.CallToolRequest, args map[string]any) (View, error) {
	n, _ := args["signal"].(float64)
	source, _ := args["source"].(string)
	if source == "" {
		source = "mcp"
	}
	sig := domain.Signal(int(n))
	if !sig.Valid() {
		return View{}, fmt.Errorf("%w: %v", domain.ErrInvalidSignal, args["signal"])
	}
	return s.capture(func() error { return s.engine.Press(sig, source) })
}

func (s *Server) handleInput(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (View, error) {
	device, _ := args["device"].(string)
	raw, _ := args["event"].(string)
	event, err := runner.SanitizePayload(raw)
	if err != nil {
		return View{}, fmt.Errorf("input rejected: %w", err)
	}
	if !json.Valid([]byte(event)) {
		return View{}, errors.New("event must be a JSON object")
	}
	return s.capture(func() error {
		_, err := s.engine.Input(ctx, device, []byte(event))
		return err
	})
}

// capture runs fn and collects the messages published while it ran.
func (s *Server) capture(fn func() error) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		mu       sync.Mutex
		messages []string
		exited   bool
	)
	bus := s.engine.Bus()
	subs := []eventbus.Subscription{
		bus.Subscribe(domain.EventMessage, func(ev domain.Event) error {
			mu.Lock()
			messages = append(messages, ev.Message)
			mu.Unlock()
			return nil
		}),
		bus.Subscribe(domain.EventExit, func(domain.Event) error {
			mu.Lock()
			exited = true
			mu.Unlock()
			return nil
		}),
	}
	err := fn()
	for _, sub := range subs {
		bus.Unsubscribe(sub)
	}
	if err != nil {
		s.logger.Warn("mcp call failed", "error", err)
		return View{}, err
	}

	view := Describe(s.engine.Snapshot())
	mu.Lock()
	view.Messages = messages
	view.Exited = exited
	mu.Unlock()
	return view, nil
}

// Describe flattens the state into what a client needs to pick the next command.
func Describe(state *domain.AppState) View {
	v := View{Mode: state.Mode, List: string(state.CurrentList), Choices: []string{}}
	if state.Selected != nil {
		v.Selected = fmt.Sprintf("%s: %s", state.Selected.Key, state.Selected.Choice.Label)
	}
	if state.Mode == domain.ModeGame && state.CurrentScene != nil {
		v.Scene = state.CurrentScene.ID
		v.Title = state.CurrentScene.Title
		for _, key := range domain.CommandKeys {
			for _, c := range state.CurrentScene.Choices[key] {
				v.Choices = append(v.Choices, fmt.Sprintf("%s: %s", key, c.Text))
			}
		}
		return v
	}
	if node := state.CurrentProgram; node != nil {
		v.Program = node.ID
		v.Title = node.Description
		for _, key := range node.Keys() {
			slot, _ := node.Slot(key)
			c, _ := slot.Current()
			v.Choices = append(v.Choices, fmt.Sprintf("%s: %s", key, c.Label))
		}
	}
	return v
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(StateURI, "Current application state",
		mcp.WithMIMEType("application/json"),
	), func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.engine.Snapshot())
		if err != nil {
			return nil, fmt.Errorf("failed to encode state: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      StateURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
