package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/vaudio"
	"github.com/aretw0/vaudio/internal/logging"
	"github.com/aretw0/vaudio/pkg/domain"
	"github.com/aretw0/vaudio/pkg/eventbus"
	"github.com/aretw0/vaudio/pkg/input"
	"github.com/aretw0/vaudio/pkg/ports"
)

//go:embed openapi.yaml
var rawSpec []byte

// maxBodySize bounds request bodies; device events are tiny.
const maxBodySize = 64 << 10

// Engine is what the server drives: the controller surface plus the event bus for streaming.
type Engine interface {
	ports.Controller
	Bus() *eventbus.Bus
}

// ActionRunner is implemented by engines that expose registered actions.
type ActionRunner interface {
	RunAction(ctx context.Context, id string) error
}

// Server exposes an Engine over HTTP.
type Server struct {
	Engine  Engine
	Streams *StreamManager
	Metrics http.Handler

	logger *slog.Logger
	spec   *openapi3.T
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMetrics mounts a Prometheus handler on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// GetSwagger parses the embedded OpenAPI document.
func GetSwagger() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to parse openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
}

// NewHandler creates the HTTP handler for the engine.
// Requests to documented operations are validated against the embedded OpenAPI document.
func NewHandler(engine Engine, opts ...Option) (http.Handler, error) {
	spec, err := GetSwagger()
	if err != nil {
		return nil, err
	}
	s := &Server{
		Engine: engine,
		logger: logging.NewNop(),
		spec:   spec,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(engine.Bus(), s.logger)

	validate, err := validator(spec, s.logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(validate)
		r.Get("/health", s.GetHealth)
		r.Get("/info", s.GetInfo)
		r.Get("/state", s.GetState)
		r.Get("/events", s.SubscribeEvents)
		r.Post("/input/{device}", s.PostInput)
		r.Post("/press", s.PostPress)
		r.Post("/command", s.PostCommand)
		r.Post("/actions/{id}", s.PostAction)
	})
	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>vaudio API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// Accepted is the body of every 202 response.
type Accepted struct {
	Signal int    `json:"signal,omitempty"`
	Key    string `json:"key,omitempty"`
	Action string `json:"action,omitempty"`
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, _ *http.Request) {
	apiVersion := "unknown"
	if s.spec.Info != nil {
		apiVersion = s.spec.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "vaudio-http",
		"version":     strings.TrimSpace(vaudio.Version),
		"api_version": apiVersion,
	})
}

// GetState handles GET /state.
func (s *Server) GetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.Snapshot())
}

// PostInput handles POST /input/{device}: the body is the raw device event.
func (s *Server) PostInput(w http.ResponseWriter, r *http.Request) {
	device := chi.URLParam(r, "device")
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sig, err := s.Engine.Input(r.Context(), device, payload)
	if err != nil {
		s.logger.Warn("input rejected", "device", device, "error", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusAccepted, Accepted{Signal: int(sig)})
}

// PostPress handles POST /press.
func (s *Server) PostPress(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Signal int    `json:"signal"`
		Source string `json:"source"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if body.Source == "" {
		body.Source = "http"
	}

	sig := domain.Signal(body.Signal)
	if err := s.Engine.Press(sig, body.Source); err != nil {
		s.logger.Warn("press rejected", "signal", body.Signal, "error", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusAccepted, Accepted{Signal: body.Signal})
}

// PostCommand handles POST /command.
func (s *Server) PostCommand(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	key, err := domain.ParseCommandKey(body.Key)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.Engine.Force(key); err != nil {
		s.logger.Warn("command rejected", "key", key, "error", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusAccepted, Accepted{Key: string(key)})
}

// PostAction runs a registered action by id against the current state.
func (s *Server) PostAction(w http.ResponseWriter, r *http.Request) {
	runner, ok := s.Engine.(ActionRunner)
	if !ok {
		writeError(w, http.StatusNotImplemented, errors.New("engine does not expose actions"))
		return
	}
	id := chi.URLParam(r, "id")
	if err := runner.RunAction(r.Context(), id); err != nil {
		s.logger.Warn("action failed", "action", id, "error", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusAccepted, Accepted{Action: id})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, input.ErrUnknownDevice), errors.Is(err, domain.ErrUnknownAction):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrResolverStopped), errors.Is(err, domain.ErrNotRunning), errors.Is(err, domain.ErrActionUnavailable):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidSignal), errors.Is(err, domain.ErrIllegalCommand):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	var syntax *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntax) || errors.As(err, &typeErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
