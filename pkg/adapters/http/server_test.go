package http

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/vaudio/pkg/domain"
	"github.com/aretw0/vaudio/pkg/eventbus"
	"github.com/aretw0/vaudio/pkg/input"
)

type fakeEngine struct {
	mu      sync.Mutex
	bus     *eventbus.Bus
	inputs  *input.Set
	pressed []string
	forced  []domain.CommandKey
	actions []string
	err     error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{bus: eventbus.New(), inputs: input.NewSet(input.Overrides{})}
}

func (f *fakeEngine) Press(s domain.Signal, source string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.pressed = append(f.pressed, s.String()+"@"+source)
	return nil
}

func (f *fakeEngine) Input(_ context.Context, device string, payload []byte) (domain.Signal, error) {
	s, source, err := f.inputs.NormalizeJSON(device, payload)
	if err != nil || s == domain.SignalNone {
		return s, err
	}
	return s, f.Press(s, source)
}

func (f *fakeEngine) Force(key domain.CommandKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.forced = append(f.forced, key)
	return nil
}

func (f *fakeEngine) RunAction(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch id {
	case "status":
		f.actions = append(f.actions, id)
		return nil
	case "locked":
		return fmt.Errorf("%w: %s", domain.ErrActionUnavailable, id)
	}
	return fmt.Errorf("%w: %s", domain.ErrUnknownAction, id)
}

func (f *fakeEngine) Snapshot() *domain.AppState {
	s := domain.NewAppState()
	s.CurrentProgram = &domain.ProgramNode{ID: "menu", Description: "Main menu"}
	return s
}

func (f *fakeEngine) Bus() *eventbus.Bus {
	return f.bus
}

func newHandler(t *testing.T, eng *fakeEngine, opts ...Option) http.Handler {
	t.Helper()
	h, err := NewHandler(eng, opts...)
	require.NoError(t, err)
	return h
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestGetSwagger(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)
	assert.Equal(t, "vaudio", doc.Info.Title)
	assert.NotNil(t, doc.Paths.Find("/input/{device}"))
}

func TestServer_ReadEndpoints(t *testing.T) {
	h := newHandler(t, newFakeEngine())

	w := do(h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(h, http.MethodGet, "/info", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var info map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "vaudio-http", info["app"])
	assert.Equal(t, "1.0.0", info["api_version"])

	w = do(h, http.MethodGet, "/state", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var state domain.AppState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, domain.ModeProgram, state.Mode)
	assert.Equal(t, "menu", state.CurrentProgram.ID)

	w = do(h, http.MethodGet, "/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")
}

func TestServer_Input(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		body     string
		err      error
		wantCode int
		wantBody string
	}{
		{"keyboard", "/input/keyboard", `{"key":"w"}`, nil, http.StatusAccepted, `{"signal":1}`},
		{"mouse alias", "/input/mouse", `{"kind":"button","button":2}`, nil, http.StatusAccepted, `{"signal":2}`},
		{"unmapped", "/input/voice", `{"transcript":"banana","confidence":0.9}`, nil, http.StatusAccepted, `{}`},
		{"unknown device", "/input/fridge", `{"key":"w"}`, nil, http.StatusBadRequest, ""},
		{"not an object", "/input/keyboard", `["w"]`, nil, http.StatusBadRequest, ""},
		{"stopped", "/input/keyboard", `{"key":"w"}`, domain.ErrResolverStopped, http.StatusConflict, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := newFakeEngine()
			eng.err = tt.err
			w := do(newHandler(t, eng), http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestServer_InputRequiresContentType(t *testing.T) {
	h := newHandler(t, newFakeEngine())
	req := httptest.NewRequest(http.MethodPost, "/input/keyboard", strings.NewReader(`{"key":"w"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_Press(t *testing.T) {
	eng := newFakeEngine()
	h := newHandler(t, eng)

	w := do(h, http.MethodPost, "/press", `{"signal":2}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	w = do(h, http.MethodPost, "/press", `{"signal":3,"source":"panel"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	w = do(h, http.MethodPost, "/press", `{"signal":7}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, []string{"2@http", "3@panel"}, eng.pressed)
}

func TestServer_Command(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantKey  domain.CommandKey
	}{
		{"single", `{"key":"4"}`, http.StatusAccepted, domain.KeyFour},
		{"folded pair", `{"key":"2 + 3"}`, http.StatusAccepted, domain.KeyThreeTwo},
		{"illegal pair", `{"key":"1+3"}`, http.StatusBadRequest, ""},
		{"garbage", `{"key":"go"}`, http.StatusBadRequest, ""},
		{"missing key", `{}`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := newFakeEngine()
			w := do(newHandler(t, eng), http.MethodPost, "/command", tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantKey != "" {
				assert.Equal(t, []domain.CommandKey{tt.wantKey}, eng.forced)
			} else {
				assert.Empty(t, eng.forced)
			}
		})
	}
}

func TestServer_Action(t *testing.T) {
	tests := []struct {
		id       string
		wantCode int
	}{
		{"status", http.StatusAccepted},
		{"locked", http.StatusConflict},
		{"nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			eng := newFakeEngine()
			w := do(newHandler(t, eng), http.MethodPost, "/actions/"+tt.id, "")
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantCode == http.StatusAccepted {
				assert.Equal(t, []string{tt.id}, eng.actions)
				assert.JSONEq(t, `{"action":"status"}`, w.Body.String())
			}
		})
	}
}

func TestServer_Metrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("vaudio_events_total 1\n"))
	})
	h := newHandler(t, newFakeEngine(), WithMetrics(metrics))

	w := do(h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vaudio_events_total")

	w = do(newHandler(t, newFakeEngine()), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Events(t *testing.T) {
	eng := newFakeEngine()
	h, err := NewHandler(eng)
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?kind=message", nil)
	require.NoError(t, err)
	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

	lines := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(res.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	next := func() string {
		select {
		case l := <-lines:
			return l
		case <-ctx.Done():
			return ""
		}
	}
	assert.Equal(t, "event: ping", next())

	// Filtered out by kind.
	eng.bus.Publish(domain.NewEvent(domain.EventRender))
	msg := domain.NewEvent(domain.EventMessage)
	msg.Message = "Option not available."
	eng.bus.Publish(msg.With("repeat", false))

	var got []string
	for l := next(); ; l = next() {
		if strings.HasPrefix(l, "event: ") && l != "event: ping" {
			got = append(got, l)
			got = append(got, next())
			break
		}
		if l == "" && ctx.Err() != nil {
			break
		}
	}
	require.Len(t, got, 2)
	assert.Equal(t, "event: message", got[0])
	assert.Contains(t, got[1], `"message":"Option not available."`)
	assert.Contains(t, got[1], `"repeat":false`)
}

func TestStreamManager_Filter(t *testing.T) {
	bus := eventbus.New()
	sm := NewStreamManager(bus, nil)

	all, cancelAll := sm.Subscribe()
	onlyExit, cancelExit := sm.Subscribe(domain.EventExit)
	assert.Equal(t, 2, sm.Count())

	bus.Publish(domain.NewEvent(domain.EventRender).With("state", domain.NewAppState()).With("mode", "program"))
	bus.Publish(domain.NewEvent(domain.EventExit))

	f := <-all
	assert.Equal(t, domain.EventRender, f.Kind)
	assert.Equal(t, map[string]any{"mode": "program"}, f.Data, "non-scalar payloads are dropped")
	assert.Equal(t, domain.EventExit, (<-all).Kind)
	assert.Equal(t, domain.EventExit, (<-onlyExit).Kind)

	cancelAll()
	cancelAll()
	cancelExit()
	assert.Equal(t, 0, sm.Count())
}
