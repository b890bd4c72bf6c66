package runner

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/aretw0/vaudio/pkg/domain"
)

// Frame is one JSON line written by JSONRenderer.
type Frame struct {
	Type    string              `json:"type"`
	Program *domain.ProgramNode `json:"program,omitempty"`
	Scene   *domain.Scene       `json:"scene,omitempty"`
	State   *domain.AppState    `json:"state,omitempty"`
	Game    *domain.GameState   `json:"game,omitempty"`
	Key     domain.CommandKey   `json:"key,omitempty"`
	Text    string              `json:"text,omitempty"`
}

// JSONRenderer writes JSON-Lines frames for structured consumers.
type JSONRenderer struct {
	mu      sync.Mutex
	Encoder *json.Encoder
}

// NewJSONRenderer creates a renderer writing to w (stdout when nil).
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	if w == nil {
		w = os.Stdout
	}
	return &JSONRenderer{Encoder: json.NewEncoder(w)}
}

func (j *JSONRenderer) write(f Frame) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Encoder.Encode(f)
}

func (j *JSONRenderer) RenderProgram(_ context.Context, node *domain.ProgramNode, state *domain.AppState) error {
	return j.write(Frame{Type: "program", Program: node, State: state})
}

func (j *JSONRenderer) RenderGame(_ context.Context, scene *domain.Scene, game domain.GameState) error {
	return j.write(Frame{Type: "scene", Scene: scene, Game: &game})
}

func (j *JSONRenderer) ShowMessage(_ context.Context, text string) error {
	return j.write(Frame{Type: "message", Text: text})
}

func (j *JSONRenderer) ShowSelection(_ context.Context, key domain.CommandKey, label string) error {
	return j.write(Frame{Type: "selection", Key: key, Text: label})
}

func (j *JSONRenderer) Clear(context.Context) error {
	return j.write(Frame{Type: "clear"})
}
