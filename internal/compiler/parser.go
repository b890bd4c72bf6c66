package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/vaudio/internal/dto"
	"github.com/aretw0/vaudio/pkg/domain"
)

// Parser converts raw content files into domain values.
// JSON and YAML are both accepted; the path extension picks the decoder and
// extension-less content is sniffed.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// decodeRaw turns bytes into a generic tree with string keys.
func decodeRaw(path string, data []byte) (map[string]any, error) {
	var raw any
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case ext == ".json", ext == "" && looksLikeJSON(data):
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	}
	tree, ok := Normalize(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected an object, got %T", raw)
	}
	return tree, nil
}

func looksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// Normalize converts YAML maps with non-string keys (e.g. `1:`) into string-keyed maps.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = Normalize(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = Normalize(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = Normalize(val)
		}
		return t
	}
	return v
}

func decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func (p *Parser) into(path string, data []byte, out any) error {
	tree, err := decodeRaw(path, data)
	if err != nil {
		return err
	}
	return decode(tree, out)
}

// ParseProgram decodes a program node.
func (p *Parser) ParseProgram(path string, data []byte) (*domain.ProgramNode, error) {
	var raw dto.Program
	if err := p.into(path, data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse program: %w", err)
	}
	if raw.ID == "" {
		return nil, fmt.Errorf("program missing id")
	}
	choices, err := compileChoices(raw.Choice)
	if err != nil {
		return nil, fmt.Errorf("program %s: %w", raw.ID, err)
	}
	return &domain.ProgramNode{
		ID:          raw.ID,
		Description: raw.Description,
		Extra:       raw.Extra,
		Choices:     choices,
	}, nil
}

// compileChoices resolves each slot into its single or list variant.
func compileChoices(raw map[string]any) (map[domain.CommandKey]*domain.ChoiceSlot, error) {
	out := make(map[domain.CommandKey]*domain.ChoiceSlot, len(raw))
	for k, v := range raw {
		key, err := domain.ParseCommandKey(k)
		if err != nil {
			return nil, fmt.Errorf("choice key %q: %w", k, err)
		}
		switch val := v.(type) {
		case nil:
			continue
		case []any:
			list := make([]domain.Choice, 0, len(val))
			for i, item := range val {
				c, err := compileChoice(item)
				if err != nil {
					return nil, fmt.Errorf("choice %s[%d]: %w", key, i, err)
				}
				list = append(list, c)
			}
			out[key] = domain.NewChoiceList(list...)
		default:
			c, err := compileChoice(val)
			if err != nil {
				return nil, fmt.Errorf("choice %s: %w", key, err)
			}
			out[key] = domain.NewSingleChoice(c)
		}
	}
	return out, nil
}

func compileChoice(v any) (domain.Choice, error) {
	if _, ok := v.(map[string]any); !ok {
		return domain.Choice{}, fmt.Errorf("expected an object, got %T", v)
	}
	var raw dto.Choice
	if err := decode(v, &raw); err != nil {
		return domain.Choice{}, err
	}
	c := domain.Choice{Label: raw.Label, Goto: raw.Goto}
	if len(raw.Choice) > 0 {
		nested, err := compileChoices(raw.Choice)
		if err != nil {
			return domain.Choice{}, err
		}
		c.Choices = nested
	}
	return c, nil
}

var semanticActions = map[string]domain.SemanticAction{
	string(domain.ActionChoice): domain.ActionChoice,
	string(domain.ActionMenu):   domain.ActionMenu,
	string(domain.ActionInfo):   domain.ActionInfo,
	string(domain.ActionRepeat): domain.ActionRepeat,
}

// ParseGame decodes a game graph.
func (p *Parser) ParseGame(path string, data []byte) (*domain.GameGraph, error) {
	var raw dto.Game
	if err := p.into(path, data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse game: %w", err)
	}
	if raw.ID == "" {
		return nil, fmt.Errorf("game missing id")
	}
	if raw.Entry == "" {
		return nil, fmt.Errorf("game %s missing entry", raw.ID)
	}
	g := &domain.GameGraph{
		ID:         raw.ID,
		Title:      raw.Title,
		Entry:      raw.Entry,
		Extra:      raw.Extra,
		CommandMap: make(map[domain.CommandKey]domain.SemanticAction),
	}
	merged := make(map[string]string, len(raw.CommandMap)+len(raw.Config.CommandMap))
	for k, v := range raw.CommandMap {
		merged[k] = v
	}
	for k, v := range raw.Config.CommandMap {
		merged[k] = v
	}
	for k, v := range merged {
		key, err := domain.ParseCommandKey(k)
		if err != nil {
			return nil, fmt.Errorf("game %s command_map key %q: %w", raw.ID, k, err)
		}
		action, ok := semanticActions[strings.ToLower(v)]
		if !ok {
			return nil, fmt.Errorf("game %s command_map %s: unknown action %q", raw.ID, key, v)
		}
		g.CommandMap[key] = action
	}
	return g, nil
}

// ParseScene decodes a scene.
func (p *Parser) ParseScene(path string, data []byte) (*domain.Scene, error) {
	var raw dto.Scene
	if err := p.into(path, data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}
	if raw.ID == "" {
		return nil, fmt.Errorf("scene missing id")
	}
	s := &domain.Scene{
		ID:          raw.ID,
		Title:       raw.Title,
		Description: raw.Description,
		OnEnter:     raw.OnEnter,
		OnExit:      raw.OnExit,
	}
	if len(raw.Choices) > 0 {
		s.Choices = make(map[domain.CommandKey][]domain.SceneChoice, len(raw.Choices))
		for k, list := range raw.Choices {
			key, err := domain.ParseCommandKey(k)
			if err != nil {
				return nil, fmt.Errorf("scene %s choice key %q: %w", raw.ID, k, err)
			}
			for _, c := range list {
				s.Choices[key] = append(s.Choices[key], domain.SceneChoice{Text: c.Text, Goto: c.Goto})
			}
		}
	}
	return s, nil
}

// ParseExtra decodes an extra frame.
func (p *Parser) ParseExtra(path string, data []byte) (*domain.ExtraFrame, error) {
	var raw dto.Extra
	if err := p.into(path, data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse extra frame: %w", err)
	}
	return &domain.ExtraFrame{ID: raw.ID, Description: raw.Description}, nil
}

// ParseMessages decodes program/config and returns its messages. Unknown keys are ignored.
func (p *Parser) ParseMessages(path string, data []byte) (domain.Messages, error) {
	var raw dto.Config
	if err := p.into(path, data, &raw); err != nil {
		return domain.Messages{}, fmt.Errorf("failed to parse config: %w", err)
	}
	var m domain.Messages
	if err := decode(raw.Messages, &m); err != nil {
		return domain.Messages{}, fmt.Errorf("failed to decode messages: %w", err)
	}
	return m, nil
}
