package domain

import (
	"encoding/json"
	"sort"
)

// SubmenuSuffix is appended to a parent node id when a nested choice map is materialized.
const SubmenuSuffix = "_submenu"

// Choice is a labeled option of a Program Node.
// It leads to a nested menu, to a navigation target, or to nothing.
type Choice struct {
	Label   string                     `json:"label"`
	Goto    string                     `json:"goto,omitempty"`
	Choices map[CommandKey]*ChoiceSlot `json:"choice,omitempty"`
}

// HasSubmenu reports whether the choice carries a nested choice map.
func (c Choice) HasSubmenu() bool {
	return len(c.Choices) > 0
}

// IsDead reports whether the choice neither opens a sub-menu nor navigates.
func (c Choice) IsDead() bool {
	return !c.HasSubmenu() && c.Goto == ""
}

// ChoiceSlot is the value bound to a command key in a Program Node.
// It is either a single Choice or an ordered list cycled by an implicit cursor.
type ChoiceSlot struct {
	options []Choice
	list    bool
	cursor  int
}

// NewSingleChoice wraps one choice.
func NewSingleChoice(c Choice) *ChoiceSlot {
	return &ChoiceSlot{options: []Choice{c}}
}

// NewChoiceList wraps an ordered list of choices.
func NewChoiceList(cs ...Choice) *ChoiceSlot {
	opts := make([]Choice, len(cs))
	copy(opts, cs)
	return &ChoiceSlot{options: opts, list: true}
}

// IsList reports whether the slot is the cyclable variant.
func (s *ChoiceSlot) IsList() bool {
	return s.list
}

// Len returns the number of options in the slot.
func (s *ChoiceSlot) Len() int {
	return len(s.options)
}

// Options returns a copy of the options.
func (s *ChoiceSlot) Options() []Choice {
	out := make([]Choice, len(s.options))
	copy(out, s.options)
	return out
}

// Current returns the option under the cursor. An empty slot yields false.
func (s *ChoiceSlot) Current() (Choice, bool) {
	if len(s.options) == 0 {
		return Choice{}, false
	}
	return s.options[s.cursor], true
}

// Advance moves the cursor to the next option, wrapping around, and returns it.
func (s *ChoiceSlot) Advance() (Choice, bool) {
	if len(s.options) == 0 {
		return Choice{}, false
	}
	s.cursor = (s.cursor + 1) % len(s.options)
	return s.options[s.cursor], true
}

// Cursor returns the cursor position.
func (s *ChoiceSlot) Cursor() int {
	return s.cursor
}

// MarshalJSON writes the slot the way content files declare it: an object or a list.
func (s *ChoiceSlot) MarshalJSON() ([]byte, error) {
	if s.list {
		return json.Marshal(s.options)
	}
	c, _ := s.Current()
	return json.Marshal(c)
}

// ProgramNode is a menu-like content unit with up to eight command-keyed choices.
type ProgramNode struct {
	ID          string                     `json:"id"`
	Description string                     `json:"description"`
	Extra       string                     `json:"extra,omitempty"`
	Choices     map[CommandKey]*ChoiceSlot `json:"choice"`
}

// Slot returns the slot bound to a command key.
func (n *ProgramNode) Slot(key CommandKey) (*ChoiceSlot, bool) {
	if n == nil || n.Choices == nil {
		return nil, false
	}
	s, ok := n.Choices[key]
	if !ok || s == nil || s.Len() == 0 {
		return nil, false
	}
	return s, true
}

// Keys returns the command keys with a bound choice, in vocabulary order.
func (n *ProgramNode) Keys() []CommandKey {
	out := make([]CommandKey, 0, len(n.Choices))
	for _, k := range CommandKeys {
		if _, ok := n.Slot(k); ok {
			out = append(out, k)
		}
	}
	return out
}

// Submenu materializes a synthetic node from a choice with nested choices.
func (n *ProgramNode) Submenu(c Choice) *ProgramNode {
	return &ProgramNode{
		ID:          n.ID + SubmenuSuffix,
		Description: c.Label,
		Choices:     c.Choices,
	}
}

// SceneChoice is one branch of a scene.
type SceneChoice struct {
	Text string `json:"text"`
	Goto string `json:"goto"`
}

// Scene is a narrative content unit.
type Scene struct {
	ID          string                       `json:"id"`
	Title       string                       `json:"title"`
	Description string                       `json:"description"`
	Choices     map[CommandKey][]SceneChoice `json:"choices,omitempty"`

	// OnEnter and OnExit name actions from the action registry run around scene changes.
	OnEnter []string `json:"on_enter,omitempty"`
	OnExit  []string `json:"on_exit,omitempty"`
}

// FirstChoice returns the first branch bound to a command, if any.
func (s *Scene) FirstChoice(key CommandKey) (SceneChoice, bool) {
	if s == nil {
		return SceneChoice{}, false
	}
	list := s.Choices[key]
	if len(list) == 0 {
		return SceneChoice{}, false
	}
	return list[0], true
}

// SemanticAction is the meaning a game assigns to a command.
type SemanticAction string

const (
	ActionChoice SemanticAction = "choice"
	ActionMenu   SemanticAction = "menu"
	ActionInfo   SemanticAction = "info"
	ActionRepeat SemanticAction = "repeat"
)

// GameGraph is the top-level descriptor of one playable narrative.
type GameGraph struct {
	ID         string                        `json:"id"`
	Title      string                        `json:"title"`
	Entry      string                        `json:"entry"`
	Extra      map[string]string             `json:"extra,omitempty"`
	CommandMap map[CommandKey]SemanticAction `json:"command_map"`
}

// ActionFor returns the semantic action bound to a command.
func (g *GameGraph) ActionFor(key CommandKey) (SemanticAction, bool) {
	if g == nil {
		return "", false
	}
	a, ok := g.CommandMap[key]
	return a, ok
}

// ExtraKeys returns the sorted extra frame keys.
func (g *GameGraph) ExtraKeys() []string {
	keys := make([]string, 0, len(g.Extra))
	for k := range g.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ExtraFrame is auxiliary content shown when the extra list is active.
type ExtraFrame struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}
