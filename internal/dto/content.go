package dto

// Program is the wire shape of a program file. Choice values are either a single
// choice object or a list of them, so they stay untyped until compiled.
type Program struct {
	ID          string         `json:"id" mapstructure:"id"`
	Description string         `json:"description" mapstructure:"description"`
	Extra       string         `json:"extra" mapstructure:"extra"`
	Choice      map[string]any `json:"choice" mapstructure:"choice"`
}

// Choice is one option of a program slot.
type Choice struct {
	Label  string         `json:"label" mapstructure:"label"`
	Goto   string         `json:"goto" mapstructure:"goto"`
	Choice map[string]any `json:"choice" mapstructure:"choice"`
}

// Game is the wire shape of games/<id>/main.
// The command map is accepted both under config and at the top level.
type Game struct {
	ID         string            `json:"id" mapstructure:"id"`
	Title      string            `json:"title" mapstructure:"title"`
	Entry      string            `json:"entry" mapstructure:"entry"`
	Extra      map[string]string `json:"extra" mapstructure:"extra"`
	Config     GameConfig        `json:"config" mapstructure:"config"`
	CommandMap map[string]string `json:"command_map" mapstructure:"command_map"`
}

type GameConfig struct {
	CommandMap map[string]string `json:"command_map" mapstructure:"command_map"`
}

// Scene is the wire shape of a scene file.
type Scene struct {
	ID          string                   `json:"id" mapstructure:"id"`
	Title       string                   `json:"title" mapstructure:"title"`
	Description string                   `json:"description" mapstructure:"description"`
	Choices     map[string][]SceneChoice `json:"choices" mapstructure:"choices"`
	OnEnter     []string                 `json:"on_enter" mapstructure:"on_enter"`
	OnExit      []string                 `json:"on_exit" mapstructure:"on_exit"`
}

type SceneChoice struct {
	Text string `json:"text" mapstructure:"text"`
	Goto string `json:"goto" mapstructure:"goto"`
}

// Extra is an extra frame file.
type Extra struct {
	ID          string `json:"id" mapstructure:"id"`
	Description string `json:"description" mapstructure:"description"`
}

// Config is program/config: user-facing strings.
type Config struct {
	Messages map[string]string `json:"messages" mapstructure:"messages"`
}
