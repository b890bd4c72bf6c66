package domain

// Mode is the top-level discriminator of the navigation state machine.
type Mode string

const (
	ModeProgram Mode = "program" // Menu driven
	ModeGame    Mode = "game"    // Scene driven
)

func (m Mode) String() string {
	return string(m)
}

// ListKind selects which list of a program is active.
type ListKind string

const (
	ListMain  ListKind = "main"
	ListExtra ListKind = "extra"
)

// GameState is the narrative part of the application state.
type GameState struct {
	CurrentScene string         `json:"current_scene"`
	Inventory    []string       `json:"inventory"`
	Variables    map[string]any `json:"variables"`

	// History lists visited scene ids, oldest first.
	History []string `json:"history"`

	Player Player `json:"player"`
}

// Player is the optional player profile tracked by the state store.
type Player struct {
	Name  string         `json:"name,omitempty"`
	Stats map[string]int `json:"stats,omitempty"`
}

// NewGameState returns an empty game state.
func NewGameState() GameState {
	return GameState{
		Inventory: []string{},
		Variables: make(map[string]any),
		History:   []string{},
		Player:    Player{Stats: make(map[string]int)},
	}
}

// Selection is a choice picked in program mode and awaiting confirmation.
// It holds the node and the choice as they were when selected.
type Selection struct {
	Key    CommandKey   `json:"key"`
	Choice Choice       `json:"choice"`
	Node   *ProgramNode `json:"-"`
}

// AppState is the single mutable aggregate owned by the navigation state machine.
type AppState struct {
	Mode Mode `json:"mode"`

	// CurrentProgram is the active Program Node (nil before the first load).
	CurrentProgram *ProgramNode `json:"current_program,omitempty"`
	// ProgramPath is the content path CurrentProgram was loaded from.
	// Synthetic sub-menus keep the path of their parent.
	ProgramPath string `json:"program_path,omitempty"`

	// CurrentGame may be stale while Mode == ModeProgram.
	CurrentGame *GameGraph `json:"current_game,omitempty"`
	// GamePath is the content directory of CurrentGame ("games/<id>").
	GamePath     string    `json:"game_path,omitempty"`
	CurrentScene *Scene    `json:"current_scene,omitempty"`
	Game         GameState `json:"game"`

	// ProgramStack holds previously visited program paths for back-navigation.
	ProgramStack []string `json:"program_stack"`

	Selected             *Selection `json:"selected,omitempty"`
	AwaitingConfirmation bool       `json:"awaiting_confirmation"`

	CurrentList      ListKind `json:"current_list"`
	ExtraFrameNumber string   `json:"extra_frame_number,omitempty"`
}

// NewAppState creates the state used at engine start.
func NewAppState() *AppState {
	return &AppState{
		Mode:         ModeProgram,
		Game:         NewGameState(),
		ProgramStack: []string{},
		CurrentList:  ListMain,
	}
}

// Select records a pending selection.
func (s *AppState) Select(sel *Selection) {
	s.Selected = sel
	s.AwaitingConfirmation = sel != nil
}

// ClearSelection drops any pending selection.
func (s *AppState) ClearSelection() {
	s.Selected = nil
	s.AwaitingConfirmation = false
}

// PushProgram records a path for back-navigation.
func (s *AppState) PushProgram(path string) {
	s.ProgramStack = append(s.ProgramStack, path)
}

// PopProgram removes and returns the last pushed path.
func (s *AppState) PopProgram() (string, bool) {
	if len(s.ProgramStack) == 0 {
		return "", false
	}
	last := s.ProgramStack[len(s.ProgramStack)-1]
	s.ProgramStack = s.ProgramStack[:len(s.ProgramStack)-1]
	return last, true
}

// Clone returns a copy safe to hand to sinks running outside the state machine lock.
// Content nodes are shared; they are never mutated in place except for list cursors.
func (s *AppState) Clone() *AppState {
	c := *s
	c.ProgramStack = append([]string(nil), s.ProgramStack...)
	c.Game.Inventory = append([]string(nil), s.Game.Inventory...)
	c.Game.History = append([]string(nil), s.Game.History...)
	c.Game.Variables = make(map[string]any, len(s.Game.Variables))
	for k, v := range s.Game.Variables {
		c.Game.Variables[k] = v
	}
	c.Game.Player.Stats = make(map[string]int, len(s.Game.Player.Stats))
	for k, v := range s.Game.Player.Stats {
		c.Game.Player.Stats[k] = v
	}
	if s.Selected != nil {
		sel := *s.Selected
		c.Selected = &sel
	}
	return &c
}
