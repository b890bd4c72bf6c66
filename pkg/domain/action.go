package domain

import "context"

// GameStore is the narrative state surface available to actions.
type GameStore interface {
	SetVariable(name string, value any)
	Variable(name string) (any, bool)
	AddItem(item string)
	RemoveItem(item string) bool
	HasItem(item string) bool
	AdjustStat(name string, delta int) int
}

// ActionContext is handed to actions when they run.
type ActionContext struct {
	State   *AppState
	Command Command
	Store   GameStore

	// Emit publishes an event on the engine bus.
	Emit func(Event)
}

// Action is a behavior bound to one or more commands, supplied by content scripts
// or by the engine defaults ("help", "status").
type Action struct {
	ID          string
	Name        string
	Description string
	Commands    []CommandKey

	// Condition gates eligibility. A nil condition always holds.
	Condition func(state *AppState) bool

	Run func(ctx context.Context, ac *ActionContext) error
}

// Matches reports whether the action is bound to key.
func (a *Action) Matches(key CommandKey) bool {
	for _, k := range a.Commands {
		if k == key {
			return true
		}
	}
	return false
}

// Eligible evaluates the condition against state.
func (a *Action) Eligible(state *AppState) bool {
	return a.Condition == nil || a.Condition(state)
}

// Message emits a message event. It is a no-op without an emitter.
func (ac *ActionContext) Message(text string) {
	if ac.Emit == nil {
		return
	}
	ev := NewEvent(EventMessage)
	ev.Message = text
	ac.Emit(ev)
}
