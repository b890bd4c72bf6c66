package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/vaudio/pkg/domain"
)

// Actions is the condition-gated action registry.
type Actions struct {
	*Registry[*domain.Action]
}

// NewActions creates an action registry. Use WithDefaultActions to seed help and status.
func NewActions() *Actions {
	return &Actions{Registry: New[*domain.Action]()}
}

// Add registers an action under its id.
func (a *Actions) Add(action *domain.Action) error {
	if action == nil || action.ID == "" {
		return fmt.Errorf("action requires an id")
	}
	a.Register(action.ID, action)
	return nil
}

// FindForCommand returns the first eligible action bound to key, in id order.
// Actions whose condition does not hold for state are skipped.
func (a *Actions) FindForCommand(key domain.CommandKey, state *domain.AppState) (*domain.Action, bool) {
	for _, action := range a.List() {
		if action.Matches(key) && action.Eligible(state) {
			return action, true
		}
	}
	return nil, false
}

// Eligible returns every action whose condition holds, in id order.
func (a *Actions) Eligible(state *domain.AppState) []*domain.Action {
	var out []*domain.Action
	for _, action := range a.List() {
		if action.Eligible(state) {
			out = append(out, action)
		}
	}
	return out
}

// Run executes an action by id. Missing or ineligible actions are errors.
func (a *Actions) Run(ctx context.Context, id string, actx *domain.ActionContext) error {
	action, ok := a.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownAction, id)
	}
	if !action.Eligible(actx.State) {
		return fmt.Errorf("%w: %s", domain.ErrActionUnavailable, id)
	}
	if action.Run == nil {
		return nil
	}
	return action.Run(ctx, actx)
}

// WithDefaultActions registers the built-in help and status actions.
func (a *Actions) WithDefaultActions() *Actions {
	_ = a.Add(&domain.Action{
		ID:          "help",
		Name:        "Help",
		Description: "List the available actions",
		Run: func(_ context.Context, actx *domain.ActionContext) error {
			var b strings.Builder
			b.WriteString("Available actions:")
			for _, action := range a.Eligible(actx.State) {
				fmt.Fprintf(&b, "\n- %s: %s", action.Name, action.Description)
			}
			actx.Message(b.String())
			return nil
		},
	})
	_ = a.Add(&domain.Action{
		ID:          "status",
		Name:        "Status",
		Description: "Show the current position",
		Run: func(_ context.Context, actx *domain.ActionContext) error {
			s := actx.State
			text := fmt.Sprintf("Mode: %s", s.Mode)
			if s.CurrentProgram != nil {
				text += fmt.Sprintf(" | Program: %s", s.CurrentProgram.ID)
			}
			if s.Mode == domain.ModeGame && s.Game.CurrentScene != "" {
				text += fmt.Sprintf(" | Scene: %s", s.Game.CurrentScene)
			}
			actx.Message(text)
			return nil
		},
	})
	return a
}
