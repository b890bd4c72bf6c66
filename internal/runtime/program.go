package runtime

import (
	"context"
	"strings"

	"github.com/aretw0/vaudio/pkg/domain"
	"github.com/aretw0/vaudio/pkg/registry"
)

func (e *Engine) applyProgram(ctx context.Context, cmd domain.Command) error {
	s := e.state
	if s.CurrentProgram == nil {
		e.message(e.messages.OptionNotAvailable, nil)
		return nil
	}

	if !cmd.IsPair() {
		e.selectOption(cmd.Key)
		return nil
	}

	switch cmd.Key {
	case domain.KeyThreeFour:
		if !s.AwaitingConfirmation {
			return nil
		}
		return e.confirm(ctx)
	case domain.KeyOneTwo:
		s.ClearSelection()
		e.toggleMenu(ctx)
	case domain.KeyOneFour:
		s.ClearSelection()
		e.toggleList(ctx)
	case domain.KeyThreeTwo:
		s.ClearSelection()
		return e.returnChoice(ctx)
	default:
		e.message(e.messages.CommandNotRecognized, nil)
	}
	return nil
}

// selectOption records a pending selection for a single-signal command.
// Selecting the same list slot again while it is pending moves to its next option.
func (e *Engine) selectOption(key domain.CommandKey) {
	s := e.state
	slot, ok := registry.ChoicesOf(s.CurrentProgram).Get(key)
	if !ok {
		e.message(e.messages.OptionNotAvailable, nil)
		return
	}

	var choice domain.Choice
	if slot.IsList() && s.AwaitingConfirmation && s.Selected.Key == key && s.Selected.Node == s.CurrentProgram {
		choice, _ = slot.Advance()
	} else {
		choice, _ = slot.Current()
	}

	s.Select(&domain.Selection{Key: key, Choice: choice, Node: s.CurrentProgram})
	e.emit(domain.NewEvent(domain.EventSelection).
		With("key", string(key)).
		With("label", choice.Label).
		With("cursor", slot.Cursor()))
}

// confirm executes the pending selection. The choice captured at selection time is
// used even when the current node has changed since.
func (e *Engine) confirm(ctx context.Context) error {
	s := e.state
	sel := s.Selected
	s.ClearSelection()

	choice := sel.Choice
	switch {
	case choice.HasSubmenu():
		sub := sel.Node.Submenu(choice)
		s.CurrentProgram = sub
		e.emit(domain.NewEvent(domain.EventProgramLoaded).
			With("id", sub.ID).
			With("path", s.ProgramPath).
			With("synthetic", true))
		return nil
	case choice.Goto != "":
		return e.navigate(ctx, choice.Goto)
	}
	return nil
}

// toggleMenu loads the program or game menu depending on the current node.
func (e *Engine) toggleMenu(ctx context.Context) {
	path := ProgramMenuPath
	if strings.Contains(strings.ToLower(e.state.CurrentProgram.ID), "game") {
		path = GameMenuPath
	}
	e.loadProgram(ctx, path)
}

// toggleList switches between the main list and the extra frame of the current program.
func (e *Engine) toggleList(ctx context.Context) {
	s := e.state
	if s.CurrentList == domain.ListExtra {
		s.CurrentList = domain.ListMain
		s.ExtraFrameNumber = ""
		e.emit(domain.NewEvent(domain.EventStateUpdated).With("field", "current_list").With("value", string(domain.ListMain)))
		return
	}

	number := s.CurrentProgram.Extra
	if number != "" && s.CurrentGame != nil {
		frame, err := e.fetchExtra(ctx, number)
		if err != nil {
			e.fail(e.messages.ExtraFrameError, map[string]string{"extra": number}, err)
			return
		}
		e.message(e.messages.ExtraFrame, map[string]string{"extra": number, "description": frame.Description})
	}

	s.CurrentList = domain.ListExtra
	s.ExtraFrameNumber = number
	e.emit(domain.NewEvent(domain.EventStateUpdated).With("field", "current_list").With("value", string(domain.ListExtra)))
}

// returnChoice follows the goto of the 3+2 choice of the current node, when declared.
func (e *Engine) returnChoice(ctx context.Context) error {
	choice, ok := registry.ChoiceFor(e.state.CurrentProgram, domain.KeyThreeTwo)
	if !ok || choice.Goto == "" {
		e.message(e.messages.ReturnNotAvailable, nil)
		return nil
	}
	return e.navigate(ctx, choice.Goto)
}
