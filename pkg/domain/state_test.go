package domain_test

import (
	"testing"

	"github.com/aretw0/vaudio/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestAppState_Defaults(t *testing.T) {
	s := domain.NewAppState()
	assert.Equal(t, domain.ModeProgram, s.Mode)
	assert.Empty(t, s.ProgramStack)
	assert.Equal(t, domain.ListMain, s.CurrentList)
	assert.False(t, s.AwaitingConfirmation)
	assert.Nil(t, s.Selected)
}

func TestAppState_SelectionInvariant(t *testing.T) {
	s := domain.NewAppState()

	s.Select(&domain.Selection{Key: domain.KeyTwo})
	assert.True(t, s.AwaitingConfirmation)
	assert.NotNil(t, s.Selected)

	s.ClearSelection()
	assert.False(t, s.AwaitingConfirmation)
	assert.Nil(t, s.Selected)
}

func TestAppState_Stack(t *testing.T) {
	s := domain.NewAppState()
	_, ok := s.PopProgram()
	assert.False(t, ok)

	s.PushProgram("a")
	s.PushProgram("b")
	last, ok := s.PopProgram()
	assert.True(t, ok)
	assert.Equal(t, "b", last)
	assert.Equal(t, []string{"a"}, s.ProgramStack)
}

func TestAppState_CloneIsolation(t *testing.T) {
	s := domain.NewAppState()
	s.PushProgram("a")
	s.Game.Variables["gold"] = 1
	s.Select(&domain.Selection{Key: domain.KeyOne})

	c := s.Clone()
	c.PushProgram("b")
	c.Game.Variables["gold"] = 2
	c.Selected.Key = domain.KeyTwo

	assert.Equal(t, []string{"a"}, s.ProgramStack)
	assert.Equal(t, 1, s.Game.Variables["gold"])
	assert.Equal(t, domain.KeyOne, s.Selected.Key)
}

func TestMessages_FormatAndMerge(t *testing.T) {
	m := domain.Messages{OptionNotAvailable: "Opção não disponível."}.Merge(domain.DefaultMessages())

	assert.Equal(t, "Opção não disponível.", m.OptionNotAvailable)
	assert.Equal(t, "Command not recognized.", m.CommandNotRecognized)
	assert.Equal(t, "Navigation not implemented: foo",
		domain.Format(m.NavigationNotImplemented, map[string]string{"goto": "foo"}))
	assert.Equal(t, "plain", domain.Format("plain", nil))
}
