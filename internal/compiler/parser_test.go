package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/vaudio/internal/compiler"
	"github.com/aretw0/vaudio/pkg/domain"
)

func TestParseProgram_JSON(t *testing.T) {
	data := []byte(`{
		"id": "menu",
		"description": "Main menu",
		"extra": "2",
		"choice": {
			"1": {"label": "Explore", "choice": {"1": {"label": "Woods", "goto": "games/woods"}}},
			"2": [{"label": "North"}, {"label": "South", "goto": "@/south.json"}],
			"2+3": {"label": "Back", "goto": "-"},
			"4": null
		}
	}`)

	node, err := compiler.NewParser().ParseProgram("program/menu.json", data)
	require.NoError(t, err)

	assert.Equal(t, "menu", node.ID)
	assert.Equal(t, "2", node.Extra)
	assert.Equal(t, []domain.CommandKey{domain.KeyOne, domain.KeyTwo, domain.KeyThreeTwo}, node.Keys())

	explore, ok := node.Slot(domain.KeyOne)
	require.True(t, ok)
	assert.False(t, explore.IsList())
	c, _ := explore.Current()
	assert.True(t, c.HasSubmenu())
	nested, _ := c.Choices[domain.KeyOne].Current()
	assert.Equal(t, "games/woods", nested.Goto)

	list, ok := node.Slot(domain.KeyTwo)
	require.True(t, ok)
	assert.True(t, list.IsList())
	assert.Equal(t, 2, list.Len())

	back, _ := node.Slot(domain.KeyThreeTwo)
	bc, _ := back.Current()
	assert.Equal(t, "-", bc.Goto)
}

func TestParseProgram_YAML(t *testing.T) {
	data := []byte(`
id: menu
description: From YAML
choice:
  1:
    label: Start
    goto: games/demo
  "3+4":
    - label: A
    - label: B
`)
	node, err := compiler.NewParser().ParseProgram("program/menu.yaml", data)
	require.NoError(t, err)

	c, ok := node.Slot(domain.KeyOne)
	require.True(t, ok)
	start, _ := c.Current()
	assert.Equal(t, "games/demo", start.Goto)

	l, ok := node.Slot(domain.KeyThreeFour)
	require.True(t, ok)
	assert.Equal(t, 2, l.Len())
}

func TestParseProgram_Errors(t *testing.T) {
	p := compiler.NewParser()

	tests := []struct {
		name string
		data string
	}{
		{"missing id", `{"description": "x"}`},
		{"illegal key", `{"id": "m", "choice": {"1+3": {"label": "x"}}}`},
		{"bad slot", `{"id": "m", "choice": {"1": "just text"}}`},
		{"not an object", `[1, 2]`},
		{"broken json", `{"id": `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseProgram("program/x.json", []byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestParseGame(t *testing.T) {
	data := []byte(`{
		"id": "demo",
		"title": "Demo",
		"entry": "forest",
		"extra": {"1": "extras/map.json"},
		"config": {"command_map": {"1": "choice", "1+2": "MENU", "3+4": "info"}}
	}`)
	g, err := compiler.NewParser().ParseGame("games/demo/main.json", data)
	require.NoError(t, err)

	assert.Equal(t, "forest", g.Entry)
	assert.Equal(t, "extras/map.json", g.Extra["1"])
	a, ok := g.ActionFor(domain.KeyOneTwo)
	assert.True(t, ok)
	assert.Equal(t, domain.ActionMenu, a)
	assert.Len(t, g.CommandMap, 3)

	_, err = compiler.NewParser().ParseGame("g.json", []byte(`{"id": "x", "entry": "a", "config": {"command_map": {"1": "dance"}}}`))
	assert.Error(t, err)
	_, err = compiler.NewParser().ParseGame("g.json", []byte(`{"id": "x"}`))
	assert.Error(t, err)
}

func TestParseScene(t *testing.T) {
	data := []byte(`{
		"id": "forest",
		"title": "Forest",
		"description": "Trees.",
		"choices": {"1": [{"text": "Go north", "goto": "river"}, {"text": "Ignored", "goto": "cave"}]},
		"on_enter": ["status"]
	}`)
	s, err := compiler.NewParser().ParseScene("games/demo/forest.json", data)
	require.NoError(t, err)

	c, ok := s.FirstChoice(domain.KeyOne)
	require.True(t, ok)
	assert.Equal(t, "river", c.Goto)
	assert.Equal(t, []string{"status"}, s.OnEnter)
}

func TestParseMessages(t *testing.T) {
	data := []byte(`{"messages": {"optionNotAvailable": "Opção indisponível", "unknown": "x"}}`)
	m, err := compiler.NewParser().ParseMessages("program/config.json", data)
	require.NoError(t, err)
	assert.Equal(t, "Opção indisponível", m.OptionNotAvailable)
	assert.Empty(t, m.CommandNotRecognized)
}

func TestParseExtra_Sniffed(t *testing.T) {
	e, err := compiler.NewParser().ParseExtra("extras/map", []byte(` {"id": "map", "description": "A map"}`))
	require.NoError(t, err)
	assert.Equal(t, "A map", e.Description)
}
