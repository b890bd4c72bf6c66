package validator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/vaudio/pkg/adapters/memory"
	"github.com/aretw0/vaudio/pkg/domain"
)

func validContent() map[string]string {
	return map[string]string{
		"program/initial/menu.json": `{
			"id": "menu",
			"description": "Main menu",
			"choice": {
				"1": {"label": "Play", "goto": "games/demo"},
				"2": [{"label": "Settings", "goto": "@/settings.json"}, {"label": "Nothing"}],
				"3+2": {"label": "More", "choice": {"1": {"label": "Quit", "goto": "*"}}}
			}
		}`,
		"program/settings.json":      `{"id": "settings", "description": "Settings", "choice": {"3+2": {"label": "Back", "goto": "-"}}}`,
		"program/config.json":        `{"messages": {}}`,
		"games/demo/main.json":       `{"id": "demo", "title": "Demo", "entry": "start", "extra": {"2": "frames/two.json"}, "command_map": {"1": "choice"}}`,
		"games/demo/start.json":      `{"id": "start", "title": "Start", "choices": {"1": [{"text": "On", "goto": "end"}], "4": [{"text": "Loop", "goto": "start"}]}}`,
		"games/demo/end.json":        `{"id": "end", "title": "End"}`,
		"games/demo/frames/two.json": `{"id": "two", "description": "Second frame"}`,
	}
}

func TestValidate_Valid(t *testing.T) {
	report, err := Validate(context.Background(), memory.NewLoader(validContent()), "")
	require.NoError(t, err)
	require.NoError(t, report.Err())

	assert.Equal(t, 2, report.Programs)
	assert.Equal(t, 1, report.Games)
	assert.Equal(t, 2, report.Scenes)
	assert.Equal(t, 1, report.Extras)
	assert.Empty(t, report.Unreached)

	game, ok := report.Map.Node("games/demo")
	require.True(t, ok)
	assert.Equal(t, KindGame, game.Kind)
	assert.Equal(t, "Demo", game.Label)

	_, ok = report.Map.Node("*")
	assert.True(t, ok, "nested choices are crawled")

	assert.Contains(t, report.Map.Edges, Edge{From: "program/initial/menu.json", To: "program/settings.json", Key: domain.KeyTwo})
	assert.Contains(t, report.Map.Edges, Edge{From: "program/settings.json", To: "program/settings.json", Key: domain.KeyThreeTwo, Back: true})
	assert.Contains(t, report.Map.Edges, Edge{From: "games/demo/start.json", To: "games/demo/end.json", Key: domain.KeyOne})
}

func TestValidate_Issues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]string)
		want   Issue
	}{
		{
			name:   "missing program",
			mutate: func(c map[string]string) { delete(c, "program/settings.json") },
			want:   Issue{Path: "program/settings.json", Problem: "missing"},
		},
		{
			name:   "missing scene",
			mutate: func(c map[string]string) { delete(c, "games/demo/end.json") },
			want:   Issue{Path: "games/demo/end.json", Problem: "missing"},
		},
		{
			name:   "missing extra frame",
			mutate: func(c map[string]string) { delete(c, "games/demo/frames/two.json") },
			want:   Issue{Path: "games/demo/frames/two.json", Problem: "missing"},
		},
		{
			name: "unsupported target",
			mutate: func(c map[string]string) {
				c["program/settings.json"] = `{"id": "settings", "choice": {"1": {"label": "Web", "goto": "https://example.com"}}}`
			},
			want: Issue{Path: "program/settings.json", Problem: `choice 1 has unsupported target "https://example.com"`},
		},
		{
			name: "scene without id",
			mutate: func(c map[string]string) {
				c["games/demo/end.json"] = `{"title": "End"}`
			},
			want: Issue{Path: "games/demo/end.json", Problem: "scene missing id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := validContent()
			tt.mutate(content)

			report, err := Validate(context.Background(), memory.NewLoader(content), "")
			require.NoError(t, err)
			assert.Contains(t, report.Issues, tt.want)
			assert.ErrorContains(t, report.Err(), tt.want.Path)
		})
	}
}

func TestValidate_Unreached(t *testing.T) {
	content := validContent()
	content["program/orphan.json"] = `{"id": "orphan", "choice": {}}`

	report, err := Validate(context.Background(), memory.NewLoader(content), "")
	require.NoError(t, err)
	assert.NoError(t, report.Err(), "unreached files are not errors")
	assert.Equal(t, []string{"program/orphan.json"}, report.Unreached)
}

func TestValidate_OptionalMenus(t *testing.T) {
	content := validContent()
	content["program/program-menu.json"] = `{"id": "program-menu", "choice": {"1": {"label": "Home", "goto": "@/initial/menu.json"}}}`

	report, err := Validate(context.Background(), memory.NewLoader(content), "")
	require.NoError(t, err)
	require.NoError(t, report.Err())
	assert.Equal(t, 3, report.Programs)
}

func TestValidate_MissingInitialMenu(t *testing.T) {
	_, err := Validate(context.Background(), memory.NewLoader(map[string]string{}), "")
	assert.ErrorIs(t, err, domain.ErrContentNotFound)
}
