package dsl

import (
	"strconv"

	"github.com/aretw0/vaudio/internal/dto"
	"github.com/aretw0/vaudio/pkg/domain"
)

// GameBuilder provides a fluent API for configuring a game and its scenes.
type GameBuilder struct {
	doc     dto.Game
	scenes  map[string]*dto.Scene
	extras  map[string]string
	builder *Builder
}

// Command maps a command key to a semantic action.
func (g *GameBuilder) Command(key domain.CommandKey, action domain.SemanticAction) *GameBuilder {
	if k, ok := g.builder.key(key); ok {
		g.doc.Config.CommandMap[k] = string(action)
	}
	return g
}

// Extra adds a numbered extra frame to the game.
func (g *GameBuilder) Extra(description string) *GameBuilder {
	if g.doc.Extra == nil {
		g.doc.Extra = make(map[string]string)
		g.extras = make(map[string]string)
	}
	n := strconv.Itoa(len(g.doc.Extra) + 1)
	g.doc.Extra[n] = "extra" + n + ".json"
	g.extras[n] = description
	return g
}

// Scene adds a scene and returns its builder. The first scene is the entry.
func (g *GameBuilder) Scene(id, title, description string) *SceneBuilder {
	file := sceneFile(id)
	if g.doc.Entry == "" {
		g.doc.Entry = file
	}
	scene, ok := g.scenes[file]
	if !ok {
		scene = &dto.Scene{ID: id, Choices: map[string][]dto.SceneChoice{}}
		g.scenes[file] = scene
	}
	scene.Title = title
	scene.Description = description
	return &SceneBuilder{game: g, scene: scene}
}

// Done returns to the content builder.
func (g *GameBuilder) Done() *Builder {
	return g.builder
}

// SceneBuilder configures one scene.
type SceneBuilder struct {
	game  *GameBuilder
	scene *dto.Scene
}

// Go adds a branch for key. The first branch of a key is the one taken.
func (s *SceneBuilder) Go(key domain.CommandKey, text, target string) *SceneBuilder {
	if k, ok := s.game.builder.key(key); ok {
		s.scene.Choices[k] = append(s.scene.Choices[k], dto.SceneChoice{Text: text, Goto: sceneFile(target)})
	}
	return s
}

// OnEnter sets the actions run when the scene is entered.
func (s *SceneBuilder) OnEnter(actions ...string) *SceneBuilder {
	s.scene.OnEnter = append(s.scene.OnEnter, actions...)
	return s
}

// OnExit sets the actions run when the scene is left.
func (s *SceneBuilder) OnExit(actions ...string) *SceneBuilder {
	s.scene.OnExit = append(s.scene.OnExit, actions...)
	return s
}

// Scene starts the next scene of the same game.
func (s *SceneBuilder) Scene(id, title, description string) *SceneBuilder {
	return s.game.Scene(id, title, description)
}

// Done returns to the game builder.
func (s *SceneBuilder) Done() *GameBuilder {
	return s.game
}
