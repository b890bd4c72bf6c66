package registry

import "github.com/aretw0/vaudio/pkg/domain"

// Scenes holds loaded scenes keyed by id.
type Scenes struct {
	*Registry[*domain.Scene]
}

// NewScenes creates an empty scene registry.
func NewScenes() *Scenes {
	return &Scenes{Registry: New[*domain.Scene]()}
}

// Add registers a scene under its own id.
func (s *Scenes) Add(scene *domain.Scene) {
	s.Register(scene.ID, scene)
}

// Target returns the first target scene bound to a command in a registered scene.
func (s *Scenes) Target(sceneID string, key domain.CommandKey) (string, bool) {
	scene, ok := s.Get(sceneID)
	if !ok {
		return "", false
	}
	c, ok := scene.FirstChoice(key)
	if !ok || c.Goto == "" {
		return "", false
	}
	return c.Goto, true
}
