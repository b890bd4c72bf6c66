// Package state holds the mutable narrative state of a game run and reports every change.
package state

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/vaudio/internal/logging"
	"github.com/aretw0/vaudio/pkg/domain"
	"github.com/aretw0/vaudio/pkg/ports"
)

// Store wraps a GameState. Every mutation publishes a state_updated event carrying
// the changed field under "field".
//
// The store edits the GameState it was created with; the owner of that value must
// serialize access with the store's callers.
type Store struct {
	mu        sync.Mutex
	game      *domain.GameState
	publisher ports.Publisher
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithPublisher sets where change notifications go.
func WithPublisher(p ports.Publisher) Option {
	return func(s *Store) {
		s.publisher = p
	}
}

// WithLogger configures the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// NewStore creates a store over game. A nil game gets a fresh state.
func NewStore(game *domain.GameState, opts ...Option) *Store {
	if game == nil {
		g := domain.NewGameState()
		game = &g
	}
	if game.Variables == nil {
		game.Variables = make(map[string]any)
	}
	if game.Player.Stats == nil {
		game.Player.Stats = make(map[string]int)
	}
	s := &Store{game: game, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) changed(field string, value any) {
	s.logger.Debug("state updated", "field", field)
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(domain.NewEvent(domain.EventStateUpdated).With("field", field).With("value", value))
}

// CurrentScene returns the active scene id.
func (s *Store) CurrentScene() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.CurrentScene
}

// SetScene changes the active scene id.
func (s *Store) SetScene(id string) {
	s.mu.Lock()
	s.game.CurrentScene = id
	s.mu.Unlock()
	s.changed("current_scene", id)
}

// Visit records the current scene in the history and moves to next.
func (s *Store) Visit(next string) {
	s.mu.Lock()
	if s.game.CurrentScene != "" {
		s.game.History = append(s.game.History, s.game.CurrentScene)
	}
	s.game.CurrentScene = next
	history := append([]string(nil), s.game.History...)
	s.mu.Unlock()
	s.changed("history", history)
	s.changed("current_scene", next)
}

// History returns the visited scene ids, oldest first.
func (s *Store) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.game.History...)
}

// ClearHistory forgets visited scenes.
func (s *Store) ClearHistory() {
	s.mu.Lock()
	s.game.History = []string{}
	s.mu.Unlock()
	s.changed("history", []string{})
}

// SetVariable assigns a game variable.
func (s *Store) SetVariable(name string, value any) {
	s.mu.Lock()
	s.game.Variables[name] = value
	s.mu.Unlock()
	s.changed("variables."+name, value)
}

// Variable reads a game variable.
func (s *Store) Variable(name string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.game.Variables[name]
	return v, ok
}

// DeleteVariable removes a game variable.
func (s *Store) DeleteVariable(name string) {
	s.mu.Lock()
	_, ok := s.game.Variables[name]
	delete(s.game.Variables, name)
	s.mu.Unlock()
	if ok {
		s.changed("variables."+name, nil)
	}
}

// Variables returns a copy of all variables.
func (s *Store) Variables() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.game.Variables))
	for k, v := range s.game.Variables {
		out[k] = v
	}
	return out
}

// AddItem puts an item in the inventory. Duplicates are kept once.
func (s *Store) AddItem(item string) {
	s.mu.Lock()
	for _, it := range s.game.Inventory {
		if it == item {
			s.mu.Unlock()
			return
		}
	}
	s.game.Inventory = append(s.game.Inventory, item)
	inv := append([]string(nil), s.game.Inventory...)
	s.mu.Unlock()
	s.changed("inventory", inv)
}

// RemoveItem takes an item out of the inventory and reports whether it was there.
func (s *Store) RemoveItem(item string) bool {
	s.mu.Lock()
	for i, it := range s.game.Inventory {
		if it == item {
			s.game.Inventory = append(s.game.Inventory[:i:i], s.game.Inventory[i+1:]...)
			inv := append([]string(nil), s.game.Inventory...)
			s.mu.Unlock()
			s.changed("inventory", inv)
			return true
		}
	}
	s.mu.Unlock()
	return false
}

// HasItem reports whether the inventory holds item.
func (s *Store) HasItem(item string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.game.Inventory {
		if it == item {
			return true
		}
	}
	return false
}

// SetPlayerName names the player.
func (s *Store) SetPlayerName(name string) {
	s.mu.Lock()
	s.game.Player.Name = name
	s.mu.Unlock()
	s.changed("player.name", name)
}

// SetStat assigns a player stat.
func (s *Store) SetStat(name string, value int) {
	s.mu.Lock()
	s.game.Player.Stats[name] = value
	s.mu.Unlock()
	s.changed("player.stats."+name, value)
}

// AdjustStat adds delta to a stat and returns the new value.
func (s *Store) AdjustStat(name string, delta int) int {
	s.mu.Lock()
	s.game.Player.Stats[name] += delta
	v := s.game.Player.Stats[name]
	s.mu.Unlock()
	s.changed("player.stats."+name, v)
	return v
}

// Player returns a copy of the player profile.
func (s *Store) Player() domain.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := domain.Player{Name: s.game.Player.Name, Stats: make(map[string]int, len(s.game.Player.Stats))}
	for k, v := range s.game.Player.Stats {
		p.Stats[k] = v
	}
	return p
}

// StatNames returns the player stat names, sorted.
func (s *Store) StatNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.game.Player.Stats))
	for k := range s.game.Player.Stats {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Reset returns the game state to its initial value.
func (s *Store) Reset() {
	s.mu.Lock()
	*s.game = domain.NewGameState()
	s.mu.Unlock()
	s.changed("reset", nil)
}

// Snapshot returns a deep copy of the game state.
func (s *Store) Snapshot() domain.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	tmp := domain.AppState{Game: *s.game}
	return tmp.Clone().Game
}
