package dsl

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/aretw0/vaudio/internal/dto"
	"github.com/aretw0/vaudio/internal/runtime"
	"github.com/aretw0/vaudio/pkg/adapters/memory"
	"github.com/aretw0/vaudio/pkg/domain"
)

// Exit is the choice target that ends the run.
const Exit = runtime.TargetExit

// Back is the choice target that returns to the previous program.
const Back = runtime.TargetBack

// ProgramTarget points a choice at program/<file>.
func ProgramTarget(file string) string {
	return runtime.TargetProgramRef + file
}

// GameTarget points a choice at games/<id>.
func GameTarget(id string) string {
	return runtime.GamesPrefix + id
}

// Builder collects programs and games.
type Builder struct {
	programs map[string]*ProgramBuilder
	games    map[string]*GameBuilder
	messages map[string]string
	errs     []error
}

// New creates a new content builder.
func New() *Builder {
	return &Builder{
		programs: make(map[string]*ProgramBuilder),
		games:    make(map[string]*GameBuilder),
	}
}

// Menu returns the initial menu, creating it on first use.
func (b *Builder) Menu(description string) *ProgramBuilder {
	return b.program(runtime.InitialMenuPath, "menu", description)
}

// Program returns program/<file>, creating it on first use.
func (b *Builder) Program(file, id, description string) *ProgramBuilder {
	return b.program(runtime.ProgramRoot+file, id, description)
}

func (b *Builder) program(p, id, description string) *ProgramBuilder {
	if pb, ok := b.programs[p]; ok {
		return pb
	}
	pb := &ProgramBuilder{
		builder: b,
		doc:     dto.Program{ID: id, Description: description, Choice: map[string]any{}},
	}
	b.programs[p] = pb
	return pb
}

// Game returns games/<id>, creating it on first use. The first scene added becomes the entry.
func (b *Builder) Game(id, title string) *GameBuilder {
	if gb, ok := b.games[id]; ok {
		return gb
	}
	gb := &GameBuilder{
		builder: b,
		doc:     dto.Game{ID: id, Title: title, Config: dto.GameConfig{CommandMap: map[string]string{}}},
		scenes:  make(map[string]*dto.Scene),
	}
	b.games[id] = gb
	return gb
}

// Message overrides a built-in user-facing string through program/config.
func (b *Builder) Message(key, template string) *Builder {
	if b.messages == nil {
		b.messages = make(map[string]string)
	}
	b.messages[key] = template
	return b
}

// Build compiles the content into a memory loader. It fails on the first invalid command key.
func (b *Builder) Build() (*memory.Loader, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	values := make(map[string]any)
	for p, pb := range b.programs {
		values[p] = pb.doc
	}
	for id, gb := range b.games {
		if gb.doc.Entry == "" {
			return nil, fmt.Errorf("game %s has no scenes", id)
		}
		dir := runtime.GamesPrefix + id
		values[path.Join(dir, runtime.GameMainFile)] = gb.doc
		for file, scene := range gb.scenes {
			values[path.Join(dir, file)] = scene
		}
		for n, description := range gb.extras {
			values[path.Join(dir, gb.doc.Extra[n])] = dto.Extra{ID: "extra" + n, Description: description}
		}
	}
	if b.messages != nil {
		values[runtime.ConfigPath] = dto.Config{Messages: b.messages}
	}

	loader, err := memory.NewFromValues(values)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}

// Paths lists every document Build produces, sorted.
func (b *Builder) Paths() []string {
	var out []string
	for p := range b.programs {
		out = append(out, p)
	}
	for id, gb := range b.games {
		dir := runtime.GamesPrefix + id
		out = append(out, path.Join(dir, runtime.GameMainFile))
		for file := range gb.scenes {
			out = append(out, path.Join(dir, file))
		}
		for _, file := range gb.doc.Extra {
			out = append(out, path.Join(dir, file))
		}
	}
	if b.messages != nil {
		out = append(out, runtime.ConfigPath)
	}
	sort.Strings(out)
	return out
}

func (b *Builder) key(k domain.CommandKey) (string, bool) {
	key, err := domain.ParseCommandKey(string(k))
	if err != nil {
		b.errs = append(b.errs, err)
		return "", false
	}
	return string(key), true
}

func sceneFile(id string) string {
	if strings.HasSuffix(id, ".json") {
		return id
	}
	return id + ".json"
}
