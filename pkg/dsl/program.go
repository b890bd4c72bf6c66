package dsl

import (
	"github.com/aretw0/vaudio/internal/dto"
	"github.com/aretw0/vaudio/pkg/domain"
)

// ProgramBuilder provides a fluent API for configuring a program menu.
type ProgramBuilder struct {
	doc     dto.Program
	builder *Builder
}

// Choice adds an option to the slot of key. Repeated calls on the same key build a list
// that the key cycles through.
func (p *ProgramBuilder) Choice(key domain.CommandKey, label, target string) *ProgramBuilder {
	p.add(key, dto.Choice{Label: label, Goto: target})
	return p
}

// Submenu adds an option that opens a nested menu. Configure it on the returned builder
// and call End to come back.
func (p *ProgramBuilder) Submenu(key domain.CommandKey, label string) *SubmenuBuilder {
	sub := &SubmenuBuilder{parent: p, choice: map[string]any{}}
	p.add(key, sub.ref(label))
	return sub
}

// Extra names the extra frame of the last game shown when the program opens its extra list.
func (p *ProgramBuilder) Extra(number string) *ProgramBuilder {
	p.doc.Extra = number
	return p
}

// Done returns to the content builder.
func (p *ProgramBuilder) Done() *Builder {
	return p.builder
}

func (p *ProgramBuilder) add(key domain.CommandKey, c any) {
	k, ok := p.builder.key(key)
	if !ok {
		return
	}
	p.doc.Choice[k] = appendChoice(p.doc.Choice[k], c)
}

// SubmenuBuilder configures the choices of a nested menu.
type SubmenuBuilder struct {
	parent *ProgramBuilder
	choice map[string]any
}

// ref is the choice value pointing at this submenu. The map is shared so later
// Choice calls are visible in it.
func (s *SubmenuBuilder) ref(label string) map[string]any {
	return map[string]any{"label": label, "choice": s.choice}
}

// Choice adds an option to the nested menu.
func (s *SubmenuBuilder) Choice(key domain.CommandKey, label, target string) *SubmenuBuilder {
	k, ok := s.parent.builder.key(key)
	if !ok {
		return s
	}
	s.choice[k] = appendChoice(s.choice[k], dto.Choice{Label: label, Goto: target})
	return s
}

// End returns to the enclosing program.
func (s *SubmenuBuilder) End() *ProgramBuilder {
	return s.parent
}

func appendChoice(existing, c any) any {
	switch v := existing.(type) {
	case nil:
		return c
	case []any:
		return append(v, c)
	default:
		return []any{v, c}
	}
}
