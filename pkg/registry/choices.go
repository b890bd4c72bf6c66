package registry

import "github.com/aretw0/vaudio/pkg/domain"

// ProgramChoices is the command-keyed choice lookup of one program node.
// It edits the node in place.
type ProgramChoices struct {
	node *domain.ProgramNode
}

// ChoicesOf wraps a program node.
func ChoicesOf(node *domain.ProgramNode) *ProgramChoices {
	if node.Choices == nil {
		node.Choices = make(map[domain.CommandKey]*domain.ChoiceSlot)
	}
	return &ProgramChoices{node: node}
}

// Register binds a slot to a command key.
func (p *ProgramChoices) Register(key domain.CommandKey, slot *domain.ChoiceSlot) {
	p.node.Choices[key] = slot
}

// Unregister removes the slot of a command key.
func (p *ProgramChoices) Unregister(key domain.CommandKey) {
	delete(p.node.Choices, key)
}

// Has reports whether key is bound to a non-empty slot.
func (p *ProgramChoices) Has(key domain.CommandKey) bool {
	_, ok := p.node.Slot(key)
	return ok
}

// Get returns the slot bound to key.
func (p *ProgramChoices) Get(key domain.CommandKey) (*domain.ChoiceSlot, bool) {
	return p.node.Slot(key)
}

// List returns the bound keys in vocabulary order.
func (p *ProgramChoices) List() []domain.CommandKey {
	return p.node.Keys()
}

// Choice returns the option under the cursor of the slot bound to key.
func (p *ProgramChoices) Choice(key domain.CommandKey) (domain.Choice, bool) {
	slot, ok := p.node.Slot(key)
	if !ok {
		return domain.Choice{}, false
	}
	return slot.Current()
}

// ChoiceFor returns the option under the cursor of the slot bound to key in node.
func ChoiceFor(node *domain.ProgramNode, key domain.CommandKey) (domain.Choice, bool) {
	if node == nil {
		return domain.Choice{}, false
	}
	return ChoicesOf(node).Choice(key)
}
