package input

import (
	"strings"

	"github.com/aretw0/vaudio/pkg/domain"
)

// KeyEvent is a single key press. Key is a key name ("w", "enter", "arrowup", "numpad8").
type KeyEvent struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrl,omitempty"`
	Alt   bool   `json:"alt,omitempty"`
	Shift bool   `json:"shift,omitempty"`
	Meta  bool   `json:"meta,omitempty"`
}

// DefaultKeyboardTable binds four key groups to the four signals.
func DefaultKeyboardTable() Table {
	return Table{
		"w": domain.Signal1, "1": domain.Signal1, "arrowup": domain.Signal1, "numpad8": domain.Signal1, "enter": domain.Signal1,
		"e": domain.Signal2, "2": domain.Signal2, "arrowright": domain.Signal2, "numpad6": domain.Signal2, "space": domain.Signal2,
		"s": domain.Signal3, "3": domain.Signal3, "arrowdown": domain.Signal3, "numpad2": domain.Signal3, "escape": domain.Signal3,
		"d": domain.Signal4, "4": domain.Signal4, "arrowleft": domain.Signal4, "numpad4": domain.Signal4, "backspace": domain.Signal4,
	}
}

var keyAliases = map[string]string{
	" ":        "space",
	"spacebar": "space",
	"esc":      "escape",
	"return":   "enter",
	"up":       "arrowup",
	"down":     "arrowdown",
	"left":     "arrowleft",
	"right":    "arrowright",
}

// Keyboard normalizes key presses.
type Keyboard struct {
	table Table
}

// NewKeyboard builds a keyboard adapter with optional trigger overrides.
// Override keys may carry modifiers in the form "ctrl+alt+shift+meta+key".
func NewKeyboard(overrides map[string]domain.Signal) *Keyboard {
	normalized := make(map[string]domain.Signal, len(overrides))
	for k, v := range overrides {
		normalized[normalizeTrigger(k)] = v
	}
	return &Keyboard{table: DefaultKeyboardTable().Merge(normalized)}
}

func (k *Keyboard) Source() string { return domain.SourceKeyboard }

func (k *Keyboard) Table() Table { return k.table }

// Normalize maps a key event to a signal. With modifiers held only the full
// modifier trigger is consulted, except that a bare shift falls back to the
// unmodified key when no shift trigger is bound.
func (k *Keyboard) Normalize(ev KeyEvent) (domain.Signal, bool) {
	key := normalizeKey(ev.Key)
	if key == "" {
		return domain.SignalNone, false
	}
	if s, ok := k.table.Lookup(Trigger(ev.Ctrl, ev.Alt, ev.Shift, ev.Meta, key)); ok {
		return s, true
	}
	if ev.Shift && !ev.Ctrl && !ev.Alt && !ev.Meta {
		return k.table.Lookup(key)
	}
	return domain.SignalNone, false
}

// Trigger composes a keyboard trigger in canonical modifier order.
func Trigger(ctrl, alt, shift, meta bool, key string) string {
	var b strings.Builder
	if ctrl {
		b.WriteString("ctrl+")
	}
	if alt {
		b.WriteString("alt+")
	}
	if shift {
		b.WriteString("shift+")
	}
	if meta {
		b.WriteString("meta+")
	}
	b.WriteString(key)
	return b.String()
}

func normalizeKey(key string) string {
	if key == " " {
		return "space"
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if alias, ok := keyAliases[key]; ok {
		return alias
	}
	return key
}

// normalizeTrigger reorders modifiers of a configured trigger ("shift+ctrl+W" -> "ctrl+shift+w").
func normalizeTrigger(raw string) string {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(raw)), "+")
	if len(parts) == 1 {
		return normalizeKey(parts[0])
	}
	mods := map[string]bool{}
	for _, p := range parts[:len(parts)-1] {
		mods[strings.TrimSpace(p)] = true
	}
	return Trigger(mods["ctrl"], mods["alt"], mods["shift"], mods["meta"], normalizeKey(parts[len(parts)-1]))
}
