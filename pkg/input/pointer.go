package input

import (
	"math"
	"strconv"
	"sync"

	"github.com/aretw0/vaudio/pkg/domain"
)

// PointerKind discriminates pointer events.
type PointerKind string

const (
	PointerButton PointerKind = "button"
	PointerWheel  PointerKind = "wheel"
	PointerMove   PointerKind = "move"
)

// PointerEvent is a raw pointer event. Button uses 0=left, 1=middle, 2=right.
// Wheel is positive for up. X/Y are absolute positions for move events.
type PointerEvent struct {
	Kind   PointerKind `json:"kind"`
	Button int         `json:"button,omitempty"`
	Wheel  float64     `json:"wheel,omitempty"`
	X      float64     `json:"x,omitempty"`
	Y      float64     `json:"y,omitempty"`
}

const (
	// DefaultMoveThreshold is the minimum scaled movement that yields a signal.
	DefaultMoveThreshold = 10.0
	minSensitivity       = 0.1
	maxSensitivity       = 5.0
)

// DefaultPointerTable binds buttons, wheel and movement directions.
func DefaultPointerTable() Table {
	return Table{
		"0": domain.Signal1,
		"2": domain.Signal2,
		"1": domain.Signal3,

		"wheel_up":   domain.Signal1,
		"wheel_down": domain.Signal3,

		"move_up":    domain.Signal1,
		"move_right": domain.Signal2,
		"move_down":  domain.Signal3,
		"move_left":  domain.Signal4,
	}
}

// Pointer normalizes mouse-like devices. It keeps the last position to derive movement deltas.
type Pointer struct {
	table       Table
	sensitivity float64
	threshold   float64

	mu           sync.Mutex
	lastX, lastY float64
}

// PointerOption configures a Pointer.
type PointerOption func(*Pointer)

// WithSensitivity scales movement deltas. The value is clamped to [0.1, 5].
func WithSensitivity(s float64) PointerOption {
	return func(p *Pointer) {
		p.sensitivity = math.Max(minSensitivity, math.Min(maxSensitivity, s))
	}
}

// WithMoveThreshold overrides the movement threshold.
func WithMoveThreshold(t float64) PointerOption {
	return func(p *Pointer) {
		p.threshold = t
	}
}

// NewPointer builds a pointer adapter.
func NewPointer(overrides map[string]domain.Signal, opts ...PointerOption) *Pointer {
	p := &Pointer{
		table:       DefaultPointerTable().Merge(overrides),
		sensitivity: 1.0,
		threshold:   DefaultMoveThreshold,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pointer) Source() string { return domain.SourcePointer }

func (p *Pointer) Table() Table { return p.table }

// Sensitivity returns the effective sensitivity.
func (p *Pointer) Sensitivity() float64 { return p.sensitivity }

// Normalize maps a pointer event to a signal.
func (p *Pointer) Normalize(ev PointerEvent) (domain.Signal, bool) {
	trigger, ok := p.trigger(ev)
	if !ok {
		return domain.SignalNone, false
	}
	return p.table.Lookup(trigger)
}

// ResetPosition forgets the last known position.
func (p *Pointer) ResetPosition() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastX, p.lastY = 0, 0
}

func (p *Pointer) trigger(ev PointerEvent) (string, bool) {
	switch ev.Kind {
	case PointerButton:
		return strconv.Itoa(ev.Button), true
	case PointerWheel:
		switch {
		case ev.Wheel > 0:
			return "wheel_up", true
		case ev.Wheel < 0:
			return "wheel_down", true
		}
		return "", false
	case PointerMove:
		p.mu.Lock()
		dx := (ev.X - p.lastX) * p.sensitivity
		dy := (ev.Y - p.lastY) * p.sensitivity
		p.lastX, p.lastY = ev.X, ev.Y
		p.mu.Unlock()
		return direction("move_", dx, dy, p.threshold)
	}
	return "", false
}

// direction picks the dominant axis of a delta. Screen coordinates grow downwards.
// Deltas under threshold on both axes yield nothing.
func direction(prefix string, dx, dy, threshold float64) (string, bool) {
	ax, ay := math.Abs(dx), math.Abs(dy)
	if ax < threshold && ay < threshold {
		return "", false
	}
	if ax > ay {
		if dx > 0 {
			return prefix + "right", true
		}
		return prefix + "left", true
	}
	if dy > 0 {
		return prefix + "down", true
	}
	return prefix + "up", true
}
