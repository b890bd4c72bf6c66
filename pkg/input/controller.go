package input

import (
	"math"
	"strconv"

	"github.com/aretw0/vaudio/pkg/domain"
)

// ControllerKind discriminates game controller events.
type ControllerKind string

const (
	ControllerButton ControllerKind = "button"
	ControllerAxis   ControllerKind = "axis"
	ControllerStick  ControllerKind = "stick"
	ControllerDPad   ControllerKind = "dpad"
)

// Standard gamepad button indices.
const (
	ButtonA         = 0
	ButtonB         = 1
	ButtonX         = 2
	ButtonY         = 3
	ButtonLB        = 4
	ButtonRB        = 5
	ButtonLT        = 6
	ButtonRT        = 7
	ButtonDPadUp    = 12
	ButtonDPadDown  = 13
	ButtonDPadLeft  = 14
	ButtonDPadRight = 15
)

// ControllerEvent is a raw controller event.
//   - button: Button + Pressed (releases are ignored)
//   - axis:   Axis index + Value in [-1, 1]; axes 0/1 are the left stick, 2/3 the right one
//   - stick:  Stick ("left"|"right") + X/Y in [-1, 1], the dominant axis wins
//   - dpad:   Direction ("up"|"right"|"down"|"left")
type ControllerEvent struct {
	Kind      ControllerKind `json:"kind"`
	Button    int            `json:"button,omitempty"`
	Pressed   bool           `json:"pressed,omitempty"`
	Axis      int            `json:"axis,omitempty"`
	Value     float64        `json:"value,omitempty"`
	Stick     string         `json:"stick,omitempty"`
	X         float64        `json:"x,omitempty"`
	Y         float64        `json:"y,omitempty"`
	Direction string         `json:"direction,omitempty"`
}

const (
	DefaultDeadZone      = 0.1
	DefaultAxisThreshold = 0.5
)

// DefaultControllerTable binds face buttons, shoulders, d-pad and both sticks.
func DefaultControllerTable() Table {
	t := Table{
		strconv.Itoa(ButtonA):         domain.Signal1,
		strconv.Itoa(ButtonB):         domain.Signal2,
		strconv.Itoa(ButtonX):         domain.Signal3,
		strconv.Itoa(ButtonY):         domain.Signal4,
		strconv.Itoa(ButtonLB):        domain.Signal1,
		strconv.Itoa(ButtonRB):        domain.Signal2,
		strconv.Itoa(ButtonLT):        domain.Signal3,
		strconv.Itoa(ButtonRT):        domain.Signal4,
		strconv.Itoa(ButtonDPadUp):    domain.Signal1,
		strconv.Itoa(ButtonDPadDown):  domain.Signal3,
		strconv.Itoa(ButtonDPadLeft):  domain.Signal4,
		strconv.Itoa(ButtonDPadRight): domain.Signal2,
	}
	for _, prefix := range []string{"left_stick_", "right_stick_", "dpad_"} {
		t[prefix+"up"] = domain.Signal1
		t[prefix+"right"] = domain.Signal2
		t[prefix+"down"] = domain.Signal3
		t[prefix+"left"] = domain.Signal4
	}
	return t
}

// Controller normalizes gamepad input.
type Controller struct {
	table         Table
	deadZone      float64
	axisThreshold float64
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithDeadZone sets the dead zone, clamped to [0, 1].
func WithDeadZone(v float64) ControllerOption {
	return func(c *Controller) {
		c.deadZone = clamp01(v)
	}
}

// WithAxisThreshold sets the magnitude an axis must reach, clamped to [0, 1].
func WithAxisThreshold(v float64) ControllerOption {
	return func(c *Controller) {
		c.axisThreshold = clamp01(v)
	}
}

// NewController builds a controller adapter.
func NewController(overrides map[string]domain.Signal, opts ...ControllerOption) *Controller {
	c := &Controller{
		table:         DefaultControllerTable().Merge(overrides),
		deadZone:      DefaultDeadZone,
		axisThreshold: DefaultAxisThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Source() string { return domain.SourceController }

func (c *Controller) Table() Table { return c.table }

// Normalize maps a controller event to a signal.
func (c *Controller) Normalize(ev ControllerEvent) (domain.Signal, bool) {
	trigger, ok := c.trigger(ev)
	if !ok {
		return domain.SignalNone, false
	}
	return c.table.Lookup(trigger)
}

func (c *Controller) trigger(ev ControllerEvent) (string, bool) {
	switch ev.Kind {
	case ControllerButton:
		if !ev.Pressed {
			return "", false
		}
		return strconv.Itoa(ev.Button), true
	case ControllerDPad:
		if ev.Direction == "" {
			return "", false
		}
		return "dpad_" + ev.Direction, true
	case ControllerAxis:
		if !c.live(ev.Value) {
			return "", false
		}
		stick := "right_stick_"
		if ev.Axis < 2 {
			stick = "left_stick_"
		}
		if ev.Axis%2 == 0 {
			if ev.Value > 0 {
				return stick + "right", true
			}
			return stick + "left", true
		}
		if ev.Value > 0 {
			return stick + "down", true
		}
		return stick + "up", true
	case ControllerStick:
		x, y := ev.X, ev.Y
		if !c.live(x) {
			x = 0
		}
		if !c.live(y) {
			y = 0
		}
		if x == 0 && y == 0 {
			return "", false
		}
		stick := "left_stick_"
		if ev.Stick == "right" {
			stick = "right_stick_"
		}
		return direction(stick, x, y, 0)
	}
	return "", false
}

// live applies the dead zone and the magnitude threshold.
func (c *Controller) live(v float64) bool {
	m := math.Abs(v)
	return m >= c.deadZone && m >= c.axisThreshold
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
