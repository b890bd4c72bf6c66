package input

import (
	"math"

	"github.com/aretw0/vaudio/pkg/domain"
)

// TouchKind discriminates touch gestures.
type TouchKind string

const (
	TouchTap        TouchKind = "tap"
	TouchDoubleTap  TouchKind = "double_tap"
	TouchSwipe      TouchKind = "swipe"
	TouchPinch      TouchKind = "pinch"
	TouchMultiTouch TouchKind = "multi_touch"
)

// TouchEvent is a recognized gesture.
//   - tap:         X/Y of the touch and its Duration in milliseconds
//   - swipe:       StartX/StartY to X/Y
//   - pinch:       Distance, the change in finger spread (positive grows)
//   - multi_touch: Fingers
type TouchEvent struct {
	Kind     TouchKind `json:"kind"`
	X        float64   `json:"x,omitempty"`
	Y        float64   `json:"y,omitempty"`
	StartX   float64   `json:"start_x,omitempty"`
	StartY   float64   `json:"start_y,omitempty"`
	Duration float64   `json:"duration,omitempty"`
	Distance float64   `json:"distance,omitempty"`
	Fingers  int       `json:"fingers,omitempty"`
}

const (
	DefaultScreenWidth    = 1920
	DefaultScreenHeight   = 1080
	DefaultSwipeThreshold = 50.0
	DefaultPinchThreshold = 20.0
	// LongPressMillis is the tap duration above which a tap becomes a long press.
	LongPressMillis = 500.0
)

// DefaultTouchTable binds screen quadrants and gestures.
func DefaultTouchTable() Table {
	return Table{
		"tap_top_left":   domain.Signal1,
		"swipe_up":       domain.Signal1,
		"long_press":     domain.Signal1,
		"two_finger_tap": domain.Signal1,

		"tap_top_right":    domain.Signal2,
		"swipe_right":      domain.Signal2,
		"double_tap":       domain.Signal2,
		"three_finger_tap": domain.Signal2,

		"tap_bottom_left": domain.Signal3,
		"swipe_down":      domain.Signal3,
		"pinch_in":        domain.Signal3,

		"tap_bottom_right": domain.Signal4,
		"swipe_left":       domain.Signal4,
		"pinch_out":        domain.Signal4,
	}
}

// Touch normalizes touch gestures against a fixed screen size.
type Touch struct {
	table          Table
	width, height  float64
	swipeThreshold float64
	pinchThreshold float64
}

// TouchOption configures a Touch adapter.
type TouchOption func(*Touch)

// WithScreenSize sets the surface used to compute quadrants. Non-positive values are ignored.
func WithScreenSize(width, height float64) TouchOption {
	return func(t *Touch) {
		if width > 0 && height > 0 {
			t.width, t.height = width, height
		}
	}
}

// WithSwipeThreshold sets the minimum swipe distance.
func WithSwipeThreshold(px float64) TouchOption {
	return func(t *Touch) {
		t.swipeThreshold = px
	}
}

// NewTouch builds a touch adapter.
func NewTouch(overrides map[string]domain.Signal, opts ...TouchOption) *Touch {
	t := &Touch{
		table:          DefaultTouchTable().Merge(overrides),
		width:          DefaultScreenWidth,
		height:         DefaultScreenHeight,
		swipeThreshold: DefaultSwipeThreshold,
		pinchThreshold: DefaultPinchThreshold,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Touch) Source() string { return domain.SourceTouch }

func (t *Touch) Table() Table { return t.table }

// Normalize maps a gesture to a signal.
func (t *Touch) Normalize(ev TouchEvent) (domain.Signal, bool) {
	trigger, ok := t.trigger(ev)
	if !ok {
		return domain.SignalNone, false
	}
	return t.table.Lookup(trigger)
}

func (t *Touch) trigger(ev TouchEvent) (string, bool) {
	switch ev.Kind {
	case TouchTap:
		if ev.Duration > LongPressMillis {
			return "long_press", true
		}
		return "tap_" + t.quadrant(ev.X, ev.Y), true
	case TouchDoubleTap:
		return "double_tap", true
	case TouchSwipe:
		dx, dy := ev.X-ev.StartX, ev.Y-ev.StartY
		if math.Hypot(dx, dy) < t.swipeThreshold {
			return "", false
		}
		return direction("swipe_", dx, dy, 0)
	case TouchPinch:
		if math.Abs(ev.Distance) < t.pinchThreshold {
			return "", false
		}
		if ev.Distance > 0 {
			return "pinch_out", true
		}
		return "pinch_in", true
	case TouchMultiTouch:
		switch ev.Fingers {
		case 2:
			return "two_finger_tap", true
		case 3:
			return "three_finger_tap", true
		}
	}
	return "", false
}

func (t *Touch) quadrant(x, y float64) string {
	top := y < t.height/2
	left := x < t.width/2
	switch {
	case top && left:
		return "top_left"
	case top:
		return "top_right"
	case left:
		return "bottom_left"
	}
	return "bottom_right"
}
