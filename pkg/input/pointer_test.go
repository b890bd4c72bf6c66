package input_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/vaudio/pkg/domain"
	"github.com/aretw0/vaudio/pkg/input"
)

func TestPointer_Buttons(t *testing.T) {
	p := input.NewPointer(nil)

	tests := []struct {
		button int
		want   domain.Signal
		ok     bool
	}{
		{0, domain.Signal1, true},
		{2, domain.Signal2, true},
		{1, domain.Signal3, true},
		{3, domain.SignalNone, false},
	}
	for _, tt := range tests {
		got, ok := p.Normalize(input.PointerEvent{Kind: input.PointerButton, Button: tt.button})
		assert.Equal(t, tt.ok, ok, "button %d", tt.button)
		assert.Equal(t, tt.want, got, "button %d", tt.button)
	}
}

func TestPointer_Wheel(t *testing.T) {
	p := input.NewPointer(nil)

	got, ok := p.Normalize(input.PointerEvent{Kind: input.PointerWheel, Wheel: 1})
	assert.True(t, ok)
	assert.Equal(t, domain.Signal1, got)

	got, ok = p.Normalize(input.PointerEvent{Kind: input.PointerWheel, Wheel: -3})
	assert.True(t, ok)
	assert.Equal(t, domain.Signal3, got)

	_, ok = p.Normalize(input.PointerEvent{Kind: input.PointerWheel})
	assert.False(t, ok)
}

func TestPointer_Move(t *testing.T) {
	t.Run("below threshold", func(t *testing.T) {
		p := input.NewPointer(nil)
		_, ok := p.Normalize(input.PointerEvent{Kind: input.PointerMove, X: 5, Y: 9})
		assert.False(t, ok)
	})

	t.Run("deltas are relative to the last position", func(t *testing.T) {
		p := input.NewPointer(nil)
		got, ok := p.Normalize(input.PointerEvent{Kind: input.PointerMove, X: 100, Y: 20})
		assert.True(t, ok)
		assert.Equal(t, domain.Signal2, got, "dominant axis is x, moving right")

		// from (100,20) to (104,60): y dominates, moving down
		got, ok = p.Normalize(input.PointerEvent{Kind: input.PointerMove, X: 104, Y: 60})
		assert.True(t, ok)
		assert.Equal(t, domain.Signal3, got)

		// from (104,60) to (80,55): left
		got, ok = p.Normalize(input.PointerEvent{Kind: input.PointerMove, X: 80, Y: 55})
		assert.True(t, ok)
		assert.Equal(t, domain.Signal4, got)

		// back up
		got, ok = p.Normalize(input.PointerEvent{Kind: input.PointerMove, X: 80, Y: 10})
		assert.True(t, ok)
		assert.Equal(t, domain.Signal1, got)
	})

	t.Run("diagonal tie resolves vertically", func(t *testing.T) {
		p := input.NewPointer(nil)
		got, ok := p.Normalize(input.PointerEvent{Kind: input.PointerMove, X: 20, Y: 20})
		assert.True(t, ok)
		assert.Equal(t, domain.Signal3, got)
	})

	t.Run("sensitivity scales deltas", func(t *testing.T) {
		p := input.NewPointer(nil, input.WithSensitivity(2))
		got, ok := p.Normalize(input.PointerEvent{Kind: input.PointerMove, X: 6})
		assert.True(t, ok)
		assert.Equal(t, domain.Signal2, got)
	})

	t.Run("sensitivity is clamped", func(t *testing.T) {
		assert.Equal(t, 5.0, input.NewPointer(nil, input.WithSensitivity(50)).Sensitivity())
		assert.Equal(t, 0.1, input.NewPointer(nil, input.WithSensitivity(0)).Sensitivity())
	})
}
