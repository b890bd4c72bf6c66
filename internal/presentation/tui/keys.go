package tui

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/aretw0/vaudio/internal/logging"
	"github.com/aretw0/vaudio/pkg/domain"
	"github.com/aretw0/vaudio/pkg/input"
	"github.com/aretw0/vaudio/pkg/ports"
)

// KeySource reads keyboard and mouse events from a tcell screen.
// Ctrl+C ends the source.
type KeySource struct {
	Screen tcell.Screen
	Logger *slog.Logger

	buttons tcell.ButtonMask
}

// NewKeySource creates a source on s, which must already be initialized.
// Mouse reporting is enabled.
func NewKeySource(s tcell.Screen) *KeySource {
	s.EnableMouse()
	return &KeySource{Screen: s, Logger: logging.NewNop()}
}

var keyNames = map[tcell.Key]string{
	tcell.KeyUp:         "arrowup",
	tcell.KeyDown:       "arrowdown",
	tcell.KeyLeft:       "arrowleft",
	tcell.KeyRight:      "arrowright",
	tcell.KeyEnter:      "enter",
	tcell.KeyEscape:     "escape",
	tcell.KeyBackspace:  "backspace",
	tcell.KeyBackspace2: "backspace",
	tcell.KeyTab:        "tab",
}

// Run forwards events to c until ctx is done, Ctrl+C is pressed or the engine stops.
func (k *KeySource) Run(ctx context.Context, c ports.Controller) error {
	stop := context.AfterFunc(ctx, func() {
		_ = k.Screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
	defer stop()

	for {
		ev := k.Screen.PollEvent()
		if ev == nil {
			return io.EOF
		}

		var err error
		switch ev := ev.(type) {
		case *tcell.EventInterrupt:
			if ctx.Err() != nil {
				return nil
			}
		case *tcell.EventKey:
			if isInterrupt(ev) {
				return nil
			}
			if key, ok := KeyEvent(ev); ok {
				err = k.send(ctx, c, input.DeviceKeyboard, key)
			}
		case *tcell.EventMouse:
			if pe, ok := k.PointerEvent(ev); ok {
				err = k.send(ctx, c, input.DevicePointer, pe)
			}
		case *tcell.EventResize:
			k.Screen.Sync()
		}

		if errors.Is(err, domain.ErrResolverStopped) {
			return nil
		}
		if err != nil {
			k.Logger.Warn("terminal input rejected", "error", err)
		}
	}
}

func isInterrupt(ev *tcell.EventKey) bool {
	if ev.Key() == tcell.KeyCtrlC {
		return true
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == 'c' && ev.Modifiers()&tcell.ModCtrl != 0
}

func (k *KeySource) send(ctx context.Context, c ports.Controller, device string, ev any) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = c.Input(ctx, device, payload)
	return err
}

// KeyEvent converts a tcell key into a keyboard adapter event.
func KeyEvent(ev *tcell.EventKey) (input.KeyEvent, bool) {
	mods := ev.Modifiers()
	out := input.KeyEvent{
		Ctrl:  mods&tcell.ModCtrl != 0,
		Alt:   mods&tcell.ModAlt != 0,
		Shift: mods&tcell.ModShift != 0,
		Meta:  mods&tcell.ModMeta != 0,
	}
	if ev.Key() == tcell.KeyRune {
		// tcell drops ModShift from rune events; the case carries it instead.
		r := ev.Rune()
		out.Shift = out.Shift || unicode.IsUpper(r)
		out.Key = string(r)
		return out, true
	}
	name, ok := keyNames[ev.Key()]
	out.Key = name
	return out, ok
}

// PointerEvent converts button presses and wheel steps. Releases and drags yield nothing.
func (k *KeySource) PointerEvent(ev *tcell.EventMouse) (input.PointerEvent, bool) {
	buttons := ev.Buttons()
	pressed := buttons &^ k.buttons
	k.buttons = buttons & (tcell.Button1 | tcell.Button2 | tcell.Button3)

	switch {
	case buttons&tcell.WheelUp != 0:
		return input.PointerEvent{Kind: input.PointerWheel, Wheel: 1}, true
	case buttons&tcell.WheelDown != 0:
		return input.PointerEvent{Kind: input.PointerWheel, Wheel: -1}, true
	case pressed&tcell.Button1 != 0:
		return input.PointerEvent{Kind: input.PointerButton, Button: 0}, true
	case pressed&tcell.Button2 != 0:
		return input.PointerEvent{Kind: input.PointerButton, Button: 2}, true
	case pressed&tcell.Button3 != 0:
		return input.PointerEvent{Kind: input.PointerButton, Button: 1}, true
	}
	return input.PointerEvent{}, false
}
