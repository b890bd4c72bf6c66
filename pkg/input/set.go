package input

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/vaudio/pkg/domain"
)

// ErrUnknownDevice is returned when a payload names a device with no adapter.
var ErrUnknownDevice = errors.New("unknown input device")

// Device names accepted by NormalizeJSON.
const (
	DeviceKeyboard   = "keyboard"
	DevicePointer    = "pointer"
	DeviceController = "controller"
	DeviceTouch      = "touch"
	DeviceVoice      = "voice"
)

// Devices lists the supported device names.
var Devices = []string{DeviceKeyboard, DevicePointer, DeviceController, DeviceTouch, DeviceVoice}

// Overrides holds per-device trigger overrides, as read from project configuration.
type Overrides struct {
	Keyboard   map[string]int `yaml:"keyboard" json:"keyboard,omitempty"`
	Pointer    map[string]int `yaml:"pointer" json:"pointer,omitempty"`
	Controller map[string]int `yaml:"controller" json:"controller,omitempty"`
	Touch      map[string]int `yaml:"touch" json:"touch,omitempty"`
	Voice      map[string]int `yaml:"voice" json:"voice,omitempty"`
}

func signals(m map[string]int) map[string]domain.Signal {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]domain.Signal, len(m))
	for k, v := range m {
		out[k] = domain.Signal(v)
	}
	return out
}

// Set bundles one adapter per device.
type Set struct {
	Keyboard   *Keyboard
	Pointer    *Pointer
	Controller *Controller
	Touch      *Touch
	Voice      *Voice
}

// NewSet builds every adapter with the given overrides.
func NewSet(o Overrides) *Set {
	return &Set{
		Keyboard:   NewKeyboard(signals(o.Keyboard)),
		Pointer:    NewPointer(signals(o.Pointer)),
		Controller: NewController(signals(o.Controller)),
		Touch:      NewTouch(signals(o.Touch)),
		Voice:      NewVoice(signals(o.Voice)),
	}
}

// Adapter returns the adapter for a device name.
func (s *Set) Adapter(device string) (Adapter, error) {
	switch strings.ToLower(device) {
	case DeviceKeyboard:
		return s.Keyboard, nil
	case DevicePointer, "mouse":
		return s.Pointer, nil
	case DeviceController, "gamepad":
		return s.Controller, nil
	case DeviceTouch:
		return s.Touch, nil
	case DeviceVoice:
		return s.Voice, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDevice, device)
}

// NormalizeJSON decodes a raw device event and normalizes it.
// It returns the source tag of the device alongside the signal.
func (s *Set) NormalizeJSON(device string, payload []byte) (domain.Signal, string, error) {
	a, err := s.Adapter(device)
	if err != nil {
		return domain.SignalNone, "", err
	}
	var (
		sig domain.Signal
		ok  bool
	)
	switch ad := a.(type) {
	case *Keyboard:
		var ev KeyEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return domain.SignalNone, "", fmt.Errorf("decode %s event: %w", device, err)
		}
		sig, ok = ad.Normalize(ev)
	case *Pointer:
		var ev PointerEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return domain.SignalNone, "", fmt.Errorf("decode %s event: %w", device, err)
		}
		sig, ok = ad.Normalize(ev)
	case *Controller:
		var ev ControllerEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return domain.SignalNone, "", fmt.Errorf("decode %s event: %w", device, err)
		}
		sig, ok = ad.Normalize(ev)
	case *Touch:
		var ev TouchEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return domain.SignalNone, "", fmt.Errorf("decode %s event: %w", device, err)
		}
		sig, ok = ad.Normalize(ev)
	case *Voice:
		var ev VoiceEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return domain.SignalNone, "", fmt.Errorf("decode %s event: %w", device, err)
		}
		sig, ok = ad.Normalize(ev)
	}
	if !ok {
		return domain.SignalNone, a.Source(), nil
	}
	return sig, a.Source(), nil
}

// Tables returns the effective table of every device, keyed by device name.
func (s *Set) Tables() map[string]Table {
	return map[string]Table{
		DeviceKeyboard:   s.Keyboard.Table(),
		DevicePointer:    s.Pointer.Table(),
		DeviceController: s.Controller.Table(),
		DeviceTouch:      s.Touch.Table(),
		DeviceVoice:      s.Voice.Table(),
	}
}
