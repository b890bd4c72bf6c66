package domain

import (
	"fmt"
	"strings"
	"time"
)

// Signal is one of the four atomic input values produced by device adapters.
type Signal int

const (
	SignalNone Signal = iota
	Signal1
	Signal2
	Signal3
	Signal4
)

// Signals lists the four valid signals in ascending order.
var Signals = []Signal{Signal1, Signal2, Signal3, Signal4}

// Valid reports whether s is one of 1..4.
func (s Signal) Valid() bool {
	return s >= Signal1 && s <= Signal4
}

func (s Signal) String() string {
	if !s.Valid() {
		return "none"
	}
	return fmt.Sprintf("%d", int(s))
}

// ParseSignal converts "1".."4" into a Signal.
func ParseSignal(raw string) (Signal, error) {
	switch strings.TrimSpace(raw) {
	case "1":
		return Signal1, nil
	case "2":
		return Signal2, nil
	case "3":
		return Signal3, nil
	case "4":
		return Signal4, nil
	}
	return SignalNone, fmt.Errorf("%w: %q", ErrInvalidSignal, raw)
}

// CommandKey is the canonical string form of a resolved command, as used by content files.
type CommandKey string

const (
	KeyOne       CommandKey = "1"
	KeyTwo       CommandKey = "2"
	KeyThree     CommandKey = "3"
	KeyFour      CommandKey = "4"
	KeyOneTwo    CommandKey = "1+2"
	KeyOneFour   CommandKey = "1+4"
	KeyThreeTwo  CommandKey = "3+2"
	KeyThreeFour CommandKey = "3+4"
)

const keySeparator = "+"

// CommandKeys lists the eight commands of the vocabulary.
var CommandKeys = []CommandKey{
	KeyOne, KeyTwo, KeyThree, KeyFour,
	KeyOneTwo, KeyOneFour, KeyThreeTwo, KeyThreeFour,
}

// legalPairs maps an unordered pair (low, high) to its canonical key.
var legalPairs = map[[2]Signal]CommandKey{
	{Signal1, Signal2}: KeyOneTwo,
	{Signal1, Signal4}: KeyOneFour,
	{Signal2, Signal3}: KeyThreeTwo,
	{Signal3, Signal4}: KeyThreeFour,
}

func orderedPair(a, b Signal) [2]Signal {
	if a > b {
		a, b = b, a
	}
	return [2]Signal{a, b}
}

// IsLegalPair reports whether two signals form one of the four legal combinations,
// regardless of their order.
func IsLegalPair(a, b Signal) bool {
	if a == b {
		return false
	}
	_, ok := legalPairs[orderedPair(a, b)]
	return ok
}

// ParseCommandKey normalizes user or content supplied command strings.
// "2+3" is accepted and folded into "3+2".
func ParseCommandKey(raw string) (CommandKey, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	parts := strings.Split(raw, keySeparator)
	switch len(parts) {
	case 1:
		s, err := ParseSignal(parts[0])
		if err != nil {
			return "", err
		}
		return CommandKey(s.String()), nil
	case 2:
		a, err := ParseSignal(parts[0])
		if err != nil {
			return "", err
		}
		b, err := ParseSignal(parts[1])
		if err != nil {
			return "", err
		}
		key, ok := legalPairs[orderedPair(a, b)]
		if !ok || a == b {
			return "", fmt.Errorf("%w: %q", ErrIllegalCommand, raw)
		}
		return key, nil
	}
	return "", fmt.Errorf("%w: %q", ErrIllegalCommand, raw)
}

// IsPair reports whether the key names a two-signal combination.
func (k CommandKey) IsPair() bool {
	return strings.Contains(string(k), keySeparator)
}

// Signals returns the signals composing the key in canonical order.
func (k CommandKey) Signals() []Signal {
	out := make([]Signal, 0, 2)
	for _, p := range strings.Split(string(k), keySeparator) {
		if s, err := ParseSignal(p); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// Command is a resolved command: a single Signal or a legal pair.
// It is immutable once emitted.
type Command struct {
	Key       CommandKey `json:"key"`
	Source    string     `json:"source"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewSingle builds a single-signal command.
func NewSingle(s Signal, source string, at time.Time) (Command, error) {
	if !s.Valid() {
		return Command{}, fmt.Errorf("%w: %d", ErrInvalidSignal, int(s))
	}
	return Command{Key: CommandKey(s.String()), Source: source, Timestamp: at}, nil
}

// NewPair builds a pair command. Illegal pairs are rejected with ErrIllegalCommand.
func NewPair(a, b Signal, source string, at time.Time) (Command, error) {
	if !a.Valid() || !b.Valid() {
		return Command{}, fmt.Errorf("%w: %d+%d", ErrInvalidSignal, int(a), int(b))
	}
	key, ok := legalPairs[orderedPair(a, b)]
	if !ok || a == b {
		return Command{}, fmt.Errorf("%w: %d+%d", ErrIllegalCommand, int(a), int(b))
	}
	return Command{Key: key, Source: source, Timestamp: at}, nil
}

// IsPair reports whether the command is a combination.
func (c Command) IsPair() bool {
	return c.Key.IsPair()
}

// Signal returns the signal of a single command, or SignalNone for pairs.
func (c Command) Signal() Signal {
	if c.IsPair() {
		return SignalNone
	}
	s, _ := ParseSignal(string(c.Key))
	return s
}

func (c Command) String() string {
	return string(c.Key)
}

// Input source tags.
const (
	SourceKeyboard   = "keyboard"
	SourcePointer    = "pointer"
	SourceController = "controller"
	SourceTouch      = "touch"
	SourceVoice      = "voice"
	SourceManual     = "manual"
	SourceMQTT       = "mqtt"
)
