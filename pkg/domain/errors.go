package domain

import (
	"errors"
	"fmt"
)

// ErrExitRequested is returned when the exit navigation target is reached.
// It is the only error that stops the run loop, and callers treat it as a clean shutdown.
var ErrExitRequested = errors.New("exit requested")

// ErrContentNotFound is returned by loaders when a content path does not exist.
var ErrContentNotFound = errors.New("content not found")

// ErrIllegalCommand is returned when a signal pair outside the legal set is built or dispatched.
var ErrIllegalCommand = errors.New("illegal command")

// ErrInvalidSignal is returned for values outside 1..4.
var ErrInvalidSignal = errors.New("invalid signal")

// ErrResolverStopped is returned when input is fed to a stopped resolver.
var ErrResolverStopped = errors.New("resolver stopped")

// ErrNotRunning is returned when a command is dispatched before Start or after Stop.
var ErrNotRunning = errors.New("engine not running")

// ErrUnknownAction is returned when an action id is not registered.
var ErrUnknownAction = errors.New("action not registered")

// ErrActionUnavailable is returned when an action exists but its condition does not hold.
var ErrActionUnavailable = errors.New("action not available")

// ContentKind names the kind of content a load was attempting.
type ContentKind string

const (
	ContentProgram ContentKind = "program"
	ContentGame    ContentKind = "game"
	ContentScene   ContentKind = "scene"
	ContentExtra   ContentKind = "extra"
	ContentConfig  ContentKind = "config"
)

// LoadError describes a failed content load.
type LoadError struct {
	Kind ContentKind
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
