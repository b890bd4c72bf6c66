package resolver

import "time"

// Timer is a cancelable scheduled callback.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call stopped it.
	Stop() bool
}

// Scheduler abstracts time so the combination window can be driven by a virtual clock in tests.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemScheduler uses the runtime timers.
type SystemScheduler struct{}

func (SystemScheduler) Now() time.Time { return time.Now() }

func (SystemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
