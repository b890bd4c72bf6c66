package input

import (
	"sort"

	"github.com/aretw0/vaudio/pkg/domain"
)

// Table maps device triggers to signals. Numeric triggers (buttons) use their decimal form.
type Table map[string]domain.Signal

// Lookup returns the signal bound to a trigger.
func (t Table) Lookup(trigger string) (domain.Signal, bool) {
	s, ok := t[trigger]
	if !ok || !s.Valid() {
		return domain.SignalNone, false
	}
	return s, true
}

// Merge returns a copy of t with overrides applied. Invalid signals in overrides unbind the trigger.
func (t Table) Merge(overrides map[string]domain.Signal) Table {
	out := make(Table, len(t)+len(overrides))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range overrides {
		if !v.Valid() {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// Triggers returns the sorted triggers bound to a signal.
func (t Table) Triggers(s domain.Signal) []string {
	var out []string
	for k, v := range t {
		if v == s {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Adapter is the common surface of all device adapters.
type Adapter interface {
	// Source is the tag attached to commands produced from this device.
	Source() string
	// Table exposes the effective trigger table.
	Table() Table
}
