// Package clock abstracts wall-clock time so SLA arithmetic and the
// escalation sweep are testable without sleeping.
package clock

import "time"

// Clock provides the current time
type Clock interface {
	Now() time.Time
}

// System is the production clock (UTC, matching stored timestamps)
type System struct{}

// Now returns the current UTC time
func (System) Now() time.Time { return time.Now().UTC() }

// Fixed is a test clock pinned to a settable instant
type Fixed struct {
	T time.Time
}

// Now returns the pinned instant
func (f *Fixed) Now() time.Time { return f.T }

// Advance moves the pinned instant forward
func (f *Fixed) Advance(d time.Duration) { f.T = f.T.Add(d) }
