// Package clock provides the ports.Clock implementations. Production code
// injects Real; tests and backfills inject Fixed.
package clock

import (
	"sync"
	"time"
)

// Real reads the wall clock in a fixed location.
type Real struct {
	loc *time.Location
}

// NewReal returns a wall clock reporting times in loc (UTC when nil).
func NewReal(loc *time.Location) *Real {
	if loc == nil {
		loc = time.UTC
	}
	return &Real{loc: loc}
}

func (r *Real) Now() time.Time {
	return time.Now().In(r.loc)
}

// Fixed always reports the same instant until Set is called.
type Fixed struct {
	mu  sync.RWMutex
	now time.Time
}

func NewFixed(now time.Time) *Fixed {
	return &Fixed{now: now}
}

func (f *Fixed) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.now
}

// Set moves the clock to now.
func (f *Fixed) Set(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
