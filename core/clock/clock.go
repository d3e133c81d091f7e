package clock

import "time"

// Clock abstracts the time source so lifecycle and staleness logic can be
// tested deterministically.
type Clock interface {
	Now() time.Time
}

// System returns the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed always returns the same instant. Intended for tests.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }
