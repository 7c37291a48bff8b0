package debounce

import (
	"time"

	"github.com/facebookgo/clock"
)

// Timer is the part of *time.Timer the debouncer needs
type Timer interface {
	Stop() bool
}

// Clock schedules delayed callbacks
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// stopFunc adapts the library timers to Timer
type stopFunc func()

func (s stopFunc) Stop() bool {
	s()
	return true
}

// RealClock schedules on the runtime timer
type RealClock struct{}

func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	t := clock.New().AfterFunc(d, f)
	return stopFunc(func() { t.Stop() })
}

// FakeClock is a manually advanced clock for tests. Callbacks run
// synchronously inside Advance, in deadline order.
type FakeClock struct {
	mock *clock.Mock
}

// NewFakeClock returns a fake clock starting at the Unix epoch
func NewFakeClock() *FakeClock {
	return &FakeClock{mock: clock.NewMock()}
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) Timer {
	t := c.mock.AfterFunc(d, f)
	return stopFunc(func() { t.Stop() })
}

// Advance moves time forward and fires every timer that became due
func (c *FakeClock) Advance(d time.Duration) {
	c.mock.Add(d)
}
