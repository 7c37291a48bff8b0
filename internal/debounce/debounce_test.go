package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func pending(d *Debouncer) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func TestDebouncer_OnlyLastTriggerFires(t *testing.T) {
	clock := NewFakeClock()
	var fired atomic.Int32
	d := New(clock, 300*time.Millisecond, func(uint64) { fired.Add(1) })

	for i := 0; i < 5; i++ {
		d.Trigger()
		clock.Advance(100 * time.Millisecond)
	}
	assert.Equal(t, int32(0), fired.Load())
	assert.True(t, pending(d))

	clock.Advance(200 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
	assert.False(t, pending(d))

	clock.Advance(time.Second)
	assert.Equal(t, int32(1), fired.Load())
}

func TestDebouncer_Stop(t *testing.T) {
	clock := NewFakeClock()
	var fired atomic.Int32
	d := New(clock, 300*time.Millisecond, func(uint64) { fired.Add(1) })

	assert.False(t, d.Stop())
	d.Trigger()
	assert.True(t, d.Stop())

	clock.Advance(time.Second)
	assert.Equal(t, int32(0), fired.Load())
	assert.False(t, pending(d))
}

func TestDebouncer_RetriggerAfterFire(t *testing.T) {
	clock := NewFakeClock()
	var fired atomic.Int32
	d := New(clock, 10*time.Millisecond, func(uint64) { fired.Add(1) })

	d.Trigger()
	clock.Advance(10 * time.Millisecond)
	d.Trigger()
	clock.Advance(10 * time.Millisecond)
	assert.Equal(t, int32(2), fired.Load())
}

func TestDebouncer_RealClock(t *testing.T) {
	done := make(chan struct{})
	d := New(nil, 5*time.Millisecond, func(uint64) { close(done) })
	d.Trigger()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer never fired")
	}
}

func TestDebouncer_StaleAfterRetrigger(t *testing.T) {
	clock := NewFakeClock()
	var gens []uint64
	d := New(clock, 10*time.Millisecond, func(gen uint64) { gens = append(gens, gen) })

	d.Trigger()
	clock.Advance(10 * time.Millisecond)
	assert.Len(t, gens, 1)
	assert.False(t, d.Stale(gens[0]))

	d.Trigger()
	assert.True(t, d.Stale(gens[0]), "a handed-off fire is invalidated by the next trigger")

	d.Stop()
	clock.Advance(time.Second)
	assert.Len(t, gens, 1)
}

func TestFakeClock_FiresInDeadlineOrder(t *testing.T) {
	clock := NewFakeClock()
	var order []int
	clock.AfterFunc(30*time.Millisecond, func() { order = append(order, 3) })
	clock.AfterFunc(10*time.Millisecond, func() { order = append(order, 1) })
	clock.AfterFunc(20*time.Millisecond, func() { order = append(order, 2) })

	clock.Advance(25 * time.Millisecond)
	assert.Equal(t, []int{1, 2}, order)
	clock.Advance(5 * time.Millisecond)
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestRealClock_FiresAndStops(t *testing.T) {
	var fired atomic.Int32
	d := New(nil, 5*time.Millisecond, func(uint64) { fired.Add(1) })

	d.Trigger()
	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, time.Millisecond)

	d.Trigger()
	assert.True(t, d.Stop())
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}
