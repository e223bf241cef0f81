// Package ramp moves an integer level towards a target in timed steps.
package ramp

import (
	"time"

	"apmd-go/x/mathx"
)

// Step sets the new level.
type Step func(level uint32)

// Tick waits for d and reports whether to continue (false => cancelled).
type Tick func(d time.Duration) bool

// Linear runs a synchronous (caller-driven) integer ramp from cur to to in
// steps equal increments spread over d. steps==0 or d==0 snaps to 'to'.
// The final level is always exactly 'to' unless the ramp is cancelled.
func Linear(cur, to uint32, d time.Duration, steps uint16, tick Tick, set Step) {
	if steps == 0 || d <= 0 {
		set(to)
		return
	}
	delta := int64(to) - int64(cur)
	st := int64(steps)
	acc := int64(0)
	level := int64(cur)
	stepDur := mathx.Max(d/time.Duration(steps), time.Millisecond)

	for i := uint16(1); i < steps; i++ {
		if !tick(stepDur) {
			return
		}
		acc += delta
		inc := acc / st
		if inc != 0 {
			acc -= inc * st
			level += inc
			set(uint32(level))
		}
	}
	if !tick(stepDur) {
		return
	}
	set(to)
}

// SleepTick returns a Tick that sleeps and stops when done is closed.
func SleepTick(done <-chan struct{}) Tick {
	return func(d time.Duration) bool {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-done:
			return false
		case <-t.C:
			return true
		}
	}
}
