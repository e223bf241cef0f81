package ramp

import (
	"testing"
	"time"
)

func collect(cur, to uint32, d time.Duration, steps uint16, stopAfter int) (levels []uint32, waits []time.Duration) {
	tick := func(d time.Duration) bool {
		if stopAfter >= 0 && len(waits) == stopAfter {
			return false
		}
		waits = append(waits, d)
		return true
	}
	Linear(cur, to, d, steps, tick, func(v uint32) { levels = append(levels, v) })
	return levels, waits
}

func TestLinear_UpAndDown(t *testing.T) {
	levels, waits := collect(0, 100, 400*time.Millisecond, 4, -1)
	want := []uint32{25, 50, 75, 100}
	if len(levels) != len(want) {
		t.Fatalf("levels=%v", levels)
	}
	for i := range want {
		if levels[i] != want[i] {
			t.Fatalf("levels=%v want %v", levels, want)
		}
	}
	if len(waits) != 4 || waits[0] != 100*time.Millisecond {
		t.Fatalf("waits=%v", waits)
	}

	levels, _ = collect(0x8000, 0, time.Second, 3, -1)
	if levels[len(levels)-1] != 0 {
		t.Fatalf("down ramp ended at %d", levels[len(levels)-1])
	}
	for i := 1; i < len(levels); i++ {
		if levels[i] > levels[i-1] {
			t.Fatalf("not monotonic: %v", levels)
		}
	}
}

func TestLinear_Snap(t *testing.T) {
	if levels, waits := collect(5, 9, 0, 10, -1); len(levels) != 1 || levels[0] != 9 || len(waits) != 0 {
		t.Fatalf("levels=%v waits=%v", levels, waits)
	}
	if levels, _ := collect(5, 9, time.Second, 0, -1); len(levels) != 1 || levels[0] != 9 {
		t.Fatalf("levels=%v", levels)
	}
}

func TestLinear_Cancelled(t *testing.T) {
	levels, _ := collect(0, 100, time.Second, 10, 3)
	if len(levels) != 3 || levels[2] != 30 {
		t.Fatalf("levels=%v", levels)
	}
}

func TestSleepTick(t *testing.T) {
	done := make(chan struct{})
	tick := SleepTick(done)
	if !tick(time.Millisecond) {
		t.Fatal("tick stopped early")
	}
	close(done)
	if tick(time.Hour) {
		t.Fatal("tick ignored done")
	}
}
