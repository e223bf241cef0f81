//go:build !tinygo

package apmd

import "time"

// Wait is the default WaitFunc on host builds.
func Wait(us uint32) { time.Sleep(time.Duration(us) * time.Microsecond) }
