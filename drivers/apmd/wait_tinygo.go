//go:build tinygo

package apmd

import (
	"time"

	"tinygo.org/x/drivers/delay"
)

// Wait is the default WaitFunc on hardware.
func Wait(us uint32) { delay.Sleep(time.Duration(us) * time.Microsecond) }
