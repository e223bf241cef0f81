//go:build !tinygo || rp2040

package platform

import "apmd-go/drivers/apmd"

// logGPIO stands in for the clock and port layer on targets without the
// A-PMD. It logs every call and keeps the last state per pin.
type logGPIO struct {
	quiet bool
	pins  map[apmd.Pin]uint8 // fn, or 0 when plain GPIO
}

func newLogGPIO(quiet bool) *logGPIO {
	return &logGPIO{quiet: quiet, pins: map[apmd.Pin]uint8{}}
}

func (g *logGPIO) EnableClock(d apmd.ClockDomain) {
	if !g.quiet {
		println("[platform] clock", d.String(), "on")
	}
}

func (g *logGPIO) SetPinDirection(p apmd.Pin, output bool) {
	if !g.quiet {
		println("[platform]", p.String(), "output", output)
	}
}

func (g *logGPIO) SetPinFunction(p apmd.Pin, fn uint8, enable bool) {
	if enable {
		g.pins[p] = fn
	} else {
		delete(g.pins, p)
	}
	if !g.quiet {
		println("[platform]", p.String(), "fn", fn, enable)
	}
}

func (g *logGPIO) SetPinPullResistors(p apmd.Pin, up, down bool) {}

// Function returns the function selected on p, if any.
func (g *logGPIO) Function(p apmd.Pin) (uint8, bool) {
	fn, ok := g.pins[p]
	return fn, ok
}
