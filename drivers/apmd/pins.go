package apmd

// ClockDomain is one gated clock on the FSYS bus.
type ClockDomain uint8

const (
	ClockPortB ClockDomain = iota + 1
	ClockPortE
	ClockPortU
	ClockPMD0
	ClockPMD1
	ClockPMD2
	ClockRamp
)

func (d ClockDomain) String() string {
	switch d {
	case ClockPortB:
		return "PB"
	case ClockPortE:
		return "PE"
	case ClockPortU:
		return "PU"
	case ClockPMD0:
		return "PMD0"
	case ClockPMD1:
		return "PMD1"
	case ClockPMD2:
		return "PMD2"
	case ClockRamp:
		return "RAMP"
	}
	return "?"
}

// Port is a GPIO port bank.
type Port uint8

const (
	PortB Port = iota + 1
	PortE
	PortU
)

// Pin is one GPIO line.
type Pin struct {
	Port Port
	Num  uint8
}

func (p Pin) String() string {
	var s string
	switch p.Port {
	case PortB:
		s = "PB"
	case PortE:
		s = "PE"
	case PortU:
		s = "PU"
	default:
		s = "P?"
	}
	return s + string(rune('0'+p.Num))
}

// ClockGate enables peripheral clocks.
type ClockGate interface {
	EnableClock(d ClockDomain)
}

// GPIO configures port pins.
type GPIO interface {
	SetPinDirection(p Pin, output bool)
	// SetPinFunction selects function fn (FRn) on the pin, or returns it to
	// plain GPIO when enable is false.
	SetPinFunction(p Pin, fn uint8, enable bool)
	SetPinPullResistors(p Pin, up, down bool)
}

// Platform is what the binder needs from the chip support layer.
type Platform interface {
	ClockGate
	GPIO
}

// Port output modes (PORTMD).
const (
	PortUpperHighLowerHigh uint32 = 0 // both forced inactive
	PortUpperHighLowerPMD  uint32 = 1
	PortUpperPMDLowerHigh  uint32 = 2
	PortUpperPMDLowerPMD   uint32 = 3
)

// channelPins is the per-instance binding table entry. Pins are ordered
// U, X, V, Y, W, Z: even entries are upper phases, odd entries their
// complements.
type channelPins struct {
	clocks []ClockDomain
	fn     uint8
	pins   [6]Pin
}

func portPins(port Port) [6]Pin {
	var out [6]Pin
	for i := range out {
		out[i] = Pin{Port: port, Num: uint8(i)}
	}
	return out
}

var pinTable = [numChannels]channelPins{
	{clocks: []ClockDomain{ClockPortB, ClockPMD0, ClockRamp}, fn: 4, pins: portPins(PortB)},
	{clocks: []ClockDomain{ClockPortE, ClockPMD1}, fn: 6, pins: portPins(PortE)},
	{clocks: []ClockDomain{ClockPortU, ClockPMD2}, fn: 6, pins: portPins(PortU)},
}

// Pins returns the upper and lower pin of a phase on a channel.
func Pins(id ChannelID, p Phase) (upper, lower Pin) {
	t := &pinTable[id.n]
	i := p.index() * 2
	return t.pins[i], t.pins[i+1]
}

// Clocks returns the clock domains a channel needs when it has active phases.
func Clocks(id ChannelID) []ClockDomain {
	return append([]ClockDomain(nil), pinTable[id.n].clocks...)
}

// bind enables clocks, selects the port output mode and configures the
// phase pins. Phase count 0 touches nothing.
func bind(pl Platform, b Block, id ChannelID, n PhaseCount, comp bool) {
	if n == 0 {
		return
	}
	t := &pinTable[id.n]
	for _, d := range t.clocks {
		pl.EnableClock(d)
	}

	mode := PortUpperPMDLowerHigh
	if comp {
		mode = PortUpperPMDLowerPMD
	}
	update(b, regPORTMD, portmdMask, mode)

	for ph := 0; ph < 3; ph++ {
		up, lo := t.pins[2*ph], t.pins[2*ph+1]
		if ph >= int(n) {
			release(pl, up, t.fn)
			release(pl, lo, t.fn)
			continue
		}
		drive(pl, up, t.fn)
		if comp {
			drive(pl, lo, t.fn)
		} else {
			release(pl, lo, t.fn)
		}
	}
}

func drive(pl GPIO, p Pin, fn uint8) {
	pl.SetPinPullResistors(p, false, false)
	pl.SetPinFunction(p, fn, true)
	pl.SetPinDirection(p, true)
}

// release leaves a pin as an unpulled input with the PMD function off.
func release(pl GPIO, p Pin, fn uint8) {
	pl.SetPinDirection(p, false)
	pl.SetPinFunction(p, fn, false)
	pl.SetPinPullResistors(p, false, false)
}

// unbind returns every pin of a channel to non-driving and forces both
// switch groups inactive in PORTMD. Clocks are left running.
func unbind(pl Platform, b Block, id ChannelID) {
	t := &pinTable[id.n]
	update(b, regPORTMD, portmdMask, PortUpperHighLowerHigh)
	for _, p := range t.pins {
		release(pl, p, t.fn)
	}
}
