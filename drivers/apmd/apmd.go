// Package apmd drives the TMPM4K advanced programmable motor driver (A-PMD),
// a three-phase PWM unit with two hardware trip paths.
//
// Notes (TMPM4K reference manual, A-PMD chapter):
// • Waveform, polarity and dead-time registers are only written while PWMEN=0.
// • CMPx and RATE are buffered and may be written at any time.
// • EMG/OVV latches clear only after the 0x5A, 0xA5 key pair followed by EN=0.
// • f_carrier = fsys * RATE / 2^24; DT = DTR * 4 / fsys; CMPx 0x8000 = 100%.
package apmd

// ChannelID names one A-PMD instance. The zero value is PMD0 and no other
// values can be constructed outside this package.
type ChannelID struct{ n uint8 }

var (
	PMD0 = ChannelID{0}
	PMD1 = ChannelID{1}
	PMD2 = ChannelID{2}
)

const numChannels = 3

// Channels lists every instance in index order.
func Channels() [numChannels]ChannelID { return [numChannels]ChannelID{PMD0, PMD1, PMD2} }

// ChannelByIndex resolves a numeric index from an outer surface (command
// line, JSON). It is the only path from an integer to a ChannelID.
func ChannelByIndex(i int) (ChannelID, bool) {
	if i < 0 || i >= numChannels {
		return ChannelID{}, false
	}
	return ChannelID{uint8(i)}, true
}

func (c ChannelID) Index() int { return int(c.n) }

func (c ChannelID) String() string {
	switch c.n {
	case 0:
		return "pmd0"
	case 1:
		return "pmd1"
	default:
		return "pmd2"
	}
}

// Phase selects one of the three output phases.
type Phase uint8

const (
	PhaseU Phase = iota
	PhaseV
	PhaseW
)

const badPhase = "apmd: phase out of range"

func (p Phase) index() int {
	if p > PhaseW {
		panic(badPhase)
	}
	return int(p)
}

func (p Phase) String() string {
	switch p {
	case PhaseU:
		return "U"
	case PhaseV:
		return "V"
	case PhaseW:
		return "W"
	}
	return "?"
}

// ParsePhase accepts "U", "V", "W" (either case).
func ParsePhase(s string) (Phase, bool) {
	if len(s) != 1 {
		return 0, false
	}
	switch s[0] {
	case 'U', 'u':
		return PhaseU, true
	case 'V', 'v':
		return PhaseV, true
	case 'W', 'w':
		return PhaseW, true
	}
	return 0, false
}

// PhaseCount is the number of active phases on a channel (0..3).
type PhaseCount uint8

func (n PhaseCount) Valid() bool { return n <= 3 }

// Path selects a hardware protection path.
type Path uint8

const (
	EMG Path = iota // over-current
	OVV             // over-voltage
)

const badPath = "apmd: protection path out of range"

func (p Path) index() int {
	if p > OVV {
		panic(badPath)
	}
	return int(p)
}

func (p Path) String() string {
	if p == OVV {
		return "ovv"
	}
	return "emg"
}

// ParsePath accepts "emg" or "ovv".
func ParsePath(s string) (Path, bool) {
	switch s {
	case "emg", "EMG":
		return EMG, true
	case "ovv", "OVV":
		return OVV, true
	}
	return 0, false
}

func (p Path) regs() (rel, cr, sta Reg) {
	if p.index() == 0 {
		return regEMGREL, regEMGCR, regEMGSTA
	}
	return regOVVREL, regOVVCR, regOVVSTA
}

// WaitFunc busy-waits for the given number of microseconds.
type WaitFunc func(us uint32)
