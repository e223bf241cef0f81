package apmd

import "sync"

// Sim is an in-memory A-PMD block for host builds and tests.
//
// It models the parts of the peripheral that carry sequencing rules:
//   - STA registers are read-only latch bits set by Trip.
//   - EN in EMGCR/OVVCR can only be cleared after the key pair 0x5A, 0xA5
//     has been written to the matching release register. Clearing EN after
//     the keys clears the latch.
//   - a latched path forces the output off regardless of MDEN.
type Sim struct {
	mu       sync.Mutex
	regs     [blockSize / 4]uint32
	lastKey  [2]uint32
	unlocked [2]bool
	latched  [2]bool
	held     [2]bool
	log      []Write
}

// Write is one register write observed by a Sim.
type Write struct {
	Reg Reg
	Val uint32
}

// NewSim returns a block in its reset state: EMG armed with its input
// enabled, OVV disabled.
func NewSim() *Sim {
	s := &Sim{}
	s.regs[regEMGCR/4] = crEN
	return s
}

func (s *Sim) Get(r Reg) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch r {
	case regEMGSTA:
		return bit(s.latched[0], staLatched)
	case regOVVSTA:
		return bit(s.latched[1], staLatched)
	}
	return s.regs[r/4]
}

func (s *Sim) Set(r Reg, v uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, Write{Reg: r, Val: v})

	switch r {
	case regEMGSTA, regOVVSTA, regCARSTA, regBCARI:
		return
	case regEMGREL:
		s.key(0, v)
	case regOVVREL:
		s.key(1, v)
	case regEMGCR:
		v = s.control(0, v)
	case regOVVCR:
		v = s.control(1, v)
	}
	s.regs[r/4] = v
}

func (s *Sim) key(p int, v uint32) {
	s.unlocked[p] = s.lastKey[p] == releaseKey1 && v == releaseKey2
	s.lastKey[p] = v
}

// control applies the EN lock rules and returns the value actually stored.
func (s *Sim) control(p int, v uint32) uint32 {
	old := s.regs[s.crReg(p)/4]
	if old&crEN != 0 && v&crEN == 0 {
		if !s.unlocked[p] {
			v |= crEN
		} else {
			s.latched[p] = false
		}
	}
	s.unlocked[p] = false
	s.lastKey[p] = 0
	if v&crEN != 0 && s.held[p] && v&crISEL == 0 {
		s.latched[p] = true
	}
	return v
}

func (s *Sim) crReg(p int) Reg {
	if p == 0 {
		return regEMGCR
	}
	return regOVVCR
}

// Trip raises the trip input of a path for one event. It latches only when
// the path is enabled with its input selected. Reports whether it latched.
func (s *Sim) Trip(p Path) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := p.index()
	cr := s.regs[s.crReg(i)/4]
	if cr&crEN == 0 || cr&crISEL != 0 {
		return false
	}
	s.latched[i] = true
	return true
}

// Hold keeps a trip input asserted (or releases it). While held, arming the
// path latches immediately.
func (s *Sim) Hold(p Path, on bool) {
	s.mu.Lock()
	i := p.index()
	s.held[i] = on
	s.mu.Unlock()
	if on {
		s.Trip(p)
	}
}

// Latched reports the latch state of a path.
func (s *Sim) Latched(p Path) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latched[p.index()]
}

// Output reports whether PWM reaches the pins: PWMEN set and no latch.
func (s *Sim) Output() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[regMDEN/4]&mdenPWMEN != 0 && !s.latched[0] && !s.latched[1]
}

// Writes returns a copy of the write log.
func (s *Sim) Writes() []Write {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Write(nil), s.log...)
}

// ResetLog clears the write log.
func (s *Sim) ResetLog() {
	s.mu.Lock()
	s.log = s.log[:0]
	s.mu.Unlock()
}
