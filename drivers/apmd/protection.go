package apmd

import "apmd-go/x/spin"

// ProtState is the software view of a protection path.
type ProtState uint8

const (
	ProtUnconfigured ProtState = iota
	ProtArmed
	ProtTripped
	ProtReleased
)

func (s ProtState) String() string {
	switch s {
	case ProtArmed:
		return "armed"
	case ProtTripped:
		return "tripped"
	case ProtReleased:
		return "released"
	}
	return "unconfigured"
}

// Status is the latch state reported by EMGSTA/OVVSTA.
type Status uint8

const (
	StatusOK Status = iota
	StatusTripped
)

func (s Status) String() string {
	if s == StatusTripped {
		return "tripped"
	}
	return "ok"
}

// Response selects which switches are forced on a trip (EMGMD/OVVMD).
type Response uint8

const (
	ResponseNone    Response = iota // OVV: no restriction
	ResponseUpperOn                 // upper on, lower off
	ResponseLowerOn                 // upper off, lower on
	ResponseAllOff
)

// ProtectionConfig is written by Arm.
type ProtectionConfig struct {
	ActiveHigh  bool     // trip input polarity
	Response    Response // output state while tripped
	FilterCount uint8    // input noise filter, 0..31
	Inhibit     bool     // EMG: inhibit on trip (INHEN)
	ADIN0       bool     // OVV: ADC unit A comparison as trip source
	ADIN1       bool     // OVV: ADC unit B comparison as trip source
}

const (
	releaseKeyDelayUs   = 1
	releasePollAttempts = 16
)

// Arm configures and enables a protection path. PWMEN must be off.
func (c *Channel) Arm(p Path, cfg ProtectionConfig) error {
	if cfg.FilterCount > 0x1F {
		return ErrInvalidFilter
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled() {
		return ErrEnabled
	}
	_, cr, _ := p.regs()

	v := c.b.Get(cr) &^ (crEN | crISEL | crMD | crIPOL | crCNT | crADIN0 | crADIN1)
	v |= bit(cfg.ActiveHigh, crIPOL)
	v |= uint32(cfg.Response&3) << crMDShft
	v |= uint32(cfg.FilterCount) << crCNTSh
	if p == EMG {
		v |= bit(cfg.Inhibit, crINHEN)
	} else {
		v |= bit(cfg.ADIN0, crADIN0) | bit(cfg.ADIN1, crADIN1)
	}
	// Fields first with EN clear, then EN.
	c.b.Set(cr, v)
	c.b.Set(cr, v|crEN)
	c.prot[p.index()] = ProtArmed
	c.armed[p.index()] = cfg
	c.isArmed[p.index()] = true
	return nil
}

// Armed returns the config a path was last armed with. ok is false for a
// path that has never been armed since Init.
func (c *Channel) Armed(p Path) (cfg ProtectionConfig, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed[p.index()], c.isArmed[p.index()]
}

func (c *Channel) latched(p Path) bool {
	_, _, sta := p.regs()
	return c.b.Get(sta)&staLatched != 0
}

// Status reads the latch bit of a path.
func (c *Channel) Status(p Path) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.latched(p) {
		if c.prot[p.index()] == ProtArmed {
			c.prot[p.index()] = ProtTripped
		}
		return StatusTripped
	}
	return StatusOK
}

// State returns the software state of a path, refreshed from the latch.
func (c *Channel) State(p Path) ProtState {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := p.index()
	if c.prot[i] == ProtArmed && c.latched(p) {
		c.prot[i] = ProtTripped
	}
	return c.prot[i]
}

// Release clears PWMEN, then runs the unlock sequence on a path and leaves
// it disabled: key 0x5A, key 0xA5, then EN=0. The latch is re-read
// afterwards and ErrStillLatched is returned if it did not clear. Output
// stays off until the caller re-enables. Safe to repeat.
func (c *Channel) Release(p Path) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled() {
		c.b.Set(regMDEN, 0)
	}
	return c.release(p)
}

func (c *Channel) release(p Path) error {
	rel, cr, _ := p.regs()
	c.b.Set(rel, releaseKey1)
	c.wait(releaseKeyDelayUs)
	c.b.Set(rel, releaseKey2)
	update(c.b, cr, crEN, 0)

	err := spin.Until(func() bool { return !c.latched(p) }, releasePollAttempts, func() { c.wait(1) })
	if err != nil {
		println("[apmd]", c.id.String(), p.String(), "latch did not clear after release")
		return ErrStillLatched
	}
	c.prot[p.index()] = ProtReleased
	return nil
}

// disableProtection releases both paths unconditionally and deselects their
// trip inputs. A path that was never tripped passes through unchanged.
func (c *Channel) disableProtection() error {
	var first error
	for _, p := range [...]Path{EMG, OVV} {
		if err := c.release(p); err != nil && first == nil {
			first = err
		}
		_, cr, _ := p.regs()
		update(c.b, cr, crISEL, crISEL)
	}
	return first
}
