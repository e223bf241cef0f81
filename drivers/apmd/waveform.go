package apmd

// Carrier is the PWM carrier shape of one phase.
type Carrier uint8

const (
	CarrierSawtooth Carrier = iota
	CarrierTriangle
	CarrierSawtoothReverse
	CarrierTriangleReverse
)

// UpdateTiming selects when a buffered register takes effect.
type UpdateTiming uint8

const (
	UpdateImmediate UpdateTiming = iota
	UpdateCenter
	UpdateEnd
	UpdateCenterEnd
)

// SyncSource selects the trigger that synchronises the output buffer.
type SyncSource uint8

const (
	SyncNone SyncSource = iota
	SyncEncoder
	SyncGeneralTimer
	SyncMCMP
)

// Waveform holds the MDCR/MDOUT/MDPOT settings.
type Waveform struct {
	Carrier            [3]Carrier // indexed by Phase
	IndependentDuty    bool
	DutyUpdate         UpdateTiming // MDCR.DSYNCS
	DeadTimeCorrection bool
	UpperActiveHigh    bool
	LowerActiveHigh    bool
	OutputUpdate       UpdateTiming // MDPOT.PSYNCS
	Sync               SyncSource
}

// DefaultWaveform is the centre-aligned configuration used at init:
// triangle carrier on every phase, independent duty, duty buffers updated
// at carrier centre, dead-time correction on, both switches active high,
// output buffer updated at carrier end from the general-purpose timer.
func DefaultWaveform() Waveform {
	return Waveform{
		Carrier:            [3]Carrier{CarrierTriangle, CarrierTriangle, CarrierTriangle},
		IndependentDuty:    true,
		DutyUpdate:         UpdateCenter,
		DeadTimeCorrection: true,
		UpperActiveHigh:    true,
		LowerActiveHigh:    true,
		OutputUpdate:       UpdateEnd,
		Sync:               SyncGeneralTimer,
	}
}

// ConfigureWaveform programs w. Returns ErrEnabled while PWMEN is set.
func (c *Channel) ConfigureWaveform(w Waveform) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.configureWaveform(w)
}

func (c *Channel) configureWaveform(w Waveform) error {
	if c.enabled() {
		return ErrEnabled
	}

	var mdcr uint32
	mdcr |= bit(w.IndependentDuty, mdcrDTYMD)
	mdcr |= bit(w.DeadTimeCorrection, mdcrDTCREN)
	mdcr |= uint32(w.DutyUpdate&3) << mdcrDSYNCSShift
	for ph, cr := range w.Carrier {
		mdcr |= uint32(cr&3) << (mdcrPWMMDShift + 2*ph)
	}
	update(c.b, regMDCR, mdcrDTYMD|mdcrDTCREN|mdcrDSYNCS|mdcrUPWMMD|mdcrVPWMMD|mdcrWPWMMD, mdcr)

	pwm := uint32(mdoutUPWM | mdoutVPWM | mdoutWPWM)
	update(c.b, regMDOUT, pwm, pwm)

	var pot uint32
	pot |= bit(w.UpperActiveHigh, mdpotPOLH)
	pot |= bit(w.LowerActiveHigh, mdpotPOLL)
	pot |= uint32(w.OutputUpdate & 3)
	pot |= uint32(w.Sync&3) << mdpotSYNCSShift
	update(c.b, regMDPOT, mdpotPSYNCS|mdpotPOLL|mdpotPOLH|mdpotSYNCS, pot)
	return nil
}

// Waveform decodes the current MDCR/MDPOT settings.
func (c *Channel) Waveform() Waveform {
	c.mu.Lock()
	defer c.mu.Unlock()
	mdcr := c.b.Get(regMDCR)
	pot := c.b.Get(regMDPOT)
	var w Waveform
	for ph := range w.Carrier {
		w.Carrier[ph] = Carrier(mdcr >> (mdcrPWMMDShift + 2*ph) & 3)
	}
	w.IndependentDuty = mdcr&mdcrDTYMD != 0
	w.DeadTimeCorrection = mdcr&mdcrDTCREN != 0
	w.DutyUpdate = UpdateTiming(mdcr >> mdcrDSYNCSShift & 3)
	w.UpperActiveHigh = pot&mdpotPOLH != 0
	w.LowerActiveHigh = pot&mdpotPOLL != 0
	w.OutputUpdate = UpdateTiming(pot & mdpotPSYNCS)
	w.Sync = SyncSource(pot >> mdpotSYNCSShift & 3)
	return w
}

// SetDeadTime writes DTR. Returns ErrEnabled while PWMEN is set.
func (c *Channel) SetDeadTime(ticks uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled() {
		return ErrEnabled
	}
	c.b.Set(regDTR, ticks)
	return nil
}

// DeadTime reads DTR.
func (c *Channel) DeadTime() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.b.Get(regDTR)
}
