package apmd

import "apmd-go/x/mathx"

func cmpReg(p Phase) Reg {
	return regCMPU + Reg(4*p.index())
}

// SetCarrierFrequency writes RATE unchanged. Safe while enabled.
func (c *Channel) SetCarrierFrequency(rate uint32) {
	c.mu.Lock()
	c.b.Set(regRATE, rate)
	c.mu.Unlock()
}

// CarrierFrequency reads RATE.
func (c *Channel) CarrierFrequency() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.b.Get(regRATE)
}

// SetDuty writes the compare register of a phase. Safe while enabled; the
// value takes effect at the next carrier centre. Panics on an invalid phase.
func (c *Channel) SetDuty(p Phase, v uint32) {
	r := cmpReg(p)
	c.mu.Lock()
	c.b.Set(r, v)
	c.mu.Unlock()
}

// Duty reads the compare register of a phase.
func (c *Channel) Duty(p Phase) uint32 {
	r := cmpReg(p)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.b.Get(r)
}

// SetDutyPermille sets duty in 0.1% steps, clamped to 0..1000.
func (c *Channel) SetDutyPermille(p Phase, pm uint32) {
	c.SetDuty(p, DutyFromPermille(pm))
}

// DutyFromPermille converts 0..1000 to the compare encoding (clamped).
func DutyFromPermille(pm uint32) uint32 {
	pm = mathx.Clamp(pm, 0, 1000)
	return mathx.RoundDiv(pm*DutyFull, 1000)
}

// DutyPermille converts a compare value back to 0.1% steps.
func DutyPermille(v uint32) uint32 {
	return uint32(mathx.RoundDiv(uint64(v)*1000, uint64(DutyFull)))
}

// FrequencyHz returns the carrier frequency for a RATE value.
func FrequencyHz(sysclkHz, rate uint32) uint32 {
	return uint32(uint64(sysclkHz) * uint64(rate) >> rateShift)
}

// RateForHz returns the RATE value closest to hz (saturating at 2^32-1).
func RateForHz(sysclkHz, hz uint32) uint32 {
	if sysclkHz == 0 {
		return 0
	}
	r := mathx.RoundDiv(uint64(hz)<<rateShift, uint64(sysclkHz))
	return uint32(mathx.Min(r, uint64(^uint32(0))))
}

// DeadTimeTicks converts nanoseconds to DTR ticks (DT = DTR * 4 / fsys).
func DeadTimeTicks(sysclkHz, ns uint32) uint32 {
	return uint32(mathx.RoundDiv(uint64(ns)*uint64(sysclkHz), 4_000_000_000))
}
