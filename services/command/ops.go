package command

import (
	"apmd-go/drivers/apmd"
	"apmd-go/errcode"
	"apmd-go/x/jsonkey"
)

func (r request) phase() (apmd.Phase, bool) {
	s, ok := jsonkey.String(r.raw, "phase")
	if !ok {
		return 0, false
	}
	return apmd.ParsePhase(s)
}

func (r request) path() (apmd.Path, bool) {
	s, ok := jsonkey.String(r.raw, "path")
	if !ok {
		return 0, false
	}
	return apmd.ParsePath(s)
}

func (s *Service) opInit(r request, out []byte) []byte {
	n, ok := jsonkey.Uint(r.raw, "phases")
	if !ok {
		return fail(out, r.op, errcode.InvalidParams)
	}
	comp, _ := jsonkey.Bool(r.raw, "comp")
	if n > 3 {
		return fail(out, r.op, errcode.InvalidPhaseCount)
	}
	if err := s.drv.InitChannel(r.id, apmd.PhaseCount(n), comp); err != nil {
		return fail(out, r.op, errcode.Of(err))
	}
	return r.ok(out).Uint("phases", n).Bool("comp", comp).Bytes()
}

// opDuty accepts either "value" (raw compare, 0x8000 = 100%) or "permille".
func (s *Service) opDuty(r request, out []byte) []byte {
	ph, ok := r.phase()
	if !ok {
		return fail(out, r.op, errcode.UnknownPhase)
	}
	if v, ok := jsonkey.Uint(r.raw, "value"); ok {
		s.stopRamp(rampKey{r.id, ph})
		s.drv.SetDuty(r.id, ph, v)
	} else if pm, ok := jsonkey.Uint(r.raw, "permille"); ok {
		s.stopRamp(rampKey{r.id, ph})
		s.drv.Channel(r.id).SetDutyPermille(ph, pm)
	} else {
		return fail(out, r.op, errcode.InvalidParams)
	}
	v := s.drv.Duty(r.id, ph)
	return r.ok(out).Str("phase", ph.String()).Uint("value", v).Uint("permille", apmd.DutyPermille(v)).Bytes()
}

func (s *Service) opFreq(r request, out []byte) []byte {
	rate, ok := jsonkey.Uint(r.raw, "value")
	if !ok {
		return fail(out, r.op, errcode.InvalidParams)
	}
	s.drv.SetCarrierFrequency(r.id, rate)
	return s.rateReply(r, out)
}

func (s *Service) opHz(r request, out []byte) []byte {
	hz, ok := jsonkey.Uint(r.raw, "value")
	if !ok || hz == 0 {
		return fail(out, r.op, errcode.InvalidParams)
	}
	if s.sysclk == 0 {
		return fail(out, r.op, errcode.Unsupported)
	}
	s.drv.SetCarrierFrequency(r.id, apmd.RateForHz(s.sysclk, hz))
	return s.rateReply(r, out)
}

func (s *Service) rateReply(r request, out []byte) []byte {
	rate := s.drv.CarrierFrequency(r.id)
	w := r.ok(out).Uint("rate", rate)
	if s.sysclk != 0 {
		w.Uint("hz", apmd.FrequencyHz(s.sysclk, rate))
	}
	return w.Bytes()
}

// opDeadTime accepts "ticks" or, with a known sysclk, "ns".
func (s *Service) opDeadTime(r request, out []byte) []byte {
	ticks, ok := jsonkey.Uint(r.raw, "ticks")
	if !ok {
		ns, nok := jsonkey.Uint(r.raw, "ns")
		if !nok || s.sysclk == 0 {
			return fail(out, r.op, errcode.InvalidParams)
		}
		ticks = apmd.DeadTimeTicks(s.sysclk, ns)
	}
	if err := s.drv.Channel(r.id).SetDeadTime(ticks); err != nil {
		return fail(out, r.op, errcode.Of(err))
	}
	return r.ok(out).Uint("ticks", ticks).Bytes()
}

func (s *Service) opEnable(r request, out []byte) []byte {
	if err := s.drv.Channel(r.id).Enable(); err != nil {
		return fail(out, r.op, errcode.Of(err))
	}
	return r.ok(out).Bool("enabled", true).Bytes()
}

func (s *Service) opDisable(r request, out []byte) []byte {
	s.drv.Channel(r.id).Disable()
	return r.ok(out).Bool("enabled", false).Bytes()
}

func (s *Service) opStatus(r request, out []byte) []byte {
	c := s.drv.Channel(r.id)
	n, comp := c.PhaseCount()
	w := r.ok(out).
		Bool("configured", c.Configured()).
		Bool("enabled", c.Enabled()).
		Uint("phases", uint32(n)).
		Bool("comp", comp)
	for _, p := range [...]apmd.Path{apmd.EMG, apmd.OVV} {
		w.Str(p.String(), c.Status(p).String())
		w.Str(p.String()+"_state", c.State(p).String())
	}
	rate := c.CarrierFrequency()
	w.Uint("rate", rate)
	if s.sysclk != 0 {
		w.Uint("hz", apmd.FrequencyHz(s.sysclk, rate))
	}
	for _, ph := range [...]apmd.Phase{apmd.PhaseU, apmd.PhaseV, apmd.PhaseW} {
		w.Uint("duty_"+ph.String(), c.Duty(ph))
	}
	return w.Uint("deadtime", c.DeadTime()).Bytes()
}

func (s *Service) opArm(r request, out []byte) []byte {
	p, ok := r.path()
	if !ok {
		return fail(out, r.op, errcode.UnknownPath)
	}
	var cfg apmd.ProtectionConfig
	cfg.ActiveHigh, _ = jsonkey.Bool(r.raw, "active_high")
	cfg.Inhibit, _ = jsonkey.Bool(r.raw, "inhibit")
	cfg.ADIN0, _ = jsonkey.Bool(r.raw, "adin0")
	cfg.ADIN1, _ = jsonkey.Bool(r.raw, "adin1")
	if v, ok := jsonkey.Uint(r.raw, "response"); ok {
		if v > uint32(apmd.ResponseAllOff) {
			return fail(out, r.op, errcode.InvalidParams)
		}
		cfg.Response = apmd.Response(v)
	} else {
		cfg.Response = apmd.ResponseAllOff
	}
	if v, ok := jsonkey.Uint(r.raw, "filter"); ok {
		if v > 0xFF {
			return fail(out, r.op, errcode.InvalidFilter)
		}
		cfg.FilterCount = uint8(v)
	}
	if err := s.drv.Channel(r.id).Arm(p, cfg); err != nil {
		return fail(out, r.op, errcode.Of(err))
	}
	return r.ok(out).Str("path", p.String()).Str("state", s.drv.Channel(r.id).State(p).String()).Bytes()
}

func (s *Service) opRelease(r request, out []byte) []byte {
	p, ok := r.path()
	if !ok {
		return fail(out, r.op, errcode.UnknownPath)
	}
	if err := s.drv.ReleaseProtection(r.id, p); err != nil {
		return fail(out, r.op, errcode.Of(err))
	}
	return r.ok(out).Str("path", p.String()).Str("status", s.drv.ProtectionStatus(r.id, p).String()).Bytes()
}

func (s *Service) opRegs(r request, out []byte) []byte {
	snap := s.drv.Channel(r.id).Snapshot()
	w := r.ok(out)
	snap.Each(func(name string, v uint32) { w.Uint(name, v) })
	return w.Bytes()
}
