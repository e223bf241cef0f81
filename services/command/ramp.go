package command

import (
	"time"

	"apmd-go/drivers/apmd"
	"apmd-go/errcode"
	"apmd-go/x/jsonkey"
	"apmd-go/x/ramp"
)

const (
	defaultRampSteps = 20
	maxRampMs        = 60_000
)

type rampKey struct {
	ch apmd.ChannelID
	ph apmd.Phase
}

// opRamp moves a phase's duty to "permille" over "ms" in the background.
// A new ramp or a plain duty write on the same phase stops the old one.
func (s *Service) opRamp(r request, out []byte) []byte {
	ph, ok := r.phase()
	if !ok {
		return fail(out, r.op, errcode.UnknownPhase)
	}
	pm, ok := jsonkey.Uint(r.raw, "permille")
	if !ok {
		return fail(out, r.op, errcode.InvalidParams)
	}
	ms, ok := jsonkey.Uint(r.raw, "ms")
	if (!ok && jsonkey.Has(r.raw, "ms")) || ms > maxRampMs {
		return fail(out, r.op, errcode.InvalidParams)
	}
	steps := uint32(defaultRampSteps)
	if v, ok := jsonkey.Uint(r.raw, "steps"); ok {
		if v == 0 || v > 0xFFFF {
			return fail(out, r.op, errcode.InvalidParams)
		}
		steps = v
	}

	k := rampKey{r.id, ph}
	from := s.drv.Duty(r.id, ph)
	to := apmd.DutyFromPermille(pm)
	stop := s.startRamp(k)
	go func() {
		ramp.Linear(from, to, time.Duration(ms)*time.Millisecond, uint16(steps),
			ramp.SleepTick(stop), func(v uint32) { s.rampSet(k, stop, v) })
		s.finishRamp(k, stop)
	}()
	return r.ok(out).Str("phase", ph.String()).Uint("from", from).Uint("to", to).Uint("ms", ms).Bytes()
}

// rampSet writes one ramp step unless the ramp has been stopped. Stop
// channels are closed under s.mu, so no step lands after stopRamp returns.
func (s *Service) rampSet(k rampKey, stop chan struct{}, v uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-stop:
		return
	default:
	}
	s.drv.SetDuty(k.ch, k.ph, v)
}

func (s *Service) startRamp(k rampKey) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.ramps[k]; ok {
		close(old)
	}
	c := make(chan struct{})
	s.ramps[k] = c
	return c
}

func (s *Service) finishRamp(k rampKey, c chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ramps[k] == c {
		delete(s.ramps, k)
	}
}

func (s *Service) stopRamp(k rampKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.ramps[k]; ok {
		close(c)
		delete(s.ramps, k)
	}
}

func (s *Service) stopRamps() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, c := range s.ramps {
		close(c)
		delete(s.ramps, k)
	}
}
