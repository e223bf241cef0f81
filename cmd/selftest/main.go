// Command selftest runs the drive and bus checks on the target against
// simulated PMD blocks and reports over println. It builds for host and
// TinyGo alike.
package main

import (
	"context"
	"time"

	"apmd-go/bus"
	"apmd-go/drivers/apmd"
	"apmd-go/internal/platform"
	"apmd-go/services/command"
	"apmd-go/x/jsonkey"
)

type nopGPIO struct{}

func (nopGPIO) EnableClock(apmd.ClockDomain)             {}
func (nopGPIO) SetPinDirection(apmd.Pin, bool)           {}
func (nopGPIO) SetPinFunction(apmd.Pin, uint8, bool)     {}
func (nopGPIO) SetPinPullResistors(apmd.Pin, bool, bool) {}

func newDrive() (*apmd.Driver, [3]*apmd.Sim) {
	var sims [3]*apmd.Sim
	var blocks [3]apmd.Block
	for i := range sims {
		sims[i] = apmd.NewSim()
		blocks[i] = sims[i]
	}
	return apmd.New(apmd.Config{Platform: nopGPIO{}, Blocks: blocks, Wait: func(uint32) {}}), sims
}

func fail(name, why string) bool {
	println("[selftest]", name+":", why)
	return false
}

// --- checks -------------------------------------------------------------------

func checkInitClearsResetLatch() bool {
	drv, sims := newDrive()
	sims[0].Trip(apmd.EMG)
	if err := drv.InitChannel(apmd.PMD0, 2, true); err != nil {
		return fail("InitClearsResetLatch", err.Error())
	}
	if sims[0].Latched(apmd.EMG) {
		return fail("InitClearsResetLatch", "latch survived init")
	}
	return true
}

func checkTripBlocksOutput() bool {
	drv, sims := newDrive()
	ch := drv.Channel(apmd.PMD2)
	if err := ch.Init(1, false); err != nil {
		return fail("TripBlocksOutput", err.Error())
	}
	if err := ch.Arm(apmd.OVV, apmd.ProtectionConfig{Response: apmd.ResponseAllOff}); err != nil {
		return fail("TripBlocksOutput", err.Error())
	}
	if err := ch.Enable(); err != nil {
		return fail("TripBlocksOutput", err.Error())
	}
	sims[2].Trip(apmd.OVV)
	if sims[2].Output() {
		return fail("TripBlocksOutput", "output active after trip")
	}
	if drv.ProtectionStatus(apmd.PMD2, apmd.OVV) != apmd.StatusTripped {
		return fail("TripBlocksOutput", "status not tripped")
	}
	if err := drv.ReleaseProtection(apmd.PMD2, apmd.OVV); err != nil {
		return fail("TripBlocksOutput", err.Error())
	}
	if sims[2].Output() {
		return fail("TripBlocksOutput", "output resumed without enable")
	}
	if err := ch.Enable(); err != nil {
		return fail("TripBlocksOutput", err.Error())
	}
	if !sims[2].Output() {
		return fail("TripBlocksOutput", "output not restored after release and enable")
	}
	return true
}

func checkDutyRoundTrip() bool {
	drv, _ := newDrive()
	for _, v := range []uint32{0, 1, 0x4000, 0x8000} {
		drv.SetDuty(apmd.PMD1, apmd.PhaseV, v)
		if got := drv.Duty(apmd.PMD1, apmd.PhaseV); got != v {
			return fail("DutyRoundTrip", "readback mismatch")
		}
	}
	return true
}

func checkCommandOverBus() bool {
	drv, _ := newDrive()
	b := bus.NewBus(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	command.New(drv, 160_000_000).Start(ctx, b.NewConnection("command"), nil)
	time.Sleep(20 * time.Millisecond)

	cli := b.NewConnection("selftest")
	rctx, rcancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer rcancel()
	reply, err := cli.RequestWait(rctx, cli.NewMessage(command.TopicRequest, []byte(`{"op":"hz","ch":0,"value":20000}`), false))
	if err != nil {
		return fail("CommandOverBus", err.Error())
	}
	raw, _ := reply.Payload.([]byte)
	if rate, _ := jsonkey.Uint(raw, "rate"); rate != 2097 {
		return fail("CommandOverBus", "bad reply "+string(raw))
	}
	return true
}

func main() {
	time.Sleep(platform.BootDelay)
	println("[selftest] start")

	checks := []struct {
		name string
		fn   func() bool
	}{
		{"InitClearsResetLatch", checkInitClearsResetLatch},
		{"TripBlocksOutput", checkTripBlocksOutput},
		{"DutyRoundTrip", checkDutyRoundTrip},
		{"CommandOverBus", checkCommandOverBus},
	}
	passed := 0
	for _, c := range checks {
		if c.fn() {
			passed++
			println("[selftest] PASS", c.name)
		} else {
			println("[selftest] FAIL", c.name)
		}
	}
	println("[selftest] done:", passed, "/", len(checks))
	for {
		time.Sleep(time.Hour)
	}
}
