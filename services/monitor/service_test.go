package monitor

import (
	"context"
	"testing"
	"time"

	"apmd-go/bus"
	"apmd-go/drivers/apmd"
	"apmd-go/services/config"
)

type nopPlatform struct{}

func (nopPlatform) EnableClock(apmd.ClockDomain)             {}
func (nopPlatform) SetPinDirection(apmd.Pin, bool)           {}
func (nopPlatform) SetPinFunction(apmd.Pin, uint8, bool)     {}
func (nopPlatform) SetPinPullResistors(apmd.Pin, bool, bool) {}

func setup(t *testing.T) (*apmd.Driver, *apmd.Sim) {
	t.Helper()
	var blocks [3]apmd.Block
	var sims [3]*apmd.Sim
	for i := range blocks {
		sims[i] = apmd.NewSim()
		blocks[i] = sims[i]
	}
	drv := apmd.New(apmd.Config{Platform: nopPlatform{}, Blocks: blocks, Wait: func(uint32) {}})
	if err := drv.InitChannel(apmd.PMD2, 1, false); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := drv.Channel(apmd.PMD2).Arm(apmd.EMG, apmd.ProtectionConfig{Response: apmd.ResponseAllOff}); err != nil {
		t.Fatalf("arm: %v", err)
	}
	return drv, sims[2]
}

func next(t *testing.T, sub *bus.Subscription) Event {
	t.Helper()
	select {
	case m := <-sub.Channel():
		ev, ok := m.Payload.(Event)
		if !ok {
			t.Fatalf("payload %T", m.Payload)
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event")
	}
	return Event{}
}

func TestPoll_PublishesOnChangeOnly(t *testing.T) {
	drv, sim := setup(t)
	b := bus.NewBus(8)
	conn := b.NewConnection("monitor")
	sub := conn.Subscribe(StatusTopic(apmd.PMD2, apmd.EMG))

	s := New(drv, time.Second)
	now := time.Unix(100, 0)

	s.Poll(conn, now)
	if ev := next(t, sub); ev.Status != "ok" || ev.Ch != 2 || ev.Path != "emg" {
		t.Fatalf("first event %+v", ev)
	}

	s.Poll(conn, now.Add(time.Second))
	if len(sub.Channel()) != 0 {
		t.Fatal("unchanged status republished")
	}

	if !sim.Trip(apmd.EMG) {
		t.Fatal("sim did not latch")
	}
	s.Poll(conn, now.Add(2*time.Second))
	if ev := next(t, sub); ev.Status != "tripped" || ev.State != "tripped" {
		t.Fatalf("trip event %+v", ev)
	}
}

func TestPoll_SkipsUnconfiguredChannels(t *testing.T) {
	drv, _ := setup(t)
	b := bus.NewBus(8)
	conn := b.NewConnection("monitor")
	sub := conn.Subscribe(bus.T("pmd", 0, "prot", "+"))

	New(drv, 0).Poll(conn, time.Now())
	if len(sub.Channel()) != 0 {
		t.Fatal("published for an unconfigured channel")
	}
}

func TestPoll_AutoReleaseAfterHoldOff(t *testing.T) {
	drv, sim := setup(t)
	b := bus.NewBus(8)
	conn := b.NewConnection("monitor")
	c := drv.Channel(apmd.PMD2)
	if err := c.Enable(); err != nil {
		t.Fatalf("enable: %v", err)
	}

	s := New(drv, time.Second)
	s.autoRelease = 5 * time.Second
	now := time.Unix(100, 0)

	sim.Trip(apmd.EMG)
	s.Poll(conn, now)
	s.Poll(conn, now.Add(time.Second))
	if !sim.Latched(apmd.EMG) {
		t.Fatal("released before hold-off")
	}
	s.Poll(conn, now.Add(6*time.Second))
	if sim.Latched(apmd.EMG) {
		t.Fatal("not released after hold-off")
	}
	if sim.Output() || c.Enabled() {
		t.Fatal("output resumed after auto-release")
	}
	if st := c.State(apmd.EMG); st != apmd.ProtArmed {
		t.Fatalf("state=%v want armed", st)
	}

	// The path is armed again: a second event latches.
	if err := c.Enable(); err != nil {
		t.Fatalf("re-enable: %v", err)
	}
	if !sim.Trip(apmd.EMG) || sim.Output() {
		t.Fatal("second trip not caught")
	}
}

func TestService_ConfigChangesInterval(t *testing.T) {
	drv, _ := setup(t)
	b := bus.NewBus(8)
	conn := b.NewConnection("monitor")
	cfg := b.NewConnection("config")
	cfg.Publish(cfg.NewMessage(config.MonitorTopic, config.Monitor{Interval: 10 * time.Millisecond}, true))

	sub := cfg.Subscribe(StatusTopic(apmd.PMD2, apmd.OVV))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := New(drv, time.Hour)
	s.Start(ctx, conn)

	if ev := next(t, sub); ev.Path != "ovv" {
		t.Fatalf("event %+v", ev)
	}
}
