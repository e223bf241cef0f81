// Package app wires the firmware together: board, bus, config, driver and
// services.
package app

import (
	"context"

	"apmd-go/bus"
	"apmd-go/drivers/apmd"
	"apmd-go/errcode"
	"apmd-go/internal/platform"
	"apmd-go/internal/setups"
	"apmd-go/services/command"
	"apmd-go/services/config"
	"apmd-go/services/link"
	"apmd-go/services/monitor"
	"apmd-go/x/conv"
	"apmd-go/x/strx"
)

// App is a running firmware instance.
type App struct {
	Bus    *bus.Bus
	Driver *apmd.Driver
	Link   *link.Link
	plan   setups.Plan
}

// New binds every planned channel. A channel whose protection latch
// did not clear stays configured but cannot be enabled; the error is
// logged and bring-up continues.
func New(b *platform.Board, plan setups.Plan) *App {
	a := &App{
		Bus:    bus.NewBus(8),
		Driver: apmd.New(b.DriverConfig()),
		plan:   plan,
	}
	for _, c := range plan.Channels {
		if err := a.Driver.InitChannel(c.ID, c.Phases, c.Complement); err != nil {
			println("[app]", c.ID.String(), "init:", err.Error())
			dumpRegisters(a.Driver.Channel(c.ID))
		}
	}
	if b.Console != nil {
		a.Link = link.New(b.Console, link.Config{})
	}
	return a
}

// Apply writes one channel's runtime config. A zero rate or dead time is
// not written. Errors stop at the first failing step.
func (a *App) Apply(cfg config.Channel) error {
	ch := a.Driver.Channel(cfg.ID)
	if !ch.Configured() {
		return applyErr(cfg.ID, "apply", apmd.ErrNotConfigured)
	}
	if cfg.Rate != 0 {
		ch.SetCarrierFrequency(cfg.Rate)
	}
	if cfg.DeadTime != 0 {
		if err := ch.SetDeadTime(cfg.DeadTime); err != nil {
			return applyErr(cfg.ID, "deadtime", err)
		}
	}
	n, _ := ch.PhaseCount()
	for i := 0; i < int(n); i++ {
		ch.SetDutyPermille(apmd.Phase(i), cfg.Duty)
	}
	for _, arm := range cfg.Arm {
		if err := ch.Arm(arm.Path, arm.Cfg); err != nil {
			return applyErr(cfg.ID, "arm "+arm.Path.String(), err)
		}
	}
	if cfg.Enable {
		if err := ch.Enable(); err != nil {
			return applyErr(cfg.ID, "enable", err)
		}
	}
	return nil
}

func applyErr(id apmd.ChannelID, op string, err error) error {
	return &errcode.E{C: errcode.Of(err), Op: op, Msg: id.String() + " " + op, Err: err}
}

func (a *App) applyLoop(ctx context.Context, conn *bus.Connection) {
	sub := conn.Subscribe(bus.T("config", "pmd", "+"))
	defer conn.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-sub.Channel():
			cfg, ok := msg.Payload.(config.Channel)
			if !ok {
				continue
			}
			if a.plan.Channel(cfg.ID).Phases == 0 {
				println("[app]", cfg.ID.String(), "config ignored: channel not in plan")
				continue
			}
			if err := a.Apply(cfg); err != nil {
				println("[app]", cfg.ID.String(), "apply:", err.Error())
				continue
			}
			println("Info:", cfg.ID.String(), "config applied")
		}
	}
}

// Start runs the config, monitor and command services. linkBuf is the
// caller-owned receive buffer for the console link.
func (a *App) Start(ctx context.Context, linkBuf []byte) {
	go a.applyLoop(ctx, a.Bus.NewConnection("app"))
	device := strx.Coalesce(a.plan.Device, a.plan.Name)
	config.NewConfigService().Start(context.WithValue(ctx, config.CtxDeviceKey, device), a.Bus.NewConnection("config"))
	monitor.New(a.Driver, 0).Start(ctx, a.Bus.NewConnection("monitor"))
	command.New(a.Driver, a.plan.SysclkHz).Start(ctx, a.Bus.NewConnection("command"), a.Link)
	if a.Link != nil {
		go a.Link.Run(ctx, linkBuf)
	}
}

// dumpRegisters logs the channel's registers, one per line.
func dumpRegisters(ch *apmd.Channel) {
	snap := ch.Snapshot()
	line := make([]byte, 0, 48)
	snap.Each(func(name string, v uint32) {
		line = conv.RegLine(append(line[:0], "[app] "+ch.ID().String()+" "...), name, v)
		println(string(line))
	})
}
