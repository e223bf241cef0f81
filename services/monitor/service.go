// Package monitor watches the protection latches of every configured
// channel and publishes changes on the bus.
package monitor

import (
	"context"
	"time"

	"apmd-go/bus"
	"apmd-go/drivers/apmd"
	"apmd-go/services/config"
)

// Event is the retained payload on pmd/<ch>/prot/<path>.
type Event struct {
	Ch     int
	Path   string
	Status string
	State  string
	TS     time.Time
}

// StatusTopic is where a path's latch state is published.
func StatusTopic(id apmd.ChannelID, p apmd.Path) bus.Topic {
	return bus.T("pmd", id.Index(), "prot", p.String())
}

type Service struct {
	drv         *apmd.Driver
	interval    time.Duration
	autoRelease time.Duration // 0 disables

	last      map[key]apmd.Status
	trippedAt map[key]time.Time
}

type key struct {
	ch   int
	path apmd.Path
}

func New(drv *apmd.Driver, interval time.Duration) *Service {
	if interval <= 0 {
		interval = time.Second
	}
	return &Service{
		drv:       drv,
		interval:  interval,
		last:      map[key]apmd.Status{},
		trippedAt: map[key]time.Time{},
	}
}

// Poll checks every configured channel once and publishes changes.
func (s *Service) Poll(conn *bus.Connection, now time.Time) {
	for _, id := range apmd.Channels() {
		c := s.drv.Channel(id)
		if !c.Configured() {
			continue
		}
		for _, p := range [...]apmd.Path{apmd.EMG, apmd.OVV} {
			k := key{id.Index(), p}
			st := c.Status(p)
			prev, seen := s.last[k]
			if st == apmd.StatusTripped && prev != apmd.StatusTripped {
				s.trippedAt[k] = now
			}
			if !seen || prev != st {
				s.last[k] = st
				if st == apmd.StatusTripped {
					println("[monitor]", id.String(), p.String(), "TRIPPED")
				} else if seen {
					println("[monitor]", id.String(), p.String(), "cleared")
				}
				conn.Publish(conn.NewMessage(StatusTopic(id, p), Event{
					Ch: id.Index(), Path: p.String(), Status: st.String(), State: c.State(p).String(), TS: now,
				}, true))
			}
			if st == apmd.StatusTripped && s.autoRelease > 0 && now.Sub(s.trippedAt[k]) >= s.autoRelease {
				if err := autoRelease(c, p); err != nil {
					println("[monitor]", id.String(), p.String(), "auto-release failed:", err.Error())
					s.trippedAt[k] = now
				} else {
					println("[monitor]", id.String(), p.String(), "auto-released, output left disabled")
				}
			}
		}
	}
}

// autoRelease clears a latch and puts the path back under protection with
// the config it was armed with. Output stays off; re-enabling is up to the
// operator. Paths that were never armed are not touched.
func autoRelease(c *apmd.Channel, p apmd.Path) error {
	cfg, ok := c.Armed(p)
	if !ok {
		return apmd.ErrNotConfigured
	}
	c.Disable()
	if err := c.Release(p); err != nil {
		return err
	}
	return c.Arm(p, cfg)
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(config.MonitorTopic)
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	s.Poll(conn, time.Now())
	for {
		select {
		case <-ctx.Done():
			println("Info: monitor service stopping")
			return
		case t := <-tick.C:
			s.Poll(conn, t)
		case msg := <-cfgSub.Channel():
			cfg, ok := msg.Payload.(config.Monitor)
			if !ok {
				continue
			}
			if cfg.Interval > 0 && cfg.Interval != s.interval {
				s.interval = cfg.Interval
				tick.Reset(cfg.Interval)
				println("Info: monitor interval set to", cfg.Interval.String())
			}
			s.autoRelease = cfg.AutoRelease
		}
	}
}

// Start the monitor service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
