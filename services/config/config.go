package config

import (
	"context"
	"errors"
	"strconv"
	"time"

	"apmd-go/bus"
	"apmd-go/drivers/apmd"
	"apmd-go/x/jsonkey"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key used for device ID
)

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// Monitor is published on config/monitor.
type Monitor struct {
	Interval    time.Duration
	AutoRelease time.Duration // 0 disables
}

// Arm is one protection path to arm on a channel.
type Arm struct {
	Path apmd.Path
	Cfg  apmd.ProtectionConfig
}

// Channel is published on config/pmd/<ch>. Zero fields are left at their
// reset values.
type Channel struct {
	ID       apmd.ChannelID
	Rate     uint32
	DeadTime uint32 // ticks
	Duty     uint32 // permille, applied to every active phase
	Arm      []Arm
	Enable   bool
}

// MonitorTopic and ChannelTopic are the retained topics for typed sections.
var MonitorTopic = bus.T(configPrefix, "monitor")

func ChannelTopic(id apmd.ChannelID) bus.Topic {
	return bus.T(configPrefix, "pmd", id.Index())
}

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// publishConfig reads the device config from embedded data and publishes
// each top-level key as a retained message. "monitor" and "pmd" are decoded
// into typed payloads; other keys carry their raw JSON.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return errors.New("missing device ID in context")
	}

	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return errors.New("no embedded config for device: " + device)
	}
	if !jsonkey.Object(raw) {
		return errors.New("embedded config is not a JSON object")
	}

	for _, k := range jsonkey.Keys(raw) {
		v, _ := jsonkey.Raw(raw, k)
		switch k {
		case "monitor":
			conn.Publish(conn.NewMessage(MonitorTopic, ParseMonitor(v), true))
		case "pmd":
			chans, err := ParseChannels(v)
			if err != nil {
				return err
			}
			for _, c := range chans {
				conn.Publish(conn.NewMessage(ChannelTopic(c.ID), c, true))
			}
		default:
			conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
		}
	}
	return nil
}

// ParseMonitor decodes {"interval_ms":N,"auto_release_ms":N}.
func ParseMonitor(raw []byte) Monitor {
	var m Monitor
	if v, ok := jsonkey.Uint(raw, "interval_ms"); ok {
		m.Interval = time.Duration(v) * time.Millisecond
	}
	if v, ok := jsonkey.Uint(raw, "auto_release_ms"); ok {
		m.AutoRelease = time.Duration(v) * time.Millisecond
	}
	return m
}

// ParseChannels decodes an object keyed by channel index.
func ParseChannels(raw []byte) ([]Channel, error) {
	var out []Channel
	for _, k := range jsonkey.Keys(raw) {
		n, err := strconv.Atoi(k)
		if err != nil {
			return nil, errors.New("pmd: bad channel key " + strconv.Quote(k))
		}
		id, ok := apmd.ChannelByIndex(n)
		if !ok {
			return nil, errors.New("pmd: no channel " + k)
		}
		v, _ := jsonkey.Raw(raw, k)
		c, err := parseChannel(id, v)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// optUint reads an optional unsigned field. A missing key is 0; a key that
// is present but not a non-negative integer is an error.
func optUint(id apmd.ChannelID, raw []byte, key string) (uint32, error) {
	v, ok := jsonkey.Uint(raw, key)
	if !ok && jsonkey.Has(raw, key) {
		return 0, errors.New("pmd" + strconv.Itoa(id.Index()) + ": bad " + key)
	}
	return v, nil
}

func parseChannel(id apmd.ChannelID, raw []byte) (Channel, error) {
	c := Channel{ID: id}
	var err error
	if c.Rate, err = optUint(id, raw, "rate"); err != nil {
		return c, err
	}
	if c.DeadTime, err = optUint(id, raw, "deadtime"); err != nil {
		return c, err
	}
	if c.Duty, err = optUint(id, raw, "duty"); err != nil {
		return c, err
	}
	c.Enable, _ = jsonkey.Bool(raw, "enable")
	for _, p := range [...]apmd.Path{apmd.EMG, apmd.OVV} {
		v, ok := jsonkey.Raw(raw, p.String())
		if !ok {
			continue
		}
		a := Arm{Path: p}
		a.Cfg.ActiveHigh, _ = jsonkey.Bool(v, "active_high")
		a.Cfg.Inhibit, _ = jsonkey.Bool(v, "inhibit")
		a.Cfg.ADIN0, _ = jsonkey.Bool(v, "adin0")
		a.Cfg.ADIN1, _ = jsonkey.Bool(v, "adin1")
		a.Cfg.Response = apmd.ResponseAllOff
		if r, ok := jsonkey.Uint(v, "response"); ok {
			if r > uint32(apmd.ResponseAllOff) {
				return c, errors.New("pmd" + strconv.Itoa(id.Index()) + ": bad response")
			}
			a.Cfg.Response = apmd.Response(r)
		}
		if f, ok := jsonkey.Uint(v, "filter"); ok {
			if f > 0x1F {
				return c, apmd.ErrInvalidFilter
			}
			a.Cfg.FilterCount = uint8(f)
		}
		c.Arm = append(c.Arm, a)
	}
	return c, nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			println("[config]", err.Error())
		}
	}()
}
