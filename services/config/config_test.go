package config

import (
	"context"
	"testing"
	"time"

	"apmd-go/bus"
	"apmd-go/drivers/apmd"
)

func withLookup(t *testing.T, doc string) {
	t.Helper()
	old := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(device string) ([]byte, bool) {
		if device != "test" {
			return nil, false
		}
		return []byte(doc), true
	}
	t.Cleanup(func() { EmbeddedConfigLookup = old })
}

func TestConfig_PublishEmbedded_RetainedPerKey(t *testing.T) {
	withLookup(t, `{
		"mode": "dev",
		"monitor": {"interval_ms": 50, "auto_release_ms": 2000},
		"pmd": {
			"0": {"rate": 2097, "deadtime": 40, "emg": {"filter": 3, "active_high": true}},
			"2": {"duty": 500}
		}
	}`)

	b := bus.NewBus(16)
	conn := b.NewConnection("test-config")
	ctx := context.WithValue(context.Background(), CtxDeviceKey, "test")
	if err := NewConfigService().publishConfig(ctx, conn); err != nil {
		t.Fatalf("publish: %v", err)
	}

	// Retained messages arrive on subscribe.
	sub := conn.Subscribe(bus.T(configPrefix, "#"))
	got := map[string]any{}
	deadline := time.After(time.Second)
	for len(got) < 4 {
		select {
		case m := <-sub.Channel():
			key := m.Topic[1].(string)
			if key == "pmd" {
				key += "/" + string(rune('0'+m.Topic[2].(int)))
			}
			got[key] = m.Payload
		case <-deadline:
			t.Fatalf("got %d retained messages: %v", len(got), got)
		}
	}

	if raw, ok := got["mode"].([]byte); !ok || string(raw) != `"dev"` {
		t.Fatalf("mode=%#v", got["mode"])
	}
	mon, ok := got["monitor"].(Monitor)
	if !ok || mon.Interval != 50*time.Millisecond || mon.AutoRelease != 2*time.Second {
		t.Fatalf("monitor=%#v", got["monitor"])
	}
	c0, ok := got["pmd/0"].(Channel)
	if !ok || c0.ID != apmd.PMD0 || c0.Rate != 2097 || c0.DeadTime != 40 {
		t.Fatalf("pmd/0=%#v", got["pmd/0"])
	}
	if len(c0.Arm) != 1 || c0.Arm[0].Path != apmd.EMG || c0.Arm[0].Cfg.FilterCount != 3 ||
		!c0.Arm[0].Cfg.ActiveHigh || c0.Arm[0].Cfg.Response != apmd.ResponseAllOff {
		t.Fatalf("pmd/0 arm=%#v", c0.Arm)
	}
	if c2, ok := got["pmd/2"].(Channel); !ok || c2.Duty != 500 || len(c2.Arm) != 0 {
		t.Fatalf("pmd/2=%#v", got["pmd/2"])
	}
}

func TestConfig_Errors(t *testing.T) {
	cases := []struct {
		name, device, doc string
	}{
		{"no device", "", `{}`},
		{"unknown device", "other", `{}`},
		{"not an object", "test", `[1]`},
		{"bad channel key", "test", `{"pmd":{"x":{}}}`},
		{"channel out of range", "test", `{"pmd":{"5":{}}}`},
		{"filter too large", "test", `{"pmd":{"0":{"ovv":{"filter":99}}}}`},
		{"bad response", "test", `{"pmd":{"0":{"ovv":{"response":9}}}}`},
		{"fractional rate", "test", `{"pmd":{"0":{"rate":20.5}}}`},
		{"string duty", "test", `{"pmd":{"2":{"duty":"half"}}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			withLookup(t, tc.doc)
			b := bus.NewBus(4)
			ctx := context.WithValue(context.Background(), CtxDeviceKey, tc.device)
			if err := NewConfigService().publishConfig(ctx, b.NewConnection("c")); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestConfig_EmbeddedDocumentsParse(t *testing.T) {
	for dev, raw := range embeddedConfigs {
		ctx := context.WithValue(context.Background(), CtxDeviceKey, dev)
		if err := NewConfigService().publishConfig(ctx, bus.NewBus(8).NewConnection("c")); err != nil {
			t.Fatalf("%s: %v\n%s", dev, err, raw)
		}
	}
}
