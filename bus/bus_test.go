package bus

import (
	"context"
	"sort"
	"testing"
	"time"
)

func TestPublish_ExactTopic(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")
	sub := conn.Subscribe(T("pmd", 2, "prot", "emg"))

	conn.Publish(conn.NewMessage(T("pmd", 2, "prot", "emg"), "tripped", false))
	expectOneOf(t, sub, "tripped")

	// Channel tokens are ints; a string "2" is a different topic.
	conn.Publish(conn.NewMessage(T("pmd", "2", "prot", "emg"), "wrong", false))
	expectNoMessage(t, sub)
}

func TestRetained_LatestPerTopic(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("config")

	conn.Publish(conn.NewMessage(T("config", "pmd", 0), "old", true))
	conn.Publish(conn.NewMessage(T("config", "pmd", 0), "new", true))

	sub := conn.Subscribe(T("config", "pmd", 0))
	expectOneOf(t, sub, "new")
	expectNoMessage(t, sub)
}

func TestWildcard_ChannelConfig(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(T("config", "pmd", 0), "c0", true))
	c.Publish(b.NewMessage(T("config", "pmd", 2), "c2", true))
	c.Publish(b.NewMessage(T("config", "monitor"), "mon", true))

	chans := c.Subscribe(T("config", "pmd", "+"))
	assertUnorderedEqual(t, drainPayloads(t, chans, 2), []string{"c0", "c2"})

	all := c.Subscribe(T("config", "#"))
	assertUnorderedEqual(t, drainPayloads(t, all, 3), []string{"c0", "c2", "mon"})

	// "+" does not match a missing level.
	short := c.Subscribe(T("config", "+", "+"))
	assertUnorderedEqual(t, drainPayloads(t, short, 2), []string{"c0", "c2"})
}

func TestWildcard_ProtectionStatus(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	anyPath := c.Subscribe(T("pmd", "+", "prot", "#"))
	ovvOnly := c.Subscribe(T("pmd", "+", "prot", "ovv"))
	ch0 := c.Subscribe(T("pmd", 0, "#"))

	c.Publish(b.NewMessage(T("pmd", 0, "prot", "emg"), "e0", true))
	expectOneOf(t, anyPath, "e0")
	expectOneOf(t, ch0, "e0")
	expectNoMessage(t, ovvOnly)

	c.Publish(b.NewMessage(T("pmd", 2, "prot", "ovv"), "o2", true))
	expectOneOf(t, anyPath, "o2")
	expectOneOf(t, ovvOnly, "o2")
	expectNoMessage(t, ch0)

	c.Publish(b.NewMessage(T("pmd", 0, "cmd", "duty"), "r0", false))
	expectOneOf(t, ch0, "r0")
	expectNoMessage(t, anyPath)
}

func TestRetained_ClearWithNilPayload(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(T("pmd", 0, "prot", "emg"), "keep", true))
	c.Publish(b.NewMessage(T("pmd", 1, "prot", "emg"), "gone", true))
	c.Publish(b.NewMessage(T("pmd", 1, "prot", "emg"), nil, true))

	s := c.Subscribe(T("pmd", "#"))
	got := drainPayloads(t, s, 1)
	if got[0] != "keep" {
		t.Fatalf("got %v", got)
	}
	expectNoMessage(t, s)
}

func TestDeliver_DropsOldestWhenFull(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("monitor")
	s := c.Subscribe(T("pmd", 0, "prot", "emg"))

	for _, p := range []string{"a", "b", "c"} {
		c.Publish(b.NewMessage(T("pmd", 0, "prot", "emg"), p, false))
	}
	assertUnorderedEqual(t, drainPayloads(t, s, 2), []string{"b", "c"})
}

func TestUnsubscribe_ClosesChannel(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("test")
	s1 := c.Subscribe(T("config", "monitor"))
	s2 := c.Subscribe(T("config", "pmd", "+"))

	s1.Unsubscribe()
	if _, ok := <-s1.Channel(); ok {
		t.Fatal("channel open after Unsubscribe")
	}
	c.Publish(b.NewMessage(T("config", "pmd", 1), "c1", false))
	expectOneOf(t, s2, "c1")

	c.Disconnect()
	if _, ok := <-s2.Channel(); ok {
		t.Fatal("channel open after Disconnect")
	}
	// A second removal is a no-op.
	c.Unsubscribe(s2)
}

func TestRequestWait_CommandTopic(t *testing.T) {
	b := NewBus(8)
	client := b.NewConnection("client")
	svc := b.NewConnection("command")

	reqs := svc.Subscribe(T("pmd", "cmd"))
	defer svc.Unsubscribe(reqs)
	go func() {
		if msg, ok := <-reqs.Channel(); ok {
			svc.Reply(msg, `{"ok":true}`, false)
		}
	}()

	req := b.NewMessage(T("pmd", "cmd"), `{"op":"status","ch":0}`, false)
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	reply, err := client.RequestWait(ctx, req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if got, ok := reply.Payload.(string); !ok || got != `{"ok":true}` {
		t.Fatalf("reply payload %#v", reply.Payload)
	}
	if !reply.Topic.equal(req.ReplyTo) {
		t.Fatalf("reply topic %v != ReplyTo %v", reply.Topic, req.ReplyTo)
	}
}

func TestRequestWait_NoResponderTimesOut(t *testing.T) {
	b := NewBus(8)
	client := b.NewConnection("client")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := client.RequestWait(ctx, b.NewMessage(T("pmd", "cmd"), nil, false)); err != context.DeadlineExceeded {
		t.Fatalf("err=%v want deadline exceeded", err)
	}
}

func TestRequest_ReplyTopicsAreDistinct(t *testing.T) {
	b := NewBus(8)
	client := b.NewConnection("client")
	m1 := b.NewMessage(T("pmd", "cmd"), nil, false)
	m2 := b.NewMessage(T("pmd", "cmd"), nil, false)
	s1 := client.Request(m1)
	s2 := client.Request(m2)
	defer s1.Unsubscribe()
	defer s2.Unsubscribe()
	if m1.ReplyTo.equal(m2.ReplyTo) {
		t.Fatalf("shared ReplyTo %v", m1.ReplyTo)
	}

	// Requests without ReplyTo are not answered.
	svc := b.NewConnection("command")
	svc.Reply(b.NewMessage(T("pmd", "cmd"), nil, false), "x", false)
	expectNoMessage(t, s1)
}

func TestTopic_InvalidTokenPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	_ = T("pmd", []byte{0})
}

func expectOneOf(t *testing.T, sub *Subscription, want string) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		s, ok := got.Payload.(string)
		if !ok || s != want {
			t.Fatalf("payload %v, want %q", got.Payload, want)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for %q", want)
	}
}

func expectNoMessage(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		t.Fatalf("unexpected message %#v", got)
	case <-time.After(30 * time.Millisecond):
	}
}

func drainPayloads(t *testing.T, sub *Subscription, n int) []string {
	t.Helper()
	var out []string
	deadline := time.After(300 * time.Millisecond)
	for len(out) < n {
		select {
		case m := <-sub.Channel():
			s, ok := m.Payload.(string)
			if !ok {
				t.Fatalf("payload %#v", m.Payload)
			}
			out = append(out, s)
		case <-deadline:
			t.Fatalf("got %d of %d messages: %v", len(out), n, out)
		}
	}
	return out
}

func assertUnorderedEqual(t *testing.T, got, want []string) {
	t.Helper()
	sort.Strings(got)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}
