package link

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"apmd-go/x/spin"
)

// --- minimal fake UART implementing drivers.UART ---

type fakeUART struct {
	mu sync.Mutex
	rx []byte
	tx bytes.Buffer
}

func (f *fakeUART) inject(b []byte) {
	f.mu.Lock()
	f.rx = append(f.rx, b...)
	f.mu.Unlock()
}

func (f *fakeUART) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tx.Write(p)
}

func (f *fakeUART) Buffered() int { f.mu.Lock(); n := len(f.rx); f.mu.Unlock(); return n }

func (f *fakeUART) Read(p []byte) (int, error) {
	f.mu.Lock()
	n := copy(p, f.rx)
	f.rx = f.rx[n:]
	f.mu.Unlock()
	return n, nil
}

func (f *fakeUART) written() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tx.String()
}

// --- helpers ---

func recvLine(t *testing.T, l *Link, d time.Duration) (string, bool) {
	t.Helper()
	select {
	case ev := <-l.Lines():
		return string(ev.Line), true
	case <-time.After(d):
		return "", false
	}
}

func start(t *testing.T, port Port, cfg Config) (*Link, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	l := New(port, cfg)
	go l.Run(ctx, make([]byte, 8))
	t.Cleanup(cancel)
	return l, cancel
}

// --- tests ---

func TestLink_SplitsLinesAndIgnoresCR(t *testing.T) {
	u := &fakeUART{}
	l, _ := start(t, FromUART(u, time.Millisecond), Config{})

	u.inject([]byte("{\"op\":\"status\"}\r\nsecond line is longer than the buffer\n"))

	if got, ok := recvLine(t, l, time.Second); !ok || got != `{"op":"status"}` {
		t.Fatalf("line1=%q ok=%v", got, ok)
	}
	if got, ok := recvLine(t, l, time.Second); !ok || got != "second line is longer than the buffer" {
		t.Fatalf("line2=%q ok=%v", got, ok)
	}
}

func TestLink_OverlongLineDropped(t *testing.T) {
	u := &fakeUART{}
	l, _ := start(t, FromUART(u, time.Millisecond), Config{MaxLine: 16})

	u.inject(bytes.Repeat([]byte("x"), 40))
	u.inject([]byte("\nok\n"))

	if got, ok := recvLine(t, l, time.Second); !ok || got != "ok" {
		t.Fatalf("got %q ok=%v, want overlong line dropped", got, ok)
	}
}

func TestLink_IdleFlush(t *testing.T) {
	u := &fakeUART{}
	l, _ := start(t, FromUART(u, time.Millisecond), Config{IdleFlush: 20 * time.Millisecond})

	u.inject([]byte("partial"))
	if got, ok := recvLine(t, l, time.Second); !ok || got != "partial" {
		t.Fatalf("got %q ok=%v", got, ok)
	}
}

func TestLink_NoIdleFlushByDefault(t *testing.T) {
	u := &fakeUART{}
	l, _ := start(t, FromUART(u, time.Millisecond), Config{})

	u.inject([]byte("partial"))
	if got, ok := recvLine(t, l, 80*time.Millisecond); ok {
		t.Fatalf("unexpected line %q", got)
	}
}

func TestLink_WriteLine(t *testing.T) {
	u := &fakeUART{}
	l := New(FromUART(u, 0), Config{})
	if err := l.WriteLine([]byte(`{"ok":true}`)); err != nil {
		t.Fatal(err)
	}
	if got := u.written(); got != "{\"ok\":true}\n" {
		t.Fatalf("tx=%q", got)
	}
}

// pipePort serves RecvSomeContext from an io.Reader, returning io.EOF at
// the end.
type pipePort struct {
	r io.Reader
	io.Writer
}

func (p *pipePort) RecvSomeContext(ctx context.Context, b []byte) (int, error) {
	return p.r.Read(b)
}

func TestLink_EOFFlushesAndStops(t *testing.T) {
	p := &pipePort{r: bytes.NewReader([]byte("a\nb")), Writer: io.Discard}
	l := New(p, Config{})
	done := make(chan struct{})
	go func() {
		l.Run(context.Background(), nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return on EOF")
	}
	var got []string
	for len(l.Lines()) > 0 {
		got = append(got, string((<-l.Lines()).Line))
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("lines=%v", got)
	}
}

// --- soft reset ---

type fakeSWRST struct {
	writes    []uint32
	busyPolls int
}

func (r *fakeSWRST) Set(v uint32) { r.writes = append(r.writes, v) }
func (r *fakeSWRST) Get() uint32 {
	if r.busyPolls > 0 {
		r.busyPolls--
		return swrstBusy
	}
	return 0
}

func TestSoftReset_SequenceAndWait(t *testing.T) {
	r := &fakeSWRST{busyPolls: 3}
	if err := SoftReset(r, func() {}); err != nil {
		t.Fatal(err)
	}
	if len(r.writes) != 2 || r.writes[0] != 0b10 || r.writes[1] != 0b01 {
		t.Fatalf("writes=%v", r.writes)
	}
}

func TestSoftReset_StuckBusyTimesOut(t *testing.T) {
	r := &fakeSWRST{busyPolls: 1 << 30}
	if err := SoftReset(r, nil); err != spin.ErrTimeout {
		t.Fatalf("err=%v want timeout", err)
	}
}

// --- transmit FIFO ---

type fakeTxFIFO struct {
	level   uint32 // bytes queued
	drainAt int    // polls before one byte drains, 0 = never
	polls   int
	sent    []byte
}

type fifoStatus struct{ f *fakeTxFIFO }

func (s fifoStatus) Set(uint32) {}
func (s fifoStatus) Get() uint32 {
	s.f.polls++
	if s.f.drainAt > 0 && s.f.polls%s.f.drainAt == 0 && s.f.level > 0 {
		s.f.level--
	}
	return s.f.level
}

type fifoData struct{ f *fakeTxFIFO }

func (d fifoData) Get() uint32 { return 0 }
func (d fifoData) Set(v uint32) {
	d.f.sent = append(d.f.sent, byte(v))
	d.f.level++
}

func (f *fakeTxFIFO) writer() TxFIFO {
	return TxFIFO{
		Status: fifoStatus{f},
		Data:   fifoData{f},
		Full:   func(level uint32) bool { return level >= 4 },
	}
}

func TestTxFIFO_WaitsForSpace(t *testing.T) {
	f := &fakeTxFIFO{drainAt: 3}
	n, err := f.writer().Write([]byte("hello, drive"))
	if err != nil || n != 12 || string(f.sent) != "hello, drive" {
		t.Fatalf("n=%d err=%v sent=%q", n, err, f.sent)
	}
}

func TestTxFIFO_StuckFullTimesOut(t *testing.T) {
	f := &fakeTxFIFO{}
	n, err := f.writer().Write([]byte("abcdefgh"))
	if err != spin.ErrTimeout {
		t.Fatalf("err=%v want timeout", err)
	}
	if n != 4 || string(f.sent) != "abcd" {
		t.Fatalf("n=%d sent=%q", n, f.sent)
	}
}
