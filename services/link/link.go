// Package link frames a serial byte stream into newline-terminated lines.
package link

import (
	"context"
	"io"
	"sync"
	"time"

	"apmd-go/x/mathx"
	"apmd-go/x/timex"

	"tinygo.org/x/drivers"
)

// Port is the byte stream under a link.
type Port interface {
	io.Writer
	RecvSomeContext(ctx context.Context, p []byte) (int, error)
}

// Event is one received line (without CR/LF).
type Event struct {
	Line []byte
	TS   time.Time
}

// Config tunes the reader.
type Config struct {
	MaxLine   int           // clamp 16..1024, default 256
	IdleFlush time.Duration // clamp 0..2s; 0 disables flushing a partial line
	QueueLen  int
}

type Link struct {
	port Port
	outQ chan Event
	wmu  sync.Mutex

	maxLine int
	idle    time.Duration
}

func New(port Port, cfg Config) *Link {
	max := cfg.MaxLine
	if max == 0 {
		max = 256
	}
	q := cfg.QueueLen
	if q <= 0 {
		q = 8
	}
	return &Link{
		port:    port,
		outQ:    make(chan Event, q),
		maxLine: mathx.Clamp(max, 16, 1024),
		idle:    mathx.Clamp(cfg.IdleFlush, 0, 2*time.Second),
	}
}

// Lines delivers received lines. Lines are dropped if the consumer is slow.
func (l *Link) Lines() <-chan Event { return l.outQ }

// Run reads until ctx is cancelled. buf is the caller-owned receive buffer;
// it must not be used by anyone else while Run is active. A nil buf gets a
// 64-byte buffer.
func (l *Link) Run(ctx context.Context, buf []byte) {
	if len(buf) == 0 {
		buf = make([]byte, 64)
	}
	line := make([]byte, 0, l.maxLine)
	overflow := false

	timer := timex.StoppedTimer()
	defer timer.Stop()

	flush := func(now time.Time) {
		if len(line) == 0 || overflow {
			line = line[:0]
			overflow = false
			return
		}
		ev := Event{Line: append([]byte(nil), line...), TS: now}
		line = line[:0]
		select {
		case l.outQ <- ev:
		default:
			// drop if consumer is slow
		}
	}

	type chunk struct {
		n   int
		err error
	}
	rx := make(chan chunk, 1)
	next := make(chan struct{}, 1)
	next <- struct{}{}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-next:
			}
			// Bound the blocking wait to assist shutdown.
			rctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
			n, err := l.port.RecvSomeContext(rctx, buf)
			cancel()
			select {
			case rx <- chunk{n, err}:
			case <-ctx.Done():
				return
			}
			if err == io.EOF {
				return
			}
		}
	}()

	for {
		if len(line) > 0 && l.idle > 0 {
			timex.ResetTimer(timer, l.idle)
		}
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			flush(time.Now())
		case c := <-rx:
			now := time.Now()
			for _, b := range buf[:c.n] {
				switch b {
				case '\n':
					flush(now)
				case '\r':
				default:
					if len(line) < l.maxLine {
						line = append(line, b)
					} else {
						overflow = true
					}
				}
			}
			if c.err == io.EOF {
				flush(now)
				return
			}
			next <- struct{}{}
		}
	}
}

// WriteLine writes b followed by LF as one unit.
func (l *Link) WriteLine(b []byte) error {
	l.wmu.Lock()
	defer l.wmu.Unlock()
	if _, err := l.port.Write(b); err != nil {
		return err
	}
	_, err := l.port.Write([]byte{'\n'})
	return err
}

// -----------------------------------------------------------------------------
// drivers.UART adaptor
// -----------------------------------------------------------------------------

type uartPort struct {
	u    drivers.UART
	poll time.Duration
}

// FromUART adapts a polled UART (Buffered/Read never block) to a Port.
func FromUART(u drivers.UART, poll time.Duration) Port {
	if poll <= 0 {
		poll = 2 * time.Millisecond
	}
	return &uartPort{u: u, poll: poll}
}

func (p *uartPort) Write(b []byte) (int, error) { return p.u.Write(b) }

func (p *uartPort) RecvSomeContext(ctx context.Context, b []byte) (int, error) {
	for {
		if p.u.Buffered() > 0 {
			return p.u.Read(b)
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(p.poll):
		}
	}
}
