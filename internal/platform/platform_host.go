//go:build !tinygo

package platform

import (
	"context"
	"io"
	"os"
	"time"

	"apmd-go/drivers/apmd"
	"apmd-go/x/shmring"
)

// Boot returns a simulated board with the console on stdin/stdout.
func Boot() *Board {
	return &Board{
		Name:     "host",
		Platform: newLogGPIO(true),
		Blocks:   simBlocks(),
		Wait:     apmd.Wait,
		Console:  NewStreamPort(os.Stdin, os.Stdout),
	}
}

// StreamPort turns a blocking reader into a link.Port. A reader goroutine
// fills a byte ring; RecvSomeContext drains it.
type StreamPort struct {
	io.Writer
	ring *shmring.Ring
	done chan struct{} // closed when the reader stops
	err  error         // set before done is closed
}

func NewStreamPort(r io.Reader, w io.Writer) *StreamPort {
	p := &StreamPort{Writer: w, ring: shmring.New(1024), done: make(chan struct{})}
	go p.fill(r)
	return p
}

func (p *StreamPort) fill(r io.Reader) {
	buf := make([]byte, 256)
	for {
		n, err := r.Read(buf)
		for b := buf[:n]; len(b) > 0; {
			k := p.ring.TryWriteFrom(b)
			b = b[k:]
			if k == 0 {
				<-p.ring.Writable()
			}
		}
		if err != nil {
			p.err = err
			close(p.done)
			return
		}
	}
}

func (p *StreamPort) RecvSomeContext(ctx context.Context, b []byte) (int, error) {
	for {
		if n := p.ring.TryReadInto(b); n > 0 {
			return n, nil
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-p.ring.Readable():
		case <-p.done:
			if p.ring.Available() == 0 {
				return 0, p.err
			}
		}
	}
}

// BootDelay is how long main waits before the first log line.
const BootDelay = 0 * time.Millisecond
