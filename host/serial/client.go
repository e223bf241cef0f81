package serial

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"apmd-go/x/jsonkey"
)

// ErrClosed is returned once the port has been closed or has failed.
var ErrClosed = errors.New("serial: closed")

// Client sends one JSON request line and waits for the next reply line.
// Lines that are not JSON objects (firmware log output) go to logf.
type Client struct {
	port  io.ReadWriter
	logf  func(line string)
	mu    sync.Mutex // one exchange at a time
	lines chan []byte
	err   error // set before lines is closed
}

// NewClient starts reading from port. logf may be nil.
func NewClient(port io.ReadWriter, logf func(line string)) *Client {
	c := &Client{port: port, logf: logf, lines: make(chan []byte, 16)}
	go c.readLoop()
	return c
}

func (c *Client) readLoop() {
	r := bufio.NewReader(c.port)
	for {
		line, err := r.ReadBytes('\n')
		line = bytes.TrimRight(line, "\r\n")
		if len(line) > 0 {
			if line[0] == '{' {
				c.lines <- line
			} else if c.logf != nil {
				c.logf(string(line))
			}
		}
		if err != nil {
			if err == io.EOF {
				err = ErrClosed
			}
			c.err = err
			close(c.lines)
			return
		}
	}
}

// answers reports whether reply belongs to req. Replies echo "op", and
// "ch" once the channel was accepted; a reply carrying a different value is
// the late answer to an earlier request.
func answers(req, reply []byte) bool {
	if op, ok := jsonkey.String(req, "op"); ok {
		if got, ok := jsonkey.String(reply, "op"); ok && got != op {
			return false
		}
	}
	if ch, ok := jsonkey.Int(req, "ch"); ok {
		if got, ok := jsonkey.Int(reply, "ch"); ok && got != ch {
			return false
		}
	}
	return true
}

// Do writes req followed by LF and returns the matching reply line. Replies
// to earlier requests that timed out are dropped.
func (c *Client) Do(ctx context.Context, req []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// drop replies nobody waited for
	for len(c.lines) > 0 {
		<-c.lines
	}
	msg := make([]byte, 0, len(req)+1)
	msg = append(append(msg, bytes.TrimSpace(req)...), '\n')
	if _, err := c.port.Write(msg); err != nil {
		return nil, err
	}
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case line, ok := <-c.lines:
			if !ok {
				return nil, c.err
			}
			if answers(msg, line) {
				return line, nil
			}
			if c.logf != nil {
				c.logf("dropped stale reply: " + string(line))
			}
		}
	}
}
