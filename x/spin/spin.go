// Package spin provides bounded polling for hardware status bits.
package spin

import "errors"

var ErrTimeout = errors.New("timeout")

// Until evaluates cond up to attempts times and calls pause between
// evaluations. It returns ErrTimeout if cond never held. attempts < 1 is
// treated as 1.
func Until(cond func() bool, attempts int, pause func()) error {
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		if cond() {
			return nil
		}
		if pause != nil && i < attempts-1 {
			pause()
		}
	}
	return ErrTimeout
}
