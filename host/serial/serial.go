// Package serial opens the firmware's command link from a host and runs
// request/reply exchanges over it.
package serial

import (
	"io"
)

// Port is a serial port. Native ports use github.com/tarm/serial; tests use
// pipes.
type Port interface {
	io.ReadWriteCloser
}

// Config holds serial port configuration.
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig matches the firmware console.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}
