//go:build tinygo && rp2040

package platform

import (
	"machine"
	"time"

	"apmd-go/drivers/apmd"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// Allow USB CDC to enumerate before we print.
const BootDelay = 2 * time.Second

const (
	consoleBaud = 115200
	consoleTX   = 0 // GP0
	consoleRX   = 1 // GP1
)

// Boot returns the bench board: a Pico running the control stack against
// simulated PMD blocks, with the command link on UART0.
func Boot() *Board {
	hw := uartx.UART0
	_ = hw.Configure(uartx.UARTConfig{
		BaudRate: consoleBaud,
		TX:       machine.Pin(consoleTX),
		RX:       machine.Pin(consoleRX),
	})
	_ = hw.SetFormat(8, 1, uartx.ParityNone)
	return &Board{
		Name:     "rp2040_bench",
		Platform: newLogGPIO(false),
		Blocks:   simBlocks(),
		Wait:     apmd.Wait,
		Console:  hw,
	}
}
