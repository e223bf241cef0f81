package link

import "apmd-go/x/spin"

// Register is a 32-bit peripheral register. *volatile.Register32 satisfies
// it.
type Register interface {
	Get() uint32
	Set(v uint32)
}

const (
	swrstKey1  = 0b10
	swrstKey2  = 0b01
	swrstBusy  = 0x80
	resetPolls = 1000
)

// SoftReset runs the UART software reset sequence on a SWRST register and
// waits for the busy flag to drop. It gives up after a bounded number of
// polls and returns spin.ErrTimeout.
func SoftReset(swrst Register, pause func()) error {
	swrst.Set(swrstKey1)
	swrst.Set(swrstKey2)
	return spin.Until(func() bool { return swrst.Get()&swrstBusy == 0 }, resetPolls, pause)
}

const txPolls = 1000

// TxFIFO writes bytes into a UART transmit FIFO, waiting a bounded number of
// polls for space before each byte.
type TxFIFO struct {
	Status Register
	Data   Register
	Full   func(status uint32) bool
	Pause  func()
}

// Write returns spin.ErrTimeout and the count written so far when the FIFO
// stays full.
func (f TxFIFO) Write(p []byte) (int, error) {
	ready := func() bool { return !f.Full(f.Status.Get()) }
	for i, b := range p {
		if err := spin.Until(ready, txPolls, f.Pause); err != nil {
			return i, err
		}
		f.Data.Set(uint32(b))
	}
	return len(p), nil
}
