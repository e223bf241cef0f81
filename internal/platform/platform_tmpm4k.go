//go:build tinygo && !rp2040

package platform

import (
	"runtime/volatile"
	"time"
	"unsafe"

	"apmd-go/drivers/apmd"
	"apmd-go/services/link"
)

const BootDelay = 0 * time.Millisecond

// Peripheral base addresses. Check against the device header before
// flashing a new part.
const (
	cgBase    = 0x40083000
	portBase  = 0x400E0000 // PA; each port is 0x100 further on
	pmd0Base  = 0x400F6000
	pmdStride = 0x400
	uart0Base = 0x400CE000
)

const (
	cgFSYSMENA = 0x48
	cgFSYSMENB = 0x4C
	cgFSYSENA  = 0x58
)

// Port register offsets.
const (
	portCR  = 0x04
	portFR1 = 0x08 // FRn at portFR1 + 4*(n-1)
	portPUP = 0x2C
	portPDN = 0x30
	portIE  = 0x38
)

func reg(addr uintptr) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(addr))
}

func setBit(r *volatile.Register32, n uint8, on bool) {
	if on {
		r.SetBits(1 << n)
	} else {
		r.ClearBits(1 << n)
	}
}

// cgPort implements apmd.Platform on the CG and port registers.
type cgPort struct{}

type gate struct {
	off uintptr
	bit uint8
}

var gates = map[apmd.ClockDomain]gate{
	apmd.ClockPortB: {cgFSYSMENA, 1},
	apmd.ClockPortE: {cgFSYSMENA, 4},
	apmd.ClockPortU: {cgFSYSMENA, 16},
	apmd.ClockPMD0:  {cgFSYSMENB, 9},
	apmd.ClockPMD1:  {cgFSYSMENB, 10},
	apmd.ClockPMD2:  {cgFSYSMENB, 11},
	apmd.ClockRamp:  {cgFSYSENA, 1},
}

func (cgPort) EnableClock(d apmd.ClockDomain) {
	g, ok := gates[d]
	if !ok {
		return
	}
	reg(cgBase + g.off).SetBits(1 << g.bit)
	// read back so the gate is open before the first peripheral access
	_ = reg(cgBase + g.off).Get()
}

// port index in the PA..PY sequence
func portIndex(p apmd.Port) uintptr {
	switch p {
	case apmd.PortB:
		return 1
	case apmd.PortE:
		return 4
	case apmd.PortU:
		return 16
	}
	panic("platform: unknown port")
}

func portReg(p apmd.Pin, off uintptr) *volatile.Register32 {
	return reg(portBase + portIndex(p.Port)*0x100 + off)
}

func (cgPort) SetPinDirection(p apmd.Pin, output bool) {
	setBit(portReg(p, portCR), p.Num, output)
}

func (cgPort) SetPinFunction(p apmd.Pin, fn uint8, enable bool) {
	if fn == 0 || fn > 8 {
		return
	}
	setBit(portReg(p, portFR1+4*uintptr(fn-1)), p.Num, enable)
}

func (cgPort) SetPinPullResistors(p apmd.Pin, up, down bool) {
	setBit(portReg(p, portPUP), p.Num, up)
	setBit(portReg(p, portPDN), p.Num, down)
}

// Boot returns the TMPM4K board with MMIO PMD blocks and UART0 on PC0/PC1.
func Boot() *Board {
	var blocks [3]apmd.Block
	for i := range blocks {
		blocks[i] = apmd.MMIO(pmd0Base + uintptr(i)*pmdStride)
	}
	u := newUART(uart0Base)
	return &Board{
		Name:     "tmpm4k",
		Platform: cgPort{},
		Blocks:   blocks,
		Wait:     apmd.Wait,
		Console:  link.FromUART(u, 0),
	}
}

// --- UART-C, polled ---

const (
	uartSWRST = 0x00
	uartCR0   = 0x04
	uartCR1   = 0x08
	uartCLK   = 0x0C
	uartBRD   = 0x10
	uartTRANS = 0x14
	uartDR    = 0x18
	uartSR    = 0x1C

	srRLVL   = 0x0F
	srTLVL   = 0x0F00
	tlvlFull = 8 << 8

	cr0Data8 = 0b01 // 8-bit frame, 1 stop, no parity
	transTX  = 1 << 1
	transRX  = 1 << 0

	// BRD for 115200 baud at fsys/2 = 80 MHz with prescaler 1: N=43, K=26.
	brdValue = 43 | 26<<16 | 1<<23
)

type uart struct{ base uintptr }

func newUART(base uintptr) *uart {
	reg(cgBase + cgFSYSMENA).SetBits(1<<21 | 1<<2) // UART0, port C
	// PC0 = TXD (FR1), PC1 = RXD (FR1)
	pc := func(off uintptr) *volatile.Register32 { return reg(portBase + 2*0x100 + off) }
	pc(portCR).SetBits(1 << 0)
	pc(portFR1).SetBits(1<<0 | 1<<1)
	pc(portIE).SetBits(1 << 1)

	u := &uart{base: base}
	if err := link.SoftReset(u.r(uartSWRST), nil); err != nil {
		println("[platform] uart0 soft reset timed out")
	}
	u.r(uartCLK).Set(0)
	u.r(uartBRD).Set(brdValue)
	u.r(uartCR0).Set(cr0Data8)
	u.r(uartCR1).Set(0)
	u.r(uartTRANS).Set(transTX | transRX)
	return u
}

func (u *uart) r(off uintptr) *volatile.Register32 { return reg(u.base + off) }

func (u *uart) Buffered() int { return int(u.r(uartSR).Get() & srRLVL) }

func (u *uart) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) && u.Buffered() > 0 {
		p[n] = byte(u.r(uartDR).Get())
		n++
	}
	return n, nil
}

func (u *uart) Write(p []byte) (int, error) {
	return link.TxFIFO{
		Status: u.r(uartSR),
		Data:   u.r(uartDR),
		Full:   func(sr uint32) bool { return sr&srTLVL >= tlvlFull },
		Pause:  func() { apmd.Wait(1) },
	}.Write(p)
}
