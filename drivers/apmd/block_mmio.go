//go:build tinygo

package apmd

import (
	"runtime/volatile"
	"unsafe"
)

// MMIO is a Block backed by the memory-mapped registers at a base address.
type MMIO uintptr

func (m MMIO) reg(r Reg) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(uintptr(m) + uintptr(r)))
}

func (m MMIO) Get(r Reg) uint32    { return m.reg(r).Get() }
func (m MMIO) Set(r Reg, v uint32) { m.reg(r).Set(v) }
