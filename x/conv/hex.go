// Package conv formats numbers into caller-owned buffers without fmt, for
// println-based logging on the device.
package conv

const hexd = "0123456789ABCDEF"

// U32Hex writes n as 8 uppercase hex digits, zero-padded, without 0x,
// into the tail of buf and returns that slice. buf must hold 8 bytes.
func U32Hex(buf []byte, n uint32) []byte {
	if len(buf) < 8 {
		return buf[:0]
	}
	i := len(buf)
	for j := 0; j < 8; j++ {
		i--
		buf[i] = hexd[n&0xF]
		n >>= 4
	}
	return buf[i:]
}

// RegLine appends "NAME=0x0000ABCD" to dst.
func RegLine(dst []byte, name string, v uint32) []byte {
	var h [8]byte
	dst = append(dst, name...)
	dst = append(dst, "=0x"...)
	return append(dst, U32Hex(h[:], v)...)
}
