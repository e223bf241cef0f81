package apmd

// Block is the register surface of one A-PMD instance.
type Block interface {
	Get(r Reg) uint32
	Set(r Reg, v uint32)
}

// update does a read-modify-write of the bits in mask.
func update(b Block, r Reg, mask, val uint32) {
	b.Set(r, (b.Get(r)&^mask)|(val&mask))
}

func bit(on bool, m uint32) uint32 {
	if on {
		return m
	}
	return 0
}
