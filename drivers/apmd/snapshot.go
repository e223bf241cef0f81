package apmd

// Snapshot is a raw dump of one register block.
type Snapshot struct {
	MDEN, PORTMD, MODESEL, MDCR, CARSTA, BCARI uint32
	RATE, CMPU, CMPV, CMPW                     uint32
	VPWMPH, WPWMPH                             uint32
	MDPOT, MDOUT                               uint32
	EMGCR, EMGSTA, OVVCR, OVVSTA               uint32
	DTR                                        uint32
	TRGCMP0, TRGCMP1, TRGCMP2, TRGCMP3         uint32
	TRGCR, TRGSYNCR, TRGMD, TRGSEL             uint32
	MBUFCR, SYNCCR, DBGOUTCR                   uint32
}

var snapshotRegs = [...]struct {
	name string
	reg  Reg
}{
	{"MDEN", regMDEN}, {"PORTMD", regPORTMD}, {"MODESEL", regMODESEL},
	{"MDCR", regMDCR}, {"CARSTA", regCARSTA}, {"BCARI", regBCARI},
	{"RATE", regRATE}, {"CMPU", regCMPU}, {"CMPV", regCMPV}, {"CMPW", regCMPW},
	{"VPWMPH", regVPWMPH}, {"WPWMPH", regWPWMPH},
	{"MDPOT", regMDPOT}, {"MDOUT", regMDOUT},
	{"EMGCR", regEMGCR}, {"EMGSTA", regEMGSTA},
	{"OVVCR", regOVVCR}, {"OVVSTA", regOVVSTA},
	{"DTR", regDTR},
	{"TRGCMP0", regTRGCMP0}, {"TRGCMP1", regTRGCMP1}, {"TRGCMP2", regTRGCMP2}, {"TRGCMP3", regTRGCMP3},
	{"TRGCR", regTRGCR}, {"TRGSYNCR", regTRGSYNCR}, {"TRGMD", regTRGMD}, {"TRGSEL", regTRGSEL},
	{"MBUFCR", regMBUFCR}, {"SYNCCR", regSYNCCR}, {"DBGOUTCR", regDBGOUTCR},
}

// Snapshot reads every readable register. Key registers are write-only and
// are not included.
func (c *Channel) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	var s Snapshot
	for _, e := range snapshotRegs {
		*s.field(e.reg) = c.b.Get(e.reg)
	}
	return s
}

// Each calls fn for every register in dump order.
func (s *Snapshot) Each(fn func(name string, v uint32)) {
	for _, e := range snapshotRegs {
		fn(e.name, *s.field(e.reg))
	}
}

func (s *Snapshot) field(r Reg) *uint32 {
	switch r {
	case regMDEN:
		return &s.MDEN
	case regPORTMD:
		return &s.PORTMD
	case regMODESEL:
		return &s.MODESEL
	case regMDCR:
		return &s.MDCR
	case regCARSTA:
		return &s.CARSTA
	case regBCARI:
		return &s.BCARI
	case regRATE:
		return &s.RATE
	case regCMPU:
		return &s.CMPU
	case regCMPV:
		return &s.CMPV
	case regCMPW:
		return &s.CMPW
	case regVPWMPH:
		return &s.VPWMPH
	case regWPWMPH:
		return &s.WPWMPH
	case regMDPOT:
		return &s.MDPOT
	case regMDOUT:
		return &s.MDOUT
	case regEMGCR:
		return &s.EMGCR
	case regEMGSTA:
		return &s.EMGSTA
	case regOVVCR:
		return &s.OVVCR
	case regOVVSTA:
		return &s.OVVSTA
	case regDTR:
		return &s.DTR
	case regTRGCMP0:
		return &s.TRGCMP0
	case regTRGCMP1:
		return &s.TRGCMP1
	case regTRGCMP2:
		return &s.TRGCMP2
	case regTRGCMP3:
		return &s.TRGCMP3
	case regTRGCR:
		return &s.TRGCR
	case regTRGSYNCR:
		return &s.TRGSYNCR
	case regTRGMD:
		return &s.TRGMD
	case regTRGSEL:
		return &s.TRGSEL
	case regMBUFCR:
		return &s.MBUFCR
	case regSYNCCR:
		return &s.SYNCCR
	}
	return &s.DBGOUTCR
}
