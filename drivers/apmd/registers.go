package apmd

// Reg is a byte offset into one A-PMD register block.
type Reg uint16

// Register offsets (32-bit registers, TMPM4K A-PMD layout).
const (
	regMDEN     Reg = 0x00 // R/W, PWMEN bit0
	regPORTMD   Reg = 0x04 // R/W
	regMDCR     Reg = 0x08 // R/W
	regCARSTA   Reg = 0x0C // R
	regBCARI    Reg = 0x10 // R
	regRATE     Reg = 0x14 // R/W
	regCMPU     Reg = 0x18 // R/W
	regCMPV     Reg = 0x1C // R/W
	regCMPW     Reg = 0x20 // R/W
	regMODESEL  Reg = 0x24 // R/W
	regMDOUT    Reg = 0x28 // R/W
	regMDPOT    Reg = 0x2C // R/W
	regEMGREL   Reg = 0x30 // W, key register
	regEMGCR    Reg = 0x34 // R/W
	regEMGSTA   Reg = 0x38 // R
	regOVVCR    Reg = 0x3C // R/W
	regOVVSTA   Reg = 0x40 // R
	regDTR      Reg = 0x44 // R/W
	regTRGCMP0  Reg = 0x48 // R/W
	regTRGCMP1  Reg = 0x4C // R/W
	regTRGCMP2  Reg = 0x50 // R/W
	regTRGCMP3  Reg = 0x54 // R/W
	regTRGCR    Reg = 0x58 // R/W
	regTRGMD    Reg = 0x5C // R/W
	regTRGSEL   Reg = 0x60 // R/W
	regTRGSYNCR Reg = 0x64 // R/W
	regVPWMPH   Reg = 0x68 // R/W
	regWPWMPH   Reg = 0x6C // R/W
	regMBUFCR   Reg = 0x70 // R/W
	regSYNCCR   Reg = 0x74 // R/W
	regDBGOUTCR Reg = 0x78 // R/W
	regOVVREL   Reg = 0x7C // W, key register

	blockSize = 0x80
)

const (
	// MDEN
	mdenPWMEN = 1 << 0

	// PORTMD (2-bit field)
	portmdMask = 0x03

	// MDCR
	mdcrINTPRD = 0x03 << 1
	mdcrPINT   = 1 << 3
	mdcrDTYMD  = 1 << 4 // 1 = independent per phase
	mdcrSYNTMD = 1 << 5
	mdcrDCMEN  = 1 << 6
	mdcrDTCREN = 1 << 7 // dead-time correction
	mdcrDSYNCS = 0x03 << 8
	mdcrUPWMMD = 0x03 << 10
	mdcrVPWMMD = 0x03 << 12
	mdcrWPWMMD = 0x03 << 14

	mdcrDSYNCSShift = 8
	mdcrPWMMDShift  = 10 // + 2*phase

	// MDPOT
	mdpotPSYNCS = 0x03
	mdpotPOLL   = 1 << 2 // lower phase active high
	mdpotPOLH   = 1 << 3 // upper phase active high
	mdpotSYNCS  = 0x03 << 8

	mdpotSYNCSShift = 8

	// MDOUT
	mdoutUOC  = 0x03
	mdoutVOC  = 0x03 << 2
	mdoutWOC  = 0x03 << 4
	mdoutUPWM = 1 << 8
	mdoutVPWM = 1 << 9
	mdoutWPWM = 1 << 10

	// EMGCR / OVVCR (shared layout)
	crEN     = 1 << 0
	crRS     = 1 << 1
	crISEL   = 1 << 2 // 1 = trip input disabled
	crMD     = 0x03 << 3
	crINHEN  = 1 << 5 // EMG only
	crADIN0  = 1 << 5 // OVV only
	crADIN1  = 1 << 6 // OVV only
	crIPOL   = 1 << 7 // 1 = active high trip input
	crCNT    = 0x1F << 8
	crRSMD   = 1 << 15 // OVV only
	crMDShft = 3
	crCNTSh  = 8

	// EMGSTA / OVVSTA
	staLatched = 1 << 0

	// Release key sequence.
	releaseKey1 = 0x5A
	releaseKey2 = 0xA5
)

// Full-scale duty compare value (100%).
const DutyFull = 0x8000

// Carrier rate resolution: f = fsys * RATE / 2^24.
const rateShift = 24
