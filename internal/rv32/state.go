// Package rv32 implements an instruction-accurate RV32IMA step engine:
// a single-hart processor core advanced by a bounded instruction budget
// per call against a flat byte-addressable memory image, with the
// machine-mode privileged subset and Zicsr/Zifencei.
package rv32

// Memory map constants. RAM occupies [RAMBase, RAMBase+size); the MMIO
// window is [MMIOBase, MMIOEnd). Any other address faults.
const (
	RAMBase uint32 = 0x8000_0000

	MMIOBase uint32 = 0x1000_0000
	MMIOEnd  uint32 = 0x1200_0000

	AddrTimerL      uint32 = 0x1100_BFF8
	AddrTimerH      uint32 = 0x1100_BFFC
	AddrTimerMatchL uint32 = 0x1100_4000
	AddrTimerMatchH uint32 = 0x1100_4004
	AddrSyscon      uint32 = 0x1110_0000
)

// mstatus bit positions.
const (
	MstatusMIEBit  uint32 = 1 << 3
	MstatusMPIEBit uint32 = 1 << 7
	MstatusMPPLow  uint32 = 11
	MstatusMPPMask uint32 = 3 << MstatusMPPLow
)

// mip/mie bit positions. Only the machine-timer bit is ever set by the
// engine itself; the rest exist so CSR reads/writes round-trip cleanly.
const (
	MipMTIPBit uint32 = 1 << 7
	MieMTIEBit uint32 = 1 << 7
)

// extraflags layout: bits 0-1 privilege, bit 2 WFI latch, bits 3-31
// load-reservation address in 8-byte units.
const (
	PrivUser    uint32 = 0
	PrivMachine uint32 = 3

	ExtraPrivMask  uint32 = 0x3
	ExtraWFIBit    uint32 = 1 << 2
	ExtraReservShift       = 3
)

// Trap causes, carried as their final architectural values throughout —
// the engine never stores the internal cause+1 encoding the reference
// implementation uses before its epilogue.
const (
	CauseInsnMisaligned uint32 = 0
	CauseInsnFault      uint32 = 1
	CauseIllegalInsn    uint32 = 2
	CauseBreakpoint     uint32 = 3
	CauseLoadFault      uint32 = 5
	CauseStoreFault     uint32 = 7
	CauseEcallU         uint32 = 8
	CauseEcallM         uint32 = 11

	CauseInterruptBit  uint32 = 1 << 31
	CauseMachineTimer  uint32 = CauseInterruptBit | 7
)

// CSR addresses recognized directly by the engine. Anything else is
// delegated to the host's CSR extension hook.
const (
	CSRMscratch  uint16 = 0x340
	CSRMtvec     uint16 = 0x305
	CSRMie       uint16 = 0x304
	CSRCycle     uint16 = 0xC00
	CSRMip       uint16 = 0x344
	CSRMepc      uint16 = 0x341
	CSRMstatus   uint16 = 0x300
	CSRMcause    uint16 = 0x342
	CSRMtval     uint16 = 0x343
	CSRMvendorid uint16 = 0xF11
	CSRMisa      uint16 = 0x301
)

const (
	mvendoridValue uint32 = 0xFF0FF0FF
	misaValue      uint32 = 0x40401101
)

// Step return codes other than a SYSCON termination value.
const (
	StepOK  int32 = 0
	StepWFI int32 = 1
)

// State is the guest processor state: 32 integer registers plus the
// machine-mode CSR file, held as plain 32-bit words. All arithmetic on
// it is modulo 2^32.
type State struct {
	Regs [32]uint32
	PC   uint32

	Mstatus uint32

	Cyclel uint32
	Cycleh uint32

	Timerl uint32
	Timerh uint32

	Timermatchl uint32
	Timermatchh uint32

	Mscratch uint32
	Mtvec    uint32
	Mie      uint32
	Mip      uint32
	Mepc     uint32
	Mtval    uint32
	Mcause   uint32

	Extraflags uint32
}

// Reset zeroes the state to the boot convention: machine mode, no WFI,
// no reservation, pc at base. Regs are left for the caller to populate
// per its boot ABI (hart id in x10, DTB pointer in x11).
func (s *State) Reset(base uint32) {
	*s = State{}
	s.PC = base
	s.Extraflags = PrivMachine
}

// Privilege returns the current privilege level (PrivMachine or
// PrivUser) encoded in the low two bits of Extraflags.
func (s *State) Privilege() uint32 {
	return s.Extraflags & ExtraPrivMask
}

func (s *State) setPrivilege(priv uint32) {
	s.Extraflags = (s.Extraflags &^ ExtraPrivMask) | (priv & ExtraPrivMask)
}

// WFI reports whether the hart is latched waiting for an interrupt.
func (s *State) WFI() bool {
	return s.Extraflags&ExtraWFIBit != 0
}

func (s *State) setWFI(v bool) {
	if v {
		s.Extraflags |= ExtraWFIBit
	} else {
		s.Extraflags &^= ExtraWFIBit
	}
}

// reservation returns the load-reservation address packed into the
// upper bits of Extraflags, in 8-byte units.
func (s *State) reservation() uint32 {
	return s.Extraflags >> ExtraReservShift
}

// setReservation records ea (rounded down to its 8-byte unit) as the
// outstanding LR.W reservation.
func (s *State) setReservation(ea uint32) {
	s.Extraflags = (s.Extraflags & (ExtraPrivMask | ExtraWFIBit)) | ((ea >> 3) << ExtraReservShift)
}
