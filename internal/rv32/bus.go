package rv32

import "encoding/binary"

// MMIOHandler is the host collaborator for memory-mapped addresses the
// engine does not decode itself: anything in the MMIO window other
// than the inline timer/timer-match/SYSCON registers. procAddr is an
// opaque value the host supplied to Step and passes through unchanged,
// letting the same handler serve several guest instances.
type MMIOHandler interface {
	LoadControl(procAddr uint64, addr uint32) (uint32, error)
	StoreControl(procAddr uint64, addr uint32, value uint32) error
}

// CSRHandler is the host collaborator for CSR numbers the engine does
// not recognize in its own table (§4.6).
type CSRHandler interface {
	ReadCSR(csrno uint16) (uint32, error)
	WriteCSR(csrno uint16, value uint32) error
}

// Bus owns the guest's RAM image and routes loads/stores across it and
// the MMIO window. It holds no processor state; Step passes the
// relevant State fields explicitly where the bus needs them (timer
// registers for the two inline CLNT addresses).
type Bus struct {
	RAM     []byte
	RAMBase uint32

	MMIO MMIOHandler
	CSR  CSRHandler
}

// NewBus wraps an existing RAM-sized byte slice. The slice is owned by
// the caller and must remain valid and unaliased for the lifetime of
// every Step call that uses this Bus.
func NewBus(ram []byte, ramBase uint32, mmio MMIOHandler, csr CSRHandler) *Bus {
	return &Bus{RAM: ram, RAMBase: ramBase, MMIO: mmio, CSR: csr}
}

// inRAM matches the reference engine's bound check: ea-base < ram_size-3,
// applied uniformly regardless of access width (byte/half/word accesses
// are all at most 4 bytes, and the engine does not separately enforce
// natural alignment — a misaligned word access near the top of RAM is
// the host image's problem, not a fault the core raises).
func (b *Bus) inRAM(ea uint32) bool {
	ofs := ea - b.RAMBase
	return ofs < uint32(len(b.RAM))-3
}

// load reads a width-byte little-endian value at ea. st is consulted
// for the two inline timer-read addresses; only width 4 ever
// targets them in practice but the check is width-agnostic to match
// the reference engine's behaviour of answering a full word regardless
// of funct3 on those two addresses.
func (b *Bus) load(st *State, procAddr uint64, ea uint32, width uint32) (uint32, error) {
	if b.inRAM(ea) {
		ofs := ea - b.RAMBase
		switch width {
		case 1:
			return uint32(b.RAM[ofs]), nil
		case 2:
			return uint32(binary.LittleEndian.Uint16(b.RAM[ofs:])), nil
		case 4:
			return binary.LittleEndian.Uint32(b.RAM[ofs:]), nil
		}
	}
	if ea >= MMIOBase && ea < MMIOEnd {
		switch ea {
		case AddrTimerL:
			return st.Timerl, nil
		case AddrTimerH:
			return st.Timerh, nil
		}
		if b.MMIO != nil {
			return b.MMIO.LoadControl(procAddr, ea)
		}
		return 0, nil
	}
	return 0, exception(CauseLoadFault, ea)
}

// store writes a width-byte little-endian value to ea, or returns
// syscon == true when ea is the SYSCON address: the caller
// (Step) is responsible for turning that into an early return.
func (b *Bus) store(st *State, procAddr uint64, ea uint32, width uint32, value uint32) (syscon bool, err error) {
	if b.inRAM(ea) {
		ofs := ea - b.RAMBase
		switch width {
		case 1:
			b.RAM[ofs] = byte(value)
		case 2:
			binary.LittleEndian.PutUint16(b.RAM[ofs:], uint16(value))
		case 4:
			binary.LittleEndian.PutUint32(b.RAM[ofs:], value)
		}
		return false, nil
	}
	if ea >= MMIOBase && ea < MMIOEnd {
		switch ea {
		case AddrTimerMatchL:
			st.Timermatchl = value
			return false, nil
		case AddrTimerMatchH:
			st.Timermatchh = value
			return false, nil
		case AddrSyscon:
			return true, nil
		}
		if b.MMIO != nil {
			return false, b.MMIO.StoreControl(procAddr, ea, value)
		}
		return false, nil
	}
	return false, exception(CauseStoreFault, ea)
}

func (b *Bus) readCSR(csrno uint16) (uint32, error) {
	if b.CSR != nil {
		return b.CSR.ReadCSR(csrno)
	}
	return 0, nil
}

func (b *Bus) writeCSR(csrno uint16, value uint32) error {
	if b.CSR != nil {
		return b.CSR.WriteCSR(csrno, value)
	}
	return nil
}
