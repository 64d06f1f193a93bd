package rv32

import "encoding/binary"

// RV32A funct5 selectors (bits 27..31 of the instruction word).
const (
	amoLR      uint32 = 0x02
	amoSC      uint32 = 0x03
	amoSWAP    uint32 = 0x01
	amoADD     uint32 = 0x00
	amoXOR     uint32 = 0x04
	amoAND     uint32 = 0x0C
	amoOR      uint32 = 0x08
	amoMIN     uint32 = 0x10
	amoMAX     uint32 = 0x14
	amoMINU    uint32 = 0x18
	amoMAXU    uint32 = 0x1C
)

// execAMO implements RV32A, word-width only. The effective address is
// rs1 directly (no immediate); MMIO atomics are not supported, and
// out-of-RAM targets fault with cause 7, matching the reference
// engine's STORE/AMO access-fault behaviour for atomics.
func (c *core) execAMO(ir uint32, ridx, rs1, rs2 uint32) error {
	ea := rs1
	if !c.bus.inRAM(ea) {
		return exception(CauseStoreFault, ea)
	}
	ofs := ea - c.bus.RAMBase
	cur := binary.LittleEndian.Uint32(c.bus.RAM[ofs:])

	switch funct5(ir) {
	case amoLR:
		c.st.setReservation(ea)
		c.st.writeback(ridx, cur)
		return nil

	case amoSC:
		if c.st.reservation() == ea>>3 {
			binary.LittleEndian.PutUint32(c.bus.RAM[ofs:], rs2)
			c.st.writeback(ridx, 0)
		} else {
			c.st.writeback(ridx, 1)
		}
		return nil

	case amoSWAP:
		binary.LittleEndian.PutUint32(c.bus.RAM[ofs:], rs2)
	case amoADD:
		binary.LittleEndian.PutUint32(c.bus.RAM[ofs:], cur+rs2)
	case amoXOR:
		binary.LittleEndian.PutUint32(c.bus.RAM[ofs:], cur^rs2)
	case amoAND:
		binary.LittleEndian.PutUint32(c.bus.RAM[ofs:], cur&rs2)
	case amoOR:
		binary.LittleEndian.PutUint32(c.bus.RAM[ofs:], cur|rs2)
	case amoMIN:
		if int32(rs2) < int32(cur) {
			binary.LittleEndian.PutUint32(c.bus.RAM[ofs:], rs2)
		} else {
			binary.LittleEndian.PutUint32(c.bus.RAM[ofs:], cur)
		}
	case amoMAX:
		if int32(rs2) > int32(cur) {
			binary.LittleEndian.PutUint32(c.bus.RAM[ofs:], rs2)
		} else {
			binary.LittleEndian.PutUint32(c.bus.RAM[ofs:], cur)
		}
	case amoMINU:
		if rs2 < cur {
			binary.LittleEndian.PutUint32(c.bus.RAM[ofs:], rs2)
		} else {
			binary.LittleEndian.PutUint32(c.bus.RAM[ofs:], cur)
		}
	case amoMAXU:
		if rs2 > cur {
			binary.LittleEndian.PutUint32(c.bus.RAM[ofs:], rs2)
		} else {
			binary.LittleEndian.PutUint32(c.bus.RAM[ofs:], cur)
		}
	default:
		return exception(CauseIllegalInsn, c.st.PC)
	}

	c.st.writeback(ridx, cur)
	return nil
}
