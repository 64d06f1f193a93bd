package rv32

import "math/bits"

// Opcode groups recognized by dispatch (§4.4).
const (
	opLUI     uint32 = 0x37
	opAUIPC   uint32 = 0x17
	opJAL     uint32 = 0x6F
	opJALR    uint32 = 0x67
	opBranch  uint32 = 0x63
	opLoad    uint32 = 0x03
	opStore   uint32 = 0x23
	opImm     uint32 = 0x13
	opReg     uint32 = 0x33
	opFence   uint32 = 0x0F
	opAMO     uint32 = 0x2F
	opSystem  uint32 = 0x73
)

// errWFI is the sentinel returned by the WFI handler: not a trap, a
// zero-retirement early return from Step.
type errWFI struct{}

func (errWFI) Error() string { return "wfi" }

// errSyscon is the sentinel returned when a store targets the SYSCON
// address; Step turns it into the step return code after completing
// this instruction's retirement.
type errSyscon struct{ value uint32 }

func (errSyscon) Error() string { return "syscon store" }

func (st *State) writeback(ridx, val uint32) {
	if ridx != 0 {
		st.Regs[ridx] = val
	}
}

// dispatch executes one already-fetched instruction word. On return,
// either the instruction completed normally (st.PC staged for the
// common +4 advance, possibly via the -4 convention used by jumps and
// taken branches), or err is one of: *Exception (deliver a trap),
// errWFI (zero-retirement early return), errSyscon (retire normally,
// then stop with the stored value).
func (c *core) dispatch(ir uint32) error {
	st := c.st
	op := opcode(ir)
	ridx := rd(ir)
	rs1 := st.Regs[rs1id(ir)]
	rs2 := st.Regs[rs2id(ir)]

	switch op {
	case opLUI:
		st.writeback(ridx, immU(ir))

	case opAUIPC:
		st.writeback(ridx, st.PC+immU(ir))

	case opJAL:
		st.writeback(ridx, st.PC+4)
		st.PC = st.PC + immJ(ir) - 4

	case opJALR:
		target := (rs1 + immI(ir)) &^ 1
		st.writeback(ridx, st.PC+4)
		st.PC = target - 4

	case opBranch:
		taken, err := branchTaken(funct3(ir), rs1, rs2)
		if err != nil {
			return err
		}
		if taken {
			st.PC = st.PC + immB(ir) - 4
		}

	case opLoad:
		return c.execLoad(ir, ridx, rs1)

	case opStore:
		return c.execStore(ir, rs1, rs2)

	case opImm:
		val, err := aluOp(funct3(ir), rs1, immI(ir), (ir>>30)&1 != 0, true)
		if err != nil {
			return err
		}
		st.writeback(ridx, val)

	case opReg:
		val, err := execOP(ir, rs1, rs2)
		if err != nil {
			return err
		}
		st.writeback(ridx, val)

	case opFence:
		// FENCE / FENCE.I: no-op, no writeback.

	case opAMO:
		return c.execAMO(ir, ridx, rs1, rs2)

	case opSystem:
		return c.execSystem(ir, ridx, rs1)

	default:
		return exception(CauseIllegalInsn, st.PC)
	}
	return nil
}

func branchTaken(f3, rs1, rs2 uint32) (bool, error) {
	switch f3 {
	case 0: // BEQ
		return rs1 == rs2, nil
	case 1: // BNE
		return rs1 != rs2, nil
	case 4: // BLT
		return int32(rs1) < int32(rs2), nil
	case 5: // BGE
		return int32(rs1) >= int32(rs2), nil
	case 6: // BLTU
		return rs1 < rs2, nil
	case 7: // BGEU
		return rs1 >= rs2, nil
	default:
		return false, exception(CauseIllegalInsn, 0)
	}
}

func (c *core) execLoad(ir uint32, ridx, rs1 uint32) error {
	ea := rs1 + immI(ir)
	f3 := funct3(ir)
	var width uint32
	switch f3 {
	case 0, 4:
		width = 1
	case 1, 5:
		width = 2
	case 2:
		width = 4
	default:
		return exception(CauseIllegalInsn, c.st.PC)
	}
	raw, err := c.bus.load(c.st, c.procAddr, ea, width)
	if err != nil {
		return err
	}
	// The funct3-selected width/sign handling only applies to RAM-backed
	// loads. MMIO reads — the inline timer registers and anything
	// delegated to the host handler — answer with the full word
	// regardless of funct3, matching the reference engine's bus
	// arbitration.
	if !c.bus.inRAM(ea) {
		c.st.writeback(ridx, raw)
		return nil
	}
	var val uint32
	switch f3 {
	case 0: // LB
		val = signExtend(raw&0xFF, 8)
	case 1: // LH
		val = signExtend(raw&0xFFFF, 16)
	case 2: // LW
		val = raw
	case 4: // LBU
		val = raw & 0xFF
	case 5: // LHU
		val = raw & 0xFFFF
	}
	c.st.writeback(ridx, val)
	return nil
}

func (c *core) execStore(ir uint32, rs1, rs2 uint32) error {
	ea := rs1 + immS(ir)
	var width uint32
	switch funct3(ir) {
	case 0:
		width = 1
	case 1:
		width = 2
	case 2:
		width = 4
	default:
		return exception(CauseIllegalInsn, c.st.PC)
	}
	syscon, err := c.bus.store(c.st, c.procAddr, ea, width, rs2)
	if err != nil {
		return err
	}
	if syscon {
		return errSyscon{value: rs2}
	}
	return nil
}

// aluOp implements the OP-IMM / OP shared arithmetic, excluding the
// RV32M multiply/divide family (handled separately by execOP).
// immOrReg is rs2 for OP, the sign-extended immediate for OP-IMM;
// altFlag reports bit 30 of the instruction (SUB vs ADD, SRA vs SRL)
// and is only honored for OP-IMM shifts and unconditionally for OP.
func aluOp(f3, rs1, immOrReg uint32, altFlag bool, isImm bool) (uint32, error) {
	switch f3 {
	case 0: // ADDI / ADD,SUB
		if altFlag && !isImm {
			return rs1 - immOrReg, nil
		}
		return rs1 + immOrReg, nil
	case 1: // SLLI / SLL
		return rs1 << (immOrReg & 0x1F), nil
	case 2: // SLTI / SLT
		if int32(rs1) < int32(immOrReg) {
			return 1, nil
		}
		return 0, nil
	case 3: // SLTIU / SLTU
		if rs1 < immOrReg {
			return 1, nil
		}
		return 0, nil
	case 4: // XORI / XOR
		return rs1 ^ immOrReg, nil
	case 5: // SRLI/SRAI / SRL,SRA
		sh := immOrReg & 0x1F
		if altFlag {
			return uint32(int32(rs1) >> sh), nil
		}
		return rs1 >> sh, nil
	case 6: // ORI / OR
		return rs1 | immOrReg, nil
	case 7: // ANDI / AND
		return rs1 & immOrReg, nil
	}
	return 0, exception(CauseIllegalInsn, 0)
}

func execOP(ir uint32, rs1, rs2 uint32) (uint32, error) {
	if funct7(ir)&0x01 != 0 { // RV32M
		return execM(funct3(ir), rs1, rs2)
	}
	alt := funct7(ir)&0x20 != 0
	return aluOp(funct3(ir), rs1, rs2, alt, false)
}

// execM implements the RV32M multiply/divide family with the
// architectural division-by-zero and signed-overflow results.
func execM(f3, rs1, rs2 uint32) (uint32, error) {
	switch f3 {
	case 0: // MUL
		return rs1 * rs2, nil
	case 1: // MULH
		return uint32(mulh(int32(rs1), int32(rs2))), nil
	case 2: // MULHSU
		return uint32(mulhsu(int32(rs1), rs2)), nil
	case 3: // MULHU
		hi, _ := bits.Mul32(rs1, rs2)
		return hi, nil
	case 4: // DIV
		a, b := int32(rs1), int32(rs2)
		switch {
		case b == 0:
			return 0xFFFFFFFF, nil
		case a == -0x80000000 && b == -1:
			return uint32(a), nil
		default:
			return uint32(a / b), nil
		}
	case 5: // DIVU
		if rs2 == 0 {
			return 0xFFFFFFFF, nil
		}
		return rs1 / rs2, nil
	case 6: // REM
		a, b := int32(rs1), int32(rs2)
		switch {
		case b == 0:
			return rs1, nil
		case a == -0x80000000 && b == -1:
			return 0, nil
		default:
			return uint32(a % b), nil
		}
	case 7: // REMU
		if rs2 == 0 {
			return rs1, nil
		}
		return rs1 % rs2, nil
	}
	return 0, exception(CauseIllegalInsn, 0)
}

func mulh(a, b int32) int32 {
	return int32((int64(a) * int64(b)) >> 32)
}

func mulhsu(a int32, b uint32) int32 {
	return int32((int64(a) * int64(b)) >> 32)
}
