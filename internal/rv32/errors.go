package rv32

import "fmt"

// Exception represents a RISC-V trap raised during instruction
// execution: an illegal opcode, a misaligned or out-of-range memory
// access, a breakpoint, or an ecall. Handlers return it instead of
// mutating mcause/mepc/mtval directly; Step delivers it through the
// unified trap epilogue. Synthesized timer interrupts do not pass
// through it: Step hands them to the epilogue directly.
type Exception struct {
	Cause uint32
	Tval  uint32
}

func (e *Exception) Error() string {
	if e.Cause&CauseInterruptBit != 0 {
		return fmt.Sprintf("interrupt cause=0x%x", e.Cause)
	}
	return fmt.Sprintf("trap cause=%d tval=0x%x", e.Cause, e.Tval)
}

func exception(cause, tval uint32) error {
	return &Exception{Cause: cause, Tval: tval}
}
