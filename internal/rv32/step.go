package rv32

import "encoding/binary"

// core bundles the per-call references a step needs: the processor
// state, the bus it executes against, and the opaque address the host
// wants threaded through MMIO callbacks. It carries no state of
// its own across Step calls.
type core struct {
	st       *State
	bus      *Bus
	procAddr uint64
}

func (st *State) retire() {
	st.Cyclel++
	if st.Cyclel == 0 {
		st.Cycleh++
	}
}

// Step advances st by at most count instructions against bus, having
// first folded elapsedUs microseconds into the architectural timer and
// arbitrated any resulting interrupt (§4.2). procAddr is passed through
// unchanged to every MMIO host callback made during this call; the CSR
// hook does not receive it.
//
// Return value: StepOK (0) on ordinary budget exhaustion or a trap
// that itself completed; StepWFI (1) if the hart entered or remained
// in wait-for-interrupt without retiring anything; any other value is
// the 32-bit word stored to the SYSCON address, reinterpreted as a
// termination code for the host to act on.
func Step(st *State, bus *Bus, procAddr uint64, elapsedUs uint32, count uint32) int32 {
	st.checkTimerInterrupt(elapsedUs)

	if st.WFI() {
		return StepWFI
	}

	c := &core{st: st, bus: bus, procAddr: procAddr}

	var pendingCause uint32
	havePending := false
	if st.pendingTimerTrap() {
		pendingCause = CauseMachineTimer
		st.PC -= 4
		havePending = true
	}

	for i := uint32(0); i < count; i++ {
		if havePending {
			c.deliverTrap(pendingCause, 0)
			havePending = false
			st.PC += 4
			st.retire()
			continue
		}

		ir, ferr := c.fetch()
		if ferr != nil {
			c.deliverTrapFromErr(ferr)
			st.PC += 4
			st.retire()
			continue
		}

		err := c.dispatch(ir)
		switch e := err.(type) {
		case nil:
			st.PC += 4
			st.retire()
		case errWFI:
			return StepWFI
		case errSyscon:
			st.PC += 4
			st.retire()
			return int32(e.value)
		case *Exception:
			c.deliverTrap(e.Cause, e.Tval)
			st.PC += 4
			st.retire()
		default:
			c.deliverTrap(CauseIllegalInsn, st.PC)
			st.PC += 4
			st.retire()
		}
	}
	return StepOK
}

func (c *core) fetch() (uint32, error) {
	st := c.st
	ofs := st.PC - c.bus.RAMBase
	if ofs >= uint32(len(c.bus.RAM)) {
		return 0, exception(CauseInsnFault, st.PC)
	}
	if ofs&3 != 0 {
		return 0, exception(CauseInsnMisaligned, st.PC)
	}
	return binary.LittleEndian.Uint32(c.bus.RAM[ofs:]), nil
}

func (c *core) deliverTrapFromErr(err error) {
	if exc, ok := err.(*Exception); ok {
		c.deliverTrap(exc.Cause, exc.Tval)
		return
	}
	c.deliverTrap(CauseIllegalInsn, c.st.PC)
}
