package rv32

// readCSR returns the current value of a recognized CSR, or delegates
// to the host CSR extension hook. Like writeCSR, it raises no fault of
// its own for an unknown CSR; only an error from the hook is returned.
func (c *core) readCSR(csrno uint16) (uint32, error) {
	st := c.st
	switch csrno {
	case CSRMscratch:
		return st.Mscratch, nil
	case CSRMtvec:
		return st.Mtvec, nil
	case CSRMie:
		return st.Mie, nil
	case CSRCycle:
		return st.Cyclel, nil
	case CSRMip:
		return st.Mip, nil
	case CSRMepc:
		return st.Mepc, nil
	case CSRMstatus:
		return st.Mstatus, nil
	case CSRMcause:
		return st.Mcause, nil
	case CSRMtval:
		return st.Mtval, nil
	case CSRMvendorid:
		return mvendoridValue, nil
	case CSRMisa:
		return misaValue, nil
	default:
		return c.bus.readCSR(csrno)
	}
}

// writeCSR stores val into a recognized CSR. Writes to the low half of
// the cycle counter are silently discarded, matching §4.6.
func (c *core) writeCSR(csrno uint16, val uint32) error {
	st := c.st
	switch csrno {
	case CSRMscratch:
		st.Mscratch = val
	case CSRMtvec:
		st.Mtvec = val
	case CSRMie:
		st.Mie = val
	case CSRCycle:
		// low half is read-only from the guest's perspective
	case CSRMip:
		st.Mip = val
	case CSRMepc:
		st.Mepc = val
	case CSRMstatus:
		st.Mstatus = val
	case CSRMcause:
		st.Mcause = val
	case CSRMtval:
		st.Mtval = val
	case CSRMvendorid, CSRMisa:
		// read-only
	default:
		return c.bus.writeCSR(csrno, val)
	}
	return nil
}

// execSystem implements opcode 0x73: Zicsr and the privileged/trap
// subgroup (§4.6).
func (c *core) execSystem(ir uint32, ridx, rs1 uint32) error {
	st := c.st
	f3 := funct3(ir)

	switch f3 {
	case 1, 2, 3, 5, 6, 7:
		return c.execCSR(ir, f3, ridx, rs1)
	case 0:
		return c.execPrivileged(ir)
	default:
		return exception(CauseIllegalInsn, st.PC)
	}
}

func (c *core) execCSR(ir uint32, f3 uint32, ridx, rs1 uint32) error {
	csrno := uint16(ir >> 20)
	rval, err := c.readCSR(csrno)
	if err != nil {
		return err
	}

	var src uint32
	if f3 <= 3 {
		src = rs1
	} else {
		src = rs1id(ir)
	}

	var newVal uint32
	switch f3 {
	case 1, 5: // CSRRW / CSRRWI
		newVal = src
	case 2, 6: // CSRRS / CSRRSI
		newVal = rval | src
	case 3, 7: // CSRRC / CSRRCI
		newVal = rval &^ src
	}
	if err := c.writeCSR(csrno, newVal); err != nil {
		return err
	}
	c.st.writeback(ridx, rval)
	return nil
}

func (c *core) execPrivileged(ir uint32) error {
	st := c.st
	switch ir >> 20 {
	case 0x000: // ECALL
		if st.Privilege() == PrivMachine {
			return exception(CauseEcallM, st.PC)
		}
		return exception(CauseEcallU, st.PC)
	case 0x001: // EBREAK
		return exception(CauseBreakpoint, st.PC)
	case 0x302: // MRET
		priorMPIE := st.Mstatus&MstatusMPIEBit != 0
		priorMPP := (st.Mstatus & MstatusMPPMask) >> MstatusMPPLow
		if priorMPIE {
			st.Mstatus |= MstatusMIEBit
		} else {
			st.Mstatus &^= MstatusMIEBit
		}
		st.Mstatus |= MstatusMPIEBit
		st.Mstatus &^= MstatusMPPMask
		st.setPrivilege(priorMPP)
		st.PC = st.Mepc - 4
		return nil
	case 0x105: // WFI
		st.setWFI(true)
		st.PC += 4
		return errWFI{}
	default:
		return exception(CauseIllegalInsn, st.PC)
	}
}

// deliverTrap implements the unified trap epilogue (§4.6). It is
// invoked both for synthesized interrupts (arbitrated once per Step
// call) and for exceptions raised during dispatch.
func (c *core) deliverTrap(cause, tval uint32) {
	st := c.st
	if cause&CauseInterruptBit != 0 {
		st.Mcause = cause
		st.Mtval = 0
		st.PC += 4
	} else {
		st.Mcause = cause
		if cause == CauseLoadFault || cause == CauseStoreFault {
			st.Mtval = tval
		} else {
			st.Mtval = st.PC
		}
	}
	st.Mepc = st.PC

	mie := st.Mstatus&MstatusMIEBit != 0
	priv := st.Privilege()
	st.Mstatus = 0
	if mie {
		st.Mstatus |= MstatusMPIEBit
	}
	st.Mstatus |= priv << MstatusMPPLow

	st.PC = st.Mtvec - 4
	st.setPrivilege(PrivMachine)
}

// checkTimerInterrupt implements §4.2 steps 1-2: advance the 64-bit
// timer by elapsedUs with carry, then latch or clear mip.MTIP.
func (st *State) checkTimerInterrupt(elapsedUs uint32) {
	newLow := st.Timerl + elapsedUs
	if newLow < st.Timerl {
		st.Timerh++
	}
	st.Timerl = newLow

	fire := (st.Timerh > st.Timermatchh ||
		(st.Timerh == st.Timermatchh && st.Timerl > st.Timermatchl)) &&
		(st.Timermatchl|st.Timermatchh) != 0

	if fire {
		st.setWFI(false)
		st.Mip |= MipMTIPBit
	} else {
		st.Mip &^= MipMTIPBit
	}
}

// pendingTimerTrap reports whether a machine-timer interrupt is both
// latched and enabled (§4.2 step 4).
func (st *State) pendingTimerTrap() bool {
	return st.Mip&MipMTIPBit != 0 &&
		st.Mie&MieMTIEBit != 0 &&
		st.Mstatus&MstatusMIEBit != 0
}
