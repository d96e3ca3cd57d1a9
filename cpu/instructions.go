package cpu

import "github.com/kallenhart/dmgcore/bit"

// This file holds the instruction-class handlers the opcode table
// dispatches into. Each handler is generic over its operands (named via
// the Operand enum) so a single function serves every register / (HL) /
// immediate combination an instruction class supports, instead of one
// hand-written function per concrete register.

// --- stack helpers ---

func (cpu *CPU) pushStack(value uint16) {
	cpu.sp--
	cpu.fail(cpu.bus.WriteByte(cpu.sp, bit.High(value)))
	cpu.sp--
	cpu.fail(cpu.bus.WriteByte(cpu.sp, bit.Low(value)))
}

func (cpu *CPU) popStack() uint16 {
	low, err := cpu.bus.ReadByte(cpu.sp)
	cpu.fail(err)
	cpu.sp++
	high, err := cpu.bus.ReadByte(cpu.sp)
	cpu.fail(err)
	cpu.sp++
	return bit.Combine(high, low)
}

// --- 8-bit load ---

func (cpu *CPU) ld8(dst, src Operand) {
	cpu.setReg8(dst, cpu.getReg8(src))
}

func (cpu *CPU) ld16(dst, src Operand) {
	cpu.setReg16(dst, cpu.getReg16(src))
}

// ldFromIndirect / ldToIndirect load A from / store A to the byte at address.
func (cpu *CPU) ldFromIndirect(address uint16) {
	v, err := cpu.bus.ReadByte(address)
	cpu.fail(err)
	cpu.a = v
}

func (cpu *CPU) ldToIndirect(address uint16) {
	cpu.fail(cpu.bus.WriteByte(address, cpu.a))
}

// ldIndirectHLAndStepA implements LD (HL+),A / LD (HL-),A and their
// A,(HL±) counterparts via the sign of delta.
func (cpu *CPU) ldIndirectHLAndStepA(toMemory bool, delta int) {
	addr16 := cpu.hl()
	if toMemory {
		cpu.fail(cpu.bus.WriteByte(addr16, cpu.a))
	} else {
		v, err := cpu.bus.ReadByte(addr16)
		cpu.fail(err)
		cpu.a = v
	}
	cpu.setHL(uint16(int(addr16) + delta))
}

// ldNNSP implements LD (a16),SP: writes SP little-endian at the immediate
// address.
func (cpu *CPU) ldNNSP() {
	cpu.fail(cpu.bus.WriteWord(cpu.operand, cpu.sp))
}

// ldHLSPr8 implements LD HL,SP+r8, sharing its flag computation with
// addSPImm8.
func (cpu *CPU) ldHLSPr8() {
	cpu.setHL(cpu.addSPSigned(int8(cpu.operand)))
}

// --- 8-bit arithmetic ---

func halfCarryAdd(a, b, carryIn uint8) bool {
	return (a&0xF)+(b&0xF)+carryIn > 0xF
}

func halfCarrySub(a, b, carryIn uint8) bool {
	return int(a&0xF)-int(b&0xF)-int(carryIn) < 0
}

func (cpu *CPU) add8(src Operand) {
	value := cpu.getReg8(src)
	cpu.addToA(value, 0)
}

func (cpu *CPU) adc8(src Operand) {
	value := cpu.getReg8(src)
	cpu.addToA(value, cpu.flagToBit(flagC))
}

// addToA implements the composite ADD/ADC formula: a single sum folding in
// the incoming carry, so the half-carry and carry flags are derived from
// one computation rather than two sequenced wrapping adds.
func (cpu *CPU) addToA(value, carryIn uint8) {
	a := cpu.a
	sum := uint16(a) + uint16(value) + uint16(carryIn)
	h := halfCarryAdd(a, value, carryIn)

	cpu.a = uint8(sum)
	cpu.setFlagToCondition(flagZ, cpu.a == 0)
	cpu.resetFlag(flagN)
	cpu.setFlagToCondition(flagH, h)
	cpu.setFlagToCondition(flagC, sum > 0xFF)
}

func (cpu *CPU) sub8(src Operand) {
	value := cpu.getReg8(src)
	cpu.subFromA(value, 0, true)
}

func (cpu *CPU) sbc8(src Operand) {
	value := cpu.getReg8(src)
	cpu.subFromA(value, cpu.flagToBit(flagC), true)
}

func (cpu *CPU) cp8(src Operand) {
	value := cpu.getReg8(src)
	cpu.subFromA(value, 0, false)
}

// subFromA implements the composite SUB/SBC/CP formula; store controls
// whether the result is written back to A (false for CP).
func (cpu *CPU) subFromA(value, carryIn uint8, store bool) {
	a := cpu.a
	diff := int(a) - int(value) - int(carryIn)
	h := halfCarrySub(a, value, carryIn)

	result := uint8(diff)
	cpu.setFlagToCondition(flagZ, result == 0)
	cpu.setFlag(flagN)
	cpu.setFlagToCondition(flagH, h)
	cpu.setFlagToCondition(flagC, diff < 0)

	if store {
		cpu.a = result
	}
}

func (cpu *CPU) and8(src Operand) {
	cpu.a &= cpu.getReg8(src)
	cpu.setFlagToCondition(flagZ, cpu.a == 0)
	cpu.resetFlag(flagN)
	cpu.setFlag(flagH)
	cpu.resetFlag(flagC)
}

func (cpu *CPU) or8(src Operand) {
	cpu.a |= cpu.getReg8(src)
	cpu.setFlagToCondition(flagZ, cpu.a == 0)
	cpu.resetFlag(flagN)
	cpu.resetFlag(flagH)
	cpu.resetFlag(flagC)
}

func (cpu *CPU) xor8(src Operand) {
	cpu.a ^= cpu.getReg8(src)
	cpu.setFlagToCondition(flagZ, cpu.a == 0)
	cpu.resetFlag(flagN)
	cpu.resetFlag(flagH)
	cpu.resetFlag(flagC)
}

// --- 8-bit inc/dec ---

func (cpu *CPU) inc8(op Operand) {
	old := cpu.getReg8(op)
	value := old + 1
	cpu.setReg8(op, value)

	cpu.setFlagToCondition(flagZ, value == 0)
	cpu.resetFlag(flagN)
	cpu.setFlagToCondition(flagH, old&0x0F == 0x0F)
}

func (cpu *CPU) dec8(op Operand) {
	old := cpu.getReg8(op)
	value := old - 1
	cpu.setReg8(op, value)

	cpu.setFlagToCondition(flagZ, value == 0)
	cpu.setFlag(flagN)
	cpu.setFlagToCondition(flagH, old&0x0F == 0x00)
}

// --- 16-bit arithmetic ---

func (cpu *CPU) inc16(op Operand) {
	cpu.setReg16(op, cpu.getReg16(op)+1)
}

func (cpu *CPU) dec16(op Operand) {
	cpu.setReg16(op, cpu.getReg16(op)-1)
}

func (cpu *CPU) addHL(op Operand) {
	hl := cpu.hl()
	rr := cpu.getReg16(op)
	result := uint32(hl) + uint32(rr)

	cpu.resetFlag(flagN)
	cpu.setFlagToCondition(flagH, (hl&0x0FFF)+(rr&0x0FFF) > 0x0FFF)
	cpu.setFlagToCondition(flagC, result > 0xFFFF)
	cpu.setHL(uint16(result))
}

// addSPSigned implements the shared ADD SP,r8 / LD HL,SP+r8 arithmetic:
// flags are computed from the low byte of SP plus the unsigned byte value
// of r8, per hardware behavior, while the result sign-extends r8.
func (cpu *CPU) addSPSigned(r8 int8) uint16 {
	sp := cpu.sp
	value := uint16(int16(r8))
	result := sp + value

	low := uint8(sp)
	operand := uint8(r8)

	cpu.resetFlag(flagZ)
	cpu.resetFlag(flagN)
	cpu.setFlagToCondition(flagH, (low&0xF)+(operand&0xF) > 0xF)
	cpu.setFlagToCondition(flagC, uint16(low)+uint16(operand) > 0xFF)

	return result
}

func (cpu *CPU) addSPImm8() {
	cpu.sp = cpu.addSPSigned(int8(cpu.operand))
}

// --- rotates / shifts ---

// rotateResult is the shared shape produced by every rotate/shift/swap
// class handler: the new value and the carry-out bit.
type rotateResult struct {
	value uint8
	carry bool
}

func rlc(v uint8) rotateResult {
	carry := v&0x80 != 0
	return rotateResult{value: (v << 1) | (v >> 7), carry: carry}
}

func (cpu *CPU) rl(v uint8) rotateResult {
	carry := v&0x80 != 0
	return rotateResult{value: (v << 1) | cpu.flagToBit(flagC), carry: carry}
}

func rrc(v uint8) rotateResult {
	carry := v&0x01 != 0
	return rotateResult{value: (v >> 1) | (v << 7), carry: carry}
}

func (cpu *CPU) rr(v uint8) rotateResult {
	carry := v&0x01 != 0
	return rotateResult{value: (v >> 1) | (cpu.flagToBit(flagC) << 7), carry: carry}
}

func sla(v uint8) rotateResult {
	return rotateResult{value: v << 1, carry: v&0x80 != 0}
}

func sra(v uint8) rotateResult {
	return rotateResult{value: (v >> 1) | (v & 0x80), carry: v&0x01 != 0}
}

func srl(v uint8) rotateResult {
	return rotateResult{value: v >> 1, carry: v&0x01 != 0}
}

func swap(v uint8) rotateResult {
	return rotateResult{value: (v << 4) | (v >> 4), carry: false}
}

// rotateUnprefixedA implements RLCA/RLA/RRCA/RRA: these always reset Z,
// unlike their CB-prefixed counterparts which set Z from the result.
func (cpu *CPU) rotateUnprefixedA(fn func(uint8) rotateResult) {
	r := fn(cpu.a)
	cpu.a = r.value
	cpu.resetFlag(flagZ)
	cpu.resetFlag(flagN)
	cpu.resetFlag(flagH)
	cpu.setFlagToCondition(flagC, r.carry)
}

// rotateCB implements the CB-prefixed rotate/shift/swap class, operating
// on any of the 8 register/(HL) operands and setting Z from the result.
func (cpu *CPU) rotateCB(op Operand, fn func(uint8) rotateResult) {
	r := fn(cpu.getReg8(op))
	cpu.setReg8(op, r.value)
	cpu.setFlagToCondition(flagZ, r.value == 0)
	cpu.resetFlag(flagN)
	cpu.resetFlag(flagH)
	cpu.setFlagToCondition(flagC, r.carry)
}

// --- bit test/set/reset ---

func (cpu *CPU) bitTest(bitIndex uint8, op Operand) {
	value := cpu.getReg8(op)
	cpu.setFlagToCondition(flagZ, !bit.IsSet(bitIndex, value))
	cpu.resetFlag(flagN)
	cpu.setFlag(flagH)
}

func (cpu *CPU) bitSet(bitIndex uint8, op Operand) {
	cpu.setReg8(op, bit.Set(bitIndex, cpu.getReg8(op)))
}

func (cpu *CPU) bitRes(bitIndex uint8, op Operand) {
	cpu.setReg8(op, bit.Reset(bitIndex, cpu.getReg8(op)))
}

// --- misc / control ---

func (cpu *CPU) daa() {
	a := cpu.a
	carry := cpu.isSetFlag(flagC)
	halfCarry := cpu.isSetFlag(flagH)

	if !cpu.isSetFlag(flagN) {
		if carry || a > 0x99 {
			a += 0x60
			carry = true
		}
		if halfCarry || (a&0x0F) > 0x09 {
			a += 0x06
		}
	} else {
		if carry {
			a -= 0x60
		}
		if halfCarry {
			a -= 0x06
		}
	}

	cpu.a = a
	cpu.setFlagToCondition(flagZ, cpu.a == 0)
	cpu.resetFlag(flagH)
	cpu.setFlagToCondition(flagC, carry)
}

func (cpu *CPU) cpl() {
	cpu.a = ^cpu.a
	cpu.setFlag(flagN)
	cpu.setFlag(flagH)
}

func (cpu *CPU) ccf() {
	cpu.setFlagToCondition(flagC, !cpu.isSetFlag(flagC))
	cpu.resetFlag(flagN)
	cpu.resetFlag(flagH)
}

func (cpu *CPU) scf() {
	cpu.setFlag(flagC)
	cpu.resetFlag(flagN)
	cpu.resetFlag(flagH)
}

// --- jumps / calls / returns ---

func (cpu *CPU) jump(address uint16) {
	cpu.pc = address
	cpu.inhibitPC = true
}

func (cpu *CPU) jr() {
	offset := int8(cpu.operand)
	cpu.jump(uint16(int32(cpu.pc) + int32(cpu.size) + int32(offset)))
}

func (cpu *CPU) jp() {
	cpu.jump(cpu.operand)
}

func (cpu *CPU) jpHL() {
	cpu.jump(cpu.hl())
}

func (cpu *CPU) call() {
	cpu.pushStack(cpu.pc + uint16(cpu.size))
	cpu.jump(cpu.operand)
}

func (cpu *CPU) ret() {
	cpu.jump(cpu.popStack())
}

func (cpu *CPU) reti() {
	cpu.ret()
	cpu.interruptsEnabled = true
	cpu.imePending = false
}

func (cpu *CPU) rst(target uint16) {
	cpu.pushStack(cpu.pc + uint16(cpu.size))
	cpu.jump(target)
}

// --- stack ---

func (cpu *CPU) push(op Operand) {
	cpu.pushStack(cpu.getReg16(op))
}

func (cpu *CPU) pop(op Operand) {
	value := cpu.popStack()
	if op == OpAF {
		value &= 0xFFF0
	}
	cpu.setReg16(op, value)
}

// --- interrupt / power control ---

func (cpu *CPU) di() {
	cpu.interruptsEnabled = false
	cpu.imePending = false
}

func (cpu *CPU) ei() {
	cpu.imePending = true
}

func (cpu *CPU) stop() {
	cpu.mode = Stop
}

// halt implements the three-way HALT transition documented in §4.5:
// HaltImeSet when IME is set, HaltImeClear when clear with nothing
// pending, HaltBug when clear with an interrupt already pending.
func (cpu *CPU) halt() {
	switch {
	case cpu.interruptsEnabled:
		cpu.mode = HaltImeSet
	case cpu.bus.InterruptsPending():
		cpu.mode = HaltBug
		cpu.haltBugSkipAdvance = true
	default:
		cpu.mode = HaltImeClear
	}
}

func (cpu *CPU) nop() {}
