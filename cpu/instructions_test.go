package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/kallenhart/dmgcore/memory"
)

func TestCPU_stack(t *testing.T) {
	cpu := newTestCPU()
	cpu.sp = 0xFFFE

	cpu.pushStack(0x1234)
	assert.Equal(t, uint16(0xFFFC), cpu.sp)

	v := cpu.popStack()
	assert.Equal(t, uint16(0x1234), v)
	assert.Equal(t, uint16(0xFFFE), cpu.sp)
}

func TestCPU_ld8(t *testing.T) {
	cpu := newTestCPU()
	cpu.setReg8(OpB, 0x42)
	cpu.ld8(OpC, OpB)
	assert.Equal(t, uint8(0x42), cpu.c)
}

func TestCPU_add8(t *testing.T) {
	cpu := newTestCPU()
	cpu.a = 0x0F
	cpu.setReg8(OpB, 0x01)
	cpu.add8(OpB)

	assert.Equal(t, uint8(0x10), cpu.a)
	assert.True(t, cpu.isSetFlag(flagH))
	assert.False(t, cpu.isSetFlag(flagC))
	assert.False(t, cpu.isSetFlag(flagZ))
	assert.False(t, cpu.isSetFlag(flagN))
}

func TestCPU_adc8_compositeCarry(t *testing.T) {
	cpu := newTestCPU()
	cpu.a = 0x0F
	cpu.setFlag(flagC)
	cpu.setReg8(OpC, 0x01)

	cpu.adc8(OpC)

	assert.Equal(t, uint8(0x11), cpu.a)
	assert.True(t, cpu.isSetFlag(flagH))
	assert.False(t, cpu.isSetFlag(flagC))
	assert.False(t, cpu.isSetFlag(flagZ))
	assert.False(t, cpu.isSetFlag(flagN))
}

func TestCPU_sub8(t *testing.T) {
	cpu := newTestCPU()
	cpu.a = 0x10
	cpu.setReg8(OpB, 0x01)
	cpu.sub8(OpB)

	assert.Equal(t, uint8(0x0F), cpu.a)
	assert.True(t, cpu.isSetFlag(flagH))
	assert.True(t, cpu.isSetFlag(flagN))
	assert.False(t, cpu.isSetFlag(flagC))
}

func TestCPU_sbc8(t *testing.T) {
	cpu := newTestCPU()
	cpu.a = 0x00
	cpu.setFlag(flagC)
	cpu.setReg8(OpB, 0x00)

	cpu.sbc8(OpB)

	assert.Equal(t, uint8(0xFF), cpu.a)
	assert.True(t, cpu.isSetFlag(flagH))
	assert.True(t, cpu.isSetFlag(flagC))
	assert.True(t, cpu.isSetFlag(flagN))
}

func TestCPU_cp8DoesNotStore(t *testing.T) {
	cpu := newTestCPU()
	cpu.a = 0x05
	cpu.setReg8(OpB, 0x05)

	cpu.cp8(OpB)

	assert.Equal(t, uint8(0x05), cpu.a)
	assert.True(t, cpu.isSetFlag(flagZ))
}

func TestCPU_bitwiseOps(t *testing.T) {
	cpu := newTestCPU()

	cpu.a = 0xF0
	cpu.setReg8(OpB, 0x0F)
	cpu.and8(OpB)
	assert.Equal(t, uint8(0x00), cpu.a)
	assert.True(t, cpu.isSetFlag(flagZ))
	assert.True(t, cpu.isSetFlag(flagH))
	assert.False(t, cpu.isSetFlag(flagC))

	cpu.a = 0xF0
	cpu.setReg8(OpB, 0x0F)
	cpu.or8(OpB)
	assert.Equal(t, uint8(0xFF), cpu.a)
	assert.False(t, cpu.isSetFlag(flagZ))

	cpu.a = 0xFF
	cpu.setReg8(OpB, 0xFF)
	cpu.xor8(OpB)
	assert.Equal(t, uint8(0x00), cpu.a)
	assert.True(t, cpu.isSetFlag(flagZ))
}

func TestCPU_inc8_dec8Boundaries(t *testing.T) {
	cpu := newTestCPU()

	cpu.setReg8(OpA, 0xFF)
	cpu.inc8(OpA)
	assert.Equal(t, uint8(0x00), cpu.getReg8(OpA))
	assert.True(t, cpu.isSetFlag(flagZ))
	assert.True(t, cpu.isSetFlag(flagH))
	assert.False(t, cpu.isSetFlag(flagN))

	cpu.setReg8(OpA, 0x00)
	cpu.dec8(OpA)
	assert.Equal(t, uint8(0xFF), cpu.getReg8(OpA))
	assert.False(t, cpu.isSetFlag(flagZ))
	assert.True(t, cpu.isSetFlag(flagH))
	assert.True(t, cpu.isSetFlag(flagN))
}

func TestCPU_inc8PreservesCarry(t *testing.T) {
	cpu := newTestCPU()
	cpu.setFlag(flagC)
	cpu.setReg8(OpA, 0x00)
	cpu.inc8(OpA)
	assert.True(t, cpu.isSetFlag(flagC))
}

func TestCPU_inc16_dec16(t *testing.T) {
	cpu := newTestCPU()
	cpu.setBC(0xFFFF)
	cpu.inc16(OpBC)
	assert.Equal(t, uint16(0x0000), cpu.bc())

	cpu.setBC(0x0000)
	cpu.dec16(OpBC)
	assert.Equal(t, uint16(0xFFFF), cpu.bc())
}

func TestCPU_addHL(t *testing.T) {
	cpu := newTestCPU()
	cpu.setHL(0x0FFF)
	cpu.setBC(0x0001)
	cpu.addHL(OpBC)

	assert.Equal(t, uint16(0x1000), cpu.hl())
	assert.True(t, cpu.isSetFlag(flagH))
	assert.False(t, cpu.isSetFlag(flagC))
	assert.False(t, cpu.isSetFlag(flagN))
}

func TestCPU_addSPSigned_positiveAndNegative(t *testing.T) {
	cpu := newTestCPU()
	cpu.sp = 0x0005
	result := cpu.addSPSigned(10)
	assert.Equal(t, uint16(0x000F), result)
	assert.False(t, cpu.isSetFlag(flagZ))
	assert.False(t, cpu.isSetFlag(flagN))

	cpu.sp = 0x0005
	result = cpu.addSPSigned(-1)
	assert.Equal(t, uint16(0x0004), result)
}

func TestCPU_rotates(t *testing.T) {
	r := rlc(0x80)
	assert.Equal(t, uint8(0x01), r.value)
	assert.True(t, r.carry)

	r = rrc(0x01)
	assert.Equal(t, uint8(0x80), r.value)
	assert.True(t, r.carry)

	r = sla(0x80)
	assert.Equal(t, uint8(0x00), r.value)
	assert.True(t, r.carry)

	r = sra(0x81)
	assert.Equal(t, uint8(0xC0), r.value)
	assert.True(t, r.carry)

	r = srl(0x01)
	assert.Equal(t, uint8(0x00), r.value)
	assert.True(t, r.carry)

	r = swap(0xAB)
	assert.Equal(t, uint8(0xBA), r.value)
	assert.False(t, r.carry)
}

func TestCPU_rotateUnprefixedAAlwaysResetsZero(t *testing.T) {
	cpu := newTestCPU()
	cpu.a = 0x00
	cpu.rotateUnprefixedA(rlc)
	assert.Equal(t, uint8(0x00), cpu.a)
	assert.False(t, cpu.isSetFlag(flagZ))
}

func TestCPU_rotateCBSetsZeroFromResult(t *testing.T) {
	cpu := newTestCPU()
	cpu.setReg8(OpA, 0x00)
	cpu.rotateCB(OpA, rlc)
	assert.True(t, cpu.isSetFlag(flagZ))
}

func TestCPU_bitTestSetRes(t *testing.T) {
	cpu := newTestCPU()
	cpu.setReg8(OpB, 0x00)

	cpu.bitTest(3, OpB)
	assert.True(t, cpu.isSetFlag(flagZ))
	assert.True(t, cpu.isSetFlag(flagH))
	assert.False(t, cpu.isSetFlag(flagN))

	cpu.bitSet(3, OpB)
	assert.Equal(t, uint8(0x08), cpu.getReg8(OpB))

	cpu.bitTest(3, OpB)
	assert.False(t, cpu.isSetFlag(flagZ))

	cpu.bitRes(3, OpB)
	assert.Equal(t, uint8(0x00), cpu.getReg8(OpB))
}

func TestCPU_daa(t *testing.T) {
	cpu := newTestCPU()
	cpu.a = 0x09
	cpu.setReg8(OpB, 0x08)
	cpu.add8(OpB)
	cpu.daa()

	assert.Equal(t, uint8(0x17), cpu.a)
	assert.False(t, cpu.isSetFlag(flagC))
}

func TestCPU_cplCcfScf(t *testing.T) {
	cpu := newTestCPU()
	cpu.a = 0x0F
	cpu.cpl()
	assert.Equal(t, uint8(0xF0), cpu.a)
	assert.True(t, cpu.isSetFlag(flagN))
	assert.True(t, cpu.isSetFlag(flagH))

	cpu.resetFlag(flagC)
	cpu.scf()
	assert.True(t, cpu.isSetFlag(flagC))
	assert.False(t, cpu.isSetFlag(flagN))
	assert.False(t, cpu.isSetFlag(flagH))

	cpu.ccf()
	assert.False(t, cpu.isSetFlag(flagC))
}

func TestCPU_jrSignExtension(t *testing.T) {
	cpu := newTestCPU()
	cpu.pc = 0x0100
	cpu.size = 2
	cpu.operand = 0x00FE // -2 as int8

	cpu.jr()

	assert.Equal(t, uint16(0x0100), cpu.pc)
	assert.True(t, cpu.inhibitPC)
}

func TestCPU_jpAndCallAndRet(t *testing.T) {
	mmu := memory.New()
	cpu := New(mmu)
	cpu.sp = 0xFFFE
	cpu.pc = 0x0200
	cpu.size = 3
	cpu.operand = 0xC050

	cpu.call()
	assert.Equal(t, uint16(0xC050), cpu.pc)

	returnAddr := cpu.popStack()
	assert.Equal(t, uint16(0x0203), returnAddr)
}

func TestCPU_rst(t *testing.T) {
	mmu := memory.New()
	cpu := New(mmu)
	cpu.sp = 0xFFFE
	cpu.pc = 0x0300
	cpu.size = 1

	cpu.rst(0x0038)
	assert.Equal(t, uint16(0x0038), cpu.pc)

	returnAddr := cpu.popStack()
	assert.Equal(t, uint16(0x0301), returnAddr)
}

func TestCPU_pushPopRoundTrip(t *testing.T) {
	mmu := memory.New()
	cpu := New(mmu)
	cpu.sp = 0xFFFE
	cpu.setBC(0xBEEF)

	cpu.push(OpBC)
	cpu.setBC(0)
	cpu.pop(OpBC)

	assert.Equal(t, uint16(0xBEEF), cpu.bc())
}

func TestCPU_popAFMasksLowNibble(t *testing.T) {
	mmu := memory.New()
	cpu := New(mmu)
	cpu.sp = 0xFFFE
	cpu.pushStack(0x1234)

	cpu.pop(OpAF)

	assert.Equal(t, uint16(0x1230), cpu.af())
}

func TestCPU_diEiHaltStop(t *testing.T) {
	cpu := newTestCPU()

	cpu.ei()
	assert.True(t, cpu.imePending)

	cpu.di()
	assert.False(t, cpu.imePending)
	assert.False(t, cpu.interruptsEnabled)

	cpu.stop()
	assert.Equal(t, Stop, cpu.mode)
}

func TestCPU_haltModeSelection(t *testing.T) {
	cpu := newTestCPU()
	cpu.interruptsEnabled = true
	cpu.halt()
	assert.Equal(t, HaltImeSet, cpu.mode)

	cpu = newTestCPU()
	cpu.halt()
	assert.Equal(t, HaltImeClear, cpu.mode)
}
