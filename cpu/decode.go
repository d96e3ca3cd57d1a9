package cpu

import (
	"github.com/kallenhart/dmgcore/addr"
	"github.com/kallenhart/dmgcore/bit"
)

// opcodeEntry is one row of the opcode table: how many bytes the
// instruction occupies (including the opcode byte itself), its
// un-branched machine-cycle cost, and the class handler that executes it.
// Conditional handlers add their own extra cycles to cpu.machineCycles
// when the branch is taken.
type opcodeEntry struct {
	mnemonic string
	size     int
	cycles   int
	exec     func(cpu *CPU)
}

var opcodeTable [256]*opcodeEntry
var cbTable [256]*opcodeEntry

func set(table *[256]*opcodeEntry, opcode uint8, mnemonic string, size, cycles int, exec func(cpu *CPU)) {
	table[opcode] = &opcodeEntry{mnemonic: mnemonic, size: size, cycles: cycles, exec: exec}
}

// condNames/checkCond decode the 2-bit condition-code field shared by the
// JR/JP/CALL/RET conditional families: 0=NZ, 1=Z, 2=NC, 3=C.
var condNames = [4]string{"NZ", "Z", "NC", "C"}

func (cpu *CPU) checkCond(cc uint8) bool {
	switch cc {
	case 0:
		return !cpu.isSetFlag(flagZ)
	case 1:
		return cpu.isSetFlag(flagZ)
	case 2:
		return !cpu.isSetFlag(flagC)
	case 3:
		return cpu.isSetFlag(flagC)
	default:
		return false
	}
}

func (cpu *CPU) jrCond(cc uint8) {
	if cpu.checkCond(cc) {
		cpu.jr()
		cpu.machineCycles += 1
	}
}

func (cpu *CPU) jpCond(cc uint8) {
	if cpu.checkCond(cc) {
		cpu.jp()
		cpu.machineCycles += 1
	}
}

func (cpu *CPU) callCond(cc uint8) {
	if cpu.checkCond(cc) {
		cpu.call()
		cpu.machineCycles += 3
	}
}

func (cpu *CPU) retCond(cc uint8) {
	if cpu.checkCond(cc) {
		cpu.ret()
		cpu.machineCycles += 3
	}
}

func init() {
	buildBlock00to3F()
	buildBlock40to7F()
	buildBlock80toBF()
	buildBlockC0toFF()
	buildCBTable()
}

// buildBlock00to3F covers the first quarter of the unprefixed table. It is
// laid out in 4 rows of 16 opcodes; most columns are regular in the row
// (the 16-bit register or the high/low half of an 8-bit register pair),
// a handful of columns hold one instruction per row with no shared shape
// and are set individually.
func buildBlock00to3F() {
	for row := uint8(0); row < 4; row++ {
		rr := reg16Table[row]
		base := row * 0x10

		hi := reg8Table[row*2]
		lo := reg8Table[row*2+1]
		hiCycles, loCycles := 1, 1
		if hi == OpHLIndirect {
			hiCycles = 3
		}
		if lo == OpHLIndirect {
			loCycles = 3
		}

		set(&opcodeTable, base+0x01, "LD rr,d16", 3, 3, func(cpu *CPU) { cpu.setReg16(rr, cpu.operand) })
		set(&opcodeTable, base+0x03, "INC rr", 1, 2, func(cpu *CPU) { cpu.inc16(rr) })
		set(&opcodeTable, base+0x04, "INC r", 1, hiCycles, func(cpu *CPU) { cpu.inc8(hi) })
		set(&opcodeTable, base+0x05, "DEC r", 1, hiCycles, func(cpu *CPU) { cpu.dec8(hi) })
		set(&opcodeTable, base+0x06, "LD r,d8", 2, hiCycles+1, func(cpu *CPU) { cpu.setReg8(hi, uint8(cpu.operand)) })
		set(&opcodeTable, base+0x09, "ADD HL,rr", 1, 2, func(cpu *CPU) { cpu.addHL(rr) })
		set(&opcodeTable, base+0x0B, "DEC rr", 1, 2, func(cpu *CPU) { cpu.dec16(rr) })
		set(&opcodeTable, base+0x0C, "INC r", 1, loCycles, func(cpu *CPU) { cpu.inc8(lo) })
		set(&opcodeTable, base+0x0D, "DEC r", 1, loCycles, func(cpu *CPU) { cpu.dec8(lo) })
		set(&opcodeTable, base+0x0E, "LD r,d8", 2, loCycles+1, func(cpu *CPU) { cpu.setReg8(lo, uint8(cpu.operand)) })
	}

	set(&opcodeTable, 0x00, "NOP", 1, 1, (*CPU).nop)
	set(&opcodeTable, 0x10, "STOP", 2, 1, func(cpu *CPU) { cpu.stop() })
	set(&opcodeTable, 0x20, "JR NZ,r8", 2, 2, func(cpu *CPU) { cpu.jrCond(0) })
	set(&opcodeTable, 0x30, "JR NC,r8", 2, 2, func(cpu *CPU) { cpu.jrCond(2) })

	set(&opcodeTable, 0x08, "LD (a16),SP", 3, 5, func(cpu *CPU) { cpu.ldNNSP() })
	set(&opcodeTable, 0x18, "JR r8", 2, 3, func(cpu *CPU) { cpu.jr() })
	set(&opcodeTable, 0x28, "JR Z,r8", 2, 2, func(cpu *CPU) { cpu.jrCond(1) })
	set(&opcodeTable, 0x38, "JR C,r8", 2, 2, func(cpu *CPU) { cpu.jrCond(3) })

	set(&opcodeTable, 0x02, "LD (BC),A", 1, 2, func(cpu *CPU) { cpu.ldToIndirect(cpu.bc()) })
	set(&opcodeTable, 0x12, "LD (DE),A", 1, 2, func(cpu *CPU) { cpu.ldToIndirect(cpu.de()) })
	set(&opcodeTable, 0x22, "LD (HL+),A", 1, 2, func(cpu *CPU) { cpu.ldIndirectHLAndStepA(true, 1) })
	set(&opcodeTable, 0x32, "LD (HL-),A", 1, 2, func(cpu *CPU) { cpu.ldIndirectHLAndStepA(true, -1) })

	set(&opcodeTable, 0x0A, "LD A,(BC)", 1, 2, func(cpu *CPU) { cpu.ldFromIndirect(cpu.bc()) })
	set(&opcodeTable, 0x1A, "LD A,(DE)", 1, 2, func(cpu *CPU) { cpu.ldFromIndirect(cpu.de()) })
	set(&opcodeTable, 0x2A, "LD A,(HL+)", 1, 2, func(cpu *CPU) { cpu.ldIndirectHLAndStepA(false, 1) })
	set(&opcodeTable, 0x3A, "LD A,(HL-)", 1, 2, func(cpu *CPU) { cpu.ldIndirectHLAndStepA(false, -1) })

	set(&opcodeTable, 0x07, "RLCA", 1, 1, func(cpu *CPU) { cpu.rotateUnprefixedA(rlc) })
	set(&opcodeTable, 0x17, "RLA", 1, 1, func(cpu *CPU) { cpu.rotateUnprefixedA(cpu.rl) })
	set(&opcodeTable, 0x0F, "RRCA", 1, 1, func(cpu *CPU) { cpu.rotateUnprefixedA(rrc) })
	set(&opcodeTable, 0x1F, "RRA", 1, 1, func(cpu *CPU) { cpu.rotateUnprefixedA(cpu.rr) })
	set(&opcodeTable, 0x27, "DAA", 1, 1, func(cpu *CPU) { cpu.daa() })
	set(&opcodeTable, 0x2F, "CPL", 1, 1, func(cpu *CPU) { cpu.cpl() })
	set(&opcodeTable, 0x37, "SCF", 1, 1, func(cpu *CPU) { cpu.scf() })
	set(&opcodeTable, 0x3F, "CCF", 1, 1, func(cpu *CPU) { cpu.ccf() })
}

// buildBlock40to7F covers LD r,r' for every (dst, src) pair, with 0x76
// overridden to HALT (the slot that would otherwise be LD (HL),(HL)).
func buildBlock40to7F() {
	for opcode := 0x40; opcode <= 0x7F; opcode++ {
		dst := reg8Table[(opcode>>3)&7]
		src := reg8Table[opcode&7]
		cycles := 1
		if dst == OpHLIndirect || src == OpHLIndirect {
			cycles = 2
		}
		set(&opcodeTable, uint8(opcode), "LD r,r'", 1, cycles, func(cpu *CPU) { cpu.ld8(dst, src) })
	}
	set(&opcodeTable, 0x76, "HALT", 1, 1, func(cpu *CPU) { cpu.halt() })
}

// buildBlock80toBF covers the 8-bit ALU block: ADD, ADC, SUB, SBC, AND,
// XOR, OR, CP against every register/(HL) source.
func buildBlock80toBF() {
	ops := [8]func(cpu *CPU, src Operand){
		func(cpu *CPU, src Operand) { cpu.add8(src) },
		func(cpu *CPU, src Operand) { cpu.adc8(src) },
		func(cpu *CPU, src Operand) { cpu.sub8(src) },
		func(cpu *CPU, src Operand) { cpu.sbc8(src) },
		func(cpu *CPU, src Operand) { cpu.and8(src) },
		func(cpu *CPU, src Operand) { cpu.xor8(src) },
		func(cpu *CPU, src Operand) { cpu.or8(src) },
		func(cpu *CPU, src Operand) { cpu.cp8(src) },
	}
	names := [8]string{"ADD", "ADC", "SUB", "SBC", "AND", "XOR", "OR", "CP"}

	for opcode := 0x80; opcode <= 0xBF; opcode++ {
		src := reg8Table[opcode&7]
		fn := ops[(opcode>>3)&7]
		cycles := 1
		if src == OpHLIndirect {
			cycles = 2
		}
		set(&opcodeTable, uint8(opcode), names[(opcode>>3)&7]+" A,r", 1, cycles, func(cpu *CPU) { fn(cpu, src) })
	}
}

// buildBlockC0toFF covers the final quarter: control flow (RET/JP/CALL,
// conditional and not), PUSH/POP, RST, immediate ALU, and the remaining
// one-off instructions (LDH, LD (C),A, DI/EI, ADD SP,r8, LD HL,SP+r8,
// LD SP,HL, JP (HL)). This block has no single regular shape across its
// four rows, so entries are listed explicitly rather than generated.
func buildBlockC0toFF() {
	aluOps := [8]func(cpu *CPU, src Operand){
		func(cpu *CPU, src Operand) { cpu.add8(src) },
		func(cpu *CPU, src Operand) { cpu.adc8(src) },
		func(cpu *CPU, src Operand) { cpu.sub8(src) },
		func(cpu *CPU, src Operand) { cpu.sbc8(src) },
		func(cpu *CPU, src Operand) { cpu.and8(src) },
		func(cpu *CPU, src Operand) { cpu.xor8(src) },
		func(cpu *CPU, src Operand) { cpu.or8(src) },
		func(cpu *CPU, src Operand) { cpu.cp8(src) },
	}
	aluNames := [8]string{"ADD", "ADC", "SUB", "SBC", "AND", "XOR", "OR", "CP"}

	for row := uint8(0); row < 4; row++ {
		base := 0xC0 + row*0x10
		rr := reg16StackTable[row]

		set(&opcodeTable, base+0x01, "POP rr", 1, 3, func(cpu *CPU) { cpu.pop(rr) })
		set(&opcodeTable, base+0x05, "PUSH rr", 1, 4, func(cpu *CPU) { cpu.push(rr) })

		col6ALU := aluOps[row*2]
		col6Name := aluNames[row*2]
		set(&opcodeTable, base+0x06, col6Name+" A,d8", 2, 2, func(cpu *CPU) { col6ALU(cpu, OpImm8) })

		rst1, rst2 := uint16(row*0x10), uint16(row*0x10+8)
		set(&opcodeTable, base+0x07, "RST", 1, 4, func(cpu *CPU) { cpu.rst(rst1) })
		set(&opcodeTable, base+0x0F, "RST", 1, 4, func(cpu *CPU) { cpu.rst(rst2) })

		colEALU := aluOps[row*2+1]
		colEName := aluNames[row*2+1]
		set(&opcodeTable, base+0x0E, colEName+" A,d8", 2, 2, func(cpu *CPU) { colEALU(cpu, OpImm8) })
	}

	// Conditional RET/JP/CALL: cc encodes NZ,Z,NC,C and only occupies rows
	// 0xC0-0xDF; rows 0xE0-0xFF hold unrelated one-off instructions set
	// below instead.
	for cc := uint8(0); cc < 4; cc++ {
		condCC := cc
		retBase := uint8(0xC0) + (cc/2)*0x10 + (cc%2)*0x08
		jpBase := retBase + 0x02
		callBase := retBase + 0x04
		set(&opcodeTable, retBase, "RET "+condNames[cc], 1, 2, func(cpu *CPU) { cpu.retCond(condCC) })
		set(&opcodeTable, jpBase, "JP "+condNames[cc]+",a16", 3, 3, func(cpu *CPU) { cpu.jpCond(condCC) })
		set(&opcodeTable, callBase, "CALL "+condNames[cc]+",a16", 3, 3, func(cpu *CPU) { cpu.callCond(condCC) })
	}

	set(&opcodeTable, 0xC3, "JP a16", 3, 4, func(cpu *CPU) { cpu.jp() })
	set(&opcodeTable, 0xC9, "RET", 1, 4, func(cpu *CPU) { cpu.ret() })
	set(&opcodeTable, 0xCD, "CALL a16", 3, 6, func(cpu *CPU) { cpu.call() })

	set(&opcodeTable, 0xD9, "RETI", 1, 4, func(cpu *CPU) { cpu.reti() })

	set(&opcodeTable, 0xE0, "LDH (a8),A", 2, 3, func(cpu *CPU) { cpu.ldToIndirect(0xFF00 + cpu.operand) })
	set(&opcodeTable, 0xE2, "LD (C),A", 1, 2, func(cpu *CPU) { cpu.ldToIndirect(0xFF00 + uint16(cpu.c)) })
	set(&opcodeTable, 0xE8, "ADD SP,r8", 2, 4, func(cpu *CPU) { cpu.addSPImm8() })
	set(&opcodeTable, 0xE9, "JP (HL)", 1, 1, func(cpu *CPU) { cpu.jpHL() })
	set(&opcodeTable, 0xEA, "LD (a16),A", 3, 4, func(cpu *CPU) { cpu.ldToIndirect(cpu.operand) })

	set(&opcodeTable, 0xF0, "LDH A,(a8)", 2, 3, func(cpu *CPU) { cpu.ldFromIndirect(0xFF00 + cpu.operand) })
	set(&opcodeTable, 0xF2, "LD A,(C)", 1, 2, func(cpu *CPU) { cpu.ldFromIndirect(0xFF00 + uint16(cpu.c)) })
	set(&opcodeTable, 0xF3, "DI", 1, 1, func(cpu *CPU) { cpu.di() })
	set(&opcodeTable, 0xF8, "LD HL,SP+r8", 2, 3, func(cpu *CPU) { cpu.ldHLSPr8() })
	set(&opcodeTable, 0xF9, "LD SP,HL", 1, 2, func(cpu *CPU) { cpu.sp = cpu.hl() })
	set(&opcodeTable, 0xFA, "LD A,(a16)", 3, 4, func(cpu *CPU) { cpu.ldFromIndirect(cpu.operand) })
	set(&opcodeTable, 0xFB, "EI", 1, 1, func(cpu *CPU) { cpu.ei() })
}

// buildCBTable covers the CB-prefixed 256 entries: rotates/shifts/swap
// (0x00-0x3F), BIT (0x40-0x7F), RES (0x80-0xBF), SET (0xC0-0xFF), each
// keyed by an (operation, operand) pair decoded directly from the opcode
// byte's bit fields.
func buildCBTable() {
	rotateOps := [8]func(cpu *CPU, op Operand){
		func(cpu *CPU, op Operand) { cpu.rotateCB(op, rlc) },
		func(cpu *CPU, op Operand) { cpu.rotateCB(op, rrc) },
		func(cpu *CPU, op Operand) { cpu.rotateCB(op, cpu.rl) },
		func(cpu *CPU, op Operand) { cpu.rotateCB(op, cpu.rr) },
		func(cpu *CPU, op Operand) { cpu.rotateCB(op, sla) },
		func(cpu *CPU, op Operand) { cpu.rotateCB(op, sra) },
		func(cpu *CPU, op Operand) { cpu.rotateCB(op, swap) },
		func(cpu *CPU, op Operand) { cpu.rotateCB(op, srl) },
	}
	rotateNames := [8]string{"RLC", "RRC", "RL", "RR", "SLA", "SRA", "SWAP", "SRL"}

	for opcode := 0; opcode <= 0xFF; opcode++ {
		op := reg8Table[opcode&7]
		cycles := 2
		if op == OpHLIndirect {
			cycles = 4
		}
		bitIdx := uint8((opcode >> 3) & 7)

		switch {
		case opcode <= 0x3F:
			fn := rotateOps[(opcode>>3)&7]
			set(&cbTable, uint8(opcode), rotateNames[(opcode>>3)&7], 2, cycles, func(cpu *CPU) { fn(cpu, op) })
		case opcode <= 0x7F:
			c := cycles
			if op == OpHLIndirect {
				c = 3
			}
			set(&cbTable, uint8(opcode), "BIT b,r", 2, c, func(cpu *CPU) { cpu.bitTest(bitIdx, op) })
		case opcode <= 0xBF:
			set(&cbTable, uint8(opcode), "RES b,r", 2, cycles, func(cpu *CPU) { cpu.bitRes(bitIdx, op) })
		default:
			set(&cbTable, uint8(opcode), "SET b,r", 2, cycles, func(cpu *CPU) { cpu.bitSet(bitIdx, op) })
		}
	}
}

// decode fetches the opcode byte (and its CB second byte, if prefixed) at
// PC without advancing it, records it as cpu.currentOpcode, and returns
// the matching table entry (nil if undefined).
func decode(cpu *CPU) *opcodeEntry {
	b, err := cpu.bus.ReadByte(cpu.pc)
	cpu.fail(err)

	if b == 0xCB {
		b2, err := cpu.bus.ReadByte(cpu.pc + 1)
		cpu.fail(err)
		cpu.currentOpcode = 0xCB00 | uint16(b2)
		return cbTable[b2]
	}

	cpu.currentOpcode = uint16(b)
	return opcodeTable[b]
}

// fetchOperand reads the instruction's immediate operand (if any) from
// PC+1. CB-prefixed instructions carry their operand in the opcode byte's
// bit fields, not as a trailing immediate, so they never fetch one here.
func (cpu *CPU) fetchOperand(size int) uint16 {
	if cpu.currentOpcode&0xFF00 == 0xCB00 {
		return 0
	}
	switch size {
	case 2:
		b, err := cpu.bus.ReadByte(cpu.pc + 1)
		cpu.fail(err)
		return uint16(b)
	case 3:
		lo, err := cpu.bus.ReadByte(cpu.pc + 1)
		cpu.fail(err)
		hi, err := cpu.bus.ReadByte(cpu.pc + 2)
		cpu.fail(err)
		return bit.Combine(hi, lo)
	default:
		return 0
	}
}

// Step performs one instruction of progress (or one interrupt dispatch),
// per the fetch/execute/interrupt loop: service a pending enabled
// interrupt if IME is set; otherwise wake from HALT if an interrupt has
// become pending; otherwise, if in a gated mode, burn one cycle; otherwise
// fetch, execute, advance PC, and charge cycles. Returns the number of
// machine cycles consumed, and the first error raised while doing so (if
// any read/write strayed outside a mapped region, or the opcode is
// undefined).
func (cpu *CPU) Step() (int, error) {
	cpu.err = nil

	if cpu.interruptsEnabled {
		if i, ok := cpu.bus.GetPendingInterrupt(); ok {
			cpu.pushStack(cpu.pc)
			cpu.interruptsEnabled = false
			cpu.imePending = false
			cpu.pc = i.Vector()
			cpu.machineCycles = 5
			cpu.cycles += uint64(cpu.machineCycles)
			return cpu.machineCycles, cpu.err
		}
	}

	// EI's latch is applied after the dispatch check above, so the
	// instruction following EI runs before any interrupt can be taken.
	if cpu.imePending {
		cpu.imePending = false
		cpu.interruptsEnabled = true
	}

	if cpu.mode == Stop {
		if iflags, err := cpu.bus.ReadByte(addr.IF); err == nil && iflags&uint8(addr.Joypad) != 0 {
			cpu.mode = Running
		}
	}
	if cpu.mode == HaltImeSet && cpu.bus.InterruptsPending() {
		cpu.mode = Running
	}
	if cpu.mode == HaltImeClear && cpu.bus.InterruptsPending() {
		cpu.mode = Running
	}

	switch cpu.mode {
	case Stop, HaltImeSet, HaltImeClear:
		cpu.machineCycles = 1
		cpu.cycles += uint64(cpu.machineCycles)
		return cpu.machineCycles, cpu.err
	}

	entry := decode(cpu)
	if entry == nil {
		cpu.err = &UndefinedOpcodeError{Opcode: cpu.currentOpcode, Address: cpu.pc}
		return 0, cpu.err
	}

	cpu.size = entry.size
	cpu.operand = cpu.fetchOperand(entry.size)

	cpu.machineCycles = 0
	cpu.inhibitPC = false
	skipAdvance := cpu.haltBugSkipAdvance
	cpu.haltBugSkipAdvance = false

	entry.exec(cpu)

	if !skipAdvance && !cpu.inhibitPC {
		cpu.pc += uint16(cpu.size)
	}

	cpu.machineCycles += entry.cycles
	cpu.cycles += uint64(cpu.machineCycles)

	return cpu.machineCycles, cpu.err
}
