package memory

import (
	"github.com/kallenhart/dmgcore/addr"
	"github.com/kallenhart/dmgcore/bit"
)

// unusableSentinel is returned for reads in the 0xFEA0-0xFEFF range, which
// spec.md §3 documents as "reads return an undefined value (implementation
// defines one)"; writes there are silently dropped.
const unusableSentinel = 0xFF

// MMU dispatches 16-bit addresses to the owning region per spec.md §4.6,
// and owns the Timer and InterruptController sub-components directly (they
// are memory-mapped, not separately addressable by a driver). Dispatches
// through Region objects directly instead of a flat backing array plus
// high-byte-indexed region tags, with echo computed on the fly per
// spec.md §9 instead of a second synchronized buffer.
type MMU struct {
	cart *Cartridge
	vram *Region
	wram *Region
	oam  *Region
	io   *Region
	hram *Region

	timer      Timer
	interrupts InterruptController
}

// New creates an MMU with an empty (zeroed) cartridge.
func New() *MMU {
	return NewWithCartridge(NewCartridge())
}

// NewWithCartridge creates an MMU backed by the given cartridge.
func NewWithCartridge(cart *Cartridge) *MMU {
	return &MMU{
		cart: cart,
		vram: NewRegion(addr.VRAMStart, addr.VRAMEnd),
		wram: NewRegion(addr.WRAMStart, addr.WRAMEnd),
		oam:  NewRegion(addr.OAMStart, addr.OAMEnd),
		io:   NewRegion(addr.IOStart, addr.IOEnd),
		hram: NewRegion(addr.HRAMStart, addr.HRAMEnd),
	}
}

// Tick advances the timer by machineCycles and posts a Timer interrupt
// request on overflow.
func (m *MMU) Tick(machineCycles int) {
	if m.timer.Tick(machineCycles) {
		m.RequestInterrupt(addr.Timer)
	}
}

// RequestInterrupt sets the IF bit for the given interrupt source.
func (m *MMU) RequestInterrupt(i addr.Interrupt) {
	m.interrupts.Request(i)
}

// EnableInterrupt sets the IE bit for the given interrupt source.
func (m *MMU) EnableInterrupt(i addr.Interrupt) {
	m.interrupts.Enable(i)
}

// GetPendingInterrupt returns and clears the highest-priority pending,
// enabled interrupt.
func (m *MMU) GetPendingInterrupt() (addr.Interrupt, bool) {
	return m.interrupts.GetPending()
}

// InterruptsPending reports request & enabled != 0.
func (m *MMU) InterruptsPending() bool {
	return m.interrupts.InterruptsPending()
}

// InterruptsRequested reports request != 0, regardless of IE.
func (m *MMU) InterruptsRequested() bool {
	return m.interrupts.InterruptsRequested()
}

// echoAlias returns the WRAM-relative alias of an echo-range address, and
// true if address falls in the echo range.
func echoAlias(address uint16) (uint16, bool) {
	if address >= addr.EchoStart && address <= addr.EchoEnd {
		return address - 0x2000, true
	}
	return 0, false
}

// ReadByte reads one byte, routing to the owning region.
func (m *MMU) ReadByte(address uint16) (byte, error) {
	switch {
	case address <= addr.CartridgeEnd:
		return m.cart.readROM(address)
	case address <= addr.VRAMEnd:
		return m.vram.ReadByte(address)
	case address <= addr.ExtRAMEnd:
		return m.cart.readRAM(address)
	case address <= addr.WRAMEnd:
		return m.wram.ReadByte(address)
	case address <= addr.EchoEnd:
		alias, _ := echoAlias(address)
		return m.wram.ReadByte(alias)
	case address <= addr.OAMEnd:
		return m.oam.ReadByte(address)
	case address <= addr.UnusableEnd:
		return unusableSentinel, nil
	case address == addr.IF:
		return m.interrupts.ReadIF(), nil
	case address >= addr.DIV && address <= addr.TAC:
		return m.timer.Read(address), nil
	case address <= addr.IOEnd:
		return m.io.ReadByte(address)
	case address <= addr.HRAMEnd:
		return m.hram.ReadByte(address)
	case address == addr.IE:
		return m.interrupts.ReadIE(), nil
	default:
		return 0, &AddressOutOfRegionError{Address: address, Start: 0, End: 0xFFFF}
	}
}

// WriteByte writes one byte, routing to the owning region. Writes to the
// echo range are mirrored into WRAM and vice versa by construction (both
// addresses alias the same backing Region).
func (m *MMU) WriteByte(address uint16, value byte) error {
	switch {
	case address <= addr.CartridgeEnd:
		return m.cart.writeROM(address, value)
	case address <= addr.VRAMEnd:
		return m.vram.WriteByte(address, value)
	case address <= addr.ExtRAMEnd:
		return m.cart.writeRAM(address, value)
	case address <= addr.WRAMEnd:
		return m.wram.WriteByte(address, value)
	case address <= addr.EchoEnd:
		alias, _ := echoAlias(address)
		return m.wram.WriteByte(alias, value)
	case address <= addr.OAMEnd:
		return m.oam.WriteByte(address, value)
	case address <= addr.UnusableEnd:
		return nil
	case address == addr.IF:
		m.interrupts.WriteIF(value)
		return nil
	case address >= addr.DIV && address <= addr.TAC:
		m.timer.Write(address, value)
		return nil
	case address == addr.DMA:
		return m.doDMA(value)
	case address <= addr.IOEnd:
		return m.io.WriteByte(address, value)
	case address <= addr.HRAMEnd:
		return m.hram.WriteByte(address, value)
	case address == addr.IE:
		m.interrupts.WriteIE(value)
		return nil
	default:
		return &AddressOutOfRegionError{Address: address, Start: 0, End: 0xFFFF}
	}
}

// doDMA performs the synchronous 160-byte OAM DMA transfer from
// (value << 8). Bus-conflict timing during the transfer is explicitly out
// of scope (spec.md §1 Non-goals); this models only the data movement.
func (m *MMU) doDMA(value byte) error {
	source := uint16(value) << 8
	for i := uint16(0); i < 160; i++ {
		b, err := m.ReadByte(source + i)
		if err != nil {
			return err
		}
		if err := m.oam.WriteByte(addr.OAMStart+i, b); err != nil {
			return err
		}
	}
	return m.io.WriteByte(addr.DMA, value)
}

// ReadWord reads a little-endian word spanning address and address+1.
func (m *MMU) ReadWord(address uint16) (uint16, error) {
	lo, err := m.ReadByte(address)
	if err != nil {
		return 0, err
	}
	hi, err := m.ReadByte(address + 1)
	if err != nil {
		return 0, err
	}
	return bit.Combine(hi, lo), nil
}

// WriteWord writes a little-endian word spanning address and address+1. A
// 16-bit write touching any timer register (DIV/TIMA/TMA/TAC) is undefined
// behavior per spec.md §9's resolution of Open Question 1, and is rejected
// outright rather than performed as two byte writes.
func (m *MMU) WriteWord(address uint16, value uint16) error {
	if spansTimerRegisters(address) {
		return &UndefinedOperationError{Address: address, Reason: "16-bit write to timer register"}
	}
	if err := m.WriteByte(address, bit.Low(value)); err != nil {
		return err
	}
	return m.WriteByte(address+1, bit.High(value))
}

// spansTimerRegisters reports whether either byte of a 2-byte write
// starting at address falls within DIV-TAC (0xFF04-0xFF07).
func spansTimerRegisters(address uint16) bool {
	inRange := func(a uint16) bool { return a >= addr.DIV && a <= addr.TAC }
	return inRange(address) || inRange(address+1)
}
