package memory

import "github.com/kallenhart/dmgcore/addr"

// Cartridge is a minimal RAM-backed stand-in for the 0x0000-0x7FFF ROM
// range and the 0xA000-0xBFFF external RAM range. Bankswitching (MBC1/3/5)
// is the named external collaborator per spec.md §1/§3 ("core treats as
// RAM stub") and is not implemented here — a real driver is expected to
// swap in its own MBC-aware region behind the same Region-shaped surface
// if it needs bankswitching.
type Cartridge struct {
	rom *Region
	ram *Region
}

// NewCartridge returns an empty cartridge, ROM/RAM zeroed.
func NewCartridge() *Cartridge {
	return &Cartridge{
		rom: NewRegion(addr.CartridgeStart, addr.CartridgeEnd),
		ram: NewRegion(addr.ExtRAMStart, addr.ExtRAMEnd),
	}
}

// NewCartridgeWithData returns a cartridge whose ROM range is seeded from
// data (truncated or zero-padded to the ROM window).
func NewCartridgeWithData(data []byte) *Cartridge {
	c := NewCartridge()
	for i := 0; i < len(data) && i <= int(addr.CartridgeEnd); i++ {
		_ = c.rom.WriteByte(uint16(i), data[i])
	}
	return c
}

func (c *Cartridge) readROM(address uint16) (byte, error)  { return c.rom.ReadByte(address) }
func (c *Cartridge) writeROM(address uint16, v byte) error { return c.rom.WriteByte(address, v) }
func (c *Cartridge) readRAM(address uint16) (byte, error)  { return c.ram.ReadByte(address) }
func (c *Cartridge) writeRAM(address uint16, v byte) error { return c.ram.WriteByte(address, v) }
