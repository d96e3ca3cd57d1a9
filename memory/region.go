package memory

import "github.com/kallenhart/dmgcore/bit"

// Region is a byte-addressable memory region spanning an inclusive
// [Start, End] range, backed by an owning byte slice. It is the building
// block every other component of the memory map (VRAM, WRAM, OAM, HRAM,
// the cartridge stub) is built from.
//
// Grounded on original_source's MemoryRegion trait: a region only knows
// how to read/write itself, bounds-checked, little-endian on word ops.
type Region struct {
	start uint16
	end   uint16
	data  []byte
}

// NewRegion allocates a region covering [start, end] inclusive.
func NewRegion(start, end uint16) *Region {
	return &Region{
		start: start,
		end:   end,
		data:  make([]byte, int(end)-int(start)+1),
	}
}

// Start returns the region's base address.
func (r *Region) Start() uint16 { return r.start }

// End returns the region's last valid address.
func (r *Region) End() uint16 { return r.end }

// Contains reports whether addr falls within this region's bounds.
func (r *Region) Contains(address uint16) bool {
	return address >= r.start && address <= r.end
}

// ReadByte returns the byte at address. Panics with AddressOutOfRegionError
// wrapped in a recoverable way is not attempted here — an out-of-bounds
// access is a programmer error in the memory map's routing, so this
// returns the error directly for the caller to surface.
func (r *Region) ReadByte(address uint16) (byte, error) {
	if !r.Contains(address) {
		return 0, &AddressOutOfRegionError{Address: address, Start: r.start, End: r.end}
	}
	return r.data[address-r.start], nil
}

// WriteByte stores value at address.
func (r *Region) WriteByte(address uint16, value byte) error {
	if !r.Contains(address) {
		return &AddressOutOfRegionError{Address: address, Start: r.start, End: r.end}
	}
	r.data[address-r.start] = value
	return nil
}

// ReadWord composes two byte reads, little-endian (low byte at address,
// high byte at address+1).
func (r *Region) ReadWord(address uint16) (uint16, error) {
	lo, err := r.ReadByte(address)
	if err != nil {
		return 0, err
	}
	hi, err := r.ReadByte(address + 1)
	if err != nil {
		return 0, err
	}
	return bit.Combine(hi, lo), nil
}

// WriteWord decomposes a word into two byte writes, little-endian.
func (r *Region) WriteWord(address uint16, value uint16) error {
	if err := r.WriteByte(address, bit.Low(value)); err != nil {
		return err
	}
	return r.WriteByte(address+1, bit.High(value))
}
