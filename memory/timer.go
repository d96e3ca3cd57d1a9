package memory

import "github.com/kallenhart/dmgcore/addr"

// tacPeriod maps TAC bits 1..0 to the CPU-tick period that increments TIMA.
var tacPeriod = [4]int{1024, 16, 64, 256}

// Timer implements the DIV/TIMA/TMA/TAC registers as a batch accumulator:
// Tick is handed a number of machine cycles (×4'd internally into CPU
// ticks) and walks the accumulators forward in one pass, rather than
// simulating a falling-edge detector one CPU tick at a time.
type Timer struct {
	div  uint8
	tima uint8
	tma  uint8
	tac  uint8

	prescalerDiv  int
	prescalerTima int
}

// Tick advances the timer by machineCycles machine cycles and reports
// whether TIMA overflowed during the batch. Only one interrupt is ever
// reported per call, even if TIMA wrapped more than once — the most
// recent overflow wins, per spec.md §4.2.
func (t *Timer) Tick(machineCycles int) bool {
	ticks := machineCycles * 4
	overflowed := false

	t.prescalerDiv += ticks
	for t.prescalerDiv >= 256 {
		t.prescalerDiv -= 256
		t.div++
	}

	if t.tac&0x04 != 0 {
		period := tacPeriod[t.tac&0x03]
		t.prescalerTima += ticks
		for t.prescalerTima >= period {
			t.prescalerTima -= period
			if t.tima == 0xFF {
				t.tima = t.tma
				overflowed = true
			} else {
				t.tima++
			}
		}
	}

	return overflowed
}

// Read returns the byte at the given timer register address.
func (t *Timer) Read(address uint16) uint8 {
	switch address {
	case addr.DIV:
		return t.div
	case addr.TIMA:
		return t.tima
	case addr.TMA:
		return t.tma
	case addr.TAC:
		return t.tac
	default:
		return 0xFF
	}
}

// Write stores value at the given timer register address. Writing DIV (any
// value) resets it, along with its accumulator, to zero.
func (t *Timer) Write(address uint16, value uint8) {
	switch address {
	case addr.DIV:
		t.div = 0
		t.prescalerDiv = 0
	case addr.TIMA:
		t.tima = value
	case addr.TMA:
		t.tma = value
	case addr.TAC:
		t.tac = value
	}
}
