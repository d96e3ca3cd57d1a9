package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/kallenhart/dmgcore/addr"
)

func TestInterruptController_PriorityOrder(t *testing.T) {
	var ic InterruptController
	ic.WriteIF(0x1F)
	ic.WriteIE(0x1F)

	i, ok := ic.GetPending()
	assert.True(t, ok)
	assert.Equal(t, addr.VBlank, i)
	assert.Equal(t, uint8(0x1E), ic.ReadIF())
}

func TestInterruptController_NoneWhenDisabled(t *testing.T) {
	var ic InterruptController
	ic.Request(addr.Timer)

	_, ok := ic.GetPending()
	assert.False(t, ok)
}

func TestInterruptController_RequestEnable(t *testing.T) {
	var ic InterruptController
	ic.Request(addr.Joypad)
	ic.Enable(addr.Joypad)

	assert.True(t, ic.InterruptsPending())
	assert.True(t, ic.InterruptsRequested())

	i, ok := ic.GetPending()
	assert.True(t, ok)
	assert.Equal(t, addr.Joypad, i)
	assert.False(t, ic.InterruptsPending())
}

func TestInterruptFromBit(t *testing.T) {
	i, err := InterruptFromBit(uint8(addr.Timer))
	assert.NoError(t, err)
	assert.Equal(t, addr.Timer, i)

	_, err = InterruptFromBit(0x03)
	assert.Error(t, err)
}

func TestInterrupt_Vector(t *testing.T) {
	assert.Equal(t, uint16(0x0040), addr.VBlank.Vector())
	assert.Equal(t, uint16(0x0048), addr.LCDC.Vector())
	assert.Equal(t, uint16(0x0050), addr.Timer.Vector())
	assert.Equal(t, uint16(0x0058), addr.Serial.Vector())
	assert.Equal(t, uint16(0x0060), addr.Joypad.Vector())
}
