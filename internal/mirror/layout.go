// internal/mirror/layout.go
package mirror

import "github.com/tamzrod/modbus-acquisitor/internal/state"

// Point status block layout constants.
// These values define the protocol and MUST NOT be configurable.

// SlotsPerPoint is the fixed number of holding registers per point block.
const SlotsPerPoint = 20

// ---- SLOT INDICES ----

const (
	SlotHealthCode     = 0
	SlotLastErrorCode  = 1
	SlotSecondsInError = 2
	SlotAlarm          = 3
)

// Slots 4–10 are reserved.
const (
	SlotReservedStart = 4
	SlotReservedEnd   = 10
)

// ---- POINT NAME ----

// The name always lives at the end of the block.
const (
	SlotNameStart = 11
	SlotNameSlots = 8
	SlotNameEnd   = SlotNameStart + SlotNameSlots - 1
	NameMaxChars  = 16
)

// encodeStatus renders the live slots of a block. Reserved and name
// slots are left zero.
// No IO. No side effects.
func encodeStatus(p state.PointState) []uint16 {
	regs := make([]uint16, SlotsPerPoint)

	regs[SlotHealthCode] = p.Health
	regs[SlotLastErrorCode] = p.LastErrorCode
	regs[SlotSecondsInError] = p.SecondsInError
	regs[SlotAlarm] = uint16(p.Alarm)

	return regs
}

// encodeNameRegs packs up to 16 ASCII characters into 8 registers,
// two bytes per register in big-endian order.
func encodeNameRegs(name string) []uint16 {
	out := make([]uint16, SlotNameSlots)

	b := []byte(name)
	if len(b) > NameMaxChars {
		b = b[:NameMaxChars]
	}

	// sanitize to printable ASCII
	for i := 0; i < len(b); i++ {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < NameMaxChars; i += 2 {
		var hi, lo byte
		if i < len(b) {
			hi = b[i]
		}
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}

	return out
}

// blockAddr is the first holding register of point index's block.
func blockAddr(base uint16, index int) uint16 {
	return base + uint16(index*SlotsPerPoint)
}
