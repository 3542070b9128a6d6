// internal/modbus/decode.go
package modbus

import (
	"encoding/binary"
	"fmt"
)

// ---- helpers (pure geometry) ----

// decodeBits unpacks LSB-first packed bits into one 0/1 value per bit.
func decodeBits(data []byte, count uint16) ([]uint16, error) {
	need := (int(count) + 7) / 8
	if len(data) < need {
		return nil, fmt.Errorf("modbus: read-bits payload %d bytes, want %d", len(data), need)
	}
	out := make([]uint16, count)
	for i := 0; i < int(count); i++ {
		if data[i/8]&(1<<uint(i%8)) != 0 {
			out[i] = 1
		}
	}
	return out, nil
}

// decodeRegisters unpacks big-endian registers.
func decodeRegisters(data []byte, count uint16) ([]uint16, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("modbus: read-registers byte count %d not even", len(data))
	}
	if len(data)/2 != int(count) {
		return nil, fmt.Errorf("modbus: read-registers returned %d registers, want %d", len(data)/2, count)
	}
	out := make([]uint16, count)
	for i := range out {
		out[i] = binary.BigEndian.Uint16(data[2*i:])
	}
	return out, nil
}
