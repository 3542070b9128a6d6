// internal/state/snapshot.go
package state

import (
	"time"

	"github.com/tamzrod/modbus-acquisitor/internal/acquisition"
)

// Reading is the raw outcome of one successful read.
// Bit tables carry 0/1 per value.
type Reading struct {
	Point         string
	Type          acquisition.PointType
	Address       uint16
	TransactionID uint16
	UnitAddress   uint8
	Values        []uint16
	At            time.Time
}

// PointState is the latest known state of one point.
// It is always handed out as a copy.
type PointState struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Address  uint16 `json:"address"`
	Quantity uint16 `json:"quantity"`

	Raw   []uint16 `json:"raw,omitempty"`
	Value float64  `json:"value"`
	Alarm Alarm    `json:"alarm"`

	Health         uint16    `json:"health"`
	LastErrorCode  uint16    `json:"last_error_code"`
	LastError      string    `json:"last_error,omitempty"`
	ErrorSince     time.Time `json:"error_since,omitzero"`
	SecondsInError uint16    `json:"seconds_in_error"`

	TransactionID uint16    `json:"transaction_id"`
	UnitAddress   uint8     `json:"unit_address"`
	UpdatedAt     time.Time `json:"updated_at,omitzero"`

	Reads    uint64 `json:"reads"`
	Failures uint64 `json:"failures"`
}

func (p PointState) clone() PointState {
	if p.Raw != nil {
		raw := make([]uint16, len(p.Raw))
		copy(raw, p.Raw)
		p.Raw = raw
	}
	return p
}
