// internal/config/provider.go
package config

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"github.com/tamzrod/modbus-acquisitor/internal/acquisition"
)

// Provider serves acquisition items and session addressing from a loaded config.
type Provider struct {
	items []*acquisition.ConfigItem
	unit  uint8
	tid   atomic.Uint32
}

var _ acquisition.ConfigurationProvider = (*Provider)(nil)

// NewProvider builds one ConfigItem per configured point, in file order.
// Assumes config has already passed validation.
func NewProvider(a AcquisitionConfig) (*Provider, error) {
	items := make([]*acquisition.ConfigItem, 0, len(a.Points))
	for _, p := range a.Points {
		t, err := acquisition.ParsePointType(p.Type)
		if err != nil {
			return nil, fmt.Errorf("point %q: %w", p.Name, err)
		}
		items = append(items, &acquisition.ConfigItem{
			Name:                p.Name,
			Type:                t,
			StartAddress:        p.StartAddress,
			NumberOfRegisters:   p.NumberOfRegisters,
			AcquisitionInterval: p.AcquisitionInterval,
			ScalingFactor:       p.ScalingFactor,
			Deviation:           p.Deviation,
			LowLimit:            p.LowLimit,
			HighLimit:           p.HighLimit,
		})
	}

	pr := &Provider{items: items, unit: a.UnitAddress}

	seed := a.TransactionSeed
	if seed == 0 {
		// Randomize starting TID (best effort).
		var b [2]byte
		if _, err := rand.Read(b[:]); err == nil {
			seed = binary.BigEndian.Uint16(b[:])
		}
	}
	pr.tid.Store(uint32(seed))

	return pr, nil
}

// ConfigurationItems returns the owned items. The slice is shared, not copied.
func (p *Provider) ConfigurationItems() []*acquisition.ConfigItem {
	return p.items
}

// TransactionID returns the next transaction id, wrapping at 16 bits.
func (p *Provider) TransactionID() (uint16, error) {
	return uint16(p.tid.Add(1)), nil
}

// UnitAddress returns the configured unit address.
func (p *Provider) UnitAddress() (uint8, error) {
	return p.unit, nil
}
