// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/go-playground/validator/v10"
)

var valid = validator.New()

// ErrNoPoints is returned when nothing is configured for acquisition.
var ErrNoPoints = errors.New("config: at least one point is required")

// Modbus per-request quantity limits.
const (
	maxBitsPerRead      = 2000
	maxRegistersPerRead = 125
)

// StatusSlots is the size of one point's status block in the mirror.
const StatusSlots = 20

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}

	if err := valid.Struct(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	a := cfg.Acquisition

	// ------------------------------------------------------------
	// SOURCE
	// ------------------------------------------------------------

	switch a.Source.Mode {
	case "tcp":
		if _, _, err := net.SplitHostPort(a.Source.Endpoint); err != nil {
			return fmt.Errorf("source: endpoint %q must be host:port: %w", a.Source.Endpoint, err)
		}
	case "rtu":
		if a.Source.Serial.Device == "" {
			return errors.New("source: rtu mode requires serial.device")
		}
		if a.Source.Serial.BaudRate <= 0 {
			return errors.New("source: rtu mode requires serial.baud_rate > 0")
		}
	}

	// ------------------------------------------------------------
	// POINTS
	// ------------------------------------------------------------

	if len(a.Points) == 0 {
		return ErrNoPoints
	}

	names := make(map[string]int, len(a.Points))
	for i, p := range a.Points {
		if prev, exists := names[p.Name]; exists {
			return fmt.Errorf("point %q: duplicate name (points %d and %d)", p.Name, prev, i)
		}
		names[p.Name] = i

		limit := maxRegistersPerRead
		if p.Type == "coil" || p.Type == "discrete_input" {
			limit = maxBitsPerRead
		}
		if int(p.NumberOfRegisters) > limit {
			return fmt.Errorf("point %q: number_of_registers %d exceeds %d for %s",
				p.Name, p.NumberOfRegisters, limit, p.Type)
		}

		end := int(p.StartAddress) + int(p.NumberOfRegisters) - 1
		if end > 0xFFFF {
			return fmt.Errorf("point %q: range %d-%d exceeds address space",
				p.Name, p.StartAddress, end)
		}

		if p.LowLimit > p.HighLimit {
			return fmt.Errorf("point %q: low_limit %v above high_limit %v",
				p.Name, p.LowLimit, p.HighLimit)
		}
	}

	// ------------------------------------------------------------
	// MIRROR GEOMETRY
	// ------------------------------------------------------------

	if cfg.Mirror.Enable {
		if _, _, err := net.SplitHostPort(cfg.Mirror.Listen); err != nil {
			return fmt.Errorf("mirror: listen %q must be host:port: %w", cfg.Mirror.Listen, err)
		}
		if err := validateMirrorGeometry(cfg.Mirror, a.Points); err != nil {
			return err
		}
	}

	// ------------------------------------------------------------
	// HTTP
	// ------------------------------------------------------------

	if cfg.Server.Enable {
		if _, _, err := net.SplitHostPort(cfg.Server.Addr); err != nil {
			return fmt.Errorf("server: addr %q must be host:port: %w", cfg.Server.Addr, err)
		}
	}

	return nil
}

// validateMirrorGeometry checks that status blocks fit and do not overlap
// mirrored holding-register data.
func validateMirrorGeometry(m MirrorConfig, points []PointConfig) error {
	statusStart := int(m.StatusBase)
	statusEnd := statusStart + len(points)*StatusSlots - 1
	if statusEnd > 0xFFFF {
		return fmt.Errorf("mirror: status blocks %d-%d exceed address space", statusStart, statusEnd)
	}

	for _, p := range points {
		if p.Type != "holding_register" {
			continue
		}
		start := int(p.StartAddress)
		end := start + int(p.NumberOfRegisters) - 1

		// overlap check (inclusive)
		if !(end < statusStart || start > statusEnd) {
			return fmt.Errorf(
				"mirror overlap: point %q range=%d-%d overlaps status blocks %d-%d",
				p.Name, start, end, statusStart, statusEnd,
			)
		}
	}
	return nil
}
