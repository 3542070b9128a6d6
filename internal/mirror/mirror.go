// internal/mirror/mirror.go
package mirror

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tbrandon/mbserver"
	"go.uber.org/zap"

	"github.com/tamzrod/modbus-acquisitor/internal/acquisition"
	"github.com/tamzrod/modbus-acquisitor/internal/state"
)

// Mirror republishes acquired point state through an in-process Modbus slave.
//
// Data is written at the point's own table and address. Each point also owns
// a status block in holding registers at StatusBase + index*SlotsPerPoint.
type Mirror struct {
	serv *mbserver.Server
	base uint16
	log  *zap.Logger

	// mu guards slave memory; publishers and the slave's read handlers both hold it.
	mu     sync.Mutex
	seeded map[int]bool

	listening bool
}

var _ state.Publisher = (*Mirror)(nil)

// New builds a mirror with empty slave memory. Nothing listens until Start.
func New(statusBase uint16, log *zap.Logger) *Mirror {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Mirror{
		serv:   mbserver.NewServer(),
		base:   statusBase,
		log:    log,
		seeded: make(map[int]bool),
	}

	// Reads see whole publishes only.
	m.serv.RegisterFunctionHandler(1, m.locked(mbserver.ReadCoils))
	m.serv.RegisterFunctionHandler(2, m.locked(mbserver.ReadDiscreteInputs))
	m.serv.RegisterFunctionHandler(3, m.locked(mbserver.ReadHoldingRegisters))
	m.serv.RegisterFunctionHandler(4, m.locked(mbserver.ReadInputRegisters))

	// The mirror is read-only: name slots are written once and must not be overwritten.
	for _, fc := range []uint8{5, 6, 15, 16} {
		m.serv.RegisterFunctionHandler(fc, rejectWrite)
	}
	return m
}

type slaveHandler func(*mbserver.Server, mbserver.Framer) ([]byte, *mbserver.Exception)

func (m *Mirror) locked(h slaveHandler) slaveHandler {
	return func(s *mbserver.Server, f mbserver.Framer) ([]byte, *mbserver.Exception) {
		m.mu.Lock()
		defer m.mu.Unlock()
		return h(s, f)
	}
}

func rejectWrite(*mbserver.Server, mbserver.Framer) ([]byte, *mbserver.Exception) {
	return []byte{}, &mbserver.IllegalFunction
}

// Seed writes a full status block for every point, typically the
// initial store snapshot, so identities are visible before the first read.
func (m *Mirror) Seed(points []state.PointState) error {
	var errs []error
	for _, p := range points {
		if err := m.Publish(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Start opens the slave on addr.
func (m *Mirror) Start(addr string) error {
	if err := m.serv.ListenTCP(addr); err != nil {
		return fmt.Errorf("mirror: listen %s: %w", addr, err)
	}
	m.mu.Lock()
	m.listening = true
	m.mu.Unlock()
	m.log.Info("modbus mirror listening", zap.String("addr", addr))
	return nil
}

// Close stops the slave.
func (m *Mirror) Close() {
	m.mu.Lock()
	listening := m.listening
	m.listening = false
	m.mu.Unlock()
	if listening {
		m.serv.Close()
	}
}

// Publish writes the point's data (when healthy) and status block.
func (m *Mirror) Publish(p state.PointState) error {
	if p.Index < 0 {
		return fmt.Errorf("mirror: point %q: negative index", p.Name)
	}
	t, err := acquisition.ParsePointType(p.Type)
	if err != nil {
		return fmt.Errorf("mirror: point %q: %w", p.Name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if p.Health == state.HealthOK && len(p.Raw) > 0 {
		if err := m.writeData(t, p.Address, p.Raw); err != nil {
			return fmt.Errorf("mirror: point %q: %w", p.Name, err)
		}
	}

	return m.writeStatus(p)
}

func (m *Mirror) writeData(t acquisition.PointType, addr uint16, values []uint16) error {
	if int(addr)+len(values) > 0x10000 {
		return fmt.Errorf("data %d+%d exceeds address space", addr, len(values))
	}

	switch t {
	case acquisition.PointCoil:
		writeBits(m.serv.Coils, addr, values)
	case acquisition.PointDiscreteInput:
		writeBits(m.serv.DiscreteInputs, addr, values)
	case acquisition.PointHoldingRegister:
		copy(m.serv.HoldingRegisters[addr:], values)
	case acquisition.PointInputRegister:
		copy(m.serv.InputRegisters[addr:], values)
	default:
		return fmt.Errorf("unsupported type %s", t)
	}
	return nil
}

// writeBits stores one byte per bit, as mbserver expects.
func writeBits(dst []byte, addr uint16, values []uint16) {
	for i, v := range values {
		var b byte
		if v != 0 {
			b = 1
		}
		dst[int(addr)+i] = b
	}
}

// writeStatus re-asserts the whole block on first sight of a point and
// only the live slots afterwards.
func (m *Mirror) writeStatus(p state.PointState) error {
	if int(m.base)+(p.Index+1)*SlotsPerPoint > 0x10000 {
		return fmt.Errorf("mirror: point %q: status block exceeds address space", p.Name)
	}
	at := blockAddr(m.base, p.Index)

	regs := encodeStatus(p)
	hr := m.serv.HoldingRegisters[at : int(at)+SlotsPerPoint]

	if !m.seeded[p.Index] {
		copy(regs[SlotNameStart:SlotNameEnd+1], encodeNameRegs(p.Name))
		copy(hr, regs)
		m.seeded[p.Index] = true
		return nil
	}

	copy(hr[SlotHealthCode:SlotAlarm+1], regs[SlotHealthCode:SlotAlarm+1])
	return nil
}
