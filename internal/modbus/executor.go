// internal/modbus/executor.go
package modbus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/modbus-acquisitor/internal/acquisition"
	"github.com/tamzrod/modbus-acquisitor/internal/state"
)

// Updater receives read outcomes. state.Store satisfies it.
type Updater interface {
	Update(r state.Reading) error
	Fail(point string, transactionID uint16, unitAddress uint8, cause error) error
}

// Executor implements acquisition.CommandExecutor over one Modbus link.
// Requests are serialized because the unit address is set per request.
// The MBAP transaction id is owned by goburrow; the session transaction id
// travels with the reading for correlation.
type Executor struct {
	mu      sync.Mutex
	link    Link
	updater Updater
	log     *zap.Logger
	now     func() time.Time
}

var _ acquisition.CommandExecutor = (*Executor)(nil)

// NewExecutor wires a link to a state updater.
func NewExecutor(link Link, updater Updater, log *zap.Logger) (*Executor, error) {
	if link == nil {
		return nil, errors.New("modbus: link required")
	}
	if updater == nil {
		return nil, errors.New("modbus: updater required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{link: link, updater: updater, log: log, now: time.Now}, nil
}

// ExecuteReadCommand performs one read for item and records the outcome.
func (e *Executor) ExecuteReadCommand(item *acquisition.ConfigItem, transactionID uint16, unitAddress uint8, startAddress, numberOfRegisters uint16) error {
	if item == nil {
		return errors.New("modbus: nil item")
	}

	values, err := e.read(item.Type, unitAddress, startAddress, numberOfRegisters)
	if err != nil {
		err = fmt.Errorf("modbus: read %s fc=%d addr=%d qty=%d unit=%d tid=%d: %w",
			item.Name, item.Type.FunctionCode(), startAddress, numberOfRegisters, unitAddress, transactionID, err)
		if ferr := e.updater.Fail(item.Name, transactionID, unitAddress, err); ferr != nil {
			e.log.Warn("state fail record rejected", zap.String("point", item.Name), zap.Error(ferr))
		}
		return err
	}

	e.log.Debug("read ok",
		zap.String("point", item.Name),
		zap.Uint16("tid", transactionID),
		zap.Uint8("unit", unitAddress),
		zap.Uint16s("values", values),
	)

	return e.updater.Update(state.Reading{
		Point:         item.Name,
		Type:          item.Type,
		Address:       startAddress,
		TransactionID: transactionID,
		UnitAddress:   unitAddress,
		Values:        values,
		At:            e.now(),
	})
}

// Close releases the link.
func (e *Executor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.link.Close()
}

func (e *Executor) read(t acquisition.PointType, unit uint8, addr, qty uint16) ([]uint16, error) {
	if qty == 0 {
		return nil, errors.New("zero quantity")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.link.SetUnit(unit)

	var (
		raw []byte
		err error
	)
	switch t {
	case acquisition.PointCoil:
		raw, err = e.link.ReadCoils(addr, qty)
	case acquisition.PointDiscreteInput:
		raw, err = e.link.ReadDiscreteInputs(addr, qty)
	case acquisition.PointHoldingRegister:
		raw, err = e.link.ReadHoldingRegisters(addr, qty)
	case acquisition.PointInputRegister:
		raw, err = e.link.ReadInputRegisters(addr, qty)
	default:
		return nil, fmt.Errorf("unsupported point type %s", t)
	}

	if err != nil {
		if exc, ok := asException(err); ok {
			return nil, exc
		}
		// Transport death: drop the connection, next dispatch reconnects.
		if rerr := e.link.Reset(); rerr != nil {
			e.log.Debug("link reset failed", zap.Error(rerr))
		}
		return nil, err
	}

	if t.IsBit() {
		return decodeBits(raw, qty)
	}
	return decodeRegisters(raw, qty)
}
