// internal/acquisition/types.go
package acquisition

import "fmt"

// PointType selects the Modbus table a point is read from.
type PointType uint8

const (
	PointCoil            PointType = 1 // FC 1
	PointDiscreteInput   PointType = 2 // FC 2
	PointHoldingRegister PointType = 3 // FC 3
	PointInputRegister   PointType = 4 // FC 4
)

// FunctionCode returns the Modbus read function code for the point type.
func (t PointType) FunctionCode() uint8 { return uint8(t) }

// IsBit reports whether the point lives in a single-bit table.
func (t PointType) IsBit() bool {
	return t == PointCoil || t == PointDiscreteInput
}

func (t PointType) String() string {
	switch t {
	case PointCoil:
		return "coil"
	case PointDiscreteInput:
		return "discrete_input"
	case PointHoldingRegister:
		return "holding_register"
	case PointInputRegister:
		return "input_register"
	default:
		return fmt.Sprintf("point_type(%d)", uint8(t))
	}
}

// ParsePointType maps a configuration name onto a PointType.
func ParsePointType(s string) (PointType, error) {
	switch s {
	case "coil":
		return PointCoil, nil
	case "discrete_input":
		return PointDiscreteInput, nil
	case "holding_register":
		return PointHoldingRegister, nil
	case "input_register":
		return PointInputRegister, nil
	default:
		return 0, fmt.Errorf("acquisition: unknown point type %q", s)
	}
}

// ConfigItem is one polling target.
//
// Items are created and owned by the configuration provider.
// SecondsPassedSinceLastPoll is written by the scheduler loop only.
type ConfigItem struct {
	Name string
	Type PointType

	// Read geometry, passed through to the executor.
	StartAddress      uint16
	NumberOfRegisters uint16

	// AcquisitionInterval is the number of trigger ticks between reads.
	AcquisitionInterval        int
	SecondsPassedSinceLastPoll int

	// Engineering-unit conversion: egu = raw*ScalingFactor + Deviation.
	ScalingFactor float64
	Deviation     float64

	// Alarm limits on the engineering value. Both zero disables alarming.
	LowLimit  float64
	HighLimit float64
}

// ItemSnapshot is a read-only copy of an item's scheduling state.
type ItemSnapshot struct {
	Name                       string
	AcquisitionInterval        int
	SecondsPassedSinceLastPoll int
}

func (it *ConfigItem) snapshot() ItemSnapshot {
	return ItemSnapshot{
		Name:                       it.Name,
		AcquisitionInterval:        it.AcquisitionInterval,
		SecondsPassedSinceLastPoll: it.SecondsPassedSinceLastPoll,
	}
}

// Trigger is the consumer side of a single-slot wake-up primitive.
// Several signals delivered before a receive may coalesce into one.
type Trigger interface {
	C() <-chan struct{}
}

// SessionParams supplies connection-scoped addressing.
// Both values are read fresh on every dispatch.
type SessionParams interface {
	TransactionID() (uint16, error)
	UnitAddress() (uint8, error)
}

// ConfigurationProvider owns the configured items and the session addressing.
type ConfigurationProvider interface {
	SessionParams
	ConfigurationItems() []*ConfigItem
}

// CommandExecutor performs one read and reports its outcome.
type CommandExecutor interface {
	ExecuteReadCommand(item *ConfigItem, transactionID uint16, unitAddress uint8, startAddress, numberOfRegisters uint16) error
}

// ExecutorFunc adapts a plain function to CommandExecutor.
type ExecutorFunc func(item *ConfigItem, transactionID uint16, unitAddress uint8, startAddress, numberOfRegisters uint16) error

func (f ExecutorFunc) ExecuteReadCommand(item *ConfigItem, transactionID uint16, unitAddress uint8, startAddress, numberOfRegisters uint16) error {
	return f(item, transactionID, unitAddress, startAddress, numberOfRegisters)
}
