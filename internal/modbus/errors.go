// internal/modbus/errors.go
package modbus

import (
	"errors"
	"fmt"

	"github.com/goburrow/modbus"
)

// ExceptionError is a Modbus exception response from the device.
// The link stays healthy; only the request was refused.
type ExceptionError struct {
	Function  uint8
	Exception uint8
}

func (e *ExceptionError) Error() string {
	return fmt.Sprintf("modbus exception: fc=%d code=%d", e.Function, e.Exception)
}

// Code exposes the exception code to state.ErrorCode.
func (e *ExceptionError) Code() uint16 {
	return uint16(e.Exception)
}

// asException converts a goburrow exception into an ExceptionError.
func asException(err error) (*ExceptionError, bool) {
	var mbErr *modbus.ModbusError
	if errors.As(err, &mbErr) {
		fc := mbErr.FunctionCode &^ 0x80
		return &ExceptionError{Function: fc, Exception: mbErr.ExceptionCode}, true
	}
	return nil, false
}
