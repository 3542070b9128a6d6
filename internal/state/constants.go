// internal/state/constants.go
package state

// ---- HEALTH CODES ----
// Values are shared with the mirror status block and MUST NOT change.

// HealthUnknown represents a point that has not been read yet.
const HealthUnknown uint16 = 0

// HealthOK represents a point whose last read succeeded.
const HealthOK uint16 = 1

// HealthError represents a point whose last read failed.
const HealthError uint16 = 2

// ---- ALARM CODES ----

// Alarm classifies the engineering value against the configured limits.
type Alarm uint16

const (
	AlarmNone Alarm = 0
	AlarmLow  Alarm = 1
	AlarmHigh Alarm = 2
)

func (a Alarm) String() string {
	switch a {
	case AlarmLow:
		return "low"
	case AlarmHigh:
		return "high"
	default:
		return "none"
	}
}

// MaxSecondsInError is where the seconds-in-error counter saturates.
const MaxSecondsInError = 65535
