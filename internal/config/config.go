// internal/config/config.go
package config

import "time"

type Config struct {
	Acquisition AcquisitionConfig `yaml:"acquisition" mapstructure:"acquisition"`
	Mirror      MirrorConfig      `yaml:"mirror" mapstructure:"mirror"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// ---- ACQUISITION ----

type AcquisitionConfig struct {
	Tick        time.Duration `yaml:"tick" mapstructure:"tick" validate:"gt=0"`
	StopTimeout time.Duration `yaml:"stop_timeout" mapstructure:"stop_timeout" validate:"gte=0"`

	// Session addressing
	UnitAddress     uint8  `yaml:"unit_address" mapstructure:"unit_address"`
	TransactionSeed uint16 `yaml:"transaction_seed" mapstructure:"transaction_seed"` // 0 => random start

	Source SourceConfig  `yaml:"source" mapstructure:"source"`
	Points []PointConfig `yaml:"points" mapstructure:"points" validate:"dive"`
}

// ---- SOURCE ----

type SourceConfig struct {
	Mode        string        `yaml:"mode" mapstructure:"mode" validate:"oneof=tcp rtu"`
	Endpoint    string        `yaml:"endpoint" mapstructure:"endpoint"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	IdleTimeout time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout" validate:"gte=0"`
	Serial      SerialConfig  `yaml:"serial" mapstructure:"serial"`
}

type SerialConfig struct {
	Device   string `yaml:"device" mapstructure:"device"`
	BaudRate int    `yaml:"baud_rate" mapstructure:"baud_rate" validate:"gte=0"`
	DataBits int    `yaml:"data_bits" mapstructure:"data_bits" validate:"omitempty,oneof=5 6 7 8"`
	Parity   string `yaml:"parity" mapstructure:"parity" validate:"omitempty,oneof=N E O"`
	StopBits int    `yaml:"stop_bits" mapstructure:"stop_bits" validate:"omitempty,oneof=1 2"`
}

// ---- POINTS ----

type PointConfig struct {
	Name                string  `yaml:"name" mapstructure:"name" validate:"required"`
	Type                string  `yaml:"type" mapstructure:"type" validate:"oneof=coil discrete_input holding_register input_register"`
	StartAddress        uint16  `yaml:"start_address" mapstructure:"start_address"`
	NumberOfRegisters   uint16  `yaml:"number_of_registers" mapstructure:"number_of_registers" validate:"gt=0"`
	AcquisitionInterval int     `yaml:"acquisition_interval" mapstructure:"acquisition_interval" validate:"gt=0"`
	ScalingFactor       float64 `yaml:"scaling_factor" mapstructure:"scaling_factor"`
	Deviation           float64 `yaml:"deviation" mapstructure:"deviation"`
	LowLimit            float64 `yaml:"low_limit" mapstructure:"low_limit"`
	HighLimit           float64 `yaml:"high_limit" mapstructure:"high_limit"`
}

// ---- MIRROR ----

// MirrorConfig exposes acquired data through an in-process Modbus slave.
type MirrorConfig struct {
	Enable     bool   `yaml:"enable" mapstructure:"enable"`
	Listen     string `yaml:"listen" mapstructure:"listen"`
	StatusBase uint16 `yaml:"status_base" mapstructure:"status_base"` // first holding register of the status blocks
}

// ---- HTTP ----

type ServerConfig struct {
	Enable bool   `yaml:"enable" mapstructure:"enable"`
	Addr   string `yaml:"addr" mapstructure:"addr"`
}

// ---- LOG ----

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=json console"`
	Path   string `yaml:"path" mapstructure:"path"` // empty => stdout only
	MaxAge int    `yaml:"max_age" mapstructure:"max_age" validate:"gte=0"` // days
}

// NewDefaultConfig returns a config with every optional field set.
func NewDefaultConfig() *Config {
	return &Config{
		Acquisition: AcquisitionConfig{
			Tick:        time.Second,
			StopTimeout: 5 * time.Second,
			UnitAddress: 1,
			Source: SourceConfig{
				Mode:        "tcp",
				Endpoint:    "127.0.0.1:502",
				Timeout:     2 * time.Second,
				IdleTimeout: 60 * time.Second,
				Serial: SerialConfig{
					BaudRate: 9600,
					DataBits: 8,
					Parity:   "N",
					StopBits: 1,
				},
			},
		},
		Mirror: MirrorConfig{
			Enable:     false,
			Listen:     "0.0.0.0:1502",
			StatusBase: 1000,
		},
		Server: ServerConfig{
			Enable: true,
			Addr:   "0.0.0.0:9100",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			Path:   "",
			MaxAge: 7,
		},
	}
}
