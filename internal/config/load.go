// internal/config/load.go
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. ACQUISITOR_LOG_LEVEL.
const EnvPrefix = "ACQUISITOR"

// flagKeys maps CLI flag names onto config keys.
var flagKeys = map[string]string{
	"tick":            "acquisition.tick",
	"stop-timeout":    "acquisition.stop_timeout",
	"unit-address":    "acquisition.unit_address",
	"source-mode":     "acquisition.source.mode",
	"source-endpoint": "acquisition.source.endpoint",
	"source-timeout":  "acquisition.source.timeout",
	"serial-device":   "acquisition.source.serial.device",
	"serial-baud":     "acquisition.source.serial.baud_rate",
	"mirror":          "mirror.enable",
	"mirror-listen":   "mirror.listen",
	"server":          "server.enable",
	"server-addr":     "server.addr",
	"log-level":       "log.level",
	"log-format":      "log.format",
	"log-path":        "log.path",
}

// RegisterFlags adds the overridable settings to fs, defaulted from NewDefaultConfig.
func RegisterFlags(fs *pflag.FlagSet) {
	d := NewDefaultConfig()

	fs.StringP("config", "c", "", "path to config file (yaml)")

	fs.Duration("tick", d.Acquisition.Tick, "acquisition trigger period")
	fs.Duration("stop-timeout", d.Acquisition.StopTimeout, "max wait for an in-flight read on shutdown")
	fs.Uint8("unit-address", d.Acquisition.UnitAddress, "Modbus unit address")
	fs.String("source-mode", d.Acquisition.Source.Mode, "source transport [tcp,rtu]")
	fs.String("source-endpoint", d.Acquisition.Source.Endpoint, "Modbus TCP endpoint host:port")
	fs.Duration("source-timeout", d.Acquisition.Source.Timeout, "per-request timeout")
	fs.String("serial-device", d.Acquisition.Source.Serial.Device, "RTU serial device")
	fs.Int("serial-baud", d.Acquisition.Source.Serial.BaudRate, "RTU baud rate")

	fs.Bool("mirror", d.Mirror.Enable, "expose acquired data through a Modbus slave")
	fs.String("mirror-listen", d.Mirror.Listen, "mirror listen address")

	fs.Bool("server", d.Server.Enable, "serve /metrics, /health and /points")
	fs.String("server-addr", d.Server.Addr, "HTTP listen address")

	fs.String("log-level", d.Log.Level, "log level [debug,info,warn,error]")
	fs.String("log-format", d.Log.Format, "console log format [console,json]")
	fs.String("log-path", d.Log.Path, "directory for rotated JSON logs (empty disables)")
}

// LoadFile reads a YAML file strictly (unknown keys fail), then normalizes and validates.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := NewDefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return finish(cfg)
}

// LoadWithCli layers defaults, config file, environment and changed flags.
func LoadWithCli(cmd *cobra.Command) (*Config, error) {
	v := viper.New()

	// defaults come from the flag defaults, which mirror NewDefaultConfig
	for flag, key := range flagKeys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := NewDefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("new decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return finish(cfg)
}

// Dump renders cfg as YAML.
func Dump(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

func finish(cfg *Config) (*Config, error) {
	Normalize(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
