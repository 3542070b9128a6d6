// internal/config/load_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tamzrod/modbus-acquisitor/internal/acquisition"
)

const sampleYAML = `
acquisition:
  tick: 500ms
  unit_address: 7
  transaction_seed: 100
  source:
    mode: tcp
    endpoint: 10.0.0.5:502
    timeout: 1s
  points:
    - name: tank_level
      type: holding_register
      start_address: 0
      number_of_registers: 1
      acquisition_interval: 2
      scaling_factor: 0.1
      low_limit: 10
      high_limit: 90
    - name: pump_running
      type: COIL
      start_address: 8
      number_of_registers: 1
      acquisition_interval: 3
log:
  level: debug
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	a := cfg.Acquisition
	assert.Equal(t, 500*time.Millisecond, a.Tick)
	assert.Equal(t, uint8(7), a.UnitAddress)
	assert.Equal(t, "10.0.0.5:502", a.Source.Endpoint)
	assert.Equal(t, time.Second, a.Source.Timeout)
	require.Len(t, a.Points, 2)
	assert.Equal(t, "coil", a.Points[1].Type)
	assert.Equal(t, 1.0, a.Points[1].ScalingFactor)

	// untouched defaults survive
	assert.Equal(t, 5*time.Second, a.StopTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadFile_UnknownKeyRejected(t *testing.T) {
	_, err := LoadFile(writeConfig(t, sampleYAML+"bogus: 1\n"))
	assert.Error(t, err)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func newTestCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	RegisterFlags(cmd.Flags())
	return cmd
}

func TestLoadWithCli_FileThenFlags(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	cmd := newTestCommand()
	require.NoError(t, cmd.Flags().Parse([]string{"-c", path, "--log-level", "warn", "--tick", "2s"}))

	cfg, err := LoadWithCli(cmd)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level, "changed flag beats file")
	assert.Equal(t, 2*time.Second, cfg.Acquisition.Tick)
	assert.Equal(t, uint8(7), cfg.Acquisition.UnitAddress, "file beats flag default")
	require.Len(t, cfg.Acquisition.Points, 2)
	assert.Equal(t, "tank_level", cfg.Acquisition.Points[0].Name)
	assert.InDelta(t, 0.1, cfg.Acquisition.Points[0].ScalingFactor, 1e-9)
}

func TestLoadWithCli_Env(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	t.Setenv("ACQUISITOR_LOG_FORMAT", "json")

	cmd := newTestCommand()
	require.NoError(t, cmd.Flags().Parse([]string{"--config", path}))

	cfg, err := LoadWithCli(cmd)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadWithCli_NoPoints(t *testing.T) {
	cmd := newTestCommand()
	require.NoError(t, cmd.Flags().Parse(nil))

	_, err := LoadWithCli(cmd)
	assert.ErrorIs(t, err, ErrNoPoints)
}

func TestDump_RoundTripsThroughLoadFile(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	out, err := Dump(cfg)
	require.NoError(t, err)

	var back Config
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, cfg.Acquisition.Tick, back.Acquisition.Tick)
	assert.Equal(t, cfg.Acquisition.Points, back.Acquisition.Points)
}

func TestProvider_ItemsAndSession(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	p, err := NewProvider(cfg.Acquisition)
	require.NoError(t, err)

	items := p.ConfigurationItems()
	require.Len(t, items, 2)
	assert.Equal(t, acquisition.PointHoldingRegister, items[0].Type)
	assert.Equal(t, acquisition.PointCoil, items[1].Type)
	assert.Equal(t, 2, items[0].AcquisitionInterval)
	assert.Same(t, items[0], p.ConfigurationItems()[0], "items are fetched, not rebuilt")

	unit, err := p.UnitAddress()
	require.NoError(t, err)
	assert.Equal(t, uint8(7), unit)

	first, _ := p.TransactionID()
	second, _ := p.TransactionID()
	assert.Equal(t, uint16(101), first)
	assert.Equal(t, uint16(102), second)
}

func TestProvider_TransactionIDWraps(t *testing.T) {
	p, err := NewProvider(AcquisitionConfig{TransactionSeed: 0xFFFF})
	require.NoError(t, err)

	tid, _ := p.TransactionID()
	assert.Equal(t, uint16(0), tid)
	tid, _ = p.TransactionID()
	assert.Equal(t, uint16(1), tid)
}

func TestProvider_RejectsUnknownType(t *testing.T) {
	_, err := NewProvider(AcquisitionConfig{Points: []PointConfig{{Name: "x", Type: "analog"}}})
	assert.Error(t, err)
}
