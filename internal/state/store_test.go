// internal/state/store_test.go
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-acquisitor/internal/acquisition"
)

type codedErr struct{ code uint16 }

func (e codedErr) Error() string { return fmt.Sprintf("coded %d", e.code) }
func (e codedErr) Code() uint16  { return e.code }

type recordingPublisher struct {
	mu   sync.Mutex
	seen []PointState
	err  error
}

func (r *recordingPublisher) Publish(p PointState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, p)
	return r.err
}

func testItems() []*acquisition.ConfigItem {
	return []*acquisition.ConfigItem{
		{
			Name: "level", Type: acquisition.PointHoldingRegister,
			StartAddress: 0, NumberOfRegisters: 1, AcquisitionInterval: 1,
			ScalingFactor: 0.1, Deviation: 2, LowLimit: 10, HighLimit: 90,
		},
		{
			Name: "pump", Type: acquisition.PointCoil,
			StartAddress: 5, NumberOfRegisters: 1, AcquisitionInterval: 2,
		},
		{
			Name: "energy", Type: acquisition.PointInputRegister,
			StartAddress: 100, NumberOfRegisters: 2, AcquisitionInterval: 3,
		},
	}
}

func TestNewStore_StartsUnknown(t *testing.T) {
	s := NewStore(testItems(), nil)

	snap := s.Snapshot()
	require.Len(t, snap, 3)
	for i, p := range snap {
		assert.Equal(t, i, p.Index)
		assert.Equal(t, HealthUnknown, p.Health)
	}
	assert.Equal(t, "coil", snap[1].Type)
}

func TestUpdate_ScalesAndClassifies(t *testing.T) {
	s := NewStore(testItems(), nil)

	require.NoError(t, s.Update(Reading{Point: "level", Values: []uint16{500}, TransactionID: 9, UnitAddress: 3}))
	p, ok := s.Get("level")
	require.True(t, ok)
	assert.InDelta(t, 52.0, p.Value, 1e-9)
	assert.Equal(t, AlarmNone, p.Alarm)
	assert.Equal(t, HealthOK, p.Health)
	assert.Equal(t, uint16(9), p.TransactionID)
	assert.Equal(t, uint8(3), p.UnitAddress)
	assert.Equal(t, uint64(1), p.Reads)

	require.NoError(t, s.Update(Reading{Point: "level", Values: []uint16{20}}))
	p, _ = s.Get("level")
	assert.Equal(t, AlarmLow, p.Alarm)

	require.NoError(t, s.Update(Reading{Point: "level", Values: []uint16{1000}}))
	p, _ = s.Get("level")
	assert.Equal(t, AlarmHigh, p.Alarm)
}

func TestUpdate_BitsAndDoubleRegisters(t *testing.T) {
	s := NewStore(testItems(), nil)

	require.NoError(t, s.Update(Reading{Point: "pump", Values: []uint16{1}}))
	p, _ := s.Get("pump")
	assert.Equal(t, 1.0, p.Value)
	assert.Equal(t, AlarmNone, p.Alarm)

	require.NoError(t, s.Update(Reading{Point: "energy", Values: []uint16{0x0001, 0x0002}}))
	p, _ = s.Get("energy")
	assert.Equal(t, float64(0x00010002), p.Value)
}

func TestUpdate_UnknownPoint(t *testing.T) {
	s := NewStore(testItems(), nil)
	assert.Error(t, s.Update(Reading{Point: "nope"}))
	assert.Error(t, s.Fail("nope", 0, 0, errors.New("x")))
}

func TestFail_TracksErrorDurationAndRecovers(t *testing.T) {
	s := NewStore(testItems(), nil)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	s.now = func() time.Time { return now }

	require.NoError(t, s.Update(Reading{Point: "level", Values: []uint16{500}}))

	require.NoError(t, s.Fail("level", 4, 1, codedErr{code: 2}))
	p, _ := s.Get("level")
	assert.Equal(t, HealthError, p.Health)
	assert.Equal(t, uint16(2), p.LastErrorCode)
	assert.Equal(t, base, p.ErrorSince)
	assert.Equal(t, []uint16{500}, p.Raw, "last good data is kept")

	now = base.Add(7 * time.Second)
	require.NoError(t, s.Fail("level", 5, 1, errors.New("timeout")))
	p, _ = s.Get("level")
	assert.Equal(t, uint16(7), p.SecondsInError)
	assert.Equal(t, uint16(1), p.LastErrorCode)
	assert.Equal(t, uint64(2), p.Failures)

	now = base.Add(100000 * time.Second)
	require.NoError(t, s.Fail("level", 6, 1, errors.New("timeout")))
	p, _ = s.Get("level")
	assert.Equal(t, uint16(MaxSecondsInError), p.SecondsInError)

	require.NoError(t, s.Update(Reading{Point: "level", Values: []uint16{400}}))
	p, _ = s.Get("level")
	assert.Equal(t, HealthOK, p.Health)
	assert.Zero(t, p.SecondsInError)
	assert.Zero(t, p.LastErrorCode)
	assert.True(t, p.ErrorSince.IsZero())
}

func TestSnapshot_ReturnsCopies(t *testing.T) {
	s := NewStore(testItems(), nil)
	require.NoError(t, s.Update(Reading{Point: "level", Values: []uint16{1}}))

	snap := s.Snapshot()
	snap[0].Raw[0] = 42

	p, _ := s.Get("level")
	assert.Equal(t, uint16(1), p.Raw[0])
}

func TestPublishers_ReceiveChanges(t *testing.T) {
	s := NewStore(testItems(), nil)
	ok := &recordingPublisher{}
	bad := &recordingPublisher{err: errors.New("mirror down")}
	s.AddPublisher(ok)
	s.AddPublisher(bad)
	s.AddPublisher(nil)

	require.NoError(t, s.Update(Reading{Point: "pump", Values: []uint16{0}}))
	require.NoError(t, s.Fail("energy", 1, 1, errors.New("x")))

	require.Len(t, ok.seen, 2)
	assert.Equal(t, "pump", ok.seen[0].Name)
	assert.Equal(t, HealthError, ok.seen[1].Health)
	assert.Len(t, bad.seen, 2)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, uint16(0), ErrorCode(nil))
	assert.Equal(t, uint16(1), ErrorCode(errors.New("plain")))
	assert.Equal(t, uint16(4), ErrorCode(fmt.Errorf("wrapped: %w", codedErr{code: 4})))
}

func TestSecondsInError_AdvancesWithoutNewFailures(t *testing.T) {
	s := NewStore(testItems(), nil)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	s.now = func() time.Time { return now }

	pub := &recordingPublisher{}
	s.AddPublisher(pub)

	require.NoError(t, s.Fail("pump", 1, 1, errors.New("timeout")))
	require.NoError(t, s.Update(Reading{Point: "level", Values: []uint16{500}}))

	now = base.Add(30 * time.Second)
	p, _ := s.Get("pump")
	assert.Equal(t, uint16(30), p.SecondsInError)
	assert.Equal(t, uint16(30), s.Snapshot()[1].SecondsInError)

	s.Refresh()
	require.Len(t, pub.seen, 3)
	assert.Equal(t, "pump", pub.seen[2].Name)
	assert.Equal(t, uint16(30), pub.seen[2].SecondsInError)

	// nothing moved, nothing published
	s.Refresh()
	assert.Len(t, pub.seen, 3)

	p, _ = s.Get("level")
	assert.Zero(t, p.SecondsInError)
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := NewStore(testItems(), nil)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	require.NoError(t, s.Fail("energy", 1, 1, errors.New("x")))

	pub := &recordingPublisher{}
	s.AddPublisher(pub)
	s.now = func() time.Time { return base.Add(5 * time.Second) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return len(pub.seen) > 0 && pub.seen[0].SecondsInError == 5
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestPointState_JSONOmitsZeroTimes(t *testing.T) {
	s := NewStore(testItems(), nil)

	b, err := json.Marshal(s.Snapshot()[0])
	require.NoError(t, err)
	assert.NotContains(t, string(b), "error_since")
	assert.NotContains(t, string(b), "updated_at")

	require.NoError(t, s.Fail("level", 1, 1, errors.New("x")))
	p, _ := s.Get("level")
	b, err = json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"error_since"`)
	assert.Contains(t, string(b), `"updated_at"`)
}
