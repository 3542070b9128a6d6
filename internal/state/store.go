// internal/state/store.go
package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/modbus-acquisitor/internal/acquisition"
)

// Publisher receives every state change, after the store lock is released.
type Publisher interface {
	Publish(p PointState) error
}

// Store holds the latest state of every configured point.
// Writers are the command executor; readers are HTTP and metrics.
type Store struct {
	mu     sync.RWMutex
	index  map[string]int
	points []PointState
	items  []*acquisition.ConfigItem

	pubMu sync.RWMutex
	pubs  []Publisher

	log *zap.Logger
	now func() time.Time
}

// NewStore registers one point per item, in item order.
func NewStore(items []*acquisition.ConfigItem, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		index:  make(map[string]int, len(items)),
		points: make([]PointState, len(items)),
		items:  items,
		log:    log,
		now:    time.Now,
	}
	for i, it := range items {
		s.index[it.Name] = i
		s.points[i] = PointState{
			Index:    i,
			Name:     it.Name,
			Type:     it.Type.String(),
			Address:  it.StartAddress,
			Quantity: it.NumberOfRegisters,
			Health:   HealthUnknown,
		}
	}
	return s
}

// AddPublisher attaches a change listener.
func (s *Store) AddPublisher(p Publisher) {
	if p == nil {
		return
	}
	s.pubMu.Lock()
	s.pubs = append(s.pubs, p)
	s.pubMu.Unlock()
}

// Update records a successful read and derives value, alarm and health.
func (s *Store) Update(r Reading) error {
	s.mu.Lock()
	i, ok := s.index[r.Point]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("state: unknown point %q", r.Point)
	}
	item := s.items[i]
	p := &s.points[i]

	raw := make([]uint16, len(r.Values))
	copy(raw, r.Values)

	at := r.At
	if at.IsZero() {
		at = s.now()
	}

	p.Raw = raw
	p.Value = engineeringValue(item, raw)
	p.Alarm = classify(item, p.Value)
	p.Health = HealthOK
	p.LastErrorCode = 0
	p.LastError = ""
	p.ErrorSince = time.Time{}
	p.SecondsInError = 0
	p.TransactionID = r.TransactionID
	p.UnitAddress = r.UnitAddress
	p.UpdatedAt = at
	p.Reads++

	out := p.clone()
	s.mu.Unlock()

	s.publish(out)
	return nil
}

// Fail records a failed read attempt. Raw data from the last success is kept.
func (s *Store) Fail(point string, transactionID uint16, unitAddress uint8, cause error) error {
	now := s.now()

	s.mu.Lock()
	i, ok := s.index[point]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("state: unknown point %q", point)
	}
	p := &s.points[i]

	if p.Health != HealthError || p.ErrorSince.IsZero() {
		p.ErrorSince = now
	}
	p.Health = HealthError
	p.LastErrorCode = ErrorCode(cause)
	if cause != nil {
		p.LastError = cause.Error()
	}
	p.SecondsInError = secondsSince(p.ErrorSince, now)
	p.TransactionID = transactionID
	p.UnitAddress = unitAddress
	p.UpdatedAt = now
	p.Failures++

	out := p.clone()
	s.mu.Unlock()

	s.publish(out)
	return nil
}

// Get returns a copy of one point's state.
func (s *Store) Get(name string) (PointState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[name]
	if !ok {
		return PointState{}, false
	}
	return s.live(s.points[i], s.now()), true
}

// Snapshot returns copies of all points in configuration order.
func (s *Store) Snapshot() []PointState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	out := make([]PointState, len(s.points))
	for i := range s.points {
		out[i] = s.live(s.points[i], now)
	}
	return out
}

// live clones p with its error duration measured at now.
func (s *Store) live(p PointState, now time.Time) PointState {
	out := p.clone()
	if out.Health == HealthError && !out.ErrorSince.IsZero() {
		out.SecondsInError = secondsSince(out.ErrorSince, now)
	}
	return out
}

// Refresh advances the error duration of every failing point and
// publishes the ones whose value changed.
func (s *Store) Refresh() {
	now := s.now()

	s.mu.Lock()
	var changed []PointState
	for i := range s.points {
		p := &s.points[i]
		if p.Health != HealthError || p.ErrorSince.IsZero() {
			continue
		}
		sec := secondsSince(p.ErrorSince, now)
		if sec == p.SecondsInError {
			continue
		}
		p.SecondsInError = sec
		changed = append(changed, p.clone())
	}
	s.mu.Unlock()

	for _, p := range changed {
		s.publish(p)
	}
}

// Run calls Refresh every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Refresh()
		}
	}
}

func (s *Store) publish(p PointState) {
	s.pubMu.RLock()
	pubs := s.pubs
	s.pubMu.RUnlock()

	for _, pub := range pubs {
		if err := pub.Publish(p); err != nil {
			s.log.Warn("state publish failed", zap.String("point", p.Name), zap.Error(err))
		}
	}
}

// engineeringValue converts raw values using the item scaling.
// Two registers form a big-endian 32-bit word; bit points are never scaled.
func engineeringValue(item *acquisition.ConfigItem, raw []uint16) float64 {
	if len(raw) == 0 {
		return 0
	}

	var v float64
	if item.NumberOfRegisters == 2 && len(raw) >= 2 && !item.Type.IsBit() {
		v = float64(uint32(raw[0])<<16 | uint32(raw[1]))
	} else {
		v = float64(raw[0])
	}

	if item.Type.IsBit() {
		return v
	}

	scale := item.ScalingFactor
	if scale == 0 {
		scale = 1
	}
	return v*scale + item.Deviation
}

func classify(item *acquisition.ConfigItem, v float64) Alarm {
	if item.Type.IsBit() || (item.LowLimit == 0 && item.HighLimit == 0) {
		return AlarmNone
	}
	switch {
	case v < item.LowLimit:
		return AlarmLow
	case v > item.HighLimit:
		return AlarmHigh
	default:
		return AlarmNone
	}
}

// secondsSince saturates instead of wrapping.
func secondsSince(since, now time.Time) uint16 {
	d := now.Sub(since)
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if sec > MaxSecondsInError {
		return MaxSecondsInError
	}
	return uint16(sec)
}
