// internal/acquisition/scheduler.go
package acquisition

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// State is the scheduler loop state.
type State int32

const (
	StateIdle State = iota
	StateTicking
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTicking:
		return "ticking"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ErrStopped is returned when an operation needs a running scheduler.
var ErrStopped = errors.New("acquisition: scheduler stopped")

// DispatchReport describes one dispatch attempt.
type DispatchReport struct {
	Index         int
	Item          string
	TransactionID uint16
	UnitAddress   uint8
	Duration      time.Duration
	Err           error
}

// TickReport describes one completed tick.
// Items holds copies; mutating them has no effect on the scheduler.
type TickReport struct {
	Seq        uint64
	At         time.Time
	Duration   time.Duration
	Dispatched []int
	Failed     []int
	Items      []ItemSnapshot
}

// Observer receives reports on the scheduler goroutine.
// Implementations must not block.
type Observer interface {
	ObserveDispatch(r DispatchReport)
	ObserveTick(r TickReport)
}

type nopObserver struct{}

func (nopObserver) ObserveDispatch(DispatchReport) {}
func (nopObserver) ObserveTick(TickReport)         {}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the scheduler logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithObserver attaches a report observer.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		if o != nil {
			s.observer = o
		}
	}
}

// Scheduler turns trigger events into read dispatches.
// One goroutine. Dispatch is synchronous. No retries.
type Scheduler struct {
	trigger  Trigger
	items    []*ConfigItem
	executor CommandExecutor
	session  SessionParams
	log      *zap.Logger
	observer Observer

	state atomic.Int32
	seq   uint64

	// admission gate: no dispatch is admitted once stopped is set
	mu      sync.Mutex
	stopped bool

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// Start validates the wiring and launches the scheduling loop.
// Items are used as given; the slice is not copied and membership must not change.
func Start(trigger Trigger, items []*ConfigItem, executor CommandExecutor, session SessionParams, opts ...Option) (*Scheduler, error) {
	if trigger == nil {
		return nil, errors.New("acquisition: trigger required")
	}
	if executor == nil {
		return nil, errors.New("acquisition: command executor required")
	}
	if session == nil {
		return nil, errors.New("acquisition: session params required")
	}
	for i, it := range items {
		if it == nil {
			return nil, fmt.Errorf("acquisition: item %d is nil", i)
		}
		if it.AcquisitionInterval <= 0 {
			return nil, fmt.Errorf("acquisition: item %q: acquisition interval must be > 0", it.Name)
		}
		if it.SecondsPassedSinceLastPoll < 0 || it.SecondsPassedSinceLastPoll > it.AcquisitionInterval {
			return nil, fmt.Errorf("acquisition: item %q: elapsed counter %d outside [0,%d]",
				it.Name, it.SecondsPassedSinceLastPoll, it.AcquisitionInterval)
		}
	}

	s := newScheduler(trigger, items, executor, session, opts...)
	go s.run()
	return s, nil
}

func newScheduler(trigger Trigger, items []*ConfigItem, executor CommandExecutor, session SessionParams, opts ...Option) *Scheduler {
	s := &Scheduler{
		trigger:  trigger,
		items:    items,
		executor: executor,
		session:  session,
		log:      zap.NewNop(),
		observer: nopObserver{},
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state.Store(int32(StateIdle))
	return s
}

// State returns the current loop state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Done is closed when the loop has exited.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Stop requests termination and waits for the loop to exit or ctx to expire.
// After Stop returns no new dispatch is admitted. A dispatch already in
// flight is not interrupted; ctx expiry only means it has not returned yet.
// Safe to call more than once.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.stopOnce.Do(func() { close(s.stop) })

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("acquisition: stop: %w", ctx.Err())
	}
}

func (s *Scheduler) run() {
	defer close(s.done)
	defer s.state.Store(int32(StateStopped))

	s.log.Info("acquisition loop started", zap.Int("items", len(s.items)))
	defer func() {
		s.log.Info("acquisition loop stopped", zap.Uint64("ticks", s.seq))
	}()

	trig := s.trigger.C()

	for {
		// safe point before waiting
		select {
		case <-s.stop:
			return
		default:
		}

		select {
		case <-s.stop:
			return
		case _, ok := <-trig:
			if !ok {
				// A closed trigger never fires again; wait for stop only.
				s.log.Warn("trigger channel closed, waiting for stop")
				trig = nil
				continue
			}
			s.tick()
		}
	}
}

// tick runs one pass over every item, in configuration order.
func (s *Scheduler) tick() {
	s.state.Store(int32(StateTicking))
	defer s.state.CompareAndSwap(int32(StateTicking), int32(StateIdle))

	s.seq++
	start := time.Now()
	rep := TickReport{Seq: s.seq, At: start}

	for i, it := range s.items {
		it.SecondsPassedSinceLastPoll++

		// Exact equality. An interval lowered below the counter never fires.
		if it.SecondsPassedSinceLastPoll != it.AcquisitionInterval {
			continue
		}

		if !s.admit() {
			s.log.Debug("stop observed mid-tick", zap.Uint64("tick", s.seq), zap.Int("index", i))
			return
		}

		if err := s.dispatch(i, it); err != nil {
			rep.Failed = append(rep.Failed, i)
		}
		rep.Dispatched = append(rep.Dispatched, i)

		// reset on attempt, success or not
		it.SecondsPassedSinceLastPoll = 0
	}

	rep.Duration = time.Since(start)
	rep.Items = make([]ItemSnapshot, len(s.items))
	for i, it := range s.items {
		rep.Items[i] = it.snapshot()
	}

	if len(rep.Dispatched) > 0 {
		s.log.Debug("tick complete",
			zap.Uint64("tick", rep.Seq),
			zap.Int("dispatched", len(rep.Dispatched)),
			zap.Int("failed", len(rep.Failed)),
			zap.Duration("duration", rep.Duration),
		)
	}
	s.observe("tick", func() { s.observer.ObserveTick(rep) })
}

// observe runs an observer callback. A panicking observer is logged and
// never reaches the tick loop.
func (s *Scheduler) observe(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("observer panic", zap.String("report", kind), zap.Any("panic", r))
		}
	}()
	fn()
}

func (s *Scheduler) admit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.stopped
}

// dispatch reads the session addressing and calls the executor.
// Errors and panics stay inside this item.
func (s *Scheduler) dispatch(idx int, it *ConfigItem) error {
	start := time.Now()
	rep := DispatchReport{Index: idx, Item: it.Name}

	err := s.execute(it, &rep)

	rep.Duration = time.Since(start)
	rep.Err = err
	if err != nil {
		s.log.Warn("dispatch failed",
			zap.String("point", it.Name),
			zap.Uint16("tid", rep.TransactionID),
			zap.Uint8("unit", rep.UnitAddress),
			zap.Error(err),
		)
	}
	s.observe("dispatch", func() { s.observer.ObserveDispatch(rep) })
	return err
}

func (s *Scheduler) execute(it *ConfigItem, rep *DispatchReport) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("acquisition: dispatch panic: %v", r)
		}
	}()

	tid, err := s.session.TransactionID()
	if err != nil {
		return fmt.Errorf("acquisition: transaction id: %w", err)
	}
	rep.TransactionID = tid

	unit, err := s.session.UnitAddress()
	if err != nil {
		return fmt.Errorf("acquisition: unit address: %w", err)
	}
	rep.UnitAddress = unit

	return s.executor.ExecuteReadCommand(it, tid, unit, it.StartAddress, it.NumberOfRegisters)
}
