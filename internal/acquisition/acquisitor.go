// internal/acquisition/acquisitor.go
package acquisition

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultStopTimeout bounds how long Close waits for an in-flight dispatch.
const DefaultStopTimeout = 5 * time.Second

// Acquisitor ties a Scheduler to a configuration provider and owns its lifetime.
type Acquisitor struct {
	sched       *Scheduler
	stopTimeout time.Duration
	log         *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// AcquisitorOption configures an Acquisitor.
type AcquisitorOption func(*acquisitorOptions)

type acquisitorOptions struct {
	stopTimeout time.Duration
	log         *zap.Logger
	sched       []Option
}

// WithStopTimeout overrides DefaultStopTimeout. Non-positive values are ignored.
func WithStopTimeout(d time.Duration) AcquisitorOption {
	return func(o *acquisitorOptions) {
		if d > 0 {
			o.stopTimeout = d
		}
	}
}

// WithSchedulerOptions forwards options to the underlying Scheduler.
func WithSchedulerOptions(opts ...Option) AcquisitorOption {
	return func(o *acquisitorOptions) {
		o.sched = append(o.sched, opts...)
	}
}

// WithAcquisitorLogger sets the lifecycle logger. The scheduler gets a named child.
func WithAcquisitorLogger(l *zap.Logger) AcquisitorOption {
	return func(o *acquisitorOptions) {
		if l != nil {
			o.log = l
		}
	}
}

// New fetches the item list once and starts scheduling.
func New(trigger Trigger, provider ConfigurationProvider, executor CommandExecutor, opts ...AcquisitorOption) (*Acquisitor, error) {
	if provider == nil {
		return nil, errors.New("acquisition: configuration provider required")
	}

	o := acquisitorOptions{
		stopTimeout: DefaultStopTimeout,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	items := provider.ConfigurationItems()

	schedOpts := append([]Option{WithLogger(o.log.Named("scheduler"))}, o.sched...)
	sched, err := Start(trigger, items, executor, provider, schedOpts...)
	if err != nil {
		return nil, err
	}

	o.log.Info("acquisitor started",
		zap.Int("items", len(items)),
		zap.Duration("stop_timeout", o.stopTimeout),
	)

	return &Acquisitor{
		sched:       sched,
		stopTimeout: o.stopTimeout,
		log:         o.log,
	}, nil
}

// State returns the scheduler state.
func (a *Acquisitor) State() State {
	return a.sched.State()
}

// Done is closed once the scheduling loop has exited.
func (a *Acquisitor) Done() <-chan struct{} {
	return a.sched.Done()
}

// Close stops scheduling. No new dispatch begins after Close returns.
// A dispatch still running after the stop timeout is left to finish on its own.
func (a *Acquisitor) Close() error {
	a.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.stopTimeout)
		defer cancel()

		if err := a.sched.Stop(ctx); err != nil {
			a.log.Warn("acquisitor stop timed out, dispatch still in flight", zap.Error(err))
			a.closeErr = err
			return
		}
		a.log.Info("acquisitor closed")
	})
	return a.closeErr
}
