// internal/trigger/clock.go
package trigger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Clock drives a Signal from a wall-clock ticker.
type Clock struct {
	period time.Duration
	sig    *Signal
	log    *zap.Logger
}

// NewClock builds a clock that signals sig every period.
func NewClock(period time.Duration, sig *Signal, log *zap.Logger) (*Clock, error) {
	if period <= 0 {
		return nil, errors.New("trigger: period must be > 0")
	}
	if sig == nil {
		return nil, errors.New("trigger: signal required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Clock{period: period, sig: sig, log: log}, nil
}

// Run signals on every tick until ctx is done.
// A tick that finds the slot still set is coalesced and counted.
func (c *Clock) Run(ctx context.Context) {
	ticker := time.NewTicker(c.period)
	defer ticker.Stop()

	var coalesced uint64
	for {
		select {
		case <-ctx.Done():
			c.log.Debug("clock stopped", zap.Uint64("coalesced", coalesced))
			return
		case <-ticker.C:
			if !c.sig.Signal() {
				coalesced++
				c.log.Debug("trigger coalesced, previous tick still pending",
					zap.Uint64("coalesced", coalesced))
			}
		}
	}
}
