// Package sweep runs the recurring maintenance pass: forfeiting overdue
// tasks and rotating the audit log once a week. User actions and the sweep
// both funnel into the engine's serialized operations, so a pass can never
// interleave destructively with a foreground mutation.
package sweep

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/stakedo/stakedo/internal/app/engine"
	"github.com/stakedo/stakedo/internal/domain"
	"github.com/stakedo/stakedo/internal/infra/observability"
)

// RotationWeekday is the day the history log is purged automatically.
const RotationWeekday = time.Monday

// Config controls sweep behavior.
type Config struct {
	Interval     time.Duration // time between passes (default: 1m)
	StartupDelay time.Duration // delay before the first pass (default: 2s)
}

// DefaultConfig returns sweep defaults matching a once-a-minute check.
func DefaultConfig() Config {
	return Config{
		Interval:     time.Minute,
		StartupDelay: 2 * time.Second,
	}
}

// Sweeper periodically applies time-triggered transitions.
type Sweeper struct {
	engine  *engine.Engine
	clock   domain.Clock
	config  Config
	running atomic.Bool

	lastRotation atomic.Int64 // unix day of the last history rotation
}

// New creates a sweeper over the given engine.
func New(e *engine.Engine, clock domain.Clock, cfg Config) *Sweeper {
	if clock == nil {
		clock = domain.ClockFunc(time.Now)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	s := &Sweeper{engine: e, clock: clock, config: cfg}
	s.lastRotation.Store(-1)
	return s
}

// Run blocks until ctx is cancelled, sweeping shortly after start and then
// at every interval tick.
func (s *Sweeper) Run(ctx context.Context) {
	if s.config.StartupDelay > 0 {
		select {
		case <-time.After(s.config.StartupDelay):
		case <-ctx.Done():
			return
		}
	}
	s.Sweep()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-ctx.Done():
			return
		}
	}
}

// Sweep performs one pass. If a previous pass is still running the tick is
// skipped entirely rather than overlapped.
func (s *Sweeper) Sweep() {
	if !s.running.CompareAndSwap(false, true) {
		observability.SweepSkipped.Inc()
		return
	}
	defer s.running.Store(false)

	now := s.clock.Now()
	if n, err := s.engine.ForfeitOverdue(now); err != nil {
		log.Printf("[sweep] forfeit pass failed: %v", err)
	} else if n > 0 {
		log.Printf("[sweep] forfeited %d overdue task(s)", n)
	}
	s.rotateHistory(now)
	observability.SweepRuns.Inc()
}

// rotateHistory purges the audit log on the rotation weekday, at most once
// per calendar day so records written later that day survive until the next
// week.
func (s *Sweeper) rotateHistory(now time.Time) {
	if now.Weekday() != RotationWeekday {
		return
	}
	day := now.Unix() / 86400
	if s.lastRotation.Load() == day {
		return
	}
	if err := s.engine.PurgeHistory(); err != nil {
		log.Printf("[sweep] history rotation failed: %v", err)
		return
	}
	s.lastRotation.Store(day)
	observability.HistoryRotations.Inc()
	log.Printf("[sweep] history rotated (weekly %s purge)", RotationWeekday)
}
