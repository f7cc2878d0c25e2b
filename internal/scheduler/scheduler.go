// Package scheduler runs the recurring evaluation pass: poll the pressure
// table for points at or above their automation's threshold and hand each one
// to its automation, at most once per poll.
package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/harms-haus/memoriae/internal/automation"
	"github.com/harms-haus/memoriae/internal/config"
	"github.com/harms-haus/memoriae/internal/db"
	"github.com/harms-haus/memoriae/internal/errors"
	"github.com/harms-haus/memoriae/internal/pressure"
	"github.com/harms-haus/memoriae/internal/seed"
)

// stopTimeout is the hard ceiling Stop waits for an in-flight pass.
const stopTimeout = 5 * time.Second

// Scheduler owns the evaluation timer and its circuit breaker. All passes run
// on one goroutine, so a pass is never re-entrant; the inFlight flag guards
// the manual RunOnce path against overlapping a timed pass.
type Scheduler struct {
	database *sql.DB
	store    *pressure.Store
	registry *automation.Registry
	cfg      *config.Config
	logger   *zap.Logger

	mu     sync.Mutex
	active bool
	cancel context.CancelFunc
	done   chan struct{}

	inFlight bool

	// breaker state, guarded by mu
	failures  int
	trippedAt time.Time
}

// New creates a scheduler. It does not start until Start is called.
func New(database *sql.DB, store *pressure.Store, registry *automation.Registry, cfg *config.Config, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		database: database,
		store:    store,
		registry: registry,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start begins evaluating: one immediate pass, then one per interval.
// Starting an active scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.active = true
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	s.logger.Info("scheduler started", zap.Duration("interval", s.cfg.EvalInterval()))

	go func() {
		defer close(done)
		s.RunOnce(ctx)

		ticker := time.NewTicker(s.cfg.EvalInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()
}

// Stop disarms the timer and waits for any in-flight pass, bounded by
// stopTimeout. IsActive reports false as soon as Stop returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(stopTimeout):
		s.logger.Warn("stop timed out waiting for in-flight pass")
	}
	s.logger.Info("scheduler stopped")
}

// IsActive reports whether the scheduler is running.
func (s *Scheduler) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// RunOnce performs a single evaluation pass. Overlapping calls are skipped,
// never queued.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		s.logger.Debug("pass already in flight, skipping")
		return
	}
	s.inFlight = true

	if s.failures >= s.cfg.BreakerThreshold {
		if time.Since(s.trippedAt) < s.cfg.BreakerCooldown() {
			s.inFlight = false
			s.mu.Unlock()
			s.logger.Warn("circuit breaker open, skipping pass",
				zap.Int("failures", s.failures),
				zap.Time("tripped_at", s.trippedAt))
			return
		}
		// Cooldown elapsed: let exactly this pass through as the recovery
		// attempt. A clean pass resets the counter below.
		s.logger.Info("circuit breaker cooldown elapsed, attempting recovery")
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	s.pass(ctx)
}

func (s *Scheduler) pass(ctx context.Context) {
	var points []pressure.Point
	err := s.withStepTimeout(func() error {
		var err error
		points, err = s.store.Exceeded(s.registry, "")
		return err
	})
	if err != nil {
		s.logger.Error("pressure scan failed", zap.Error(err))
		s.recordOutcome(err)
		return
	}
	if len(points) == 0 {
		return
	}

	s.logger.Debug("evaluating pressure points", zap.Int("count", len(points)))

	sawConnErr := false
	for i, p := range points {
		if err := s.handlePoint(ctx, p); err != nil {
			s.logger.Warn("pressure point evaluation failed",
				zap.String("seed", p.SeedID),
				zap.String("automation", p.AutomationID),
				zap.Error(err))
			if errors.IsConnectionError(err) {
				sawConnErr = true
				if s.recordOutcome(err) {
					return
				}
			} else {
				s.recordOutcome(err)
			}
		}

		// Stop may be pending; finish the current point, then yield.
		if ctx.Err() != nil {
			return
		}
		if delay := s.cfg.EvalPointDelay(); delay > 0 && i < len(points)-1 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}
	}

	if !sawConnErr {
		s.recordOutcome(nil)
	}
}

// handlePoint resolves one exceeded point and triggers its automation.
func (s *Scheduler) handlePoint(ctx context.Context, p pressure.Point) error {
	auto, ok := s.registry.Get(p.AutomationID)
	if !ok || !auto.Enabled() {
		return nil
	}

	var item *seed.Seed
	err := s.withStepTimeout(func() error {
		loaded, err := db.LoadSeed(s.database, p.SeedID)
		if err != nil {
			return err
		}
		item = loaded
		return nil
	})
	if err != nil {
		if errors.IsNotFound(err) {
			// The seed is gone; its pressure rows are stale.
			return s.store.Reset(p.SeedID, p.AutomationID)
		}
		return err
	}

	actx := &automation.Context{
		DB:     s.database,
		Config: s.cfg,
		Logger: s.logger,
		UserID: item.UserID,
	}
	err = s.withStepTimeout(func() error {
		return auto.HandlePressure(ctx, item, p.Amount, actx)
	})
	if err != nil {
		return err
	}

	// Handled: the counter starts accumulating again from zero.
	return s.store.Reset(p.SeedID, p.AutomationID)
}

// withStepTimeout bounds one database or automation call so a stalled step
// abandons the point instead of wedging the pass. The abandoned call keeps
// running in its goroutine; results after the deadline are discarded.
func (s *Scheduler) withStepTimeout(fn func() error) error {
	result := make(chan error, 1)
	go func() { result <- fn() }()
	select {
	case err := <-result:
		return err
	case <-time.After(s.cfg.EvalStepTimeout()):
		return fmt.Errorf("evaluation step timed out after %s: %w",
			s.cfg.EvalStepTimeout(), context.DeadlineExceeded)
	}
}

// recordOutcome updates breaker state after a step. Connection-class errors
// increment the counter; everything else, including success, resets it. The
// return value reports whether this error tripped the breaker.
func (s *Scheduler) recordOutcome(err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil && errors.IsConnectionError(err) {
		s.failures++
		if s.failures >= s.cfg.BreakerThreshold {
			// Re-arm the cooldown on every failure at or past the
			// threshold, so a failed recovery attempt opens a fresh
			// window instead of leaving a stale trip time.
			s.trippedAt = time.Now()
			if s.failures == s.cfg.BreakerThreshold {
				s.logger.Error("circuit breaker tripped",
					zap.Int("failures", s.failures),
					zap.Duration("cooldown", s.cfg.BreakerCooldown()))
			} else {
				s.logger.Warn("recovery attempt failed, circuit breaker re-armed",
					zap.Int("failures", s.failures),
					zap.Duration("cooldown", s.cfg.BreakerCooldown()))
			}
			return true
		}
		return false
	}

	s.failures = 0
	s.trippedAt = time.Time{}
	return false
}
