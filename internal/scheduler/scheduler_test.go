package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harms-haus/memoriae/internal/automation"
	"github.com/harms-haus/memoriae/internal/config"
	"github.com/harms-haus/memoriae/internal/db"
	"github.com/harms-haus/memoriae/internal/pressure"
	"github.com/harms-haus/memoriae/internal/seed"
)

const testUser = "user-1"

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.EvalIntervalSec = 3600
	cfg.EvalPointDelayMs = 0
	cfg.BreakerThreshold = 2
	return cfg
}

func setup(t *testing.T) (*sql.DB, *pressure.Store, *automation.Registry) {
	t.Helper()
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database, pressure.NewStore(database), automation.NewRegistry()
}

func mkSeed(t *testing.T, database *sql.DB, id string) {
	t.Helper()
	now := time.Now().Unix()
	require.NoError(t, db.InsertSeed(database, id, testUser, now))
	created := seed.Created("t", "c")
	created.ID = id + "-tx0"
	created.SeedID = id
	created.CreatedAt = now
	require.NoError(t, db.AppendTransaction(database, &created))
}

func TestRunOnceTriggersExceededPoints(t *testing.T) {
	database, store, reg := setup(t)
	mkSeed(t, database, "seed-hot")
	mkSeed(t, database, "seed-cold")

	auto := &automation.Fake{IDValue: "tagger", Threshold: 50, ThresholdOK: true}
	reg.MustRegister(auto)

	_, err := store.Set("seed-hot", "tagger", 80)
	require.NoError(t, err)
	_, err = store.Set("seed-cold", "tagger", 10)
	require.NoError(t, err)

	s := New(database, store, reg, testConfig(), zap.NewNop())
	s.RunOnce(context.Background())

	require.Equal(t, []string{"seed-hot"}, auto.Handled())

	// Handled pressure starts over from zero.
	p, ok, err := store.Get("seed-hot", "tagger")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 0.0, p.Amount)

	p, ok, err = store.Get("seed-cold", "tagger")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 10.0, p.Amount)
}

func TestRunOnceSkipsDisabledAndUnknownAutomations(t *testing.T) {
	database, store, reg := setup(t)
	mkSeed(t, database, "seed-1")

	off := &automation.Fake{IDValue: "off", Threshold: 10, ThresholdOK: true, Disabled: true}
	reg.MustRegister(off)

	_, err := store.Set("seed-1", "off", 90)
	require.NoError(t, err)
	_, err = store.Set("seed-1", "ghost", 90)
	require.NoError(t, err)

	s := New(database, store, reg, testConfig(), zap.NewNop())
	s.RunOnce(context.Background())

	require.Empty(t, off.Handled())
}

func TestRunOnceClearsPressureForVanishedSeed(t *testing.T) {
	database, store, reg := setup(t)

	auto := &automation.Fake{IDValue: "tagger", Threshold: 50, ThresholdOK: true}
	reg.MustRegister(auto)

	_, err := store.Set("seed-gone", "tagger", 80)
	require.NoError(t, err)

	s := New(database, store, reg, testConfig(), zap.NewNop())
	s.RunOnce(context.Background())

	require.Empty(t, auto.Handled())
	p, ok, err := store.Get("seed-gone", "tagger")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 0.0, p.Amount, "stale pressure must be cleared")
}

func TestBreakerTripsOnConnectionErrors(t *testing.T) {
	database, store, reg := setup(t)
	mkSeed(t, database, "seed-1")
	mkSeed(t, database, "seed-2")

	auto := &automation.Fake{
		IDValue: "flaky", Threshold: 10, ThresholdOK: true,
		HandleFunc: func(ctx context.Context, item *seed.Seed, amount float64, actx *automation.Context) error {
			return fmt.Errorf("dial tcp: connection refused")
		},
	}
	reg.MustRegister(auto)

	for _, id := range []string{"seed-1", "seed-2"} {
		_, err := store.Set(id, "flaky", 90)
		require.NoError(t, err)
	}

	s := New(database, store, reg, testConfig(), zap.NewNop())
	s.RunOnce(context.Background())

	// Two connection failures with BreakerThreshold=2: tripped.
	require.Equal(t, 2, s.failures)
	require.False(t, s.trippedAt.IsZero())

	// While the cooldown holds, passes are skipped entirely.
	before := len(auto.Handled())
	s.RunOnce(context.Background())
	require.Len(t, auto.Handled(), before)

	// After the cooldown, one recovery attempt runs; success resets the
	// breaker.
	auto.HandleFunc = nil
	s.mu.Lock()
	s.trippedAt = time.Now().Add(-2 * s.cfg.BreakerCooldown())
	s.mu.Unlock()
	s.RunOnce(context.Background())

	require.Greater(t, len(auto.Handled()), before)
	require.Equal(t, 0, s.failures)
	require.True(t, s.trippedAt.IsZero())
}

func TestBreakerReArmsAfterFailedRecovery(t *testing.T) {
	database, store, reg := setup(t)
	mkSeed(t, database, "seed-1")
	mkSeed(t, database, "seed-2")

	auto := &automation.Fake{
		IDValue: "flaky", Threshold: 10, ThresholdOK: true,
		HandleFunc: func(ctx context.Context, item *seed.Seed, amount float64, actx *automation.Context) error {
			return fmt.Errorf("dial tcp: connection refused")
		},
	}
	reg.MustRegister(auto)

	for _, id := range []string{"seed-1", "seed-2"} {
		_, err := store.Set(id, "flaky", 90)
		require.NoError(t, err)
	}

	s := New(database, store, reg, testConfig(), zap.NewNop())
	s.RunOnce(context.Background())
	require.Equal(t, 2, s.failures)

	// Age the trip time past the cooldown and let the recovery attempt
	// fail too. The failure must re-arm the cooldown with a fresh trip
	// time, not leave the stale one in place.
	s.mu.Lock()
	s.trippedAt = time.Now().Add(-2 * s.cfg.BreakerCooldown())
	s.mu.Unlock()
	s.RunOnce(context.Background())

	s.mu.Lock()
	age := time.Since(s.trippedAt)
	s.mu.Unlock()
	require.Less(t, age, s.cfg.BreakerCooldown())

	// With the cooldown re-armed, subsequent passes are skipped.
	before := len(auto.Handled())
	s.RunOnce(context.Background())
	s.RunOnce(context.Background())
	require.Len(t, auto.Handled(), before)

	// Once the automation recovers, the next post-cooldown attempt
	// resets the breaker.
	auto.HandleFunc = nil
	s.mu.Lock()
	s.trippedAt = time.Now().Add(-2 * s.cfg.BreakerCooldown())
	s.mu.Unlock()
	s.RunOnce(context.Background())
	require.Equal(t, 0, s.failures)
	require.True(t, s.trippedAt.IsZero())
}

func TestLogicErrorsDoNotTripBreaker(t *testing.T) {
	database, store, reg := setup(t)
	mkSeed(t, database, "seed-1")
	mkSeed(t, database, "seed-2")

	auto := &automation.Fake{
		IDValue: "buggy", Threshold: 10, ThresholdOK: true,
		HandleFunc: func(ctx context.Context, item *seed.Seed, amount float64, actx *automation.Context) error {
			return fmt.Errorf("template parse error")
		},
	}
	reg.MustRegister(auto)

	for _, id := range []string{"seed-1", "seed-2"} {
		_, err := store.Set(id, "buggy", 90)
		require.NoError(t, err)
	}

	s := New(database, store, reg, testConfig(), zap.NewNop())
	s.RunOnce(context.Background())

	require.Equal(t, 0, s.failures)
	require.True(t, s.trippedAt.IsZero())
	// Both points were still attempted.
	require.Len(t, auto.Handled(), 2)
}

func TestStartIsIdempotentAndStopWaitsForCurrentPoint(t *testing.T) {
	database, store, reg := setup(t)
	mkSeed(t, database, "seed-1")

	entered := make(chan struct{})
	release := make(chan struct{})
	auto := &automation.Fake{
		IDValue: "slow", Threshold: 10, ThresholdOK: true,
		HandleFunc: func(ctx context.Context, item *seed.Seed, amount float64, actx *automation.Context) error {
			close(entered)
			<-release
			return nil
		},
	}
	reg.MustRegister(auto)
	_, err := store.Set("seed-1", "slow", 90)
	require.NoError(t, err)

	s := New(database, store, reg, testConfig(), zap.NewNop())
	s.Start()
	s.Start() // no-op
	require.True(t, s.IsActive())

	<-entered

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("stop returned while a point was still in flight")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("stop never returned after the point finished")
	}
	require.False(t, s.IsActive())

	s.Stop() // no-op
}
