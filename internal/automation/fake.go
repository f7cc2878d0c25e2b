package automation

import (
	"context"
	"sync"

	"github.com/harms-haus/memoriae/internal/category"
	"github.com/harms-haus/memoriae/internal/seed"
)

// Fake is a configurable Automation for tests in this module. Every hook can
// be overridden; calls are recorded under a lock so concurrent engine paths
// can be asserted on.
type Fake struct {
	mu sync.Mutex

	IDValue       string
	NameValue     string
	Disabled      bool
	Threshold     float64
	ThresholdOK   bool
	PressureValue float64

	CalculateFunc func(item *seed.Seed, actx *Context, events []category.ChangeEvent) float64
	HandleFunc    func(ctx context.Context, item *seed.Seed, amount float64, actx *Context) error
	ProcessFunc   func(ctx context.Context, item *seed.Seed, actx *Context) ([]seed.Transaction, error)
	ValidateFunc  func(item *seed.Seed) bool

	HandledSeeds   []string
	ProcessedSeeds []string
}

var _ Automation = (*Fake)(nil)

func (f *Fake) ID() string   { return f.IDValue }
func (f *Fake) Name() string { return f.NameValue }

func (f *Fake) Enabled() bool { return !f.Disabled }

func (f *Fake) PressureThreshold() (float64, bool) {
	return f.Threshold, f.ThresholdOK
}

func (f *Fake) CalculatePressure(item *seed.Seed, actx *Context, events []category.ChangeEvent) float64 {
	if f.CalculateFunc != nil {
		return f.CalculateFunc(item, actx, events)
	}
	return f.PressureValue
}

func (f *Fake) HandlePressure(ctx context.Context, item *seed.Seed, amount float64, actx *Context) error {
	f.mu.Lock()
	f.HandledSeeds = append(f.HandledSeeds, item.ID)
	f.mu.Unlock()
	if f.HandleFunc != nil {
		return f.HandleFunc(ctx, item, amount, actx)
	}
	return nil
}

func (f *Fake) Process(ctx context.Context, item *seed.Seed, actx *Context) ([]seed.Transaction, error) {
	f.mu.Lock()
	f.ProcessedSeeds = append(f.ProcessedSeeds, item.ID)
	f.mu.Unlock()
	if f.ProcessFunc != nil {
		return f.ProcessFunc(ctx, item, actx)
	}
	return nil, nil
}

// ValidateSeed implements SeedValidator only when ValidateFunc is set, via
// FakeWithValidator.
func (f *Fake) validateSeed(item *seed.Seed) bool {
	if f.ValidateFunc != nil {
		return f.ValidateFunc(item)
	}
	return true
}

// Handled returns a copy of the seed IDs HandlePressure saw.
func (f *Fake) Handled() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.HandledSeeds...)
}

// Processed returns a copy of the seed IDs Process saw.
func (f *Fake) Processed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ProcessedSeeds...)
}

// FakeWithValidator wraps Fake with the optional SeedValidator hook.
type FakeWithValidator struct {
	Fake
}

var _ SeedValidator = (*FakeWithValidator)(nil)

func (f *FakeWithValidator) ValidateSeed(item *seed.Seed) bool {
	return f.validateSeed(item)
}
