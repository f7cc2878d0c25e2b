// Package automation defines the contract every background automation
// implements and the registry the rest of the engine resolves them from.
// The engine owns when an automation runs; the automation owns what a run
// does.
package automation

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/harms-haus/memoriae/internal/category"
	"github.com/harms-haus/memoriae/internal/config"
	"github.com/harms-haus/memoriae/internal/llm"
	"github.com/harms-haus/memoriae/internal/seed"
)

// Context carries the capabilities an automation may use during a run.
// LLM is nil when the owner has no usable model credential; automations that
// need it must treat that as a skip, not an error.
type Context struct {
	DB     *sql.DB
	Config *config.Config
	Logger *zap.Logger
	LLM    llm.Client
	UserID string
}

// Automation is the contract for a background automation. Implementations
// are registered once per process and consumed by the cascade resolver, the
// evaluation scheduler, and the job workers.
type Automation interface {
	// ID is the stable identifier used in pressure rows and job keys.
	// An automation with an empty ID is skipped everywhere.
	ID() string

	// Name is the human-readable name.
	Name() string

	// Enabled reports whether the automation should run at all.
	Enabled() bool

	// PressureThreshold returns the pressure value at or above which the
	// scheduler triggers HandlePressure. ok=false means no threshold is
	// defined and the automation is never pressure-triggered.
	PressureThreshold() (float64, bool)

	// CalculatePressure returns how much pressure the given change events
	// contribute for this seed. Values <= 0 are discarded.
	CalculatePressure(item *seed.Seed, actx *Context, events []category.ChangeEvent) float64

	// HandlePressure reacts to the seed's accumulated pressure crossing the
	// threshold. Typically it enqueues a job for Process.
	HandlePressure(ctx context.Context, item *seed.Seed, amount float64, actx *Context) error

	// Process performs the automation's actual work and returns the
	// transactions to append to the seed's log.
	Process(ctx context.Context, item *seed.Seed, actx *Context) ([]seed.Transaction, error)
}

// SeedValidator is an optional hook. A worker runs it before Process; false
// skips the job without failing it.
type SeedValidator interface {
	ValidateSeed(item *seed.Seed) bool
}
