// Package cascade expands one structural change to the category tree into
// the set of seeds it affects, and lets every enabled automation contribute
// pressure for each of them.
package cascade

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/harms-haus/memoriae/internal/automation"
	"github.com/harms-haus/memoriae/internal/category"
	"github.com/harms-haus/memoriae/internal/config"
	"github.com/harms-haus/memoriae/internal/db"
	"github.com/harms-haus/memoriae/internal/pressure"
	"github.com/harms-haus/memoriae/internal/seed"
)

// Resolver applies change events to the pressure table.
type Resolver struct {
	db       *sql.DB
	store    *pressure.Store
	registry *automation.Registry
	cfg      *config.Config
	logger   *zap.Logger
}

// NewResolver creates a cascade resolver.
func NewResolver(database *sql.DB, store *pressure.Store, registry *automation.Registry, cfg *config.Config, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		db:       database,
		store:    store,
		registry: registry,
		cfg:      cfg,
		logger:   logger,
	}
}

// Apply resolves every seed affected by the event and asks each enabled
// automation how much pressure the change contributes per seed. A failure in
// one automation's calculation is logged and never aborts the rest.
func (r *Resolver) Apply(userID string, event category.ChangeEvent) error {
	seedIDs, err := r.AffectedSeeds(userID, event)
	if err != nil {
		return err
	}
	automations := r.registry.Enabled()
	if len(seedIDs) == 0 || len(automations) == 0 {
		return nil
	}

	actx := &automation.Context{
		DB:     r.db,
		Config: r.cfg,
		Logger: r.logger,
		UserID: userID,
	}
	events := []category.ChangeEvent{event}

	for _, id := range seedIDs {
		item, err := db.LoadSeed(r.db, id)
		if err != nil {
			r.logger.Warn("cascade: seed vanished mid-resolution",
				zap.String("seed_id", id), zap.Error(err))
			continue
		}
		for _, a := range automations {
			amount, err := calculate(a, item, actx, events)
			if err != nil {
				r.logger.Warn("cascade: pressure calculation failed",
					zap.String("seed_id", id),
					zap.String("automation_id", a.ID()),
					zap.Error(err))
				continue
			}
			if amount <= 0 {
				continue
			}
			if _, err := r.store.Add(id, a.ID(), amount); err != nil {
				r.logger.Warn("cascade: pressure write failed",
					zap.String("seed_id", id),
					zap.String("automation_id", a.ID()),
					zap.Error(err))
			}
		}
	}
	return nil
}

// calculate shields the resolver from a panicking automation.
func calculate(a automation.Automation, item *seed.Seed, actx *automation.Context, events []category.ChangeEvent) (amount float64, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("automation %s panicked: %v", a.ID(), rec)
		}
	}()
	return a.CalculatePressure(item, actx, events), nil
}

// AffectedSeeds computes the union of seeds the event touches, deduplicated
// by seed identity:
//   - seeds tagged directly with the changed node, always
//   - seeds tagged with any strict descendant of the old path, for
//     rename/move/remove (an empty old path skips this step)
//   - seeds tagged with the parent node, for add_child (a new node has no
//     seeds yet, so only ancestor propagation applies)
func (r *Resolver) AffectedSeeds(userID string, event category.ChangeEvent) ([]string, error) {
	nodeIDs := []string{event.CategoryID}

	switch event.Kind {
	case category.ChangeRename, category.ChangeMove, category.ChangeRemove:
		if event.OldPath != "" {
			descendants, err := db.DescendantCategoryIDs(r.db, userID, event.OldPath)
			if err != nil {
				return nil, err
			}
			nodeIDs = append(nodeIDs, descendants...)
		}
	case category.ChangeAddChild:
		if event.NewParentID != "" {
			nodeIDs = append(nodeIDs, event.NewParentID)
		}
	}

	// SeedIDsForCategories already deduplicates across nodes.
	return db.SeedIDsForCategories(r.db, userID, nodeIDs)
}
