package cascade

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harms-haus/memoriae/internal/automation"
	"github.com/harms-haus/memoriae/internal/category"
	"github.com/harms-haus/memoriae/internal/config"
	"github.com/harms-haus/memoriae/internal/db"
	"github.com/harms-haus/memoriae/internal/pressure"
	"github.com/harms-haus/memoriae/internal/seed"
)

const testUser = "user-1"

func setup(t *testing.T) (*sql.DB, *pressure.Store) {
	t.Helper()
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database, pressure.NewStore(database)
}

func mkCategory(t *testing.T, database *sql.DB, id, path, parentID string) {
	t.Helper()
	now := time.Now().Unix()
	require.NoError(t, db.InsertCategory(database, &category.Category{
		ID: id, UserID: testUser, Name: path, NameNorm: path, Path: path,
		ParentID: parentID, CreatedAt: now, UpdatedAt: now,
	}))
}

func mkSeed(t *testing.T, database *sql.DB, id string, categoryIDs ...string) {
	t.Helper()
	now := time.Now().Unix()
	require.NoError(t, db.InsertSeed(database, id, testUser, now))
	created := seed.Created("t", "c")
	created.ID = id + "-tx0"
	created.SeedID = id
	created.CreatedAt = now
	require.NoError(t, db.AppendTransaction(database, &created))
	for i, catID := range categoryIDs {
		tx := seed.AddCategory(catID)
		tx.ID = id + "-tag" + string(rune('a'+i))
		tx.SeedID = id
		tx.CreatedAt = now
		require.NoError(t, db.AppendTransaction(database, &tx))
	}
}

func TestRenameCascadesToDescendants(t *testing.T) {
	database, store := setup(t)
	mkCategory(t, database, "c-work", "/work", "")
	mkCategory(t, database, "c-sub", "/work/sub", "c-work")
	mkCategory(t, database, "c-other", "/other", "")
	mkSeed(t, database, "seed-direct", "c-work")
	mkSeed(t, database, "seed-deep", "c-sub")
	mkSeed(t, database, "seed-unrelated", "c-other")

	reg := automation.NewRegistry()
	tagger := &automation.Fake{IDValue: "tagger", PressureValue: 30}
	reg.MustRegister(tagger)

	r := NewResolver(database, store, reg, config.DefaultConfig(), zap.NewNop())
	err := r.Apply(testUser, category.ChangeEvent{
		Kind:       category.ChangeRename,
		CategoryID: "c-work",
		OldPath:    "/work",
		NewPath:    "/archive",
	})
	require.NoError(t, err)

	for _, seedID := range []string{"seed-direct", "seed-deep"} {
		p, ok, err := store.Get(seedID, "tagger")
		require.NoError(t, err)
		require.True(t, ok, "%s should have pressure", seedID)
		require.Equal(t, 30.0, p.Amount)
	}

	_, ok, err := store.Get("seed-unrelated", "tagger")
	require.NoError(t, err)
	require.False(t, ok, "unrelated seed must stay untouched")
}

func TestSeedMatchedThroughTwoPathsCountsOnce(t *testing.T) {
	database, store := setup(t)
	mkCategory(t, database, "c-work", "/work", "")
	mkCategory(t, database, "c-sub", "/work/sub", "c-work")
	// Tagged with both the changed node and its descendant.
	mkSeed(t, database, "seed-both", "c-work", "c-sub")

	reg := automation.NewRegistry()
	reg.MustRegister(&automation.Fake{IDValue: "tagger", PressureValue: 30})

	r := NewResolver(database, store, reg, config.DefaultConfig(), zap.NewNop())
	err := r.Apply(testUser, category.ChangeEvent{
		Kind: category.ChangeRemove, CategoryID: "c-work", OldPath: "/work",
	})
	require.NoError(t, err)

	p, ok, err := store.Get("seed-both", "tagger")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 30.0, p.Amount, "deduplicated by seed identity: one contribution, not two")
}

func TestAddChildPropagatesToParent(t *testing.T) {
	database, store := setup(t)
	mkCategory(t, database, "c-work", "/work", "")
	mkCategory(t, database, "c-new", "/work/new", "c-work")
	mkSeed(t, database, "seed-parent", "c-work")

	reg := automation.NewRegistry()
	reg.MustRegister(&automation.Fake{IDValue: "tagger", PressureValue: 10})

	r := NewResolver(database, store, reg, config.DefaultConfig(), zap.NewNop())
	err := r.Apply(testUser, category.ChangeEvent{
		Kind:        category.ChangeAddChild,
		CategoryID:  "c-new",
		NewPath:     "/work/new",
		NewParentID: "c-work",
	})
	require.NoError(t, err)

	p, ok, err := store.Get("seed-parent", "tagger")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 10.0, p.Amount)
}

func TestEmptyOldPathSkipsDescendants(t *testing.T) {
	database, store := setup(t)
	mkCategory(t, database, "c-work", "/work", "")
	mkCategory(t, database, "c-sub", "/work/sub", "c-work")
	mkSeed(t, database, "seed-deep", "c-sub")

	reg := automation.NewRegistry()
	reg.MustRegister(&automation.Fake{IDValue: "tagger", PressureValue: 30})

	r := NewResolver(database, store, reg, config.DefaultConfig(), zap.NewNop())
	err := r.Apply(testUser, category.ChangeEvent{
		Kind: category.ChangeRename, CategoryID: "c-work", OldPath: "",
	})
	require.NoError(t, err)

	_, ok, err := store.Get("seed-deep", "tagger")
	require.NoError(t, err)
	require.False(t, ok, "no old path means no descendant expansion")
}

func TestOneFailingAutomationDoesNotAbortOthers(t *testing.T) {
	database, store := setup(t)
	mkCategory(t, database, "c-work", "/work", "")
	mkSeed(t, database, "seed-1", "c-work")

	reg := automation.NewRegistry()
	reg.MustRegister(&automation.Fake{
		IDValue: "angry",
		CalculateFunc: func(*seed.Seed, *automation.Context, []category.ChangeEvent) float64 {
			panic("broken calculation")
		},
	})
	reg.MustRegister(&automation.Fake{IDValue: "tagger", PressureValue: 20})

	r := NewResolver(database, store, reg, config.DefaultConfig(), zap.NewNop())
	err := r.Apply(testUser, category.ChangeEvent{
		Kind: category.ChangeRename, CategoryID: "c-work", OldPath: "/work", NewPath: "/w2",
	})
	require.NoError(t, err)

	p, ok, err := store.Get("seed-1", "tagger")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 20.0, p.Amount)
}

func TestZeroPressureContributionSkipsWrite(t *testing.T) {
	database, store := setup(t)
	mkCategory(t, database, "c-work", "/work", "")
	mkSeed(t, database, "seed-1", "c-work")

	reg := automation.NewRegistry()
	reg.MustRegister(&automation.Fake{IDValue: "tagger", PressureValue: 0})

	r := NewResolver(database, store, reg, config.DefaultConfig(), zap.NewNop())
	err := r.Apply(testUser, category.ChangeEvent{
		Kind: category.ChangeRename, CategoryID: "c-work", OldPath: "/work",
	})
	require.NoError(t, err)

	_, ok, err := store.Get("seed-1", "tagger")
	require.NoError(t, err)
	require.False(t, ok, "zero contribution must not create a row")
}

func TestDisabledAutomationSkipped(t *testing.T) {
	database, store := setup(t)
	mkCategory(t, database, "c-work", "/work", "")
	mkSeed(t, database, "seed-1", "c-work")

	reg := automation.NewRegistry()
	reg.MustRegister(&automation.Fake{IDValue: "off", Disabled: true, PressureValue: 50})

	r := NewResolver(database, store, reg, config.DefaultConfig(), zap.NewNop())
	err := r.Apply(testUser, category.ChangeEvent{
		Kind: category.ChangeRename, CategoryID: "c-work", OldPath: "/work",
	})
	require.NoError(t, err)

	_, ok, err := store.Get("seed-1", "off")
	require.NoError(t, err)
	require.False(t, ok)
}
