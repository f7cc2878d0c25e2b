package ops

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/harms-haus/memoriae/internal/automation"
	"github.com/harms-haus/memoriae/internal/cascade"
	"github.com/harms-haus/memoriae/internal/config"
	"github.com/harms-haus/memoriae/internal/db"
	"github.com/harms-haus/memoriae/internal/pressure"
	"github.com/harms-haus/memoriae/internal/queue"
)

const testUser = "user-1"

func testEnv(t *testing.T) *Env {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	reg := automation.NewRegistry()
	store := pressure.NewStore(database)
	return &Env{
		DB:       database,
		Cfg:      cfg,
		Registry: reg,
		Queue:    queue.New(database),
		Pressure: store,
		Cascade:  cascade.NewResolver(database, store, reg, cfg, zap.NewNop()),
		Logger:   zap.NewNop(),
	}
}

func stringPtr(s string) *string { return &s }

func mustStoreSeed(t *testing.T, env *Env, content string, categoryIDs ...string) string {
	t.Helper()
	out, err := StoreSeed(context.Background(), env, StoreSeedInput{
		UserID:      testUser,
		Content:     content,
		CategoryIDs: categoryIDs,
	})
	if err != nil {
		t.Fatalf("StoreSeed failed: %v", err)
	}
	return out.ID
}

func mustCreateCategory(t *testing.T, env *Env, name, parentID string) string {
	t.Helper()
	out, err := CreateCategory(context.Background(), env, CreateCategoryInput{
		UserID:   testUser,
		Name:     name,
		ParentID: parentID,
	})
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	return out.Category.ID
}

func TestClampLimit(t *testing.T) {
	if got := clampLimit(0); got != DefaultListLimit {
		t.Errorf("clampLimit(0) = %d, want %d", got, DefaultListLimit)
	}
	if got := clampLimit(-5); got != DefaultListLimit {
		t.Errorf("clampLimit(-5) = %d, want %d", got, DefaultListLimit)
	}
	if got := clampLimit(7); got != 7 {
		t.Errorf("clampLimit(7) = %d, want 7", got)
	}
	if got := clampLimit(9000); got != MaxListLimit {
		t.Errorf("clampLimit(9000) = %d, want %d", got, MaxListLimit)
	}
}

func TestParentPathOf(t *testing.T) {
	cases := map[string]string{
		"/work/sub/deep": "/work/sub",
		"/work":          "",
		"":               "",
	}
	for path, want := range cases {
		if got := parentPathOf(path); got != want {
			t.Errorf("parentPathOf(%q) = %q, want %q", path, got, want)
		}
	}
}
