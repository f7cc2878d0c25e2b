package ops

import (
	"context"
	"testing"

	"github.com/harms-haus/memoriae/internal/seed"
)

func TestUpdateSeed_TitleContentNote(t *testing.T) {
	env := testEnv(t)
	id := mustStoreSeed(t, env, "original")

	out, err := UpdateSeed(context.Background(), env, UpdateSeedInput{
		ID:      id,
		UserID:  testUser,
		Title:   stringPtr("New title"),
		Content: stringPtr("revised"),
		Note:    stringPtr("edited while testing"),
	})
	if err != nil {
		t.Fatalf("UpdateSeed failed: %v", err)
	}
	if out.Applied != 3 {
		t.Errorf("Applied = %d, want 3", out.Applied)
	}
	if out.Seed.Title != "New title" || out.Seed.Content != "revised" {
		t.Errorf("state = %q / %q", out.Seed.Title, out.Seed.Content)
	}
	if len(out.Seed.Notes) != 1 || out.Seed.Notes[0] != "edited while testing" {
		t.Errorf("Notes = %v", out.Seed.Notes)
	}
}

func TestUpdateSeed_Categories(t *testing.T) {
	env := testEnv(t)
	catA := mustCreateCategory(t, env, "a", "")
	catB := mustCreateCategory(t, env, "b", "")
	id := mustStoreSeed(t, env, "note", catA)

	out, err := UpdateSeed(context.Background(), env, UpdateSeedInput{
		ID:                id,
		UserID:            testUser,
		AddCategoryIDs:    []string{catB, catA}, // catA already present: no-op
		RemoveCategoryIDs: []string{catA},
	})
	if err != nil {
		t.Fatalf("UpdateSeed failed: %v", err)
	}
	if out.Seed.HasCategory(catA) {
		t.Error("catA should have been removed")
	}
	if !out.Seed.HasCategory(catB) {
		t.Error("catB should have been added")
	}
}

func TestUpdateSeed_FollowUpLifecycle(t *testing.T) {
	env := testEnv(t)
	id := mustStoreSeed(t, env, "note")

	due := int64(1893456000)
	out, err := UpdateSeed(context.Background(), env, UpdateSeedInput{
		ID: id, UserID: testUser, FollowUpAt: &due,
	})
	if err != nil {
		t.Fatalf("schedule failed: %v", err)
	}
	if out.Seed.FollowUpAt != due {
		t.Errorf("FollowUpAt = %d, want %d", out.Seed.FollowUpAt, due)
	}

	out, err = UpdateSeed(context.Background(), env, UpdateSeedInput{
		ID: id, UserID: testUser, ResolveFollowUp: true,
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if out.Seed.FollowUpAt != 0 {
		t.Errorf("FollowUpAt = %d after resolve, want 0", out.Seed.FollowUpAt)
	}

	// Scheduling and resolving at once is contradictory.
	_, err = UpdateSeed(context.Background(), env, UpdateSeedInput{
		ID: id, UserID: testUser, FollowUpAt: &due, ResolveFollowUp: true,
	})
	if err == nil {
		t.Fatal("expected error for schedule+resolve in one update")
	}
}

func TestUpdateSeed_Archive(t *testing.T) {
	env := testEnv(t)
	id := mustStoreSeed(t, env, "note")

	out, err := UpdateSeed(context.Background(), env, UpdateSeedInput{
		ID: id, UserID: testUser, Status: stringPtr(seed.StatusArchived),
	})
	if err != nil {
		t.Fatalf("UpdateSeed failed: %v", err)
	}
	if out.Seed.Status != seed.StatusArchived {
		t.Errorf("Status = %q, want archived", out.Seed.Status)
	}

	_, err = UpdateSeed(context.Background(), env, UpdateSeedInput{
		ID: id, UserID: testUser, Status: stringPtr("bogus"),
	})
	if err == nil {
		t.Fatal("expected error for invalid status")
	}
}

func TestUpdateSeed_NoChanges(t *testing.T) {
	env := testEnv(t)
	id := mustStoreSeed(t, env, "note")

	_, err := UpdateSeed(context.Background(), env, UpdateSeedInput{ID: id, UserID: testUser})
	if err == nil {
		t.Fatal("expected error for empty update")
	}
}
