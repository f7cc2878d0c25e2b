package ops

import (
	"context"
	"testing"

	"github.com/harms-haus/memoriae/internal/automation"
	"github.com/harms-haus/memoriae/internal/errors"
	"github.com/harms-haus/memoriae/internal/queue"
)

func TestDeleteSeed_CleansEngineState(t *testing.T) {
	env := testEnv(t)
	env.Registry.MustRegister(&automation.Fake{IDValue: "tagger"})
	id := mustStoreSeed(t, env, "note")

	if _, err := env.Pressure.Set(id, "tagger", 40); err != nil {
		t.Fatalf("pressure set failed: %v", err)
	}

	out, err := DeleteSeed(context.Background(), env, DeleteSeedInput{ID: id, UserID: testUser})
	if err != nil {
		t.Fatalf("DeleteSeed failed: %v", err)
	}
	if !out.Deleted {
		t.Error("Deleted = false")
	}

	if _, err := FetchSeed(context.Background(), env, FetchSeedInput{ID: id, UserID: testUser}); !errors.IsNotFound(err) {
		t.Errorf("expected NOT_FOUND after delete, got %v", err)
	}
	if _, ok, _ := env.Pressure.Get(id, "tagger"); ok {
		t.Error("pressure rows should be gone")
	}
	if _, ok, _ := env.Queue.Status(queue.JobKey("tagger", id)); ok {
		t.Error("queued jobs should be gone")
	}
}

func TestDeleteSeed_WrongUser(t *testing.T) {
	env := testEnv(t)
	id := mustStoreSeed(t, env, "note")

	_, err := DeleteSeed(context.Background(), env, DeleteSeedInput{ID: id, UserID: "intruder"})
	if !errors.IsNotFound(err) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
