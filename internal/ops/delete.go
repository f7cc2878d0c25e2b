package ops

import (
	"context"

	"github.com/harms-haus/memoriae/internal/db"
	"github.com/harms-haus/memoriae/internal/errors"
)

// DeleteSeedInput contains parameters for the DeleteSeed operation.
type DeleteSeedInput struct {
	ID     string
	UserID string
}

// DeleteSeedOutput contains the result of the DeleteSeed operation.
type DeleteSeedOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// DeleteSeed soft-deletes a seed and cleans up the engine state that hangs
// off it: pressure rows and any queued jobs. The transaction log is kept.
func DeleteSeed(ctx context.Context, env *Env, input DeleteSeedInput) (*DeleteSeedOutput, error) {
	if err := requireUser(input.UserID); err != nil {
		return nil, err
	}
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	// Ownership check before mutation.
	if _, err := db.LoadSeedForUser(env.DB, input.ID, input.UserID); err != nil {
		return nil, err
	}

	if err := db.SoftDeleteSeed(env.DB, input.ID); err != nil {
		return nil, err
	}
	if err := env.Pressure.DeleteAllForSeed(input.ID); err != nil {
		return nil, err
	}
	if err := env.Queue.RemoveAllForSeed(input.ID); err != nil {
		return nil, err
	}

	return &DeleteSeedOutput{Deleted: true, ID: input.ID}, nil
}
