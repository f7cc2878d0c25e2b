package ops

import (
	"context"

	"github.com/harms-haus/memoriae/internal/db"
	"github.com/harms-haus/memoriae/internal/errors"
	"github.com/harms-haus/memoriae/internal/seed"
)

// FetchSeedInput contains parameters for the FetchSeed operation.
type FetchSeedInput struct {
	ID     string
	UserID string

	// IncludeLog also returns the raw transaction log.
	IncludeLog bool
}

// FetchSeedOutput contains the result of the FetchSeed operation.
type FetchSeedOutput struct {
	Seed *seed.Seed         `json:"seed"`
	Log  []seed.Transaction `json:"log,omitempty"`
}

// FetchSeed loads one seed's computed state, optionally with its log.
func FetchSeed(ctx context.Context, env *Env, input FetchSeedInput) (*FetchSeedOutput, error) {
	if err := requireUser(input.UserID); err != nil {
		return nil, err
	}
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	s, err := db.LoadSeedForUser(env.DB, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}

	out := &FetchSeedOutput{Seed: s}
	if input.IncludeLog {
		log, err := db.LoadTransactions(env.DB, input.ID)
		if err != nil {
			return nil, err
		}
		out.Log = log
	}
	return out, nil
}
