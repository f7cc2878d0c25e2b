package ops

import (
	"context"

	"github.com/harms-haus/memoriae/internal/db"
	"github.com/harms-haus/memoriae/internal/seed"
)

// ListSeedsInput contains parameters for the ListSeeds operation.
type ListSeedsInput struct {
	UserID string
	Limit  int
	Offset int
}

// ListSeedsOutput contains the result of the ListSeeds operation.
type ListSeedsOutput struct {
	Seeds      []*seed.Seed `json:"seeds"`
	Pagination Pagination   `json:"pagination"`
}

// ListSeeds returns a page of the user's live seeds, newest first.
func ListSeeds(ctx context.Context, env *Env, input ListSeedsInput) (*ListSeedsOutput, error) {
	if err := requireUser(input.UserID); err != nil {
		return nil, err
	}
	limit := clampLimit(input.Limit)
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	// Fetch one extra row to learn whether another page exists.
	ids, err := db.ListSeedIDs(env.DB, input.UserID, limit+1, offset)
	if err != nil {
		return nil, err
	}
	hasMore := len(ids) > limit
	if hasMore {
		ids = ids[:limit]
	}

	seeds := make([]*seed.Seed, 0, len(ids))
	for _, id := range ids {
		s, err := db.LoadSeed(env.DB, id)
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, s)
	}

	return &ListSeedsOutput{
		Seeds: seeds,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: hasMore,
		},
	}, nil
}
