package ops

import (
	"context"
	"strings"
	"time"

	"github.com/harms-haus/memoriae/internal/db"
	"github.com/harms-haus/memoriae/internal/errors"
	"github.com/harms-haus/memoriae/internal/seed"
)

// UpdateSeedInput contains parameters for the UpdateSeed operation. Nil
// pointer fields are left unchanged.
type UpdateSeedInput struct {
	ID     string
	UserID string

	Title   *string
	Content *string
	Note    *string
	Status  *string

	AddCategoryIDs    []string
	RemoveCategoryIDs []string

	FollowUpAt      *int64 // schedule (or reschedule) a follow-up
	ResolveFollowUp bool   // clear a pending follow-up
}

// UpdateSeedOutput contains the result of the UpdateSeed operation.
type UpdateSeedOutput struct {
	Seed    *seed.Seed `json:"seed"`
	Applied int        `json:"applied"`
}

// UpdateSeed appends one transaction per requested change and returns the
// resulting state. An input with no changes is rejected rather than silently
// writing nothing.
func UpdateSeed(ctx context.Context, env *Env, input UpdateSeedInput) (*UpdateSeedOutput, error) {
	if err := requireUser(input.UserID); err != nil {
		return nil, err
	}
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	current, err := db.LoadSeedForUser(env.DB, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}

	var txs []seed.Transaction
	if input.Title != nil {
		txs = append(txs, seed.SetTitle(*input.Title))
	}
	if input.Content != nil {
		if strings.TrimSpace(*input.Content) == "" {
			return nil, errors.NewInvalidRequest("content must not be empty")
		}
		txs = append(txs, seed.SetContent(*input.Content))
	}
	if input.Note != nil && strings.TrimSpace(*input.Note) != "" {
		txs = append(txs, seed.AddNote(*input.Note))
	}
	for _, catID := range input.AddCategoryIDs {
		if _, err := db.GetCategory(env.DB, catID); err != nil {
			return nil, err
		}
		if !current.HasCategory(catID) {
			txs = append(txs, seed.AddCategory(catID))
		}
	}
	for _, catID := range input.RemoveCategoryIDs {
		if current.HasCategory(catID) {
			txs = append(txs, seed.RemoveCategory(catID))
		}
	}
	if input.FollowUpAt != nil {
		if *input.FollowUpAt <= 0 {
			return nil, errors.NewInvalidRequest("follow_up_at must be a positive timestamp")
		}
		txs = append(txs, seed.ScheduleFollowUp(*input.FollowUpAt))
	}
	if input.ResolveFollowUp {
		if input.FollowUpAt != nil {
			return nil, errors.NewInvalidRequest("cannot schedule and resolve a follow-up in one update")
		}
		txs = append(txs, seed.ResolveFollowUp())
	}
	if input.Status != nil {
		if *input.Status != seed.StatusActive && *input.Status != seed.StatusArchived {
			return nil, errors.NewInvalidRequest("status must be one of: active, archived")
		}
		txs = append(txs, seed.SetStatus(*input.Status))
	}

	if len(txs) == 0 {
		return nil, errors.NewInvalidRequest("no changes requested")
	}

	if err := appendAll(env, input.ID, time.Now().Unix(), txs); err != nil {
		return nil, err
	}

	updated, err := db.LoadSeed(env.DB, input.ID)
	if err != nil {
		return nil, err
	}
	return &UpdateSeedOutput{Seed: updated, Applied: len(txs)}, nil
}
