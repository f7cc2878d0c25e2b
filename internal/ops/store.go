package ops

import (
	"context"
	"strings"
	"time"

	"github.com/harms-haus/memoriae/internal/db"
	"github.com/harms-haus/memoriae/internal/errors"
	"github.com/harms-haus/memoriae/internal/seed"
)

// StoreSeedInput contains parameters for the StoreSeed operation.
type StoreSeedInput struct {
	UserID      string
	Title       string
	Content     string // required
	CategoryIDs []string
	FollowUpAt  int64 // optional Unix timestamp
}

// StoreSeedOutput contains the result of the StoreSeed operation.
type StoreSeedOutput struct {
	ID       string `json:"id"`
	Enqueued int    `json:"enqueued"`
}

// StoreSeed captures a new seed: creates its row, writes the initial
// transactions, and enqueues one job per enabled automation so the new seed
// gets looked at.
func StoreSeed(ctx context.Context, env *Env, input StoreSeedInput) (*StoreSeedOutput, error) {
	if err := requireUser(input.UserID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, errors.NewInvalidRequest("content is required")
	}
	for _, catID := range input.CategoryIDs {
		if _, err := db.GetCategory(env.DB, catID); err != nil {
			return nil, err
		}
	}

	id, err := db.NewULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	now := time.Now().Unix()
	if err := db.InsertSeed(env.DB, id, input.UserID, now); err != nil {
		return nil, err
	}

	txs := []seed.Transaction{seed.Created(input.Title, input.Content)}
	for _, catID := range input.CategoryIDs {
		txs = append(txs, seed.AddCategory(catID))
	}
	if input.FollowUpAt > 0 {
		txs = append(txs, seed.ScheduleFollowUp(input.FollowUpAt))
	}
	if err := appendAll(env, id, now, txs); err != nil {
		return nil, err
	}

	enqueued, err := env.Queue.EnqueueAllEnabled(env.Registry, id, input.UserID)
	if err != nil {
		return nil, err
	}

	return &StoreSeedOutput{ID: id, Enqueued: enqueued}, nil
}

// appendAll persists transactions in order, assigning IDs and timestamps.
func appendAll(env *Env, seedID string, createdAt int64, txs []seed.Transaction) error {
	for i := range txs {
		txID, err := db.NewULID()
		if err != nil {
			return errors.NewInternal(err)
		}
		txs[i].ID = txID
		txs[i].SeedID = seedID
		txs[i].CreatedAt = createdAt
		if err := db.AppendTransaction(env.DB, &txs[i]); err != nil {
			return err
		}
	}
	return nil
}
