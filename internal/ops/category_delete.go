package ops

import (
	"context"
	"time"

	"github.com/harms-haus/memoriae/internal/category"
	"github.com/harms-haus/memoriae/internal/db"
	"github.com/harms-haus/memoriae/internal/seed"
)

// DeleteCategoryInput contains parameters for the DeleteCategory operation.
type DeleteCategoryInput struct {
	ID     string
	UserID string
}

// DeleteCategoryOutput contains the result of the DeleteCategory operation.
type DeleteCategoryOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// DeleteCategory removes a node. Its children are promoted to the node's
// parent rather than deleted, and every tagged seed gets a category_removed
// entry in its log. The cascade runs first, while the tagging rows still
// exist.
func DeleteCategory(ctx context.Context, env *Env, input DeleteCategoryInput) (*DeleteCategoryOutput, error) {
	node, err := ownedCategory(env, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}

	if err := env.Cascade.Apply(input.UserID, category.ChangeEvent{
		Kind:        category.ChangeRemove,
		CategoryID:  node.ID,
		OldPath:     node.Path,
		OldParentID: node.ParentID,
	}); err != nil {
		return nil, err
	}

	// The log is the source of truth for a seed's tags, so deletion has to
	// be recorded there, not just in the join table.
	taggedSeeds, err := db.SeedIDsForCategories(env.DB, input.UserID, []string{node.ID})
	if err != nil {
		return nil, err
	}
	now := time.Now().Unix()
	for _, seedID := range taggedSeeds {
		if err := appendAll(env, seedID, now, []seed.Transaction{seed.RemoveCategory(node.ID)}); err != nil {
			return nil, err
		}
	}

	if err := db.PromoteChildren(env.DB, node.ID); err != nil {
		return nil, err
	}
	if err := db.DeleteCategory(env.DB, node.ID); err != nil {
		return nil, err
	}

	return &DeleteCategoryOutput{Deleted: true, ID: node.ID}, nil
}
