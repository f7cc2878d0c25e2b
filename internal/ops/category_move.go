package ops

import (
	"context"

	"github.com/harms-haus/memoriae/internal/category"
	"github.com/harms-haus/memoriae/internal/db"
	"github.com/harms-haus/memoriae/internal/errors"
)

// MoveCategoryInput contains parameters for the MoveCategory operation.
type MoveCategoryInput struct {
	ID          string
	UserID      string
	NewParentID string // empty moves the node to the root
}

// MoveCategoryOutput contains the result of the MoveCategory operation.
type MoveCategoryOutput struct {
	Category *category.Category `json:"category"`
}

// MoveCategory reparents a node, rewrites its subtree's paths, and cascades
// the change against the pre-change tree.
func MoveCategory(ctx context.Context, env *Env, input MoveCategoryInput) (*MoveCategoryOutput, error) {
	node, err := ownedCategory(env, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}
	if input.NewParentID == node.ParentID {
		return &MoveCategoryOutput{Category: node}, nil
	}
	if input.NewParentID == node.ID {
		return nil, errors.NewInvalidRequest("cannot move a category under itself")
	}

	newParentPath := ""
	if input.NewParentID != "" {
		parent, err := db.GetCategory(env.DB, input.NewParentID)
		if err != nil {
			return nil, err
		}
		if parent.UserID != input.UserID {
			return nil, errors.NewNotFound("category", input.NewParentID)
		}
		if category.IsDescendantPath(parent.Path, node.Path) {
			return nil, errors.NewInvalidRequest("cannot move a category under its own descendant")
		}
		newParentPath = parent.Path
	}

	newPath := category.ChildPath(newParentPath, node.Name)

	if err := env.Cascade.Apply(input.UserID, category.ChangeEvent{
		Kind:        category.ChangeMove,
		CategoryID:  node.ID,
		OldPath:     node.Path,
		NewPath:     newPath,
		OldParentID: node.ParentID,
		NewParentID: input.NewParentID,
	}); err != nil {
		return nil, err
	}

	if err := db.MoveCategory(env.DB, node.ID, input.NewParentID, node.Path, newPath); err != nil {
		return nil, err
	}

	updated, err := db.GetCategory(env.DB, node.ID)
	if err != nil {
		return nil, err
	}
	return &MoveCategoryOutput{Category: updated}, nil
}
