package ops

import (
	"context"
	"strings"

	"github.com/harms-haus/memoriae/internal/category"
	"github.com/harms-haus/memoriae/internal/db"
	"github.com/harms-haus/memoriae/internal/errors"
	"github.com/harms-haus/memoriae/internal/seed"
)

// RenameCategoryInput contains parameters for the RenameCategory operation.
type RenameCategoryInput struct {
	ID     string
	UserID string
	Name   string // new display name
}

// RenameCategoryOutput contains the result of the RenameCategory operation.
type RenameCategoryOutput struct {
	Category *category.Category `json:"category"`
}

// RenameCategory renames a node, rewrites its subtree's paths, and cascades
// the change. The cascade is resolved against the pre-change tree, since it
// is the old path that identifies the affected descendants.
func RenameCategory(ctx context.Context, env *Env, input RenameCategoryInput) (*RenameCategoryOutput, error) {
	node, err := ownedCategory(env, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.NewInvalidRequest("name is required")
	}
	if strings.Contains(name, "/") {
		return nil, errors.NewInvalidRequest("name must not contain '/'")
	}
	if name == node.Name {
		return &RenameCategoryOutput{Category: node}, nil
	}

	newPath := category.ChildPath(parentPathOf(node.Path), name)

	if err := env.Cascade.Apply(input.UserID, category.ChangeEvent{
		Kind:        category.ChangeRename,
		CategoryID:  node.ID,
		OldPath:     node.Path,
		NewPath:     newPath,
		OldParentID: node.ParentID,
		NewParentID: node.ParentID,
	}); err != nil {
		return nil, err
	}

	if err := db.RenameCategory(env.DB, node.ID, name, seed.Normalize(name), node.Path, newPath); err != nil {
		return nil, err
	}

	updated, err := db.GetCategory(env.DB, node.ID)
	if err != nil {
		return nil, err
	}
	return &RenameCategoryOutput{Category: updated}, nil
}

// ownedCategory loads a node and enforces ownership.
func ownedCategory(env *Env, id, userID string) (*category.Category, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	node, err := db.GetCategory(env.DB, id)
	if err != nil {
		return nil, err
	}
	if node.UserID != userID {
		return nil, errors.NewNotFound("category", id)
	}
	return node, nil
}

// parentPathOf strips the last segment of a materialized path.
func parentPathOf(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return ""
	}
	return path[:idx]
}
