package ops

import (
	"context"
	"strings"
	"time"

	"github.com/harms-haus/memoriae/internal/category"
	"github.com/harms-haus/memoriae/internal/db"
	"github.com/harms-haus/memoriae/internal/errors"
	"github.com/harms-haus/memoriae/internal/seed"
)

// CreateCategoryInput contains parameters for the CreateCategory operation.
type CreateCategoryInput struct {
	UserID   string
	Name     string // required, must not contain "/"
	ParentID string // optional, empty creates a root node
}

// CreateCategoryOutput contains the result of the CreateCategory operation.
type CreateCategoryOutput struct {
	Category *category.Category `json:"category"`
}

// CreateCategory adds a node to the user's tree and cascades the addition to
// seeds tagged with the parent.
func CreateCategory(ctx context.Context, env *Env, input CreateCategoryInput) (*CreateCategoryOutput, error) {
	if err := requireUser(input.UserID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.NewInvalidRequest("name is required")
	}
	if strings.Contains(name, "/") {
		return nil, errors.NewInvalidRequest("name must not contain '/'")
	}

	parentPath := ""
	if input.ParentID != "" {
		parent, err := db.GetCategory(env.DB, input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.UserID != input.UserID {
			return nil, errors.NewNotFound("category", input.ParentID)
		}
		parentPath = parent.Path
	}

	id, err := db.NewULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	now := time.Now().Unix()
	node := &category.Category{
		ID:        id,
		UserID:    input.UserID,
		Name:      name,
		NameNorm:  seed.Normalize(name),
		Path:      category.ChildPath(parentPath, name),
		ParentID:  input.ParentID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.InsertCategory(env.DB, node); err != nil {
		return nil, err
	}

	if err := env.Cascade.Apply(input.UserID, category.ChangeEvent{
		Kind:        category.ChangeAddChild,
		CategoryID:  id,
		NewPath:     node.Path,
		NewParentID: input.ParentID,
	}); err != nil {
		return nil, err
	}

	return &CreateCategoryOutput{Category: node}, nil
}
