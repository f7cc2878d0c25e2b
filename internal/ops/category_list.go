package ops

import (
	"context"

	"github.com/harms-haus/memoriae/internal/category"
	"github.com/harms-haus/memoriae/internal/db"
)

// ListCategoriesInput contains parameters for the ListCategories operation.
type ListCategoriesInput struct {
	UserID string
}

// ListCategoriesOutput contains the result of the ListCategories operation.
type ListCategoriesOutput struct {
	Categories []*category.Category `json:"categories"`
}

// ListCategories returns the user's whole tree ordered by path.
func ListCategories(ctx context.Context, env *Env, input ListCategoriesInput) (*ListCategoriesOutput, error) {
	if err := requireUser(input.UserID); err != nil {
		return nil, err
	}
	cats, err := db.ListCategories(env.DB, input.UserID)
	if err != nil {
		return nil, err
	}
	return &ListCategoriesOutput{Categories: cats}, nil
}
