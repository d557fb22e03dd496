package repository

import (
	"context"

	"github.com/recipe-comments-api/internal/database"
)

// recipeRepo is the concrete implementation of RecipeRepository
type recipeRepo struct {
	db *database.DB
}

// NewRecipeRepo creates a new recipe repository
func NewRecipeRepo(db *database.DB) RecipeRepository {
	return &recipeRepo{db: db}
}

// Exists checks if a recipe with the given ID exists
func (r *recipeRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM recipes WHERE id = $1)", id).Scan(&exists)
	return exists, err
}
