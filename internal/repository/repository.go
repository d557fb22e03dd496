package repository

import (
	"context"
	"errors"

	"github.com/recipe-comments-api/internal/database"
	"github.com/recipe-comments-api/internal/models"
)

var (
	// ErrNotFound is returned when the addressed comment does not exist
	ErrNotFound = errors.New("comment not found")
	// ErrInvalidParent is returned when a parent id does not resolve to a
	// comment on the same recipe
	ErrInvalidParent = errors.New("parent comment not found on this recipe")
	// ErrDeleted is returned when a soft-deleted comment is asked to change
	ErrDeleted = errors.New("comment is deleted")
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Insert(ctx context.Context, comment *models.NewComment) (*models.Comment, error)
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	UpdateMessage(ctx context.Context, id int64, message string) (*models.Comment, error)
	SoftDelete(ctx context.Context, id int64) (*models.Comment, error)
	ListByRecipe(ctx context.Context, recipeID int64) ([]*models.Comment, error)
	Depth(ctx context.Context, id int64) (int, error)
	Count(ctx context.Context) (int, error)
}

// VoteRepository defines the interface for vote data operations
type VoteRepository interface {
	Upsert(ctx context.Context, commentID int64, voter string, value int) error
	AggregateFor(ctx context.Context, commentID int64, viewer string) (models.VoteAggregate, error)
	AggregatesByRecipe(ctx context.Context, recipeID int64, viewer string) (map[int64]models.VoteAggregate, error)
}

// RecipeRepository answers the only question this subsystem asks of the catalog
type RecipeRepository interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Comment CommentRepository
	Vote    VoteRepository
	Recipe  RecipeRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Comment: NewCommentRepo(db),
		Vote:    NewVoteRepo(db),
		Recipe:  NewRecipeRepo(db),
	}
}
