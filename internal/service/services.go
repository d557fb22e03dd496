package service

import (
	"context"

	"github.com/recipe-comments-api/internal/config"
	"github.com/recipe-comments-api/internal/models"
	"github.com/recipe-comments-api/internal/render"
	"github.com/recipe-comments-api/internal/repository"
	"github.com/rs/zerolog"
)

// CommentService answers the external comment operations. identity is the
// username resolved for the request, or "" for anonymous callers.
type CommentService interface {
	List(ctx context.Context, recipeID int64, viewer string) ([]*models.CommentNode, error)
	Create(ctx context.Context, recipeID int64, identity string, req *models.CreateCommentRequest) (*models.CommentNode, error)
	Edit(ctx context.Context, commentID int64, identity string, message string) (*models.Comment, error)
	Delete(ctx context.Context, commentID int64, identity string) (*models.Comment, error)
	Vote(ctx context.Context, commentID int64, identity string, value *int) (*models.VoteResponse, error)
	Count(ctx context.Context) (int, error)
}

// Services holds all service interfaces
type Services struct {
	Comment CommentService
}

// NewServices creates all services. renderer may be nil, in which case nodes
// carry no rendered HTML.
func NewServices(repos *repository.Repositories, cfg *config.Config, renderer *render.Renderer, log zerolog.Logger) *Services {
	return &Services{
		Comment: newCommentService(repos, cfg.Comments, renderer, log),
	}
}
