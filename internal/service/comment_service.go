package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/recipe-comments-api/internal/authz"
	"github.com/recipe-comments-api/internal/config"
	"github.com/recipe-comments-api/internal/metrics"
	"github.com/recipe-comments-api/internal/models"
	"github.com/recipe-comments-api/internal/render"
	"github.com/recipe-comments-api/internal/repository"
	"github.com/recipe-comments-api/internal/thread"
	"github.com/recipe-comments-api/internal/validation"
	"github.com/rs/zerolog"
)

// commentService is the concrete implementation of CommentService
type commentService struct {
	comments  repository.CommentRepository
	votes     repository.VoteRepository
	recipes   repository.RecipeRepository
	validator *validation.Validator
	renderer  *render.Renderer
	maxDepth  int
	timeout   time.Duration
	log       zerolog.Logger
}

func newCommentService(repos *repository.Repositories, cfg config.CommentsConfig, renderer *render.Renderer, log zerolog.Logger) *commentService {
	return &commentService{
		comments:  repos.Comment,
		votes:     repos.Vote,
		recipes:   repos.Recipe,
		validator: validation.NewValidator(cfg.MaxLength),
		renderer:  renderer,
		maxDepth:  cfg.MaxDepth,
		timeout:   cfg.StoreTimeout,
		log:       log.With().Str("service", "comment").Logger(),
	}
}

// List returns the recipe's comment forest as seen by viewer. Scores for the
// whole recipe come from a single aggregate read.
func (s *commentService) List(ctx context.Context, recipeID int64, viewer string) (forest []*models.CommentNode, err error) {
	defer s.observe("list", time.Now(), &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	comments, err := s.comments.ListByRecipe(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("list comments for recipe %d: %w", recipeID, err)
	}
	metrics.ObserveThreadSize(len(comments))
	if len(comments) == 0 {
		return make([]*models.CommentNode, 0), nil
	}

	aggregates, err := s.votes.AggregatesByRecipe(ctx, recipeID, viewer)
	if err != nil {
		return nil, fmt.Errorf("aggregate votes for recipe %d: %w", recipeID, err)
	}

	forest = thread.BuildForest(comments, aggregates)
	if s.renderer != nil {
		thread.Walk(forest, func(node *models.CommentNode, _ int) {
			node.MessageHTML = s.renderer.Render(node.Message)
		})
	}
	return forest, nil
}

// Create adds a root comment or a reply on behalf of identity
func (s *commentService) Create(ctx context.Context, recipeID int64, identity string, req *models.CreateCommentRequest) (node *models.CommentNode, err error) {
	defer s.observe("create", time.Now(), &err)

	if err := authz.Check(authz.ActionCreate, identity, nil); err != nil {
		return nil, err
	}

	message, errs := s.validator.ValidateMessage(req.Message)
	errs = append(errs, s.validator.ValidateParentID(req.ParentID)...)
	if len(errs) > 0 {
		return nil, newValidationErrors(errs...)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	exists, err := s.recipes.Exists(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("check recipe %d: %w", recipeID, err)
	}
	if !exists {
		return nil, fmt.Errorf("recipe %d: %w", recipeID, ErrNotFound)
	}

	if req.ParentID != nil && s.maxDepth > 0 {
		if err := s.checkDepth(ctx, *req.ParentID); err != nil {
			return nil, err
		}
	}

	comment, err := s.comments.Insert(ctx, &models.NewComment{
		RecipeID:       recipeID,
		AuthorUsername: identity,
		ParentID:       req.ParentID,
		Message:        message,
	})
	switch {
	case errors.Is(err, repository.ErrInvalidParent):
		return nil, fmt.Errorf("parent %d on recipe %d: %w", *req.ParentID, recipeID, ErrInvalidParent)
	case errors.Is(err, repository.ErrDeleted):
		return nil, fmt.Errorf("cannot reply to deleted comment %d: %w", *req.ParentID, ErrInvalidState)
	case err != nil:
		return nil, fmt.Errorf("insert comment: %w", err)
	}

	s.log.Info().
		Int64("comment_id", comment.ID).
		Int64("recipe_id", recipeID).
		Str("author", identity).
		Bool("reply", comment.ParentID != nil).
		Msg("Comment created")

	return s.newNode(comment), nil
}

// Edit replaces the message of a comment owned by identity
func (s *commentService) Edit(ctx context.Context, commentID int64, identity string, message string) (comment *models.Comment, err error) {
	defer s.observe("edit", time.Now(), &err)

	if identity == "" {
		return nil, ErrUnauthorized
	}

	trimmed, errs := s.validator.ValidateMessage(message)
	if len(errs) > 0 {
		return nil, newValidationErrors(errs...)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	existing, err := s.load(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := authz.Check(authz.ActionEdit, identity, existing); err != nil {
		return nil, err
	}
	if existing.IsDeleted() {
		return nil, fmt.Errorf("comment %d: %w", commentID, ErrInvalidState)
	}

	comment, err = s.comments.UpdateMessage(ctx, commentID, trimmed)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
	case errors.Is(err, repository.ErrDeleted):
		return nil, fmt.Errorf("comment %d: %w", commentID, ErrInvalidState)
	case err != nil:
		return nil, fmt.Errorf("update comment %d: %w", commentID, err)
	}

	s.log.Info().Int64("comment_id", commentID).Str("author", identity).Msg("Comment edited")
	return comment, nil
}

// Delete soft-deletes a comment owned by identity. Deleting twice succeeds.
func (s *commentService) Delete(ctx context.Context, commentID int64, identity string) (comment *models.Comment, err error) {
	defer s.observe("delete", time.Now(), &err)

	if identity == "" {
		return nil, ErrUnauthorized
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	existing, err := s.load(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := authz.Check(authz.ActionDelete, identity, existing); err != nil {
		return nil, err
	}

	comment, err = s.comments.SoftDelete(ctx, commentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("delete comment %d: %w", commentID, err)
	}

	s.log.Info().Int64("comment_id", commentID).Str("author", identity).Msg("Comment deleted")
	return comment, nil
}

// Vote records identity's vote and returns the comment's fresh aggregate.
// Re-sending the held value is a no-op; 0 clears.
func (s *commentService) Vote(ctx context.Context, commentID int64, identity string, value *int) (resp *models.VoteResponse, err error) {
	defer s.observe("vote", time.Now(), &err)

	if err := authz.Check(authz.ActionVote, identity, nil); err != nil {
		return nil, err
	}
	if errs := s.validator.ValidateVoteValue(value); len(errs) > 0 {
		return nil, newValidationErrors(errs...)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.votes.Upsert(ctx, commentID, identity, *value)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store vote on comment %d: %w", commentID, err)
	}

	agg, err := s.votes.AggregateFor(ctx, commentID, identity)
	if err != nil {
		return nil, fmt.Errorf("aggregate votes for comment %d: %w", commentID, err)
	}

	s.log.Debug().
		Int64("comment_id", commentID).
		Str("voter", identity).
		Int("value", *value).
		Int("score", agg.Score).
		Msg("Vote recorded")

	return &models.VoteResponse{
		CommentID: commentID,
		Score:     agg.Score,
		MyVote:    agg.MyVote,
	}, nil
}

// Count returns the total number of stored comments
func (s *commentService) Count(ctx context.Context) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.comments.Count(ctx)
}

func (s *commentService) load(ctx context.Context, commentID int64) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("get comment %d: %w", commentID, err)
	}
	if comment == nil {
		return nil, fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
	}
	return comment, nil
}

// checkDepth rejects a reply that would sit deeper than maxDepth levels below a root
func (s *commentService) checkDepth(ctx context.Context, parentID int64) error {
	depth, err := s.comments.Depth(ctx, parentID)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("parent %d: %w", parentID, ErrInvalidParent)
	}
	if err != nil {
		return fmt.Errorf("measure depth of %d: %w", parentID, err)
	}
	if depth+1 > s.maxDepth {
		return newValidationErrors(validation.ValidationError{
			Field:   "parentId",
			Message: fmt.Sprintf("replies may be nested at most %d levels deep", s.maxDepth),
			Value:   parentID,
		})
	}
	return nil
}

func (s *commentService) newNode(comment *models.Comment) *models.CommentNode {
	node := &models.CommentNode{
		Comment: *comment,
		Replies: make([]*models.CommentNode, 0),
	}
	if s.renderer != nil {
		node.MessageHTML = s.renderer.Render(comment.Message)
	}
	return node
}

func (s *commentService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *commentService) observe(op string, started time.Time, errp *error) {
	err := *errp
	switch {
	case err == nil:
		metrics.Observe(op, metrics.OutcomeOK, started)
	case IsClientError(err):
		metrics.Observe(op, metrics.OutcomeRejected, started)
	default:
		s.log.Error().Err(err).Str("op", op).Msg("Comment operation failed")
		metrics.Observe(op, metrics.OutcomeError, started)
	}
}
