package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/recipe-comments-api/internal/models"
	"github.com/recipe-comments-api/internal/thread"
	"github.com/rs/zerolog"
)

// VoteState tracks a comment's last vote action on this client
type VoteState int

const (
	StateNone VoteState = iota
	StateOptimistic
	StateConfirmed
	StateReverted
)

func (s VoteState) String() string {
	switch s {
	case StateOptimistic:
		return "optimistic"
	case StateConfirmed:
		return "confirmed"
	case StateReverted:
		return "reverted"
	}
	return "none"
}

// ErrNotLoaded is returned when acting on a comment missing from the local forest
var ErrNotLoaded = errors.New("comment not loaded")

// Reconciler holds the local forest for one recipe. Votes are applied locally
// before the server answers; any failure reverts them and re-fetches the list.
type Reconciler struct {
	mu       sync.Mutex
	api      API
	recipeID int64
	forest   []*models.CommentNode
	states   map[int64]VoteState
	log      zerolog.Logger
}

func NewReconciler(api API, recipeID int64, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		api:      api,
		recipeID: recipeID,
		forest:   make([]*models.CommentNode, 0),
		states:   make(map[int64]VoteState),
		log:      log.With().Str("component", "reconciler").Int64("recipe_id", recipeID).Logger(),
	}
}

// Refresh replaces local state with the server's list
func (r *Reconciler) Refresh(ctx context.Context) error {
	forest, err := r.api.ListComments(ctx, r.recipeID)
	if err != nil {
		return fmt.Errorf("refresh comments: %w", err)
	}

	r.mu.Lock()
	r.forest = forest
	r.mu.Unlock()
	return nil
}

// Forest returns a copy of the local forest
func (r *Reconciler) Forest() []*models.CommentNode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneForest(r.forest)
}

// Node returns a copy of one local comment, or nil
func (r *Reconciler) Node(commentID int64) *models.CommentNode {
	r.mu.Lock()
	defer r.mu.Unlock()
	node := thread.Find(r.forest, commentID)
	if node == nil {
		return nil
	}
	return cloneNode(node)
}

// State returns the vote state recorded for commentID
func (r *Reconciler) State(commentID int64) VoteState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[commentID]
}

// Toggle presses the up (1) or down (-1) button. Pressing the direction
// already held clears the vote.
func (r *Reconciler) Toggle(ctx context.Context, commentID int64, direction int) error {
	if direction != models.VoteUp && direction != models.VoteDown {
		return fmt.Errorf("direction must be %d or %d, got %d", models.VoteUp, models.VoteDown, direction)
	}

	r.mu.Lock()
	node := thread.Find(r.forest, commentID)
	if node == nil {
		r.mu.Unlock()
		return fmt.Errorf("comment %d: %w", commentID, ErrNotLoaded)
	}
	value := direction
	if node.MyVote != nil && *node.MyVote == direction {
		value = models.VoteClear
	}
	r.mu.Unlock()

	return r.Vote(ctx, commentID, value)
}

// Vote applies value optimistically, then confirms or reverts it
func (r *Reconciler) Vote(ctx context.Context, commentID int64, value int) error {
	r.mu.Lock()
	node := thread.Find(r.forest, commentID)
	if node == nil {
		r.mu.Unlock()
		return fmt.Errorf("comment %d: %w", commentID, ErrNotLoaded)
	}
	previous := node.MyVote
	applyVote(node, value)
	r.states[commentID] = StateOptimistic
	r.mu.Unlock()

	resp, err := r.api.Vote(ctx, commentID, value)
	if err != nil {
		r.revert(commentID, value, previous)
		r.log.Warn().Err(err).Int64("comment_id", commentID).Int("value", value).Msg("Vote reverted")
		if refreshErr := r.Refresh(ctx); refreshErr != nil {
			r.log.Error().Err(refreshErr).Msg("Refresh after failed vote")
		}
		return err
	}

	r.mu.Lock()
	if node := thread.Find(r.forest, commentID); node != nil {
		node.Score = resp.Score
		node.MyVote = resp.MyVote
	}
	r.states[commentID] = StateConfirmed
	r.mu.Unlock()
	return nil
}

// Create posts a comment or reply and re-fetches the list
func (r *Reconciler) Create(ctx context.Context, message string, parentID *int64) (*models.CommentNode, error) {
	node, err := r.api.CreateComment(ctx, r.recipeID, models.CreateCommentRequest{
		Message:  message,
		ParentID: parentID,
	})
	return node, r.afterMutation(ctx, "create", err)
}

// Edit changes a comment's message and re-fetches the list
func (r *Reconciler) Edit(ctx context.Context, commentID int64, message string) (*models.Comment, error) {
	comment, err := r.api.EditComment(ctx, commentID, message)
	return comment, r.afterMutation(ctx, "edit", err)
}

// Delete soft-deletes a comment and re-fetches the list
func (r *Reconciler) Delete(ctx context.Context, commentID int64) (*models.Comment, error) {
	comment, err := r.api.DeleteComment(ctx, commentID)
	return comment, r.afterMutation(ctx, "delete", err)
}

// afterMutation re-fetches regardless of outcome. The mutation error wins
// over a refresh error.
func (r *Reconciler) afterMutation(ctx context.Context, op string, err error) error {
	refreshErr := r.Refresh(ctx)
	if err != nil {
		r.log.Warn().Err(err).Str("op", op).Msg("Mutation failed")
		return err
	}
	return refreshErr
}

func (r *Reconciler) revert(commentID int64, value int, previous *int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[commentID] = StateReverted
	node := thread.Find(r.forest, commentID)
	if node == nil {
		return
	}
	node.Score -= value - voteValue(previous)
	node.MyVote = previous
}

// applyVote moves the score by the difference between the new and held vote
func applyVote(node *models.CommentNode, value int) {
	node.Score += value - voteValue(node.MyVote)
	if value == models.VoteClear {
		node.MyVote = nil
		return
	}
	v := value
	node.MyVote = &v
}

func voteValue(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func cloneForest(forest []*models.CommentNode) []*models.CommentNode {
	out := make([]*models.CommentNode, len(forest))
	for i, node := range forest {
		out[i] = cloneNode(node)
	}
	return out
}

func cloneNode(node *models.CommentNode) *models.CommentNode {
	cp := *node
	if node.MyVote != nil {
		v := *node.MyVote
		cp.MyVote = &v
	}
	cp.Replies = cloneForest(node.Replies)
	return &cp
}
