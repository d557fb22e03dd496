package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/recipe-comments-api/internal/models"
	"github.com/recipe-comments-api/internal/repository"
	"github.com/recipe-comments-api/internal/thread"
)

// Verify interface compliance
var (
	_ repository.CommentRepository = (*MockCommentRepository)(nil)
	_ repository.VoteRepository    = (*MockVoteRepository)(nil)
	_ repository.RecipeRepository  = (*MockRecipeRepository)(nil)
)

// MockCommentRepository is an in-memory CommentRepository safe for concurrent use
type MockCommentRepository struct {
	mu        sync.Mutex
	Comments  map[int64]*models.Comment
	nextID    int64
	Now       func() time.Time
	Err       error
	ListCalls int
}

func NewMockCommentRepository() *MockCommentRepository {
	return &MockCommentRepository{
		Comments: make(map[int64]*models.Comment),
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m *MockCommentRepository) Insert(ctx context.Context, nc *models.NewComment) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	if nc.ParentID != nil {
		parent, ok := m.Comments[*nc.ParentID]
		if !ok || parent.RecipeID != nc.RecipeID {
			return nil, repository.ErrInvalidParent
		}
		if parent.IsDeleted() {
			return nil, repository.ErrDeleted
		}
	}

	m.nextID++
	comment := &models.Comment{
		ID:             m.nextID,
		RecipeID:       nc.RecipeID,
		AuthorUsername: nc.AuthorUsername,
		Message:        nc.Message,
		CreatedAt:      m.Now(),
	}
	if nc.ParentID != nil {
		parentID := *nc.ParentID
		comment.ParentID = &parentID
	}
	m.Comments[comment.ID] = comment
	return copyComment(comment), nil
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if c, ok := m.Comments[id]; ok {
		return copyComment(c), nil
	}
	return nil, nil
}

func (m *MockCommentRepository) UpdateMessage(ctx context.Context, id int64, message string) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	c, ok := m.Comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if c.IsDeleted() {
		return nil, repository.ErrDeleted
	}
	now := m.Now()
	c.Message = message
	c.EditedAt = &now
	return copyComment(c), nil
}

func (m *MockCommentRepository) SoftDelete(ctx context.Context, id int64) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	c, ok := m.Comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if c.DeletedAt == nil {
		now := m.Now()
		c.DeletedAt = &now
	}
	return copyComment(c), nil
}

func (m *MockCommentRepository) ListByRecipe(ctx context.Context, recipeID int64) ([]*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	comments := make([]*models.Comment, 0)
	for _, c := range m.Comments {
		if c.RecipeID == recipeID {
			comments = append(comments, copyComment(c))
		}
	}
	return comments, nil
}

func (m *MockCommentRepository) Depth(ctx context.Context, id int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Comments[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	depth := 0
	for c.ParentID != nil {
		c = m.Comments[*c.ParentID]
		depth++
	}
	return depth, nil
}

func (m *MockCommentRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Comments), nil
}

func (m *MockCommentRepository) lookup(id int64) (*models.Comment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Comments[id]
	if !ok {
		return nil, false
	}
	return copyComment(c), true
}

type voteKey struct {
	commentID int64
	voter     string
}

// MockVoteRepository is an in-memory VoteRepository. It consults the comment
// repository for existence and recipe membership.
type MockVoteRepository struct {
	mu                   sync.Mutex
	comments             *MockCommentRepository
	Votes                map[voteKey]models.Vote
	Err                  error
	UpsertCalls          int
	AggregateCalls       int
	RecipeAggregateCalls int
}

func NewMockVoteRepository(comments *MockCommentRepository) *MockVoteRepository {
	return &MockVoteRepository{
		comments: comments,
		Votes:    make(map[voteKey]models.Vote),
	}
}

func (m *MockVoteRepository) Upsert(ctx context.Context, commentID int64, voter string, value int) error {
	if _, ok := m.comments.lookup(commentID); !ok {
		return repository.ErrNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertCalls++
	if m.Err != nil {
		return m.Err
	}

	key := voteKey{commentID, voter}
	if value == models.VoteClear {
		delete(m.Votes, key)
		return nil
	}
	m.Votes[key] = models.Vote{
		CommentID:     commentID,
		VoterUsername: voter,
		Value:         value,
		UpdatedAt:     time.Now().UTC(),
	}
	return nil
}

func (m *MockVoteRepository) AggregateFor(ctx context.Context, commentID int64, viewer string) (models.VoteAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AggregateCalls++
	if m.Err != nil {
		return models.VoteAggregate{}, m.Err
	}

	votes := make([]models.Vote, 0)
	for key, v := range m.Votes {
		if key.commentID == commentID {
			votes = append(votes, v)
		}
	}
	return thread.Tally(votes, viewer)[commentID], nil
}

func (m *MockVoteRepository) AggregatesByRecipe(ctx context.Context, recipeID int64, viewer string) (map[int64]models.VoteAggregate, error) {
	m.mu.Lock()
	snapshot := make([]models.Vote, 0, len(m.Votes))
	for _, v := range m.Votes {
		snapshot = append(snapshot, v)
	}
	m.RecipeAggregateCalls++
	err := m.Err
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	votes := snapshot[:0]
	for _, v := range snapshot {
		if c, ok := m.comments.lookup(v.CommentID); ok && c.RecipeID == recipeID {
			votes = append(votes, v)
		}
	}
	return thread.Tally(votes, viewer), nil
}

// RowCount returns the number of stored vote rows for a (comment, voter) pair
func (m *MockVoteRepository) RowCount(commentID int64, voter string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Votes[voteKey{commentID, voter}]; ok {
		return 1
	}
	return 0
}

// MockRecipeRepository is a mock implementation of RecipeRepository
type MockRecipeRepository struct {
	mu      sync.Mutex
	Recipes map[int64]bool
	Err     error
}

func NewMockRecipeRepository(ids ...int64) *MockRecipeRepository {
	m := &MockRecipeRepository{Recipes: make(map[int64]bool)}
	for _, id := range ids {
		m.Recipes[id] = true
	}
	return m
}

func (m *MockRecipeRepository) Exists(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	return m.Recipes[id], nil
}

// NewMockRepositories wires a full set of in-memory repositories whose
// catalog contains recipeIDs
func NewMockRepositories(recipeIDs ...int64) (*repository.Repositories, *MockCommentRepository, *MockVoteRepository, *MockRecipeRepository) {
	comments := NewMockCommentRepository()
	votes := NewMockVoteRepository(comments)
	recipes := NewMockRecipeRepository(recipeIDs...)
	return &repository.Repositories{
		Comment: comments,
		Vote:    votes,
		Recipe:  recipes,
	}, comments, votes, recipes
}

func copyComment(c *models.Comment) *models.Comment {
	cp := *c
	if c.ParentID != nil {
		v := *c.ParentID
		cp.ParentID = &v
	}
	if c.EditedAt != nil {
		v := *c.EditedAt
		cp.EditedAt = &v
	}
	if c.DeletedAt != nil {
		v := *c.DeletedAt
		cp.DeletedAt = &v
	}
	return &cp
}
