package mocks

import (
	"context"
	"sync"

	"github.com/recipe-comments-api/internal/models"
	"github.com/recipe-comments-api/internal/service"
	"github.com/recipe-comments-api/internal/session"
)

// MockCommentService is a mock implementation of CommentService. Each call
// delegates to the matching Func field when set.
type MockCommentService struct {
	ListFunc   func(ctx context.Context, recipeID int64, viewer string) ([]*models.CommentNode, error)
	CreateFunc func(ctx context.Context, recipeID int64, identity string, req *models.CreateCommentRequest) (*models.CommentNode, error)
	EditFunc   func(ctx context.Context, commentID int64, identity string, message string) (*models.Comment, error)
	DeleteFunc func(ctx context.Context, commentID int64, identity string) (*models.Comment, error)
	VoteFunc   func(ctx context.Context, commentID int64, identity string, value *int) (*models.VoteResponse, error)
	CountValue int

	// Identities records the identity passed to each call, in order
	Identities []string
}

// Verify interface compliance
var _ service.CommentService = (*MockCommentService)(nil)

func NewMockCommentService() *MockCommentService {
	return &MockCommentService{Identities: make([]string, 0)}
}

func (m *MockCommentService) List(ctx context.Context, recipeID int64, viewer string) ([]*models.CommentNode, error) {
	m.Identities = append(m.Identities, viewer)
	if m.ListFunc != nil {
		return m.ListFunc(ctx, recipeID, viewer)
	}
	return make([]*models.CommentNode, 0), nil
}

func (m *MockCommentService) Create(ctx context.Context, recipeID int64, identity string, req *models.CreateCommentRequest) (*models.CommentNode, error) {
	m.Identities = append(m.Identities, identity)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, recipeID, identity, req)
	}
	return &models.CommentNode{
		Comment: models.Comment{
			ID:             1,
			RecipeID:       recipeID,
			AuthorUsername: identity,
			ParentID:       req.ParentID,
			Message:        req.Message,
		},
		Replies: make([]*models.CommentNode, 0),
	}, nil
}

func (m *MockCommentService) Edit(ctx context.Context, commentID int64, identity string, message string) (*models.Comment, error) {
	m.Identities = append(m.Identities, identity)
	if m.EditFunc != nil {
		return m.EditFunc(ctx, commentID, identity, message)
	}
	return &models.Comment{ID: commentID, AuthorUsername: identity, Message: message}, nil
}

func (m *MockCommentService) Delete(ctx context.Context, commentID int64, identity string) (*models.Comment, error) {
	m.Identities = append(m.Identities, identity)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, commentID, identity)
	}
	return &models.Comment{ID: commentID, AuthorUsername: identity}, nil
}

func (m *MockCommentService) Vote(ctx context.Context, commentID int64, identity string, value *int) (*models.VoteResponse, error) {
	m.Identities = append(m.Identities, identity)
	if m.VoteFunc != nil {
		return m.VoteFunc(ctx, commentID, identity, value)
	}
	return &models.VoteResponse{CommentID: commentID, Score: *value, MyVote: value}, nil
}

func (m *MockCommentService) Count(ctx context.Context) (int, error) {
	return m.CountValue, nil
}

// MockResolver maps fixed tokens to usernames
type MockResolver struct {
	mu       sync.Mutex
	Sessions map[string]string
	Calls    int
}

// Verify interface compliance
var _ session.Resolver = (*MockResolver)(nil)

func NewMockResolver(sessions map[string]string) *MockResolver {
	if sessions == nil {
		sessions = make(map[string]string)
	}
	return &MockResolver{Sessions: sessions}
}

func (m *MockResolver) ResolveIdentity(ctx context.Context, credential string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	return m.Sessions[credential]
}
