package models

import (
	"time"
)

// Comment represents a discussion comment attached to a recipe
type Comment struct {
	ID             int64      `json:"id" db:"id"`
	RecipeID       int64      `json:"recipeId" db:"recipe_id"`
	AuthorUsername string     `json:"username" db:"author_username"`
	ParentID       *int64     `json:"parentId" db:"parent_id"`
	Message        string     `json:"message" db:"message"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	EditedAt       *time.Time `json:"editedAt,omitempty" db:"edited_at"`
	DeletedAt      *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
}

// IsDeleted reports whether the comment has been soft-deleted
func (c *Comment) IsDeleted() bool {
	return c.DeletedAt != nil
}

// IsRoot reports whether the comment is attached directly to the recipe
func (c *Comment) IsRoot() bool {
	return c.ParentID == nil
}

// MaxMessageLength is the default bound on a trimmed comment message, in characters
const MaxMessageLength = 500

// NewComment holds the fields supplied when inserting a comment
type NewComment struct {
	RecipeID       int64
	AuthorUsername string
	ParentID       *int64
	Message        string
}

// CommentNode is a comment enriched with its vote aggregate and replies.
// It is never persisted.
type CommentNode struct {
	Comment
	MessageHTML string         `json:"messageHtml,omitempty"`
	Score       int            `json:"score"`
	MyVote      *int           `json:"myVote"`
	Replies     []*CommentNode `json:"replies"`
}

// CreateCommentRequest is the body of POST /api/recipe/:id/comments
type CreateCommentRequest struct {
	Message  string `json:"message"`
	ParentID *int64 `json:"parentId,omitempty"`
}

// EditCommentRequest is the body of PATCH /api/comments/:id
type EditCommentRequest struct {
	Message string `json:"message"`
}
