// Package authz holds the stateless predicates gating comment mutations.
package authz

import (
	"errors"

	"github.com/recipe-comments-api/internal/models"
)

var (
	// ErrUnauthorized means the operation needs an identity and none was resolved
	ErrUnauthorized = errors.New("authentication required")
	// ErrForbidden means an identity was resolved but does not own the comment
	ErrForbidden = errors.New("not the author of this comment")
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionVote   Action = "vote"
)

// CanRead is always true; listing needs no identity.
func CanRead() bool { return true }

func CanCreate(identity string) bool { return identity != "" }

func CanVote(identity string) bool { return identity != "" }

// CanEdit requires ownership and a live comment.
func CanEdit(identity string, comment *models.Comment) bool {
	return isOwner(identity, comment) && !comment.IsDeleted()
}

func CanDelete(identity string, comment *models.Comment) bool {
	return isOwner(identity, comment)
}

// Check reports why identity may not perform action, or nil. comment is only
// consulted for edit and delete. An edit on a deleted comment owned by the
// caller passes here; the store reports that as an invalid state.
func Check(action Action, identity string, comment *models.Comment) error {
	switch action {
	case ActionRead:
		return nil
	case ActionCreate, ActionVote:
		if identity == "" {
			return ErrUnauthorized
		}
		return nil
	case ActionEdit, ActionDelete:
		if identity == "" {
			return ErrUnauthorized
		}
		if !isOwner(identity, comment) {
			return ErrForbidden
		}
		return nil
	default:
		return ErrForbidden
	}
}

func isOwner(identity string, comment *models.Comment) bool {
	return identity != "" && comment != nil && comment.AuthorUsername == identity
}
