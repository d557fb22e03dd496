package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/recipe-comments-api/internal/database"
	"github.com/recipe-comments-api/internal/models"
)

const commentColumns = `id, recipe_id, author_username, parent_id, message, created_at, edited_at, deleted_at`

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db *database.DB
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{db: db}
}

// Insert stores a new comment. The parent, when given, is locked for the
// duration of the insert so it cannot vanish between the check and the write.
func (r *commentRepo) Insert(ctx context.Context, nc *models.NewComment) (*models.Comment, error) {
	var comment *models.Comment

	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		if nc.ParentID != nil {
			var parentRecipeID int64
			var parentDeletedAt sql.NullTime
			err := tx.QueryRowContext(ctx,
				`SELECT recipe_id, deleted_at FROM comments WHERE id = $1 FOR SHARE`, *nc.ParentID,
			).Scan(&parentRecipeID, &parentDeletedAt)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrInvalidParent
			}
			if err != nil {
				return err
			}
			if parentRecipeID != nc.RecipeID {
				return ErrInvalidParent
			}
			if parentDeletedAt.Valid {
				return ErrDeleted
			}
		}

		query := `
			INSERT INTO comments (recipe_id, author_username, parent_id, message, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING ` + commentColumns
		row := tx.QueryRowContext(ctx, query,
			nc.RecipeID, nc.AuthorUsername, nullInt64(nc.ParentID), nc.Message, time.Now().UTC(),
		)
		c, err := scanComment(row)
		if err != nil {
			return err
		}
		comment = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// GetByID retrieves a comment by ID, returning nil when it does not exist
func (r *commentRepo) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`

	comment, err := scanComment(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// UpdateMessage replaces the message of a live comment and stamps edited_at
func (r *commentRepo) UpdateMessage(ctx context.Context, id int64, message string) (*models.Comment, error) {
	query := `
		UPDATE comments SET message = $1, edited_at = $2
		WHERE id = $3 AND deleted_at IS NULL
		RETURNING ` + commentColumns

	comment, err := scanComment(r.db.QueryRowContext(ctx, query, message, time.Now().UTC(), id))
	if err == nil {
		return comment, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	// Nothing matched: either the row is gone or it is soft-deleted.
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrNotFound
	}
	return nil, ErrDeleted
}

// SoftDelete stamps deleted_at once; repeated calls keep the first timestamp
func (r *commentRepo) SoftDelete(ctx context.Context, id int64) (*models.Comment, error) {
	query := `
		UPDATE comments SET deleted_at = COALESCE(deleted_at, $1)
		WHERE id = $2
		RETURNING ` + commentColumns

	comment, err := scanComment(r.db.QueryRowContext(ctx, query, time.Now().UTC(), id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// ListByRecipe returns every comment on a recipe, deleted ones included.
// Ordering is left to the tree builder.
func (r *commentRepo) ListByRecipe(ctx context.Context, recipeID int64) ([]*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE recipe_id = $1`
	rows, err := r.db.QueryContext(ctx, query, recipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]*models.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}

	return comments, rows.Err()
}

// Depth returns the number of ancestors of a comment (0 for a root)
func (r *commentRepo) Depth(ctx context.Context, id int64) (int, error) {
	query := `
		WITH RECURSIVE ancestry AS (
			SELECT id, parent_id, 0 AS depth FROM comments WHERE id = $1
			UNION ALL
			SELECT c.id, c.parent_id, a.depth + 1
			FROM comments c JOIN ancestry a ON c.id = a.parent_id
		)
		SELECT COALESCE(MAX(depth), -1) FROM ancestry
	`
	var depth int
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&depth); err != nil {
		return 0, err
	}
	if depth < 0 {
		return 0, ErrNotFound
	}
	return depth, nil
}

// Count returns the total number of comments
func (r *commentRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments").Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner) (*models.Comment, error) {
	var comment models.Comment
	var parentID sql.NullInt64
	var editedAt, deletedAt sql.NullTime

	err := row.Scan(
		&comment.ID, &comment.RecipeID, &comment.AuthorUsername, &parentID,
		&comment.Message, &comment.CreatedAt, &editedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		comment.ParentID = &parentID.Int64
	}
	if editedAt.Valid {
		comment.EditedAt = &editedAt.Time
	}
	if deletedAt.Valid {
		comment.DeletedAt = &deletedAt.Time
	}
	return &comment, nil
}

// helper to convert a nil pointer to NULL
func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
