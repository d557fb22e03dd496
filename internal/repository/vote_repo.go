package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/recipe-comments-api/internal/database"
	"github.com/recipe-comments-api/internal/models"
)

// foreign_key_violation
const pqForeignKeyViolation = "23503"

// voteRepo is the concrete implementation of VoteRepository
type voteRepo struct {
	db *database.DB
}

// NewVoteRepo creates a new vote repository
func NewVoteRepo(db *database.DB) VoteRepository {
	return &voteRepo{db: db}
}

// Upsert stores or replaces the (comment, voter) row for a non-zero value and
// removes it for VoteClear. The primary key on (comment_id, voter_username)
// serializes concurrent writes from the same voter.
func (r *voteRepo) Upsert(ctx context.Context, commentID int64, voter string, value int) error {
	if value == models.VoteClear {
		return r.clear(ctx, commentID, voter)
	}

	query := `
		INSERT INTO comment_votes (comment_id, voter_username, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (comment_id, voter_username)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, commentID, voter, value, time.Now().UTC())
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
		return ErrNotFound
	}
	return err
}

func (r *voteRepo) clear(ctx context.Context, commentID int64, voter string) error {
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM comments WHERE id = $1)`, commentID,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}

		_, err = tx.ExecContext(ctx,
			`DELETE FROM comment_votes WHERE comment_id = $1 AND voter_username = $2`,
			commentID, voter,
		)
		return err
	})
}

// AggregateFor returns the score of one comment and the viewer's vote
func (r *voteRepo) AggregateFor(ctx context.Context, commentID int64, viewer string) (models.VoteAggregate, error) {
	query := `
		SELECT COALESCE(SUM(value), 0),
			MAX(CASE WHEN voter_username = $2 THEN value END)
		FROM comment_votes WHERE comment_id = $1
	`
	var agg models.VoteAggregate
	var myVote sql.NullInt64
	if err := r.db.QueryRowContext(ctx, query, commentID, viewer).Scan(&agg.Score, &myVote); err != nil {
		return models.VoteAggregate{}, err
	}
	if myVote.Valid && viewer != "" {
		v := int(myVote.Int64)
		agg.MyVote = &v
	}
	return agg, nil
}

// AggregatesByRecipe computes every comment's aggregate on a recipe in one
// query. Comments without votes are absent from the map.
func (r *voteRepo) AggregatesByRecipe(ctx context.Context, recipeID int64, viewer string) (map[int64]models.VoteAggregate, error) {
	query := `
		SELECT v.comment_id, SUM(v.value),
			MAX(CASE WHEN v.voter_username = $2 THEN v.value END)
		FROM comment_votes v
		JOIN comments c ON c.id = v.comment_id
		WHERE c.recipe_id = $1
		GROUP BY v.comment_id
	`
	rows, err := r.db.QueryContext(ctx, query, recipeID, viewer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	aggregates := make(map[int64]models.VoteAggregate)
	for rows.Next() {
		var commentID int64
		var agg models.VoteAggregate
		var myVote sql.NullInt64
		if err := rows.Scan(&commentID, &agg.Score, &myVote); err != nil {
			return nil, err
		}
		if myVote.Valid && viewer != "" {
			v := int(myVote.Int64)
			agg.MyVote = &v
		}
		aggregates[commentID] = agg
	}

	return aggregates, rows.Err()
}
