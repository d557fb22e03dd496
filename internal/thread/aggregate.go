package thread

import (
	"github.com/recipe-comments-api/internal/models"
)

// Tally folds a batch of votes into per-comment aggregates in a single pass.
// Comments without votes are absent from the result; callers treat a missing
// entry as score 0 with no viewer vote. An empty viewer never matches.
func Tally(votes []models.Vote, viewer string) map[int64]models.VoteAggregate {
	aggregates := make(map[int64]models.VoteAggregate)
	for _, v := range votes {
		agg := aggregates[v.CommentID]
		agg.Score += v.Value
		if viewer != "" && v.VoterUsername == viewer {
			value := v.Value
			agg.MyVote = &value
		}
		aggregates[v.CommentID] = agg
	}
	return aggregates
}
