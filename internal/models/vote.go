package models

import (
	"time"
)

// Vote values. VoteClear is never stored; submitting it removes the row.
const (
	VoteUp    = 1
	VoteDown  = -1
	VoteClear = 0
)

// Vote is a single voter's opinion of a comment, unique per (CommentID, VoterUsername)
type Vote struct {
	CommentID     int64     `json:"commentId" db:"comment_id"`
	VoterUsername string    `json:"voter" db:"voter_username"`
	Value         int       `json:"value" db:"value"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// VoteAggregate is the derived score of a comment and the viewer's own vote
type VoteAggregate struct {
	Score  int
	MyVote *int
}

// VoteRequest is the body of POST /api/comments/:id/vote
type VoteRequest struct {
	Value *int `json:"value"`
}

// VoteResponse is returned after a vote is applied
type VoteResponse struct {
	CommentID int64 `json:"commentId"`
	Score     int   `json:"score"`
	MyVote    *int  `json:"myVote"`
}
