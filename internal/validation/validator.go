package validation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/recipe-comments-api/internal/models"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return e.Message
}

// Validator provides validation methods
type Validator struct {
	maxMessageLength int
}

// NewValidator creates a validator bounding messages to maxMessageLength
// characters; a non-positive bound falls back to models.MaxMessageLength.
func NewValidator(maxMessageLength int) *Validator {
	if maxMessageLength <= 0 {
		maxMessageLength = models.MaxMessageLength
	}
	return &Validator{maxMessageLength: maxMessageLength}
}

// MaxMessageLength returns the configured bound
func (v *Validator) MaxMessageLength() int {
	return v.maxMessageLength
}

// ValidateMessage trims the message and checks it is non-empty and within
// bounds. Length is counted in characters, not bytes.
func (v *Validator) ValidateMessage(message string) (string, []ValidationError) {
	var errors []ValidationError

	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		errors = append(errors, ValidationError{Field: "message", Message: "message is required"})
		return trimmed, errors
	}

	if !utf8.ValidString(trimmed) {
		errors = append(errors, ValidationError{Field: "message", Message: "message must be valid UTF-8"})
	}

	if n := utf8.RuneCountInString(trimmed); n > v.maxMessageLength {
		errors = append(errors, ValidationError{
			Field:   "message",
			Message: fmt.Sprintf("message must be at most %d characters", v.maxMessageLength),
			Value:   n,
		})
	}

	return trimmed, errors
}

// ValidateParentID checks an optional parent reference is a positive id
func (v *Validator) ValidateParentID(parentID *int64) []ValidationError {
	if parentID != nil && *parentID <= 0 {
		return []ValidationError{{Field: "parentId", Message: "parentId must be a positive integer", Value: *parentID}}
	}
	return nil
}

// ValidateVoteValue checks a vote is one of -1, 0, 1
func (v *Validator) ValidateVoteValue(value *int) []ValidationError {
	if value == nil {
		return []ValidationError{{Field: "value", Message: "value is required"}}
	}
	switch *value {
	case models.VoteUp, models.VoteDown, models.VoteClear:
		return nil
	}
	return []ValidationError{{Field: "value", Message: "value must be -1, 0 or 1", Value: *value}}
}

// ParseID parses a path id, which must be a positive base-10 integer
func ParseID(raw, field string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ValidationError{Field: field, Message: fmt.Sprintf("%s must be a positive integer", field), Value: raw}
	}
	return id, nil
}
