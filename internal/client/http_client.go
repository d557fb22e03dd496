// Package client talks to the comments API and keeps a local, optimistically
// updated copy of one recipe's thread.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/recipe-comments-api/internal/models"
)

// API is the boundary the Reconciler drives
type API interface {
	ListComments(ctx context.Context, recipeID int64) ([]*models.CommentNode, error)
	CreateComment(ctx context.Context, recipeID int64, req models.CreateCommentRequest) (*models.CommentNode, error)
	EditComment(ctx context.Context, commentID int64, message string) (*models.Comment, error)
	DeleteComment(ctx context.Context, commentID int64) (*models.Comment, error)
	Vote(ctx context.Context, commentID int64, value int) (*models.VoteResponse, error)
}

// APIError is returned for any non-2xx response
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsUnauthorized reports whether the session was missing or expired
func (e *APIError) IsUnauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// HTTPClient implements API over HTTP with a bearer token
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewHTTPClient creates a client for baseURL. An empty token makes
// anonymous requests. httpClient may be nil.
func NewHTTPClient(baseURL, token string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

func (c *HTTPClient) ListComments(ctx context.Context, recipeID int64) ([]*models.CommentNode, error) {
	var forest []*models.CommentNode
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/recipe/%d/comments", recipeID), nil, &forest); err != nil {
		return nil, err
	}
	return forest, nil
}

func (c *HTTPClient) CreateComment(ctx context.Context, recipeID int64, req models.CreateCommentRequest) (*models.CommentNode, error) {
	var node models.CommentNode
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/recipe/%d/comments", recipeID), req, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

func (c *HTTPClient) EditComment(ctx context.Context, commentID int64, message string) (*models.Comment, error) {
	var comment models.Comment
	body := models.EditCommentRequest{Message: message}
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/comments/%d", commentID), body, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *HTTPClient) DeleteComment(ctx context.Context, commentID int64) (*models.Comment, error) {
	var comment models.Comment
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/comments/%d", commentID), nil, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *HTTPClient) Vote(ctx context.Context, commentID int64, value int) (*models.VoteResponse, error) {
	var resp models.VoteResponse
	body := models.VoteRequest{Value: &value}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/comments/%d/vote", commentID), body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// decodeAPIError reads either {error} or {errors: [...]}
func decodeAPIError(resp *http.Response) error {
	var payload struct {
		Error  string   `json:"error"`
		Errors []string `json:"errors"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(data, &payload)

	message := payload.Error
	if message == "" && len(payload.Errors) > 0 {
		message = strings.Join(payload.Errors, "; ")
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: message}
}
