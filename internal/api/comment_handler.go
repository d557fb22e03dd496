package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/recipe-comments-api/internal/models"
	"github.com/recipe-comments-api/internal/service"
	"github.com/recipe-comments-api/internal/validation"
	"github.com/rs/zerolog"
)

// CommentHandler handles comment and vote endpoints
type CommentHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		services: services,
		log:      log.With().Str("handler", "comment").Logger(),
	}
}

// ListComments handles GET /api/recipe/:id/comments
func (h *CommentHandler) ListComments(c *gin.Context) {
	recipeID, err := validation.ParseID(c.Param("id"), "recipeId")
	if err != nil {
		h.respondError(c, err)
		return
	}

	forest, err := h.services.Comment.List(c.Request.Context(), recipeID, identityFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, forest)
}

// CreateComment handles POST /api/recipe/:id/comments
func (h *CommentHandler) CreateComment(c *gin.Context) {
	recipeID, err := validation.ParseID(c.Param("id"), "recipeId")
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req models.CreateCommentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	node, err := h.services.Comment.Create(c.Request.Context(), recipeID, identityFrom(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, node)
}

// EditComment handles PATCH /api/comments/:id
func (h *CommentHandler) EditComment(c *gin.Context) {
	commentID, err := validation.ParseID(c.Param("id"), "commentId")
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req models.EditCommentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	comment, err := h.services.Comment.Edit(c.Request.Context(), commentID, identityFrom(c), req.Message)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// DeleteComment handles DELETE /api/comments/:id
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	commentID, err := validation.ParseID(c.Param("id"), "commentId")
	if err != nil {
		h.respondError(c, err)
		return
	}

	comment, err := h.services.Comment.Delete(c.Request.Context(), commentID, identityFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// Vote handles POST /api/comments/:id/vote
func (h *CommentHandler) Vote(c *gin.Context) {
	commentID, err := validation.ParseID(c.Param("id"), "commentId")
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req models.VoteRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.services.Comment.Vote(c.Request.Context(), commentID, identityFrom(c), req.Value)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// bindJSON decodes the request body. An anonymous caller is refused before
// the body is judged, so a malformed body never masks a 401.
func (h *CommentHandler) bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if identityFrom(c) == "" {
			h.respondError(c, service.ErrUnauthorized)
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

// respondError maps service errors onto HTTP statuses
func (h *CommentHandler) respondError(c *gin.Context, err error) {
	var verrs *service.ValidationErrors
	var verr validation.ValidationError

	switch {
	case errors.As(err, &verrs):
		if len(verrs.Errors) == 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": verrs.Errors[0].Message})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"errors": verrs.Messages()})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
	case errors.Is(err, service.ErrInvalidParent):
		c.JSON(http.StatusBadRequest, gin.H{"error": "parent comment not found on this recipe"})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "you can only change your own comments"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error().
			Err(err).
			Str("request_id", c.GetString(requestIDKey)).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
